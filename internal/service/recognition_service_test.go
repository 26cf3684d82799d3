package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-suite/attendance-api/internal/facerec"
	"github.com/campus-suite/attendance-api/internal/models"
	"github.com/campus-suite/attendance-api/internal/roster"
	appErrors "github.com/campus-suite/attendance-api/pkg/errors"
)

type mockRosterStudentRepo struct {
	rows       []models.StudentRosterRow
	rowsErr    error
	students   map[int64]*models.StudentDetail
	findErrIDs map[int64]error
}

func (m *mockRosterStudentRepo) ListRosterByGroupName(ctx context.Context, groupName string) ([]models.StudentRosterRow, error) {
	if m.rowsErr != nil {
		return nil, m.rowsErr
	}
	return m.rows, nil
}

func (m *mockRosterStudentRepo) FindByID(ctx context.Context, id int64) (*models.StudentDetail, error) {
	if err, ok := m.findErrIDs[id]; ok {
		return nil, err
	}
	if st, ok := m.students[id]; ok {
		return st, nil
	}
	return nil, sql.ErrNoRows
}

type mockRosterGroupRepo struct {
	err error
}

func (m *mockRosterGroupRepo) FindByName(ctx context.Context, name string) (*models.Group, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.Group{ID: "group-1", Name: name}, nil
}

type mockDetector struct {
	detections []facerec.Detection
	err        error
}

func (m *mockDetector) Detect(ctx context.Context, image []byte) ([]facerec.Detection, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.detections, nil
}

func encodingJSON(t *testing.T, first float64) string {
	t.Helper()
	enc := make([]float64, facerec.EncodingSize)
	enc[0] = first
	raw, err := json.Marshal(enc)
	require.NoError(t, err)
	return string(raw)
}

func probeEncoding(first float64) facerec.Encoding {
	enc := make(facerec.Encoding, facerec.EncodingSize)
	enc[0] = first
	return enc
}

func testFrame(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func detailFor(id int64, fio string) *models.StudentDetail {
	return &models.StudentDetail{Student: models.Student{ID: id, FIO: fio}, GroupName: "Б10"}
}

func TestLoadFacesSkipsUnusableEncodings(t *testing.T) {
	students := &mockRosterStudentRepo{rows: []models.StudentRosterRow{
		{ID: 1001, FaceEncoding: encodingJSON(t, 0.1)},
		{ID: 1002, FaceEncoding: ""},
		{ID: 1003, FaceEncoding: "{broken"},
		{ID: 1004, FaceEncoding: encodingJSON(t, 0.2)},
	}}
	store := roster.NewStore()
	svc := NewRecognitionService(students, &mockRosterGroupRepo{}, store, &mockDetector{}, 0, zapTestLogger(), nil)

	result, err := svc.LoadFaces(context.Background(), "owner-1", "Б10")
	require.NoError(t, err)
	assert.Equal(t, 2, result.LoadedCount)
	assert.Equal(t, 2, result.SkippedCount)

	snap := store.Get("owner-1")
	require.NotNil(t, snap)
	assert.Equal(t, []int64{1001, 1004}, snap.StudentIDs, "skipped students must not shift index alignment")
}

func TestLoadFacesUnknownGroup(t *testing.T) {
	svc := NewRecognitionService(&mockRosterStudentRepo{}, &mockRosterGroupRepo{err: sql.ErrNoRows}, roster.NewStore(), &mockDetector{}, 0, zapTestLogger(), nil)

	_, err := svc.LoadFaces(context.Background(), "owner-1", "нет-такой")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRecognizeWithoutRoster(t *testing.T) {
	detector := &mockDetector{detections: []facerec.Detection{
		{Box: facerec.Box{1, 2, 3, 4}, Encoding: probeEncoding(0.0)},
	}}
	svc := NewRecognitionService(&mockRosterStudentRepo{}, &mockRosterGroupRepo{}, roster.NewStore(), detector, 0, zapTestLogger(), nil)

	_, err := svc.Recognize(context.Background(), "owner-1", testFrame(t))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNoRosterLoaded.Code, appErrors.FromError(err).Code)
}

func TestRecognizeEmptyFrameNeedsNoRoster(t *testing.T) {
	svc := NewRecognitionService(&mockRosterStudentRepo{}, &mockRosterGroupRepo{}, roster.NewStore(), &mockDetector{}, 0, zapTestLogger(), nil)

	result, err := svc.Recognize(context.Background(), "owner-1", testFrame(t))
	require.NoError(t, err, "a frame with no faces is an empty success, loaded roster or not")
	assert.Empty(t, result.Recognized)
	assert.Empty(t, result.FaceLocations)
}

func TestRecognizeBadImageBeforeRosterCheck(t *testing.T) {
	svc := NewRecognitionService(&mockRosterStudentRepo{}, &mockRosterGroupRepo{}, roster.NewStore(), &mockDetector{}, 0, zapTestLogger(), nil)

	_, err := svc.Recognize(context.Background(), "owner-1", "data:image/png;base64,not-base64!!")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDecode.Code, appErrors.FromError(err).Code, "malformed input is a decode error even with no roster loaded")
}

func TestRecognizeRejectsBadImage(t *testing.T) {
	store := roster.NewStore()
	store.Replace("owner-1", &roster.Snapshot{
		Group:      "Б10",
		Faces:      []facerec.Encoding{probeEncoding(0.1)},
		StudentIDs: []int64{1001},
	})
	svc := NewRecognitionService(&mockRosterStudentRepo{}, &mockRosterGroupRepo{}, store, &mockDetector{}, 0, zapTestLogger(), nil)

	_, err := svc.Recognize(context.Background(), "owner-1", "data:image/png;base64,not-base64!!")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDecode.Code, appErrors.FromError(err).Code)
}

func TestRecognizeFirstMatchWinsOverNearest(t *testing.T) {
	store := roster.NewStore()
	store.Replace("owner-1", &roster.Snapshot{
		Group: "Б10",
		Faces: []facerec.Encoding{
			probeEncoding(0.5), // within tolerance but farther
			probeEncoding(0.0), // exact
		},
		StudentIDs: []int64{1001, 1002},
	})
	students := &mockRosterStudentRepo{students: map[int64]*models.StudentDetail{
		1001: detailFor(1001, "Первый"),
		1002: detailFor(1002, "Второй"),
	}}
	detector := &mockDetector{detections: []facerec.Detection{
		{Box: facerec.Box{10, 20, 30, 40}, Encoding: probeEncoding(0.0)},
	}}
	svc := NewRecognitionService(students, &mockRosterGroupRepo{}, store, detector, 0, zapTestLogger(), nil)

	result, err := svc.Recognize(context.Background(), "owner-1", testFrame(t))
	require.NoError(t, err)
	require.Len(t, result.Recognized, 1)
	assert.Equal(t, int64(1001), result.Recognized[0].ID, "ties resolve to load order, not distance")
	assert.Equal(t, []facerec.Box{{10, 20, 30, 40}}, result.FaceLocations)
}

func TestRecognizeSkipsDeletedStudent(t *testing.T) {
	store := roster.NewStore()
	store.Replace("owner-1", &roster.Snapshot{
		Group:      "Б10",
		Faces:      []facerec.Encoding{probeEncoding(0.0)},
		StudentIDs: []int64{1001},
	})
	students := &mockRosterStudentRepo{findErrIDs: map[int64]error{1001: sql.ErrNoRows}}
	detector := &mockDetector{detections: []facerec.Detection{
		{Box: facerec.Box{1, 2, 3, 4}, Encoding: probeEncoding(0.0)},
	}}
	svc := NewRecognitionService(students, &mockRosterGroupRepo{}, store, detector, 0, zapTestLogger(), nil)

	result, err := svc.Recognize(context.Background(), "owner-1", testFrame(t))
	require.NoError(t, err)
	assert.Empty(t, result.Recognized)
	assert.Len(t, result.FaceLocations, 1, "locations still reported for unmatched faces")
}

func TestRecognizeEngineFailure(t *testing.T) {
	store := roster.NewStore()
	store.Replace("owner-1", &roster.Snapshot{
		Group:      "Б10",
		Faces:      []facerec.Encoding{probeEncoding(0.0)},
		StudentIDs: []int64{1001},
	})
	detector := &mockDetector{err: fmt.Errorf("engine unavailable: %w", errors.New("connection refused"))}
	svc := NewRecognitionService(&mockRosterStudentRepo{}, &mockRosterGroupRepo{}, store, detector, 0, zapTestLogger(), nil)

	_, err := svc.Recognize(context.Background(), "owner-1", testFrame(t))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}
