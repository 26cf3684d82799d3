package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campus-suite/attendance-api/internal/facerec"
	"github.com/campus-suite/attendance-api/internal/middleware"
	"github.com/campus-suite/attendance-api/internal/models"
	"github.com/campus-suite/attendance-api/internal/roster"
	"github.com/campus-suite/attendance-api/internal/service"
)

type studentRepoStub struct {
	rows    []models.StudentRosterRow
	details map[int64]*models.StudentDetail
}

func (s *studentRepoStub) ListRosterByGroupName(ctx context.Context, groupName string) ([]models.StudentRosterRow, error) {
	return s.rows, nil
}

func (s *studentRepoStub) FindByID(ctx context.Context, id int64) (*models.StudentDetail, error) {
	if d, ok := s.details[id]; ok {
		return d, nil
	}
	return nil, sql.ErrNoRows
}

type groupRepoStub struct {
	missing bool
}

func (s *groupRepoStub) FindByName(ctx context.Context, name string) (*models.Group, error) {
	if s.missing {
		return nil, sql.ErrNoRows
	}
	return &models.Group{ID: "group-1", Name: name}, nil
}

func (s *groupRepoStub) FindByID(ctx context.Context, id string) (*models.Group, error) {
	if s.missing {
		return nil, sql.ErrNoRows
	}
	return &models.Group{ID: id, Name: "Б10"}, nil
}

type detectorStub struct {
	detections []facerec.Detection
}

func (s *detectorStub) Detect(ctx context.Context, image []byte) ([]facerec.Detection, error) {
	return s.detections, nil
}

func fullEncoding(first float64) facerec.Encoding {
	enc := make(facerec.Encoding, facerec.EncodingSize)
	enc[0] = first
	return enc
}

func encodedRoster(t *testing.T, first float64) string {
	t.Helper()
	raw, err := json.Marshal(fullEncoding(first))
	require.NoError(t, err)
	return string(raw)
}

func framePayload(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func authedContext(t *testing.T, method, path string, payload interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req, err := http.NewRequest(method, path, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "user-1", Role: models.RoleTeacher})
	return c, w
}

func recognitionFixture(store *roster.Store, detector facerec.Detector) *RecognitionHandler {
	students := &studentRepoStub{
		rows: []models.StudentRosterRow{
			{ID: 1001, FaceEncoding: `[]`},
		},
		details: map[int64]*models.StudentDetail{
			1001: {Student: models.Student{ID: 1001, FIO: "Иванов Иван"}, GroupName: "Б10"},
		},
	}
	svc := service.NewRecognitionService(students, &groupRepoStub{}, store, detector, 0, zap.NewNop(), nil)
	return NewRecognitionHandler(svc)
}

func TestLoadFacesEndpoint(t *testing.T) {
	students := &studentRepoStub{rows: []models.StudentRosterRow{
		{ID: 1001, FaceEncoding: encodedRoster(t, 0.1)},
		{ID: 1002, FaceEncoding: ""},
	}}
	store := roster.NewStore()
	svc := service.NewRecognitionService(students, &groupRepoStub{}, store, &detectorStub{}, 0, zap.NewNop(), nil)
	h := NewRecognitionHandler(svc)

	c, w := authedContext(t, http.MethodPost, "/recognition/faces/load", gin.H{"group": "Б10"})
	h.LoadFaces(c)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Success bool                     `json:"success"`
		Data    *service.LoadFacesResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	require.NotNil(t, envelope.Data)
	assert.Equal(t, 1, envelope.Data.LoadedCount)
	assert.Equal(t, 1, envelope.Data.SkippedCount)
	assert.NotNil(t, store.Get("user-1"))
}

func TestLoadFacesEndpointMissingGroup(t *testing.T) {
	svc := service.NewRecognitionService(&studentRepoStub{}, &groupRepoStub{missing: true}, roster.NewStore(), &detectorStub{}, 0, zap.NewNop(), nil)
	h := NewRecognitionHandler(svc)

	c, w := authedContext(t, http.MethodPost, "/recognition/faces/load", gin.H{"group": "нет"})
	h.LoadFaces(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecognizeEndpoint(t *testing.T) {
	store := roster.NewStore()
	store.Replace("user-1", &roster.Snapshot{
		Group:      "Б10",
		Faces:      []facerec.Encoding{fullEncoding(0.1)},
		StudentIDs: []int64{1001},
	})
	detector := &detectorStub{detections: []facerec.Detection{
		{Box: facerec.Box{10, 20, 30, 40}, Encoding: fullEncoding(0.1)},
	}}
	h := recognitionFixture(store, detector)

	c, w := authedContext(t, http.MethodPost, "/recognition/recognize", gin.H{"image": framePayload(t)})
	h.Recognize(c)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Success bool                     `json:"success"`
		Data    *service.RecognizeResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Data)
	require.Len(t, envelope.Data.Recognized, 1)
	assert.Equal(t, int64(1001), envelope.Data.Recognized[0].ID)
	assert.Equal(t, "Иванов Иван", envelope.Data.Recognized[0].FIO)
	require.Len(t, envelope.Data.FaceLocations, 1)
}

func TestRecognizeEndpointWithoutRoster(t *testing.T) {
	detector := &detectorStub{detections: []facerec.Detection{
		{Box: facerec.Box{10, 20, 30, 40}, Encoding: fullEncoding(0.1)},
	}}
	h := recognitionFixture(roster.NewStore(), detector)

	c, w := authedContext(t, http.MethodPost, "/recognition/recognize", gin.H{"image": framePayload(t)})
	h.Recognize(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var envelope struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.False(t, envelope.Success)
	assert.Contains(t, envelope.Message, "no known faces")
}

func TestRecognizeEndpointBadImage(t *testing.T) {
	store := roster.NewStore()
	store.Replace("user-1", &roster.Snapshot{
		Group:      "Б10",
		Faces:      []facerec.Encoding{fullEncoding(0.1)},
		StudentIDs: []int64{1001},
	})
	h := recognitionFixture(store, &detectorStub{})

	c, w := authedContext(t, http.MethodPost, "/recognition/recognize", gin.H{"image": "not-an-image"})
	h.Recognize(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
