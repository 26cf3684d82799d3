package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-suite/attendance-api/internal/models"
	appErrors "github.com/campus-suite/attendance-api/pkg/errors"
)

type mockReportRepo struct {
	rows  []models.AttendanceJoinedRow
	err   error
	calls int
}

func (m *mockReportRepo) ListJoined(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceJoinedRow, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.rows, nil
}

type memoryReportCache struct {
	values map[string][]byte
	sets   int
}

func (c *memoryReportCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := c.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memoryReportCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if c.values == nil {
		c.values = make(map[string][]byte)
	}
	c.values[key] = raw
	c.sets++
	return nil
}

func joinedRow(teacher, subject, group string, id int64, fio string, ts time.Time) models.AttendanceJoinedRow {
	row := models.AttendanceJoinedRow{
		TeacherFIO:  teacher,
		SubjectName: subject,
		GroupName:   group,
		Timestamp:   ts,
	}
	if fio != "" {
		row.StudentID = &id
		row.StudentFIO = &fio
	}
	return row
}

func TestMatrixMarksPresenceAndAbsence(t *testing.T) {
	day1 := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 3, 17, 9, 0, 0, 0, time.UTC)
	repo := &mockReportRepo{rows: []models.AttendanceJoinedRow{
		joinedRow("Петров", "Математика", "Б10", 1001, "Первый", day1),
		joinedRow("Петров", "Математика", "Б10", 1002, "Второй", day1),
		joinedRow("Петров", "Математика", "Б10", 1001, "Первый", day2),
	}}
	svc := NewReportService(repo, nil, ReportConfig{}, zapTestLogger())

	matrix, err := svc.Matrix(context.Background(), models.AttendanceFilter{})
	require.NoError(t, err)
	require.Len(t, matrix.Groups, 1)

	group := matrix.Groups[0]
	assert.Equal(t, []string{"10.03.2026", "17.03.2026"}, group.Dates)
	require.Len(t, group.Students, 2)

	first := group.Students[0]
	assert.Equal(t, "Второй", first.FIO)
	assert.Equal(t, markPresent, first.Attendance["10.03.2026"])
	assert.Equal(t, markAbsent, first.Attendance["17.03.2026"])

	second := group.Students[1]
	assert.Equal(t, "Первый", second.FIO)
	assert.Equal(t, markPresent, second.Attendance["10.03.2026"])
	assert.Equal(t, markPresent, second.Attendance["17.03.2026"])
}

func TestMatrixNullStudentSessionShowsEveryoneAbsent(t *testing.T) {
	day1 := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 3, 17, 9, 0, 0, 0, time.UTC)
	repo := &mockReportRepo{rows: []models.AttendanceJoinedRow{
		joinedRow("Петров", "Математика", "Б10", 1001, "Первый", day1),
		// The session on day2 happened but nobody was present.
		joinedRow("Петров", "Математика", "Б10", 0, "", day2),
	}}
	svc := NewReportService(repo, nil, ReportConfig{}, zapTestLogger())

	matrix, err := svc.Matrix(context.Background(), models.AttendanceFilter{})
	require.NoError(t, err)
	require.Len(t, matrix.Groups, 1)

	group := matrix.Groups[0]
	assert.Equal(t, []string{"10.03.2026", "17.03.2026"}, group.Dates, "held-but-empty sessions still produce a date column")
	require.Len(t, group.Students, 1)
	assert.Equal(t, markAbsent, group.Students[0].Attendance["17.03.2026"])
}

func TestMatrixSplitsBlocksPerTeacherSubjectGroup(t *testing.T) {
	day := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	repo := &mockReportRepo{rows: []models.AttendanceJoinedRow{
		joinedRow("Петров", "Математика", "Б10", 1001, "Первый", day),
		joinedRow("Петров", "Физика", "Б10", 1001, "Первый", day),
		joinedRow("Сидоров", "Математика", "В20", 2001, "Третий", day),
	}}
	svc := NewReportService(repo, nil, ReportConfig{}, zapTestLogger())

	matrix, err := svc.Matrix(context.Background(), models.AttendanceFilter{})
	require.NoError(t, err)
	assert.Len(t, matrix.Groups, 3)
}

func TestMatrixUsesCache(t *testing.T) {
	day := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	repo := &mockReportRepo{rows: []models.AttendanceJoinedRow{
		joinedRow("Петров", "Математика", "Б10", 1001, "Первый", day),
	}}
	cache := &memoryReportCache{}
	svc := NewReportService(repo, cache, ReportConfig{CacheEnabled: true, CacheTTL: time.Minute}, zapTestLogger())

	_, err := svc.Matrix(context.Background(), models.AttendanceFilter{GroupID: "group-1"})
	require.NoError(t, err)
	_, err = svc.Matrix(context.Background(), models.AttendanceFilter{GroupID: "group-1"})
	require.NoError(t, err)

	assert.Equal(t, 1, repo.calls, "second read must come from cache")
	assert.Equal(t, 1, cache.sets)
}

func TestExportCSVContainsMarks(t *testing.T) {
	day := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	repo := &mockReportRepo{rows: []models.AttendanceJoinedRow{
		joinedRow("Петров", "Математика", "Б10", 1001, "Первый", day),
	}}
	svc := NewReportService(repo, nil, ReportConfig{}, zapTestLogger())

	raw, err := svc.ExportCSV(context.Background(), models.AttendanceFilter{})
	require.NoError(t, err)
	out := string(raw)
	assert.Contains(t, out, "Первый")
	assert.Contains(t, out, "10.03.2026")
	assert.Contains(t, out, markPresent)
}

func TestExportPDFProducesDocument(t *testing.T) {
	day := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	repo := &mockReportRepo{rows: []models.AttendanceJoinedRow{
		joinedRow("Петров", "Математика", "Б10", 1001, "Первый", day),
	}}
	svc := NewReportService(repo, nil, ReportConfig{}, zapTestLogger())

	raw, err := svc.ExportPDF(context.Background(), models.AttendanceFilter{})
	require.NoError(t, err)
	assert.True(t, len(raw) > 0)
	assert.Equal(t, "%PDF", string(raw[:4]))
}
