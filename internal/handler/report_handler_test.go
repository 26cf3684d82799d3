package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-suite/attendance-api/internal/middleware"
	"github.com/campus-suite/attendance-api/internal/models"
	"github.com/campus-suite/attendance-api/internal/service"
)

type reportRepoStub struct {
	filters []models.AttendanceFilter
}

func (s *reportRepoStub) ListJoined(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceJoinedRow, error) {
	s.filters = append(s.filters, filter)
	return nil, nil
}

func reportContext(t *testing.T, role models.UserRole, query string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(http.MethodGet, "/reports/attendance"+query, nil)
	require.NoError(t, err)
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "user-1", Role: role})
	return c, w
}

func TestMatrixPinsTeacherToOwnSessions(t *testing.T) {
	repo := &reportRepoStub{}
	h := NewReportHandler(service.NewReportService(repo, nil, service.ReportConfig{}, nil))

	c, w := reportContext(t, models.RoleTeacher, "?teacher_id=someone-else")
	h.Matrix(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, repo.filters, 1)
	assert.Equal(t, "user-1", repo.filters[0].TeacherUserID, "a teacher only sees their own sessions")
}

func TestMatrixHonorsTeacherFilterForAdmin(t *testing.T) {
	repo := &reportRepoStub{}
	h := NewReportHandler(service.NewReportService(repo, nil, service.ReportConfig{}, nil))

	c, w := reportContext(t, models.RoleAdmin, "?teacher_id=teacher-7")
	h.Matrix(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, repo.filters, 1)
	assert.Equal(t, "teacher-7", repo.filters[0].TeacherUserID)
}
