package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campus-suite/attendance-api/internal/models"
	"github.com/campus-suite/attendance-api/internal/service"
	appErrors "github.com/campus-suite/attendance-api/pkg/errors"
	"github.com/campus-suite/attendance-api/pkg/response"
)

// ReportHandler exposes the attendance matrix and its exports.
type ReportHandler struct {
	service *service.ReportService
}

// NewReportHandler creates a new handler.
func NewReportHandler(svc *service.ReportService) *ReportHandler {
	return &ReportHandler{service: svc}
}

func reportFilter(c *gin.Context) (models.AttendanceFilter, error) {
	filter := models.AttendanceFilter{
		TeacherUserID: c.Query("teacher_id"),
		SubjectID:     c.Query("subject_id"),
		GroupID:       c.Query("group_id"),
	}
	// Teachers see their own sessions only; the teacher_id filter is an
	// admin affordance.
	if claims := claimsFromContext(c); claims != nil && claims.Role == models.RoleTeacher {
		filter.TeacherUserID = claims.UserID
	}
	if raw := c.Query("date_from"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return filter, appErrors.Clone(appErrors.ErrValidation, "date_from must be YYYY-MM-DD")
		}
		filter.DateFrom = &t
	}
	if raw := c.Query("date_to"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return filter, appErrors.Clone(appErrors.ErrValidation, "date_to must be YYYY-MM-DD")
		}
		// Make the upper bound inclusive of the named day.
		end := t.Add(24 * time.Hour)
		filter.DateTo = &end
	}
	return filter, nil
}

// Matrix godoc
// @Summary Attendance matrix
// @Description Per-group presence matrix scoped by teacher, subject, group and date range
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param teacher_id query string false "Teacher user id"
// @Param subject_id query string false "Subject id"
// @Param group_id query string false "Group id"
// @Param date_from query string false "Start date (YYYY-MM-DD)"
// @Param date_to query string false "End date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /reports/attendance [get]
func (h *ReportHandler) Matrix(c *gin.Context) {
	filter, err := reportFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	matrix, err := h.service.Matrix(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, matrix, nil)
}

// ExportCSV godoc
// @Summary Export the attendance matrix as CSV
// @Tags Reports
// @Produce text/csv
// @Security BearerAuth
// @Success 200 {file} file
// @Router /reports/attendance/export/csv [get]
func (h *ReportHandler) ExportCSV(c *gin.Context) {
	filter, err := reportFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	raw, err := h.service.ExportCSV(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="attendance.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", raw)
}

// ExportPDF godoc
// @Summary Export the attendance matrix as PDF
// @Tags Reports
// @Produce application/pdf
// @Security BearerAuth
// @Success 200 {file} file
// @Router /reports/attendance/export/pdf [get]
func (h *ReportHandler) ExportPDF(c *gin.Context) {
	filter, err := reportFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	raw, err := h.service.ExportPDF(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="attendance.pdf"`)
	c.Data(http.StatusOK, "application/pdf", raw)
}
