package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campus-suite/attendance-api/internal/service"
	appErrors "github.com/campus-suite/attendance-api/pkg/errors"
	"github.com/campus-suite/attendance-api/pkg/response"
)

// AttendanceHandler exposes the attendance submission endpoint.
type AttendanceHandler struct {
	service *service.AttendanceService
}

// NewAttendanceHandler creates a new handler.
func NewAttendanceHandler(svc *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: svc}
}

// Submit godoc
// @Summary Submit a reviewed attendance session
// @Description Persist the reviewed present list for one session and notify absentees
// @Tags Attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.SubmitAttendanceInput true "Session submission"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /attendance [post]
func (h *AttendanceHandler) Submit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var input service.SubmitAttendanceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid submission payload"))
		return
	}
	if input.SubjectID == "" || input.GroupID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "subject_id and group_id are required"))
		return
	}

	result, err := h.service.Submit(c.Request.Context(), claims.UserID, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
