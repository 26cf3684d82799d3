package handler

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campus-suite/attendance-api/internal/models"
	"github.com/campus-suite/attendance-api/internal/service"
	appErrors "github.com/campus-suite/attendance-api/pkg/errors"
	"github.com/campus-suite/attendance-api/pkg/response"
)

// maxPhotoSize caps enrollment photo uploads at 8 MiB.
const maxPhotoSize = 8 << 20

// StudentHandler exposes student management endpoints.
type StudentHandler struct {
	service *service.StudentService
}

// NewStudentHandler creates a new handler.
func NewStudentHandler(svc *service.StudentService) *StudentHandler {
	return &StudentHandler{service: svc}
}

// List godoc
// @Summary List students
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param group_id query string false "Filter by group"
// @Param search query string false "Search by name"
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	filter := models.StudentFilter{
		GroupID: c.Query("group_id"),
		Search:  c.Query("search"),
	}
	students, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil)
}

// Get godoc
// @Summary Fetch one student
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student card number"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "student id must be numeric"))
		return
	}

	student, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Enroll godoc
// @Summary Enroll a student
// @Description Register a student with a photo; a face encoding is extracted once at enrollment
// @Tags Students
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id formData int true "Student card number"
// @Param fio formData string true "Full name"
// @Param mail formData string true "Email"
// @Param birth_date formData string true "Birth date (YYYY-MM-DD)"
// @Param education_form formData string true "Education form"
// @Param group_id formData string true "Group id"
// @Param photo formData file true "Portrait photo"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /students [post]
func (h *StudentHandler) Enroll(c *gin.Context) {
	id, err := strconv.ParseInt(c.PostForm("id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "student id must be numeric"))
		return
	}
	birthDate, err := time.Parse("2006-01-02", c.PostForm("birth_date"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "birth_date must be YYYY-MM-DD"))
		return
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "photo is required"))
		return
	}
	if fileHeader.Size > maxPhotoSize {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "photo is too large"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read photo"))
		return
	}
	defer file.Close()
	photo, err := io.ReadAll(io.LimitReader(file, maxPhotoSize))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read photo"))
		return
	}

	input := service.EnrollStudentInput{
		ID:            id,
		FIO:           c.PostForm("fio"),
		Mail:          c.PostForm("mail"),
		BirthDate:     birthDate,
		EducationForm: c.PostForm("education_form"),
		GroupID:       c.PostForm("group_id"),
		PhotoName:     fileHeader.Filename,
		Photo:         photo,
	}

	student, err := h.service.Enroll(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// Delete godoc
// @Summary Delete a student
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student card number"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /students/{id} [delete]
func (h *StudentHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "student id must be numeric"))
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Photo godoc
// @Summary Serve a student photo
// @Description Serve a photo through a signed, expiring token
// @Tags Students
// @Produce image/jpeg
// @Param token path string true "Signed photo token"
// @Success 200 {file} file
// @Failure 401 {object} response.Envelope
// @Router /photos/{token} [get]
func (h *StudentHandler) Photo(c *gin.Context) {
	path, err := h.service.OpenPhoto(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.File(path)
}
