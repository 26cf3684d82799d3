package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campus-suite/attendance-api/internal/service"
	appErrors "github.com/campus-suite/attendance-api/pkg/errors"
	"github.com/campus-suite/attendance-api/pkg/response"
)

// GroupHandler exposes group management endpoints.
type GroupHandler struct {
	service *service.GroupService
}

// NewGroupHandler creates a new handler.
func NewGroupHandler(svc *service.GroupService) *GroupHandler {
	return &GroupHandler{service: svc}
}

type createNameRequest struct {
	Name string `json:"name" binding:"required"`
}

// List godoc
// @Summary List groups
// @Tags Groups
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /groups [get]
func (h *GroupHandler) List(c *gin.Context) {
	groups, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, groups, nil)
}

// Create godoc
// @Summary Create a group
// @Tags Groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body createNameRequest true "Group name"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /groups [post]
func (h *GroupHandler) Create(c *gin.Context) {
	var req createNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "group name is required"))
		return
	}

	group, err := h.service.Create(c.Request.Context(), req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, group)
}

// Delete godoc
// @Summary Delete a group
// @Description Remove a group together with its students and attendance history
// @Tags Groups
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group id"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /groups/{id} [delete]
func (h *GroupHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
