package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campus-suite/attendance-api/internal/service"
	appErrors "github.com/campus-suite/attendance-api/pkg/errors"
	"github.com/campus-suite/attendance-api/pkg/response"
)

// RecognitionHandler exposes the roster load and frame recognition endpoints.
type RecognitionHandler struct {
	service *service.RecognitionService
}

// NewRecognitionHandler creates a new handler.
func NewRecognitionHandler(svc *service.RecognitionService) *RecognitionHandler {
	return &RecognitionHandler{service: svc}
}

type loadFacesRequest struct {
	Group string `json:"group" binding:"required"`
}

// LoadFaces godoc
// @Summary Load a group roster
// @Description Load the stored face encodings of a group into the caller's recognition slot
// @Tags Recognition
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body loadFacesRequest true "Group to load"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /recognition/faces/load [post]
func (h *RecognitionHandler) LoadFaces(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req loadFacesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "group name is required"))
		return
	}

	result, err := h.service.LoadFaces(c.Request.Context(), claims.UserID, req.Group)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

type recognizeRequest struct {
	Image string `json:"image" binding:"required"`
}

// Recognize godoc
// @Summary Recognize faces in a frame
// @Description Match a base64 camera frame against the caller's loaded roster
// @Tags Recognition
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body recognizeRequest true "Base64 frame, data-URL or bare"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /recognition/recognize [post]
func (h *RecognitionHandler) Recognize(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req recognizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "image is required"))
		return
	}

	result, err := h.service.Recognize(c.Request.Context(), claims.UserID, req.Image)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
