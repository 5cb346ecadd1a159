package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Jency96/Form-Management/service"
)

type PhotoHandler struct {
	photos *service.PhotoStore
}

func NewPhotoHandler(photos *service.PhotoStore) *PhotoHandler {
	return &PhotoHandler{photos: photos}
}

type photoRequest struct {
	DataURL string `json:"dataURL" binding:"required"`
}

// Capture stores a freshly captured camera frame.
func (h *PhotoHandler) Capture(c *gin.Context) {
	var req photoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No photo data provided"})
		return
	}
	if err := h.photos.SetCaptured(req.DataURL); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Photo captured"})
}

// Attach promotes the captured frame to the attached photo.
func (h *PhotoHandler) Attach(c *gin.Context) {
	if err := h.photos.Attach(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Photo ready to attach"})
}

// Latest returns the photo that would be embedded right now.
func (h *PhotoHandler) Latest(c *gin.Context) {
	dataURL := h.photos.Latest()
	c.JSON(http.StatusOK, gin.H{
		"present": dataURL != "",
		"dataURL": dataURL,
	})
}

// ClearSession drops the photo slots at the start of a form session.
func (h *PhotoHandler) ClearSession(c *gin.Context) {
	h.photos.ClearSession()
	c.JSON(http.StatusOK, gin.H{"message": "Photo session cleared"})
}
