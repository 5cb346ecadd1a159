package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Jency96/Form-Management/service"
)

type DrawingHandler struct {
	store *service.DrawingStore
}

func NewDrawingHandler(store *service.DrawingStore) *DrawingHandler {
	return &DrawingHandler{store: store}
}

type saveDrawingRequest struct {
	DataURL string `json:"dataURL" binding:"required"`
	Label   string `json:"label"`
}

// List returns all saved drawings, newest first.
func (h *DrawingHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"drawings": h.store.List()})
}

// Save appends a drawing to the saved list.
func (h *DrawingHandler) Save(c *gin.Context) {
	var req saveDrawingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No drawing data provided"})
		return
	}

	entry, err := h.store.Save(req.DataURL, req.Label)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Drawing saved successfully!",
		"drawing": entry,
	})
}

// Get returns one saved drawing by ID.
func (h *DrawingHandler) Get(c *gin.Context) {
	entry := h.store.Get(c.Param("id"))
	if entry == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Drawing not found"})
		return
	}
	c.JSON(http.StatusOK, entry)
}

// Delete removes one saved drawing by ID.
func (h *DrawingHandler) Delete(c *gin.Context) {
	removed, err := h.store.Delete(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete drawing"})
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "Drawing not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Drawing deleted successfully!"})
}

// Clear removes all saved drawings.
func (h *DrawingHandler) Clear(c *gin.Context) {
	if err := h.store.Clear(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete drawings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All saved drawings deleted!"})
}
