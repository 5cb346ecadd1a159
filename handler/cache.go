package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Jency96/Form-Management/service"
)

type CacheHandler struct {
	gateway *service.Gateway
}

func NewCacheHandler(gateway *service.Gateway) *CacheHandler {
	return &CacheHandler{gateway: gateway}
}

type cacheMessage struct {
	Type string `json:"type" binding:"required"`
}

// Status reports the gateway lifecycle state. The update_applied flag
// is delivered exactly once after a version supersede so the page can
// reload at most once.
func (h *CacheHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.gateway.Status())
}

// Message accepts control messages from the page. SKIP_WAITING asks a
// waiting version to activate immediately.
func (h *CacheHandler) Message(c *gin.Context) {
	var msg cacheMessage
	if err := c.ShouldBindJSON(&msg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid message"})
		return
	}

	switch msg.Type {
	case "SKIP_WAITING":
		if err := h.gateway.SkipWaiting(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Activation failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown message type"})
	}
}
