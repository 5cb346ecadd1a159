package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Jency96/Form-Management/model"
	"github.com/Jency96/Form-Management/pkg/logger"
	"github.com/Jency96/Form-Management/service"
)

type LocationHandler struct {
	geocode        *service.GeocodeService
	tracker        *service.FixTracker
	allowedOrigins []string
}

func NewLocationHandler(geocode *service.GeocodeService, tracker *service.FixTracker, allowedOrigins []string) *LocationHandler {
	return &LocationHandler{
		geocode:        geocode,
		tracker:        tracker,
		allowedOrigins: allowedOrigins,
	}
}

// Search proxies a free-text place search.
func (h *LocationHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing query"})
		return
	}

	places, err := h.geocode.Search(c.Request.Context(), query, 5)
	if err != nil {
		slog.Warn("place search failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Search failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": places})
}

// Reverse resolves coordinates to an address. A lookup failure leaves
// the address blank rather than blocking location confirmation.
func (h *LocationHandler) Reverse(c *gin.Context) {
	lat, err1 := strconv.ParseFloat(c.Query("lat"), 64)
	lng, err2 := strconv.ParseFloat(c.Query("lng"), 64)
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid coordinates"})
		return
	}

	addr, err := h.geocode.Reverse(c.Request.Context(), lat, lng)
	if err != nil {
		slog.Warn("reverse geocode failed", "error", err)
		c.JSON(http.StatusOK, gin.H{"address": nil, "note": "Address lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": addr})
}

// StartFix opens a best-fix sampling session.
func (h *LocationHandler) StartFix(c *gin.Context) {
	if !h.originAllowed(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Origin not allowed"})
		return
	}
	session := h.tracker.Start()
	c.JSON(http.StatusOK, gin.H{"id": session.ID, "state": model.FixSampling})
}

// OfferSample feeds one geolocation sample into a session.
func (h *LocationHandler) OfferSample(c *gin.Context) {
	if !h.originAllowed(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Origin not allowed"})
		return
	}

	var fix model.Fix
	if err := c.ShouldBindJSON(&fix); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid fix sample"})
		return
	}

	id := c.Param("id")
	accepted, state, err := h.tracker.Offer(id, fix)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Fix session not found"})
		return
	}

	if state == model.FixDone {
		// Sampling just finished; look the address up in the background
		// so the final message can carry it.
		go h.resolveAddress(id)
	}

	c.JSON(http.StatusOK, gin.H{"accepted": accepted, "state": state})
}

// GetFix reports the session state and, when available, the gps-fix
// message for the opener window.
func (h *LocationHandler) GetFix(c *gin.Context) {
	state, msg, err := h.tracker.Result(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Fix session not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state, "message": msg})
}

// CancelFix stops sampling immediately, keeping the best fix seen.
func (h *LocationHandler) CancelFix(c *gin.Context) {
	if err := h.tracker.Cancel(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Fix session not found"})
		return
	}
	state, msg, _ := h.tracker.Result(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"state": state, "message": msg})
}

func (h *LocationHandler) resolveAddress(id string) {
	state, msg, err := h.tracker.Result(id)
	if err != nil || msg == nil || state != model.FixDone {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	ctx = context.WithValue(ctx, logger.FixSessionKey, id)

	addr, err := h.geocode.Reverse(ctx, msg.Payload.Lat, msg.Payload.Lng)
	if err != nil {
		logger.Warn(ctx, "reverse geocode after fix failed", "error", err)
		return
	}
	if err := h.tracker.SetAddress(id, addr.Road, addr.Full); err != nil {
		logger.Warn(ctx, "failed to attach address to fix session", "error", err)
	}
}

// originAllowed validates the caller's Origin header before trusting a
// posted fix. Requests without an Origin (same-origin fetches, tools)
// pass; cross-origin callers must be explicitly allowed.
func (h *LocationHandler) originAllowed(c *gin.Context) bool {
	origin := c.GetHeader("Origin")
	if origin == "" {
		return true
	}
	if u, err := url.Parse(origin); err == nil && u.Host == c.Request.Host {
		return true
	}
	for _, allowed := range h.allowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}
