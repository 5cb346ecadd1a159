package handler

import (
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/Jency96/Form-Management/service"
)

func newPhotoRouter() *gin.Engine {
	h := NewPhotoHandler(service.NewPhotoStore())
	router := gin.New()
	router.POST("/api/photos/capture", h.Capture)
	router.POST("/api/photos/attach", h.Attach)
	router.GET("/api/photos/latest", h.Latest)
	router.DELETE("/api/photos", h.ClearSession)
	return router
}

func TestPhotoCaptureAttachFlow(t *testing.T) {
	router := newPhotoRouter()
	url := testPNGDataURL(t, 4, 4)

	// Attach before any capture fails.
	w := postJSON(router, "/api/photos/attach", map[string]string{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 attaching with no capture, got %d", w.Code)
	}

	w = postJSON(router, "/api/photos/capture", map[string]string{"dataURL": url})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = postJSON(router, "/api/photos/attach", map[string]string{})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 attach, got %d", w.Code)
	}

	w = doRequest(router, http.MethodGet, "/api/photos/latest")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"present":true`) {
		t.Errorf("Expected photo present: %s", w.Body.String())
	}
}

func TestPhotoCaptureRejectsBlank(t *testing.T) {
	router := newPhotoRouter()

	w := postJSON(router, "/api/photos/capture", map[string]string{"dataURL": "data:,"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for blank capture, got %d", w.Code)
	}
	w = postJSON(router, "/api/photos/capture", map[string]string{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing dataURL, got %d", w.Code)
	}
}

func TestPhotoClearSession(t *testing.T) {
	router := newPhotoRouter()

	postJSON(router, "/api/photos/capture", map[string]string{"dataURL": testPNGDataURL(t, 4, 4)})
	w := doRequest(router, http.MethodDelete, "/api/photos")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	w = doRequest(router, http.MethodGet, "/api/photos/latest")
	if !strings.Contains(w.Body.String(), `"present":false`) {
		t.Errorf("Expected no photo after clear: %s", w.Body.String())
	}
}
