package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/Jency96/Form-Management/service"
)

func newDrawingRouter(t *testing.T) *gin.Engine {
	t.Helper()
	store, err := service.NewDrawingStore(filepath.Join(t.TempDir(), "drawings.json"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	h := NewDrawingHandler(store)

	router := gin.New()
	router.GET("/api/drawings", h.List)
	router.POST("/api/drawings", h.Save)
	router.GET("/api/drawings/:id", h.Get)
	router.DELETE("/api/drawings/:id", h.Delete)
	router.DELETE("/api/drawings", h.Clear)
	return router
}

func doRequest(router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestDrawingSaveAndList(t *testing.T) {
	router := newDrawingRouter(t)

	w := postJSON(router, "/api/drawings", map[string]string{
		"dataURL": testPNGDataURL(t, 4, 4),
		"label":   "signature",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "Drawing saved successfully!") {
		t.Errorf("Unexpected save response: %s", w.Body.String())
	}

	w = doRequest(router, http.MethodGet, "/api/drawings")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "signature") {
		t.Errorf("Expected saved drawing in list: %s", w.Body.String())
	}
}

func TestDrawingSaveRejectsMissingData(t *testing.T) {
	router := newDrawingRouter(t)

	w := postJSON(router, "/api/drawings", map[string]string{"label": "empty"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing dataURL, got %d", w.Code)
	}

	w = postJSON(router, "/api/drawings", map[string]string{"dataURL": "data:,"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for blank dataURL, got %d", w.Code)
	}
}

func TestDrawingGetAndDelete(t *testing.T) {
	router := newDrawingRouter(t)

	w := postJSON(router, "/api/drawings", map[string]string{"dataURL": testPNGDataURL(t, 4, 4)})
	if w.Code != http.StatusOK {
		t.Fatal(w.Body.String())
	}
	var saved struct {
		Drawing struct {
			ID string `json:"id"`
		} `json:"drawing"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &saved); err != nil {
		t.Fatalf("Failed to parse save response: %v", err)
	}

	w = doRequest(router, http.MethodGet, "/api/drawings/"+saved.Drawing.ID)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 for saved drawing, got %d", w.Code)
	}

	w = doRequest(router, http.MethodDelete, "/api/drawings/"+saved.Drawing.ID)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 for delete, got %d", w.Code)
	}

	w = doRequest(router, http.MethodGet, "/api/drawings/"+saved.Drawing.ID)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", w.Code)
	}
	w = doRequest(router, http.MethodDelete, "/api/drawings/"+saved.Drawing.ID)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 deleting twice, got %d", w.Code)
	}
}

func TestDrawingDeleteStorageFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drawings.json")
	store, err := service.NewDrawingStore(path)
	if err != nil {
		t.Fatal(err)
	}
	h := NewDrawingHandler(store)
	router := gin.New()
	router.DELETE("/api/drawings/:id", h.Delete)

	saved, err := store.Save(testPNGDataURL(t, 4, 4), "stuck")
	if err != nil {
		t.Fatal(err)
	}

	// A directory squatting on the temp path makes the delete's write
	// fail; that is a storage failure, not a missing drawing.
	if err := os.Mkdir(path+".tmp", 0o755); err != nil {
		t.Fatal(err)
	}

	w := doRequest(router, http.MethodDelete, "/api/drawings/"+saved.ID)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500 for a failed persist, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Failed to delete drawing") {
		t.Errorf("Unexpected error body: %s", w.Body.String())
	}
}

func TestDrawingClear(t *testing.T) {
	router := newDrawingRouter(t)

	postJSON(router, "/api/drawings", map[string]string{"dataURL": testPNGDataURL(t, 4, 4)})
	postJSON(router, "/api/drawings", map[string]string{"dataURL": testPNGDataURL(t, 4, 4)})

	w := doRequest(router, http.MethodDelete, "/api/drawings")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	w = doRequest(router, http.MethodGet, "/api/drawings")
	if strings.Contains(w.Body.String(), `"id"`) {
		t.Errorf("Expected empty list after clear: %s", w.Body.String())
	}
}
