package service

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/Jency96/Form-Management/model"
)

// DrawingStore persists saved drawings as a single JSON list on disk,
// mirroring the browser localStorage entry it replaces. Every mutation
// reads the full list, applies one change and writes the list back
// atomically; concurrent writers resolve as last-writer-wins.
type DrawingStore struct {
	path string
	mu   sync.Mutex
}

func NewDrawingStore(path string) (*DrawingStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create drawings directory: %w", err)
	}
	return &DrawingStore{path: path}, nil
}

// Save appends a new drawing and returns the stored entry. IDs derive
// from creation time and are strictly monotonic within the store.
func (s *DrawingStore) Save(dataURL, label string) (*model.SavedDrawing, error) {
	if IsBlankDataURL(dataURL) {
		return nil, fmt.Errorf("drawing data is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	drawings := s.load()
	now := time.Now()
	id := now.UnixMilli()
	if n := len(drawings); n > 0 {
		if last, err := strconv.ParseInt(drawings[n-1].ID, 10, 64); err == nil && id <= last {
			id = last + 1
		}
	}

	entry := model.SavedDrawing{
		ID:        strconv.FormatInt(id, 10),
		DataURL:   dataURL,
		Label:     label,
		CreatedAt: now.Format(time.RFC3339),
	}
	drawings = append(drawings, entry)

	if err := s.persist(drawings); err != nil {
		return nil, err
	}
	return &entry, nil
}

// List returns saved drawings newest first.
func (s *DrawingStore) List() []model.SavedDrawing {
	s.mu.Lock()
	defer s.mu.Unlock()

	drawings := s.load()
	out := make([]model.SavedDrawing, 0, len(drawings))
	for i := len(drawings) - 1; i >= 0; i-- {
		out = append(out, drawings[i])
	}
	return out
}

// Get returns a single drawing by ID.
func (s *DrawingStore) Get(id string) *model.SavedDrawing {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range s.load() {
		if d.ID == id {
			entry := d
			return &entry
		}
	}
	return nil
}

// Delete removes one drawing by ID, leaving the order of the remaining
// entries unchanged. The bool reports whether the entry existed; a
// persist failure is a separate error, not a missing entry.
func (s *DrawingStore) Delete(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	drawings := s.load()
	kept := drawings[:0]
	removed := false
	for _, d := range drawings {
		if d.ID == id {
			removed = true
			continue
		}
		kept = append(kept, d)
	}
	if !removed {
		return false, nil
	}
	if err := s.persist(kept); err != nil {
		return true, err
	}
	return true, nil
}

// Clear removes all saved drawings.
func (s *DrawingStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist([]model.SavedDrawing{})
}

// Count returns the number of saved drawings.
func (s *DrawingStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.load())
}

// load reads the current list. A missing or malformed file is treated
// as an empty list rather than a fatal error.
func (s *DrawingStore) load() []model.SavedDrawing {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}
	var drawings []model.SavedDrawing
	if err := json.Unmarshal(data, &drawings); err != nil {
		slog.Warn("drawings file malformed, treating as empty", "path", s.path, "error", err)
		return nil
	}
	return drawings
}

// persist writes the full list via a temp file so readers never observe
// a partially written list.
func (s *DrawingStore) persist(drawings []model.SavedDrawing) error {
	data, err := json.Marshal(drawings)
	if err != nil {
		return fmt.Errorf("failed to marshal drawings: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write drawings: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace drawings file: %w", err)
	}
	return nil
}
