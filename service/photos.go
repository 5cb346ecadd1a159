package service

import (
	"fmt"
	"sync"
)

// PhotoStore holds the photo artifacts of the current form session: a
// freshly captured frame and the photo the user explicitly attached.
// An attached photo always takes precedence over a captured-but-not-
// confirmed frame.
type PhotoStore struct {
	mu       sync.RWMutex
	captured string
	attached string
}

func NewPhotoStore() *PhotoStore {
	return &PhotoStore{}
}

// SetCaptured records a freshly captured camera frame.
func (s *PhotoStore) SetCaptured(dataURL string) error {
	if IsBlankDataURL(dataURL) {
		return fmt.Errorf("captured photo is empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.captured = dataURL
	return nil
}

// Attach promotes the captured frame to the attached slot.
func (s *PhotoStore) Attach() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if IsBlankDataURL(s.captured) {
		return fmt.Errorf("no captured photo to attach")
	}
	s.attached = s.captured
	return nil
}

// SetAttached attaches a photo directly, bypassing the capture slot.
func (s *PhotoStore) SetAttached(dataURL string) error {
	if IsBlankDataURL(dataURL) {
		return fmt.Errorf("attached photo is empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attached = dataURL
	return nil
}

// Latest resolves the photo to embed: the explicitly attached photo
// wins over a captured frame; blank payloads count as absent.
func (s *PhotoStore) Latest() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !IsBlankDataURL(s.attached) {
		return s.attached
	}
	if !IsBlankDataURL(s.captured) {
		return s.captured
	}
	return ""
}

// ClearSession drops both slots. Called at the start of each form
// session.
func (s *PhotoStore) ClearSession() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.captured = ""
	s.attached = ""
}
