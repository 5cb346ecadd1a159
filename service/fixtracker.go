package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Jency96/Form-Management/config"
	"github.com/Jency96/Form-Management/model"
)

// FixTracker runs bounded best-fix sampling sessions: samples are
// offered as they arrive, the most accurate one seen is retained,
// sampling finishes early once accuracy is good enough and stops hard
// at the ceiling. Cancelling keeps the last good fix.
type FixTracker struct {
	config   *config.FixConfig
	mu       sync.Mutex
	sessions map[string]*FixSession
}

// FixSession is one sampling window.
type FixSession struct {
	ID        string
	mu        sync.Mutex
	state     string
	best      *model.Fix
	road      string
	address   string
	timer     *time.Timer
	createdAt time.Time
}

func NewFixTracker(cfg *config.FixConfig) *FixTracker {
	return &FixTracker{
		config:   cfg,
		sessions: make(map[string]*FixSession),
	}
}

// Start opens a new sampling session with the ceiling timer armed.
func (t *FixTracker) Start() *FixSession {
	s := &FixSession{
		ID:        uuid.New().String(),
		state:     model.FixSampling,
		createdAt: time.Now(),
	}
	s.timer = time.AfterFunc(time.Duration(t.config.CeilingSeconds)*time.Second, func() {
		s.finish()
	})

	t.mu.Lock()
	t.pruneLocked()
	t.sessions[s.ID] = s
	t.mu.Unlock()
	return s
}

// Get returns a session by ID.
func (t *FixTracker) Get(id string) *FixSession {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sessions[id]
}

// Offer feeds one sample into a session. Samples worse than the
// accuracy floor are ignored; a sample at or under the good-enough
// threshold finishes the session early.
func (t *FixTracker) Offer(id string, fix model.Fix) (accepted bool, state string, err error) {
	s := t.Get(id)
	if s == nil {
		return false, "", fmt.Errorf("unknown fix session %s", id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != model.FixSampling {
		return false, s.state, nil
	}
	if fix.Acc > t.config.MaxAccuracyM {
		return false, s.state, nil
	}
	if s.best == nil || fix.Acc < s.best.Acc {
		f := fix
		s.best = &f
		accepted = true
	}
	if fix.Acc <= t.config.GoodAccuracyM {
		s.finishLocked()
	}
	return accepted, s.state, nil
}

// SetAddress attaches reverse-geocode results to the session so the
// final message can carry them.
func (t *FixTracker) SetAddress(id, road, address string) error {
	s := t.Get(id)
	if s == nil {
		return fmt.Errorf("unknown fix session %s", id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.road = road
	s.address = address
	return nil
}

// Cancel stops the session immediately. The best fix seen so far is
// retained, not discarded.
func (t *FixTracker) Cancel(id string) error {
	s := t.Get(id)
	if s == nil {
		return fmt.Errorf("unknown fix session %s", id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == model.FixSampling {
		s.timer.Stop()
		s.state = model.FixCancelled
	}
	return nil
}

// Result reports the session state and, when a fix exists, the message
// in the cross-window contract shape.
func (t *FixTracker) Result(id string) (string, *model.FixMessage, error) {
	s := t.Get(id)
	if s == nil {
		return "", nil, fmt.Errorf("unknown fix session %s", id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.best == nil {
		return s.state, nil, nil
	}
	return s.state, &model.FixMessage{
		Type: "gps-fix",
		Payload: model.FixPayload{
			Lat:     s.best.Lat,
			Lng:     s.best.Lng,
			Acc:     s.best.Acc,
			Road:    s.road,
			Address: s.address,
		},
	}, nil
}

// finish closes the sampling window at the ceiling: best-effort result
// if anything usable was captured, explicit no-fix otherwise.
func (s *FixSession) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finishLocked()
}

func (s *FixSession) finishLocked() {
	if s.state != model.FixSampling {
		return
	}
	s.timer.Stop()
	if s.best != nil {
		s.state = model.FixDone
	} else {
		s.state = model.FixNoFix
	}
}

// pruneLocked drops sessions older than ten minutes. Must be called
// with the tracker lock held.
func (t *FixTracker) pruneLocked() {
	cutoff := time.Now().Add(-10 * time.Minute)
	for id, s := range t.sessions {
		if s.createdAt.Before(cutoff) {
			s.timer.Stop()
			delete(t.sessions, id)
		}
	}
}
