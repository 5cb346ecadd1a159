package service

import (
	"testing"
	"time"

	"github.com/Jency96/Form-Management/config"
	"github.com/Jency96/Form-Management/model"
)

func newTestTracker(ceilingSeconds int) *FixTracker {
	return NewFixTracker(&config.FixConfig{
		MaxAccuracyM:   200,
		GoodAccuracyM:  20,
		CeilingSeconds: ceilingSeconds,
	})
}

func TestFixTrackerIgnoresInaccurateSamples(t *testing.T) {
	tracker := newTestTracker(60)
	s := tracker.Start()

	accepted, state, err := tracker.Offer(s.ID, model.Fix{Lat: 1, Lng: 2, Acc: 250})
	if err != nil {
		t.Fatalf("Offer failed: %v", err)
	}
	if accepted {
		t.Error("Expected sample above the accuracy floor to be ignored")
	}
	if state != model.FixSampling {
		t.Errorf("Expected sampling state, got %s", state)
	}

	if _, msg, _ := tracker.Result(s.ID); msg != nil {
		t.Error("Expected no fix after only ignored samples")
	}
}

func TestFixTrackerKeepsMostAccurate(t *testing.T) {
	tracker := newTestTracker(60)
	s := tracker.Start()

	if accepted, _, _ := tracker.Offer(s.ID, model.Fix{Lat: 1, Lng: 1, Acc: 100}); !accepted {
		t.Error("Expected first usable sample to be accepted")
	}
	// A worse sample never replaces a better one.
	if accepted, _, _ := tracker.Offer(s.ID, model.Fix{Lat: 9, Lng: 9, Acc: 150}); accepted {
		t.Error("Expected less accurate sample to be rejected")
	}
	if accepted, _, _ := tracker.Offer(s.ID, model.Fix{Lat: 2, Lng: 2, Acc: 50}); !accepted {
		t.Error("Expected more accurate sample to replace the best")
	}

	_, msg, err := tracker.Result(s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if msg == nil || msg.Payload.Acc != 50 {
		t.Fatalf("Expected best fix with acc 50, got %+v", msg)
	}
}

func TestFixTrackerFinishesEarlyOnGoodFix(t *testing.T) {
	tracker := newTestTracker(60)
	s := tracker.Start()

	accepted, state, err := tracker.Offer(s.ID, model.Fix{Lat: 3, Lng: 4, Acc: 15})
	if err != nil {
		t.Fatal(err)
	}
	if !accepted {
		t.Error("Expected good sample to be accepted")
	}
	if state != model.FixDone {
		t.Errorf("Expected done state after good fix, got %s", state)
	}

	// Further samples are ignored once the session has finished.
	if accepted, _, _ := tracker.Offer(s.ID, model.Fix{Lat: 9, Lng: 9, Acc: 5}); accepted {
		t.Error("Expected samples after finish to be rejected")
	}

	state, msg, err := tracker.Result(s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if state != model.FixDone {
		t.Errorf("Expected done, got %s", state)
	}
	if msg.Type != "gps-fix" {
		t.Errorf("Expected gps-fix message type, got %s", msg.Type)
	}
	if msg.Payload.Lat != 3 || msg.Payload.Lng != 4 || msg.Payload.Acc != 15 {
		t.Errorf("Unexpected payload: %+v", msg.Payload)
	}
}

func TestFixTrackerCeiling(t *testing.T) {
	tracker := newTestTracker(1)
	s := tracker.Start()

	deadline := time.Now().Add(3 * time.Second)
	for {
		state, _, err := tracker.Result(s.ID)
		if err != nil {
			t.Fatal(err)
		}
		if state == model.FixNoFix {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("Expected no-fix at the ceiling, still %s", state)
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func TestFixTrackerCancelKeepsBest(t *testing.T) {
	tracker := newTestTracker(60)
	s := tracker.Start()

	tracker.Offer(s.ID, model.Fix{Lat: 7, Lng: 8, Acc: 90})
	if err := tracker.Cancel(s.ID); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	state, msg, err := tracker.Result(s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if state != model.FixCancelled {
		t.Errorf("Expected cancelled state, got %s", state)
	}
	if msg == nil || msg.Payload.Lat != 7 {
		t.Errorf("Expected best fix retained after cancel, got %+v", msg)
	}
}

func TestFixTrackerSetAddress(t *testing.T) {
	tracker := newTestTracker(60)
	s := tracker.Start()
	tracker.Offer(s.ID, model.Fix{Lat: 1, Lng: 2, Acc: 10})

	if err := tracker.SetAddress(s.ID, "Main Rd", "Main Rd, Town"); err != nil {
		t.Fatal(err)
	}
	_, msg, _ := tracker.Result(s.ID)
	if msg.Payload.Road != "Main Rd" || msg.Payload.Address != "Main Rd, Town" {
		t.Errorf("Expected address fields in payload, got %+v", msg.Payload)
	}
}

func TestFixTrackerUnknownSession(t *testing.T) {
	tracker := newTestTracker(60)
	if _, _, err := tracker.Offer("missing", model.Fix{Acc: 10}); err == nil {
		t.Error("Expected error for unknown session")
	}
	if err := tracker.Cancel("missing"); err == nil {
		t.Error("Expected error for unknown session")
	}
	if _, _, err := tracker.Result("missing"); err == nil {
		t.Error("Expected error for unknown session")
	}
}
