package model

// Fix is one geolocation sample.
type Fix struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
	Acc float64 `json:"acc"` // accuracy radius in meters
	Ts  int64   `json:"ts,omitempty"`
}

// FixMessage is the cross-window message shape posted back to the form
// page by the detachable location picker.
type FixMessage struct {
	Type    string     `json:"type"` // "gps-fix" or "gps:result"
	Payload FixPayload `json:"payload"`
}

type FixPayload struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Acc     float64 `json:"acc"`
	Road    string  `json:"road,omitempty"`
	Address string  `json:"address,omitempty"`
}

// Fix session states
const (
	FixSampling  = "sampling"
	FixDone      = "done"
	FixCancelled = "cancelled"
	FixNoFix     = "no_fix"
)
