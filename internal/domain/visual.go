package domain

import "time"

// VisualState is the painting the display shows once animations settle.
type VisualState int

const (
	// StateDefault is the unaltered painting. It is the initial state.
	StateDefault VisualState = iota
	// StateRemoved is the painting with the figure taken out.
	StateRemoved
)

// String returns a human-readable representation of the state.
func (s VisualState) String() string {
	switch s {
	case StateDefault:
		return "default"
	case StateRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// DetectionSample is one verdict from the detector.
type DetectionSample struct {
	Present bool
	At      time.Time
}

// Detection is the decoded answer of a single /detect call.
type Detection struct {
	// Count is the number of phones found in the frame.
	Count int

	// Annotated is the detector's JPEG with boxes drawn, if it sent one.
	Annotated []byte
}

// Present reports whether at least one phone was found.
func (d Detection) Present() bool { return d.Count > 0 }

// Health is the detector's answer to GET /.
type Health struct {
	ModelLoaded bool `json:"model_loaded"`
}

// PresenceState is the debounced presence signal.
type PresenceState struct {
	HasPhone   bool
	LastTrueAt time.Time
}

// PresenceChange is an edge of the debounced presence signal.
type PresenceChange int

const (
	BecamePresent PresenceChange = iota + 1
	BecameAbsent
)

// String returns a human-readable representation of the change.
func (c PresenceChange) String() string {
	switch c {
	case BecamePresent:
		return "present"
	case BecameAbsent:
		return "absent"
	default:
		return "none"
	}
}

// Target maps a presence edge to the visual state it requests.
func (c PresenceChange) Target() VisualState {
	if c == BecamePresent {
		return StateRemoved
	}
	return StateDefault
}
