package app

import (
	"time"

	"github.com/bft-labs/paintwatch/internal/domain"
)

// Debouncer turns noisy per-sample verdicts into a stable presence signal.
//
// Presence rises on the first positive sample. It falls only once no positive
// sample has been seen for longer than the absence timeout, so a single
// negative sample never flips it.
type Debouncer struct {
	timeout time.Duration
	state   domain.PresenceState
}

// NewDebouncer creates a debouncer with the given absence timeout.
func NewDebouncer(timeout time.Duration) *Debouncer {
	return &Debouncer{timeout: timeout}
}

// Observe folds one sample into the presence state.
// Returns the edge crossed by this sample, if any.
func (d *Debouncer) Observe(sample domain.DetectionSample) (domain.PresenceChange, bool) {
	if sample.Present {
		d.state.LastTrueAt = sample.At
		if d.state.HasPhone {
			return 0, false
		}
		d.state.HasPhone = true
		return domain.BecamePresent, true
	}

	if d.state.HasPhone && sample.At.Sub(d.state.LastTrueAt) > d.timeout {
		d.state.HasPhone = false
		return domain.BecameAbsent, true
	}
	return 0, false
}

// State returns a copy of the current presence state.
func (d *Debouncer) State() domain.PresenceState {
	return d.state
}
