package app

import (
	"testing"
	"time"

	"github.com/bft-labs/paintwatch/internal/domain"
)

func TestDebouncer_Observe(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	at := func(ms int) time.Time { return t0.Add(time.Duration(ms) * time.Millisecond) }

	type step struct {
		present    bool
		atMS       int
		wantChange domain.PresenceChange
		wantOK     bool
		wantPhone  bool
	}

	tests := []struct {
		name  string
		steps []step
	}{
		{
			name: "first positive rises",
			steps: []step{
				{true, 0, domain.BecamePresent, true, true},
			},
		},
		{
			name: "repeated positives emit once",
			steps: []step{
				{true, 0, domain.BecamePresent, true, true},
				{true, 300, 0, false, true},
				{true, 600, 0, false, true},
			},
		},
		{
			name: "negatives within timeout hold presence",
			steps: []step{
				{true, 0, domain.BecamePresent, true, true},
				{false, 300, 0, false, true},
				{false, 3000, 0, false, true},
			},
		},
		{
			name: "negative past timeout falls",
			steps: []step{
				{true, 0, domain.BecamePresent, true, true},
				{false, 3001, domain.BecameAbsent, true, false},
				{false, 3300, 0, false, false},
			},
		},
		{
			name: "positive refreshes the timeout",
			steps: []step{
				{true, 0, domain.BecamePresent, true, true},
				{true, 2000, 0, false, true},
				{false, 4000, 0, false, true},
				{false, 5001, domain.BecameAbsent, true, false},
			},
		},
		{
			name: "negatives while absent do nothing",
			steps: []step{
				{false, 0, 0, false, false},
				{false, 10000, 0, false, false},
			},
		},
		{
			name: "rises again after falling",
			steps: []step{
				{true, 0, domain.BecamePresent, true, true},
				{false, 3500, domain.BecameAbsent, true, false},
				{true, 3800, domain.BecamePresent, true, true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDebouncer(3 * time.Second)
			for i, s := range tt.steps {
				change, ok := d.Observe(domain.DetectionSample{Present: s.present, At: at(s.atMS)})
				if ok != s.wantOK || (ok && change != s.wantChange) {
					t.Fatalf("step %d: Observe() = (%v, %v), want (%v, %v)", i, change, ok, s.wantChange, s.wantOK)
				}
				if got := d.State().HasPhone; got != s.wantPhone {
					t.Fatalf("step %d: HasPhone = %v, want %v", i, got, s.wantPhone)
				}
			}
		})
	}
}

func TestDebouncer_LastTrueAtOnlyMovesOnPositives(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	d := NewDebouncer(time.Second)

	d.Observe(domain.DetectionSample{Present: true, At: t0})
	d.Observe(domain.DetectionSample{Present: false, At: t0.Add(500 * time.Millisecond)})

	if got := d.State().LastTrueAt; !got.Equal(t0) {
		t.Errorf("LastTrueAt = %v, want %v", got, t0)
	}
}
