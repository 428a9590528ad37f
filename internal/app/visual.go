package app

import (
	"github.com/bft-labs/paintwatch/internal/domain"
	"github.com/bft-labs/paintwatch/internal/ports"
)

// FrameCounts holds the final frame index of each sequence.
type FrameCounts struct {
	In   int
	Out  int
	Peek int
}

// VisualMachine owns the visual state and serializes transitions.
//
// While an animation runs, requests only overwrite a single pending slot.
// When the run finishes, the pending target is re-issued, so the machine
// always ends on the most recent request and transitions never overlap.
type VisualMachine struct {
	seq    *Sequencer
	peek   *PeekScheduler
	frames ports.FrameCache
	counts FrameCounts
	logger ports.Logger

	current    domain.VisualState
	pending    domain.VisualState
	hasPending bool

	// OnChange is called when a transition starts.
	OnChange func(previous, current domain.VisualState)
}

// NewVisualMachine creates a machine in the Default state and hooks it to
// the sequencer's run completions. Call AttachPeek before the first request.
func NewVisualMachine(seq *Sequencer, frames ports.FrameCache, counts FrameCounts, logger ports.Logger) *VisualMachine {
	m := &VisualMachine{
		seq:     seq,
		frames:  frames,
		counts:  counts,
		logger:  logger,
		current: domain.StateDefault,
	}
	seq.OnFinish(m.drainPending)
	return m
}

// AttachPeek sets the peek scheduler armed after entering Removed.
func (m *VisualMachine) AttachPeek(peek *PeekScheduler) { m.peek = peek }

// Current returns the visual state.
func (m *VisualMachine) Current() domain.VisualState { return m.current }

// Pending returns the queued target, if any.
func (m *VisualMachine) Pending() (domain.VisualState, bool) { return m.pending, m.hasPending }

// RequestState asks the display to converge to target. Never blocks.
func (m *VisualMachine) RequestState(target domain.VisualState) {
	if m.seq.Active() {
		m.pending = target
		m.hasPending = true
		m.logger.Debug("transition queued", ports.String("target", target.String()))
		return
	}
	if target == m.current {
		return
	}

	m.peek.Disarm()

	previous := m.current
	m.current = target
	m.logger.Info("visual state transition",
		ports.String("from", previous.String()),
		ports.String("to", target.String()))
	if m.OnChange != nil {
		m.OnChange(previous, target)
	}

	switch target {
	case domain.StateRemoved:
		m.seq.Play(domain.SequenceOut, m.counts.Out, m.frames.Static(domain.StaticRemoved), false, m.peek.Arm)
	case domain.StateDefault:
		m.seq.Play(domain.SequenceIn, m.counts.In, m.frames.Static(domain.StaticDefault), false, nil)
	}
}

func (m *VisualMachine) drainPending() {
	if !m.hasPending {
		return
	}
	target := m.pending
	m.hasPending = false
	m.RequestState(target)
}
