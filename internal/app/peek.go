package app

import (
	"time"

	"github.com/bft-labs/paintwatch/internal/domain"
	"github.com/bft-labs/paintwatch/internal/ports"
)

// PeekScheduler periodically plays the idle peek animation while the
// painting rests in the Removed state.
type PeekScheduler struct {
	sched    Scheduler
	seq      *Sequencer
	interval time.Duration
	last     int
	fallback domain.FrameID
	current  func() domain.VisualState
	logger   ports.Logger

	task Task
}

// NewPeekScheduler creates a disarmed peek scheduler. last is the final
// index of the peek sequence and current reports the visual state.
func NewPeekScheduler(sched Scheduler, seq *Sequencer, interval time.Duration, last int, fallback domain.FrameID, current func() domain.VisualState, logger ports.Logger) *PeekScheduler {
	return &PeekScheduler{
		sched:    sched,
		seq:      seq,
		interval: interval,
		last:     last,
		fallback: fallback,
		current:  current,
		logger:   logger,
	}
}

// Arm starts the repeating peek task, replacing any previous one.
func (p *PeekScheduler) Arm() {
	p.Disarm()
	p.task = p.sched.Every(p.interval, p.fire)
	p.logger.Debug("peek armed", ports.Duration("interval", p.interval))
}

// Disarm cancels the peek task. Idempotent.
func (p *PeekScheduler) Disarm() {
	if p.task == nil {
		return
	}
	p.task.Stop()
	p.task = nil
	p.logger.Debug("peek disarmed")
}

// Armed reports whether the peek task is scheduled.
func (p *PeekScheduler) Armed() bool { return p.task != nil }

func (p *PeekScheduler) fire() {
	if p.seq.Active() || p.current() != domain.StateRemoved {
		return
	}
	p.seq.Play(domain.SequencePeek, p.last, p.fallback, true, nil)
}
