package app

import (
	"time"

	"github.com/bft-labs/paintwatch/internal/domain"
	"github.com/bft-labs/paintwatch/internal/ports"
)

// SequencerConfig contains the frame rates of the animations.
type SequencerConfig struct {
	// MainFPS is the rate of the in/out transitions.
	MainFPS int

	// PeekFPS is the rate of the idle peek animation.
	PeekFPS int
}

// Sequencer plays frame sequences, one at a time.
type Sequencer struct {
	config  SequencerConfig
	sched   Scheduler
	frames  ports.FrameCache
	display ports.Display
	logger  ports.Logger

	run   *animationRun
	hooks []func()
}

// animationRun is the single in-progress animation.
type animationRun struct {
	key      domain.SequenceKey
	frames   []domain.FrameID
	last     int
	index    int
	reverse  bool
	pingPong bool
	fallback domain.FrameID
	onDone   func()
	task     Task
}

// NewSequencer creates a sequencer drawing on the given display.
func NewSequencer(config SequencerConfig, sched Scheduler, frames ports.FrameCache, display ports.Display, logger ports.Logger) *Sequencer {
	return &Sequencer{
		config:  config,
		sched:   sched,
		frames:  frames,
		display: display,
		logger:  logger,
	}
}

// OnFinish registers fn to run after every completed run, once the run's own
// completion callback has returned.
func (s *Sequencer) OnFinish(fn func()) {
	s.hooks = append(s.hooks, fn)
}

// Active reports whether a run is in progress.
func (s *Sequencer) Active() bool { return s.run != nil }

// Play starts an animation of frames 0..last of the given sequence, followed
// by the reverse pass last-1..0 when pingPong is set. The fallback frame is
// shown when the run ends. last is clamped to the frames actually loaded.
//
// Returns false without touching the display if another run is active.
// An empty sequence completes immediately on the fallback frame.
func (s *Sequencer) Play(key domain.SequenceKey, last int, fallback domain.FrameID, pingPong bool, onDone func()) bool {
	if s.run != nil {
		s.logger.Debug("animation refused, run in progress",
			ports.String("sequence", string(key)),
			ports.String("active", string(s.run.key)))
		return false
	}

	seq := s.frames.Sequence(key)
	if seq.Empty() {
		s.logger.Warn("sequence has no frames, showing fallback",
			ports.String("sequence", string(key)),
			ports.String("fallback", string(fallback)))
		s.display.Show(fallback)
		s.complete(onDone)
		return true
	}

	if last < 0 || last > seq.Len()-1 {
		last = seq.Len() - 1
	}

	run := &animationRun{
		key:      key,
		frames:   seq.Frames,
		last:     last,
		pingPong: pingPong,
		fallback: fallback,
		onDone:   onDone,
	}
	s.run = run
	run.task = s.sched.Every(s.period(key), s.step)

	s.logger.Debug("animation started",
		ports.String("sequence", string(key)),
		ports.Int("last", last),
		ports.Bool("ping_pong", pingPong))
	return true
}

func (s *Sequencer) period(key domain.SequenceKey) time.Duration {
	fps := s.config.MainFPS
	if key == domain.SequencePeek {
		fps = s.config.PeekFPS
	}
	if fps <= 0 {
		fps = 1
	}
	return time.Second / time.Duration(fps)
}

// step shows the current frame and advances the run by one index.
func (s *Sequencer) step() {
	run := s.run
	if run == nil {
		return
	}

	s.display.Show(run.frames[run.index])
	if run.reverse {
		run.index--
	} else {
		run.index++
	}

	switch {
	case !run.reverse && run.index > run.last:
		if !run.pingPong {
			s.stop()
			return
		}
		run.reverse = true
		run.index = run.last - 1
		// A single-frame ping-pong has nothing to play backwards.
		if run.index < 0 {
			s.stop()
		}
	case run.reverse && run.index < 0:
		s.stop()
	}
}

// stop ends the active run on its fallback frame. The run is cleared before
// any callback runs so callbacks may start a new one.
func (s *Sequencer) stop() {
	run := s.run
	run.task.Stop()
	s.run = nil

	s.display.Show(run.fallback)
	s.logger.Debug("animation finished", ports.String("sequence", string(run.key)))
	s.complete(run.onDone)
}

func (s *Sequencer) complete(onDone func()) {
	if onDone != nil {
		onDone()
	}
	for _, h := range s.hooks {
		h()
	}
}
