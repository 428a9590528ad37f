package app

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/bft-labs/paintwatch/internal/domain"
	"github.com/bft-labs/paintwatch/internal/ports"
)

// RunnerConfig contains configuration for the runner.
type RunnerConfig struct {
	Session SessionConfig

	// VerifyTimeout bounds the startup health check. Zero skips the check.
	VerifyTimeout time.Duration
}

// Runner drives a Session on its own Loop. Its exported methods other than
// Run are safe to call from any goroutine.
type Runner struct {
	config   RunnerConfig
	loop     *Loop
	detector ports.Detector
	logger   ports.Logger

	newSession func(ctx context.Context, sched Scheduler, logger ports.Logger) *Session
	session    *Session
	started    atomic.Bool
}

// NewRunner creates a runner. The session is built when Run starts so its
// I/O is bound to the run's context.
func NewRunner(
	config RunnerConfig,
	frames ports.FrameCache,
	display ports.Display,
	detector ports.Detector,
	camera ports.Camera,
	emitter SessionEmitter,
	logger ports.Logger,
) *Runner {
	r := &Runner{
		config:   config,
		loop:     NewLoop(logger),
		detector: detector,
		logger:   logger,
	}
	r.newSession = func(ctx context.Context, sched Scheduler, logger ports.Logger) *Session {
		return NewSession(ctx, config.Session, sched, frames, display, detector, camera, emitter, logger)
	}
	return r
}

// Run verifies the detector, starts the session and blocks until ctx is
// canceled. A failed verification is reported through the session status
// and returned once ctx is canceled.
func (r *Runner) Run(ctx context.Context) error {
	if !r.started.CompareAndSwap(false, true) {
		return domain.ErrAlreadyRunning
	}
	id := uuid.NewString()
	r.logger.Info("session starting", ports.String("session", id))
	session := r.newSession(ctx, r.loop, ports.With(r.logger, ports.String("session", id)))

	loopErr := make(chan error, 1)
	go func() { loopErr <- r.loop.Run(ctx) }()

	if err := r.loop.Call(ctx, func() { r.session = session }); err != nil {
		return err
	}

	if r.config.VerifyTimeout > 0 {
		r.loop.Post(func() { session.setStatus(domain.StatusConnecting, "Connecting backend …") })
		vctx, cancel := context.WithTimeout(ctx, r.config.VerifyTimeout)
		err := Verify(vctx, r.detector)
		cancel()
		if err != nil {
			// Keep the loop up so the error stays visible on the display.
			r.logger.Error("detector verification failed", ports.Err(err))
			r.loop.Post(func() { session.Fail(err) })
			<-loopErr
			return fmt.Errorf("verify detector: %w", err)
		}
		r.logger.Info("detector ready")
	}

	r.loop.Post(session.Start)

	err := <-loopErr
	// The loop has exited; the session is no longer touched concurrently.
	session.Stop()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// SwitchCamera cycles to the next camera.
func (r *Runner) SwitchCamera(ctx context.Context) error {
	return r.withSession(ctx, (*Session).SwitchCamera)
}

// ToggleDebug flips the debug view.
func (r *Runner) ToggleDebug(ctx context.Context) error {
	return r.withSession(ctx, (*Session).ToggleDebug)
}

// RefreshCameras re-enumerates video devices.
func (r *Runner) RefreshCameras(ctx context.Context) error {
	return r.withSession(ctx, (*Session).RefreshCameras)
}

// Snapshot returns the session state.
func (r *Runner) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := r.withSession(ctx, func(s *Session) { snap = s.Snapshot() })
	return snap, err
}

func (r *Runner) withSession(ctx context.Context, fn func(*Session)) error {
	if !r.started.Load() {
		return domain.ErrNotRunning
	}
	var running bool
	err := r.loop.Call(ctx, func() {
		if r.session != nil {
			running = true
			fn(r.session)
		}
	})
	if err != nil {
		return err
	}
	if !running {
		return domain.ErrNotRunning
	}
	return nil
}
