package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bft-labs/paintwatch/internal/domain"
	"github.com/bft-labs/paintwatch/internal/ports"
)

// SessionConfig contains the timing and sizing of a display session.
type SessionConfig struct {
	PollInterval time.Duration
	PhoneTimeout time.Duration
	CameraPoll   time.Duration
	PeekInterval time.Duration
	MainFPS      int
	PeekFPS      int
	Frames       FrameCounts
	StalePolicy  StalePolicy
	Debug        bool
}

// SessionEmitter receives everything a session reports outward.
// Calls happen on the loop and must return quickly.
type SessionEmitter interface {
	OnStatus(status domain.Status)
	OnVisualStateChange(previous, current domain.VisualState)
	OnPresenceChange(change domain.PresenceChange)
	OnDetectionError(err error)
	OnAnnotatedImage(jpeg []byte)
	OnDebugChange(enabled bool)
}

// Session is the single controller owning all display state. Every method
// must be called on the scheduler's loop.
type Session struct {
	config  SessionConfig
	sched   Scheduler
	frames  ports.FrameCache
	display ports.Display
	emitter SessionEmitter
	logger  ports.Logger

	presence *Debouncer
	seq      *Sequencer
	machine  *VisualMachine
	peek     *PeekScheduler
	driver   *Driver
	cameras  *CameraSupervisor

	assetsReady bool
	cameraReady bool
	stream      ports.Stream
	debug       bool
	status      domain.Status
}

// NewSession wires the components of a session together.
// ctx bounds the camera and detector I/O issued by the session.
func NewSession(
	ctx context.Context,
	config SessionConfig,
	sched Scheduler,
	frames ports.FrameCache,
	display ports.Display,
	detector ports.Detector,
	camera ports.Camera,
	emitter SessionEmitter,
	logger ports.Logger,
) *Session {
	s := &Session{
		config:   config,
		sched:    sched,
		frames:   frames,
		display:  display,
		emitter:  emitter,
		logger:   logger,
		presence: NewDebouncer(config.PhoneTimeout),
		debug:    config.Debug,
	}

	s.seq = NewSequencer(SequencerConfig{MainFPS: config.MainFPS, PeekFPS: config.PeekFPS}, sched, frames, display, logger)
	s.machine = NewVisualMachine(s.seq, frames, config.Frames, logger)
	s.peek = NewPeekScheduler(sched, s.seq, config.PeekInterval, config.Frames.Peek,
		frames.Static(domain.StaticRemoved), s.machine.Current, logger)
	s.machine.AttachPeek(s.peek)
	s.machine.OnChange = func(previous, current domain.VisualState) {
		if s.emitter != nil {
			s.emitter.OnVisualStateChange(previous, current)
		}
	}

	s.driver = NewDriver(ctx, DriverConfig{Interval: config.PollInterval, StalePolicy: config.StalePolicy},
		sched, detector, s, logger)
	s.cameras = NewCameraSupervisor(ctx, sched, camera, config.CameraPoll, s, logger)
	return s
}

// Verify checks that the detector is reachable and has its model loaded.
// It may be called off the loop, before Start.
func Verify(ctx context.Context, detector ports.Detector) error {
	health, err := detector.Health(ctx)
	if err != nil {
		return err
	}
	if !health.ModelLoaded {
		return domain.ErrModelNotLoaded
	}
	return nil
}

// Start shows the default painting and begins camera acquisition.
func (s *Session) Start() {
	s.setStatus(domain.StatusWaiting, "Loading painting …")
	s.display.Show(s.frames.Static(domain.StaticDefault))
	s.assetsReady = true
	s.setStatus(domain.StatusConnecting, "Connecting camera …")
	s.cameras.Refresh()
}

// Stop halts detection and animations and releases the camera.
func (s *Session) Stop() {
	s.driver.Stop()
	s.peek.Disarm()
	s.cameras.Close()
	s.cameraReady = false
	s.stream = nil
}

// Fail reports a fatal initialisation error to the operator.
func (s *Session) Fail(err error) {
	s.setStatus(domain.StatusError, failureText(err))
}

// RefreshCameras re-enumerates devices, e.g. after a hot-plug.
func (s *Session) RefreshCameras() { s.cameras.Refresh() }

// SwitchCamera cycles to the next device. Needs at least two devices.
func (s *Session) SwitchCamera() {
	if len(s.cameras.Devices()) < 2 {
		s.logger.Debug("camera switch ignored, fewer than two devices")
		return
	}
	s.cameraReady = false
	s.driver.Stop()
	s.cameras.Next()
	s.setStatus(domain.StatusConnecting, "Switching camera …")
}

// ToggleDebug flips the debug view.
func (s *Session) ToggleDebug() {
	s.debug = !s.debug
	s.logger.Info("debug view toggled", ports.Bool("enabled", s.debug))
	if s.emitter != nil {
		s.emitter.OnDebugChange(s.debug)
	}
}

// Snapshot is a point-in-time view of a session.
type Snapshot struct {
	Visual      domain.VisualState
	Pending     *domain.VisualState
	Presence    domain.PresenceState
	Animating   bool
	PeekArmed   bool
	Detecting   bool
	Busy        bool
	CameraReady bool
	Debug       bool
	Status      domain.Status
}

// Snapshot returns the current session state.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		Visual:      s.machine.Current(),
		Presence:    s.presence.State(),
		Animating:   s.seq.Active(),
		PeekArmed:   s.peek.Armed(),
		Detecting:   s.driver.Detecting(),
		Busy:        s.driver.Busy(),
		CameraReady: s.cameraReady,
		Debug:       s.debug,
		Status:      s.status,
	}
	if p, ok := s.machine.Pending(); ok {
		snap.Pending = &p
	}
	return snap
}

// OnCameraReady implements CameraEmitter.
func (s *Session) OnCameraReady(stream ports.Stream) {
	s.stream = stream
	s.cameraReady = true
	s.tryStartDetection()
}

// OnCameraLost implements CameraEmitter.
func (s *Session) OnCameraLost() {
	s.cameraReady = false
	s.stream = nil
	s.driver.Stop()
	s.setStatus(domain.StatusConnecting, "Camera lost, reconnecting …")
}

func (s *Session) tryStartDetection() {
	if !s.assetsReady || !s.cameraReady || s.driver.Detecting() {
		return
	}
	s.driver.Start(s.stream)
	s.setStatus(domain.StatusDetecting, "Detecting …")
}

// OnSample implements DriverEmitter.
func (s *Session) OnSample(sample domain.DetectionSample) {
	change, ok := s.presence.Observe(sample)
	if !ok {
		return
	}

	s.logger.Info("presence changed", ports.String("presence", change.String()))
	switch change {
	case domain.BecamePresent:
		s.setStatus(domain.StatusDetecting, "📱 Phone detected")
	case domain.BecameAbsent:
		s.setStatus(domain.StatusWaiting, "No phone")
	}
	if s.emitter != nil {
		s.emitter.OnPresenceChange(change)
	}
	s.machine.RequestState(change.Target())
}

// OnDetectionError implements DriverEmitter.
func (s *Session) OnDetectionError(err error) {
	if s.emitter != nil {
		s.emitter.OnDetectionError(err)
	}
}

// OnAnnotatedImage implements DriverEmitter. Images only reach the
// emitter while the debug view is on.
func (s *Session) OnAnnotatedImage(jpeg []byte) {
	if !s.debug || s.emitter == nil {
		return
	}
	s.emitter.OnAnnotatedImage(jpeg)
}

func (s *Session) setStatus(kind domain.StatusKind, text string) {
	s.status = domain.Status{Kind: kind, Text: text}
	if s.emitter != nil {
		s.emitter.OnStatus(s.status)
	}
}

func failureText(err error) string {
	switch {
	case err == nil:
		return "Init error"
	case errors.Is(err, domain.ErrModelNotLoaded):
		return "Model not loaded"
	case errors.Is(err, domain.ErrBackendOffline):
		return "Backend offline"
	default:
		return fmt.Sprintf("Init error: %v", err)
	}
}

var (
	_ DriverEmitter = (*Session)(nil)
	_ CameraEmitter = (*Session)(nil)
)
