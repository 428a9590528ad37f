package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bft-labs/paintwatch/internal/domain"
	"github.com/bft-labs/paintwatch/internal/ports"
)

// StalePolicy decides what happens to a detection that completes after the
// loop that issued it was stopped.
type StalePolicy int

const (
	// StaleDiscard drops late responses.
	StaleDiscard StalePolicy = iota
	// StaleApply feeds late responses to the debouncer anyway.
	StaleApply
)

// String returns the flag spelling of the policy.
func (p StalePolicy) String() string {
	switch p {
	case StaleDiscard:
		return "discard"
	case StaleApply:
		return "apply"
	default:
		return "unknown"
	}
}

// ParseStalePolicy parses "discard" or "apply".
func ParseStalePolicy(s string) (StalePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "discard":
		return StaleDiscard, nil
	case "apply":
		return StaleApply, nil
	default:
		return StaleDiscard, fmt.Errorf("unknown stale policy %q (want discard or apply)", s)
	}
}

// DriverConfig contains configuration for the detection loop.
type DriverConfig struct {
	Interval    time.Duration
	StalePolicy StalePolicy
}

// DriverEmitter receives the outcome of each detection call.
type DriverEmitter interface {
	OnSample(sample domain.DetectionSample)
	OnDetectionError(err error)
	OnAnnotatedImage(jpeg []byte)
}

// Driver samples the camera on a fixed cadence and feeds the detector's
// verdicts onward. At most one detector call is in flight; ticks that find
// a call outstanding are dropped, not queued.
type Driver struct {
	config   DriverConfig
	sched    Scheduler
	detector ports.Detector
	emitter  DriverEmitter
	logger   ports.Logger

	// ctx bounds the detector calls; it is the session's lifetime, not the
	// loop's, so Stop does not abort a call already in flight.
	ctx   context.Context
	spawn func(func())

	source     ports.FrameSource
	task       Task
	detecting  bool
	busy       bool
	generation uint64

	dropped  uint64
	failures uint64
}

// NewDriver creates a stopped detection driver.
func NewDriver(ctx context.Context, config DriverConfig, sched Scheduler, detector ports.Detector, emitter DriverEmitter, logger ports.Logger) *Driver {
	return &Driver{
		config:   config,
		sched:    sched,
		detector: detector,
		emitter:  emitter,
		logger:   logger,
		ctx:      ctx,
		spawn:    func(fn func()) { go fn() },
	}
}

// Detecting reports whether the loop is running.
func (d *Driver) Detecting() bool { return d.detecting }

// Busy reports whether a detector call is outstanding.
func (d *Driver) Busy() bool { return d.busy }

// Start begins sampling source. No-op if already detecting.
func (d *Driver) Start(source ports.FrameSource) {
	if d.detecting {
		return
	}
	d.source = source
	d.detecting = true
	d.generation++
	d.task = d.sched.Every(d.config.Interval, d.Tick)
	d.logger.Info("detection started",
		ports.Duration("interval", d.config.Interval),
		ports.Uint64("generation", d.generation))
	d.Tick()
}

// Stop halts the cadence immediately. A call already in flight is not
// aborted; its response is handled according to the stale policy.
func (d *Driver) Stop() {
	if !d.detecting {
		return
	}
	d.detecting = false
	d.source = nil
	d.generation++
	if d.task != nil {
		d.task.Stop()
		d.task = nil
	}
	d.logger.Info("detection stopped", ports.Bool("call_in_flight", d.busy))
}

// Tick issues one detector call unless the loop is stopped or busy.
func (d *Driver) Tick() {
	if !d.detecting || d.source == nil {
		return
	}
	if d.busy {
		d.dropped++
		return
	}

	d.busy = true
	gen := d.generation
	source := d.source
	requestID := uuid.NewString()

	d.spawn(func() {
		start := time.Now()
		det, err := d.detect(source)
		elapsed := time.Since(start)
		d.sched.Post(func() { d.complete(gen, requestID, det, err, elapsed) })
	})
}

// detect runs off the loop; it must not touch driver state.
func (d *Driver) detect(source ports.FrameSource) (domain.Detection, error) {
	jpeg, err := source.Capture(d.ctx)
	if err != nil {
		return domain.Detection{}, fmt.Errorf("capture: %w", err)
	}
	det, err := d.detector.Detect(d.ctx, jpeg)
	if err != nil {
		return domain.Detection{}, fmt.Errorf("detect: %w", err)
	}
	return det, nil
}

func (d *Driver) complete(gen uint64, requestID string, det domain.Detection, err error, elapsed time.Duration) {
	d.busy = false

	stale := gen != d.generation || !d.detecting
	if stale && d.config.StalePolicy == StaleDiscard {
		d.logger.Debug("discarding stale detection",
			ports.String("request_id", requestID),
			ports.Int("count", det.Count),
			ports.Bool("failed", err != nil))
		return
	}

	if err != nil {
		d.failures++
		d.logger.Warn("detection failed",
			ports.Err(err),
			ports.String("request_id", requestID),
			ports.Duration("elapsed", elapsed))
		if d.emitter != nil {
			d.emitter.OnDetectionError(err)
		}
		return
	}

	d.logger.Debug("detection",
		ports.String("request_id", requestID),
		ports.Int("count", det.Count),
		ports.Bool("stale", stale),
		ports.Duration("elapsed", elapsed))

	if d.emitter == nil {
		return
	}
	d.emitter.OnSample(domain.DetectionSample{Present: det.Present(), At: d.sched.Now()})
	if len(det.Annotated) > 0 {
		d.emitter.OnAnnotatedImage(det.Annotated)
	}
}

// Stats returns the number of dropped ticks and failed calls.
func (d *Driver) Stats() (dropped, failures uint64) { return d.dropped, d.failures }
