package app

import (
	"context"
	"time"

	"github.com/bft-labs/paintwatch/internal/domain"
	"github.com/bft-labs/paintwatch/internal/ports"
)

// CameraEmitter is told when a stream becomes usable or is lost.
type CameraEmitter interface {
	OnCameraReady(stream ports.Stream)
	OnCameraLost()
}

// CameraSupervisor keeps one camera stream open, re-acquiring it after a
// fixed delay whenever no device is present or the stream ends.
type CameraSupervisor struct {
	ctx     context.Context
	sched   Scheduler
	camera  ports.Camera
	retry   time.Duration
	emitter CameraEmitter
	logger  ports.Logger
	spawn   func(func())

	devices  []domain.Device
	index    int
	stream   ports.Stream
	opening  bool
	attempt  uint64
	retryJob Task
}

// NewCameraSupervisor creates a supervisor. Nothing is opened until Refresh.
func NewCameraSupervisor(ctx context.Context, sched Scheduler, camera ports.Camera, retry time.Duration, emitter CameraEmitter, logger ports.Logger) *CameraSupervisor {
	return &CameraSupervisor{
		ctx:     ctx,
		sched:   sched,
		camera:  camera,
		retry:   retry,
		emitter: emitter,
		logger:  logger,
		spawn:   func(fn func()) { go fn() },
	}
}

// Devices returns the last enumerated device list.
func (c *CameraSupervisor) Devices() []domain.Device { return c.devices }

// Current returns the device the supervisor targets, if any.
func (c *CameraSupervisor) Current() (domain.Device, bool) {
	if c.index >= len(c.devices) {
		return domain.Device{}, false
	}
	return c.devices[c.index], true
}

// Ready reports whether a stream is open.
func (c *CameraSupervisor) Ready() bool { return c.stream != nil }

// Refresh re-enumerates devices and opens a stream if none is open.
func (c *CameraSupervisor) Refresh() {
	c.spawn(func() {
		devices, err := c.camera.Devices(c.ctx)
		c.sched.Post(func() { c.applyDevices(devices, err) })
	})
}

func (c *CameraSupervisor) applyDevices(devices []domain.Device, err error) {
	if err != nil {
		c.logger.Warn("device enumeration failed", ports.Err(err))
		devices = nil
	}
	c.devices = devices
	if c.index >= len(c.devices) {
		c.index = 0
	}
	c.logger.Debug("devices refreshed", ports.Int("count", len(devices)))
	if c.stream == nil {
		c.ensure()
	}
}

// Next switches to the following device. Requires at least two devices.
func (c *CameraSupervisor) Next() bool {
	if len(c.devices) < 2 {
		return false
	}
	c.index = (c.index + 1) % len(c.devices)
	c.drop()
	c.ensure()
	return true
}

// Close releases the open stream and cancels pending retries.
func (c *CameraSupervisor) Close() {
	c.cancelRetry()
	c.attempt++
	c.opening = false
	if c.stream != nil {
		_ = c.stream.Close()
		c.stream = nil
	}
}

func (c *CameraSupervisor) ensure() {
	if c.stream != nil || c.opening {
		return
	}
	c.cancelRetry()

	if len(c.devices) == 0 {
		c.logger.Info("no camera found, retrying", ports.Duration("delay", c.retry))
		c.retryJob = c.sched.After(c.retry, c.Refresh)
		return
	}

	dev := c.devices[c.index]
	c.opening = true
	c.attempt++
	attempt := c.attempt
	c.spawn(func() {
		stream, err := c.camera.Open(c.ctx, dev)
		c.sched.Post(func() { c.opened(attempt, dev, stream, err) })
	})
}

func (c *CameraSupervisor) opened(attempt uint64, dev domain.Device, stream ports.Stream, err error) {
	if attempt != c.attempt {
		// Superseded by a switch or Close while opening.
		if stream != nil {
			_ = stream.Close()
		}
		return
	}
	c.opening = false

	if err != nil {
		c.logger.Warn("camera open failed",
			ports.String("device", dev.Path),
			ports.Err(err),
			ports.Duration("retry", c.retry))
		c.retryJob = c.sched.After(c.retry, c.ensure)
		return
	}

	c.stream = stream
	c.logger.Info("camera ready", ports.String("device", dev.Path))
	c.watch(stream)
	c.emitter.OnCameraReady(stream)
}

func (c *CameraSupervisor) watch(stream ports.Stream) {
	go func() {
		select {
		case <-stream.Ended():
			c.sched.Post(func() { c.ended(stream) })
		case <-c.ctx.Done():
		}
	}()
}

func (c *CameraSupervisor) ended(stream ports.Stream) {
	if c.stream != stream {
		return
	}
	c.logger.Warn("camera stream ended")
	c.drop()
	c.ensure()
}

// drop closes the current stream and tells the emitter it is gone.
func (c *CameraSupervisor) drop() {
	c.attempt++
	c.opening = false
	if c.stream == nil {
		return
	}
	_ = c.stream.Close()
	c.stream = nil
	c.emitter.OnCameraLost()
}

func (c *CameraSupervisor) cancelRetry() {
	if c.retryJob != nil {
		c.retryJob.Stop()
		c.retryJob = nil
	}
}
