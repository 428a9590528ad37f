package camera

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"gocv.io/x/gocv"

	"github.com/bft-labs/paintwatch/internal/domain"
	"github.com/bft-labs/paintwatch/internal/ports"
)

// Config contains capture settings.
type Config struct {
	// DevicePattern is the glob used to enumerate devices.
	DevicePattern string

	// Width and Height request a capture resolution. Zero keeps the driver default.
	Width  int
	Height int

	// JPEGQuality is the encode quality, 1-100.
	JPEGQuality int
}

// Source implements ports.Camera on top of OpenCV.
type Source struct {
	config Config
	logger ports.Logger
}

// NewSource creates a camera source.
func NewSource(config Config, logger ports.Logger) *Source {
	if config.DevicePattern == "" {
		config.DevicePattern = DefaultDevicePattern
	}
	if config.JPEGQuality <= 0 || config.JPEGQuality > 100 {
		config.JPEGQuality = 80
	}
	return &Source{config: config, logger: logger}
}

// Devices implements ports.Camera.
func (s *Source) Devices(ctx context.Context) ([]domain.Device, error) {
	return listDevices(s.config.DevicePattern)
}

// Open implements ports.Camera.
func (s *Source) Open(ctx context.Context, dev domain.Device) (ports.Stream, error) {
	capture, err := gocv.VideoCaptureDevice(dev.Index)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dev.Path, err)
	}
	if !capture.IsOpened() {
		_ = capture.Close()
		return nil, fmt.Errorf("open %s: %w", dev.Path, domain.ErrNoCamera)
	}

	if s.config.Width > 0 && s.config.Height > 0 {
		capture.Set(gocv.VideoCaptureFrameWidth, float64(s.config.Width))
		capture.Set(gocv.VideoCaptureFrameHeight, float64(s.config.Height))
	}

	s.logger.Debug("capture opened",
		ports.String("device", dev.Path),
		ports.Int("index", dev.Index))

	return &stream{
		dev:     dev,
		capture: capture,
		frame:   gocv.NewMat(),
		quality: s.config.JPEGQuality,
		ended:   make(chan struct{}),
	}, nil
}

// stream is a single open capture. VideoCapture is not safe for concurrent
// use, so reads and Close are serialized.
type stream struct {
	dev     domain.Device
	quality int

	mu      sync.Mutex
	capture *gocv.VideoCapture
	frame   gocv.Mat
	closed  bool

	ended     chan struct{}
	endedOnce sync.Once
}

// Capture grabs one frame and encodes it as JPEG.
func (s *stream) Capture(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, domain.ErrStreamEnded
	}
	if ok := s.capture.Read(&s.frame); !ok || s.frame.Empty() {
		s.end()
		return nil, fmt.Errorf("read %s: %w", s.dev.Path, domain.ErrStreamEnded)
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, s.frame, []int{gocv.IMWriteJpegQuality, s.quality})
	if err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	defer buf.Close()

	return bytes.Clone(buf.GetBytes()), nil
}

// Ended implements ports.Stream.
func (s *stream) Ended() <-chan struct{} { return s.ended }

// Close implements ports.Stream.
func (s *stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.end()
	_ = s.frame.Close()
	return s.capture.Close()
}

func (s *stream) end() {
	s.endedOnce.Do(func() { close(s.ended) })
}

var _ ports.Camera = (*Source)(nil)
