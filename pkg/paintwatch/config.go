package paintwatch

import (
	"fmt"
	"strings"
	"time"

	"github.com/bft-labs/paintwatch/internal/domain"
)

// Config describes one painting display. Zero fields take the defaults
// listed on each field by SetDefaults.
type Config struct {
	// APIURL is the detector base URL. Default: http://localhost:8000
	APIURL string

	// Confidence is the detection threshold sent with each frame. Default: 0.5
	Confidence float64

	// HTTPTimeout bounds every detector call and the startup check. Default: 10s
	HTTPTimeout time.Duration

	// PollInterval is the detection cadence. Default: 300ms
	PollInterval time.Duration

	// PhoneTimeout is how long the phone must be missing before it counts
	// as removed. Default: 3s
	PhoneTimeout time.Duration

	// CameraPoll is the delay between camera acquisition attempts. Default: 2.5s
	CameraPoll time.Duration

	// PeekInterval is how often the removed painting peeks. Default: 5s
	PeekInterval time.Duration

	// MainFPS and PeekFPS are the animation frame rates. Default: 30 and 24
	MainFPS int
	PeekFPS int

	// Last frame index of each sequence. Default: 47, 44 and 12
	InFrames   int
	OutFrames  int
	PeekFrames int

	// AssetsDir, Scene and Prefix locate the frames on disk.
	// Default: assets, Lavandera, Lavandera
	AssetsDir string
	Scene     string
	Prefix    string

	// Listen is the display server address. Default: :8080
	Listen string

	// Capture settings. Default: 640x480 at JPEG quality 80
	Width       int
	Height      int
	JPEGQuality int

	// DevicePattern is the glob enumerating cameras. Default: /dev/video*
	DevicePattern string

	// StalePolicy is "discard" or "apply". Default: discard
	StalePolicy string

	// Debug starts with the debug view on.
	Debug bool
}

// SetDefaults fills zero fields with their defaults.
func (c *Config) SetDefaults() {
	if c.APIURL == "" {
		c.APIURL = "http://localhost:8000"
	}
	if c.Confidence == 0 {
		c.Confidence = 0.5
	}
	setDuration(&c.HTTPTimeout, 10*time.Second)
	setDuration(&c.PollInterval, 300*time.Millisecond)
	setDuration(&c.PhoneTimeout, 3*time.Second)
	setDuration(&c.CameraPoll, 2500*time.Millisecond)
	setDuration(&c.PeekInterval, 5*time.Second)
	setInt(&c.MainFPS, 30)
	setInt(&c.PeekFPS, 24)
	setInt(&c.InFrames, 47)
	setInt(&c.OutFrames, 44)
	setInt(&c.PeekFrames, 12)
	setString(&c.AssetsDir, "assets")
	setString(&c.Scene, "Lavandera")
	setString(&c.Prefix, "Lavandera")
	setString(&c.Listen, ":8080")
	setInt(&c.Width, 640)
	setInt(&c.Height, 480)
	setInt(&c.JPEGQuality, 80)
	setString(&c.DevicePattern, "/dev/video*")
	setString(&c.StalePolicy, "discard")
	c.APIURL = strings.TrimRight(c.APIURL, "/")
}

// Validate reports the first invalid field, wrapped in ErrInvalidConfig.
func (c Config) Validate() error {
	switch {
	case c.PollInterval <= 0, c.PhoneTimeout <= 0, c.CameraPoll <= 0,
		c.PeekInterval <= 0, c.HTTPTimeout <= 0:
		return invalid("intervals must be positive")
	case c.MainFPS <= 0 || c.PeekFPS <= 0:
		return invalid("frame rates must be positive")
	case c.InFrames < 0 || c.OutFrames < 0 || c.PeekFrames < 0:
		return invalid("frame counts must not be negative")
	case c.Confidence <= 0 || c.Confidence > 1:
		return invalid("confidence %v out of (0, 1]", c.Confidence)
	case c.JPEGQuality < 1 || c.JPEGQuality > 100:
		return invalid("jpeg quality %d out of [1, 100]", c.JPEGQuality)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidConfig, fmt.Sprintf(format, args...))
}

func setDuration(dst *time.Duration, def time.Duration) {
	if *dst == 0 {
		*dst = def
	}
}

func setInt(dst *int, def int) {
	if *dst == 0 {
		*dst = def
	}
}

func setString(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}
