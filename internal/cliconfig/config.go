package cliconfig

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bft-labs/paintwatch/internal/domain"
)

// DefaultAPIURL is the default address of the object detector.
const DefaultAPIURL = "http://localhost:8000"

// Config holds CLI configuration for paintwatch.
type Config struct {
	APIURL      string
	Confidence  float64
	HTTPTimeout time.Duration

	PollInterval time.Duration
	PhoneTimeout time.Duration
	CameraPoll   time.Duration
	PeekInterval time.Duration

	MainFPS int
	PeekFPS int

	InFrames   int
	OutFrames  int
	PeekFrames int

	AssetsDir string
	Scene     string
	Prefix    string

	Listen      string
	Width       int
	Height      int
	JPEGQuality int

	StalePolicy  string
	Debug        bool
	WatchDevices bool
	LogLevel     string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		APIURL:       DefaultAPIURL,
		Confidence:   0.5,
		HTTPTimeout:  10 * time.Second,
		PollInterval: 300 * time.Millisecond,
		PhoneTimeout: 3 * time.Second,
		CameraPoll:   2500 * time.Millisecond,
		PeekInterval: 5 * time.Second,
		MainFPS:      30,
		PeekFPS:      24,
		InFrames:     47,
		OutFrames:    44,
		PeekFrames:   12,
		AssetsDir:    "assets",
		Scene:        "Lavandera",
		Prefix:       "Lavandera",
		Listen:       ":8080",
		Width:        640,
		Height:       480,
		JPEGQuality:  80,
		StalePolicy:  "discard",
		WatchDevices: true,
		LogLevel:     "info",
	}
}

// Validate checks the configuration for errors and normalizes values.
func (c *Config) Validate() error {
	c.APIURL = strings.TrimRight(strings.TrimSpace(c.APIURL), "/")
	if c.APIURL == "" {
		return invalid("api-url is required")
	}
	if c.AssetsDir == "" || c.Scene == "" || c.Prefix == "" {
		return invalid("assets, scene and prefix are required")
	}
	if c.Listen == "" {
		return invalid("listen address is required")
	}

	for _, d := range []struct {
		name  string
		value time.Duration
	}{
		{"poll", c.PollInterval},
		{"phone-timeout", c.PhoneTimeout},
		{"camera-poll", c.CameraPoll},
		{"peek-interval", c.PeekInterval},
		{"timeout", c.HTTPTimeout},
	} {
		if d.value <= 0 {
			return invalid("%s must be positive", d.name)
		}
	}

	if c.MainFPS <= 0 || c.PeekFPS <= 0 {
		return invalid("frame rates must be positive")
	}
	// The library reads a zero frame count as "use the default".
	if c.InFrames <= 0 || c.OutFrames <= 0 || c.PeekFrames <= 0 {
		return invalid("frame counts must be positive")
	}
	if c.Confidence <= 0 || c.Confidence > 1 {
		return invalid("confidence must be in (0, 1]")
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return invalid("jpeg-quality must be in [1, 100]")
	}

	switch c.StalePolicy {
	case "discard", "apply":
	default:
		return invalid("stale-policy must be discard or apply, got %q", c.StalePolicy)
	}

	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setFloat sets a float64 value if positive and flag not changed.
func (s *configSetter) setFloat(flag string, value float64, dst *float64) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setFloatFromString parses a string to float64 and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setFloatFromString(flag, value string, dst *float64) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if f <= 0 {
		return nil
	}
	*dst = f
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
