package cliconfig

import (
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	APIURL       string  `toml:"api_url"`
	Confidence   float64 `toml:"confidence"`
	HTTPTimeout  string  `toml:"http_timeout"`
	PollInterval string  `toml:"poll_interval"`
	PhoneTimeout string  `toml:"phone_timeout"`
	CameraPoll   string  `toml:"camera_poll"`
	PeekInterval string  `toml:"peek_interval"`
	MainFPS      int     `toml:"main_fps"`
	PeekFPS      int     `toml:"peek_fps"`
	InFrames     int     `toml:"in_frames"`
	OutFrames    int     `toml:"out_frames"`
	PeekFrames   int     `toml:"peek_frames"`
	AssetsDir    string  `toml:"assets"`
	Scene        string  `toml:"scene"`
	Prefix       string  `toml:"prefix"`
	Listen       string  `toml:"listen"`
	Width        int     `toml:"width"`
	Height       int     `toml:"height"`
	JPEGQuality  int     `toml:"jpeg_quality"`
	StalePolicy  string  `toml:"stale_policy"`
	Debug        *bool   `toml:"debug"`
	WatchDevices *bool   `toml:"watch_devices"`
	LogLevel     string  `toml:"log_level"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.paintwatch/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".paintwatch", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("api-url", fc.APIURL, &cfg.APIURL)
	s.setString("assets", fc.AssetsDir, &cfg.AssetsDir)
	s.setString("scene", fc.Scene, &cfg.Scene)
	s.setString("prefix", fc.Prefix, &cfg.Prefix)
	s.setString("listen", fc.Listen, &cfg.Listen)
	s.setString("stale-policy", fc.StalePolicy, &cfg.StalePolicy)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	for _, d := range []struct {
		flag  string
		value string
		dst   *time.Duration
	}{
		{"timeout", fc.HTTPTimeout, &cfg.HTTPTimeout},
		{"poll", fc.PollInterval, &cfg.PollInterval},
		{"phone-timeout", fc.PhoneTimeout, &cfg.PhoneTimeout},
		{"camera-poll", fc.CameraPoll, &cfg.CameraPoll},
		{"peek-interval", fc.PeekInterval, &cfg.PeekInterval},
	} {
		if err := s.setDuration(d.flag, d.value, d.dst); err != nil {
			return err
		}
	}

	s.setFloat("confidence", fc.Confidence, &cfg.Confidence)

	s.setInt("main-fps", fc.MainFPS, &cfg.MainFPS)
	s.setInt("peek-fps", fc.PeekFPS, &cfg.PeekFPS)
	s.setInt("in-frames", fc.InFrames, &cfg.InFrames)
	s.setInt("out-frames", fc.OutFrames, &cfg.OutFrames)
	s.setInt("peek-frames", fc.PeekFrames, &cfg.PeekFrames)
	s.setInt("width", fc.Width, &cfg.Width)
	s.setInt("height", fc.Height, &cfg.Height)
	s.setInt("jpeg-quality", fc.JPEGQuality, &cfg.JPEGQuality)

	s.setBool("debug", fc.Debug, &cfg.Debug)
	s.setBool("watch-devices", fc.WatchDevices, &cfg.WatchDevices)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
