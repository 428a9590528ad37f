package cliconfig

import "os"

// EnvPrefix prefixes every environment variable read by ApplyEnvConfig.
const EnvPrefix = "PAINTWATCH_"

func env(name string) string { return os.Getenv(EnvPrefix + name) }

// ApplyEnvConfig applies configuration from environment variables (PAINTWATCH_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("api-url", env("API_URL"), &cfg.APIURL)
	s.setString("assets", env("ASSETS"), &cfg.AssetsDir)
	s.setString("scene", env("SCENE"), &cfg.Scene)
	s.setString("prefix", env("PREFIX"), &cfg.Prefix)
	s.setString("listen", env("LISTEN"), &cfg.Listen)
	s.setString("stale-policy", env("STALE_POLICY"), &cfg.StalePolicy)
	s.setString("log-level", env("LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setDuration("timeout", env("HTTP_TIMEOUT"), &cfg.HTTPTimeout); err != nil {
		return err
	}
	if err := s.setDuration("poll", env("POLL_INTERVAL"), &cfg.PollInterval); err != nil {
		return err
	}
	if err := s.setDuration("phone-timeout", env("PHONE_TIMEOUT"), &cfg.PhoneTimeout); err != nil {
		return err
	}
	if err := s.setDuration("camera-poll", env("CAMERA_POLL"), &cfg.CameraPoll); err != nil {
		return err
	}
	if err := s.setDuration("peek-interval", env("PEEK_INTERVAL"), &cfg.PeekInterval); err != nil {
		return err
	}

	if err := s.setFloatFromString("confidence", env("CONFIDENCE"), &cfg.Confidence); err != nil {
		return err
	}

	for _, v := range []struct {
		flag string
		name string
		dst  *int
	}{
		{"main-fps", "MAIN_FPS", &cfg.MainFPS},
		{"peek-fps", "PEEK_FPS", &cfg.PeekFPS},
		{"in-frames", "IN_FRAMES", &cfg.InFrames},
		{"out-frames", "OUT_FRAMES", &cfg.OutFrames},
		{"peek-frames", "PEEK_FRAMES", &cfg.PeekFrames},
		{"width", "WIDTH", &cfg.Width},
		{"height", "HEIGHT", &cfg.Height},
		{"jpeg-quality", "JPEG_QUALITY", &cfg.JPEGQuality},
	} {
		if err := s.setIntFromString(v.flag, env(v.name), v.dst); err != nil {
			return err
		}
	}

	s.setBoolFromString("debug", env("DEBUG"), &cfg.Debug)
	s.setBoolFromString("watch-devices", env("WATCH_DEVICES"), &cfg.WatchDevices)

	return nil
}
