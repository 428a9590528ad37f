package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/paintwatch/internal/cliconfig"
	"github.com/bft-labs/paintwatch/pkg/log"
	"github.com/bft-labs/paintwatch/pkg/paintwatch"
	"github.com/bft-labs/paintwatch/plugins/devicewatcher"
)

const helpDescription = `
Show a painting that notices when you pull out your phone.

A camera watches the visitor; each frame goes to a phone detector. When a
phone shows up the figure leaves the painting, and it walks back in once
the phone has been away for a few seconds. While gone, it peeks back in.

Highlights:
  - Renders on any kiosk browser pointed at the display server.
  - Press q on the kiosk to cycle cameras, c to toggle the debug view.
  - Hot-plugged cameras are picked up automatically.
  - Configure via file, env (PAINTWATCH_*), or flags.
`

var longHelp = strings.TrimSpace(helpDescription)

var exampleUsage = strings.TrimSpace(`
  paintwatch --api-url http://localhost:8000 --assets ./assets --scene Lavandera
  paintwatch --config $HOME/.paintwatch/config.toml --debug
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	root := &cobra.Command{
		Use:     "paintwatch",
		Short:   "Phone-aware painting display",
		Long:    longHelp,
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			// PAINTWATCH_* override the file but not explicit flags.
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := cliconfig.SetLogLevel(cfg.LogLevel); err != nil {
				return err
			}

			logger := cliconfig.Logger()
			logger.Info().Interface("config", cfg).Msg("configuration")

			opts := []paintwatch.Option{
				paintwatch.WithLogger(log.NewZerologAdapterWithLogger(logger)),
			}
			if cfg.WatchDevices {
				opts = append(opts, devicewatcher.WithDeviceWatcher(devicewatcher.DefaultConfig()))
			}

			p, err := paintwatch.New(libConfig(cfg), opts...)
			if err != nil {
				return fmt.Errorf("create paintwatch: %w", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := p.Start(ctx); err != nil {
				return fmt.Errorf("start paintwatch: %w", err)
			}
			logger.Info().Str("addr", p.Addr()).Msg("open the display in a kiosk browser")

			// Wait for a signal or a crash.
			ticker := time.NewTicker(250 * time.Millisecond)
			defer ticker.Stop()
		wait:
			for {
				select {
				case <-ctx.Done():
					logger.Info().Msg("received signal, stopping...")
					break wait
				case <-ticker.C:
					if p.Status() == paintwatch.StateCrashed {
						return fmt.Errorf("paintwatch crashed")
					}
				}
			}

			if err := p.Stop(); err != nil {
				return fmt.Errorf("stop paintwatch: %w", err)
			}
			return nil
		},
	}

	f := root.Flags()
	f.StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.paintwatch/config.toml)")

	f.StringVar(&cfg.APIURL, "api-url", cfg.APIURL, "phone detector base URL")
	f.Float64Var(&cfg.Confidence, "confidence", cfg.Confidence, "detection confidence threshold")
	f.DurationVar(&cfg.HTTPTimeout, "timeout", cfg.HTTPTimeout, "detector HTTP timeout")

	f.DurationVar(&cfg.PollInterval, "poll", cfg.PollInterval, "detection poll interval")
	f.DurationVar(&cfg.PhoneTimeout, "phone-timeout", cfg.PhoneTimeout, "time without a phone before it counts as gone")
	f.DurationVar(&cfg.CameraPoll, "camera-poll", cfg.CameraPoll, "delay between camera acquisition attempts")
	f.DurationVar(&cfg.PeekInterval, "peek-interval", cfg.PeekInterval, "peek animation interval while the figure is gone")

	f.IntVar(&cfg.MainFPS, "main-fps", cfg.MainFPS, "in/out animation frame rate")
	f.IntVar(&cfg.PeekFPS, "peek-fps", cfg.PeekFPS, "peek animation frame rate")
	f.IntVar(&cfg.InFrames, "in-frames", cfg.InFrames, "last frame index of the in animation")
	f.IntVar(&cfg.OutFrames, "out-frames", cfg.OutFrames, "last frame index of the out animation")
	f.IntVar(&cfg.PeekFrames, "peek-frames", cfg.PeekFrames, "last frame index of the peek animation")

	f.StringVar(&cfg.AssetsDir, "assets", cfg.AssetsDir, "assets directory")
	f.StringVar(&cfg.Scene, "scene", cfg.Scene, "scene directory under assets")
	f.StringVar(&cfg.Prefix, "prefix", cfg.Prefix, "frame file name prefix")

	f.StringVar(&cfg.Listen, "listen", cfg.Listen, "display server listen address")
	f.IntVar(&cfg.Width, "width", cfg.Width, "camera capture width")
	f.IntVar(&cfg.Height, "height", cfg.Height, "camera capture height")
	f.IntVar(&cfg.JPEGQuality, "jpeg-quality", cfg.JPEGQuality, "JPEG quality of frames sent to the detector")

	f.StringVar(&cfg.StalePolicy, "stale-policy", cfg.StalePolicy, "late detection handling: discard or apply")
	f.BoolVar(&cfg.Debug, "debug", cfg.Debug, "start with the debug view on")
	f.BoolVar(&cfg.WatchDevices, "watch-devices", cfg.WatchDevices, "refresh cameras on hot-plug")
	f.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")

	if err := root.Execute(); err != nil {
		logger := cliconfig.Logger()
		logger.Error().Err(err).Msg("paintwatch")
		os.Exit(1)
	}
}

// libConfig converts the CLI configuration into the library's.
func libConfig(cfg cliconfig.Config) paintwatch.Config {
	return paintwatch.Config{
		APIURL:       cfg.APIURL,
		Confidence:   cfg.Confidence,
		HTTPTimeout:  cfg.HTTPTimeout,
		PollInterval: cfg.PollInterval,
		PhoneTimeout: cfg.PhoneTimeout,
		CameraPoll:   cfg.CameraPoll,
		PeekInterval: cfg.PeekInterval,
		MainFPS:      cfg.MainFPS,
		PeekFPS:      cfg.PeekFPS,
		InFrames:     cfg.InFrames,
		OutFrames:    cfg.OutFrames,
		PeekFrames:   cfg.PeekFrames,
		AssetsDir:    cfg.AssetsDir,
		Scene:        cfg.Scene,
		Prefix:       cfg.Prefix,
		Listen:       cfg.Listen,
		Width:        cfg.Width,
		Height:       cfg.Height,
		JPEGQuality:  cfg.JPEGQuality,
		StalePolicy:  cfg.StalePolicy,
		Debug:        cfg.Debug,
	}
}
