package paintwatch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/bft-labs/paintwatch/internal/adapters/camera"
	"github.com/bft-labs/paintwatch/internal/adapters/display"
	"github.com/bft-labs/paintwatch/internal/adapters/fs"
	httpAdapter "github.com/bft-labs/paintwatch/internal/adapters/http"
	"github.com/bft-labs/paintwatch/internal/app"
	"github.com/bft-labs/paintwatch/internal/ports"
	"github.com/bft-labs/paintwatch/pkg/log"
)

// serverShutdownTimeout bounds the display server drain on Stop.
const serverShutdownTimeout = 5 * time.Second

// Paintwatch is a phone-aware painting display that can be embedded in
// other applications. Use New to create an instance, then Start.
type Paintwatch struct {
	config    Config
	opts      options
	lifecycle *app.Lifecycle
	frames    *fs.FrameLibrary
	detector  Detector
	camera    Camera
	logger    Logger
	plugins   []Plugin
	stale     app.StalePolicy

	mu     sync.RWMutex
	runner *app.Runner
	server *display.Server
}

// New creates a Paintwatch instance in StateStopped.
// Returns an error if configuration is invalid.
func New(cfg Config, opts ...Option) (*Paintwatch, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	stale, err := app.ParseStalePolicy(cfg.StalePolicy)
	if err != nil {
		return nil, invalid("%v", err)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = log.NewNoopLogger()
	}

	detector := o.detector
	if detector == nil {
		client := o.httpClient
		if client == nil {
			client = &http.Client{Timeout: cfg.HTTPTimeout}
		}
		detector = httpAdapter.NewDetector(client, cfg.APIURL, cfg.Confidence, logger)
	}

	cam := o.camera
	if cam == nil {
		cam = camera.NewSource(camera.Config{
			DevicePattern: cfg.DevicePattern,
			Width:         cfg.Width,
			Height:        cfg.Height,
			JPEGQuality:   cfg.JPEGQuality,
		}, logger)
	}

	frames := fs.NewFrameLibrary(fs.LibraryConfig{
		Root:     cfg.AssetsDir,
		Scene:    cfg.Scene,
		Prefix:   cfg.Prefix,
		InLast:   cfg.InFrames,
		OutLast:  cfg.OutFrames,
		PeekLast: cfg.PeekFrames,
	}, logger)

	return &Paintwatch{
		config:    cfg,
		opts:      o,
		lifecycle: app.NewLifecycle(logger, lifecycleEvents{handler: o.eventHandler}),
		frames:    frames,
		detector:  detector,
		camera:    cam,
		logger:    logger,
		plugins:   o.plugins,
		stale:     stale,
	}, nil
}

// Start loads the painting, starts the display server and the detection
// session in the background, and returns. Frames are loaded synchronously
// so a broken asset directory fails Start.
func (p *Paintwatch) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.lifecycle.CanStart() {
		return ErrAlreadyRunning
	}
	if err := p.lifecycle.TransitionTo(app.StateStarting, "Start() called"); err != nil {
		return err
	}

	if err := p.frames.Load(ctx); err != nil {
		_ = p.lifecycle.TransitionTo(app.StateCrashed, "load frames failed")
		return fmt.Errorf("load frames: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.lifecycle.SetCancel(cancel)

	sink, disp, server, err := p.newDisplay()
	if err != nil {
		cancel()
		_ = p.lifecycle.TransitionTo(app.StateCrashed, "display bind failed")
		return err
	}

	events := &sessionEvents{sink: sink, handler: p.opts.eventHandler, now: time.Now}
	runner := app.NewRunner(app.RunnerConfig{
		Session: app.SessionConfig{
			PollInterval: p.config.PollInterval,
			PhoneTimeout: p.config.PhoneTimeout,
			CameraPoll:   p.config.CameraPoll,
			PeekInterval: p.config.PeekInterval,
			MainFPS:      p.config.MainFPS,
			PeekFPS:      p.config.PeekFPS,
			Frames: app.FrameCounts{
				In:   p.config.InFrames,
				Out:  p.config.OutFrames,
				Peek: p.config.PeekFrames,
			},
			StalePolicy: p.stale,
			Debug:       p.config.Debug,
		},
		VerifyTimeout: p.config.HTTPTimeout,
	}, p.frames, disp, p.detector, p.camera, events, p.logger)

	p.runner = runner
	p.server = server
	if server != nil {
		server.SetController(runner)
	}

	pluginCfg := PluginConfig{
		DevicePattern: p.config.DevicePattern,
		Controller:    p,
		Logger:        p.logger,
	}
	for i, plugin := range p.plugins {
		if err := plugin.Initialize(runCtx, pluginCfg); err != nil {
			p.logger.Error("plugin initialization failed",
				ports.String("plugin", plugin.Name()),
				ports.Err(err))
			p.shutdownPlugins(p.plugins[:i])
			cancel()
			if server != nil {
				_ = server.Shutdown(context.Background())
			}
			_ = p.lifecycle.TransitionTo(app.StateCrashed, "plugin init failed: "+plugin.Name())
			return err
		}
		p.logger.Info("plugin initialized", ports.String("plugin", plugin.Name()))
	}

	if server != nil {
		p.lifecycle.Go(func() {
			if err := server.Serve(); err != nil && runCtx.Err() == nil {
				p.crash("display server: " + err.Error())
			}
		})
	}

	p.lifecycle.Go(func() {
		if err := p.lifecycle.TransitionTo(app.StateRunning, "session starting"); err != nil {
			p.logger.Error("failed to transition to running", ports.Err(err))
			return
		}

		err := runner.Run(runCtx)
		switch {
		case err == nil:
		case runCtx.Err() != nil:
			// The session kept the failure on screen until shutdown.
			p.logger.Warn("session ended with error", ports.Err(err))
		default:
			p.logger.Error("session error", ports.Err(err))
			p.crash(err.Error())
		}
	})

	return nil
}

// newDisplay returns the session's event sink and display. Without a
// custom display it binds the built-in server.
func (p *Paintwatch) newDisplay() (app.SessionEmitter, Display, *display.Server, error) {
	if p.opts.display != nil {
		return nil, p.opts.display, nil, nil
	}
	server := display.NewServer(display.Config{Listen: p.config.Listen}, p.frames, p.logger)
	if err := server.Bind(); err != nil {
		return nil, nil, nil, err
	}
	return server, server, server, nil
}

// crash moves to StateCrashed and tears the run down.
func (p *Paintwatch) crash(reason string) {
	if err := p.lifecycle.TransitionTo(app.StateCrashed, reason); err != nil {
		return
	}
	p.lifecycle.Cancel()

	p.mu.RLock()
	server := p.server
	p.mu.RUnlock()
	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
		defer cancel()
		_ = server.Shutdown(ctx)
	}
}

// Stop shuts the display down and waits for its workers.
// Returns nil on graceful shutdown, ErrShutdownTimeout if forced.
func (p *Paintwatch) Stop() error {
	p.mu.Lock()

	if !p.lifecycle.CanStop() {
		p.mu.Unlock()
		return ErrNotRunning
	}
	if err := p.lifecycle.TransitionTo(app.StateStopping, "Stop() called"); err != nil {
		p.mu.Unlock()
		return err
	}

	p.lifecycle.Cancel()
	server := p.server
	p.mu.Unlock()

	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
		if err := server.Shutdown(ctx); err != nil {
			p.logger.Warn("display server shutdown", ports.Err(err))
		}
		cancel()
	}

	err := p.lifecycle.WaitWithTimeout(app.ShutdownTimeout)

	p.shutdownPlugins(p.plugins)

	if err != nil {
		_ = p.lifecycle.TransitionTo(app.StateCrashed, "shutdown timeout")
	} else {
		_ = p.lifecycle.TransitionTo(app.StateStopped, "graceful shutdown")
	}
	return err
}

// shutdownPlugins stops plugins in reverse order.
func (p *Paintwatch) shutdownPlugins(plugins []Plugin) {
	ctx := context.Background()
	for i := len(plugins) - 1; i >= 0; i-- {
		plugin := plugins[i]
		if err := plugin.Shutdown(ctx); err != nil {
			p.logger.Error("plugin shutdown failed",
				ports.String("plugin", plugin.Name()),
				ports.Err(err))
		} else {
			p.logger.Info("plugin shutdown complete", ports.String("plugin", plugin.Name()))
		}
	}
}

// Status returns the current lifecycle state.
// Safe to call concurrently from any goroutine.
func (p *Paintwatch) Status() State {
	return convertState(p.lifecycle.State())
}

// SwitchCamera cycles to the next camera.
func (p *Paintwatch) SwitchCamera(ctx context.Context) error {
	return p.withRunner(ctx, (*app.Runner).SwitchCamera)
}

// ToggleDebug flips the debug view.
func (p *Paintwatch) ToggleDebug(ctx context.Context) error {
	return p.withRunner(ctx, (*app.Runner).ToggleDebug)
}

// RefreshCameras re-enumerates video devices, e.g. after a hot-plug.
func (p *Paintwatch) RefreshCameras(ctx context.Context) error {
	return p.withRunner(ctx, (*app.Runner).RefreshCameras)
}

// Addr returns the display server address, or "" when it is not bound.
func (p *Paintwatch) Addr() string {
	p.mu.RLock()
	server := p.server
	p.mu.RUnlock()
	if server == nil || server.Addr() == nil {
		return ""
	}
	return server.Addr().String()
}

func (p *Paintwatch) withRunner(ctx context.Context, fn func(*app.Runner, context.Context) error) error {
	p.mu.RLock()
	runner := p.runner
	p.mu.RUnlock()
	if runner == nil || p.Status() != StateRunning {
		return ErrNotRunning
	}
	err := fn(runner, ctx)
	if errors.Is(err, context.Canceled) && ctx.Err() == nil {
		// The session loop exited underneath the call.
		return ErrNotRunning
	}
	return err
}

var _ Controller = (*Paintwatch)(nil)
