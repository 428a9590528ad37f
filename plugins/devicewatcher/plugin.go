// Package devicewatcher refreshes the camera list when capture devices are
// plugged in or removed. It watches the directory of the device pattern
// (normally /dev) with fsnotify.
package devicewatcher

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/paintwatch/pkg/log"
	"github.com/bft-labs/paintwatch/pkg/paintwatch"
)

// Plugin watches for camera hot-plug events.
type Plugin struct {
	mu sync.Mutex

	debounceDelay  time.Duration
	refreshTimeout time.Duration

	pattern    string
	controller paintwatch.Controller
	logger     paintwatch.Logger
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	debounce   *time.Timer
}

// Config holds configuration options for the device watcher plugin.
type Config struct {
	// DebounceDelay coalesces the burst of events a single plug produces.
	// Default: 250 milliseconds
	DebounceDelay time.Duration

	// RefreshTimeout bounds each refresh call.
	// Default: 5 seconds
	RefreshTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DebounceDelay:  250 * time.Millisecond,
		RefreshTimeout: 5 * time.Second,
	}
}

// New creates a new device watcher plugin with the given configuration.
func New(cfg Config) *Plugin {
	def := DefaultConfig()
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = def.DebounceDelay
	}
	if cfg.RefreshTimeout <= 0 {
		cfg.RefreshTimeout = def.RefreshTimeout
	}
	return &Plugin{
		debounceDelay:  cfg.DebounceDelay,
		refreshTimeout: cfg.RefreshTimeout,
	}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "devicewatcher"
}

// Initialize starts watching. A directory that cannot be watched disables
// the plugin without failing Start.
func (p *Plugin) Initialize(ctx context.Context, cfg paintwatch.PluginConfig) error {
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNoopLogger()
	}

	p.mu.Lock()
	p.pattern = cfg.DevicePattern
	p.controller = cfg.Controller
	p.logger = logger
	p.mu.Unlock()

	if p.pattern == "" || p.controller == nil {
		logger.Warn("device watcher disabled: no device pattern or controller")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn("device watcher disabled", log.Err(err))
		return nil
	}
	dir := filepath.Dir(p.pattern)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		logger.Warn("device watcher disabled",
			log.String("dir", dir),
			log.Err(err))
		return nil
	}

	watchCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	logger.Info("device watcher started", log.String("dir", dir))

	p.wg.Add(1)
	go p.watchLoop(watchCtx, watcher)
	return nil
}

// Shutdown stops the watcher.
func (p *Plugin) Shutdown(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()

	p.mu.Lock()
	if p.debounce != nil {
		p.debounce.Stop()
	}
	p.mu.Unlock()
	return nil
}

func (p *Plugin) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer p.wg.Done()
	defer watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !p.matches(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Remove) == 0 {
				continue
			}
			p.logger.Debug("device change",
				log.String("path", event.Name),
				log.String("op", event.Op.String()))
			p.debounceRefresh(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			p.logger.Warn("device watcher error", log.Err(err))
		}
	}
}

// matches reports whether path is a node the device pattern selects.
func (p *Plugin) matches(path string) bool {
	ok, err := filepath.Match(filepath.Base(p.pattern), filepath.Base(path))
	return err == nil && ok
}

func (p *Plugin) debounceRefresh(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.debounce != nil {
		p.debounce.Stop()
	}
	p.debounce = time.AfterFunc(p.debounceDelay, func() {
		p.refresh(ctx)
	})
}

func (p *Plugin) refresh(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	rctx, cancel := context.WithTimeout(ctx, p.refreshTimeout)
	defer cancel()

	err := p.controller.RefreshCameras(rctx)
	switch {
	case err == nil:
		p.logger.Info("camera list refreshed")
	case errors.Is(err, paintwatch.ErrNotRunning):
		p.logger.Debug("camera refresh skipped, display not running")
	default:
		p.logger.Warn("camera refresh failed", log.Err(err))
	}
}

// Ensure Plugin implements paintwatch.Plugin.
var _ paintwatch.Plugin = (*Plugin)(nil)
