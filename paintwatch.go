// Package paintwatch runs a phone-aware painting display.
//
// Example usage:
//
//	cfg := paintwatch.DefaultConfig()
//	cfg.AssetsDir = "/srv/paintwatch/assets"
//	cfg.APIURL = "http://detector:8000"
//	if err := paintwatch.Run(ctx, cfg); err != nil {
//	    log.Fatal(err)
//	}
//
// For lifecycle control and events, use pkg/paintwatch directly.
package paintwatch

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/bft-labs/paintwatch/internal/cliconfig"
	"github.com/bft-labs/paintwatch/pkg/log"
	"github.com/bft-labs/paintwatch/pkg/paintwatch"
	"github.com/bft-labs/paintwatch/plugins/devicewatcher"
)

// Config holds the configuration of a display.
type Config = paintwatch.Config

// DefaultConfig returns a Config with every default filled in.
func DefaultConfig() Config {
	var cfg Config
	cfg.SetDefaults()
	return cfg
}

// Run starts the display with camera hot-plug support and blocks until ctx
// is canceled. It logs to Logger().
func Run(ctx context.Context, cfg Config) error {
	p, err := paintwatch.New(cfg,
		paintwatch.WithLogger(log.NewZerologAdapterWithLogger(Logger())),
		devicewatcher.WithDeviceWatcher(devicewatcher.DefaultConfig()),
	)
	if err != nil {
		return err
	}
	if err := p.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return p.Stop()
}

// Logger returns the package-level zerolog logger.
func Logger() zerolog.Logger {
	return cliconfig.Logger()
}
