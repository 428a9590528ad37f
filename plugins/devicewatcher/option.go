package devicewatcher

import "github.com/bft-labs/paintwatch/pkg/paintwatch"

// WithDeviceWatcher returns a paintwatch Option that refreshes the camera
// list on hot-plug.
//
// Usage:
//
//	p, err := paintwatch.New(cfg,
//	    devicewatcher.WithDeviceWatcher(devicewatcher.DefaultConfig()),
//	)
func WithDeviceWatcher(cfg Config) paintwatch.Option {
	return paintwatch.WithPlugin(New(cfg))
}
