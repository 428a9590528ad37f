package paintwatch

import "context"

// Plugin extends a Paintwatch instance. Plugins are initialized in
// registration order on Start and shut down in reverse order on Stop.
type Plugin interface {
	// Name identifies the plugin in logs.
	Name() string

	// Initialize starts the plugin. An error aborts Start.
	Initialize(ctx context.Context, cfg PluginConfig) error

	// Shutdown stops the plugin and releases its resources.
	Shutdown(ctx context.Context) error
}

// Controller is the operator surface of a running instance.
// Every method returns ErrNotRunning when no session is active.
type Controller interface {
	SwitchCamera(ctx context.Context) error
	ToggleDebug(ctx context.Context) error
	RefreshCameras(ctx context.Context) error
}

// PluginConfig is handed to plugins on Initialize.
type PluginConfig struct {
	// DevicePattern is the glob enumerating cameras.
	DevicePattern string

	// Controller drives the running session.
	Controller Controller

	Logger Logger
}
