package paintwatch

// Option configures optional behavior of Paintwatch.
type Option func(*options)

// options holds the optional configuration for a Paintwatch instance.
type options struct {
	httpClient   HTTPClient
	logger       Logger
	detector     Detector
	camera       Camera
	display      Display
	eventHandler EventHandler
	plugins      []Plugin
}

// WithHTTPClient sets the HTTP client used by the default detector.
// If not provided, a client with the configured timeout is used.
func WithHTTPClient(client HTTPClient) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithDetector replaces the HTTP detector client.
func WithDetector(detector Detector) Option {
	return func(o *options) {
		o.detector = detector
	}
}

// WithCamera replaces the OpenCV camera source.
func WithCamera(camera Camera) Option {
	return func(o *options) {
		o.camera = camera
	}
}

// WithDisplay replaces the built-in display server. The server is then not
// started; status and debug output reach only the EventHandler.
func WithDisplay(display Display) Option {
	return func(o *options) {
		o.display = display
	}
}

// WithEventHandler sets a handler for paintwatch events.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithPlugin registers a plugin to be initialized when Paintwatch starts.
func WithPlugin(plugin Plugin) Option {
	return func(o *options) {
		o.plugins = append(o.plugins, plugin)
	}
}
