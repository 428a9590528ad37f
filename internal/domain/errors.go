package domain

import "errors"

// Domain errors represent error conditions in the paintwatch domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrAlreadyRunning is returned when Start() is called on a running instance.
	ErrAlreadyRunning = errors.New("paintwatch: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped instance.
	ErrNotRunning = errors.New("paintwatch: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("paintwatch: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("paintwatch: invalid configuration")

	// ErrBackendOffline is returned when the detector cannot be reached
	// or answers with a non-2xx status.
	ErrBackendOffline = errors.New("paintwatch: backend offline")

	// ErrModelNotLoaded is returned when the detector reports model_loaded=false.
	ErrModelNotLoaded = errors.New("paintwatch: model not loaded")

	// ErrNoCamera is returned when no video device is available.
	ErrNoCamera = errors.New("paintwatch: no camera")

	// ErrStreamEnded is returned by a camera stream that stopped delivering frames.
	ErrStreamEnded = errors.New("paintwatch: stream ended")
)
