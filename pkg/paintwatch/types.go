package paintwatch

import (
	"github.com/bft-labs/paintwatch/internal/app"
	"github.com/bft-labs/paintwatch/internal/domain"
	"github.com/bft-labs/paintwatch/internal/ports"
)

// Port interfaces accepted by the With* options.
type (
	// Detector talks to the phone detector.
	Detector = ports.Detector

	// Camera enumerates and opens capture devices.
	Camera = ports.Camera

	// Stream is an open capture stream.
	Stream = ports.Stream

	// Display composites the painting.
	Display = ports.Display

	// HTTPClient is the interface for making HTTP requests.
	// *http.Client satisfies this interface.
	HTTPClient = ports.HTTPClient

	// Logger is the interface for structured logging.
	Logger = ports.Logger

	// LogField represents a structured log field.
	LogField = ports.Field
)

// Domain values that cross the port interfaces.
type (
	Detection      = domain.Detection
	Health         = domain.Health
	Device         = domain.Device
	FrameID        = domain.FrameID
	Status         = domain.Status
	StatusKind     = domain.StatusKind
	VisualState    = domain.VisualState
	PresenceChange = domain.PresenceChange
)

// Visual states.
const (
	VisualDefault = domain.StateDefault
	VisualRemoved = domain.StateRemoved
)

// Presence edges.
const (
	BecamePresent = domain.BecamePresent
	BecameAbsent  = domain.BecameAbsent
)

// Errors returned by the public API. Check with errors.Is.
var (
	ErrAlreadyRunning  = domain.ErrAlreadyRunning
	ErrNotRunning      = domain.ErrNotRunning
	ErrShutdownTimeout = domain.ErrShutdownTimeout
	ErrInvalidConfig   = domain.ErrInvalidConfig
	ErrBackendOffline  = domain.ErrBackendOffline
	ErrModelNotLoaded  = domain.ErrModelNotLoaded
)

// State is the lifecycle state of a Paintwatch instance.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
	StateCrashed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StateStarting:
		return "Starting"
	case StateRunning:
		return "Running"
	case StateStopping:
		return "Stopping"
	case StateCrashed:
		return "Crashed"
	default:
		return "Unknown"
	}
}

func convertState(s app.State) State {
	switch s {
	case app.StateStopped:
		return StateStopped
	case app.StateStarting:
		return StateStarting
	case app.StateRunning:
		return StateRunning
	case app.StateStopping:
		return StateStopping
	case app.StateCrashed:
		return StateCrashed
	default:
		return StateStopped
	}
}
