package ports

import "context"

// Controller accepts operator commands from an outer surface.
// Implementations must be safe for concurrent use.
type Controller interface {
	// SwitchCamera cycles to the next video device.
	SwitchCamera(ctx context.Context) error

	// ToggleDebug flips the debug view.
	ToggleDebug(ctx context.Context) error
}
