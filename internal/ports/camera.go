package ports

import (
	"context"

	"github.com/bft-labs/paintwatch/internal/domain"
)

// Camera enumerates video devices and opens capture streams on them.
type Camera interface {
	// Devices lists the currently attached video devices in a stable order.
	Devices(ctx context.Context) ([]domain.Device, error)

	// Open starts capturing from the given device.
	Open(ctx context.Context, dev domain.Device) (Stream, error)
}

// FrameSource supplies the current camera frame as JPEG bytes.
type FrameSource interface {
	Capture(ctx context.Context) ([]byte, error)
}

// Stream is a live capture stream.
type Stream interface {
	FrameSource

	// Ended is closed once the stream stops delivering frames.
	Ended() <-chan struct{}

	// Close releases the device. Safe to call more than once.
	Close() error
}
