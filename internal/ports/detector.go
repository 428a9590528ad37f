package ports

import (
	"context"

	"github.com/bft-labs/paintwatch/internal/domain"
)

// Detector talks to the remote object detector.
type Detector interface {
	// Detect submits one JPEG frame and returns the detector's verdict.
	Detect(ctx context.Context, jpeg []byte) (domain.Detection, error)

	// Health returns the detector's readiness report.
	// Returns domain.ErrBackendOffline (wrapped) if it cannot be reached.
	Health(ctx context.Context) (domain.Health, error)
}
