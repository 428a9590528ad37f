package ports

import "github.com/bft-labs/paintwatch/internal/domain"

// Display composites the painting.
type Display interface {
	// Show hides every frame and makes the given frame the only visible one.
	Show(frame domain.FrameID)
}
