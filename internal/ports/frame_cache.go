package ports

import "github.com/bft-labs/paintwatch/internal/domain"

// FrameCache holds the frames loaded at startup.
type FrameCache interface {
	// Sequence returns the frames of an animation. The sequence is empty
	// when none of its files could be loaded.
	Sequence(key domain.SequenceKey) domain.Sequence

	// Static returns the handle of a still frame.
	Static(name domain.StaticName) domain.FrameID
}

// FrameStore resolves frame handles to encoded image bytes.
type FrameStore interface {
	Frame(id domain.FrameID) ([]byte, bool)
}
