package domain

import "fmt"

// SequenceKey names a pre-loaded animation.
type SequenceKey string

const (
	SequenceIn   SequenceKey = "in"
	SequenceOut  SequenceKey = "out"
	SequencePeek SequenceKey = "peek"
)

// StaticName names a pre-loaded still frame.
type StaticName string

const (
	StaticDefault StaticName = "default"
	StaticRemoved StaticName = "removed"
)

// FrameID is an opaque handle to a drawable frame owned by the frame cache.
type FrameID string

// SequenceFrameID returns the handle of frame i of the given sequence.
func SequenceFrameID(key SequenceKey, i int) FrameID {
	return FrameID(fmt.Sprintf("%s/%02d", key, i))
}

// StaticFrameID returns the handle of a still frame.
func StaticFrameID(name StaticName) FrameID {
	return FrameID("static/" + string(name))
}

// Sequence is an immutable, ordered list of frames loaded at startup.
type Sequence struct {
	Key    SequenceKey
	Frames []FrameID
}

// Len returns the number of loaded frames.
func (s Sequence) Len() int { return len(s.Frames) }

// Empty reports whether no frame of the sequence could be loaded.
func (s Sequence) Empty() bool { return len(s.Frames) == 0 }

// Device is a video capture device known to the camera source.
type Device struct {
	// Index is the capture index passed to the camera driver.
	Index int

	// Path is the device node, e.g. /dev/video0.
	Path string
}
