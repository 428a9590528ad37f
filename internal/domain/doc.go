// Package domain contains the core entities and value objects for paintwatch.
//
// This package is the innermost layer. It has no dependencies on infrastructure
// concerns (HTTP, camera, display, logging) and holds only plain values.
//
// # Entities
//
//   - [VisualState]: which painting the display converges to (Default or Removed)
//   - [DetectionSample]: one verdict from the remote detector
//   - [PresenceState]: debounced phone presence
//   - [Sequence] and [FrameID]: pre-loaded animation frames
//   - [Status]: operator-facing status line
//
// # Design Principles
//
// Domain values are:
//   - Immutable after construction (where practical)
//   - Free of infrastructure dependencies
//   - Testable without mocks or external systems
package domain
