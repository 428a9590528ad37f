// Package ports defines the interfaces (ports) that connect the application
// layer to infrastructure adapters.
//
// Ports are the boundaries between the control loop and the outside world.
// They define what the application needs from external systems without
// specifying how those needs are fulfilled.
//
// # Port Interfaces
//
//   - [Detector]: Sends one JPEG to the remote object detector
//   - [Camera] and [Stream]: Enumerate devices and capture frames
//   - [FrameCache]: Looks up pre-loaded frame sequences and still frames
//   - [Display]: Makes exactly one frame visible
//   - [Controller]: Operator commands (switch camera, toggle debug)
//   - [Logger]: Structured logging abstraction
//   - [HTTPClient]: HTTP request abstraction for dependency injection
//
// # Usage
//
// The application layer (internal/app) depends only on these interfaces.
// Infrastructure adapters (internal/adapters) implement them with gocv,
// fiber, net/http and the file system.
package ports
