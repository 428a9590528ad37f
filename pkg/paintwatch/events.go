package paintwatch

import (
	"time"

	"github.com/bft-labs/paintwatch/internal/app"
)

// StateChangeEvent reports a lifecycle transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// VisualStateEvent reports that the painting finished changing state.
type VisualStateEvent struct {
	Previous VisualState
	Current  VisualState
}

// PresenceEvent reports an edge of the debounced phone signal.
type PresenceEvent struct {
	Change PresenceChange
	At     time.Time
}

// DetectionErrorEvent reports a failed detection round.
type DetectionErrorEvent struct {
	Error error
}

// StatusEvent reports a change of the operator status line.
type StatusEvent struct {
	Status Status
}

// EventHandler receives paintwatch events. Display events are delivered on
// the session loop and must return quickly.
type EventHandler interface {
	OnStateChange(StateChangeEvent)
	OnVisualStateChange(VisualStateEvent)
	OnPresenceChange(PresenceEvent)
	OnDetectionError(DetectionErrorEvent)
	OnStatus(StatusEvent)
}

// BaseEventHandler implements EventHandler with no-ops. Embed it to handle
// only some events.
type BaseEventHandler struct{}

func (BaseEventHandler) OnStateChange(StateChangeEvent)       {}
func (BaseEventHandler) OnVisualStateChange(VisualStateEvent) {}
func (BaseEventHandler) OnPresenceChange(PresenceEvent)       {}
func (BaseEventHandler) OnDetectionError(DetectionErrorEvent) {}
func (BaseEventHandler) OnStatus(StatusEvent)                 {}

// lifecycleEvents adapts EventHandler to app.EventEmitter.
type lifecycleEvents struct {
	handler EventHandler
}

func (e lifecycleEvents) OnStateChange(previous, current app.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Previous: convertState(previous),
		Current:  convertState(current),
		Reason:   reason,
	})
}

// sessionEvents fans session output out to the display sink and the
// event handler. Either may be nil.
type sessionEvents struct {
	sink    app.SessionEmitter
	handler EventHandler
	now     func() time.Time
}

func (e *sessionEvents) OnStatus(status Status) {
	if e.sink != nil {
		e.sink.OnStatus(status)
	}
	if e.handler != nil {
		e.handler.OnStatus(StatusEvent{Status: status})
	}
}

func (e *sessionEvents) OnVisualStateChange(previous, current VisualState) {
	if e.sink != nil {
		e.sink.OnVisualStateChange(previous, current)
	}
	if e.handler != nil {
		e.handler.OnVisualStateChange(VisualStateEvent{Previous: previous, Current: current})
	}
}

func (e *sessionEvents) OnPresenceChange(change PresenceChange) {
	if e.sink != nil {
		e.sink.OnPresenceChange(change)
	}
	if e.handler != nil {
		e.handler.OnPresenceChange(PresenceEvent{Change: change, At: e.now()})
	}
}

func (e *sessionEvents) OnDetectionError(err error) {
	if e.sink != nil {
		e.sink.OnDetectionError(err)
	}
	if e.handler != nil {
		e.handler.OnDetectionError(DetectionErrorEvent{Error: err})
	}
}

func (e *sessionEvents) OnAnnotatedImage(jpeg []byte) {
	if e.sink != nil {
		e.sink.OnAnnotatedImage(jpeg)
	}
}

func (e *sessionEvents) OnDebugChange(enabled bool) {
	if e.sink != nil {
		e.sink.OnDebugChange(enabled)
	}
}

var _ app.SessionEmitter = (*sessionEvents)(nil)
