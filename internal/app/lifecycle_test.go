package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bft-labs/paintwatch/internal/domain"
)

// mockEmitter records lifecycle state changes.
type mockEmitter struct {
	mu     sync.Mutex
	events []stateChangeEvent
}

type stateChangeEvent struct {
	previous State
	current  State
	reason   string
}

func (m *mockEmitter) OnStateChange(previous, current State, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, stateChangeEvent{previous, current, reason})
}

func (m *mockEmitter) States() []State {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]State, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.current)
	}
	return out
}

var allStates = []State{StateStopped, StateStarting, StateRunning, StateStopping, StateCrashed}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateStopped, "Stopped"},
		{StateStarting, "Starting"},
		{StateRunning, "Running"},
		{StateStopping, "Stopping"},
		{StateCrashed, "Crashed"},
		{State(99), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %s, want %s", tt.state, got, tt.want)
		}
	}
}

func TestLifecycle_TransitionMatrix(t *testing.T) {
	legal := map[[2]State]bool{
		{StateStopped, StateStarting}:  true,
		{StateStarting, StateRunning}:  true,
		{StateStarting, StateStopping}: true,
		{StateStarting, StateCrashed}:  true,
		{StateRunning, StateStopping}:  true,
		{StateRunning, StateCrashed}:   true,
		{StateStopping, StateStopped}:  true,
		{StateStopping, StateCrashed}:  true,
		{StateCrashed, StateStarting}:  true,
	}
	idle := map[State]bool{StateStopped: true, StateCrashed: true}

	for _, from := range allStates {
		for _, to := range allStates {
			t.Run(from.String()+"->"+to.String(), func(t *testing.T) {
				l := NewLifecycle(&mockLogger{}, nil)
				l.state = from

				err := l.TransitionTo(to, "test")

				if legal[[2]State{from, to}] {
					if err != nil || l.State() != to {
						t.Errorf("TransitionTo() = %v, state %v; want nil, %v", err, l.State(), to)
					}
					return
				}
				want := domain.ErrAlreadyRunning
				if idle[from] {
					want = domain.ErrNotRunning
				}
				if err != want {
					t.Errorf("TransitionTo() error = %v, want %v", err, want)
				}
				if l.State() != from {
					t.Errorf("state changed to %v on rejected transition", l.State())
				}
			})
		}
	}
}

func TestLifecycle_StartStopGuards(t *testing.T) {
	tests := []struct {
		state     State
		wantStart bool
		wantStop  bool
	}{
		{StateStopped, true, false},
		{StateStarting, false, true},
		{StateRunning, false, true},
		{StateStopping, false, false},
		{StateCrashed, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			l := NewLifecycle(&mockLogger{}, nil)
			l.state = tt.state

			if got := l.CanStart(); got != tt.wantStart {
				t.Errorf("CanStart() = %v, want %v", got, tt.wantStart)
			}
			if got := l.CanStop(); got != tt.wantStop {
				t.Errorf("CanStop() = %v, want %v", got, tt.wantStop)
			}
		})
	}
}

// A Stop that lands before the session worker reports Running must win:
// the worker's Running transition is rejected and it exits.
func TestLifecycle_StopBeforeSessionRuns(t *testing.T) {
	emitter := &mockEmitter{}
	l := NewLifecycle(&mockLogger{}, emitter)
	if err := l.TransitionTo(StateStarting, "Start() called"); err != nil {
		t.Fatal(err)
	}

	gate := make(chan struct{})
	ran := make(chan error, 1)
	l.Go(func() {
		<-gate
		ran <- l.TransitionTo(StateRunning, "session starting")
	})

	if err := l.TransitionTo(StateStopping, "Stop() called"); err != nil {
		t.Fatalf("early stop rejected: %v", err)
	}
	close(gate)

	if err := <-ran; err != domain.ErrAlreadyRunning {
		t.Errorf("worker Running transition = %v, want ErrAlreadyRunning", err)
	}
	if err := l.WaitWithTimeout(time.Second); err != nil {
		t.Fatalf("WaitWithTimeout() = %v", err)
	}
	if err := l.TransitionTo(StateStopped, "graceful shutdown"); err != nil {
		t.Fatal(err)
	}

	want := []State{StateStarting, StateStopping, StateStopped}
	got := emitter.States()
	if len(got) != len(want) {
		t.Fatalf("states = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("states = %v, want %v", got, want)
			break
		}
	}
}

// A crashed display can be started again, and its cancel func is replaced.
func TestLifecycle_RestartAfterCrash(t *testing.T) {
	l := NewLifecycle(&mockLogger{}, nil)

	first, cancelFirst := context.WithCancel(context.Background())
	defer cancelFirst()
	_ = l.TransitionTo(StateStarting, "start")
	l.SetCancel(cancelFirst)
	_ = l.TransitionTo(StateRunning, "session starting")

	if err := l.TransitionTo(StateCrashed, "display server: bind"); err != nil {
		t.Fatal(err)
	}
	l.Cancel()
	if first.Err() == nil {
		t.Fatal("first run not canceled on crash")
	}
	if l.CanStop() {
		t.Error("CanStop() = true after crash")
	}

	if !l.CanStart() {
		t.Fatal("CanStart() = false after crash")
	}
	second, cancelSecond := context.WithCancel(context.Background())
	defer cancelSecond()
	_ = l.TransitionTo(StateStarting, "restart")
	l.SetCancel(cancelSecond)
	_ = l.TransitionTo(StateRunning, "session starting")

	l.Cancel()
	l.Cancel()
	if second.Err() == nil {
		t.Error("second run not canceled")
	}
}

func TestLifecycle_Cancel_NilSafe(t *testing.T) {
	l := NewLifecycle(&mockLogger{}, nil)
	l.Cancel()
}

func TestLifecycle_Go_TracksWorkers(t *testing.T) {
	l := NewLifecycle(&mockLogger{}, nil)

	release := make(chan struct{})
	for i := 0; i < 3; i++ {
		l.Go(func() { <-release })
	}

	if err := l.WaitWithTimeout(10 * time.Millisecond); err != domain.ErrShutdownTimeout {
		t.Fatalf("WaitWithTimeout() with blocked workers = %v, want ErrShutdownTimeout", err)
	}

	close(release)
	if err := l.WaitWithTimeout(time.Second); err != nil {
		t.Errorf("WaitWithTimeout() = %v, want nil", err)
	}
}

func TestLifecycle_ConcurrentStarts(t *testing.T) {
	emitter := &mockEmitter{}
	l := NewLifecycle(&mockLogger{}, emitter)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.CanStart()
			_ = l.TransitionTo(StateStarting, "start")
		}()
	}
	wg.Wait()

	if got := emitter.States(); len(got) != 1 || got[0] != StateStarting {
		t.Errorf("states = %v, want a single Starting", got)
	}
}
