package app

import (
	"reflect"
	"testing"
	"time"

	"github.com/bft-labs/paintwatch/internal/domain"
)

func newTestSequencer(frames *fakeFrames) (*Sequencer, *fakeScheduler, *recordingDisplay) {
	sched := newFakeScheduler()
	display := &recordingDisplay{}
	seq := NewSequencer(SequencerConfig{MainFPS: 30, PeekFPS: 24}, sched, frames, display, &mockLogger{})
	return seq, sched, display
}

func ids(key domain.SequenceKey, idx ...int) []domain.FrameID {
	out := make([]domain.FrameID, 0, len(idx))
	for _, i := range idx {
		out = append(out, domain.SequenceFrameID(key, i))
	}
	return out
}

func TestSequencer_Play_Forward(t *testing.T) {
	seq, sched, display := newTestSequencer(newFakeFrames(5, 5, 5))
	fallback := domain.StaticFrameID(domain.StaticDefault)

	done := 0
	if !seq.Play(domain.SequenceIn, 3, fallback, false, func() { done++ }) {
		t.Fatal("Play() = false, want true")
	}
	if !seq.Active() {
		t.Fatal("Active() = false after Play")
	}

	sched.Advance(time.Second)

	want := append(ids(domain.SequenceIn, 0, 1, 2, 3), fallback)
	if got := display.Shown(); !reflect.DeepEqual(got, want) {
		t.Errorf("shown = %v, want %v", got, want)
	}
	if done != 1 {
		t.Errorf("onDone called %d times, want 1", done)
	}
	if seq.Active() {
		t.Error("Active() = true after run finished")
	}
	if sched.Live() != 0 {
		t.Errorf("%d tasks still scheduled, want 0", sched.Live())
	}
}

func TestSequencer_Play_PingPong(t *testing.T) {
	seq, sched, display := newTestSequencer(newFakeFrames(5, 5, 5))
	fallback := domain.StaticFrameID(domain.StaticRemoved)

	seq.Play(domain.SequencePeek, 3, fallback, true, nil)
	sched.Advance(time.Second)

	want := append(ids(domain.SequencePeek, 0, 1, 2, 3, 2, 1, 0), fallback)
	if got := display.Shown(); !reflect.DeepEqual(got, want) {
		t.Errorf("shown = %v, want %v", got, want)
	}
}

func TestSequencer_Play_PeekUsesPeekRate(t *testing.T) {
	seq, sched, display := newTestSequencer(newFakeFrames(5, 5, 5))

	seq.Play(domain.SequencePeek, 4, domain.StaticFrameID(domain.StaticRemoved), false, nil)
	// At 24 fps two frames take ~83ms; at 30 fps three would be shown.
	sched.Advance(time.Second/24*2 + time.Millisecond)

	if got := len(display.Shown()); got != 2 {
		t.Errorf("frames shown = %d, want 2", got)
	}
}

func TestSequencer_Play_RefusedWhileActive(t *testing.T) {
	seq, sched, display := newTestSequencer(newFakeFrames(5, 5, 5))

	seq.Play(domain.SequenceOut, 4, domain.StaticFrameID(domain.StaticRemoved), false, nil)
	sched.Advance(time.Second / 30)
	before := display.Shown()

	second := 0
	if seq.Play(domain.SequenceIn, 4, domain.StaticFrameID(domain.StaticDefault), false, func() { second++ }) {
		t.Fatal("Play() = true while active, want false")
	}
	if got := display.Shown(); !reflect.DeepEqual(got, before) {
		t.Errorf("refused Play touched the display: %v", got)
	}

	sched.Advance(time.Second)
	if second != 0 {
		t.Error("refused run's onDone was called")
	}
	if got := display.Last(); got != domain.StaticFrameID(domain.StaticRemoved) {
		t.Errorf("last frame = %s, want removed static", got)
	}
}

func TestSequencer_Play_EmptySequence(t *testing.T) {
	seq, sched, display := newTestSequencer(newFakeFrames(0, 0, 0))
	fallback := domain.StaticFrameID(domain.StaticDefault)

	done, hooked := 0, 0
	seq.OnFinish(func() { hooked++ })
	seq.Play(domain.SequenceIn, 47, fallback, false, func() { done++ })

	if seq.Active() {
		t.Error("Active() = true for empty sequence")
	}
	if got := display.Shown(); !reflect.DeepEqual(got, []domain.FrameID{fallback}) {
		t.Errorf("shown = %v, want only fallback", got)
	}
	if done != 1 || hooked != 1 {
		t.Errorf("onDone=%d hooks=%d, want 1 and 1", done, hooked)
	}
	if sched.Live() != 0 {
		t.Error("empty sequence scheduled a task")
	}
}

func TestSequencer_Play_ClampsLastToLoadedFrames(t *testing.T) {
	seq, sched, display := newTestSequencer(newFakeFrames(3, 3, 3))
	fallback := domain.StaticFrameID(domain.StaticDefault)

	seq.Play(domain.SequenceIn, 47, fallback, false, nil)
	sched.Advance(time.Second)

	want := append(ids(domain.SequenceIn, 0, 1, 2), fallback)
	if got := display.Shown(); !reflect.DeepEqual(got, want) {
		t.Errorf("shown = %v, want %v", got, want)
	}
}

func TestSequencer_Play_SingleFramePingPong(t *testing.T) {
	seq, sched, display := newTestSequencer(newFakeFrames(1, 1, 1))
	fallback := domain.StaticFrameID(domain.StaticRemoved)

	seq.Play(domain.SequencePeek, 0, fallback, true, nil)
	sched.Advance(time.Second)

	want := append(ids(domain.SequencePeek, 0), fallback)
	if got := display.Shown(); !reflect.DeepEqual(got, want) {
		t.Errorf("shown = %v, want %v", got, want)
	}
}

func TestSequencer_Hooks_RunAfterOnDone(t *testing.T) {
	seq, sched, _ := newTestSequencer(newFakeFrames(2, 2, 2))

	var order []string
	seq.OnFinish(func() { order = append(order, "hook") })
	seq.Play(domain.SequenceIn, 1, domain.StaticFrameID(domain.StaticDefault), false, func() {
		order = append(order, "done")
		if seq.Active() {
			t.Error("run still active inside onDone")
		}
	})
	sched.Advance(time.Second)

	if want := []string{"done", "hook"}; !reflect.DeepEqual(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}
