package app

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/bft-labs/paintwatch/internal/domain"
	"github.com/bft-labs/paintwatch/internal/ports"
)

// mockLogger implements ports.Logger for testing.
type mockLogger struct{}

func (mockLogger) Debug(msg string, fields ...ports.Field) {}
func (mockLogger) Info(msg string, fields ...ports.Field)  {}
func (mockLogger) Warn(msg string, fields ...ports.Field)  {}
func (mockLogger) Error(msg string, fields ...ports.Field) {}

// fakeScheduler is a deterministic Scheduler driven by Advance.
type fakeScheduler struct {
	now time.Time

	mu    sync.Mutex
	posts []func()

	tasks []*fakeTask
	seq   int
}

type fakeTask struct {
	next    time.Time
	every   time.Duration
	fn      func()
	stopped bool
	once    bool
	order   int
}

func (t *fakeTask) Stop() { t.stopped = true }

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (s *fakeScheduler) Now() time.Time { return s.now }

// Post is safe from other goroutines; everything else is test-goroutine only.
func (s *fakeScheduler) Post(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts = append(s.posts, fn)
}

func (s *fakeScheduler) pop() func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.posts) == 0 {
		return nil
	}
	fn := s.posts[0]
	s.posts = s.posts[1:]
	return fn
}

// WaitPost blocks until a post arrives from another goroutine.
func (s *fakeScheduler) WaitPost(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		s.mu.Lock()
		n := len(s.posts)
		s.mu.Unlock()
		if n > 0 {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return false
}

func (s *fakeScheduler) Every(d time.Duration, fn func()) Task {
	return s.add(d, fn, false)
}

func (s *fakeScheduler) After(d time.Duration, fn func()) Task {
	return s.add(d, fn, true)
}

func (s *fakeScheduler) add(d time.Duration, fn func(), once bool) *fakeTask {
	s.seq++
	t := &fakeTask{next: s.now.Add(d), every: d, fn: fn, once: once, order: s.seq}
	s.tasks = append(s.tasks, t)
	return t
}

// Drain runs queued posts, including ones queued while draining.
func (s *fakeScheduler) Drain() {
	for fn := s.pop(); fn != nil; fn = s.pop() {
		fn()
	}
}

// Advance moves the clock forward by d, firing due tasks in time order.
func (s *fakeScheduler) Advance(d time.Duration) {
	end := s.now.Add(d)
	s.Drain()
	for {
		t := s.due(end)
		if t == nil {
			break
		}
		s.now = t.next
		if t.once {
			t.stopped = true
		} else {
			t.next = t.next.Add(t.every)
		}
		t.fn()
		s.Drain()
	}
	s.now = end
}

func (s *fakeScheduler) due(end time.Time) *fakeTask {
	live := s.tasks[:0]
	for _, t := range s.tasks {
		if !t.stopped {
			live = append(live, t)
		}
	}
	s.tasks = live
	if len(live) == 0 {
		return nil
	}
	sort.SliceStable(live, func(i, j int) bool {
		if live[i].next.Equal(live[j].next) {
			return live[i].order < live[j].order
		}
		return live[i].next.Before(live[j].next)
	})
	if live[0].next.After(end) {
		return nil
	}
	return live[0]
}

// Live returns the number of tasks not yet stopped.
func (s *fakeScheduler) Live() int {
	n := 0
	for _, t := range s.tasks {
		if !t.stopped {
			n++
		}
	}
	return n
}

// recordingDisplay records every frame shown.
type recordingDisplay struct {
	mu    sync.Mutex
	shown []domain.FrameID
}

func (d *recordingDisplay) Show(frame domain.FrameID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.shown = append(d.shown, frame)
}

func (d *recordingDisplay) Shown() []domain.FrameID {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]domain.FrameID{}, d.shown...)
}

func (d *recordingDisplay) Last() domain.FrameID {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.shown) == 0 {
		return ""
	}
	return d.shown[len(d.shown)-1]
}

func (d *recordingDisplay) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.shown = nil
}

// fakeFrames serves sequences of the given lengths.
type fakeFrames struct {
	lengths map[domain.SequenceKey]int
}

func newFakeFrames(in, out, peek int) *fakeFrames {
	return &fakeFrames{lengths: map[domain.SequenceKey]int{
		domain.SequenceIn:   in,
		domain.SequenceOut:  out,
		domain.SequencePeek: peek,
	}}
}

func (f *fakeFrames) Sequence(key domain.SequenceKey) domain.Sequence {
	seq := domain.Sequence{Key: key}
	for i := 0; i < f.lengths[key]; i++ {
		seq.Frames = append(seq.Frames, domain.SequenceFrameID(key, i))
	}
	return seq
}

func (f *fakeFrames) Static(name domain.StaticName) domain.FrameID {
	return domain.StaticFrameID(name)
}

// stubSource returns a fixed frame.
type stubSource struct{ err error }

func (s stubSource) Capture(ctx context.Context) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []byte{0xff, 0xd8, 0xff}, nil
}

// scriptedDetector answers Detect with queued results.
type scriptedDetector struct {
	mu      sync.Mutex
	results []detectResult
	calls   int
	health  domain.Health
	hErr    error

	// idle is the count answered once the queue is empty.
	idle int
}

type detectResult struct {
	det domain.Detection
	err error
}

func (d *scriptedDetector) Push(count int, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.results = append(d.results, detectResult{det: domain.Detection{Count: count}, err: err})
}

func (d *scriptedDetector) Detect(ctx context.Context, jpeg []byte) (domain.Detection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if len(d.results) == 0 {
		return domain.Detection{Count: d.idle}, nil
	}
	r := d.results[0]
	d.results = d.results[1:]
	return r.det, r.err
}

func (d *scriptedDetector) SetIdle(count int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.idle = count
}

func (d *scriptedDetector) Health(ctx context.Context) (domain.Health, error) {
	return d.health, d.hErr
}

func (d *scriptedDetector) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

// syncSpawn runs work inline.
func syncSpawn(fn func()) { fn() }

var (
	_ Scheduler        = (*fakeScheduler)(nil)
	_ ports.Display    = (*recordingDisplay)(nil)
	_ ports.FrameCache = (*fakeFrames)(nil)
	_ ports.Detector   = (*scriptedDetector)(nil)
)
