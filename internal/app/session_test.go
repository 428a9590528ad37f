package app

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bft-labs/paintwatch/internal/domain"
)

type recordingSessionEmitter struct {
	statuses  []domain.Status
	visuals   [][2]domain.VisualState
	presence  []domain.PresenceChange
	errs      []error
	annotated int
	debug     []bool
}

func (r *recordingSessionEmitter) OnStatus(s domain.Status) { r.statuses = append(r.statuses, s) }
func (r *recordingSessionEmitter) OnVisualStateChange(p, c domain.VisualState) {
	r.visuals = append(r.visuals, [2]domain.VisualState{p, c})
}
func (r *recordingSessionEmitter) OnPresenceChange(c domain.PresenceChange) {
	r.presence = append(r.presence, c)
}
func (r *recordingSessionEmitter) OnDetectionError(err error)   { r.errs = append(r.errs, err) }
func (r *recordingSessionEmitter) OnAnnotatedImage(jpeg []byte) { r.annotated++ }
func (r *recordingSessionEmitter) OnDebugChange(on bool)        { r.debug = append(r.debug, on) }

func (r *recordingSessionEmitter) lastStatus() domain.Status {
	if len(r.statuses) == 0 {
		return domain.Status{}
	}
	return r.statuses[len(r.statuses)-1]
}

type sessionHarness struct {
	sched   *fakeScheduler
	display *recordingDisplay
	det     *scriptedDetector
	cam     *fakeCamera
	emitter *recordingSessionEmitter
	session *Session
}

func newSessionHarness(devs int) *sessionHarness {
	h := &sessionHarness{
		sched:   newFakeScheduler(),
		display: &recordingDisplay{},
		det:     &scriptedDetector{},
		cam:     &fakeCamera{devices: devices(devs)},
		emitter: &recordingSessionEmitter{},
	}
	cfg := SessionConfig{
		PollInterval: 300 * time.Millisecond,
		PhoneTimeout: 3 * time.Second,
		CameraPoll:   2500 * time.Millisecond,
		PeekInterval: 5 * time.Second,
		MainFPS:      30,
		PeekFPS:      24,
		Frames:       FrameCounts{In: 47, Out: 44, Peek: 12},
	}
	h.session = NewSession(context.Background(), cfg, h.sched, newFakeFrames(48, 45, 13),
		h.display, h.det, h.cam, h.emitter, &mockLogger{})
	h.session.driver.spawn = syncSpawn
	h.session.cameras.spawn = syncSpawn
	return h
}

// pushRun queues n detector answers with the given count.
func (h *sessionHarness) pushRun(n, count int) {
	for i := 0; i < n; i++ {
		h.det.Push(count, nil)
	}
}

func TestSession_StartShowsDefaultAndDetects(t *testing.T) {
	h := newSessionHarness(1)

	h.session.Start()
	h.sched.Drain()

	if got := h.display.Shown(); len(got) == 0 || got[0] != domain.StaticFrameID(domain.StaticDefault) {
		t.Errorf("first frame = %v, want default static", got)
	}
	snap := h.session.Snapshot()
	if !snap.CameraReady || !snap.Detecting {
		t.Errorf("snapshot = %+v, want camera ready and detecting", snap)
	}
	if got := h.emitter.lastStatus(); got.Kind != domain.StatusDetecting || got.Text != "Detecting …" {
		t.Errorf("status = %+v, want detecting", got)
	}
}

func TestSession_NoDetectionWithoutCamera(t *testing.T) {
	h := newSessionHarness(0)

	h.session.Start()
	h.sched.Advance(time.Second)

	if h.session.Snapshot().Detecting {
		t.Error("detecting without a camera")
	}
	if h.det.Calls() != 0 {
		t.Errorf("detector called %d times without a camera", h.det.Calls())
	}
}

func TestSession_PhoneRemovalAndReturn(t *testing.T) {
	h := newSessionHarness(1)

	// Phone present for the first second, then put away.
	h.pushRun(4, 1)
	h.session.Start()
	h.sched.Advance(time.Second)

	if len(h.emitter.presence) != 1 || h.emitter.presence[0] != domain.BecamePresent {
		t.Fatalf("presence = %v, want [present]", h.emitter.presence)
	}
	if got := h.emitter.lastStatus().Text; got != "📱 Phone detected" {
		t.Errorf("status = %q, want phone detected", got)
	}
	want := [][2]domain.VisualState{{domain.StateDefault, domain.StateRemoved}}
	if fmt.Sprint(h.emitter.visuals) != fmt.Sprint(want) {
		t.Fatalf("visual changes = %v, want %v", h.emitter.visuals, want)
	}
	if h.session.Snapshot().Visual != domain.StateRemoved {
		t.Fatalf("visual = %v, want Removed", h.session.Snapshot().Visual)
	}

	// Last positive at 900ms; absence is confirmed by the first sample past 3.9s.
	h.sched.Advance(2900 * time.Millisecond)
	snap := h.session.Snapshot()
	if snap.Visual != domain.StateRemoved {
		t.Fatal("returned before the absence timeout")
	}
	if got := h.display.Last(); got != domain.StaticFrameID(domain.StaticRemoved) {
		t.Errorf("rest frame after out run = %s, want removed static", got)
	}
	if !snap.PeekArmed {
		t.Error("peek not armed after the out run")
	}

	h.sched.Advance(300 * time.Millisecond)
	snap = h.session.Snapshot()
	if snap.Visual != domain.StateDefault {
		t.Fatalf("visual = %v, want Default", snap.Visual)
	}
	if snap.PeekArmed {
		t.Error("peek still armed after the return")
	}
	if got := h.emitter.lastStatus().Text; got != "No phone" {
		t.Errorf("status = %q, want no phone", got)
	}
	if len(h.emitter.presence) != 2 || h.emitter.presence[1] != domain.BecameAbsent {
		t.Errorf("presence = %v, want [present absent]", h.emitter.presence)
	}

	h.sched.Advance(2 * time.Second)
	if got := h.display.Last(); got != domain.StaticFrameID(domain.StaticDefault) {
		t.Errorf("rest frame after in run = %s, want default static", got)
	}
}

func TestSession_FailuresDoNotFlipPresence(t *testing.T) {
	h := newSessionHarness(1)

	h.det.Push(1, nil)
	for i := 0; i < 20; i++ {
		h.det.Push(0, errors.New("offline"))
	}
	h.session.Start()
	h.sched.Advance(5 * time.Second)

	snap := h.session.Snapshot()
	if !snap.Presence.HasPhone {
		t.Error("failed calls cleared presence")
	}
	if len(h.emitter.errs) == 0 {
		t.Error("detection errors not reported")
	}
	if snap.Visual != domain.StateRemoved {
		t.Errorf("visual = %v, want Removed held through failures", snap.Visual)
	}
}

func TestSession_AnnotatedImagesOnlyInDebug(t *testing.T) {
	h := newSessionHarness(1)

	h.session.OnAnnotatedImage([]byte("a"))
	if h.emitter.annotated != 0 {
		t.Error("image forwarded with debug off")
	}

	h.session.ToggleDebug()
	h.session.OnAnnotatedImage([]byte("a"))
	if h.emitter.annotated != 1 {
		t.Error("image not forwarded with debug on")
	}
	if len(h.emitter.debug) != 1 || !h.emitter.debug[0] {
		t.Errorf("debug changes = %v, want [true]", h.emitter.debug)
	}
}

func TestSession_SwitchCamera(t *testing.T) {
	h := newSessionHarness(2)
	h.session.Start()
	h.sched.Drain()

	h.session.SwitchCamera()
	h.sched.Drain()

	if len(h.cam.opened) != 2 || h.cam.opened[1].dev.Index != 1 {
		t.Fatalf("opened = %d streams, want second on device 1", len(h.cam.opened))
	}
	snap := h.session.Snapshot()
	if !snap.CameraReady || !snap.Detecting {
		t.Errorf("snapshot after switch = %+v, want detecting again", snap)
	}
}

func TestSession_SwitchCameraSingleDevice(t *testing.T) {
	h := newSessionHarness(1)
	h.session.Start()
	h.sched.Drain()
	before := len(h.emitter.statuses)

	h.session.SwitchCamera()

	if len(h.emitter.statuses) != before {
		t.Error("status changed for an ignored switch")
	}
	if !h.session.Snapshot().Detecting {
		t.Error("detection stopped by an ignored switch")
	}
}

func TestSession_Stop(t *testing.T) {
	h := newSessionHarness(1)
	h.session.Start()
	h.sched.Drain()

	h.session.Stop()

	if h.session.Snapshot().Detecting {
		t.Error("still detecting after Stop")
	}
	if !h.cam.opened[0].closed {
		t.Error("stream not closed on Stop")
	}
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name    string
		det     *scriptedDetector
		wantErr error
	}{
		{"ready", &scriptedDetector{health: domain.Health{ModelLoaded: true}}, nil},
		{"model missing", &scriptedDetector{}, domain.ErrModelNotLoaded},
		{"offline", &scriptedDetector{hErr: fmt.Errorf("dial: %w", domain.ErrBackendOffline)}, domain.ErrBackendOffline},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Verify(context.Background(), tt.det)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Verify() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSession_Fail(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{domain.ErrModelNotLoaded, "Model not loaded"},
		{fmt.Errorf("x: %w", domain.ErrBackendOffline), "Backend offline"},
		{errors.New("disk"), "Init error: disk"},
	}

	for _, tt := range tests {
		h := newSessionHarness(0)
		h.session.Fail(tt.err)
		got := h.emitter.lastStatus()
		if got.Kind != domain.StatusError || got.Text != tt.want {
			t.Errorf("Fail(%v) status = %+v, want error %q", tt.err, got, tt.want)
		}
	}
}
