package input

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mj1618/desktop-intent/internal/coords"
	"github.com/mj1618/desktop-intent/internal/model"
)

// recorder is a Sender and KeyState that records events and tracks which
// virtual keys are down.
type recorder struct {
	mu       sync.Mutex
	events   []Event
	calls    int
	fail     func(call int, events []Event) (int, error)
	down     map[uint16]bool
	physical map[uint16]bool
}

func newRecorder() *recorder {
	return &recorder{down: map[uint16]bool{}, physical: map[uint16]bool{}}
}

func (r *recorder) SendInput(evs []Event) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.fail != nil {
		if n, err := r.fail(r.calls, evs); err != nil || n < len(evs) {
			r.apply(evs[:n])
			return n, err
		}
	}
	r.apply(evs)
	return len(evs), nil
}

func (r *recorder) apply(evs []Event) {
	for _, e := range evs {
		r.events = append(r.events, e)
		if e.Kind == KeyboardEvent && e.Code != 0 {
			r.down[e.Code] = !e.IsKeyUp()
		}
	}
}

func (r *recorder) IsKeyDown(code uint16) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.physical[code] || r.down[code]
}

func (r *recorder) anyDown() []uint16 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []uint16
	for code, d := range r.down {
		if d {
			out = append(out, code)
		}
	}
	return out
}

// keyTrace renders keyboard events as "+code"/"-code" for order checks.
func (r *recorder) keyTrace() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		if e.Kind != KeyboardEvent || e.Code == 0 {
			continue
		}
		sign := "+"
		if e.IsKeyUp() {
			sign = "-"
		}
		out = append(out, sign+codeName(e.Code))
	}
	return out
}

func codeName(code uint16) string {
	for name, c := range keyCodes {
		if c == code && len(name) > 1 && name != "lwin" {
			return name
		}
	}
	for name, c := range keyCodes {
		if c == code {
			return name
		}
	}
	return "?"
}

type monitors []coords.Monitor

func (m monitors) Monitors() ([]coords.Monitor, error) { return m, nil }

var dualMonitors = monitors{
	{Bounds: model.Rect{X: 0, Y: 0, Width: 1920, Height: 1080}, Primary: true},
	{Bounds: model.Rect{X: -1280, Y: 0, Width: 1280, Height: 1024}},
}

func noSleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }

func newTestSynth(r *recorder, opts ...Option) *Synthesizer {
	base := []Option{WithRegistry(NewRegistry()), WithSleep(noSleep), WithLock(&sync.Mutex{})}
	return New(r, r, dualMonitors, append(base, opts...)...)
}

func equalTrace(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("trace = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("trace = %v, want %v", got, want)
		}
	}
}

func TestPress_EveryKeyLeavesRegistryEmpty(t *testing.T) {
	for _, name := range KeyNames() {
		r := newRecorder()
		s := newTestSynth(r)
		if err := s.Press(context.Background(), name); err != nil {
			t.Errorf("Press(%q) error: %v", name, err)
			continue
		}
		if n := s.Registry().Len(); n != 0 {
			t.Errorf("Press(%q) left %d held keys", name, n)
		}
		if down := r.anyDown(); len(down) != 0 {
			t.Errorf("Press(%q) left keys down: %v", name, down)
		}
	}
}

func TestPress_ComboOrder(t *testing.T) {
	r := newRecorder()
	s := newTestSynth(r)
	if err := s.Press(context.Background(), "Ctrl+Shift+T"); err != nil {
		t.Fatal(err)
	}
	equalTrace(t, r.keyTrace(), []string{"+ctrl", "+shift", "+t", "-t", "-shift", "-ctrl"})
}

func TestPress_ExtendedFlag(t *testing.T) {
	r := newRecorder()
	s := newTestSynth(r)
	if err := s.Press(context.Background(), "pagedown"); err != nil {
		t.Fatal(err)
	}
	for _, e := range r.events {
		if e.Flags&KeyExtended == 0 {
			t.Errorf("event %+v should carry the extended flag", e)
		}
	}
}

func TestPress_SkipsPhysicallyHeldModifier(t *testing.T) {
	r := newRecorder()
	r.physical[vkControl] = true
	s := newTestSynth(r)
	if err := s.Press(context.Background(), "ctrl+shift+c"); err != nil {
		t.Fatal(err)
	}
	// ctrl belongs to the user: neither pressed nor released.
	equalTrace(t, r.keyTrace(), []string{"+shift", "+c", "-c", "-shift"})
}

func TestPress_ReleasesModifiersOnFailure(t *testing.T) {
	r := newRecorder()
	r.fail = func(call int, _ []Event) (int, error) {
		if call == 3 {
			return 0, errors.New("SendInput failed")
		}
		return 1 << 30, nil
	}
	s := newTestSynth(r)
	err := s.Press(context.Background(), "ctrl+shift+x")
	if !errors.Is(err, model.ErrInternalFault) {
		t.Fatalf("err = %v, want internal_fault", err)
	}
	equalTrace(t, r.keyTrace(), []string{"+ctrl", "+shift", "-shift", "-ctrl"})
	if down := r.anyDown(); len(down) != 0 {
		t.Errorf("keys left down: %v", down)
	}
}

func TestPress_AccessDeniedIsPermissionDenied(t *testing.T) {
	r := newRecorder()
	r.fail = func(int, []Event) (int, error) { return 0, ErrAccessDenied }
	s := newTestSynth(r)
	if err := s.Press(context.Background(), "enter"); !errors.Is(err, model.ErrPermissionDenied) {
		t.Errorf("err = %v, want permission_denied", err)
	}
}

func TestPress_InvalidKeySendsNothing(t *testing.T) {
	r := newRecorder()
	s := newTestSynth(r)
	for _, combo := range []string{"ctrl+bogus", "a+b", "", "ctrl++shift"} {
		if err := s.Press(context.Background(), combo); !errors.Is(err, model.ErrInvalidKey) {
			t.Errorf("Press(%q) err = %v, want invalid_key", combo, err)
		}
	}
	if len(r.events) != 0 {
		t.Errorf("sent %d events for invalid combos", len(r.events))
	}
}

func TestKeyDown_TwiceIsAlreadyHeld(t *testing.T) {
	r := newRecorder()
	s := newTestSynth(r)
	ctx := context.Background()
	if _, err := s.KeyDown(ctx, "shift"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.KeyDown(ctx, "SHIFT"); !errors.Is(err, model.ErrKeyAlreadyHeld) {
		t.Errorf("second KeyDown err = %v, want key_already_held", err)
	}
	if len(r.events) != 1 {
		t.Errorf("sent %d events, want 1", len(r.events))
	}
}

func TestKeyUp_NotHeld(t *testing.T) {
	r := newRecorder()
	s := newTestSynth(r)
	if err := s.KeyUp(context.Background(), "a"); !errors.Is(err, model.ErrKeyNotHeld) {
		t.Errorf("err = %v, want key_not_held", err)
	}
	if len(r.events) != 0 {
		t.Errorf("sent %d events, want 0", len(r.events))
	}
}

func TestKeyDown_FailedSendIsNotHeld(t *testing.T) {
	r := newRecorder()
	r.fail = func(int, []Event) (int, error) { return 0, ErrAccessDenied }
	s := newTestSynth(r)
	if _, err := s.KeyDown(context.Background(), "alt"); err == nil {
		t.Fatal("expected error")
	}
	if s.Registry().Len() != 0 {
		t.Error("a key that never went down must not be registered")
	}
}

func TestReleaseAll_EmitsOneReleasePerHeldKey(t *testing.T) {
	r := newRecorder()
	s := newTestSynth(r)
	ctx := context.Background()
	for _, k := range []string{"shift", "a", "f5"} {
		if _, err := s.KeyDown(ctx, k); err != nil {
			t.Fatal(err)
		}
	}
	before := len(r.events)

	n, err := s.ReleaseAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("ReleaseAll() = %d, want 3", n)
	}
	ups := 0
	for _, e := range r.events[before:] {
		if e.IsKeyUp() {
			ups++
		}
	}
	if ups != 3 || len(r.events)-before != 3 {
		t.Errorf("emitted %d events (%d releases), want exactly 3 releases", len(r.events)-before, ups)
	}
	// Most recently held first.
	equalTrace(t, r.keyTrace()[3:], []string{"-f5", "-a", "-shift"})
	if s.Registry().Len() != 0 {
		t.Error("registry should be empty")
	}

	n, err = s.ReleaseAll(ctx)
	if err != nil || n != 0 {
		t.Errorf("second ReleaseAll() = (%d, %v), want (0, nil)", n, err)
	}
}

func TestPress_KeepsSyntheticallyHeldModifier(t *testing.T) {
	r := newRecorder()
	s := newTestSynth(r)
	ctx := context.Background()
	if _, err := s.KeyDown(ctx, "ctrl"); err != nil {
		t.Fatal(err)
	}
	if err := s.Press(ctx, "ctrl+c"); err != nil {
		t.Fatal(err)
	}
	if !s.Registry().IsHeld(Key{Name: "ctrl"}) || !r.IsKeyDown(vkControl) {
		t.Error("ctrl held via KeyDown must stay held after the combo")
	}
}

func TestSequence_CtrlZThreeTimes(t *testing.T) {
	r := newRecorder()
	s := newTestSynth(r)
	items := []SequenceItem{{Key: "ctrl+z"}, {Key: "ctrl+z"}, {Key: "z", Modifiers: []string{"control"}}}
	n, err := s.Sequence(context.Background(), items)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("Sequence() = %d, want 3", n)
	}
	cycle := []string{"+ctrl", "+z", "-z", "-ctrl"}
	var want []string
	for i := 0; i < 3; i++ {
		want = append(want, cycle...)
	}
	equalTrace(t, r.keyTrace(), want)
}

func TestSequence_FailureAbortsAndLeavesNothingHeld(t *testing.T) {
	r := newRecorder()
	// Item 1 uses calls 1-3 (ctrl down, z tap, ctrl up); call 5 is item 2's z tap.
	r.fail = func(call int, _ []Event) (int, error) {
		if call == 5 {
			return 0, errors.New("SendInput failed")
		}
		return 1 << 30, nil
	}
	s := newTestSynth(r)
	items := []SequenceItem{{Key: "ctrl+z"}, {Key: "ctrl+z"}, {Key: "ctrl+z"}}
	n, err := s.Sequence(context.Background(), items)
	if err == nil {
		t.Fatal("expected failure")
	}
	var pe *model.PartialError
	if !errors.As(err, &pe) || pe.Completed != 1 || n != 1 {
		t.Errorf("completed = %d (err %v), want 1", n, err)
	}
	equalTrace(t, r.keyTrace(), []string{"+ctrl", "+z", "-z", "-ctrl", "+ctrl", "-ctrl"})
	if down := r.anyDown(); len(down) != 0 {
		t.Errorf("keys left down: %v", down)
	}
	if s.Registry().Len() != 0 {
		t.Error("registry should be empty")
	}
}

func TestSequence_ValidatesBeforeSending(t *testing.T) {
	r := newRecorder()
	s := newTestSynth(r)
	_, err := s.Sequence(context.Background(), []SequenceItem{{Key: "a"}, {Key: "nope"}})
	if !errors.Is(err, model.ErrInvalidKey) {
		t.Errorf("err = %v, want invalid_key", err)
	}
	if len(r.events) != 0 {
		t.Errorf("sent %d events before validation failed", len(r.events))
	}
}
