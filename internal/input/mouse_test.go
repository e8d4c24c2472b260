package input

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mj1618/desktop-intent/internal/model"
)

func mouseFlags(r *recorder) []uint32 {
	var out []uint32
	for _, e := range r.events {
		if e.Kind == MouseEvent {
			out = append(out, e.Flags)
		}
	}
	return out
}

func TestMouseClick_OutsideVirtualDesktopSendsNothing(t *testing.T) {
	r := newRecorder()
	s := newTestSynth(r)
	for _, p := range []model.Point{{X: -1281, Y: 10}, {X: 1920, Y: 10}, {X: 10, Y: 1080}} {
		p := p
		err := s.MouseClick(context.Background(), &p, ClickOptions{})
		if !errors.Is(err, model.ErrInvalidInput) {
			t.Errorf("MouseClick(%v) err = %v, want invalid_input", p, err)
		}
	}
	if len(r.events) != 0 {
		t.Errorf("sent %d events for rejected points", len(r.events))
	}
}

func TestMouseClick_DoubleRightOnSecondaryMonitor(t *testing.T) {
	r := newRecorder()
	s := newTestSynth(r)
	p := model.Point{X: -640, Y: 512}
	if err := s.MouseClick(context.Background(), &p, ClickOptions{Button: ButtonRight, Count: 2}); err != nil {
		t.Fatal(err)
	}
	want := []uint32{
		MouseMove | MouseAbsolute | MouseVirtualDesk,
		MouseRightDown, MouseRightUp, MouseRightDown, MouseRightUp,
	}
	got := mouseFlags(r)
	if len(got) != len(want) {
		t.Fatalf("flags = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("flags[%d] = %#x, want %#x", i, got[i], want[i])
		}
	}
	// Virtual desktop spans x -1280..1919; -640 sits at one fifth.
	if dx := r.events[0].DX; dx < 13100 || dx > 13110 {
		t.Errorf("normalized x = %d, want ~13107", dx)
	}
}

func TestMouseClick_WithModifier(t *testing.T) {
	r := newRecorder()
	s := newTestSynth(r)
	p := model.Point{X: 100, Y: 100}
	if err := s.MouseClick(context.Background(), &p, ClickOptions{Modifiers: ModCtrl}); err != nil {
		t.Fatal(err)
	}
	equalTrace(t, r.keyTrace(), []string{"+ctrl", "-ctrl"})
	if r.events[0].Code != vkControl || r.events[len(r.events)-1].Code != vkControl {
		t.Error("ctrl should wrap the click")
	}
}

func TestMouseScroll(t *testing.T) {
	r := newRecorder()
	s := newTestSynth(r)
	if err := s.MouseScroll(context.Background(), nil, 0, 3); err != nil {
		t.Fatal(err)
	}
	if len(r.events) != 1 || r.events[0].Flags != MouseWheel || r.events[0].Data != -360 {
		t.Errorf("events = %+v, want one wheel event of -360", r.events)
	}
	if err := s.MouseScroll(context.Background(), nil, 0, 0); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("zero scroll err = %v, want invalid_input", err)
	}
}

func TestMouseDrag_ReleasesButtonOnCancel(t *testing.T) {
	r := newRecorder()
	ctx, cancel := context.WithCancel(context.Background())
	s := newTestSynth(r, WithSleep(func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}))
	err := s.MouseDrag(ctx, model.Point{X: 10, Y: 10}, model.Point{X: 500, Y: 300},
		DragOptions{Steps: 5, StepDelay: time.Millisecond})
	if !errors.Is(err, model.ErrCancelled) {
		t.Fatalf("err = %v, want cancelled", err)
	}
	flags := mouseFlags(r)
	if flags[len(flags)-1] != MouseLeftUp {
		t.Errorf("last mouse event = %#x, want left up", flags[len(flags)-1])
	}
}

func TestMouseDrag_ValidatesBothEnds(t *testing.T) {
	r := newRecorder()
	s := newTestSynth(r)
	err := s.MouseDrag(context.Background(), model.Point{X: 10, Y: 10}, model.Point{X: 5000, Y: 10}, DragOptions{})
	if !errors.Is(err, model.ErrInvalidInput) {
		t.Fatalf("err = %v, want invalid_input", err)
	}
	if len(r.events) != 0 {
		t.Error("no event may be sent when the drag target is off-screen")
	}
}

func TestMouseDrag_Complete(t *testing.T) {
	r := newRecorder()
	s := newTestSynth(r)
	if err := s.MouseDrag(context.Background(), model.Point{X: 0, Y: 0}, model.Point{X: 100, Y: 0}, DragOptions{Steps: 4}); err != nil {
		t.Fatal(err)
	}
	flags := mouseFlags(r)
	// move, down, 4 moves, up
	if len(flags) != 7 || flags[1] != MouseLeftDown || flags[6] != MouseLeftUp {
		t.Errorf("flags = %#x", flags)
	}
}
