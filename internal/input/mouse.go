package input

import (
	"context"
	"strings"
	"time"

	"github.com/mj1618/desktop-intent/internal/coords"
	"github.com/mj1618/desktop-intent/internal/model"
)

// Button is a mouse button.
type Button string

const (
	ButtonLeft   Button = "left"
	ButtonRight  Button = "right"
	ButtonMiddle Button = "middle"
)

// ParseButton accepts left, right or middle; empty means left.
func ParseButton(s string) (Button, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "left":
		return ButtonLeft, nil
	case "right":
		return ButtonRight, nil
	case "middle", "wheel":
		return ButtonMiddle, nil
	}
	return "", model.Errorf(model.KindInvalidInput, "unknown mouse button %q (use left, right or middle)", s)
}

func (b Button) flags() (down, up uint32) {
	switch b {
	case ButtonRight:
		return MouseRightDown, MouseRightUp
	case ButtonMiddle:
		return MouseMiddleDown, MouseMiddleUp
	default:
		return MouseLeftDown, MouseLeftUp
	}
}

// ClickOptions configures MouseClick.
type ClickOptions struct {
	Button    Button
	Count     int // 0 means 1
	Modifiers ModifierSet
}

// DragOptions configures MouseDrag.
type DragOptions struct {
	Button    Button
	Steps     int           // intermediate moves, default 10
	StepDelay time.Duration // pause between moves
}

// moveEvent validates p against a fresh topology and builds an absolute move.
func (s *Synthesizer) moveEvent(p model.Point) (Event, error) {
	top, err := coords.Snapshot(s.monitors)
	if err != nil {
		return Event{}, err
	}
	n, err := top.Normalize(p)
	if err != nil {
		return Event{}, err
	}
	return Event{
		Kind:  MouseEvent,
		DX:    int32(n.X),
		DY:    int32(n.Y),
		Flags: MouseMove | MouseAbsolute | MouseVirtualDesk,
	}, nil
}

// MouseMove moves the cursor to a screen point.
func (s *Synthesizer) MouseMove(ctx context.Context, p model.Point) error {
	ev, err := s.moveEvent(p)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.send(ctx, []Event{ev})
	return err
}

// MouseClick clicks at p, or at the current cursor position when p is nil.
func (s *Synthesizer) MouseClick(ctx context.Context, p *model.Point, opts ClickOptions) (err error) {
	var events []Event
	if p != nil {
		ev, err := s.moveEvent(*p)
		if err != nil {
			return err
		}
		events = append(events, ev)
	}
	count := max(opts.Count, 1)
	down, up := opts.Button.flags()
	for i := 0; i < count; i++ {
		events = append(events, Event{Kind: MouseEvent, Flags: down}, Event{Kind: MouseEvent, Flags: up})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return cancelled(err, "click")
	}

	pressed, err := s.pressModifiers(ctx, opts.Modifiers)
	defer func() {
		if rerr := s.releaseReverse(pressed); rerr != nil && err == nil {
			err = rerr
		}
	}()
	if err != nil {
		return err
	}

	n, err := s.send(ctx, events)
	if err != nil && n > 0 && n < len(events) && events[n].Flags == up {
		_, _ = s.send(context.Background(), []Event{{Kind: MouseEvent, Flags: up}})
	}
	return err
}

// MouseScroll turns the wheel at p (or the cursor). Positive dy scrolls
// down, positive dx scrolls right; units are wheel notches.
func (s *Synthesizer) MouseScroll(ctx context.Context, p *model.Point, dx, dy int) error {
	if dx == 0 && dy == 0 {
		return model.Errorf(model.KindInvalidInput, "scroll amount is zero")
	}
	var events []Event
	if p != nil {
		ev, err := s.moveEvent(*p)
		if err != nil {
			return err
		}
		events = append(events, ev)
	}
	if dy != 0 {
		events = append(events, Event{Kind: MouseEvent, Flags: MouseWheel, Data: int32(-dy * WheelDelta)})
	}
	if dx != 0 {
		events = append(events, Event{Kind: MouseEvent, Flags: MouseHWheel, Data: int32(dx * WheelDelta)})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.send(ctx, events)
	return err
}

// MouseDrag presses at from, moves to to in steps and releases. The button is
// released on every exit path once it went down.
func (s *Synthesizer) MouseDrag(ctx context.Context, from, to model.Point, opts DragOptions) (err error) {
	start, err := s.moveEvent(from)
	if err != nil {
		return err
	}
	if _, err := s.moveEvent(to); err != nil {
		return err
	}
	steps := opts.Steps
	if steps <= 0 {
		steps = 10
	}
	down, up := opts.Button.flags()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.send(ctx, []Event{start, {Kind: MouseEvent, Flags: down}}); err != nil {
		return err
	}
	released := false
	defer func() {
		if released {
			return
		}
		if _, rerr := s.send(context.Background(), []Event{{Kind: MouseEvent, Flags: up}}); rerr != nil && err == nil {
			err = rerr
		}
	}()

	for i := 1; i <= steps; i++ {
		p := model.Point{
			X: from.X + (to.X-from.X)*i/steps,
			Y: from.Y + (to.Y-from.Y)*i/steps,
		}
		ev, err := s.moveEvent(p)
		if err != nil {
			return err
		}
		if _, err := s.send(ctx, []Event{ev}); err != nil {
			return err
		}
		if i < steps && opts.StepDelay > 0 {
			if err := s.sleep(ctx, opts.StepDelay); err != nil {
				return cancelled(err, "drag")
			}
		}
	}
	if _, err := s.send(ctx, []Event{{Kind: MouseEvent, Flags: up}}); err != nil {
		return err
	}
	released = true
	return nil
}
