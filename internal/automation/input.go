package automation

import (
	"context"
	"errors"

	"github.com/mj1618/desktop-intent/internal/input"
	"github.com/mj1618/desktop-intent/internal/model"
)

// Raw input operations. Each consults the environment probe first and
// reports partial progress on failure.

// TypeText types text into whatever has focus.
func (s *Service) TypeText(ctx context.Context, text string) *model.AutomationResult {
	tr := s.begin("type_text")
	tr.method = MethodInputType
	n, err := 0, s.guard()
	if err == nil {
		n, err = s.input.TypeText(ctx, text)
	}
	res := s.finish(tr, err)
	if err != nil {
		res.PartialCount = n
	}
	return res
}

// PressKey presses and releases a key combo such as "ctrl+shift+t".
func (s *Service) PressKey(ctx context.Context, combo string) *model.AutomationResult {
	tr := s.begin("press_key")
	err := s.guard()
	if err == nil {
		err = s.input.Press(ctx, combo)
	}
	return s.finish(tr, err)
}

// KeyDown holds a key until KeyUp or ReleaseAll.
func (s *Service) KeyDown(ctx context.Context, name string) *model.AutomationResult {
	tr := s.begin("key_down")
	err := s.guard()
	if err == nil {
		_, err = s.input.KeyDown(ctx, name)
	}
	return s.heldKeys(s.finish(tr, err))
}

// KeyUp releases a key held with KeyDown.
func (s *Service) KeyUp(ctx context.Context, name string) *model.AutomationResult {
	tr := s.begin("key_up")
	err := s.guard()
	if err == nil {
		err = s.input.KeyUp(ctx, name)
	}
	return s.heldKeys(s.finish(tr, err))
}

// ReleaseAll releases every held key. It skips the environment probe: a
// release must always be possible.
func (s *Service) ReleaseAll(ctx context.Context) *model.AutomationResult {
	tr := s.begin("release_all")
	n, err := s.input.ReleaseAll(ctx)
	res := s.heldKeys(s.finish(tr, err))
	res.Released = n
	return res
}

// HeldKeys lists the synthetically held keys.
func (s *Service) HeldKeys() *model.AutomationResult {
	return s.heldKeys(s.finish(s.begin("held_keys"), nil))
}

func (s *Service) heldKeys(res *model.AutomationResult) *model.AutomationResult {
	for _, h := range s.input.HeldKeys() {
		res.HeldKeys = append(res.HeldKeys, h.Name)
	}
	return res
}

// Sequence presses combos strictly in order, aborting at the first failure.
func (s *Service) Sequence(ctx context.Context, items []input.SequenceItem) *model.AutomationResult {
	tr := s.begin("sequence")
	n, err := 0, s.guard()
	if err == nil {
		n, err = s.input.Sequence(ctx, items)
	}
	res := s.finish(tr, err)
	var pe *model.PartialError
	if errors.As(err, &pe) {
		res.PartialCount = n
	}
	return res
}

// MouseMove moves the cursor to a screen point.
func (s *Service) MouseMove(ctx context.Context, p model.Point) *model.AutomationResult {
	tr := s.begin("mouse_move")
	err := s.guard()
	if err == nil {
		err = s.input.MouseMove(ctx, p)
	}
	return s.finish(tr, err)
}

// MouseClick clicks at p, or at the cursor when p is nil.
func (s *Service) MouseClick(ctx context.Context, p *model.Point, opts input.ClickOptions) *model.AutomationResult {
	tr := s.begin("mouse_click")
	tr.method = MethodInputClick
	err := s.guard()
	if err == nil {
		err = s.input.MouseClick(ctx, p, opts)
	}
	return s.finish(tr, err)
}

// MouseScroll turns the wheel at p (or the cursor). Positive dy scrolls
// down, positive dx scrolls right, in notches.
func (s *Service) MouseScroll(ctx context.Context, p *model.Point, dx, dy int) *model.AutomationResult {
	tr := s.begin("mouse_scroll")
	err := s.guard()
	if err == nil {
		err = s.input.MouseScroll(ctx, p, dx, dy)
	}
	return s.finish(tr, err)
}

// MouseDrag drags from one point to another. The button is always released.
func (s *Service) MouseDrag(ctx context.Context, from, to model.Point, opts input.DragOptions) *model.AutomationResult {
	tr := s.begin("mouse_drag")
	err := s.guard()
	if err == nil {
		err = s.input.MouseDrag(ctx, from, to, opts)
	}
	return s.finish(tr, err)
}
