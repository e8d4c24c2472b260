package input

import (
	"context"
	"time"

	"github.com/mj1618/desktop-intent/internal/model"
)

// Press parses combo ("enter", "ctrl+shift+t") and taps it. Modifiers the
// user is already holding are left alone; those pressed here are released in
// reverse order on every exit path.
func (s *Synthesizer) Press(ctx context.Context, combo string) error {
	c, err := ParseCombo(combo)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pressLocked(ctx, c)
}

func (s *Synthesizer) pressLocked(ctx context.Context, c Combo) (err error) {
	if err := ctx.Err(); err != nil {
		return cancelled(err, "key press")
	}
	if s.registry.IsHeld(c.Key) {
		return model.Errorf(model.KindKeyAlreadyHeld, "key %q is held; release it before pressing", c.Key.Name)
	}

	pressed, err := s.pressModifiers(ctx, c.Modifiers)
	defer func() {
		if rerr := s.releaseReverse(pressed); rerr != nil && err == nil {
			err = rerr
		}
	}()
	if err != nil {
		return err
	}

	n, err := s.send(ctx, []Event{keyDown(c.Key), keyUp(c.Key)})
	if n == 1 {
		// Down went out without its up.
		if rerr := s.release(c.Key); rerr != nil && err == nil {
			err = rerr
		}
	}
	if err != nil {
		return err
	}
	s.log.Debug().Str("combo", c.String()).Int("modifiers_pressed", len(pressed)).Msg("pressed")
	return nil
}

// pressModifiers presses every modifier in set that is not already down and
// returns the ones it pressed, in press order, even on error.
func (s *Synthesizer) pressModifiers(ctx context.Context, set ModifierSet) ([]Key, error) {
	var pressed []Key
	for _, k := range set.Ordered() {
		if s.keys.IsKeyDown(k.Code) || s.registry.IsHeld(k) {
			continue
		}
		if _, err := s.send(ctx, []Event{keyDown(k)}); err != nil {
			return pressed, err
		}
		pressed = append(pressed, k)
	}
	return pressed, nil
}

func (s *Synthesizer) releaseReverse(keys []Key) error {
	rev := make([]Key, len(keys))
	for i, k := range keys {
		rev[len(keys)-1-i] = k
	}
	return s.release(rev...)
}

// KeyDown presses a key and records it as held. Pressing a held key fails
// with KeyAlreadyHeld and sends nothing.
func (s *Synthesizer) KeyDown(ctx context.Context, name string) (HeldKeyState, error) {
	k, err := ParseKey(name)
	if err != nil {
		return HeldKeyState{}, err
	}
	if err := ctx.Err(); err != nil {
		return HeldKeyState{}, cancelled(err, "key down")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.registry.TryMarkHeld(k)
	if err != nil {
		return st, err
	}
	if _, err := s.send(ctx, []Event{keyDown(k)}); err != nil {
		_, _ = s.registry.TryRelease(k)
		return HeldKeyState{}, err
	}
	s.log.Debug().Str("key", k.Name).Msg("key held")
	return st, nil
}

// KeyUp releases a key held with KeyDown. Releasing a key that is not held
// fails with KeyNotHeld and sends nothing.
func (s *Synthesizer) KeyUp(ctx context.Context, name string) error {
	k, err := ParseKey(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.registry.TryRelease(k); err != nil {
		return err
	}
	s.log.Debug().Str("key", k.Name).Msg("key released")
	return s.release(k)
}

// ReleaseAll releases every held key, most recently held first, and returns
// how many release events were sent. It is always safe to call.
func (s *Synthesizer) ReleaseAll(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	held := s.registry.ReleaseAll()
	var first error
	sent := 0
	for _, h := range held {
		if err := s.release(Key{Name: h.Name, Code: h.Code, Extended: h.Extended}); err != nil {
			if first == nil {
				first = err
			}
			continue
		}
		sent++
	}
	if len(held) > 0 {
		s.log.Info().Int("released", sent).Int("held", len(held)).Msg("released held keys")
	}
	return sent, first
}

// HeldKeys lists held keys, most recently held first.
func (s *Synthesizer) HeldKeys() []HeldKeyState {
	return s.registry.Held()
}

// SequenceItem is one step of a key sequence. Key may itself be a combo;
// Modifiers are added to it. Delay is waited after the step.
type SequenceItem struct {
	Key       string        `yaml:"key"                 json:"key"`
	Modifiers []string      `yaml:"modifiers,omitempty" json:"modifiers,omitempty"`
	Delay     time.Duration `yaml:"delay,omitempty"     json:"delay,omitempty"`
}

// Sequence presses items strictly in order. Every item is parsed before
// anything is sent. A failure aborts the remaining items and is returned as
// a *model.PartialError carrying the number of completed items; no key or
// modifier is left held.
func (s *Synthesizer) Sequence(ctx context.Context, items []SequenceItem) (int, error) {
	if len(items) == 0 {
		return 0, model.Errorf(model.KindInvalidInput, "key sequence is empty")
	}
	combos := make([]Combo, len(items))
	for i, it := range items {
		c, err := ParseCombo(it.Key)
		if err != nil {
			return 0, model.Wrap(model.KindInvalidKey, err, "sequence item %d", i+1)
		}
		mods, err := ParseModifiers(it.Modifiers)
		if err != nil {
			return 0, model.Wrap(model.KindInvalidKey, err, "sequence item %d", i+1)
		}
		c.Modifiers |= mods
		combos[i] = c
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, c := range combos {
		if err := s.pressLocked(ctx, c); err != nil {
			return i, &model.PartialError{Completed: i, Err: err}
		}
		if d := items[i].Delay; d > 0 && i < len(combos)-1 {
			if err := s.sleep(ctx, d); err != nil {
				return i + 1, &model.PartialError{Completed: i + 1, Err: cancelled(err, "key sequence")}
			}
		}
	}
	return len(combos), nil
}
