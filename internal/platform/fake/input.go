package fake

import (
	"unicode/utf16"

	"github.com/mj1618/desktop-intent/internal/coords"
	"github.com/mj1618/desktop-intent/internal/input"
	"github.com/mj1618/desktop-intent/internal/model"
)

const (
	vkBack    = 0x08
	vkTab     = 0x09
	vkReturn  = 0x0D
	vkShift   = 0x10
	vkControl = 0x11
	vkMenu    = 0x12
	vkLWin    = 0x5B
)

var modifierCodes = []struct {
	mod  input.ModifierSet
	code uint16
}{
	{input.ModCtrl, vkControl},
	{input.ModShift, vkShift},
	{input.ModAlt, vkMenu},
	{input.ModWin, vkLWin},
}

type hotkey struct {
	combo input.Combo
	fn    func()
}

// InputLog records synthetic input and applies it to the desktop: typed
// characters land in the focused editable element and left clicks move
// focus to the element under the cursor.
type InputLog struct {
	d *Desktop

	events   []input.Event
	down     map[uint16]bool
	physical map[uint16]bool
	cursor   model.Point
	clicks   []model.Point
	pending  uint16

	blocked   bool
	failAfter int

	hotkeys []hotkey
	fired   []func()
}

func newInputLog(d *Desktop) *InputLog {
	return &InputLog{d: d, down: map[uint16]bool{}, physical: map[uint16]bool{}, failAfter: -1}
}

// Block makes every SendInput call fail with input.ErrAccessDenied, as when
// the foreground window belongs to an elevated process.
func (l *InputLog) Block(on bool) {
	l.d.mu.Lock()
	defer l.d.mu.Unlock()
	l.blocked = on
}

// FailAfter accepts n more events and then reports access denied. A negative
// n disables the limit.
func (l *InputLog) FailAfter(n int) {
	l.d.mu.Lock()
	defer l.d.mu.Unlock()
	l.failAfter = n
}

// HoldPhysical simulates the user holding a key on the real keyboard.
func (l *InputLog) HoldPhysical(code uint16, held bool) {
	l.d.mu.Lock()
	defer l.d.mu.Unlock()
	l.physical[code] = held
}

// OnHotkey runs fn, outside the desktop lock, whenever combo's key goes down
// while exactly its modifiers are held.
func (l *InputLog) OnHotkey(combo string, fn func()) error {
	c, err := input.ParseCombo(combo)
	if err != nil {
		return err
	}
	l.d.mu.Lock()
	defer l.d.mu.Unlock()
	l.hotkeys = append(l.hotkeys, hotkey{combo: c, fn: fn})
	return nil
}

// Events returns a copy of every accepted event.
func (l *InputLog) Events() []input.Event {
	l.d.mu.Lock()
	defer l.d.mu.Unlock()
	return append([]input.Event(nil), l.events...)
}

// Clicks returns the screen points of completed left clicks.
func (l *InputLog) Clicks() []model.Point {
	l.d.mu.Lock()
	defer l.d.mu.Unlock()
	return append([]model.Point(nil), l.clicks...)
}

// Cursor returns the last absolute cursor position.
func (l *InputLog) Cursor() model.Point {
	l.d.mu.Lock()
	defer l.d.mu.Unlock()
	return l.cursor
}

// SyntheticDown returns the virtual keys the log believes are held.
func (l *InputLog) SyntheticDown() []uint16 {
	l.d.mu.Lock()
	defer l.d.mu.Unlock()
	var out []uint16
	for code, held := range l.down {
		if held {
			out = append(out, code)
		}
	}
	return out
}

// IsKeyDown implements input.KeyState.
func (l *InputLog) IsKeyDown(code uint16) bool {
	l.d.mu.Lock()
	defer l.d.mu.Unlock()
	return l.down[code] || l.physical[code]
}

// SendInput implements input.Sender.
func (l *InputLog) SendInput(events []input.Event) (int, error) {
	l.d.mu.Lock()
	n, err := l.sendLocked(events)
	fired := l.fired
	l.fired = nil
	l.d.mu.Unlock()
	for _, fn := range fired {
		fn()
	}
	return n, err
}

func (l *InputLog) sendLocked(events []input.Event) (int, error) {
	if l.blocked {
		return 0, input.ErrAccessDenied
	}
	for i, ev := range events {
		if l.failAfter == 0 {
			return i, input.ErrAccessDenied
		}
		if l.failAfter > 0 {
			l.failAfter--
		}
		l.events = append(l.events, ev)
		l.applyLocked(ev)
	}
	return len(events), nil
}

func (l *InputLog) applyLocked(ev input.Event) {
	switch ev.Kind {
	case input.KeyboardEvent:
		if ev.Flags&input.KeyUnicode != 0 {
			if !ev.IsKeyUp() {
				l.typeUnitLocked(ev.Unit)
			}
			return
		}
		l.down[ev.Code] = !ev.IsKeyUp()
		if !ev.IsKeyUp() {
			l.matchHotkeysLocked(ev.Code)
		}
		if !ev.IsKeyUp() && !l.down[vkControl] && !l.down[vkMenu] {
			switch ev.Code {
			case vkReturn:
				l.typeLocked("\n")
			case vkTab:
				l.typeLocked("\t")
			case vkBack:
				l.backspaceLocked()
			}
		}
	case input.MouseEvent:
		if ev.Flags&input.MouseAbsolute != 0 {
			if top, err := coords.NewTopology(l.d.monitors); err == nil {
				l.cursor = top.Denormalize(model.Point{X: int(ev.DX), Y: int(ev.DY)})
			}
		}
		if ev.Flags&input.MouseLeftUp != 0 {
			l.clicks = append(l.clicks, l.cursor)
			if n := l.d.hitTestLocked(l.cursor); n != nil && !n.Disabled {
				l.d.focused = n
			}
		}
	}
}

func (l *InputLog) matchHotkeysLocked(code uint16) {
	var held input.ModifierSet
	for _, m := range modifierCodes {
		if l.down[m.code] {
			held |= m.mod
		}
	}
	for _, h := range l.hotkeys {
		if h.combo.Key.Code == code && h.combo.Modifiers == held {
			l.fired = append(l.fired, h.fn)
		}
	}
}

func (l *InputLog) typeUnitLocked(u uint16) {
	if utf16.IsSurrogate(rune(u)) {
		if l.pending == 0 {
			l.pending = u
			return
		}
		r := utf16.DecodeRune(rune(l.pending), rune(u))
		l.pending = 0
		l.typeLocked(string(r))
		return
	}
	l.pending = 0
	l.typeLocked(string(rune(u)))
}

func (l *InputLog) typeLocked(s string) {
	n := l.d.focused
	if n == nil || n.removed || !n.capsLocked().Has(model.CapValue) || n.ReadOnly {
		return
	}
	n.Value += s
}

func (l *InputLog) backspaceLocked() {
	n := l.d.focused
	if n == nil || n.Value == "" {
		return
	}
	r := []rune(n.Value)
	n.Value = string(r[:len(r)-1])
}

// hitTestLocked returns the deepest visible node containing p in the
// foreground-most window.
func (d *Desktop) hitTestLocked(p model.Point) *Node {
	var hit *Node
	var walk func(*Node)
	walk = func(n *Node) {
		if n.Offscreen || !n.Bounds.Contains(p) {
			return
		}
		hit = n
		for _, c := range n.materializedLocked() {
			walk(c)
		}
	}
	for _, w := range d.windows {
		walk(w.Root)
		if hit != nil {
			return hit
		}
	}
	return nil
}
