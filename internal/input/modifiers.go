package input

import (
	"strings"

	"github.com/mj1618/desktop-intent/internal/model"
)

// ModifierSet is a bitset of the four modifier keys.
type ModifierSet uint8

const (
	ModCtrl ModifierSet = 1 << iota
	ModShift
	ModAlt
	ModWin
)

// modifierOrder is the press order; release runs in reverse.
var modifierOrder = []struct {
	mod  ModifierSet
	name string
	key  Key
}{
	{ModCtrl, "ctrl", Key{Name: "ctrl", Code: vkControl}},
	{ModShift, "shift", Key{Name: "shift", Code: vkShift}},
	{ModAlt, "alt", Key{Name: "alt", Code: vkMenu}},
	{ModWin, "win", Key{Name: "win", Code: vkLWin, Extended: true}},
}

// ParseModifier accepts any spelling of ctrl, shift, alt or win, including
// the left/right variants.
func ParseModifier(s string) (ModifierSet, bool) {
	k, err := ParseKey(s)
	if err != nil {
		return 0, false
	}
	switch k.Name {
	case "ctrl", "lctrl", "rctrl":
		return ModCtrl, true
	case "shift", "lshift", "rshift":
		return ModShift, true
	case "alt", "lalt", "ralt":
		return ModAlt, true
	case "win", "lwin", "rwin":
		return ModWin, true
	}
	return 0, false
}

// ParseModifiers combines a list of modifier names.
func ParseModifiers(names []string) (ModifierSet, error) {
	var set ModifierSet
	for _, n := range names {
		m, ok := ParseModifier(n)
		if !ok {
			return 0, model.Errorf(model.KindInvalidKey, "%q is not a modifier", n).
				With("modifiers", "ctrl, shift, alt, win")
		}
		set |= m
	}
	return set, nil
}

// Has reports whether m is in the set.
func (s ModifierSet) Has(m ModifierSet) bool {
	return s&m == m && m != 0
}

// Ordered returns the modifier keys in press order: ctrl, shift, alt, win.
func (s ModifierSet) Ordered() []Key {
	var keys []Key
	for _, m := range modifierOrder {
		if s.Has(m.mod) {
			keys = append(keys, m.key)
		}
	}
	return keys
}

// Names returns the modifier names in press order.
func (s ModifierSet) Names() []string {
	var names []string
	for _, m := range modifierOrder {
		if s.Has(m.mod) {
			names = append(names, m.name)
		}
	}
	return names
}

func (s ModifierSet) String() string {
	if s == 0 {
		return "none"
	}
	return strings.Join(s.Names(), "+")
}
