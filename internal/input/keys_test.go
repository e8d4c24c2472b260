package input

import (
	"errors"
	"testing"

	"github.com/mj1618/desktop-intent/internal/model"
)

func TestParseKey_Aliases(t *testing.T) {
	tests := []struct {
		input    string
		wantName string
		wantCode uint16
		wantExt  bool
	}{
		{"Enter", "enter", 0x0D, false},
		{"return", "enter", 0x0D, false},
		{"ESCAPE", "esc", 0x1B, false},
		{"Control", "ctrl", 0x11, false},
		{"del", "delete", 0x2E, true},
		{"Page_Up", "pageup", 0x21, true},
		{"pgdn", "pagedown", 0x22, true},
		{"meta", "win", 0x5B, true},
		{"RCtrl", "rctrl", 0xA3, true},
		{"ralt", "ralt", 0xA5, true},
		{"lctrl", "lctrl", 0xA2, false},
		{"NumLock", "numlock", 0x90, true},
		{"PrtSc", "printscreen", 0x2C, true},
		{"numpad/", "divide", 0x6F, true},
		{"numpad7", "num7", 0x67, false},
		{"F24", "f24", 0x87, false},
		{"q", "q", 'Q', false},
		{"7", "7", '7', false},
		{";", "semicolon", 0xBA, false},
		{"up", "up", 0x26, true},
		{"apps", "apps", 0x5D, true},
		{"volume_up", "volumeup", 0xAF, false},
	}
	for _, tt := range tests {
		k, err := ParseKey(tt.input)
		if err != nil {
			t.Errorf("ParseKey(%q) error: %v", tt.input, err)
			continue
		}
		if k.Name != tt.wantName || k.Code != tt.wantCode || k.Extended != tt.wantExt {
			t.Errorf("ParseKey(%q) = %+v, want {%s %#x %v}", tt.input, k, tt.wantName, tt.wantCode, tt.wantExt)
		}
	}
}

func TestParseKey_Unknown(t *testing.T) {
	for _, name := range []string{"", "f25", "hyper", "ctrl+c"} {
		if _, err := ParseKey(name); !errors.Is(err, model.ErrInvalidKey) {
			t.Errorf("ParseKey(%q) err = %v, want invalid_key", name, err)
		}
	}
}

func TestParseCombo(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"ctrl+c", "ctrl+c"},
		{"Shift+Ctrl+T", "ctrl+shift+t"},
		{"cmd+space", "win+space"},
		{"alt+f4", "alt+f4"},
		{"ctrl++", "ctrl+equals"},
		{"rctrl+a", "ctrl+a"},
		{"enter", "enter"},
	}
	for _, tt := range tests {
		c, err := ParseCombo(tt.input)
		if err != nil {
			t.Errorf("ParseCombo(%q) error: %v", tt.input, err)
			continue
		}
		if got := c.String(); got != tt.want {
			t.Errorf("ParseCombo(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestModifierSet_Ordered(t *testing.T) {
	set := ModWin | ModAlt | ModCtrl | ModShift
	var names []string
	for _, k := range set.Ordered() {
		names = append(names, k.Name)
	}
	want := []string{"ctrl", "shift", "alt", "win"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("Ordered() = %v, want %v", names, want)
		}
	}
	if set.String() != "ctrl+shift+alt+win" {
		t.Errorf("String() = %q", set.String())
	}
}

func TestRegistry_Transitions(t *testing.T) {
	r := NewRegistry()
	a := Key{Name: "a", Code: 'A'}
	if _, err := r.TryRelease(a); !errors.Is(err, model.ErrKeyNotHeld) {
		t.Errorf("TryRelease on Up key err = %v, want key_not_held", err)
	}
	if _, err := r.TryMarkHeld(a); err != nil {
		t.Fatal(err)
	}
	if _, err := r.TryMarkHeld(a); !errors.Is(err, model.ErrKeyAlreadyHeld) {
		t.Errorf("TryMarkHeld on Held key err = %v, want key_already_held", err)
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1 (no duplicates)", r.Len())
	}
	if _, err := r.TryRelease(a); err != nil {
		t.Fatal(err)
	}
	if got := r.ReleaseAll(); len(got) != 0 {
		t.Errorf("ReleaseAll() on empty registry = %v", got)
	}
}
