package input

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mj1618/desktop-intent/internal/model"
)

// Key is a resolved virtual key.
type Key struct {
	Name     string `yaml:"name"               json:"name"`
	Code     uint16 `yaml:"code"               json:"code"`
	Extended bool   `yaml:"extended,omitempty" json:"extended,omitempty"`
}

// Virtual-key codes used directly by the synthesizer.
const (
	vkBack    = 0x08
	vkTab     = 0x09
	vkReturn  = 0x0D
	vkShift   = 0x10
	vkControl = 0x11
	vkMenu    = 0x12
	vkLWin    = 0x5B
)

// keyCodes maps canonical key names to virtual-key codes.
var keyCodes = map[string]uint16{
	"backspace":   vkBack,
	"tab":         vkTab,
	"enter":       vkReturn,
	"shift":       vkShift,
	"ctrl":        vkControl,
	"alt":         vkMenu,
	"pause":       0x13,
	"capslock":    0x14,
	"esc":         0x1B,
	"space":       0x20,
	"pageup":      0x21,
	"pagedown":    0x22,
	"end":         0x23,
	"home":        0x24,
	"left":        0x25,
	"up":          0x26,
	"right":       0x27,
	"down":        0x28,
	"printscreen": 0x2C,
	"insert":      0x2D,
	"delete":      0x2E,
	"win":         vkLWin,
	"lwin":        vkLWin,
	"rwin":        0x5C,
	"apps":        0x5D,
	"sleep":       0x5F,
	"multiply":    0x6A,
	"add":         0x6B,
	"separator":   0x6C,
	"subtract":    0x6D,
	"decimal":     0x6E,
	"divide":      0x6F,
	"numlock":     0x90,
	"scrolllock":  0x91,
	"lshift":      0xA0,
	"rshift":      0xA1,
	"lctrl":       0xA2,
	"rctrl":       0xA3,
	"lalt":        0xA4,
	"ralt":        0xA5,

	"browserback":    0xA6,
	"browserforward": 0xA7,
	"browserrefresh": 0xA8,
	"browserhome":    0xAC,
	"volumemute":     0xAD,
	"volumedown":     0xAE,
	"volumeup":       0xAF,
	"medianext":      0xB0,
	"mediaprev":      0xB1,
	"mediastop":      0xB2,
	"mediaplaypause": 0xB3,

	"semicolon": 0xBA,
	"equals":    0xBB,
	"comma":     0xBC,
	"minus":     0xBD,
	"period":    0xBE,
	"slash":     0xBF,
	"backtick":  0xC0,
	"lbracket":  0xDB,
	"backslash": 0xDC,
	"rbracket":  0xDD,
	"quote":     0xDE,
}

// keyAliases maps alternative spellings to canonical names.
var keyAliases = map[string]string{
	"control":        "ctrl",
	"ctl":            "ctrl",
	"lcontrol":       "lctrl",
	"rcontrol":       "rctrl",
	"leftctrl":       "lctrl",
	"rightctrl":      "rctrl",
	"option":         "alt",
	"menu":           "alt",
	"leftalt":        "lalt",
	"rightalt":       "ralt",
	"altgr":          "ralt",
	"leftshift":      "lshift",
	"rightshift":     "rshift",
	"windows":        "win",
	"meta":           "win",
	"super":          "win",
	"cmd":            "win",
	"command":        "win",
	"start":          "win",
	"escape":         "esc",
	"return":         "enter",
	"del":            "delete",
	"ins":            "insert",
	"bksp":           "backspace",
	"back":           "backspace",
	"spacebar":       "space",
	"pgup":           "pageup",
	"pgdn":           "pagedown",
	"pgdown":         "pagedown",
	"arrowup":        "up",
	"arrowdown":      "down",
	"arrowleft":      "left",
	"arrowright":     "right",
	"caps":           "capslock",
	"prtsc":          "printscreen",
	"prtscn":         "printscreen",
	"printscr":       "printscreen",
	"snapshot":       "printscreen",
	"break":          "pause",
	"contextmenu":    "apps",
	"application":    "apps",
	"numpadmultiply": "multiply",
	"numpadadd":      "add",
	"numpadsubtract": "subtract",
	"numpaddecimal":  "decimal",
	"numpaddivide":   "divide",
	"numpad*":        "multiply",
	"numpad+":        "add",
	"numpad-":        "subtract",
	"numpad.":        "decimal",
	"numpad/":        "divide",
	"mute":           "volumemute",
	"playpause":      "mediaplaypause",
	"nexttrack":      "medianext",
	"prevtrack":      "mediaprev",
	";":              "semicolon",
	"=":              "equals",
	"plus":           "equals",
	",":              "comma",
	"-":              "minus",
	"hyphen":         "minus",
	".":              "period",
	"dot":            "period",
	"/":              "slash",
	"`":              "backtick",
	"grave":          "backtick",
	"[":              "lbracket",
	"\\":             "backslash",
	"]":              "rbracket",
	"'":              "quote",
	"apostrophe":     "quote",
}

// extendedKeys must carry the extended-key flag on synthetic events.
var extendedKeys = map[string]bool{
	"up":          true,
	"down":        true,
	"left":        true,
	"right":       true,
	"insert":      true,
	"delete":      true,
	"home":        true,
	"end":         true,
	"pageup":      true,
	"pagedown":    true,
	"rctrl":       true,
	"ralt":        true,
	"win":         true,
	"lwin":        true,
	"rwin":        true,
	"numlock":     true,
	"printscreen": true,
	"divide":      true,
	"apps":        true,
}

func init() {
	for c := 'a'; c <= 'z'; c++ {
		keyCodes[string(c)] = uint16('A' + (c - 'a'))
	}
	for d := 0; d <= 9; d++ {
		keyCodes[fmt.Sprint(d)] = uint16('0' + d)
		keyCodes[fmt.Sprintf("num%d", d)] = uint16(0x60 + d)
		keyAliases[fmt.Sprintf("numpad%d", d)] = fmt.Sprintf("num%d", d)
		keyAliases[fmt.Sprintf("kp%d", d)] = fmt.Sprintf("num%d", d)
	}
	for f := 1; f <= 24; f++ {
		keyCodes[fmt.Sprintf("f%d", f)] = uint16(0x70 + f - 1)
	}
}

// normalizeKeyName lowercases and strips separators from multi-character
// names, so "Page_Up", "page-up" and "PageUp" compare equal.
func normalizeKeyName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) <= 1 {
		return s
	}
	if strings.HasPrefix(s, "numpad") && len(s) == 7 {
		return s
	}
	return strings.NewReplacer("_", "", " ", "", "-", "").Replace(s)
}

// ParseKey resolves a single key name. Unknown names yield InvalidKey.
func ParseKey(name string) (Key, error) {
	n := normalizeKeyName(name)
	if canon, ok := keyAliases[n]; ok {
		n = canon
	}
	code, ok := keyCodes[n]
	if !ok {
		return Key{}, model.Errorf(model.KindInvalidKey, "unknown key %q", name).
			With("hint", "use names like enter, tab, ctrl, f5, pageup, a, 1")
	}
	return Key{Name: n, Code: code, Extended: extendedKeys[n]}, nil
}

// KeyNames lists every canonical key name, sorted.
func KeyNames() []string {
	names := make([]string, 0, len(keyCodes))
	for n := range keyCodes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Combo is a parsed key combination such as "ctrl+shift+t".
type Combo struct {
	Modifiers ModifierSet
	Key       Key
}

func (c Combo) String() string {
	parts := c.Modifiers.Names()
	return strings.Join(append(parts, c.Key.Name), "+")
}

// ParseCombo parses "mod+mod+key". Every part before the last must be a
// modifier. A trailing "++" names the plus key.
func ParseCombo(s string) (Combo, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Combo{}, model.Errorf(model.KindInvalidKey, "empty key combination")
	}
	var parts []string
	if strings.HasSuffix(s, "++") {
		parts = append(strings.Split(strings.TrimSuffix(s, "++"), "+"), "plus")
	} else if s == "+" {
		parts = []string{"plus"}
	} else {
		parts = strings.Split(s, "+")
	}

	var c Combo
	for i, p := range parts {
		if strings.TrimSpace(p) == "" {
			return Combo{}, model.Errorf(model.KindInvalidKey, "empty key in combination %q", s)
		}
		if i == len(parts)-1 {
			k, err := ParseKey(p)
			if err != nil {
				return Combo{}, err
			}
			c.Key = k
			continue
		}
		m, ok := ParseModifier(p)
		if !ok {
			return Combo{}, model.Errorf(model.KindInvalidKey, "%q is not a modifier in combination %q", p, s).
				With("modifiers", "ctrl, shift, alt, win")
		}
		c.Modifiers |= m
	}
	return c, nil
}
