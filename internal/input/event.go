package input

import "errors"

// EventKind distinguishes keyboard and mouse events.
type EventKind uint8

const (
	KeyboardEvent EventKind = iota + 1
	MouseEvent
)

// Keyboard event flags, matching KEYEVENTF_*.
const (
	KeyExtended uint32 = 0x0001
	KeyUp       uint32 = 0x0002
	KeyUnicode  uint32 = 0x0004
)

// Mouse event flags, matching MOUSEEVENTF_*.
const (
	MouseMove        uint32 = 0x0001
	MouseLeftDown    uint32 = 0x0002
	MouseLeftUp      uint32 = 0x0004
	MouseRightDown   uint32 = 0x0008
	MouseRightUp     uint32 = 0x0010
	MouseMiddleDown  uint32 = 0x0020
	MouseMiddleUp    uint32 = 0x0040
	MouseWheel       uint32 = 0x0800
	MouseHWheel      uint32 = 0x1000
	MouseVirtualDesk uint32 = 0x4000
	MouseAbsolute    uint32 = 0x8000
)

// WheelDelta is one wheel notch.
const WheelDelta = 120

// Event is one synthetic input event in platform terms.
//
// Keyboard: Code is the virtual key, or zero with Unit set and KeyUnicode in
// Flags for a UTF-16 code unit. Mouse: DX/DY are normalized absolute
// coordinates when MouseAbsolute is set; Data is the wheel delta.
type Event struct {
	Kind  EventKind
	Code  uint16
	Unit  uint16
	Flags uint32
	DX    int32
	DY    int32
	Data  int32
}

// IsKeyUp reports whether a keyboard event releases its key.
func (e Event) IsKeyUp() bool {
	return e.Kind == KeyboardEvent && e.Flags&KeyUp != 0
}

// ErrAccessDenied is returned by a Sender when the OS refused the events,
// typically because the foreground window belongs to an elevated process.
var ErrAccessDenied = errors.New("synthetic input was blocked by the system")

// Sender delivers a batch of events. It returns how many were inserted; a
// short count with a nil error means the OS dropped the rest.
type Sender interface {
	SendInput(events []Event) (int, error)
}

// KeyState reads the live (physical plus synthetic) state of a key.
type KeyState interface {
	IsKeyDown(code uint16) bool
}

func keyDown(k Key) Event {
	e := Event{Kind: KeyboardEvent, Code: k.Code}
	if k.Extended {
		e.Flags |= KeyExtended
	}
	return e
}

func keyUp(k Key) Event {
	e := keyDown(k)
	e.Flags |= KeyUp
	return e
}

func unicodeEvents(unit uint16) [2]Event {
	return [2]Event{
		{Kind: KeyboardEvent, Unit: unit, Flags: KeyUnicode},
		{Kind: KeyboardEvent, Unit: unit, Flags: KeyUnicode | KeyUp},
	}
}
