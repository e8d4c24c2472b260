//go:build windows

package windows

import (
	"errors"
	"unsafe"

	"github.com/mj1618/desktop-intent/internal/input"
	"golang.org/x/sys/windows"
)

const (
	inputMouse    = 0
	inputKeyboard = 1
)

type mouseInput struct {
	dx, dy    int32
	mouseData uint32
	flags     uint32
	time      uint32
	extra     uintptr
}

type keybdInput struct {
	vk    uint16
	scan  uint16
	flags uint32
	time  uint32
	extra uintptr
}

// rawInput mirrors INPUT. The union is sized by its largest member,
// MOUSEINPUT.
type rawInput struct {
	typ uint32
	mi  mouseInput
}

// sender delivers events with SendInput.
type sender struct{}

func toRaw(ev input.Event) rawInput {
	var in rawInput
	switch ev.Kind {
	case input.MouseEvent:
		in.typ = inputMouse
		in.mi = mouseInput{dx: ev.DX, dy: ev.DY, mouseData: uint32(ev.Data), flags: ev.Flags}
	default:
		in.typ = inputKeyboard
		ki := (*keybdInput)(unsafe.Pointer(&in.mi))
		ki.vk = ev.Code
		ki.scan = ev.Unit
		ki.flags = ev.Flags
	}
	return in
}

// SendInput implements input.Sender. A refusal by UIPI surfaces as
// ERROR_ACCESS_DENIED with zero events inserted.
func (sender) SendInput(events []input.Event) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}
	raw := make([]rawInput, len(events))
	for i, ev := range events {
		raw[i] = toRaw(ev)
	}
	n, _, callErr := procSendInput.Call(
		uintptr(len(raw)),
		uintptr(unsafe.Pointer(&raw[0])),
		unsafe.Sizeof(raw[0]),
	)
	if int(n) == len(raw) {
		return int(n), nil
	}
	var errno windows.Errno
	if errors.As(callErr, &errno) && errno == windows.ERROR_ACCESS_DENIED {
		return int(n), input.ErrAccessDenied
	}
	if n == 0 {
		return 0, input.ErrAccessDenied
	}
	return int(n), nil
}

// keyState reads GetAsyncKeyState.
type keyState struct{}

// IsKeyDown implements input.KeyState.
func (keyState) IsKeyDown(code uint16) bool {
	r, _, _ := procGetAsyncKeyState.Call(uintptr(code))
	return uint16(r)&0x8000 != 0
}
