//go:build windows

package windows

import (
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"
)

// probe inspects the input desktop and the process token.
type probe struct{}

// SecureDesktopActive reports whether the input desktop is not the user's
// default desktop. The secure desktop (UAC, lock screen) cannot be opened
// from a normal process, so failure to open it also counts.
func (probe) SecureDesktopActive() (bool, error) {
	h, _, _ := procOpenInputDesktop.Call(0, 0, desktopReadObjects)
	if h == 0 {
		return true, nil
	}
	defer procCloseDesktop.Call(h)

	buf := make([]uint16, 256)
	var needed uint32
	ok, _, err := procGetUserObjectInformation.Call(h, uoiName,
		uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)*2), uintptr(unsafe.Pointer(&needed)))
	if ok == 0 {
		return false, err
	}
	return !strings.EqualFold(windows.UTF16ToString(buf), "Default"), nil
}

// ProcessElevated reports whether this process runs with an elevated token.
func (probe) ProcessElevated() (bool, error) {
	return windows.GetCurrentProcessToken().IsElevated(), nil
}

// processElevated reports whether pid runs elevated. A process whose token
// cannot be opened is assumed elevated.
func processElevated(pid uint32) bool {
	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, pid)
	if err != nil {
		return true
	}
	defer windows.CloseHandle(h)
	var tok windows.Token
	if err := windows.OpenProcessToken(h, windows.TOKEN_QUERY, &tok); err != nil {
		return true
	}
	defer tok.Close()
	return tok.IsElevated()
}
