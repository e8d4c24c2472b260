//go:build windows

package windows

import (
	"github.com/mj1618/desktop-intent/internal/model"
	"golang.org/x/sys/windows"
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")

	procSendInput                = user32.NewProc("SendInput")
	procGetAsyncKeyState         = user32.NewProc("GetAsyncKeyState")
	procEnumDisplayMonitors      = user32.NewProc("EnumDisplayMonitors")
	procGetMonitorInfoW          = user32.NewProc("GetMonitorInfoW")
	procEnumWindows              = user32.NewProc("EnumWindows")
	procIsWindowVisible          = user32.NewProc("IsWindowVisible")
	procIsWindow                 = user32.NewProc("IsWindow")
	procGetWindowTextW           = user32.NewProc("GetWindowTextW")
	procGetWindowTextLengthW     = user32.NewProc("GetWindowTextLengthW")
	procGetWindowThreadProcessId = user32.NewProc("GetWindowThreadProcessId")
	procGetWindowRect            = user32.NewProc("GetWindowRect")
	procGetWindowLongW           = user32.NewProc("GetWindowLongW")
	procGetForegroundWindow      = user32.NewProc("GetForegroundWindow")
	procIsIconic                 = user32.NewProc("IsIconic")
	procIsZoomed                 = user32.NewProc("IsZoomed")
	procOpenInputDesktop         = user32.NewProc("OpenInputDesktop")
	procCloseDesktop             = user32.NewProc("CloseDesktop")
	procGetUserObjectInformation = user32.NewProc("GetUserObjectInformationW")
)

const (
	gwlExStyle = ^uintptr(19) // -20

	wsExToolWindow uintptr = 0x00000080
	wsExAppWindow  uintptr = 0x00040000

	monitorInfoPrimary = 0x00000001

	uoiName = 2

	desktopReadObjects = 0x0001
)

// rect mirrors RECT.
type rect struct {
	Left, Top, Right, Bottom int32
}

func (r rect) toModel() model.Rect {
	return model.Rect{X: int(r.Left), Y: int(r.Top), Width: int(r.Right - r.Left), Height: int(r.Bottom - r.Top)}
}
