//go:build windows

package windows

import (
	"fmt"
	"unsafe"

	"github.com/mj1618/desktop-intent/internal/coords"
	"golang.org/x/sys/windows"
)

type monitorInfoEx struct {
	size    uint32
	monitor rect
	work    rect
	flags   uint32
	device  [32]uint16
}

// monitorSource enumerates displays with EnumDisplayMonitors.
type monitorSource struct{}

// Monitors implements coords.Source. Bounds are physical pixels; the
// process is per-monitor DPI aware (see init).
func (monitorSource) Monitors() ([]coords.Monitor, error) {
	var mons []coords.Monitor
	var infoErr error
	cb := windows.NewCallback(func(hmon, _ uintptr, _ *rect, _ uintptr) uintptr {
		info := monitorInfoEx{}
		info.size = uint32(unsafe.Sizeof(info))
		ok, _, err := procGetMonitorInfoW.Call(hmon, uintptr(unsafe.Pointer(&info)))
		if ok == 0 {
			infoErr = fmt.Errorf("GetMonitorInfoW: %w", err)
			return 0
		}
		mons = append(mons, coords.Monitor{
			Index:      len(mons),
			Handle:     hmon,
			DeviceName: windows.UTF16ToString(info.device[:]),
			Bounds:     info.monitor.toModel(),
			WorkArea:   info.work.toModel(),
			Primary:    info.flags&monitorInfoPrimary != 0,
		})
		return 1
	})
	ok, _, err := procEnumDisplayMonitors.Call(0, 0, cb, 0)
	if infoErr != nil {
		return nil, infoErr
	}
	if ok == 0 {
		return nil, fmt.Errorf("EnumDisplayMonitors: %w", err)
	}
	return mons, nil
}
