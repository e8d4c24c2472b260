//go:build windows

package windows

import (
	"context"
	"fmt"
	"strings"
	"unsafe"

	"github.com/mj1618/desktop-intent/internal/model"
	"github.com/mj1618/desktop-intent/internal/platform"
	"github.com/shirou/gopsutil/v4/process"
	"golang.org/x/sys/windows"
)

// directory lists top-level windows with EnumWindows.
type directory struct{}

// List implements platform.WindowDirectory.
func (directory) List(ctx context.Context, opts platform.ListOptions) ([]model.WindowInfo, error) {
	wins, err := enumWindows(ctx)
	if err != nil {
		return nil, err
	}
	out := wins[:0]
	for _, w := range wins {
		if opts.Matches(w) {
			out = append(out, w)
		}
	}
	return out, nil
}

// Resolve implements platform.WindowDirectory.
func (d directory) Resolve(ctx context.Context, spec platform.WindowSpec) (model.WindowInfo, error) {
	if spec.Handle != 0 {
		if ok, _, _ := procIsWindow.Call(spec.Handle); ok == 0 {
			return model.WindowInfo{}, model.Errorf(model.KindWindowNotFound, "no window with handle %#x", spec.Handle)
		}
	}
	wins, err := enumWindows(ctx)
	if err != nil {
		return model.WindowInfo{}, err
	}
	return platform.PickWindow(wins, spec)
}

func enumWindows(ctx context.Context) ([]model.WindowInfo, error) {
	fg, _, _ := procGetForegroundWindow.Call()
	type raw struct {
		hwnd uintptr
		pid  uint32
	}
	var found []raw
	cb := windows.NewCallback(func(hwnd, _ uintptr) uintptr {
		if visible, _, _ := procIsWindowVisible.Call(hwnd); visible == 0 {
			return 1
		}
		exStyle, _, _ := procGetWindowLongW.Call(hwnd, gwlExStyle)
		if exStyle&wsExToolWindow != 0 && exStyle&wsExAppWindow == 0 {
			return 1
		}
		var pid uint32
		procGetWindowThreadProcessId.Call(hwnd, uintptr(unsafe.Pointer(&pid)))
		if pid == 0 {
			return 1
		}
		found = append(found, raw{hwnd: hwnd, pid: pid})
		return 1
	})
	if ok, _, err := procEnumWindows.Call(cb, 0); ok == 0 {
		return nil, fmt.Errorf("EnumWindows: %w", err)
	}

	names := map[uint32]string{}
	elevated := map[uint32]bool{}
	var out []model.WindowInfo
	for _, r := range found {
		title := windowText(r.hwnd)
		if title == "" {
			continue
		}
		var rc rect
		procGetWindowRect.Call(r.hwnd, uintptr(unsafe.Pointer(&rc)))
		bounds := rc.toModel()
		if bounds.Empty() {
			continue
		}
		name, ok := names[r.pid]
		if !ok {
			name = processName(ctx, r.pid)
			names[r.pid] = name
			elevated[r.pid] = processElevated(r.pid)
		}
		out = append(out, model.WindowInfo{
			Handle:      r.hwnd,
			Title:       title,
			ProcessName: name,
			PID:         int(r.pid),
			Bounds:      bounds,
			Foreground:  r.hwnd == fg,
			Elevated:    elevated[r.pid],
			State:       windowState(r.hwnd),
		})
	}
	return out, nil
}

func windowState(hwnd uintptr) model.WindowState {
	if iconic, _, _ := procIsIconic.Call(hwnd); iconic != 0 {
		return model.WindowMinimized
	}
	if zoomed, _, _ := procIsZoomed.Call(hwnd); zoomed != 0 {
		return model.WindowMaximized
	}
	return model.WindowNormal
}

func windowText(hwnd uintptr) string {
	n, _, _ := procGetWindowTextLengthW.Call(hwnd)
	if n == 0 {
		return ""
	}
	buf := make([]uint16, n+1)
	procGetWindowTextW.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), n+1)
	return windows.UTF16ToString(buf)
}

func processName(ctx context.Context, pid uint32) string {
	p, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return ""
	}
	name, err := p.NameWithContext(ctx)
	if err != nil {
		return ""
	}
	return strings.TrimSuffix(name, ".exe")
}
