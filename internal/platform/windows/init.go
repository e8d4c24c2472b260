//go:build windows

package windows

import (
	"errors"

	"github.com/go-ole/go-ole"
	"github.com/mj1618/desktop-intent/internal/platform"
)

var procSetProcessDpiAwareCtx = user32.NewProc("SetProcessDpiAwarenessContext")

// dpiAwarenessPerMonitorV2 is DPI_AWARENESS_CONTEXT_PER_MONITOR_AWARE_V2.
const dpiAwarenessPerMonitorV2 = ^uintptr(3) // -4

func init() {
	// Bounds from UI Automation, GetMonitorInfo and SendInput only agree in
	// physical pixels when the process is per-monitor aware.
	if procSetProcessDpiAwareCtx.Find() == nil {
		procSetProcessDpiAwareCtx.Call(dpiAwarenessPerMonitorV2)
	}

	platform.NewProviderFunc = func() (*platform.Provider, error) {
		return &platform.Provider{
			Name:           "uia",
			ThreadInit:     comInit,
			ThreadTeardown: ole.CoUninitialize,
			NewAutomation:  newAutomation,
			Sender:         sender{},
			KeyState:       keyState{},
			Monitors:       monitorSource{},
			Windows:        directory{},
			Probe:          probe{},
		}, nil
	}
}

// comInit makes the locked dispatch thread a single-threaded apartment that
// owns every UI Automation object. S_FALSE (already initialised) is not an
// error. No event handlers are registered, so the thread needs no message
// pump.
func comInit() error {
	err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED)
	var oe *ole.OleError
	if errors.As(err, &oe) && oe.Code() == 1 {
		return nil
	}
	return err
}
