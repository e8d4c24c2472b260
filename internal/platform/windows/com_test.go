//go:build windows

package windows

import (
	"errors"
	"runtime"
	"slices"
	"testing"

	"github.com/go-ole/go-ole"
	"github.com/mj1618/desktop-intent/internal/model"
)

// rpcEChangedMode is RPC_E_CHANGED_MODE.
const rpcEChangedMode = 0x80010106

// onLockedThread runs fn on a fresh OS thread with COM initialised the way
// the dispatch thread does it. fn may only report with t.Errorf; a non-empty
// return skips the test.
func onLockedThread(t *testing.T, fn func() string) {
	t.Helper()
	skip := make(chan string, 1)
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		if err := comInit(); err != nil {
			skip <- "COM unavailable: " + err.Error()
			return
		}
		defer ole.CoUninitialize()
		skip <- fn()
	}()
	if reason := <-skip; reason != "" {
		t.Skip(reason)
	}
}

func TestComInitSingleThreadedApartment(t *testing.T) {
	onLockedThread(t, func() string {
		err := ole.CoInitializeEx(0, ole.COINIT_MULTITHREADED)
		var oe *ole.OleError
		if !errors.As(err, &oe) || uint32(oe.Code()) != rpcEChangedMode {
			if err == nil {
				ole.CoUninitialize()
			}
			t.Errorf("joining the MTA after comInit = %v, want RPC_E_CHANGED_MODE", err)
		}
		// A second apartment-threaded init on the same thread is S_FALSE.
		if err := comInit(); err != nil {
			t.Errorf("repeated comInit() = %v", err)
		} else {
			ole.CoUninitialize()
		}
		return ""
	})
}

func TestInt32VariantRoundTrip(t *testing.T) {
	rid := []int32{42, 7, -3, 1 << 30}
	v, err := int32Variant(rid)
	if err != nil {
		t.Fatal(err)
	}
	defer ole.VariantClear(&v)
	if v.VT != ole.VT_ARRAY|ole.VT_I4 {
		t.Fatalf("vt = %#x", v.VT)
	}
	got, _ := variantValue(&v).([]any)
	if len(got) != len(rid) {
		t.Fatalf("values = %v", got)
	}
	for i, x := range got {
		if x != rid[i] {
			t.Errorf("values[%d] = %v, want %d", i, x, rid[i])
		}
	}
}

func TestSnapshotPropertiesCoverAvailability(t *testing.T) {
	ids := snapshotProperties()
	for _, a := range availability {
		if !slices.Contains(ids, a.property) {
			t.Errorf("availability property %d (%s) is not cached", a.property, a.cap)
		}
	}
	var caps model.CapabilitySet
	for _, a := range availability {
		caps = caps.With(a.cap)
	}
	for _, c := range []model.Capability{model.CapWindow, model.CapTransform} {
		if !caps.Has(c) {
			t.Errorf("no availability property for %s", c)
		}
	}
}

func TestBoundsOf(t *testing.T) {
	tests := []struct {
		in   any
		want model.Rect
	}{
		{[]any{10.0, 20.4, 300.6, 40.0}, model.Rect{X: 10, Y: 20, Width: 301, Height: 40}},
		{[]any{}, model.Rect{}},
		{nil, model.Rect{}},
	}
	for _, tt := range tests {
		if got := boundsOf(tt.in); got != tt.want {
			t.Errorf("boundsOf(%v) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestFindByRuntimeIDFindsRoot(t *testing.T) {
	onLockedThread(t, func() string {
		auto, err := newAutomation()
		if err != nil {
			return "UI Automation unavailable: " + err.Error()
		}
		defer auto.Close()
		a := auto.(*automation)
		root, err := a.rootElement()
		if err != nil {
			return "no desktop element: " + err.Error()
		}
		defer root.Release()
		rid, err := root.RuntimeID()
		if err != nil || len(rid) == 0 {
			return "desktop has no runtime id"
		}
		found, err := a.FindByRuntimeID(root, rid)
		if err != nil {
			t.Errorf("FindByRuntimeID() error: %v", err)
			return ""
		}
		if found == nil {
			t.Error("root not found by its own runtime id")
			return ""
		}
		defer found.Release()
		got, _ := found.RuntimeID()
		if !model.SameRuntimeID(got, rid) {
			t.Errorf("found %v, want %v", got, rid)
		}
		p, err := found.Snapshot()
		if err != nil {
			t.Errorf("Snapshot() error: %v", err)
			return ""
		}
		if p.Bounds.Empty() {
			t.Errorf("desktop bounds = %+v, want non-empty", p.Bounds)
		}
		return ""
	})
}
