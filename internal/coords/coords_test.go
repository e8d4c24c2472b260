package coords

import (
	"errors"
	"testing"

	"github.com/mj1618/desktop-intent/internal/model"
)

type staticSource []Monitor

func (s staticSource) Monitors() ([]Monitor, error) { return s, nil }

var layouts = map[string][]Monitor{
	"single 1080p": {
		{DeviceName: `\\.\DISPLAY1`, Bounds: model.Rect{X: 0, Y: 0, Width: 1920, Height: 1080}, Primary: true},
	},
	"secondary left": {
		{DeviceName: `\\.\DISPLAY1`, Bounds: model.Rect{X: 0, Y: 0, Width: 2560, Height: 1440}, Primary: true},
		{DeviceName: `\\.\DISPLAY2`, Bounds: model.Rect{X: -1920, Y: 200, Width: 1920, Height: 1080}},
	},
	"three mixed": {
		{DeviceName: `\\.\DISPLAY2`, Bounds: model.Rect{X: 3840, Y: -500, Width: 1080, Height: 1920}},
		{DeviceName: `\\.\DISPLAY1`, Bounds: model.Rect{X: 0, Y: 0, Width: 3840, Height: 2160}, Primary: true},
		{DeviceName: `\\.\DISPLAY3`, Bounds: model.Rect{X: -1280, Y: 0, Width: 1280, Height: 1024}},
	},
}

func mustTopology(t *testing.T, mons []Monitor) *Topology {
	t.Helper()
	top, err := Snapshot(staticSource(mons))
	if err != nil {
		t.Fatal(err)
	}
	return top
}

func TestTopology_VirtualIsUnion(t *testing.T) {
	top := mustTopology(t, layouts["three mixed"])
	want := model.Rect{X: -1280, Y: -500, Width: 6200, Height: 2660}
	if got := top.Virtual(); got != want {
		t.Errorf("Virtual() = %s, want %s", got, want)
	}
	if !top.Primary().Primary || top.Primary().Index != 0 {
		t.Errorf("Primary() = %v, want index 0 flagged primary", top.Primary())
	}
	// Remaining monitors are ordered left to right.
	ms := top.Monitors()
	if ms[1].Bounds.X != -1280 || ms[2].Bounds.X != 3840 {
		t.Errorf("monitor order = %v", ms)
	}
}

func TestNormalize_RoundTripWithinOnePixel(t *testing.T) {
	for name, mons := range layouts {
		t.Run(name, func(t *testing.T) {
			top := mustTopology(t, mons)
			v := top.Virtual()
			step := 3
			for x := v.X; x < v.X+v.Width; x += step {
				for _, y := range []int{v.Y, v.Y + v.Height/2, v.Y + v.Height - 1} {
					p := model.Point{X: x, Y: y}
					n, err := top.Normalize(p)
					if err != nil {
						t.Fatalf("Normalize(%v) error: %v", p, err)
					}
					if n.X < 0 || n.X > NormalizedMax || n.Y < 0 || n.Y > NormalizedMax {
						t.Fatalf("Normalize(%v) = %v outside 0..65535", p, n)
					}
					back := top.Denormalize(n)
					if abs(back.X-p.X) > 1 || abs(back.Y-p.Y) > 1 {
						t.Fatalf("Denormalize(Normalize(%v)) = %v, want within 1px", p, back)
					}
				}
			}
		})
	}
}

func TestNormalize_Formula(t *testing.T) {
	top := mustTopology(t, layouts["single 1080p"])
	tests := []struct {
		p    model.Point
		want model.Point
	}{
		// round(((c - origin) * 65535 / extent) + 0.5)
		{model.Point{X: 0, Y: 0}, model.Point{X: 1, Y: 1}},
		{model.Point{X: 960, Y: 540}, model.Point{X: 32768, Y: 32768}},
		{model.Point{X: 1919, Y: 1079}, model.Point{X: 65501, Y: 65475}},
	}
	for _, tt := range tests {
		got, err := top.Normalize(tt.p)
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("Normalize(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestNormalize_RejectsOutsideVirtualDesktop(t *testing.T) {
	top := mustTopology(t, layouts["secondary left"])
	for _, p := range []model.Point{
		{X: -1921, Y: 500},
		{X: 2560, Y: 10},
		{X: 100, Y: -1},
		{X: 0, Y: 1440},
	} {
		_, err := top.Normalize(p)
		if !errors.Is(err, model.ErrInvalidInput) {
			t.Errorf("Normalize(%v) err = %v, want invalid_input", p, err)
			continue
		}
		var me *model.Error
		if !errors.As(err, &me) || me.Details["virtual_bounds"] != top.Virtual() {
			t.Errorf("Normalize(%v) error should carry the virtual bounds", p)
		}
	}
}

func TestMonitorRelative_RoundTrip(t *testing.T) {
	top := mustTopology(t, layouts["secondary left"])
	p := model.Point{X: -100, Y: 300}
	i, rel, err := top.ToMonitorRelative(p)
	if err != nil {
		t.Fatal(err)
	}
	if i != 1 || rel != (model.Point{X: 1820, Y: 100}) {
		t.Errorf("ToMonitorRelative(%v) = (%d, %v), want (1, {1820 100})", p, i, rel)
	}
	back, err := top.FromMonitorRelative(i, rel)
	if err != nil {
		t.Fatal(err)
	}
	if back != p {
		t.Errorf("FromMonitorRelative = %v, want %v", back, p)
	}
}

func TestMonitorAt_GapReturnsMinusOne(t *testing.T) {
	top := mustTopology(t, layouts["secondary left"])
	// Above the left monitor but inside the virtual box.
	p := model.Point{X: -500, Y: 50}
	if got := top.MonitorAt(p); got != -1 {
		t.Errorf("MonitorAt(%v) = %d, want -1", p, got)
	}
	if _, _, err := top.ToMonitorRelative(p); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("ToMonitorRelative(%v) err = %v, want invalid_input", p, err)
	}
	if got := top.Nearest(p).Index; got != 1 {
		t.Errorf("Nearest(%v) = monitor %d, want 1", p, got)
	}
}

func TestAnnotate(t *testing.T) {
	top := mustTopology(t, layouts["secondary left"])
	info := model.ElementInfo{Bounds: model.Rect{X: -1000, Y: 400, Width: 100, Height: 40}}
	top.Annotate(&info)
	if info.ClickPoint != (model.Point{X: -950, Y: 420}) {
		t.Errorf("ClickPoint = %v", info.ClickPoint)
	}
	if info.MonitorIndex != 1 {
		t.Errorf("MonitorIndex = %d, want 1", info.MonitorIndex)
	}
	if info.MonitorBounds != (model.Rect{X: 920, Y: 200, Width: 100, Height: 40}) {
		t.Errorf("MonitorBounds = %s", info.MonitorBounds)
	}
	if info.NormalizedClickPoint.X == 0 || info.NormalizedClickPoint.Y == 0 {
		t.Errorf("NormalizedClickPoint not set: %v", info.NormalizedClickPoint)
	}
}

func TestSnapshot_NoMonitors(t *testing.T) {
	if _, err := Snapshot(staticSource(nil)); err == nil {
		t.Error("expected error for empty topology")
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
