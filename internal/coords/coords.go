// Package coords converts between screen, monitor-relative and normalized
// input coordinates.
//
// Screen coordinates are virtual-desktop pixels and may be negative when a
// monitor sits left of or above the primary. Normalized coordinates span the
// whole virtual desktop (the union of every monitor) on 0..65535 per axis,
// which is what absolute synthetic mouse input expects.
//
// Monitor layout changes at runtime, so a Topology is taken per call and
// never cached.
package coords

import (
	"fmt"
	"math"
	"sort"

	"github.com/mj1618/desktop-intent/internal/model"
)

// NormalizedMax is the upper bound of the normalized input space.
const NormalizedMax = 65535

// Monitor describes one physical display.
type Monitor struct {
	Index      int        `yaml:"index"       json:"index"`
	Handle     uintptr    `yaml:"-"           json:"-"`
	DeviceName string     `yaml:"device"      json:"device"`
	Bounds     model.Rect `yaml:"bounds"      json:"bounds"`
	WorkArea   model.Rect `yaml:"work_area"   json:"work_area"` // excludes taskbar
	Primary    bool       `yaml:"primary"     json:"primary"`
}

// Source enumerates monitors.
type Source interface {
	Monitors() ([]Monitor, error)
}

// Topology is an immutable monitor snapshot.
type Topology struct {
	monitors []Monitor
	virtual  model.Rect
}

// Snapshot reads the current monitor layout from src.
func Snapshot(src Source) (*Topology, error) {
	mons, err := src.Monitors()
	if err != nil {
		return nil, model.Wrap(model.KindInternalFault, err, "enumerate monitors")
	}
	return NewTopology(mons)
}

// NewTopology orders monitors primary first, then left to right and top to
// bottom, and indexes them in that order.
func NewTopology(mons []Monitor) (*Topology, error) {
	if len(mons) == 0 {
		return nil, model.Errorf(model.KindInternalFault, "no monitors attached")
	}
	ms := make([]Monitor, 0, len(mons))
	for _, m := range mons {
		if m.Bounds.Empty() {
			continue
		}
		ms = append(ms, m)
	}
	if len(ms) == 0 {
		return nil, model.Errorf(model.KindInternalFault, "no monitor has a usable extent")
	}
	sort.SliceStable(ms, func(i, j int) bool {
		if ms[i].Primary != ms[j].Primary {
			return ms[i].Primary
		}
		if ms[i].Bounds.X != ms[j].Bounds.X {
			return ms[i].Bounds.X < ms[j].Bounds.X
		}
		return ms[i].Bounds.Y < ms[j].Bounds.Y
	})
	var virtual model.Rect
	for i := range ms {
		ms[i].Index = i
		if ms[i].WorkArea.Empty() {
			ms[i].WorkArea = ms[i].Bounds
		}
		virtual = virtual.Union(ms[i].Bounds)
	}
	return &Topology{monitors: ms, virtual: virtual}, nil
}

// Monitors returns a copy of the monitor list.
func (t *Topology) Monitors() []Monitor {
	out := make([]Monitor, len(t.monitors))
	copy(out, t.monitors)
	return out
}

// Primary returns the primary monitor, or the first one if none is flagged.
func (t *Topology) Primary() Monitor {
	return t.monitors[0]
}

// Virtual returns the bounding box of all monitors.
func (t *Topology) Virtual() model.Rect {
	return t.virtual
}

// MonitorAt returns the index of the monitor containing p, or -1.
func (t *Topology) MonitorAt(p model.Point) int {
	for _, m := range t.monitors {
		if m.Bounds.Contains(p) {
			return m.Index
		}
	}
	return -1
}

// Nearest returns the monitor containing p, or the one closest to it.
func (t *Topology) Nearest(p model.Point) Monitor {
	if i := t.MonitorAt(p); i >= 0 {
		return t.monitors[i]
	}
	best, bestDist := 0, math.MaxFloat64
	for i, m := range t.monitors {
		if d := distToRect(p, m.Bounds); d < bestDist {
			best, bestDist = i, d
		}
	}
	return t.monitors[best]
}

func distToRect(p model.Point, r model.Rect) float64 {
	dx := math.Max(math.Max(float64(r.X-p.X), 0), float64(p.X-(r.X+r.Width-1)))
	dy := math.Max(math.Max(float64(r.Y-p.Y), 0), float64(p.Y-(r.Y+r.Height-1)))
	return math.Hypot(dx, dy)
}

// Validate rejects points outside the virtual desktop. The error carries the
// valid bounds.
func (t *Topology) Validate(p model.Point) error {
	if t.virtual.Contains(p) {
		return nil
	}
	return model.Errorf(model.KindInvalidInput, "point (%d,%d) is outside the virtual desktop %s", p.X, p.Y, t.virtual).
		With("virtual_bounds", t.virtual).
		With("point", p)
}

// ToMonitorRelative converts a screen point to the containing monitor's
// coordinate space.
func (t *Topology) ToMonitorRelative(p model.Point) (int, model.Point, error) {
	i := t.MonitorAt(p)
	if i < 0 {
		return -1, model.Point{}, model.Errorf(model.KindInvalidInput, "point (%d,%d) is not on any monitor", p.X, p.Y).
			With("virtual_bounds", t.virtual)
	}
	b := t.monitors[i].Bounds
	return i, model.Point{X: p.X - b.X, Y: p.Y - b.Y}, nil
}

// FromMonitorRelative converts a point relative to monitor i back to screen
// coordinates.
func (t *Topology) FromMonitorRelative(i int, p model.Point) (model.Point, error) {
	if i < 0 || i >= len(t.monitors) {
		return model.Point{}, model.Errorf(model.KindInvalidInput, "monitor index %d out of range (0..%d)", i, len(t.monitors)-1)
	}
	b := t.monitors[i].Bounds
	if p.X < 0 || p.Y < 0 || p.X >= b.Width || p.Y >= b.Height {
		return model.Point{}, model.Errorf(model.KindInvalidInput, "point (%d,%d) is outside monitor %d (%dx%d)", p.X, p.Y, i, b.Width, b.Height)
	}
	return model.Point{X: b.X + p.X, Y: b.Y + p.Y}, nil
}

// Normalize maps a screen point into 0..65535 virtual-desktop input space.
// Points outside the virtual desktop are rejected.
func (t *Topology) Normalize(p model.Point) (model.Point, error) {
	if err := t.Validate(p); err != nil {
		return model.Point{}, err
	}
	return model.Point{
		X: normalizeAxis(p.X, t.virtual.X, t.virtual.Width),
		Y: normalizeAxis(p.Y, t.virtual.Y, t.virtual.Height),
	}, nil
}

// Denormalize maps a normalized point back to screen pixels. The result is
// within one pixel of the point that was normalized.
func (t *Topology) Denormalize(n model.Point) model.Point {
	return model.Point{
		X: denormalizeAxis(n.X, t.virtual.X, t.virtual.Width),
		Y: denormalizeAxis(n.Y, t.virtual.Y, t.virtual.Height),
	}
}

func normalizeAxis(c, origin, extent int) int {
	v := int(math.Round(float64(c-origin)*NormalizedMax/float64(extent) + 0.5))
	return clamp(v, 0, NormalizedMax)
}

func denormalizeAxis(n, origin, extent int) int {
	c := origin + int(math.Round((float64(n)-0.5)*float64(extent)/NormalizedMax))
	return clamp(c, origin, origin+extent-1)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// Annotate fills the monitor-derived fields of a snapshot from its Bounds:
// click point, monitor index and relative bounds, normalized click point.
func (t *Topology) Annotate(info *model.ElementInfo) {
	info.ClickPoint = info.Bounds.Center()
	m := t.Nearest(info.ClickPoint)
	info.MonitorIndex = m.Index
	info.MonitorBounds = model.Rect{
		X:      info.Bounds.X - m.Bounds.X,
		Y:      info.Bounds.Y - m.Bounds.Y,
		Width:  info.Bounds.Width,
		Height: info.Bounds.Height,
	}
	if n, err := t.Normalize(info.ClickPoint); err == nil {
		info.NormalizedClickPoint = n
	}
}

func (m Monitor) String() string {
	tag := ""
	if m.Primary {
		tag = " primary"
	}
	return fmt.Sprintf("monitor %d %s%s", m.Index, m.Bounds, tag)
}
