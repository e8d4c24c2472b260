package model

import (
	"fmt"
	"strings"
)

// Point is a position in screen (virtual desktop) pixels.
type Point struct {
	X int `yaml:"x" json:"x"`
	Y int `yaml:"y" json:"y"`
}

// Rect is a screen rectangle. Width/Height of zero mean the element has no
// on-screen extent (virtualized or collapsed).
type Rect struct {
	X      int `yaml:"x" json:"x"`
	Y      int `yaml:"y" json:"y"`
	Width  int `yaml:"w" json:"w"`
	Height int `yaml:"h" json:"h"`
}

// Center returns the rectangle's centre point.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Area returns Width*Height, or 0 for degenerate rectangles.
func (r Rect) Area() int64 {
	if r.Width <= 0 || r.Height <= 0 {
		return 0
	}
	return int64(r.Width) * int64(r.Height)
}

// Empty reports whether the rectangle has no extent.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Contains reports whether p lies inside r (right/bottom edges exclusive).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.Width && p.Y >= r.Y && p.Y < r.Y+r.Height
}

// Intersects checks if two rectangles overlap.
func (r Rect) Intersects(o Rect) bool {
	ax1, ay1, ax2, ay2 := r.X, r.Y, r.X+r.Width, r.Y+r.Height
	bx1, by1, bx2, by2 := o.X, o.Y, o.X+o.Width, o.Y+o.Height
	return ax1 < bx2 && ax2 > bx1 && ay1 < by2 && ay2 > by1
}

// Union returns the smallest rectangle containing both r and o.
func (r Rect) Union(o Rect) Rect {
	if r.Empty() {
		return o
	}
	if o.Empty() {
		return r
	}
	x1 := min(r.X, o.X)
	y1 := min(r.Y, o.Y)
	x2 := max(r.X+r.Width, o.X+o.Width)
	y2 := max(r.Y+r.Height, o.Y+o.Height)
	return Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d,%d,%d)", r.X, r.Y, r.Width, r.Height)
}

// ToggleState mirrors the three-state toggle capability.
type ToggleState string

const (
	ToggleOff           ToggleState = "off"
	ToggleOn            ToggleState = "on"
	ToggleIndeterminate ToggleState = "indeterminate"
)

// ExpandState mirrors the expand/collapse capability state.
type ExpandState string

const (
	ExpandCollapsed         ExpandState = "collapsed"
	ExpandExpanded          ExpandState = "expanded"
	ExpandPartiallyExpanded ExpandState = "partially_expanded"
	ExpandLeafNode          ExpandState = "leaf"
)

// ElementInfo is an immutable snapshot of one accessibility element. It never
// holds a native reference; use ID to re-resolve the element later.
type ElementInfo struct {
	ID                   string        `yaml:"id"                        json:"id"`
	Name                 string        `yaml:"name,omitempty"            json:"name,omitempty"`
	AutomationID         string        `yaml:"automation_id,omitempty"   json:"automation_id,omitempty"`
	ClassName            string        `yaml:"class_name,omitempty"      json:"class_name,omitempty"`
	ControlType          string        `yaml:"control_type"              json:"control_type"`
	Value                string        `yaml:"value,omitempty"           json:"value,omitempty"`
	Bounds               Rect          `yaml:"bounds"                    json:"bounds"`
	MonitorBounds        Rect          `yaml:"monitor_bounds"            json:"monitor_bounds"`
	ClickPoint           Point         `yaml:"click_point"               json:"click_point"`
	NormalizedClickPoint Point         `yaml:"normalized_click_point"    json:"normalized_click_point"`
	MonitorIndex         int           `yaml:"monitor"                   json:"monitor"`
	Capabilities         CapabilitySet `yaml:"capabilities,flow"         json:"capabilities"`
	Enabled              bool          `yaml:"enabled"                   json:"enabled"`
	Offscreen            bool          `yaml:"offscreen,omitempty"       json:"offscreen,omitempty"`
	Focused              bool          `yaml:"focused,omitempty"         json:"focused,omitempty"`
	ToggleState          ToggleState   `yaml:"toggle_state,omitempty"    json:"toggle_state,omitempty"`
	ExpandState          ExpandState   `yaml:"expand_state,omitempty"    json:"expand_state,omitempty"`
}

// Label returns a short human description for error listings.
func (e ElementInfo) Label() string {
	var b strings.Builder
	b.WriteString(e.ControlType)
	if e.Name != "" {
		fmt.Fprintf(&b, " name=%q", e.Name)
	}
	if e.AutomationID != "" {
		fmt.Fprintf(&b, " automation_id=%q", e.AutomationID)
	}
	fmt.Fprintf(&b, " bounds=%s", e.Bounds)
	return b.String()
}

// WindowState is the visual state of a top-level window.
type WindowState string

const (
	WindowNormal    WindowState = "normal"
	WindowMaximized WindowState = "maximized"
	WindowMinimized WindowState = "minimized"
)

// WindowInfo describes a top-level window as resolved by the window directory.
type WindowInfo struct {
	Handle      uintptr     `yaml:"handle"               json:"handle"`
	Title       string      `yaml:"title"                json:"title"`
	ProcessName string      `yaml:"process,omitempty"    json:"process,omitempty"`
	PID         int         `yaml:"pid"                  json:"pid"`
	Bounds      Rect        `yaml:"bounds"               json:"bounds"`
	State       WindowState `yaml:"state,omitempty"      json:"state,omitempty"`
	Foreground  bool        `yaml:"foreground,omitempty" json:"foreground,omitempty"`
	Elevated    bool        `yaml:"elevated,omitempty"   json:"elevated,omitempty"`
}
