// Package uia defines the contract of the native accessibility facade.
//
// Implementations wrap a platform API whose objects are reference counted and
// bound to the thread that created them. Every method here must be called on
// the dispatch thread, and no Element may outlive the dispatch invocation
// that obtained it: register elements with an Arena and let the arena release
// them when the invocation ends.
package uia

import (
	"errors"

	"github.com/mj1618/desktop-intent/internal/model"
)

var (
	// ErrPatternUnavailable is returned by pattern calls on an element that
	// does not expose the pattern.
	ErrPatternUnavailable = errors.New("pattern not available on element")

	// ErrElementNotAvailable is returned when the native element has been
	// removed from the tree.
	ErrElementNotAvailable = errors.New("element not available")

	// ErrUnsupported is returned by providers on platforms without an
	// accessibility backend.
	ErrUnsupported = errors.New("accessibility automation is not supported on this platform")
)

// ScrollDirection selects the axis and sense of a page scroll.
type ScrollDirection int

const (
	ScrollDown ScrollDirection = iota
	ScrollUp
	ScrollRight
	ScrollLeft
)

func (d ScrollDirection) String() string {
	switch d {
	case ScrollUp:
		return "up"
	case ScrollRight:
		return "right"
	case ScrollLeft:
		return "left"
	default:
		return "down"
	}
}

// NoScroll is the percent reported for an axis that cannot scroll.
const NoScroll = -1.0

// ScrollPosition is the scroll state of a container in percent (0..100) per
// axis, or NoScroll.
type ScrollPosition struct {
	Horizontal float64
	Vertical   float64
}

// Properties are the cached properties read in one round trip.
type Properties struct {
	Name          string
	AutomationID  string
	ClassName     string
	ControlTypeID int
	Bounds        model.Rect
	Enabled       bool
	Offscreen     bool
	Focused       bool
	Capabilities  model.CapabilitySet
	NativeWindow  uintptr
}

// ControlType returns the canonical control type name.
func (p Properties) ControlType() string {
	return model.MapControlType(p.ControlTypeID)
}

// Automation is the root of the native facade.
type Automation interface {
	// ElementFromHandle returns the root element of a top-level window.
	ElementFromHandle(hwnd uintptr) (Element, error)
	// FocusedElement returns the element with keyboard focus.
	FocusedElement() (Element, error)
	// FindByRuntimeID searches the subtree of root for an element with the
	// given runtime id. It returns (nil, nil) when there is none.
	FindByRuntimeID(root Element, rid []int32) (Element, error)
	// Close releases the automation object. Call it only after the dispatch
	// queue has drained.
	Close() error
}

// Element is a live, reference-counted native element.
type Element interface {
	RuntimeID() ([]int32, error)
	Snapshot() (Properties, error)
	// Children returns the control-view children in tree order.
	Children() ([]Element, error)
	// Parent returns the control-view parent, or nil at the root.
	Parent() (Element, error)

	AddRef()
	Release()

	SetFocus() error

	Invoke() error
	Toggle() error
	ToggleState() (model.ToggleState, error)
	SetValue(v string) error
	Value() (string, error)
	Select() error
	Expand() error
	Collapse() error
	ExpandState() (model.ExpandState, error)
	ScrollIntoView() error
	ScrollPage(dir ScrollDirection) error
	ScrollPercent() (ScrollPosition, error)
	SetScrollPercent(horizontal, vertical float64) error
	// Text returns the text pattern's document range content.
	Text() (string, error)

	// Window and Transform patterns of top-level windows.
	WindowState() (model.WindowState, error)
	SetWindowState(state model.WindowState) error
	CloseWindow() error
	Move(x, y int) error
	Resize(width, height int) error
}
