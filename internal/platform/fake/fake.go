// Package fake is a deterministic in-memory desktop: scripted accessibility
// trees, virtualized lists, an input log and a configurable environment. It
// implements every platform collaborator so the automation engine can run
// without a real window system.
package fake

import (
	"context"
	"sync"

	"github.com/mj1618/desktop-intent/internal/coords"
	"github.com/mj1618/desktop-intent/internal/model"
	"github.com/mj1618/desktop-intent/internal/platform"
	"github.com/mj1618/desktop-intent/internal/uia"
)

// Node is one scripted element. Fields are read under the desktop lock; use
// Desktop.Update to change them while an engine is running.
type Node struct {
	Name         string
	AutomationID string
	ClassName    string
	ControlType  string
	Bounds       model.Rect
	Disabled     bool
	Offscreen    bool
	ReadOnly     bool
	Caps         model.CapabilitySet

	Value    string
	Text     string
	Toggle   model.ToggleState
	Expand   model.ExpandState
	Selected bool

	Children []*Node

	// Virtualized list: only PageSize items starting at the scroll offset
	// are materialized as children, stacked ItemHeight apart.
	Items      []*Node
	PageSize   int
	ItemHeight int
	offset     int

	// OnInvoke runs after Invoke, outside the desktop lock.
	OnInvoke func()

	Invoked int

	rid     []int32
	parent  *Node
	window  uintptr
	removed bool
}

// Window is a scripted top-level window.
type Window struct {
	Info model.WindowInfo
	Root *Node

	// OnClose runs when the window pattern is asked to close, outside the
	// desktop lock. Returning false keeps the window open, as an
	// application showing a save prompt does.
	OnClose func() bool
}

// Desktop is the fake machine.
type Desktop struct {
	mu       sync.Mutex
	windows  []*Window
	focused  *Node
	nextRID  int32
	monitors []coords.Monitor

	secure   bool
	elevated bool

	live       int
	calls      int
	onThread   func() bool
	violations int

	Input *InputLog
}

// NewDesktop returns an empty desktop with one 1920x1080 monitor.
func NewDesktop() *Desktop {
	d := &Desktop{
		nextRID: 1,
		monitors: []coords.Monitor{{
			DeviceName: `\\.\DISPLAY1`,
			Bounds:     model.Rect{Width: 1920, Height: 1080},
			Primary:    true,
		}},
	}
	d.Input = newInputLog(d)
	return d
}

// SetMonitors replaces the monitor layout.
func (d *Desktop) SetMonitors(ms ...coords.Monitor) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.monitors = ms
}

// SetSecureDesktop simulates a UAC prompt or lock screen.
func (d *Desktop) SetSecureDesktop(on bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.secure = on
}

// RequireThread records a violation for every facade call made while
// onThread reports false.
func (d *Desktop) RequireThread(onThread func() bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onThread = onThread
}

// ThreadViolations returns the number of facade calls made off-thread.
func (d *Desktop) ThreadViolations() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.violations
}

// LiveElements returns the number of element references not yet released.
func (d *Desktop) LiveElements() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.live
}

// Calls returns the number of facade calls made so far.
func (d *Desktop) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

// AddWindow registers a window whose root is root. The root gets the window
// bounds when it has none.
func (d *Desktop) AddWindow(handle uintptr, title, process string, root *Node) *Window {
	d.mu.Lock()
	defer d.mu.Unlock()
	if root.ControlType == "" {
		root.ControlType = "Window"
	}
	if root.Name == "" {
		root.Name = title
	}
	root.Caps = root.Caps.With(model.CapWindow).With(model.CapTransform)
	w := &Window{
		Info: model.WindowInfo{Handle: handle, Title: title, ProcessName: process, PID: int(handle), Bounds: root.Bounds, State: model.WindowNormal},
		Root: root,
	}
	d.windows = append(d.windows, w)
	d.adoptLocked(root, nil, handle)
	if len(d.windows) == 1 {
		w.Info.Foreground = true
	}
	return w
}

// RemoveWindow closes the window with handle; live references into it
// become stale.
func (d *Desktop) RemoveWindow(handle uintptr) {
	d.mu.Lock()
	defer d.mu.Unlock()
	kept := d.windows[:0]
	for _, w := range d.windows {
		if w.Info.Handle == handle {
			markRemoved(w.Root)
			continue
		}
		kept = append(kept, w)
	}
	d.windows = kept
}

// Windows returns the registered windows in creation order.
func (d *Desktop) Windows() []*Window {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*Window(nil), d.windows...)
}

// adoptLocked wires parents and assigns runtime ids.
func (d *Desktop) adoptLocked(n *Node, parent *Node, hwnd uintptr) {
	n.parent = parent
	n.window = hwnd
	n.removed = false
	if n.rid == nil {
		n.rid = []int32{42, d.nextRID}
		d.nextRID++
	}
	if n.ControlType == "" {
		n.ControlType = "Custom"
	}
	for _, c := range n.Children {
		d.adoptLocked(c, n, hwnd)
	}
	for _, c := range n.Items {
		d.adoptLocked(c, n, hwnd)
	}
}

// Update runs fn under the desktop lock. Use it to mutate nodes while the
// engine may be reading them.
func (d *Desktop) Update(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn()
}

// Append adds child under parent.
func (d *Desktop) Append(parent, child *Node) {
	d.mu.Lock()
	defer d.mu.Unlock()
	parent.Children = append(parent.Children, child)
	d.adoptLocked(child, parent, parent.window)
}

// Remove detaches n from the tree; live references to it become stale.
func (d *Desktop) Remove(n *Node) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p := n.parent; p != nil {
		p.Children = without(p.Children, n)
		p.Items = without(p.Items, n)
	}
	markRemoved(n)
}

// Recreate gives n and its subtree fresh runtime ids, as a UI framework does
// when it rebuilds a control.
func (d *Desktop) Recreate(n *Node) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var walk func(*Node)
	walk = func(x *Node) {
		x.rid = []int32{42, d.nextRID}
		d.nextRID++
		for _, c := range x.Children {
			walk(c)
		}
		for _, c := range x.Items {
			walk(c)
		}
	}
	walk(n)
}

// Focused returns the focused node.
func (d *Desktop) Focused() *Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.focused
}

func without(list []*Node, n *Node) []*Node {
	out := list[:0:0]
	for _, x := range list {
		if x != n {
			out = append(out, x)
		}
	}
	return out
}

func markRemoved(n *Node) {
	n.removed = true
	for _, c := range n.Children {
		markRemoved(c)
	}
	for _, c := range n.Items {
		markRemoved(c)
	}
}

// materializedLocked returns the children visible to the accessibility tree,
// laying out virtualized items under the container.
func (n *Node) materializedLocked() []*Node {
	out := append([]*Node(nil), n.Children...)
	if len(n.Items) == 0 {
		return out
	}
	end := min(n.offset+n.PageSize, len(n.Items))
	h := max(n.ItemHeight, 20)
	for i, it := range n.Items {
		if i >= n.offset && i < end {
			it.Bounds = model.Rect{X: n.Bounds.X, Y: n.Bounds.Y + (i-n.offset)*h, Width: n.Bounds.Width, Height: h}
			it.Offscreen = false
			out = append(out, it)
		}
	}
	return out
}

func (n *Node) maxOffset() int {
	return max(len(n.Items)-n.PageSize, 0)
}

func (n *Node) capsLocked() model.CapabilitySet {
	c := n.Caps
	if len(n.Items) > 0 && n.PageSize < len(n.Items) {
		c = c.With(model.CapScroll)
	}
	return c
}

// Monitors implements coords.Source.
func (d *Desktop) Monitors() ([]coords.Monitor, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]coords.Monitor(nil), d.monitors...), nil
}

// SecureDesktopActive implements platform.EnvironmentProbe.
func (d *Desktop) SecureDesktopActive() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.secure, nil
}

// ProcessElevated implements platform.EnvironmentProbe.
func (d *Desktop) ProcessElevated() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.elevated, nil
}

// List implements platform.WindowDirectory.
func (d *Desktop) List(_ context.Context, opts platform.ListOptions) ([]model.WindowInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []model.WindowInfo
	for _, w := range d.windows {
		if opts.Matches(w.Info) {
			out = append(out, w.Info)
		}
	}
	return out, nil
}

// Resolve implements platform.WindowDirectory.
func (d *Desktop) Resolve(ctx context.Context, spec platform.WindowSpec) (model.WindowInfo, error) {
	all, err := d.List(ctx, platform.ListOptions{})
	if err != nil {
		return model.WindowInfo{}, err
	}
	return platform.PickWindow(all, spec)
}

// Automation returns the facade over this desktop.
func (d *Desktop) Automation() uia.Automation {
	return &automation{d: d}
}

// Provider bundles the desktop as a platform provider.
func (d *Desktop) Provider() *platform.Provider {
	return &platform.Provider{
		Name:          "fake",
		NewAutomation: func() (uia.Automation, error) { return d.Automation(), nil },
		Sender:        d.Input,
		KeyState:      d.Input,
		Monitors:      d,
		Windows:       d,
		Probe:         d,
	}
}
