package fake

import (
	"errors"
	"fmt"
	"math"

	"github.com/mj1618/desktop-intent/internal/model"
	"github.com/mj1618/desktop-intent/internal/uia"
)

var errReadOnly = errors.New("value is read-only")

var controlTypeIDs = func() map[string]int {
	m := make(map[string]int, len(model.ControlTypeNames))
	for id, name := range model.ControlTypeNames {
		m[name] = id
	}
	return m
}()

type automation struct {
	d *Desktop
}

func (a *automation) ElementFromHandle(hwnd uintptr) (uia.Element, error) {
	a.d.mu.Lock()
	defer a.d.mu.Unlock()
	a.d.touchLocked()
	for _, w := range a.d.windows {
		if w.Info.Handle == hwnd {
			return a.d.wrapLocked(w.Root), nil
		}
	}
	return nil, uia.ErrElementNotAvailable
}

func (a *automation) FocusedElement() (uia.Element, error) {
	a.d.mu.Lock()
	defer a.d.mu.Unlock()
	a.d.touchLocked()
	if a.d.focused == nil || a.d.focused.removed {
		return nil, uia.ErrElementNotAvailable
	}
	return a.d.wrapLocked(a.d.focused), nil
}

func (a *automation) FindByRuntimeID(root uia.Element, rid []int32) (uia.Element, error) {
	r, ok := root.(*element)
	if !ok {
		return nil, errors.New("foreign element")
	}
	a.d.mu.Lock()
	defer a.d.mu.Unlock()
	a.d.touchLocked()
	if r.n.removed {
		return nil, uia.ErrElementNotAvailable
	}
	var found *Node
	var walk func(*Node)
	walk = func(n *Node) {
		if found != nil {
			return
		}
		if model.SameRuntimeID(n.rid, rid) {
			found = n
			return
		}
		for _, c := range n.materializedLocked() {
			walk(c)
		}
	}
	walk(r.n)
	if found == nil {
		return nil, nil
	}
	return a.d.wrapLocked(found), nil
}

func (a *automation) Close() error { return nil }

func (d *Desktop) touchLocked() {
	d.calls++
	if d.onThread != nil && !d.onThread() {
		d.violations++
	}
}

func (d *Desktop) wrapLocked(n *Node) *element {
	d.live++
	return &element{d: d, n: n, refs: 1}
}

// element is a reference-counted handle onto a Node.
type element struct {
	d    *Desktop
	n    *Node
	refs int
}

// enter locks the desktop and fails for removed nodes.
func (e *element) enter() error {
	e.d.mu.Lock()
	e.d.touchLocked()
	if e.n.removed {
		e.d.mu.Unlock()
		return uia.ErrElementNotAvailable
	}
	return nil
}

func (e *element) leave() { e.d.mu.Unlock() }

func (e *element) pattern(c model.Capability) error {
	if !e.n.capsLocked().Has(c) {
		return uia.ErrPatternUnavailable
	}
	return nil
}

func (e *element) RuntimeID() ([]int32, error) {
	if err := e.enter(); err != nil {
		return nil, err
	}
	defer e.leave()
	return append([]int32(nil), e.n.rid...), nil
}

func (e *element) Snapshot() (uia.Properties, error) {
	if err := e.enter(); err != nil {
		return uia.Properties{}, err
	}
	defer e.leave()
	n := e.n
	id, ok := controlTypeIDs[n.ControlType]
	if !ok {
		id = controlTypeIDs["Custom"]
	}
	p := uia.Properties{
		Name:          n.Name,
		AutomationID:  n.AutomationID,
		ClassName:     n.ClassName,
		ControlTypeID: id,
		Bounds:        n.Bounds,
		Enabled:       !n.Disabled,
		Offscreen:     n.Offscreen,
		Focused:       e.d.focused == n,
		Capabilities:  n.capsLocked(),
	}
	if n.parent == nil {
		p.NativeWindow = n.window
	}
	return p, nil
}

func (e *element) Children() ([]uia.Element, error) {
	if err := e.enter(); err != nil {
		return nil, err
	}
	defer e.leave()
	kids := e.n.materializedLocked()
	out := make([]uia.Element, len(kids))
	for i, c := range kids {
		out[i] = e.d.wrapLocked(c)
	}
	return out, nil
}

func (e *element) Parent() (uia.Element, error) {
	if err := e.enter(); err != nil {
		return nil, err
	}
	defer e.leave()
	if e.n.parent == nil {
		return nil, nil
	}
	return e.d.wrapLocked(e.n.parent), nil
}

func (e *element) AddRef() {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	e.refs++
	e.d.live++
}

func (e *element) Release() {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	if e.refs == 0 {
		panic("fake: element released more often than referenced")
	}
	e.refs--
	e.d.live--
}

func (e *element) SetFocus() error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()
	if e.n.Disabled {
		return errors.New("element is disabled")
	}
	e.d.focused = e.n
	for _, w := range e.d.windows {
		w.Info.Foreground = w.Info.Handle == e.n.window
	}
	return nil
}

func (e *element) Invoke() error {
	if err := e.enter(); err != nil {
		return err
	}
	if err := e.pattern(model.CapInvoke); err != nil {
		e.leave()
		return err
	}
	e.n.Invoked++
	hook := e.n.OnInvoke
	e.leave()
	if hook != nil {
		hook()
	}
	return nil
}

func (e *element) Toggle() error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()
	if err := e.pattern(model.CapToggle); err != nil {
		return err
	}
	switch e.n.Toggle {
	case model.ToggleOn:
		e.n.Toggle = model.ToggleOff
	case model.ToggleIndeterminate:
		e.n.Toggle = model.ToggleOff
	default:
		e.n.Toggle = model.ToggleOn
	}
	return nil
}

func (e *element) ToggleState() (model.ToggleState, error) {
	if err := e.enter(); err != nil {
		return "", err
	}
	defer e.leave()
	if err := e.pattern(model.CapToggle); err != nil {
		return "", err
	}
	if e.n.Toggle == "" {
		return model.ToggleOff, nil
	}
	return e.n.Toggle, nil
}

func (e *element) SetValue(v string) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()
	if err := e.pattern(model.CapValue); err != nil {
		return err
	}
	if e.n.ReadOnly {
		return errReadOnly
	}
	e.n.Value = v
	return nil
}

func (e *element) Value() (string, error) {
	if err := e.enter(); err != nil {
		return "", err
	}
	defer e.leave()
	if err := e.pattern(model.CapValue); err != nil {
		return "", err
	}
	return e.n.Value, nil
}

func (e *element) Select() error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()
	if err := e.pattern(model.CapSelectionItem); err != nil {
		return err
	}
	if p := e.n.parent; p != nil {
		for _, s := range p.Children {
			s.Selected = false
		}
		for _, s := range p.Items {
			s.Selected = false
		}
	}
	e.n.Selected = true
	return nil
}

func (e *element) Expand() error {
	return e.setExpand(model.ExpandExpanded)
}

func (e *element) Collapse() error {
	return e.setExpand(model.ExpandCollapsed)
}

func (e *element) setExpand(state model.ExpandState) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()
	if err := e.pattern(model.CapExpandCollapse); err != nil {
		return err
	}
	if e.n.Expand == model.ExpandLeafNode {
		return errors.New("leaf node cannot expand or collapse")
	}
	e.n.Expand = state
	return nil
}

func (e *element) ExpandState() (model.ExpandState, error) {
	if err := e.enter(); err != nil {
		return "", err
	}
	defer e.leave()
	if err := e.pattern(model.CapExpandCollapse); err != nil {
		return "", err
	}
	if e.n.Expand == "" {
		return model.ExpandCollapsed, nil
	}
	return e.n.Expand, nil
}

func (e *element) ScrollIntoView() error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()
	if err := e.pattern(model.CapScrollItem); err != nil {
		return err
	}
	p := e.n.parent
	if p == nil || len(p.Items) == 0 {
		e.n.Offscreen = false
		return nil
	}
	for i, it := range p.Items {
		if it == e.n {
			if i < p.offset || i >= p.offset+p.PageSize {
				p.offset = min(i, p.maxOffset())
			}
			break
		}
	}
	e.n.Offscreen = false
	return nil
}

func (e *element) ScrollPage(dir uia.ScrollDirection) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()
	if err := e.pattern(model.CapScroll); err != nil {
		return err
	}
	n := e.n
	switch dir {
	case uia.ScrollDown:
		n.offset = min(n.offset+n.PageSize, n.maxOffset())
	case uia.ScrollUp:
		n.offset = max(n.offset-n.PageSize, 0)
	default:
		return uia.ErrPatternUnavailable
	}
	return nil
}

func (e *element) ScrollPercent() (uia.ScrollPosition, error) {
	if err := e.enter(); err != nil {
		return uia.ScrollPosition{}, err
	}
	defer e.leave()
	if err := e.pattern(model.CapScroll); err != nil {
		return uia.ScrollPosition{}, err
	}
	pos := uia.ScrollPosition{Horizontal: uia.NoScroll, Vertical: uia.NoScroll}
	if m := e.n.maxOffset(); m > 0 {
		pos.Vertical = float64(e.n.offset) * 100 / float64(m)
	}
	return pos, nil
}

func (e *element) SetScrollPercent(_, vertical float64) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()
	if err := e.pattern(model.CapScroll); err != nil {
		return err
	}
	if vertical == uia.NoScroll {
		return nil
	}
	if vertical < 0 || vertical > 100 {
		return errors.New("scroll percent out of range")
	}
	e.n.offset = int(math.Round(vertical / 100 * float64(e.n.maxOffset())))
	return nil
}

func (e *element) Text() (string, error) {
	if err := e.enter(); err != nil {
		return "", err
	}
	defer e.leave()
	if err := e.pattern(model.CapText); err != nil {
		return "", err
	}
	return e.n.Text, nil
}

// windowLocked returns the window whose root is e, for the window and
// transform patterns.
func (e *element) windowLocked(c model.Capability) (*Window, error) {
	if err := e.pattern(c); err != nil {
		return nil, err
	}
	for _, w := range e.d.windows {
		if w.Root == e.n {
			return w, nil
		}
	}
	return nil, uia.ErrPatternUnavailable
}

func (e *element) WindowState() (model.WindowState, error) {
	if err := e.enter(); err != nil {
		return "", err
	}
	defer e.leave()
	w, err := e.windowLocked(model.CapWindow)
	if err != nil {
		return "", err
	}
	if w.Info.State == "" {
		return model.WindowNormal, nil
	}
	return w.Info.State, nil
}

func (e *element) SetWindowState(state model.WindowState) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()
	w, err := e.windowLocked(model.CapWindow)
	if err != nil {
		return err
	}
	switch state {
	case model.WindowNormal, model.WindowMaximized:
	case model.WindowMinimized:
		w.Info.Foreground = false
	default:
		return fmt.Errorf("unknown window state %q", state)
	}
	w.Info.State = state
	return nil
}

func (e *element) CloseWindow() error {
	if err := e.enter(); err != nil {
		return err
	}
	w, err := e.windowLocked(model.CapWindow)
	if err != nil {
		e.leave()
		return err
	}
	hook := w.OnClose
	e.leave()
	if hook == nil || hook() {
		e.d.RemoveWindow(w.Info.Handle)
	}
	return nil
}

func (e *element) Move(x, y int) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()
	w, err := e.windowLocked(model.CapTransform)
	if err != nil {
		return err
	}
	shift(w.Root, x-w.Root.Bounds.X, y-w.Root.Bounds.Y)
	w.Info.Bounds = w.Root.Bounds
	return nil
}

func (e *element) Resize(width, height int) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()
	w, err := e.windowLocked(model.CapTransform)
	if err != nil {
		return err
	}
	if width <= 0 || height <= 0 {
		return errors.New("size must be positive")
	}
	w.Root.Bounds.Width, w.Root.Bounds.Height = width, height
	w.Info.Bounds = w.Root.Bounds
	return nil
}

// shift moves n and its subtree by dx, dy.
func shift(n *Node, dx, dy int) {
	n.Bounds.X += dx
	n.Bounds.Y += dy
	for _, c := range n.Children {
		shift(c, dx, dy)
	}
	for _, c := range n.Items {
		shift(c, dx, dy)
	}
}
