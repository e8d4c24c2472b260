//go:build windows

package windows

import (
	"math"
	"unsafe"

	"github.com/go-ole/go-ole"
	"github.com/mj1618/desktop-intent/internal/model"
	"github.com/mj1618/desktop-intent/internal/uia"
)

// IUIAutomationElement vtable slots.
const (
	elSetFocus             = 3
	elGetRuntimeID         = 4
	elFindFirst            = 5
	elBuildUpdatedCache    = 9
	elGetCachedPropertyVal = 12
	elGetPatternAs         = 14
)

// Property ids read by Snapshot.
const (
	propRuntimeID          = 30000
	propBoundingRectangle  = 30001
	propControlType        = 30003
	propName               = 30005
	propHasKeyboardFocus   = 30008
	propIsEnabled          = 30010
	propAutomationID       = 30011
	propClassName          = 30012
	propNativeWindowHandle = 30020
	propIsOffscreen        = 30022
)

// Pattern ids and the interface ids requested for them.
const (
	patternInvoke         = 10000
	patternValue          = 10002
	patternScroll         = 10004
	patternExpandCollapse = 10005
	patternWindow         = 10009
	patternSelectionItem  = 10010
	patternText           = 10014
	patternToggle         = 10015
	patternTransform      = 10016
	patternScrollItem     = 10017
)

var patternIIDs = map[int]*ole.GUID{
	patternInvoke:         mustGUID("{fb377fbe-8ea6-46d5-9c73-6499642d3059}"),
	patternValue:          mustGUID("{a94cd8b1-0844-4cd6-9d2d-640537ab39e9}"),
	patternScroll:         mustGUID("{88f4d42a-e881-459d-a77c-73bbbb7e02dc}"),
	patternExpandCollapse: mustGUID("{619be086-1f4e-4ee4-bafa-210128738730}"),
	patternWindow:         mustGUID("{0faef453-9208-43ef-bbb2-3b485177864f}"),
	patternSelectionItem:  mustGUID("{a8efa66a-0fda-421a-9194-38021f3578ea}"),
	patternText:           mustGUID("{32eba289-3583-42c9-9c59-3b6d9a1e9b6a}"),
	patternToggle:         mustGUID("{94cf8058-9b8d-4ab9-8bfd-4cd0a33c8c70}"),
	patternTransform:      mustGUID("{a9b55844-a55d-4ef0-926d-569c16ff89bb}"),
	patternScrollItem:     mustGUID("{b488300f-d015-4f19-9c29-bb595e3645ef}"),
}

// Is<Pattern>PatternAvailable property ids mapped to capabilities.
var availability = []struct {
	property int
	cap      model.Capability
}{
	{30028, model.CapExpandCollapse},
	{30031, model.CapInvoke},
	{30033, model.CapRangeValue},
	{30034, model.CapScroll},
	{30035, model.CapScrollItem},
	{30036, model.CapSelectionItem},
	{30037, model.CapSelection},
	{30040, model.CapText},
	{30041, model.CapToggle},
	{30042, model.CapTransform},
	{30043, model.CapValue},
	{30044, model.CapWindow},
}

// snapshotProperties lists every property id the cache request carries.
func snapshotProperties() []int {
	ids := []int{
		propBoundingRectangle, propControlType, propName, propHasKeyboardFocus,
		propIsEnabled, propAutomationID, propClassName, propNativeWindowHandle,
		propIsOffscreen,
	}
	for _, a := range availability {
		ids = append(ids, a.property)
	}
	return ids
}

// element wraps IUIAutomationElement.
type element struct {
	obj  comObject
	auto *automation
}

func (e *element) AddRef()  { e.obj.addRef() }
func (e *element) Release() { e.obj.release() }

// RuntimeID implements uia.Element.
func (e *element) RuntimeID() ([]int32, error) {
	var sa *ole.SafeArray
	if err := e.obj.call(elGetRuntimeID, uintptr(unsafe.Pointer(&sa))); err != nil {
		return nil, err
	}
	if sa == nil {
		return nil, nil
	}
	conv := ole.SafeArrayConversion{Array: sa}
	defer conv.Release()
	vals := conv.ToValueArray()
	out := make([]int32, 0, len(vals))
	for _, v := range vals {
		if n, ok := v.(int32); ok {
			out = append(out, n)
		}
	}
	return out, nil
}

func (e *element) cachedProperty(id int) (any, error) {
	var v ole.VARIANT
	ole.VariantInit(&v)
	if err := e.obj.call(elGetCachedPropertyVal, uintptr(id), uintptr(unsafe.Pointer(&v))); err != nil {
		return nil, err
	}
	defer ole.VariantClear(&v)
	return variantValue(&v), nil
}

// Snapshot implements uia.Element with one cross-process round trip: the
// shared cache request is filled, then every property is read from the
// cache.
func (e *element) Snapshot() (uia.Properties, error) {
	var p uia.Properties
	var u uintptr
	if err := e.obj.call(elBuildUpdatedCache, uintptr(e.auto.cache), uintptr(unsafe.Pointer(&u))); err != nil {
		return p, err
	}
	if u == 0 {
		return p, uia.ErrElementNotAvailable
	}
	c := &element{obj: comObject(u), auto: e.auto}
	defer c.Release()

	vals := make(map[int]any, len(availability)+9)
	for _, id := range snapshotProperties() {
		v, err := c.cachedProperty(id)
		if err != nil {
			return p, err
		}
		vals[id] = v
	}
	p.Name, _ = vals[propName].(string)
	p.AutomationID, _ = vals[propAutomationID].(string)
	p.ClassName, _ = vals[propClassName].(string)
	ct, _ := vals[propControlType].(int32)
	p.ControlTypeID = int(ct)
	p.Bounds = boundsOf(vals[propBoundingRectangle])
	p.Enabled, _ = vals[propIsEnabled].(bool)
	p.Offscreen, _ = vals[propIsOffscreen].(bool)
	p.Focused, _ = vals[propHasKeyboardFocus].(bool)
	hwnd, _ := vals[propNativeWindowHandle].(int32)
	p.NativeWindow = uintptr(uint32(hwnd))
	for _, a := range availability {
		if b, _ := vals[a.property].(bool); b {
			p.Capabilities = p.Capabilities.With(a.cap)
		}
	}
	return p, nil
}

// boundsOf converts a BoundingRectangle value (left, top, width, height as
// doubles) to a Rect. Elements without bounds report an empty array.
func boundsOf(v any) model.Rect {
	arr, _ := v.([]any)
	if len(arr) != 4 {
		return model.Rect{}
	}
	var f [4]float64
	for i, x := range arr {
		f[i], _ = x.(float64)
	}
	return model.Rect{
		X:      int(math.Round(f[0])),
		Y:      int(math.Round(f[1])),
		Width:  int(math.Round(f[2])),
		Height: int(math.Round(f[3])),
	}
}

// Children implements uia.Element over the control view.
func (e *element) Children() ([]uia.Element, error) {
	var out []uia.Element
	var p uintptr
	if err := e.auto.walker.call(walkerFirstChild, uintptr(e.obj), uintptr(unsafe.Pointer(&p))); err != nil {
		return nil, err
	}
	for p != 0 {
		out = append(out, e.auto.wrap(p))
		var next uintptr
		if err := e.auto.walker.call(walkerNextSibling, p, uintptr(unsafe.Pointer(&next))); err != nil {
			for _, c := range out {
				c.Release()
			}
			return nil, err
		}
		p = next
	}
	return out, nil
}

// Parent implements uia.Element.
func (e *element) Parent() (uia.Element, error) {
	var p uintptr
	if err := e.auto.walker.call(walkerParent, uintptr(e.obj), uintptr(unsafe.Pointer(&p))); err != nil {
		return nil, err
	}
	return e.auto.wrap(p), nil
}

// SetFocus implements uia.Element.
func (e *element) SetFocus() error {
	return e.obj.call(elSetFocus)
}

// pattern fetches a pattern interface. The caller releases it.
func (e *element) pattern(id int) (comObject, error) {
	var p uintptr
	if err := e.obj.call(elGetPatternAs, uintptr(id), uintptr(unsafe.Pointer(patternIIDs[id])), uintptr(unsafe.Pointer(&p))); err != nil {
		return 0, err
	}
	if p == 0 {
		return 0, uia.ErrPatternUnavailable
	}
	return comObject(p), nil
}

// with runs fn against a pattern interface and releases it afterwards.
func (e *element) with(id int, fn func(p comObject) error) error {
	p, err := e.pattern(id)
	if err != nil {
		return err
	}
	defer p.release()
	return fn(p)
}

// Invoke implements uia.Element.
func (e *element) Invoke() error {
	return e.with(patternInvoke, func(p comObject) error { return p.call(3) })
}

// Toggle implements uia.Element.
func (e *element) Toggle() error {
	return e.with(patternToggle, func(p comObject) error { return p.call(3) })
}

// ToggleState implements uia.Element.
func (e *element) ToggleState() (model.ToggleState, error) {
	var st int32
	err := e.with(patternToggle, func(p comObject) error { return p.call(4, uintptr(unsafe.Pointer(&st))) })
	if err != nil {
		return "", err
	}
	switch st {
	case 1:
		return model.ToggleOn, nil
	case 2:
		return model.ToggleIndeterminate, nil
	default:
		return model.ToggleOff, nil
	}
}

// SetValue implements uia.Element.
func (e *element) SetValue(v string) error {
	return e.with(patternValue, func(p comObject) error {
		s := ole.SysAllocString(v)
		defer ole.SysFreeString(s)
		return p.call(3, uintptr(unsafe.Pointer(s)))
	})
}

// Value implements uia.Element.
func (e *element) Value() (string, error) {
	var out string
	err := e.with(patternValue, func(p comObject) error {
		var s *uint16
		if err := p.call(4, uintptr(unsafe.Pointer(&s))); err != nil {
			return err
		}
		out = bstr(s)
		return nil
	})
	return out, err
}

// Select implements uia.Element.
func (e *element) Select() error {
	return e.with(patternSelectionItem, func(p comObject) error { return p.call(3) })
}

// Expand implements uia.Element.
func (e *element) Expand() error {
	return e.with(patternExpandCollapse, func(p comObject) error { return p.call(3) })
}

// Collapse implements uia.Element.
func (e *element) Collapse() error {
	return e.with(patternExpandCollapse, func(p comObject) error { return p.call(4) })
}

// ExpandState implements uia.Element.
func (e *element) ExpandState() (model.ExpandState, error) {
	var st int32
	err := e.with(patternExpandCollapse, func(p comObject) error { return p.call(5, uintptr(unsafe.Pointer(&st))) })
	if err != nil {
		return "", err
	}
	switch st {
	case 1:
		return model.ExpandExpanded, nil
	case 2:
		return model.ExpandPartiallyExpanded, nil
	case 3:
		return model.ExpandLeafNode, nil
	default:
		return model.ExpandCollapsed, nil
	}
}

// ScrollIntoView implements uia.Element.
func (e *element) ScrollIntoView() error {
	return e.with(patternScrollItem, func(p comObject) error { return p.call(3) })
}

// ScrollAmount values.
const (
	scrollLargeDecrement = 0
	scrollNoAmount       = 2
	scrollLargeIncrement = 3
)

// ScrollPage implements uia.Element.
func (e *element) ScrollPage(dir uia.ScrollDirection) error {
	h, v := uintptr(scrollNoAmount), uintptr(scrollNoAmount)
	switch dir {
	case uia.ScrollDown:
		v = scrollLargeIncrement
	case uia.ScrollUp:
		v = scrollLargeDecrement
	case uia.ScrollRight:
		h = scrollLargeIncrement
	case uia.ScrollLeft:
		h = scrollLargeDecrement
	}
	return e.with(patternScroll, func(p comObject) error { return p.call(3, h, v) })
}

// ScrollPercent implements uia.Element.
func (e *element) ScrollPercent() (uia.ScrollPosition, error) {
	var pos uia.ScrollPosition
	err := e.with(patternScroll, func(p comObject) error {
		if err := p.call(5, uintptr(unsafe.Pointer(&pos.Horizontal))); err != nil {
			return err
		}
		return p.call(6, uintptr(unsafe.Pointer(&pos.Vertical)))
	})
	return pos, err
}

// SetScrollPercent implements uia.Element. Doubles are passed by bit
// pattern; the amd64 call path loads them into the XMM registers.
func (e *element) SetScrollPercent(horizontal, vertical float64) error {
	return e.with(patternScroll, func(p comObject) error {
		return p.call(4, uintptr(math.Float64bits(horizontal)), uintptr(math.Float64bits(vertical)))
	})
}

// Text implements uia.Element with the document range of the text pattern.
func (e *element) Text() (string, error) {
	var out string
	err := e.with(patternText, func(p comObject) error {
		var r uintptr
		if err := p.call(7, uintptr(unsafe.Pointer(&r))); err != nil {
			return err
		}
		rng := comObject(r)
		defer rng.release()
		var s *uint16
		if err := rng.call(12, ^uintptr(0), uintptr(unsafe.Pointer(&s))); err != nil {
			return err
		}
		out = bstr(s)
		return nil
	})
	return out, err
}

// IUIAutomationWindowPattern and IUIAutomationTransformPattern slots.
const (
	windowClose          = 3
	windowSetVisualState = 5
	windowCanMaximize    = 6
	windowCanMinimize    = 7
	windowVisualState    = 10

	transformMove      = 3
	transformResize    = 4
	transformCanMove   = 6
	transformCanResize = 7
)

// WindowVisualState values.
const (
	visualNormal    = 0
	visualMaximized = 1
	visualMinimized = 2
)

// WindowState implements uia.Element.
func (e *element) WindowState() (model.WindowState, error) {
	var st int32
	err := e.with(patternWindow, func(p comObject) error { return p.call(windowVisualState, uintptr(unsafe.Pointer(&st))) })
	if err != nil {
		return "", err
	}
	switch st {
	case visualMaximized:
		return model.WindowMaximized, nil
	case visualMinimized:
		return model.WindowMinimized, nil
	default:
		return model.WindowNormal, nil
	}
}

// SetWindowState implements uia.Element.
func (e *element) SetWindowState(state model.WindowState) error {
	var v uintptr
	switch state {
	case model.WindowNormal:
		v = visualNormal
	case model.WindowMaximized:
		v = visualMaximized
	case model.WindowMinimized:
		v = visualMinimized
	default:
		return model.Errorf(model.KindInvalidInput, "unknown window state %q", state)
	}
	return e.with(patternWindow, func(p comObject) error {
		if state != model.WindowNormal {
			can := windowCanMinimize
			if state == model.WindowMaximized {
				can = windowCanMaximize
			}
			if err := allowed(p, can); err != nil {
				return err
			}
		}
		return p.call(windowSetVisualState, v)
	})
}

// CloseWindow implements uia.Element.
func (e *element) CloseWindow() error {
	return e.with(patternWindow, func(p comObject) error { return p.call(windowClose) })
}

// Move implements uia.Element.
func (e *element) Move(x, y int) error {
	return e.with(patternTransform, func(p comObject) error {
		if err := allowed(p, transformCanMove); err != nil {
			return err
		}
		return p.call(transformMove, uintptr(math.Float64bits(float64(x))), uintptr(math.Float64bits(float64(y))))
	})
}

// Resize implements uia.Element.
func (e *element) Resize(width, height int) error {
	return e.with(patternTransform, func(p comObject) error {
		if err := allowed(p, transformCanResize); err != nil {
			return err
		}
		return p.call(transformResize, uintptr(math.Float64bits(float64(width))), uintptr(math.Float64bits(float64(height))))
	})
}

// allowed reads a Can* property of a pattern and maps false to
// ErrPatternUnavailable.
func allowed(p comObject, slot int) error {
	var b int32
	if err := p.call(slot, uintptr(unsafe.Pointer(&b))); err != nil {
		return err
	}
	if b == 0 {
		return uia.ErrPatternUnavailable
	}
	return nil
}
