//go:build windows

package windows

import (
	"fmt"
	"unsafe"

	"github.com/go-ole/go-ole"
	"github.com/mj1618/desktop-intent/internal/model"
	"github.com/mj1618/desktop-intent/internal/uia"
)

var (
	clsidCUIAutomation = mustGUID("{ff48dba4-60ef-4201-aa87-54103eef594e}")
	iidIUIAutomation   = mustGUID("{30cbe57d-d9d0-452a-ab13-7ac5ac4825ee}")
)

// IUIAutomation vtable slots.
const (
	autoGetRootElement          = 5
	autoElementFromHandle       = 6
	autoGetFocusedElement       = 8
	autoControlViewWalker       = 14
	autoRawViewCondition        = 17
	autoCreateCacheRequest      = 20
	autoCreatePropertyCondition = 23
)

// IUIAutomationTreeWalker vtable slots.
const (
	walkerParent      = 3
	walkerFirstChild  = 4
	walkerNextSibling = 6
)

// IUIAutomationCacheRequest vtable slots.
const (
	cacheAddProperty   = 3
	cachePutTreeFilter = 9
)

const treeScopeSubtree = 7

// automation wraps IUIAutomation, its control-view walker and the cache
// request every Snapshot fills. It must be created and used on the dispatch
// thread.
type automation struct {
	obj    comObject
	walker comObject
	cache  comObject
}

func newAutomation() (uia.Automation, error) {
	unk, err := ole.CreateInstance(clsidCUIAutomation, iidIUIAutomation)
	if err != nil {
		return nil, fmt.Errorf("creating CUIAutomation: %w", err)
	}
	a := &automation{obj: comObject(unsafe.Pointer(unk))}
	var w uintptr
	if err := a.obj.call(autoControlViewWalker, uintptr(unsafe.Pointer(&w))); err != nil {
		a.Close()
		return nil, fmt.Errorf("control view walker: %w", err)
	}
	a.walker = comObject(w)
	if a.cache, err = a.newCacheRequest(); err != nil {
		a.Close()
		return nil, fmt.Errorf("cache request: %w", err)
	}
	return a, nil
}

// newCacheRequest builds a request for every property Snapshot reads. The
// raw view filter lets it refresh elements outside the control view.
func (a *automation) newCacheRequest() (comObject, error) {
	var r, c uintptr
	if err := a.obj.call(autoCreateCacheRequest, uintptr(unsafe.Pointer(&r))); err != nil {
		return 0, err
	}
	req := comObject(r)
	if err := a.obj.call(autoRawViewCondition, uintptr(unsafe.Pointer(&c))); err != nil {
		req.release()
		return 0, err
	}
	cond := comObject(c)
	defer cond.release()
	if err := req.call(cachePutTreeFilter, c); err != nil {
		req.release()
		return 0, err
	}
	for _, id := range snapshotProperties() {
		if err := req.call(cacheAddProperty, uintptr(id)); err != nil {
			req.release()
			return 0, fmt.Errorf("property %d: %w", id, err)
		}
	}
	return req, nil
}

func (a *automation) wrap(p uintptr) uia.Element {
	if p == 0 {
		return nil
	}
	return &element{obj: comObject(p), auto: a}
}

// ElementFromHandle implements uia.Automation.
func (a *automation) ElementFromHandle(hwnd uintptr) (uia.Element, error) {
	var p uintptr
	if err := a.obj.call(autoElementFromHandle, hwnd, uintptr(unsafe.Pointer(&p))); err != nil {
		return nil, err
	}
	if p == 0 {
		return nil, model.Errorf(model.KindWindowNotFound, "no accessible root for window %#x", hwnd)
	}
	return a.wrap(p), nil
}

// FocusedElement implements uia.Automation.
func (a *automation) FocusedElement() (uia.Element, error) {
	var p uintptr
	if err := a.obj.call(autoGetFocusedElement, uintptr(unsafe.Pointer(&p))); err != nil {
		return nil, err
	}
	if p == 0 {
		return nil, uia.ErrElementNotAvailable
	}
	return a.wrap(p), nil
}

// rootElement returns the desktop element.
func (a *automation) rootElement() (uia.Element, error) {
	var p uintptr
	if err := a.obj.call(autoGetRootElement, uintptr(unsafe.Pointer(&p))); err != nil {
		return nil, err
	}
	if p == 0 {
		return nil, uia.ErrElementNotAvailable
	}
	return a.wrap(p), nil
}

// FindByRuntimeID implements uia.Automation with a RuntimeId property
// condition searched over root's subtree, root included. It returns nil when
// nothing matches.
func (a *automation) FindByRuntimeID(root uia.Element, rid []int32) (uia.Element, error) {
	r, ok := root.(*element)
	if !ok {
		return nil, fmt.Errorf("foreign element %T", root)
	}
	v, err := int32Variant(rid)
	if err != nil {
		return nil, err
	}
	defer ole.VariantClear(&v)
	// VARIANT is larger than a register, so the 64-bit ABIs pass it by
	// reference.
	var c uintptr
	if err := a.obj.call(autoCreatePropertyCondition, propRuntimeID, uintptr(unsafe.Pointer(&v)), uintptr(unsafe.Pointer(&c))); err != nil {
		return nil, err
	}
	cond := comObject(c)
	defer cond.release()
	var p uintptr
	if err := r.obj.call(elFindFirst, treeScopeSubtree, c, uintptr(unsafe.Pointer(&p))); err != nil {
		return nil, err
	}
	return a.wrap(p), nil
}

// Close implements uia.Automation.
func (a *automation) Close() error {
	a.cache.release()
	a.walker.release()
	a.obj.release()
	a.cache, a.walker, a.obj = 0, 0, 0
	return nil
}
