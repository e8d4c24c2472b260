//go:build windows

package windows

import (
	"errors"
	"fmt"
	"syscall"
	"unsafe"

	"github.com/go-ole/go-ole"
	"github.com/mj1618/desktop-intent/internal/model"
	"github.com/mj1618/desktop-intent/internal/uia"
	"golang.org/x/sys/windows"
)

var (
	oleaut32 = windows.NewLazySystemDLL("oleaut32.dll")

	procSafeArrayCreateVector = oleaut32.NewProc("SafeArrayCreateVector")
	procSafeArrayPutElement   = oleaut32.NewProc("SafeArrayPutElement")
	procSafeArrayDestroy      = oleaut32.NewProc("SafeArrayDestroy")
)

// HRESULTs returned by UI Automation providers.
const (
	hrElementNotAvailable = 0x80040201
	hrElementNotEnabled   = 0x80040200
	hrNotSupported        = 0x80040204
	hrNoClickablePoint    = 0x80040202
	hrInvalidOperation    = 0x80131509
	hrAccessDenied        = 0x80070005
)

// comObject is a raw COM interface pointer.
type comObject uintptr

// call invokes the vtable method at index with the object as the implicit
// first argument and converts a failing HRESULT into an error.
func (o comObject) call(index int, args ...uintptr) error {
	if o == 0 {
		return uia.ErrElementNotAvailable
	}
	vtbl := *(*uintptr)(unsafe.Pointer(o))
	fn := *(*uintptr)(unsafe.Pointer(vtbl + uintptr(index)*unsafe.Sizeof(uintptr(0))))
	hr, _, _ := syscall.SyscallN(fn, append([]uintptr{uintptr(o)}, args...)...)
	return hresult(hr)
}

func (o comObject) unknown() *ole.IUnknown {
	return (*ole.IUnknown)(unsafe.Pointer(o))
}

func (o comObject) addRef() {
	if o != 0 {
		o.unknown().AddRef()
	}
}

func (o comObject) release() {
	if o != 0 {
		o.unknown().Release()
	}
}

func hresult(hr uintptr) error {
	if int32(hr) >= 0 {
		return nil
	}
	switch uint32(hr) {
	case hrElementNotAvailable:
		return uia.ErrElementNotAvailable
	case hrNotSupported, hrNoClickablePoint, hrInvalidOperation:
		return uia.ErrPatternUnavailable
	case hrElementNotEnabled:
		return model.Errorf(model.KindInvalidInput, "element is not enabled")
	case hrAccessDenied:
		return model.Wrap(model.KindPermissionDenied, ole.NewError(hr), "provider refused access; the target may run elevated")
	}
	return ole.NewError(hr)
}

// bstr converts and frees a BSTR out-parameter.
func bstr(p *uint16) string {
	if p == nil {
		return ""
	}
	s := ole.BstrToString(p)
	ole.SysFreeString((*int16)(unsafe.Pointer(p)))
	return s
}

func mustGUID(s string) *ole.GUID {
	g := ole.NewGUID(s)
	if g == nil {
		panic("bad GUID " + s)
	}
	return g
}

// int32Variant packs vals into a VT_ARRAY|VT_I4 variant. VariantClear frees
// the array.
func int32Variant(vals []int32) (ole.VARIANT, error) {
	sa, _, _ := procSafeArrayCreateVector.Call(uintptr(ole.VT_I4), 0, uintptr(len(vals)))
	if sa == 0 {
		return ole.VARIANT{}, errors.New("SafeArrayCreateVector failed")
	}
	for i := range vals {
		idx := int32(i)
		hr, _, _ := procSafeArrayPutElement.Call(sa, uintptr(unsafe.Pointer(&idx)), uintptr(unsafe.Pointer(&vals[i])))
		if err := hresult(hr); err != nil {
			procSafeArrayDestroy.Call(sa)
			return ole.VARIANT{}, fmt.Errorf("SafeArrayPutElement: %w", err)
		}
	}
	return ole.NewVariant(ole.VT_ARRAY|ole.VT_I4, int64(sa)), nil
}

// variantValue converts v to a Go value. Arrays become []any.
func variantValue(v *ole.VARIANT) any {
	if v.VT&ole.VT_ARRAY != 0 {
		if conv := v.ToArray(); conv != nil && conv.Array != nil {
			return conv.ToValueArray()
		}
		return nil
	}
	return v.Value()
}
