//go:build windows

package msfilereader

import (
	"unsafe"

	"github.com/go-ole/go-ole"
	"github.com/pkg/errors"
	"golang.org/x/sys/windows"
)

var (
	oleaut32 = windows.NewLazySystemDLL("oleaut32.dll")

	procSafeArrayGetDim       = oleaut32.NewProc("SafeArrayGetDim")
	procSafeArrayGetLBound    = oleaut32.NewProc("SafeArrayGetLBound")
	procSafeArrayGetUBound    = oleaut32.NewProc("SafeArrayGetUBound")
	procSafeArrayAccessData   = oleaut32.NewProc("SafeArrayAccessData")
	procSafeArrayUnaccessData = oleaut32.NewProc("SafeArrayUnaccessData")
)

// safeArrayDoubles copies every element of a SAFEARRAY of VT_R8 in
// memory order. go-ole's SafeArray struct has a 32-bit data pointer, so
// the data is reached through oleaut32 instead.
func safeArrayDoubles(v *ole.VARIANT) ([]float64, error) {
	if v.VT != ole.VT_ARRAY|ole.VT_R8 {
		return nil, errors.Errorf("mass list variant has type %v, want array of double", v.VT)
	}
	psa := uintptr(v.Val)
	if psa == 0 {
		return nil, nil
	}

	dims, _, _ := procSafeArrayGetDim.Call(psa)
	total := 1
	for d := uintptr(1); d <= dims; d++ {
		var lo, hi int32
		if hr, _, _ := procSafeArrayGetLBound.Call(psa, d, uintptr(unsafe.Pointer(&lo))); hr != 0 {
			return nil, errors.Wrap(ole.NewError(hr), "SafeArrayGetLBound")
		}
		if hr, _, _ := procSafeArrayGetUBound.Call(psa, d, uintptr(unsafe.Pointer(&hi))); hr != 0 {
			return nil, errors.Wrap(ole.NewError(hr), "SafeArrayGetUBound")
		}
		total *= int(hi - lo + 1)
	}
	if dims == 0 || total <= 0 {
		return nil, nil
	}

	var data unsafe.Pointer
	if hr, _, _ := procSafeArrayAccessData.Call(psa, uintptr(unsafe.Pointer(&data))); hr != 0 {
		return nil, errors.Wrap(ole.NewError(hr), "SafeArrayAccessData")
	}
	defer procSafeArrayUnaccessData.Call(psa)

	out := make([]float64, total)
	copy(out, unsafe.Slice((*float64)(data), total))
	return out, nil
}
