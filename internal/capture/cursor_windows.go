//go:build windows

package capture

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32           = windows.NewLazySystemDLL("user32.dll")
	procGetCursorPos = user32.NewProc("GetCursorPos")
)

type winPoint struct {
	X int32
	Y int32
}

type windowsCursorSource struct{}

func newPlatformCursorSource() CursorSource {
	return windowsCursorSource{}
}

func (windowsCursorSource) Position() (float64, float64, bool) {
	var pt winPoint
	ret, _, _ := procGetCursorPos.Call(uintptr(unsafe.Pointer(&pt)))
	if ret == 0 {
		return 0, 0, false
	}
	return float64(pt.X), float64(pt.Y), true
}
