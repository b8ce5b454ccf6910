//go:build !windows

package capture

func newPlatformCursorSource() CursorSource {
	return newSyntheticCursorSource()
}
