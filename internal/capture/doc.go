// Package capture encapsulates per-platform screen capture knowledge.
//
// Each supported platform provides a Strategy that knows the ffmpeg input
// syntax for screen and audio sources, the preferred hardware codec, and the
// user-facing message emitted when audio capture is degraded. The strategy
// is selected once at startup; everything above this package is platform
// agnostic.
//
// The package also hosts the cursor position source. On Windows the live
// pointer is read from the win32 API; elsewhere a deterministic synthetic
// trajectory stands in so the autoframing pipeline always has input.
package capture
