package capture

import (
	"fmt"
	"runtime"
)

// SoftwareCodec is the portable fallback encoder used when hardware
// encoding fails or is unavailable.
const SoftwareCodec = "libx264"

// Options describes one capture invocation.
type Options struct {
	FPS                int
	CaptureSystemAudio bool
	CaptureMicrophone  bool
	OutputPath         string
}

// Strategy is the per-platform capture surface. Implementations are
// stateless; one is selected at startup via ForPlatform.
type Strategy interface {
	// Name is the platform key ("windows", "darwin", "linux").
	Name() string
	// RecordingArgs builds the full ffmpeg argument list for a capture
	// invocation. Degraded invocations drop every audio source.
	RecordingArgs(opts Options, degraded bool) []string
	// HardwareCodec is the preferred export encoder on this platform.
	HardwareCodec() string
	// DegradeMessage is shown to the user when audio capture was dropped to
	// keep the recording alive.
	DegradeMessage() string
}

// ForPlatform returns the strategy for the given GOOS value.
func ForPlatform(goos string) Strategy {
	switch goos {
	case "windows":
		return windowsStrategy{}
	case "darwin":
		return darwinStrategy{}
	default:
		return linuxStrategy{}
	}
}

// Current returns the strategy for the running platform.
func Current() Strategy {
	return ForPlatform(runtime.GOOS)
}

func baseArgs() []string {
	return []string{"-y", "-hide_banner", "-loglevel", "warning"}
}

func outputArgs(opts Options) []string {
	return []string{
		"-c:v", SoftwareCodec,
		"-preset", "ultrafast",
		"-pix_fmt", "yuv420p",
		opts.OutputPath,
	}
}

func normalizeFPS(fps int) int {
	if fps <= 0 {
		return 30
	}
	return fps
}

type windowsStrategy struct{}

func (windowsStrategy) Name() string { return "windows" }

func (windowsStrategy) RecordingArgs(opts Options, degraded bool) []string {
	args := baseArgs()
	args = append(args,
		"-f", "gdigrab",
		"-framerate", fmt.Sprint(normalizeFPS(opts.FPS)),
		"-i", "desktop",
	)
	if !degraded {
		if opts.CaptureSystemAudio {
			args = append(args, "-f", "dshow", "-i", "audio=virtual-audio-capturer")
		}
		if opts.CaptureMicrophone {
			args = append(args, "-f", "dshow", "-i", "audio=default")
		}
	}
	return append(args, outputArgs(opts)...)
}

func (windowsStrategy) HardwareCodec() string { return "h264_nvenc" }

func (windowsStrategy) DegradeMessage() string {
	return "audio capture device unavailable; continuing with screen video only"
}

type darwinStrategy struct{}

func (darwinStrategy) Name() string { return "darwin" }

func (darwinStrategy) RecordingArgs(opts Options, degraded bool) []string {
	args := baseArgs()
	input := "1:none"
	if !degraded && (opts.CaptureSystemAudio || opts.CaptureMicrophone) {
		input = "1:0"
	}
	args = append(args,
		"-f", "avfoundation",
		"-framerate", fmt.Sprint(normalizeFPS(opts.FPS)),
		"-i", input,
	)
	return append(args, outputArgs(opts)...)
}

func (darwinStrategy) HardwareCodec() string { return "h264_videotoolbox" }

func (darwinStrategy) DegradeMessage() string {
	return "avfoundation audio input rejected; continuing with screen video only"
}

type linuxStrategy struct{}

func (linuxStrategy) Name() string { return "linux" }

func (linuxStrategy) RecordingArgs(opts Options, degraded bool) []string {
	args := baseArgs()
	args = append(args,
		"-f", "x11grab",
		"-framerate", fmt.Sprint(normalizeFPS(opts.FPS)),
		"-i", ":0.0",
	)
	if !degraded && (opts.CaptureSystemAudio || opts.CaptureMicrophone) {
		args = append(args, "-f", "pulse", "-i", "default")
	}
	return append(args, outputArgs(opts)...)
}

func (linuxStrategy) HardwareCodec() string { return SoftwareCodec }

func (linuxStrategy) DegradeMessage() string {
	return "pulseaudio source unavailable; continuing with screen video only"
}
