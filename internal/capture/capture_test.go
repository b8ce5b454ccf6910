package capture

import (
	"context"
	"errors"
	"strings"
	"testing"

	"focuslens/internal/process"
)

type cannedRunner struct {
	output string
	err    error
	args   []string
}

func (c *cannedRunner) Run(_ context.Context, spec process.Spec) (string, error) {
	c.args = spec.Args
	return c.output, c.err
}

func TestForPlatformCodecs(t *testing.T) {
	cases := map[string]string{
		"windows": "h264_nvenc",
		"darwin":  "h264_videotoolbox",
		"linux":   SoftwareCodec,
		"freebsd": SoftwareCodec,
	}
	for goos, want := range cases {
		if got := ForPlatform(goos).HardwareCodec(); got != want {
			t.Fatalf("ForPlatform(%q).HardwareCodec() = %q, want %q", goos, got, want)
		}
	}
}

func TestRecordingArgsDegradedDropsAudio(t *testing.T) {
	opts := Options{FPS: 30, CaptureSystemAudio: true, CaptureMicrophone: true, OutputPath: "out.mp4"}
	for _, goos := range []string{"windows", "darwin", "linux"} {
		strategy := ForPlatform(goos)
		full := strings.Join(strategy.RecordingArgs(opts, false), " ")
		degraded := strings.Join(strategy.RecordingArgs(opts, true), " ")

		switch goos {
		case "windows":
			if !strings.Contains(full, "dshow") {
				t.Fatalf("%s: full args missing audio input: %s", goos, full)
			}
			if strings.Contains(degraded, "dshow") {
				t.Fatalf("%s: degraded args still capture audio: %s", goos, degraded)
			}
		case "darwin":
			if !strings.Contains(full, "1:0") || !strings.Contains(degraded, "1:none") {
				t.Fatalf("%s: avfoundation inputs wrong: full=%s degraded=%s", goos, full, degraded)
			}
		default:
			if !strings.Contains(full, "pulse") {
				t.Fatalf("%s: full args missing pulse input: %s", goos, full)
			}
			if strings.Contains(degraded, "pulse") {
				t.Fatalf("%s: degraded args still capture audio: %s", goos, degraded)
			}
		}

		if !strings.HasSuffix(degraded, "out.mp4") {
			t.Fatalf("%s: output path must be the final argument: %s", goos, degraded)
		}
		if !strings.Contains(full, "-loglevel warning") {
			t.Fatalf("%s: base flags missing: %s", goos, full)
		}
	}
}

func TestRecordingArgsDefaultsFrameRate(t *testing.T) {
	args := ForPlatform("linux").RecordingArgs(Options{OutputPath: "o.mp4"}, true)
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-framerate 30") {
		t.Fatalf("zero fps should default to 30: %s", joined)
	}
}

func TestEncoderAvailableTokenMatch(t *testing.T) {
	run := &cannedRunner{output: " V....D h264_nvenc  NVIDIA NVENC H.264 encoder\n V..... libx264  x264\n"}
	if !EncoderAvailable(context.Background(), run, "ffmpeg", "h264_nvenc") {
		t.Fatal("expected codec to be found")
	}
	if EncoderAvailable(context.Background(), run, "ffmpeg", "h264") {
		t.Fatal("substring of a codec name must not match")
	}
	if got := strings.Join(run.args, " "); got != "-hide_banner -encoders" {
		t.Fatalf("unexpected probe args: %s", got)
	}
}

func TestEncoderAvailableProbeFailureNotConfirmed(t *testing.T) {
	run := &cannedRunner{err: errors.New("probe failed")}
	if EncoderAvailable(context.Background(), run, "ffmpeg", "h264_nvenc") {
		t.Fatal("failed probe must report not confirmed")
	}
}

func TestInputFormatAvailable(t *testing.T) {
	run := &cannedRunner{output: " DE pulse  Pulse audio\n D  x11grab  X11 screen capture\n"}
	if !InputFormatAvailable(context.Background(), run, "ffmpeg", "pulse") {
		t.Fatal("expected pulse format to be found")
	}
	if InputFormatAvailable(context.Background(), run, "ffmpeg", "alsa") {
		t.Fatal("missing format reported available")
	}
}

func TestListAudioDevicesParsesQuotedNames(t *testing.T) {
	run := &cannedRunner{
		output: strings.Join([]string{
			`[dshow @ 0x1] "Internal Microphone" (audio)`,
			`[dshow @ 0x1]   Alternative name "wave_1"`,
			`[dshow @ 0x1] "Internal Microphone" (audio)`,
			`no quotes on this line`,
		}, "\n"),
		err: errors.New("exit status 1"),
	}
	devices := ListAudioDevices(context.Background(), run, "ffmpeg", ForPlatform("windows"))
	if len(devices) != 2 {
		t.Fatalf("expected 2 unique devices, got %v", devices)
	}
	if devices[0] != "Internal Microphone" || devices[1] != "wave_1" {
		t.Fatalf("unexpected device names: %v", devices)
	}
}

func TestSyntheticCursorSourceAlwaysOK(t *testing.T) {
	src := newSyntheticCursorSource()
	x, y, ok := src.Position()
	if !ok {
		t.Fatal("synthetic source must always produce a position")
	}
	if x < 0 || y < 0 {
		t.Fatalf("unexpected coordinates: %f,%f", x, y)
	}
}
