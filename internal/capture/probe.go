package capture

import (
	"context"
	"strings"

	"focuslens/internal/process"
)

// runner matches the one-shot invocation surface of process.Supervisor so
// tests can substitute canned probe output.
type runner interface {
	Run(ctx context.Context, spec process.Spec) (string, error)
}

// EncoderAvailable probes ffmpeg's encoder listing for the named codec. The
// probe is best effort: a failed invocation reports "not confirmed" rather
// than an error, and callers proceed with the attempt regardless.
func EncoderAvailable(ctx context.Context, sup runner, binary, codec string) bool {
	if strings.TrimSpace(codec) == "" {
		return false
	}
	listing, err := sup.Run(ctx, process.Spec{
		Binary: binary,
		Args:   []string{"-hide_banner", "-encoders"},
	})
	if err != nil {
		return false
	}
	return containsToken(listing, codec)
}

// InputFormatAvailable probes ffmpeg's demuxer listing for the named input
// format, used to decide whether a platform system-audio source is usable.
func InputFormatAvailable(ctx context.Context, sup runner, binary, format string) bool {
	if strings.TrimSpace(format) == "" {
		return false
	}
	listing, err := sup.Run(ctx, process.Spec{
		Binary: binary,
		Args:   []string{"-hide_banner", "-formats"},
	})
	if err != nil {
		return false
	}
	return containsToken(listing, format)
}

// containsToken matches name as a standalone word so "h264" does not match
// "h264_nvenc".
func containsToken(listing, name string) bool {
	for _, line := range strings.Split(listing, "\n") {
		for _, field := range strings.Fields(line) {
			for _, token := range strings.Split(field, ",") {
				if token == name {
					return true
				}
			}
		}
	}
	return false
}

// ListAudioDevices enumerates capture device names from ffmpeg's device
// listing output. Device lines carry the name in double quotes.
func ListAudioDevices(ctx context.Context, sup runner, binary string, strategy Strategy) []string {
	var args []string
	switch strategy.Name() {
	case "windows":
		args = []string{"-hide_banner", "-list_devices", "true", "-f", "dshow", "-i", "dummy"}
	case "darwin":
		args = []string{"-hide_banner", "-f", "avfoundation", "-list_devices", "true", "-i", ""}
	default:
		args = []string{"-hide_banner", "-sources", "pulse"}
	}

	// Device listing exits non-zero on every platform; the listing itself
	// arrives on stderr either way.
	listing, _ := sup.Run(ctx, process.Spec{Binary: binary, Args: args})
	return parseDeviceNames(listing)
}

func parseDeviceNames(listing string) []string {
	var names []string
	seen := map[string]struct{}{}
	for _, line := range strings.Split(listing, "\n") {
		start := strings.Index(line, `"`)
		if start < 0 {
			continue
		}
		end := strings.Index(line[start+1:], `"`)
		if end < 0 {
			continue
		}
		name := line[start+1 : start+1+end]
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}
