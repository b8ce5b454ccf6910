package export

import (
	"fmt"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"focuslens/internal/cropexpr"
	"focuslens/internal/motion"
	"focuslens/internal/projects"
)

// encodePlan is everything one encode attempt needs besides the codec.
type encodePlan struct {
	inputPath  string
	outputPath string
	profile    Profile
	timeline   projects.Timeline
	crop       cropexpr.Crop
	highlight  bool
}

// buildPlan resolves the crop window and trim range for a manifest.
func buildPlan(manifest projects.Manifest, profile Profile, track []motion.Sample, inputPath, outputPath string) (encodePlan, error) {
	aspect, err := profile.AspectValue()
	if err != nil {
		return encodePlan{}, err
	}
	cameraProfile, err := manifest.Camera.Profile()
	if err != nil {
		return encodePlan{}, err
	}
	crop := cropexpr.Build(track, manifest.FrameWidth, manifest.FrameHeight, cameraProfile, aspect)
	return encodePlan{
		inputPath:  inputPath,
		outputPath: outputPath,
		profile:    profile,
		timeline:   manifest.Timeline,
		crop:       crop,
		highlight:  manifest.Camera.CursorHighlight,
	}, nil
}

// videoFilter chains crop, optional highlight enhancement, scale, and
// aspect-ratio normalization into one filter-graph string.
func (p encodePlan) videoFilter() string {
	width, height, _ := p.profile.Dimensions()
	filters := []string{p.crop.String()}
	if p.highlight {
		// Lightweight visual lift in place of true cursor compositing.
		filters = append(filters, "eq=contrast=1.03:saturation=1.06")
	}
	filters = append(filters,
		fmt.Sprintf("scale=%d:%d", width, height),
		"setsar=1",
		fmt.Sprintf("setdar=%d/%d", width, height),
	)
	return strings.Join(filters, ",")
}

// args compiles the full encoder argv for one attempt with the given codec.
func (p encodePlan) args(codec string) []string {
	inputKwargs := ffmpeg.KwArgs{}
	if p.timeline.TrimStartMS > 0 {
		inputKwargs["ss"] = formatSeconds(p.timeline.TrimStartMS)
	}
	if p.timeline.TrimEndMS > p.timeline.TrimStartMS {
		inputKwargs["to"] = formatSeconds(p.timeline.TrimEndMS)
	}

	outputKwargs := ffmpeg.KwArgs{
		"vf":       p.videoFilter(),
		"r":        p.profile.FPS,
		"c:v":      codec,
		"b:v":      fmt.Sprintf("%dM", p.profile.BitrateMbps),
		"pix_fmt":  "yuv420p",
		"c:a":      "aac",
		"b:a":      "128k",
		"movflags": "+faststart",
	}

	compiled := ffmpeg.Input(p.inputPath, inputKwargs).
		Output(p.outputPath, outputKwargs).
		GetArgs()

	// Global flags go up front; trailing options are ignored by the binary.
	args := []string{"-y", "-hide_banner", "-loglevel", "info", "-stats"}
	return append(args, compiled...)
}

func formatSeconds(ms uint64) string {
	return fmt.Sprintf("%.3f", float64(ms)/1000.0)
}
