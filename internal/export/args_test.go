package export

import (
	"strings"
	"testing"

	"focuslens/internal/motion"
	"focuslens/internal/projects"
	"focuslens/internal/services"
)

func flagValue(args []string, flag string) (string, bool) {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1], true
		}
	}
	return "", false
}

func testManifest() projects.Manifest {
	return projects.Manifest{
		ProjectID:     "demo",
		DurationMS:    2000,
		FrameWidth:    1920,
		FrameHeight:   1080,
		RecordingFile: "/tmp/in.mp4",
		Camera:        projects.DefaultCameraSettings(),
	}
}

func TestProfileDimensions(t *testing.T) {
	cases := []struct {
		resolution Resolution
		aspect     AspectRatio
		w, h       int
	}{
		{Resolution1080p, AspectWidescreen, 1920, 1080},
		{Resolution1080p, AspectVertical, 1080, 1920},
		{Resolution1080p, AspectSquare, 1080, 1080},
		{Resolution720p, AspectWidescreen, 1280, 720},
		{Resolution720p, AspectVertical, 720, 1280},
		{Resolution720p, AspectSquare, 720, 720},
	}
	for _, tc := range cases {
		p := Profile{Resolution: tc.resolution, Aspect: tc.aspect}
		w, h, err := p.Dimensions()
		if err != nil {
			t.Fatalf("Dimensions(%s, %s): %v", tc.resolution, tc.aspect, err)
		}
		if w != tc.w || h != tc.h {
			t.Fatalf("Dimensions(%s, %s) = %dx%d", tc.resolution, tc.aspect, w, h)
		}
	}
}

func TestProfileNormalizeFillsDefaults(t *testing.T) {
	p, err := Profile{}.Normalize()
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if p != DefaultProfile() {
		t.Fatalf("normalized zero profile = %+v", p)
	}

	_, err = Profile{Resolution: "4k"}.Normalize()
	if services.CodeOf(err) != "INVALID_EXPORT_PROFILE" {
		t.Fatalf("code = %q", services.CodeOf(err))
	}
}

func TestEncodeArgsCarryTrimAndCodec(t *testing.T) {
	manifest := testManifest()
	manifest.Timeline = projects.Timeline{TrimStartMS: 1500, TrimEndMS: 4250}
	track := motion.SyntheticTrack(2000)

	plan, err := buildPlan(manifest, DefaultProfile(), track, "/tmp/in.mp4", "/tmp/out.mp4")
	if err != nil {
		t.Fatalf("buildPlan: %v", err)
	}
	args := plan.args("h264_nvenc")

	if v, ok := flagValue(args, "-ss"); !ok || v != "1.500" {
		t.Fatalf("-ss = %q (present=%v)", v, ok)
	}
	if v, ok := flagValue(args, "-to"); !ok || v != "4.250" {
		t.Fatalf("-to = %q (present=%v)", v, ok)
	}
	if v, _ := flagValue(args, "-c:v"); v != "h264_nvenc" {
		t.Fatalf("-c:v = %q", v)
	}
	if v, _ := flagValue(args, "-b:v"); v != "8M" {
		t.Fatalf("-b:v = %q", v)
	}
	if v, _ := flagValue(args, "-b:a"); v != "128k" {
		t.Fatalf("-b:a = %q", v)
	}
	if v, _ := flagValue(args, "-r"); v != "30" {
		t.Fatalf("-r = %q", v)
	}
	if v, _ := flagValue(args, "-pix_fmt"); v != "yuv420p" {
		t.Fatalf("-pix_fmt = %q", v)
	}
	if v, _ := flagValue(args, "-movflags"); v != "+faststart" {
		t.Fatalf("-movflags = %q", v)
	}
	if v, _ := flagValue(args, "-i"); v != "/tmp/in.mp4" {
		t.Fatalf("-i = %q", v)
	}
	if args[len(args)-1] != "/tmp/out.mp4" {
		t.Fatalf("output path not last: %v", args[len(args)-1])
	}
	if args[0] != "-y" {
		t.Fatalf("overwrite flag not leading: %v", args[:3])
	}
}

func TestEncodeArgsOmitTrimWhenUnset(t *testing.T) {
	plan, err := buildPlan(testManifest(), DefaultProfile(), motion.SyntheticTrack(2000), "/tmp/in.mp4", "/tmp/out.mp4")
	if err != nil {
		t.Fatalf("buildPlan: %v", err)
	}
	args := plan.args("libx264")
	if _, ok := flagValue(args, "-ss"); ok {
		t.Fatal("-ss present without trim start")
	}
	if _, ok := flagValue(args, "-to"); ok {
		t.Fatal("-to present without trim end")
	}
}

func TestVideoFilterChain(t *testing.T) {
	manifest := testManifest()
	manifest.Camera.CursorHighlight = true

	plan, err := buildPlan(manifest, DefaultProfile(), motion.SyntheticTrack(2000), "/tmp/in.mp4", "/tmp/out.mp4")
	if err != nil {
		t.Fatalf("buildPlan: %v", err)
	}
	vf := plan.videoFilter()

	if !strings.HasPrefix(vf, "crop=w='") {
		t.Fatalf("filter chain must start with crop: %q", vf)
	}
	for _, stage := range []string{
		"eq=contrast=1.03:saturation=1.06",
		"scale=1920:1080",
		"setsar=1",
		"setdar=1920/1080",
	} {
		if !strings.Contains(vf, stage) {
			t.Fatalf("filter chain missing %q: %q", stage, vf)
		}
	}

	manifest.Camera.CursorHighlight = false
	plan, err = buildPlan(manifest, DefaultProfile(), motion.SyntheticTrack(2000), "/tmp/in.mp4", "/tmp/out.mp4")
	if err != nil {
		t.Fatalf("buildPlan: %v", err)
	}
	if strings.Contains(plan.videoFilter(), "eq=") {
		t.Fatal("highlight enhancement present while disabled")
	}
}

func TestBuildPlanFallsBackToStaticCropWithoutTrack(t *testing.T) {
	plan, err := buildPlan(testManifest(), DefaultProfile(), nil, "/tmp/in.mp4", "/tmp/out.mp4")
	if err != nil {
		t.Fatalf("buildPlan: %v", err)
	}
	if plan.crop.Zoom != motion.ZoomMin {
		t.Fatalf("empty track should use zoom 1.0, got %v", plan.crop.Zoom)
	}
	if plan.crop.X != "(iw-ow)/2" {
		t.Fatalf("empty track should center statically, got %q", plan.crop.X)
	}
}
