package projects_test

import (
	"errors"
	"testing"

	"focuslens/internal/motion"
	"focuslens/internal/projects"
	"focuslens/internal/services"
)

func newStore(t *testing.T) *projects.Store {
	t.Helper()
	return projects.NewStore(t.TempDir(), nil)
}

func TestValidateProjectIDRejectsPathEscapes(t *testing.T) {
	for _, id := range []string{"", "  ", "a/b", `a\b`, "..", "demo..x"} {
		if err := projects.ValidateProjectID(id); err == nil {
			t.Fatalf("id %q should be rejected", id)
		} else if !errors.Is(err, services.ErrConfiguration) {
			t.Fatalf("id %q: expected configuration marker, got %v", id, err)
		}
	}
	if err := projects.ValidateProjectID("demo-2026_01"); err != nil {
		t.Fatalf("plain id rejected: %v", err)
	}
}

func TestManifestRoundTrip(t *testing.T) {
	store := newStore(t)

	manifest := projects.Manifest{
		ProjectID:   "demo",
		DurationMS:  12000,
		FrameWidth:  1920,
		FrameHeight: 1080,
		Camera:      projects.DefaultCameraSettings(),
		Timeline:    projects.Timeline{TrimStartMS: 500},
	}
	if err := store.SaveManifest(manifest); err != nil {
		t.Fatalf("SaveManifest: %v", err)
	}

	loaded, err := store.LoadManifest("demo")
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if loaded.DurationMS != 12000 || loaded.Timeline.TrimStartMS != 500 {
		t.Fatalf("manifest fields lost: %+v", loaded)
	}
	if loaded.CreatedAt.IsZero() || loaded.UpdatedAt.IsZero() {
		t.Fatal("timestamps not populated")
	}
}

func TestLoadManifestMissingIsPrecondition(t *testing.T) {
	store := newStore(t)
	_, err := store.LoadManifest("ghost")
	if !errors.Is(err, services.ErrPrecondition) {
		t.Fatalf("expected precondition error, got %v", err)
	}
	if services.CodeOf(err) != "PROJECT_ASSET_MISSING" {
		t.Fatalf("code = %q", services.CodeOf(err))
	}
}

func TestPatchTimelineRejectsInvertedRange(t *testing.T) {
	store := newStore(t)
	if err := store.SaveManifest(projects.Manifest{ProjectID: "demo"}); err != nil {
		t.Fatalf("SaveManifest: %v", err)
	}
	if _, err := store.PatchTimeline("demo", projects.Timeline{TrimStartMS: 900, TrimEndMS: 400}); err == nil {
		t.Fatal("inverted trim range should be rejected")
	}
	manifest, err := store.PatchTimeline("demo", projects.Timeline{TrimStartMS: 400, TrimEndMS: 900})
	if err != nil {
		t.Fatalf("PatchTimeline: %v", err)
	}
	if manifest.Timeline.TrimEndMS != 900 {
		t.Fatalf("timeline not applied: %+v", manifest.Timeline)
	}
}

func TestPatchCameraValidatesIntensity(t *testing.T) {
	store := newStore(t)
	if err := store.SaveManifest(projects.Manifest{ProjectID: "demo"}); err != nil {
		t.Fatalf("SaveManifest: %v", err)
	}
	camera := projects.DefaultCameraSettings()
	camera.Intensity = "extreme"
	if _, err := store.PatchCamera("demo", camera); err == nil {
		t.Fatal("invalid intensity should be rejected")
	}
}

func TestCameraProfileDefaultsZeroMaxZoom(t *testing.T) {
	settings := projects.CameraSettings{Enabled: true, Intensity: "medium"}
	profile, err := settings.Profile()
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if profile.MaxZoom != motion.DefaultProfile().MaxZoom {
		t.Fatalf("zero max zoom should take the default cap, got %f", profile.MaxZoom)
	}
}

func TestCursorTrackRoundTripExtendsToDuration(t *testing.T) {
	store := newStore(t)
	track := []motion.Sample{
		{TMS: 0, X: 10, Y: 20},
		{TMS: 5000, X: 400, Y: 300},
	}
	if err := store.SaveCursorTrack("demo", track, 8000); err != nil {
		t.Fatalf("SaveCursorTrack: %v", err)
	}

	loaded, err := store.LoadCursorTrack("demo", 8000)
	if err != nil {
		t.Fatalf("LoadCursorTrack: %v", err)
	}
	last := loaded[len(loaded)-1]
	if last.TMS != 8000 {
		t.Fatalf("track not extended to duration: last at %d", last.TMS)
	}
	if last.X != 400 || last.Y != 300 {
		t.Fatalf("extension should hold the final position: %+v", last)
	}
}

func TestLoadCursorTrackSynthesizesWhenMissing(t *testing.T) {
	store := newStore(t)
	if _, err := store.EnsureDir("demo"); err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}

	loaded, err := store.LoadCursorTrack("demo", 2400)
	if err != nil {
		t.Fatalf("LoadCursorTrack: %v", err)
	}
	if len(loaded) == 0 {
		t.Fatal("expected synthetic track")
	}
	if loaded[0].TMS != 0 || loaded[len(loaded)-1].TMS != 2400 {
		t.Fatalf("synthetic track must cover the full timeline: %d..%d", loaded[0].TMS, loaded[len(loaded)-1].TMS)
	}
}

func TestRecoveryMarkerLifecycle(t *testing.T) {
	store := newStore(t)

	if err := store.WriteRecoveryMarker("demo", "rec-1"); err != nil {
		t.Fatalf("WriteRecoveryMarker: %v", err)
	}
	marked, err := store.ListRecoveryMarkers()
	if err != nil {
		t.Fatalf("ListRecoveryMarkers: %v", err)
	}
	if len(marked) != 1 || marked[0] != "demo" {
		t.Fatalf("unexpected marker list: %v", marked)
	}

	if err := store.ClearRecoveryMarker("demo"); err != nil {
		t.Fatalf("ClearRecoveryMarker: %v", err)
	}
	marked, err = store.ListRecoveryMarkers()
	if err != nil {
		t.Fatalf("ListRecoveryMarkers: %v", err)
	}
	if len(marked) != 0 {
		t.Fatalf("marker should be cleared: %v", marked)
	}
	// Clearing twice stays quiet.
	if err := store.ClearRecoveryMarker("demo"); err != nil {
		t.Fatalf("second ClearRecoveryMarker: %v", err)
	}
}

func TestExportPathsValidateBothIDs(t *testing.T) {
	store := newStore(t)
	if _, err := store.ExportPath("demo", "../task"); err == nil {
		t.Fatal("task id with traversal should be rejected")
	}
	path, err := store.ExportLogPath("demo", "task-1")
	if err != nil {
		t.Fatalf("ExportLogPath: %v", err)
	}
	if want := ".mp4.log"; len(path) < len(want) || path[len(path)-len(want):] != want {
		t.Fatalf("unexpected log path: %q", path)
	}
}
