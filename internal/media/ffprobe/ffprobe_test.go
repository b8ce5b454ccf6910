package ffprobe_test

import (
	"testing"

	"focuslens/internal/media/ffprobe"
)

const samplePayload = `{
  "streams": [
    {"index": 0, "codec_type": "video", "codec_name": "h264", "duration": "12.480", "width": 1920, "height": 1080},
    {"index": 1, "codec_type": "audio", "codec_name": "aac", "duration": "12.400"}
  ],
  "format": {"filename": "recording.mp4", "duration": "12.512", "size": "1048576"}
}`

func TestParseDerivesDurations(t *testing.T) {
	result, err := ffprobe.Parse([]byte(samplePayload))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if got := result.ContainerDurationMS(); got != 12512 {
		t.Fatalf("container duration = %d, want 12512", got)
	}
	if got := result.VideoDurationMS(); got != 12480 {
		t.Fatalf("video duration = %d, want 12480", got)
	}
	if got := result.AudioDurationMS(); got != 12400 {
		t.Fatalf("audio duration = %d, want 12400", got)
	}
	if got := result.AVOffsetMS(); got != 80 {
		t.Fatalf("av offset = %d, want 80", got)
	}
	w, h := result.VideoDimensions()
	if w != 1920 || h != 1080 {
		t.Fatalf("dimensions = %dx%d", w, h)
	}
	if !result.HasAudio() {
		t.Fatal("expected audio stream")
	}
}

func TestAVOffsetZeroWhenStreamMissing(t *testing.T) {
	payload := `{
  "streams": [{"index": 0, "codec_type": "video", "duration": "8.000"}],
  "format": {"duration": "8.020"}
}`
	result, err := ffprobe.Parse([]byte(payload))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if got := result.AVOffsetMS(); got != 0 {
		t.Fatalf("offset without audio = %d, want 0", got)
	}
	if result.HasAudio() {
		t.Fatal("expected no audio stream")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := ffprobe.Parse([]byte("not json")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestDurationsToleratesBlankFields(t *testing.T) {
	payload := `{"streams": [{"codec_type": "video", "duration": ""}], "format": {}}`
	result, err := ffprobe.Parse([]byte(payload))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if result.VideoDurationMS() != 0 || result.ContainerDurationMS() != 0 {
		t.Fatal("blank durations should read as zero")
	}
}
