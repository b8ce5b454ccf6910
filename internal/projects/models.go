package projects

import (
	"strings"
	"time"

	"focuslens/internal/motion"
	"focuslens/internal/services"
)

// Manifest is the persisted per-project state.
type Manifest struct {
	ProjectID     string         `json:"projectId"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
	DurationMS    uint64         `json:"durationMs"`
	FrameWidth    int            `json:"frameWidth"`
	FrameHeight   int            `json:"frameHeight"`
	RecordingFile string         `json:"recordingFile"`
	Camera        CameraSettings `json:"camera"`
	Timeline      Timeline       `json:"timeline"`
}

// CameraSettings is the user-facing autoframing configuration stored with a
// project.
type CameraSettings struct {
	Enabled         bool    `json:"enabled"`
	Intensity       string  `json:"intensity"`
	Smoothing       float64 `json:"smoothing"`
	MaxZoom         float64 `json:"maxZoom"`
	IdleThresholdMS uint64  `json:"idleThresholdMs"`
	CursorHighlight bool    `json:"cursorHighlight"`
}

// Timeline holds the trim range in milliseconds. A zero TrimEndMS means
// "end of recording" and is resolved against the probed duration at export
// time.
type Timeline struct {
	TrimStartMS uint64 `json:"trimStartMs"`
	TrimEndMS   uint64 `json:"trimEndMs"`
}

// DefaultCameraSettings mirrors motion.DefaultProfile.
func DefaultCameraSettings() CameraSettings {
	p := motion.DefaultProfile()
	return CameraSettings{
		Enabled:         p.Enabled,
		Intensity:       p.Intensity.String(),
		Smoothing:       p.Smoothing,
		MaxZoom:         p.MaxZoom,
		IdleThresholdMS: p.IdleThresholdMS,
	}
}

// Profile converts stored camera settings into a motion profile. Invalid
// intensity strings surface a configuration error instead of a silent
// default.
func (c CameraSettings) Profile() (motion.Profile, error) {
	intensity, err := motion.ParseIntensity(c.Intensity)
	if err != nil {
		return motion.Profile{}, services.Wrap(services.ErrConfiguration, "INVALID_CAMERA_SETTINGS", "invalid camera intensity", "use low, medium, or high", err)
	}
	// Manifests written before the zoom cap existed carry a zero MaxZoom;
	// those get the default cap rather than being clamped to no zoom at all.
	maxZoom := c.MaxZoom
	if maxZoom == 0 {
		maxZoom = motion.DefaultProfile().MaxZoom
	}
	return motion.Profile{
		Enabled:         c.Enabled,
		Intensity:       intensity,
		Smoothing:       clampFloat(c.Smoothing, 0, 1),
		MaxZoom:         clampFloat(maxZoom, motion.ZoomMin, motion.ZoomMax),
		IdleThresholdMS: c.IdleThresholdMS,
	}, nil
}

// ValidateProjectID rejects identifiers that could escape the project root
// when used as a path component.
func ValidateProjectID(id string) error {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" ||
		strings.ContainsAny(trimmed, `/\`) ||
		strings.Contains(trimmed, "..") {
		return services.Wrap(services.ErrConfiguration, "INVALID_PROJECT_ID", "project id must be a plain directory name", "", nil)
	}
	return nil
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
