package motion

import (
	"fmt"
	"math"
	"strings"
)

// Intensity selects one of three fixed responsiveness presets.
type Intensity int

const (
	IntensityLow Intensity = iota
	IntensityMedium
	IntensityHigh
)

func (i Intensity) String() string {
	switch i {
	case IntensityLow:
		return "low"
	case IntensityHigh:
		return "high"
	default:
		return "medium"
	}
}

// ParseIntensity maps a config string onto an Intensity. Unknown values
// return an error rather than a silent default.
func ParseIntensity(value string) (Intensity, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "low":
		return IntensityLow, nil
	case "medium", "":
		return IntensityMedium, nil
	case "high":
		return IntensityHigh, nil
	default:
		return IntensityMedium, fmt.Errorf("unknown intensity %q", value)
	}
}

// Profile is the user-tunable motion configuration. Smoothing blends 50/50
// into the intensity preset; MaxZoom caps the adaptive zoom; IdleThresholdMS
// controls how quickly an idle camera recenters.
type Profile struct {
	Enabled         bool
	Intensity       Intensity
	Smoothing       float64
	MaxZoom         float64
	IdleThresholdMS uint64
}

// DefaultProfile returns the medium-intensity profile used when a project
// carries no explicit camera settings.
func DefaultProfile() Profile {
	return Profile{
		Enabled:         true,
		Intensity:       IntensityMedium,
		Smoothing:       0.56,
		MaxZoom:         1.35,
		IdleThresholdMS: 420,
	}
}

func (i Intensity) baseConfig() Config {
	switch i {
	case IntensityLow:
		return Config{Smoothing: 0.72, MaxSpeedPx: 120, MaxZoomStep: 0.05}
	case IntensityHigh:
		return Config{Smoothing: 0.42, MaxSpeedPx: 360, MaxZoomStep: 0.14}
	default:
		return Config{Smoothing: 0.56, MaxSpeedPx: 260, MaxZoomStep: 0.10}
	}
}

func (i Intensity) baseZoom() float64 {
	switch i {
	case IntensityLow:
		return 1.03
	case IntensityHigh:
		return 1.14
	default:
		return 1.08
	}
}

// Config derives the per-tick smoothing parameters from the intensity preset
// blended 50/50 with the user smoothing preference.
func (p Profile) Config() Config {
	cfg := p.Intensity.baseConfig()
	cfg.Smoothing = clamp((cfg.Smoothing+clamp(p.Smoothing, 0, 1))*0.5, 0, 1)
	return cfg
}

// TargetZoom derives the adaptive zoom: the intensity's base zoom plus the
// headroom toward the user cap, scaled by responsiveness to the raw user
// smoothing. Disabled profiles pin the camera at zoom 1.
func (p Profile) TargetZoom() float64 {
	if !p.Enabled {
		return ZoomMin
	}
	base := p.Intensity.baseZoom()
	resp := clamp(1-p.Smoothing, 0, 1)
	ceiling := clamp(p.MaxZoom, ZoomMin, ZoomMax)
	room := math.Max(ceiling-base, 0)
	zoom := base + room*(0.35+resp*0.65)
	if zoom > ceiling {
		zoom = ceiling
	}
	return clamp(zoom, ZoomMin, ZoomMax)
}
