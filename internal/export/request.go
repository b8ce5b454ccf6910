package export

import (
	"fmt"

	"focuslens/internal/services"
)

// Resolution names the vertical target size.
type Resolution string

const (
	Resolution1080p Resolution = "1080p"
	Resolution720p  Resolution = "720p"
)

// AspectRatio names the output frame shape.
type AspectRatio string

const (
	AspectWidescreen AspectRatio = "16:9"
	AspectVertical   AspectRatio = "9:16"
	AspectSquare     AspectRatio = "1:1"
)

// Profile describes one deliverable: MP4, H.264 video, AAC audio.
type Profile struct {
	Resolution  Resolution
	Aspect      AspectRatio
	FPS         int
	BitrateMbps int
}

// DefaultProfile matches the stock deliverable settings.
func DefaultProfile() Profile {
	return Profile{
		Resolution:  Resolution1080p,
		Aspect:      AspectWidescreen,
		FPS:         30,
		BitrateMbps: 8,
	}
}

var profileDimensions = map[Resolution]map[AspectRatio][2]int{
	Resolution1080p: {
		AspectWidescreen: {1920, 1080},
		AspectVertical:   {1080, 1920},
		AspectSquare:     {1080, 1080},
	},
	Resolution720p: {
		AspectWidescreen: {1280, 720},
		AspectVertical:   {720, 1280},
		AspectSquare:     {720, 720},
	},
}

// Normalize fills zero values from the defaults and validates the rest.
func (p Profile) Normalize() (Profile, error) {
	defaults := DefaultProfile()
	if p.Resolution == "" {
		p.Resolution = defaults.Resolution
	}
	if p.Aspect == "" {
		p.Aspect = defaults.Aspect
	}
	if p.FPS <= 0 {
		p.FPS = defaults.FPS
	}
	if p.BitrateMbps <= 0 {
		p.BitrateMbps = defaults.BitrateMbps
	}
	if _, _, err := p.Dimensions(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Dimensions returns the output frame size for this profile.
func (p Profile) Dimensions() (int, int, error) {
	byAspect, ok := profileDimensions[p.Resolution]
	if !ok {
		return 0, 0, services.Wrap(
			services.ErrConfiguration,
			"INVALID_EXPORT_PROFILE",
			fmt.Sprintf("unsupported resolution %q", p.Resolution),
			"use 1080p or 720p",
			nil,
		)
	}
	dims, ok := byAspect[p.Aspect]
	if !ok {
		return 0, 0, services.Wrap(
			services.ErrConfiguration,
			"INVALID_EXPORT_PROFILE",
			fmt.Sprintf("unsupported aspect ratio %q", p.Aspect),
			"use 16:9, 9:16, or 1:1",
			nil,
		)
	}
	return dims[0], dims[1], nil
}

// AspectValue returns the numeric width/height ratio.
func (p Profile) AspectValue() (float64, error) {
	w, h, err := p.Dimensions()
	if err != nil {
		return 0, err
	}
	return float64(w) / float64(h), nil
}
