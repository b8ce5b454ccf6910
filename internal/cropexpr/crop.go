package cropexpr

import (
	"fmt"

	"focuslens/internal/motion"
)

// Crop carries the four crop filter operands plus the zoom factor that was
// baked into the window dimensions. All expressions evaluate inside the
// encoder using its iw/ih/ow/oh/t variables.
type Crop struct {
	Width  string
	Height string
	X      string
	Y      string
	Zoom   float64
}

// Build synthesizes a crop window that follows the cursor track. The window
// dimensions letterbox the target aspect ratio against the source and divide
// by the profile's adaptive zoom; the position expressions track the focal
// center clamped so the window never leaves the frame.
//
// An empty track, a disabled profile, or degenerate frame dimensions fall
// back to a static centered window at zoom 1.
func Build(track []motion.Sample, frameW, frameH int, profile motion.Profile, aspect float64) Crop {
	if aspect <= 0 {
		aspect = 16.0 / 9.0
	}
	if len(track) == 0 || frameW <= 0 || frameH <= 0 || !profile.Enabled {
		return StaticCentered(aspect, motion.ZoomMin)
	}

	settings := deriveSettings(profile)
	centers := downsample(computeCenters(track, float64(frameW), float64(frameH), settings))
	zoom := profile.TargetZoom()

	width, height := windowDimensions(aspect, zoom)
	return Crop{
		Width:  width,
		Height: height,
		X:      fmt.Sprintf("max(0,min(iw-ow,iw*(%s)-ow/2))", piecewise(centers, func(p centerPoint) float64 { return p.x })),
		Y:      fmt.Sprintf("max(0,min(ih-oh,ih*(%s)-oh/2))", piecewise(centers, func(p centerPoint) float64 { return p.y })),
		Zoom:   zoom,
	}
}

// StaticCentered returns a fixed centered crop window at the given zoom.
func StaticCentered(aspect, zoom float64) Crop {
	if aspect <= 0 {
		aspect = 16.0 / 9.0
	}
	zoom = clamp(zoom, motion.ZoomMin, motion.ZoomMax)
	width, height := windowDimensions(aspect, zoom)
	return Crop{
		Width:  width,
		Height: height,
		X:      "(iw-ow)/2",
		Y:      "(ih-oh)/2",
		Zoom:   zoom,
	}
}

// windowDimensions builds the letterbox-safe width/height expressions. The
// trunc(../2)*2 rounding keeps both dimensions even for the pixel format.
func windowDimensions(aspect, zoom float64) (string, string) {
	ar := trimFloat(aspect, 6)
	z := trimFloat(zoom, 4)
	width := fmt.Sprintf("if(gt(iw/ih,%s),trunc((ih*%s)/%s/2)*2,trunc(iw/%s/2)*2)", ar, ar, z, z)
	height := fmt.Sprintf("if(gt(iw/ih,%s),trunc(ih/%s/2)*2,trunc((iw/%s)/%s/2)*2)", ar, z, ar, z)
	return width, height
}

// String renders the crop in ffmpeg filter syntax. Operands are quoted so
// the commas inside the piecewise expressions survive filter-graph parsing.
func (c Crop) String() string {
	return fmt.Sprintf("crop=w='%s':h='%s':x='%s':y='%s'", c.Width, c.Height, c.X, c.Y)
}
