package motion

import "math"

// Zoom bounds for any smoothed camera state.
const (
	ZoomMin = 1.0
	ZoomMax = 2.0
)

// Sample is one raw pointer observation. Samples are ordered by TMS but not
// necessarily evenly spaced.
type Sample struct {
	TMS uint64  `json:"tMs"`
	X   float64 `json:"x"`
	Y   float64 `json:"y"`
}

// Point is a smoothed virtual-camera state.
type Point struct {
	X    float64
	Y    float64
	Zoom float64
}

// PathPoint pairs a camera state with its timeline position.
type PathPoint struct {
	TMS uint64
	Point
}

// Config holds the per-tick smoothing parameters. Smoothing is the retained
// fraction per tick; higher values move the camera less per step.
type Config struct {
	Smoothing   float64
	MaxSpeedPx  float64
	MaxZoomStep float64
}

// DefaultConfig returns the baseline smoothing parameters used when no
// intensity preset applies.
func DefaultConfig() Config {
	return Config{
		Smoothing:   0.68,
		MaxSpeedPx:  80,
		MaxZoomStep: 0.08,
	}
}

// Smooth advances prev one tick toward target. Displacement is capped at
// cfg.MaxSpeedPx with direction preserved, the zoom delta is capped at
// cfg.MaxZoomStep sign-preserving, and the resulting zoom is clamped to
// [ZoomMin, ZoomMax]. Smoothing an on-target point returns it unchanged.
func Smooth(prev, target Point, cfg Config) Point {
	alpha := clamp(cfg.Smoothing, 0, 1)
	gain := 1 - alpha

	dx := (target.X - prev.X) * gain
	dy := (target.Y - prev.Y) * gain

	if cfg.MaxSpeedPx > 0 {
		dist := math.Hypot(dx, dy)
		if dist > cfg.MaxSpeedPx {
			scale := cfg.MaxSpeedPx / dist
			dx *= scale
			dy *= scale
		}
	}

	dz := (target.Zoom - prev.Zoom) * gain
	if cfg.MaxZoomStep > 0 && math.Abs(dz) > cfg.MaxZoomStep {
		dz = math.Copysign(cfg.MaxZoomStep, dz)
	}

	return Point{
		X:    prev.X + dx,
		Y:    prev.Y + dy,
		Zoom: clamp(prev.Zoom+dz, ZoomMin, ZoomMax),
	}
}

// ComputePath runs the smoothing step over every cursor sample, tracking a
// camera that starts on the first sample at zoom 1 and converges toward the
// profile's target zoom. An empty input yields an empty path.
func ComputePath(samples []Sample, profile Profile) []PathPoint {
	if len(samples) == 0 {
		return nil
	}

	cfg := profile.Config()
	targetZoom := clamp(profile.TargetZoom(), ZoomMin, ZoomMax)

	state := Point{X: samples[0].X, Y: samples[0].Y, Zoom: ZoomMin}
	path := make([]PathPoint, 0, len(samples))
	for _, s := range samples {
		state = Smooth(state, Point{X: s.X, Y: s.Y, Zoom: targetZoom}, cfg)
		path = append(path, PathPoint{TMS: s.TMS, Point: state})
	}
	return path
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
