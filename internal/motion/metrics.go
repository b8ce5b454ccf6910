package motion

import "math"

// Axis displacement below this threshold is treated as "did not move" and is
// excluded from the latency weighting.
const displacementFloor = 1.0

// Metrics captures the derived UX quality of a smoothed path.
type Metrics struct {
	LatencyMS   float64
	JitterRatio float64
}

// EvaluateMetrics derives transition latency and idle jitter from a raw
// sample sequence and the path ComputePath produced from it.
//
// Latency is the elapsed time until the path first reaches 75% progress
// toward the final sample's displacement, averaging the moving axes with
// equal weight and clamping per-axis progress to [0,1]. Axes that moved less
// than one unit are excluded. When no point crosses the threshold after time
// zero but motion exists, the total elapsed time is reported.
//
// Jitter is the mean absolute deviation of the last ten path x-coordinates
// from their mean, normalized by that mean's magnitude.
func EvaluateMetrics(samples []Sample, path []PathPoint) Metrics {
	return Metrics{
		LatencyMS:   transitionLatency(samples, path),
		JitterRatio: idleJitter(path),
	}
}

func transitionLatency(samples []Sample, path []PathPoint) float64 {
	if len(samples) < 2 || len(path) < 2 {
		return 0
	}

	first := samples[0]
	last := samples[len(samples)-1]
	totalX := math.Abs(last.X - first.X)
	totalY := math.Abs(last.Y - first.Y)
	hasX := totalX >= displacementFloor
	hasY := totalY >= displacementFloor

	axes := 0
	if hasX {
		axes++
	}
	if hasY {
		axes++
	}
	if axes == 0 {
		return 0
	}

	var latency float64
	for _, p := range path {
		var progress float64
		if hasX {
			progress += clamp(math.Abs(p.X-first.X)/totalX, 0, 1)
		}
		if hasY {
			progress += clamp(math.Abs(p.Y-first.Y)/totalY, 0, 1)
		}
		if progress/float64(axes) >= 0.75 {
			latency = float64(p.TMS - first.TMS)
			break
		}
	}
	if latency == 0 {
		latency = float64(last.TMS - first.TMS)
	}
	return latency
}

func idleJitter(path []PathPoint) float64 {
	if len(path) == 0 {
		return 0
	}

	window := path
	if len(window) > 10 {
		window = window[len(window)-10:]
	}

	var mean float64
	for _, p := range window {
		mean += p.X
	}
	mean /= float64(len(window))

	if math.Abs(mean) < 1e-9 {
		return 0
	}

	var mad float64
	for _, p := range window {
		mad += math.Abs(p.X - mean)
	}
	mad /= float64(len(window))

	return mad / math.Abs(mean)
}
