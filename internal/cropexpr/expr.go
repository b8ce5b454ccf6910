package cropexpr

import (
	"fmt"
	"math"
	"strings"
)

// MaxSegments bounds the piecewise expression size. Encoder expression
// parsers reject deeply nested terms, so longer trajectories are decimated.
const MaxSegments = 64

// downsample thins a full-resolution center trajectory to at most
// MaxSegments+1 points, always keeping the first point and appending the
// final one when decimation skipped it.
func downsample(centers []centerPoint) []centerPoint {
	if len(centers) <= MaxSegments {
		return centers
	}

	step := int(math.Ceil(float64(len(centers)) / float64(MaxSegments)))
	out := make([]centerPoint, 0, MaxSegments+1)
	for i := 0; i < len(centers); i += step {
		out = append(out, centers[i])
	}

	last := centers[len(centers)-1]
	if len(out) == 0 || math.Abs(out[len(out)-1].tSec-last.tSec) > 0.001 {
		out = append(out, last)
	}
	return out
}

// axisValue selects the coordinate a piecewise expression tracks.
type axisValue func(centerPoint) float64

// piecewise compiles center points into a nested linear-interpolation
// expression of the encode-time variable t. Segments nest innermost-latest:
// the final segment sits at the bottom of the if chain and earlier segments
// wrap it. Times before the first point pin to the first value.
func piecewise(points []centerPoint, value axisValue) string {
	switch len(points) {
	case 0:
		return "0.5"
	case 1:
		return formatValue(value(points[0]))
	}

	expr := formatValue(value(points[len(points)-1]))
	for i := len(points) - 2; i >= 0; i-- {
		p0, p1 := points[i], points[i+1]
		dt := math.Max(p1.tSec-p0.tSec, 0.001)
		segment := fmt.Sprintf(
			"(%s+((t-%s)/%s)*(%s))",
			formatValue(value(p0)),
			formatTime(p0.tSec),
			formatTime(dt),
			formatValue(value(p1)-value(p0)),
		)
		expr = fmt.Sprintf("if(lt(t,%s),%s,%s)", formatTime(p1.tSec), segment, expr)
	}

	return fmt.Sprintf("if(lt(t,%s),%s,%s)", formatTime(points[0].tSec), formatValue(value(points[0])), expr)
}

func formatValue(v float64) string {
	return trimFloat(v, 4)
}

func formatTime(v float64) string {
	return trimFloat(v, 3)
}

func trimFloat(v float64, decimals int) string {
	s := fmt.Sprintf("%.*f", decimals, v)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	if s == "" || s == "-" {
		return "0"
	}
	return s
}
