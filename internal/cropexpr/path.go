package cropexpr

import (
	"math"

	"focuslens/internal/motion"
)

// centerPoint is one focal-center position on the timeline.
type centerPoint struct {
	tSec float64
	x    float64
	y    float64
}

// computeCenters runs the hybrid follow over a normalized cursor track at
// full sample resolution. The center starts on the first sample and either
// follows the cursor (dead-zone gated) or, after enough accumulated idle
// time, decays toward frame center.
func computeCenters(track []motion.Sample, frameW, frameH float64, settings hybridSettings) []centerPoint {
	if len(track) == 0 || frameW <= 0 || frameH <= 0 {
		return nil
	}

	normalize := func(s motion.Sample) (float64, float64) {
		return clamp(s.X/frameW, normMin, normMax), clamp(s.Y/frameH, normMin, normMax)
	}

	cx, cy := normalize(track[0])
	cx = clamp(cx, centerMin, centerMax)
	cy = clamp(cy, centerMin, centerMax)

	centers := make([]centerPoint, 0, len(track))
	centers = append(centers, centerPoint{tSec: float64(track[0].TMS) / 1000, x: cx, y: cy})

	prevX, prevY := normalize(track[0])
	var idleMS float64

	for i := 1; i < len(track); i++ {
		nx, ny := normalize(track[i])
		dtMS := float64(track[i].TMS) - float64(track[i-1].TMS)
		if dtMS < 0 {
			dtMS = 0
		}

		moved := math.Hypot(nx-prevX, ny-prevY)
		if moved < settings.movementEpsilon {
			idleMS += dtMS
		} else {
			idleMS = 0
		}
		prevX, prevY = nx, ny

		if idleMS >= settings.idleThresholdMS {
			cx += (0.5 - cx) * settings.recenterGain
			cy += (0.5 - cy) * settings.recenterGain
			cx = clamp(cx, centerMin, centerMax)
			cy = clamp(cy, centerMin, centerMax)
		} else {
			cx = followAxis(cx, nx, settings)
			cy = followAxis(cy, ny, settings)
		}

		centers = append(centers, centerPoint{tSec: float64(track[i].TMS) / 1000, x: cx, y: cy})
	}
	return centers
}

// followAxis advances one axis of the focal center toward target. Inside the
// dead zone a small constant micro gain applies so the camera never feels
// stuck; outside it, only the excess beyond the dead zone is followed.
func followAxis(center, target float64, settings hybridSettings) float64 {
	delta := target - center
	if math.Abs(delta) <= settings.deadZone {
		return clamp(center+delta*settings.microGain, centerMin, centerMax)
	}
	excess := math.Abs(delta) - settings.deadZone
	return clamp(center+math.Copysign(excess*settings.followGain, delta), centerMin, centerMax)
}
