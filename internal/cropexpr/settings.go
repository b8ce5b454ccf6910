package cropexpr

import "focuslens/internal/motion"

// Focal center bounds in normalized frame coordinates.
const (
	centerMin = 0.03
	centerMax = 0.97
)

// Normalized cursor samples are pulled off the frame edges.
const (
	normMin = 0.02
	normMax = 0.98
)

// hybridSettings are the derived follow parameters. Everything is a function
// of intensity and the raw user smoothing; none of these are exposed as
// independent knobs.
type hybridSettings struct {
	followGain      float64
	deadZone        float64
	recenterGain    float64
	microGain       float64
	movementEpsilon float64
	idleThresholdMS float64
}

func deriveSettings(profile motion.Profile) hybridSettings {
	smoothing := clamp(profile.Smoothing, 0, 1)
	resp := 1 - smoothing

	var baseDeadZone, baseFollow, baseMicro float64
	switch profile.Intensity {
	case motion.IntensityLow:
		baseDeadZone, baseFollow, baseMicro = 0.05, 0.22, 0.05
	case motion.IntensityHigh:
		baseDeadZone, baseFollow, baseMicro = 0.026, 0.38, 0.10
	default:
		baseDeadZone, baseFollow, baseMicro = 0.036, 0.30, 0.07
	}

	followGain := clamp(baseFollow+resp*0.30, 0.18, 0.72)
	deadZone := clamp(baseDeadZone-resp*0.012, 0.012, 0.08)

	idle := clamp(float64(profile.IdleThresholdMS), 120, 900)
	idle = clamp(idle*(0.65+smoothing*0.20), 120, 900)

	return hybridSettings{
		followGain:      followGain,
		deadZone:        deadZone,
		recenterGain:    clamp(followGain*0.56, 0.10, 0.36),
		microGain:       clamp(baseMicro+resp*0.06, 0.03, 0.22),
		movementEpsilon: clamp(deadZone*0.10, 0.003, 0.018),
		idleThresholdMS: idle,
	}
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
