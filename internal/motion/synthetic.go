package motion

import "math"

// SyntheticStepMS is the sample spacing of generated trajectories, matching
// the live cursor sampling cadence.
const SyntheticStepMS = 120

// SyntheticAt returns the deterministic stand-in cursor position for a
// timeline instant. It is used when no real pointer source is available so
// downstream stages never see an empty track.
func SyntheticAt(tMS uint64) (x, y float64) {
	t := float64(tMS)
	x = 200 + math.Sin(t/25)*180 + t/60
	y = 160 + math.Cos(t/35)*120
	return x, y
}

// SyntheticTrack generates a full deterministic trajectory covering
// [0, durationMS] inclusive. The final sample always lands exactly on
// durationMS so consumers can rely on full timeline coverage.
func SyntheticTrack(durationMS uint64) []Sample {
	if durationMS == 0 {
		x, y := SyntheticAt(0)
		return []Sample{{TMS: 0, X: x, Y: y}}
	}

	track := make([]Sample, 0, durationMS/SyntheticStepMS+2)
	for t := uint64(0); t <= durationMS; t += SyntheticStepMS {
		x, y := SyntheticAt(t)
		track = append(track, Sample{TMS: t, X: x, Y: y})
	}
	if last := track[len(track)-1]; last.TMS != durationMS {
		x, y := SyntheticAt(durationMS)
		track = append(track, Sample{TMS: durationMS, X: x, Y: y})
	}
	return track
}
