package quality

import (
	"math"
	"strconv"
	"strings"
)

// Unmeasured marks a drop-rate metric that could not be derived because the
// diagnostic log carried no drop counters.
const Unmeasured = -1.0

// Acceptance thresholds for the export quality gate.
const (
	MaxAVOffsetMS   = 100.0
	MaxAvgDropRate  = 2.0
	MaxPeakDropRate = 5.0
)

// Metrics holds the derived quality figures for a finished export.
type Metrics struct {
	AVOffsetMS   float64
	AvgDropRate  float64
	PeakDropRate float64
}

// ParseDropRates scans an encoder diagnostic log for drop counters and
// returns the average and peak drop rate as percentages. Lines carrying a
// frame counter yield drop/frame*100; lines with only a drop counter yield
// the raw drop value. A log without any drop marker returns Unmeasured for
// both figures.
func ParseDropRates(log string) (avg, peak float64) {
	var rates []float64
	for _, line := range strings.Split(log, "\n") {
		drop, ok := extractCounter(line, "drop=")
		if !ok {
			continue
		}
		rate := drop
		if frame, ok := extractCounter(line, "frame="); ok && frame > 0 {
			rate = drop / frame * 100
		}
		rates = append(rates, rate)
	}

	if len(rates) == 0 {
		return Unmeasured, Unmeasured
	}

	var sum float64
	peak = rates[0]
	for _, r := range rates {
		sum += r
		if r > peak {
			peak = r
		}
	}
	return sum / float64(len(rates)), peak
}

func extractCounter(line, marker string) (float64, bool) {
	idx := strings.Index(line, marker)
	if idx < 0 {
		return 0, false
	}
	rest := strings.TrimLeft(line[idx+len(marker):], " ")
	end := 0
	for end < len(rest) {
		c := rest[end]
		if (c < '0' || c > '9') && c != '.' && c != '-' {
			break
		}
		end++
	}
	value, err := strconv.ParseFloat(rest[:end], 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// Validate checks metrics against the acceptance thresholds and returns one
// reason per violated rule. Unmeasured or non-finite drop rates add a
// missing-data reason; the threshold checks still run, so a figure that is
// both present and out of band is reported alongside a missing one. An empty
// result means the export passed the gate.
func Validate(m Metrics) []string {
	var reasons []string

	missing := m.AvgDropRate < 0 || m.PeakDropRate < 0 ||
		math.IsNaN(m.AvgDropRate) || math.IsInf(m.AvgDropRate, 0) ||
		math.IsNaN(m.PeakDropRate) || math.IsInf(m.PeakDropRate, 0)
	if missing {
		reasons = append(reasons, "drop rate metrics unavailable in encoder log")
	}

	if math.Abs(m.AVOffsetMS) > MaxAVOffsetMS {
		reasons = append(reasons, "audio/video offset exceeds 100ms")
	}
	if m.AvgDropRate > MaxAvgDropRate {
		reasons = append(reasons, "average drop rate exceeds 2%")
	}
	if m.PeakDropRate > MaxPeakDropRate {
		reasons = append(reasons, "peak drop rate exceeds 5%")
	}

	return reasons
}
