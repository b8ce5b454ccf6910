package quality_test

import (
	"math"
	"strings"
	"testing"

	"focuslens/internal/quality"
)

func TestValidatePassesInBandMetrics(t *testing.T) {
	reasons := quality.Validate(quality.Metrics{AVOffsetMS: 80, AvgDropRate: 1.8, PeakDropRate: 4.9})
	if len(reasons) != 0 {
		t.Fatalf("expected no reasons, got %v", reasons)
	}
}

func TestValidateUnmeasuredYieldsSingleReason(t *testing.T) {
	reasons := quality.Validate(quality.Metrics{AVOffsetMS: 80, AvgDropRate: -1, PeakDropRate: -1})
	if len(reasons) != 1 {
		t.Fatalf("expected exactly one missing-data reason, got %v", reasons)
	}
}

func TestValidateAllThresholdsOutOfBand(t *testing.T) {
	reasons := quality.Validate(quality.Metrics{AVOffsetMS: 180, AvgDropRate: 2.3, PeakDropRate: 6.2})
	if len(reasons) != 3 {
		t.Fatalf("expected exactly three reasons, got %v", reasons)
	}
}

func TestValidateNegativeOffsetMagnitude(t *testing.T) {
	reasons := quality.Validate(quality.Metrics{AVOffsetMS: -150, AvgDropRate: 0.5, PeakDropRate: 1.0})
	if len(reasons) != 1 {
		t.Fatalf("expected offset reason for negative offset, got %v", reasons)
	}
}

func TestValidateMissingAvgStillChecksPeak(t *testing.T) {
	reasons := quality.Validate(quality.Metrics{AVOffsetMS: 0, AvgDropRate: quality.Unmeasured, PeakDropRate: 6.2})
	if len(reasons) != 2 {
		t.Fatalf("expected missing-data and peak reasons, got %v", reasons)
	}
}

func TestValidateNonFiniteTreatedAsMissing(t *testing.T) {
	reasons := quality.Validate(quality.Metrics{AVOffsetMS: 0, AvgDropRate: math.NaN(), PeakDropRate: 1})
	if len(reasons) != 1 || !strings.Contains(reasons[0], "unavailable") {
		t.Fatalf("expected single missing-data reason, got %v", reasons)
	}
}

func TestParseDropRatesWithFrameCounters(t *testing.T) {
	log := strings.Join([]string{
		"frame= 100 fps=30 drop=2 speed=1x",
		"frame= 200 fps=30 drop=8 speed=1x",
		"frame= 400 fps=30 drop=4 speed=1x",
	}, "\n")

	avg, peak := quality.ParseDropRates(log)
	if avg < 0 || peak < 0 {
		t.Fatalf("expected measured rates, got avg=%f peak=%f", avg, peak)
	}
	if avg > peak {
		t.Fatalf("average %f must not exceed peak %f", avg, peak)
	}
	// 2/100, 8/200, 4/400 as percentages: 2, 4, 1.
	if math.Abs(peak-4.0) > 1e-9 {
		t.Fatalf("peak = %f, want 4.0", peak)
	}
	if math.Abs(avg-(2.0+4.0+1.0)/3) > 1e-9 {
		t.Fatalf("avg = %f", avg)
	}
}

func TestParseDropRatesRawDropWithoutFrames(t *testing.T) {
	avg, peak := quality.ParseDropRates("warning: drop=3\nwarning: drop=7")
	if avg != 5 || peak != 7 {
		t.Fatalf("raw drop parsing: avg=%f peak=%f", avg, peak)
	}
}

func TestParseDropRatesNoMarkerIsSentinel(t *testing.T) {
	avg, peak := quality.ParseDropRates("frame= 100 fps=30 speed=1x\nencoder finished")
	if avg != quality.Unmeasured || peak != quality.Unmeasured {
		t.Fatalf("expected sentinel for missing marker, got avg=%f peak=%f", avg, peak)
	}
}
