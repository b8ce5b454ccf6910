// Package quality derives and validates export quality metrics.
//
// It parses encoder diagnostic logs for frame/drop counters and checks the
// resulting drop rates plus the probed A/V offset against fixed thresholds.
// Metrics that could not be measured carry the Unmeasured sentinel so the
// gate can distinguish "measured good" from "not measured".
package quality
