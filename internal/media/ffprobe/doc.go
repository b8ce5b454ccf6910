// Package ffprobe wraps media inspection through the ffprobe binary.
//
// Inspect shells out once and decodes the JSON stream/format report; the
// accessor methods derive the figures the export pipeline needs, most
// importantly per-stream durations for the A/V offset computation and the
// container duration used as the default trim end.
package ffprobe
