// Package export drives one-shot transcode tasks. Each task runs as its own
// pipeline goroutine: hardware codec first, one software fallback on
// failure, ordered substring classification of residual errors, and a
// post-success probe deriving A/V offset and drop-rate quality metrics.
// Tasks stay registered after finishing so status polling keeps working.
package export
