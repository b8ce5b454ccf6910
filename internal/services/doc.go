// Package services defines shared utilities consumed by the recording and
// export services and their external-tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp session IDs, task IDs, and project IDs for
//     logging and tracing.
//   - Structured error markers plus the Wrap helper that translate failures
//     into a uniform boundary record (machine code, message, suggestion).
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// (error handling, observability) stays uniform across the system.
package services
