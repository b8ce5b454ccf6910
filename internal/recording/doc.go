// Package recording governs capture session lifecycles.
//
// Each session owns exactly one external encoder process. The Service
// guards every transition (pause only from Recording, resume only from
// Paused, stop from either), runs a status ticker that force-fails sessions
// whose process died on its own, and samples the cursor position while
// recording. Stop validates the produced file against a byte-size floor and
// can itself fail; a failed stop tears the session down with a terminal
// error rather than reporting success.
//
// The registry admits at most one active session per project; the scan and
// the insert happen under one lock so concurrent starts cannot both pass
// the check.
package recording
