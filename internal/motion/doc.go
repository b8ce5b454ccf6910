// Package motion implements the virtual-camera smoothing engine.
//
// It is a pure function library: given raw cursor samples and a motion
// profile it produces a smoothed camera path plus derived UX metrics
// (transition latency, idle jitter). It performs no I/O and holds no state,
// so every function is safe for concurrent use.
package motion
