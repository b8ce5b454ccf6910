// Package process supervises external encoder processes.
//
// The Supervisor spawns long-running recorder processes with an early-exit
// grace check and a single degrade-and-respawn attempt, runs one-shot encode
// invocations with full stderr capture, and escalates termination from a
// control-channel quit write through bounded polling to a forceful kill.
//
// Liveness checks go through the OS process table rather than trusting the
// child's wait status alone, since a crashed recorder can leave a reaped but
// never-awaited handle behind.
package process
