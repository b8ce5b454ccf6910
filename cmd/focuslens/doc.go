// Package main hosts the FocusLens CLI entrypoint and command graph.
//
// The Cobra-based command tree drives screen recording sessions, autoframed
// exports, media probing, device listing, export history, and configuration
// scaffolding. It centralizes configuration resolution, instance locking,
// and structured logging setup so subcommands can focus on user experience
// instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
