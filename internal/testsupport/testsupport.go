// Package testsupport provides shared helpers for package tests.
package testsupport

import (
	"testing"

	"focuslens/internal/config"
)

// NewConfig returns a validated configuration rooted in per-test temp
// directories, with intervals shortened so supervision loops run quickly.
func NewConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Paths.ProjectRoot = t.TempDir()
	cfg.Paths.DataDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()

	cfg.Recording.StatusTickInterval = 25
	cfg.Recording.CursorSampleInterval = 10
	cfg.Recording.EarlyExitCheck = 50
	cfg.Recording.StopWaitAttempts = 20
	cfg.Recording.StopWaitInterval = 25

	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("test config directories: %v", err)
	}
	return &cfg
}
