package services_test

import (
	"errors"
	"fmt"
	"testing"

	"focuslens/internal/services"
)

func TestWrapCarriesMarkerAndCause(t *testing.T) {
	cause := errors.New("disk exploded")
	err := services.Wrap(services.ErrExternalTool, "IO_FAIL", "export failed", "inspect the export log", cause)

	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatal("expected marker to satisfy errors.Is")
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected cause to satisfy errors.Is")
	}
	if got := services.CodeOf(err); got != "IO_FAIL" {
		t.Fatalf("CodeOf = %q, want IO_FAIL", got)
	}
	if got := services.SuggestionOf(err); got != "inspect the export log" {
		t.Fatalf("SuggestionOf = %q", got)
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "GENERIC", "something broke", "", nil)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatal("nil marker should default to ErrExternalTool")
	}
}

func TestCodeOfSurvivesWrapping(t *testing.T) {
	inner := services.Wrap(services.ErrPrecondition, "SESSION_NOT_FOUND", "no such session", "", nil)
	outer := fmt.Errorf("stop recording: %w", inner)
	if got := services.CodeOf(outer); got != "SESSION_NOT_FOUND" {
		t.Fatalf("CodeOf through fmt wrap = %q", got)
	}
	if services.CodeOf(errors.New("plain")) != "" {
		t.Fatal("plain error should have empty code")
	}
}
