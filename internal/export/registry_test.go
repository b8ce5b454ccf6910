package export

import (
	"errors"
	"testing"

	"focuslens/internal/services"
)

func TestRegistryRejectsSecondActiveTaskPerProject(t *testing.T) {
	registry := NewRegistry()
	first := newTask("t1", "demo", DefaultProfile(), 0)
	if err := registry.Insert(first); err != nil {
		t.Fatalf("Insert first: %v", err)
	}

	for _, state := range []State{StateQueued, StateRunning, StateFallback} {
		first.mu.Lock()
		first.state = state
		first.mu.Unlock()

		err := registry.Insert(newTask("t2", "demo", DefaultProfile(), 0))
		if err == nil {
			t.Fatalf("insert while first is %s must be rejected", state)
		}
		if !errors.Is(err, services.ErrConflict) {
			t.Fatalf("expected conflict marker, got %v", err)
		}
		if services.CodeOf(err) != "EXPORT_ALREADY_ACTIVE" {
			t.Fatalf("code = %q", services.CodeOf(err))
		}
	}

	// Other projects are admitted alongside.
	if err := registry.Insert(newTask("t3", "other", DefaultProfile(), 0)); err != nil {
		t.Fatalf("other project rejected: %v", err)
	}
}

func TestRegistryAcceptsAfterTerminalStates(t *testing.T) {
	registry := NewRegistry()
	for _, terminal := range []State{StateSuccess, StateFailed} {
		prior := newTask("t-"+string(terminal), "demo", DefaultProfile(), 0)
		prior.mu.Lock()
		prior.state = terminal
		prior.mu.Unlock()
		if err := registry.Insert(prior); err != nil {
			t.Fatalf("insert terminal task: %v", err)
		}

		next := newTask("next-"+string(terminal), "demo", DefaultProfile(), 0)
		if err := registry.Insert(next); err != nil {
			t.Fatalf("insert after %s prior: %v", terminal, err)
		}
		next.mu.Lock()
		next.state = StateFailed
		next.mu.Unlock()
	}
}

func TestRegistryKeepsTerminalTasksForPolling(t *testing.T) {
	registry := NewRegistry()
	task := newTask("t1", "demo", DefaultProfile(), 0)
	if err := registry.Insert(task); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	task.mu.Lock()
	task.state = StateSuccess
	task.mu.Unlock()

	got, err := registry.Get("t1")
	if err != nil {
		t.Fatalf("Get after terminal: %v", err)
	}
	if got.State() != StateSuccess {
		t.Fatalf("state = %s", got.State())
	}
	if len(registry.List()) != 1 {
		t.Fatalf("list size = %d", len(registry.List()))
	}
}

func TestRegistryGetUnknownTask(t *testing.T) {
	registry := NewRegistry()
	_, err := registry.Get("missing")
	if services.CodeOf(err) != "EXPORT_TASK_NOT_FOUND" {
		t.Fatalf("code = %q", services.CodeOf(err))
	}
}
