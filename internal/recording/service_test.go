package recording

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"

	"focuslens/internal/events"
	"focuslens/internal/process"
	"focuslens/internal/services"
	"focuslens/internal/testsupport"
)

type fixedCursor struct{ x, y float64 }

func (f fixedCursor) Position() (float64, float64, bool) { return f.x, f.y, true }

func newTestService(t *testing.T, collector *events.Collector) *Service {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("test relies on unix shell utilities")
	}
	cfg := testsupport.NewConfig(t)
	svc := NewService(cfg, Deps{
		Cursor: fixedCursor{x: 640, y: 360},
		Bus:    collector,
	})
	// Stand-in encoder: writes a plausible output file, then blocks on its
	// control channel until it is closed by Stop.
	svc.specFor = func(_ Options, outputPath string, _ bool) process.Spec {
		return process.Spec{
			Binary:      "sh",
			Args:        []string{"-c", `head -c 2048 /dev/zero > "$1"; cat >/dev/null`, "sh", outputPath},
			ControlPipe: true,
		}
	}
	return svc
}

func TestStartPauseResumeStopEndsStopped(t *testing.T) {
	collector := events.NewCollector()
	svc := newTestService(t, collector)
	ctx := context.Background()

	session, err := svc.Start(ctx, "demo", Options{FPS: 30})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if session.State() != StateRecording {
		t.Fatalf("state after start = %s", session.State())
	}

	// Give the stand-in time to create the output file and the sampler
	// time to collect a few positions.
	time.Sleep(150 * time.Millisecond)

	if err := svc.Pause(ctx, session.ID); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if session.State() != StatePaused {
		t.Fatalf("state after pause = %s", session.State())
	}
	if err := svc.Resume(ctx, session.ID); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if session.State() != StateRecording {
		t.Fatalf("state after resume = %s", session.State())
	}

	result, err := svc.Stop(ctx, session.ID)
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if session.State() != StateStopped {
		t.Fatalf("state after stop = %s", session.State())
	}
	if result.DurationMS == 0 {
		t.Fatal("stop should report a duration")
	}
	if result.SampleCount == 0 {
		t.Fatal("sampler collected no cursor positions")
	}

	if _, err := svc.registry.Get(session.ID); err == nil {
		t.Fatal("stopped session should leave the registry")
	}

	statuses := collector.Recordings()
	last := statuses[len(statuses)-1]
	if last.Status != events.StatusStopped {
		t.Fatalf("final event status = %q", last.Status)
	}
}

func TestPauseFromIdleRejected(t *testing.T) {
	collector := events.NewCollector()
	svc := newTestService(t, collector)

	idle := newSession("s-idle", "demo", Options{})
	if err := svc.registry.Insert(idle); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	err := svc.Pause(context.Background(), "s-idle")
	if err == nil {
		t.Fatal("pause from idle must be rejected")
	}
	if services.CodeOf(err) != "INVALID_RECORDING_STATE" {
		t.Fatalf("code = %q", services.CodeOf(err))
	}
	if idle.State() != StateIdle {
		t.Fatalf("rejected pause must not change state, got %s", idle.State())
	}
}

func TestStartConflictsWithActiveSession(t *testing.T) {
	collector := events.NewCollector()
	svc := newTestService(t, collector)
	ctx := context.Background()

	first, err := svc.Start(ctx, "demo", Options{})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer svc.Stop(ctx, first.ID)

	_, err = svc.Start(ctx, "demo", Options{})
	if err == nil {
		t.Fatal("second start for the same project must be rejected")
	}
	if !errors.Is(err, services.ErrConflict) {
		t.Fatalf("expected conflict marker, got %v", err)
	}
	if services.CodeOf(err) != "RECORDING_ALREADY_ACTIVE" {
		t.Fatalf("code = %q", services.CodeOf(err))
	}

	// A different project is admitted concurrently.
	other, err := svc.Start(ctx, "other", Options{})
	if err != nil {
		t.Fatalf("start for other project: %v", err)
	}
	svc.Stop(ctx, other.ID)
}

func TestStopFailsOnTinyOutput(t *testing.T) {
	collector := events.NewCollector()
	svc := newTestService(t, collector)
	// Stand-in that never writes the output file.
	svc.specFor = func(_ Options, _ string, _ bool) process.Spec {
		return process.Spec{
			Binary:      "sh",
			Args:        []string{"-c", "cat >/dev/null"},
			ControlPipe: true,
		}
	}
	ctx := context.Background()

	session, err := svc.Start(ctx, "demo", Options{})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	_, err = svc.Stop(ctx, session.ID)
	if err == nil {
		t.Fatal("stop must fail when the output file is missing")
	}
	if services.CodeOf(err) != "RECORDING_OUTPUT_MISSING" {
		t.Fatalf("code = %q", services.CodeOf(err))
	}
	if session.State() != StateError {
		t.Fatalf("failed stop should tear down to error, got %s", session.State())
	}
	if _, err := svc.registry.Get(session.ID); err == nil {
		t.Fatal("failed session should leave the registry")
	}

	statuses := collector.Recordings()
	last := statuses[len(statuses)-1]
	if last.Status != events.StatusError {
		t.Fatalf("final event status = %q", last.Status)
	}
}

func TestStatusLoopDetectsEncoderDeath(t *testing.T) {
	collector := events.NewCollector()
	svc := newTestService(t, collector)
	// Stand-in that exits on its own shortly after the startup grace.
	svc.specFor = func(_ Options, outputPath string, _ bool) process.Spec {
		return process.Spec{
			Binary:      "sh",
			Args:        []string{"-c", `head -c 2048 /dev/zero > "$1"; sleep 0.2`, "sh", outputPath},
			ControlPipe: true,
		}
	}
	ctx := context.Background()

	session, err := svc.Start(ctx, "demo", Options{})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	deadline := time.After(3 * time.Second)
	for session.State() != StateError {
		select {
		case <-deadline:
			t.Fatalf("supervisor never detected encoder death, state=%s", session.State())
		case <-time.After(25 * time.Millisecond):
		}
	}

	if _, err := svc.registry.Get(session.ID); err == nil {
		t.Fatal("crashed session should leave the registry")
	}
	statuses := collector.Recordings()
	if statuses[len(statuses)-1].Status != events.StatusError {
		t.Fatalf("expected terminal error event, got %+v", statuses[len(statuses)-1])
	}
}

func TestStartDegradesOnEarlyExit(t *testing.T) {
	collector := events.NewCollector()
	svc := newTestService(t, collector)
	svc.specFor = func(_ Options, outputPath string, degraded bool) process.Spec {
		if !degraded {
			return process.Spec{
				Binary:      "sh",
				Args:        []string{"-c", "echo cannot open audio device 1>&2; exit 1"},
				ControlPipe: true,
			}
		}
		return process.Spec{
			Binary:      "sh",
			Args:        []string{"-c", `head -c 2048 /dev/zero > "$1"; cat >/dev/null`, "sh", outputPath},
			ControlPipe: true,
		}
	}
	ctx := context.Background()

	session, err := svc.Start(ctx, "demo", Options{CaptureSystemAudio: true})
	if err != nil {
		t.Fatalf("Start with degrade: %v", err)
	}
	defer svc.Stop(ctx, session.ID)

	if session.DegradeMessage() == "" {
		t.Fatal("degraded start should carry a degrade message")
	}
	statuses := collector.Recordings()
	if statuses[0].Detail == "recording started" {
		t.Fatal("start event should surface the degrade message")
	}
}

func TestStopOnUnknownSession(t *testing.T) {
	collector := events.NewCollector()
	svc := newTestService(t, collector)
	_, err := svc.Stop(context.Background(), "missing")
	if services.CodeOf(err) != "SESSION_NOT_FOUND" {
		t.Fatalf("code = %q", services.CodeOf(err))
	}
}
