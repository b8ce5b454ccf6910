package process

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"focuslens/internal/logging"
	"focuslens/internal/services"
)

// Spec describes one external process invocation.
type Spec struct {
	Binary      string
	Args        []string
	ControlPipe bool
}

// Supervisor spawns, monitors, and terminates external encoder processes.
type Supervisor struct {
	logger *slog.Logger
}

// NewSupervisor builds a Supervisor. A nil logger is replaced with a no-op
// logger so wiring code can stay unconditional.
func NewSupervisor(logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Supervisor{logger: logging.NewComponentLogger(logger, "process")}
}

// Spawn starts the process described by spec and begins collecting its
// standard error stream.
func (s *Supervisor) Spawn(ctx context.Context, spec Spec) (*Handle, error) {
	if strings.TrimSpace(spec.Binary) == "" {
		return nil, services.Wrap(services.ErrProcess, "FFMPEG_NOT_FOUND", "encoder binary not configured", "set tools.ffmpeg_binary or FOCUSLENS_FFMPEG_PATH", nil)
	}

	cmd := exec.CommandContext(ctx, spec.Binary, spec.Args...)
	handle := &Handle{
		cmd:    cmd,
		stderr: &boundedBuffer{},
		done:   make(chan struct{}),
	}
	cmd.Stderr = handle.stderr

	if spec.ControlPipe {
		stdin, err := cmd.StdinPipe()
		if err != nil {
			return nil, services.Wrap(services.ErrProcess, "RECORDING_PROCESS_IO", "open encoder control channel", "", err)
		}
		handle.stdin = stdin
	}

	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, services.Wrap(services.ErrProcess, "FFMPEG_NOT_FOUND", fmt.Sprintf("encoder binary %q not found", spec.Binary), "install ffmpeg or point tools.ffmpeg_binary at it", err)
		}
		return nil, services.Wrap(services.ErrProcess, "RECORDING_START_FAIL", "spawn encoder process", "", err)
	}

	go func() {
		err := cmd.Wait()
		handle.mu.Lock()
		handle.exitErr = err
		handle.mu.Unlock()
		close(handle.done)
	}()

	s.logger.DebugContext(ctx, "spawned process",
		logging.String("binary", spec.Binary),
		logging.Int(logging.FieldPID, handle.PID()),
	)
	return handle, nil
}

// SpawnChecked spawns the process and then waits out a short grace period;
// if the process already exited, the captured diagnostics are folded into
// the returned error so callers can decide whether to degrade and retry.
func (s *Supervisor) SpawnChecked(ctx context.Context, spec Spec, grace time.Duration) (*Handle, error) {
	handle, err := s.Spawn(ctx, spec)
	if err != nil {
		return nil, err
	}

	if grace > 0 {
		select {
		case <-handle.done:
		case <-time.After(grace):
		case <-ctx.Done():
		}
	}

	if exited, exitErr := handle.Exited(); exited {
		diag := strings.TrimSpace(handle.Diagnostics())
		s.logger.WarnContext(ctx, "process exited during startup grace period",
			logging.Int(logging.FieldPID, handle.PID()),
			logging.Error(exitErr),
		)
		return nil, services.Wrap(services.ErrProcess, "RECORDING_START_FAIL", "encoder exited immediately", "", fmt.Errorf("early exit: %w: %s", errOrExit(exitErr), diag))
	}
	return handle, nil
}

// SpawnWithDegrade tries the primary spec and, if it exits within the grace
// period, makes exactly one attempt with the degraded spec. The boolean
// reports whether the degraded invocation produced the returned handle.
func (s *Supervisor) SpawnWithDegrade(ctx context.Context, primary, degraded Spec, grace time.Duration) (*Handle, bool, error) {
	handle, err := s.Spawn(ctx, primary)
	if err != nil {
		return nil, false, err
	}

	if grace > 0 {
		select {
		case <-handle.done:
		case <-time.After(grace):
		case <-ctx.Done():
		}
	}

	if exited, exitErr := handle.Exited(); exited {
		s.logger.WarnContext(ctx, "primary capture invocation failed, retrying degraded",
			logging.Int(logging.FieldPID, handle.PID()),
			logging.Error(errOrExit(exitErr)),
		)
		retry, rerr := s.SpawnChecked(ctx, degraded, grace)
		if rerr != nil {
			return nil, false, rerr
		}
		return retry, true, nil
	}
	return handle, false, nil
}

// Stop escalates termination: write the quit token, poll for exit up to
// attempts times at the given interval, then kill. The returned error
// reflects the quit write when the control channel is already broken.
func (s *Supervisor) Stop(ctx context.Context, handle *Handle, quitToken string, attempts int, interval time.Duration) error {
	if handle == nil {
		return nil
	}
	if exited, _ := handle.Exited(); exited {
		return nil
	}

	writeErr := handle.WriteControl(quitToken)
	handle.closeStdin()

	for i := 0; i < attempts; i++ {
		if exited, _ := handle.Exited(); exited {
			return nil
		}
		select {
		case <-handle.done:
			return nil
		case <-time.After(interval):
		case <-ctx.Done():
			_ = handle.Kill()
			return ctx.Err()
		}
	}

	s.logger.WarnContext(ctx, "process ignored quit token, killing",
		logging.Int(logging.FieldPID, handle.PID()),
	)
	if err := handle.Kill(); err != nil {
		return services.Wrap(services.ErrProcess, "RECORDING_STOP_FAIL", "kill encoder process", "", err)
	}
	// Surface a broken control channel even after a successful kill so the
	// caller can mark the stop degraded.
	if writeErr != nil {
		return services.Wrap(services.ErrProcess, "RECORDING_PROCESS_IO", "write quit token", "", writeErr)
	}
	return nil
}

// Run executes a one-shot invocation to completion and returns the full
// diagnostic stderr text regardless of outcome.
func (s *Supervisor) Run(ctx context.Context, spec Spec) (string, error) {
	handle, err := s.Spawn(ctx, spec)
	if err != nil {
		return "", err
	}
	waitErr := handle.Wait()
	diagnostics := handle.Diagnostics()
	if waitErr != nil {
		return diagnostics, services.Wrap(services.ErrExternalTool, "FFMPEG_EXEC_ERROR", "encoder invocation failed", "", waitErr)
	}
	return diagnostics, nil
}

func errOrExit(err error) error {
	if err != nil {
		return err
	}
	return errors.New("exit status 0")
}
