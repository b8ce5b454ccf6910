package recording

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"focuslens/internal/capture"
	"focuslens/internal/config"
	"focuslens/internal/events"
	"focuslens/internal/logging"
	"focuslens/internal/motion"
	"focuslens/internal/notifications"
	"focuslens/internal/process"
	"focuslens/internal/projects"
	"focuslens/internal/services"
)

const (
	pauseToken = "p\n"
	quitToken  = "q\n"
)

// Deps bundles the collaborators a recording Service needs. Nil fields get
// working defaults so wiring code and tests only fill what they care about.
type Deps struct {
	Logger     *slog.Logger
	Supervisor *process.Supervisor
	Store      *projects.Store
	Strategy   capture.Strategy
	Cursor     capture.CursorSource
	Bus        events.Publisher
	Notifier   notifications.Service
}

// Service drives recording sessions end to end.
type Service struct {
	cfg      *config.Config
	logger   *slog.Logger
	sup      *process.Supervisor
	store    *projects.Store
	strategy capture.Strategy
	cursor   capture.CursorSource
	bus      events.Publisher
	notifier notifications.Service
	registry *Registry

	// specFor builds the encoder invocation; replaced in tests.
	specFor func(opts Options, outputPath string, degraded bool) process.Spec
}

// NewService wires a recording Service.
func NewService(cfg *config.Config, deps Deps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	svc := &Service{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "recording"),
		sup:      deps.Supervisor,
		store:    deps.Store,
		strategy: deps.Strategy,
		cursor:   deps.Cursor,
		bus:      deps.Bus,
		notifier: deps.Notifier,
		registry: NewRegistry(),
	}
	if svc.sup == nil {
		svc.sup = process.NewSupervisor(logger)
	}
	if svc.store == nil {
		svc.store = projects.NewStore(cfg.Paths.ProjectRoot, logger)
	}
	if svc.strategy == nil {
		svc.strategy = capture.Current()
	}
	if svc.cursor == nil {
		svc.cursor = capture.NewCursorSource()
	}
	if svc.bus == nil {
		svc.bus = events.NewBus()
	}
	if svc.notifier == nil {
		svc.notifier = notifications.NewService(cfg)
	}
	svc.specFor = func(opts Options, outputPath string, degraded bool) process.Spec {
		args := svc.strategy.RecordingArgs(capture.Options{
			FPS:                opts.FPS,
			CaptureSystemAudio: opts.CaptureSystemAudio,
			CaptureMicrophone:  opts.CaptureMicrophone,
			OutputPath:         outputPath,
		}, degraded)
		return process.Spec{
			Binary:      cfg.FFmpegBinary(),
			Args:        args,
			ControlPipe: true,
		}
	}
	return svc
}

// Registry exposes the session registry for status commands.
func (s *Service) Registry() *Registry { return s.registry }

// Start spawns the encoder for a new session. When the full invocation dies
// within the grace window, one degraded attempt without audio sources is
// made before failing.
func (s *Service) Start(ctx context.Context, projectID string, opts Options) (*Session, error) {
	if err := projects.ValidateProjectID(projectID); err != nil {
		return nil, err
	}

	session := newSession(uuid.NewString(), projectID, opts)
	if err := s.registry.Insert(session); err != nil {
		return nil, err
	}
	ctx = services.WithProjectID(services.WithSessionID(ctx, session.ID), projectID)

	outputPath, err := s.startProcess(ctx, session, opts)
	if err != nil {
		s.registry.Remove(session.ID)
		return nil, err
	}

	if err := s.store.WriteRecoveryMarker(projectID, session.ID); err != nil {
		s.logger.Warn("write recovery marker", logging.Error(err))
	}

	go s.statusLoop(session)
	go s.cursorLoop(session)

	detail := "recording started"
	if msg := session.DegradeMessage(); msg != "" {
		detail = msg
	}
	s.publish(ctx, session, events.StatusRunning, detail)
	s.logger.Info("session started",
		logging.String(logging.FieldSessionID, session.ID),
		logging.String(logging.FieldProjectID, projectID),
		logging.String(logging.FieldPath, outputPath),
		logging.Int(logging.FieldPID, session.handle.PID()),
	)
	return session, nil
}

func (s *Service) startProcess(ctx context.Context, session *Session, opts Options) (string, error) {
	if _, err := s.store.EnsureDir(session.ProjectID); err != nil {
		return "", err
	}
	outputPath, err := s.store.RecordingPath(session.ProjectID)
	if err != nil {
		return "", err
	}

	grace := time.Duration(s.cfg.Recording.EarlyExitCheck) * time.Millisecond
	primary := s.specFor(opts, outputPath, false)
	degraded := s.specFor(opts, outputPath, true)

	handle, usedDegrade, err := s.sup.SpawnWithDegrade(ctx, primary, degraded, grace)
	if err != nil {
		return "", err
	}

	degradeMessage := ""
	if usedDegrade {
		degradeMessage = s.strategy.DegradeMessage()
	}
	session.markStarted(handle, degradeMessage)
	return outputPath, nil
}

// Pause toggles the encoder into pause. The control write must succeed or
// the transition is rejected and the state is left unchanged.
func (s *Service) Pause(ctx context.Context, sessionID string) error {
	session, err := s.registry.Get(sessionID)
	if err != nil {
		return err
	}
	if state := session.State(); state != StateRecording {
		return guard(state, StatePaused)
	}
	if err := session.handle.WriteControl(pauseToken); err != nil {
		return services.Wrap(services.ErrProcess, "RECORDING_PROCESS_IO", "send pause signal", "", err)
	}
	if err := session.transition(StatePaused); err != nil {
		return err
	}
	s.publish(ctx, session, events.StatusPaused, "recording paused")
	return nil
}

// Resume toggles a paused encoder back into capture.
func (s *Service) Resume(ctx context.Context, sessionID string) error {
	session, err := s.registry.Get(sessionID)
	if err != nil {
		return err
	}
	if state := session.State(); state != StatePaused {
		return guard(state, StateRecording)
	}
	if err := session.handle.WriteControl(pauseToken); err != nil {
		return services.Wrap(services.ErrProcess, "RECORDING_PROCESS_IO", "send resume signal", "", err)
	}
	if err := session.transition(StateRecording); err != nil {
		return err
	}
	s.publish(ctx, session, events.StatusRunning, "recording resumed")
	return nil
}

// StopResult summarizes a successful stop.
type StopResult struct {
	OutputPath  string
	DurationMS  uint64
	SampleCount int
}

// Stop terminates the encoder, validates the output, and persists the
// cursor track and manifest. A stop that produced no usable file tears the
// session down and fails.
func (s *Service) Stop(ctx context.Context, sessionID string) (StopResult, error) {
	session, err := s.registry.Get(sessionID)
	if err != nil {
		return StopResult{}, err
	}
	if state := session.State(); !state.Active() {
		return StopResult{}, guard(state, StateStopped)
	}
	ctx = services.WithProjectID(services.WithSessionID(ctx, session.ID), session.ProjectID)

	session.closeLoops()

	attempts := s.cfg.Recording.StopWaitAttempts
	interval := time.Duration(s.cfg.Recording.StopWaitInterval) * time.Millisecond
	if err := s.sup.Stop(ctx, session.handle, quitToken, attempts, interval); err != nil {
		s.logger.Warn("stop escalation", logging.Error(err))
	}

	durationMS := uint64(time.Since(session.StartedAt()).Milliseconds())
	outputPath, err := s.store.RecordingPath(session.ProjectID)
	if err != nil {
		return StopResult{}, err
	}

	info, statErr := os.Stat(outputPath)
	if statErr != nil || info.Size() < s.cfg.Recording.MinOutputBytes {
		s.teardown(ctx, session, "recording produced no usable output")
		return StopResult{}, services.Wrap(
			services.ErrProcess,
			"RECORDING_OUTPUT_MISSING",
			fmt.Sprintf("recording output missing or too small at %s", outputPath),
			"check capture device permissions and free disk space",
			statErr,
		)
	}

	samples := session.drainSamples()
	if err := s.store.SaveCursorTrack(session.ProjectID, samples, durationMS); err != nil {
		s.teardown(ctx, session, "failed to persist cursor track")
		return StopResult{}, err
	}
	if err := s.persistManifest(session.ProjectID, outputPath, durationMS); err != nil {
		s.teardown(ctx, session, "failed to persist project manifest")
		return StopResult{}, err
	}
	if err := s.store.ClearRecoveryMarker(session.ProjectID); err != nil {
		s.logger.Warn("clear recovery marker", logging.Error(err))
	}

	if err := session.transition(StateStopped); err != nil {
		return StopResult{}, err
	}
	s.registry.Remove(session.ID)
	s.publish(ctx, session, events.StatusStopped, fmt.Sprintf("recorded %dms", durationMS))
	s.logger.Info("session stopped",
		logging.String(logging.FieldSessionID, session.ID),
		logging.Int64(logging.FieldDurationMS, int64(durationMS)),
		logging.Int("samples", len(samples)),
	)
	return StopResult{OutputPath: outputPath, DurationMS: durationMS, SampleCount: len(samples)}, nil
}

func (s *Service) persistManifest(projectID, outputPath string, durationMS uint64) error {
	manifest, err := s.store.LoadManifest(projectID)
	if err != nil {
		if !errors.Is(err, services.ErrPrecondition) {
			return err
		}
		manifest = projects.Manifest{
			ProjectID: projectID,
			Camera:    projects.DefaultCameraSettings(),
		}
	}
	manifest.DurationMS = durationMS
	manifest.RecordingFile = outputPath
	return s.store.SaveManifest(manifest)
}

// teardown handles the already-failed path: best-effort cleanup, logged and
// ignored.
func (s *Service) teardown(ctx context.Context, session *Session, detail string) {
	session.closeLoops()
	session.forceError()
	_ = session.handle.Kill()
	if err := s.store.ClearRecoveryMarker(session.ProjectID); err != nil {
		s.logger.Warn("clear recovery marker", logging.Error(err))
	}
	s.registry.Remove(session.ID)
	s.publish(ctx, session, events.StatusError, detail)
	if err := s.notifier.NotifyRecordingError(ctx, session.ProjectID, detail); err != nil {
		s.logger.Warn("notify recording error", logging.Error(err))
	}
}

// statusLoop watches for the encoder dying underneath a live session.
func (s *Service) statusLoop(session *Session) {
	ticker := time.NewTicker(time.Duration(s.cfg.Recording.StatusTickInterval) * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-session.stop:
			return
		case <-ticker.C:
			exited, exitErr := session.handle.Exited()
			if !exited {
				continue
			}
			if !session.forceError() {
				return
			}
			detail := "encoder process exited unexpectedly"
			if exitErr != nil {
				detail = fmt.Sprintf("encoder process exited unexpectedly: %v", exitErr)
			}
			s.logger.Error("encoder died",
				logging.String(logging.FieldSessionID, session.ID),
				logging.Error(exitErr),
			)
			s.teardown(context.Background(), session, detail)
			return
		}
	}
}

// cursorLoop samples the pointer while the session is actively recording.
// Paused sessions keep the loop alive but record nothing.
func (s *Service) cursorLoop(session *Session) {
	ticker := time.NewTicker(time.Duration(s.cfg.Recording.CursorSampleInterval) * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-session.stop:
			return
		case <-ticker.C:
			if session.State() != StateRecording {
				continue
			}
			x, y, ok := s.cursor.Position()
			if !ok {
				continue
			}
			elapsed := time.Since(session.StartedAt())
			if elapsed < 0 {
				elapsed = 0
			}
			session.appendSample(motion.Sample{
				TMS: uint64(elapsed.Milliseconds()),
				X:   x,
				Y:   y,
			})
		}
	}
}

func (s *Service) publish(ctx context.Context, session *Session, status, detail string) {
	s.bus.PublishRecording(ctx, events.RecordingStatus{
		SessionID: session.ID,
		ProjectID: session.ProjectID,
		Status:    status,
		Detail:    detail,
	})
}
