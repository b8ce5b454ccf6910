package export

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"focuslens/internal/capture"
	"focuslens/internal/config"
	"focuslens/internal/events"
	"focuslens/internal/history"
	"focuslens/internal/logging"
	"focuslens/internal/media/ffprobe"
	"focuslens/internal/notifications"
	"focuslens/internal/process"
	"focuslens/internal/projects"
	"focuslens/internal/quality"
	"focuslens/internal/services"
)

// logSeparator joins the diagnostic output of both encode attempts in the
// persisted export log.
const logSeparator = "\n---- fallback ----\n"

// invoker matches the one-shot invocation surface of process.Supervisor.
type invoker interface {
	Run(ctx context.Context, spec process.Spec) (string, error)
}

// Deps bundles the collaborators an export Service needs. Nil fields get
// working defaults so wiring code and tests only fill what they care about.
type Deps struct {
	Logger   *slog.Logger
	Invoker  invoker
	Store    *projects.Store
	Strategy capture.Strategy
	Bus      events.Publisher
	Notifier notifications.Service
	History  *history.Store
}

// Service drives export tasks end to end: one pipeline goroutine per task,
// hardware attempt first, one software fallback, classification of residual
// failures, and a post-success quality probe.
type Service struct {
	cfg      *config.Config
	logger   *slog.Logger
	invoker  invoker
	store    *projects.Store
	strategy capture.Strategy
	bus      events.Publisher
	notifier notifications.Service
	history  *history.Store
	registry *Registry

	// probe inspects media files; replaced in tests.
	probe func(ctx context.Context, binary, path string) (ffprobe.Result, error)
}

// NewService wires an export Service.
func NewService(cfg *config.Config, deps Deps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	svc := &Service{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "export"),
		invoker:  deps.Invoker,
		store:    deps.Store,
		strategy: deps.Strategy,
		bus:      deps.Bus,
		notifier: deps.Notifier,
		history:  deps.History,
		registry: NewRegistry(),
		probe:    ffprobe.Inspect,
	}
	if svc.invoker == nil {
		svc.invoker = process.NewSupervisor(logger)
	}
	if svc.store == nil {
		svc.store = projects.NewStore(cfg.Paths.ProjectRoot, logger)
	}
	if svc.strategy == nil {
		svc.strategy = capture.Current()
	}
	if svc.bus == nil {
		svc.bus = events.NewBus()
	}
	if svc.notifier == nil {
		svc.notifier = notifications.NewService(cfg)
	}
	return svc
}

// Registry exposes the task registry for status commands.
func (s *Service) Registry() *Registry { return s.registry }

// Start validates the request, admits a task, and launches its pipeline.
// The returned task is already queued; callers observe completion through
// Task.Wait or the event bus.
func (s *Service) Start(ctx context.Context, projectID string, profile Profile) (*Task, error) {
	return s.start(ctx, projectID, profile, 0)
}

// Retry creates a fresh task for a finished one, carrying the retry count
// forward by exactly one. The old task stays in the registry for polling.
func (s *Service) Retry(ctx context.Context, taskID string) (*Task, error) {
	previous, err := s.registry.Get(taskID)
	if err != nil {
		return nil, err
	}
	return s.start(ctx, previous.ProjectID, previous.Profile, previous.Retries+1)
}

func (s *Service) start(ctx context.Context, projectID string, profile Profile, retries int) (*Task, error) {
	if err := projects.ValidateProjectID(projectID); err != nil {
		return nil, err
	}
	profile, err := profile.Normalize()
	if err != nil {
		return nil, err
	}
	manifest, err := s.store.LoadManifest(projectID)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(manifest.RecordingFile); err != nil {
		return nil, services.Wrap(
			services.ErrPrecondition,
			"PROJECT_ASSET_MISSING",
			"recording file missing for project "+projectID,
			"record the project before exporting",
			err,
		)
	}

	task := newTask(uuid.NewString(), projectID, profile, retries)
	if err := s.registry.Insert(task); err != nil {
		return nil, err
	}

	s.publish(ctx, task, events.StatusQueued, 0, "queued")
	go s.pipeline(task, manifest)
	return task, nil
}

// pipeline runs one export end to end. It owns the task's state for its
// whole lifetime; no other goroutine transitions the task.
func (s *Service) pipeline(task *Task, manifest projects.Manifest) {
	ctx := services.WithProjectID(services.WithTaskID(context.Background(), task.ID), task.ProjectID)
	if s.cfg.Export.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s.cfg.Export.TimeoutSeconds)*time.Second)
		defer cancel()
	}
	defer task.finish()

	if err := task.transition(StateRunning); err != nil {
		s.fail(ctx, task, err)
		return
	}
	s.publish(ctx, task, events.StatusRunning, 20, "parsing config")

	plan, outputPath, err := s.preparePlan(ctx, task, manifest)
	if err != nil {
		s.fail(ctx, task, err)
		return
	}

	hardware := s.strategy.HardwareCodec()
	if hardware != capture.SoftwareCodec && !capture.EncoderAvailable(ctx, s.invoker, s.cfg.FFmpegBinary(), hardware) {
		s.logger.Warn("hardware encoder not confirmed, attempting anyway",
			logging.String(logging.FieldCodec, hardware),
			logging.String(logging.FieldTaskID, task.ID),
		)
	}

	s.publish(ctx, task, events.StatusRunning, 50, "encoding")

	codec := hardware
	diagnostics, encodeErr := s.invoker.Run(ctx, process.Spec{
		Binary: s.cfg.FFmpegBinary(),
		Args:   plan.args(hardware),
	})

	if encodeErr != nil && hardware != capture.SoftwareCodec {
		if err := task.transition(StateFallback); err != nil {
			s.fail(ctx, task, err)
			return
		}
		s.publish(ctx, task, events.StatusFallback, 62, "hardware encoder failed, retrying with software codec")

		codec = capture.SoftwareCodec
		var fallbackDiag string
		fallbackDiag, encodeErr = s.invoker.Run(ctx, process.Spec{
			Binary: s.cfg.FFmpegBinary(),
			Args:   plan.args(capture.SoftwareCodec),
		})
		diagnostics += logSeparator + fallbackDiag
	}

	s.persistLog(task, diagnostics)

	if encodeErr != nil {
		s.fail(ctx, task, Classify(diagnostics, encodeErr))
		return
	}

	task.markCodec(codec, codec != hardware)
	task.markOutput(outputPath)
	s.publish(ctx, task, events.StatusRunning, 85, "muxing")

	metrics := s.measure(ctx, task, outputPath, diagnostics)
	reasons := quality.Validate(metrics)
	task.markQuality(metrics, reasons)
	for _, reason := range reasons {
		s.logger.Warn("quality gate violation",
			logging.String(logging.FieldTaskID, task.ID),
			logging.String("reason", reason),
		)
	}

	if err := task.transition(StateSuccess); err != nil {
		s.fail(ctx, task, err)
		return
	}
	s.recordHistory(ctx, task)
	s.publish(ctx, task, events.StatusSuccess, 100, "export complete")
	if err := s.notifier.NotifyExportCompleted(ctx, task.ProjectID, outputPath, task.FallbackUsed()); err != nil {
		s.logger.Warn("notify export completed", logging.Error(err))
	}
	s.logger.Info("export finished",
		logging.String(logging.FieldTaskID, task.ID),
		logging.String(logging.FieldProjectID, task.ProjectID),
		logging.String(logging.FieldCodec, codec),
		logging.Bool("fallback", task.FallbackUsed()),
		logging.String(logging.FieldPath, outputPath),
	)
}

// preparePlan loads the cursor track, resolves the default trim end and the
// source frame dimensions from the container, and compiles the crop plan.
func (s *Service) preparePlan(ctx context.Context, task *Task, manifest projects.Manifest) (encodePlan, string, error) {
	outputPath, err := s.store.ExportPath(task.ProjectID, task.ID)
	if err != nil {
		return encodePlan{}, "", err
	}
	track, err := s.store.LoadCursorTrack(task.ProjectID, manifest.DurationMS)
	if err != nil {
		return encodePlan{}, "", err
	}

	if manifest.Timeline.TrimEndMS == 0 || manifest.FrameWidth <= 0 || manifest.FrameHeight <= 0 {
		if result, probeErr := s.probe(ctx, s.cfg.FFprobeBinary(), manifest.RecordingFile); probeErr == nil {
			if manifest.Timeline.TrimEndMS == 0 {
				if duration := result.ContainerDurationMS(); duration > 0 {
					manifest.Timeline.TrimEndMS = uint64(duration)
				}
			}
			if manifest.FrameWidth <= 0 || manifest.FrameHeight <= 0 {
				if width, height := result.VideoDimensions(); width > 0 && height > 0 {
					manifest.FrameWidth, manifest.FrameHeight = width, height
				}
			}
		} else {
			s.logger.Warn("source probe failed, exporting untrimmed", logging.Error(probeErr))
		}
	}
	if manifest.FrameWidth <= 0 || manifest.FrameHeight <= 0 {
		// Unknown source geometry still gets cursor framing: normalize the
		// track against the target dimensions instead of going static.
		if width, height, derr := task.Profile.Dimensions(); derr == nil {
			manifest.FrameWidth, manifest.FrameHeight = width, height
		}
	}

	plan, err := buildPlan(manifest, task.Profile, track, manifest.RecordingFile, outputPath)
	if err != nil {
		return encodePlan{}, "", err
	}
	return plan, outputPath, nil
}

// measure derives the post-encode quality metrics. A failed output probe is
// logged and leaves the offset unmeasured rather than failing a task whose
// encode already succeeded.
func (s *Service) measure(ctx context.Context, task *Task, outputPath, diagnostics string) quality.Metrics {
	avg, peak := quality.ParseDropRates(diagnostics)
	metrics := quality.Metrics{AvgDropRate: avg, PeakDropRate: peak}

	result, err := s.probe(ctx, s.cfg.FFprobeBinary(), outputPath)
	if err != nil {
		s.logger.Warn("output probe failed",
			logging.String(logging.FieldTaskID, task.ID),
			logging.Error(err),
		)
		return metrics
	}
	metrics.AVOffsetMS = float64(result.AVOffsetMS())
	return metrics
}

func (s *Service) persistLog(task *Task, diagnostics string) {
	logPath, err := s.store.ExportLogPath(task.ProjectID, task.ID)
	if err == nil {
		err = os.WriteFile(logPath, []byte(diagnostics), 0o644)
	}
	if err != nil {
		s.logger.Warn("persist export log",
			logging.String(logging.FieldTaskID, task.ID),
			logging.Error(err),
		)
	}
}

// fail drives the task to Failed and emits the terminal event. A task that
// already reached Success refuses the transition; that refusal is logged
// and the success stands.
func (s *Service) fail(ctx context.Context, task *Task, cause error) {
	task.markFailure(cause)
	if err := task.transition(StateFailed); err != nil {
		s.logger.Error("failed transition rejected",
			logging.String(logging.FieldTaskID, task.ID),
			logging.Error(err),
		)
		return
	}
	s.recordHistory(ctx, task)
	s.publish(ctx, task, events.StatusFailed, task.Progress(), cause.Error())
	if err := s.notifier.NotifyExportFailed(ctx, task.ProjectID, cause.Error()); err != nil {
		s.logger.Warn("notify export failed", logging.Error(err))
	}
	s.logger.Error("export failed",
		logging.String(logging.FieldTaskID, task.ID),
		logging.String(logging.FieldProjectID, task.ProjectID),
		logging.Error(cause),
	)
}

// recordHistory persists the terminal outcome. Best effort: history must
// never block or fail an export.
func (s *Service) recordHistory(ctx context.Context, task *Task) {
	if s.history == nil {
		return
	}
	metrics, _ := task.QualityMetrics()
	record := history.Record{
		TaskID:       task.ID,
		ProjectID:    task.ProjectID,
		Status:       string(task.State()),
		Codec:        task.CodecUsed(),
		FallbackUsed: task.FallbackUsed(),
		Retries:      task.Retries,
		AVOffsetMS:   metrics.AVOffsetMS,
		AvgDropRate:  metrics.AvgDropRate,
		PeakDropRate: metrics.PeakDropRate,
		OutputPath:   task.OutputPath(),
	}
	if cause := task.LastError(); cause != nil {
		record.FailureCode = services.CodeOf(cause)
	}
	if _, err := s.history.Insert(ctx, record); err != nil {
		s.logger.Warn("record export history", logging.Error(err))
	}
}

func (s *Service) publish(ctx context.Context, task *Task, status string, progress int, detail string) {
	task.advance(progress, detail)
	s.bus.PublishExport(ctx, events.ExportProgress{
		TaskID:    task.ID,
		ProjectID: task.ProjectID,
		Status:    status,
		Progress:  task.Progress(),
		Detail:    detail,
	})
}
