package export

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"focuslens/internal/capture"
	"focuslens/internal/events"
	"focuslens/internal/history"
	"focuslens/internal/media/ffprobe"
	"focuslens/internal/motion"
	"focuslens/internal/process"
	"focuslens/internal/projects"
	"focuslens/internal/quality"
	"focuslens/internal/services"
	"focuslens/internal/testsupport"
)

type encodeResult struct {
	diagnostics string
	err         error
}

// scriptedInvoker answers capability probes with a canned listing and feeds
// encode attempts from a queue.
type scriptedInvoker struct {
	mu      sync.Mutex
	queue   []encodeResult
	encodes [][]string
	gate    chan struct{}
}

func (s *scriptedInvoker) Run(_ context.Context, spec process.Spec) (string, error) {
	for _, arg := range spec.Args {
		if arg == "-encoders" {
			return "V....D h264_nvenc   NVIDIA NVENC H.264 encoder", nil
		}
	}
	if s.gate != nil {
		<-s.gate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.encodes = append(s.encodes, spec.Args)
	if len(s.queue) == 0 {
		return "", errors.New("unscripted encode attempt")
	}
	next := s.queue[0]
	s.queue = s.queue[1:]
	return next.diagnostics, next.err
}

type fakeStrategy struct{ hardware string }

func (f fakeStrategy) Name() string                                 { return "fake" }
func (f fakeStrategy) RecordingArgs(capture.Options, bool) []string { return nil }
func (f fakeStrategy) HardwareCodec() string                        { return f.hardware }
func (f fakeStrategy) DegradeMessage() string                       { return "degraded" }

const probePayload = `{
  "streams": [
    {"index": 0, "codec_type": "video", "codec_name": "h264", "duration": "2.000", "width": 1920, "height": 1080},
    {"index": 1, "codec_type": "audio", "codec_name": "aac", "duration": "1.960"}
  ],
  "format": {"duration": "2.000", "size": "1048576"}
}`

type harness struct {
	svc       *Service
	store     *projects.Store
	history   *history.Store
	collector *events.Collector
	invoker   *scriptedInvoker
}

func newHarness(t *testing.T, invoker *scriptedInvoker) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	collector := events.NewCollector()
	hist, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() { hist.Close() })

	svc := NewService(cfg, Deps{
		Invoker:  invoker,
		Strategy: fakeStrategy{hardware: "h264_nvenc"},
		Bus:      collector,
		History:  hist,
	})
	svc.probe = func(context.Context, string, string) (ffprobe.Result, error) {
		return ffprobe.Parse([]byte(probePayload))
	}
	return &harness{svc: svc, store: svc.store, history: hist, collector: collector, invoker: invoker}
}

func (h *harness) seedProject(t *testing.T, projectID string) {
	t.Helper()
	if _, err := h.store.EnsureDir(projectID); err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}
	recordingPath, err := h.store.RecordingPath(projectID)
	if err != nil {
		t.Fatalf("RecordingPath: %v", err)
	}
	if err := os.WriteFile(recordingPath, make([]byte, 4096), 0o644); err != nil {
		t.Fatalf("write recording: %v", err)
	}
	manifest := projects.Manifest{
		ProjectID:     projectID,
		DurationMS:    2000,
		FrameWidth:    1920,
		FrameHeight:   1080,
		RecordingFile: recordingPath,
		Camera:        projects.DefaultCameraSettings(),
	}
	if err := h.store.SaveManifest(manifest); err != nil {
		t.Fatalf("SaveManifest: %v", err)
	}
}

func waitTask(t *testing.T, task *Task) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := task.Wait(ctx); err != nil {
		t.Fatalf("task never finished: %v", err)
	}
}

func TestPipelineSucceedsWithHardwareCodec(t *testing.T) {
	invoker := &scriptedInvoker{queue: []encodeResult{
		{diagnostics: "frame=  240 fps=30 drop=2 speed=1.2x\nframe=  480 fps=30 drop=4 speed=1.2x"},
	}}
	h := newHarness(t, invoker)
	h.seedProject(t, "demo")

	task, err := h.svc.Start(context.Background(), "demo", Profile{})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitTask(t, task)

	if task.State() != StateSuccess {
		t.Fatalf("state = %s, err = %v", task.State(), task.LastError())
	}
	if task.CodecUsed() != "h264_nvenc" || task.FallbackUsed() {
		t.Fatalf("codec = %q fallback = %v", task.CodecUsed(), task.FallbackUsed())
	}
	if task.Progress() != 100 {
		t.Fatalf("progress = %d", task.Progress())
	}

	metrics, reasons := task.QualityMetrics()
	if metrics.AVOffsetMS != 40 {
		t.Fatalf("offset = %v", metrics.AVOffsetMS)
	}
	// drop/frame*100: 2/240 and 4/480 are both 0.8333..%.
	if metrics.AvgDropRate <= 0 || metrics.AvgDropRate > 1 {
		t.Fatalf("avg drop rate = %v", metrics.AvgDropRate)
	}
	if len(reasons) != 0 {
		t.Fatalf("quality reasons = %v", reasons)
	}

	progressSeen := -1
	for _, event := range h.collector.Exports() {
		if event.Progress < progressSeen {
			t.Fatalf("progress regressed: %+v", h.collector.Exports())
		}
		progressSeen = event.Progress
	}
	final := h.collector.Exports()[len(h.collector.Exports())-1]
	if final.Status != events.StatusSuccess || final.Progress != 100 {
		t.Fatalf("final event = %+v", final)
	}

	records, err := h.history.ListRecent(context.Background(), "demo", 10)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(records) != 1 || records[0].Status != "success" {
		t.Fatalf("history records = %+v", records)
	}
}

func TestPipelineFallsBackToSoftware(t *testing.T) {
	invoker := &scriptedInvoker{queue: []encodeResult{
		{diagnostics: "Error while opening encoder for output stream #0:0", err: errors.New("exit status 1")},
		{diagnostics: "frame=  240 fps=30 drop=0 speed=1.0x"},
	}}
	h := newHarness(t, invoker)
	h.seedProject(t, "demo")

	task, err := h.svc.Start(context.Background(), "demo", Profile{})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitTask(t, task)

	if task.State() != StateSuccess {
		t.Fatalf("state = %s, err = %v", task.State(), task.LastError())
	}
	if task.CodecUsed() != capture.SoftwareCodec || !task.FallbackUsed() {
		t.Fatalf("codec = %q fallback = %v", task.CodecUsed(), task.FallbackUsed())
	}

	if len(invoker.encodes) != 2 {
		t.Fatalf("encode attempts = %d", len(invoker.encodes))
	}
	if v, _ := flagValue(invoker.encodes[0], "-c:v"); v != "h264_nvenc" {
		t.Fatalf("first attempt codec = %q", v)
	}
	if v, _ := flagValue(invoker.encodes[1], "-c:v"); v != capture.SoftwareCodec {
		t.Fatalf("second attempt codec = %q", v)
	}

	fallbackSeen := false
	for _, event := range h.collector.Exports() {
		if event.Status == events.StatusFallback {
			fallbackSeen = true
			if event.Progress != 62 {
				t.Fatalf("fallback progress = %d", event.Progress)
			}
		}
	}
	if !fallbackSeen {
		t.Fatal("no fallback event emitted")
	}

	logPath, err := h.store.ExportLogPath("demo", task.ID)
	if err != nil {
		t.Fatalf("ExportLogPath: %v", err)
	}
	logText, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read export log: %v", err)
	}
	if !strings.Contains(string(logText), logSeparator) {
		t.Fatal("export log lacks the fallback separator")
	}
}

// movingTrack seeds a cursor track that sweeps across the frame so the crop
// synthesizer has real motion to follow.
func movingTrack(t *testing.T, h *harness, projectID string) {
	t.Helper()
	track := make([]motion.Sample, 0, 35)
	for i := 0; i < 35; i++ {
		track = append(track, motion.Sample{
			TMS: uint64(i * 50),
			X:   120 + float64(i)*45,
			Y:   90 + float64(i)*25,
		})
	}
	if err := h.store.SaveCursorTrack(projectID, track, 2000); err != nil {
		t.Fatalf("SaveCursorTrack: %v", err)
	}
}

// clearFrameDimensions rewrites the manifest the way a recording stop leaves
// it, with no frame geometry recorded.
func clearFrameDimensions(t *testing.T, h *harness, projectID string) {
	t.Helper()
	manifest, err := h.store.LoadManifest(projectID)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	manifest.FrameWidth, manifest.FrameHeight = 0, 0
	if err := h.store.SaveManifest(manifest); err != nil {
		t.Fatalf("SaveManifest: %v", err)
	}
}

func TestPipelineFollowsCursorWithoutManifestDimensions(t *testing.T) {
	invoker := &scriptedInvoker{queue: []encodeResult{
		{diagnostics: "frame=  240 fps=30 drop=2 speed=1.2x"},
	}}
	h := newHarness(t, invoker)
	h.seedProject(t, "demo")
	clearFrameDimensions(t, h, "demo")
	movingTrack(t, h, "demo")

	task, err := h.svc.Start(context.Background(), "demo", Profile{})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitTask(t, task)

	if task.State() != StateSuccess {
		t.Fatalf("state = %s, err = %v", task.State(), task.LastError())
	}
	if len(invoker.encodes) != 1 {
		t.Fatalf("encode attempts = %d", len(invoker.encodes))
	}

	vf, ok := flagValue(invoker.encodes[0], "-vf")
	if !ok {
		t.Fatal("encode args carry no -vf filter")
	}
	if !strings.HasPrefix(vf, "crop=w='") {
		t.Fatalf("filter chain does not start with the crop: %q", vf)
	}
	// The probed 1920x1080 geometry must yield a time-piecewise follow
	// expression, not the static centered fallback.
	if !strings.Contains(vf, "if(lt(t,") {
		t.Fatalf("crop is the static fallback despite an enabled camera and a cursor track: %q", vf)
	}
	if strings.Contains(vf, "x='(iw-ow)/2'") {
		t.Fatalf("crop position is statically centered: %q", vf)
	}
}

func TestPipelineFramesAgainstTargetWhenProbeFails(t *testing.T) {
	invoker := &scriptedInvoker{queue: []encodeResult{
		{diagnostics: "frame=  240 fps=30 drop=2 speed=1.2x"},
	}}
	h := newHarness(t, invoker)
	h.seedProject(t, "demo")
	clearFrameDimensions(t, h, "demo")
	movingTrack(t, h, "demo")
	h.svc.probe = func(context.Context, string, string) (ffprobe.Result, error) {
		return ffprobe.Result{}, errors.New("probe unavailable")
	}

	task, err := h.svc.Start(context.Background(), "demo", Profile{})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitTask(t, task)

	if task.State() != StateSuccess {
		t.Fatalf("state = %s, err = %v", task.State(), task.LastError())
	}
	if len(invoker.encodes) != 1 {
		t.Fatalf("encode attempts = %d", len(invoker.encodes))
	}
	vf, ok := flagValue(invoker.encodes[0], "-vf")
	if !ok {
		t.Fatal("encode args carry no -vf filter")
	}
	if !strings.Contains(vf, "if(lt(t,") {
		t.Fatalf("track should be framed against the target geometry: %q", vf)
	}
}

func TestPipelineClassifiesDoubleFailure(t *testing.T) {
	invoker := &scriptedInvoker{queue: []encodeResult{
		{diagnostics: "unknown encoder 'h264_nvenc'", err: errors.New("exit status 1")},
		{diagnostics: "No space left on device", err: errors.New("exit status 1")},
	}}
	h := newHarness(t, invoker)
	h.seedProject(t, "demo")

	task, err := h.svc.Start(context.Background(), "demo", Profile{})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitTask(t, task)

	if task.State() != StateFailed {
		t.Fatalf("state = %s", task.State())
	}
	// Combined diagnostics carry both markers; permission/space families
	// outrank encoder-init in the ordered scan.
	if services.CodeOf(task.LastError()) != "NO_SPACE" {
		t.Fatalf("failure code = %q", services.CodeOf(task.LastError()))
	}

	final := h.collector.Exports()[len(h.collector.Exports())-1]
	if final.Status != events.StatusFailed {
		t.Fatalf("final event = %+v", final)
	}

	records, err := h.history.ListRecent(context.Background(), "demo", 10)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(records) != 1 || records[0].FailureCode != "NO_SPACE" {
		t.Fatalf("history records = %+v", records)
	}
}

func TestPipelineRecordsUnmeasuredDropRates(t *testing.T) {
	invoker := &scriptedInvoker{queue: []encodeResult{
		{diagnostics: "encode log without any counters"},
	}}
	h := newHarness(t, invoker)
	h.seedProject(t, "demo")

	task, err := h.svc.Start(context.Background(), "demo", Profile{})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitTask(t, task)

	metrics, reasons := task.QualityMetrics()
	if metrics.AvgDropRate != quality.Unmeasured || metrics.PeakDropRate != quality.Unmeasured {
		t.Fatalf("metrics = %+v", metrics)
	}
	if len(reasons) != 1 {
		t.Fatalf("expected one missing-data reason, got %v", reasons)
	}
	if task.State() != StateSuccess {
		t.Fatalf("gate violations must not fail the task, state = %s", task.State())
	}
}

func TestStartConflictsWhileTaskInFlight(t *testing.T) {
	invoker := &scriptedInvoker{
		queue: []encodeResult{{diagnostics: "frame= 240 drop=0"}},
		gate:  make(chan struct{}),
	}
	h := newHarness(t, invoker)
	h.seedProject(t, "demo")
	ctx := context.Background()

	first, err := h.svc.Start(ctx, "demo", Profile{})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	_, err = h.svc.Start(ctx, "demo", Profile{})
	if err == nil {
		t.Fatal("second export for the same project must be rejected")
	}
	if !errors.Is(err, services.ErrConflict) {
		t.Fatalf("expected conflict marker, got %v", err)
	}
	if services.CodeOf(err) != "EXPORT_ALREADY_ACTIVE" {
		t.Fatalf("code = %q", services.CodeOf(err))
	}

	close(invoker.gate)
	waitTask(t, first)

	// After the prior task finished, a new one is admitted.
	invoker.mu.Lock()
	invoker.queue = append(invoker.queue, encodeResult{diagnostics: "frame= 240 drop=0"})
	invoker.mu.Unlock()
	second, err := h.svc.Start(ctx, "demo", Profile{})
	if err != nil {
		t.Fatalf("start after terminal task: %v", err)
	}
	waitTask(t, second)
}

func TestRetryCarriesIncrementedCounter(t *testing.T) {
	invoker := &scriptedInvoker{queue: []encodeResult{
		{diagnostics: "permission denied", err: errors.New("exit status 1")},
		{diagnostics: "permission denied", err: errors.New("exit status 1")},
		{diagnostics: "frame= 240 drop=0"},
	}}
	h := newHarness(t, invoker)
	h.seedProject(t, "demo")
	ctx := context.Background()

	first, err := h.svc.Start(ctx, "demo", Profile{})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitTask(t, first)
	if first.State() != StateFailed {
		t.Fatalf("state = %s", first.State())
	}

	retry, err := h.svc.Retry(ctx, first.ID)
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	waitTask(t, retry)
	if retry.Retries != 1 {
		t.Fatalf("retry counter = %d", retry.Retries)
	}
	if retry.ID == first.ID {
		t.Fatal("retry must be a fresh task")
	}
	if first.State() != StateFailed {
		t.Fatalf("original task state mutated to %s", first.State())
	}
}

func TestStartRejectsMissingRecording(t *testing.T) {
	invoker := &scriptedInvoker{}
	h := newHarness(t, invoker)
	h.seedProject(t, "demo")

	recordingPath, err := h.store.RecordingPath("demo")
	if err != nil {
		t.Fatalf("RecordingPath: %v", err)
	}
	if err := os.Remove(recordingPath); err != nil {
		t.Fatalf("remove recording: %v", err)
	}

	_, err = h.svc.Start(context.Background(), "demo", Profile{})
	if services.CodeOf(err) != "PROJECT_ASSET_MISSING" {
		t.Fatalf("code = %q (err = %v)", services.CodeOf(err), err)
	}
}

func TestStartRejectsUnknownProject(t *testing.T) {
	h := newHarness(t, &scriptedInvoker{})
	_, err := h.svc.Start(context.Background(), "ghost", Profile{})
	if services.CodeOf(err) != "PROJECT_ASSET_MISSING" {
		t.Fatalf("code = %q (err = %v)", services.CodeOf(err), err)
	}
}
