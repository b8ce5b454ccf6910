package projects

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"focuslens/internal/logging"
	"focuslens/internal/motion"
	"focuslens/internal/services"
)

const (
	manifestFile  = "manifest.json"
	trackFile     = "cursor_track.json"
	recordingFile = "recording.mp4"
	exportsDir    = "exports"
	recoveryFile  = "recovery.marker"
)

// Store resolves and persists project assets under a single root directory.
type Store struct {
	root   string
	logger *slog.Logger
}

// NewStore builds a Store rooted at root.
func NewStore(root string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Store{root: root, logger: logging.NewComponentLogger(logger, "projects")}
}

// Root returns the configured project root directory.
func (s *Store) Root() string { return s.root }

// Dir validates the id and returns the project directory path.
func (s *Store) Dir(projectID string) (string, error) {
	if err := ValidateProjectID(projectID); err != nil {
		return "", err
	}
	return filepath.Join(s.root, projectID), nil
}

// EnsureDir creates the project directory tree.
func (s *Store) EnsureDir(projectID string) (string, error) {
	dir, err := s.Dir(projectID)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Join(dir, exportsDir), 0o755); err != nil {
		return "", services.Wrap(services.ErrData, "IO_FAIL", "create project directory", "", err)
	}
	return dir, nil
}

// RecordingPath is the raw capture output location for a project.
func (s *Store) RecordingPath(projectID string) (string, error) {
	dir, err := s.Dir(projectID)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, recordingFile), nil
}

// ExportPath is the deliverable location for one export task.
func (s *Store) ExportPath(projectID, taskID string) (string, error) {
	dir, err := s.Dir(projectID)
	if err != nil {
		return "", err
	}
	if err := ValidateProjectID(taskID); err != nil {
		return "", err
	}
	return filepath.Join(dir, exportsDir, taskID+".mp4"), nil
}

// ExportLogPath is the persisted diagnostic log for one export task.
func (s *Store) ExportLogPath(projectID, taskID string) (string, error) {
	out, err := s.ExportPath(projectID, taskID)
	if err != nil {
		return "", err
	}
	return out + ".log", nil
}

// LoadManifest reads a project manifest. A missing manifest is a
// precondition failure so callers can distinguish it from a corrupt one.
func (s *Store) LoadManifest(projectID string) (Manifest, error) {
	dir, err := s.Dir(projectID)
	if err != nil {
		return Manifest{}, err
	}
	payload, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Manifest{}, services.Wrap(services.ErrPrecondition, "PROJECT_ASSET_MISSING", fmt.Sprintf("project %s has no manifest", projectID), "record something first", err)
		}
		return Manifest{}, services.Wrap(services.ErrData, "IO_FAIL", "read project manifest", "", err)
	}
	var manifest Manifest
	if err := json.Unmarshal(payload, &manifest); err != nil {
		return Manifest{}, services.Wrap(services.ErrData, "IO_FAIL", "parse project manifest", "", err)
	}
	return manifest, nil
}

// SaveManifest writes the manifest atomically via temp-file rename.
func (s *Store) SaveManifest(manifest Manifest) error {
	dir, err := s.EnsureDir(manifest.ProjectID)
	if err != nil {
		return err
	}
	manifest.UpdatedAt = time.Now().UTC()
	if manifest.CreatedAt.IsZero() {
		manifest.CreatedAt = manifest.UpdatedAt
	}
	payload, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return services.Wrap(services.ErrData, "IO_FAIL", "encode project manifest", "", err)
	}
	return s.atomicWrite(filepath.Join(dir, manifestFile), payload)
}

// PatchCamera updates the camera settings on an existing manifest.
func (s *Store) PatchCamera(projectID string, camera CameraSettings) (Manifest, error) {
	manifest, err := s.LoadManifest(projectID)
	if err != nil {
		return Manifest{}, err
	}
	if _, err := camera.Profile(); err != nil {
		return Manifest{}, err
	}
	manifest.Camera = camera
	if err := s.SaveManifest(manifest); err != nil {
		return Manifest{}, err
	}
	return manifest, nil
}

// PatchTimeline updates the trim range on an existing manifest. The start
// must precede a non-zero end.
func (s *Store) PatchTimeline(projectID string, timeline Timeline) (Manifest, error) {
	if timeline.TrimEndMS != 0 && timeline.TrimEndMS <= timeline.TrimStartMS {
		return Manifest{}, services.Wrap(services.ErrConfiguration, "INVALID_TIMELINE", "trim end must be after trim start", "", nil)
	}
	manifest, err := s.LoadManifest(projectID)
	if err != nil {
		return Manifest{}, err
	}
	manifest.Timeline = timeline
	if err := s.SaveManifest(manifest); err != nil {
		return Manifest{}, err
	}
	return manifest, nil
}

// SaveCursorTrack persists the sampled track for a finished recording. When
// the final sample falls short of the recording duration it is extended so
// the track always covers [0, durationMS].
func (s *Store) SaveCursorTrack(projectID string, track []motion.Sample, durationMS uint64) error {
	dir, err := s.EnsureDir(projectID)
	if err != nil {
		return err
	}
	if len(track) == 0 {
		track = motion.SyntheticTrack(durationMS)
	} else if last := track[len(track)-1]; last.TMS < durationMS {
		track = append(track, motion.Sample{TMS: durationMS, X: last.X, Y: last.Y})
	}
	payload, err := json.Marshal(track)
	if err != nil {
		return services.Wrap(services.ErrData, "IO_FAIL", "encode cursor track", "", err)
	}
	return s.atomicWrite(filepath.Join(dir, trackFile), payload)
}

// LoadCursorTrack reads the persisted track. A missing or empty track is
// replaced by the deterministic synthetic trajectory; a short track is
// extended to full duration. Corrupt data is a data error, not a fallback.
func (s *Store) LoadCursorTrack(projectID string, durationMS uint64) ([]motion.Sample, error) {
	dir, err := s.Dir(projectID)
	if err != nil {
		return nil, err
	}

	payload, err := os.ReadFile(filepath.Join(dir, trackFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("cursor track missing, synthesizing",
				logging.String(logging.FieldProjectID, projectID),
			)
			return motion.SyntheticTrack(durationMS), nil
		}
		return nil, services.Wrap(services.ErrData, "IO_FAIL", "read cursor track", "", err)
	}

	var track []motion.Sample
	if err := json.Unmarshal(payload, &track); err != nil {
		return nil, services.Wrap(services.ErrData, "IO_FAIL", "parse cursor track", "", err)
	}
	if len(track) == 0 {
		return motion.SyntheticTrack(durationMS), nil
	}
	if last := track[len(track)-1]; last.TMS < durationMS {
		track = append(track, motion.Sample{TMS: durationMS, X: last.X, Y: last.Y})
	}
	return track, nil
}

// WriteRecoveryMarker records an in-flight recording session so a crashed
// process can be detected on the next start.
func (s *Store) WriteRecoveryMarker(projectID, sessionID string) error {
	dir, err := s.EnsureDir(projectID)
	if err != nil {
		return err
	}
	return s.atomicWrite(filepath.Join(dir, recoveryFile), []byte(sessionID))
}

// ClearRecoveryMarker removes the marker. Best effort on already-failed
// paths; the caller logs and ignores the error there.
func (s *Store) ClearRecoveryMarker(projectID string) error {
	dir, err := s.Dir(projectID)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(dir, recoveryFile)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return services.Wrap(services.ErrData, "IO_FAIL", "remove recovery marker", "", err)
	}
	return nil
}

// ListRecoveryMarkers scans the root for projects whose last recording never
// stopped cleanly.
func (s *Store) ListRecoveryMarkers() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, services.Wrap(services.ErrData, "IO_FAIL", "scan project root", "", err)
	}
	var marked []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(s.root, entry.Name(), recoveryFile)); err == nil {
			marked = append(marked, entry.Name())
		}
	}
	return marked, nil
}

func (s *Store) atomicWrite(path string, payload []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return services.Wrap(services.ErrData, "IO_FAIL", "write project file", "", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return services.Wrap(services.ErrData, "IO_FAIL", "replace project file", "", err)
	}
	return nil
}
