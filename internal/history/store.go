package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"focuslens/internal/config"
)

// Record is one terminal export outcome.
type Record struct {
	ID           int64
	TaskID       string
	ProjectID    string
	Status       string
	Codec        string
	FallbackUsed bool
	Retries      int
	AVOffsetMS   float64
	AvgDropRate  float64
	PeakDropRate float64
	FailureCode  string
	OutputPath   string
	CreatedAt    time.Time
}

// Store manages export history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database and applies the
// schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.HistoryDatabasePath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applySchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

func (s *Store) applySchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS export_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    task_id TEXT NOT NULL,
    project_id TEXT NOT NULL,
    status TEXT NOT NULL,
    codec TEXT NOT NULL,
    fallback_used INTEGER NOT NULL DEFAULT 0,
    retries INTEGER NOT NULL DEFAULT 0,
    av_offset_ms REAL NOT NULL DEFAULT 0,
    avg_drop_rate REAL NOT NULL DEFAULT -1,
    peak_drop_rate REAL NOT NULL DEFAULT -1,
    failure_code TEXT,
    output_path TEXT,
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_export_history_project ON export_history(project_id);
`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Insert records one terminal outcome.
func (s *Store) Insert(ctx context.Context, record Record) (int64, error) {
	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO export_history (
            task_id, project_id, status, codec, fallback_used, retries,
            av_offset_ms, avg_drop_rate, peak_drop_rate, failure_code,
            output_path, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.TaskID,
		record.ProjectID,
		record.Status,
		record.Codec,
		boolToInt(record.FallbackUsed),
		record.Retries,
		record.AVOffsetMS,
		record.AvgDropRate,
		record.PeakDropRate,
		nullableString(record.FailureCode),
		nullableString(record.OutputPath),
		createdAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("insert export record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read insert id: %w", err)
	}
	return id, nil
}

// ListRecent returns the newest records first, optionally filtered by
// project.
func (s *Store) ListRecent(ctx context.Context, projectID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, task_id, project_id, status, codec, fallback_used, retries,
        av_offset_ms, avg_drop_rate, peak_drop_rate, failure_code, output_path, created_at
        FROM export_history`
	args := []any{}
	if projectID != "" {
		query += " WHERE project_id = ?"
		args = append(args, projectID)
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query export history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Stats returns outcome counts keyed by status.
func (s *Store) Stats(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM export_history GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("query history stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan history stats: %w", err)
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

func scanRecord(scanner interface{ Scan(dest ...any) error }) (Record, error) {
	var record Record
	var fallback int
	var failureCode sql.NullString
	var outputPath sql.NullString
	var createdAt string

	if err := scanner.Scan(
		&record.ID,
		&record.TaskID,
		&record.ProjectID,
		&record.Status,
		&record.Codec,
		&fallback,
		&record.Retries,
		&record.AVOffsetMS,
		&record.AvgDropRate,
		&record.PeakDropRate,
		&failureCode,
		&outputPath,
		&createdAt,
	); err != nil {
		return Record{}, fmt.Errorf("scan export record: %w", err)
	}

	record.FallbackUsed = fallback != 0
	record.FailureCode = failureCode.String
	record.OutputPath = outputPath.String
	if parsed, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		record.CreatedAt = parsed
	}
	return record, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
