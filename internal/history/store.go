package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"squeeze/internal/services"
)

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// timeLayout is fixed width so text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const entryColumns = "id, session_id, profile, codec, width, quality, preset, source_path, output_path, source_duration_seconds, outcome, reason, exit_code, size_bytes, diagnostic, started_at, finished_at"

// Store manages encode history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database at path.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, services.Wrap(services.ErrConfiguration, "history", "open", "history_db is empty", nil)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record inserts a finished encode and returns its row ID.
func (s *Store) Record(ctx context.Context, entry Entry) (int64, error) {
	if strings.TrimSpace(entry.SessionID) == "" {
		return 0, services.Wrap(services.ErrValidation, "history", "record", "session id is required", nil)
	}
	if entry.FinishedAt.IsZero() {
		entry.FinishedAt = time.Now()
	}
	var id int64
	err := retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO encode_history (
                session_id, profile, codec, width, quality, preset, source_path, output_path,
                source_duration_seconds, outcome, reason, exit_code, size_bytes, diagnostic,
                started_at, finished_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			entry.SessionID,
			entry.Profile,
			entry.Codec,
			entry.Width,
			entry.Quality,
			entry.Preset,
			entry.SourcePath,
			nullableString(entry.OutputPath),
			entry.SourceDuration,
			entry.Outcome,
			nullableString(entry.Reason),
			entry.ExitCode,
			entry.SizeBytes,
			nullableString(entry.Diagnostic),
			formatTime(entry.StartedAt),
			formatTime(entry.FinishedAt),
		)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		if isConstraint(err) {
			return 0, services.Wrap(services.ErrConflict, "history", "record",
				fmt.Sprintf("session %s already recorded", entry.SessionID), err)
		}
		return 0, fmt.Errorf("insert history entry: %w", err)
	}
	return id, nil
}

// Get fetches a single entry by session ID. It returns nil when none exists.
func (s *Store) Get(ctx context.Context, sessionID string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM encode_history WHERE session_id = ?`, sessionID)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get history entry: %w", err)
	}
	return &entry, nil
}

// List returns the most recent entries first, filtered by outcome when any
// are given. A limit <= 0 returns everything.
func (s *Store) List(ctx context.Context, limit int, outcomes ...string) ([]Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM encode_history`
	args := make([]any, 0, len(outcomes)+1)
	if len(outcomes) > 0 {
		query += ` WHERE outcome IN (` + makePlaceholders(len(outcomes)) + `)`
		for _, outcome := range outcomes {
			args = append(args, outcome)
		}
	}
	query += ` ORDER BY finished_at DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Clear deletes every entry and returns how many were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	var removed int64
	err := retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM encode_history`)
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	return removed, nil
}

func scanEntry(scanner interface{ Scan(dest ...any) error }) (Entry, error) {
	var (
		entry       Entry
		outputPath  sql.NullString
		reason      sql.NullString
		diagnostic  sql.NullString
		startedRaw  string
		finishedRaw string
	)
	if err := scanner.Scan(
		&entry.ID,
		&entry.SessionID,
		&entry.Profile,
		&entry.Codec,
		&entry.Width,
		&entry.Quality,
		&entry.Preset,
		&entry.SourcePath,
		&outputPath,
		&entry.SourceDuration,
		&entry.Outcome,
		&reason,
		&entry.ExitCode,
		&entry.SizeBytes,
		&diagnostic,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return Entry{}, err
	}
	entry.OutputPath = outputPath.String
	entry.Reason = reason.String
	entry.Diagnostic = diagnostic.String
	if started, err := time.Parse(timeLayout, startedRaw); err == nil {
		entry.StartedAt = started
	}
	if finished, err := time.Parse(timeLayout, finishedRaw); err == nil {
		entry.FinishedAt = finished
	}
	return entry, nil
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code()&0xff == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func isConstraint(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(timeLayout)
}

func makePlaceholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
