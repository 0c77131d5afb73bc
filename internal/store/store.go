package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"freighter/internal/config"
	"freighter/internal/task"
)

// Store journals upload task records in SQLite so the CLI can report status
// and history across engine runs. A file lock prevents two engines from
// sharing one journal.
type Store struct {
	db   *sql.DB
	path string
	lock *flock.Flock
}

// Open initializes or connects to the journal database and applies the schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.JournalPath()
	lock := flock.New(dbPath + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire journal lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("journal %s is in use by another process", dbPath)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		_ = lock.Unlock()
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
			_ = lock.Unlock()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath, lock: lock}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, err
	}

	return store, nil
}

// Close closes the database connection and releases the journal lock.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	if s.lock != nil {
		if unlockErr := s.lock.Unlock(); unlockErr != nil && err == nil {
			err = unlockErr
		}
	}
	return err
}

// Path returns the journal database path.
func (s *Store) Path() string {
	return s.path
}

// Upsert persists the current snapshot of a task.
func (s *Store) Upsert(ctx context.Context, t *task.Task) error {
	if t == nil {
		return errors.New("task is nil")
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO upload_tasks (
            id, session_id, filename, byte_size, mime_type, category, status,
            progress_percent, uploaded_bytes, retry_count, max_retries,
            error_message, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            session_id = excluded.session_id,
            category = excluded.category,
            status = excluded.status,
            progress_percent = excluded.progress_percent,
            uploaded_bytes = excluded.uploaded_bytes,
            retry_count = excluded.retry_count,
            max_retries = excluded.max_retries,
            error_message = excluded.error_message,
            updated_at = excluded.updated_at`,
		t.ID,
		nullableString(t.SessionID),
		t.Filename,
		t.ByteSize,
		nullableString(t.MimeType),
		nullableString(t.Category),
		t.Status,
		t.ProgressPercent,
		t.UploadedBytes,
		t.RetryCount,
		t.MaxRetries,
		nullableString(t.ErrorMessage),
		t.CreatedAt.UTC().Format(time.RFC3339Nano),
		t.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert task: %w", err)
	}
	return nil
}

// GetByID fetches a journaled task by identifier. Returns nil when absent.
func (s *Store) GetByID(ctx context.Context, id string) (*task.Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM upload_tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// List returns journaled tasks filtered by status set (or all tasks when no
// status is provided), ordered by creation time.
func (s *Store) List(ctx context.Context, statuses ...task.Status) ([]*task.Task, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + taskColumns + ` FROM upload_tasks`
	orderClause := ` ORDER BY created_at`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// Delete removes a journaled task by identifier.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM upload_tasks WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ResetStuckUploading returns tasks left uploading or paused by a previous
// run back to pending so a fresh engine can admit them again.
func (s *Store) ResetStuckUploading(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE upload_tasks
         SET status = ?, progress_percent = 0, uploaded_bytes = 0, updated_at = ?
         WHERE status IN (?, ?)`,
		task.StatusPending,
		time.Now().UTC().Format(time.RFC3339Nano),
		task.StatusUploading,
		task.StatusPaused,
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck tasks: %w", err)
	}
	return res.RowsAffected()
}

// Stats returns a count of journaled tasks grouped by status.
func (s *Store) Stats(ctx context.Context) (map[task.Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM upload_tasks GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("journal stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[task.Status]int)
	for rows.Next() {
		var status task.Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// ClearCompleted removes only completed tasks from the journal.
func (s *Store) ClearCompleted(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM upload_tasks WHERE status = ?`, task.StatusCompleted)
	if err != nil {
		return 0, fmt.Errorf("clear completed: %w", err)
	}
	return res.RowsAffected()
}

// ClearFailed removes only errored tasks from the journal.
func (s *Store) ClearFailed(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM upload_tasks WHERE status = ?`, task.StatusError)
	if err != nil {
		return 0, fmt.Errorf("clear failed: %w", err)
	}
	return res.RowsAffected()
}

// Clear removes all tasks from the journal.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM upload_tasks`)
	if err != nil {
		return 0, fmt.Errorf("clear journal: %w", err)
	}
	return res.RowsAffected()
}

const taskColumns = "id, session_id, filename, byte_size, mime_type, category, status, progress_percent, uploaded_bytes, retry_count, max_retries, error_message, created_at, updated_at"

func scanTask(scanner interface{ Scan(dest ...any) error }) (*task.Task, error) {
	var (
		id              string
		sessionID       sql.NullString
		filename        string
		byteSize        int64
		mimeType        sql.NullString
		category        sql.NullString
		statusStr       string
		progressPercent int
		uploadedBytes   int64
		retryCount      int
		maxRetries      int
		errorMessage    sql.NullString
		createdRaw      string
		updatedRaw      string
	)

	if err := scanner.Scan(
		&id,
		&sessionID,
		&filename,
		&byteSize,
		&mimeType,
		&category,
		&statusStr,
		&progressPercent,
		&uploadedBytes,
		&retryCount,
		&maxRetries,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	t := &task.Task{
		ID:              id,
		SessionID:       sessionID.String,
		Filename:        filename,
		ByteSize:        byteSize,
		MimeType:        mimeType.String,
		Category:        category.String,
		Status:          task.Status(statusStr),
		ProgressPercent: progressPercent,
		UploadedBytes:   uploadedBytes,
		RetryCount:      retryCount,
		MaxRetries:      maxRetries,
		ErrorMessage:    errorMessage.String,
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		t.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		t.UpdatedAt = updated
	}
	return t, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
