// Package journal keeps a local SQLite record of every mutating operation
// performed against the document library, for the history command.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver, registers as "sqlite".
)

const (
	sqlInsert = `INSERT INTO operations (id, operation, path, success, message, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	sqlList = `SELECT id, operation, path, success, message, recorded_at
		FROM operations ORDER BY recorded_at DESC, rowid DESC LIMIT ?`

	sqlPrune = `DELETE FROM operations WHERE recorded_at < ?`
)

// DefaultListLimit bounds List when the caller passes zero.
const DefaultListLimit = 50

// Entry is one recorded operation.
type Entry struct {
	ID         string    `json:"id"`
	Operation  string    `json:"operation"`
	Path       string    `json:"path"`
	Success    bool      `json:"success"`
	Message    string    `json:"message,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Journal is the sole writer to the journal database.
type Journal struct {
	db      *sql.DB
	logger  *slog.Logger
	nowFunc func() time.Time // injectable for deterministic tests
}

// Open opens (creating if needed) the journal at dbPath and brings its
// schema up to date.
func Open(ctx context.Context, dbPath string, logger *slog.Logger) (*Journal, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, fmt.Errorf("journal: creating directory for %s: %w", dbPath, err)
	}

	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)",
		dbPath,
	)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("journal: opening database %s: %w", dbPath, err)
	}

	db.SetMaxOpenConns(1)

	if err := runMigrations(ctx, db, logger); err != nil {
		db.Close()
		return nil, err
	}

	logger.Debug("journal opened", slog.String("db_path", dbPath))

	return &Journal{db: db, logger: logger, nowFunc: time.Now}, nil
}

// Close releases the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record appends one operation.
func (j *Journal) Record(ctx context.Context, operation, path string, success bool, message string) error {
	id := uuid.NewString()
	now := j.nowFunc().UTC()

	ok := 0
	if success {
		ok = 1
	}

	if _, err := j.db.ExecContext(ctx, sqlInsert, id, operation, path, ok, message, now.UnixNano()); err != nil {
		return fmt.Errorf("journal: recording %s %s: %w", operation, path, err)
	}

	j.logger.Debug("journal entry recorded",
		slog.String("id", id),
		slog.String("operation", operation),
		slog.String("path", path),
	)

	return nil
}

// List returns up to limit entries, newest first.
func (j *Journal) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := j.db.QueryContext(ctx, sqlList, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: listing entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry

	for rows.Next() {
		var (
			e        Entry
			ok       int
			recorded int64
		)

		if err := rows.Scan(&e.ID, &e.Operation, &e.Path, &ok, &e.Message, &recorded); err != nil {
			return nil, fmt.Errorf("journal: scanning entry: %w", err)
		}

		e.Success = ok == 1
		e.RecordedAt = time.Unix(0, recorded).UTC()
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal: iterating entries: %w", err)
	}

	return entries, nil
}

// Prune deletes entries recorded before cutoff and reports how many went.
func (j *Journal) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := j.db.ExecContext(ctx, sqlPrune, cutoff.UTC().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("journal: pruning entries: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("journal: counting pruned entries: %w", err)
	}

	return n, nil
}
