// Package cache persists compiled item output and compile history in SQLite.
//
// Compilation is a pure function of the item and the compiler options, so a
// compiled document can be reused whenever the same content is compiled
// again. Entries are keyed by ContentKey. Every compile attempt is also
// recorded in a run history table grouped by a per-invocation run id.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Entry is one cached compiled document
type Entry struct {
	Key            string
	ItemIdentifier string
	SourcePath     string
	Output         string
}

// RunRecord is the history row for one item in one compile run
type RunRecord struct {
	ID             int64
	RunID          string
	ItemIdentifier string
	SourcePath     string
	CacheHit       bool
	Success        bool
	ErrorMessage   string
	Duration       time.Duration
	Timestamp      time.Time
}

// Stats summarises the cache and history tables
type Stats struct {
	Entries   int
	TotalHits int
	Runs      int // Distinct run ids
	Compiles  int // History rows
	Failures  int
	CacheHits int // History rows served from the cache
	LastRun   *time.Time
}

// Store manages the SQLite compile cache
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewRunID returns a fresh identifier grouping the records of one compile run
func NewRunID() string {
	return uuid.New().String()
}

// NewStore opens (creating if needed) the cache database at dbPath
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := dbPath
	if dbPath != ":memory:" {
		// Pooled connections each need the busy timeout, so it goes in the DSN
		dsn = "file:" + dbPath + "?_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Each connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	store := &Store{db: db, dbPath: dbPath}
	if err := store.ApplyMigrations(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return store, nil
}

// execWithRetry executes a statement with exponential backoff on lock errors
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Path returns the database path the store was opened with
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Get returns the cached output for key. A miss returns ok == false and a nil error.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var output string
	err := s.db.QueryRowContext(ctx, `SELECT output FROM compiled_items WHERE content_key = ?`, key).Scan(&output)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query cache entry: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE compiled_items SET hit_count = hit_count + 1, last_hit_at = CURRENT_TIMESTAMP WHERE content_key = ?`,
		key); err != nil {
		return "", false, fmt.Errorf("update cache hit: %w", err)
	}
	return output, true, nil
}

// Put stores (or replaces) a compiled document
func (s *Store) Put(ctx context.Context, e *Entry) error {
	if e.Key == "" {
		return fmt.Errorf("cache entry has no key")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO compiled_items (content_key, item_identifier, source_path, output)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(content_key) DO UPDATE SET
			item_identifier = excluded.item_identifier,
			source_path = excluded.source_path,
			output = excluded.output`,
		e.Key, e.ItemIdentifier, e.SourcePath, e.Output)
	if err != nil {
		return fmt.Errorf("insert cache entry: %w", err)
	}
	return nil
}

// RecordRun appends one history row
func (s *Store) RecordRun(ctx context.Context, r *RunRecord) error {
	if r.RunID == "" {
		return fmt.Errorf("run record has no run id")
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO compile_runs (run_id, item_identifier, source_path, cache_hit, success, error_message, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.ItemIdentifier, r.SourcePath, r.CacheHit, r.Success, r.ErrorMessage, r.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("insert run record: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		r.ID = id
	}
	return nil
}

// RecentRuns returns up to limit history rows, newest first
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_id, COALESCE(item_identifier, ''), source_path, cache_hit, success,
		       COALESCE(error_message, ''), COALESCE(duration_ms, 0), timestamp
		FROM compile_runs
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var r RunRecord
		var durationMs int64
		if err := rows.Scan(&r.ID, &r.RunID, &r.ItemIdentifier, &r.SourcePath, &r.CacheHit, &r.Success,
			&r.ErrorMessage, &durationMs, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Duration = time.Duration(durationMs) * time.Millisecond
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Stats summarises cache contents and run history
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(hit_count), 0) FROM compiled_items`).
		Scan(&stats.Entries, &stats.TotalHits)
	if err != nil {
		return nil, fmt.Errorf("query cache stats: %w", err)
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT run_id), COUNT(*),
		       COUNT(CASE WHEN success = 0 THEN 1 END),
		       COUNT(CASE WHEN cache_hit = 1 THEN 1 END)
		FROM compile_runs`).
		Scan(&stats.Runs, &stats.Compiles, &stats.Failures, &stats.CacheHits)
	if err != nil {
		return nil, fmt.Errorf("query run stats: %w", err)
	}

	var last time.Time
	err = s.db.QueryRowContext(ctx, `SELECT timestamp FROM compile_runs ORDER BY id DESC LIMIT 1`).Scan(&last)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("query last run: %w", err)
	default:
		stats.LastRun = &last
	}

	return stats, nil
}

// Clear deletes all cache entries and history. It returns the number of
// cache entries removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM compiled_items`)
	if err != nil {
		return 0, fmt.Errorf("delete cache entries: %w", err)
	}
	removed, _ := res.RowsAffected()

	if _, err := tx.ExecContext(ctx, `DELETE FROM compile_runs`); err != nil {
		return 0, fmt.Errorf("delete run history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit clear: %w", err)
	}
	return removed, nil
}
