package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"fxFeedLab/internal/domain"
	"fxFeedLab/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Repository implements the ports.ObjectStore and ports.RunRecorder interfaces using SQLite.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/fxfeedlab.db" // Default path
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w: %v", dbPath, ports.ErrDBConnection, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w: %v", dbPath, ports.ErrDBConnection, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cfg.Logger.Debug(context.Background(), "SQLite database connection established", map[string]interface{}{"path": dbPath})

	repo := &Repository{db: db, logger: cfg.Logger}
	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	return repo, nil
}

// initializeSchema creates tables if they don't exist.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS objects (
		key TEXT PRIMARY KEY,
		content BLOB NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS backtest_runs (
		id TEXT PRIMARY KEY,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP NOT NULL,
		window_start TIMESTAMP NOT NULL,
		window_end TIMESTAMP NOT NULL,
		ticks INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS feed_stats (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES backtest_runs(id) ON DELETE CASCADE,
		symbol TEXT NOT NULL,
		source TEXT NOT NULL,
		decoded INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		rejected INTEGER NOT NULL,
		out_of_window INTEGER NOT NULL,
		error TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_backtest_runs_started_at ON backtest_runs (started_at);
	CREATE INDEX IF NOT EXISTS idx_feed_stats_run_id ON feed_stats (run_id);
	`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Debug(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// --- ObjectStore Implementation ---

// ContainsKey reports whether an object is stored under key.
func (r *Repository) ContainsKey(ctx context.Context, key string) (bool, error) {
	var exists int
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM objects WHERE key = ?)`, key).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check object %s: %w: %v", key, ports.ErrQueryFailed, err)
	}
	return exists == 1, nil
}

// Read returns the object stored under key.
func (r *Repository) Read(ctx context.Context, key string) ([]byte, error) {
	var content []byte
	err := r.db.QueryRowContext(ctx, `SELECT content FROM objects WHERE key = ?`, key).Scan(&content)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("object %s: %w", key, ports.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read object %s: %w: %v", key, ports.ErrQueryFailed, err)
	}
	return content, nil
}

// Save stores content under key, replacing any previous object.
func (r *Repository) Save(ctx context.Context, key string, content []byte) error {
	const query = `
	INSERT INTO objects (key, content, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET content = excluded.content, updated_at = excluded.updated_at`

	if content == nil {
		content = []byte{}
	}
	if _, err := r.db.ExecContext(ctx, query, key, content, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save object %s: %w: %v", key, ports.ErrUpdateFailed, err)
	}
	r.logger.Debug(ctx, "Object saved", map[string]interface{}{"key": key, "bytes": len(content)})
	return nil
}

// --- RunRecorder Implementation ---

// RecordRun saves a run summary and its feed statistics in one transaction.
func (r *Repository) RecordRun(ctx context.Context, run *domain.RunSummary) error {
	if run == nil || run.ID == "" {
		return fmt.Errorf("run summary must have an ID: %w", ports.ErrInvalidRequest)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for run %s: %w: %v", run.ID, ports.ErrUpdateFailed, err)
	}
	defer tx.Rollback()

	const runQuery = `
	INSERT INTO backtest_runs (id, started_at, finished_at, window_start, window_end, ticks)
	VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, runQuery,
		run.ID, run.StartedAt.UTC(), run.FinishedAt.UTC(), run.WindowStart.UTC(), run.WindowEnd.UTC(), run.Ticks); err != nil {
		return fmt.Errorf("failed to insert run %s: %w: %v", run.ID, ports.ErrUpdateFailed, err)
	}

	const statsQuery = `
	INSERT INTO feed_stats (run_id, symbol, source, decoded, skipped, rejected, out_of_window, error)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	for _, f := range run.Feeds {
		if _, err := tx.ExecContext(ctx, statsQuery,
			run.ID, f.Symbol.String(), f.Source, f.Decoded, f.Skipped, f.Rejected, f.OutOfWindow, f.Error); err != nil {
			return fmt.Errorf("failed to insert feed stats for %s: %w: %v", f.Symbol, ports.ErrUpdateFailed, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run %s: %w: %v", run.ID, ports.ErrUpdateFailed, err)
	}
	r.logger.Debug(ctx, "Run recorded", map[string]interface{}{"run": run.ID, "feeds": len(run.Feeds)})
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (r *Repository) ListRuns(ctx context.Context, limit int) ([]*domain.RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = `
	SELECT id, started_at, finished_at, window_start, window_end, ticks
	FROM backtest_runs
	ORDER BY started_at DESC
	LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w: %v", ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	var runs []*domain.RunSummary
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run rows: %w", err)
	}

	for _, run := range runs {
		feeds, err := r.feedStats(ctx, run.ID)
		if err != nil {
			return nil, err
		}
		run.Feeds = feeds
	}
	return runs, nil
}

func (r *Repository) feedStats(ctx context.Context, runID string) ([]domain.FeedStats, error) {
	const query = `
	SELECT symbol, source, decoded, skipped, rejected, out_of_window, error
	FROM feed_stats
	WHERE run_id = ?
	ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query feed stats for run %s: %w: %v", runID, ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	var stats []domain.FeedStats
	for rows.Next() {
		var f domain.FeedStats
		var symbol string
		if err := rows.Scan(&symbol, &f.Source, &f.Decoded, &f.Skipped, &f.Rejected, &f.OutOfWindow, &f.Error); err != nil {
			return nil, fmt.Errorf("failed to scan feed stats row: %w", err)
		}
		f.Symbol = domain.Symbol(symbol)
		stats = append(stats, f)
	}
	return stats, rows.Err()
}

// --- Helper Scan Functions ---

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(s scanner) (*domain.RunSummary, error) {
	run := &domain.RunSummary{}
	if err := s.Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &run.WindowStart, &run.WindowEnd, &run.Ticks); err != nil {
		return nil, err
	}
	return run, nil
}

var (
	_ ports.ObjectStore = (*Repository)(nil)
	_ ports.RunRecorder = (*Repository)(nil)
)
