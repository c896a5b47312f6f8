package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"fxFeedLab/internal/ports"
)

// Store implements ports.ObjectStore on a PostgreSQL table.
type Store struct {
	db *sql.DB
}

// New opens the database through the pgx driver and creates the objects table.
func New(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w: %v", ports.ErrDBConnection, err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w: %v", ports.ErrDBConnection, err)
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the connection pool.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS feed_objects (
  key TEXT PRIMARY KEY,
  content BYTEA NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`)
	if err != nil {
		return fmt.Errorf("migrate feed_objects: %w", err)
	}
	return nil
}

// ContainsKey reports whether an object is stored under key.
func (s *Store) ContainsKey(ctx context.Context, key string) (bool, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM feed_objects WHERE key = $1)`, key).Scan(&exists); err != nil {
		return false, fmt.Errorf("check object %s: %w: %v", key, ports.ErrQueryFailed, err)
	}
	return exists, nil
}

// Read returns the object stored under key.
func (s *Store) Read(ctx context.Context, key string) ([]byte, error) {
	var content []byte
	err := s.db.QueryRowContext(ctx, `SELECT content FROM feed_objects WHERE key = $1`, key).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("object %s: %w", key, ports.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w: %v", key, ports.ErrQueryFailed, err)
	}
	return content, nil
}

// Save stores content under key, replacing any previous object.
func (s *Store) Save(ctx context.Context, key string, content []byte) error {
	if content == nil {
		content = []byte{}
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO feed_objects (key, content, updated_at) VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET content = EXCLUDED.content, updated_at = EXCLUDED.updated_at`, key, content)
	if err != nil {
		return fmt.Errorf("save object %s: %w: %v", key, ports.ErrUpdateFailed, err)
	}
	return nil
}

var _ ports.ObjectStore = (*Store)(nil)
