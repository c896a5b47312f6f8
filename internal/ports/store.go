package ports

import (
	"context"

	"fxFeedLab/internal/domain"
)

// ObjectStore is a key-value blob store holding raw feed files.
type ObjectStore interface {
	// ContainsKey reports whether a blob exists under key.
	ContainsKey(ctx context.Context, key string) (bool, error)
	// Read returns the blob stored under key, or an error wrapping ErrNotFound.
	Read(ctx context.Context, key string) ([]byte, error)
	// Save stores content under key, replacing any previous value.
	Save(ctx context.Context, key string, content []byte) error
}

// RunRecorder persists replay summaries.
type RunRecorder interface {
	// RecordRun saves a completed run and its per-feed statistics.
	RecordRun(ctx context.Context, run *domain.RunSummary) error
	// ListRuns returns the most recent runs, newest first, up to limit.
	ListRuns(ctx context.Context, limit int) ([]*domain.RunSummary, error)
}

// ResourceFetcher downloads a source file (local path or URL).
type ResourceFetcher interface {
	Fetch(ctx context.Context, source string) ([]byte, error)
}
