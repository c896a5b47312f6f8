package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fxFeedLab/internal/domain"
	"fxFeedLab/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

// setupTestDB creates a temporary database for testing
func setupTestDB(t *testing.T) (*Repository, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "fxfeedlab-test-*")
	require.NoError(t, err)

	repo, err := NewRepository(Config{
		DBPath: filepath.Join(tmpDir, "test.db"),
		Logger: &mockLogger{},
	})
	require.NoError(t, err)

	cleanup := func() {
		repo.Close()
		os.RemoveAll(tmpDir)
	}
	return repo, cleanup
}

func TestNewRepository_RequiresLogger(t *testing.T) {
	_, err := NewRepository(Config{DBPath: filepath.Join(t.TempDir(), "x.db")})
	assert.Error(t, err)
}

func TestRepository_ObjectStore(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	ok, err := repo.ContainsKey(ctx, "eurusd_custom.csv")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.Read(ctx, "eurusd_custom.csv")
	assert.ErrorIs(t, err, ports.ErrNotFound)

	require.NoError(t, repo.Save(ctx, "eurusd_custom.csv", []byte("first")))
	ok, err = repo.ContainsKey(ctx, "eurusd_custom.csv")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, repo.Save(ctx, "eurusd_custom.csv", []byte("second")))
	content, err := repo.Read(ctx, "eurusd_custom.csv")
	require.NoError(t, err)
	assert.Equal(t, "second", string(content))

	require.NoError(t, repo.Save(ctx, "empty.csv", nil))
	content, err = repo.Read(ctx, "empty.csv")
	require.NoError(t, err)
	assert.Empty(t, content)
}

func TestRepository_RecordAndListRuns(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	base := time.Date(2025, 7, 7, 12, 0, 0, 0, time.UTC)
	older := &domain.RunSummary{
		ID:          "run-1",
		StartedAt:   base,
		FinishedAt:  base.Add(time.Second),
		WindowStart: time.Date(2025, 7, 6, 0, 0, 0, 0, time.UTC),
		WindowEnd:   time.Date(2025, 7, 8, 0, 0, 0, 0, time.UTC),
		Ticks:       120,
		Feeds: []domain.FeedStats{
			{Symbol: "EURUSD_CUSTOM", Source: "eurusd_custom.csv", Decoded: 100, Skipped: 1, Rejected: 2},
			{Symbol: "EURUSD", Source: "forex/eurusd_minute.csv", Error: "object not found"},
		},
	}
	newer := &domain.RunSummary{ID: "run-2", StartedAt: base.Add(time.Hour), FinishedAt: base.Add(time.Hour), Ticks: 5}

	require.NoError(t, repo.RecordRun(ctx, older))
	require.NoError(t, repo.RecordRun(ctx, newer))
	assert.Error(t, repo.RecordRun(ctx, older), "duplicate run ID")
	assert.ErrorIs(t, repo.RecordRun(ctx, &domain.RunSummary{}), ports.ErrInvalidRequest)

	runs, err := repo.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].ID)
	assert.Empty(t, runs[0].Feeds)

	got := runs[1]
	assert.Equal(t, "run-1", got.ID)
	assert.Equal(t, 120, got.Ticks)
	assert.True(t, older.WindowStart.Equal(got.WindowStart))
	assert.True(t, older.WindowEnd.Equal(got.WindowEnd))
	require.Len(t, got.Feeds, 2)
	assert.Equal(t, older.Feeds[0], got.Feeds[0])
	assert.Equal(t, "object not found", got.Feeds[1].Error)

	limited, err := repo.ListRuns(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
