package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fxFeedLab/internal/ports"
)

// TestStore_Integration runs against a live database when POSTGRES_TEST_DSN is set.
func TestStore_Integration(t *testing.T) {
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}
	ctx := context.Background()
	s, err := New(ctx, dsn)
	require.NoError(t, err)
	defer s.Close()
	defer s.db.ExecContext(ctx, `DELETE FROM feed_objects WHERE key = $1`, "test/feed.csv")

	ok, err := s.ContainsKey(ctx, "test/feed.csv")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Read(ctx, "test/feed.csv")
	assert.ErrorIs(t, err, ports.ErrNotFound)

	require.NoError(t, s.Save(ctx, "test/feed.csv", []byte("a")))
	require.NoError(t, s.Save(ctx, "test/feed.csv", []byte("b")))
	content, err := s.Read(ctx, "test/feed.csv")
	require.NoError(t, err)
	assert.Equal(t, "b", string(content))
}

func TestNew_InvalidDSN(t *testing.T) {
	_, err := New(context.Background(), "postgres://nobody@127.0.0.1:1/none?connect_timeout=1")
	assert.ErrorIs(t, err, ports.ErrDBConnection)
}
