package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"fxFeedLab/internal/ports"
)

// Store implements ports.ObjectStore on Redis strings under a key prefix.
type Store struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// Config holds the Redis connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string        // Defaults to "fxfeedlab"
	TTL      time.Duration // Zero keeps objects forever
}

// Connect opens a client and checks it with PING.
func Connect(ctx context.Context, cfg Config) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s failed: %w: %v", cfg.Addr, ports.ErrDBConnection, err)
	}
	return New(rdb, cfg.Prefix, cfg.TTL), nil
}

// New wraps an existing client.
func New(rdb *redis.Client, prefix string, ttl time.Duration) *Store {
	if strings.TrimSpace(prefix) == "" {
		prefix = "fxfeedlab"
	}
	return &Store{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (s *Store) key(k string) string {
	return s.prefix + ":objects:" + k
}

// ContainsKey reports whether an object is stored under key.
func (s *Store) ContainsKey(ctx context.Context, key string) (bool, error) {
	n, err := s.rdb.Exists(ctx, s.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists %s: %w: %v", key, ports.ErrQueryFailed, err)
	}
	return n > 0, nil
}

// Read returns the object stored under key.
func (s *Store) Read(ctx context.Context, key string) ([]byte, error) {
	b, err := s.rdb.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("object %s: %w", key, ports.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w: %v", key, ports.ErrQueryFailed, err)
	}
	return b, nil
}

// Save stores content under key.
func (s *Store) Save(ctx context.Context, key string, content []byte) error {
	if err := s.rdb.Set(ctx, s.key(key), content, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w: %v", key, ports.ErrUpdateFailed, err)
	}
	return nil
}

// Close closes the underlying client.
func (s *Store) Close() error { return s.rdb.Close() }

var _ ports.ObjectStore = (*Store)(nil)
