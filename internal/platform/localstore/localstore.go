// Package localstore holds the write-only sink where saved assessment
// results land. The sink is opaque to the rest of the console: values are
// written by key and never read back by the application.
package localstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/renameio/v2"
	"github.com/redis/go-redis/v9"
)

// Sink kinds accepted by Open.
const (
	KindMemory = "memory"
	KindFile   = "file"
	KindRedis  = "redis"
)

var (
	ErrUnknownKind = errors.New("localstore: unknown sink kind")
	ErrEmptyKey    = errors.New("localstore: key is required")
)

// Sink stores values by key.
type Sink interface {
	Put(ctx context.Context, key string, value []byte) error
}

// Options configure Open.
type Options struct {
	Dir      string
	RedisURL string
	TTL      time.Duration
}

// Open builds the sink named by kind.
func Open(ctx context.Context, kind string, opts Options) (Sink, error) {
	switch kind {
	case "", KindMemory:
		return NewMemory(), nil
	case KindFile:
		return NewFileSink(opts.Dir)
	case KindRedis:
		return NewRedisSinkFromURL(ctx, opts.RedisURL, opts.TTL)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// ---------------------------------------------------------------------------
// Memory
// ---------------------------------------------------------------------------

// Memory is a thread-safe in-process sink.
type Memory struct {
	mu    sync.RWMutex
	items map[string][]byte
}

// NewMemory returns an empty Memory sink.
func NewMemory() *Memory {
	return &Memory{items: make(map[string][]byte)}
}

// Put stores a copy of value under key, replacing any previous value.
func (m *Memory) Put(_ context.Context, key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	cp := make([]byte, len(value))
	copy(cp, value)

	m.mu.Lock()
	m.items[key] = cp
	m.mu.Unlock()
	return nil
}

// Get returns the value stored under key.
func (m *Memory) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[key]
	return v, ok
}

// Keys returns every stored key in sorted order.
func (m *Memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.items))
	for k := range m.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ---------------------------------------------------------------------------
// File
// ---------------------------------------------------------------------------

// FileSink writes one JSON file per key into a directory.
type FileSink struct {
	dir string
}

// NewFileSink creates dir if needed and returns a sink writing into it.
func NewFileSink(dir string) (*FileSink, error) {
	if dir == "" {
		return nil, errors.New("localstore: file sink needs a directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("localstore: create %s: %w", dir, err)
	}
	return &FileSink{dir: dir}, nil
}

// Path returns the file a key is written to. Characters that are not
// portable in file names are replaced with '-'.
func (f *FileSink) Path(key string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case ':', '/', '\\', '*', '?', '"', '<', '>', '|':
			return '-'
		}
		return r
	}, key)
	return filepath.Join(f.dir, name+".json")
}

// Put writes value atomically: readers of the target see either the old
// file or the new one, never a partial write.
func (f *FileSink) Put(_ context.Context, key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	if err := renameio.WriteFile(f.Path(key), value, 0o644); err != nil {
		return fmt.Errorf("localstore: write %s: %w", key, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Redis
// ---------------------------------------------------------------------------

// RedisSink stores values as Redis strings. A zero TTL keeps them forever.
type RedisSink struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSink wraps an existing client.
func NewRedisSink(client *redis.Client, ttl time.Duration) *RedisSink {
	return &RedisSink{client: client, ttl: ttl}
}

// NewRedisSinkFromURL parses a redis:// URL, connects, and pings.
func NewRedisSinkFromURL(ctx context.Context, rawURL string, ttl time.Duration) (*RedisSink, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("localstore: parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("localstore: redis ping: %w", err)
	}
	return NewRedisSink(client, ttl), nil
}

// Put sets key to value.
func (r *RedisSink) Put(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	if err := r.client.Set(ctx, key, value, r.ttl).Err(); err != nil {
		return fmt.Errorf("localstore: redis set %s: %w", key, err)
	}
	return nil
}

// Close releases the underlying client.
func (r *RedisSink) Close() error {
	return r.client.Close()
}
