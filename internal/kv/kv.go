// Package kv provides the durable string key-value stores the workspace and
// board payloads are persisted in.
package kv

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
)

// ErrClosed is returned by every operation on a closed store.
var ErrClosed = errors.New("kv: store closed")

// Store is a durable string key-value store.
//
// Get reports an absent key with ok=false and a nil error. Deleting an
// absent key is not an error. Implementations are safe for concurrent use.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Backend names a Store implementation.
type Backend string

// Supported backends.
const (
	BackendFile   Backend = "file"
	BackendSQLite Backend = "sqlite"
	BackendRedis  Backend = "redis"
	BackendMemory Backend = "memory"
)

// Backends lists every supported backend.
var Backends = []Backend{BackendFile, BackendSQLite, BackendRedis, BackendMemory}

// Config selects and parameterizes a backend.
type Config struct {
	Backend Backend
	// Dir holds the database file of the file and sqlite backends.
	Dir string
	// RedisURL is a redis:// URL, used by the redis backend.
	RedisURL string
	// RedisPrefix namespaces every key stored in redis.
	RedisPrefix string
}

// Open opens the backend selected by cfg.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendFile:
		return NewFile(filepath.Join(cfg.Dir, "kv.jsonl"))
	case BackendSQLite:
		return NewSQLite(filepath.Join(cfg.Dir, "kv.sqlite"))
	case BackendRedis:
		return NewRedis(ctx, cfg.RedisURL, cfg.RedisPrefix)
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown kv backend %q", cfg.Backend)
	}
}
