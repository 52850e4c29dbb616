// Package store persists the contract list as a single serialized blob in a
// local key-value store.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrKeyNotFound is returned by KV.Get when the key has never been set or was
// deleted.
var ErrKeyNotFound = errors.New("key not found")

// KV is a blob store keyed by string. Implementations must be safe for use by
// a single process; no cross-process locking is provided.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Backend selects a KV implementation.
type Backend string

// Supported backends.
const (
	BackendSQLite Backend = "sqlite"
	BackendBadger Backend = "badger"
	BackendMemory Backend = "memory"
)

// Open opens the KV for backend at path. path is a database file for sqlite
// and a directory for badger; memory ignores it.
func Open(backend Backend, path string) (KV, error) {
	switch backend {
	case BackendSQLite, "":
		return OpenSQLite(path)
	case BackendBadger:
		return OpenBadger(path)
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	return nil
}

func parentDir(path string) string {
	return filepath.Dir(path)
}
