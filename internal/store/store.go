// Package store provides the key-value persistence used for the focusbar document.
//
// The store never interprets values: the caller owns the document shape and hands
// over an opaque string.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DocumentKey is the fixed key the application document is stored under.
const DocumentKey = "menubar_todo_v1"

// KV is the persistent store contract: absent keys report ok=false.
type KV interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
}

type Backend string

const (
	BackendFile   Backend = "file"
	BackendSQLite Backend = "sqlite"
	BackendMemory Backend = "memory"
)

func ParseBackend(s string) (Backend, error) {
	switch Backend(strings.ToLower(strings.TrimSpace(s))) {
	case "", BackendSQLite:
		return BackendSQLite, nil
	case BackendFile:
		return BackendFile, nil
	case BackendMemory:
		return BackendMemory, nil
	default:
		return "", fmt.Errorf("unknown backend: %s (expected file|sqlite|memory)", s)
	}
}

// Open returns the KV for backend rooted at dir. The memory backend ignores dir.
func Open(backend Backend, dir string) (KV, error) {
	switch backend {
	case BackendMemory:
		return NewMemory(), nil
	case BackendFile, BackendSQLite, "":
	default:
		return nil, fmt.Errorf("unknown backend: %s", backend)
	}
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("store: missing data dir")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if backend == BackendFile {
		return File{Dir: dir}, nil
	}
	return SQLite{Dir: dir}, nil
}

// validKey restricts keys to names that are safe as file names and table keys.
func validKey(key string) error {
	if key == "" {
		return errors.New("store: empty key")
	}
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-', r == '.':
		default:
			return fmt.Errorf("store: invalid key %q", key)
		}
	}
	if strings.HasPrefix(key, ".") {
		return fmt.Errorf("store: invalid key %q", key)
	}
	return nil
}

// DefaultDataDir resolves ~/.focusbar/data unless overridden by the caller.
func DefaultDataDir(configDir string) string {
	return filepath.Join(configDir, "data")
}
