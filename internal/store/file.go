package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// File stores each key as <dir>/<key>.json.
//
// Writes go through a tmp file + rename so a crash never leaves a torn value,
// and a sibling .lock file serializes readers and writers across processes
// (the TUI and one-off CLI invocations may share a data dir).
type File struct {
	Dir string
}

func (f File) path(key string) string {
	return filepath.Join(f.Dir, key+".json")
}

func (f File) lock(key string) *flock.Flock {
	return flock.New(f.path(key) + ".lock")
}

func (f File) Get(key string) (string, bool, error) {
	if err := validKey(key); err != nil {
		return "", false, err
	}
	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		return "", false, err
	}
	lk := f.lock(key)
	if err := lk.RLock(); err != nil {
		return "", false, fmt.Errorf("lock %s: %w", key, err)
	}
	defer func() { _ = lk.Unlock() }()

	b, err := os.ReadFile(f.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(b), true, nil
}

func (f File) Set(key, value string) error {
	if err := validKey(key); err != nil {
		return err
	}
	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		return err
	}
	lk := f.lock(key)
	if err := lk.Lock(); err != nil {
		return fmt.Errorf("lock %s: %w", key, err)
	}
	defer func() { _ = lk.Unlock() }()

	path := f.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(value), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
