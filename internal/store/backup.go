package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Export writes the value under key to path as indented JSON.
//
// This is intended for backup/restore workflows, not day-to-day persistence.
func Export(kv KV, key, path string) error {
	path = filepath.Clean(strings.TrimSpace(path))
	if path == "" || path == "." {
		return errors.New("export: missing path")
	}
	v, ok, err := kv.Get(key)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("export: nothing stored under %s", key)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(v), "", "  "); err != nil {
		return fmt.Errorf("export: stored value is not JSON: %w", err)
	}
	buf.WriteByte('\n')

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Import replaces the value under key with the JSON document at path.
// The file must hold a JSON object; it is compacted before storing.
func Import(kv KV, key, path string) error {
	b, err := os.ReadFile(filepath.Clean(strings.TrimSpace(path)))
	if err != nil {
		return err
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(b, &probe); err != nil {
		return fmt.Errorf("import: %s is not a JSON object: %w", path, err)
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, b); err != nil {
		return err
	}
	return kv.Set(key, buf.String())
}
