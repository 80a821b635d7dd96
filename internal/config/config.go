// Package config loads ~/.focusbar/config.toml and watches its appearance section.
package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const fileName = "config.toml"

type Config struct {
	// DataDir holds the store (defaults to <config dir>/data).
	DataDir string `toml:"data_dir,omitempty"`
	// Backend is one of file|sqlite|memory.
	Backend string `toml:"backend,omitempty"`

	TickMS         int `toml:"tick_ms,omitempty"`
	FlashMS        int `toml:"flash_ms,omitempty"`
	DefaultMinutes int `toml:"default_minutes,omitempty"`

	Notify     NotifyConfig     `toml:"notify"`
	Appearance AppearanceConfig `toml:"appearance"`
}

type NotifyConfig struct {
	System bool `toml:"system"`
	Bell   bool `toml:"bell"`
}

// AppearanceConfig is the "settings pane": edits here are pushed to running
// instances as theme/accent events.
type AppearanceConfig struct {
	Theme  string `toml:"theme,omitempty"`
	Accent string `toml:"accent,omitempty"`
}

func Default() Config {
	return Config{
		Backend:        "sqlite",
		TickMS:         250,
		FlashMS:        2500,
		DefaultMinutes: 25,
		Notify:         NotifyConfig{System: true, Bell: true},
	}
}

func (c Config) TickInterval() time.Duration {
	if c.TickMS <= 0 {
		return 250 * time.Millisecond
	}
	return time.Duration(c.TickMS) * time.Millisecond
}

func (c Config) FlashDuration() time.Duration {
	if c.FlashMS <= 0 {
		return 2500 * time.Millisecond
	}
	return time.Duration(c.FlashMS) * time.Millisecond
}

func Dir() (string, error) {
	// Test/advanced override (keeps unit tests from touching ~/.focusbar).
	if v := strings.TrimSpace(os.Getenv("FOCUSBAR_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".focusbar"), nil
}

func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// ResolvedDataDir returns DataDir, or <config dir>/data when unset.
func (c Config) ResolvedDataDir() (string, error) {
	if d := strings.TrimSpace(c.DataDir); d != "" {
		return d, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "data"), nil
}

// Load reads the config file; a missing file yields Default().
func Load() (Config, error) {
	path, err := Path()
	if err != nil {
		return Config{}, err
	}
	return LoadFile(path)
}

func LoadFile(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, err
	}
	if _, err := toml.Decode(string(b), &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func Save(cfg Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	return SaveFile(path, cfg)
}

func SaveFile(path string, cfg Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return err
	}
	// Unique temp name + rename so the TUI watcher never reads a torn file.
	return atomicWriteFile(dir, fileName+".*.tmp", path, buf.Bytes(), 0o644)
}

func atomicWriteFile(dir, tmpPattern, path string, b []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmp, perm)
	return os.Rename(tmp, path)
}

// Accents are the named accent colours offered by the settings menu.
var Accents = map[string]string{
	"pink":   "#d4a5c1",
	"purple": "#8e44ad",
	"blue":   "#2d7ff9",
	"gray":   "#4b4b4b",
}

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ParseAccent accepts a named accent or a #rgb/#rrggbb colour.
func ParseAccent(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if hex, ok := Accents[strings.ToLower(s)]; ok {
		return hex, true
	}
	if hexColor.MatchString(s) {
		return strings.ToLower(s), true
	}
	return "", false
}
