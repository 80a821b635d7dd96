package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("FOCUSBAR_CONFIG_DIR", t.TempDir())
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Backend != "sqlite" || cfg.TickInterval() != 250*time.Millisecond || cfg.FlashDuration() != 2500*time.Millisecond {
		t.Fatalf("unexpected defaults: %#v", cfg)
	}
	if !cfg.Notify.System || !cfg.Notify.Bell {
		t.Fatalf("expected notifications enabled by default")
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("FOCUSBAR_CONFIG_DIR", dir)

	cfg := Default()
	cfg.Backend = "file"
	cfg.Notify.Bell = false
	cfg.Appearance = AppearanceConfig{Theme: "dark", Accent: "#8e44ad"}
	if err := Save(cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Backend != "file" || got.Notify.Bell || got.Appearance.Theme != "dark" || got.Appearance.Accent != "#8e44ad" {
		t.Fatalf("round trip mismatch: %#v", got)
	}
	data, err := got.ResolvedDataDir()
	if err != nil || data != filepath.Join(dir, "data") {
		t.Fatalf("unexpected data dir %q err=%v", data, err)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("FOCUSBAR_CONFIG_DIR", dir)
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[appearance]\ntheme = \"light\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Appearance.Theme != "light" || cfg.DefaultMinutes != 25 || cfg.Backend != "sqlite" {
		t.Fatalf("unexpected config: %#v", cfg)
	}
}

func TestLoad_MalformedIsError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("theme = = x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestParseAccent(t *testing.T) {
	cases := map[string]string{
		"pink":    "#d4a5c1",
		" Blue ":  "#2d7ff9",
		"#ABCDEF": "#abcdef",
		"#fff":    "#fff",
	}
	for in, want := range cases {
		got, ok := ParseAccent(in)
		if !ok || got != want {
			t.Fatalf("ParseAccent(%q) = %q,%v; want %q", in, got, ok, want)
		}
	}
	for _, in := range []string{"", "teal", "#12345", "123456"} {
		if _, ok := ParseAccent(in); ok {
			t.Fatalf("expected %q to be rejected", in)
		}
	}
}

func TestWatcher_EmitsChangedKeysOnly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	cfg := Default()
	cfg.Appearance = AppearanceConfig{Theme: "system", Accent: "#2d7ff9"}
	if err := SaveFile(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	w := NewWatcher(path, nil)
	if evs := w.Poll(); len(evs) != 0 {
		t.Fatalf("expected no events before an edit; got %v", evs)
	}

	cfg.Appearance.Theme = "dark"
	if err := SaveFile(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	// Force a visible mtime change on coarse-grained filesystems.
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	evs := w.Poll()
	if len(evs) != 1 || evs[0].Kind != EventTheme || evs[0].Value != "dark" {
		t.Fatalf("expected one theme event; got %v", evs)
	}
	if evs := w.Poll(); len(evs) != 0 {
		t.Fatalf("expected no repeat events; got %v", evs)
	}
}
