package config

import (
	"context"
	"log/slog"
	"os"
	"time"
)

const DefaultPollInterval = 750 * time.Millisecond

type EventKind string

const (
	EventTheme  EventKind = "theme"
	EventAccent EventKind = "accent"
)

// Event is one settings change pushed to a running instance.
type Event struct {
	Kind  EventKind
	Value string
}

// Watcher polls config.toml and emits an Event for every appearance key whose
// value changed since the previous read.
type Watcher struct {
	Path     string
	Interval time.Duration
	Logger   *slog.Logger

	modTime time.Time
	size    int64
	last    AppearanceConfig
}

func NewWatcher(path string, logger *slog.Logger) *Watcher {
	w := &Watcher{Path: path, Interval: DefaultPollInterval, Logger: logger}
	w.prime()
	return w
}

func (w *Watcher) log() *slog.Logger {
	if w.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return w.Logger
}

// prime records the current state so only later edits produce events.
func (w *Watcher) prime() {
	if st, err := os.Stat(w.Path); err == nil {
		w.modTime, w.size = st.ModTime(), st.Size()
	}
	if cfg, err := LoadFile(w.Path); err == nil {
		w.last = cfg.Appearance
	}
}

// Run sends events on out until ctx is done. out is closed on return.
func (w *Watcher) Run(ctx context.Context, out chan<- Event) {
	defer close(out)
	d := w.Interval
	if d <= 0 {
		d = DefaultPollInterval
	}
	t := time.NewTicker(d)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		for _, ev := range w.Poll() {
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Poll checks the file once. Unreadable or malformed files are ignored until
// the next change.
func (w *Watcher) Poll() []Event {
	st, err := os.Stat(w.Path)
	if err != nil {
		return nil
	}
	if st.ModTime().Equal(w.modTime) && st.Size() == w.size {
		return nil
	}
	w.modTime, w.size = st.ModTime(), st.Size()

	cfg, err := LoadFile(w.Path)
	if err != nil {
		w.log().Warn("config: ignoring unreadable settings", "path", w.Path, "err", err)
		return nil
	}
	var evs []Event
	if cfg.Appearance.Theme != w.last.Theme && cfg.Appearance.Theme != "" {
		evs = append(evs, Event{Kind: EventTheme, Value: cfg.Appearance.Theme})
	}
	if cfg.Appearance.Accent != w.last.Accent && cfg.Appearance.Accent != "" {
		evs = append(evs, Event{Kind: EventAccent, Value: cfg.Appearance.Accent})
	}
	w.last = cfg.Appearance
	return evs
}
