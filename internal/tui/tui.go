package tui

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	appctl "focusbar/internal/app"
	"focusbar/internal/config"
	"focusbar/internal/notify"
	"focusbar/internal/sound"
	"focusbar/internal/store"

	tea "github.com/charmbracelet/bubbletea"
)

type Options struct {
	Store      store.KV
	DataDir    string
	ConfigPath string
	Config     config.Config
	LogLevel   slog.Level

	// Nil means the exec player and the system file dialog.
	Player sound.Player
	Picker sound.Picker
}

const logFileName = "focusbar.log"

func Run(opts Options) error {
	applyColorProfilePreference()
	applyGlyphPreference()

	logger, closeLog, err := openLog(opts.DataDir, opts.LogLevel)
	if err != nil {
		return err
	}
	defer closeLog()

	titles := make(chan string, 8)
	alerts := make(chan notify.Result, 4)
	settings := make(chan config.Event, 4)

	player := opts.Player
	if player == nil {
		player = sound.NewExecPlayer(logger)
	}
	n := &notify.Notifier{
		System:        notify.Desktop{Enabled: opts.Config.Notify.System},
		Titler:        &windowTitler{title: "focusbar", out: titles},
		Player:        player,
		FlashDuration: opts.Config.FlashDuration(),
		Logger:        logger,
	}
	if opts.Config.Notify.Bell {
		n.Bell = notify.TerminalBell(os.Stderr)
	}

	ctl := appctl.New(appctl.Options{
		Store:          opts.Store,
		Notifier:       n,
		Logger:         logger,
		DefaultMinutes: opts.Config.DefaultMinutes,
		OnAlert: func(res notify.Result) {
			select {
			case alerts <- res:
			default:
			}
		},
	})
	defer ctl.Close()
	ctl.Load()

	// config.toml wins over the stored appearance at startup.
	if v := opts.Config.Appearance.Theme; v != "" {
		if _, err := ctl.ApplySettings(config.Event{Kind: config.EventTheme, Value: v}); err != nil {
			logger.Warn("config: ignoring theme", "value", v, "err", err)
		}
	}
	if v := opts.Config.Appearance.Accent; v != "" {
		if _, err := ctl.ApplySettings(config.Event{Kind: config.EventAccent, Value: v}); err != nil {
			logger.Warn("config: ignoring accent", "value", v, "err", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if opts.ConfigPath != "" {
		w := config.NewWatcher(opts.ConfigPath, logger)
		go w.Run(ctx, settings)
	}

	m := newAppModel(modelOptions{
		Controller:     ctl,
		Picker:         opts.Picker,
		Tick:           opts.Config.TickInterval(),
		DefaultMinutes: opts.Config.DefaultMinutes,
		Settings:       settings,
		Alerts:         alerts,
		Titles:         titles,
	})
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	ctl.WaitAlerts()
	return err
}

// openLog appends to focusbar.log in the data dir; the terminal belongs to the TUI.
func openLog(dir string, level slog.Level) (*slog.Logger, func(), error) {
	if dir == "" {
		return slog.New(slog.DiscardHandler), func() {}, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("log dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, logFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	return logger, func() { _ = f.Close() }, nil
}

// windowTitler forwards title flashes to the program, which owns the terminal.
type windowTitler struct {
	mu    sync.Mutex
	title string
	out   chan<- string
}

func (t *windowTitler) Title() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.title
}

func (t *windowTitler) SetTitle(title string) {
	t.mu.Lock()
	t.title = title
	t.mu.Unlock()
	select {
	case t.out <- title:
	default:
	}
}
