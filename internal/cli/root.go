package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	appctl "focusbar/internal/app"
	"focusbar/internal/config"
	"focusbar/internal/format"
	"focusbar/internal/notify"
	"focusbar/internal/sound"
	"focusbar/internal/store"
	"focusbar/internal/tui"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X focusbar/internal/cli.Version=...".
var Version = "dev"

type App struct {
	Dir        string
	Backend    string
	Format     string
	PrettyJSON bool
	LogLevel   string

	// Test hooks; nil means the desktop adapters and time.Now.
	Notifier appctl.Notifier
	Player   sound.Player
	Picker   sound.Picker
	Now      func() time.Time

	cfg    config.Config
	logger *slog.Logger
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(&App{})
}

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "focusbar",
		Short:        "Local-first to-do list with a single-task focus timer",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  focusbar

  # Scriptable commands
  focusbar add "Write report" --minutes 45 --tag Work
  focusbar start
  focusbar watch

  # Direct task lookup (shortcut for: focusbar show <id>)
  focusbar 3
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, app)
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return writeErr(cmd, fmt.Errorf("config: %w", err))
		}
		app.cfg = cfg
		if _, err := format.ParseFormat(app.Format); err != nil {
			return writeErr(cmd, err)
		}
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.Dir, "dir", envOr("FOCUSBAR_DIR", ""), "Data dir (default: data_dir from config.toml, else ~/.focusbar/data)")
	cmd.PersistentFlags().StringVar(&app.Backend, "backend", envOr("FOCUSBAR_BACKEND", ""), "Store backend (file|sqlite|memory)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON/EDN output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("FOCUSBAR_FORMAT", "json"), "Output format (json|edn|text)")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", envOr("FOCUSBAR_LOG_LEVEL", "warn"), "Log level (debug|info|warn|error)")

	cmd.AddCommand(newAddCmd(app))
	cmd.AddCommand(newListCmd(app))
	cmd.AddCommand(newShowCmd(app))
	cmd.AddCommand(newDeleteCmd(app))
	cmd.AddCommand(newToggleCmd(app))
	cmd.AddCommand(newEditingCmd(app))
	cmd.AddCommand(newEditCmd(app))
	cmd.AddCommand(newTagCmd(app))
	cmd.AddCommand(newReorderCmd(app))
	cmd.AddCommand(newFilterCmd(app))
	cmd.AddCommand(newCompletedCmd(app))
	cmd.AddCommand(newStartCmd(app))
	cmd.AddCommand(newPauseCmd(app))
	cmd.AddCommand(newResumeCmd(app))
	cmd.AddCommand(newFinishCmd(app))
	cmd.AddCommand(newStatusCmd(app))
	cmd.AddCommand(newWatchCmd(app))
	cmd.AddCommand(newSoundCmd(app))
	cmd.AddCommand(newThemeCmd(app))
	cmd.AddCommand(newAccentCmd(app))
	cmd.AddCommand(newExportCmd(app))
	cmd.AddCommand(newImportCmd(app))
	cmd.AddCommand(newDocsCmd(app))
	cmd.AddCommand(newVersionCmd(app))

	return cmd
}

func runTUI(cmd *cobra.Command, app *App) error {
	dir, err := dataDir(app)
	if err != nil {
		return writeErr(cmd, err)
	}
	kv, err := openStore(app)
	if err != nil {
		return writeErr(cmd, err)
	}
	cfgPath, err := config.Path()
	if err != nil {
		return writeErr(cmd, err)
	}
	return tui.Run(tui.Options{
		Store:      kv,
		DataDir:    dir,
		ConfigPath: cfgPath,
		Config:     app.cfg,
		LogLevel:   parseLevel(app.LogLevel),
		Player:     app.Player,
		Picker:     app.Picker,
	})
}

func dataDir(app *App) (string, error) {
	if d := strings.TrimSpace(app.Dir); d != "" {
		return d, nil
	}
	return app.cfg.ResolvedDataDir()
}

func openStore(app *App) (store.KV, error) {
	backend := app.Backend
	if strings.TrimSpace(backend) == "" {
		backend = app.cfg.Backend
	}
	b, err := store.ParseBackend(backend)
	if err != nil {
		return nil, err
	}
	dir, err := dataDir(app)
	if err != nil {
		return nil, err
	}
	return store.Open(b, dir)
}

// loadController opens the store and hydrates a controller. Callers must
// defer closeController.
func loadController(cmd *cobra.Command, app *App) (*appctl.Controller, error) {
	kv, err := openStore(app)
	if err != nil {
		return nil, err
	}
	return newController(cmd, app, kv), nil
}

func newController(cmd *cobra.Command, app *App, kv store.KV) *appctl.Controller {
	log := logger(cmd, app)
	n := app.Notifier
	if n == nil {
		n = &notify.Notifier{
			System:        notify.Desktop{Enabled: app.cfg.Notify.System},
			Titler:        notify.NewTerminalTitler(cmd.ErrOrStderr(), "focusbar"),
			Player:        player(app),
			Bell:          bell(cmd, app),
			FlashDuration: app.cfg.FlashDuration(),
			Logger:        log,
		}
	}
	ctl := appctl.New(appctl.Options{
		Store:          kv,
		Notifier:       n,
		Logger:         log,
		Now:            app.Now,
		DefaultMinutes: app.cfg.DefaultMinutes,
	})
	ctl.Load()
	return ctl
}

// closeController lets an alert fired during the command finish before exiting.
func closeController(ctl *appctl.Controller) {
	ctl.WaitAlerts()
	ctl.Close()
}

func player(app *App) sound.Player {
	if app.Player == nil {
		app.Player = sound.NewExecPlayer(app.logger)
	}
	return app.Player
}

func bell(cmd *cobra.Command, app *App) func() error {
	if !app.cfg.Notify.Bell {
		return nil
	}
	return notify.TerminalBell(cmd.ErrOrStderr())
}

func logger(cmd *cobra.Command, app *App) *slog.Logger {
	if app.logger == nil {
		app.logger = newLogger(cmd.ErrOrStderr(), app.LogLevel)
	}
	return app.logger
}

func newLogger(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: parseLevel(level)}))
}

func parseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelWarn
	}
	return lvl
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
