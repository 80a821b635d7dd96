package cli

import (
	"fmt"
	"strings"

	"focusbar/internal/config"
	"focusbar/internal/model"

	"github.com/spf13/cobra"
)

// The [appearance] section of config.toml is the settings pane: a running
// TUI watches it, and these commands edit it and apply it to the document.

func newThemeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:       "theme <system|light|dark>",
		Short:     "Set the colour theme",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(model.ThemeSystem), string(model.ThemeLight), string(model.ThemeDark)},
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, ok := model.ParseThemeMode(args[0])
			if !ok {
				return writeErr(cmd, fmt.Errorf("unknown theme: %q (expected system|light|dark)", args[0]))
			}
			return applySetting(cmd, app, config.Event{Kind: config.EventTheme, Value: string(mode)})
		},
	}
}

func newAccentCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "accent <pink|purple|blue|gray|#rrggbb>",
		Short: "Set the accent colour",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := strings.ToLower(strings.TrimSpace(args[0]))
			if _, ok := config.ParseAccent(v); !ok {
				return writeErr(cmd, fmt.Errorf("unknown accent: %q (expected pink|purple|blue|gray or #rrggbb)", args[0]))
			}
			return applySetting(cmd, app, config.Event{Kind: config.EventAccent, Value: v})
		},
	}
}

func applySetting(cmd *cobra.Command, app *App, ev config.Event) error {
	cfg := app.cfg
	switch ev.Kind {
	case config.EventTheme:
		cfg.Appearance.Theme = ev.Value
	case config.EventAccent:
		cfg.Appearance.Accent = ev.Value
	}
	if err := config.Save(cfg); err != nil {
		return writeErr(cmd, fmt.Errorf("save config: %w", err))
	}
	app.cfg = cfg

	ctl, err := loadController(cmd, app)
	if err != nil {
		return writeErr(cmd, err)
	}
	defer closeController(ctl)
	doc, err := ctl.ApplySettings(ev)
	return writeResult(cmd, app, doc.UI.Theme, err)
}
