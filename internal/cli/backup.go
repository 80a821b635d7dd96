package cli

import (
	"fmt"

	"focusbar/internal/store"

	"github.com/spf13/cobra"
)

func newExportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Write the document to a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kv, err := openStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			// Hydrate first so a fresh store exports the seed instead of failing.
			closeController(newController(cmd, app, kv))
			if err := store.Export(kv, store.DocumentKey, args[0]); err != nil {
				return writeErr(cmd, fmt.Errorf("export: %w", err))
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"path": args[0], "key": store.DocumentKey}})
		},
	}
}

func newImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the document with a JSON file (desktop-app exports are accepted)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kv, err := openStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := store.Import(kv, store.DocumentKey, args[0]); err != nil {
				return writeErr(cmd, fmt.Errorf("import: %w", err))
			}
			ctl := newController(cmd, app, kv)
			defer closeController(ctl)
			return writeOut(cmd, app, map[string]any{
				"data":   newListView(ctl.State(), now(app), true),
				"_hints": []string{"Imported documents are repaired on load: legacy ids are renumbered and missing fields get defaults."},
			})
		},
	}
}
