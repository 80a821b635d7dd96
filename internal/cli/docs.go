package cli

import (
	"fmt"

	"focusbar/internal/docs"

	"github.com/spf13/cobra"
)

func newDocsCmd(app *App) *cobra.Command {
	var raw, asHTML bool

	cmd := &cobra.Command{
		Use:   "docs [topic]",
		Short: "Show built-in documentation (keys, focus-mode, storage)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return writeOut(cmd, app, map[string]any{"data": map[string]any{"topics": docs.Topics()}})
			}

			topic := args[0]
			body, ok := docs.Get(topic)
			if !ok {
				return writeErr(cmd, fmt.Errorf("unknown docs topic: %q (run `focusbar docs` to list topics)", topic))
			}
			if raw && asHTML {
				return writeErr(cmd, fmt.Errorf("--raw and --html are mutually exclusive"))
			}
			if raw {
				_, err := fmt.Fprint(cmd.OutOrStdout(), body)
				return err
			}
			if asHTML {
				out, err := docs.RenderHTML(body)
				if err != nil {
					return writeErr(cmd, err)
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), out)
				return err
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{
				"topic":    topic,
				"title":    docs.Title(topic),
				"markdown": body,
			}})
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Print raw markdown (no envelope)")
	cmd.Flags().BoolVar(&asHTML, "html", false, "Print the topic rendered as an HTML fragment (no envelope)")

	return cmd
}
