package cli

import (
	"fmt"
	"strings"
	"time"

	appctl "focusbar/internal/app"
	"focusbar/internal/model"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// tagValue is a --tag flag restricted to the fixed tag set.
type tagValue struct{ tag model.Tag }

var _ pflag.Value = (*tagValue)(nil)

func (v *tagValue) String() string { return string(v.tag) }
func (v *tagValue) Type() string   { return "tag" }

func (v *tagValue) Set(s string) error {
	t, ok := model.ParseTag(s)
	if !ok {
		return fmt.Errorf("unknown tag %q (want one of %s)", s, tagNames())
	}
	v.tag = t
	return nil
}

func tagNames() string {
	names := make([]string, 0, len(model.Tags()))
	for _, t := range model.Tags() {
		names = append(names, string(t))
	}
	return strings.Join(names, "|")
}

func now(app *App) time.Time {
	if app.Now != nil {
		return app.Now()
	}
	return time.Now()
}

// taskResult prints the task id after a mutation, or the rejection.
func taskResult(cmd *cobra.Command, app *App, doc model.Document, id int64, err error) error {
	t, ok := doc.FindTask(id)
	if !ok {
		return writeResult(cmd, app, map[string]any{"id": id}, err)
	}
	return writeResult(cmd, app, newTaskView(doc, t), err)
}

// idCommand builds the "<verb> <id>" commands that share one shape.
func idCommand(app *App, use, short string, op func(*appctl.Controller, int64) (model.Document, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			ctl, err := loadController(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeController(ctl)
			doc, err := op(ctl, id)
			return taskResult(cmd, app, doc, id, err)
		},
	}
}

func newAddCmd(app *App) *cobra.Command {
	var minutes int
	var tag tagValue
	cmd := &cobra.Command{
		Use:   "add <content...>",
		Short: "Append a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctl, err := loadController(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeController(ctl)
			doc, err := ctl.Add(strings.Join(args, " "), minutes, tag.tag)
			if err != nil {
				return writeResult(cmd, app, nil, err)
			}
			last := doc.Todos[len(doc.Todos)-1]
			return writeResult(cmd, app, newTaskView(doc, last), nil)
		},
	}
	cmd.Flags().IntVarP(&minutes, "minutes", "m", 0, "Focus length in minutes, 1-1440 (default from config, 25)")
	cmd.Flags().VarP(&tag, "tag", "t", "Tag ("+tagNames()+")")
	return cmd
}

func newListCmd(app *App) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks (incomplete first; completed when shown or with --all)",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctl, err := loadController(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeController(ctl)
			return writeOut(cmd, app, map[string]any{"data": newListView(ctl.State(), now(app), all)})
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include completed tasks even when the section is hidden")
	return cmd
}

func newShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			ctl, err := loadController(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeController(ctl)
			doc := ctl.State()
			t, ok := doc.FindTask(id)
			if !ok {
				return writeErr(cmd, appctl.NotFoundError{Kind: "task", ID: id})
			}
			return writeOut(cmd, app, map[string]any{"data": newTaskView(doc, t)})
		},
	}
}

func newDeleteCmd(app *App) *cobra.Command {
	cmd := idCommand(app, "delete", "Delete a task", (*appctl.Controller).Delete)
	cmd.Aliases = []string{"rm"}
	return cmd
}

func newToggleCmd(app *App) *cobra.Command {
	return idCommand(app, "toggle", "Toggle a task's completed flag", (*appctl.Controller).ToggleComplete)
}

func newEditingCmd(app *App) *cobra.Command {
	return idCommand(app, "editing", "Toggle a task's editing flag (at most one task edits at a time)", (*appctl.Controller).ToggleEditing)
}

func newEditCmd(app *App) *cobra.Command {
	var minutes int
	cmd := &cobra.Command{
		Use:   "edit <id> <content...>",
		Short: "Replace a task's content (and minutes with --minutes)",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			ctl, err := loadController(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeController(ctl)
			doc, err := ctl.Edit(id, strings.Join(args[1:], " "), minutes)
			return taskResult(cmd, app, doc, id, err)
		},
	}
	cmd.Flags().IntVarP(&minutes, "minutes", "m", 0, "New focus length in minutes, 1-1440 (unchanged when omitted)")
	return cmd
}

func newTagCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "tag <id> <tag>",
		Short: "Set a task's tag (Study|Work|Reading|Exercise|Life)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			ctl, err := loadController(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeController(ctl)
			doc, err := ctl.SetTag(id, model.Tag(args[1]))
			return taskResult(cmd, app, doc, id, err)
		},
	}
}

func newReorderCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <from-id> <to-id>",
		Short: "Move a task to another task's position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := parseID(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			to, err := parseID(args[1])
			if err != nil {
				return writeErr(cmd, err)
			}
			ctl, err := loadController(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeController(ctl)
			doc, err := ctl.Reorder(from, to)
			return writeResult(cmd, app, newListView(doc, now(app), false), err)
		},
	}
}

func newFilterCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "filter <tag|all>",
		Short: "Show only one tag (and start only within it); `all` clears the filter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tag := model.Tag(args[0])
			if strings.EqualFold(args[0], "all") {
				tag = ""
			}
			ctl, err := loadController(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeController(ctl)
			doc, err := ctl.SetTagFilter(tag)
			return writeResult(cmd, app, newListView(doc, now(app), false), err)
		},
	}
}

func newCompletedCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "completed <show|hide|toggle>",
		Short: "Expand or collapse the completed section",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctl, err := loadController(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeController(ctl)
			var show bool
			switch strings.ToLower(args[0]) {
			case "show":
				show = true
			case "hide":
				show = false
			case "toggle":
				show = !ctl.State().UI.ShowCompleted
			default:
				return writeErr(cmd, fmt.Errorf("expected show|hide|toggle, got %q", args[0]))
			}
			doc, err := ctl.SetShowCompleted(show)
			return writeResult(cmd, app, newListView(doc, now(app), false), err)
		},
	}
}
