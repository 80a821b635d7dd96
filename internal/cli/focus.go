package cli

import (
	"context"
	"fmt"
	"time"

	appctl "focusbar/internal/app"
	"focusbar/internal/focus"
	"focusbar/internal/model"
	"focusbar/internal/notify"
	"focusbar/internal/sound"

	"github.com/spf13/cobra"
)

// timerCommand builds pause/resume/finish, which take no arguments.
func timerCommand(app *App, use, short string, op func(*appctl.Controller) (model.Document, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctl, err := loadController(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeController(ctl)
			doc, err := op(ctl)
			return writeResult(cmd, app, newStatusView(doc, now(app)), err)
		},
	}
}

func newStartCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "start [id]",
		Short: "Start a focus session on the next task (an id must be that task)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id int64
			if len(args) == 1 {
				v, err := parseID(args[0])
				if err != nil {
					return writeErr(cmd, err)
				}
				id = v
			}
			ctl, err := loadController(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeController(ctl)
			var doc model.Document
			if id == 0 {
				doc, err = ctl.StartNext()
			} else {
				doc, err = ctl.Start(id)
			}
			return writeResult(cmd, app, newStatusView(doc, now(app)), err)
		},
	}
}

func newPauseCmd(app *App) *cobra.Command {
	return timerCommand(app, "pause", "Pause the running session", (*appctl.Controller).Pause)
}

func newResumeCmd(app *App) *cobra.Command {
	return timerCommand(app, "resume", "Resume the paused session", (*appctl.Controller).Resume)
}

func newFinishCmd(app *App) *cobra.Command {
	return timerCommand(app, "finish", "Complete the active task now", (*appctl.Controller).Finish)
}

func newStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the timer state and header badge",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctl, err := loadController(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeController(ctl)
			return writeOut(cmd, app, map[string]any{"data": newStatusView(ctl.State(), now(app))})
		},
	}
}

type watchResult struct {
	Status  statusView     `json:"status"`
	Expired bool           `json:"expired"`
	Alert   *notify.Result `json:"alert,omitempty"`
}

func (w watchResult) Text() string {
	if !w.Expired {
		return w.Status.Text()
	}
	return "time's up\n" + w.Status.Text()
}

func newWatchCmd(app *App) *cobra.Command {
	var quiet bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Count down the running session in the foreground and alert when it ends",
		Long: `Ticks the running session until it expires, is paused or finished elsewhere,
or the command is interrupted. On expiry the task is completed and the alert
(desktop notification, title flash, sound) is sent.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctl, err := loadController(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeController(ctl)

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if !ctl.Locked() {
				ctl.WaitAlerts()
				res := watchResult{Status: newStatusView(ctl.State(), now(app))}
				if a, ok := ctl.LastAlert(); ok {
					// Load finished a session that ran out while nothing was watching.
					res.Expired, res.Alert = true, &a
				}
				return writeResult(cmd, app, res, nil)
			}

			t := time.NewTicker(app.cfg.TickInterval())
			defer t.Stop()
			last := -1
			for {
				doc, fired := ctl.Tick()
				if fired {
					ctl.WaitAlerts()
					res := watchResult{Status: newStatusView(doc, now(app)), Expired: true}
					if a, ok := ctl.LastAlert(); ok {
						res.Alert = &a
					}
					waitSound(ctx, app)
					return writeResult(cmd, app, res, nil)
				}
				if doc.Timer.Status != model.StatusRunning {
					return writeResult(cmd, app, watchResult{Status: newStatusView(doc, now(app))}, nil)
				}
				if rem := doc.Timer.RemainingSec; rem != last && !quiet {
					last = rem
					if task, ok := doc.ActiveTask(); ok {
						fmt.Fprintf(cmd.ErrOrStderr(), "\r%s  %s ", focus.FormatClock(rem), task.Content)
					}
				}
				select {
				case <-ctx.Done():
					fmt.Fprintln(cmd.ErrOrStderr())
					return writeResult(cmd, app, watchResult{Status: newStatusView(ctl.State(), now(app))}, nil)
				case <-t.C:
				}
			}
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not print the countdown to stderr")
	return cmd
}

// waitSound gives the alarm a few seconds to finish before the process exits.
func waitSound(ctx context.Context, app *App) {
	p, ok := app.Player.(*sound.ExecPlayer)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_ = p.Wait(ctx)
}
