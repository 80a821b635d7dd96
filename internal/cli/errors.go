package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	appctl "focusbar/internal/app"
	"focusbar/internal/focus"
	"focusbar/internal/format"
	"focusbar/internal/sound"

	"github.com/spf13/cobra"
)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(s), "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id: %q", s)
	}
	return id, nil
}

// writeResult prints data with meta.applied. Rejections (locked, out of
// turn, unknown id...) are not command failures: the state is unchanged and
// the reason goes into _hints.
func writeResult(cmd *cobra.Command, app *App, data any, err error) error {
	if err != nil && !appctl.IsRejection(err) && !errors.Is(err, sound.ErrPickCanceled) {
		return writeErr(cmd, err)
	}
	env := format.Envelope{
		Data: data,
		Meta: map[string]any{"applied": err == nil},
	}
	if err != nil {
		env.Hints = rejectionHints(err)
	}
	return writeOut(cmd, app, env)
}

func rejectionHints(err error) []string {
	hints := []string{err.Error()}
	switch {
	case errors.Is(err, appctl.ErrLocked):
		hints = append(hints, "The list is locked during a focus session: `focusbar pause` keeps it locked, `focusbar finish` ends it.")
	case errors.Is(err, appctl.ErrOutOfTurn):
		hints = append(hints, "Only the next incomplete task can start; run `focusbar start` without an id.")
	case errors.Is(err, focus.ErrInvalidTransition):
		hints = append(hints, "Run `focusbar status` to see the current timer state.")
	case errors.Is(err, appctl.ErrNotFound):
		hints = append(hints, "Run `focusbar list` to see task ids.")
	case errors.Is(err, sound.ErrPickCanceled):
		hints = append(hints, "Pass a path instead: `focusbar sound set <file>`.")
	}
	return hints
}
