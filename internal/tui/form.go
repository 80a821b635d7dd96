package tui

import (
	"fmt"
	"strings"

	"focusbar/internal/model"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

// minuteOptions mirrors the duration picker: every minute up to 30, then
// five-minute steps up to two hours.
func minuteOptions() []int {
	opts := make([]int, 0, 48)
	for m := 1; m <= 30; m++ {
		opts = append(opts, m)
	}
	for m := 35; m <= 120; m += 5 {
		opts = append(opts, m)
	}
	return opts
}

// quickMinutes are shown as hints next to the minutes field.
var quickMinutes = []int{25, 45, 60, 90}

// stepMinutes moves to the neighbouring option in direction dir (+1/-1),
// clamping at the ends. Off-grid values snap to the nearest option that way.
func stepMinutes(cur, dir int) int {
	opts := minuteOptions()
	if dir > 0 {
		for _, m := range opts {
			if m > cur {
				return m
			}
		}
		return opts[len(opts)-1]
	}
	for i := len(opts) - 1; i >= 0; i-- {
		if opts[i] < cur {
			return opts[i]
		}
	}
	return opts[0]
}

type taskForm struct {
	input   textinput.Model
	minutes int
	tag     model.Tag
	// editID is the task being edited; 0 means the form adds a task.
	editID int64
	keys   formKeyMap
}

func newTaskForm(minutes int, tag model.Tag) taskForm {
	in := textinput.New()
	in.Placeholder = "What needs to be done?"
	in.CharLimit = 200
	in.Prompt = ""
	in.Focus()
	if minutes <= 0 {
		minutes = model.DefaultMinutes
	}
	if tag == "" {
		tag = model.TagStudy
	}
	return taskForm{input: in, minutes: minutes, tag: tag, keys: defaultFormKeyMap()}
}

func editTaskForm(t model.Task) taskForm {
	f := newTaskForm(t.Minutes, t.Tag)
	f.editID = t.ID
	f.input.SetValue(t.Content)
	f.input.CursorEnd()
	return f
}

func (f taskForm) content() string { return strings.TrimSpace(f.input.Value()) }

// update handles form-only keys and forwards the rest to the text input.
func (f taskForm) update(msg tea.Msg) (taskForm, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(km, f.keys.CycleTag):
			f.tag = model.NextTag(f.tag)
			return f, nil
		case key.Matches(km, f.keys.MoreMinute):
			f.minutes = stepMinutes(f.minutes, +1)
			return f, nil
		case key.Matches(km, f.keys.LessMinute):
			f.minutes = stepMinutes(f.minutes, -1)
			return f, nil
		}
	}
	var cmd tea.Cmd
	f.input, cmd = f.input.Update(msg)
	return f, cmd
}

func (f taskForm) view(width int, st *styles) string {
	title := "New task"
	if f.editID != 0 {
		title = fmt.Sprintf("Edit #%d", f.editID)
	}
	bodyW := width - 4
	if bodyW < 20 {
		bodyW = 20
	}
	f.input.Width = bodyW - 2

	var quick []string
	for _, m := range quickMinutes {
		s := fmt.Sprintf("%d", m)
		if m == f.minutes {
			s = st.active.Render(s)
		}
		quick = append(quick, s)
	}

	var tags []string
	for _, t := range model.Tags() {
		if t == f.tag {
			tags = append(tags, st.badge.Render(string(t)))
		} else {
			tags = append(tags, st.muted.Render(string(t)))
		}
	}

	rows := []string{
		st.header.Render(title),
		renderInputLine(bodyW, f.input.View()),
		st.label.Render("Minutes") + st.active.Render(fmt.Sprintf("%3d", f.minutes)) + st.muted.Render("   "+strings.Join(quick, " / ")),
		st.label.Render("Tag") + strings.Join(tags, " "),
	}
	return st.formBox.Width(bodyW).Render(strings.Join(rows, "\n"))
}

func renderInputLine(bodyW int, inputView string) string {
	if bodyW < 10 {
		bodyW = 10
	}

	// Keep the input on one visual line; a newline or overflowing cursor
	// styling would wrap inside the box.
	inputView = strings.ReplaceAll(inputView, "\n", " ")
	inputView = strings.ReplaceAll(inputView, "\r", " ")

	line := lipgloss.PlaceHorizontal(
		bodyW,
		lipgloss.Left,
		" "+inputView+" ",
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceBackground(colorInputBg),
	)
	if xansi.StringWidth(line) > bodyW {
		// Terminate ANSI styling to prevent bleed.
		line = xansi.Cut(line, 0, bodyW) + "\x1b[0m"
	}
	return line
}
