package tui

import (
	"fmt"
	"io"
	"strings"

	"focusbar/internal/focus"
	"focusbar/internal/model"
	"focusbar/internal/todo"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	xansi "github.com/charmbracelet/x/ansi"
)

type taskItem struct {
	task   model.Task
	active bool
	next   bool
	// clock is the remaining time for the active row ("" otherwise).
	clock string
}

func (it taskItem) FilterValue() string { return it.task.Content }

// dividerItem separates the completed section.
type dividerItem struct {
	label string
}

func (it dividerItem) FilterValue() string { return "" }

type taskDelegate struct {
	st *styles
}

func (d taskDelegate) Height() int  { return 1 }
func (d taskDelegate) Spacing() int { return 0 }
func (d taskDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

func (d taskDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	contentW := m.Width()
	if contentW < 4 {
		return
	}
	st := d.st

	switch it := item.(type) {
	case dividerItem:
		label := " " + it.label + " "
		rule := strings.Repeat(glyphHRule(), max(0, contentW-xansi.StringWidth(label)-2))
		fmt.Fprint(w, st.muted.Render(fitLine(glyphHRule()+glyphHRule()+label+rule, contentW)))
		return
	case taskItem:
		line := d.line(it, contentW)
		style := st.row
		switch {
		case index == m.Index():
			style = st.selected
		case it.active:
			style = st.active
		case it.task.IsCompleted:
			style = st.completed
		}
		fmt.Fprint(w, style.Render(line))
	}
}

// line lays out: marker, checkbox, content, then right-aligned tag and minutes
// (or the countdown for the active task). Content is cut to fit.
func (d taskDelegate) line(it taskItem, width int) string {
	marker := " "
	switch {
	case it.active:
		marker = glyphActive()
	case it.next:
		marker = glyphNext()
	case it.task.IsEditing:
		marker = glyphEditing()
	}
	left := marker + " " + glyphCheckbox(it.task.IsCompleted) + " "

	right := fmt.Sprintf("%dm", it.task.Minutes)
	if it.clock != "" {
		right = it.clock
	}
	if it.task.Tag != "" {
		right = string(it.task.Tag) + "  " + right
	}
	right = " " + right + " "

	avail := width - xansi.StringWidth(left) - xansi.StringWidth(right)
	content := it.task.Content
	if avail < 1 {
		return fitLine(left+content, width)
	}
	if xansi.StringWidth(content) > avail {
		content = xansi.Truncate(content, avail, "…")
	}
	pad := avail - xansi.StringWidth(content)
	return left + content + strings.Repeat(" ", pad) + right
}

// fitLine pads or cuts s to exactly width columns.
func fitLine(s string, width int) string {
	w := xansi.StringWidth(s)
	switch {
	case w < width:
		return s + strings.Repeat(" ", width-w)
	case w > width:
		return xansi.Truncate(s, width, "…")
	}
	return s
}

// listItems builds the visible rows: incomplete tasks in order, then (when
// shown) a divider and the completed tasks.
func listItems(doc model.Document, remaining int) []list.Item {
	var incomplete, done []list.Item
	var nextID int64
	if !doc.Timer.Locked() {
		if next, ok := todo.List(doc.Todos).NextStartable(doc.UI.TagFilter); ok {
			nextID = next.ID
		}
	}
	for _, t := range todo.List(doc.Todos).Filter(doc.UI.TagFilter) {
		it := taskItem{task: t, active: doc.Timer.IsActive(t.ID), next: t.ID == nextID}
		if it.active {
			it.clock = focus.FormatClock(remaining)
		}
		if t.IsCompleted {
			done = append(done, it)
		} else {
			incomplete = append(incomplete, it)
		}
	}
	items := incomplete
	if doc.UI.ShowCompleted && len(done) > 0 {
		items = append(items, dividerItem{label: fmt.Sprintf("Completed (%d)", len(done))})
		items = append(items, done...)
	}
	return items
}
