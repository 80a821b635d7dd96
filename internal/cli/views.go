package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"focusbar/internal/focus"
	"focusbar/internal/model"
	"focusbar/internal/todo"
)

type statusView struct {
	Status       model.TimerStatus `json:"status"`
	Locked       bool              `json:"locked"`
	ActiveID     *int64            `json:"activeId"`
	Active       *model.Task       `json:"active,omitempty"`
	RemainingSec int               `json:"remainingSec"`
	Clock        string            `json:"clock,omitempty"`
	Badge        string            `json:"badge"`
	Incomplete   int               `json:"incomplete"`
	Next         *model.Task       `json:"next,omitempty"`
	TagFilter    model.Tag         `json:"tagFilter,omitempty"`
}

func newStatusView(doc model.Document, now time.Time) statusView {
	l := todo.List(doc.Todos)
	v := statusView{
		Status:     doc.Timer.Status,
		Locked:     doc.Timer.Locked(),
		ActiveID:   doc.Timer.ActiveID,
		Incomplete: len(l.Filter(doc.UI.TagFilter).Incomplete()),
		TagFilter:  doc.UI.TagFilter,
	}
	if t, ok := doc.ActiveTask(); ok {
		v.Active = &t
	}
	if next, ok := l.NextStartable(doc.UI.TagFilter); ok && !v.Locked {
		v.Next = &next
	}
	v.Badge = strconv.Itoa(v.Incomplete)
	if v.Locked {
		v.RemainingSec = focus.Remaining(doc.Timer, now)
		v.Clock = focus.FormatClock(v.RemainingSec)
		v.Badge = v.Clock
	}
	return v
}

func (v statusView) Text() string {
	var sb strings.Builder
	switch {
	case v.Locked && v.Active != nil:
		fmt.Fprintf(&sb, "%s  %s: %s", v.Clock, v.Status, v.Active.Content)
	case v.Next != nil:
		fmt.Fprintf(&sb, "idle  next: #%d %s (%dm)", v.Next.ID, v.Next.Content, v.Next.Minutes)
	default:
		sb.WriteString("idle  nothing left to do")
	}
	return sb.String()
}

type listView struct {
	Status         statusView   `json:"status"`
	Tasks          []model.Task `json:"tasks"`
	Completed      []model.Task `json:"completed,omitempty"`
	CompletedCount int          `json:"completedCount"`
	ShowCompleted  bool         `json:"showCompleted"`
}

func newListView(doc model.Document, now time.Time, all bool) listView {
	l := todo.List(doc.Todos).Filter(doc.UI.TagFilter)
	v := listView{
		Status:         newStatusView(doc, now),
		Tasks:          l.Incomplete(),
		CompletedCount: len(l.Completed()),
		ShowCompleted:  doc.UI.ShowCompleted,
	}
	if v.Tasks == nil {
		v.Tasks = []model.Task{}
	}
	if all || doc.UI.ShowCompleted {
		v.Completed = l.Completed()
	}
	return v
}

func (v listView) Text() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Todo [%s]", v.Status.Badge)
	if v.Status.TagFilter != "" {
		fmt.Fprintf(&sb, "  filter: %s", v.Status.TagFilter)
	}
	sb.WriteByte('\n')
	if v.Status.Locked && v.Status.Active != nil {
		fmt.Fprintf(&sb, "Focus mode: %s (%s)\n", v.Status.Active.Content, v.Status.Status)
	}
	for _, t := range v.Tasks {
		marker := " "
		switch {
		case v.Status.ActiveID != nil && *v.Status.ActiveID == t.ID:
			marker = "▶"
		case v.Status.Next != nil && v.Status.Next.ID == t.ID:
			marker = "›"
		}
		fmt.Fprintf(&sb, "%s #%d [%s] %s (%dm)\n", marker, t.ID, t.Tag, t.Content, t.Minutes)
	}
	if v.CompletedCount > 0 {
		fmt.Fprintf(&sb, "Completed (%d)\n", v.CompletedCount)
		for _, t := range v.Completed {
			fmt.Fprintf(&sb, "  ✓ #%d [%s] %s\n", t.ID, t.Tag, t.Content)
		}
	}
	return sb.String()
}

type taskView struct {
	model.Task
	Active bool `json:"active"`
	Next   bool `json:"next"`
}

func newTaskView(doc model.Document, t model.Task) taskView {
	v := taskView{Task: t, Active: doc.Timer.IsActive(t.ID)}
	if next, ok := todo.List(doc.Todos).NextStartable(doc.UI.TagFilter); ok && next.ID == t.ID {
		v.Next = true
	}
	return v
}

func (v taskView) Text() string {
	state := "open"
	if v.IsCompleted {
		state = "done"
	}
	return fmt.Sprintf("#%d [%s] %s (%dm) %s", v.ID, v.Tag, v.Content, v.Minutes, state)
}
