// Package todo implements the ordered task collection.
//
// A List is treated as immutable: every mutating function returns a fresh
// slice and reports whether anything changed, so callers can keep older
// snapshots around (and persist only on change).
package todo

import (
	"strings"

	"focusbar/internal/model"
)

type List []model.Task

func (l List) clone() List {
	out := make(List, len(l))
	copy(out, l)
	return out
}

func (l List) index(id int64) int {
	for i, t := range l {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Find returns the task with the given id.
func (l List) Find(id int64) (model.Task, bool) {
	if i := l.index(id); i >= 0 {
		return l[i], true
	}
	return model.Task{}, false
}

// Add appends t at the end. Content is trimmed; empty content or minutes
// above MaxMinutes are a no-op. Minutes <= 0 default to 25 and an unknown
// tag defaults to Study.
func (l List) Add(t model.Task) (List, bool) {
	t.Content = strings.TrimSpace(t.Content)
	if t.Content == "" || t.Minutes > model.MaxMinutes {
		return l, false
	}
	if t.Minutes <= 0 {
		t.Minutes = model.DefaultMinutes
	}
	if _, ok := model.ParseTag(string(t.Tag)); !ok {
		t.Tag = model.TagStudy
	}
	t.IsCompleted = false
	t.IsEditing = false
	out := make(List, 0, len(l)+1)
	out = append(out, l...)
	out = append(out, t)
	return out, true
}

func (l List) Delete(id int64) (List, bool) {
	i := l.index(id)
	if i < 0 {
		return l, false
	}
	out := make(List, 0, len(l)-1)
	out = append(out, l[:i]...)
	out = append(out, l[i+1:]...)
	return out, true
}

func (l List) ToggleComplete(id int64) (List, bool) {
	i := l.index(id)
	if i < 0 {
		return l, false
	}
	out := l.clone()
	out[i].IsCompleted = !out[i].IsCompleted
	return out, true
}

// Complete marks id completed and drops its editing flag.
func (l List) Complete(id int64) (List, bool) {
	i := l.index(id)
	if i < 0 || (l[i].IsCompleted && !l[i].IsEditing) {
		return l, false
	}
	out := l.clone()
	out[i].IsCompleted = true
	out[i].IsEditing = false
	return out, true
}

// ToggleEditing flips the editing flag on id and clears it everywhere else.
func (l List) ToggleEditing(id int64) (List, bool) {
	i := l.index(id)
	if i < 0 {
		return l, false
	}
	out := l.clone()
	for j := range out {
		if j == i {
			out[j].IsEditing = !out[j].IsEditing
			continue
		}
		out[j].IsEditing = false
	}
	return out, true
}

// Edit replaces the content (and minutes when > 0) and leaves editing mode.
func (l List) Edit(id int64, content string, minutes int) (List, bool) {
	content = strings.TrimSpace(content)
	if content == "" || minutes > model.MaxMinutes {
		return l, false
	}
	i := l.index(id)
	if i < 0 {
		return l, false
	}
	out := l.clone()
	out[i].Content = content
	if minutes > 0 {
		out[i].Minutes = minutes
	}
	out[i].IsEditing = false
	return out, true
}

func (l List) SetTag(id int64, tag model.Tag) (List, bool) {
	if _, ok := model.ParseTag(string(tag)); !ok {
		return l, false
	}
	i := l.index(id)
	if i < 0 {
		return l, false
	}
	if l[i].Tag == tag {
		return l, false
	}
	out := l.clone()
	out[i].Tag = tag
	return out, true
}

// Reorder removes fromID and reinserts it at toID's former index.
func (l List) Reorder(fromID, toID int64) (List, bool) {
	if fromID == toID {
		return l, false
	}
	from := l.index(fromID)
	to := l.index(toID)
	if from < 0 || to < 0 {
		return l, false
	}
	moved := l[from]
	out := make(List, 0, len(l))
	out = append(out, l[:from]...)
	out = append(out, l[from+1:]...)
	out = append(out[:to], append(List{moved}, out[to:]...)...)
	return out, true
}

// ClearEditing drops every editing flag but the first one.
func (l List) ClearEditing() (List, bool) {
	seen := false
	changed := false
	out := l.clone()
	for i := range out {
		if !out[i].IsEditing {
			continue
		}
		if seen {
			out[i].IsEditing = false
			changed = true
			continue
		}
		seen = true
	}
	if !changed {
		return l, false
	}
	return out, true
}

func (l List) Incomplete() List {
	var out List
	for _, t := range l {
		if !t.IsCompleted {
			out = append(out, t)
		}
	}
	return out
}

func (l List) Completed() List {
	var out List
	for _, t := range l {
		if t.IsCompleted {
			out = append(out, t)
		}
	}
	return out
}

// Filter keeps tasks carrying tag; an empty tag keeps everything.
func (l List) Filter(tag model.Tag) List {
	if tag == "" {
		return l
	}
	var out List
	for _, t := range l {
		if t.Tag == tag {
			out = append(out, t)
		}
	}
	return out
}

// NextStartable returns the first incomplete task in order, restricted to tag when set.
func (l List) NextStartable(tag model.Tag) (model.Task, bool) {
	for _, t := range l {
		if t.IsCompleted {
			continue
		}
		if tag != "" && t.Tag != tag {
			continue
		}
		return t, true
	}
	return model.Task{}, false
}

// EditingCount is the number of tasks with the editing flag set.
func (l List) EditingCount() int {
	n := 0
	for _, t := range l {
		if t.IsEditing {
			n++
		}
	}
	return n
}

// MaxID returns the largest id in the list (0 when empty).
func (l List) MaxID() int64 {
	var max int64
	for _, t := range l {
		if t.ID > max {
			max = t.ID
		}
	}
	return max
}
