package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"focusbar/internal/focus"
	"focusbar/internal/model"
	"focusbar/internal/todo"
)

// DocumentVersion is written into every persisted document.
const DocumentVersion = 1

// SeedDocument is what a fresh install (or an unreadable store) starts with.
func SeedDocument() model.Document {
	todos := make([]model.Task, 0, 3)
	for i := 1; i <= 3; i++ {
		todos = append(todos, model.Task{
			ID:      int64(i),
			Content: "Study " + strconv.Itoa(i),
			Minutes: model.DefaultMinutes,
			Tag:     model.TagStudy,
		})
	}
	return model.Document{
		Version: DocumentVersion,
		NextID:  4,
		Todos:   todos,
		Timer:   focus.Idle(),
		UI:      model.DefaultPreferences(),
	}
}

// wire shapes accept both our own documents and the ones written by the
// desktop app, which stored Math.random() ids and no counter.
type wireDocument struct {
	Version int             `json:"version"`
	NextID  json.Number     `json:"nextId"`
	Todos   []wireTask      `json:"todos"`
	Timer   *wireTimer      `json:"timer"`
	UI      json.RawMessage `json:"ui"`
}

type wireTask struct {
	ID          json.Number `json:"id"`
	Content     string      `json:"content"`
	IsCompleted bool        `json:"isCompleted"`
	IsEditing   bool        `json:"isEditing"`
	Minutes     json.Number `json:"minutes"`
	Tag         string      `json:"tag"`
}

type wireTimer struct {
	ActiveID     json.Number `json:"activeId"`
	Status       string      `json:"status"`
	RemainingSec json.Number `json:"remainingSec"`
	EndAt        json.Number `json:"endAt"`
}

// EncodeDocument serializes doc for the store.
func EncodeDocument(doc model.Document) (string, error) {
	doc.Version = DocumentVersion
	if doc.Todos == nil {
		doc.Todos = []model.Task{}
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeDocument parses a stored document and repairs it so every invariant
// holds. Timer state is normalized against now; a running timer whose
// deadline has passed stays running with zero remaining so the caller can
// run the expiry path.
func DecodeDocument(raw string, now time.Time) (model.Document, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var w wireDocument
	if err := dec.Decode(&w); err != nil {
		return model.Document{}, err
	}
	if w.Todos == nil && w.Timer == nil && len(w.UI) == 0 {
		return model.Document{}, errors.New("document has no known fields")
	}

	doc := model.Document{Version: DocumentVersion, Todos: []model.Task{}}

	// Integer ids survive; anything else (legacy floats, duplicates) is
	// renumbered from the counter after the valid ones are known.
	remap := map[string]int64{}
	used := map[int64]bool{}
	var maxID int64
	var pending []int
	var oldIDs []string
	for _, wt := range w.Todos {
		content := strings.TrimSpace(wt.Content)
		if content == "" {
			continue
		}
		t := model.Task{
			Content:     content,
			IsCompleted: wt.IsCompleted,
			IsEditing:   wt.IsEditing,
			Minutes:     numberInt(wt.Minutes),
		}
		if t.Minutes <= 0 {
			t.Minutes = model.DefaultMinutes
		}
		if t.Minutes > model.MaxMinutes {
			t.Minutes = model.MaxMinutes
		}
		if tag, ok := model.ParseTag(wt.Tag); ok {
			t.Tag = tag
		} else {
			t.Tag = model.TagStudy
		}
		if id, ok := integerID(wt.ID); ok && !used[id] {
			t.ID = id
			used[id] = true
			remap[wt.ID.String()] = id
			if id > maxID {
				maxID = id
			}
		} else {
			pending = append(pending, len(doc.Todos))
		}
		oldIDs = append(oldIDs, wt.ID.String())
		doc.Todos = append(doc.Todos, t)
	}

	next := maxID + 1
	if n, ok := integerID(w.NextID); ok && n > next {
		next = n
	}
	for _, i := range pending {
		old := oldIDs[i]
		doc.Todos[i].ID = next
		if _, seen := remap[old]; !seen && old != "" {
			remap[old] = next
		}
		next++
	}
	doc.NextID = next

	if l, changed := todo.List(doc.Todos).ClearEditing(); changed {
		doc.Todos = l
	}

	doc.UI = decodePreferences(w.UI)
	doc.Timer = decodeTimer(w.Timer, remap, doc.Todos, now)
	return doc, nil
}

func decodeTimer(wt *wireTimer, remap map[string]int64, todos []model.Task, now time.Time) model.TimerState {
	if wt == nil {
		return focus.Idle()
	}
	st := model.TimerState{
		Status:       model.TimerStatus(strings.ToLower(strings.TrimSpace(wt.Status))),
		RemainingSec: numberInt(wt.RemainingSec),
	}
	if id, ok := remap[wt.ActiveID.String()]; ok {
		st.ActiveID = &id
	}
	if wt.EndAt != "" {
		if f, err := wt.EndAt.Float64(); err == nil && f > 0 {
			end := int64(f)
			st.EndAt = &end
		}
	}
	exists := func(id int64) bool {
		for _, t := range todos {
			if t.ID == id {
				return !t.IsCompleted
			}
		}
		return false
	}
	return focus.Normalize(st, exists, now)
}

func decodePreferences(raw json.RawMessage) model.Preferences {
	p := model.DefaultPreferences()
	if len(bytes.TrimSpace(raw)) == 0 {
		return p
	}
	// Unknown or mistyped fields fall back to defaults.
	var ui struct {
		ShowCompleted *bool  `json:"showCompleted"`
		TagFilter     string `json:"tagFilter"`
		Sound         *struct {
			Enabled *bool    `json:"enabled"`
			Path    string   `json:"path"`
			Name    string   `json:"name"`
			Volume  *float64 `json:"volume"`
		} `json:"sound"`
		Theme *struct {
			Mode   string `json:"mode"`
			Accent string `json:"accent"`
		} `json:"theme"`
	}
	if err := json.Unmarshal(raw, &ui); err != nil {
		return p
	}
	if ui.ShowCompleted != nil {
		p.ShowCompleted = *ui.ShowCompleted
	}
	if tag, ok := model.ParseTag(ui.TagFilter); ok {
		p.TagFilter = tag
	}
	if s := ui.Sound; s != nil {
		if s.Enabled != nil {
			p.Sound.Enabled = *s.Enabled
		}
		p.Sound.Path = strings.TrimSpace(s.Path)
		p.Sound.Name = strings.TrimSpace(s.Name)
		if s.Volume != nil && *s.Volume >= 0 && *s.Volume <= 1 {
			p.Sound.Volume = *s.Volume
		}
	}
	if th := ui.Theme; th != nil {
		if m, ok := model.ParseThemeMode(th.Mode); ok {
			p.Theme.Mode = m
		}
		if a := strings.TrimSpace(th.Accent); a != "" {
			p.Theme.Accent = a
		}
	}
	return p
}

// integerID accepts positive whole numbers only.
func integerID(n json.Number) (int64, bool) {
	if n == "" {
		return 0, false
	}
	if v, err := n.Int64(); err == nil {
		return v, v > 0
	}
	return 0, false
}

func numberInt(n json.Number) int {
	if n == "" {
		return 0
	}
	f, err := n.Float64()
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(math.Round(f))
}
