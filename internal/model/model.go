package model

import (
	"strings"
)

const (
	DefaultMinutes = 25
	// MaxMinutes bounds a focus session to one day.
	MaxMinutes = 24 * 60
)

type Tag string

const (
	TagStudy    Tag = "Study"
	TagWork     Tag = "Work"
	TagReading  Tag = "Reading"
	TagExercise Tag = "Exercise"
	TagLife     Tag = "Life"
)

// Tags lists the fixed tag set in display order.
func Tags() []Tag {
	return []Tag{TagStudy, TagWork, TagReading, TagExercise, TagLife}
}

// ParseTag matches s case-insensitively against the fixed tag set.
func ParseTag(s string) (Tag, bool) {
	s = strings.TrimSpace(s)
	for _, t := range Tags() {
		if strings.EqualFold(string(t), s) {
			return t, true
		}
	}
	return "", false
}

// NextTag returns the tag after t in display order, wrapping around.
// Unknown tags (including "") map to the first tag.
func NextTag(t Tag) Tag {
	all := Tags()
	for i, x := range all {
		if x == t {
			return all[(i+1)%len(all)]
		}
	}
	return all[0]
}

type Task struct {
	ID          int64  `json:"id"`
	Content     string `json:"content"`
	IsCompleted bool   `json:"isCompleted"`
	IsEditing   bool   `json:"isEditing"`
	Minutes     int    `json:"minutes"`
	Tag         Tag    `json:"tag,omitempty"`
}

// DurationSec returns the task's focus length in seconds, defaulting missing
// minutes and capping at MaxMinutes.
func (t Task) DurationSec() int {
	m := t.Minutes
	if m <= 0 {
		m = DefaultMinutes
	}
	if m > MaxMinutes {
		m = MaxMinutes
	}
	return m * 60
}

type TimerStatus string

const (
	StatusIdle    TimerStatus = "idle"
	StatusRunning TimerStatus = "running"
	StatusPaused  TimerStatus = "paused"
)

type TimerState struct {
	ActiveID     *int64      `json:"activeId"`
	Status       TimerStatus `json:"status"`
	RemainingSec int         `json:"remainingSec"`
	// EndAt is the absolute deadline in unix milliseconds; set only while running.
	EndAt *int64 `json:"endAt"`
}

// Locked reports whether the focus timer holds the collection.
func (s TimerState) Locked() bool {
	return s.Status == StatusRunning || s.Status == StatusPaused
}

// IsActive reports whether id is the timer's active task.
func (s TimerState) IsActive(id int64) bool {
	return s.ActiveID != nil && *s.ActiveID == id
}

type ThemeMode string

const (
	ThemeSystem ThemeMode = "system"
	ThemeLight  ThemeMode = "light"
	ThemeDark   ThemeMode = "dark"
)

func ParseThemeMode(s string) (ThemeMode, bool) {
	switch ThemeMode(strings.ToLower(strings.TrimSpace(s))) {
	case ThemeSystem:
		return ThemeSystem, true
	case ThemeLight:
		return ThemeLight, true
	case ThemeDark:
		return ThemeDark, true
	}
	return "", false
}

const (
	DefaultAccent = "#2d7ff9"
	DefaultVolume = 0.6
)

type Theme struct {
	Mode   ThemeMode `json:"mode"`
	Accent string    `json:"accent"`
}

type Sound struct {
	Enabled bool    `json:"enabled"`
	Path    string  `json:"path,omitempty"`
	Name    string  `json:"name,omitempty"`
	Volume  float64 `json:"volume"`
}

type Preferences struct {
	ShowCompleted bool  `json:"showCompleted"`
	TagFilter     Tag   `json:"tagFilter,omitempty"`
	Sound         Sound `json:"sound"`
	Theme         Theme `json:"theme"`
}

func DefaultPreferences() Preferences {
	return Preferences{
		Sound: Sound{Enabled: true, Volume: DefaultVolume},
		Theme: Theme{Mode: ThemeSystem, Accent: DefaultAccent},
	}
}

// Document is the persisted snapshot: tasks, timer state and UI preferences.
type Document struct {
	Version int         `json:"version"`
	NextID  int64       `json:"nextId"`
	Todos   []Task      `json:"todos"`
	Timer   TimerState  `json:"timer"`
	UI      Preferences `json:"ui"`
}

// Clone returns a deep copy so callers can hold snapshots across mutations.
func (d Document) Clone() Document {
	out := d
	out.Todos = append([]Task(nil), d.Todos...)
	if out.Todos == nil {
		out.Todos = []Task{}
	}
	if d.Timer.ActiveID != nil {
		v := *d.Timer.ActiveID
		out.Timer.ActiveID = &v
	}
	if d.Timer.EndAt != nil {
		v := *d.Timer.EndAt
		out.Timer.EndAt = &v
	}
	return out
}

// FindTask returns the task with the given id.
func (d Document) FindTask(id int64) (Task, bool) {
	for _, t := range d.Todos {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}

// ActiveTask returns the task tracked by the timer, if any.
func (d Document) ActiveTask() (Task, bool) {
	if d.Timer.ActiveID == nil {
		return Task{}, false
	}
	return d.FindTask(*d.Timer.ActiveID)
}
