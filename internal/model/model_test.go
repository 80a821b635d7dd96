package model

import "testing"

func TestParseTag_CaseInsensitive(t *testing.T) {
	got, ok := ParseTag("  work ")
	if !ok || got != TagWork {
		t.Fatalf("expected Work; got %q ok=%v", got, ok)
	}
	if _, ok := ParseTag("Gardening"); ok {
		t.Fatalf("expected unknown tag to be rejected")
	}
}

func TestNextTag_Wraps(t *testing.T) {
	all := Tags()
	if got := NextTag(all[len(all)-1]); got != all[0] {
		t.Fatalf("expected wrap to %q; got %q", all[0], got)
	}
	if got := NextTag(""); got != all[0] {
		t.Fatalf("expected empty tag to map to %q; got %q", all[0], got)
	}
}

func TestDocumentClone_IsDeep(t *testing.T) {
	id := int64(7)
	end := int64(1000)
	d := Document{
		Todos: []Task{{ID: 7, Content: "a"}},
		Timer: TimerState{ActiveID: &id, Status: StatusRunning, EndAt: &end},
	}
	c := d.Clone()
	c.Todos[0].Content = "changed"
	*c.Timer.ActiveID = 9
	*c.Timer.EndAt = 5

	if d.Todos[0].Content != "a" {
		t.Fatalf("clone shares todos slice")
	}
	if *d.Timer.ActiveID != 7 || *d.Timer.EndAt != 1000 {
		t.Fatalf("clone shares timer pointers")
	}
}

func TestTask_DurationSecDefaults(t *testing.T) {
	if got := (Task{}).DurationSec(); got != DefaultMinutes*60 {
		t.Fatalf("expected default duration; got %d", got)
	}
	if got := (Task{Minutes: 5}).DurationSec(); got != 300 {
		t.Fatalf("expected 300; got %d", got)
	}
}
