package app

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"focusbar/internal/config"
	"focusbar/internal/focus"
	"focusbar/internal/model"
	"focusbar/internal/notify"
	"focusbar/internal/store"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *fakeClock {
	return &fakeClock{t: time.UnixMilli(1_700_000_000_000)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type recordingNotifier struct {
	mu     sync.Mutex
	alerts []notify.Alert
}

func (n *recordingNotifier) Notify(_ context.Context, a notify.Alert) notify.Result {
	n.mu.Lock()
	n.alerts = append(n.alerts, a)
	n.mu.Unlock()
	return notify.Result{Seq: a.Seq, TaskID: a.TaskID, Title: true}
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.alerts)
}

type failingKV struct{ store.KV }

func (failingKV) Get(string) (string, bool, error) { return "", false, errors.New("disk on fire") }

func newTestController(t *testing.T, kv store.KV) (*Controller, *fakeClock, *recordingNotifier) {
	t.Helper()
	clk := newClock()
	n := &recordingNotifier{}
	c := New(Options{Store: kv, Notifier: n, Now: clk.Now})
	t.Cleanup(c.Close)
	return c, clk, n
}

// twoTasks returns a controller holding [A(25m), B(25m)].
func twoTasks(t *testing.T) (*Controller, *fakeClock, *recordingNotifier, *store.Memory) {
	t.Helper()
	kv := store.NewMemory()
	raw, err := EncodeDocument(model.Document{
		NextID: 3,
		Todos: []model.Task{
			{ID: 1, Content: "A", Minutes: 25, Tag: model.TagStudy},
			{ID: 2, Content: "B", Minutes: 25, Tag: model.TagStudy},
		},
		Timer: focus.Idle(),
		UI:    model.DefaultPreferences(),
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := kv.Set(store.DocumentKey, raw); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	c, clk, n := newTestController(t, kv)
	c.Load()
	return c, clk, n, kv
}

func TestLoad_EmptyStoreSeeds(t *testing.T) {
	kv := store.NewMemory()
	c, _, _ := newTestController(t, kv)
	doc := c.Load()
	if len(doc.Todos) != 3 || doc.Todos[0].Content != "Study 1" || doc.Timer.Status != model.StatusIdle {
		t.Fatalf("unexpected seed: %#v", doc)
	}
	if kv.Writes() != 1 {
		t.Fatalf("expected seed to be persisted once; writes=%d", kv.Writes())
	}
}

func TestLoad_MalformedFallsBackToSeed(t *testing.T) {
	kv := store.NewMemory()
	_ = kv.Set(store.DocumentKey, "{not json")
	c, _, _ := newTestController(t, kv)
	doc := c.Load()
	if len(doc.Todos) != 3 {
		t.Fatalf("expected seed after malformed document; got %#v", doc.Todos)
	}
}

func TestLoad_ReadErrorDoesNotOverwrite(t *testing.T) {
	mem := store.NewMemory()
	c, _, _ := newTestController(t, failingKV{KV: mem})
	doc := c.Load()
	if len(doc.Todos) != 3 {
		t.Fatalf("expected seed on read error")
	}
	if mem.Writes() != 0 {
		t.Fatalf("seed must not overwrite an unreadable store; writes=%d", mem.Writes())
	}
}

func TestStart_OnlyNextInOrder(t *testing.T) {
	c, _, _, _ := twoTasks(t)
	if _, err := c.Start(2); !errors.Is(err, ErrOutOfTurn) {
		t.Fatalf("expected B to be out of turn; got %v", err)
	}
	doc, err := c.Start(1)
	if err != nil {
		t.Fatalf("start A: %v", err)
	}
	if doc.Timer.Status != model.StatusRunning || !doc.Timer.IsActive(1) || doc.Timer.RemainingSec != 1500 {
		t.Fatalf("unexpected timer: %#v", doc.Timer)
	}
	if _, err := c.Start(2); !errors.Is(err, focus.ErrInvalidTransition) {
		t.Fatalf("expected start(B) to be rejected while A is active; got %v", err)
	}
	if st := c.State(); !st.Timer.IsActive(1) {
		t.Fatalf("rejected start must not change state")
	}
}

func TestStart_RespectsTagFilter(t *testing.T) {
	c, _, _, _ := twoTasks(t)
	if _, err := c.SetTag(2, model.TagWork); err != nil {
		t.Fatalf("set tag: %v", err)
	}
	if _, err := c.SetTagFilter(model.TagWork); err != nil {
		t.Fatalf("set filter: %v", err)
	}
	if _, err := c.Start(2); err != nil {
		t.Fatalf("B is first within the Work filter: %v", err)
	}
}

func TestLocked_RejectsListMutations(t *testing.T) {
	c, _, _, kv := twoTasks(t)
	if _, err := c.Start(1); err != nil {
		t.Fatalf("start: %v", err)
	}
	before := kv.Writes()
	checks := map[string]func() error{
		"add":     func() error { _, err := c.Add("C", 10, ""); return err },
		"delete":  func() error { _, err := c.Delete(2); return err },
		"toggle":  func() error { _, err := c.ToggleComplete(2); return err },
		"editing": func() error { _, err := c.ToggleEditing(2); return err },
		"edit":    func() error { _, err := c.Edit(2, "X", 5); return err },
		"tag":     func() error { _, err := c.SetTag(2, model.TagLife); return err },
		"reorder": func() error { _, err := c.Reorder(2, 1); return err },
		"filter":  func() error { _, err := c.SetTagFilter(model.TagWork); return err },
	}
	for name, fn := range checks {
		if err := fn(); !errors.Is(err, ErrLocked) {
			t.Fatalf("%s: expected ErrLocked; got %v", name, err)
		}
	}
	if kv.Writes() != before {
		t.Fatalf("rejections must not write; writes %d -> %d", before, kv.Writes())
	}

	if _, err := c.SetShowCompleted(true); err != nil {
		t.Fatalf("showCompleted is allowed while locked: %v", err)
	}
	if _, err := c.SetVolume(0.2); err != nil {
		t.Fatalf("volume is allowed while locked: %v", err)
	}
	if _, err := c.ApplySettings(config.Event{Kind: config.EventTheme, Value: "dark"}); err != nil {
		t.Fatalf("theme is allowed while locked: %v", err)
	}
}

func TestPauseResume_PreservesRemaining(t *testing.T) {
	c, clk, _, _ := twoTasks(t)
	if _, err := c.Start(1); err != nil {
		t.Fatalf("start: %v", err)
	}
	clk.Advance(10 * time.Second)
	doc, err := c.Pause()
	if err != nil {
		t.Fatalf("pause: %v", err)
	}
	if doc.Timer.RemainingSec != 1490 || doc.Timer.EndAt != nil {
		t.Fatalf("unexpected paused state: %#v", doc.Timer)
	}
	clk.Advance(time.Hour)
	doc, err = c.Resume()
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if got := focus.Remaining(doc.Timer, clk.Now()); got < 1489 || got > 1491 {
		t.Fatalf("expected ~1490s after resume; got %d", got)
	}
	if _, err := c.Resume(); !errors.Is(err, focus.ErrInvalidTransition) {
		t.Fatalf("resume while running must be rejected; got %v", err)
	}
}

func TestTick_PersistsEachSecondOnce(t *testing.T) {
	c, clk, _, kv := twoTasks(t)
	if _, err := c.Start(1); err != nil {
		t.Fatalf("start: %v", err)
	}
	before := kv.Writes()
	for i := 0; i < 4; i++ {
		clk.Advance(250 * time.Millisecond)
		c.Tick()
	}
	if got := kv.Writes() - before; got != 1 {
		t.Fatalf("expected one write for one elapsed second; got %d", got)
	}
	if rem := c.State().Timer.RemainingSec; rem != 1499 {
		t.Fatalf("expected 1499 remaining; got %d", rem)
	}
}

func TestTick_ExpiryFiresOnce(t *testing.T) {
	c, clk, n, _ := twoTasks(t)
	if _, err := c.Start(1); err != nil {
		t.Fatalf("start: %v", err)
	}
	clk.Advance(25*time.Minute + time.Second)
	_, fired := c.Tick()
	if !fired {
		t.Fatalf("expected expiry on first tick past the deadline")
	}
	_, again := c.Tick()
	c.WaitAlerts()
	if again || n.count() != 1 {
		t.Fatalf("expected exactly one alert; fired again=%v alerts=%d", again, n.count())
	}
	doc := c.State()
	if doc.Timer.Status != model.StatusIdle || !doc.Todos[0].IsCompleted || doc.Todos[1].IsCompleted {
		t.Fatalf("unexpected state after expiry: %#v", doc)
	}
	res, ok := c.LastAlert()
	if !ok || res.TaskID != 1 || res.Seq != 1 {
		t.Fatalf("expected alert result recorded; got %#v ok=%v", res, ok)
	}
	if !strings.Contains(n.alerts[0].Body, "Finished: A (25m)") {
		t.Fatalf("unexpected body: %q", n.alerts[0].Body)
	}
}

func TestApplyAlertResult_DropsStale(t *testing.T) {
	c, _, _ := newTestController(t, store.NewMemory())
	c.Load()
	c.mu.Lock()
	c.alertSeq = 2
	c.mu.Unlock()
	c.applyAlertResult(notify.Result{Seq: 1, TaskID: 9})
	if _, ok := c.LastAlert(); ok {
		t.Fatalf("stale result must be dropped")
	}
	c.applyAlertResult(notify.Result{Seq: 2, TaskID: 9})
	if res, ok := c.LastAlert(); !ok || res.TaskID != 9 {
		t.Fatalf("expected latest result kept; got %#v", res)
	}
}

func TestFinish_CompletesWithoutAlert(t *testing.T) {
	c, _, n, _ := twoTasks(t)
	if _, err := c.Finish(); !errors.Is(err, focus.ErrInvalidTransition) {
		t.Fatalf("finish while idle must be rejected; got %v", err)
	}
	if _, err := c.Start(1); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := c.Pause(); err != nil {
		t.Fatalf("pause: %v", err)
	}
	doc, err := c.Finish()
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if doc.Timer.Status != model.StatusIdle || doc.Timer.RemainingSec != 0 || !doc.Todos[0].IsCompleted {
		t.Fatalf("unexpected state: %#v", doc)
	}
	c.WaitAlerts()
	if n.count() != 0 {
		t.Fatalf("manual finish must not alert")
	}
	if _, err := c.StartNext(); err != nil {
		t.Fatalf("B should now be startable: %v", err)
	}
}

func TestPersistReloadRoundTrip(t *testing.T) {
	c, clk, _, kv := twoTasks(t)
	if _, err := c.Add("C", 10, model.TagReading); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := c.Reorder(3, 1); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if _, err := c.Start(3); err != nil {
		t.Fatalf("start: %v", err)
	}
	clk.Advance(61 * time.Second)
	want, err := c.Pause()
	if err != nil {
		t.Fatalf("pause: %v", err)
	}

	c2 := New(Options{Store: kv, Now: clk.Now})
	defer c2.Close()
	got := c2.Load()
	if len(got.Todos) != 3 || got.Todos[0].ID != 3 || got.NextID != 4 {
		t.Fatalf("unexpected todos after reload: %#v", got.Todos)
	}
	if got.Timer.Status != model.StatusPaused || !got.Timer.IsActive(3) || got.Timer.RemainingSec != want.Timer.RemainingSec {
		t.Fatalf("timer not restored: got %#v want %#v", got.Timer, want.Timer)
	}
}

func TestLoad_ExpiredWhileClosedFinishes(t *testing.T) {
	c, clk, _, kv := twoTasks(t)
	if _, err := c.Start(1); err != nil {
		t.Fatalf("start: %v", err)
	}
	c.Close()

	// Reopen 35 minutes later: the deadline is 10 minutes in the past.
	clk.Advance(35 * time.Minute)
	n := &recordingNotifier{}
	c2 := New(Options{Store: kv, Notifier: n, Now: clk.Now})
	defer c2.Close()
	doc := c2.Load()
	c2.WaitAlerts()
	if doc.Timer.Status != model.StatusIdle || doc.Timer.RemainingSec != 0 || !doc.Todos[0].IsCompleted {
		t.Fatalf("expected finished task and idle timer; got %#v", doc)
	}
	if n.count() != 1 {
		t.Fatalf("expected the missed expiry to alert once; got %d", n.count())
	}
}

func TestReorder_MovesToTargetPosition(t *testing.T) {
	c, _, _, _ := twoTasks(t)
	if _, err := c.Add("C", 0, ""); err != nil {
		t.Fatalf("add: %v", err)
	}
	doc, err := c.Reorder(3, 1)
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	var got []int64
	for _, task := range doc.Todos {
		got = append(got, task.ID)
	}
	if len(got) != 3 || got[0] != 3 || got[1] != 1 || got[2] != 2 {
		t.Fatalf("unexpected order: %v", got)
	}
	if _, err := c.Reorder(1, 1); !errors.Is(err, ErrInvalid) {
		t.Fatalf("same id must be rejected; got %v", err)
	}
	if _, err := c.Reorder(1, 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing id must be rejected; got %v", err)
	}
}

func TestEditing_AtMostOne(t *testing.T) {
	c, _, _, _ := twoTasks(t)
	c.ToggleEditing(1)
	doc, _ := c.ToggleEditing(2)
	if doc.Todos[0].IsEditing || !doc.Todos[1].IsEditing {
		t.Fatalf("expected only B editing: %#v", doc.Todos)
	}
	doc, err := c.Edit(2, "  B2 ", 0)
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if doc.Todos[1].Content != "B2" || doc.Todos[1].Minutes != 25 || doc.Todos[1].IsEditing {
		t.Fatalf("unexpected edit result: %#v", doc.Todos[1])
	}
	if _, err := c.Edit(2, "   ", 5); !errors.Is(err, ErrInvalid) {
		t.Fatalf("blank edit must be rejected; got %v", err)
	}
}

func TestAdd_Validation(t *testing.T) {
	c, _, _, kv := twoTasks(t)
	before := kv.Writes()
	if _, err := c.Add("   ", 10, ""); !errors.Is(err, ErrInvalid) {
		t.Fatalf("blank content must be rejected; got %v", err)
	}
	if _, err := c.Add("x", 10, "Gardening"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("unknown tag must be rejected; got %v", err)
	}
	if kv.Writes() != before {
		t.Fatalf("rejected adds must not write")
	}
	doc, err := c.Add("Run", 0, "exercise")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	last := doc.Todos[len(doc.Todos)-1]
	if last.ID != 3 || last.Minutes != 25 || last.Tag != model.TagExercise || doc.NextID != 4 {
		t.Fatalf("unexpected task: %#v next=%d", last, doc.NextID)
	}
	if kv.Writes() != before+1 {
		t.Fatalf("expected exactly one write; got %d", kv.Writes()-before)
	}
}

func TestSetSound(t *testing.T) {
	c, _, _, _ := twoTasks(t)
	if _, err := c.SetSound(model.Sound{Enabled: true, Path: "/tmp/alarm.ogg", Volume: 0.5}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("unsupported extension must be rejected; got %v", err)
	}
	doc, err := c.SetSound(model.Sound{Enabled: true, Path: "/tmp/alarm.mp3", Volume: 4})
	if err != nil {
		t.Fatalf("set sound: %v", err)
	}
	if doc.UI.Sound.Name != "alarm.mp3" || doc.UI.Sound.Volume != 1 {
		t.Fatalf("unexpected sound: %#v", doc.UI.Sound)
	}
}

func TestApplySettings(t *testing.T) {
	c, _, _, _ := twoTasks(t)
	doc, err := c.ApplySettings(config.Event{Kind: config.EventAccent, Value: "purple"})
	if err != nil || doc.UI.Theme.Accent != "#8e44ad" {
		t.Fatalf("accent not applied: %#v err=%v", doc.UI.Theme, err)
	}
	if _, err := c.ApplySettings(config.Event{Kind: config.EventTheme, Value: "sepia"}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("unknown theme must be rejected; got %v", err)
	}
}

func storedDocument(t *testing.T, kv store.KV) model.Document {
	t.Helper()
	raw, ok, err := kv.Get(store.DocumentKey)
	if err != nil || !ok {
		t.Fatalf("read store: ok=%v err=%v", ok, err)
	}
	doc, err := DecodeDocument(raw, time.UnixMilli(1_700_000_000_000))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return doc
}

func TestTick_AdoptsPauseFromAnotherProcess(t *testing.T) {
	watcher, clk, n, kv := twoTasks(t)
	if _, err := watcher.StartNext(); err != nil {
		t.Fatalf("start: %v", err)
	}

	other, _, _ := newTestController(t, kv)
	other.Load()
	if _, err := other.Pause(); err != nil {
		t.Fatalf("pause elsewhere: %v", err)
	}

	clk.Advance(10 * time.Second)
	doc, fired := watcher.Tick()
	if fired || doc.Timer.Status != model.StatusPaused {
		t.Fatalf("expected watcher to see the pause; status=%s fired=%v", doc.Timer.Status, fired)
	}
	if got := storedDocument(t, kv).Timer.Status; got != model.StatusPaused {
		t.Fatalf("watcher overwrote the pause; store status=%s", got)
	}

	// A finish elsewhere ends the watcher's session without an alert.
	if _, err := other.Finish(); err != nil {
		t.Fatalf("finish elsewhere: %v", err)
	}
	clk.Advance(30 * time.Minute)
	doc, fired = watcher.Tick()
	watcher.WaitAlerts()
	if fired || doc.Timer.Status != model.StatusIdle || !doc.Todos[0].IsCompleted || n.count() != 0 {
		t.Fatalf("unexpected state after finish elsewhere: status=%s fired=%v alerts=%d", doc.Timer.Status, fired, n.count())
	}
}

func TestMutations_SeeWritesFromAnotherProcess(t *testing.T) {
	a, _, _, kv := twoTasks(t)
	b, _, _ := newTestController(t, kv)
	b.Load()

	if _, err := b.Add("From B", 10, model.TagWork); err != nil {
		t.Fatalf("add in b: %v", err)
	}
	doc, err := a.Add("From A", 15, model.TagLife)
	if err != nil {
		t.Fatalf("add in a: %v", err)
	}
	if len(doc.Todos) != 4 || doc.Todos[2].Content != "From B" || doc.Todos[3].ID != 4 {
		t.Fatalf("expected a to build on b's write; got %#v", doc.Todos)
	}
	if got := len(storedDocument(t, kv).Todos); got != 4 {
		t.Fatalf("expected 4 stored tasks; got %d", got)
	}
}

func TestAdd_OversizedMinutesRejectedAndNeverStarts(t *testing.T) {
	c, _, _, _ := twoTasks(t)
	if _, err := c.Add("Forever", math.MaxInt, ""); !errors.Is(err, ErrInvalid) || !IsRejection(err) {
		t.Fatalf("expected invalid rejection; got %v", err)
	}
	if _, err := c.Edit(1, "A", model.MaxMinutes+1); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected edit rejection; got %v", err)
	}
	if len(c.State().Todos) != 2 {
		t.Fatalf("rejected add must not change the list")
	}

	// A hand-edited store with huge minutes is capped on load.
	kv := store.NewMemory()
	if err := kv.Set(store.DocumentKey, `{"todos":[{"id":1,"content":"Huge","minutes":2147483647000}]}`); err != nil {
		t.Fatalf("seed: %v", err)
	}
	big, bclk, bn := newTestController(t, kv)
	doc := big.Load()
	if doc.Todos[0].Minutes != model.MaxMinutes {
		t.Fatalf("expected minutes capped at %d; got %d", model.MaxMinutes, doc.Todos[0].Minutes)
	}
	doc, err := big.StartNext()
	if err != nil || doc.Timer.RemainingSec != model.MaxMinutes*60 {
		t.Fatalf("start: err=%v remaining=%d", err, doc.Timer.RemainingSec)
	}
	bclk.Advance(time.Second)
	doc, fired := big.Tick()
	big.WaitAlerts()
	if fired || doc.Timer.Status != model.StatusRunning || bn.count() != 0 {
		t.Fatalf("session must keep running; status=%s fired=%v", doc.Timer.Status, fired)
	}
}

func TestStart_DropsOpenEdit(t *testing.T) {
	c, _, _, _ := twoTasks(t)
	if _, err := c.ToggleEditing(2); err != nil {
		t.Fatalf("editing: %v", err)
	}
	doc, err := c.Start(1)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if doc.Todos[1].IsEditing {
		t.Fatalf("expected start to drop the open edit")
	}
}

type waitingNotifier struct {
	recordingNotifier
	waited bool
}

func (n *waitingNotifier) Wait() { n.waited = true }

func TestClose_WaitsForNotifierRestores(t *testing.T) {
	n := &waitingNotifier{}
	c := New(Options{Store: store.NewMemory(), Notifier: n, Now: newClock().Now})
	c.Close()
	if !n.waited {
		t.Fatalf("expected Close to wait for the notifier")
	}
}
