// Package app owns the focusbar state: it hydrates the document from the
// store, gates every mutation on the focus lock, persists after each change
// and drives timer expiry and the notifier.
package app

import (
	"context"
	"log/slog"
	"math"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"focusbar/internal/config"
	"focusbar/internal/focus"
	"focusbar/internal/model"
	"focusbar/internal/notify"
	"focusbar/internal/sound"
	"focusbar/internal/store"
	"focusbar/internal/todo"
)

// Notifier delivers an expiry alert. *notify.Notifier satisfies it.
type Notifier interface {
	Notify(ctx context.Context, a notify.Alert) notify.Result
}

type Options struct {
	Store    store.KV
	Notifier Notifier
	Logger   *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
	// DefaultMinutes applies to Add calls without minutes.
	DefaultMinutes int
	// OnAlert runs after an alert result has been accepted (outside the lock).
	OnAlert func(notify.Result)
}

type Controller struct {
	mu sync.Mutex

	kv             store.KV
	notifier       Notifier
	log            *slog.Logger
	now            func() time.Time
	defaultMinutes int
	onAlert        func(notify.Result)

	doc   model.Document
	saved string

	// expiry guard: fired is reset whenever the active id or status changes.
	guardID     int64
	guardStatus model.TimerStatus
	fired       bool

	alertSeq  uint64
	lastAlert *notify.Result

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(opts Options) *Controller {
	c := &Controller{
		kv:             opts.Store,
		notifier:       opts.Notifier,
		log:            opts.Logger,
		now:            opts.Now,
		defaultMinutes: opts.DefaultMinutes,
		onAlert:        opts.OnAlert,
		doc:            SeedDocument(),
	}
	if c.kv == nil {
		c.kv = store.NewMemory()
	}
	if c.log == nil {
		c.log = slog.New(slog.DiscardHandler)
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.defaultMinutes <= 0 || c.defaultMinutes > model.MaxMinutes {
		c.defaultMinutes = model.DefaultMinutes
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())
	return c
}

// Load hydrates from the store. Read errors and malformed documents fall
// back to the seed. A timer that expired while the program was closed is
// finished immediately.
func (c *Controller) Load() model.Document {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	raw, ok, err := c.kv.Get(store.DocumentKey)
	switch {
	case err != nil:
		// Keep whatever is stored; the seed is only written once the user changes something.
		c.log.Warn("load: store read failed; using seed", "err", err)
		c.doc = SeedDocument()
		c.saved, _ = EncodeDocument(c.doc)
	case !ok:
		c.doc = SeedDocument()
	default:
		doc, err := DecodeDocument(raw, now)
		if err != nil {
			c.log.Warn("load: malformed document; using seed", "err", err)
			doc = SeedDocument()
		}
		c.doc = doc
		c.saved = raw
	}
	c.resetGuard()

	if focus.Expired(c.doc.Timer, now) {
		c.log.Info("load: focus session expired while closed", "task", *c.doc.Timer.ActiveID)
		c.expire()
	}
	c.persist()
	return c.doc.Clone()
}

// State returns a snapshot of the current document.
func (c *Controller) State() model.Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doc.Clone()
}

func (c *Controller) Locked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doc.Timer.Locked()
}

// Remaining is the live countdown for the active task.
func (c *Controller) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return focus.Remaining(c.doc.Timer, c.now())
}

// LastAlert returns the most recent accepted notifier result.
func (c *Controller) LastAlert() (notify.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastAlert == nil {
		return notify.Result{}, false
	}
	return *c.lastAlert, true
}

// Add appends a task. minutes <= 0 uses the default; an empty tag uses Study.
func (c *Controller) Add(content string, minutes int, tag model.Tag) (model.Document, error) {
	return c.mutateList(func(l todo.List) (todo.List, error) {
		if minutes <= 0 {
			minutes = c.defaultMinutes
		}
		if tag != "" {
			parsed, ok := model.ParseTag(string(tag))
			if !ok {
				return l, ErrInvalid
			}
			tag = parsed
		}
		out, ok := l.Add(model.Task{ID: c.doc.NextID, Content: content, Minutes: minutes, Tag: tag})
		if !ok {
			return l, ErrInvalid
		}
		c.doc.NextID++
		return out, nil
	})
}

func (c *Controller) Delete(id int64) (model.Document, error) {
	return c.mutateList(func(l todo.List) (todo.List, error) {
		out, ok := l.Delete(id)
		if !ok {
			return l, NotFoundError{Kind: "task", ID: id}
		}
		return out, nil
	})
}

// ToggleComplete flips completion. It never touches the timer.
func (c *Controller) ToggleComplete(id int64) (model.Document, error) {
	return c.mutateList(func(l todo.List) (todo.List, error) {
		out, ok := l.ToggleComplete(id)
		if !ok {
			return l, NotFoundError{Kind: "task", ID: id}
		}
		return out, nil
	})
}

func (c *Controller) ToggleEditing(id int64) (model.Document, error) {
	return c.mutateList(func(l todo.List) (todo.List, error) {
		out, ok := l.ToggleEditing(id)
		if !ok {
			return l, NotFoundError{Kind: "task", ID: id}
		}
		return out, nil
	})
}

// Edit replaces content and (when minutes > 0) the duration.
func (c *Controller) Edit(id int64, content string, minutes int) (model.Document, error) {
	return c.mutateList(func(l todo.List) (todo.List, error) {
		if _, ok := l.Find(id); !ok {
			return l, NotFoundError{Kind: "task", ID: id}
		}
		out, ok := l.Edit(id, content, minutes)
		if !ok {
			return l, ErrInvalid
		}
		return out, nil
	})
}

func (c *Controller) SetTag(id int64, tag model.Tag) (model.Document, error) {
	return c.mutateList(func(l todo.List) (todo.List, error) {
		if _, ok := l.Find(id); !ok {
			return l, NotFoundError{Kind: "task", ID: id}
		}
		parsed, ok := model.ParseTag(string(tag))
		if !ok {
			return l, ErrInvalid
		}
		out, _ := l.SetTag(id, parsed)
		return out, nil
	})
}

// Reorder moves fromID to toID's position.
func (c *Controller) Reorder(fromID, toID int64) (model.Document, error) {
	return c.mutateList(func(l todo.List) (todo.List, error) {
		if fromID == toID {
			return l, ErrInvalid
		}
		for _, id := range []int64{fromID, toID} {
			if _, ok := l.Find(id); !ok {
				return l, NotFoundError{Kind: "task", ID: id}
			}
		}
		out, _ := l.Reorder(fromID, toID)
		return out, nil
	})
}

// SetTagFilter restricts the list (and the next startable task) to tag; "" clears it.
func (c *Controller) SetTagFilter(tag model.Tag) (model.Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reload()
	if c.doc.Timer.Locked() {
		return c.doc.Clone(), ErrLocked
	}
	if tag != "" {
		parsed, ok := model.ParseTag(string(tag))
		if !ok {
			return c.doc.Clone(), ErrInvalid
		}
		tag = parsed
	}
	c.doc.UI.TagFilter = tag
	c.persist()
	return c.doc.Clone(), nil
}

func (c *Controller) SetShowCompleted(show bool) (model.Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reload()
	c.doc.UI.ShowCompleted = show
	c.persist()
	return c.doc.Clone(), nil
}

// SetSound replaces the sound preferences. A non-empty path must have a
// supported audio extension; Name defaults to the file name.
func (c *Controller) SetSound(s model.Sound) (model.Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reload()
	s.Path = strings.TrimSpace(s.Path)
	if s.Path != "" && !sound.ValidExt(s.Path) {
		return c.doc.Clone(), ErrInvalid
	}
	if s.Path == "" {
		s.Name = ""
	} else if strings.TrimSpace(s.Name) == "" {
		s.Name = filepath.Base(s.Path)
	}
	if math.IsNaN(s.Volume) {
		return c.doc.Clone(), ErrInvalid
	}
	s.Volume = sound.ClampVolume(s.Volume)
	c.doc.UI.Sound = s
	c.persist()
	return c.doc.Clone(), nil
}

func (c *Controller) SetVolume(v float64) (model.Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reload()
	if math.IsNaN(v) {
		return c.doc.Clone(), ErrInvalid
	}
	c.doc.UI.Sound.Volume = sound.ClampVolume(v)
	c.persist()
	return c.doc.Clone(), nil
}

// ApplySettings stores a theme or accent pushed from the settings file.
func (c *Controller) ApplySettings(ev config.Event) (model.Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reload()
	switch ev.Kind {
	case config.EventTheme:
		mode, ok := model.ParseThemeMode(ev.Value)
		if !ok {
			return c.doc.Clone(), ErrInvalid
		}
		c.doc.UI.Theme.Mode = mode
	case config.EventAccent:
		hex, ok := config.ParseAccent(ev.Value)
		if !ok {
			return c.doc.Clone(), ErrInvalid
		}
		c.doc.UI.Theme.Accent = hex
	default:
		return c.doc.Clone(), ErrInvalid
	}
	c.persist()
	return c.doc.Clone(), nil
}

// Start begins a focus session on id. Only the next startable task (first
// incomplete, within the tag filter) may start, and only from idle. Any open
// edit is dropped: the list stays locked until the session ends.
func (c *Controller) Start(id int64) (model.Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reload()
	l := todo.List(c.doc.Todos)
	task, ok := l.Find(id)
	if !ok {
		return c.doc.Clone(), NotFoundError{Kind: "task", ID: id}
	}
	return c.start(l, task)
}

// StartNext starts whichever task is next in order.
func (c *Controller) StartNext() (model.Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reload()
	l := todo.List(c.doc.Todos)
	next, ok := l.NextStartable(c.doc.UI.TagFilter)
	if !ok {
		return c.doc.Clone(), NotFoundError{Kind: "startable task", ID: 0}
	}
	return c.start(l, next)
}

func (c *Controller) start(l todo.List, task model.Task) (model.Document, error) {
	next, hasNext := l.NextStartable(c.doc.UI.TagFilter)
	st, err := focus.Start(c.doc.Timer, task, next, hasNext, c.now())
	if err != nil {
		return c.doc.Clone(), err
	}
	if cleared, changed := clearAllEditing(l); changed {
		c.doc.Todos = cleared
	}
	c.setTimer(st)
	c.log.Debug("focus: started", "task", task.ID, "remaining", st.RemainingSec)
	return c.doc.Clone(), nil
}

func (c *Controller) Pause() (model.Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reload()
	st, err := focus.Pause(c.doc.Timer, c.now())
	if err != nil {
		return c.doc.Clone(), err
	}
	c.setTimer(st)
	return c.doc.Clone(), nil
}

func (c *Controller) Resume() (model.Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reload()
	st, err := focus.Resume(c.doc.Timer, c.now())
	if err != nil {
		return c.doc.Clone(), err
	}
	c.setTimer(st)
	return c.doc.Clone(), nil
}

// Finish completes the active task early. No alert is sent.
func (c *Controller) Finish() (model.Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reload()
	if err := c.finish(); err != nil {
		return c.doc.Clone(), err
	}
	return c.doc.Clone(), nil
}

// Tick recomputes the remaining time from the deadline. The first tick that
// sees zero while running alerts and finishes the task; the returned bool
// reports whether that happened on this call.
func (c *Controller) Tick() (model.Document, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reload()
	if c.doc.Timer.Status != model.StatusRunning {
		return c.doc.Clone(), false
	}
	c.syncGuard()
	now := c.now()
	remaining := focus.Remaining(c.doc.Timer, now)
	if remaining != c.doc.Timer.RemainingSec {
		c.doc.Timer.RemainingSec = remaining
		c.persist()
	}
	if !focus.Expired(c.doc.Timer, now) || c.fired {
		return c.doc.Clone(), false
	}
	c.expire()
	return c.doc.Clone(), true
}

// WaitAlerts blocks until in-flight notifier calls have returned.
func (c *Controller) WaitAlerts() {
	c.wg.Wait()
}

// Close cancels in-flight notifier work and waits for it, including a
// pending title restore when the notifier exposes Wait.
func (c *Controller) Close() {
	c.cancel()
	c.wg.Wait()
	if w, ok := c.notifier.(interface{ Wait() }); ok {
		w.Wait()
	}
}

// expire sends the alert and finishes the active task. Callers hold mu.
func (c *Controller) expire() {
	task, ok := c.doc.ActiveTask()
	if !ok {
		c.setTimer(focus.Idle())
		return
	}
	c.fired = true
	c.alertSeq++
	alert := notify.NewAlert(c.alertSeq, task, c.doc.UI.Sound)
	c.log.Info("focus: time is up", "task", task.ID, "seq", alert.Seq)
	c.dispatch(alert)
	if err := c.finish(); err != nil {
		c.log.Error("focus: finish after expiry failed", "err", err)
	}
}

func (c *Controller) dispatch(a notify.Alert) {
	if c.notifier == nil {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		res := c.notifier.Notify(c.ctx, a)
		c.applyAlertResult(res)
	}()
}

// applyAlertResult records res unless a newer alert has been sent since.
func (c *Controller) applyAlertResult(res notify.Result) {
	c.mu.Lock()
	if res.Seq != c.alertSeq {
		c.mu.Unlock()
		c.log.Debug("notify: dropping stale result", "seq", res.Seq, "latest", c.alertSeq)
		return
	}
	r := res
	c.lastAlert = &r
	cb := c.onAlert
	c.mu.Unlock()

	for _, e := range res.Errors {
		c.log.Warn("notify: channel failed", "seq", res.Seq, "err", e)
	}
	if cb != nil {
		cb(res)
	}
}

func (c *Controller) finish() error {
	st, id, err := focus.Finish(c.doc.Timer)
	if err != nil {
		return err
	}
	if l, changed := todo.List(c.doc.Todos).Complete(id); changed {
		c.doc.Todos = l
	}
	c.setTimer(st)
	c.log.Debug("focus: finished", "task", id)
	return nil
}

func (c *Controller) mutateList(fn func(todo.List) (todo.List, error)) (model.Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reload()
	if c.doc.Timer.Locked() {
		return c.doc.Clone(), ErrLocked
	}
	out, err := fn(todo.List(c.doc.Todos))
	if err != nil {
		return c.doc.Clone(), err
	}
	c.doc.Todos = out
	c.persist()
	return c.doc.Clone(), nil
}

func (c *Controller) setTimer(st model.TimerState) {
	c.doc.Timer = st
	c.syncGuard()
	c.persist()
}

func (c *Controller) syncGuard() {
	var id int64
	if c.doc.Timer.ActiveID != nil {
		id = *c.doc.Timer.ActiveID
	}
	if id != c.guardID || c.doc.Timer.Status != c.guardStatus {
		c.guardID, c.guardStatus = id, c.doc.Timer.Status
		c.fired = false
	}
}

func (c *Controller) resetGuard() {
	c.guardID, c.guardStatus, c.fired = 0, "", false
	c.syncGuard()
}

// persist writes the document when it differs from the last write. Write
// failures are logged; the in-memory state stays authoritative.
func (c *Controller) persist() {
	raw, err := EncodeDocument(c.doc)
	if err != nil {
		c.log.Error("persist: encode failed", "err", err)
		return
	}
	if raw == c.saved {
		return
	}
	if err := c.kv.Set(store.DocumentKey, raw); err != nil {
		c.log.Error("persist: store write failed", "err", err)
		return
	}
	c.saved = raw
}

// reload adopts the stored document when another process has written it
// since our last read or write. Callers hold mu.
func (c *Controller) reload() {
	raw, ok, err := c.kv.Get(store.DocumentKey)
	if err != nil {
		c.log.Debug("reload: store read failed; keeping in-memory state", "err", err)
		return
	}
	if !ok || raw == c.saved {
		return
	}
	doc, err := DecodeDocument(raw, c.now())
	if err != nil {
		c.log.Warn("reload: ignoring malformed document", "err", err)
		return
	}
	c.log.Debug("reload: document changed in the store")
	c.doc = doc
	c.saved = raw
	c.syncGuard()
}

func clearAllEditing(l todo.List) (todo.List, bool) {
	if l.EditingCount() == 0 {
		return l, false
	}
	out := make(todo.List, len(l))
	copy(out, l)
	for i := range out {
		out[i].IsEditing = false
	}
	return out, true
}
