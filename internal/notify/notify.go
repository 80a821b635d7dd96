// Package notify delivers the timer-expiry alert over three independent channels:
// a system notification, a window-title flash and an audio cue.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"focusbar/internal/model"
	"focusbar/internal/sound"
)

const DefaultFlashDuration = 2500 * time.Millisecond

// Alert describes one expiry. Seq identifies the alert so late results can be discarded.
type Alert struct {
	Seq    uint64
	TaskID int64
	Title  string
	Body   string
	Sound  model.Sound
}

// NewAlert builds the standard "Time's up!" alert for task.
func NewAlert(seq uint64, task model.Task, snd model.Sound) Alert {
	minutes := task.Minutes
	if minutes <= 0 {
		minutes = model.DefaultMinutes
	}
	return Alert{
		Seq:    seq,
		TaskID: task.ID,
		Title:  "Time’s up!",
		Body:   fmt.Sprintf("Finished: %s (%dm)", task.Content, minutes),
		Sound:  snd,
	}
}

// Result reports which channels delivered.
type Result struct {
	Seq    uint64 `json:"seq"`
	TaskID int64  `json:"taskId"`

	System   bool `json:"system"`
	Title    bool `json:"title"`
	Sound    bool `json:"sound"`
	UsedTone bool `json:"usedTone,omitempty"`
	UsedBell bool `json:"usedBell,omitempty"`

	Completed time.Time `json:"completed"`
	Errors    []string  `json:"errors,omitempty"`
}

// System is the OS notification channel.
type System interface {
	RequestPermission(ctx context.Context) (bool, error)
	Show(ctx context.Context, title, body string) error
}

// Titler reads and sets the visible window/document title.
type Titler interface {
	Title() string
	SetTitle(title string)
}

type Notifier struct {
	System        System
	Titler        Titler
	Player        sound.Player
	Bell          func() error
	FlashDuration time.Duration
	Logger        *slog.Logger

	mu        sync.Mutex
	flashing  bool
	baseTitle string
	flashGen  uint64
	restores  sync.WaitGroup
}

// Wait blocks until every pending title restore has run. Restores happen
// after FlashDuration, or at once when the Notify context is cancelled.
func (n *Notifier) Wait() {
	n.restores.Wait()
}

func (n *Notifier) logger() *slog.Logger {
	if n.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return n.Logger
}

// Notify runs every channel in order. A failing channel is logged and skipped;
// it never prevents the others from running.
func (n *Notifier) Notify(ctx context.Context, a Alert) Result {
	res := Result{Seq: a.Seq, TaskID: a.TaskID}
	log := n.logger().With("seq", a.Seq, "task", a.TaskID)

	if n.System != nil {
		ok, err := n.System.RequestPermission(ctx)
		switch {
		case err != nil:
			log.Warn("notify: permission request failed", "err", err)
			res.Errors = append(res.Errors, "system: "+err.Error())
		case !ok:
			log.Debug("notify: system notifications not permitted")
		default:
			if err := n.System.Show(ctx, a.Title, a.Body); err != nil {
				log.Warn("notify: system notification failed", "err", err)
				res.Errors = append(res.Errors, "system: "+err.Error())
			} else {
				res.System = true
			}
		}
	}

	if n.Titler != nil {
		n.flash(ctx, "⏰ "+a.Title)
		res.Title = true
	}

	if a.Sound.Enabled {
		n.playSound(ctx, a.Sound, &res, log)
	}

	res.Completed = time.Now()
	return res
}

func (n *Notifier) playSound(ctx context.Context, snd model.Sound, res *Result, log *slog.Logger) {
	if n.Player != nil {
		n.Player.SetVolume(snd.Volume)
		if snd.Path != "" {
			err := n.Player.Play(ctx, sound.Source{Path: snd.Path})
			if err == nil {
				res.Sound = true
				return
			}
			log.Warn("notify: custom sound failed; using fallback tone", "path", snd.Path, "err", err)
			res.Errors = append(res.Errors, "sound: "+err.Error())
		}
		err := n.Player.Play(ctx, sound.FallbackTone())
		if err == nil {
			res.Sound = true
			res.UsedTone = true
			return
		}
		log.Warn("notify: fallback tone failed", "err", err)
		res.Errors = append(res.Errors, "tone: "+err.Error())
	}
	if n.Bell != nil {
		if err := n.Bell(); err != nil {
			res.Errors = append(res.Errors, "bell: "+err.Error())
			return
		}
		res.Sound = true
		res.UsedBell = true
	}
}

// flash swaps the title and restores it after FlashDuration (or when ctx ends).
// Overlapping flashes extend the current one and still restore the original title.
func (n *Notifier) flash(ctx context.Context, title string) {
	d := n.FlashDuration
	if d <= 0 {
		d = DefaultFlashDuration
	}

	n.mu.Lock()
	if !n.flashing {
		n.baseTitle = n.Titler.Title()
		n.flashing = true
	}
	n.flashGen++
	gen := n.flashGen
	n.mu.Unlock()

	n.Titler.SetTitle(title)

	n.restores.Add(1)
	go func() {
		defer n.restores.Done()
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
		}
		n.mu.Lock()
		defer n.mu.Unlock()
		if gen != n.flashGen {
			return
		}
		n.flashing = false
		n.Titler.SetTitle(n.baseTitle)
	}()
}
