package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"focusbar/internal/model"
	"focusbar/internal/sound"
)

type fakeSystem struct {
	granted bool
	permErr error
	showErr error
	shown   []string
}

func (f *fakeSystem) RequestPermission(context.Context) (bool, error) {
	return f.granted, f.permErr
}

func (f *fakeSystem) Show(_ context.Context, title, body string) error {
	if f.showErr != nil {
		return f.showErr
	}
	f.shown = append(f.shown, title+"|"+body)
	return nil
}

type fakeTitler struct {
	mu      sync.Mutex
	title   string
	history []string
}

func (f *fakeTitler) Title() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.title
}

func (f *fakeTitler) SetTitle(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.title = s
	f.history = append(f.history, s)
}

type fakePlayer struct {
	failPath bool
	failAll  bool
	played   []sound.Source
	volume   float64
}

func (p *fakePlayer) Play(_ context.Context, src sound.Source) error {
	if p.failAll || (p.failPath && src.Path != "") {
		return errors.New("boom")
	}
	p.played = append(p.played, src)
	return nil
}
func (p *fakePlayer) Pause() error        { return nil }
func (p *fakePlayer) Resume() error       { return nil }
func (p *fakePlayer) Stop() error         { return nil }
func (p *fakePlayer) SetVolume(v float64) { p.volume = v }

func alert() Alert {
	return NewAlert(1, model.Task{ID: 3, Content: "Write report", Minutes: 45}, model.Sound{Enabled: true, Volume: 0.4})
}

func TestNewAlert_TitleAndBody(t *testing.T) {
	a := NewAlert(2, model.Task{ID: 1, Content: "Read"}, model.Sound{})
	if a.Title != "Time’s up!" || a.Body != "Finished: Read (25m)" {
		t.Fatalf("unexpected alert: %#v", a)
	}
}

func TestNotify_AllChannels(t *testing.T) {
	sys := &fakeSystem{granted: true}
	ttl := &fakeTitler{title: "focusbar"}
	pl := &fakePlayer{}
	n := &Notifier{System: sys, Titler: ttl, Player: pl, FlashDuration: 200 * time.Millisecond}

	res := n.Notify(context.Background(), alert())
	if !res.System || !res.Title || !res.Sound || !res.UsedTone {
		t.Fatalf("expected every channel to deliver; got %#v", res)
	}
	if len(sys.shown) != 1 || sys.shown[0] != "Time’s up!|Finished: Write report (45m)" {
		t.Fatalf("unexpected notification: %v", sys.shown)
	}
	if pl.volume != 0.4 {
		t.Fatalf("expected volume to be applied; got %v", pl.volume)
	}
	if got := ttl.Title(); !strings.HasPrefix(got, "⏰") {
		t.Fatalf("expected flashed title; got %q", got)
	}

	deadline := time.Now().Add(2 * time.Second)
	for ttl.Title() != "focusbar" {
		if time.Now().After(deadline) {
			t.Fatalf("title was not restored; got %q", ttl.Title())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNotify_FailuresDoNotBlockOtherChannels(t *testing.T) {
	sys := &fakeSystem{granted: true, showErr: errors.New("dbus down")}
	ttl := &fakeTitler{title: "base"}
	pl := &fakePlayer{failPath: true}
	n := &Notifier{System: sys, Titler: ttl, Player: pl, FlashDuration: time.Hour}

	a := alert()
	a.Sound.Path = "/missing/alarm.mp3"
	ctx, cancel := context.WithCancel(context.Background())
	res := n.Notify(ctx, a)
	cancel()

	if res.System {
		t.Fatalf("system channel should have failed")
	}
	if !res.Title || !res.Sound || !res.UsedTone {
		t.Fatalf("expected title + fallback tone despite failures; got %#v", res)
	}
	if len(res.Errors) != 2 {
		t.Fatalf("expected two recorded errors; got %v", res.Errors)
	}
}

func TestNotify_PermissionDeniedSkipsShow(t *testing.T) {
	sys := &fakeSystem{granted: false}
	n := &Notifier{System: sys}
	res := n.Notify(context.Background(), alert())
	if res.System || len(sys.shown) != 0 {
		t.Fatalf("expected no notification without permission; got %#v", res)
	}
}

func TestNotify_BellWhenNoPlayerWorks(t *testing.T) {
	rang := 0
	n := &Notifier{
		Player: &fakePlayer{failAll: true},
		Bell:   func() error { rang++; return nil },
	}
	res := n.Notify(context.Background(), alert())
	if rang != 1 || !res.UsedBell || !res.Sound {
		t.Fatalf("expected bell fallback; rang=%d res=%#v", rang, res)
	}
}

func TestNotify_MutedSoundPlaysNothing(t *testing.T) {
	pl := &fakePlayer{}
	n := &Notifier{Player: pl}
	a := alert()
	a.Sound.Enabled = false
	res := n.Notify(context.Background(), a)
	if res.Sound || len(pl.played) != 0 {
		t.Fatalf("expected no audio when muted; got %#v", res)
	}
}

func TestFlash_OverlappingRestoresOriginal(t *testing.T) {
	ttl := &fakeTitler{title: "orig"}
	n := &Notifier{Titler: ttl, FlashDuration: 30 * time.Millisecond}
	n.flash(context.Background(), "one")
	n.flash(context.Background(), "two")

	deadline := time.Now().Add(2 * time.Second)
	for ttl.Title() != "orig" {
		if time.Now().After(deadline) {
			t.Fatalf("expected original title restored; got %q", ttl.Title())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWait_RestoresTitleOnCancel(t *testing.T) {
	ttl := &fakeTitler{title: "orig"}
	n := &Notifier{Titler: ttl, FlashDuration: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())
	n.Notify(ctx, alert())
	if ttl.Title() == "orig" {
		t.Fatalf("expected the title to flash")
	}
	cancel()
	n.Wait()
	if got := ttl.Title(); got != "orig" {
		t.Fatalf("expected original title after Wait; got %q", got)
	}
}

func TestDesktop_Command(t *testing.T) {
	mac := Desktop{Enabled: true, GOOS: "darwin"}
	argv := mac.command(`Say "hi"`, "body")
	if argv[0] != "osascript" || !strings.Contains(argv[2], `\"hi\"`) {
		t.Fatalf("unexpected darwin argv: %v", argv)
	}
	linux := Desktop{Enabled: true, GOOS: "linux"}
	if argv := linux.command("t", "b"); argv[0] != "notify-send" || argv[len(argv)-1] != "b" {
		t.Fatalf("unexpected linux argv: %v", argv)
	}
	ok, err := Desktop{Enabled: false}.RequestPermission(context.Background())
	if ok || err != nil {
		t.Fatalf("disabled desktop must deny; ok=%v err=%v", ok, err)
	}
}
