package sound

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"sync"
	"time"
)

// Command builds the argv for playing path at volume (0..1).
type Command func(path string, volume float64) []string

// DefaultCommands lists the players tried in order for the current OS.
func DefaultCommands() []Command {
	if runtime.GOOS == "darwin" {
		return []Command{
			func(p string, v float64) []string {
				return []string{"afplay", "-v", strconv.FormatFloat(v, 'f', 2, 64), p}
			},
		}
	}
	return []Command{
		func(p string, v float64) []string {
			// paplay volume is linear 0..65536.
			return []string{"paplay", "--volume=" + strconv.Itoa(int(v*65536)), p}
		},
		func(p string, v float64) []string {
			return []string{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet", "-volume", strconv.Itoa(int(v * 100)), p}
		},
		func(p string, _ float64) []string {
			return []string{"aplay", "-q", p}
		},
	}
}

// ExecPlayer plays audio by shelling out to the first available system player.
// Only one sound plays at a time; a new Play stops the previous one.
type ExecPlayer struct {
	Commands []Command
	Logger   *slog.Logger

	mu      sync.Mutex
	volume  float64
	cmd     *exec.Cmd
	paused  bool
	tmpPath string
}

func NewExecPlayer(logger *slog.Logger) *ExecPlayer {
	return &ExecPlayer{Commands: DefaultCommands(), Logger: logger, volume: 1}
}

func (p *ExecPlayer) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return p.Logger
}

func (p *ExecPlayer) SetVolume(v float64) {
	p.mu.Lock()
	p.volume = ClampVolume(v)
	p.mu.Unlock()
}

func (p *ExecPlayer) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// resolve picks the first command whose binary is on PATH.
func (p *ExecPlayer) resolve(path string, volume float64) ([]string, error) {
	for _, c := range p.Commands {
		argv := c(path, volume)
		if len(argv) == 0 {
			continue
		}
		if _, err := exec.LookPath(argv[0]); err == nil {
			return argv, nil
		}
	}
	return nil, ErrNoPlayer
}

// Play starts playback and returns once the player process is running.
func (p *ExecPlayer) Play(ctx context.Context, src Source) error {
	if src.empty() {
		return ErrEmptySource
	}
	path := src.Path
	tmp := ""
	if len(src.Data) > 0 {
		ext := src.Ext
		if ext == "" {
			ext = ".wav"
		}
		f, err := os.CreateTemp("", "focusbar-*"+ext)
		if err != nil {
			return err
		}
		if _, err := f.Write(src.Data); err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
			return err
		}
		if err := f.Close(); err != nil {
			_ = os.Remove(f.Name())
			return err
		}
		path = f.Name()
		tmp = path
	}

	_ = p.Stop()

	p.mu.Lock()
	argv, err := p.resolve(path, p.volume)
	if err != nil {
		p.mu.Unlock()
		if tmp != "" {
			_ = os.Remove(tmp)
		}
		return err
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if err := cmd.Start(); err != nil {
		p.mu.Unlock()
		if tmp != "" {
			_ = os.Remove(tmp)
		}
		return fmt.Errorf("start %s: %w", argv[0], err)
	}
	p.cmd = cmd
	p.paused = false
	p.tmpPath = tmp
	p.mu.Unlock()

	p.logger().Debug("sound: playing", "player", argv[0], "path", path)

	go func() {
		err := cmd.Wait()
		p.mu.Lock()
		if p.cmd == cmd {
			p.cmd = nil
			p.paused = false
			if p.tmpPath != "" {
				_ = os.Remove(p.tmpPath)
				p.tmpPath = ""
			}
		}
		p.mu.Unlock()
		if err != nil && ctx.Err() == nil {
			p.logger().Debug("sound: player exited", "err", err)
		}
	}()
	return nil
}

func (p *ExecPlayer) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cmd != nil
}

// Wait blocks until the current sound ends or ctx is done.
func (p *ExecPlayer) Wait(ctx context.Context) error {
	t := time.NewTicker(50 * time.Millisecond)
	defer t.Stop()
	for p.Playing() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	return nil
}

func (p *ExecPlayer) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd == nil || p.cmd.Process == nil {
		return ErrNotPlaying
	}
	if p.paused {
		return nil
	}
	if err := suspend(p.cmd.Process); err != nil {
		return err
	}
	p.paused = true
	return nil
}

func (p *ExecPlayer) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd == nil || p.cmd.Process == nil {
		return ErrNotPlaying
	}
	if !p.paused {
		return nil
	}
	if err := resume(p.cmd.Process); err != nil {
		return err
	}
	p.paused = false
	return nil
}

func (p *ExecPlayer) Stop() error {
	p.mu.Lock()
	cmd := p.cmd
	paused := p.paused
	p.cmd = nil
	p.paused = false
	tmp := p.tmpPath
	p.tmpPath = ""
	p.mu.Unlock()

	if cmd == nil || cmd.Process == nil {
		return nil
	}
	if paused {
		_ = resume(cmd.Process)
	}
	err := cmd.Process.Kill()
	if tmp != "" {
		_ = os.Remove(tmp)
	}
	return err
}
