package notify

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"runtime"
	"strings"
	"sync"

	"github.com/muesli/termenv"
)

var errNoNotifier = errors.New("no desktop notification helper found")

// Desktop shows notifications through the platform helper: osascript on macOS,
// notify-send elsewhere. "Permission" means the helper exists and the user
// has not disabled system notifications.
type Desktop struct {
	Enabled bool
	GOOS    string
}

func (d Desktop) goos() string {
	if d.GOOS != "" {
		return d.GOOS
	}
	return runtime.GOOS
}

func (d Desktop) helper() string {
	if d.goos() == "darwin" {
		return "osascript"
	}
	return "notify-send"
}

func (d Desktop) RequestPermission(ctx context.Context) (bool, error) {
	if !d.Enabled {
		return false, nil
	}
	if _, err := exec.LookPath(d.helper()); err != nil {
		return false, nil
	}
	return true, nil
}

func (d Desktop) Show(ctx context.Context, title, body string) error {
	argv := d.command(title, body)
	if len(argv) == 0 {
		return errNoNotifier
	}
	return exec.CommandContext(ctx, argv[0], argv[1:]...).Run()
}

func (d Desktop) command(title, body string) []string {
	if d.goos() == "darwin" {
		script := "display notification " + appleScriptString(body) + " with title " + appleScriptString(title)
		return []string{"osascript", "-e", script}
	}
	return []string{"notify-send", "--app-name=focusbar", title, body}
}

func appleScriptString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

// TerminalTitler sets the terminal window title with OSC escape sequences.
// Terminals cannot be asked for their current title, so Title reports the
// last value set (starting from Base).
type TerminalTitler struct {
	out *termenv.Output

	mu    sync.Mutex
	title string
}

func NewTerminalTitler(w io.Writer, base string) *TerminalTitler {
	t := &TerminalTitler{out: termenv.NewOutput(w), title: base}
	return t
}

func (t *TerminalTitler) Title() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.title
}

func (t *TerminalTitler) SetTitle(title string) {
	t.mu.Lock()
	t.title = title
	t.mu.Unlock()
	t.out.SetWindowTitle(title)
}

// TerminalBell returns a Bell func that writes BEL to w.
func TerminalBell(w io.Writer) func() error {
	return func() error {
		_, err := io.WriteString(w, "\a")
		return err
	}
}
