package sound

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Picker is the file-pick channel used to choose a custom alarm sound.
type Picker interface {
	PickAudioFile(ctx context.Context) (string, error)
	ReadFile(path string) ([]byte, error)
}

// DialogPicker opens the platform file dialog (osascript on macOS, zenity or kdialog elsewhere).
type DialogPicker struct{}

func (DialogPicker) argv() ([]string, error) {
	if runtime.GOOS == "darwin" {
		script := `POSIX path of (choose file with prompt "Choose an alarm sound" of type {"mp3", "m4a", "wav", "aac", "public.audio"})`
		return []string{"osascript", "-e", script}, nil
	}
	if _, err := exec.LookPath("zenity"); err == nil {
		return []string{"zenity", "--file-selection", "--title=Choose an alarm sound", "--file-filter=Audio | *.mp3 *.m4a *.wav *.aac"}, nil
	}
	if _, err := exec.LookPath("kdialog"); err == nil {
		return []string{"kdialog", "--getopenfilename", ".", "*.mp3 *.m4a *.wav *.aac|Audio"}, nil
	}
	return nil, ErrNoDialog
}

// PickAudioFile returns the chosen path or ErrPickCanceled when the dialog is dismissed.
func (d DialogPicker) PickAudioFile(ctx context.Context) (string, error) {
	argv, err := d.argv()
	if err != nil {
		return "", err
	}
	out, err := exec.CommandContext(ctx, argv[0], argv[1:]...).Output()
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			// Both osascript and zenity exit non-zero on cancel.
			return "", ErrPickCanceled
		}
		return "", err
	}
	path := strings.TrimSpace(string(out))
	if path == "" {
		return "", ErrPickCanceled
	}
	if !ValidExt(path) {
		return "", fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(path))
	}
	return path, nil
}

func (DialogPicker) ReadFile(path string) ([]byte, error) {
	return ReadAudioFile(path)
}

// ReadAudioFile validates the extension and reads path.
func ReadAudioFile(path string) ([]byte, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, ErrEmptySource
	}
	if !ValidExt(path) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(path))
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return nil, ErrEmptySource
	}
	return b, nil
}
