package tui

import (
	"os"
	"path/filepath"
	"strings"

	"focusbar/internal/sound"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// The in-terminal picker is the fallback when no native file dialog exists.

func filePickerHeight(screenH int) int {
	h := screenH - 8
	if h < 5 {
		h = 5
	}
	return h
}

func (m *appModel) openFilePicker() tea.Cmd {
	fp := filepicker.New()
	fp.AllowedTypes = sound.AudioExts
	fp.FileAllowed = true
	fp.DirAllowed = false
	fp.ShowHidden = false
	fp.ShowPermissions = false
	fp.ShowSize = true
	fp.AutoHeight = false
	fp.Height = filePickerHeight(m.height)
	fp.Cursor = glyphNext()
	// esc closes the picker instead of walking up a directory.
	fp.KeyMap.Back = key.NewBinding(
		key.WithKeys("h", "backspace", "left"),
		key.WithHelp("h", "up"),
	)

	fp.Styles.Cursor = m.st.tag
	fp.Styles.Selected = m.st.active
	fp.Styles.Directory = m.st.tag
	fp.Styles.Symlink = m.st.tag
	fp.Styles.DisabledFile = m.st.muted
	fp.Styles.DisabledSelected = m.st.muted
	fp.Styles.FileSize = m.st.muted.Width(fp.Styles.FileSize.GetWidth())

	// Start next to the current alarm, else in the home dir.
	startDir := ""
	if p := strings.TrimSpace(m.doc.UI.Sound.Path); p != "" {
		startDir = filepath.Dir(p)
	}
	if startDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			startDir = home
		}
	}
	if startDir == "" {
		startDir = "."
	}
	fp.CurrentDirectory = startDir

	m.filePicker = fp
	m.view = viewFilePicker
	return fp.Init()
}

func (m appModel) updateFilePicker(msg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "esc", "q", "ctrl+g":
			m.view = viewList
			m.setStatus("Pick canceled", false)
			return m, nil
		case "ctrl+c":
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.filePicker, cmd = m.filePicker.Update(msg)
	if ok, path := m.filePicker.DidSelectFile(msg); ok {
		m.view = viewList
		m.setSound(path)
		return m, nil
	}
	if ok, path := m.filePicker.DidSelectDisabledFile(msg); ok {
		m.setStatus("sound: not an audio file: "+filepath.Base(path), true)
	}
	return m, cmd
}
