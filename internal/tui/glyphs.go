package tui

import (
	"os"
	"strings"
	"sync"
)

// Some terminal fonts render the checkbox and marker glyphs badly;
// FOCUSBAR_TUI_GLYPHS=ascii switches to plain characters.

type glyphSet int

const (
	glyphSetUnicode glyphSet = iota
	glyphSetASCII
)

var (
	glyphsMu      sync.RWMutex
	currentGlyphs = glyphSetUnicode
)

func applyGlyphPreference() {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("FOCUSBAR_TUI_GLYPHS"))) {
	case "", "unicode", "utf8":
		setGlyphs(glyphSetUnicode)
	case "ascii":
		setGlyphs(glyphSetASCII)
	}
}

func setGlyphs(gs glyphSet) {
	glyphsMu.Lock()
	currentGlyphs = gs
	glyphsMu.Unlock()
}

func glyphs() glyphSet {
	glyphsMu.RLock()
	gs := currentGlyphs
	glyphsMu.RUnlock()
	return gs
}

func glyphCheckbox(done bool) string {
	if glyphs() == glyphSetASCII {
		if done {
			return "[x]"
		}
		return "[ ]"
	}
	if done {
		return "☑"
	}
	return "☐"
}

func glyphActive() string {
	if glyphs() == glyphSetASCII {
		return ">"
	}
	return "▶"
}

func glyphNext() string {
	if glyphs() == glyphSetASCII {
		return "*"
	}
	return "›"
}

func glyphEditing() string {
	if glyphs() == glyphSetASCII {
		return "~"
	}
	return "✎"
}

func glyphHRule() string {
	if glyphs() == glyphSetASCII {
		return "-"
	}
	return "─"
}
