package tui

import "testing"

func TestGlyphs_FromEnv(t *testing.T) {
	t.Setenv("FOCUSBAR_TUI_GLYPHS", "")
	setGlyphs(glyphSetUnicode)
	applyGlyphPreference()
	if got := glyphs(); got != glyphSetUnicode {
		t.Fatalf("expected unicode glyphs by default; got %v", got)
	}

	t.Setenv("FOCUSBAR_TUI_GLYPHS", "ascii")
	applyGlyphPreference()
	if got := glyphs(); got != glyphSetASCII {
		t.Fatalf("expected ascii glyphs; got %v", got)
	}
	if glyphCheckbox(true) != "[x]" || glyphActive() != ">" {
		t.Fatalf("unexpected ascii glyphs %q %q", glyphCheckbox(true), glyphActive())
	}

	// Unknown values keep the current set.
	t.Setenv("FOCUSBAR_TUI_GLYPHS", "bogus")
	applyGlyphPreference()
	if got := glyphs(); got != glyphSetASCII {
		t.Fatalf("expected unknown to be ignored; got %v", got)
	}

	t.Setenv("FOCUSBAR_TUI_GLYPHS", "unicode")
	applyGlyphPreference()
	if glyphCheckbox(false) != "☐" {
		t.Fatalf("expected unicode checkbox; got %q", glyphCheckbox(false))
	}
}
