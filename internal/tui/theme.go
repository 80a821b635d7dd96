package tui

import (
	"context"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"

	"focusbar/internal/model"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme/palette helpers.
//
// The TUI must remain readable on both light and dark terminal backgrounds.
// We use lipgloss.AdaptiveColor for chrome and only apply "faint" styling
// on dark backgrounds (faint text on light terminals often becomes illegible).
// The accent is the user's colour and is used as-is in both modes.

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

func faintIfDark(st lipgloss.Style) lipgloss.Style {
	if lipgloss.HasDarkBackground() {
		return st.Faint(true)
	}
	return st
}

var (
	colorMuted      = ac("240", "243")
	colorSelectedBg = ac("#e9e9e9", "#262626")
	colorSelectedFg = ac("235", "255")
	colorSurfaceFg  = ac("235", "252")
	colorControlBg  = ac("252", "235")
	colorInputBg    = ac("254", "234")
	colorAccentFg   = ac("255", "235")
	colorError      = ac("160", "203")
)

// styles is rebuilt whenever the accent or theme mode changes.
type styles struct {
	accent lipgloss.Color

	header    lipgloss.Style
	badge     lipgloss.Style
	subtitle  lipgloss.Style
	row       lipgloss.Style
	selected  lipgloss.Style
	active    lipgloss.Style
	completed lipgloss.Style
	tag       lipgloss.Style
	muted     lipgloss.Style
	status    lipgloss.Style
	errStatus lipgloss.Style
	formBox   lipgloss.Style
	label     lipgloss.Style
}

func newStyles(accent string) styles {
	a := lipgloss.Color(accent)
	return styles{
		accent: a,
		header: lipgloss.NewStyle().Bold(true).Foreground(colorSurfaceFg),
		badge: lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Foreground(colorAccentFg).
			Background(a),
		subtitle:  lipgloss.NewStyle().Foreground(a).Italic(true),
		row:       lipgloss.NewStyle().Foreground(colorSurfaceFg),
		selected:  lipgloss.NewStyle().Foreground(colorSelectedFg).Background(colorSelectedBg).Bold(true),
		active:    lipgloss.NewStyle().Foreground(a).Bold(true),
		completed: faintIfDark(lipgloss.NewStyle().Foreground(colorMuted).Strikethrough(true)),
		tag:       lipgloss.NewStyle().Foreground(a),
		muted:     faintIfDark(lipgloss.NewStyle().Foreground(colorMuted)),
		status:    lipgloss.NewStyle().Foreground(colorSurfaceFg),
		errStatus: lipgloss.NewStyle().Foreground(colorError),
		formBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(a).
			Padding(0, 1),
		label: lipgloss.NewStyle().Foreground(colorMuted).Width(9),
	}
}

// applyColorProfilePreference sets Lip Gloss's color profile for the interactive TUI.
//
// Note: termenv.EnvColorProfile respects CLICOLOR/CLICOLOR_FORCE, which can
// accidentally disable colors in a TUI. We only honor NO_COLOR and otherwise
// follow the terminal's capabilities.
func applyColorProfilePreference() {
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}

	profile := termenv.ColorProfile()

	// Trust TERM/COLORTERM when they claim more than the detector reports.
	term := strings.ToLower(strings.TrimSpace(os.Getenv("TERM")))
	colorterm := strings.ToLower(strings.TrimSpace(os.Getenv("COLORTERM")))
	if strings.Contains(colorterm, "truecolor") || strings.Contains(colorterm, "24bit") {
		if profile != termenv.Ascii {
			profile = termenv.TrueColor
		}
	} else if strings.Contains(term, "256color") {
		if profile == termenv.Ascii || profile == termenv.ANSI {
			profile = termenv.ANSI256
		}
	}

	lipgloss.SetColorProfile(profile)
}

// applyThemeMode configures Lip Gloss's background detection from the saved
// theme. "system" falls back to heuristics:
// 1) FOCUSBAR_TUI_DARKBG=true|false
// 2) COLORFGBG (format like "15;0" = fg;bg)
// 3) the macOS appearance setting
func applyThemeMode(mode model.ThemeMode) {
	switch mode {
	case model.ThemeLight:
		lipgloss.SetHasDarkBackground(false)
		return
	case model.ThemeDark:
		lipgloss.SetHasDarkBackground(true)
		return
	}

	if v := strings.TrimSpace(os.Getenv("FOCUSBAR_TUI_DARKBG")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			lipgloss.SetHasDarkBackground(b)
			return
		}
	}

	if v := strings.TrimSpace(os.Getenv("COLORFGBG")); v != "" {
		parts := strings.Split(v, ";")
		if bg, err := strconv.Atoi(strings.TrimSpace(parts[len(parts)-1])); err == nil {
			lipgloss.SetHasDarkBackground(bg < 7)
			return
		}
	}

	if runtime.GOOS == "darwin" {
		if dark, ok := macOSHasDarkAppearance(); ok {
			lipgloss.SetHasDarkBackground(dark)
		}
	}
}

func macOSHasDarkAppearance() (dark bool, ok bool) {
	// `defaults read -g AppleInterfaceStyle` prints "Dark" in dark mode and exits 1 in light mode.
	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()

	out, err := exec.CommandContext(ctx, "defaults", "read", "-g", "AppleInterfaceStyle").CombinedOutput()
	if ctx.Err() != nil {
		return false, false
	}
	if err == nil {
		return strings.Contains(strings.ToLower(string(out)), "dark"), true
	}
	if ee, ok := err.(*exec.ExitError); ok && ee.ExitCode() == 1 {
		return false, true
	}
	return false, false
}
