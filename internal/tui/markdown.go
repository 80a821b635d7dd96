package tui

import (
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	gstyles "github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
)

var (
	mdRendererMu sync.Mutex
	// Cache renderers by wrap width + style + accent. WithAutoStyle can trigger
	// terminal background queries that block on some terminals, so the style is
	// picked from lipgloss's detection instead.
	mdRenderers = map[string]*glamour.TermRenderer{}
)

// renderMarkdown renders the help overlay. Failures fall back to the raw text.
func renderMarkdown(md string, width int, accent string) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	if width < 10 {
		width = 10
	}

	style := markdownStyle()
	key := style + ":" + accent + ":" + strconv.Itoa(width)

	mdRendererMu.Lock()
	r := mdRenderers[key]
	mdRendererMu.Unlock()

	if r == nil {
		cfg := markdownStyleConfig(style, accent)
		zero := uint(0)
		cfg.Document.Margin = &zero
		rr, err := glamour.NewTermRenderer(
			glamour.WithStyles(cfg),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return md
		}
		mdRendererMu.Lock()
		if existing := mdRenderers[key]; existing != nil {
			r = existing
		} else {
			mdRenderers[key] = rr
			r = rr
		}
		mdRendererMu.Unlock()
	}

	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

func markdownStyle() string {
	if lipgloss.HasDarkBackground() {
		return "dark"
	}
	return "light"
}

func markdownStyleConfig(style, accent string) ansi.StyleConfig {
	cfg := gstyles.DarkStyleConfig
	if style == "light" {
		cfg = gstyles.LightStyleConfig
	}

	// Headings and tables in the accent; body text follows the surface palette.
	text := mdColor(colorSurfaceFg, style)
	acc := mdStrPtr(accent)
	cfg.Text.Color = text
	cfg.Heading.Color = acc
	cfg.H1.Color = acc
	cfg.H1.BackgroundColor = nil
	cfg.H2.Color = acc
	cfg.H3.Color = acc
	cfg.Code.Color = acc
	cfg.Code.BackgroundColor = mdColor(colorControlBg, style)
	cfg.Link.Color = acc
	cfg.Link.Underline = mdBoolPtr(true)
	cfg.Strong.Color = nil
	cfg.Emph.Color = nil
	cfg.BlockQuote.Faint = mdBoolPtr(false)
	return cfg
}

func mdColor(c lipgloss.AdaptiveColor, style string) *string {
	if style == "light" {
		return mdStrPtr(c.Light)
	}
	return mdStrPtr(c.Dark)
}

func mdStrPtr(s string) *string { return &s }
func mdBoolPtr(b bool) *bool    { return &b }
