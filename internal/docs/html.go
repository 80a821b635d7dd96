package docs

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Raw HTML in topics is escaped; html.WithUnsafe is not set.
var htmlRenderer = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		emoji.Emoji,
	),
	goldmark.WithRendererOptions(
		html.WithHardWraps(),
	),
)

// HTML renders topic to an HTML fragment.
func HTML(topic string) (string, error) {
	md, ok := Get(topic)
	if !ok {
		return "", fmt.Errorf("unknown docs topic: %q", topic)
	}
	return RenderHTML(md)
}

func RenderHTML(md string) (string, error) {
	md = strings.TrimSpace(md)
	if md == "" {
		return "", nil
	}
	var b bytes.Buffer
	if err := htmlRenderer.Convert([]byte(md), &b); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return b.String(), nil
}
