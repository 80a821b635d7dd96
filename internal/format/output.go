// Package format renders CLI envelopes as JSON, EDN or plain text.
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Envelope is the shape every command prints.
type Envelope struct {
	Data  any            `json:"data"`
	Meta  map[string]any `json:"meta,omitempty"`
	Hints []string       `json:"_hints,omitempty"`
}

// Texter is implemented by payloads that have a human-readable rendering.
type Texter interface {
	Text() string
}

func ParseFormat(s string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(s)); f {
	case "", "json":
		return "json", nil
	case "edn", "text":
		return f, nil
	default:
		return "", fmt.Errorf("unknown format: %s (expected json|edn|text)", s)
	}
}

// Write writes v in the requested format. "text" uses Texter on the envelope
// data when available and falls back to indented JSON.
func Write(w io.Writer, v any, format string, pretty bool) error {
	f, err := ParseFormat(format)
	if err != nil {
		return err
	}
	switch f {
	case "edn":
		return WriteEDN(w, v, pretty)
	case "text":
		return WriteText(w, v)
	default:
		return WriteJSON(w, v, pretty)
	}
}

// WriteJSON writes strict JSON on one line (or indented when pretty).
func WriteJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

func WriteText(w io.Writer, v any) error {
	data := v
	var hints []string
	switch env := v.(type) {
	case Envelope:
		data, hints = env.Data, env.Hints
	case *Envelope:
		data, hints = env.Data, env.Hints
	}
	if t, ok := data.(Texter); ok {
		if _, err := io.WriteString(w, strings.TrimRight(t.Text(), "\n")+"\n"); err != nil {
			return err
		}
	} else if err := WriteJSON(w, data, true); err != nil {
		return err
	}
	for _, h := range hints {
		if _, err := fmt.Fprintf(w, "hint: %s\n", h); err != nil {
			return err
		}
	}
	return nil
}
