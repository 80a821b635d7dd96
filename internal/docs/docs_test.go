package docs

import (
	"strings"
	"testing"
)

func TestTopics(t *testing.T) {
	got := Topics()
	want := []string{"focus-mode", "keys", "storage"}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}

func TestGet(t *testing.T) {
	if md, ok := Get(" Keys "); !ok || md == "" {
		t.Fatalf("expected keys topic")
	}
	for _, bad := range []string{"", "nope", "../docs"} {
		if _, ok := Get(bad); ok {
			t.Fatalf("expected %q to be missing", bad)
		}
	}
	if Title("focus-mode") != "Focus mode" {
		t.Fatalf("unexpected title %q", Title("focus-mode"))
	}
}

func TestHTML(t *testing.T) {
	out, err := HTML("keys")
	if err != nil {
		t.Fatalf("html: %v", err)
	}
	if !strings.HasPrefix(out, "<h1>Keys</h1>") {
		t.Fatalf("expected heading first; got %q", out[:min(len(out), 40)])
	}
	if _, err := HTML("nope"); err == nil {
		t.Fatalf("expected unknown topic error")
	}
}

func TestRenderHTML_EscapesRawHTMLAndKeepsTables(t *testing.T) {
	out, err := RenderHTML("<script>x</script>\n\n| a | b |\n|---|---|\n| 1 | 2 |\n\nline one\nline two :tada:")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(out, "<script>") {
		t.Fatalf("raw html must not pass through: %q", out)
	}
	for _, want := range []string{"<table>", "line one<br>"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}
	if strings.Contains(out, ":tada:") {
		t.Fatalf("expected emoji shortcode to be replaced: %q", out)
	}
}
