package extract

import (
	"strings"
	"testing"
)

func TestDescriptionMarkdown(t *testing.T) {
	md := DescriptionMarkdown(`<p>Cuero <strong>genuino</strong>, hecho a mano.</p>`, "https://simple.ripley.cl")
	if !strings.Contains(md, "Cuero") {
		t.Errorf("markdown lost text: %q", md)
	}
	if !strings.Contains(md, "**genuino**") {
		t.Errorf("markdown lost emphasis: %q", md)
	}
	if strings.Contains(md, "<p>") {
		t.Errorf("markup leaked into markdown: %q", md)
	}
}

func TestDescriptionMarkdown_ResolvesRelativeLinks(t *testing.T) {
	md := DescriptionMarkdown(`<a href="/ficha">ficha</a>`, "https://simple.ripley.cl")
	if !strings.Contains(md, "https://simple.ripley.cl/ficha") {
		t.Errorf("relative link not resolved: %q", md)
	}
}

func TestFallbackDescription_RejectsShortContent(t *testing.T) {
	raw := `<html><body><article><p>corto</p></article></body></html>`
	if got := FallbackDescription(raw, "https://simple.ripley.cl/p/1"); got != "" {
		t.Errorf("short prose must be rejected, got %q", got)
	}
}
