package vcs

import "testing"

func TestRenderSubstitutesPlaceholders(t *testing.T) {
	tpl := Template{
		Raw:       "## Summary\n{{summary}}\n\nCloses {{issue}}",
		Variables: map[string]string{"summary": "fixes the bug", "issue": "#42"},
	}
	out, err := tpl.Render()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "## Summary\nfixes the bug\n\nCloses #42"
	if out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestRenderFailsOnMissingVariable(t *testing.T) {
	tpl := Template{Raw: "{{summary}}", Variables: map[string]string{}}
	if _, err := tpl.Render(); err == nil {
		t.Fatalf("expected invalid-argument error for unresolved placeholder")
	}
}

func TestRenderToleratesWhitespaceInsidePlaceholder(t *testing.T) {
	tpl := Template{Raw: "{{ summary }}", Variables: map[string]string{"summary": "ok"}}
	out, err := tpl.Render()
	if err != nil || out != "ok" {
		t.Fatalf("unexpected result: %q %v", out, err)
	}
}

func TestRenderRejectsNulByte(t *testing.T) {
	tpl := Template{Raw: "hello\x00world", Variables: map[string]string{}}
	if _, err := tpl.Render(); err == nil {
		t.Fatalf("expected error for NUL byte in body")
	}
}

func TestRenderAcceptsPlainMarkdown(t *testing.T) {
	tpl := Template{Raw: "# Title\n\n- item one\n- item two\n", Variables: map[string]string{}}
	if _, err := tpl.Render(); err != nil {
		t.Fatalf("unexpected error for valid markdown: %v", err)
	}
}
