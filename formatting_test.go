package vkteamsbot

import "testing"

func TestRenderMarkdownBold(t *testing.T) {
	ft := RenderMarkdown("**hello**")
	if ft.Text == "" {
		t.Fatal("expected non-empty text")
	}
	found := false
	for _, s := range ft.Spans {
		if s.Kind == SpanBold {
			found = true
			if ft.Text[s.Offset:s.Offset+s.Length] != "hello" {
				t.Errorf("bold span text = %q, want %q", ft.Text[s.Offset:s.Offset+s.Length], "hello")
			}
		}
	}
	if !found {
		t.Error("expected a bold span")
	}
}

func TestRenderMarkdownLink(t *testing.T) {
	ft := RenderMarkdown("[click](https://example.com)")
	found := false
	for _, s := range ft.Spans {
		if s.Kind == SpanLink {
			found = true
			if s.URL != "https://example.com" {
				t.Errorf("URL = %q, want https://example.com", s.URL)
			}
		}
	}
	if !found {
		t.Error("expected a link span")
	}
}

func TestRenderMarkdownItalic(t *testing.T) {
	ft := RenderMarkdown("*italic*")
	found := false
	for _, s := range ft.Spans {
		if s.Kind == SpanItalic {
			found = true
		}
	}
	if !found {
		t.Error("expected an italic span")
	}
}

func TestRenderMarkdownCodeSpan(t *testing.T) {
	ft := RenderMarkdown("run `ls -la` now")
	found := false
	for _, s := range ft.Spans {
		if s.Kind == SpanInlineCode {
			found = true
			if ft.Text[s.Offset:s.Offset+s.Length] != "ls -la" {
				t.Errorf("code span = %q, want %q", ft.Text[s.Offset:s.Offset+s.Length], "ls -la")
			}
		}
	}
	if !found {
		t.Error("expected an inline code span")
	}
}

func TestRenderMarkdownPlainTextNoSpans(t *testing.T) {
	ft := RenderMarkdown("just plain text")
	if len(ft.Spans) != 0 {
		t.Errorf("expected no spans for plain text, got %d", len(ft.Spans))
	}
}
