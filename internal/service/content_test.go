package service

import (
	"strings"
	"testing"
)

func TestRenderChapterContentSanitizesHTML(t *testing.T) {
	got, err := RenderChapterContent(`<p>an toàn</p><script>alert(1)</script>`, FormatHTML)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(got, "<script") {
		t.Errorf("script survived sanitization: %q", got)
	}
	if !strings.Contains(got, "<p>an toàn</p>") {
		t.Errorf("benign markup stripped: %q", got)
	}
}

func TestRenderChapterContentMarkdown(t *testing.T) {
	got, err := RenderChapterContent("# Tiêu Đề\n\nđoạn văn *nghiêng*", FormatMarkdown)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(got, "<h1") || !strings.Contains(got, "<em>nghiêng</em>") {
		t.Errorf("markdown not rendered: %q", got)
	}
}
