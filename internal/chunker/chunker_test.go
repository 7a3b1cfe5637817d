package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/docwn/internal/textutil"
)

func TestSplitEmptyInput(t *testing.T) {
	c := New()
	if got := c.Split(""); got != nil {
		t.Errorf("Split(\"\") = %v, want nil", got)
	}
	if got := c.Split("  \n\t  "); got != nil {
		t.Errorf("Split(whitespace) = %v, want nil", got)
	}
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"标签间换行压成单空格", "<p>a</p>\n  <p>b</p>", "<p>a</p> <p>b</p>"},
		{"标签间多空格压成单空格", "<p>a</p>   <p>b</p>", "<p>a</p> <p>b</p>"},
		{"连续空行压到两行", "line1\n\n\n\n\nline2", "line1\n\nline2"},
		{"去掉空段落", "<p>a</p><p>  </p><p>b</p>", "<p>a</p><p>b</p>"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Normalize(c.input); got != c.want {
				t.Errorf("Normalize(%q) = %q, want %q", c.input, got, c.want)
			}
		})
	}
}

func TestSplitKeepsSmallContentWhole(t *testing.T) {
	c := NewWithSize(100)
	fragments := c.Split("<p>one</p><p>two</p>")
	if len(fragments) != 1 {
		t.Fatalf("fragment count = %d, want 1", len(fragments))
	}
	if fragments[0].WordCount != 2 {
		t.Errorf("word count = %d, want 2", fragments[0].WordCount)
	}
}

func TestSplitBreaksAtTopLevelBoundary(t *testing.T) {
	// 两个段落各自合格,合并后超限,应当各成一个片段
	c := NewWithSize(30)
	fragments := c.Split("<p>0123456789012345</p><p>0123456789012345</p>")
	if len(fragments) != 2 {
		t.Fatalf("fragment count = %d, want 2", len(fragments))
	}
	for i, f := range fragments {
		if len(f.Content) > 30 {
			t.Errorf("fragment %d length = %d, exceeds bound", i, len(f.Content))
		}
	}
}

func TestSplitDescendsIntoOversizeBlock(t *testing.T) {
	c := NewWithSize(40)
	fragments := c.Split("<div><p>alpha beta gamma</p><p>delta epsil zeta</p></div>")
	if len(fragments) != 2 {
		t.Fatalf("fragment count = %d, want 2", len(fragments))
	}
	for i, f := range fragments {
		if len(f.Content) > 40 {
			t.Errorf("fragment %d length = %d, exceeds bound", i, len(f.Content))
		}
		if !c.Valid(f.Content) {
			t.Errorf("fragment %d is not well-formed: %q", i, f.Content)
		}
	}
}

func TestSplitWordResplitFallback(t *testing.T) {
	words := make([]string, 50)
	for i := range words {
		words[i] = fmt.Sprintf("w%02d", i)
	}
	input := "<p>" + strings.Join(words, " ") + "</p>"

	c := NewWithSize(80)
	fragments := c.Split(input)
	if len(fragments) < 2 {
		t.Fatalf("fragment count = %d, want at least 2", len(fragments))
	}

	var got []string
	totalWords := 0
	for i, f := range fragments {
		if len(f.Content) > 80 {
			t.Errorf("fragment %d length = %d, exceeds bound", i, len(f.Content))
		}
		if !strings.HasPrefix(f.Content, "<p>") || !strings.HasSuffix(f.Content, "</p>") {
			t.Errorf("fragment %d is not a paragraph: %q", i, f.Content)
		}
		got = append(got, strings.Fields(textutil.ExtractText(f.Content))...)
		totalWords += f.WordCount
	}
	if len(got) != 50 || totalWords != 50 {
		t.Fatalf("recovered %d words (counted %d), want 50", len(got), totalWords)
	}
	for i, w := range got {
		if w != words[i] {
			t.Fatalf("word %d = %q, want %q (order broken)", i, w, words[i])
		}
	}
}

func TestSplitPreservesTextAcrossFragments(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&sb, "<p>paragraph %d with some filler text inside</p>\n", i)
	}
	input := sb.String()

	c := NewWithSize(120)
	fragments := c.Split(input)
	if len(fragments) < 2 {
		t.Fatalf("fragment count = %d, want at least 2", len(fragments))
	}

	var parts []string
	for i, f := range fragments {
		if !c.Valid(f.Content) {
			t.Errorf("fragment %d is not well-formed", i)
		}
		parts = append(parts, f.Content)
	}

	wantText := textutil.ExtractText(Normalize(input))
	gotText := textutil.ExtractText(strings.Join(parts, " "))
	if gotText != wantText {
		t.Errorf("text diverged after split:\n got %q\nwant %q", gotText, wantText)
	}
}

func TestSplitWordCountMatchesVisibleText(t *testing.T) {
	c := New()
	fragments := c.Split("<p>mot hai ba</p><div>bon <em>nam</em></div>")
	if len(fragments) != 1 {
		t.Fatalf("fragment count = %d, want 1", len(fragments))
	}
	if fragments[0].WordCount != 5 {
		t.Errorf("word count = %d, want 5", fragments[0].WordCount)
	}
}

func TestValid(t *testing.T) {
	c := New()
	if !c.Valid("<p>fine</p>") {
		t.Error("well-formed paragraph reported invalid")
	}
	if !c.Valid("plain text") {
		t.Error("bare text reported invalid")
	}
}
