// Package chunker 将富文本章节内容切分为大小受限、单独可解析的 HTML 片段，
// 供阅读端按片段流式加载。
package chunker

import (
	"regexp"
	"strings"

	"github.com/docwn/internal/textutil"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	// DefaultMaxChunkSize 是单个片段序列化后的默认字符上限（对应 MySQL TEXT 的安全值）。
	DefaultMaxChunkSize = 10000

	// tagOverhead 为文本回退切分预留的 <p></p> 标签开销。
	tagOverhead = 7
)

// blockTags 列出重切分时允许在其边界拆开的块级元素。
var blockTags = map[string]bool{
	"p": true, "div": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

var (
	newlineBetweenTags = regexp.MustCompile(`>\s*\n\s*<`)
	spacesBetweenTags  = regexp.MustCompile(`>\s{2,}<`)
	excessBlankLines   = regexp.MustCompile(`\n\s*\n\s*\n+`)
	emptyParagraph     = regexp.MustCompile(`<p[^>]*>\s*</p>`)
)

// Fragment 是一次切分产出的单个片段及其可见文本词数。
type Fragment struct {
	Content   string
	WordCount int
}

// Chunker splits HTML content into size-bounded fragments while keeping every
// fragment individually well-formed.
type Chunker struct {
	MaxChunkSize int
}

// New returns a Chunker with the default size bound.
func New() *Chunker {
	return &Chunker{MaxChunkSize: DefaultMaxChunkSize}
}

// NewWithSize returns a Chunker with a custom size bound.
func NewWithSize(maxChunkSize int) *Chunker {
	if maxChunkSize <= 0 {
		maxChunkSize = DefaultMaxChunkSize
	}
	return &Chunker{MaxChunkSize: maxChunkSize}
}

// Split 将 HTML 内容切分为有序片段。空白输入返回 nil。
func (c *Chunker) Split(content string) []Fragment {
	if strings.TrimSpace(content) == "" {
		return nil
	}

	normalized := Normalize(content)
	nodes := parseTopLevel(normalized)

	chunks := c.packNodes(nodes)

	var final []string
	for _, chunk := range chunks {
		if len(chunk) <= c.MaxChunkSize {
			final = append(final, chunk)
			continue
		}
		final = append(final, c.splitLarge(chunk)...)
	}

	fragments := make([]Fragment, 0, len(final))
	for _, chunk := range final {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		if !c.Valid(chunk) {
			// 最后一道保险：保证入库内容始终是合法片段
			chunk = "<p>" + chunk + "</p>"
		}
		fragments = append(fragments, Fragment{
			Content:   chunk,
			WordCount: textutil.WordCount(textutil.ExtractText(chunk)),
		})
	}
	return fragments
}

// Normalize 在切分前整理 HTML：压缩标签间的空白为单个空格（保住相邻标签间的
// 分词）、三个以上连续空行压为两个、去掉空段落。
func Normalize(content string) string {
	content = newlineBetweenTags.ReplaceAllString(content, "> <")
	content = spacesBetweenTags.ReplaceAllString(content, "> <")
	content = excessBlankLines.ReplaceAllString(content, "\n\n")
	content = emptyParagraph.ReplaceAllString(content, "")
	return strings.TrimSpace(content)
}

// Valid reports whether a fragment parses cleanly and survives a re-render
// without losing visible text.
func (c *Chunker) Valid(fragment string) bool {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), ctx)
	if err != nil {
		return false
	}
	var b strings.Builder
	for _, n := range nodes {
		if err := html.Render(&b, n); err != nil {
			return false
		}
	}
	return textutil.ExtractText(b.String()) == textutil.ExtractText(fragment)
}

// packNodes 对顶层节点做贪心打包。纯空白文本节点一并保留，它们承担相邻元素间的分词。
func (c *Chunker) packNodes(nodes []*html.Node) []string {
	var chunks []string
	var current []string
	currentSize := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		joined := strings.Join(current, "")
		if strings.TrimSpace(joined) != "" {
			chunks = append(chunks, joined)
		}
		current = nil
		currentSize = 0
	}

	for _, node := range nodes {
		rendered := renderNode(node)
		size := len(rendered)

		if currentSize+size > c.MaxChunkSize && len(current) > 0 {
			flush()
		}
		current = append(current, rendered)
		currentSize += size
	}
	flush()

	return chunks
}

// splitLarge 对超限的块做级联重切分：先按块级元素边界拆，再对不可再分的
// 超长片段退化为按词重排的 <p> 文本片段。
func (c *Chunker) splitLarge(chunk string) []string {
	nodes := parseTopLevel(chunk)
	pieces := c.gatherPieces(nodes)

	if len(pieces) <= 1 {
		return c.textResplit(chunk)
	}

	var chunks []string
	var current []string
	currentSize := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		joined := strings.Join(current, "")
		if strings.TrimSpace(joined) == "" {
			current = nil
			currentSize = 0
			return
		}
		if len(joined) > c.MaxChunkSize {
			// 打包后仍超限说明 current 里只有一个不可再分的片段
			chunks = append(chunks, c.textResplit(joined)...)
		} else {
			chunks = append(chunks, joined)
		}
		current = nil
		currentSize = 0
	}

	for _, piece := range pieces {
		size := len(piece)
		if currentSize+size > c.MaxChunkSize && len(current) > 0 {
			flush()
		}
		current = append(current, piece)
		currentSize += size
	}
	flush()

	return chunks
}

// gatherPieces 将节点展开为切分粒度的片段序列：大小合格的块级元素整体保留，
// 超限的块级元素下钻到其子节点，其余节点视为原子片段。
func (c *Chunker) gatherPieces(nodes []*html.Node) []string {
	var pieces []string
	var gather func(n *html.Node)
	gather = func(n *html.Node) {
		rendered := renderNode(n)
		if n.Type == html.ElementNode && blockTags[n.Data] && len(rendered) > c.MaxChunkSize {
			hasBlockChild := false
			for child := n.FirstChild; child != nil; child = child.NextSibling {
				if child.Type == html.ElementNode && blockTags[child.Data] {
					hasBlockChild = true
					break
				}
			}
			if hasBlockChild {
				for child := n.FirstChild; child != nil; child = child.NextSibling {
					gather(child)
				}
				return
			}
		}
		pieces = append(pieces, rendered)
	}
	for _, n := range nodes {
		gather(n)
	}
	return pieces
}

// textResplit 是兜底路径：抽出可见文本，按词贪心装入 <p> 片段。
// 若文本本身不超限（超限的只是标记），保留原片段不动。
func (c *Chunker) textResplit(chunk string) []string {
	text := textutil.ExtractText(chunk)
	if len(text) <= c.MaxChunkSize {
		return []string{chunk}
	}

	budget := c.MaxChunkSize - tagOverhead
	var chunks []string
	var words []string
	currentSize := 0

	flush := func() {
		if len(words) == 0 {
			return
		}
		chunks = append(chunks, "<p>"+strings.Join(words, " ")+"</p>")
		words = nil
		currentSize = 0
	}

	for _, word := range strings.Fields(text) {
		size := len(word) + 1
		if currentSize+size > budget && len(words) > 0 {
			flush()
		}
		words = append(words, word)
		currentSize += size
	}
	flush()

	return chunks
}

func parseTopLevel(content string) []*html.Node {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(content), ctx)
	if err != nil {
		return nil
	}
	return nodes
}

func renderNode(n *html.Node) string {
	var b strings.Builder
	if err := html.Render(&b, n); err != nil {
		return ""
	}
	return b.String()
}
