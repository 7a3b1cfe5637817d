package textutil

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/net/html"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// WordCount 统计文本中的词数。按任意空白切分，空串与纯空白返回 0。
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// ExtractText returns the visible text of an HTML document. A space is kept
// at every element boundary so words in adjacent tags do not fuse; whitespace
// runs in the result are collapsed to single spaces.
func ExtractText(content string) string {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return strings.Join(strings.Fields(content), " ")
	}

	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode {
			b.WriteByte(' ')
		}
	}
	walk(doc)

	return strings.Join(strings.Fields(b.String()), " ")
}

var diacriticStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify 将任意标题转换为 URL 友好的 slug。越南语等带变音符号的文字会先折叠为
// ASCII 字母；无法表示的字符一律压缩为单个连字符。结果可能为空串，由调用方提供回退。
func Slugify(s string) string {
	folded, _, err := transform.String(diacriticStripper, s)
	if err != nil {
		folded = s
	}
	// đ/Đ 不属于组合字符，需要单独映射
	folded = strings.NewReplacer("đ", "d", "Đ", "d").Replace(folded)
	folded = strings.ToLower(folded)

	var b strings.Builder
	lastDash := true
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

// RandomToken returns a lowercase URL-safe token of length n, used to
// disambiguate colliding slugs.
func RandomToken(n int) string {
	var b strings.Builder
	for b.Len() < n {
		b.WriteString(strings.ReplaceAll(uuid.NewString(), "-", ""))
	}
	return b.String()[:n]
}
