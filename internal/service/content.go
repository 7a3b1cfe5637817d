package service

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// ContentFormat 标识章节投稿的原始格式。
const (
	FormatHTML     = "html"
	FormatMarkdown = "markdown"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	sanitizer = bluemonday.UGCPolicy()
)

// RenderChapterContent 将投稿内容规整为可入库的 HTML：Markdown 投稿先渲染，
// 之后一律过白名单清洗，切分器只会见到干净的标记。
func RenderChapterContent(content, format string) (string, error) {
	if format == FormatMarkdown {
		var buf bytes.Buffer
		if err := markdownEngine.Convert([]byte(content), &buf); err != nil {
			return "", err
		}
		content = buf.String()
	}
	return sanitizer.Sanitize(content), nil
}
