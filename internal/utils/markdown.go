package utils

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"html/template"
	"regexp"
	"time"

	"github.com/microcosm-cc/bluemonday"
	log "github.com/sirupsen/logrus"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

const renderCacheTTL = 10 * time.Minute

var (
	mdParser = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)
	policy = bluemonday.UGCPolicy()

	renderCache *TTLCache[template.HTML]
)

func init() {
	policy.AllowImages()
	// 保留 goldmark 输出的代码语言标记
	policy.AllowAttrs("class").Matching(regexp.MustCompile(`^language-[\w+#.-]+$`)).OnElements("code")
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	policy.RequireNoReferrerOnLinks(true)

	var err error
	renderCache, err = NewTTLCache[template.HTML](500)
	if err != nil {
		log.Fatalf("Failed to create render cache: %v", err)
	}
}

// RenderMarkdown 渲染帖子描述和评论，结果按内容哈希缓存
func RenderMarkdown(source string) template.HTML {
	if source == "" {
		return ""
	}

	sum := sha1.Sum([]byte(source))
	key := hex.EncodeToString(sum[:])
	if cached, ok := renderCache.Get(key); ok {
		return cached
	}

	var buf bytes.Buffer
	if err := mdParser.Convert([]byte(source), &buf); err != nil {
		// 转换失败时按纯文本转义输出
		return template.HTML(template.HTMLEscapeString(source))
	}

	sanitized := policy.SanitizeBytes(buf.Bytes())
	out := EnhanceHTMLContent(string(sanitized))
	renderCache.Set(key, out, renderCacheTTL)
	return out
}
