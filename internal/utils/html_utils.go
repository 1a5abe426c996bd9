package utils

import (
	"html/template"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// EnhanceHTMLContent 给图片加懒加载和防盗链属性，给代码块标注语言
func EnhanceHTMLContent(htmlStr string) template.HTML {
	if htmlStr == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	if err != nil {
		return template.HTML(htmlStr)
	}

	doc.Find("img").Each(func(i int, s *goquery.Selection) {
		s.SetAttr("referrerpolicy", "no-referrer")
		s.SetAttr("loading", "lazy")
	})

	doc.Find("pre > code").Each(func(i int, s *goquery.Selection) {
		pre := s.Parent()
		pre.AddClass("code-block")
		if lang := CodeLanguage(s.AttrOr("class", "")); lang != "" {
			pre.SetAttr("data-lang", lang)
		}
	})

	// goquery renders full document tags if missing, we just want the body content
	html, _ := doc.Find("body").Html()
	if html == "" {
		html, _ = doc.Html()
	}

	return template.HTML(html)
}

// CodeLanguage 从 "language-go" 这样的 class 里取出语言名
func CodeLanguage(class string) string {
	for _, c := range strings.Fields(class) {
		if lang, ok := strings.CutPrefix(c, "language-"); ok && lang != "" {
			return strings.ToLower(lang)
		}
	}
	return ""
}
