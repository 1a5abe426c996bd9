package handlers

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"time"

	"snipshare/internal/services"
	"snipshare/internal/utils"

	"github.com/gin-gonic/gin"
)

const (
	sitemapLimit = 100
	feedLimit    = 20
)

type SEOHandler struct {
	siteURL string
	posts   *services.PostService
}

func NewSEOHandler(siteURL string, posts *services.PostService) *SEOHandler {
	return &SEOHandler{siteURL: siteURL, posts: posts}
}

type sitemapURL struct {
	Loc        string  `xml:"loc"`
	LastMod    string  `xml:"lastmod,omitempty"`
	ChangeFreq string  `xml:"changefreq"`
	Priority   float64 `xml:"priority"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	Author      string `xml:"author,omitempty"`
	Category    string `xml:"category,omitempty"`
	PubDate     string `xml:"pubDate"`
	GUID        string `xml:"guid"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	LastBuildDate string    `xml:"lastBuildDate"`
	Items         []rssItem `xml:"item"`
}

type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

// RobotsTxt 写接口和账号页不让爬
func (h *SEOHandler) RobotsTxt(c *gin.Context) {
	content := fmt.Sprintf(`User-agent: *
Allow: /

Disallow: /login
Disallow: /signup
Disallow: /favorites
Disallow: /customize

Sitemap: %s/sitemap.xml
`, h.siteURL)

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.String(http.StatusOK, content)
}

// SitemapXML 首页、排行榜和最近的帖子
func (h *SEOHandler) SitemapXML(c *gin.Context) {
	now := time.Now().Format("2006-01-02")
	set := urlSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs: []sitemapURL{
			{Loc: h.siteURL + "/posts", LastMod: now, ChangeFreq: "hourly", Priority: 1.0},
			{Loc: h.siteURL + "/leaderboard", LastMod: now, ChangeFreq: "daily", Priority: 0.8},
		},
	}

	posts, err := h.posts.ListPosts(c.Request.Context(), services.SortNew, sitemapLimit)
	if err != nil {
		RespondError(c, err)
		return
	}
	for _, post := range posts {
		// 越新的帖子优先级越高
		days := time.Since(post.CreatedAt).Hours() / 24
		priority, freq := 0.6, "weekly"
		if days < 7 {
			priority, freq = 0.8, "daily"
		}
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        fmt.Sprintf("%s/p/%d", h.siteURL, post.ID),
			LastMod:    post.UpdatedAt.Format("2006-01-02"),
			ChangeFreq: freq,
			Priority:   priority,
		})
	}

	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		RespondError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/xml; charset=utf-8", append([]byte(xml.Header), out...))
}

// RSSFeed 最新 20 个片段的 RSS 2.0 feed，描述是渲染后的 markdown
func (h *SEOHandler) RSSFeed(c *gin.Context) {
	posts, err := h.posts.ListPosts(c.Request.Context(), services.SortNew, feedLimit)
	if err != nil {
		RespondError(c, err)
		return
	}

	feed := rssFeed{
		Version: "2.0",
		Channel: rssChannel{
			Title:         "snipshare",
			Link:          h.siteURL,
			Description:   "Latest code snippets",
			LastBuildDate: time.Now().Format(time.RFC1123Z),
		},
	}
	for _, post := range posts {
		link := fmt.Sprintf("%s/p/%d", h.siteURL, post.ID)
		feed.Channel.Items = append(feed.Channel.Items, rssItem{
			Title:       post.Title,
			Link:        link,
			Description: string(utils.RenderMarkdown(post.Description)),
			Author:      post.User.Username,
			Category:    post.Language,
			PubDate:     post.CreatedAt.Format(time.RFC1123Z),
			GUID:        link,
		})
	}

	out, err := xml.MarshalIndent(feed, "", "  ")
	if err != nil {
		RespondError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", append([]byte(xml.Header), out...))
}
