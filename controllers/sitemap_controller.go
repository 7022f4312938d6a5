package controllers

import (
	"encoding/xml"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yafa-kitchen/recipes/config"
)

type sitemapURL struct {
	Loc        string  `xml:"loc"`
	LastMod    string  `xml:"lastmod,omitempty"`
	ChangeFreq string  `xml:"changefreq,omitempty"`
	Priority   float64 `xml:"priority,omitempty"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// SitemapController renders sitemap.xml.
type SitemapController struct {
	catalog Catalog
	now     func() time.Time
}

func NewSitemapController(catalog Catalog) *SitemapController {
	return &SitemapController{catalog: catalog, now: time.Now}
}

// Sitemap lists the static pages followed by every published recipe.
func (s *SitemapController) Sitemap(ctx *gin.Context) {
	entries, err := s.catalog.Sitemap(ctx.Request.Context())
	if err != nil {
		respondServiceError(ctx, err, 50050, "failed to build sitemap")
		return
	}

	base := strings.TrimRight(config.Get().SiteURL, "/")
	today := s.now().UTC().Format("2006-01-02")
	set := urlSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs: []sitemapURL{
			{Loc: base, LastMod: today, ChangeFreq: "daily", Priority: 1},
			{Loc: base + "/recipes", LastMod: today, ChangeFreq: "daily", Priority: 0.9},
			{Loc: base + "/about", LastMod: today, ChangeFreq: "monthly", Priority: 0.5},
			{Loc: base + "/contact", LastMod: today, ChangeFreq: "monthly", Priority: 0.5},
		},
	}
	for _, e := range entries {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        base + "/recipes/" + url.PathEscape(e.Slug),
			LastMod:    e.UpdatedAt.UTC().Format("2006-01-02"),
			ChangeFreq: "weekly",
			Priority:   0.8,
		})
	}

	ctx.Header("Content-Type", "application/xml; charset=utf-8")
	ctx.Status(http.StatusOK)
	_, _ = ctx.Writer.WriteString(xml.Header)
	if err := xml.NewEncoder(ctx.Writer).Encode(set); err != nil {
		ctx.Error(err)
	}
}
