package pubcontent

import (
	"encoding/xml"

	"github.com/eringen/pubcontent/content"
	"github.com/eringen/pubcontent/feed"
)

const sitemapContentType = "application/xml; charset=utf-8"

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// buildSitemap lists the home page followed by every document in docs.
// lastmod comes from last_updated, falling back to date.
func buildSitemap(base string, docs []content.Document) sitemapURLSet {
	urls := []sitemapURL{
		{Loc: feed.AbsoluteURL(base, "/")},
	}
	for _, d := range docs {
		path := d.Path()
		if path == "" || path == "/" {
			continue
		}
		u := sitemapURL{Loc: feed.AbsoluteURL(base, path)}
		if t, ok := d.Time(content.FieldLastUpdated); ok {
			u.LastMod = t.Format("2006-01-02")
		} else if t, ok := d.Time(content.FieldDate); ok {
			u.LastMod = t.Format("2006-01-02")
		}
		urls = append(urls, u)
	}
	return sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
}
