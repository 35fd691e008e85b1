package feed

import (
	"encoding/xml"
	"time"
)

const (
	atomNamespace = "http://www.w3.org/2005/Atom"
	dcNamespace   = "http://purl.org/dc/elements/1.1/"
)

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	XMLNSDC string     `xml:"xmlns:dc,attr"`
	XMLNSA  string     `xml:"xmlns:atom,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string      `xml:"title"`
	Link          string      `xml:"link"`
	Description   string      `xml:"description"`
	AtomLink      rssAtomLink `xml:"atom:link"`
	Language      string      `xml:"language,omitempty"`
	Generator     string      `xml:"generator,omitempty"`
	LastBuildDate string      `xml:"lastBuildDate"`
	Items         []rssItem   `xml:"item"`
}

type rssAtomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type rssGUID struct {
	IsPermaLink bool   `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

type rssItem struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	GUID        rssGUID  `xml:"guid"`
	Description string   `xml:"description,omitempty"`
	Categories  []string `xml:"category"`
	PubDate     string   `xml:"pubDate,omitempty"`
	Language    string   `xml:"dc:language,omitempty"`
}

func encodeRSS(ch Channel, entries []Entry, built time.Time, generator string) ([]byte, error) {
	items := make([]rssItem, 0, len(entries))
	for _, e := range entries {
		pubDate := ""
		if !e.Published.IsZero() {
			pubDate = e.Published.Format(time.RFC1123Z)
		}
		items = append(items, rssItem{
			Title:       e.Title,
			Link:        e.URL,
			GUID:        rssGUID{IsPermaLink: true, Value: e.GUID},
			Description: e.Description,
			Categories:  e.Categories,
			PubDate:     pubDate,
			Language:    e.Language,
		})
	}
	description := ch.Description
	if description == "" {
		description = ch.Title
	}
	doc := rssXML{
		Version: "2.0",
		XMLNSDC: dcNamespace,
		XMLNSA:  atomNamespace,
		Channel: rssChannel{
			Title:       ch.Title,
			Link:        ch.SiteURL,
			Description: description,
			AtomLink: rssAtomLink{
				Href: ch.FeedURL,
				Rel:  "self",
				Type: "application/rss+xml",
			},
			Language:      ch.Language,
			Generator:     generator,
			LastBuildDate: built.Format(time.RFC1123Z),
			Items:         items,
		},
	}
	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}
