package application

import (
	"context"
	"encoding/xml"
	"time"

	"github.com/gorilla/feeds"
)

type SiteInfo struct {
	BaseURL     string
	Name        string
	Description string
}

// FeedService builds the syndication views of the post collection.
type FeedService struct {
	posts *PostService
	site  SiteInfo
	now   func() time.Time
}

func NewFeedService(posts *PostService, site SiteInfo) *FeedService {
	return &FeedService{
		posts: posts,
		site:  site,
		now:   time.Now,
	}
}

// RSS renders the full post listing as an RSS 2.0 document.
func (s *FeedService) RSS(ctx context.Context) (string, error) {
	metas, err := s.posts.List(ctx)
	if err != nil {
		return "", err
	}

	feed := &feeds.Feed{
		Title:       s.site.Name,
		Link:        &feeds.Link{Href: s.site.BaseURL},
		Description: s.site.Description,
		Created:     s.now(),
	}

	for _, m := range metas {
		item := &feeds.Item{
			Title:       m.Frontmatter.Title,
			Link:        &feeds.Link{Href: s.postURL(m.Slug)},
			Description: m.Excerpt,
			Id:          s.postURL(m.Slug),
		}
		if m.Frontmatter.Author != "" {
			item.Author = &feeds.Author{Name: m.Frontmatter.Author}
		}
		if created, err := time.Parse("2006-01-02", m.Frontmatter.Date); err == nil {
			item.Created = created
		}
		feed.Items = append(feed.Items, item)
	}

	// The generic feed model has no item category, so drop to the RSS
	// representation to attach the first tag per post.
	rss := (&feeds.Rss{Feed: feed}).RssFeed()
	for i, m := range metas {
		if i < len(rss.Items) && len(m.Frontmatter.Tags) > 0 {
			rss.Items[i].Category = m.Frontmatter.Tags[0]
		}
	}

	return feeds.ToXML(rss)
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
}

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// Sitemap renders the site root plus every post as a sitemap.org document.
func (s *FeedService) Sitemap(ctx context.Context) ([]byte, error) {
	metas, err := s.posts.List(ctx)
	if err != nil {
		return nil, err
	}

	set := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs: []sitemapURL{
			{Loc: s.site.BaseURL, ChangeFreq: "daily"},
		},
	}
	for _, m := range metas {
		entry := sitemapURL{Loc: s.postURL(m.Slug)}
		if _, err := time.Parse("2006-01-02", m.Frontmatter.Date); err == nil {
			entry.LastMod = m.Frontmatter.Date
		}
		set.URLs = append(set.URLs, entry)
	}

	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}

func (s *FeedService) postURL(slug string) string {
	base := s.site.BaseURL
	for len(base) > 0 && base[len(base)-1] == '/' {
		base = base[:len(base)-1]
	}
	return base + "/posts/" + slug
}
