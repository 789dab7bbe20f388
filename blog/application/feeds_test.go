package application

import (
	"context"
	"strings"
	"testing"
	"time"
)

func newTestFeedService(t *testing.T) *FeedService {
	t.Helper()
	svc, _ := newTestService(testPosts())
	fs := NewFeedService(svc, SiteInfo{
		BaseURL:     "https://blog.example.com/",
		Name:        "Example Blog",
		Description: "Notes on things",
	})
	fs.now = func() time.Time { return time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC) }
	return fs
}

func TestRSS(t *testing.T) {
	out, err := newTestFeedService(t).RSS(context.Background())
	if err != nil {
		t.Fatalf("RSS() error = %v", err)
	}

	if !strings.Contains(out, "<rss") {
		t.Fatalf("output is not RSS: %q", out)
	}
	if !strings.Contains(out, "<title>Example Blog</title>") {
		t.Errorf("channel title missing: %q", out)
	}
	if !strings.Contains(out, "https://blog.example.com/posts/newer-post") {
		t.Errorf("item link missing: %q", out)
	}
	if !strings.Contains(out, "All about storage engines.") {
		t.Errorf("item description missing: %q", out)
	}
	if !strings.Contains(out, "<category>databases</category>") {
		t.Errorf("first tag not used as category: %q", out)
	}

	// newest post first
	newer := strings.Index(out, "newer-post")
	older := strings.Index(out, "older-post")
	if newer == -1 || older == -1 || newer > older {
		t.Errorf("items out of order: newer at %d, older at %d", newer, older)
	}
}

func TestSitemap(t *testing.T) {
	out, err := newTestFeedService(t).Sitemap(context.Background())
	if err != nil {
		t.Fatalf("Sitemap() error = %v", err)
	}
	doc := string(out)

	if !strings.HasPrefix(doc, "<?xml") {
		t.Errorf("missing XML declaration: %q", doc[:40])
	}
	if !strings.Contains(doc, "http://www.sitemaps.org/schemas/sitemap/0.9") {
		t.Errorf("missing sitemap namespace: %q", doc)
	}
	if !strings.Contains(doc, "<loc>https://blog.example.com/</loc>") {
		t.Errorf("site root missing: %q", doc)
	}
	if !strings.Contains(doc, "<loc>https://blog.example.com/posts/older-post</loc>") {
		t.Errorf("post URL missing: %q", doc)
	}
	if !strings.Contains(doc, "<lastmod>2023-01-15</lastmod>") {
		t.Errorf("lastmod missing: %q", doc)
	}
}
