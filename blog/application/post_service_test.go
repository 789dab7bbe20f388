package application

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dfryer1193/inkpress/blog/domain"
)

type fakeRepo struct {
	posts   []domain.Post
	created []domain.Frontmatter
}

func (f *fakeRepo) ListSlugs(ctx context.Context) ([]string, error) {
	slugs := make([]string, 0, len(f.posts))
	for _, p := range f.posts {
		slugs = append(slugs, p.Slug)
	}
	return slugs, nil
}

func (f *fakeRepo) GetRawBySlug(ctx context.Context, slug string) ([]byte, error) {
	for _, p := range f.posts {
		if p.Slug == slug {
			return []byte("---\ntitle: " + p.Frontmatter.Title + "\n---\n\n" + p.Content), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeRepo) GetBySlug(ctx context.Context, slug string) (*domain.Post, error) {
	for _, p := range f.posts {
		if p.Slug == slug {
			post := p
			return &post, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeRepo) GetAll(ctx context.Context) ([]*domain.Post, error) {
	out := make([]*domain.Post, 0, len(f.posts))
	for i := range f.posts {
		out = append(out, &f.posts[i])
	}
	return out, nil
}

func (f *fakeRepo) Create(ctx context.Context, fm domain.Frontmatter, body string, slugHint string) (string, error) {
	f.created = append(f.created, fm)
	if slugHint != "" {
		return slugHint, nil
	}
	return "generated-slug", nil
}

func (f *fakeRepo) CreateFromUpload(ctx context.Context, fileName string, data []byte) (string, error) {
	return strings.TrimSuffix(fileName, ".md"), nil
}

func testPosts() []domain.Post {
	return []domain.Post{
		{
			Slug: "older-post",
			Frontmatter: domain.Frontmatter{
				Title:  "Older Post",
				Date:   "2023-01-15",
				Author: "Alice",
				Tags:   []string{"go", "testing"},
			},
			Content: "Some words about testing in Go.",
		},
		{
			Slug: "newer-post",
			Frontmatter: domain.Frontmatter{
				Title:   "Newer Post",
				Date:    "2024-06-01",
				Author:  "Bob",
				Tags:    []string{"databases"},
				Summary: "All about storage engines.",
			},
			Content: strings.Repeat("word ", 450),
		},
		{
			Slug: "middle-post",
			Frontmatter: domain.Frontmatter{
				Title:  "Middle Post",
				Date:   "2023-09-09",
				Author: "Alice",
				Tags:   []string{"go"},
			},
			Content: "# Intro\n\nA post that mentions kubernetes exactly once.",
		},
	}
}

func newTestService(posts []domain.Post) (*PostService, *fakeRepo) {
	repo := &fakeRepo{posts: posts}
	return NewPostService(repo, newTestRenderer()), repo
}

func TestList_SortsNewestFirst(t *testing.T) {
	svc, _ := newTestService(testPosts())

	metas, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	got := make([]string, 0, len(metas))
	for _, m := range metas {
		got = append(got, m.Slug)
	}
	want := []string{"newer-post", "middle-post", "older-post"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("List() order = %v, want %v", got, want)
		}
	}
}

func TestList_ReadingTime(t *testing.T) {
	svc, _ := newTestService(testPosts())

	metas, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	for _, m := range metas {
		switch m.Slug {
		case "newer-post":
			// 450 words at 200wpm rounds up to 3 minutes
			if m.ReadingTime != 3 {
				t.Errorf("reading time for %s = %d, want 3", m.Slug, m.ReadingTime)
			}
		case "older-post":
			if m.ReadingTime != 1 {
				t.Errorf("reading time for %s = %d, want 1", m.Slug, m.ReadingTime)
			}
		}
	}
}

func TestList_ExcerptPrefersSummary(t *testing.T) {
	svc, _ := newTestService(testPosts())

	metas, _ := svc.List(context.Background())
	for _, m := range metas {
		if m.Slug == "newer-post" && m.Excerpt != "All about storage engines." {
			t.Errorf("excerpt = %q, want authored summary", m.Excerpt)
		}
		if m.Slug == "middle-post" {
			if strings.Contains(m.Excerpt, "#") {
				t.Errorf("excerpt kept heading marker: %q", m.Excerpt)
			}
			if !strings.Contains(m.Excerpt, "kubernetes") {
				t.Errorf("excerpt lost body text: %q", m.Excerpt)
			}
		}
	}
}

func TestGet_RendersBody(t *testing.T) {
	svc, _ := newTestService(testPosts())

	detail, err := svc.Get(context.Background(), "middle-post")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !strings.Contains(detail.HTML, "<h1") {
		t.Errorf("body not rendered: %q", detail.HTML)
	}
	if len(detail.Outline) == 0 || detail.Outline[0].Title != "Intro" {
		t.Errorf("outline = %+v", detail.Outline)
	}
}

func TestGet_NotFound(t *testing.T) {
	svc, _ := newTestService(testPosts())

	_, err := svc.Get(context.Background(), "no-such-post")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestSearch(t *testing.T) {
	tests := []struct {
		name      string
		query     SearchQuery
		wantSlugs []string
		wantTotal int
	}{
		{
			name:      "Free text matches body",
			query:     SearchQuery{Query: "kubernetes"},
			wantSlugs: []string{"middle-post"},
			wantTotal: 1,
		},
		{
			name:      "Query is case-insensitive",
			query:     SearchQuery{Query: "OLDER"},
			wantSlugs: []string{"older-post"},
			wantTotal: 1,
		},
		{
			name:      "Tag filter",
			query:     SearchQuery{Tag: "go"},
			wantSlugs: []string{"middle-post", "older-post"},
			wantTotal: 2,
		},
		{
			name:      "Author filter",
			query:     SearchQuery{Author: "alice"},
			wantSlugs: []string{"middle-post", "older-post"},
			wantTotal: 2,
		},
		{
			name:      "Combined filters narrow",
			query:     SearchQuery{Query: "testing", Tag: "go"},
			wantSlugs: []string{"older-post"},
			wantTotal: 1,
		},
		{
			name:      "No match",
			query:     SearchQuery{Query: "zeppelin"},
			wantSlugs: []string{},
			wantTotal: 0,
		},
		{
			name:      "No criteria returns nothing",
			query:     SearchQuery{},
			wantSlugs: []string{},
			wantTotal: 0,
		},
		{
			name:      "Whitespace-only criteria count as none",
			query:     SearchQuery{Query: "   "},
			wantSlugs: []string{},
			wantTotal: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(testPosts())
			result, err := svc.Search(context.Background(), tt.query)
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if result.Total != tt.wantTotal {
				t.Errorf("Total = %d, want %d", result.Total, tt.wantTotal)
			}
			if len(result.Posts) != len(tt.wantSlugs) {
				t.Fatalf("got %d posts, want %d", len(result.Posts), len(tt.wantSlugs))
			}
			for i, want := range tt.wantSlugs {
				if result.Posts[i].Slug != want {
					t.Errorf("result[%d] = %q, want %q", i, result.Posts[i].Slug, want)
				}
			}
		})
	}
}

func TestSearch_Pagination(t *testing.T) {
	svc, _ := newTestService(testPosts())

	first, err := svc.Search(context.Background(), SearchQuery{Query: "post", Page: 1, Limit: 2})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(first.Posts) != 2 || first.Total != 3 {
		t.Fatalf("page 1: got %d posts, total %d", len(first.Posts), first.Total)
	}

	second, err := svc.Search(context.Background(), SearchQuery{Query: "post", Page: 2, Limit: 2})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(second.Posts) != 1 {
		t.Fatalf("page 2: got %d posts, want 1", len(second.Posts))
	}
	if second.Posts[0].Slug == first.Posts[0].Slug {
		t.Error("pages overlap")
	}

	beyond, err := svc.Search(context.Background(), SearchQuery{Query: "post", Page: 99, Limit: 2})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(beyond.Posts) != 0 {
		t.Errorf("page beyond end returned %d posts", len(beyond.Posts))
	}

	clamped, err := svc.Search(context.Background(), SearchQuery{Query: "post", Limit: 500})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if clamped.Limit != maxPageSize {
		t.Errorf("limit = %d, want clamped to %d", clamped.Limit, maxPageSize)
	}
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		limit    int
		expected string
	}{
		{
			name:     "Under limit untouched",
			input:    "short",
			limit:    10,
			expected: "short",
		},
		{
			name:     "Truncated with ellipsis",
			input:    "abcdefghij",
			limit:    5,
			expected: "abcde…",
		},
		{
			name:     "Multibyte runes counted as one",
			input:    "héllo wörld",
			limit:    5,
			expected: "héllo…",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateRunes(tt.input, tt.limit)
			if got != tt.expected {
				t.Errorf("truncateRunes(%q, %d) = %q, want %q", tt.input, tt.limit, got, tt.expected)
			}
		})
	}
}
