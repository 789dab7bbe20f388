package application

import (
	"context"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/dfryer1193/inkpress/blog/domain"
	"github.com/dfryer1193/inkpress/blog/frontmatter"
)

const (
	wordsPerMinute   = 200
	excerptRuneLimit = 200
	defaultPageSize  = 10
	maxPageSize      = 50
)

// PostMeta is a rendered-independent view of a post, suitable for listings.
type PostMeta struct {
	Slug        string
	Frontmatter domain.Frontmatter
	WordCount   int
	ReadingTime int
	Excerpt     string
}

// PostDetail is the full view of a single post, body rendered to HTML.
type PostDetail struct {
	PostMeta
	HTML     string
	Warnings []string
	Outline  []domain.Heading
}

type SearchQuery struct {
	Query  string
	Tag    string
	Author string
	Page   int
	Limit  int
}

type SearchResult struct {
	Posts []PostMeta
	Total int
	Page  int
	Limit int
}

type PostService struct {
	repo     domain.PostRepository
	markdown domain.MarkdownRenderer
}

func NewPostService(repo domain.PostRepository, markdown domain.MarkdownRenderer) *PostService {
	return &PostService{
		repo:     repo,
		markdown: markdown,
	}
}

// List returns metadata for every readable post, newest first.
func (s *PostService) List(ctx context.Context) ([]PostMeta, error) {
	posts, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	metas := make([]PostMeta, 0, len(posts))
	for _, p := range posts {
		metas = append(metas, summarize(p))
	}
	sortByDateDesc(metas)

	return metas, nil
}

// Get loads a single post and renders its body.
func (s *PostService) Get(ctx context.Context, slug string) (*PostDetail, error) {
	post, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	rendered := s.markdown.Render(post.Content)
	return &PostDetail{
		PostMeta: summarize(post),
		HTML:     rendered.HTML,
		Warnings: rendered.Warnings,
		Outline:  s.markdown.Outline(post.Content),
	}, nil
}

// GetRaw returns the unprocessed file contents for a slug.
func (s *PostService) GetRaw(ctx context.Context, slug string) ([]byte, error) {
	return s.repo.GetRawBySlug(ctx, slug)
}

// Create persists a new post and returns its slug. The date is normalized to
// YYYY-MM-DD so listings sort without per-request parsing.
func (s *PostService) Create(ctx context.Context, fm domain.Frontmatter, body string, slugHint string) (string, error) {
	fm.Date = frontmatter.NormalizeDate(fm.Date)
	return s.repo.Create(ctx, fm, body, slugHint)
}

// CreateFromUpload persists a complete markdown file verbatim.
func (s *PostService) CreateFromUpload(ctx context.Context, fileName string, data []byte) (string, error) {
	return s.repo.CreateFromUpload(ctx, fileName, data)
}

// Search filters posts by free-text query, tag, and author, then paginates.
// Matching is case-insensitive; the text query covers title, summary, author,
// tags, and the post body. At least one criterion is required: a search with
// no criteria returns an empty result set, not the whole collection (List is
// the browse-everything view).
func (s *PostService) Search(ctx context.Context, q SearchQuery) (*SearchResult, error) {
	needle := strings.ToLower(strings.TrimSpace(q.Query))
	tag := strings.ToLower(strings.TrimSpace(q.Tag))
	author := strings.ToLower(strings.TrimSpace(q.Author))

	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := q.Limit
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	if needle == "" && tag == "" && author == "" {
		return &SearchResult{Posts: []PostMeta{}, Page: page, Limit: limit}, nil
	}

	posts, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]PostMeta, 0, len(posts))
	for _, p := range posts {
		if tag != "" && !hasTag(p.Frontmatter.Tags, tag) {
			continue
		}
		if author != "" && strings.ToLower(p.Frontmatter.Author) != author {
			continue
		}
		if needle != "" && !matchesQuery(p, needle) {
			continue
		}
		matched = append(matched, summarize(p))
	}
	sortByDateDesc(matched)

	start := (page - 1) * limit
	if start > len(matched) {
		start = len(matched)
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}

	return &SearchResult{
		Posts: matched[start:end],
		Total: len(matched),
		Page:  page,
		Limit: limit,
	}, nil
}

func summarize(p *domain.Post) PostMeta {
	words := len(strings.Fields(p.Content))
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		minutes = 1
	}

	return PostMeta{
		Slug:        p.Slug,
		Frontmatter: p.Frontmatter,
		WordCount:   words,
		ReadingTime: minutes,
		Excerpt:     excerpt(p),
	}
}

// excerpt prefers the authored summary, falling back to the opening of the
// body with markdown syntax roughly stripped.
func excerpt(p *domain.Post) string {
	if s := strings.TrimSpace(p.Frontmatter.Summary); s != "" {
		return truncateRunes(s, excerptRuneLimit)
	}
	return truncateRunes(plainText(p.Content), excerptRuneLimit)
}

func plainText(markdown string) string {
	var b strings.Builder
	for _, line := range strings.Split(markdown, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "```") || strings.HasPrefix(line, ":::") {
			continue
		}
		line = strings.TrimLeft(line, "#>*- ")
		if line == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(line)
		if b.Len() > excerptRuneLimit*4 {
			break
		}
	}
	return b.String()
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return strings.TrimRight(string(runes[:limit]), " ") + "…"
}

func hasTag(tags []string, want string) bool {
	for _, t := range tags {
		if strings.ToLower(t) == want {
			return true
		}
	}
	return false
}

func matchesQuery(p *domain.Post, needle string) bool {
	if strings.Contains(strings.ToLower(p.Frontmatter.Title), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(p.Frontmatter.Summary), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(p.Frontmatter.Author), needle) {
		return true
	}
	for _, t := range p.Frontmatter.Tags {
		if strings.Contains(strings.ToLower(t), needle) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(p.Content), needle)
}

// Dates are normalized to YYYY-MM-DD by the frontmatter layer, so plain
// string comparison sorts chronologically. Slug breaks ties for stability.
func sortByDateDesc(metas []PostMeta) {
	sort.Slice(metas, func(i, j int) bool {
		if metas[i].Frontmatter.Date != metas[j].Frontmatter.Date {
			return metas[i].Frontmatter.Date > metas[j].Frontmatter.Date
		}
		return metas[i].Slug < metas[j].Slug
	})
}
