package persistence

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	gosimple "github.com/gosimple/slug"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/dfryer1193/inkpress/blog/domain"
	"github.com/dfryer1193/inkpress/blog/frontmatter"
)

var _ domain.PostRepository = (*FilePostRepository)(nil)

const maxSlugLength = 120

// markdownExtensions lists recognized content file extensions in resolution
// order: .mdx takes precedence over .md when both exist for a slug.
var markdownExtensions = []string{".mdx", ".md"}

// FilePostRepository implements domain.PostRepository over a flat directory
// of frontmatter-tagged markdown files. The directory is the store: every
// read re-reads the filesystem, there is no cache, and concurrent creates
// targeting the same slug are last-write-wins.
type FilePostRepository struct {
	dir string
}

// NewPostRepository creates a FilePostRepository rooted at dir.
func NewPostRepository(dir string) *FilePostRepository {
	return &FilePostRepository{
		dir: dir,
	}
}

// ListSlugs returns one slug per .md/.mdx file in the content directory.
// Files with any other extension are ignored, not an error.
func (r *FilePostRepository) ListSlugs(ctx context.Context) ([]string, error) {
	if err := r.ensureDir(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read content directory: %w", err)
	}

	seen := make(map[string]struct{})
	slugs := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if !isMarkdownExtension(ext) {
			continue
		}
		slug := strings.TrimSuffix(name, filepath.Ext(name))
		if _, ok := seen[slug]; ok {
			continue
		}
		seen[slug] = struct{}{}
		slugs = append(slugs, slug)
	}

	sort.Strings(slugs)
	return slugs, nil
}

// GetRawBySlug returns the raw file text for a slug, checking .mdx before .md.
func (r *FilePostRepository) GetRawBySlug(ctx context.Context, slug string) ([]byte, error) {
	path, err := r.resolvePath(slug)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read post file: %w", err)
	}

	return data, nil
}

// GetBySlug returns the fully parsed post for a slug or domain.ErrNotFound.
// A malformed frontmatter block degrades to defaulted fields, never an error.
func (r *FilePostRepository) GetBySlug(ctx context.Context, slug string) (*domain.Post, error) {
	raw, err := r.GetRawBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	fm, body, warnings := frontmatter.Parse(raw)
	for _, w := range warnings {
		log.Warn().Str("slug", slug).Msg(w)
	}

	return &domain.Post{
		Slug:        slug,
		Frontmatter: fm,
		Content:     body,
	}, nil
}

// GetAll parses every post in the directory. File reads fan out concurrently
// since each is independent; order of the result is not guaranteed. A file
// that disappears between the listing and the read is skipped rather than
// failing the whole listing.
func (r *FilePostRepository) GetAll(ctx context.Context) ([]*domain.Post, error) {
	slugs, err := r.ListSlugs(ctx)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	posts := make([]*domain.Post, 0, len(slugs))

	g, gctx := errgroup.WithContext(ctx)
	for _, slug := range slugs {
		slug := slug
		g.Go(func() error {
			post, err := r.GetBySlug(gctx, slug)
			if err != nil {
				log.Warn().Err(err).Str("slug", slug).Msg("Skipping unreadable post")
				return nil
			}
			mu.Lock()
			posts = append(posts, post)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return posts, nil
}

// Create serializes frontmatter and body to <slug>.md and returns the final
// slug. Title and date are required; validation happens before any write. An
// existing file of the same name is overwritten (last-write-wins).
func (r *FilePostRepository) Create(ctx context.Context, fm domain.Frontmatter, body string, slugHint string) (string, error) {
	if strings.TrimSpace(fm.Title) == "" {
		return "", &domain.ValidationError{Field: "title", Reason: "required frontmatter field is missing"}
	}
	if strings.TrimSpace(fm.Date) == "" {
		return "", &domain.ValidationError{Field: "date", Reason: "required frontmatter field is missing"}
	}

	slug := deriveSlug(slugHint, fm.Title)
	if slug == "" {
		return "", &domain.ValidationError{Field: "title", Reason: "cannot derive a slug"}
	}

	data, err := frontmatter.Serialize(fm, body)
	if err != nil {
		return "", err
	}

	if err := r.ensureDir(); err != nil {
		return "", err
	}

	path := filepath.Join(r.dir, slug+".md")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write post file: %w", err)
	}

	return slug, nil
}

// CreateFromUpload writes uploaded bytes verbatim under the original
// filename. Only .md/.mdx extensions are accepted.
func (r *FilePostRepository) CreateFromUpload(ctx context.Context, fileName string, data []byte) (string, error) {
	base := filepath.Base(fileName)
	ext := strings.ToLower(filepath.Ext(base))
	if !isMarkdownExtension(ext) {
		return "", &domain.UnsupportedFormatError{FileName: base}
	}

	if err := r.ensureDir(); err != nil {
		return "", err
	}

	path := filepath.Join(r.dir, base)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write uploaded post: %w", err)
	}

	return strings.TrimSuffix(base, filepath.Ext(base)), nil
}

// resolvePath maps a slug to its backing file, preferring .mdx over .md.
func (r *FilePostRepository) resolvePath(slug string) (string, error) {
	if slug == "" {
		return "", domain.ErrNotFound
	}
	if err := r.ensureDir(); err != nil {
		return "", err
	}

	for _, ext := range markdownExtensions {
		path := filepath.Join(r.dir, slug+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", domain.ErrNotFound
}

// ensureDir self-heals a missing content directory instead of erroring.
func (r *FilePostRepository) ensureDir() error {
	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return fmt.Errorf("failed to create content directory: %w", err)
	}
	return nil
}

func isMarkdownExtension(ext string) bool {
	return ext == ".md" || ext == ".mdx"
}

// deriveSlug prefers the explicit hint, falling back to a lowercase
// hyphenated transform of the title, truncated to a sane URL length.
func deriveSlug(hint string, title string) string {
	source := hint
	if strings.TrimSpace(source) == "" {
		source = title
	}

	s := gosimple.Make(source)
	if len(s) > maxSlugLength {
		s = strings.Trim(s[:maxSlugLength], "-")
	}
	return s
}
