package domain

import "context"

// Post represents a single piece of content.
// A post is backed by a markdown file in the content directory; the slug is
// the filename minus its extension and doubles as the URL path segment.
type Post struct {
	Slug        string
	Frontmatter Frontmatter
	Content     string
}

// Frontmatter is the metadata block at the top of a content file.
// Title and Date are always populated on records returned by a repository;
// missing or malformed input is coerced rather than rejected, so downstream
// code never needs to null-check them.
type Frontmatter struct {
	Title      string   `yaml:"title" json:"title"`
	Date       string   `yaml:"date" json:"date"`
	Author     string   `yaml:"author,omitempty" json:"author,omitempty"`
	Tags       []string `yaml:"tags,omitempty" json:"tags,omitempty"`
	Summary    string   `yaml:"summary,omitempty" json:"summary,omitempty"`
	Canonical  string   `yaml:"canonical,omitempty" json:"canonical,omitempty"`
	Image      string   `yaml:"image,omitempty" json:"image,omitempty"`
	Category   string   `yaml:"category,omitempty" json:"category,omitempty"`
	Featured   bool     `yaml:"featured,omitempty" json:"featured,omitempty"`
	AIReadable bool     `yaml:"ai_readable" json:"ai_readable"`
}

type PostRepository interface {
	// ListSlugs returns one slug per recognized file in the content directory.
	ListSlugs(ctx context.Context) ([]string, error)

	// GetRawBySlug returns the raw file text for a slug. Resolution checks
	// .mdx before .md. Returns ErrNotFound when neither exists.
	GetRawBySlug(ctx context.Context, slug string) ([]byte, error)

	// GetBySlug returns the fully parsed post for a slug, or ErrNotFound.
	GetBySlug(ctx context.Context, slug string) (*Post, error)

	// GetAll parses every post in the directory. Order is not guaranteed;
	// callers sort when they need a most-recent-first view. A malformed file
	// degrades to a record with defaulted fields, it does not fail the listing.
	GetAll(ctx context.Context) ([]*Post, error)

	// Create serializes frontmatter and body into a new <slug>.md file and
	// returns the final slug. Title and Date are required; a *ValidationError
	// is returned before anything is written when either is missing. An
	// existing file with the same name is overwritten.
	Create(ctx context.Context, fm Frontmatter, body string, slugHint string) (string, error)

	// CreateFromUpload writes the uploaded bytes verbatim under the original
	// filename. Only .md and .mdx extensions are accepted; anything else is
	// rejected with an *UnsupportedFormatError before any write occurs.
	CreateFromUpload(ctx context.Context, fileName string, data []byte) (string, error)
}

// RenderResult is the output of the markdown rendering pipeline. HTML is safe
// for direct display: the pipeline sanitizes against an explicit allow-list
// after raw HTML has been parsed into the tree. Warnings collects constructs
// that degraded to a fallback rendering instead of failing the whole page.
type RenderResult struct {
	HTML     string
	Warnings []string
}

// Heading is one entry in a document outline.
type Heading struct {
	ID       string
	Title    string
	Level    int
	Children []Heading
}

// MarkdownRenderer converts untrusted body markdown into display-ready HTML.
// Render never fails on malformed input; it degrades per construct.
type MarkdownRenderer interface {
	Render(markdown string) *RenderResult
	Outline(markdown string) []Heading
}
