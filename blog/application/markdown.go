package application

import (
	"bytes"
	"fmt"
	htmlesc "html"
	"regexp"
	"strings"

	fences "github.com/stefanfritsch/goldmark-fences"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"

	mathjax "github.com/litao91/goldmark-mathjax"
	"github.com/microcosm-cc/bluemonday"
	emoji "github.com/yuin/goldmark-emoji"
	gmfrontmatter "go.abhg.dev/goldmark/frontmatter"
	"go.abhg.dev/goldmark/toc"
	"go.abhg.dev/goldmark/wikilink"

	"github.com/dfryer1193/inkpress/blog/domain"
)

// GoldmarkRenderer implements domain.MarkdownRenderer as an ordered pipeline:
//
//  1. directive normalization (`:::note` on its own line becomes the fenced
//     attribute form the container extension parses)
//  2. goldmark parse with syntax extensions; raw HTML passes through into the
//     tree rather than being escaped
//  3. heading ID assignment for headings authored as raw HTML
//  4. admonition transform
//  5. allow-list sanitization
//  6. link rewriting (external rel, video embeds)
//  7. code block enrichment (highlighting, diagram images, nested-fence
//     un-escaping)
//  8. structural styling classes
//
// Sanitization runs after every stage that can introduce tags from untrusted
// input; the stages after it only emit tags already on the allow-list, so a
// new stage that emits anything else must extend the policy in sanitize.go.
//
// The renderer is stateless and safe for reuse across requests.
type GoldmarkRenderer struct {
	engine    goldmark.Markdown
	sanitizer *bluemonday.Policy

	preSanitize  []htmlStage
	postSanitize []htmlStage
}

var _ domain.MarkdownRenderer = (*GoldmarkRenderer)(nil)

// RendererOptions tunes host-dependent behavior.
type RendererOptions struct {
	// SiteHost is the hostname treated as internal by the link rewriting
	// stage. Links to any other host open in a new tab with
	// rel="noopener noreferrer".
	SiteHost string
}

// NewMarkdownRenderer builds the pipeline with the full extension set.
func NewMarkdownRenderer(opts RendererOptions) *GoldmarkRenderer {
	engine := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.DefinitionList,
			extension.Footnote,
			extension.Typographer,
			emoji.Emoji,
			mathjax.MathJax,
			&fences.Extender{},
			&gmfrontmatter.Extender{},
			&wikilink.Extender{Resolver: postLinkResolver{}},
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithAttribute(),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithUnsafe(),
		),
	)

	return &GoldmarkRenderer{
		engine:    engine,
		sanitizer: newSanitizerPolicy(),
		preSanitize: []htmlStage{
			{name: "heading-ids", fn: assignHeadingIDs},
			{name: "admonitions", fn: transformAdmonitions},
		},
		postSanitize: []htmlStage{
			{name: "links", fn: rewriteLinks(opts.SiteHost)},
			{name: "code", fn: enrichCodeBlocks},
			{name: "structure", fn: applyStructuralClasses},
		},
	}
}

// Render converts body markdown into sanitized display HTML. It never fails:
// a construct that cannot be processed degrades to literal text and is
// reported through Warnings instead of blanking the page.
func (r *GoldmarkRenderer) Render(markdown string) *domain.RenderResult {
	result := &domain.RenderResult{}

	normalized := normalizeDirectives(markdown)

	var buf bytes.Buffer
	if err := r.engine.Convert([]byte(normalized), &buf); err != nil {
		result.HTML = "<pre>" + htmlesc.EscapeString(markdown) + "</pre>"
		result.Warnings = append(result.Warnings, fmt.Sprintf("markdown parse failed, rendering literal text: %v", err))
		return result
	}

	markup, warnings := applyStages(buf.String(), r.preSanitize)
	result.Warnings = append(result.Warnings, warnings...)

	markup = r.sanitizer.Sanitize(markup)

	markup, warnings = applyStages(markup, r.postSanitize)
	result.Warnings = append(result.Warnings, warnings...)

	result.HTML = markup
	return result
}

// Outline returns the heading tree of a document, using the same parser
// configuration as Render so anchor IDs line up with the rendered HTML.
func (r *GoldmarkRenderer) Outline(markdown string) []domain.Heading {
	source := []byte(normalizeDirectives(markdown))
	doc := r.engine.Parser().Parse(text.NewReader(source))

	tree, err := toc.Inspect(doc, source)
	if err != nil || tree == nil {
		return nil
	}
	return convertTOCItems(tree.Items, 1)
}

func convertTOCItems(items toc.Items, level int) []domain.Heading {
	if len(items) == 0 {
		return nil
	}
	headings := make([]domain.Heading, 0, len(items))
	for _, item := range items {
		headings = append(headings, domain.Heading{
			ID:       string(item.ID),
			Title:    string(item.Title),
			Level:    level,
			Children: convertTOCItems(item.Items, level+1),
		})
	}
	return headings
}

// postLinkResolver maps wiki-style [[references]] onto post URLs.
type postLinkResolver struct{}

func (postLinkResolver) ResolveWikilink(n *wikilink.Node) ([]byte, error) {
	target := make([]byte, 0, len(n.Target)+len("/posts/"))
	target = append(target, "/posts/"...)
	target = append(target, n.Target...)
	return target, nil
}

var directiveOpenRegex = regexp.MustCompile(`^:::\s*([A-Za-z][A-Za-z0-9_-]*)\s*$`)

// normalizeDirectives rewrites bare `:::name` container openers into the
// attribute form consumed by the fenced-div extension (`:::{.name}`), leaving
// closers and anything inside fenced code blocks untouched.
func normalizeDirectives(markdown string) string {
	lines := strings.Split(markdown, "\n")
	inCodeFence := false

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inCodeFence = !inCodeFence
			continue
		}
		if inCodeFence {
			continue
		}
		if m := directiveOpenRegex.FindStringSubmatch(trimmed); m != nil {
			lines[i] = ":::{." + m[1] + "}"
		}
	}

	return strings.Join(lines, "\n")
}
