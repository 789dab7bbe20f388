package application

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	gosimple "github.com/gosimple/slug"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// htmlStage is one tree-transform pass of the rendering pipeline. A stage
// mutates the fragment in place and reports degraded constructs as warnings;
// it must not fail the render.
type htmlStage struct {
	name string
	fn   func(root *html.Node) []string
}

// applyStages parses the markup into an HTML tree, runs each stage over it,
// and serializes the result. A panicking stage is isolated: its changes so
// far are kept, a warning is recorded, and the remaining stages still run.
func applyStages(markup string, stages []htmlStage) (string, []string) {
	root, err := parseFragment(markup)
	if err != nil {
		return markup, []string{fmt.Sprintf("html parse failed, skipping transforms: %v", err)}
	}

	var warnings []string
	for _, stage := range stages {
		warnings = append(warnings, runStage(stage, root)...)
	}

	return renderChildren(root), warnings
}

func runStage(stage htmlStage, root *html.Node) (warnings []string) {
	defer func() {
		if r := recover(); r != nil {
			warnings = append(warnings, fmt.Sprintf("%s stage degraded: %v", stage.name, r))
		}
	}()
	return stage.fn(root)
}

func parseFragment(markup string) (*html.Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(markup), ctx)
	if err != nil {
		return nil, err
	}

	root := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return root, nil
}

func renderChildren(root *html.Node) string {
	var sb strings.Builder
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&sb, c); err != nil {
			continue
		}
	}
	return sb.String()
}

/* -------------------------------
   Stage: heading ID assignment
-------------------------------- */

var headingTags = map[string]bool{"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true}

// assignHeadingIDs gives every heading a stable, slugified id so anchor links
// work. Headings from markdown already carry ids from the parser; this covers
// headings authored as raw HTML. IDs are deduplicated across the document.
func assignHeadingIDs(root *html.Node) []string {
	used := make(map[string]bool)
	walk(root, func(n *html.Node) bool {
		if n.Type == html.ElementNode {
			if id := attrValue(n, "id"); id != "" {
				used[id] = true
			}
		}
		return true
	})

	walk(root, func(n *html.Node) bool {
		if n.Type != html.ElementNode || !headingTags[n.Data] {
			return true
		}
		if attrValue(n, "id") != "" {
			return true
		}

		base := gosimple.Make(textContent(n))
		if base == "" {
			base = "heading"
		}
		id := base
		for i := 1; used[id]; i++ {
			id = fmt.Sprintf("%s-%d", base, i)
		}
		used[id] = true
		setAttr(n, "id", id)
		return true
	})

	return nil
}

/* -------------------------------
   Stage: admonitions
-------------------------------- */

var admonitionIcons = map[string]string{
	"note":    "\U0001F4DD",
	"warning": "⚠️",
	"tip":     "\U0001F4A1",
	"info":    "ℹ️",
}

// transformAdmonitions rewrites container divs named note/warning/tip/info
// into styled callout blocks with a type icon. Any other container name
// passes through unrecognized, just unstyled.
func transformAdmonitions(root *html.Node) []string {
	var matches []*html.Node
	walk(root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "div" && admonitionType(n) != "" {
			matches = append(matches, n)
			return false
		}
		return true
	})

	for _, div := range matches {
		kind := admonitionType(div)

		content := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
		setAttr(content, "class", "admonition-content")
		for div.FirstChild != nil {
			child := div.FirstChild
			div.RemoveChild(child)
			content.AppendChild(child)
		}

		icon := &html.Node{Type: html.ElementNode, Data: "span", DataAtom: atom.Span}
		setAttr(icon, "class", "admonition-icon")
		icon.AppendChild(&html.Node{Type: html.TextNode, Data: admonitionIcons[kind]})

		setAttr(div, "class", "admonition admonition-"+kind)
		div.AppendChild(icon)
		div.AppendChild(content)
	}

	return nil
}

func admonitionType(n *html.Node) string {
	for _, class := range strings.Fields(attrValue(n, "class")) {
		if _, ok := admonitionIcons[class]; ok {
			return class
		}
	}
	return ""
}

/* -------------------------------
   Stage: link rewriting
-------------------------------- */

// rewriteLinks returns the stage that hardens off-site links and turns
// image-wrapped video links into embedded players. The image-wrapped-link
// convention is how authors signal "embed this" as opposed to an ordinary
// link to a video page.
func rewriteLinks(siteHost string) func(root *html.Node) []string {
	return func(root *html.Node) []string {
		var anchors []*html.Node
		walk(root, func(n *html.Node) bool {
			if n.Type == html.ElementNode && n.Data == "a" {
				anchors = append(anchors, n)
				return false
			}
			return true
		})

		for _, a := range anchors {
			href := attrValue(a, "href")
			if href == "" {
				continue
			}

			if embed := videoEmbedURL(href); embed != "" && wrapsOnlyImage(a) {
				replaceWithVideoEmbed(a, embed)
				continue
			}

			u, err := url.Parse(href)
			if err != nil || u.Host == "" {
				continue
			}
			internal := strings.EqualFold(u.Host, siteHost) || strings.EqualFold(u.Hostname(), siteHost)
			if (u.Scheme == "http" || u.Scheme == "https") && !internal {
				setAttr(a, "target", "_blank")
				setAttr(a, "rel", mergeRel(attrValue(a, "rel")))
			}
		}

		return nil
	}
}

func mergeRel(existing string) string {
	parts := strings.Fields(existing)
	seen := make(map[string]bool, len(parts)+2)
	for _, p := range parts {
		seen[p] = true
	}
	for _, required := range []string{"noopener", "noreferrer"} {
		if !seen[required] {
			parts = append(parts, required)
		}
	}
	return strings.Join(parts, " ")
}

// wrapsOnlyImage reports whether the anchor's child content is an image:
// at least one img element and no non-whitespace text.
func wrapsOnlyImage(a *html.Node) bool {
	hasImage := false
	for c := a.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.ElementNode:
			if c.Data != "img" {
				return false
			}
			hasImage = true
		case html.TextNode:
			if strings.TrimSpace(c.Data) != "" {
				return false
			}
		}
	}
	return hasImage
}

var vimeoPathRegex = regexp.MustCompile(`^/(\d+)$`)
var videoIDRegex = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// videoEmbedURL maps a recognized video-platform URL to its player URL, or
// returns "" when the link is not embeddable.
func videoEmbedURL(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	switch host {
	case "youtube.com", "m.youtube.com", "youtube-nocookie.com":
		var id string
		switch {
		case u.Path == "/watch":
			id = u.Query().Get("v")
		case strings.HasPrefix(u.Path, "/shorts/"):
			id = strings.TrimPrefix(u.Path, "/shorts/")
		case strings.HasPrefix(u.Path, "/embed/"):
			id = strings.TrimPrefix(u.Path, "/embed/")
		}
		id = strings.Trim(id, "/")
		if videoIDRegex.MatchString(id) {
			return "https://www.youtube.com/embed/" + id
		}
	case "youtu.be":
		id := strings.Trim(u.Path, "/")
		if videoIDRegex.MatchString(id) {
			return "https://www.youtube.com/embed/" + id
		}
	case "vimeo.com", "player.vimeo.com":
		if m := vimeoPathRegex.FindStringSubmatch(strings.TrimSuffix(u.Path, "/")); m != nil {
			return "https://player.vimeo.com/video/" + m[1]
		}
		if strings.HasPrefix(u.Path, "/video/") {
			id := strings.Trim(strings.TrimPrefix(u.Path, "/video/"), "/")
			if videoIDRegex.MatchString(id) {
				return "https://player.vimeo.com/video/" + id
			}
		}
	}

	return ""
}

func replaceWithVideoEmbed(a *html.Node, embedURL string) {
	iframe := &html.Node{Type: html.ElementNode, Data: "iframe", DataAtom: atom.Iframe}
	setAttr(iframe, "src", embedURL)
	setAttr(iframe, "title", "Embedded video")
	setAttr(iframe, "allow", "accelerometer; autoplay; clipboard-write; encrypted-media; gyroscope; picture-in-picture")
	setAttr(iframe, "allowfullscreen", "")
	setAttr(iframe, "loading", "lazy")
	setAttr(iframe, "frameborder", "0")

	wrapper := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	setAttr(wrapper, "class", "video-embed")
	wrapper.AppendChild(iframe)

	a.Parent.InsertBefore(wrapper, a)
	a.Parent.RemoveChild(a)
}

/* -------------------------------
   Stage: code block enrichment
-------------------------------- */

var diagramServices = map[string]string{
	"mermaid":  "mermaid",
	"plantuml": "plantuml",
	"puml":     "plantuml",
}

// enrichCodeBlocks post-processes fenced code blocks by language tag:
// diagram languages become images served by a public rendering service (the
// fence text is kept as a hidden fallback block), markdown fences un-escape
// nested fence markers, and everything else gets per-token highlighting
// classes.
func enrichCodeBlocks(root *html.Node) []string {
	type block struct {
		pre  *html.Node
		code *html.Node
		lang string
	}

	var blocks []block
	walk(root, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.Data != "pre" {
			return true
		}
		code := firstElementChild(n)
		if code == nil || code.Data != "code" {
			return false
		}
		lang := codeLanguage(code)
		if lang != "" {
			blocks = append(blocks, block{pre: n, code: code, lang: lang})
		}
		return false
	})

	var warnings []string
	for _, b := range blocks {
		if service, ok := diagramServices[b.lang]; ok {
			if err := replaceWithDiagram(b.pre, b.code, b.lang, service); err != nil {
				warnings = append(warnings, fmt.Sprintf("diagram %s left as code block: %v", b.lang, err))
			}
			continue
		}

		if b.lang == "markdown" || b.lang == "md" {
			unescapeNestedFences(b.code)
		}

		highlightCode(b.code, b.lang)
	}

	return warnings
}

func codeLanguage(code *html.Node) string {
	for _, class := range strings.Fields(attrValue(code, "class")) {
		if lang, ok := strings.CutPrefix(class, "language-"); ok {
			return strings.ToLower(lang)
		}
	}
	return ""
}

// diagramURL builds a deterministic kroki.io image URL from the fence text:
// zlib-deflate then URL-safe base64, same text always produces the same URL.
func diagramURL(service string, source string) (string, error) {
	var compressed bytes.Buffer
	w, err := zlib.NewWriterLevel(&compressed, zlib.BestCompression)
	if err != nil {
		return "", err
	}
	if _, err := w.Write([]byte(source)); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	payload := base64.URLEncoding.EncodeToString(compressed.Bytes())
	return "https://kroki.io/" + service + "/svg/" + payload, nil
}

func replaceWithDiagram(pre *html.Node, code *html.Node, lang string, service string) error {
	source := textContent(code)

	src, err := diagramURL(service, source)
	if err != nil {
		return err
	}

	img := &html.Node{Type: html.ElementNode, Data: "img", DataAtom: atom.Img}
	setAttr(img, "src", src)
	setAttr(img, "alt", lang+" diagram")
	setAttr(img, "loading", "lazy")
	setAttr(img, "class", "diagram-image")

	fallbackCode := &html.Node{Type: html.ElementNode, Data: "code", DataAtom: atom.Code}
	fallbackCode.AppendChild(&html.Node{Type: html.TextNode, Data: source})
	fallback := &html.Node{Type: html.ElementNode, Data: "pre", DataAtom: atom.Pre}
	setAttr(fallback, "class", "diagram-fallback")
	setAttr(fallback, "hidden", "")
	fallback.AppendChild(fallbackCode)

	figure := &html.Node{Type: html.ElementNode, Data: "figure", DataAtom: atom.Figure}
	setAttr(figure, "class", "diagram diagram-"+lang)
	figure.AppendChild(img)
	figure.AppendChild(fallback)

	pre.Parent.InsertBefore(figure, pre)
	pre.Parent.RemoveChild(pre)
	return nil
}

// unescapeNestedFences restores escaped triple-backtick sequences inside
// markdown-tagged fences so nested fenced examples display correctly.
func unescapeNestedFences(code *html.Node) {
	walk(code, func(n *html.Node) bool {
		if n.Type == html.TextNode {
			n.Data = strings.ReplaceAll(n.Data, "\\```", "```")
		}
		return true
	})
}

// highlightCode replaces the code block's text with chroma token spans.
// Unknown languages are left untouched.
func highlightCode(code *html.Node, lang string) {
	lexer := lexers.Get(lang)
	if lexer == nil {
		return
	}

	iterator, err := lexer.Tokenise(nil, textContent(code))
	if err != nil {
		return
	}

	formatter := chromahtml.New(
		chromahtml.WithClasses(true),
		chromahtml.PreventSurroundingPre(true),
	)

	var buf bytes.Buffer
	if err := formatter.Format(&buf, styles.Fallback, iterator); err != nil {
		return
	}

	highlighted, err := parseFragment(buf.String())
	if err != nil {
		return
	}

	for code.FirstChild != nil {
		code.RemoveChild(code.FirstChild)
	}
	for highlighted.FirstChild != nil {
		child := highlighted.FirstChild
		highlighted.RemoveChild(child)
		code.AppendChild(child)
	}
	addClass(code, "chroma")
}

/* -------------------------------
   Stage: structural styling
-------------------------------- */

// applyStructuralClasses adds presentation-only classes: tables get a
// responsive wrapper, blockquotes a callout treatment, definition lists a
// grid layout. No semantic changes.
func applyStructuralClasses(root *html.Node) []string {
	var tables []*html.Node
	walk(root, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		switch n.Data {
		case "table":
			tables = append(tables, n)
		case "blockquote":
			addClass(n, "callout")
		case "dl":
			addClass(n, "deflist-grid")
		}
		return true
	})

	for _, table := range tables {
		if table.Parent != nil && table.Parent.Data == "div" && strings.Contains(attrValue(table.Parent, "class"), "table-wrapper") {
			continue
		}
		addClass(table, "md-table")

		wrapper := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
		setAttr(wrapper, "class", "table-wrapper")
		table.Parent.InsertBefore(wrapper, table)
		table.Parent.RemoveChild(table)
		wrapper.AppendChild(table)
	}

	return nil
}

/* -------------------------------
   HTML node helpers
-------------------------------- */

// walk visits nodes depth-first; fn returning false skips the subtree.
func walk(n *html.Node, fn func(*html.Node) bool) {
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling // fn may detach c
		walk(c, fn)
		c = next
	}
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		return true
	})
	return sb.String()
}

func firstElementChild(n *html.Node) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return c
		}
	}
	return nil
}

func attrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func addClass(n *html.Node, class string) {
	existing := attrValue(n, "class")
	for _, c := range strings.Fields(existing) {
		if c == class {
			return
		}
	}
	if existing == "" {
		setAttr(n, "class", class)
		return
	}
	setAttr(n, "class", existing+" "+class)
}
