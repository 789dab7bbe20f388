package application

import "github.com/microcosm-cc/bluemonday"

// newSanitizerPolicy builds the allow-list every rendered page is filtered
// through. The baseline is bluemonday's UGC policy; everything added below
// exists because a pipeline stage or authoring convention emits it:
//
//   - iframe: video embeds (link rewriting stage)
//   - audio/video/source: media inserted by the upload flow as raw HTML
//   - details/summary, mark/kbd/sub/sup/ins/abbr: authoring conventions
//   - figure/figcaption: diagram images
//   - svg + mathml families: math and diagram output
//   - class/id/data-* globally: every stage attaches presentational classes
//
// Any stage that starts emitting a new tag or attribute must be reflected
// here, or its output is silently stripped.
func newSanitizerPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()

	p.AllowAttrs("class", "id").Globally()
	p.AllowDataAttributes()

	p.AllowElements("iframe")
	p.AllowAttrs("src", "width", "height", "title", "allow", "allowfullscreen", "frameborder", "sandbox", "loading").OnElements("iframe")

	p.AllowElements("audio", "video", "source")
	p.AllowAttrs("controls", "preload", "src", "loop", "muted").OnElements("audio", "video")
	p.AllowAttrs("width", "height", "poster", "playsinline").OnElements("video")
	p.AllowAttrs("src", "type").OnElements("source")

	p.AllowElements("details", "summary", "figure", "figcaption", "mark", "kbd", "sub", "sup", "ins", "abbr", "section")
	p.AllowAttrs("open").OnElements("details")
	p.AllowAttrs("title").OnElements("abbr")

	p.AllowTables()
	p.AllowAttrs("loading").OnElements("img")

	svgElements := []string{
		"svg", "g", "path", "circle", "ellipse", "rect", "line", "polyline",
		"polygon", "text", "tspan", "defs", "use", "marker", "title", "desc",
	}
	p.AllowElements(svgElements...)
	p.AllowAttrs(
		"viewBox", "xmlns", "width", "height", "fill", "stroke", "stroke-width",
		"d", "cx", "cy", "r", "rx", "ry", "x", "y", "x1", "y1", "x2", "y2",
		"points", "transform", "font-size", "text-anchor", "href",
	).OnElements(svgElements...)

	mathElements := []string{
		"math", "semantics", "annotation", "mrow", "mi", "mo", "mn", "mtext",
		"mspace", "msup", "msub", "msubsup", "mfrac", "msqrt", "mroot",
		"mover", "munder", "munderover", "mtable", "mtr", "mtd",
	}
	p.AllowElements(mathElements...)
	p.AllowAttrs("xmlns", "display", "encoding", "mathvariant").OnElements(mathElements...)

	// rel management belongs to the link rewriting stage, which runs after
	// sanitization and distinguishes external from internal links.
	p.RequireNoFollowOnLinks(false)
	p.AllowAttrs("target", "rel").OnElements("a")

	return p
}
