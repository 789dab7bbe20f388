package api

// PostSummary is the listing view of a post.
type PostSummary struct {
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	Date        string   `json:"date"`
	Author      string   `json:"author,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Summary     string   `json:"summary,omitempty"`
	Image       string   `json:"image,omitempty"`
	Category    string   `json:"category,omitempty"`
	Featured    bool     `json:"featured,omitempty"`
	Excerpt     string   `json:"excerpt"`
	WordCount   int      `json:"word_count"`
	ReadingTime int      `json:"reading_time"`
}

// Post is the full view of a single post, body rendered to HTML.
type Post struct {
	PostSummary
	HTML     string    `json:"html"`
	Warnings []string  `json:"warnings,omitempty"`
	Outline  []Heading `json:"outline,omitempty"`
}

type Heading struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Level    int       `json:"level"`
	Children []Heading `json:"children,omitempty"`
}

// PostProto is the JSON create body: the frontmatter travels as a nested
// object so it maps onto the file's metadata block field for field.
type PostProto struct {
	Frontmatter  FrontmatterProto `json:"frontmatter"`
	BodyMarkdown string           `json:"body_markdown"`
	Slug         string           `json:"slug,omitempty"`
}

// FrontmatterProto mirrors the file metadata block. AIReadable is a pointer
// so an absent field can default to true instead of false.
type FrontmatterProto struct {
	Title      string   `json:"title"`
	Date       string   `json:"date"`
	Author     string   `json:"author,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Summary    string   `json:"summary,omitempty"`
	Canonical  string   `json:"canonical,omitempty"`
	Image      string   `json:"image,omitempty"`
	Category   string   `json:"category,omitempty"`
	Featured   bool     `json:"featured,omitempty"`
	AIReadable *bool    `json:"ai_readable,omitempty"`
}

type CreatedResponse struct {
	Slug string `json:"slug"`
}

type SearchResponse struct {
	Posts []PostSummary `json:"posts"`
	Total int           `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

type Media struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}
