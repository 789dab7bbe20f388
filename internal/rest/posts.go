package rest

import (
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/dfryer1193/inkpress/api"
	"github.com/dfryer1193/inkpress/blog/application"
	"github.com/dfryer1193/inkpress/blog/domain"
	"github.com/gin-gonic/gin"
)

const maxUploadBytes = 8 << 20

type PostsHandler struct {
	posts *application.PostService
}

func NewPostsHandler(posts *application.PostService) *PostsHandler {
	return &PostsHandler{posts: posts}
}

func (h *PostsHandler) GetPosts(c *gin.Context) {
	metas, err := h.posts.List(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}

	summaries := make([]api.PostSummary, 0, len(metas))
	for _, m := range metas {
		summaries = append(summaries, toSummary(m))
	}
	c.JSON(http.StatusOK, summaries)
}

func (h *PostsHandler) GetPost(c *gin.Context) {
	slug := c.Param("slug")

	detail, err := h.posts.Get(c.Request.Context(), slug)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.Post{
		PostSummary: toSummary(detail.PostMeta),
		HTML:        detail.HTML,
		Warnings:    detail.Warnings,
		Outline:     toHeadings(detail.Outline),
	})
}

func (h *PostsHandler) GetRawPost(c *gin.Context) {
	slug := c.Param("slug")

	raw, err := h.posts.GetRaw(c.Request.Context(), slug)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.Data(http.StatusOK, "text/markdown; charset=utf-8", raw)
}

// CreatePost accepts either structured JSON describing a new post, or a
// complete markdown file sent as text/markdown or a multipart upload.
func (h *PostsHandler) CreatePost(c *gin.Context) {
	mediaType, _, err := mime.ParseMediaType(c.GetHeader("Content-Type"))
	if err != nil {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "missing or malformed Content-Type"})
		return
	}

	switch mediaType {
	case "application/json":
		h.createFromJSON(c)
	case "text/markdown", "text/plain":
		h.createFromBody(c)
	case "multipart/form-data":
		h.createFromMultipart(c)
	default:
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "unsupported Content-Type: " + mediaType})
	}
}

func (h *PostsHandler) createFromJSON(c *gin.Context) {
	var proto api.PostProto
	if err := c.ShouldBindJSON(&proto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}

	fm := domain.Frontmatter{
		Title:      proto.Frontmatter.Title,
		Date:       proto.Frontmatter.Date,
		Author:     proto.Frontmatter.Author,
		Tags:       proto.Frontmatter.Tags,
		Summary:    proto.Frontmatter.Summary,
		Canonical:  proto.Frontmatter.Canonical,
		Image:      proto.Frontmatter.Image,
		Category:   proto.Frontmatter.Category,
		Featured:   proto.Frontmatter.Featured,
		AIReadable: true,
	}
	if proto.Frontmatter.AIReadable != nil {
		fm.AIReadable = *proto.Frontmatter.AIReadable
	}

	slug, err := h.posts.Create(c.Request.Context(), fm, proto.BodyMarkdown, proto.Slug)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, api.CreatedResponse{Slug: slug})
}

func (h *PostsHandler) createFromBody(c *gin.Context) {
	fileName := c.Query("filename")
	if fileName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "filename query parameter is required"})
		return
	}

	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxUploadBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read request body"})
		return
	}

	slug, err := h.posts.CreateFromUpload(c.Request.Context(), fileName, data)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, api.CreatedResponse{Slug: slug})
}

func (h *PostsHandler) createFromMultipart(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart form must include a 'file' part"})
		return
	}

	src, err := file.Open()
	if err != nil {
		abortWithError(c, err)
		return
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, maxUploadBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read uploaded file"})
		return
	}

	slug, err := h.posts.CreateFromUpload(c.Request.Context(), file.Filename, data)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, api.CreatedResponse{Slug: slug})
}

func (h *PostsHandler) SearchPosts(c *gin.Context) {
	query := application.SearchQuery{
		Query:  c.Query("q"),
		Tag:    c.Query("tag"),
		Author: c.Query("author"),
		Page:   intQuery(c, "page"),
		Limit:  intQuery(c, "limit"),
	}

	result, err := h.posts.Search(c.Request.Context(), query)
	if err != nil {
		abortWithError(c, err)
		return
	}

	resp := api.SearchResponse{
		Posts: make([]api.PostSummary, 0, len(result.Posts)),
		Total: result.Total,
		Page:  result.Page,
		Limit: result.Limit,
	}
	for _, m := range result.Posts {
		resp.Posts = append(resp.Posts, toSummary(m))
	}
	c.JSON(http.StatusOK, resp)
}

func intQuery(c *gin.Context, name string) int {
	n, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return n
}

func toSummary(m application.PostMeta) api.PostSummary {
	return api.PostSummary{
		Slug:        m.Slug,
		Title:       m.Frontmatter.Title,
		Date:        m.Frontmatter.Date,
		Author:      m.Frontmatter.Author,
		Tags:        m.Frontmatter.Tags,
		Summary:     m.Frontmatter.Summary,
		Image:       m.Frontmatter.Image,
		Category:    m.Frontmatter.Category,
		Featured:    m.Frontmatter.Featured,
		Excerpt:     m.Excerpt,
		WordCount:   m.WordCount,
		ReadingTime: m.ReadingTime,
	}
}

func toHeadings(headings []domain.Heading) []api.Heading {
	if len(headings) == 0 {
		return nil
	}
	out := make([]api.Heading, 0, len(headings))
	for _, h := range headings {
		out = append(out, api.Heading{
			ID:       h.ID,
			Title:    h.Title,
			Level:    h.Level,
			Children: toHeadings(h.Children),
		})
	}
	return out
}
