package rest

import (
	"net/http"

	"github.com/dfryer1193/inkpress/blog/application"
	"github.com/gin-gonic/gin"
)

type FeedsHandler struct {
	feeds *application.FeedService
}

func NewFeedsHandler(feeds *application.FeedService) *FeedsHandler {
	return &FeedsHandler{feeds: feeds}
}

func (h *FeedsHandler) GetRSS(c *gin.Context) {
	out, err := h.feeds.RSS(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", []byte(out))
}

func (h *FeedsHandler) GetSitemap(c *gin.Context) {
	out, err := h.feeds.Sitemap(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/xml; charset=utf-8", out)
}
