package rest

import (
	"io"
	"net/http"

	"github.com/dfryer1193/inkpress/api"
	"github.com/dfryer1193/inkpress/blog/domain"
	"github.com/gin-gonic/gin"
)

type MediaHandler struct {
	media domain.MediaRepository
}

func NewMediaHandler(media domain.MediaRepository) *MediaHandler {
	return &MediaHandler{media: media}
}

func (h *MediaHandler) UploadMedia(c *gin.Context) {
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

	stored, err := h.media.Save(c.Request.Context(), file.Filename, data)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, api.Media{Name: stored.Name, URL: stored.URL})
}
