package rest

import (
	"errors"
	"net/http"

	"github.com/dfryer1193/inkpress/blog/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// abortWithError translates domain errors into HTTP statuses. Anything
// unrecognized is a 500 and gets logged; client-caused failures do not.
func abortWithError(c *gin.Context, err error) {
	var validationErr *domain.ValidationError
	var formatErr *domain.UnsupportedFormatError

	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "post not found"})
	case errors.As(err, &validationErr):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
	case errors.As(err, &formatErr):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": formatErr.Error()})
	default:
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
