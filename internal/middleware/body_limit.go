package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/atfitk/websystem-api/pkg/errors"
	"github.com/atfitk/websystem-api/pkg/response"
)

// multipartOverhead covers boundaries and part headers around the file itself.
const multipartOverhead = 64 * 1024

// BodyLimit rejects requests whose body exceeds limit plus multipart overhead.
// Declared lengths are refused up front; chunked bodies fail on read.
func BodyLimit(limit int64) gin.HandlerFunc {
	maxBytes := limit + multipartOverhead
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			response.Abort(c, appErrors.ErrPayloadTooLarge)
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// IsBodyTooLarge reports whether err came from an exceeded BodyLimit.
func IsBodyTooLarge(err error) bool {
	if err == nil {
		return false
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return true
	}
	return strings.Contains(err.Error(), "request body too large")
}
