package cors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Options carries the configured header values, applied verbatim on
// every response
type Options struct {
	Origin  string
	Methods string
	Headers string
}

// Middleware sets the CORS headers and answers OPTIONS preflight
// requests directly, without reaching the data routes
func Middleware(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", opts.Origin)
		h.Set("Access-Control-Allow-Methods", opts.Methods)
		h.Set("Access-Control-Allow-Headers", opts.Headers)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
