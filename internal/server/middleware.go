package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	logx "github.com/mcp-tool-select-poc/server/pkg/logger"
)

const requestIDHeader = "X-Request-ID"

// requestID tags every request with an identifier, honoring one supplied by
// the caller so multi-hop traces line up.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// requestLogger emits one structured line per request.
func requestLogger() gin.HandlerFunc {
	log := logx.With("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info().
			Str("request_id", c.GetString("request_id")).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request handled")
	}
}
