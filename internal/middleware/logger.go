package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
)

// LoggerMiddleware writes one line per request, including the caller's
// IP so request logs line up with the audit log rows.
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if query := c.Request.URL.RawQuery; query != "" {
			path = path + "?" + query
		}

		c.Next()

		log.Printf("%s %s %d %v %s", c.Request.Method, path, c.Writer.Status(), time.Since(start), c.ClientIP())
	}
}
