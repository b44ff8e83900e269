package remote

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"rifflynx/debug"
)

// RequestTracking tags every request with an id and logs its outcome
func RequestTracking() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.New().String()
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := debug.Fields{
			"request_id":  requestID,
			"duration_ms": time.Since(start).Milliseconds(),
			"status_code": status,
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
		}
		if status >= http.StatusBadRequest {
			debug.Warn("remote", "request failed", fields)
			return
		}
		debug.Log("remote", "%s %s %d", c.Request.Method, c.Request.URL.Path, status)
	}
}

// Recover turns a handler panic into a 500 and a reported error
func Recover() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				debug.Error("remote", fmt.Errorf("panic: %v", r), debug.Fields{
					"request_id": c.GetString("request_id"),
					"path":       c.Request.URL.Path,
				})
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":      "internal server error",
					"request_id": c.GetString("request_id"),
				})
			}
		}()
		c.Next()
	}
}
