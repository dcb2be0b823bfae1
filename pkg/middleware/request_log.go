package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"seungpyo.lee/BlogPlatform/pkg/logger"
	"seungpyo.lee/BlogPlatform/pkg/util"
)

const requestIDHeader = "X-Request-Id"

// RequestID tags every request with an id, reusing the caller's header when
// one was sent.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		util.SetRequestID(c, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// RequestLogger emits one structured line per request. The level follows the
// response status.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		args := []any{
			slog.String("method", c.Request.Method),
			slog.String("route", route),
			slog.Int("status", status),
			slog.Float64("duration_ms", float64(time.Since(start).Nanoseconds())/float64(time.Millisecond)),
		}
		if id := util.GetRequestID(c); id != "" {
			args = append(args, slog.String("request_id", id))
		}
		if uid, ok := util.GetUserID(c); ok {
			args = append(args, slog.Any("user_id", uid))
		}

		level := slog.LevelInfo
		if status >= 500 {
			level = slog.LevelError
		} else if status >= 400 {
			level = slog.LevelWarn
		}
		log.Log(c.Request.Context(), level, "http_request", args...)
	}
}
