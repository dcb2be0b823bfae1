package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"seungpyo.lee/BlogPlatform/internal/metrics"
	"seungpyo.lee/BlogPlatform/pkg/jwt"
	"seungpyo.lee/BlogPlatform/pkg/logger"
	"seungpyo.lee/BlogPlatform/pkg/middleware"
)

type RouterOptions struct {
	Tokens jwt.TokenManager
	Log    *logger.Logger
	// Metrics and Gatherer are optional; /metrics is only mounted with a Gatherer.
	Metrics  *metrics.Collector
	Gatherer prometheus.Gatherer
	// Health reports whether the backing store is reachable.
	Health func(ctx context.Context) error
}

// NewRouter wires the post routes and the ambient endpoints.
func NewRouter(h *PostHandler, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.RequestLogger(opts.Log))
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		opts.Log.Error("panic recovered", "panic", recovered, "route", c.FullPath())
		respondMessage(c, http.StatusInternalServerError, serverErrorMessage)
	}))
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware())
	}

	r.GET("/health", func(c *gin.Context) {
		if opts.Health != nil {
			if err := opts.Health(c.Request.Context()); err != nil {
				opts.Log.Error("health check failed", "error", err)
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if opts.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler(opts.Gatherer)))
	}

	optional := middleware.OptionalAuthMiddleware(opts.Tokens)
	protected := middleware.AuthMiddleware(opts.Tokens)

	posts := r.Group("/posts")
	posts.GET("", optional, h.GetPosts)
	posts.POST("", protected, h.CreatePost)
	posts.GET("/:id", optional, h.GetPost)
	posts.PUT("/:id", protected, h.UpdatePost)
	posts.DELETE("/:id", protected, h.DeletePost)
	posts.GET("/:id/comments", optional, h.GetComments)
	posts.POST("/:id/comments", protected, h.AddComment)

	r.GET("/tags", h.GetTags)
	return r
}
