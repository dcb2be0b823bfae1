// Package metrics exposes Prometheus counters for the post service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the service layer reports to.
type Recorder interface {
	RecordViewIncrement(ok bool)
	RecordCommentAppended()
	RecordPostMutation(op string)
}

// Noop discards everything.
type Noop struct{}

func (Noop) RecordViewIncrement(bool)  {}
func (Noop) RecordCommentAppended()    {}
func (Noop) RecordPostMutation(string) {}

type Collector struct {
	viewIncrements   *prometheus.CounterVec
	commentsAppended prometheus.Counter
	postMutations    *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpLatency      *prometheus.HistogramVec
}

// NewCollector registers the service metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		viewIncrements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blog_post_view_increments_total",
			Help: "View counter increments by outcome.",
		}, []string{"result"}),
		commentsAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blog_comments_appended_total",
			Help: "Comments appended to posts.",
		}),
		postMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blog_post_mutations_total",
			Help: "Post creates, updates and deletes.",
		}, []string{"op"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blog_http_requests_total",
			Help: "HTTP responses by route and status code.",
		}, []string{"method", "route", "status_code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "blog_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		c.viewIncrements,
		c.commentsAppended,
		c.postMutations,
		c.httpRequests,
		c.httpLatency,
	)
	return c
}

func (c *Collector) RecordViewIncrement(ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	c.viewIncrements.WithLabelValues(result).Inc()
}

func (c *Collector) RecordCommentAppended() {
	c.commentsAppended.Inc()
}

func (c *Collector) RecordPostMutation(op string) {
	c.postMutations.WithLabelValues(op).Inc()
}

// Middleware records the status and latency of every routed request.
func (c *Collector) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := ctx.Request.Method
		c.httpRequests.WithLabelValues(method, route, strconv.Itoa(ctx.Writer.Status())).Inc()
		c.httpLatency.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler returns the HTTP handler for Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
