// Package metrics exposes Prometheus collectors for the moderation pipeline.
package metrics

import (
	"strconv"
	"time"

	"github.com/contentguard/backend/internal/models"
	"github.com/contentguard/backend/internal/moderation"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector implements moderation.Recorder and records HTTP traffic
type Collector struct {
	decisionsTotal    *prometheus.CounterVec
	failuresTotal     *prometheus.CounterVec
	inferenceDuration *prometheus.HistogramVec
	confidence        *prometheus.HistogramVec
	httpRequestsTotal *prometheus.CounterVec
}

// NewCollector registers the collectors with reg
func NewCollector(namespace string, reg prometheus.Registerer) *Collector {
	c := &Collector{
		decisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "decisions_total",
				Help:      "Logged moderation decisions",
			},
			[]string{"content_type", "status"},
		),
		failuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "failures_total",
				Help:      "Moderation requests that failed, by error kind",
			},
			[]string{"content_type", "kind"},
		),
		inferenceDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "inference_duration_seconds",
				Help:      "Classifier latency",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
			[]string{"content_type"},
		),
		confidence: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "decision_confidence",
				Help:      "Confidence of logged decisions",
				Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
			},
			[]string{"content_type"},
		),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
	}

	reg.MustRegister(c.decisionsTotal, c.failuresTotal, c.inferenceDuration, c.confidence, c.httpRequestsTotal)
	return c
}

func (c *Collector) ObserveInference(ct models.ContentType, elapsed time.Duration) {
	c.inferenceDuration.WithLabelValues(string(ct)).Observe(elapsed.Seconds())
}

func (c *Collector) DecisionLogged(d models.ModerationDecision) {
	c.decisionsTotal.WithLabelValues(string(d.ContentType), d.Status).Inc()
	c.confidence.WithLabelValues(string(d.ContentType)).Observe(d.Confidence)
}

func (c *Collector) Failure(ct models.ContentType, kind moderation.Kind) {
	c.failuresTotal.WithLabelValues(string(ct), kind.String()).Inc()
}

// Middleware counts requests by route template
func (c *Collector) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Next()
		path := ctx.FullPath()
		if path == "" {
			path = "unmatched"
		}
		c.httpRequestsTotal.WithLabelValues(ctx.Request.Method, path, strconv.Itoa(ctx.Writer.Status())).Inc()
	}
}
