package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/contentguard/backend/internal/analytics"
	"github.com/gin-gonic/gin"
)

const maxRecentLimit = 100

type AnalyticsHandler struct {
	service *analytics.Service
}

func NewAnalyticsHandler(service *analytics.Service) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

// Summary returns the dashboard headline numbers
func (h *AnalyticsHandler) Summary(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context())
	if err != nil {
		moderationError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// Distribution returns status counts and the confidence histogram
func (h *AnalyticsHandler) Distribution(c *gin.Context) {
	bins := 10
	if v := c.Query("bins"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			ErrorResponse(c, http.StatusBadRequest, "bins must be between 1 and 100")
			return
		}
		bins = n
	}

	dist, err := h.service.Distribution(c.Request.Context(), bins)
	if err != nil {
		moderationError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, dist)
}

// Timeline returns request counts per bucket
func (h *AnalyticsHandler) Timeline(c *gin.Context) {
	width, err := time.ParseDuration(c.DefaultQuery("bucket", "1h"))
	if err != nil || width < time.Minute {
		ErrorResponse(c, http.StatusBadRequest, "bucket must be a duration of at least 1m")
		return
	}

	buckets, err := h.service.Timeline(c.Request.Context(), width)
	if err != nil {
		moderationError(c, err, nil)
		return
	}
	if buckets == nil {
		buckets = []analytics.Bucket{}
	}

	c.JSON(http.StatusOK, gin.H{"bucket": width.String(), "buckets": buckets})
}

// Recent returns the latest decisions, newest first
func (h *AnalyticsHandler) Recent(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 {
		ErrorResponse(c, http.StatusBadRequest, "limit must be a positive integer")
		return
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	decisions, err := h.service.Recent(c.Request.Context(), limit)
	if err != nil {
		moderationError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{"recent": decisions})
}
