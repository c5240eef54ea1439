package handlers

import (
	"context"
	"net/http"

	"github.com/contentguard/backend/internal/models"
	"github.com/gin-gonic/gin"
)

// LogBook is the operator view of the moderation log
type LogBook interface {
	Logs(ctx context.Context) ([]models.ModerationDecision, error)
	Count(ctx context.Context) (int64, error)
	Clear(ctx context.Context) error
}

type LogHandler struct {
	logs LogBook
}

func NewLogHandler(logs LogBook) *LogHandler {
	return &LogHandler{logs: logs}
}

// List returns every decision in insertion order
func (h *LogHandler) List(c *gin.Context) {
	logs, err := h.logs.Logs(c.Request.Context())
	if err != nil {
		moderationError(c, err, nil)
		return
	}
	if logs == nil {
		logs = []models.ModerationDecision{}
	}

	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

// Count returns the number of logged decisions
func (h *LogHandler) Count(c *gin.Context) {
	n, err := h.logs.Count(c.Request.Context())
	if err != nil {
		moderationError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, models.LogCountResponse{Count: n})
}

// Clear deletes every decision
func (h *LogHandler) Clear(c *gin.Context) {
	if err := h.logs.Clear(c.Request.Context()); err != nil {
		moderationError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Moderation log cleared"})
}
