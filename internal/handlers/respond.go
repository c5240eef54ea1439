package handlers

import (
	"net/http"

	"github.com/contentguard/backend/internal/models"
	"github.com/contentguard/backend/internal/moderation"
	"github.com/gin-gonic/gin"
)

// ErrorResponse sends a standardized error response and logs at caller if needed
func ErrorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// StatusFor maps a moderation error to its HTTP status
func StatusFor(err error) int {
	switch moderation.KindOf(err) {
	case moderation.KindValidation:
		if moderation.CodeOf(err) == moderation.CodePayloadTooLarge {
			return http.StatusRequestEntityTooLarge
		}
		return http.StatusBadRequest
	case moderation.KindModelInference:
		return http.StatusBadGateway
	case moderation.KindStorageUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// moderationError writes err as {"error","kind","code"}. A decision that was
// computed but not logged is included so the caller still sees the verdict.
func moderationError(c *gin.Context, err error, unlogged *models.ModerationDecision) {
	body := gin.H{
		"error": err.Error(),
		"kind":  moderation.KindOf(err).String(),
		"code":  moderation.CodeOf(err),
	}
	if unlogged != nil {
		body["decision"] = unlogged
		body["logged"] = false
	}
	_ = c.Error(err)
	c.JSON(StatusFor(err), body)
}
