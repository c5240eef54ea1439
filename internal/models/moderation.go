package models

import (
	"fmt"
	"time"
)

// ContentType is the kind of submission a decision was made for
type ContentType string

const (
	ContentTypeText  ContentType = "text"
	ContentTypeImage ContentType = "image"
)

// Status vocabulary. Each content type has exactly one safe and one harmful status.
const (
	StatusSafeText  = "Safe Text"
	StatusToxicText = "Toxic Text"
	StatusSafeImage = "Safe Image"
	StatusNSFWImage = "NSFW Image"
)

// ParseContentType validates a raw content type value
func ParseContentType(s string) (ContentType, error) {
	switch ContentType(s) {
	case ContentTypeText, ContentTypeImage:
		return ContentType(s), nil
	}
	return "", fmt.Errorf("unsupported content type %q", s)
}

// SafeStatus returns the safe label for the content type
func (ct ContentType) SafeStatus() string {
	switch ct {
	case ContentTypeText:
		return StatusSafeText
	case ContentTypeImage:
		return StatusSafeImage
	}
	return ""
}

// HarmfulStatus returns the harmful label for the content type
func (ct ContentType) HarmfulStatus() string {
	switch ct {
	case ContentTypeText:
		return StatusToxicText
	case ContentTypeImage:
		return StatusNSFWImage
	}
	return ""
}

// ModerationDecision is the canonical, persisted output of one moderation request
type ModerationDecision struct {
	ID          int64       `json:"id" db:"id"`
	ContentType ContentType `json:"content_type" db:"content_type"`
	Status      string      `json:"status" db:"status"`
	Confidence  float64     `json:"confidence" db:"confidence"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
}

// IsHarmful reports whether the decision flagged the content
func (d ModerationDecision) IsHarmful() bool {
	return d.Status == StatusToxicText || d.Status == StatusNSFWImage
}

// ModerateTextRequest is the body of a text moderation call
type ModerateTextRequest struct {
	Text string `json:"text" binding:"required"`
}

// ModerateResponse wraps a decision with whether it reached the log store
type ModerateResponse struct {
	Decision ModerationDecision `json:"decision"`
	Logged   bool               `json:"logged"`
}

// LogCountResponse is returned by the count endpoint
type LogCountResponse struct {
	Count int64 `json:"count"`
}
