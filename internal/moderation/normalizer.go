package moderation

import (
	"fmt"
	"math"

	"github.com/contentguard/backend/internal/models"
)

// HarmfulThreshold is the fixed decision boundary. A score equal to it is safe.
const HarmfulThreshold = 0.5

// Normalize maps a raw harmful score to a decision without id or timestamp
func Normalize(ct models.ContentType, raw float64) (models.ModerationDecision, error) {
	if _, err := models.ParseContentType(string(ct)); err != nil {
		return models.ModerationDecision{}, ValidationError("normalize", CodeUnsupportedContentType, err)
	}
	if math.IsNaN(raw) || raw < 0 || raw > 1 {
		return models.ModerationDecision{}, InferenceError("normalize", CodeMalformedScore, fmt.Errorf("score %v outside [0,1]", raw))
	}

	status := ct.SafeStatus()
	if raw > HarmfulThreshold {
		status = ct.HarmfulStatus()
	}

	return models.ModerationDecision{
		ContentType: ct,
		Status:      status,
		Confidence:  raw,
	}, nil
}
