package classifier

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/contentguard/backend/internal/models"
	"github.com/contentguard/backend/internal/moderation"
)

// ToxicToken marks labels that count toward the aggregate toxic score
const ToxicToken = "toxic"

// TextClassifier adapts a multi-label toxicity model
type TextClassifier struct {
	model TextModel
}

func NewTextClassifier(model TextModel) *TextClassifier {
	return &TextClassifier{model: model}
}

func (c *TextClassifier) ContentType() models.ContentType {
	return models.ContentTypeText
}

// Classify sums the scores of every toxic label and clamps the sum to 1.0
func (c *TextClassifier) Classify(ctx context.Context, payload []byte) (*moderation.RawResult, error) {
	text := string(payload)
	if strings.TrimSpace(text) == "" {
		return nil, moderation.ValidationError("classify_text", moderation.CodeEmptyText, nil)
	}

	preds, err := c.model.ClassifyText(ctx, text)
	if err != nil {
		return nil, moderation.InferenceError("classify_text", moderation.CodeInferenceFailed, err)
	}
	scores, err := scoreSet(preds)
	if err != nil {
		return nil, moderation.InferenceError("classify_text", moderation.CodeMalformedOutput, err)
	}

	return &moderation.RawResult{
		Scores:       scores,
		HarmfulScore: ToxicScore(preds),
	}, nil
}

// ToxicScore aggregates labels containing ToxicToken, case-insensitively
func ToxicScore(preds []Prediction) float64 {
	var sum float64
	for _, p := range preds {
		if strings.Contains(strings.ToLower(p.Label), ToxicToken) {
			sum += p.Score
		}
	}
	return math.Min(1.0, sum)
}

// scoreSet validates model output and indexes it by label
func scoreSet(preds []Prediction) (moderation.RawScoreSet, error) {
	if len(preds) == 0 {
		return nil, fmt.Errorf("model returned no predictions")
	}
	scores := make(moderation.RawScoreSet, len(preds))
	for _, p := range preds {
		if p.Label == "" {
			return nil, fmt.Errorf("prediction without label")
		}
		if math.IsNaN(p.Score) || p.Score < 0 || p.Score > 1 {
			return nil, fmt.Errorf("label %q has score %v outside [0,1]", p.Label, p.Score)
		}
		scores[p.Label] = p.Score
	}
	return scores, nil
}
