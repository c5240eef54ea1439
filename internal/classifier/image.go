package classifier

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"sort"
	"strings"

	"github.com/contentguard/backend/internal/models"
	"github.com/contentguard/backend/internal/moderation"
	"golang.org/x/image/draw"
)

const (
	// NSFWToken is the harmful label of the image model
	NSFWToken = "nsfw"
	// TopK is how many of the model's best labels are considered
	TopK = 3
	// MaxSide bounds the image sent to the model server
	MaxSide = 512
	// MaxPixels caps width*height before a full decode
	MaxPixels = 50_000_000
)

var supportedFormats = map[string]string{
	"png":  "image/png",
	"jpeg": "image/jpeg",
}

// ImageClassifier adapts a binary safe/nsfw image model
type ImageClassifier struct {
	model ImageModel
}

func NewImageClassifier(model ImageModel) *ImageClassifier {
	return &ImageClassifier{model: model}
}

func (c *ImageClassifier) ContentType() models.ContentType {
	return models.ContentTypeImage
}

// Classify decodes the image, runs the model and extracts the nsfw score.
// A missing nsfw label among the top predictions scores 0.0.
func (c *ImageClassifier) Classify(ctx context.Context, payload []byte) (*moderation.RawResult, error) {
	body, mime, err := prepareImage(payload)
	if err != nil {
		return nil, moderation.ValidationError("classify_image", moderation.CodeInvalidImage, err)
	}

	preds, err := c.model.ClassifyImage(ctx, body, mime)
	if err != nil {
		return nil, moderation.InferenceError("classify_image", moderation.CodeInferenceFailed, err)
	}
	preds = topK(preds, TopK)
	scores, err := scoreSet(preds)
	if err != nil {
		return nil, moderation.InferenceError("classify_image", moderation.CodeMalformedOutput, err)
	}

	return &moderation.RawResult{
		Scores:       scores,
		HarmfulScore: NSFWScore(preds),
	}, nil
}

// NSFWScore returns the score of the nsfw label, or 0 when absent
func NSFWScore(preds []Prediction) float64 {
	for _, p := range preds {
		if strings.EqualFold(p.Label, NSFWToken) {
			return p.Score
		}
	}
	return 0.0
}

func topK(preds []Prediction, k int) []Prediction {
	sorted := make([]Prediction, len(preds))
	copy(sorted, preds)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })
	if len(sorted) > k {
		sorted = sorted[:k]
	}
	return sorted
}

// prepareImage rejects anything that is not a decodable PNG or JPEG and
// down-scales large images before they are sent to the model.
func prepareImage(raw []byte) ([]byte, string, error) {
	if len(raw) == 0 {
		return nil, "", fmt.Errorf("empty image")
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, "", fmt.Errorf("decode image header: %w", err)
	}
	mime, ok := supportedFormats[format]
	if !ok {
		return nil, "", fmt.Errorf("unsupported image format %q", format)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, "", fmt.Errorf("image is %dx%d, limit is %d pixels", cfg.Width, cfg.Height, MaxPixels)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}

	if cfg.Width <= MaxSide && cfg.Height <= MaxSide {
		return raw, mime, nil
	}

	w, h := fitWithin(cfg.Width, cfg.Height, MaxSide)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)

	var out bytes.Buffer
	if err := png.Encode(&out, dst); err != nil {
		return nil, "", fmt.Errorf("encode png: %w", err)
	}
	return out.Bytes(), "image/png", nil
}

func fitWithin(w, h, side int) (int, int) {
	if w >= h {
		nh := h * side / w
		if nh < 1 {
			nh = 1
		}
		return side, nh
	}
	nw := w * side / h
	if nw < 1 {
		nw = 1
	}
	return nw, side
}
