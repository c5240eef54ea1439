package moderation

import (
	"math"
	"testing"

	"github.com/contentguard/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name       string
		ct         models.ContentType
		raw        float64
		wantStatus string
	}{
		{name: "text zero", ct: models.ContentTypeText, raw: 0, wantStatus: "Safe Text"},
		{name: "text at threshold is safe", ct: models.ContentTypeText, raw: 0.5, wantStatus: "Safe Text"},
		{name: "text just above threshold", ct: models.ContentTypeText, raw: 0.50001, wantStatus: "Toxic Text"},
		{name: "text one", ct: models.ContentTypeText, raw: 1, wantStatus: "Toxic Text"},
		{name: "image safe", ct: models.ContentTypeImage, raw: 0.2, wantStatus: "Safe Image"},
		{name: "image at threshold is safe", ct: models.ContentTypeImage, raw: 0.5, wantStatus: "Safe Image"},
		{name: "image nsfw", ct: models.ContentTypeImage, raw: 0.97, wantStatus: "NSFW Image"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Normalize(tt.ct, tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, d.Status)
			assert.Equal(t, tt.ct, d.ContentType)
			assert.Equal(t, tt.raw, d.Confidence)
			assert.Zero(t, d.ID)
			assert.True(t, d.CreatedAt.IsZero())
		})
	}
}

func TestNormalize_Rejects(t *testing.T) {
	_, err := Normalize("video", 0.3)
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Equal(t, CodeUnsupportedContentType, CodeOf(err))

	for _, raw := range []float64{-0.1, 1.0001, math.NaN(), math.Inf(1)} {
		_, err := Normalize(models.ContentTypeText, raw)
		require.Error(t, err, "raw %v", raw)
		assert.Equal(t, KindModelInference, KindOf(err))
		assert.Equal(t, CodeMalformedScore, CodeOf(err))
	}
}

func TestNormalize_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ct := rapid.SampledFrom([]models.ContentType{models.ContentTypeText, models.ContentTypeImage}).Draw(t, "ct")
		raw := rapid.Float64Range(0, 1).Draw(t, "raw")

		first, err := Normalize(ct, raw)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		second, _ := Normalize(ct, raw)
		if first != second {
			t.Fatalf("Normalize not deterministic: %+v vs %+v", first, second)
		}
		if first.Confidence < 0 || first.Confidence > 1 {
			t.Fatalf("confidence %v out of range", first.Confidence)
		}
		want := ct.SafeStatus()
		if raw > HarmfulThreshold {
			want = ct.HarmfulStatus()
		}
		if first.Status != want {
			t.Fatalf("status %q for raw %v, want %q", first.Status, raw, want)
		}
	})
}
