package analytics

import (
	"sort"
	"time"

	"github.com/contentguard/backend/internal/models"
)

// Summary holds the headline numbers of the dashboard
type Summary struct {
	Total             int            `json:"total"`
	AverageConfidence float64        `json:"average_confidence"`
	HarmfulPercent    float64        `json:"harmful_percent"`
	SafePercent       float64        `json:"safe_percent"`
	LastHour          int            `json:"last_hour"`
	ByStatus          map[string]int `json:"by_status"`
	ByContentType     map[string]int `json:"by_content_type"`
	GeneratedAt       time.Time      `json:"generated_at"`
}

// HistogramBin counts decisions with confidence in [Lower, Upper)
type HistogramBin struct {
	Lower    float64        `json:"lower"`
	Upper    float64        `json:"upper"`
	ByStatus map[string]int `json:"by_status"`
	Count    int            `json:"count"`
}

// Distribution is the status pie plus the confidence histogram
type Distribution struct {
	ByStatus  map[string]int `json:"by_status"`
	Histogram []HistogramBin `json:"histogram"`
}

// Bucket is the number of decisions created in [Start, Start+width)
type Bucket struct {
	Start time.Time `json:"start"`
	Count int       `json:"count"`
}

// Summarize computes the summary as of now
func Summarize(decisions []models.ModerationDecision, now time.Time) Summary {
	s := Summary{
		Total:         len(decisions),
		ByStatus:      map[string]int{},
		ByContentType: map[string]int{},
		GeneratedAt:   now.UTC(),
	}
	if len(decisions) == 0 {
		return s
	}

	hourAgo := now.Add(-time.Hour)
	var confSum float64
	harmful := 0
	for _, d := range decisions {
		confSum += d.Confidence
		if d.IsHarmful() {
			harmful++
		}
		if d.CreatedAt.After(hourAgo) {
			s.LastHour++
		}
		s.ByStatus[d.Status]++
		s.ByContentType[string(d.ContentType)]++
	}

	total := float64(len(decisions))
	s.AverageConfidence = confSum / total
	s.HarmfulPercent = float64(harmful) / total * 100
	s.SafePercent = float64(len(decisions)-harmful) / total * 100
	return s
}

// Distribute builds status counts and a confidence histogram with bins equal-width bins over [0,1]
func Distribute(decisions []models.ModerationDecision, bins int) Distribution {
	if bins <= 0 {
		bins = 10
	}
	dist := Distribution{
		ByStatus:  map[string]int{},
		Histogram: make([]HistogramBin, bins),
	}
	width := 1.0 / float64(bins)
	for i := range dist.Histogram {
		dist.Histogram[i] = HistogramBin{
			Lower:    float64(i) * width,
			Upper:    float64(i+1) * width,
			ByStatus: map[string]int{},
		}
	}

	for _, d := range decisions {
		dist.ByStatus[d.Status]++
		i := int(d.Confidence / width)
		if i >= bins {
			i = bins - 1
		}
		if i < 0 {
			i = 0
		}
		dist.Histogram[i].Count++
		dist.Histogram[i].ByStatus[d.Status]++
	}
	return dist
}

// MaxBuckets bounds a zero-filled timeline; older buckets are dropped
const MaxBuckets = 24 * 90

// Timeline counts decisions per bucket from the first to the last one, filling gaps with zeros
func Timeline(decisions []models.ModerationDecision, width time.Duration) []Bucket {
	if width <= 0 {
		width = time.Hour
	}
	if len(decisions) == 0 {
		return []Bucket{}
	}

	times := make([]time.Time, len(decisions))
	for i, d := range decisions {
		times[i] = d.CreatedAt.UTC()
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	first := times[0].Truncate(width)
	last := times[len(times)-1].Truncate(width)
	n := int(last.Sub(first)/width) + 1
	if n > MaxBuckets {
		n = MaxBuckets
		first = last.Add(-time.Duration(n-1) * width)
	}

	buckets := make([]Bucket, n)
	for i := range buckets {
		buckets[i].Start = first.Add(time.Duration(i) * width)
	}
	for _, t := range times {
		if t.Before(first) {
			continue
		}
		buckets[int(t.Truncate(width).Sub(first)/width)].Count++
	}
	return buckets
}
