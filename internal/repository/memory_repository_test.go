package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/contentguard/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository_RoundTrip(t *testing.T) {
	repo := NewMemoryModerationRepository()
	ctx := context.Background()

	before, err := repo.Count(ctx)
	require.NoError(t, err)

	in := models.ModerationDecision{ContentType: models.ContentTypeText, Status: "Toxic Text", Confidence: 0.92}
	d := in
	id, err := repo.Insert(ctx, &d)
	require.NoError(t, err)

	after, _ := repo.Count(ctx)
	assert.Equal(t, before+1, after)

	logs, err := repo.Scan(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	got := logs[0]
	assert.Equal(t, id, got.ID)
	assert.False(t, got.CreatedAt.IsZero())
	got.ID, got.CreatedAt = 0, time.Time{}
	assert.Equal(t, in, got)
}

func TestMemoryRepository_Clear(t *testing.T) {
	repo := NewMemoryModerationRepository()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := repo.Insert(ctx, &models.ModerationDecision{ContentType: models.ContentTypeImage, Status: "Safe Image", Confidence: 0.1})
		require.NoError(t, err)
	}

	require.NoError(t, repo.Clear(ctx))
	n, _ := repo.Count(ctx)
	assert.Zero(t, n)
	logs, _ := repo.Scan(ctx)
	assert.Empty(t, logs)

	// ids keep increasing after a clear
	id, err := repo.Insert(ctx, &models.ModerationDecision{ContentType: models.ContentTypeImage, Status: "Safe Image", Confidence: 0.1})
	require.NoError(t, err)
	assert.Equal(t, int64(6), id)
}

func TestMemoryRepository_ConcurrentInserts(t *testing.T) {
	repo := NewMemoryModerationRepository()
	ctx := context.Background()
	const n = 64

	var wg sync.WaitGroup
	ids := make(chan int64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d := &models.ModerationDecision{ContentType: models.ContentTypeText, Status: "Safe Text", Confidence: float64(i) / 200}
			id, err := repo.Insert(ctx, d)
			assert.NoError(t, err)
			ids <- id
		}(i)
	}
	wg.Wait()
	close(ids)

	seen := map[int64]bool{}
	for id := range ids {
		seen[id] = true
	}
	assert.Len(t, seen, n)

	count, _ := repo.Count(ctx)
	assert.Equal(t, int64(n), count)

	logs, _ := repo.Scan(ctx)
	for i := 1; i < len(logs); i++ {
		assert.Less(t, logs[i-1].ID, logs[i].ID)
		assert.False(t, logs[i].CreatedAt.Before(logs[i-1].CreatedAt))
	}
}

func TestMemoryRepository_ClearRacingInserts(t *testing.T) {
	repo := NewMemoryModerationRepository()
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	inserted := 0
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Insert(ctx, &models.ModerationDecision{ContentType: models.ContentTypeText, Status: "Safe Text", Confidence: 0.2})
			if assert.NoError(t, err) {
				mu.Lock()
				inserted++
				mu.Unlock()
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, repo.Clear(ctx))
	}()
	wg.Wait()

	// every surviving record is intact and no more than were inserted remain
	logs, _ := repo.Scan(ctx)
	assert.LessOrEqual(t, len(logs), inserted)
	for _, d := range logs {
		assert.Equal(t, "Safe Text", d.Status)
		assert.NotZero(t, d.ID)
	}
}

func TestMemoryRepository_Views(t *testing.T) {
	repo := NewMemoryModerationRepository()
	base := time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)
	step := 0
	repo.now = func() time.Time {
		step++
		return base.Add(time.Duration(step) * time.Minute)
	}
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		_, err := repo.Insert(ctx, &models.ModerationDecision{ContentType: models.ContentTypeText, Status: "Safe Text", Confidence: 0.2})
		require.NoError(t, err)
	}

	recent, _ := repo.Recent(ctx, 2)
	require.Len(t, recent, 2)
	assert.Equal(t, int64(4), recent[0].ID)
	assert.Equal(t, int64(3), recent[1].ID)

	since, _ := repo.Since(ctx, base.Add(3*time.Minute))
	require.Len(t, since, 2)
	assert.Equal(t, int64(3), since[0].ID)

	byTime, _ := repo.ScanByCreatedAt(ctx)
	assert.Len(t, byTime, 4)
}
