package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/contentguard/backend/internal/cache"
	"github.com/contentguard/backend/internal/models"
	"github.com/contentguard/backend/internal/moderation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeReader struct {
	decisions []models.ModerationDecision
	err       error
	scans     int
}

func (f *fakeReader) ScanByCreatedAt(ctx context.Context) ([]models.ModerationDecision, error) {
	f.scans++
	return f.decisions, f.err
}

func (f *fakeReader) Recent(ctx context.Context, limit int) ([]models.ModerationDecision, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []models.ModerationDecision{}
	for i := len(f.decisions) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.decisions[i])
	}
	return out, nil
}

func TestService_SummaryUsesCache(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rc, err := cache.NewRedisClient(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	defer rc.Close()

	reader := &fakeReader{decisions: sample()}
	svc := NewService(reader, rc, 30*time.Second, zap.NewNop())
	svc.now = func() time.Time { return base }

	first, err := svc.Summary(context.Background())
	require.NoError(t, err)
	second, err := svc.Summary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, reader.scans)
	assert.Equal(t, first.Total, second.Total)
	assert.Equal(t, first.ByStatus, second.ByStatus)

	// a new decision invalidates the cached summary
	require.NoError(t, rc.DecisionLogged(context.Background(), models.ModerationDecision{ID: 5}))
	_, err = svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, reader.scans)
}

func TestService_WithoutCache(t *testing.T) {
	reader := &fakeReader{decisions: sample()}
	svc := NewService(reader, nil, time.Minute, nil)

	_, err := svc.Summary(context.Background())
	require.NoError(t, err)
	_, err = svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, reader.scans)

	dist, err := svc.Distribution(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, dist.Histogram, 5)

	buckets, err := svc.Timeline(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.Len(t, buckets, 3)

	recent, err := svc.Recent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "Safe Image", recent[0].Status)
}

func TestService_StorageErrors(t *testing.T) {
	svc := NewService(&fakeReader{err: errors.New("connection refused")}, nil, 0, nil)

	_, err := svc.Summary(context.Background())
	assert.Equal(t, moderation.KindStorageUnavailable, moderation.KindOf(err))
	_, err = svc.Recent(context.Background(), 10)
	assert.Equal(t, moderation.KindStorageUnavailable, moderation.KindOf(err))
}
