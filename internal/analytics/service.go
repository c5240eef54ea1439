package analytics

import (
	"context"
	"time"

	"github.com/contentguard/backend/internal/cache"
	"github.com/contentguard/backend/internal/models"
	"github.com/contentguard/backend/internal/moderation"
	"go.uber.org/zap"
)

// Reader is the read side of the log store analytics needs
type Reader interface {
	ScanByCreatedAt(ctx context.Context) ([]models.ModerationDecision, error)
	Recent(ctx context.Context, limit int) ([]models.ModerationDecision, error)
}

// SummaryCache stores the computed summary between requests
type SummaryCache interface {
	GetJSON(ctx context.Context, key string, v any) (bool, error)
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
}

type Service struct {
	store  Reader
	cache  SummaryCache
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// NewService builds the analytics service. summaryCache may be nil.
func NewService(store Reader, summaryCache SummaryCache, ttl time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store,
		cache:  summaryCache,
		ttl:    ttl,
		now:    time.Now,
		logger: logger.With(zap.String("component", "analytics")),
	}
}

// Summary returns headline numbers, served from cache when fresh
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	if s.cache != nil {
		var cached Summary
		hit, err := s.cache.GetJSON(ctx, cache.SummaryKey, &cached)
		if err != nil {
			s.logger.Warn("summary cache read failed", zap.Error(err))
		} else if hit {
			return &cached, nil
		}
	}

	decisions, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	summary := Summarize(decisions, s.now())

	if s.cache != nil && s.ttl > 0 {
		if err := s.cache.SetJSON(ctx, cache.SummaryKey, summary, s.ttl); err != nil {
			s.logger.Warn("summary cache write failed", zap.Error(err))
		}
	}
	return &summary, nil
}

// Distribution returns status counts and the confidence histogram
func (s *Service) Distribution(ctx context.Context, bins int) (*Distribution, error) {
	decisions, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	dist := Distribute(decisions, bins)
	return &dist, nil
}

// Timeline returns request counts per bucket
func (s *Service) Timeline(ctx context.Context, width time.Duration) ([]Bucket, error) {
	decisions, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return Timeline(decisions, width), nil
}

// Recent returns the latest n decisions, newest first
func (s *Service) Recent(ctx context.Context, n int) ([]models.ModerationDecision, error) {
	decisions, err := s.store.Recent(ctx, n)
	if err != nil {
		return nil, wrapStorage("recent", err)
	}
	return decisions, nil
}

func (s *Service) load(ctx context.Context) ([]models.ModerationDecision, error) {
	decisions, err := s.store.ScanByCreatedAt(ctx)
	if err != nil {
		return nil, wrapStorage("scan_by_created_at", err)
	}
	return decisions, nil
}

func wrapStorage(op string, err error) error {
	if moderation.KindOf(err) == moderation.KindUnknown {
		return moderation.StorageError(op, err)
	}
	return err
}
