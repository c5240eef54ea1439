package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/contentguard/backend/internal/models"
)

// MemoryModerationRepository keeps decisions in process memory.
// Used for local runs without Postgres and in tests.
type MemoryModerationRepository struct {
	mu        sync.RWMutex
	decisions []models.ModerationDecision
	nextID    int64
	now       func() time.Time
}

func NewMemoryModerationRepository() *MemoryModerationRepository {
	return &MemoryModerationRepository{now: time.Now}
}

func (r *MemoryModerationRepository) Insert(ctx context.Context, d *models.ModerationDecision) (int64, error) {
	if err := validateDecision(d); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	d.ID = r.nextID
	d.CreatedAt = r.now().UTC()
	if n := len(r.decisions); n > 0 && d.CreatedAt.Before(r.decisions[n-1].CreatedAt) {
		d.CreatedAt = r.decisions[n-1].CreatedAt
	}
	r.decisions = append(r.decisions, *d)
	return d.ID, nil
}

func (r *MemoryModerationRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.decisions)), nil
}

func (r *MemoryModerationRepository) Scan(ctx context.Context) ([]models.ModerationDecision, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.ModerationDecision{}, r.decisions...), nil
}

// ScanByCreatedAt matches Scan: timestamps never decrease across inserts
func (r *MemoryModerationRepository) ScanByCreatedAt(ctx context.Context) ([]models.ModerationDecision, error) {
	return r.Scan(ctx)
}

func (r *MemoryModerationRepository) Recent(ctx context.Context, limit int) ([]models.ModerationDecision, error) {
	if limit <= 0 {
		limit = 10
	}
	all, _ := r.Scan(ctx)
	sort.SliceStable(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *MemoryModerationRepository) Since(ctx context.Context, t time.Time) ([]models.ModerationDecision, error) {
	all, _ := r.Scan(ctx)
	out := []models.ModerationDecision{}
	for _, d := range all {
		if !d.CreatedAt.Before(t) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *MemoryModerationRepository) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decisions = nil
	return nil
}
