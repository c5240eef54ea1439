package repository

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/contentguard/backend/internal/database"
	"github.com/contentguard/backend/internal/models"
	"github.com/contentguard/backend/internal/moderation"
)

const decisionColumns = `id, content_type, status, confidence, created_at`

// ModerationRepository persists decisions in Postgres
type ModerationRepository struct {
	db *database.DB
}

func NewModerationRepository(db *database.DB) *ModerationRepository {
	return &ModerationRepository{db: db}
}

// Insert appends a decision; id and created_at are assigned by the database
func (r *ModerationRepository) Insert(ctx context.Context, d *models.ModerationDecision) (int64, error) {
	if err := validateDecision(d); err != nil {
		return 0, err
	}

	query := `INSERT INTO moderation_logs (content_type, status, confidence) VALUES ($1, $2, $3) RETURNING id, created_at`
	var createdAt time.Time
	var id int64
	if err := r.db.QueryRowContext(ctx, query, d.ContentType, d.Status, d.Confidence).Scan(&id, &createdAt); err != nil {
		return 0, moderation.StorageError("insert", fmt.Errorf("failed to insert moderation log: %w", err))
	}

	d.ID = id
	d.CreatedAt = createdAt.UTC()
	return id, nil
}

// Count returns the total number of decisions
func (r *ModerationRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM moderation_logs`).Scan(&n); err != nil {
		return 0, moderation.StorageError("count", fmt.Errorf("failed to count moderation logs: %w", err))
	}
	return n, nil
}

// Scan returns every decision in insertion order
func (r *ModerationRepository) Scan(ctx context.Context) ([]models.ModerationDecision, error) {
	return r.query(ctx, "scan", `SELECT `+decisionColumns+` FROM moderation_logs ORDER BY id ASC`)
}

// ScanByCreatedAt returns every decision ordered by timestamp
func (r *ModerationRepository) ScanByCreatedAt(ctx context.Context) ([]models.ModerationDecision, error) {
	return r.query(ctx, "scan_by_created_at", `SELECT `+decisionColumns+` FROM moderation_logs ORDER BY created_at ASC, id ASC`)
}

// Recent returns the newest decisions first
func (r *ModerationRepository) Recent(ctx context.Context, limit int) ([]models.ModerationDecision, error) {
	if limit <= 0 {
		limit = 10
	}
	return r.query(ctx, "recent", `SELECT `+decisionColumns+` FROM moderation_logs ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
}

// Since returns decisions created at or after t, oldest first
func (r *ModerationRepository) Since(ctx context.Context, t time.Time) ([]models.ModerationDecision, error) {
	return r.query(ctx, "since", `SELECT `+decisionColumns+` FROM moderation_logs WHERE created_at >= $1 ORDER BY created_at ASC, id ASC`, t.UTC())
}

// Clear deletes every decision in one transaction. The exclusive lock orders
// it against concurrent inserts: each insert either commits first and is
// removed, or waits and survives.
func (r *ModerationRepository) Clear(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return moderation.StorageError("clear", fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `LOCK TABLE moderation_logs IN ACCESS EXCLUSIVE MODE`); err != nil {
		return moderation.StorageError("clear", fmt.Errorf("failed to lock moderation logs: %w", err))
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM moderation_logs`); err != nil {
		return moderation.StorageError("clear", fmt.Errorf("failed to delete moderation logs: %w", err))
	}
	if err := tx.Commit(); err != nil {
		return moderation.StorageError("clear", fmt.Errorf("failed to commit clear: %w", err))
	}
	return nil
}

func (r *ModerationRepository) query(ctx context.Context, op, query string, args ...any) ([]models.ModerationDecision, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, moderation.StorageError(op, fmt.Errorf("failed to query moderation logs: %w", err))
	}
	defer rows.Close()

	res := []models.ModerationDecision{}
	for rows.Next() {
		var d models.ModerationDecision
		if err := rows.Scan(&d.ID, &d.ContentType, &d.Status, &d.Confidence, &d.CreatedAt); err != nil {
			return nil, moderation.StorageError(op, fmt.Errorf("failed to scan moderation log: %w", err))
		}
		d.CreatedAt = d.CreatedAt.UTC()
		res = append(res, d)
	}
	if err := rows.Err(); err != nil {
		return nil, moderation.StorageError(op, fmt.Errorf("failed to read moderation logs: %w", err))
	}
	return res, nil
}

// validateDecision keeps records outside the closed vocabulary out of the log
func validateDecision(d *models.ModerationDecision) error {
	if d == nil {
		return moderation.ValidationError("insert", moderation.CodeMalformedOutput, fmt.Errorf("nil decision"))
	}
	if _, err := models.ParseContentType(string(d.ContentType)); err != nil {
		return moderation.ValidationError("insert", moderation.CodeUnsupportedContentType, err)
	}
	if d.Status != d.ContentType.SafeStatus() && d.Status != d.ContentType.HarmfulStatus() {
		return moderation.ValidationError("insert", moderation.CodeMalformedOutput,
			fmt.Errorf("status %q is not valid for content type %q", d.Status, d.ContentType))
	}
	if math.IsNaN(d.Confidence) || d.Confidence < 0 || d.Confidence > 1 {
		return moderation.ValidationError("insert", moderation.CodeMalformedScore,
			fmt.Errorf("confidence %v outside [0,1]", d.Confidence))
	}
	return nil
}
