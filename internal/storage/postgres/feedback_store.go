package postgres

import (
	"context"
	"fmt"

	"underwriting-lab/internal/domain"
	"underwriting-lab/internal/storage"
)

// FeedbackStore implements storage.FeedbackStore using PostgreSQL.
type FeedbackStore struct {
	pool *Pool
}

// NewFeedbackStore creates a new FeedbackStore.
func NewFeedbackStore(pool *Pool) *FeedbackStore {
	return &FeedbackStore{pool: pool}
}

// Compile-time interface check.
var _ storage.FeedbackStore = (*FeedbackStore)(nil)

// Insert adds new feedback. Returns ErrDuplicateKey if id exists.
func (s *FeedbackStore) Insert(ctx context.Context, f *domain.Feedback) error {
	if f == nil || f.ID == "" || f.TenantID == "" || f.ReportID == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO feedback (id, tenant_id, report_id, label, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, f.ID, f.TenantID, f.ReportID, string(f.Label), f.Comment, f.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

// ListByTenant retrieves up to limit feedback entries, newest first.
func (s *FeedbackStore) ListByTenant(ctx context.Context, tenantID string, limit int) ([]*domain.Feedback, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, tenant_id, report_id, label, comment, created_at
		FROM feedback
		WHERE tenant_id = $1
		ORDER BY created_at DESC, id ASC
		LIMIT $2
	`, tenantID, sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	defer rows.Close()

	var result []*domain.Feedback
	for rows.Next() {
		var f domain.Feedback
		var label string
		if err := rows.Scan(&f.ID, &f.TenantID, &f.ReportID, &label, &f.Comment, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan feedback row: %w", err)
		}
		f.Label = domain.FeedbackLabel(label)
		result = append(result, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feedback rows: %w", err)
	}
	return result, nil
}
