package sqlite

import (
	"context"
	"fmt"

	"underwriting-lab/internal/domain"
	"underwriting-lab/internal/storage"
)

// FeedbackStore implements storage.FeedbackStore using SQLite.
type FeedbackStore struct {
	db *DB
}

// NewFeedbackStore creates a new FeedbackStore.
func NewFeedbackStore(db *DB) *FeedbackStore {
	return &FeedbackStore{db: db}
}

// Compile-time interface check.
var _ storage.FeedbackStore = (*FeedbackStore)(nil)

// Insert adds new feedback. Returns ErrDuplicateKey if id exists.
func (s *FeedbackStore) Insert(ctx context.Context, f *domain.Feedback) error {
	if f == nil || f.ID == "" || f.TenantID == "" || f.ReportID == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.db.exec(ctx, `
		INSERT INTO feedback (id, tenant_id, report_id, label, comment, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
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
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, report_id, label, comment, created_at
		FROM feedback
		WHERE tenant_id = ?
		ORDER BY created_at DESC, id ASC
		LIMIT ?
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
