package sqlite

import (
	"context"
	"fmt"

	"underwriting-lab/internal/storage"
)

// RetrainCursorStore implements storage.RetrainCursorStore using SQLite.
type RetrainCursorStore struct {
	db *DB
}

// NewRetrainCursorStore creates a new RetrainCursorStore.
func NewRetrainCursorStore(db *DB) *RetrainCursorStore {
	return &RetrainCursorStore{db: db}
}

// Compile-time interface check.
var _ storage.RetrainCursorStore = (*RetrainCursorStore)(nil)

// GetCursor returns the tenant's cursor.
func (s *RetrainCursorStore) GetCursor(ctx context.Context, tenantID string) (*storage.RetrainCursor, error) {
	c := storage.RetrainCursor{TenantID: tenantID}
	err := s.db.QueryRowContext(ctx, `
		SELECT feedback_rows, outcome_rows, last_trained_at
		FROM retrain_cursors WHERE tenant_id = ?
	`, tenantID).Scan(&c.FeedbackRows, &c.OutcomeRows, &c.LastTrainedAt)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get retrain cursor: %w", err)
	}
	return &c, nil
}

// SetCursor saves the tenant's cursor.
func (s *RetrainCursorStore) SetCursor(ctx context.Context, c *storage.RetrainCursor) error {
	if c == nil || c.TenantID == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.db.exec(ctx, `
		INSERT INTO retrain_cursors (tenant_id, feedback_rows, outcome_rows, last_trained_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (tenant_id) DO UPDATE
		SET feedback_rows = excluded.feedback_rows,
		    outcome_rows = excluded.outcome_rows,
		    last_trained_at = excluded.last_trained_at
	`, c.TenantID, c.FeedbackRows, c.OutcomeRows, c.LastTrainedAt)
	if err != nil {
		return fmt.Errorf("set retrain cursor: %w", err)
	}
	return nil
}
