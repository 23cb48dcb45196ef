package postgres

import (
	"context"
	"fmt"

	"underwriting-lab/internal/storage"
)

// RetrainCursorStore is a PostgreSQL implementation of storage.RetrainCursorStore.
// One row per tenant in retrain_cursors.
type RetrainCursorStore struct {
	pool *Pool
}

// NewRetrainCursorStore creates a new PostgreSQL retrain cursor store.
func NewRetrainCursorStore(pool *Pool) *RetrainCursorStore {
	return &RetrainCursorStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RetrainCursorStore = (*RetrainCursorStore)(nil)

// GetCursor returns the tenant's cursor.
func (s *RetrainCursorStore) GetCursor(ctx context.Context, tenantID string) (*storage.RetrainCursor, error) {
	c := storage.RetrainCursor{TenantID: tenantID}
	err := s.pool.QueryRow(ctx, `
		SELECT feedback_rows, outcome_rows, last_trained_at
		FROM retrain_cursors
		WHERE tenant_id = $1
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
// Uses upsert to handle initial insert and subsequent updates.
func (s *RetrainCursorStore) SetCursor(ctx context.Context, c *storage.RetrainCursor) error {
	if c == nil || c.TenantID == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO retrain_cursors (tenant_id, feedback_rows, outcome_rows, last_trained_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (tenant_id) DO UPDATE
		SET feedback_rows = EXCLUDED.feedback_rows,
		    outcome_rows = EXCLUDED.outcome_rows,
		    last_trained_at = EXCLUDED.last_trained_at
	`, c.TenantID, c.FeedbackRows, c.OutcomeRows, c.LastTrainedAt)
	if err != nil {
		return fmt.Errorf("set retrain cursor: %w", err)
	}
	return nil
}
