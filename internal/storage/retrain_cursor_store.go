package storage

import "context"

// RetrainCursor records the training data seen by the last scheduled retrain of a tenant.
type RetrainCursor struct {
	TenantID      string
	FeedbackRows  int   // feedback rows used
	OutcomeRows   int   // linked outcome rows used
	LastTrainedAt int64 // unix ms
}

// RetrainCursorStore persists retrain progress so unchanged tenants are skipped
// after restarts.
type RetrainCursorStore interface {
	// GetCursor returns the tenant's cursor. Returns ErrNotFound if never trained.
	GetCursor(ctx context.Context, tenantID string) (*RetrainCursor, error)

	// SetCursor saves the tenant's cursor, replacing any previous one.
	SetCursor(ctx context.Context, c *RetrainCursor) error
}
