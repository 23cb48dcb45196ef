package storage

import (
	"context"

	"underwriting-lab/internal/domain"
)

// ModelStore provides access to model_versions storage.
type ModelStore interface {
	// Insert adds a new model record. Returns ErrDuplicateKey if id exists.
	Insert(ctx context.Context, m *domain.ModelRecord) error

	// GetByID retrieves a tenant's model. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, tenantID, id string) (*domain.ModelRecord, error)

	// ListByTenant retrieves all models of a tenant, newest first.
	ListByTenant(ctx context.Context, tenantID string) ([]*domain.ModelRecord, error)

	// GetActive retrieves the tenant's active model. Returns ErrNotFound if none.
	GetActive(ctx context.Context, tenantID string) (*domain.ModelRecord, error)

	// ActivateExclusive archives the current active model (if any) and activates
	// the candidate id in one atomic step. Returns the previously active model,
	// or nil. Returns ErrNotFound if id does not exist for the tenant and
	// domain.ErrIllegalTransition if it is not a candidate.
	ActivateExclusive(ctx context.Context, tenantID, id string, at int64) (*domain.ModelRecord, error)

	// Archive moves an active model to archived.
	// Returns domain.ErrIllegalTransition if it is not active.
	Archive(ctx context.Context, tenantID, id string, at int64) error
}

// OutcomeStore provides access to outcomes storage.
type OutcomeStore interface {
	// Insert adds a new outcome. Returns ErrDuplicateKey if id exists.
	Insert(ctx context.Context, o *domain.Outcome) error

	// GetByID retrieves a tenant's outcome. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, tenantID, id string) (*domain.Outcome, error)

	// ListByTenant retrieves up to limit outcomes, newest first. limit <= 0 means all.
	ListByTenant(ctx context.Context, tenantID string, limit int) ([]*domain.Outcome, error)

	// ListUnlinked retrieves up to limit outcomes without a report, newest first.
	ListUnlinked(ctx context.Context, tenantID string, limit int) ([]*domain.Outcome, error)

	// Link ties an outcome to a report. Returns ErrNotFound if the outcome does not exist.
	Link(ctx context.Context, tenantID, outcomeID, reportID string) error

	// CountLinked returns the number of outcomes tied to a report.
	CountLinked(ctx context.Context, tenantID string) (int, error)
}

// FeedbackStore provides access to feedback storage.
type FeedbackStore interface {
	// Insert adds new feedback. Returns ErrDuplicateKey if id exists.
	Insert(ctx context.Context, f *domain.Feedback) error

	// ListByTenant retrieves up to limit feedback entries, newest first. limit <= 0 means all.
	ListByTenant(ctx context.Context, tenantID string, limit int) ([]*domain.Feedback, error)
}

// ReportStore provides access to underwriting reports storage.
type ReportStore interface {
	// Insert adds a new report. Returns ErrDuplicateKey if id exists.
	Insert(ctx context.Context, r *domain.Report) error

	// GetByID retrieves a tenant's report. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, tenantID, id string) (*domain.Report, error)

	// ListByTenant retrieves up to limit reports, newest first. limit <= 0 means all.
	ListByTenant(ctx context.Context, tenantID string, limit int) ([]*domain.Report, error)
}

// AuditStore provides access to the append-only, hash-chained audit log.
type AuditStore interface {
	// Append links e to the tenant's chain, sets e.PrevHash and e.Hash, and stores it.
	// Returns ErrDuplicateKey if id exists.
	Append(ctx context.Context, e *domain.AuditEvent) error

	// ListByTenant retrieves up to limit events, newest first. limit <= 0 means all.
	ListByTenant(ctx context.Context, tenantID string, limit int) ([]*domain.AuditEvent, error)

	// Chain retrieves every event of a tenant in append order.
	Chain(ctx context.Context, tenantID string) ([]*domain.AuditEvent, error)
}

// RunStore provides access to underwriting run analytics.
type RunStore interface {
	// Insert adds a run snapshot. Returns ErrDuplicateKey if report_id exists.
	Insert(ctx context.Context, r *domain.RunSnapshot) error

	// InsertBulk adds multiple snapshots atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, runs []*domain.RunSnapshot) error

	// GetByTenant retrieves a tenant's runs created within [start, end] (inclusive),
	// ordered by created_at ASC.
	GetByTenant(ctx context.Context, tenantID string, start, end int64) ([]*domain.RunSnapshot, error)
}
