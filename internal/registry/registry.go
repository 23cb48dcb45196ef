// Package registry manages per-tenant model versions and the single active model.
package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"underwriting-lab/internal/domain"
	"underwriting-lab/internal/learning"
	"underwriting-lab/internal/storage"
)

// Registry wraps a ModelStore with lifecycle rules and baseline fallback.
type Registry struct {
	store storage.ModelStore
	now   func() time.Time
}

// New creates a registry over store.
func New(store storage.ModelStore) *Registry {
	return &Registry{store: store, now: time.Now}
}

// WithClock overrides the registry clock. Used by tests.
func (r *Registry) WithClock(now func() time.Time) *Registry {
	r.now = now
	return r
}

// CandidateSpec describes a newly trained model.
type CandidateSpec struct {
	Name    string
	Weights domain.ModelWeights
	Metrics domain.ModelMetrics
	Notes   string
}

// CreateCandidate stores a new candidate model for tenantID.
func (r *Registry) CreateCandidate(ctx context.Context, tenantID string, spec CandidateSpec) (*domain.ModelRecord, error) {
	if tenantID == "" || len(spec.Weights) == 0 {
		return nil, storage.ErrInvalidInput
	}

	at := r.now().UnixMilli()
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		name = "candidate " + time.UnixMilli(at).UTC().Format("2006-01-02 15:04")
	}

	m := &domain.ModelRecord{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		Name:      name,
		Status:    domain.ModelStatusCandidate,
		Weights:   spec.Weights.Clone(),
		Metrics:   spec.Metrics,
		Notes:     spec.Notes,
		CreatedAt: at,
		UpdatedAt: at,
	}
	if err := r.store.Insert(ctx, m); err != nil {
		return nil, fmt.Errorf("insert candidate: %w", err)
	}
	return m, nil
}

// Get returns one model of the tenant.
func (r *Registry) Get(ctx context.Context, tenantID, id string) (*domain.ModelRecord, error) {
	return r.store.GetByID(ctx, tenantID, id)
}

// List returns all models of the tenant, newest first.
func (r *Registry) List(ctx context.Context, tenantID string) ([]*domain.ModelRecord, error) {
	return r.store.ListByTenant(ctx, tenantID)
}

// Active returns the tenant's active model, or (nil, nil) when there is none.
func (r *Registry) Active(ctx context.Context, tenantID string) (*domain.ModelRecord, error) {
	m, err := r.store.GetActive(ctx, tenantID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active model: %w", err)
	}
	return m, nil
}

// ActiveModel returns the tenant's active model as a scoring reference,
// falling back to the baseline weights.
func (r *Registry) ActiveModel(ctx context.Context, tenantID string) (learning.ModelRef, error) {
	m, err := r.Active(ctx, tenantID)
	if err != nil {
		return learning.ModelRef{}, err
	}
	if m == nil {
		return learning.Baseline(), nil
	}
	return learning.ModelRef{ID: m.ID, Name: m.Name, Weights: m.Weights}, nil
}

// ActiveWeights returns the tenant's active weights or the baseline.
func (r *Registry) ActiveWeights(ctx context.Context, tenantID string) (domain.ModelWeights, error) {
	ref, err := r.ActiveModel(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return ref.Weights, nil
}

// Activate makes candidate id the tenant's only active model and archives
// the previous one. Returns the previously active model, if any.
func (r *Registry) Activate(ctx context.Context, tenantID, id string) (*domain.ModelRecord, error) {
	prev, err := r.store.ActivateExclusive(ctx, tenantID, id, r.now().UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("activate model %s: %w", id, err)
	}
	return prev, nil
}

// Archive retires the tenant's active model id. Scoring falls back to baseline.
func (r *Registry) Archive(ctx context.Context, tenantID, id string) error {
	if err := r.store.Archive(ctx, tenantID, id, r.now().UnixMilli()); err != nil {
		return fmt.Errorf("archive model %s: %w", id, err)
	}
	return nil
}
