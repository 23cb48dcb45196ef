package memory

import (
	"context"
	"sort"
	"sync"

	"underwriting-lab/internal/domain"
	"underwriting-lab/internal/storage"
)

// ModelStore is an in-memory implementation of storage.ModelStore.
type ModelStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ModelRecord // keyed by id
}

// NewModelStore creates a new in-memory model store.
func NewModelStore() *ModelStore {
	return &ModelStore{
		data: make(map[string]*domain.ModelRecord),
	}
}

// Insert adds a new model record. Returns ErrDuplicateKey if id exists.
// Only candidates may be inserted; activation goes through ActivateExclusive.
func (s *ModelStore) Insert(_ context.Context, m *domain.ModelRecord) error {
	if m == nil || m.ID == "" || m.TenantID == "" || m.Status != domain.ModelStatusCandidate {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[m.ID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[m.ID] = m.Copy()
	return nil
}

// GetByID retrieves a tenant's model. Returns ErrNotFound if not exists.
func (s *ModelStore) GetByID(_ context.Context, tenantID, id string) (*domain.ModelRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.data[id]
	if !ok || m.TenantID != tenantID {
		return nil, storage.ErrNotFound
	}
	return m.Copy(), nil
}

// ListByTenant retrieves all models of a tenant, newest first.
func (s *ModelStore) ListByTenant(_ context.Context, tenantID string) ([]*domain.ModelRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ModelRecord
	for _, m := range s.data {
		if m.TenantID == tenantID {
			result = append(result, m.Copy())
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt != result[j].CreatedAt {
			return result[i].CreatedAt > result[j].CreatedAt
		}
		return result[i].ID < result[j].ID
	})

	return result, nil
}

// GetActive retrieves the tenant's active model. Returns ErrNotFound if none.
func (s *ModelStore) GetActive(_ context.Context, tenantID string) (*domain.ModelRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if m := s.activeLocked(tenantID); m != nil {
		return m.Copy(), nil
	}
	return nil, storage.ErrNotFound
}

// ActivateExclusive archives the current active model and activates id under one lock.
func (s *ModelStore) ActivateExclusive(_ context.Context, tenantID, id string, at int64) (*domain.ModelRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, ok := s.data[id]
	if !ok || target.TenantID != tenantID {
		return nil, storage.ErrNotFound
	}
	if !domain.CanTransition(target.Status, domain.ModelStatusActive) {
		return nil, domain.ErrIllegalTransition
	}

	var prev *domain.ModelRecord
	if cur := s.activeLocked(tenantID); cur != nil {
		prev = cur.Copy()
		cur.Status = domain.ModelStatusArchived
		cur.UpdatedAt = at
	}

	target.Status = domain.ModelStatusActive
	target.UpdatedAt = at
	return prev, nil
}

// Archive moves an active model to archived.
func (s *ModelStore) Archive(_ context.Context, tenantID, id string, at int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.data[id]
	if !ok || m.TenantID != tenantID {
		return storage.ErrNotFound
	}
	if !domain.CanTransition(m.Status, domain.ModelStatusArchived) {
		return domain.ErrIllegalTransition
	}

	m.Status = domain.ModelStatusArchived
	m.UpdatedAt = at
	return nil
}

func (s *ModelStore) activeLocked(tenantID string) *domain.ModelRecord {
	for _, m := range s.data {
		if m.TenantID == tenantID && m.Status == domain.ModelStatusActive {
			return m
		}
	}
	return nil
}

// Verify interface compliance
var _ storage.ModelStore = (*ModelStore)(nil)
