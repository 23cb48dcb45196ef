package memory

import (
	"context"
	"sort"
	"sync"

	"underwriting-lab/internal/domain"
	"underwriting-lab/internal/storage"
)

// OutcomeStore is an in-memory implementation of storage.OutcomeStore.
type OutcomeStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Outcome // keyed by id
}

// NewOutcomeStore creates a new in-memory outcome store.
func NewOutcomeStore() *OutcomeStore {
	return &OutcomeStore{
		data: make(map[string]*domain.Outcome),
	}
}

// Insert adds a new outcome. Returns ErrDuplicateKey if id exists.
func (s *OutcomeStore) Insert(_ context.Context, o *domain.Outcome) error {
	if o == nil || o.ID == "" || o.TenantID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[o.ID]; exists {
		return storage.ErrDuplicateKey
	}

	outcomeCopy := *o
	s.data[o.ID] = &outcomeCopy
	return nil
}

// GetByID retrieves a tenant's outcome. Returns ErrNotFound if not exists.
func (s *OutcomeStore) GetByID(_ context.Context, tenantID, id string) (*domain.Outcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.data[id]
	if !ok || o.TenantID != tenantID {
		return nil, storage.ErrNotFound
	}
	outcomeCopy := *o
	return &outcomeCopy, nil
}

// ListByTenant retrieves up to limit outcomes, newest first.
func (s *OutcomeStore) ListByTenant(_ context.Context, tenantID string, limit int) ([]*domain.Outcome, error) {
	return s.list(tenantID, limit, func(*domain.Outcome) bool { return true }), nil
}

// ListUnlinked retrieves up to limit outcomes without a report, newest first.
func (s *OutcomeStore) ListUnlinked(_ context.Context, tenantID string, limit int) ([]*domain.Outcome, error) {
	return s.list(tenantID, limit, func(o *domain.Outcome) bool { return !o.Linked() }), nil
}

// Link ties an outcome to a report.
func (s *OutcomeStore) Link(_ context.Context, tenantID, outcomeID, reportID string) error {
	if reportID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.data[outcomeID]
	if !ok || o.TenantID != tenantID {
		return storage.ErrNotFound
	}
	id := reportID
	o.ReportID = &id
	return nil
}

// CountLinked returns the number of outcomes tied to a report.
func (s *OutcomeStore) CountLinked(_ context.Context, tenantID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, o := range s.data {
		if o.TenantID == tenantID && o.Linked() {
			n++
		}
	}
	return n, nil
}

func (s *OutcomeStore) list(tenantID string, limit int, keep func(*domain.Outcome) bool) []*domain.Outcome {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Outcome
	for _, o := range s.data {
		if o.TenantID == tenantID && keep(o) {
			outcomeCopy := *o
			result = append(result, &outcomeCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt != result[j].CreatedAt {
			return result[i].CreatedAt > result[j].CreatedAt
		}
		return result[i].ID < result[j].ID
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

// Verify interface compliance
var _ storage.OutcomeStore = (*OutcomeStore)(nil)
