package memory

import (
	"context"
	"sort"
	"sync"

	"underwriting-lab/internal/domain"
	"underwriting-lab/internal/storage"
)

// ReportStore is an in-memory implementation of storage.ReportStore.
type ReportStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Report // keyed by id
}

// NewReportStore creates a new in-memory report store.
func NewReportStore() *ReportStore {
	return &ReportStore{
		data: make(map[string]*domain.Report),
	}
}

// Insert adds a new report. Returns ErrDuplicateKey if id exists.
func (s *ReportStore) Insert(_ context.Context, r *domain.Report) error {
	if r == nil || r.ID == "" || r.TenantID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.ID]; exists {
		return storage.ErrDuplicateKey
	}

	reportCopy := *r
	s.data[r.ID] = &reportCopy
	return nil
}

// GetByID retrieves a tenant's report. Returns ErrNotFound if not exists.
func (s *ReportStore) GetByID(_ context.Context, tenantID, id string) (*domain.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.data[id]
	if !ok || r.TenantID != tenantID {
		return nil, storage.ErrNotFound
	}
	reportCopy := *r
	return &reportCopy, nil
}

// ListByTenant retrieves up to limit reports, newest first.
func (s *ReportStore) ListByTenant(_ context.Context, tenantID string, limit int) ([]*domain.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Report
	for _, r := range s.data {
		if r.TenantID == tenantID {
			reportCopy := *r
			result = append(result, &reportCopy)
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
	return result, nil
}

// Verify interface compliance
var _ storage.ReportStore = (*ReportStore)(nil)
