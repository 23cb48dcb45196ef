package memory

import (
	"context"
	"sort"
	"sync"

	"underwriting-lab/internal/domain"
	"underwriting-lab/internal/storage"
)

// RunStore is an in-memory implementation of storage.RunStore.
type RunStore struct {
	mu   sync.RWMutex
	data map[string]*domain.RunSnapshot // keyed by report_id
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{
		data: make(map[string]*domain.RunSnapshot),
	}
}

// Insert adds a run snapshot. Returns ErrDuplicateKey if report_id exists.
func (s *RunStore) Insert(_ context.Context, r *domain.RunSnapshot) error {
	if r == nil || r.ReportID == "" || r.TenantID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.ReportID]; exists {
		return storage.ErrDuplicateKey
	}

	runCopy := *r
	s.data[r.ReportID] = &runCopy
	return nil
}

// InsertBulk adds multiple snapshots. Fails entire batch on duplicate.
func (s *RunStore) InsertBulk(_ context.Context, runs []*domain.RunSnapshot) error {
	if len(runs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(runs))

	// First pass: check for duplicates (existing + intra-batch)
	for _, r := range runs {
		if r == nil || r.ReportID == "" || r.TenantID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[r.ReportID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[r.ReportID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[r.ReportID] = struct{}{}
	}

	// Second pass: insert all
	for _, r := range runs {
		runCopy := *r
		s.data[r.ReportID] = &runCopy
	}
	return nil
}

// GetByTenant retrieves runs within [start, end] (inclusive), ordered by created_at ASC.
func (s *RunStore) GetByTenant(_ context.Context, tenantID string, start, end int64) ([]*domain.RunSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.RunSnapshot
	for _, r := range s.data {
		if r.TenantID == tenantID && r.CreatedAt >= start && r.CreatedAt <= end {
			runCopy := *r
			result = append(result, &runCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt != result[j].CreatedAt {
			return result[i].CreatedAt < result[j].CreatedAt
		}
		return result[i].ReportID < result[j].ReportID
	})

	return result, nil
}

// Verify interface compliance
var _ storage.RunStore = (*RunStore)(nil)
