package memory

import (
	"context"
	"sort"
	"sync"

	"underwriting-lab/internal/domain"
	"underwriting-lab/internal/storage"
)

// FeedbackStore is an in-memory implementation of storage.FeedbackStore.
type FeedbackStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Feedback // keyed by id
}

// NewFeedbackStore creates a new in-memory feedback store.
func NewFeedbackStore() *FeedbackStore {
	return &FeedbackStore{
		data: make(map[string]*domain.Feedback),
	}
}

// Insert adds new feedback. Returns ErrDuplicateKey if id exists.
func (s *FeedbackStore) Insert(_ context.Context, f *domain.Feedback) error {
	if f == nil || f.ID == "" || f.TenantID == "" || f.ReportID == "" {
		return storage.ErrInvalidInput
	}
	if f.Label != domain.FeedbackUp && f.Label != domain.FeedbackDown {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[f.ID]; exists {
		return storage.ErrDuplicateKey
	}

	feedbackCopy := *f
	s.data[f.ID] = &feedbackCopy
	return nil
}

// ListByTenant retrieves up to limit feedback entries, newest first.
func (s *FeedbackStore) ListByTenant(_ context.Context, tenantID string, limit int) ([]*domain.Feedback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Feedback
	for _, f := range s.data {
		if f.TenantID == tenantID {
			feedbackCopy := *f
			result = append(result, &feedbackCopy)
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
var _ storage.FeedbackStore = (*FeedbackStore)(nil)
