package memory

import (
	"context"
	"sync"

	"underwriting-lab/internal/storage"
)

// RetrainCursorStore is an in-memory implementation of storage.RetrainCursorStore.
type RetrainCursorStore struct {
	mu      sync.RWMutex
	cursors map[string]storage.RetrainCursor // keyed by tenant_id
}

// NewRetrainCursorStore creates a new in-memory retrain cursor store.
func NewRetrainCursorStore() *RetrainCursorStore {
	return &RetrainCursorStore{
		cursors: make(map[string]storage.RetrainCursor),
	}
}

// GetCursor returns the tenant's cursor.
func (s *RetrainCursorStore) GetCursor(_ context.Context, tenantID string) (*storage.RetrainCursor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.cursors[tenantID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &c, nil
}

// SetCursor saves the tenant's cursor.
func (s *RetrainCursorStore) SetCursor(_ context.Context, c *storage.RetrainCursor) error {
	if c == nil || c.TenantID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cursors[c.TenantID] = *c
	return nil
}

// Verify interface compliance
var _ storage.RetrainCursorStore = (*RetrainCursorStore)(nil)
