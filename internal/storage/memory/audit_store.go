package memory

import (
	"context"
	"fmt"
	"sync"

	"underwriting-lab/internal/domain"
	"underwriting-lab/internal/idhash"
	"underwriting-lab/internal/storage"
)

// AuditStore is an in-memory implementation of storage.AuditStore.
type AuditStore struct {
	mu     sync.RWMutex
	chains map[string][]*domain.AuditEvent // keyed by tenant_id, append order
	ids    map[string]struct{}
}

// NewAuditStore creates a new in-memory audit store.
func NewAuditStore() *AuditStore {
	return &AuditStore{
		chains: make(map[string][]*domain.AuditEvent),
		ids:    make(map[string]struct{}),
	}
}

// Append links e to the tenant's chain and stores it.
func (s *AuditStore) Append(_ context.Context, e *domain.AuditEvent) error {
	if e == nil || e.ID == "" || e.TenantID == "" || e.EventType == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ids[e.ID]; exists {
		return storage.ErrDuplicateKey
	}

	prev := ""
	if chain := s.chains[e.TenantID]; len(chain) > 0 {
		prev = chain[len(chain)-1].Hash
	}
	if err := idhash.Seal(e, prev); err != nil {
		return fmt.Errorf("seal audit event: %w", err)
	}

	s.chains[e.TenantID] = append(s.chains[e.TenantID], copyEvent(e))
	s.ids[e.ID] = struct{}{}
	return nil
}

// ListByTenant retrieves up to limit events, newest first.
func (s *AuditStore) ListByTenant(_ context.Context, tenantID string, limit int) ([]*domain.AuditEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chain := s.chains[tenantID]
	result := make([]*domain.AuditEvent, 0, len(chain))
	for i := len(chain) - 1; i >= 0; i-- {
		if limit > 0 && len(result) == limit {
			break
		}
		result = append(result, copyEvent(chain[i]))
	}
	return result, nil
}

// Chain retrieves every event of a tenant in append order.
func (s *AuditStore) Chain(_ context.Context, tenantID string) ([]*domain.AuditEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chain := s.chains[tenantID]
	result := make([]*domain.AuditEvent, len(chain))
	for i, e := range chain {
		result[i] = copyEvent(e)
	}
	return result, nil
}

func copyEvent(e *domain.AuditEvent) *domain.AuditEvent {
	c := *e
	if e.Payload != nil {
		c.Payload = make(map[string]any, len(e.Payload))
		for k, v := range e.Payload {
			c.Payload[k] = v
		}
	}
	return &c
}

// Verify interface compliance
var _ storage.AuditStore = (*AuditStore)(nil)
