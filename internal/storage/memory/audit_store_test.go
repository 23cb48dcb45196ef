package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"underwriting-lab/internal/domain"
	"underwriting-lab/internal/idhash"
	"underwriting-lab/internal/storage"
)

func newEvent(id, tenant string, at int64) *domain.AuditEvent {
	return &domain.AuditEvent{
		ID:        id,
		TenantID:  tenant,
		EventType: domain.AuditEventModelPromoted,
		ActorID:   "u1",
		ActorRole: "admin",
		Payload:   map[string]any{"to_model_id": "m1"},
		CreatedAt: at,
	}
}

func TestAuditStore_AppendChains(t *testing.T) {
	store := NewAuditStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := store.Append(ctx, newEvent(fmt.Sprintf("e%d", i), "t1", int64(i))); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}
	_ = store.Append(ctx, newEvent("x0", "t2", 0))

	chain, err := store.Chain(ctx, "t1")
	if err != nil {
		t.Fatalf("Chain failed: %v", err)
	}
	if len(chain) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(chain))
	}
	if chain[0].PrevHash != "" {
		t.Errorf("first PrevHash = %q, want empty", chain[0].PrevHash)
	}
	if err := idhash.VerifyChain(chain); err != nil {
		t.Errorf("VerifyChain() = %v", err)
	}

	// Chains are per tenant
	other, _ := store.Chain(ctx, "t2")
	if len(other) != 1 || other[0].PrevHash != "" {
		t.Errorf("t2 chain should start fresh, got %+v", other)
	}

	latest, _ := store.ListByTenant(ctx, "t1", 1)
	if len(latest) != 1 || latest[0].ID != "e2" {
		t.Errorf("ListByTenant(limit 1) = %+v, want [e2]", latest)
	}
}

func TestAuditStore_DuplicateKey(t *testing.T) {
	store := NewAuditStore()
	ctx := context.Background()

	_ = store.Append(ctx, newEvent("e1", "t1", 1))
	if err := store.Append(ctx, newEvent("e1", "t1", 2)); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestAuditStore_ConcurrentAppend(t *testing.T) {
	store := NewAuditStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = store.Append(ctx, newEvent(fmt.Sprintf("e%d", i), "t1", int64(i)))
		}(i)
	}
	wg.Wait()

	chain, _ := store.Chain(ctx, "t1")
	if len(chain) != 50 {
		t.Fatalf("Expected 50 events, got %d", len(chain))
	}
	if err := idhash.VerifyChain(chain); err != nil {
		t.Errorf("VerifyChain() after concurrent appends = %v", err)
	}
}
