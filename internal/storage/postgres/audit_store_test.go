package postgres

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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
		Payload: map[string]any{
			"to_model_id": "m1",
			"override":    false,
			"guardrails":  domain.GuardrailConfig{Enabled: true, MinLinkedOutcomes: 50, MinF1Margin: 0.01},
		},
		CreatedAt: at,
	}
}

func TestAuditStore_ChainSurvivesRoundTrip(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAuditStore(pool)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Append(ctx, newEvent(fmt.Sprintf("e%d", i), "t1", int64(i))))
	}
	require.NoError(t, store.Append(ctx, newEvent("x0", "t2", 0)))

	chain, err := store.Chain(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, chain, 3)
	assert.Empty(t, chain[0].PrevHash)
	assert.NoError(t, idhash.VerifyChain(chain))

	latest, err := store.ListByTenant(ctx, "t1", 1)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, "e2", latest[0].ID)

	err = store.Append(ctx, newEvent("e0", "t1", 9))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestAuditStore_ConcurrentAppend(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAuditStore(pool)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, store.Append(ctx, newEvent(fmt.Sprintf("e%d", i), "t1", int64(i))))
		}(i)
	}
	wg.Wait()

	chain, err := store.Chain(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, chain, 10)
	assert.NoError(t, idhash.VerifyChain(chain))
}

func TestRetrainCursorStore_Upsert(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewRetrainCursorStore(pool)
	ctx := context.Background()

	_, err := store.GetCursor(ctx, "t1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, store.SetCursor(ctx, &storage.RetrainCursor{TenantID: "t1", FeedbackRows: 20, LastTrainedAt: 1}))
	require.NoError(t, store.SetCursor(ctx, &storage.RetrainCursor{TenantID: "t1", FeedbackRows: 30, OutcomeRows: 5, LastTrainedAt: 2}))

	c, err := store.GetCursor(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 30, c.FeedbackRows)
	assert.Equal(t, 5, c.OutcomeRows)
	assert.Equal(t, int64(2), c.LastTrainedAt)
}
