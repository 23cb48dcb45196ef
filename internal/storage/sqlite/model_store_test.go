package sqlite

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"underwriting-lab/internal/domain"
	"underwriting-lab/internal/storage"
)

func newCandidate(id, tenant string, createdAt int64) *domain.ModelRecord {
	return &domain.ModelRecord{
		ID:        id,
		TenantID:  tenant,
		Name:      "candidate " + id,
		Status:    domain.ModelStatusCandidate,
		Weights:   domain.ModelWeights{domain.BiasKey: -0.2, "dscr": 0.9},
		Metrics:   domain.ModelMetrics{Val: domain.ClassificationMetrics{N: 8, F1: 0.6}},
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestModelStore_LifeCycle(t *testing.T) {
	db := setupTestDB(t)
	store := NewModelStore(db)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, newCandidate("m1", "t1", 1000)))
	require.NoError(t, store.Insert(ctx, newCandidate("m2", "t1", 2000)))
	assert.ErrorIs(t, store.Insert(ctx, newCandidate("m1", "t1", 1000)), storage.ErrDuplicateKey)

	got, err := store.GetByID(ctx, "t1", "m1")
	require.NoError(t, err)
	assert.InDelta(t, 0.9, got.Weights["dscr"], 1e-12)
	assert.InDelta(t, 0.6, got.Metrics.Val.F1, 1e-12)

	prev, err := store.ActivateExclusive(ctx, "t1", "m1", 3000)
	require.NoError(t, err)
	assert.Nil(t, prev)

	prev, err = store.ActivateExclusive(ctx, "t1", "m2", 4000)
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Equal(t, "m1", prev.ID)

	_, err = store.ActivateExclusive(ctx, "t1", "m1", 5000)
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)

	active, err := store.GetActive(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "m2", active.ID)

	require.NoError(t, store.Archive(ctx, "t1", "m2", 6000))
	_, err = store.GetActive(ctx, "t1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	list, err := store.ListByTenant(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, m := range list {
		assert.Equal(t, domain.ModelStatusArchived, m.Status)
	}
}

func TestModelStore_ConcurrentActivation(t *testing.T) {
	db := setupTestDB(t)
	store := NewModelStore(db)
	ctx := context.Background()

	const n = 20
	for i := 0; i < n; i++ {
		require.NoError(t, store.Insert(ctx, newCandidate(fmt.Sprintf("m%d", i), "t1", int64(i))))
	}

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = store.ActivateExclusive(ctx, "t1", fmt.Sprintf("m%d", i), int64(100+i))
		}(i)
	}
	wg.Wait()

	var active int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM model_versions WHERE tenant_id = 't1' AND status = 'active'`).Scan(&active)
	require.NoError(t, err)
	assert.Equal(t, 1, active)
}
