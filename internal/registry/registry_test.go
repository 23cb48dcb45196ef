package registry

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"underwriting-lab/internal/domain"
	"underwriting-lab/internal/learning"
	"underwriting-lab/internal/storage"
	"underwriting-lab/internal/storage/memory"
)

func fixedClock(ms int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(ms) }
}

func spec(name string) CandidateSpec {
	return CandidateSpec{
		Name:    name,
		Weights: domain.ModelWeights{domain.BiasKey: 0.1, domain.FeatureDSCR: 2.0},
	}
}

func TestRegistry_BaselineWhenNoActive(t *testing.T) {
	r := New(memory.NewModelStore())
	ctx := context.Background()

	active, err := r.Active(ctx, "t1")
	require.NoError(t, err)
	assert.Nil(t, active)

	ref, err := r.ActiveModel(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, learning.BaselineModelName, ref.Name)
	assert.Equal(t, learning.BaselineWeights(), ref.Weights)
}

func TestRegistry_CreateAndActivate(t *testing.T) {
	r := New(memory.NewModelStore()).WithClock(fixedClock(1700000000000))
	ctx := context.Background()

	m1, err := r.CreateCandidate(ctx, "t1", spec("first"))
	require.NoError(t, err)
	assert.Equal(t, domain.ModelStatusCandidate, m1.Status)
	assert.Equal(t, int64(1700000000000), m1.CreatedAt)
	assert.NotEmpty(t, m1.ID)

	m2, err := r.CreateCandidate(ctx, "t1", spec(""))
	require.NoError(t, err)
	assert.Contains(t, m2.Name, "candidate 2023-11-14")

	prev, err := r.Activate(ctx, "t1", m1.ID)
	require.NoError(t, err)
	assert.Nil(t, prev)

	w, err := r.ActiveWeights(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 2.0, w[domain.FeatureDSCR])

	prev, err = r.Activate(ctx, "t1", m2.ID)
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Equal(t, m1.ID, prev.ID)

	ref, err := r.ActiveModel(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, m2.ID, ref.ID)

	// Tenants are isolated
	other, err := r.ActiveModel(ctx, "t2")
	require.NoError(t, err)
	assert.Equal(t, learning.BaselineModelName, other.Name)
}

func TestRegistry_IllegalTransitions(t *testing.T) {
	r := New(memory.NewModelStore())
	ctx := context.Background()

	m, err := r.CreateCandidate(ctx, "t1", spec("m"))
	require.NoError(t, err)

	err = r.Archive(ctx, "t1", m.ID)
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)

	_, err = r.Activate(ctx, "t1", m.ID)
	require.NoError(t, err)
	_, err = r.Activate(ctx, "t1", m.ID)
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)

	require.NoError(t, r.Archive(ctx, "t1", m.ID))
	_, err = r.Activate(ctx, "t1", m.ID)
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)

	_, err = r.Activate(ctx, "t1", "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRegistry_CreateCandidateRejectsEmptyWeights(t *testing.T) {
	r := New(memory.NewModelStore())

	_, err := r.CreateCandidate(context.Background(), "t1", CandidateSpec{Name: "empty"})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestRegistry_RapidActivationsKeepOneActive(t *testing.T) {
	r := New(memory.NewModelStore())
	ctx := context.Background()

	var ids []string
	for i := 0; i < 16; i++ {
		m, err := r.CreateCandidate(ctx, "t1", spec(fmt.Sprintf("m%d", i)))
		require.NoError(t, err)
		ids = append(ids, m.ID)
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(2)
		go func(id string) {
			defer wg.Done()
			_, _ = r.Activate(ctx, "t1", id)
		}(id)
		// Readers run alongside activations and must always see one model
		go func() {
			defer wg.Done()
			_, err := r.ActiveModel(ctx, "t1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	list, err := r.List(ctx, "t1")
	require.NoError(t, err)
	active := 0
	for _, m := range list {
		if m.Status == domain.ModelStatusActive {
			active++
		}
	}
	assert.Equal(t, 1, active)
}
