package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"underwriting-lab/internal/domain"
	"underwriting-lab/internal/storage"
)

func TestReportStore_RoundTrip(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewReportStore(pool)
	ctx := context.Background()

	in := domain.DefaultDealInputs("123 Main St")
	in.Price = ptr(300000.0)
	in.MonthlyRent = ptr(2500.0)

	r := &domain.Report{
		ID:       "r1",
		TenantID: "t1",
		Address:  in.Address,
		Inputs:   in,
		Outputs: domain.DealOutputs{
			Score:   51.04,
			Grade:   "F",
			Verdict: domain.VerdictAvoid,
			Flags:   []string{"DSCR risk"},
		},
		Payload: domain.FeaturePayload{
			Underwriting: domain.UnderwritingSignals{CapRate: ptr(0.0704), DSCR: ptr(1.03)},
		},
		CreatedAt: 1000,
	}
	require.NoError(t, store.Insert(ctx, r))
	assert.ErrorIs(t, store.Insert(ctx, r), storage.ErrDuplicateKey)

	got, err := store.GetByID(ctx, "t1", "r1")
	require.NoError(t, err)
	require.NotNil(t, got.Inputs.Price)
	assert.InDelta(t, 300000.0, *got.Inputs.Price, 1e-9)
	assert.Equal(t, domain.VerdictAvoid, got.Outputs.Verdict)
	assert.Equal(t, []string{"DSCR risk"}, got.Outputs.Flags)
	require.NotNil(t, got.Payload.Underwriting.DSCR)
	assert.InDelta(t, 1.03, *got.Payload.Underwriting.DSCR, 1e-12)

	_, err = store.GetByID(ctx, "t2", "r1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
