package sqlite

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"underwriting-lab/internal/domain"
	"underwriting-lab/internal/idhash"
	"underwriting-lab/internal/storage"
)

func TestOutcomeStore_LinkAndCount(t *testing.T) {
	store := NewOutcomeStore(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, &domain.Outcome{
		ID: "o1", TenantID: "t1", Address: "5 Birch Rd",
		PurchasePrice: ptr(200000.0), ResalePrice: ptr(240000.0), CreatedAt: 1,
	}))
	require.NoError(t, store.Insert(ctx, &domain.Outcome{ID: "o2", TenantID: "t1", CreatedAt: 2}))

	got, err := store.GetByID(ctx, "t1", "o1")
	require.NoError(t, err)
	assert.Nil(t, got.ReportID)
	assert.Nil(t, got.MonthlyRent)
	require.NotNil(t, got.ResalePrice)
	assert.Equal(t, 240000.0, *got.ResalePrice)

	require.NoError(t, store.Link(ctx, "t1", "o1", "r1"))
	assert.ErrorIs(t, store.Link(ctx, "t1", "nope", "r1"), storage.ErrNotFound)

	n, err := store.CountLinked(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	unlinked, err := store.ListUnlinked(ctx, "t1", 0)
	require.NoError(t, err)
	require.Len(t, unlinked, 1)
	assert.Equal(t, "o2", unlinked[0].ID)
}

func TestFeedbackAndReportStores(t *testing.T) {
	db := setupTestDB(t)
	feedback := NewFeedbackStore(db)
	reports := NewReportStore(db)
	ctx := context.Background()

	in := domain.DefaultDealInputs("9 Cedar Ct")
	in.Price = ptr(180000.0)
	require.NoError(t, reports.Insert(ctx, &domain.Report{
		ID: "r1", TenantID: "t1", Address: in.Address, Inputs: in,
		Outputs:   domain.DealOutputs{Score: 64, Grade: "C", Verdict: domain.VerdictWatch},
		CreatedAt: 1,
	}))

	r, err := reports.GetByID(ctx, "t1", "r1")
	require.NoError(t, err)
	assert.Equal(t, domain.VerdictWatch, r.Outputs.Verdict)
	require.NotNil(t, r.Inputs.Price)
	assert.Equal(t, 180000.0, *r.Inputs.Price)

	require.NoError(t, feedback.Insert(ctx, &domain.Feedback{ID: "f1", TenantID: "t1", ReportID: "r1", Label: domain.FeedbackUp, CreatedAt: 2}))
	assert.ErrorIs(t, feedback.Insert(ctx, &domain.Feedback{ID: "f1", TenantID: "t1", ReportID: "r1", Label: domain.FeedbackUp}), storage.ErrDuplicateKey)

	list, err := feedback.ListByTenant(ctx, "t1", 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.FeedbackUp, list[0].Label)
}

func TestAuditStore_Chain(t *testing.T) {
	store := NewAuditStore(setupTestDB(t))
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		e := &domain.AuditEvent{
			ID:        fmt.Sprintf("e%d", i),
			TenantID:  "t1",
			EventType: domain.AuditEventModelPromoted,
			ActorID:   "u1",
			ActorRole: "owner",
			Payload:   map[string]any{"step": i, "override": i%2 == 0},
			CreatedAt: int64(i),
		}
		require.NoError(t, store.Append(ctx, e))
	}

	chain, err := store.Chain(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, chain, 4)
	assert.NoError(t, idhash.VerifyChain(chain))

	latest, err := store.ListByTenant(ctx, "t1", 2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, "e3", latest[0].ID)
}

func TestRetrainCursorStore(t *testing.T) {
	store := NewRetrainCursorStore(setupTestDB(t))
	ctx := context.Background()

	_, err := store.GetCursor(ctx, "t1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, store.SetCursor(ctx, &storage.RetrainCursor{TenantID: "t1", OutcomeRows: 31, LastTrainedAt: 5}))
	require.NoError(t, store.SetCursor(ctx, &storage.RetrainCursor{TenantID: "t1", OutcomeRows: 40, LastTrainedAt: 6}))

	c, err := store.GetCursor(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 40, c.OutcomeRows)
}
