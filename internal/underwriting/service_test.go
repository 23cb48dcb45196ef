package underwriting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"underwriting-lab/internal/domain"
	"underwriting-lab/internal/learning"
	"underwriting-lab/internal/observability"
	"underwriting-lab/internal/registry"
	"underwriting-lab/internal/storage"
	"underwriting-lab/internal/storage/memory"
)

type serviceFixture struct {
	svc     *Service
	reg     *registry.Registry
	reports *memory.ReportStore
	runs    *memory.RunStore
}

func newServiceFixture(t *testing.T, signals SignalProvider) *serviceFixture {
	t.Helper()
	clock := func() time.Time { return time.UnixMilli(1_700_000_000_000) }
	reg := registry.New(memory.NewModelStore()).WithClock(clock)
	reports := memory.NewReportStore()
	runs := memory.NewRunStore()
	svc := NewService(ServiceOptions{
		Registry: reg,
		Reports:  reports,
		Runs:     runs,
		Signals:  signals,
		Metrics:  observability.NewMetrics("test", prometheus.NewRegistry()),
		Logger:   zerolog.Nop(),
		Clock:    clock,
	})
	return &serviceFixture{svc: svc, reg: reg, reports: reports, runs: runs}
}

type failingSignals struct{}

func (failingSignals) Signals(context.Context, *domain.DealInputs) (*Signals, error) {
	return nil, errors.New("provider down")
}

func TestService_UnderwriteStoresReportAndSnapshot(t *testing.T) {
	f := newServiceFixture(t, nil)
	ctx := context.Background()

	report, err := f.svc.Underwrite(ctx, Request{TenantID: "t1", Inputs: scenario()})
	require.NoError(t, err)

	assert.NotEmpty(t, report.ID)
	assert.Equal(t, "t1", report.TenantID)
	assert.Equal(t, int64(1_700_000_000_000), report.CreatedAt)
	assert.InDelta(t, 51.04, report.Outputs.Score, 0.01)
	require.NotNil(t, report.Payload.Underwriting.CapRate)
	assert.InDelta(t, 0.06, *report.Payload.Underwriting.CapRate, 1e-9)

	stored, err := f.reports.GetByID(ctx, "t1", report.ID)
	require.NoError(t, err)
	assert.Equal(t, report.Outputs.Score, stored.Outputs.Score)

	runs, err := f.runs.GetByTenant(ctx, "t1", 0, 2_000_000_000_000)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, report.ID, runs[0].ReportID)
	assert.Empty(t, runs[0].ModelID)
	assert.Equal(t, string(domain.VerdictAvoid), runs[0].Verdict)
}

func TestService_UnderwriteUsesActiveModel(t *testing.T) {
	f := newServiceFixture(t, nil)
	ctx := context.Background()

	weights := learning.BaselineWeights()
	weights[domain.FeatureRentToPrice] = 0
	m, err := f.reg.CreateCandidate(ctx, "t1", registry.CandidateSpec{Name: "tuned", Weights: weights})
	require.NoError(t, err)
	_, err = f.reg.Activate(ctx, "t1", m.ID)
	require.NoError(t, err)

	report, err := f.svc.Underwrite(ctx, Request{TenantID: "t1", Inputs: scenario()})
	require.NoError(t, err)
	require.NotNil(t, report.Outputs.AIMeta)
	assert.Equal(t, "tuned", report.Outputs.AIMeta.ModelName)

	runs, err := f.runs.GetByTenant(ctx, "t1", 0, 2_000_000_000_000)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, m.ID, runs[0].ModelID)

	// other tenants keep the baseline
	other, err := f.svc.Underwrite(ctx, Request{TenantID: "t2", Inputs: scenario()})
	require.NoError(t, err)
	assert.Equal(t, learning.BaselineModelName, other.Outputs.AIMeta.ModelName)
}

func TestService_UnderwriteSignalFailureFallsBack(t *testing.T) {
	f := newServiceFixture(t, failingSignals{})

	report, err := f.svc.Underwrite(context.Background(), Request{TenantID: "t1", Inputs: scenario()})
	require.NoError(t, err)
	assert.InDelta(t, 51.04, report.Outputs.Score, 0.01)
}

func TestService_UnderwriteInvalid(t *testing.T) {
	f := newServiceFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.Underwrite(ctx, Request{Inputs: scenario()})
	assert.ErrorIs(t, err, ErrInvalidInputs)

	in := scenario()
	in.Address = ""
	_, err = f.svc.Underwrite(ctx, Request{TenantID: "t1", Inputs: in})
	assert.ErrorIs(t, err, ErrInvalidInputs)

	reports, err := f.reports.ListByTenant(ctx, "t1", 0)
	require.NoError(t, err)
	assert.Empty(t, reports)
}

func TestService_UnderwriteDuplicateReport(t *testing.T) {
	f := newServiceFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.Underwrite(ctx, Request{TenantID: "t1", Inputs: scenario()})
	require.NoError(t, err)

	// same tenant, address, inputs and timestamp hash to the same id
	_, err = f.svc.Underwrite(ctx, Request{TenantID: "t1", Inputs: scenario()})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestService_Grade(t *testing.T) {
	f := newServiceFixture(t, nil)

	in := scenario()
	out, err := Run(&in, Options{})
	require.NoError(t, err)
	payload := BuildPayload(&in, &out.Metrics, nil)

	g, err := f.svc.Grade(context.Background(), "t1", payload)
	require.NoError(t, err)
	assert.InDelta(t, 86.39, g.Score, 0.01)
	assert.NotEmpty(t, g.Grade)
	require.NotNil(t, g.Meta)
	assert.Equal(t, learning.BaselineModelName, g.Meta.ModelName)
}
