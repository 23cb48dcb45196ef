package governance

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"underwriting-lab/internal/domain"
	"underwriting-lab/internal/idhash"
	"underwriting-lab/internal/observability"
	"underwriting-lab/internal/registry"
	"underwriting-lab/internal/storage"
	"underwriting-lab/internal/storage/memory"
)

const tenant = "acme"

type fixture struct {
	reg      *registry.Registry
	outcomes *memory.OutcomeStore
	audit    *memory.AuditStore
	metrics  *observability.Metrics
	g        *Guardrail
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	f := &fixture{
		reg:      registry.New(memory.NewModelStore()),
		outcomes: memory.NewOutcomeStore(),
		audit:    memory.NewAuditStore(),
		metrics:  observability.NewMetrics("test", prometheus.NewRegistry()),
	}
	f.g = New(cfg, f.reg, f.outcomes, f.audit, f.metrics, zerolog.Nop()).
		WithClock(func() time.Time { return time.UnixMilli(1700000000000) })
	return f
}

func (f *fixture) candidate(t *testing.T, name string, valF1 float64) *domain.ModelRecord {
	t.Helper()
	m, err := f.reg.CreateCandidate(context.Background(), tenant, registry.CandidateSpec{
		Name:    name,
		Weights: domain.ModelWeights{domain.BiasKey: 0.1},
		Metrics: domain.ModelMetrics{Val: domain.ClassificationMetrics{N: 10, F1: valF1}},
	})
	require.NoError(t, err)
	return m
}

func (f *fixture) linkOutcomes(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		rid := fmt.Sprintf("r%d", i)
		require.NoError(t, f.outcomes.Insert(context.Background(), &domain.Outcome{
			ID:        fmt.Sprintf("o%d", i),
			TenantID:  tenant,
			ReportID:  &rid,
			CreatedAt: int64(i),
		}))
	}
}

func request(candidateID, role string, override bool) Request {
	return Request{
		TenantID:      tenant,
		CandidateID:   candidateID,
		Actor:         domain.Actor{ID: "user-1", Role: role},
		Justification: "  val F1 improved on 60 outcomes  ",
		Override:      override,
	}
}

func (f *fixture) chain(t *testing.T) []*domain.AuditEvent {
	t.Helper()
	events, err := f.audit.Chain(context.Background(), tenant)
	require.NoError(t, err)
	return events
}

func TestActivate_PassesGuardrails(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.linkOutcomes(t, 50)
	c := f.candidate(t, "v1", 0.6)

	decision, blocked, err := f.g.Activate(context.Background(), request(c.ID, "member", false))
	require.NoError(t, err)
	require.Nil(t, blocked)
	require.NotNil(t, decision)

	assert.Equal(t, c.ID, decision.CandidateID)
	assert.Empty(t, decision.PreviousActiveID)
	assert.False(t, decision.Override)
	assert.Empty(t, decision.BlockedReason)
	assert.Equal(t, 50, decision.LinkedOutcomes)
	assert.Equal(t, "val F1 improved on 60 outcomes", decision.Justification)
	assert.Equal(t, int64(1700000000000), decision.DecidedAt)

	active, err := f.reg.Active(context.Background(), tenant)
	require.NoError(t, err)
	assert.Equal(t, c.ID, active.ID)

	events := f.chain(t)
	require.Len(t, events, 1)
	e := events[0]
	assert.Equal(t, decision.AuditEventID, e.ID)
	assert.Equal(t, domain.AuditEventModelPromoted, e.EventType)
	assert.Equal(t, "user-1", e.ActorID)
	assert.Equal(t, false, e.Payload["override"])
	assert.NotContains(t, e.Payload, "blocked_reason")
	assert.Equal(t, c.ID, e.Payload["to_model_id"])
	assert.Equal(t, "", e.Payload["from_model_id"])
	assert.NoError(t, idhash.VerifyChain(events))

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Promotions.WithLabelValues(observability.PromotionActivated)))
}

func TestActivate_BlockedWithoutOverride(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.linkOutcomes(t, 5)
	c := f.candidate(t, "v1", 0.9)

	decision, blocked, err := f.g.Activate(context.Background(), request(c.ID, "admin", false))
	require.NoError(t, err)
	assert.Nil(t, decision)
	require.NotNil(t, blocked)
	assert.Equal(t, "Need at least 50 linked outcomes (have 5).", blocked.Reason)
	assert.Len(t, blocked.Checks, 2)

	active, err := f.reg.Active(context.Background(), tenant)
	require.NoError(t, err)
	assert.Nil(t, active, "blocked promotion must not activate")
	assert.Empty(t, f.chain(t), "blocked promotion must not be audited")
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Promotions.WithLabelValues(observability.PromotionBlocked)))
}

func TestActivate_OverrideByAdmin(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.linkOutcomes(t, 60)
	first := f.candidate(t, "v1", 0.8)
	_, err := f.reg.Activate(context.Background(), tenant, first.ID)
	require.NoError(t, err)

	worse := f.candidate(t, "v2", 0.5)
	decision, blocked, err := f.g.Activate(context.Background(), request(worse.ID, "Owner", true))
	require.NoError(t, err)
	require.Nil(t, blocked)
	require.NotNil(t, decision)

	assert.True(t, decision.Override)
	assert.Equal(t, first.ID, decision.PreviousActiveID)
	assert.Contains(t, decision.BlockedReason, "Candidate val F1 (0.50) must exceed active (0.80)")

	events := f.chain(t)
	require.Len(t, events, 1)
	p := events[0].Payload
	assert.Equal(t, true, p["override"])
	assert.Equal(t, decision.BlockedReason, p["blocked_reason"])
	assert.Equal(t, first.ID, p["from_model_id"])
	assert.Equal(t, "v1", p["from_model_name"])
	assert.Equal(t, 60, p["linked_outcomes"])

	prev, err := f.reg.Get(context.Background(), tenant, first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ModelStatusArchived, prev.Status)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Promotions.WithLabelValues(observability.PromotionOverridden)))
}

func TestActivate_OverrideDeniedForMember(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	c := f.candidate(t, "v1", 0.9)

	decision, blocked, err := f.g.Activate(context.Background(), request(c.ID, "member", true))
	assert.ErrorIs(t, err, ErrOverrideNotPermitted)
	assert.Nil(t, decision)
	assert.Nil(t, blocked)

	active, err := f.reg.Active(context.Background(), tenant)
	require.NoError(t, err)
	assert.Nil(t, active)
	assert.Empty(t, f.chain(t))
}

func TestActivate_OverrideFlagIgnoredWhenNotBlocked(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.linkOutcomes(t, 50)
	c := f.candidate(t, "v1", 0.5)

	decision, _, err := f.g.Activate(context.Background(), request(c.ID, "member", true))
	require.NoError(t, err)
	assert.False(t, decision.Override)
}

func TestActivate_GuardrailsDisabled(t *testing.T) {
	f := newFixture(t, Config{Enabled: false, MinLinkedOutcomes: 50, MinF1Margin: 0.01})
	c := f.candidate(t, "v1", 0)

	decision, blocked, err := f.g.Activate(context.Background(), request(c.ID, "member", false))
	require.NoError(t, err)
	assert.Nil(t, blocked)
	assert.False(t, decision.Guardrails.Enabled)
	assert.Len(t, f.chain(t), 1)
}

func TestActivate_JustificationTooShort(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	c := f.candidate(t, "v1", 0.9)

	req := request(c.ID, "admin", false)
	req.Justification = "  short  "
	_, _, err := f.g.Activate(context.Background(), req)
	assert.ErrorIs(t, err, ErrJustificationTooShort)
}

func TestActivate_InvalidRequests(t *testing.T) {
	f := newFixture(t, Config{Enabled: false})
	c := f.candidate(t, "v1", 0.9)

	req := request(c.ID, "", false)
	_, _, err := f.g.Activate(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidActor)

	req = request("", "admin", false)
	_, _, err = f.g.Activate(context.Background(), req)
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	req = request("missing", "admin", false)
	_, _, err = f.g.Activate(context.Background(), req)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestActivate_NonCandidateRejected(t *testing.T) {
	f := newFixture(t, Config{Enabled: false})
	c := f.candidate(t, "v1", 0.9)
	_, _, err := f.g.Activate(context.Background(), request(c.ID, "admin", false))
	require.NoError(t, err)

	_, _, err = f.g.Activate(context.Background(), request(c.ID, "admin", false))
	assert.True(t, errors.Is(err, domain.ErrIllegalTransition))
	assert.Len(t, f.chain(t), 1)
}

func TestIsElevated(t *testing.T) {
	assert.True(t, IsElevated("owner"))
	assert.True(t, IsElevated(" ADMIN "))
	assert.False(t, IsElevated("member"))
	assert.False(t, IsElevated(""))
}

// flakyAudit fails the first failures appends. With lostAck set the failing
// appends are stored before the error is returned.
type flakyAudit struct {
	*memory.AuditStore
	failures int
	lostAck  bool
	calls    int
}

func (a *flakyAudit) Append(ctx context.Context, e *domain.AuditEvent) error {
	a.calls++
	if a.calls > a.failures {
		return a.AuditStore.Append(ctx, e)
	}
	if a.lostAck {
		if err := a.AuditStore.Append(ctx, e); err != nil {
			return err
		}
	}
	return errors.New("connection reset")
}

func TestActivate_RetriesAuditAppend(t *testing.T) {
	tests := []struct {
		name     string
		failures int
		lostAck  bool
		wantErr  bool
	}{
		{"recovers after one failure", 1, false, false},
		{"recovers after two failures", 2, false, false},
		{"stored but unacknowledged", 1, true, false},
		{"gives up", auditAttempts, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, Config{Enabled: false})
			audit := &flakyAudit{AuditStore: f.audit, failures: tt.failures, lostAck: tt.lostAck}
			f.g = New(Config{Enabled: false}, f.reg, f.outcomes, audit, f.metrics, zerolog.Nop())
			c := f.candidate(t, "v1", 0.6)

			decision, _, err := f.g.Activate(context.Background(), request(c.ID, "member", false))
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, decision)
				assert.Empty(t, f.chain(t))
				assert.Equal(t, auditAttempts, audit.calls)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, decision)

			events := f.chain(t)
			require.Len(t, events, 1)
			assert.Equal(t, decision.AuditEventID, events[0].ID)
			assert.NoError(t, idhash.VerifyChain(events))
		})
	}
}
