// Package governance gates model promotion behind guardrail checks and
// records every activation in the tenant's audit log.
package governance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"underwriting-lab/internal/domain"
	"underwriting-lab/internal/observability"
	"underwriting-lab/internal/registry"
	"underwriting-lab/internal/storage"
)

var validate = validator.New()

const (
	auditAttempts   = 3
	auditRetryDelay = 20 * time.Millisecond
)

// elevatedRoles may override a blocked promotion.
var elevatedRoles = map[string]bool{
	"owner": true,
	"admin": true,
}

// IsElevated reports whether role may override guardrails.
func IsElevated(role string) bool {
	return elevatedRoles[strings.ToLower(strings.TrimSpace(role))]
}

// Guardrail promotes candidates to active under the configured checks.
type Guardrail struct {
	cfg      Config
	registry *registry.Registry
	outcomes storage.OutcomeStore
	audit    storage.AuditStore
	metrics  *observability.Metrics
	log      zerolog.Logger
	now      func() time.Time
}

// New creates a guardrail. metrics may be nil.
func New(cfg Config, reg *registry.Registry, outcomes storage.OutcomeStore, audit storage.AuditStore,
	metrics *observability.Metrics, log zerolog.Logger) *Guardrail {
	return &Guardrail{
		cfg:      cfg,
		registry: reg,
		outcomes: outcomes,
		audit:    audit,
		metrics:  metrics,
		log:      log.With().Str("component", "governance").Logger(),
		now:      time.Now,
	}
}

// WithClock overrides the guardrail clock. Used by tests.
func (g *Guardrail) WithClock(now func() time.Time) *Guardrail {
	g.now = now
	return g
}

// Config returns the thresholds in effect.
func (g *Guardrail) Config() Config {
	return g.cfg
}

// Assess evaluates the checks for a candidate without activating anything.
func (g *Guardrail) Assess(ctx context.Context, tenantID, candidateID string) (*Assessment, error) {
	candidate, err := g.registry.Get(ctx, tenantID, candidateID)
	if err != nil {
		return nil, fmt.Errorf("get candidate: %w", err)
	}
	if candidate.Status != domain.ModelStatusCandidate {
		return nil, fmt.Errorf("model %s is %s: %w", candidateID, candidate.Status, domain.ErrIllegalTransition)
	}

	active, err := g.registry.Active(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	linked, err := g.outcomes.CountLinked(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("count linked outcomes: %w", err)
	}

	in := CheckInput{
		LinkedOutcomes: linked,
		CandidateValF1: candidate.Metrics.Val.F1,
	}
	if active != nil {
		in.ActiveValF1 = active.Metrics.Val.F1
	}

	checks := Evaluate(g.cfg, in)
	return &Assessment{
		TenantID:      tenantID,
		Candidate:     candidate,
		Active:        active,
		Input:         in,
		Config:        g.cfg,
		Checks:        checks,
		BlockedReason: BlockedReason(checks),
	}, nil
}

// Activate runs the guardrail for req. Exactly one of the results is set on
// success: a decision when the candidate was activated and audited, or a
// Blocked value when the checks failed and no override was requested.
func (g *Guardrail) Activate(ctx context.Context, req Request) (*domain.PromotionDecision, *Blocked, error) {
	justification := strings.TrimSpace(req.Justification)
	if len([]rune(justification)) < MinJustificationLen {
		return nil, nil, ErrJustificationTooShort
	}
	if err := validate.Struct(req.Actor); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidActor, err)
	}
	if err := validate.Struct(req); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", storage.ErrInvalidInput, err)
	}

	a, err := g.Assess(ctx, req.TenantID, req.CandidateID)
	if err != nil {
		return nil, nil, err
	}

	logger := g.log.With().
		Str("tenant", req.TenantID).
		Str("candidate", req.CandidateID).
		Str("actor", req.Actor.ID).
		Int("linked_outcomes", a.Input.LinkedOutcomes).
		Logger()

	overridden := false
	if a.Blocked() {
		if !req.Override {
			g.metrics.RecordPromotion(observability.PromotionBlocked)
			logger.Warn().Str("reason", a.BlockedReason).Msg("promotion blocked by guardrails")
			return nil, &Blocked{Reason: a.BlockedReason, Checks: a.Checks}, nil
		}
		if !IsElevated(req.Actor.Role) {
			g.metrics.RecordPromotion(observability.PromotionDenied)
			logger.Warn().Str("role", req.Actor.Role).Msg("guardrail override denied")
			return nil, nil, ErrOverrideNotPermitted
		}
		overridden = true
	}

	prev, err := g.registry.Activate(ctx, req.TenantID, req.CandidateID)
	if err != nil {
		return nil, nil, err
	}

	at := g.now().UnixMilli()
	event := &domain.AuditEvent{
		ID:        uuid.NewString(),
		TenantID:  req.TenantID,
		EventType: domain.AuditEventModelPromoted,
		ActorID:   req.Actor.ID,
		ActorRole: req.Actor.Role,
		Payload:   promotionPayload(a, prev, justification, overridden),
		CreatedAt: at,
	}
	if err := g.appendAudit(ctx, event, logger); err != nil {
		logger.Error().Err(err).
			Str("audit_id", event.ID).
			Interface("payload", event.Payload).
			Msg("model activated but audit append failed")
		return nil, nil, fmt.Errorf("append audit event: %w", err)
	}

	decision := &domain.PromotionDecision{
		TenantID:       req.TenantID,
		CandidateID:    req.CandidateID,
		LinkedOutcomes: a.Input.LinkedOutcomes,
		Guardrails:     g.cfg.record(),
		Override:       overridden,
		Justification:  justification,
		Actor:          req.Actor,
		AuditEventID:   event.ID,
		DecidedAt:      at,
	}
	if prev != nil {
		decision.PreviousActiveID = prev.ID
	}
	if overridden {
		decision.BlockedReason = a.BlockedReason
	}

	outcome := observability.PromotionActivated
	if overridden {
		outcome = observability.PromotionOverridden
	}
	g.metrics.RecordPromotion(outcome)
	logger.Info().
		Bool("override", overridden).
		Str("previous", decision.PreviousActiveID).
		Str("audit_id", event.ID).
		Msg("model promoted")

	return decision, nil, nil
}

// appendAudit stores the event, retrying after the activation has committed.
// A duplicate key on a retry means an earlier attempt was stored and only its
// acknowledgement was lost.
func (g *Guardrail) appendAudit(ctx context.Context, event *domain.AuditEvent, logger zerolog.Logger) error {
	var err error
	for attempt := 1; attempt <= auditAttempts; attempt++ {
		err = g.audit.Append(ctx, event)
		if err == nil || (attempt > 1 && errors.Is(err, storage.ErrDuplicateKey)) {
			return nil
		}
		if attempt == auditAttempts {
			break
		}
		logger.Warn().Err(err).Int("attempt", attempt).Msg("audit append failed, retrying")
		select {
		case <-ctx.Done():
			return errors.Join(err, ctx.Err())
		case <-time.After(time.Duration(attempt) * auditRetryDelay):
		}
	}
	return err
}

// promotionPayload builds the model_promoted audit payload. The previous
// model comes from the activation itself, so it is exact even if the
// active model changed after the checks ran.
func promotionPayload(a *Assessment, prev *domain.ModelRecord, justification string, overridden bool) map[string]any {
	payload := map[string]any{
		"override":        overridden,
		"reason":          justification,
		"from_model_id":   "",
		"from_model_name": "",
		"from_metrics":    map[string]any{},
		"to_model_id":     a.Candidate.ID,
		"to_model_name":   a.Candidate.Name,
		"to_metrics":      metricsPayload(a.Candidate.Metrics),
		"linked_outcomes": a.Input.LinkedOutcomes,
		"guardrails": map[string]any{
			"enabled":             a.Config.Enabled,
			"min_linked_outcomes": a.Config.MinLinkedOutcomes,
			"min_f1_margin":       a.Config.MinF1Margin,
		},
	}
	if prev != nil {
		payload["from_model_id"] = prev.ID
		payload["from_model_name"] = prev.Name
		payload["from_metrics"] = metricsPayload(prev.Metrics)
	}
	if overridden {
		payload["blocked_reason"] = a.BlockedReason
	}
	return payload
}

func metricsPayload(m domain.ModelMetrics) map[string]any {
	out := map[string]any{}
	data, err := json.Marshal(m)
	if err != nil {
		return out
	}
	_ = json.Unmarshal(data, &out)
	return out
}
