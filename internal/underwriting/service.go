package underwriting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"underwriting-lab/internal/domain"
	"underwriting-lab/internal/idhash"
	"underwriting-lab/internal/learning"
	"underwriting-lab/internal/logger"
	"underwriting-lab/internal/observability"
	"underwriting-lab/internal/registry"
	"underwriting-lab/internal/storage"
)

// Service underwrites deals for tenants with their active model and
// persists each run.
type Service struct {
	registry *registry.Registry
	reports  storage.ReportStore
	runs     storage.RunStore // optional analytics sink
	signals  SignalProvider   // optional
	metrics  *observability.Metrics
	log      zerolog.Logger
	now      func() time.Time
}

// ServiceOptions configures a Service. Registry and Reports are required.
type ServiceOptions struct {
	Registry *registry.Registry
	Reports  storage.ReportStore
	Runs     storage.RunStore
	Signals  SignalProvider
	Metrics  *observability.Metrics
	Logger   zerolog.Logger
	Clock    func() time.Time
}

// NewService creates an underwriting service.
func NewService(opts ServiceOptions) *Service {
	s := &Service{
		registry: opts.Registry,
		reports:  opts.Reports,
		runs:     opts.Runs,
		signals:  opts.Signals,
		metrics:  opts.Metrics,
		log:      logger.Component(opts.Logger, "underwriting"),
		now:      opts.Clock,
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// WithSignals sets the market and risk signal provider.
func (s *Service) WithSignals(p SignalProvider) *Service {
	s.signals = p
	return s
}

// Request is one deal to underwrite. When Auto is set, price, rent and
// expenses are resolved from manual and automated values and the picks are
// reported as the run's provenance.
type Request struct {
	TenantID   string
	Inputs     domain.DealInputs
	Auto       map[string]AutoValue
	Provenance []domain.FieldProvenance
}

// Underwrite scores the deal with the tenant's active model (baseline when
// none), stores the report and appends an analytics snapshot when a run
// store is configured.
func (s *Service) Underwrite(ctx context.Context, req Request) (*domain.Report, error) {
	start := s.now()
	if req.TenantID == "" {
		s.metrics.RecordUnderwritingError("invalid_tenant")
		return nil, fmt.Errorf("%w: tenant is required", ErrInvalidInputs)
	}
	runLog := s.log.With().Str("tenant", req.TenantID).Str("address", req.Inputs.Address).Logger()

	model, err := s.registry.ActiveModel(ctx, req.TenantID)
	if err != nil {
		s.metrics.RecordUnderwritingError("model_lookup")
		return nil, err
	}

	var sig *Signals
	if s.signals != nil {
		sig, err = s.signals.Signals(ctx, &req.Inputs)
		if err != nil {
			runLog.Warn().Err(err).Msg("signal provider failed, scoring without signals")
			sig = nil
		}
	}

	in := req.Inputs
	provenance := req.Provenance
	if len(req.Auto) > 0 {
		provenance = ResolveProvenance(&in, req.Auto)
	}
	out, err := Run(&in, Options{Model: model, Signals: sig, Provenance: provenance})
	if err != nil {
		reason := "error"
		if errors.Is(err, ErrInvalidInputs) {
			reason = "validation"
		}
		s.metrics.RecordUnderwritingError(reason)
		return nil, err
	}

	createdAt := s.now().UnixMilli()
	id, err := idhash.ComputeReportID(req.TenantID, in.Address, createdAt, &in)
	if err != nil {
		s.metrics.RecordUnderwritingError("report_id")
		return nil, err
	}

	report := &domain.Report{
		ID:        id,
		TenantID:  req.TenantID,
		Address:   in.Address,
		Inputs:    in,
		Outputs:   *out,
		Payload:   BuildPayload(&in, &out.Metrics, sig),
		CreatedAt: createdAt,
	}
	if err := s.reports.Insert(ctx, report); err != nil {
		s.metrics.RecordUnderwritingError("store")
		return nil, fmt.Errorf("store report: %w", err)
	}

	if s.runs != nil {
		if err := s.runs.Insert(ctx, Snapshot(report, model.ID)); err != nil {
			// The report is the record of truth; analytics can be backfilled.
			runLog.Warn().Err(err).Str("report", id).Msg("run snapshot not stored")
		}
	}

	kind := "trained"
	if model.ID == "" {
		kind = learning.BaselineModelName
	}
	s.metrics.RecordUnderwriting(string(out.Verdict), kind, out.Score, out.AIWeight, time.Since(start).Seconds())
	runLog.Info().
		Str("report", id).
		Str("model", model.Name).
		Float64("score", out.Score).
		Str("grade", out.GradeDetail).
		Str("verdict", string(out.Verdict)).
		Float64("ai_weight", out.AIWeight).
		Msg("deal underwritten")

	return report, nil
}

// GradeResult is a linear-model grade for a raw feature payload.
type GradeResult struct {
	Grade      string              `json:"grade"`
	Score      float64             `json:"score"`
	Confidence float64             `json:"confidence"`
	Meta       *domain.ExplainMeta `json:"meta"`
}

// Grade scores a feature payload with the tenant's active model only.
func (s *Service) Grade(ctx context.Context, tenantID string, payload domain.FeaturePayload) (*GradeResult, error) {
	model, err := s.registry.ActiveModel(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	grade, score, confidence, meta := learning.GradeWithModel(payload, model)
	return &GradeResult{Grade: grade, Score: score, Confidence: confidence, Meta: meta}, nil
}

// Snapshot flattens a report into an analytics row. modelID is empty for baseline runs.
func Snapshot(r *domain.Report, modelID string) *domain.RunSnapshot {
	out := r.Outputs
	return &domain.RunSnapshot{
		ReportID:    r.ID,
		TenantID:    r.TenantID,
		Address:     r.Address,
		CreatedAt:   r.CreatedAt,
		Score:       out.Score,
		ScoreBase:   out.ScoreBase,
		ScoreAI:     out.ScoreAI,
		AIWeight:    out.AIWeight,
		Grade:       out.Grade,
		GradeDetail: out.GradeDetail,
		Verdict:     string(out.Verdict),
		Confidence:  out.Confidence,
		CapRate:     out.Metrics.CapRate,
		CoC:         out.Metrics.CoC,
		DSCR:        out.Metrics.DSCR,
		IRR:         out.Metrics.IRR,
		ModelID:     modelID,
	}
}
