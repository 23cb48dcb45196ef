// Package orchestrator runs the scheduled retrain pipeline across tenants.
// It coordinates: outcome linking → candidate training per source → run summary
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"underwriting-lab/internal/learning"
	"underwriting-lab/internal/metrics"
	"underwriting-lab/internal/observability"
	"underwriting-lab/internal/storage"
	"underwriting-lab/internal/training"
)

// summaryWindow is how far back the per-tenant run summary looks.
const summaryWindow = 30 * 24 * time.Hour

// Orchestrator coordinates retraining for a fixed set of tenants.
// Flow: auto-link outcomes → train from outcomes → train from feedback → summarize runs
type Orchestrator struct {
	builder    *training.Builder
	cursors    storage.RetrainCursorStore
	aggregator *metrics.Aggregator // optional
	metrics    *observability.Metrics
	log        zerolog.Logger
	now        func() time.Time

	tenants []string
	sources []training.Source
	link    bool
}

// Options for creating Orchestrator.
type Options struct {
	// Required
	Builder *training.Builder
	Cursors storage.RetrainCursorStore
	Tenants []string

	// Optional
	RunStore storage.RunStore // enables the run summary phase
	Metrics  *observability.Metrics
	Logger   zerolog.Logger
	Clock    func() time.Time

	SkipAutoLink bool
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	o := &Orchestrator{
		builder: opts.Builder,
		cursors: opts.Cursors,
		metrics: opts.Metrics,
		log:     opts.Logger.With().Str("component", "orchestrator").Logger(),
		now:     opts.Clock,
		tenants: opts.Tenants,
		sources: []training.Source{training.SourceOutcomes, training.SourceFeedback},
		link:    !opts.SkipAutoLink,
	}
	if opts.RunStore != nil {
		o.aggregator = metrics.NewAggregator(opts.RunStore)
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o
}

// TenantResult describes what one tenant's retrain did.
type TenantResult struct {
	TenantID       string
	OutcomesLinked int
	Trained        []string // candidate model ids
	Skipped        []string // "source: reason"
}

// RunResult contains results from orchestrator execution.
type RunResult struct {
	Tenants           []TenantResult
	CandidatesTrained int
	Errors            []string
}

// Run retrains every configured tenant. Per-tenant failures are collected in
// RunResult.Errors and do not stop the other tenants.
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	result := &RunResult{}

	for _, tenantID := range o.tenants {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		tr, errs := o.runTenant(ctx, tenantID)
		result.Tenants = append(result.Tenants, tr)
		result.CandidatesTrained += len(tr.Trained)
		result.Errors = append(result.Errors, errs...)
	}

	if len(result.Errors) == 0 {
		o.metrics.MarkRetrain(o.now().Unix())
	}
	o.log.Info().
		Int("tenants", len(result.Tenants)).
		Int("candidates", result.CandidatesTrained).
		Int("errors", len(result.Errors)).
		Msg("retrain completed")

	return result, nil
}

func (o *Orchestrator) runTenant(ctx context.Context, tenantID string) (TenantResult, []string) {
	tr := TenantResult{TenantID: tenantID}
	logger := o.log.With().Str("tenant", tenantID).Logger()
	var errs []string

	// Phase 1: link outcomes so they can join the original feature payloads
	if o.link {
		n, err := o.builder.AutoLink(ctx, tenantID)
		tr.OutcomesLinked = n
		if err != nil {
			errs = append(errs, fmt.Sprintf("autolink %s: %v", tenantID, err))
		}
	}

	// Phase 2: train one candidate per source that gained rows
	cursor, err := o.cursors.GetCursor(ctx, tenantID)
	if errors.Is(err, storage.ErrNotFound) {
		cursor = &storage.RetrainCursor{TenantID: tenantID}
	} else if err != nil {
		return tr, append(errs, fmt.Sprintf("load cursor %s: %v", tenantID, err))
	}

	advanced := false
	for _, src := range o.sources {
		ds, err := o.builder.Build(ctx, tenantID, src)
		if err != nil {
			errs = append(errs, fmt.Sprintf("build %s/%s: %v", tenantID, src, err))
			continue
		}
		seen := cursorRows(cursor, src)
		if len(ds.Rows) <= seen {
			tr.Skipped = append(tr.Skipped, fmt.Sprintf("%s: no new rows (%d)", src, len(ds.Rows)))
			continue
		}

		res, err := o.builder.Train(ctx, tenantID, src, "")
		if errors.Is(err, learning.ErrInsufficientTrainingData) {
			tr.Skipped = append(tr.Skipped, fmt.Sprintf("%s: %v", src, err))
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("train %s/%s: %v", tenantID, src, err))
			continue
		}

		tr.Trained = append(tr.Trained, res.Model.ID)
		setCursorRows(cursor, src, len(res.Dataset.Rows))
		advanced = true
	}

	if advanced {
		cursor.LastTrainedAt = o.now().UnixMilli()
		if err := o.cursors.SetCursor(ctx, cursor); err != nil {
			errs = append(errs, fmt.Sprintf("save cursor %s: %v", tenantID, err))
		}
	}

	// Phase 3: summarize recent runs
	if o.aggregator != nil {
		end := o.now()
		summary, err := o.aggregator.Summarize(ctx, tenantID, end.Add(-summaryWindow).UnixMilli(), end.UnixMilli())
		switch {
		case errors.Is(err, metrics.ErrNoRuns):
		case err != nil:
			errs = append(errs, fmt.Sprintf("summarize %s: %v", tenantID, err))
		default:
			logger.Info().
				Int("runs", summary.Runs).
				Float64("score_mean", summary.ScoreMean).
				Float64("blended_pct", summary.BlendedPct).
				Msg("recent underwriting runs")
		}
	}

	logger.Info().
		Int("linked", tr.OutcomesLinked).
		Strs("trained", tr.Trained).
		Strs("skipped", tr.Skipped).
		Msg("tenant retrain finished")

	return tr, errs
}

func cursorRows(c *storage.RetrainCursor, src training.Source) int {
	if src == training.SourceOutcomes {
		return c.OutcomeRows
	}
	return c.FeedbackRows
}

func setCursorRows(c *storage.RetrainCursor, src training.Source, n int) {
	if src == training.SourceOutcomes {
		c.OutcomeRows = n
		return
	}
	c.FeedbackRows = n
}
