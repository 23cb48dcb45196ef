// Package training turns stored feedback and outcomes into labeled datasets
// and trains candidate models from them.
package training

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"underwriting-lab/internal/domain"
	"underwriting-lab/internal/learning"
	"underwriting-lab/internal/observability"
	"underwriting-lab/internal/registry"
	"underwriting-lab/internal/storage"
)

// Source names the kind of label a dataset is built from.
type Source string

const (
	SourceFeedback Source = "feedback"
	SourceOutcomes Source = "outcomes"
)

// ParseSource validates a source name.
func ParseSource(s string) (Source, error) {
	switch Source(s) {
	case SourceFeedback, SourceOutcomes:
		return Source(s), nil
	}
	return "", fmt.Errorf("%w: unknown training source %q", storage.ErrInvalidInput, s)
}

// Config controls dataset sufficiency, labeling and SGD.
type Config struct {
	Train           learning.TrainConfig
	Labels          learning.LabelConfig
	MinFeedbackRows int
	MinOutcomeRows  int
	AutoLinkMin     float64 // minimum match confidence for AutoLink
}

// DefaultConfig returns the standard training settings.
func DefaultConfig() Config {
	return Config{
		Train:           learning.DefaultTrainConfig(),
		Labels:          learning.DefaultLabelConfig(),
		MinFeedbackRows: 20,
		MinOutcomeRows:  30,
		AutoLinkMin:     0.70,
	}
}

func (c Config) minRows(src Source) int {
	if src == SourceOutcomes {
		return c.MinOutcomeRows
	}
	return c.MinFeedbackRows
}

// SufficiencyCheck represents one data sufficiency criterion.
type SufficiencyCheck struct {
	Name      string `json:"name"`
	Threshold string `json:"threshold"`
	Actual    string `json:"actual"`
	Pass      bool   `json:"pass"`
}

// Dataset is a labeled training set plus the checks it was held to.
type Dataset struct {
	Source    Source
	Rows      []domain.TrainingRow
	Available int // labels found before joining to reports
	Skipped   int // labels without a stored report
	Checks    []SufficiencyCheck
	AllPass   bool
}

// Positives counts rows labeled 1.
func (d *Dataset) Positives() int {
	n := 0
	for _, r := range d.Rows {
		n += r.Label
	}
	return n
}

// Builder assembles datasets from the label stores and trains candidates.
type Builder struct {
	cfg      Config
	reports  storage.ReportStore
	feedback storage.FeedbackStore
	outcomes storage.OutcomeStore
	registry *registry.Registry
	metrics  *observability.Metrics
	log      zerolog.Logger
	now      func() time.Time
}

// NewBuilder creates a dataset builder. metrics may be nil.
func NewBuilder(cfg Config, reports storage.ReportStore, feedback storage.FeedbackStore,
	outcomes storage.OutcomeStore, reg *registry.Registry, metrics *observability.Metrics, log zerolog.Logger) *Builder {
	return &Builder{
		cfg:      cfg,
		reports:  reports,
		feedback: feedback,
		outcomes: outcomes,
		registry: reg,
		metrics:  metrics,
		log:      log.With().Str("component", "training").Logger(),
		now:      time.Now,
	}
}

// WithClock sets a custom clock function for deterministic output.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Config returns the builder configuration.
func (b *Builder) Config() Config {
	return b.cfg
}

// Build assembles the dataset for src.
func (b *Builder) Build(ctx context.Context, tenantID string, src Source) (*Dataset, error) {
	switch src {
	case SourceFeedback:
		return b.buildFromFeedback(ctx, tenantID)
	case SourceOutcomes:
		return b.buildFromOutcomes(ctx, tenantID)
	}
	return nil, fmt.Errorf("%w: unknown training source %q", storage.ErrInvalidInput, src)
}

func (b *Builder) buildFromFeedback(ctx context.Context, tenantID string) (*Dataset, error) {
	items, err := b.feedback.ListByTenant(ctx, tenantID, 0)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}

	ds := &Dataset{Source: SourceFeedback, Available: len(items)}
	cache := map[string]*domain.Report{}
	for _, f := range items {
		r, err := b.report(ctx, tenantID, f.ReportID, cache)
		if err != nil {
			return nil, err
		}
		if r == nil {
			ds.Skipped++
			continue
		}
		ds.Rows = append(ds.Rows, domain.TrainingRow{
			Features: learning.ExtractFeatures(r.Payload),
			Label:    learning.LabelFromFeedback(f),
		})
	}

	b.finish(ds, "Feedback rows", "Feedback tied to stored reports")
	return ds, nil
}

func (b *Builder) buildFromOutcomes(ctx context.Context, tenantID string) (*Dataset, error) {
	items, err := b.outcomes.ListByTenant(ctx, tenantID, 0)
	if err != nil {
		return nil, fmt.Errorf("list outcomes: %w", err)
	}

	ds := &Dataset{Source: SourceOutcomes, Available: len(items)}
	cache := map[string]*domain.Report{}
	for _, o := range items {
		if !o.Linked() {
			ds.Skipped++
			continue
		}
		r, err := b.report(ctx, tenantID, *o.ReportID, cache)
		if err != nil {
			return nil, err
		}
		if r == nil {
			ds.Skipped++
			continue
		}
		ds.Rows = append(ds.Rows, domain.TrainingRow{
			Features: learning.ExtractFeatures(r.Payload),
			Label:    learning.LabelFromOutcome(o, b.cfg.Labels),
		})
	}

	b.finish(ds, "Outcome rows", "Outcomes linked to stored reports")
	return ds, nil
}

// finish attaches the two sufficiency checks: enough labels, and enough
// labels that could be joined to the original feature payload.
func (b *Builder) finish(ds *Dataset, availableName, joinedName string) {
	need := b.cfg.minRows(ds.Source)
	ds.Checks = []SufficiencyCheck{
		{
			Name:      availableName,
			Threshold: fmt.Sprintf(">= %d", need),
			Actual:    fmt.Sprintf("%d", ds.Available),
			Pass:      ds.Available >= need,
		},
		{
			Name:      joinedName,
			Threshold: fmt.Sprintf(">= %d", need),
			Actual:    fmt.Sprintf("%d (%d skipped)", len(ds.Rows), ds.Skipped),
			Pass:      len(ds.Rows) >= need,
		},
	}
	ds.AllPass = true
	for _, c := range ds.Checks {
		if !c.Pass {
			ds.AllPass = false
		}
	}
}

// report loads a report once per build. A missing report returns (nil, nil).
func (b *Builder) report(ctx context.Context, tenantID, id string, cache map[string]*domain.Report) (*domain.Report, error) {
	if r, ok := cache[id]; ok {
		return r, nil
	}
	r, err := b.reports.GetByID(ctx, tenantID, id)
	if errors.Is(err, storage.ErrNotFound) {
		cache[id] = nil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get report %s: %w", id, err)
	}
	cache[id] = r
	return r, nil
}

// Result is a trained candidate and the dataset it came from.
type Result struct {
	Dataset *Dataset
	Model   *domain.ModelRecord
}

// Train builds the dataset for src, trains from the tenant's active weights
// (baseline when none) and stores the result as a new candidate. An
// insufficient dataset returns the dataset together with an error wrapping
// learning.ErrInsufficientTrainingData.
func (b *Builder) Train(ctx context.Context, tenantID string, src Source, name string) (*Result, error) {
	start := b.now()
	logger := b.log.With().Str("tenant", tenantID).Str("source", string(src)).Logger()

	ds, err := b.Build(ctx, tenantID, src)
	if err != nil {
		b.metrics.RecordTraining(string(src), "error", 0, 0, time.Since(start).Seconds())
		return nil, err
	}
	result := &Result{Dataset: ds}

	if !ds.AllPass {
		b.metrics.RecordTraining(string(src), "insufficient", len(ds.Rows), 0, time.Since(start).Seconds())
		logger.Warn().Int("rows", len(ds.Rows)).Int("available", ds.Available).Msg("not enough training data")
		return result, fmt.Errorf("%w: %d usable %s rows, need %d",
			learning.ErrInsufficientTrainingData, len(ds.Rows), src, b.cfg.minRows(src))
	}

	startWeights, err := b.registry.ActiveWeights(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	trainCfg := b.cfg.Train
	trainCfg.MinRows = b.cfg.minRows(src)
	tr, err := learning.TrainCandidate(ds.Rows, startWeights, trainCfg)
	if err != nil {
		b.metrics.RecordTraining(string(src), "insufficient", len(ds.Rows), 0, time.Since(start).Seconds())
		return result, err
	}

	if name == "" {
		name = fmt.Sprintf("%s-%d", src, b.now().Unix())
	}
	model, err := b.registry.CreateCandidate(ctx, tenantID, registry.CandidateSpec{
		Name:    name,
		Weights: tr.Weights,
		Metrics: tr.Metrics,
		Notes:   b.notes(ds),
	})
	if err != nil {
		b.metrics.RecordTraining(string(src), "error", len(ds.Rows), 0, time.Since(start).Seconds())
		return nil, err
	}
	result.Model = model

	b.metrics.RecordTraining(string(src), "ok", len(ds.Rows), tr.Metrics.Val.F1, time.Since(start).Seconds())
	logger.Info().
		Str("model", model.ID).
		Int("rows", len(ds.Rows)).
		Int("positives", ds.Positives()).
		Float64("val_f1", tr.Metrics.Val.F1).
		Float64("val_accuracy", tr.Metrics.Val.Accuracy).
		Msg("candidate trained")

	return result, nil
}

func (b *Builder) notes(ds *Dataset) string {
	if ds.Source == SourceOutcomes {
		return fmt.Sprintf("Trained from outcomes: irr>=%.2f, vac<=%.0f, rows=%d",
			b.cfg.Labels.IRRThreshold, b.cfg.Labels.MaxVacancyDays, len(ds.Rows))
	}
	return fmt.Sprintf("Trained from feedback: rows=%d, positives=%d", len(ds.Rows), ds.Positives())
}

// Unlinked outcome and report scan limits for AutoLink.
const (
	autoLinkOutcomes = 250
	autoLinkReports  = 800
)

// LinkSuggestion pairs an unlinked outcome with its best report match.
type LinkSuggestion struct {
	OutcomeID string
	Address   string
	Match     Match
}

// SuggestLinks matches unlinked outcomes to reports without linking them.
func (b *Builder) SuggestLinks(ctx context.Context, tenantID string) ([]LinkSuggestion, error) {
	unlinked, err := b.outcomes.ListUnlinked(ctx, tenantID, autoLinkOutcomes)
	if err != nil {
		return nil, fmt.Errorf("list unlinked outcomes: %w", err)
	}
	if len(unlinked) == 0 {
		return nil, nil
	}
	reports, err := b.reports.ListByTenant(ctx, tenantID, autoLinkReports)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}

	out := make([]LinkSuggestion, 0, len(unlinked))
	for _, o := range unlinked {
		out = append(out, LinkSuggestion{
			OutcomeID: o.ID,
			Address:   o.Address,
			Match:     MatchReport(reports, o.Address, o.URL),
		})
	}
	return out, nil
}

// AutoLink links every unlinked outcome whose best match reaches the
// configured confidence. Returns the number of outcomes linked.
func (b *Builder) AutoLink(ctx context.Context, tenantID string) (int, error) {
	suggestions, err := b.SuggestLinks(ctx, tenantID)
	if err != nil {
		return 0, err
	}

	linked := 0
	for _, s := range suggestions {
		if s.Match.ReportID == "" || s.Match.Confidence < b.cfg.AutoLinkMin {
			continue
		}
		if err := b.outcomes.Link(ctx, tenantID, s.OutcomeID, s.Match.ReportID); err != nil {
			return linked, fmt.Errorf("link outcome %s: %w", s.OutcomeID, err)
		}
		linked++
	}
	if linked > 0 {
		b.log.Info().Str("tenant", tenantID).Int("linked", linked).Msg("outcomes auto-linked")
	}
	return linked, nil
}
