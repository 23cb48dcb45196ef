package reporting

import (
	"context"
	"errors"
	"time"

	"underwriting-lab/internal/metrics"
	"underwriting-lab/internal/registry"
	"underwriting-lab/internal/storage"
)

// Generator produces tenant reports from stored runs.
type Generator struct {
	runStore   storage.RunStore
	aggregator *metrics.Aggregator
	registry   *registry.Registry
	now        func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(runStore storage.RunStore, reg *registry.Registry) *Generator {
	return &Generator{
		runStore:   runStore,
		aggregator: metrics.NewAggregator(runStore),
		registry:   reg,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate produces the report for the runs of the last window.
func (g *Generator) Generate(ctx context.Context, tenantID string, window time.Duration) (*TenantReport, error) {
	end := g.now()
	r := &TenantReport{
		TenantID:    tenantID,
		GeneratedAt: end,
		WindowStart: end.Add(-window).UnixMilli(),
		WindowEnd:   end.UnixMilli(),
	}

	ref, err := g.registry.ActiveModel(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	r.ActiveModel = ref.Name

	summary, err := g.aggregator.Summarize(ctx, tenantID, r.WindowStart, r.WindowEnd)
	if errors.Is(err, metrics.ErrNoRuns) {
		return r, nil
	}
	if err != nil {
		return nil, err
	}
	r.Summary = summary

	runs, err := g.runStore.GetByTenant(ctx, tenantID, r.WindowStart, r.WindowEnd)
	if err != nil {
		return nil, err
	}
	r.Runs = runs

	return r, nil
}
