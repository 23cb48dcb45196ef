package metrics

import (
	"context"
	"errors"
	"fmt"

	"underwriting-lab/internal/domain"
	"underwriting-lab/internal/storage"
)

// ErrNoRuns is returned when no runs are available for aggregation.
var ErrNoRuns = errors.New("no underwriting runs available for aggregation")

// Aggregator summarises stored underwriting runs.
type Aggregator struct {
	runStore storage.RunStore
}

// NewAggregator creates a new run aggregator.
func NewAggregator(runStore storage.RunStore) *Aggregator {
	return &Aggregator{runStore: runStore}
}

// Summarize computes the score distribution for tenant runs created within
// [start, end] (unix ms, inclusive). Returns ErrNoRuns if none match.
func (a *Aggregator) Summarize(ctx context.Context, tenantID string, start, end int64) (*domain.ScoreSummary, error) {
	runs, err := a.runStore.GetByTenant(ctx, tenantID, start, end)
	if err != nil {
		return nil, fmt.Errorf("load runs: %w", err)
	}
	if len(runs) == 0 {
		return nil, ErrNoRuns
	}
	return computeFromRuns(runs), nil
}
