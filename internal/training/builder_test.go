package training

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"underwriting-lab/internal/domain"
	"underwriting-lab/internal/learning"
	"underwriting-lab/internal/registry"
	"underwriting-lab/internal/storage/memory"
)

const tenant = "t1"

type fixture struct {
	reports  *memory.ReportStore
	feedback *memory.FeedbackStore
	outcomes *memory.OutcomeStore
	reg      *registry.Registry
	b        *Builder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		reports:  memory.NewReportStore(),
		feedback: memory.NewFeedbackStore(),
		outcomes: memory.NewOutcomeStore(),
		reg:      registry.New(memory.NewModelStore()),
	}
	f.b = NewBuilder(DefaultConfig(), f.reports, f.feedback, f.outcomes, f.reg, nil, zerolog.Nop()).
		WithClock(func() time.Time { return time.Unix(1700000000, 0) })
	return f
}

func ptr(v float64) *float64 { return &v }

// seedReports stores n reports; even ones look like strong deals.
func (f *fixture) seedReports(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		capRate := 0.03
		if i%2 == 0 {
			capRate = 0.09
		}
		r := &domain.Report{
			ID:        fmt.Sprintf("r%d", i),
			TenantID:  tenant,
			Address:   fmt.Sprintf("%d Main Street", 100+i),
			CreatedAt: int64(i),
			Payload: domain.FeaturePayload{Underwriting: domain.UnderwritingSignals{
				CapRate: ptr(capRate),
				DSCR:    ptr(1 + capRate*5),
			}},
		}
		r.Inputs.ListingURL = fmt.Sprintf("https://listings.example/%d", i)
		require.NoError(t, f.reports.Insert(context.Background(), r))
	}
}

func (f *fixture) seedFeedback(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		label := domain.FeedbackDown
		if i%2 == 0 {
			label = domain.FeedbackUp
		}
		require.NoError(t, f.feedback.Insert(context.Background(), &domain.Feedback{
			ID:        fmt.Sprintf("f%d", i),
			TenantID:  tenant,
			ReportID:  fmt.Sprintf("r%d", i),
			Label:     label,
			CreatedAt: int64(i),
		}))
	}
}

func (f *fixture) seedOutcomes(t *testing.T, n int, linked bool) {
	t.Helper()
	for i := 0; i < n; i++ {
		irrRealized := 0.05
		if i%2 == 0 {
			irrRealized = 0.20
		}
		o := &domain.Outcome{
			ID:          fmt.Sprintf("o%d", i),
			TenantID:    tenant,
			Address:     fmt.Sprintf("%d Main St", 100+i),
			CreatedAt:   int64(i),
			VacancyDays: ptr(10),
			IRRRealized: ptr(irrRealized),
		}
		if linked {
			rid := fmt.Sprintf("r%d", i)
			o.ReportID = &rid
		}
		require.NoError(t, f.outcomes.Insert(context.Background(), o))
	}
}

func TestParseSource(t *testing.T) {
	src, err := ParseSource("outcomes")
	require.NoError(t, err)
	assert.Equal(t, SourceOutcomes, src)

	_, err = ParseSource("vibes")
	assert.Error(t, err)
}

func TestBuild_FeedbackSkipsMissingReports(t *testing.T) {
	f := newFixture(t)
	f.seedReports(t, 18)
	f.seedFeedback(t, 22)

	ds, err := f.b.Build(context.Background(), tenant, SourceFeedback)
	require.NoError(t, err)

	assert.Equal(t, 22, ds.Available)
	assert.Equal(t, 4, ds.Skipped)
	assert.Len(t, ds.Rows, 18)
	assert.Equal(t, 9, ds.Positives())
	require.Len(t, ds.Checks, 2)
	assert.True(t, ds.Checks[0].Pass)
	assert.False(t, ds.Checks[1].Pass)
	assert.False(t, ds.AllPass)
}

func TestTrain_FromFeedback(t *testing.T) {
	f := newFixture(t)
	f.seedReports(t, 24)
	f.seedFeedback(t, 24)

	res, err := f.b.Train(context.Background(), tenant, SourceFeedback, "")
	require.NoError(t, err)
	require.NotNil(t, res.Model)

	assert.Equal(t, "feedback-1700000000", res.Model.Name)
	assert.Equal(t, domain.ModelStatusCandidate, res.Model.Status)
	assert.Contains(t, res.Model.Notes, "rows=24")
	assert.Equal(t, 24, res.Model.Metrics.Train.N+res.Model.Metrics.Val.N)

	models, err := f.reg.List(context.Background(), tenant)
	require.NoError(t, err)
	assert.Len(t, models, 1)
}

func TestTrain_FromOutcomes(t *testing.T) {
	f := newFixture(t)
	f.seedReports(t, 32)
	f.seedOutcomes(t, 32, true)

	res, err := f.b.Train(context.Background(), tenant, SourceOutcomes, "outcomes-v1")
	require.NoError(t, err)

	assert.Equal(t, "outcomes-v1", res.Model.Name)
	assert.Contains(t, res.Model.Notes, "irr>=0.12")
	assert.Equal(t, 16, res.Dataset.Positives())
}

func TestTrain_InsufficientOutcomes(t *testing.T) {
	f := newFixture(t)
	f.seedReports(t, 40)
	f.seedOutcomes(t, 40, false)

	res, err := f.b.Train(context.Background(), tenant, SourceOutcomes, "")
	require.ErrorIs(t, err, learning.ErrInsufficientTrainingData)
	require.NotNil(t, res)
	assert.Nil(t, res.Model)
	assert.Equal(t, 40, res.Dataset.Skipped)

	models, err := f.reg.List(context.Background(), tenant)
	require.NoError(t, err)
	assert.Empty(t, models)
}

func TestAutoLink(t *testing.T) {
	f := newFixture(t)
	f.seedReports(t, 5)
	f.seedOutcomes(t, 5, false)
	require.NoError(t, f.outcomes.Insert(context.Background(), &domain.Outcome{
		ID: "stray", TenantID: tenant, Address: "Unit 9 Lakeside Plaza Riverside", CreatedAt: 99,
	}))

	suggestions, err := f.b.SuggestLinks(context.Background(), tenant)
	require.NoError(t, err)
	assert.Len(t, suggestions, 6)

	linked, err := f.b.AutoLink(context.Background(), tenant)
	require.NoError(t, err)
	assert.Equal(t, 5, linked)

	n, err := f.outcomes.CountLinked(context.Background(), tenant)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	o, err := f.outcomes.GetByID(context.Background(), tenant, "o3")
	require.NoError(t, err)
	assert.Equal(t, "r3", *o.ReportID)
}
