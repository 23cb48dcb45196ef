// Package underwriting runs the full deal pipeline: metrics, heuristic score,
// linear score and the blend into a final grade.
package underwriting

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"underwriting-lab/internal/domain"
	"underwriting-lab/internal/learning"
	"underwriting-lab/internal/metrics"
	"underwriting-lab/internal/scoring"
)

// ErrInvalidInputs wraps validation failures of DealInputs.
var ErrInvalidInputs = errors.New("invalid deal inputs")

var validate = validator.New()

// Validate checks in against its struct constraints.
func Validate(in *domain.DealInputs) error {
	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidInputs, strings.Join(fields, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidInputs, err)
	}
	return nil
}

// Options tune a single run.
type Options struct {
	Model      learning.ModelRef // zero value scores with the baseline weights
	Signals    *Signals
	Provenance []domain.FieldProvenance
}

// Run underwrites one deal. It is pure: the same inputs and options always
// produce the same outputs.
func Run(in *domain.DealInputs, opts Options) (*domain.DealOutputs, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}

	m, err := metrics.Compute(in)
	if err != nil {
		return nil, fmt.Errorf("compute metrics: %w", err)
	}

	heuristic := scoring.Score(in, m)

	payload := BuildPayload(in, m, opts.Signals)
	completeness := learning.CoreCompleteness(payload)
	_, aiScore, _, meta := learning.GradeWithModel(payload, opts.Model)

	weight := AIWeight(completeness)
	final := Blend(heuristic.Score, aiScore, weight)

	rationale := append([]string{}, heuristic.Rationale...)
	rationale = append(rationale, blendRationale(aiScore, weight, final, meta.TopDrivers)...)

	out := &domain.DealOutputs{
		Score:       final,
		ScoreBase:   heuristic.Score,
		ScoreAI:     &aiScore,
		AIWeight:    weight,
		Grade:       scoring.Grade(final),
		GradeDetail: scoring.GradeDetail(final),
		Verdict:     scoring.VerdictFor(final),
		Confidence:  heuristic.Confidence,
		Metrics:     *m,
		Flags:       heuristic.Flags,
		Rationale:   rationale,
		AIMeta:      meta,
		Provenance:  opts.Provenance,
	}
	out.NarrativeSeed = narrativeSeed(in, out)

	return out, nil
}

// narrativeSeed extracts memo inputs from a finished run.
func narrativeSeed(in *domain.DealInputs, out *domain.DealOutputs) domain.NarrativeSeed {
	seed := domain.NarrativeSeed{
		Address:    in.Address,
		Grade:      out.GradeDetail,
		Verdict:    out.Verdict,
		Score:      out.Score,
		Highlights: []string{},
		Risks:      append([]string{}, out.Flags...),
		KeyMetrics: map[string]string{},
	}

	for _, line := range out.Rationale {
		if strings.Contains(line, " adds +") {
			seed.Highlights = append(seed.Highlights, line)
		}
	}

	m := out.Metrics
	put := func(key string, v *float64, format string, scale float64) {
		if v != nil {
			seed.KeyMetrics[key] = fmt.Sprintf(format, *v*scale)
		}
	}
	put("price", in.Price, "%.0f", 1)
	put("monthly_rent", in.MonthlyRent, "%.0f", 1)
	put("monthly_expenses", in.MonthlyExpenses, "%.0f", 1)
	put("cap_rate", m.CapRate, "%.2f%%", 100)
	put("cash_on_cash", m.CoC, "%.2f%%", 100)
	put("dscr", m.DSCR, "%.2f", 1)
	put("irr", m.IRR, "%.2f%%", 100)
	put("npv_10", m.NPV10, "%.0f", 1)
	put("price_change_pct", m.PriceChangePct, "%.1f%%", 100)

	return seed
}
