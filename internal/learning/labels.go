package learning

import (
	"math"

	"underwriting-lab/internal/domain"
	"underwriting-lab/internal/irr"
)

// LabelConfig sets what counts as a good realized investment.
type LabelConfig struct {
	IRRThreshold   float64 // annualized
	MaxVacancyDays float64
}

// DefaultLabelConfig returns the standard outcome labeling thresholds.
func DefaultLabelConfig() LabelConfig {
	return LabelConfig{IRRThreshold: 0.12, MaxVacancyDays: 60}
}

// LabelFromOutcome returns 1 when the realized IRR meets the threshold and the
// vacancy stayed within bounds. A missing realized IRR is labeled 0.
func LabelFromOutcome(o *domain.Outcome, cfg LabelConfig) int {
	if o.IRRRealized == nil || !isFinite(*o.IRRRealized) {
		return 0
	}
	vacancy := 0.0
	if o.VacancyDays != nil {
		vacancy = *o.VacancyDays
	}
	if *o.IRRRealized >= cfg.IRRThreshold && vacancy <= cfg.MaxVacancyDays {
		return 1
	}
	return 0
}

// LabelFromFeedback maps thumbs up to 1 and anything else to 0.
func LabelFromFeedback(f *domain.Feedback) int {
	if f.Label == domain.FeedbackUp {
		return 1
	}
	return 0
}

// OutcomeMetrics are the figures derived from a realized outcome.
type OutcomeMetrics struct {
	Cashflows       []float64
	IRRRealized     *float64 // annualized
	AppreciationPct *float64
}

// RealizedIRR rebuilds the monthly cashflows of a completed hold and annualizes
// their IRR. Month 0 is -(purchase + repairs); rent is collected for the
// hold months not lost to vacancy (vacancy days / 30); the resale price is added
// to the final month.
func RealizedIRR(o *domain.Outcome) OutcomeMetrics {
	purchase := valueOr(o.PurchasePrice)
	rent := valueOr(o.MonthlyRent)
	vacancyMonths := valueOr(o.VacancyDays) / 30
	repairs := valueOr(o.RepairsCost)
	hold := int(valueOr(o.HoldMonths))
	resale := valueOr(o.ResalePrice)

	effective := math.Max(0, float64(hold)-vacancyMonths)

	flows := make([]float64, 0, hold+1)
	flows = append(flows, -purchase-repairs)
	for m := 1; m <= hold; m++ {
		if float64(m) <= effective {
			flows = append(flows, rent)
		} else {
			flows = append(flows, 0)
		}
	}
	if hold >= 1 {
		flows[len(flows)-1] += resale
	}

	out := OutcomeMetrics{Cashflows: flows}
	if monthly := irr.Solve(flows); monthly != nil {
		annual := math.Pow(1+*monthly, 12) - 1
		if isFinite(annual) {
			out.IRRRealized = &annual
		}
	}
	if purchase > 0 && resale > 0 {
		pct := (resale - purchase) / purchase * 100
		out.AppreciationPct = &pct
	}
	return out
}

func valueOr(p *float64) float64 {
	if p == nil || !isFinite(*p) {
		return 0
	}
	return *p
}
