package scoring

import "underwriting-lab/internal/domain"

type gradeBand struct {
	min   float64
	label string
}

var letterBands = []gradeBand{
	{90, "A"},
	{80, "B"},
	{70, "C"},
	{60, "D"},
}

var detailBands = []gradeBand{
	{97, "A+"}, {93, "A"}, {90, "A-"},
	{87, "B+"}, {83, "B"}, {80, "B-"},
	{77, "C+"}, {73, "C"}, {70, "C-"},
	{67, "D+"}, {63, "D"}, {60, "D-"},
	{55, "F+"}, {50, "F"},
}

type verdictBand struct {
	min     float64
	verdict domain.Verdict
}

var verdictBands = []verdictBand{
	{90, domain.VerdictBuy},
	{80, domain.VerdictBuySelective},
	{70, domain.VerdictWatch},
	{60, domain.VerdictPass},
}

// Grade maps a 0-100 score to a letter A-F.
func Grade(score float64) string {
	for _, b := range letterBands {
		if score >= b.min {
			return b.label
		}
	}
	return "F"
}

// GradeDetail maps a 0-100 score to a letter with a +/- modifier.
func GradeDetail(score float64) string {
	for _, b := range detailBands {
		if score >= b.min {
			return b.label
		}
	}
	return "F-"
}

// VerdictFor maps a 0-100 score to its recommendation band.
func VerdictFor(score float64) domain.Verdict {
	for _, b := range verdictBands {
		if score >= b.min {
			return b.verdict
		}
	}
	return domain.VerdictAvoid
}

// Confidence reflects how much of the core deal data was supplied:
// min(1, 0.25 + 0.18 * present) over price, rent, expenses and last sale price.
func Confidence(in *domain.DealInputs) float64 {
	present := 0
	for _, v := range []*float64{in.Price, in.MonthlyRent, in.MonthlyExpenses, in.LastSalePrice} {
		if v != nil {
			present++
		}
	}
	c := 0.25 + 0.18*float64(present)
	if c > 1 {
		return 1
	}
	return c
}
