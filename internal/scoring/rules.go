package scoring

import (
	"fmt"
	"math"

	"underwriting-lab/internal/domain"
)

// Band is one threshold of a rule. The first matching band of a rule applies.
type Band struct {
	Match    func(v float64) bool
	Delta    float64
	Flag     string // optional
	Template string // rationale prefix, %s receives the formatted metric
}

// Rule scores one metric.
type Rule struct {
	Name             string
	Value            func(m *domain.Metrics) *float64
	Format           func(v float64) string
	Bands            []Band
	MissingFlag      string // empty means a missing value is silent
	MissingRationale string
}

func atLeast(t float64) func(float64) bool { return func(v float64) bool { return v >= t } }
func atMost(t float64) func(float64) bool { return func(v float64) bool { return v <= t } }
func always(float64) bool { return true }

func pct2(v float64) string { return fmt.Sprintf("%.2f%%", v*100) }
func dec2(v float64) string { return fmt.Sprintf("%.2f", v) }
func absPct1(v float64) string {
	return fmt.Sprintf("%.1f%%", math.Abs(v)*100)
}

// Rules is the heuristic rule table in evaluation order.
var Rules = []Rule{
	{
		Name:   "cap_rate",
		Value:  func(m *domain.Metrics) *float64 { return m.CapRate },
		Format: pct2,
		Bands: []Band{
			{Match: atLeast(0.08), Delta: 12, Template: "Cap rate %s ≥ 8%%"},
			{Match: atLeast(0.06), Delta: 7, Template: "Cap rate %s ≥ 6%%"},
			{Match: atLeast(0.045), Delta: 2, Template: "Cap rate %s ≥ 4.5%%"},
			{Match: always, Delta: -6, Flag: "Low cap rate", Template: "Cap rate %s < 4.5%%"},
		},
		MissingFlag:      "Missing cap-rate inputs",
		MissingRationale: "Cap rate unavailable (missing price/rent/expenses).",
	},
	{
		Name:   "cash_on_cash",
		Value:  func(m *domain.Metrics) *float64 { return m.CoC },
		Format: pct2,
		Bands: []Band{
			{Match: atLeast(0.12), Delta: 10, Template: "Cash-on-cash %s ≥ 12%%"},
			{Match: atLeast(0.08), Delta: 6, Template: "Cash-on-cash %s ≥ 8%%"},
			{Match: atLeast(0.05), Delta: 2, Template: "Cash-on-cash %s ≥ 5%%"},
			{Match: always, Delta: -6, Flag: "Low cash-on-cash", Template: "Cash-on-cash %s < 5%%"},
		},
		MissingFlag:      "Missing CoC inputs",
		MissingRationale: "Cash-on-cash unavailable (missing rent/expenses/price).",
	},
	{
		Name:   "dscr",
		Value:  func(m *domain.Metrics) *float64 { return m.DSCR },
		Format: dec2,
		Bands: []Band{
			{Match: atLeast(1.35), Delta: 8, Template: "DSCR %s ≥ 1.35"},
			{Match: atLeast(1.20), Delta: 5, Template: "DSCR %s ≥ 1.20"},
			{Match: atLeast(1.05), Delta: 1, Template: "DSCR %s ≥ 1.05"},
			{Match: always, Delta: -12, Flag: "DSCR risk", Template: "DSCR %s < 1.05"},
		},
		MissingFlag:      "Missing DSCR inputs",
		MissingRationale: "DSCR unavailable (missing NOI or debt service).",
	},
	{
		Name:   "irr",
		Value:  func(m *domain.Metrics) *float64 { return m.IRR },
		Format: pct2,
		Bands: []Band{
			{Match: atLeast(0.18), Delta: 10, Template: "IRR %s ≥ 18%%"},
			{Match: atLeast(0.14), Delta: 7, Template: "IRR %s ≥ 14%%"},
			{Match: atLeast(0.10), Delta: 3, Template: "IRR %s ≥ 10%%"},
			{Match: always, Delta: -7, Flag: "Low IRR", Template: "IRR %s < 10%%"},
		},
		MissingFlag:      "IRR unavailable (needs price + rent + expenses)",
		MissingRationale: "IRR unavailable (needs price + rent + expenses).",
	},
	{
		Name:   "price_change_pct",
		Value:  func(m *domain.Metrics) *float64 { return m.PriceChangePct },
		Format: absPct1,
		Bands: []Band{
			{Match: atMost(-0.05), Delta: 3, Flag: "Discount vs last sale", Template: "Price is %s below last sale"},
			{Match: atLeast(0.25), Delta: -6, Flag: "Big run-up vs last sale", Template: "Price is %s above last sale"},
		},
	},
}

// deltaPhrase renders a score delta, e.g. "adds +12" or "subtracts -6".
func deltaPhrase(delta float64) string {
	if delta >= 0 {
		return fmt.Sprintf("adds +%g", delta)
	}
	return fmt.Sprintf("subtracts %g", delta)
}
