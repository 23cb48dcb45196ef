package reporting

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"underwriting-lab/internal/domain"
)

// NotAvailable renders a metric that could not be computed.
const NotAvailable = "n/a"

// MetricRow is one formatted metric.
type MetricRow struct {
	Key   string // machine name, used as the CSV key
	Label string
	Value string
}

// DealMetricRows formats the metrics of one run in display order.
func DealMetricRows(m domain.Metrics) []MetricRow {
	return []MetricRow{
		{"noi", "NOI (annual)", money(m.NOI)},
		{"cap_rate", "Cap rate", pct(m.CapRate)},
		{"loan_payment_monthly", "Loan payment (monthly)", money(m.LoanPaymentMonthly)},
		{"cash_flow_monthly", "Cash flow (monthly)", money(m.CashFlowMonthly)},
		{"coc", "Cash-on-cash", pct(m.CoC)},
		{"dscr", "DSCR", ratio(m.DSCR)},
		{"price_change_pct", "Price change vs last sale", pctPoints(m.PriceChangePct)},
		{"price_change_abs", "Price change (abs)", money(m.PriceChangeAbs)},
		{"irr", "IRR", pct(m.IRR)},
		{"npv_10", "NPV @10%", money(m.NPV10)},
		{"exit_value", "Exit value", money(m.ExitValue)},
	}
}

// TenantReport summarises a tenant's recent underwriting activity.
type TenantReport struct {
	TenantID    string
	GeneratedAt time.Time
	WindowStart int64 // unix ms
	WindowEnd   int64 // unix ms
	ActiveModel string
	Summary     *domain.ScoreSummary // nil when no runs fall in the window
	Runs        []*domain.RunSnapshot
}

func money(v *float64) string {
	if v == nil {
		return NotAvailable
	}
	if *v < 0 {
		return "-$" + humanize.CommafWithDigits(-*v, 0)
	}
	return "$" + humanize.CommafWithDigits(*v, 0)
}

// pct formats a fraction as a percent.
func pct(v *float64) string {
	if v == nil {
		return NotAvailable
	}
	return fmt.Sprintf("%.2f%%", *v*100)
}

// pctPoints formats a value that is already a percent.
func pctPoints(v *float64) string {
	if v == nil {
		return NotAvailable
	}
	return fmt.Sprintf("%.2f%%", *v)
}

func ratio(v *float64) string {
	if v == nil {
		return NotAvailable
	}
	return fmt.Sprintf("%.2f", *v)
}
