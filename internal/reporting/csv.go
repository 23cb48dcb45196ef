package reporting

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"underwriting-lab/internal/domain"
)

// RenderDealCSV renders one run as key,value CSV string.
func RenderDealCSV(r *domain.Report) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	out := r.Outputs
	records := [][]string{
		{"key", "value"},
		{"address", r.Address},
		{"score", fmtFloat(out.Score)},
		{"score_base", fmtFloat(out.ScoreBase)},
		{"score_ai", fmtOptional(out.ScoreAI)},
		{"ai_weight", fmtFloat(out.AIWeight)},
		{"grade", out.GradeDetail},
		{"verdict", string(out.Verdict)},
		{"confidence", fmtFloat(out.Confidence)},
	}
	raw := metricValues(out.Metrics)
	for _, row := range DealMetricRows(out.Metrics) {
		records = append(records, []string{row.Key, fmtOptional(raw[row.Key])})
	}
	records = append(records, []string{"flags", strings.Join(out.Flags, "; ")})

	if err := w.WriteAll(records); err != nil {
		return "", fmt.Errorf("write deal csv: %w", err)
	}
	return sb.String(), nil
}

// RenderRunsCSV renders run snapshots as CSV string.
func RenderRunsCSV(runs []*domain.RunSnapshot) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	// Header
	records := [][]string{{
		"report_id", "created_at", "address", "score", "score_base", "score_ai", "ai_weight",
		"grade", "verdict", "confidence", "cap_rate", "coc", "dscr", "irr", "model_id",
	}}

	// Rows
	for _, r := range runs {
		records = append(records, []string{
			r.ReportID,
			strconv.FormatInt(r.CreatedAt, 10),
			r.Address,
			fmtFloat(r.Score),
			fmtFloat(r.ScoreBase),
			fmtOptional(r.ScoreAI),
			fmtFloat(r.AIWeight),
			r.GradeDetail,
			r.Verdict,
			fmtFloat(r.Confidence),
			fmtOptional(r.CapRate),
			fmtOptional(r.CoC),
			fmtOptional(r.DSCR),
			fmtOptional(r.IRR),
			r.ModelID,
		})
	}

	if err := w.WriteAll(records); err != nil {
		return "", fmt.Errorf("write runs csv: %w", err)
	}
	return sb.String(), nil
}

func metricValues(m domain.Metrics) map[string]*float64 {
	return map[string]*float64{
		"noi":                  m.NOI,
		"cap_rate":             m.CapRate,
		"loan_payment_monthly": m.LoanPaymentMonthly,
		"cash_flow_monthly":    m.CashFlowMonthly,
		"coc":                  m.CoC,
		"dscr":                 m.DSCR,
		"price_change_pct":     m.PriceChangePct,
		"price_change_abs":     m.PriceChangeAbs,
		"irr":                  m.IRR,
		"npv_10":               m.NPV10,
		"exit_value":           m.ExitValue,
	}
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// fmtOptional renders nil as an empty cell.
func fmtOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return fmtFloat(*v)
}
