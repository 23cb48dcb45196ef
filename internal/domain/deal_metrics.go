package domain

// Metrics holds the derived values of one underwriting run.
// A nil pointer means the metric is unavailable; it is never coerced to zero.
type Metrics struct {
	NOI                *float64 `json:"noi"`                  // annual net operating income
	CapRate            *float64 `json:"cap_rate"`             // NOI / price
	LoanPaymentMonthly *float64 `json:"loan_payment_monthly"` // amortized debt service
	CashFlowMonthly    *float64 `json:"cash_flow_monthly"`    // after vacancy, expenses, debt
	CoC                *float64 `json:"coc"`                  // cash-on-cash return
	DSCR               *float64 `json:"dscr"`                 // debt service coverage ratio

	PriceChangePct *float64 `json:"price_change_pct"` // vs last sale
	PriceChangeAbs *float64 `json:"price_change_abs"`

	IRR        *float64  `json:"irr"`
	NPV10      *float64  `json:"npv_10"`
	ExitValue  *float64  `json:"exit_value"`
	Cashflows  []float64 `json:"cashflows"` // index 0 is the equity outlay
	NOI0       *float64  `json:"noi_0"`     // projection year-one NOI
	DebtAnnual *float64  `json:"debt_annual"`
}
