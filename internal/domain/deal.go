package domain

// DealInputs is the immutable input to one underwriting run.
// Monetary values are in the deal currency. Rates are fractions unless the
// field name ends in Pct, in which case they are percents (20 = 20%).
type DealInputs struct {
	Address    string `json:"address" validate:"required"`
	ListingURL string `json:"listing_url,omitempty" validate:"omitempty,url"`

	Price           *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	MonthlyRent     *float64 `json:"monthly_rent,omitempty" validate:"omitempty,gte=0"`
	MonthlyExpenses *float64 `json:"monthly_expenses,omitempty" validate:"omitempty,gte=0"`

	VacancyRate     float64 `json:"vacancy_rate" validate:"gte=0,lte=1"`
	DownPaymentPct  float64 `json:"down_payment_pct" validate:"gte=0,lte=100"`
	InterestRatePct float64 `json:"interest_rate_pct" validate:"gte=0,lte=100"`
	TermYears       int     `json:"term_years" validate:"gte=0,lte=50"`

	LastSalePrice *float64 `json:"last_sale_price,omitempty" validate:"omitempty,gte=0"`
	LastSaleDate  string   `json:"last_sale_date,omitempty"`

	// Projection assumptions
	HoldYears     int     `json:"hold_years" validate:"gte=0,lte=50"`
	RentGrowth    float64 `json:"rent_growth"`    // annual
	ExpenseGrowth float64 `json:"expense_growth"` // annual
	Appreciation  float64 `json:"appreciation"`   // annual
	SaleCostPct   float64 `json:"sale_cost_pct" validate:"gte=0,lte=1"`
	UseExitCap    bool    `json:"use_exit_cap"`
	ExitCapRate   float64 `json:"exit_cap_rate" validate:"gte=0"`
}

// Default assumption values.
const (
	DefaultVacancyRate     = 0.08
	DefaultDownPaymentPct  = 20.0
	DefaultInterestRatePct = 7.25
	DefaultTermYears       = 30
	DefaultHoldYears       = 7
	DefaultRentGrowth      = 0.03
	DefaultExpenseGrowth   = 0.03
	DefaultAppreciation    = 0.03
	DefaultSaleCostPct     = 0.07
	DefaultExitCapRate     = 0.065
)

// DefaultDealInputs returns inputs for address with every assumption at its default
// and no price, rent or expense data.
func DefaultDealInputs(address string) DealInputs {
	return DealInputs{
		Address:         address,
		VacancyRate:     DefaultVacancyRate,
		DownPaymentPct:  DefaultDownPaymentPct,
		InterestRatePct: DefaultInterestRatePct,
		TermYears:       DefaultTermYears,
		HoldYears:       DefaultHoldYears,
		RentGrowth:      DefaultRentGrowth,
		ExpenseGrowth:   DefaultExpenseGrowth,
		Appreciation:    DefaultAppreciation,
		SaleCostPct:     DefaultSaleCostPct,
		ExitCapRate:     DefaultExitCapRate,
	}
}

// ProvenanceSource identifies where a deal field value came from.
type ProvenanceSource string

// Well-known provenance sources. Automated values carry the provider name.
const (
	ProvenanceManual  ProvenanceSource = "manual"
	ProvenanceMissing ProvenanceSource = "missing"
)

// FieldProvenance records the chosen value for one input field and its source.
type FieldProvenance struct {
	Field      string           `json:"field"`
	Value      *float64         `json:"value,omitempty"`
	Source     ProvenanceSource `json:"source"`
	Confidence float64          `json:"confidence"`
}
