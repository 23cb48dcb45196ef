package domain

// Outcome is the realized result of a deal after it was held.
type Outcome struct {
	ID        string  // uuid
	TenantID  string  // owning tenant
	ReportID  *string // linked underwriting report (nullable)
	Address   string
	URL       string
	CreatedAt int64 // unix ms

	PurchasePrice *float64
	MonthlyRent   *float64 // realized average rent
	VacancyDays   *float64 // total vacant days over the hold
	RepairsCost   *float64
	ResalePrice   *float64
	HoldMonths    *float64
	Notes         string

	// Derived at record time
	IRRRealized     *float64 // annualized
	AppreciationPct *float64 // resale vs purchase, percent
}

// Linked reports whether the outcome is tied to a report.
func (o *Outcome) Linked() bool {
	return o.ReportID != nil && *o.ReportID != ""
}

// FeedbackLabel is a user's verdict on a report.
type FeedbackLabel string

const (
	FeedbackUp   FeedbackLabel = "up"
	FeedbackDown FeedbackLabel = "down"
)

// Feedback is a thumbs-up/down judgement on one report.
type Feedback struct {
	ID        string // uuid
	TenantID  string
	ReportID  string
	Label     FeedbackLabel
	Comment   string
	CreatedAt int64 // unix ms
}

// TrainingRow is one labeled example.
type TrainingRow struct {
	Features FeatureVector
	Label    int // 0 or 1
}
