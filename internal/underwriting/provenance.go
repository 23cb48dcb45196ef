package underwriting

import "underwriting-lab/internal/domain"

// Provenance confidences.
const (
	manualConfidence  = 0.9
	autoConfidence    = 0.75
	missingConfidence = 0.2
)

// Pick chooses between a manually entered and an automatically sourced value.
// A positive manual value wins, then a positive automatic value, else the field
// is missing.
func Pick(field string, manual, auto *float64, autoSource string) domain.FieldProvenance {
	if manual != nil && *manual > 0 {
		v := *manual
		return domain.FieldProvenance{Field: field, Value: &v, Source: domain.ProvenanceManual, Confidence: manualConfidence}
	}
	if auto != nil && *auto > 0 {
		v := *auto
		return domain.FieldProvenance{Field: field, Value: &v, Source: domain.ProvenanceSource(autoSource), Confidence: autoConfidence}
	}
	return domain.FieldProvenance{Field: field, Source: domain.ProvenanceMissing, Confidence: missingConfidence}
}

// ApplyProvenance writes the chosen values of price, rent and expenses into in.
// Unknown fields are ignored.
func ApplyProvenance(in *domain.DealInputs, picks []domain.FieldProvenance) {
	for _, p := range picks {
		switch p.Field {
		case "price":
			in.Price = p.Value
		case "monthly_rent":
			in.MonthlyRent = p.Value
		case "monthly_expenses":
			in.MonthlyExpenses = p.Value
		}
	}
}

// AutoValue is a deal field value supplied by an automated source.
type AutoValue struct {
	Value  float64 `json:"value"`
	Source string  `json:"source"`
}

// provenanceFields are the inputs that may come from an automated source.
var provenanceFields = []string{"price", "monthly_rent", "monthly_expenses"}

// ResolveProvenance picks each sourced field of in from its manual value or
// auto[field], writes the choice back into in and returns the picks.
func ResolveProvenance(in *domain.DealInputs, auto map[string]AutoValue) []domain.FieldProvenance {
	manual := map[string]*float64{
		"price":            in.Price,
		"monthly_rent":     in.MonthlyRent,
		"monthly_expenses": in.MonthlyExpenses,
	}
	picks := make([]domain.FieldProvenance, 0, len(provenanceFields))
	for _, field := range provenanceFields {
		var autoVal *float64
		source := ""
		if a, ok := auto[field]; ok {
			v := a.Value
			autoVal, source = &v, a.Source
		}
		picks = append(picks, Pick(field, manual[field], autoVal, source))
	}
	ApplyProvenance(in, picks)
	return picks
}
