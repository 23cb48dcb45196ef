package governance

import "fmt"

// Evaluate runs the guardrail checks in order. With the guardrail disabled
// it returns an empty checklist.
func Evaluate(cfg Config, in CheckInput) []CheckResult {
	if !cfg.Enabled {
		return nil
	}

	checks := make([]CheckResult, 2)

	// 1. Enough real-world outcomes tied to reports
	checks[0] = CheckResult{
		Name:      "Linked outcomes",
		Threshold: fmt.Sprintf(">= %d", cfg.MinLinkedOutcomes),
		Actual:    fmt.Sprintf("%d", in.LinkedOutcomes),
		Pass:      in.LinkedOutcomes >= cfg.MinLinkedOutcomes,
		Reason:    fmt.Sprintf("Need at least %d linked outcomes (have %d).", cfg.MinLinkedOutcomes, in.LinkedOutcomes),
	}

	// 2. Candidate must beat the active model on validation F1
	required := in.ActiveValF1 + cfg.MinF1Margin
	checks[1] = CheckResult{
		Name:      "Validation F1 vs active",
		Threshold: fmt.Sprintf(">= %.2f (active %.2f + margin %.2f)", required, in.ActiveValF1, cfg.MinF1Margin),
		Actual:    fmt.Sprintf("%.4f", in.CandidateValF1),
		Pass:      in.CandidateValF1 >= required,
		Reason: fmt.Sprintf("Candidate val F1 (%.2f) must exceed active (%.2f) by >= %.2f.",
			in.CandidateValF1, in.ActiveValF1, cfg.MinF1Margin),
	}

	return checks
}

// BlockedReason returns the reason of the first failing check, or "".
func BlockedReason(checks []CheckResult) string {
	for _, c := range checks {
		if !c.Pass {
			return c.Reason
		}
	}
	return ""
}
