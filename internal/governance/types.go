package governance

import (
	"errors"

	"underwriting-lab/internal/domain"
)

var (
	// ErrJustificationTooShort is returned when the promotion reason is under MinJustificationLen characters.
	ErrJustificationTooShort = errors.New("promotion requires a justification of at least 8 characters")

	// ErrOverrideNotPermitted is returned when a non-elevated actor overrides a blocked promotion.
	ErrOverrideNotPermitted = errors.New("override is admin-only")

	// ErrInvalidActor is returned when the request carries no actor id or role.
	ErrInvalidActor = errors.New("invalid actor")
)

// MinJustificationLen is the minimum trimmed length of a promotion justification.
const MinJustificationLen = 8

// Config holds the promotion guardrail thresholds.
type Config struct {
	Enabled           bool
	MinLinkedOutcomes int
	MinF1Margin       float64
}

// DefaultConfig returns the default guardrail thresholds.
func DefaultConfig() Config {
	return Config{
		Enabled:           true,
		MinLinkedOutcomes: 50,
		MinF1Margin:       0.01,
	}
}

func (c Config) record() domain.GuardrailConfig {
	return domain.GuardrailConfig{
		Enabled:           c.Enabled,
		MinLinkedOutcomes: c.MinLinkedOutcomes,
		MinF1Margin:       c.MinF1Margin,
	}
}

// CheckResult represents pass/fail for one guardrail check.
type CheckResult struct {
	Name      string `json:"name"`
	Threshold string `json:"threshold"`
	Actual    string `json:"actual"`
	Pass      bool   `json:"pass"`
	Reason    string `json:"-"` // blocked reason when the check fails
}

// CheckInput contains the numbers the guardrail checks compare.
type CheckInput struct {
	LinkedOutcomes int
	CandidateValF1 float64
	ActiveValF1    float64 // 0 when the tenant has no active model
}

// Assessment is the guardrail verdict for one candidate, before any activation.
type Assessment struct {
	TenantID      string
	Candidate     *domain.ModelRecord
	Active        *domain.ModelRecord // nil when the tenant has none
	Input         CheckInput
	Config        Config
	Checks        []CheckResult
	BlockedReason string // first failing check, empty when promotable
}

// Blocked reports whether any check failed.
func (a *Assessment) Blocked() bool {
	return a.BlockedReason != ""
}

// Request asks to promote a candidate to the tenant's active model.
type Request struct {
	TenantID      string       `json:"tenant_id" validate:"required"`
	CandidateID   string       `json:"candidate_id" validate:"required"`
	Actor         domain.Actor `json:"actor"`
	Justification string       `json:"justification"`
	Override      bool         `json:"override"`
}

// Blocked is returned instead of a decision when the guardrail refuses a
// promotion and no override was requested. Nothing is activated or audited.
type Blocked struct {
	Reason string        `json:"reason"`
	Checks []CheckResult `json:"checks"`
}
