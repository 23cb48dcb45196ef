package domain

// Audit event types.
const (
	AuditEventModelPromoted = "model_promoted"
)

// Actor identifies who performed an action.
type Actor struct {
	ID   string `json:"id" validate:"required"`
	Role string `json:"role" validate:"required"`
}

// AuditEvent is an append-only, hash-chained record of a governance action.
type AuditEvent struct {
	ID        string         // uuid
	TenantID  string         // owning tenant
	EventType string         // e.g. model_promoted
	ActorID   string         // who acted
	ActorRole string         // role at the time
	Payload   map[string]any // event details
	CreatedAt int64          // unix ms
	PrevHash  string         // hash of the previous event for the tenant, empty for the first
	Hash      string         // sha256 over the canonical event
}

// GuardrailConfig holds the promotion guardrail thresholds in effect for a decision.
type GuardrailConfig struct {
	Enabled           bool    `json:"enabled"`
	MinLinkedOutcomes int     `json:"min_linked_outcomes"`
	MinF1Margin       float64 `json:"min_f1_margin"`
}

// PromotionDecision records one successful model activation. Write-once.
type PromotionDecision struct {
	TenantID         string          `json:"tenant_id"`
	CandidateID      string          `json:"candidate_id"`
	PreviousActiveID string          `json:"previous_active_id,omitempty"`
	LinkedOutcomes   int             `json:"linked_outcomes"`
	Guardrails       GuardrailConfig `json:"guardrails"`
	Override         bool            `json:"override"`
	BlockedReason    string          `json:"blocked_reason,omitempty"`
	Justification    string          `json:"justification"`
	Actor            Actor           `json:"actor"`
	AuditEventID     string          `json:"audit_event_id"`
	DecidedAt        int64           `json:"decided_at"`
}
