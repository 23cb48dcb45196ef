package domain

// Verdict is the recommendation band derived from a final score.
type Verdict string

const (
	VerdictBuy          Verdict = "BUY"
	VerdictBuySelective Verdict = "BUY (Selective)"
	VerdictWatch        Verdict = "WATCH / NEGOTIATE"
	VerdictPass         Verdict = "PASS (Most cases)"
	VerdictAvoid        Verdict = "AVOID"
)

// DealOutputs is the result of one underwriting run. Created once, never mutated.
type DealOutputs struct {
	Score       float64  `json:"score"`      // blended 0-100
	ScoreBase   float64  `json:"score_base"` // heuristic
	ScoreAI     *float64 `json:"score_ai"`   // linear model, set even when not blended
	AIWeight    float64  `json:"ai_weight"`
	Grade       string   `json:"grade"`
	GradeDetail string   `json:"grade_detail"`
	Verdict     Verdict  `json:"verdict"`
	Confidence  float64  `json:"confidence"`

	Metrics   Metrics  `json:"metrics"`
	Flags     []string `json:"flags"`
	Rationale []string `json:"rationale"`

	AIMeta        *ExplainMeta      `json:"ai_meta,omitempty"`
	Provenance    []FieldProvenance `json:"provenance,omitempty"`
	NarrativeSeed NarrativeSeed     `json:"narrative_seed"`
}

// Contribution is one feature's signed share of a linear score.
type Contribution struct {
	Feature      string  `json:"feature"`
	Value        float64 `json:"value"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
}

// ExplainMeta describes how the linear model arrived at its score.
type ExplainMeta struct {
	ModelID      string         `json:"model_id,omitempty"`
	ModelName    string         `json:"model_name"`
	Probability  float64        `json:"probability"`
	Score        float64        `json:"score"`
	Grade        string         `json:"grade"`
	Confidence   float64        `json:"confidence"`
	Completeness float64        `json:"completeness"`
	TopDrivers   []Contribution `json:"top_drivers"`
	Features     FeatureVector  `json:"features"`
}

// NarrativeSeed is the structured input for an investment memo.
type NarrativeSeed struct {
	Address    string            `json:"address"`
	Grade      string            `json:"grade"`
	Verdict    Verdict           `json:"verdict"`
	Score      float64           `json:"score"`
	Highlights []string          `json:"highlights"`
	Risks      []string          `json:"risks"`
	KeyMetrics map[string]string `json:"key_metrics"`
}
