package domain

// Report is a persisted underwriting run. Training re-extracts features from
// its stored payload.
type Report struct {
	ID        string // base58 content hash
	TenantID  string
	Address   string
	Inputs    DealInputs
	Outputs   DealOutputs
	Payload   FeaturePayload
	CreatedAt int64 // unix ms
}

// RunSnapshot is a flat, append-only analytics row for one underwriting run.
type RunSnapshot struct {
	ReportID    string
	TenantID    string
	Address     string
	CreatedAt   int64 // unix ms
	Score       float64
	ScoreBase   float64
	ScoreAI     *float64
	AIWeight    float64
	Grade       string
	GradeDetail string
	Verdict     string
	Confidence  float64
	CapRate     *float64
	CoC         *float64
	DSCR        *float64
	IRR         *float64
	ModelID     string // empty when baseline weights were used
}

// ScoreSummary describes the distribution of final scores across runs.
type ScoreSummary struct {
	Runs       int
	ScoreMean  float64
	ScoreMed   float64
	ScoreP10   float64
	ScoreP90   float64
	ScoreMin   float64
	ScoreMax   float64
	ScoreStd   float64
	GradeCount map[string]int // by letter grade
	BlendedPct float64        // share of runs with AIWeight > 0
}
