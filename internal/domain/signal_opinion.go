package domain

// Consensus labels derived from the final multiplier. "pending" is reserved
// for the degenerate case where every producer failed.
const (
	ConsensusLabelSafe     = "safe"
	ConsensusLabelLow      = "low"
	ConsensusLabelMedium   = "medium"
	ConsensusLabelHigh     = "high"
	ConsensusLabelCritical = "critical"
	ConsensusLabelPending  = "pending"
)

// SignalOpinion is the outcome of a single producer call. A failed call still
// yields an opinion (Failed set, fallback multiplier, zero confidence) so the
// aggregator never has to special-case missing entries.
type SignalOpinion struct {
	Producer   string   `json:"producer"`
	RiskScore  float64  `json:"risk_score"` // 0-100
	Multiplier float64  `json:"multiplier"`
	Confidence float64  `json:"confidence"` // 0-100
	Rationale  string   `json:"rationale,omitempty"`
	KeyFactors []string `json:"key_factors,omitempty"`
	ElapsedMS  int64    `json:"elapsed_ms"`
	Failed     bool     `json:"failed"`
	Error      string   `json:"error,omitempty"`
}

// ConsensusResult is the aggregation of all opinions collected for one
// evaluation. WeightsUsed covers successful producers only and sums to 1.
type ConsensusResult struct {
	FinalMultiplier float64            `json:"final_multiplier"`
	AgreementRate   float64            `json:"agreement_rate"` // 0-100
	AvgConfidence   float64            `json:"avg_confidence"` // 0-100
	Label           string             `json:"label"`
	Attempted       int                `json:"attempted"`
	FailedCount     int                `json:"failed_count"`
	WeightsUsed     map[string]float64 `json:"weights_used,omitempty"`
	Opinions        []SignalOpinion    `json:"opinions,omitempty"`
}
