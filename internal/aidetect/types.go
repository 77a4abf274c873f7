// Package aidetect estimates the probability that a source file was
// AI-generated by fusing commit-metadata, stylistic, and optional remote ML
// signals.
package aidetect

// RiskTier buckets a fused probability.
type RiskTier string

const (
	TierHigh   RiskTier = "high"
	TierMedium RiskTier = "medium"
	TierLow    RiskTier = "low"
)

// MetadataSignal is the result of matching commit/PR text against known
// AI-tool attribution phrases.
type MetadataSignal struct {
	Matched     bool    `json:"matched"`
	Confidence  float64 `json:"confidence"`
	MatchedText string  `json:"matchedText,omitempty"`
	Class       string  `json:"class,omitempty"` // tool_name, generated_by, co_author
}

// StyleSignal is the weighted stylistic score with its component breakdown.
type StyleSignal struct {
	Score      float64            `json:"score"`
	Components map[string]float64 `json:"components"`
}

// MLSignal is the optional remote classifier result. Available is false on
// any transport or configuration failure; the signal never raises.
type MLSignal struct {
	Available    bool    `json:"available"`
	Probability  float64 `json:"probability"`
	ModelVersion string  `json:"modelVersion,omitempty"`
}

// Result is the fused AI-authorship estimate for one file.
type Result struct {
	Probability float64  `json:"probability"` // [0,1], rounded to 2 decimals
	Tier        RiskTier `json:"tier"`
	Method      string   `json:"method"` // which fusion branch produced the score
}

// CommitContext carries the commit/PR text evaluated by the metadata analyzer.
type CommitContext struct {
	CommitMessage string
	PRTitle       string
	PRBody        string
}
