// Package debt computes the technical-debt score that summarizes how much
// unreviewed, AI-heavy, or backlogged code a repository carries.
package debt

import "math"

// RiskZone buckets a debt score into an operator-facing traffic light.
type RiskZone string

const (
	ZoneHealthy  RiskZone = "healthy"
	ZoneCaution  RiskZone = "caution"
	ZoneCritical RiskZone = "critical"
)

// Component weights. They sum to 1.0 so the penalty term stays in [0,1].
const (
	weightAIRatio  = 0.30
	weightReview   = 0.30
	weightRefactor = 0.20
	weightPrompt   = 0.20
)

// Inputs are the four normalized debt components, each expected in [0,1].
// Out-of-range values are clamped before scoring.
type Inputs struct {
	// AILOCRatio is the fraction of lines the detector attributes to AI.
	AILOCRatio float64 `json:"aiLocRatio"`
	// ReviewCoverage is the fraction of changes that went through review.
	ReviewCoverage float64 `json:"reviewCoverage"`
	// RefactorBacklogGrowth measures growth of flagged refactor candidates.
	RefactorBacklogGrowth float64 `json:"refactorBacklogGrowth"`
	// PromptInconsistency measures divergence between generated code and
	// the conventions of the surrounding codebase.
	PromptInconsistency float64 `json:"promptInconsistency"`
}

// Score is a computed 0-100 debt score with its component breakdown.
type Score struct {
	Value     float64  `json:"value"`
	Zone      RiskZone `json:"zone"`
	Breakdown Inputs   `json:"breakdown"`
}

// Compute applies the weighted debt formula:
//
//	score = 100 - 100*(0.30*aiRatio + 0.30*(1-review) + 0.20*refactor + 0.20*prompt)
//
// clamped to [0,100]. Higher is healthier.
func Compute(in Inputs) Score {
	clamped := Inputs{
		AILOCRatio:            clamp01(in.AILOCRatio),
		ReviewCoverage:        clamp01(in.ReviewCoverage),
		RefactorBacklogGrowth: clamp01(in.RefactorBacklogGrowth),
		PromptInconsistency:   clamp01(in.PromptInconsistency),
	}

	penalty := weightAIRatio*clamped.AILOCRatio +
		weightReview*(1-clamped.ReviewCoverage) +
		weightRefactor*clamped.RefactorBacklogGrowth +
		weightPrompt*clamped.PromptInconsistency

	value := 100 - 100*penalty
	if value < 0 {
		value = 0
	}
	if value > 100 {
		value = 100
	}
	value = math.Round(value*100) / 100

	return Score{
		Value:     value,
		Zone:      ZoneFor(value),
		Breakdown: clamped,
	}
}

// ZoneFor maps a 0-100 score to its risk zone.
func ZoneFor(score float64) RiskZone {
	switch {
	case score >= 80:
		return ZoneHealthy
	case score >= 60:
		return ZoneCaution
	default:
		return ZoneCritical
	}
}

// CompanyRollup averages the latest score per repository into a single
// company-wide score with its own zone. An empty input yields a perfect
// score: no repositories means no measured debt.
func CompanyRollup(latest []float64) Score {
	if len(latest) == 0 {
		return Score{Value: 100, Zone: ZoneHealthy}
	}

	var sum float64
	for _, s := range latest {
		sum += s
	}
	mean := math.Round(sum/float64(len(latest))*100) / 100

	return Score{Value: mean, Zone: ZoneFor(mean)}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
