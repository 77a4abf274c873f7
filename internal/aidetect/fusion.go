package aidetect

import "math"

// Fuse blends the available signals into one AI-authorship probability. The
// weighting scheme depends on which optional signals are present; a missing
// signal reweights the others, it never fails the fusion.
//
//	metadata + ML:  0.40*metadata + 0.30*style + 0.30*ml
//	metadata only:  0.45*metadata + 0.55*style
//	ML only:        0.50*style + 0.50*ml
//	neither:        style alone
func Fuse(meta MetadataSignal, style StyleSignal, ml MLSignal) Result {
	var p float64
	var method string

	switch {
	case meta.Matched && ml.Available:
		p = 0.40*meta.Confidence + 0.30*style.Score + 0.30*ml.Probability
		method = "metadata+style+ml"
	case meta.Matched:
		p = 0.45*meta.Confidence + 0.55*style.Score
		method = "metadata+style"
	case ml.Available:
		p = 0.50*style.Score + 0.50*ml.Probability
		method = "style+ml"
	default:
		p = style.Score
		method = "style"
	}

	p = clamp01(p)
	p = math.Round(p*100) / 100

	return Result{
		Probability: p,
		Tier:        tierFor(p),
		Method:      method,
	}
}

func tierFor(p float64) RiskTier {
	switch {
	case p >= 0.70:
		return TierHigh
	case p >= 0.40:
		return TierMedium
	default:
		return TierLow
	}
}
