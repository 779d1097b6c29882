package scoring

import "math"

const (
	probabilityFloor = 0.1
	// VerifiedProProbability is reserved for verified professionals.
	VerifiedProProbability = 100.0
	maxInterpolated        = 99.0
)

// ProTier maps a score range onto a probability range.
type ProTier struct {
	Name     string  `json:"name"`
	MinScore float64 `json:"min_score"`
	MaxScore float64 `json:"max_score"`
	MinProb  float64 `json:"min_prob"`
	MaxProb  float64 `json:"max_prob"`
}

// ProTiers are contiguous over [0,100].
var ProTiers = []ProTier{
	{"entry", 0, 40, 0.1, 2},
	{"developing", 40, 55, 2, 8},
	{"average", 55, 65, 8, 20},
	{"above_average", 65, 72, 20, 40},
	{"high", 72, 80, 40, 75},
	{"elite", 80, 100, 75, 99},
}

func tierFor(score float64) (ProTier, bool) {
	if math.IsNaN(score) {
		score = 0
	}
	score = clamp(score, minScore, maxScore)
	for _, t := range ProTiers {
		if score >= t.MinScore && score <= t.MaxScore {
			return t, true
		}
	}
	return ProTier{}, false
}

// ProProbability interpolates the pro probability for a 0-100 score.
func ProProbability(score float64) float64 {
	if math.IsNaN(score) {
		score = 0
	}
	score = clamp(score, minScore, maxScore)
	t, ok := tierFor(score)
	if !ok {
		return probabilityFloor
	}
	width := t.MaxScore - t.MinScore
	if width <= 0 {
		return t.MinProb
	}
	return t.MinProb + (score-t.MinScore)/width*(t.MaxProb-t.MinProb)
}

// ProTierName returns the name of the tier containing score.
func ProTierName(score float64) string {
	t, ok := tierFor(score)
	if !ok {
		return ""
	}
	return t.Name
}
