package scoring

import (
	"math"

	"github.com/okian/prospect/internal/domain/model"
)

// SessionWeights are the per-session-type multipliers.
type SessionWeights struct {
	CompetitiveExecution float64 `json:"competitive_execution"`
	DecisionIndex        float64 `json:"decision_index"`
	VolumeMultiplier     float64 `json:"volume_multiplier"`
	SkillRefinement      float64 `json:"skill_refinement"`
	IntentCompliance     float64 `json:"intent_compliance"`
}

var neutralSessionWeights = SessionWeights{1, 1, 1, 1, 1}

var sessionWeightTable = map[model.SessionType]SessionWeights{
	model.SessionPersonalPractice: {0.80, 0.80, 1.00, 1.00, 1.00},
	model.SessionTeamPractice:     {0.90, 0.90, 1.00, 1.00, 1.00},
	model.SessionCoachLesson:      {0.85, 0.90, 0.90, 1.15, 1.10},
	model.SessionGame:             {1.50, 1.40, 0.60, 0.80, 1.00},
	model.SessionPostGameAnalysis: {0.70, 1.20, 0.50, 1.00, 0.90},
	model.SessionBullpen:          {1.00, 0.90, 1.00, 1.05, 1.00},
	model.SessionLiveScrimmage:    {1.35, 1.30, 0.70, 0.90, 1.00},
	model.SessionRehab:            {0.30, 0.40, 0.50, 0.40, 0.50},
}

// SessionWeightsFor returns the multipliers for t; unknown types are neutral.
func SessionWeightsFor(t model.SessionType) SessionWeights {
	if w, ok := sessionWeightTable[t]; ok {
		return w
	}
	return neutralSessionWeights
}

// KnownSessionType reports whether t has its own weights.
func KnownSessionType(t model.SessionType) bool {
	_, ok := sessionWeightTable[t]
	return ok
}

// SessionScore is a session's contribution to the MPI.
type SessionScore struct {
	// Score is the 0-100 session composite.
	Score float64
	// Weight is the session's weight in the MPI mean.
	Weight float64
	Reps   int
}

// NormalizeGrade maps a 20-80 grade onto 0-100, clamping outliers.
func NormalizeGrade(g float64) float64 {
	g = clamp(g, model.MinGrade, model.MaxGrade)
	return (g - model.MinGrade) / (model.MaxGrade - model.MinGrade) * maxScore
}

// SessionComposite scores s with the default weight tables.
func SessionComposite(s model.PerformanceSession) (SessionScore, bool) {
	return defaultTables.SessionComposite(s)
}

// SessionComposite scores s. It returns false when the session has neither
// drill blocks nor any grade.
func (w *WeightTables) SessionComposite(s model.PerformanceSession) (SessionScore, bool) {
	sw := SessionWeightsFor(s.Type)
	src, grade := effectiveGrade(s)

	var raw float64
	reps := 0
	switch {
	case len(s.Blocks) > 0:
		var weighted float64
		for _, b := range s.Blocks {
			r := b.Reps
			if r < 1 {
				r = 1
			}
			score := NormalizeGrade(b.ExecutionGrade) * sw.SkillRefinement * w.PitchType(b.PitchType)
			if b.Intent != "" {
				score *= sw.IntentCompliance
			}
			weighted += float64(r) * score
			reps += r
		}
		raw = weighted / float64(reps)
		if grade != nil && src.Independent() {
			raw = (raw + NormalizeGrade(*grade)) / 2
		}
	case grade != nil:
		raw = NormalizeGrade(*grade)
	default:
		return SessionScore{}, false
	}

	return SessionScore{
		Score:  clamp(raw*(sw.CompetitiveExecution+sw.DecisionIndex)/2, minScore, maxScore),
		Weight: sw.CompetitiveExecution * sw.DecisionIndex * sw.VolumeMultiplier * (1 + math.Log1p(float64(reps))),
		Reps:   reps,
	}, true
}

// effectiveGrade prefers the stored effective grade and resolves the
// precedence list otherwise.
func effectiveGrade(s model.PerformanceSession) (model.GradeSource, *float64) {
	if s.EffectiveGrade != nil && s.GradeSource != model.GradeNone {
		return s.GradeSource, s.EffectiveGrade
	}
	return model.ResolveGrade(s.Grades)
}
