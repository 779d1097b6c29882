package model

// GradeSource names who produced a session's effective grade.
type GradeSource string

const (
	GradeNone          GradeSource = ""
	GradeCoachOverride GradeSource = "coach_override"
	GradeCoach         GradeSource = "coach"
	GradeScout         GradeSource = "scout"
	GradePlayer        GradeSource = "player"
)

// Independent reports whether the grade came from someone other than the athlete.
func (g GradeSource) Independent() bool {
	return g == GradeCoachOverride || g == GradeCoach || g == GradeScout
}

// Grades holds every grade recorded for a session.
type Grades struct {
	CoachOverride *float64 `json:"coach_override,omitempty"`
	Coach         *float64 `json:"coach,omitempty"`
	Scout         *float64 `json:"scout,omitempty"`
	Player        *float64 `json:"player,omitempty"`
}

// GradePrecedence is the order in which grades are trusted, highest first.
var GradePrecedence = []GradeSource{GradeCoachOverride, GradeCoach, GradeScout, GradePlayer}

func (g Grades) bySource(src GradeSource) *float64 {
	switch src {
	case GradeCoachOverride:
		return g.CoachOverride
	case GradeCoach:
		return g.Coach
	case GradeScout:
		return g.Scout
	case GradePlayer:
		return g.Player
	default:
		return nil
	}
}

// ResolveGrade returns the first present grade in GradePrecedence order.
// It returns GradeNone and nil when no grade was recorded.
func ResolveGrade(g Grades) (GradeSource, *float64) {
	for _, src := range GradePrecedence {
		if v := g.bySource(src); v != nil {
			out := *v
			return src, &out
		}
	}
	return GradeNone, nil
}
