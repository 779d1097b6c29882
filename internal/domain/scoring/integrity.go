package scoring

import (
	"sort"
	"time"

	"github.com/okian/prospect/internal/domain/model"
)

const verifiedSessionRecovery = 0.5

// IntegrityRule is the prescribed penalty for a detected condition.
type IntegrityRule struct {
	ID           model.Condition `json:"id"`
	Label        string          `json:"label"`
	Severity     model.Severity  `json:"severity"`
	DeductionPct float64         `json:"deduction_pct"`
	Description  string          `json:"description"`
}

var integrityRules = map[model.Condition]IntegrityRule{
	model.ConditionInflatedSelfGrade: {
		model.ConditionInflatedSelfGrade, "Inflated self-grading", model.SeverityWarning, 5,
		"Self-grades consistently exceed coach or scout grades.",
	},
	model.ConditionVolumeSpike: {
		model.ConditionVolumeSpike, "Suspicious volume spike", model.SeverityWarning, 3,
		"Logged rep volume jumped far above the athlete's baseline.",
	},
	model.ConditionRapidImprovement: {
		model.ConditionRapidImprovement, "Rapid improvement", model.SeverityWarning, 2,
		"Grades improved faster than is typical for the athlete's level.",
	},
	model.ConditionGradeReversal: {
		model.ConditionGradeReversal, "Grade reversal", model.SeverityWarning, 4,
		"A verified grade was later contradicted by the athlete's own entry.",
	},
	model.ConditionLowIntegrityThreshold: {
		model.ConditionLowIntegrityThreshold, "Integrity below threshold", model.SeverityCritical, 10,
		"The integrity score dropped below the review threshold.",
	},
	model.ConditionManualAdminFlag: {
		model.ConditionManualAdminFlag, "Manual admin flag", model.SeverityCritical, 15,
		"An administrator flagged the account for review.",
	},
	model.ConditionArbitrationRequest: {
		model.ConditionArbitrationRequest, "Arbitration request", model.SeverityInfo, 0,
		"The athlete requested arbitration of a grade. Audit only.",
	},
	model.ConditionCoachDispute: {
		model.ConditionCoachDispute, "Coach dispute", model.SeverityInfo, 0,
		"A coach disputed a grade. Audit only.",
	},
}

// EvaluateIntegrity maps a condition to its rule. Unknown conditions map to a
// zero-deduction info rule and false.
func EvaluateIntegrity(cond model.Condition) (IntegrityRule, bool) {
	if r, ok := integrityRules[cond]; ok {
		return r, true
	}
	return IntegrityRule{ID: cond, Label: "Unknown condition", Severity: model.SeverityInfo}, false
}

// IntegrityRules lists every known rule ordered by id.
func IntegrityRules() []IntegrityRule {
	out := make([]IntegrityRule, 0, len(integrityRules))
	for _, r := range integrityRules {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// IntegrityScore starts at 100, subtracts every active flag's deduction and
// recovers 0.5 per verified session dated after the earliest active flag.
func IntegrityScore(flags []model.IntegrityFlag, verifiedSessions []time.Time) float64 {
	var (
		deductions float64
		earliest   time.Time
		active     bool
	)
	for _, f := range flags {
		if !f.Active() {
			continue
		}
		deductions += f.DeductionPct
		if !active || f.RaisedAt.Before(earliest) {
			earliest = f.RaisedAt
		}
		active = true
	}
	if !active {
		return maxScore
	}

	recovered := 0
	for _, t := range verifiedSessions {
		if t.After(earliest) {
			recovered++
		}
	}
	return clamp(maxScore-deductions+verifiedSessionRecovery*float64(recovered), minScore, maxScore)
}
