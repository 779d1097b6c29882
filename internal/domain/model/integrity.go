package model

import "time"

// Severity classifies an integrity rule.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Condition identifies a detected integrity condition and doubles as the rule id.
type Condition string

const (
	ConditionInflatedSelfGrade     Condition = "inflated_self_grade"
	ConditionVolumeSpike           Condition = "volume_spike"
	ConditionRapidImprovement      Condition = "rapid_improvement"
	ConditionGradeReversal         Condition = "grade_reversal"
	ConditionLowIntegrityThreshold Condition = "low_integrity_threshold"
	ConditionManualAdminFlag       Condition = "manual_admin_flag"
	ConditionArbitrationRequest    Condition = "arbitration_request"
	ConditionCoachDispute          Condition = "coach_dispute"
)

// FlagStatus is the lifecycle state of an integrity flag.
type FlagStatus string

const (
	FlagActive   FlagStatus = "active"
	FlagResolved FlagStatus = "resolved"
)

// IntegrityFlag records a rule hit against an athlete until an admin resolves it.
type IntegrityFlag struct {
	ID               string     `json:"id"`
	AthleteID        string     `json:"athlete_id"`
	RuleID           Condition  `json:"rule_id"`
	Severity         Severity   `json:"severity"`
	DeductionPct     float64    `json:"deduction_pct"`
	Status           FlagStatus `json:"status"`
	Details          string     `json:"details,omitempty"`
	RaisedAt         time.Time  `json:"raised_at"`
	ResolvedAt       *time.Time `json:"resolved_at,omitempty"`
	ResolutionAction string     `json:"resolution_action,omitempty"`
	ResolutionNotes  string     `json:"resolution_notes,omitempty"`
}

// Active reports whether the flag still deducts from the integrity score.
func (f IntegrityFlag) Active() bool { return f.Status == FlagActive }
