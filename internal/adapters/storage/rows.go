package storage

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/okian/prospect/internal/domain/model"
)

type athleteRow struct {
	ID               string `gorm:"primaryKey;size:64"`
	Name             string
	Sport            string `gorm:"size:16;not null"`
	BirthDate        *datatypes.Date
	Tier             string `gorm:"size:32"`
	Position         string `gorm:"size:32"`
	PrimaryPitchType string `gorm:"size:32"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (athleteRow) TableName() string { return "athletes" }

type dailyLogRow struct {
	AthleteID    string         `gorm:"primaryKey;size:64"`
	Date         datatypes.Date `gorm:"primaryKey"`
	Status       string         `gorm:"size:32;not null"`
	RestReason   string
	Injury       bool
	Notes        string
	SleepHours   *float64
	SleepQuality *int
	StressLevel  *int
	UpdatedAt    time.Time
}

func (dailyLogRow) TableName() string { return "daily_logs" }

type sessionRow struct {
	ID             string                               `gorm:"primaryKey;size:64"`
	AthleteID      string                               `gorm:"size:64;not null;index:idx_session_athlete_date,priority:1"`
	Date           datatypes.Date                       `gorm:"not null;index:idx_session_athlete_date,priority:2"`
	Sport          string                               `gorm:"size:16"`
	Type           string                               `gorm:"column:session_type;size:32;not null"`
	Blocks         datatypes.JSONSlice[model.DrillBlock] `gorm:"not null"`
	Grades         datatypes.JSONType[model.Grades]
	EffectiveGrade *float64
	GradeSource    string `gorm:"size:32"`
	CreatedAt      time.Time
	DeletedAt      gorm.DeletedAt `gorm:"index"`
}

func (sessionRow) TableName() string { return "performance_sessions" }

type snapshotRow struct {
	ID                  string    `gorm:"primaryKey;size:64"`
	AthleteID           string    `gorm:"size:64;not null;index:idx_snapshot_athlete_time,priority:1"`
	CalculatedAt        time.Time `gorm:"not null;index:idx_snapshot_athlete_time,priority:2"`
	BaseScore           float64
	AdjustedGlobalScore float64
	GlobalRank          int
	Percentile          float64
	ProProbability      float64
	Trend               string `gorm:"size:16"`
	TrendDelta          float64
	IntegrityScore      float64
	ConsistencyScore    int
	DampingMultiplier   float64
	FatigueMultiplier   float64
	AgeMultiplier       float64
	TierMultiplier      float64
	PositionMultiplier  float64
	SessionsUsed        int
}

func (snapshotRow) TableName() string { return "score_snapshots" }

type flagRow struct {
	ID               string `gorm:"primaryKey;size:64"`
	AthleteID        string `gorm:"size:64;not null;index"`
	RuleID           string `gorm:"size:48;not null"`
	Severity         string `gorm:"size:16;not null"`
	DeductionPct     float64
	Status           string `gorm:"size:16;not null;index"`
	Details          string
	RaisedAt         time.Time `gorm:"not null"`
	ResolvedAt       *time.Time
	ResolutionAction string
	ResolutionNotes  string
}

func (flagRow) TableName() string { return "integrity_flags" }

type proStatusRow struct {
	AthleteID string `gorm:"primaryKey;size:64"`
	Verified  bool
	Seasons   datatypes.JSONType[map[string]int]
	UpdatedAt time.Time
}

func (proStatusRow) TableName() string { return "professional_statuses" }

func allRows() []any {
	return []any{&athleteRow{}, &dailyLogRow{}, &sessionRow{}, &snapshotRow{}, &flagRow{}, &proStatusRow{}}
}

func dateOf(t time.Time) datatypes.Date { return datatypes.Date(model.Day(t)) }

func fromDate(d datatypes.Date) time.Time { return model.Day(time.Time(d)) }

func athleteToRow(a model.Athlete) athleteRow {
	r := athleteRow{
		ID:               a.ID,
		Name:             a.Name,
		Sport:            string(a.Sport),
		Tier:             a.Tier,
		Position:         a.Position,
		PrimaryPitchType: a.PrimaryPitchType,
		CreatedAt:        a.CreatedAt.UTC(),
		UpdatedAt:        a.UpdatedAt.UTC(),
	}
	if !a.BirthDate.IsZero() {
		d := dateOf(a.BirthDate)
		r.BirthDate = &d
	}
	return r
}

func (r athleteRow) toModel() model.Athlete {
	a := model.Athlete{
		ID:               r.ID,
		Name:             r.Name,
		Sport:            model.Sport(r.Sport),
		Tier:             r.Tier,
		Position:         r.Position,
		PrimaryPitchType: r.PrimaryPitchType,
		CreatedAt:        r.CreatedAt.UTC(),
		UpdatedAt:        r.UpdatedAt.UTC(),
	}
	if r.BirthDate != nil {
		a.BirthDate = fromDate(*r.BirthDate)
	}
	return a
}

func dailyLogToRow(e model.DailyLogEntry) dailyLogRow {
	return dailyLogRow{
		AthleteID:    e.AthleteID,
		Date:         dateOf(e.Date),
		Status:       string(e.Status),
		RestReason:   e.RestReason,
		Injury:       e.Injury,
		Notes:        e.Notes,
		SleepHours:   e.SleepHours,
		SleepQuality: e.SleepQuality,
		StressLevel:  e.StressLevel,
		UpdatedAt:    e.UpdatedAt.UTC(),
	}
}

func (r dailyLogRow) toModel() model.DailyLogEntry {
	return model.DailyLogEntry{
		AthleteID:    r.AthleteID,
		Date:         fromDate(r.Date),
		Status:       model.DayStatus(r.Status),
		RestReason:   r.RestReason,
		Injury:       r.Injury,
		Notes:        r.Notes,
		SleepHours:   r.SleepHours,
		SleepQuality: r.SleepQuality,
		StressLevel:  r.StressLevel,
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

func sessionToRow(s model.PerformanceSession) sessionRow {
	r := sessionRow{
		ID:             s.ID,
		AthleteID:      s.AthleteID,
		Date:           dateOf(s.Date),
		Sport:          string(s.Sport),
		Type:           string(s.Type),
		Blocks:         datatypes.NewJSONSlice(s.Blocks),
		Grades:         datatypes.NewJSONType(s.Grades),
		EffectiveGrade: s.EffectiveGrade,
		GradeSource:    string(s.GradeSource),
		CreatedAt:      s.CreatedAt.UTC(),
	}
	if r.Blocks == nil {
		r.Blocks = datatypes.JSONSlice[model.DrillBlock]{}
	}
	if s.DeletedAt != nil {
		r.DeletedAt = gorm.DeletedAt{Time: s.DeletedAt.UTC(), Valid: true}
	}
	return r
}

func (r sessionRow) toModel() model.PerformanceSession {
	s := model.PerformanceSession{
		ID:             r.ID,
		AthleteID:      r.AthleteID,
		Sport:          model.Sport(r.Sport),
		Type:           model.SessionType(r.Type),
		Date:           fromDate(r.Date),
		Blocks:         []model.DrillBlock(r.Blocks),
		Grades:         r.Grades.Data(),
		EffectiveGrade: r.EffectiveGrade,
		GradeSource:    model.GradeSource(r.GradeSource),
		CreatedAt:      r.CreatedAt.UTC(),
	}
	if r.DeletedAt.Valid {
		at := r.DeletedAt.Time.UTC()
		s.DeletedAt = &at
	}
	return s
}

func snapshotToRow(s model.CompositeScoreSnapshot) snapshotRow {
	return snapshotRow{
		ID:                  s.ID,
		AthleteID:           s.AthleteID,
		CalculatedAt:        s.CalculatedAt.UTC(),
		BaseScore:           s.BaseScore,
		AdjustedGlobalScore: s.AdjustedGlobalScore,
		GlobalRank:          s.GlobalRank,
		Percentile:          s.Percentile,
		ProProbability:      s.ProProbability,
		Trend:               string(s.Trend),
		TrendDelta:          s.TrendDelta,
		IntegrityScore:      s.IntegrityScore,
		ConsistencyScore:    s.ConsistencyScore,
		DampingMultiplier:   s.DampingMultiplier,
		FatigueMultiplier:   s.FatigueMultiplier,
		AgeMultiplier:       s.AgeMultiplier,
		TierMultiplier:      s.TierMultiplier,
		PositionMultiplier:  s.PositionMultiplier,
		SessionsUsed:        s.SessionsUsed,
	}
}

func (r snapshotRow) toModel() model.CompositeScoreSnapshot {
	return model.CompositeScoreSnapshot{
		ID:                  r.ID,
		AthleteID:           r.AthleteID,
		CalculatedAt:        r.CalculatedAt.UTC(),
		BaseScore:           r.BaseScore,
		AdjustedGlobalScore: r.AdjustedGlobalScore,
		GlobalRank:          r.GlobalRank,
		Percentile:          r.Percentile,
		ProProbability:      r.ProProbability,
		Trend:               model.Trend(r.Trend),
		TrendDelta:          r.TrendDelta,
		IntegrityScore:      r.IntegrityScore,
		ConsistencyScore:    r.ConsistencyScore,
		DampingMultiplier:   r.DampingMultiplier,
		FatigueMultiplier:   r.FatigueMultiplier,
		AgeMultiplier:       r.AgeMultiplier,
		TierMultiplier:      r.TierMultiplier,
		PositionMultiplier:  r.PositionMultiplier,
		SessionsUsed:        r.SessionsUsed,
	}
}

func flagToRow(f model.IntegrityFlag) flagRow {
	r := flagRow{
		ID:               f.ID,
		AthleteID:        f.AthleteID,
		RuleID:           string(f.RuleID),
		Severity:         string(f.Severity),
		DeductionPct:     f.DeductionPct,
		Status:           string(f.Status),
		Details:          f.Details,
		RaisedAt:         f.RaisedAt.UTC(),
		ResolutionAction: f.ResolutionAction,
		ResolutionNotes:  f.ResolutionNotes,
	}
	if f.ResolvedAt != nil {
		at := f.ResolvedAt.UTC()
		r.ResolvedAt = &at
	}
	return r
}

func (r flagRow) toModel() model.IntegrityFlag {
	f := model.IntegrityFlag{
		ID:               r.ID,
		AthleteID:        r.AthleteID,
		RuleID:           model.Condition(r.RuleID),
		Severity:         model.Severity(r.Severity),
		DeductionPct:     r.DeductionPct,
		Status:           model.FlagStatus(r.Status),
		Details:          r.Details,
		RaisedAt:         r.RaisedAt.UTC(),
		ResolutionAction: r.ResolutionAction,
		ResolutionNotes:  r.ResolutionNotes,
	}
	if r.ResolvedAt != nil {
		at := r.ResolvedAt.UTC()
		f.ResolvedAt = &at
	}
	return f
}

func proStatusToRow(p model.ProfessionalStatus) proStatusRow {
	seasons := p.Seasons
	if seasons == nil {
		seasons = map[string]int{}
	}
	return proStatusRow{
		AthleteID: p.AthleteID,
		Verified:  p.Verified,
		Seasons:   datatypes.NewJSONType(seasons),
		UpdatedAt: p.UpdatedAt.UTC(),
	}
}

func (r proStatusRow) toModel() model.ProfessionalStatus {
	return model.ProfessionalStatus{
		AthleteID: r.AthleteID,
		Verified:  r.Verified,
		Seasons:   r.Seasons.Data(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}
