package model

import "time"

// DayStatus classifies what an athlete did on a calendar day.
type DayStatus string

const (
	StatusFullTraining  DayStatus = "full_training"
	StatusGameOnly      DayStatus = "game_only"
	StatusLightWork     DayStatus = "light_work"
	StatusRecoveryOnly  DayStatus = "recovery_only"
	StatusTravelDay     DayStatus = "travel_day"
	StatusInjuryHold    DayStatus = "injury_hold"
	StatusVoluntaryRest DayStatus = "voluntary_rest"
	StatusMissed        DayStatus = "missed"
)

var dayStatuses = map[DayStatus]struct{}{
	StatusFullTraining:  {},
	StatusGameOnly:      {},
	StatusLightWork:     {},
	StatusRecoveryOnly:  {},
	StatusTravelDay:     {},
	StatusInjuryHold:    {},
	StatusVoluntaryRest: {},
	StatusMissed:        {},
}

// Valid reports whether s is a known status.
func (s DayStatus) Valid() bool {
	_, ok := dayStatuses[s]
	return ok
}

// DailyLogEntry is the single check-in an athlete records for a date.
// There is at most one entry per (AthleteID, Date).
type DailyLogEntry struct {
	AthleteID  string    `json:"athlete_id"`
	Date       time.Time `json:"date"`
	Status     DayStatus `json:"status"`
	RestReason string    `json:"rest_reason,omitempty"`
	Injury     bool      `json:"injury"`
	Notes      string    `json:"notes,omitempty"`

	// Optional wellness inputs for the fatigue proxy.
	SleepHours   *float64 `json:"sleep_hours,omitempty"`
	SleepQuality *int     `json:"sleep_quality,omitempty"`
	StressLevel  *int     `json:"stress_level,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// InjuryHold reports whether the day is excused for injury.
func (e DailyLogEntry) InjuryHold() bool {
	return e.Status == StatusInjuryHold || e.Injury
}

// HasWellness reports whether any fatigue input is present.
func (e DailyLogEntry) HasWellness() bool {
	return e.SleepHours != nil || e.SleepQuality != nil || e.StressLevel != nil
}
