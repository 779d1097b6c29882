package scoring

import (
	"math"

	"github.com/okian/prospect/internal/domain/model"
)

// FatigueLevel buckets the fatigue multiplier.
type FatigueLevel string

const (
	FatigueLow      FatigueLevel = "low"
	FatigueModerate FatigueLevel = "moderate"
	FatigueHigh     FatigueLevel = "high"
)

// Fatigue flags.
const (
	FlagSevereSleepDebt  = "severe_sleep_debt"
	FlagSleepDebt        = "sleep_debt"
	FlagPoorSleepQuality = "poor_sleep_quality"
	FlagHighStress       = "high_stress"
	FlagElevatedStress   = "elevated_stress"
)

const (
	fatigueFloor = 0.80

	severeSleepHours = 5.0
	shortSleepHours  = 6.5
	poorSleepQuality = 2
	highStress       = 8
	elevatedStress   = 6

	lowFatigueAtLeast      = 0.97
	moderateFatigueAtLeast = 0.90
)

// FatigueInput carries optional wellness readings. Nil fields are neutral.
type FatigueInput struct {
	SleepHours   *float64 `json:"sleep_hours,omitempty"`
	SleepQuality *int     `json:"sleep_quality,omitempty"`
	StressLevel  *int     `json:"stress_level,omitempty"`
}

// FatigueResult is the fatigue proxy for a day.
type FatigueResult struct {
	Multiplier float64      `json:"multiplier"`
	Level      FatigueLevel `json:"level"`
	Flags      []string     `json:"flags"`
}

// FatigueFromLog extracts the wellness readings of a daily log.
func FatigueFromLog(e model.DailyLogEntry) FatigueInput {
	return FatigueInput{SleepHours: e.SleepHours, SleepQuality: e.SleepQuality, StressLevel: e.StressLevel}
}

// Fatigue applies the sleep and stress rules multiplicatively, floored at 0.80.
func Fatigue(in FatigueInput) FatigueResult {
	m := 1.0
	flags := []string{}

	if in.SleepHours != nil {
		switch h := *in.SleepHours; {
		case h < severeSleepHours:
			m *= 0.90
			flags = append(flags, FlagSevereSleepDebt)
		case h < shortSleepHours:
			m *= 0.95
			flags = append(flags, FlagSleepDebt)
		}
	}
	if in.SleepQuality != nil && *in.SleepQuality <= poorSleepQuality {
		m *= 0.97
		flags = append(flags, FlagPoorSleepQuality)
	}
	if in.StressLevel != nil {
		switch s := *in.StressLevel; {
		case s >= highStress:
			m *= 0.92
			flags = append(flags, FlagHighStress)
		case s >= elevatedStress:
			m *= 0.97
			flags = append(flags, FlagElevatedStress)
		}
	}

	m = math.Max(fatigueFloor, m)
	return FatigueResult{Multiplier: m, Level: fatigueLevel(m), Flags: flags}
}

func fatigueLevel(m float64) FatigueLevel {
	switch {
	case m >= lowFatigueAtLeast:
		return FatigueLow
	case m >= moderateFatigueAtLeast:
		return FatigueModerate
	default:
		return FatigueHigh
	}
}
