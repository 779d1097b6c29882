// Package seed drives a running prospect service with generated athletes,
// daily logs and sessions, then verifies the resulting leaderboard.
package seed

import (
	"time"

	"github.com/okian/prospect/internal/domain/model"
	"github.com/okian/prospect/internal/domain/types"
)

// Config holds configuration for a seeding run.
type Config struct {
	BaseURL  string        // Base URL of the service
	Athletes int           // Number of athletes to generate
	Days     int           // Days of history per athlete, ending today
	TopN     int           // Number of leaderboard entries to verify
	Workers  int           // Number of concurrent submitters
	Timeout  time.Duration // HTTP request timeout
	Seed     uint64        // Generator seed; equal seeds produce equal plans
	Verbose  bool          // Log every athlete as it is submitted
}

// Plan is everything submitted for one athlete.
type Plan struct {
	Athlete  model.Athlete
	Logs     []model.DailyLogEntry
	Sessions []model.PerformanceSession
}

// Entry is a leaderboard row as served by the API.
type Entry = types.Entry

// Stats holds run statistics.
type Stats struct {
	Athletes           int
	LogsSubmitted      int
	SessionsSubmitted  int
	Scored             int
	InsufficientData   int
	Failed             int
	LeaderboardEntries int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
