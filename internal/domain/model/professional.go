package model

import "time"

// ProfessionalStatus tracks verified professional seasons per league.
type ProfessionalStatus struct {
	AthleteID string         `json:"athlete_id"`
	Verified  bool           `json:"verified"`
	Seasons   map[string]int `json:"seasons"`
	UpdatedAt time.Time      `json:"updated_at"`
}
