// Package model contains domain models passed between layers.
package model

import (
	"strings"
	"time"
)

// Sport selects the age curve and the leagues that count toward HoF seasons.
type Sport string

const (
	SportBaseball Sport = "baseball"
	SportSoftball Sport = "softball"
)

// ParseSport normalizes s. Unknown sports are returned as-is so lookups can
// fall back to their neutral defaults.
func ParseSport(s string) Sport {
	return Sport(strings.ToLower(strings.TrimSpace(s)))
}

// Valid reports whether the sport is one the engine has tables for.
func (s Sport) Valid() bool {
	return s == SportBaseball || s == SportSoftball
}

// Athlete is the profile the MPI multipliers are read from.
type Athlete struct {
	ID               string    `json:"id"`
	Name             string    `json:"name,omitempty"`
	Sport            Sport     `json:"sport"`
	BirthDate        time.Time `json:"birth_date"`
	Tier             string    `json:"tier,omitempty"`
	Position         string    `json:"position,omitempty"`
	PrimaryPitchType string    `json:"primary_pitch_type,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// AgeAt returns the athlete's age in whole years on asOf. An unknown birth
// date yields 0.
func (a Athlete) AgeAt(asOf time.Time) int {
	if a.BirthDate.IsZero() {
		return 0
	}
	b := a.BirthDate.UTC()
	d := asOf.UTC()
	age := d.Year() - b.Year()
	if d.Month() < b.Month() || (d.Month() == b.Month() && d.Day() < b.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}

// Day truncates t to its UTC calendar date at midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"
