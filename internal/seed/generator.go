package seed

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/okian/prospect/internal/domain/model"
)

var (
	tiers     = []string{"high_school", "showcase", "juco", "ncaa_d3", "ncaa_d2", "ncaa_d1", "milb"}
	positions = []string{"c", "ss", "cf", "p", "2b", "3b", "rf", "lf", "1b", "dh"}
	pitches   = []string{"fastball", "sinker", "cutter", "curveball", "slider", "changeup", "splitter"}
	sessions  = []model.SessionType{
		model.SessionPersonalPractice,
		model.SessionTeamPractice,
		model.SessionCoachLesson,
		model.SessionBullpen,
		model.SessionLiveScrimmage,
	}
)

// generator produces reproducible plans from a seed.
type generator struct {
	rng   *rand.Rand
	today time.Time
}

func newGenerator(seed uint64, today time.Time) *generator {
	return &generator{
		rng:   rand.New(rand.NewPCG(seed, seed^0x5eed)),
		today: model.Day(today),
	}
}

// Generate builds cfg.Athletes plans with cfg.Days of history ending today.
func Generate(cfg *Config, today time.Time) []Plan {
	g := newGenerator(cfg.Seed, today)
	plans := make([]Plan, cfg.Athletes)
	for i := range plans {
		plans[i] = g.plan(i, cfg.Days)
	}
	return plans
}

func (g *generator) pick(options []string) string { return options[g.rng.IntN(len(options))] }

// grade draws around talent, clamped to the scouting scale.
func (g *generator) grade(talent float64) float64 {
	v := talent + g.rng.NormFloat64()*6
	v = max(model.MinGrade, min(model.MaxGrade, v))
	return float64(int(v*10)) / 10
}

func (g *generator) plan(index, days int) Plan {
	position := g.pick(positions)
	a := model.Athlete{
		ID:        fmt.Sprintf("seed-%05d", index),
		Name:      fmt.Sprintf("Prospect %d", index+1),
		Sport:     model.SportBaseball,
		BirthDate: g.today.AddDate(-(15 + g.rng.IntN(12)), -g.rng.IntN(12), -g.rng.IntN(28)),
		Tier:      g.pick(tiers),
		Position:  position,
	}
	if position == "p" {
		a.PrimaryPitchType = g.pick(pitches)
	}

	talent := 35 + g.rng.Float64()*40
	discipline := 0.6 + g.rng.Float64()*0.4

	p := Plan{Athlete: a}
	for d := days - 1; d >= 0; d-- {
		day := g.today.AddDate(0, 0, -d)
		entry := g.dailyLog(a.ID, day, discipline)
		p.Logs = append(p.Logs, entry)
		if entry.Status == model.StatusFullTraining || entry.Status == model.StatusGameOnly {
			p.Sessions = append(p.Sessions, g.session(a, day, entry.Status, talent))
		}
	}
	return p
}

func (g *generator) dailyLog(athleteID string, day time.Time, discipline float64) model.DailyLogEntry {
	e := model.DailyLogEntry{AthleteID: athleteID, Date: day}
	switch r := g.rng.Float64(); {
	case r < discipline*0.7:
		e.Status = model.StatusFullTraining
	case r < discipline*0.8:
		e.Status = model.StatusGameOnly
	case r < discipline:
		e.Status = model.StatusLightWork
	case r < discipline+(1-discipline)/2:
		e.Status = model.StatusVoluntaryRest
	default:
		e.Status = model.StatusMissed
	}

	sleep := float64(int((5+g.rng.Float64()*4)*2)) / 2
	quality := 1 + g.rng.IntN(5)
	stress := 1 + g.rng.IntN(10)
	e.SleepHours, e.SleepQuality, e.StressLevel = &sleep, &quality, &stress
	return e
}

func (g *generator) session(a model.Athlete, day time.Time, status model.DayStatus, talent float64) model.PerformanceSession {
	s := model.PerformanceSession{AthleteID: a.ID, Sport: a.Sport, Date: day}
	if status == model.StatusGameOnly {
		s.Type = model.SessionGame
		coach := g.grade(talent)
		s.Grades.Coach = &coach
		return s
	}

	s.Type = sessions[g.rng.IntN(len(sessions))]
	blocks := 1 + g.rng.IntN(3)
	for range blocks {
		b := model.DrillBlock{
			DrillType:      "drill",
			Reps:           5 + g.rng.IntN(26),
			ExecutionGrade: g.grade(talent),
		}
		if a.PrimaryPitchType != "" {
			b.DrillType = "pitching"
			b.PitchType = a.PrimaryPitchType
		}
		s.Blocks = append(s.Blocks, b)
	}
	if g.rng.IntN(3) == 0 {
		player := g.grade(talent + 4)
		s.Grades.Player = &player
	}
	return s
}
