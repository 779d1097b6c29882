package scoring

import (
	"math"
	"time"

	"github.com/okian/prospect/internal/domain/model"
)

// Default engine configuration.
const (
	defaultSessionWindowDays = 90
	defaultFatigueLookback   = 3
	defaultTrendLookbackDays = 30
	defaultTrendThreshold    = 2.0
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithWeightTables sets the tier, position and pitch-type tables.
func WithWeightTables(w *WeightTables) Option {
	return func(e *Engine) {
		if w != nil {
			e.weights = w
		}
	}
}

// WithSessionWindowDays sets how many trailing days of sessions feed the MPI.
func WithSessionWindowDays(days int) Option {
	return func(e *Engine) {
		if days > 0 {
			e.sessionWindowDays = days
		}
	}
}

// WithTrendThreshold sets the minimum 30-day delta that counts as a trend.
func WithTrendThreshold(points float64) Option {
	return func(e *Engine) {
		if points > 0 {
			e.trendThreshold = points
		}
	}
}

// Engine combines the calculators into an MPI snapshot.
type Engine struct {
	weights           *WeightTables
	sessionWindowDays int
	fatigueLookback   int
	trendThreshold    float64
}

// NewEngine creates an engine with the default tables.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		weights:           defaultTables,
		sessionWindowDays: defaultSessionWindowDays,
		fatigueLookback:   defaultFatigueLookback,
		trendThreshold:    defaultTrendThreshold,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Weights returns the engine's weight tables.
func (e *Engine) Weights() *WeightTables { return e.weights }

// SessionWindowDays is how many trailing days of sessions feed the MPI.
func (e *Engine) SessionWindowDays() int { return e.sessionWindowDays }

// Fatigue evaluates the latest wellness readings logged within three days of asOf.
func (e *Engine) Fatigue(logs []model.DailyLogEntry, asOf time.Time) FatigueResult {
	return Fatigue(e.latestWellness(logs, model.Day(asOf)))
}

// TrendLookback is how far back the trend comparison snapshot is taken.
func TrendLookback(asOf time.Time) time.Time {
	return asOf.AddDate(0, 0, -defaultTrendLookbackDays)
}

// MPIInput is everything the engine needs for one athlete.
type MPIInput struct {
	Athlete   model.Athlete
	AsOf      time.Time
	Sessions  []model.PerformanceSession
	DailyLogs []model.DailyLogEntry
	Flags     []model.IntegrityFlag
	ProStatus *model.ProfessionalStatus
	// Previous is the latest snapshot at or before TrendLookback(AsOf).
	Previous *model.CompositeScoreSnapshot
}

// MPIResult is a computed snapshot plus the intermediate results behind it.
// Rank and percentile are left zero for the caller to assign.
type MPIResult struct {
	Snapshot    model.CompositeScoreSnapshot
	Consistency ConsistencyResult
	Fatigue     FatigueResult
}

// Compute calculates the MPI for in.Athlete as of in.AsOf.
func (e *Engine) Compute(in MPIInput) (MPIResult, error) {
	if in.Athlete.ID == "" {
		return MPIResult{}, ErrAthleteRequired
	}
	today := model.Day(in.AsOf)

	var (
		weighted, totalWeight float64
		used                  int
		verified              []time.Time
	)
	for _, s := range in.Sessions {
		if s.Deleted() || s.AthleteID != in.Athlete.ID {
			continue
		}
		age := daysBetween(model.Day(s.Date), today)
		if age < 0 {
			continue
		}
		if s.Verified() {
			verified = append(verified, s.Date)
		}
		if age >= e.sessionWindowDays {
			continue
		}
		sc, ok := e.weights.SessionComposite(s)
		if !ok || sc.Weight <= 0 {
			continue
		}
		weighted += sc.Score * sc.Weight
		totalWeight += sc.Weight
		used++
	}
	if used == 0 {
		return MPIResult{}, ErrInsufficientData
	}
	base := weighted / totalWeight

	consistency := Consistency(in.DailyLogs, in.AsOf)
	fatigue := Fatigue(e.latestWellness(in.DailyLogs, today))

	ageMult := 1.0
	if !in.Athlete.BirthDate.IsZero() {
		ageMult = AgeMultiplier(in.Athlete.Sport, in.Athlete.AgeAt(in.AsOf))
	}
	tierMult := e.weights.Tier(in.Athlete.Tier)
	posMult := e.weights.Position(in.Athlete.Position)

	adjusted := clamp(base*ageMult*tierMult*posMult*consistency.DampingMultiplier*fatigue.Multiplier, minScore, maxScore)

	prob := math.Min(ProProbability(adjusted), maxInterpolated)
	if in.ProStatus != nil && in.ProStatus.Verified {
		prob = VerifiedProProbability
	}

	trend, delta := e.trend(adjusted, in.Previous)

	return MPIResult{
		Snapshot: model.CompositeScoreSnapshot{
			AthleteID:           in.Athlete.ID,
			CalculatedAt:        in.AsOf,
			BaseScore:           base,
			AdjustedGlobalScore: adjusted,
			ProProbability:      prob,
			Trend:               trend,
			TrendDelta:          delta,
			IntegrityScore:      IntegrityScore(in.Flags, verified),
			ConsistencyScore:    consistency.ConsistencyScore,
			DampingMultiplier:   consistency.DampingMultiplier,
			FatigueMultiplier:   fatigue.Multiplier,
			AgeMultiplier:       ageMult,
			TierMultiplier:      tierMult,
			PositionMultiplier:  posMult,
			SessionsUsed:        used,
		},
		Consistency: consistency,
		Fatigue:     fatigue,
	}, nil
}

// latestWellness returns the most recent wellness readings logged within the
// fatigue lookback, or neutral input when none exist.
func (e *Engine) latestWellness(logs []model.DailyLogEntry, today time.Time) FatigueInput {
	var (
		best  model.DailyLogEntry
		found bool
	)
	for _, l := range logs {
		if !l.HasWellness() {
			continue
		}
		d := model.Day(l.Date)
		age := daysBetween(d, today)
		if age < 0 || age > e.fatigueLookback {
			continue
		}
		if !found || d.After(model.Day(best.Date)) {
			best, found = l, true
		}
	}
	if !found {
		return FatigueInput{}
	}
	return FatigueFromLog(best)
}

func (e *Engine) trend(adjusted float64, prev *model.CompositeScoreSnapshot) (model.Trend, float64) {
	if prev == nil {
		return model.TrendStable, 0
	}
	delta := adjusted - prev.AdjustedGlobalScore
	switch {
	case delta >= e.trendThreshold:
		return model.TrendRising, delta
	case delta <= -e.trendThreshold:
		return model.TrendDropping, delta
	default:
		return model.TrendStable, delta
	}
}

// Percentile places a dense rank among total ranked athletes. The leader is
// 100 and a rank equal to total is 0. Last place scores above 0 whenever any
// two athletes tie. A lone athlete is 100.
func Percentile(rank, total int) float64 {
	if total <= 1 || rank <= 1 {
		return maxScore
	}
	if rank > total {
		rank = total
	}
	return maxScore * float64(total-rank) / float64(total-1)
}
