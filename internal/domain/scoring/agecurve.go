package scoring

import "github.com/okian/prospect/internal/domain/model"

type ageBracket struct {
	min, max   int
	multiplier float64
}

var (
	baseballAgeCurve = []ageBracket{
		{0, 15, 0.55},
		{16, 17, 0.65},
		{18, 19, 0.75},
		{20, 22, 0.92},
		{23, 31, 1.00},
		{32, 34, 0.95},
		{35, 37, 0.85},
		{38, 40, 0.75},
		{41, 50, 0.60},
	}
	softballAgeCurve = []ageBracket{
		{0, 14, 0.55},
		{15, 16, 0.65},
		{17, 18, 0.78},
		{19, 21, 0.92},
		{22, 28, 1.00},
		{29, 32, 0.94},
		{33, 36, 0.84},
		{37, 40, 0.72},
		{41, 50, 0.60},
	}
)

// AgeMultiplier returns the sport's age-curve multiplier. Negative ages are
// treated as 0; ages past the last bracket use the last bracket.
func AgeMultiplier(sport model.Sport, age int) float64 {
	curve := baseballAgeCurve
	if sport == model.SportSoftball {
		curve = softballAgeCurve
	}
	if age < 0 {
		age = 0
	}
	for _, b := range curve {
		if age >= b.min && age <= b.max {
			return b.multiplier
		}
	}
	return curve[len(curve)-1].multiplier
}
