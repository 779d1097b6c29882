package scoring

import "strings"

const neutralWeight = 1.0

var (
	defaultTierWeights = map[string]float64{
		"rec":          0.60,
		"youth_travel": 0.70,
		"high_school":  0.80,
		"showcase":     0.90,
		"juco":         0.95,
		"ncaa_d3":      1.00,
		"naia":         1.00,
		"ncaa_d2":      1.05,
		"ncaa_d1":      1.15,
		"independent":  1.20,
		"milb":         1.30,
		"ausl":         1.35,
		"au_pro":       1.35,
		"npb":          1.40,
		"kbo":          1.35,
		"mlb":          1.50,
	}

	defaultPositionWeights = map[string]float64{
		"c":       1.10,
		"ss":      1.08,
		"cf":      1.05,
		"p":       1.05,
		"2b":      1.03,
		"3b":      1.00,
		"utility": 1.00,
		"rf":      0.98,
		"lf":      0.95,
		"1b":      0.92,
		"dh":      0.90,
	}

	defaultPitchTypeWeights = map[string]float64{
		"fastball":    1.00,
		"sinker":      1.05,
		"cutter":      1.10,
		"curveball":   1.15,
		"slider":      1.15,
		"dropball":    1.20,
		"changeup":    1.20,
		"screwball":   1.25,
		"splitter":    1.25,
		"sweeper":     1.25,
		"riseball":    1.30,
		"knuckleball": 1.35,
	}
)

// WeightOption overrides entries of the compiled-in weight tables.
type WeightOption func(*WeightTables)

// WithTierWeights merges overrides into the tier table. Non-positive values are ignored.
func WithTierWeights(overrides map[string]float64) WeightOption {
	return func(w *WeightTables) { merge(w.tier, overrides) }
}

// WithPositionWeights merges overrides into the position table.
func WithPositionWeights(overrides map[string]float64) WeightOption {
	return func(w *WeightTables) { merge(w.position, overrides) }
}

// WithPitchTypeWeights merges overrides into the pitch-type table.
func WithPitchTypeWeights(overrides map[string]float64) WeightOption {
	return func(w *WeightTables) { merge(w.pitchType, overrides) }
}

// WeightTables is an immutable set of tier, position and pitch-type
// multipliers. Lookups are total: unknown keys are neutral.
type WeightTables struct {
	tier      map[string]float64
	position  map[string]float64
	pitchType map[string]float64
}

// NewWeightTables copies the default tables and applies overrides.
func NewWeightTables(opts ...WeightOption) *WeightTables {
	w := &WeightTables{
		tier:      copyTable(defaultTierWeights),
		position:  copyTable(defaultPositionWeights),
		pitchType: copyTable(defaultPitchTypeWeights),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

var defaultTables = NewWeightTables()

// Tier returns the competition-tier multiplier.
func (w *WeightTables) Tier(key string) float64 { return lookup(w.tier, key) }

// Position returns the fielding-position multiplier.
func (w *WeightTables) Position(key string) float64 { return lookup(w.position, key) }

// PitchType returns the pitch-type multiplier.
func (w *WeightTables) PitchType(key string) float64 { return lookup(w.pitchType, key) }

// TierWeight looks key up in the default tier table.
func TierWeight(key string) float64 { return defaultTables.Tier(key) }

// PositionWeight looks key up in the default position table.
func PositionWeight(key string) float64 { return defaultTables.Position(key) }

// PitchTypeWeight looks key up in the default pitch-type table.
func PitchTypeWeight(key string) float64 { return defaultTables.PitchType(key) }

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

func lookup(table map[string]float64, key string) float64 {
	if v, ok := table[normalizeKey(key)]; ok {
		return v
	}
	return neutralWeight
}

func copyTable(src map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func merge(dst, overrides map[string]float64) {
	for k, v := range overrides {
		if k = normalizeKey(k); k != "" && v > 0 {
			dst[k] = v
		}
	}
}
