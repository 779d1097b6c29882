package scoring

import "github.com/okian/prospect/internal/domain/model"

// HoFMinSeasons is the verified-season requirement for HoF eligibility.
const HoFMinSeasons = 5

var hofLeagues = map[model.Sport][]string{
	model.SportBaseball: {"mlb"},
	model.SportSoftball: {"ausl", "au_pro"},
}

// HoFResult is the eligibility verdict and countdown.
type HoFResult struct {
	Eligible         bool    `json:"eligible"`
	Probability      float64 `json:"probability"`
	EligibleSeasons  int     `json:"eligible_seasons"`
	RequiredSeasons  int     `json:"required_seasons"`
	SeasonsRemaining int     `json:"seasons_remaining"`
}

// CheckHoF requires full verified-pro probability and at least five seasons
// in the sport's qualifying leagues.
func CheckHoF(probability float64, seasons map[string]int, sport model.Sport) HoFResult {
	leagues := hofLeagues[sport]
	counted := 0
	for league, n := range seasons {
		if n <= 0 {
			continue
		}
		key := normalizeKey(league)
		for _, l := range leagues {
			if key == l {
				counted += n
				break
			}
		}
	}

	remaining := HoFMinSeasons - counted
	if remaining < 0 {
		remaining = 0
	}
	return HoFResult{
		Eligible:         probability >= VerifiedProProbability && counted >= HoFMinSeasons,
		Probability:      probability,
		EligibleSeasons:  counted,
		RequiredSeasons:  HoFMinSeasons,
		SeasonsRemaining: remaining,
	}
}
