package adjustments

import (
	"github.com/XavierBriggs/fortuna/services/rating-engine/pkg/models"
)

// TravelBucket maps a minimum travel distance to a point penalty on the
// traveling team.
type TravelBucket struct {
	MinMiles float64
	Penalty  float64
}

// SituationalConfig tunes the situational calculator. Each named
// adjustment is independently toggleable so it can be tested in
// isolation.
type SituationalConfig struct {
	Enabled bool

	EnableRest       bool
	RestDayPoints    float64 // per day of rest advantage
	RestDayCap       float64 // max contribution from rest

	EnableTravel  bool
	TravelBuckets []TravelBucket // checked highest MinMiles first

	EnableEmotional  bool
	RivalryBonus     float64 // to the ratings underdog
	EliminationBonus float64 // to the ratings underdog

	EnableDivisional    bool
	DivisionalRoadBonus float64 // small, favors the road team
}

// SituationalAdjustmentCalculator converts schedule/context facts into a
// home-team-relative signed point adjustment.
type SituationalAdjustmentCalculator struct {
	config SituationalConfig
}

// NewSituationalAdjustmentCalculator creates a situational calculator.
func NewSituationalAdjustmentCalculator(config SituationalConfig) *SituationalAdjustmentCalculator {
	return &SituationalAdjustmentCalculator{config: config}
}

// Name implements AdjustmentCalculator.
func (c *SituationalAdjustmentCalculator) Name() string {
	return "situational"
}

// Enabled implements AdjustmentCalculator.
func (c *SituationalAdjustmentCalculator) Enabled() bool {
	return c.config.Enabled
}

// Compute combines the active named adjustments additively. ratingDiff is
// home rating minus away rating before adjustments, used to award the
// emotional bonus to the statistical underdog.
func (c *SituationalAdjustmentCalculator) Compute(matchup models.Matchup, ratingDiff float64) float64 {
	if !c.config.Enabled {
		return 0
	}

	adj := 0.0
	facts := matchup.Situation

	if c.config.EnableRest {
		adj += c.restAdjustment(facts.HomeRestDays, facts.AwayRestDays)
	}

	if c.config.EnableTravel {
		// The road team travels; its penalty raises the home-relative line.
		adj += c.travelPenalty(facts.TravelMiles)
	}

	if c.config.EnableEmotional && ratingDiff != 0 {
		bonus := 0.0
		if facts.Rivalry {
			bonus += c.config.RivalryBonus
		}
		if facts.Elimination {
			bonus += c.config.EliminationBonus
		}
		if ratingDiff > 0 {
			adj -= bonus // away is the underdog
		} else {
			adj += bonus // home is the underdog
		}
	}

	if c.config.EnableDivisional && facts.Divisional {
		adj -= c.config.DivisionalRoadBonus
	}

	return adj
}

// restAdjustment scales per day of rest advantage, capped per side.
func (c *SituationalAdjustmentCalculator) restAdjustment(homeRest, awayRest int) float64 {
	adj := float64(homeRest-awayRest) * c.config.RestDayPoints
	if adj > c.config.RestDayCap {
		return c.config.RestDayCap
	}
	if adj < -c.config.RestDayCap {
		return -c.config.RestDayCap
	}
	return adj
}

// travelPenalty returns the penalty for the highest bucket the distance
// reaches, 0 below every bucket.
func (c *SituationalAdjustmentCalculator) travelPenalty(miles float64) float64 {
	penalty := 0.0
	bestMin := -1.0
	for _, bucket := range c.config.TravelBuckets {
		if miles >= bucket.MinMiles && bucket.MinMiles > bestMin {
			bestMin = bucket.MinMiles
			penalty = bucket.Penalty
		}
	}
	return penalty
}
