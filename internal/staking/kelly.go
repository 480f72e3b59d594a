package staking

import (
	"fmt"
	"math"

	"github.com/XavierBriggs/fortuna/services/rating-engine/pkg/contracts"
	"github.com/XavierBriggs/fortuna/services/rating-engine/pkg/models"
)

// StakeSizer converts an edge tier into a bounded bankroll-fraction
// recommendation: a fixed per-tier base fraction, discounted by the
// global fractional-Kelly multiplier, clamped to the hard ceiling.
type StakeSizer struct {
	config contracts.EngineConfig
}

// NewStakeSizer creates a stake sizer.
func NewStakeSizer(config contracts.EngineConfig) *StakeSizer {
	return &StakeSizer{config: config}
}

// Size produces a stake recommendation for an edge. The none tier always
// sizes to exactly 0, and no tier exceeds the max-fraction ceiling.
func (s *StakeSizer) Size(edge models.Edge, bankroll float64) (models.StakeRecommendation, error) {
	if bankroll <= 0 {
		return models.StakeRecommendation{}, fmt.Errorf("bankroll must be positive, got %.2f", bankroll)
	}

	fraction := s.Fraction(edge.Tier)

	return models.StakeRecommendation{
		EdgeID:        edge.ID,
		MatchupID:     edge.MatchupID,
		Tier:          edge.Tier,
		Side:          edge.Side,
		Fraction:      fraction,
		Stake:         round(bankroll * fraction),
		Bankroll:      bankroll,
		KellyFraction: s.config.GetKellyFraction(),
	}, nil
}

// Fraction returns the discounted, clamped stake fraction for a tier.
// Never negative; 0 for the none tier and for tiers absent from the
// configured table.
func (s *StakeSizer) Fraction(tier models.EdgeTier) float64 {
	if tier == models.TierNone {
		return 0
	}

	base, ok := s.config.GetTierFractions()[tier]
	if !ok || base <= 0 {
		return 0
	}

	fraction := base * s.config.GetKellyFraction()

	if max := s.config.GetMaxStakeFraction(); fraction > max {
		fraction = max
	}

	return fraction
}

// round rounds a dollar amount to 2 decimal places.
func round(val float64) float64 {
	return math.Round(val*100) / 100
}
