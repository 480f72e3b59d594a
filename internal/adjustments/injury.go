package adjustments

import (
	"github.com/XavierBriggs/fortuna/services/rating-engine/pkg/models"
)

// InjuryConfig tunes the injury impact calculator.
type InjuryConfig struct {
	Enabled bool

	// PositionValues is the base point value of a healthy starter at each
	// position. Positions not listed fall back to DefaultPositionValue.
	PositionValues       map[models.Position]float64
	DefaultPositionValue float64

	// StatusMultipliers scales impact by reported availability.
	StatusMultipliers map[models.InjuryStatus]float64

	// RecoveryDays is the position-specific day count at which impact has
	// decayed to zero. Positions not listed use DefaultRecoveryDays.
	RecoveryDays        map[models.Position]int
	DefaultRecoveryDays int
}

// InjuryImpactCalculator converts a roster's reported injuries into one
// point value. Sign convention: positive impact means the team's
// effective strength is reduced. The sum is not capped here; the edge
// detector applies the sanity ceiling.
type InjuryImpactCalculator struct {
	config InjuryConfig
}

// NewInjuryImpactCalculator creates an injury calculator.
func NewInjuryImpactCalculator(config InjuryConfig) *InjuryImpactCalculator {
	return &InjuryImpactCalculator{config: config}
}

// Name implements AdjustmentCalculator.
func (c *InjuryImpactCalculator) Name() string {
	return "injury"
}

// Enabled implements AdjustmentCalculator.
func (c *InjuryImpactCalculator) Enabled() bool {
	return c.config.Enabled
}

// TeamImpact sums per-player impact over all reported injuries:
//
//	impact = position_base * status_multiplier * recovery_progress
func (c *InjuryImpactCalculator) TeamImpact(injuries []models.Injury) float64 {
	if !c.config.Enabled {
		return 0
	}

	total := 0.0
	for _, injury := range injuries {
		total += c.playerImpact(injury)
	}
	return total
}

func (c *InjuryImpactCalculator) playerImpact(injury models.Injury) float64 {
	base, ok := c.config.PositionValues[injury.Position]
	if !ok {
		base = c.config.DefaultPositionValue
	}

	multiplier, ok := c.config.StatusMultipliers[injury.Status]
	if !ok {
		// Unknown status reads as full unavailability rather than a
		// fabricated partial value.
		multiplier = 1.0
	}

	return base * multiplier * c.recoveryProgress(injury.DaysSinceOnset, injury.Position)
}

// recoveryProgress is 1.0 at onset and decays linearly to 0 at the
// position's full-recovery day count. Monotonic non-increasing in days.
func (c *InjuryImpactCalculator) recoveryProgress(daysSinceOnset int, position models.Position) float64 {
	if daysSinceOnset <= 0 {
		return 1.0
	}

	recoveryDays, ok := c.config.RecoveryDays[position]
	if !ok {
		recoveryDays = c.config.DefaultRecoveryDays
	}
	if recoveryDays <= 0 {
		return 1.0
	}

	progress := 1.0 - float64(daysSinceOnset)/float64(recoveryDays)
	if progress < 0 {
		return 0
	}
	return progress
}
