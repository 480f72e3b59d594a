package contracts

import (
	"context"
	"time"

	"github.com/XavierBriggs/fortuna/services/rating-engine/pkg/models"
)

// RatingStore holds team ratings and their append-only history. Exactly
// one writer (the update engine) may mutate it at a time; any number of
// readers may read a consistent snapshot while no writer is active.
type RatingStore interface {
	// Load hydrates the store from its backing persistence.
	Load(ctx context.Context) error

	// Save flushes the current snapshot and any new history entries.
	Save(ctx context.Context) error

	// Get returns a team's current rating record.
	Get(ctx context.Context, teamID string) (models.Team, error)

	// Put creates or replaces a team record without history bookkeeping.
	// Intended for seeding, not for game-driven updates.
	Put(ctx context.Context, team models.Team) error

	// PutIfUnmodifiedSince applies a game-driven rating transition and
	// appends entry, failing if the team was updated after since.
	PutIfUnmodifiedSince(ctx context.Context, teamID string, rating float64, since time.Time, entry models.RatingEntry) error

	// History returns a team's rating history in chronological order.
	History(ctx context.Context, teamID string) ([]models.RatingEntry, error)

	// HasResult reports whether a GameResult id was already applied.
	HasResult(ctx context.Context, resultID string) (bool, error)

	// Snapshot returns an immutable teamID -> rating view for a read phase.
	Snapshot(ctx context.Context) (map[string]float64, error)
}

// AdjustmentCalculator is the common surface of the named adjustment
// strategies composed by the edge detector.
type AdjustmentCalculator interface {
	// Name identifies the strategy, e.g. "injury", "situational".
	Name() string

	// Enabled reports whether the strategy is active in configuration.
	Enabled() bool
}

// InjuryCalculator converts reported roster injuries into a point value.
// Positive impact means the team's effective strength is reduced; the
// caller owns the sign when composing into a home-relative line.
type InjuryCalculator interface {
	AdjustmentCalculator

	// TeamImpact sums per-player impact over all reported injuries.
	TeamImpact(injuries []models.Injury) float64
}

// SituationalCalculator converts schedule/context facts into a
// home-team-relative point adjustment. ratingDiff is home minus away
// before any adjustment, used to locate the statistical underdog.
type SituationalCalculator interface {
	AdjustmentCalculator

	Compute(matchup models.Matchup, ratingDiff float64) float64
}

// WeatherCalculator converts forecast conditions into an undirected
// scoring-suppression magnitude. Returns 0 unconditionally for enclosed
// venues. Directional mapping onto a side is the caller's concern.
type WeatherCalculator interface {
	AdjustmentCalculator

	Compute(forecast *models.Forecast, enclosure models.EnclosureType, roofClosed bool) float64
}

// EngineConfig defines the tunables shared by the rating and edge
// pipeline. Implemented per sport under sports/.
type EngineConfig interface {
	// GetSportKey returns the sport key, e.g. "americanfootball_nfl".
	GetSportKey() string

	// GetHomeFieldAdvantage returns the HFA constant in points.
	GetHomeFieldAdvantage() float64

	// GetUpdateWeightNew returns the weight on observed performance in
	// the rating update; the old-rating weight is its complement.
	GetUpdateWeightNew() float64

	// GetFreshnessWindow returns the max quote age for consensus.
	GetFreshnessWindow() time.Duration

	// GetInjuryCeiling returns the sanity cap on a team's summed injury
	// impact applied during edge detection.
	GetInjuryCeiling() float64

	// GetWorkerCount returns the read-phase parallelism.
	GetWorkerCount() int

	// GetKellyFraction returns the global fractional-Kelly discount.
	GetKellyFraction() float64

	// GetMaxStakeFraction returns the hard bankroll-fraction ceiling.
	GetMaxStakeFraction() float64

	// GetTierFractions returns the tier -> base stake fraction table.
	GetTierFractions() map[models.EdgeTier]float64
}
