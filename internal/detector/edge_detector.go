package detector

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/XavierBriggs/fortuna/services/rating-engine/internal/lines"
	"github.com/XavierBriggs/fortuna/services/rating-engine/pkg/contracts"
	"github.com/XavierBriggs/fortuna/services/rating-engine/pkg/models"
)

// Tier boundaries in points of edge. Lower bounds are inclusive: an edge
// of exactly 4.0 is strong, not moderate.
const (
	tierLeanMin     = 1.0
	tierModerateMin = 2.0
	tierStrongMin   = 4.0
	tierMaxMin      = 7.0
)

// DetectInput bundles the per-matchup inputs to edge detection. All
// records are delivered by external collaborators; nothing here fetches.
type DetectInput struct {
	Matchup      models.Matchup
	Quotes       []models.MarketQuote
	HomeInjuries []models.Injury
	AwayInjuries []models.Injury
}

// EdgeDetector derives a model-predicted line for a matchup, compares it
// against the market consensus and classifies the difference.
type EdgeDetector struct {
	config      contracts.EngineConfig
	injury      contracts.InjuryCalculator
	situational contracts.SituationalCalculator
	weather     contracts.WeatherCalculator
	normalizer  *lines.Normalizer
}

// NewEdgeDetector creates an edge detector composing the adjustment
// strategies.
func NewEdgeDetector(
	config contracts.EngineConfig,
	injury contracts.InjuryCalculator,
	situational contracts.SituationalCalculator,
	weather contracts.WeatherCalculator,
	normalizer *lines.Normalizer,
) *EdgeDetector {
	return &EdgeDetector{
		config:      config,
		injury:      injury,
		situational: situational,
		weather:     weather,
		normalizer:  normalizer,
	}
}

// Detect computes the edge for one matchup against an immutable rating
// snapshot. A missing rating fails this matchup only; a stale consensus
// degrades to a low-confidence edge instead of failing. Positive edge
// means the market undervalues the home side.
func (d *EdgeDetector) Detect(snapshot map[string]float64, input DetectInput, now time.Time) (models.Edge, error) {
	matchup := input.Matchup

	homeRating, ok := snapshot[matchup.HomeTeamID]
	if !ok {
		return models.Edge{}, &models.MissingRatingError{TeamID: matchup.HomeTeamID}
	}

	awayRating, ok := snapshot[matchup.AwayTeamID]
	if !ok {
		return models.Edge{}, &models.MissingRatingError{TeamID: matchup.AwayTeamID}
	}

	ratingDiff := homeRating - awayRating

	homeInjury := d.cappedInjury(input.HomeInjuries)
	awayInjury := d.cappedInjury(input.AwayInjuries)

	situational := d.situational.Compute(matchup, ratingDiff)
	weather := d.directionalWeather(matchup)

	hfa := d.config.GetHomeFieldAdvantage()
	if matchup.Neutral {
		hfa = 0
	}

	predicted := ratingDiff + hfa + situational + weather + (awayInjury - homeInjury)

	consensus, err := d.normalizer.Consensus(input.Quotes, now)
	if err != nil {
		return models.Edge{}, err
	}

	points := predicted - consensus.Spread

	side := models.SideAway
	if points > 0 {
		side = models.SideHome
	}

	return models.Edge{
		ID:            uuid.NewString(),
		MatchupID:     matchup.ID,
		SportKey:      matchup.SportKey,
		HomeTeamID:    matchup.HomeTeamID,
		AwayTeamID:    matchup.AwayTeamID,
		PredictedLine: predicted,
		Consensus:     consensus,
		Points:        points,
		Tier:          ClassifyTier(points),
		Side:          side,
		LowConfidence: consensus.Stale,
		InjuryAdjHome: homeInjury,
		InjuryAdjAway: awayInjury,
		Situational:   situational,
		Weather:       weather,
		DetectedAt:    now,
	}, nil
}

// cappedInjury applies the sanity ceiling so one extreme outlier cannot
// dominate the predicted line.
func (d *EdgeDetector) cappedInjury(injuries []models.Injury) float64 {
	impact := d.injury.TeamImpact(injuries)
	if ceiling := d.config.GetInjuryCeiling(); ceiling > 0 && impact > ceiling {
		return ceiling
	}
	return impact
}

// directionalWeather maps the undirected scoring-suppression magnitude
// onto the spread: suppression counts against a lone pass-reliant side.
// With neither or both sides pass-reliant the net spread effect is zero.
func (d *EdgeDetector) directionalWeather(matchup models.Matchup) float64 {
	magnitude := d.weather.Compute(matchup.Forecast, matchup.Enclosure, matchup.RoofClosed)
	if magnitude == 0 {
		return 0
	}

	facts := matchup.Situation
	switch {
	case facts.HomePassHeavy && !facts.AwayPassHeavy:
		return -magnitude
	case facts.AwayPassHeavy && !facts.HomePassHeavy:
		return magnitude
	default:
		return 0
	}
}

// ClassifyTier buckets edge magnitude with inclusive lower bounds.
func ClassifyTier(points float64) models.EdgeTier {
	magnitude := math.Abs(points)

	switch {
	case magnitude >= tierMaxMin:
		return models.TierMax
	case magnitude >= tierStrongMin:
		return models.TierStrong
	case magnitude >= tierModerateMin:
		return models.TierModerate
	case magnitude >= tierLeanMin:
		return models.TierLean
	default:
		return models.TierNone
	}
}
