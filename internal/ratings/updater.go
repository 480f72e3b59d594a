package ratings

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/XavierBriggs/fortuna/services/rating-engine/pkg/contracts"
	"github.com/XavierBriggs/fortuna/services/rating-engine/pkg/models"
)

// UpdateEngine applies the smoothed rating update after a game concludes.
//
// For the home team:
//
//	perf = (home_score - away_score) + old_away_rating
//	       + (home_injury_adj - away_injury_adj) - hfa
//	new  = w_old*old_home_rating + w_new*perf
//
// The away update swaps labels and negates the score differential and the
// home-field term. Both updates read the same pre-update snapshot of both
// ratings. Applying the same result twice is a no-op.
type UpdateEngine struct {
	store     contracts.RatingStore
	hfa       float64
	weightNew float64
	log       zerolog.Logger
}

// NewUpdateEngine creates an update engine. weightNew is the weight on
// observed performance; the old-rating weight is its complement.
func NewUpdateEngine(store contracts.RatingStore, config contracts.EngineConfig, log zerolog.Logger) *UpdateEngine {
	return &UpdateEngine{
		store:     store,
		hfa:       config.GetHomeFieldAdvantage(),
		weightNew: config.GetUpdateWeightNew(),
		log:       log.With().Str("component", "rating_updater").Logger(),
	}
}

// Apply updates both teams' ratings for one result and returns the new
// home and away ratings. Duplicate results return DuplicateUpdateError
// with the store untouched; results that predate a team's latest history
// entry return OutOfOrderUpdateError with the store untouched.
func (e *UpdateEngine) Apply(ctx context.Context, result models.GameResult) (float64, float64, error) {
	if err := result.Validate(); err != nil {
		return 0, 0, err
	}

	applied, err := e.store.HasResult(ctx, result.ID)
	if err != nil {
		return 0, 0, fmt.Errorf("check applied results: %w", err)
	}
	if applied {
		return 0, 0, &models.DuplicateUpdateError{ResultID: result.ID}
	}

	home, err := e.store.Get(ctx, result.HomeTeamID)
	if err != nil {
		return 0, 0, err
	}
	away, err := e.store.Get(ctx, result.AwayTeamID)
	if err != nil {
		return 0, 0, err
	}

	// Ordering is checked for both teams before either is written so a
	// rejected result leaves the store unmodified.
	for _, teamID := range []string{result.HomeTeamID, result.AwayTeamID} {
		history, err := e.store.History(ctx, teamID)
		if err != nil {
			return 0, 0, fmt.Errorf("history for %s: %w", teamID, err)
		}
		if len(history) > 0 {
			latest := history[len(history)-1]
			if result.PlayedAt.Before(latest.RatedAt) {
				return 0, 0, &models.OutOfOrderUpdateError{
					TeamID:   teamID,
					ResultID: result.ID,
					ResultAt: result.PlayedAt,
					LatestAt: latest.RatedAt,
				}
			}
		}
	}

	hfaAdj := e.hfa
	if result.Neutral {
		hfaAdj = 0
	}

	diff := float64(result.HomeScore - result.AwayScore)
	perfHome := diff + away.Rating + (result.HomeInjuryAdj - result.AwayInjuryAdj) - hfaAdj
	perfAway := -diff + home.Rating + (result.AwayInjuryAdj - result.HomeInjuryAdj) + hfaAdj

	weightOld := 1.0 - e.weightNew
	newHome := weightOld*home.Rating + e.weightNew*perfHome
	newAway := weightOld*away.Rating + e.weightNew*perfAway

	reason := fmt.Sprintf("result %s: %s %d - %d %s",
		result.ID, result.HomeTeamID, result.HomeScore, result.AwayScore, result.AwayTeamID)

	err = e.store.PutIfUnmodifiedSince(ctx, result.HomeTeamID, newHome, home.UpdatedAt, models.RatingEntry{
		Reason:   reason,
		RatedAt:  result.PlayedAt,
		ResultID: result.ID,
	})
	if err != nil {
		return 0, 0, fmt.Errorf("update home team %s: %w", result.HomeTeamID, err)
	}

	err = e.store.PutIfUnmodifiedSince(ctx, result.AwayTeamID, newAway, away.UpdatedAt, models.RatingEntry{
		Reason:   reason,
		RatedAt:  result.PlayedAt,
		ResultID: result.ID,
	})
	if err != nil {
		return 0, 0, fmt.Errorf("update away team %s: %w", result.AwayTeamID, err)
	}

	e.log.Info().
		Str("result_id", result.ID).
		Str("home", result.HomeTeamID).Float64("home_rating", newHome).
		Str("away", result.AwayTeamID).Float64("away_rating", newAway).
		Msg("ratings updated")

	return newHome, newAway, nil
}

// ApplyBatch applies results in game-chronological order. Duplicates and
// malformed records are logged and skipped; other errors skip the record
// and are returned for the caller to investigate. Returns the number of
// results applied.
func (e *UpdateEngine) ApplyBatch(ctx context.Context, results []models.GameResult) (int, []error) {
	ordered := make([]models.GameResult, len(results))
	copy(ordered, results)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].PlayedAt.Before(ordered[j].PlayedAt) })

	applied := 0
	var errs []error

	for _, result := range ordered {
		if _, _, err := e.Apply(ctx, result); err != nil {
			var dup *models.DuplicateUpdateError
			var malformed *models.MalformedInputError
			switch {
			case errors.As(err, &dup):
				e.log.Warn().Str("result_id", dup.ResultID).Msg("duplicate result skipped")
			case errors.As(err, &malformed):
				e.log.Warn().Str("result_id", result.ID).Str("reason", malformed.Reason).Msg("malformed result skipped")
			default:
				e.log.Error().Err(err).Str("result_id", result.ID).Msg("rating update failed")
				errs = append(errs, err)
			}
			continue
		}
		applied++
	}

	return applied, errs
}
