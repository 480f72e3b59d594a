package models

import (
	"fmt"
	"time"
)

// MissingRatingError means a team has no current rating. Detection for
// that matchup is skipped; the rest of the batch proceeds.
type MissingRatingError struct {
	TeamID string
}

func (e *MissingRatingError) Error() string {
	return fmt.Sprintf("no rating for team %s", e.TeamID)
}

// StaleMarketDataError means no quote fell inside the freshness window.
// Not fatal: detection degrades to a low-confidence edge.
type StaleMarketDataError struct {
	MatchupID string
	Staleness time.Duration
}

func (e *StaleMarketDataError) Error() string {
	return fmt.Sprintf("market data for matchup %s is stale by %s", e.MatchupID, e.Staleness)
}

// OutOfOrderUpdateError means a result predates a team's latest rating
// history entry. The store is left unmodified.
type OutOfOrderUpdateError struct {
	TeamID   string
	ResultID string
	ResultAt time.Time
	LatestAt time.Time
}

func (e *OutOfOrderUpdateError) Error() string {
	return fmt.Sprintf("result %s for team %s played at %s, before latest history entry at %s",
		e.ResultID, e.TeamID, e.ResultAt.Format(time.RFC3339), e.LatestAt.Format(time.RFC3339))
}

// DuplicateUpdateError means the same GameResult was applied twice. The
// second application is a no-op; callers log it rather than crash.
type DuplicateUpdateError struct {
	ResultID string
}

func (e *DuplicateUpdateError) Error() string {
	return fmt.Sprintf("result %s already applied", e.ResultID)
}

// MalformedInputError rejects a single physically impossible record while
// the rest of the batch continues.
type MalformedInputError struct {
	Reason string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed input: %s", e.Reason)
}

// Validate rejects impossible score lines.
func (r *GameResult) Validate() error {
	if r.ID == "" {
		return &MalformedInputError{Reason: "game result missing id"}
	}
	if r.HomeScore < 0 || r.AwayScore < 0 {
		return &MalformedInputError{Reason: fmt.Sprintf("negative score %d-%d in result %s", r.HomeScore, r.AwayScore, r.ID)}
	}
	if r.HomeTeamID == "" || r.AwayTeamID == "" {
		return &MalformedInputError{Reason: fmt.Sprintf("result %s missing team id", r.ID)}
	}
	if r.HomeTeamID == r.AwayTeamID {
		return &MalformedInputError{Reason: fmt.Sprintf("result %s has identical teams", r.ID)}
	}
	return nil
}
