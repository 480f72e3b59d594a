package settlement

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/XavierBriggs/fortuna/services/rating-engine/pkg/models"
	"github.com/XavierBriggs/fortuna/services/rating-engine/pkg/oddsmath"
)

// Settler resolves pending spread bets against final scores. Bets are
// home-relative: a home bet covers when the actual margin beats the line
// taken, an away bet when it falls short, and the line landing exactly is
// a push.
type Settler struct {
	log zerolog.Logger
}

// NewSettler creates a settler.
func NewSettler(log zerolog.Logger) *Settler {
	return &Settler{log: log.With().Str("component", "settler").Logger()}
}

// Settle transitions one pending bet to a terminal outcome and fills in
// the payout. A bet that already settled is left unchanged and returns an
// error; outcome transitions happen exactly once.
func (s *Settler) Settle(bet *models.Bet, result models.GameResult, now time.Time) (models.BetOutcome, error) {
	if bet == nil {
		return "", fmt.Errorf("nil bet")
	}
	if bet.Outcome != models.OutcomePending {
		return "", fmt.Errorf("bet %s already settled as %s", bet.ID, bet.Outcome)
	}
	if err := result.Validate(); err != nil {
		return "", err
	}

	margin := float64(result.HomeScore - result.AwayScore)

	var covered float64
	switch bet.Side {
	case models.SideHome:
		covered = margin - bet.LineTaken
	case models.SideAway:
		covered = bet.LineTaken - margin
	default:
		return "", &models.MalformedInputError{Reason: fmt.Sprintf("unknown bet side %q", bet.Side)}
	}

	outcome := models.OutcomePush
	payout := bet.Stake
	switch {
	case covered > 0:
		outcome = models.OutcomeWon
		payout = winPayout(bet.Stake, bet.Price)
	case covered < 0:
		outcome = models.OutcomeLost
		payout = 0
	}

	bet.Outcome = outcome
	bet.Payout = payout
	bet.SettledAt = &now

	s.log.Info().
		Str("bet_id", bet.ID).
		Str("outcome", string(outcome)).
		Float64("payout", payout).
		Msg("bet settled")

	return outcome, nil
}

// SettleBatch settles every pending bet on one result, skipping records
// that fail individually. Returns the number settled.
func (s *Settler) SettleBatch(bets []*models.Bet, result models.GameResult, now time.Time) int {
	settled := 0
	for _, bet := range bets {
		if _, err := s.Settle(bet, result, now); err != nil {
			s.log.Warn().Err(err).Str("bet_id", betID(bet)).Msg("settlement skipped")
			continue
		}
		settled++
	}
	return settled
}

func winPayout(stake float64, price int) float64 {
	decimal, err := oddsmath.AmericanToDecimal(price)
	if err != nil {
		// Priceless bets (model-tracked, not booked) pay even money.
		return stake * 2
	}
	return stake * decimal
}

func betID(bet *models.Bet) string {
	if bet == nil {
		return ""
	}
	return bet.ID
}
