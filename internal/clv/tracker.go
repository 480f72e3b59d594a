package clv

import (
	"fmt"
	"time"

	"github.com/XavierBriggs/fortuna/services/rating-engine/pkg/models"
	"github.com/XavierBriggs/fortuna/services/rating-engine/pkg/oddsmath"
)

// Tracker records closing line value on placed bets. CLV is independent
// of win/loss and write-once: a bet can settle as won with negative CLV,
// and neither fact touches the other.
type Tracker struct{}

// NewTracker creates a closing line tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// RecordClosing computes side-normalized CLV in points for a bet and
// writes it onto the bet. Positive means the bettor got a better number
// than the closing market. closingPrice is the closing American price, 0
// when unknown; when known, CLV in implied-probability cents is reported
// alongside. Recording twice is an error and leaves the bet unchanged.
func (t *Tracker) RecordClosing(bet *models.Bet, closingLine float64, closingPrice int, now time.Time) (models.CLVRecord, error) {
	if bet == nil {
		return models.CLVRecord{}, fmt.Errorf("nil bet")
	}
	if bet.CLV != nil {
		return models.CLVRecord{}, fmt.Errorf("clv already recorded for bet %s", bet.ID)
	}

	points, err := normalizedCLV(bet.Side, bet.LineTaken, closingLine)
	if err != nil {
		return models.CLVRecord{}, err
	}

	record := models.CLVRecord{
		BetID:       bet.ID,
		LineTaken:   bet.LineTaken,
		ClosingLine: closingLine,
		CLVPoints:   points,
		RecordedAt:  now,
	}

	if closingPrice != 0 && bet.Price != 0 {
		cents, err := oddsmath.CLVCents(bet.Price, closingPrice)
		if err != nil {
			return models.CLVRecord{}, fmt.Errorf("clv cents for bet %s: %w", bet.ID, err)
		}
		record.CLVCents = &cents
	}

	bet.ClosingLine = &closingLine
	bet.CLV = &points

	return record, nil
}

// normalizedCLV orients the line difference per side. Lines are home-team
// relative (the expected home margin): a home backer wants the number
// taken below the close, an away backer wants it above.
func normalizedCLV(side models.BetSide, lineTaken, closingLine float64) (float64, error) {
	switch side {
	case models.SideHome:
		return closingLine - lineTaken, nil
	case models.SideAway:
		return lineTaken - closingLine, nil
	default:
		return 0, &models.MalformedInputError{Reason: fmt.Sprintf("unknown bet side %q", side)}
	}
}
