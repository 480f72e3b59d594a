package lines

import (
	"sort"
	"time"

	"github.com/XavierBriggs/fortuna/services/rating-engine/pkg/models"
)

// Normalizer reduces multiple market quotes for one matchup into a single
// consensus line. The median is used rather than the mean so one outlier
// book cannot move the consensus.
type Normalizer struct {
	window time.Duration
}

// NewNormalizer creates a normalizer with the given freshness window.
func NewNormalizer(window time.Duration) *Normalizer {
	return &Normalizer{window: window}
}

// Consensus computes the median spread and total over quotes captured
// within the freshness window of now. If no quote is fresh, the result
// carries the most recent quote's values with Stale set and an explicit
// staleness duration. With no quotes at all it returns
// StaleMarketDataError. Output is deterministic regardless of input
// ordering.
func (n *Normalizer) Consensus(quotes []models.MarketQuote, now time.Time) (models.ConsensusLine, error) {
	if len(quotes) == 0 {
		return models.ConsensusLine{}, &models.StaleMarketDataError{Staleness: 0}
	}

	cutoff := now.Add(-n.window)

	var fresh []models.MarketQuote
	latest := quotes[0]
	for _, q := range quotes {
		if q.CapturedAt.After(latest.CapturedAt) {
			latest = q
		}
		if !q.CapturedAt.Before(cutoff) {
			fresh = append(fresh, q)
		}
	}

	if len(fresh) == 0 {
		return models.ConsensusLine{
			Spread:     latest.Spread,
			Total:      latest.Total,
			QuoteCount: 0,
			Stale:      true,
			Staleness:  now.Sub(latest.CapturedAt),
			AsOf:       now,
		}, nil
	}

	spreads := make([]float64, len(fresh))
	totals := make([]float64, len(fresh))
	for i, q := range fresh {
		spreads[i] = q.Spread
		totals[i] = q.Total
	}

	return models.ConsensusLine{
		Spread:     median(spreads),
		Total:      median(totals),
		QuoteCount: len(fresh),
		AsOf:       now,
	}, nil
}

// median returns the middle value of an odd-length set, or the arithmetic
// mean of the two middle values of an even-length set.
func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2.0
}
