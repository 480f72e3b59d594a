package oddsmath

import (
	"fmt"
	"math"
)

// AmericanToDecimal converts American odds to decimal odds.
// +150 → 2.50, -150 → 1.67
func AmericanToDecimal(american int) (float64, error) {
	if american == 0 {
		return 0, fmt.Errorf("invalid American odds: cannot be 0")
	}

	if american > 0 {
		return (float64(american) / 100.0) + 1.0, nil
	}

	return (100.0 / float64(-american)) + 1.0, nil
}

// DecimalToAmerican converts decimal odds to American odds.
// 2.50 → +150, 1.67 → -150
func DecimalToAmerican(decimal float64) (int, error) {
	if decimal <= 1.0 {
		return 0, fmt.Errorf("invalid decimal odds: must be > 1.0")
	}

	if decimal >= 2.0 {
		return int(math.Round((decimal - 1.0) * 100.0)), nil
	}

	return int(math.Round(-100.0 / (decimal - 1.0))), nil
}

// AmericanToImpliedProbability converts American odds to the book's
// implied win probability (vig included).
func AmericanToImpliedProbability(american int) (float64, error) {
	decimal, err := AmericanToDecimal(american)
	if err != nil {
		return 0, err
	}

	return 1.0 / decimal, nil
}

// ProbabilityToAmerican converts a win probability to American odds.
func ProbabilityToAmerican(probability float64) (int, error) {
	if probability <= 0 || probability >= 1 {
		return 0, fmt.Errorf("invalid probability: must be between 0 and 1")
	}

	return DecimalToAmerican(1.0 / probability)
}

// CLVCents expresses closing line value in implied-probability cents per
// dollar: positive when the closing price carries more probability than
// the price taken.
func CLVCents(betPrice, closingPrice int) (float64, error) {
	betProb, err := AmericanToImpliedProbability(betPrice)
	if err != nil {
		return 0, fmt.Errorf("bet price: %w", err)
	}

	closeProb, err := AmericanToImpliedProbability(closingPrice)
	if err != nil {
		return 0, fmt.Errorf("closing price: %w", err)
	}

	return (closeProb - betProb) * 100.0, nil
}
