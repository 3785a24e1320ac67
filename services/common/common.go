package common

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// PayoutRatio converts American odds to the profit multiple on a winning bet.
// +200 pays 2.0x the stake in profit, -150 pays 0.6667x.
func PayoutRatio(price int) (float64, error) {
	if price == 0 {
		return 0, errors.New("invalid American odds: cannot be 0")
	}
	if price > 0 {
		return float64(price) / 100.0, nil
	}
	return 100.0 / float64(-price), nil
}

// AmericanToDecimal converts American odds to decimal odds.
// +150 -> 2.50, -150 -> 1.67
func AmericanToDecimal(price int) (float64, error) {
	if price == 0 {
		return 0, errors.New("invalid American odds: cannot be 0")
	}
	if price > 0 {
		return (float64(price) / 100.0) + 1.0, nil
	}
	return (100.0 / float64(-price)) + 1.0, nil
}

// DecimalToAmerican converts decimal odds back to American odds.
// 2.50 -> +150, 1.67 -> -150
func DecimalToAmerican(decimal float64) (int, error) {
	if decimal <= 1.0 {
		return 0, fmt.Errorf("invalid decimal odds: %v must be > 1.0", decimal)
	}
	if decimal >= 2.0 {
		return int(math.Round((decimal - 1.0) * 100.0)), nil
	}
	return int(math.Round(-100.0 / (decimal - 1.0))), nil
}

// CalculateParlayOddsMultiplier combines American-odds legs into one decimal
// multiplier by multiplying per-leg decimal odds.
func CalculateParlayOddsMultiplier(oddsList []int) (float64, error) {
	if len(oddsList) == 0 {
		return 0, errors.New("parlay requires at least one leg")
	}

	multiplier := 1.0
	for _, odds := range oddsList {
		decimal, err := AmericanToDecimal(odds)
		if err != nil {
			return 0, err
		}
		multiplier *= decimal
	}

	return multiplier, nil
}

// CalculateParlayPayout returns the total payout (stake included) for a stake
// at the combined multiplier.
func CalculateParlayPayout(stake float64, oddsMultiplier float64) float64 {
	return stake * oddsMultiplier
}

// FormatOdds renders a signed American or spread-style number with the
// leading + convention.
func FormatOdds(odds float64) string {
	response := ""

	if odds == float64(int(odds)) {
		response = strconv.Itoa(int(odds))
	} else {
		response = fmt.Sprintf("%.1f", odds)
	}

	if odds > 0 {
		return fmt.Sprintf("+%s", response)
	}
	return response
}

func Contains[T comparable](s []T, e T) bool {
	for _, v := range s {
		if v == e {
			return true
		}
	}
	return false
}
