package aggregatorService

import (
	"errors"

	"oddsAggregator/models"
	"oddsAggregator/services/common"
)

// CombineParlay folds American-odds legs into a single combined quote:
// legs convert to decimal odds, multiply, and the product converts back.
// Winnings are profit on the stake; total payout includes the stake.
func CombineParlay(legs []int, stake float64) (*models.ParlayResult, error) {
	if len(legs) == 0 {
		return nil, errors.New("parlay requires at least one leg")
	}
	if stake <= 0 {
		return nil, errors.New("stake must be positive")
	}

	multiplier, err := common.CalculateParlayOddsMultiplier(legs)
	if err != nil {
		return nil, err
	}

	combined, err := common.DecimalToAmerican(multiplier)
	if err != nil {
		return nil, err
	}

	payout := common.CalculateParlayPayout(stake, multiplier)
	return &models.ParlayResult{
		Legs:              legs,
		DecimalMultiplier: multiplier,
		CombinedOdds:      combined,
		Stake:             stake,
		PotentialWinnings: payout - stake,
		TotalPayout:       payout,
	}, nil
}
