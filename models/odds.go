package models

import "time"

type BetType string

const (
	BetMoneyline BetType = "MONEYLINE"
	BetSpread    BetType = "SPREAD"
	BetTotal     BetType = "TOTAL"
	BetProp      BetType = "PROP"
)

type OddsQuote struct {
	Sportsbook  string    `json:"sportsbook"`
	BetType     BetType   `json:"bet_type"`
	Outcome     string    `json:"outcome"` // team name, or Over/Under for totals
	Price       int       `json:"price"`   // American odds, never 0
	Line        *float64  `json:"line,omitempty"`
	PayoutRatio float64   `json:"payout_ratio"`
	LastUpdated time.Time `json:"last_updated"`
}

// ParlayResult is the combined quote for a multi-leg parlay.
type ParlayResult struct {
	Legs              []int   `json:"legs"`
	DecimalMultiplier float64 `json:"decimal_multiplier"`
	CombinedOdds      int     `json:"combined_odds"`
	Stake             float64 `json:"stake"`
	PotentialWinnings float64 `json:"potential_winnings"`
	TotalPayout       float64 `json:"total_payout"`
}
