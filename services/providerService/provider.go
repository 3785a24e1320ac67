package providerService

import (
	"context"
	"errors"

	"oddsAggregator/models"
)

// Tagged provider failures. Adapters never panic or leak transport errors
// raw; every failure wraps exactly one of these so callers can branch with
// errors.Is.
var (
	ErrTimeout      = errors.New("provider timeout")
	ErrRateLimited  = errors.New("provider rate limited")
	ErrUnauthorized = errors.New("provider unauthorized")
	ErrMalformed    = errors.New("provider returned malformed response")
	ErrUnsupported  = errors.New("operation not supported by provider")
	ErrUnavailable  = errors.New("provider unavailable: no API key configured")
)

// Provider is the adapter contract, one implementation per external source.
// Implementations own their rate limiting and retry policy. A provider that
// does not support a capability returns ErrUnsupported rather than empty data.
type Provider interface {
	Name() string
	SupportedSports() []models.Sport

	// Available reports whether the provider can be called at all. A missing
	// API key forces a permanent false, never probed and never selected.
	Available() bool

	LiveGames(ctx context.Context, sport models.Sport, limit int) ([]models.GameRecord, error)
	GameOdds(ctx context.Context, gameID string, sport models.Sport) ([]models.OddsQuote, error)
	GameScore(ctx context.Context, gameID string, sport models.Sport) (*models.ScoreData, error)
	TeamStats(ctx context.Context, teamName string, sport models.Sport) (*models.TeamStats, error)

	// RateLimitRemaining returns the provider-reported request budget from the
	// most recent response headers, or nil when not reported.
	RateLimitRemaining() *int

	// Probe issues the cheapest supported call, used by the health monitor.
	Probe(ctx context.Context) error
}

// SupportsSport is a small shared helper for adapters.
func SupportsSport(p Provider, sport models.Sport) bool {
	for _, s := range p.SupportedSports() {
		if s == sport {
			return true
		}
	}
	return false
}
