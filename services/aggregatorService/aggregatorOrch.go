package aggregatorService

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"oddsAggregator/config"
	"oddsAggregator/models"
	"oddsAggregator/services/cacheService"
	"oddsAggregator/services/healthService"
	"oddsAggregator/services/providerService"
)

// ErrNoProviderAvailable is returned only when every provider in a data
// type's priority chain is down, unavailable, or returned nothing.
var ErrNoProviderAvailable = errors.New("no provider available for request")

// sparseOddsThreshold triggers odds enrichment when a record carries fewer
// quotes than this.
const sparseOddsThreshold = 3

// statsEnrichmentCap bounds per-request team-stats lookups so enrichment
// cannot burn a provider's quota on a long game list.
const statsEnrichmentCap = 5

// Aggregator fuses provider responses: priority-ordered selection per data
// type, cross-provider identity by normalized team names, field-level
// enrichment and a confidence score per record.
type Aggregator struct {
	providers map[string]providerService.Provider
	health    *healthService.Monitor
	cache     *cacheService.TieredCache
	cfg       config.ProvidersConfig
	logger    *logrus.Logger
	now       func() time.Time
}

func NewAggregator(providers []providerService.Provider, health *healthService.Monitor, cache *cacheService.TieredCache, cfg config.ProvidersConfig, logger *logrus.Logger) *Aggregator {
	byName := make(map[string]providerService.Provider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return &Aggregator{
		providers: byName,
		health:    health,
		cache:     cache,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock swaps the time source, for deterministic confidence tests.
func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	a.now = now
	return a
}

// chain resolves a priority name list to providers eligible for the sport:
// available, supporting the sport, and not flagged DOWN. A DOWN provider is
// skipped before being called at all.
func (a *Aggregator) chain(names []string, sport models.Sport) []providerService.Provider {
	var out []providerService.Provider
	for _, name := range names {
		p, ok := a.providers[name]
		if !ok || !p.Available() {
			continue
		}
		if !providerService.SupportsSport(p, sport) {
			continue
		}
		if a.health.Status(name) == models.HealthDown {
			a.logger.WithField("provider", name).Debug("skipping DOWN provider")
			continue
		}
		out = append(out, p)
	}
	return out
}

// record routes a call outcome into the health monitor; the state machine is
// evaluated after every recorded outcome, not only probes.
func (a *Aggregator) record(p providerService.Provider, start time.Time, err error) {
	elapsed := a.now().Sub(start)
	if err != nil {
		a.health.RecordFailure(p.Name(), elapsed, err)
		return
	}
	a.health.RecordSuccess(p.Name(), elapsed, p.RateLimitRemaining())
}

// LiveGames walks the games priority chain until a provider returns a
// non-empty success, then enriches, scores and returns the merged records.
func (a *Aggregator) LiveGames(ctx context.Context, sport models.Sport, limit int) ([]models.GameRecord, error) {
	var games []models.GameRecord

	for _, p := range a.chain(a.cfg.GamesPriority, sport) {
		start := a.now()
		result, err := p.LiveGames(ctx, sport, limit)
		if errors.Is(err, providerService.ErrUnsupported) {
			continue
		}
		a.record(p, start, err)
		if err != nil {
			a.logger.WithFields(logrus.Fields{"provider": p.Name(), "sport": sport}).
				WithError(err).Warn("live games fetch failed, trying next provider")
			continue
		}
		if len(result) == 0 {
			continue
		}
		games = result
		break
	}

	if len(games) == 0 {
		return nil, ErrNoProviderAvailable
	}

	a.enrichScores(ctx, games, sport)
	a.enrichOdds(ctx, games, sport)
	a.enrichStats(ctx, games, sport)

	for i := range games {
		games[i].BestOdds = deriveBestOdds(games[i].Odds)
		games[i].ConfidenceScore = a.Confidence(&games[i])
	}
	return games, nil
}

// enrichScores fills missing scores from the scores priority chain, matching
// games across providers by normalized team-name pair.
func (a *Aggregator) enrichScores(ctx context.Context, games []models.GameRecord, sport models.Sport) {
	needsScore := false
	for i := range games {
		if games[i].Score == nil && games[i].Status != models.StatusScheduled {
			needsScore = true
			break
		}
	}
	if !needsScore {
		return
	}

	for _, p := range a.chain(a.cfg.ScoresPriority, sport) {
		start := a.now()
		scored, err := p.LiveGames(ctx, sport, 0)
		if errors.Is(err, providerService.ErrUnsupported) {
			continue
		}
		a.record(p, start, err)
		if err != nil || len(scored) == 0 {
			continue
		}

		byMatch := make(map[string]*models.GameRecord, len(scored))
		for i := range scored {
			byMatch[models.MatchKey(scored[i].HomeTeam, scored[i].AwayTeam)] = &scored[i]
		}

		for i := range games {
			if games[i].Score != nil {
				continue
			}
			other, ok := byMatch[models.MatchKey(games[i].HomeTeam, games[i].AwayTeam)]
			if !ok || other.Score == nil {
				continue
			}
			games[i].Score = other.Score
			if models.CanTransition(games[i].Status, other.Status) {
				games[i].Status = other.Status
			}
			games[i].AddSource(p.Name())
		}
		return
	}
}

// enrichOdds tops up sparse odds, consulting the odds cache class before any
// provider: quotes expire on their own tighter TTL, independent of the games
// list they ride in on. Remaining misses walk the odds priority chain and the
// fetched quotes are written back to the cache.
func (a *Aggregator) enrichOdds(ctx context.Context, games []models.GameRecord, sport models.Sport) {
	var sparse []*models.GameRecord
	for i := range games {
		if len(games[i].Odds) >= sparseOddsThreshold {
			continue
		}
		if quotes, ok := a.cachedOdds(sport, games[i].GameID); ok {
			games[i].Odds = mergeQuotes(games[i].Odds, quotes)
			if len(games[i].Odds) >= sparseOddsThreshold {
				continue
			}
		}
		sparse = append(sparse, &games[i])
	}
	if len(sparse) == 0 {
		return
	}

	for _, p := range a.chain(a.cfg.OddsPriority, sport) {
		sparse = a.enrichOddsFrom(ctx, p, sport, sparse)
		if len(sparse) == 0 {
			return
		}
	}
}

// enrichOddsFrom fills the still-sparse games from one provider. A record the
// provider itself sourced refreshes through its per-game odds endpoint;
// everything else matches against one bulk fetch by team pair, since
// provider-native game IDs are not comparable across sources. Fetched quotes
// land in the odds cache class under the record's ID. Returns the games still
// sparse afterwards.
func (a *Aggregator) enrichOddsFrom(ctx context.Context, p providerService.Provider, sport models.Sport, sparse []*models.GameRecord) []*models.GameRecord {
	var byMatch map[string]*models.GameRecord
	var remaining []*models.GameRecord

	for _, g := range sparse {
		var quotes []models.OddsQuote

		if g.HasSource(p.Name()) {
			start := a.now()
			fetched, err := p.GameOdds(ctx, g.GameID, sport)
			if !errors.Is(err, providerService.ErrUnsupported) {
				a.record(p, start, err)
				if err != nil {
					a.logger.WithFields(logrus.Fields{"provider": p.Name(), "game_id": g.GameID}).
						WithError(err).Warn("per-game odds fetch failed")
				} else {
					quotes = fetched
				}
			}
		}

		if len(quotes) == 0 {
			if byMatch == nil {
				byMatch = a.bulkOddsIndex(ctx, p, sport)
			}
			if other, ok := byMatch[models.MatchKey(g.HomeTeam, g.AwayTeam)]; ok {
				quotes = other.Odds
			}
		}

		if len(quotes) == 0 {
			remaining = append(remaining, g)
			continue
		}

		a.cacheOdds(sport, g.GameID, quotes)
		g.Odds = mergeQuotes(g.Odds, quotes)
		g.AddSource(p.Name())
		if len(g.Odds) < sparseOddsThreshold {
			remaining = append(remaining, g)
		}
	}
	return remaining
}

// bulkOddsIndex fetches the provider's full board once and indexes it by
// normalized team pair.
func (a *Aggregator) bulkOddsIndex(ctx context.Context, p providerService.Provider, sport models.Sport) map[string]*models.GameRecord {
	index := make(map[string]*models.GameRecord)

	start := a.now()
	priced, err := p.LiveGames(ctx, sport, 0)
	if errors.Is(err, providerService.ErrUnsupported) {
		return index
	}
	a.record(p, start, err)
	if err != nil {
		return index
	}

	for i := range priced {
		index[models.MatchKey(priced[i].HomeTeam, priced[i].AwayTeam)] = &priced[i]
	}
	return index
}

func (a *Aggregator) cachedOdds(sport models.Sport, gameID string) ([]models.OddsQuote, bool) {
	if a.cache == nil || gameID == "" {
		return nil, false
	}
	return a.cache.GetOdds(sport, gameID)
}

func (a *Aggregator) cacheOdds(sport models.Sport, gameID string, quotes []models.OddsQuote) {
	if a.cache == nil || gameID == "" {
		return
	}
	if err := a.cache.PutOdds(sport, gameID, quotes); err != nil {
		a.logger.WithFields(logrus.Fields{"sport": sport, "game_id": gameID}).
			WithError(err).Error("failed to cache odds quotes")
	}
}

// enrichStats attaches team records from the stats chain for the first few
// games without them.
func (a *Aggregator) enrichStats(ctx context.Context, games []models.GameRecord, sport models.Sport) {
	chain := a.chain(a.cfg.StatsPriority, sport)
	if len(chain) == 0 {
		return
	}
	p := chain[0]

	enriched := 0
	for i := range games {
		if enriched >= statsEnrichmentCap {
			return
		}
		if games[i].HomeStats != nil && games[i].AwayStats != nil {
			continue
		}

		start := a.now()
		homeStats, err := p.TeamStats(ctx, games[i].HomeTeam, sport)
		if errors.Is(err, providerService.ErrUnsupported) {
			return
		}
		a.record(p, start, err)
		if err != nil {
			continue
		}

		start = a.now()
		awayStats, err := p.TeamStats(ctx, games[i].AwayTeam, sport)
		a.record(p, start, err)
		if err != nil {
			continue
		}

		games[i].HomeStats = homeStats
		games[i].AwayStats = awayStats
		games[i].AddSource(p.Name())
		enriched++
	}
}

// mergeQuotes appends incoming quotes, keeping the incumbent when it has a
// fresher last_updated for the same (sportsbook, bet type, outcome).
func mergeQuotes(existing, incoming []models.OddsQuote) []models.OddsQuote {
	type quoteKey struct {
		book    string
		betType models.BetType
		outcome string
	}

	index := make(map[quoteKey]int, len(existing))
	for i, q := range existing {
		index[quoteKey{q.Sportsbook, q.BetType, q.Outcome}] = i
	}

	for _, q := range incoming {
		key := quoteKey{q.Sportsbook, q.BetType, q.Outcome}
		if i, ok := index[key]; ok {
			if q.LastUpdated.After(existing[i].LastUpdated) {
				existing[i] = q
			}
			continue
		}
		index[key] = len(existing)
		existing = append(existing, q)
	}
	return existing
}

// deriveBestOdds picks the highest payout-ratio quote per bet type. Derived,
// never authoritative.
func deriveBestOdds(quotes []models.OddsQuote) map[models.BetType]models.OddsQuote {
	if len(quotes) == 0 {
		return nil
	}
	best := make(map[models.BetType]models.OddsQuote)
	for _, q := range quotes {
		incumbent, ok := best[q.BetType]
		if !ok || q.PayoutRatio > incumbent.PayoutRatio {
			best[q.BetType] = q
		}
	}
	return best
}

// Confidence scores a record's completeness and freshness in [0,1]:
// 0.2 base + up to 0.3 for odds depth + 0.2 score (+0.1 live) + 0.1 stats
// + 0.1 fresh within the hour + 0.1 multi-source.
func (a *Aggregator) Confidence(g *models.GameRecord) float64 {
	score := 0.2

	oddsWeight := 0.05 * float64(len(g.Odds))
	if oddsWeight > 0.3 {
		oddsWeight = 0.3
	}
	score += oddsWeight

	if g.Score != nil {
		score += 0.2
		if g.Status == models.StatusLive {
			score += 0.1
		}
	}
	if g.HomeStats != nil || g.AwayStats != nil {
		score += 0.1
	}
	if !g.LastUpdated.IsZero() && a.now().Sub(g.LastUpdated) <= time.Hour {
		score += 0.1
	}
	if len(g.DataSources) >= 2 {
		score += 0.1
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}
