package facadeService

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"oddsAggregator/config"
	"oddsAggregator/models"
	"oddsAggregator/services/aggregatorService"
	"oddsAggregator/services/cacheService"
	"oddsAggregator/services/providerService"
)

// Data-source markers on responses, in fallback order.
const (
	SourceCache        = "cache"
	SourceLive         = "live"
	SourceExpiredCache = "expired_cache_fallback"
	SourceFallback     = "fallback"
)

// liveGamesCacheKey is the single games-class key per sport; limits are
// applied after retrieval so one cached list serves every limit.
const liveGamesCacheKey = "live"

type LiveOddsResponse struct {
	Success      bool                `json:"success"`
	Sport        models.Sport        `json:"sport"`
	Games        []models.GameRecord `json:"games"`
	TotalGames   int                 `json:"total_games"`
	DataSource   string              `json:"data_source"`
	CacheHit     bool                `json:"cache_hit"`
	Stale        bool                `json:"stale,omitempty"`
	SeasonStatus string              `json:"season_status,omitempty"`
}

type AllGamesResponse struct {
	Success          bool                                          `json:"success"`
	Games            []models.GameRecord                           `json:"games"`
	TotalGames       int                                           `json:"total_games"`
	SportsSummary    map[string]int                                `json:"sports_summary"`
	CachePerformance map[models.CacheClass]cacheService.ClassStats `json:"cache_performance"`
}

type ComparisonGame struct {
	models.GameRecord
	BestHomeOdds *models.OddsQuote `json:"best_home_odds,omitempty"`
	BestAwayOdds *models.OddsQuote `json:"best_away_odds,omitempty"`
}

type ComparisonSummary struct {
	GamesWithOdds int      `json:"games_with_odds"`
	BooksSeen     []string `json:"books_seen"`
}

type OddsComparisonResponse struct {
	Success           bool              `json:"success"`
	Sport             models.Sport      `json:"sport"`
	Games             []ComparisonGame  `json:"games"`
	ComparisonSummary ComparisonSummary `json:"comparison_summary"`
	DataSource        string            `json:"data_source"`
}

type SportsResponse struct {
	Success    bool               `json:"success"`
	Sports     []models.SportInfo `json:"sports"`
	DataSource string             `json:"data_source"`
	CacheHit   bool               `json:"cache_hit"`
}

// Facade is the only entry point routes and collaborators consume. Every
// query walks the same strict chain: fresh cache, live aggregation (cached on
// success), stale cache, hardcoded defaults. Data queries never return errors.
type Facade struct {
	agg    *aggregatorService.Aggregator
	cache  *cacheService.TieredCache
	sports providerService.SportsLister
	cfg    *config.Config
	logger *logrus.Logger
	now    func() time.Time
}

func NewFacade(agg *aggregatorService.Aggregator, cache *cacheService.TieredCache, sports providerService.SportsLister, cfg *config.Config, logger *logrus.Logger) *Facade {
	return &Facade{
		agg:    agg,
		cache:  cache,
		sports: sports,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// fetchGames walks the read-through chain for one sport's live game list.
func (f *Facade) fetchGames(ctx context.Context, sport models.Sport) ([]models.GameRecord, string, bool) {
	if games, ok := f.cache.GetGames(sport, liveGamesCacheKey); ok {
		return games, SourceCache, true
	}

	// Concurrent misses for the same sport collapse into one live fetch.
	result, err := f.cache.DoOnce(models.CacheClassGames, string(sport)+":"+liveGamesCacheKey, func() (any, error) {
		games, err := f.agg.LiveGames(ctx, sport, 0)
		if err != nil {
			return nil, err
		}
		if putErr := f.cache.PutGames(sport, liveGamesCacheKey, games); putErr != nil {
			f.logger.WithField("sport", sport).WithError(putErr).Error("failed to cache live games")
		}
		return games, nil
	})
	if err == nil {
		return result.([]models.GameRecord), SourceLive, false
	}
	f.logger.WithField("sport", sport).WithError(err).Warn("live aggregation failed, trying stale cache")

	if games, ok := f.cache.GetGamesStale(sport, liveGamesCacheKey); ok {
		return games, SourceExpiredCache, false
	}

	return nil, SourceFallback, false
}

func seasonStatus(games []models.GameRecord) string {
	if len(games) > 0 {
		return "in_season"
	}
	return "off_season"
}

func (f *Facade) GetLiveOdds(ctx context.Context, sport models.Sport, limit int) *LiveOddsResponse {
	games, source, cacheHit := f.fetchGames(ctx, sport)
	if limit > 0 && len(games) > limit {
		games = games[:limit]
	}

	return &LiveOddsResponse{
		Success:      true,
		Sport:        sport,
		Games:        games,
		TotalGames:   len(games),
		DataSource:   source,
		CacheHit:     cacheHit,
		Stale:        source == SourceExpiredCache,
		SeasonStatus: seasonStatus(games),
	}
}

func (f *Facade) GetAllGames(ctx context.Context, limitPerSport int, showUpcoming bool) *AllGamesResponse {
	var all []models.GameRecord
	summary := make(map[string]int)

	for _, key := range f.cfg.Providers.PopularSports {
		sport := models.Sport(key)
		games, _, _ := f.fetchGames(ctx, sport)

		var kept []models.GameRecord
		for _, g := range games {
			if !showUpcoming && g.Status == models.StatusScheduled {
				continue
			}
			kept = append(kept, g)
			if limitPerSport > 0 && len(kept) >= limitPerSport {
				break
			}
		}
		summary[key] = len(kept)
		all = append(all, kept...)
	}

	return &AllGamesResponse{
		Success:          true,
		Games:            all,
		TotalGames:       len(all),
		SportsSummary:    summary,
		CachePerformance: f.cache.Stats(),
	}
}

func (f *Facade) GetOddsComparison(ctx context.Context, sport models.Sport, limit int) *OddsComparisonResponse {
	games, source, _ := f.fetchGames(ctx, sport)
	if limit > 0 && len(games) > limit {
		games = games[:limit]
	}

	booksSeen := make(map[string]bool)
	gamesWithOdds := 0

	comparisons := make([]ComparisonGame, 0, len(games))
	for _, g := range games {
		cg := ComparisonGame{GameRecord: g}
		for i := range g.Odds {
			q := g.Odds[i]
			if q.BetType != models.BetMoneyline {
				continue
			}
			booksSeen[q.Sportsbook] = true
			switch models.NormalizedTeamName(q.Outcome) {
			case models.NormalizedTeamName(g.HomeTeam):
				if cg.BestHomeOdds == nil || q.PayoutRatio > cg.BestHomeOdds.PayoutRatio {
					quote := q
					cg.BestHomeOdds = &quote
				}
			case models.NormalizedTeamName(g.AwayTeam):
				if cg.BestAwayOdds == nil || q.PayoutRatio > cg.BestAwayOdds.PayoutRatio {
					quote := q
					cg.BestAwayOdds = &quote
				}
			}
		}
		if cg.BestHomeOdds != nil || cg.BestAwayOdds != nil {
			gamesWithOdds++
		}
		comparisons = append(comparisons, cg)
	}

	books := make([]string, 0, len(booksSeen))
	for book := range booksSeen {
		books = append(books, book)
	}

	return &OddsComparisonResponse{
		Success: true,
		Sport:   sport,
		Games:   comparisons,
		ComparisonSummary: ComparisonSummary{
			GamesWithOdds: gamesWithOdds,
			BooksSeen:     books,
		},
		DataSource: source,
	}
}

func (f *Facade) GetAvailableSports(ctx context.Context) *SportsResponse {
	if sports, ok := f.cache.GetSports(); ok {
		return &SportsResponse{Success: true, Sports: sports, DataSource: SourceCache, CacheHit: true}
	}

	if f.sports != nil {
		result, err := f.cache.DoOnce(models.CacheClassSports, "all", func() (any, error) {
			sports, err := f.sports.ListSports(ctx)
			if err != nil {
				return nil, err
			}
			if putErr := f.cache.PutSports(sports); putErr != nil {
				f.logger.WithError(putErr).Error("failed to cache sports listing")
			}
			return sports, nil
		})
		if err == nil {
			return &SportsResponse{Success: true, Sports: result.([]models.SportInfo), DataSource: SourceLive}
		}
		f.logger.WithError(err).Warn("sports listing failed, trying stale cache")
	}

	if sports, ok := f.cache.GetSportsStale(); ok {
		return &SportsResponse{Success: true, Sports: sports, DataSource: SourceExpiredCache}
	}

	return &SportsResponse{Success: true, Sports: DefaultSports(), DataSource: SourceFallback}
}

// Warmup proactively populates the cache for the configured popular sports.
// Run once at startup and again daily.
func (f *Facade) Warmup(ctx context.Context) {
	start := f.now()
	f.GetAvailableSports(ctx)
	for _, key := range f.cfg.Providers.PopularSports {
		resp := f.GetLiveOdds(ctx, models.Sport(key), 0)
		f.logger.WithFields(logrus.Fields{
			"sport":       key,
			"games":       resp.TotalGames,
			"data_source": resp.DataSource,
		}).Info("warmup fetch complete")
	}
	f.logger.WithField("elapsed", f.now().Sub(start)).Info("cache warmup finished")
}

// CacheStats exposes per-class hit ratios.
func (f *Facade) CacheStats() map[models.CacheClass]cacheService.ClassStats {
	return f.cache.Stats()
}

// DefaultSports is the hardcoded last-resort sports list, served only when
// live, cached and stale data are all unavailable.
func DefaultSports() []models.SportInfo {
	return []models.SportInfo{
		{Key: string(models.SportNFL), Name: "NFL", Active: true, SeasonStatus: "unknown"},
		{Key: string(models.SportNBA), Name: "NBA", Active: true, SeasonStatus: "unknown"},
		{Key: string(models.SportMLB), Name: "MLB", Active: true, SeasonStatus: "unknown"},
		{Key: string(models.SportNHL), Name: "NHL", Active: true, SeasonStatus: "unknown"},
	}
}
