package facadeService

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"oddsAggregator/config"
	"oddsAggregator/models"
	"oddsAggregator/services/aggregatorService"
	"oddsAggregator/services/cacheService"
	"oddsAggregator/services/healthService"
	"oddsAggregator/services/providerService"
)

func newMockDB() (*gorm.DB, sqlmock.Sqlmock, error) {
	db, mock, err := sqlmock.New()
	if err != nil {
		return nil, nil, err
	}

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})

	return gormDB, mock, err
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// deadProvider fails every call, for exercising the fallback tiers.
type deadProvider struct{ name string }

func (d *deadProvider) Name() string                    { return d.name }
func (d *deadProvider) SupportedSports() []models.Sport { return []models.Sport{models.SportNBA} }
func (d *deadProvider) Available() bool                 { return true }
func (d *deadProvider) RateLimitRemaining() *int        { return nil }
func (d *deadProvider) Probe(ctx context.Context) error { return providerService.ErrTimeout }

func (d *deadProvider) LiveGames(ctx context.Context, sport models.Sport, limit int) ([]models.GameRecord, error) {
	return nil, providerService.ErrTimeout
}

func (d *deadProvider) GameOdds(ctx context.Context, gameID string, sport models.Sport) ([]models.OddsQuote, error) {
	return nil, providerService.ErrTimeout
}

func (d *deadProvider) GameScore(ctx context.Context, gameID string, sport models.Sport) (*models.ScoreData, error) {
	return nil, providerService.ErrTimeout
}

func (d *deadProvider) TeamStats(ctx context.Context, teamName string, sport models.Sport) (*models.TeamStats, error) {
	return nil, providerService.ErrTimeout
}

type failingLister struct{}

func (failingLister) ListSports(ctx context.Context) ([]models.SportInfo, error) {
	return nil, providerService.ErrTimeout
}

type staticLister struct{ sports []models.SportInfo }

func (s staticLister) ListSports(ctx context.Context) ([]models.SportInfo, error) {
	return s.sports, nil
}

// newTestFacade wires a facade over a mocked database and a single dead
// provider, so live aggregation always fails and the cache tiers decide.
func newTestFacade(t *testing.T, lister providerService.SportsLister) (*Facade, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := newMockDB()
	if err != nil {
		t.Fatalf("Failed to create mock DB: %v", err)
	}
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	cfg := config.Default()
	cfg.Providers.GamesPriority = []string{"dead"}
	cfg.Providers.ScoresPriority = nil
	cfg.Providers.OddsPriority = nil
	cfg.Providers.StatsPriority = nil

	logger := quietLogger()
	health := healthService.NewMonitor(db, cfg.Health, logger, []string{"dead"})
	cache := cacheService.NewTieredCache(db, cfg.Cache, logger)
	agg := aggregatorService.NewAggregator(
		[]providerService.Provider{&deadProvider{name: "dead"}}, health, cache, cfg.Providers, logger)

	return NewFacade(agg, cache, lister, cfg, logger), mock
}

func gamesRow(t *testing.T, games []models.GameRecord, expiresAt time.Time) *sqlmock.Rows {
	t.Helper()
	payload, err := json.Marshal(games)
	if err != nil {
		t.Fatalf("Failed to marshal games: %v", err)
	}
	return sqlmock.NewRows([]string{"id", "sport_key", "cache_key", "payload", "expires_at"}).
		AddRow(1, string(models.SportNBA), "live", string(payload), expiresAt)
}

func emptyGamesRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "sport_key", "cache_key", "payload", "expires_at"})
}

func TestGetLiveOddsServesFreshCache(t *testing.T) {
	facade, mock := newTestFacade(t, nil)

	cached := []models.GameRecord{
		{GameID: "g1", HomeTeam: "Celtics", AwayTeam: "Heat", Status: models.StatusLive},
		{GameID: "g2", HomeTeam: "Knicks", AwayTeam: "Nets", Status: models.StatusLive},
	}
	mock.ExpectQuery("SELECT \\* FROM `games_cache_entries`").
		WillReturnRows(gamesRow(t, cached, time.Now().Add(10*time.Minute)))

	resp := facade.GetLiveOdds(context.Background(), models.SportNBA, 0)

	if !resp.Success {
		t.Error("data queries must always succeed")
	}
	if resp.DataSource != SourceCache || !resp.CacheHit {
		t.Errorf("expected fresh cache hit, got source=%q hit=%v", resp.DataSource, resp.CacheHit)
	}
	if resp.TotalGames != 2 {
		t.Errorf("expected 2 games, got %d", resp.TotalGames)
	}
	if resp.SeasonStatus != "in_season" {
		t.Errorf("games present should read in_season, got %q", resp.SeasonStatus)
	}
	if resp.Stale {
		t.Error("fresh cache reads are not stale")
	}
}

func TestGetLiveOddsAppliesLimit(t *testing.T) {
	facade, mock := newTestFacade(t, nil)

	cached := []models.GameRecord{{GameID: "g1"}, {GameID: "g2"}, {GameID: "g3"}}
	mock.ExpectQuery("SELECT \\* FROM `games_cache_entries`").
		WillReturnRows(gamesRow(t, cached, time.Now().Add(10*time.Minute)))

	resp := facade.GetLiveOdds(context.Background(), models.SportNBA, 2)
	if resp.TotalGames != 2 {
		t.Errorf("expected limit applied after retrieval, got %d", resp.TotalGames)
	}
}

func TestGetLiveOddsFallsBackToStaleCache(t *testing.T) {
	facade, mock := newTestFacade(t, nil)

	// Fresh read misses, the dead provider fails, the stale read serves.
	mock.ExpectQuery("SELECT \\* FROM `games_cache_entries`").
		WillReturnRows(emptyGamesRows())
	stale := []models.GameRecord{{GameID: "old1", HomeTeam: "Celtics", AwayTeam: "Heat"}}
	mock.ExpectQuery("SELECT \\* FROM `games_cache_entries`").
		WillReturnRows(gamesRow(t, stale, time.Now().Add(-time.Hour)))

	resp := facade.GetLiveOdds(context.Background(), models.SportNBA, 0)

	if !resp.Success {
		t.Error("data queries must always succeed")
	}
	if resp.DataSource != SourceExpiredCache {
		t.Errorf("expected %q, got %q", SourceExpiredCache, resp.DataSource)
	}
	if !resp.Stale {
		t.Error("expired cache reads must be flagged stale")
	}
	if resp.TotalGames != 1 || resp.Games[0].GameID != "old1" {
		t.Errorf("expected the stale game, got %+v", resp.Games)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestGetLiveOddsNeverErrors(t *testing.T) {
	facade, mock := newTestFacade(t, nil)

	// Every tier is empty: fresh miss, provider dead, stale miss.
	mock.ExpectQuery("SELECT \\* FROM `games_cache_entries`").
		WillReturnRows(emptyGamesRows())
	mock.ExpectQuery("SELECT \\* FROM `games_cache_entries`").
		WillReturnRows(emptyGamesRows())

	resp := facade.GetLiveOdds(context.Background(), models.SportNBA, 0)

	if !resp.Success {
		t.Error("the facade never returns failure on data queries")
	}
	if resp.DataSource != SourceFallback {
		t.Errorf("expected %q, got %q", SourceFallback, resp.DataSource)
	}
	if resp.TotalGames != 0 {
		t.Errorf("expected no games, got %d", resp.TotalGames)
	}
	if resp.SeasonStatus != "off_season" {
		t.Errorf("empty fallback should read off_season, got %q", resp.SeasonStatus)
	}
}

func TestGetAvailableSportsFallsBackToDefaults(t *testing.T) {
	facade, mock := newTestFacade(t, failingLister{})

	mock.ExpectQuery("SELECT \\* FROM `sports_cache_entries`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "sport_key", "payload", "expires_at"}))
	mock.ExpectQuery("SELECT \\* FROM `sports_cache_entries`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "sport_key", "payload", "expires_at"}))

	resp := facade.GetAvailableSports(context.Background())

	if !resp.Success {
		t.Error("sports listing never returns failure")
	}
	if resp.DataSource != SourceFallback {
		t.Errorf("expected %q, got %q", SourceFallback, resp.DataSource)
	}
	defaults := DefaultSports()
	if len(resp.Sports) != len(defaults) {
		t.Fatalf("expected the %d hardcoded sports, got %d", len(defaults), len(resp.Sports))
	}
	if resp.Sports[0].Key != string(models.SportNFL) {
		t.Errorf("unexpected first default %+v", resp.Sports[0])
	}
}

func TestGetAvailableSportsFromLister(t *testing.T) {
	listed := []models.SportInfo{{Key: "basketball_nba", Name: "NBA", Active: true, SeasonStatus: "in_season"}}
	facade, mock := newTestFacade(t, staticLister{sports: listed})

	// Fresh miss, then the live listing is cached: lookup, insert.
	mock.ExpectQuery("SELECT \\* FROM `sports_cache_entries`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "sport_key", "payload", "expires_at"}))
	mock.ExpectQuery("SELECT \\* FROM `sports_cache_entries`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "sport_key", "payload", "expires_at"}))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `sports_cache_entries`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	resp := facade.GetAvailableSports(context.Background())

	if resp.DataSource != SourceLive {
		t.Errorf("expected %q, got %q", SourceLive, resp.DataSource)
	}
	if len(resp.Sports) != 1 || resp.Sports[0].Key != "basketball_nba" {
		t.Errorf("unexpected sports %+v", resp.Sports)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestGetOddsComparisonPicksBestQuotes(t *testing.T) {
	facade, mock := newTestFacade(t, nil)

	line := 3.5
	cached := []models.GameRecord{{
		GameID:   "g1",
		HomeTeam: "Boston Celtics",
		AwayTeam: "Miami Heat",
		Status:   models.StatusLive,
		Odds: []models.OddsQuote{
			{Sportsbook: "BookA", BetType: models.BetMoneyline, Outcome: "Boston Celtics", Price: -150, PayoutRatio: 0.6667},
			{Sportsbook: "BookB", BetType: models.BetMoneyline, Outcome: "Boston Celtics", Price: -140, PayoutRatio: 0.7143},
			{Sportsbook: "BookA", BetType: models.BetMoneyline, Outcome: "Miami Heat", Price: 130, PayoutRatio: 1.3},
			{Sportsbook: "BookB", BetType: models.BetMoneyline, Outcome: "Miami Heat", Price: 125, PayoutRatio: 1.25},
			{Sportsbook: "BookA", BetType: models.BetSpread, Outcome: "Boston Celtics", Price: -110, Line: &line, PayoutRatio: 0.9091},
		},
	}}
	mock.ExpectQuery("SELECT \\* FROM `games_cache_entries`").
		WillReturnRows(gamesRow(t, cached, time.Now().Add(10*time.Minute)))

	resp := facade.GetOddsComparison(context.Background(), models.SportNBA, 0)

	if len(resp.Games) != 1 {
		t.Fatalf("expected 1 comparison game, got %d", len(resp.Games))
	}
	cg := resp.Games[0]
	if cg.BestHomeOdds == nil || cg.BestHomeOdds.Sportsbook != "BookB" {
		t.Errorf("expected BookB best for home, got %+v", cg.BestHomeOdds)
	}
	if cg.BestAwayOdds == nil || cg.BestAwayOdds.Price != 130 {
		t.Errorf("expected +130 best for away, got %+v", cg.BestAwayOdds)
	}
	if resp.ComparisonSummary.GamesWithOdds != 1 {
		t.Errorf("expected 1 game with odds, got %d", resp.ComparisonSummary.GamesWithOdds)
	}
	if len(resp.ComparisonSummary.BooksSeen) != 2 {
		t.Errorf("expected 2 books seen, got %v", resp.ComparisonSummary.BooksSeen)
	}
}

func TestGetAllGamesFiltersUpcoming(t *testing.T) {
	facade, mock := newTestFacade(t, nil)
	facade.cfg.Providers.PopularSports = []string{string(models.SportNBA)}

	cached := []models.GameRecord{
		{GameID: "live1", Status: models.StatusLive},
		{GameID: "sched1", Status: models.StatusScheduled},
		{GameID: "fin1", Status: models.StatusFinished},
	}
	mock.ExpectQuery("SELECT \\* FROM `games_cache_entries`").
		WillReturnRows(gamesRow(t, cached, time.Now().Add(10*time.Minute)))

	resp := facade.GetAllGames(context.Background(), 0, false)

	if resp.TotalGames != 2 {
		t.Fatalf("expected scheduled games filtered out, got %d", resp.TotalGames)
	}
	for _, g := range resp.Games {
		if g.Status == models.StatusScheduled {
			t.Errorf("scheduled game %q should be filtered", g.GameID)
		}
	}
	if resp.SportsSummary[string(models.SportNBA)] != 2 {
		t.Errorf("unexpected summary %v", resp.SportsSummary)
	}
}
