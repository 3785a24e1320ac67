package providerService

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"oddsAggregator/config"
	"oddsAggregator/models"
	"oddsAggregator/models/external"
)

const ApiSportsName = "apisports"

// apiSportsHosts maps each sport to its API-Sports subdomain. Overridden
// wholesale in tests via the BaseURLs field.
func apiSportsHosts() map[models.Sport]string {
	return map[models.Sport]string{
		models.SportNBA: "https://v1.basketball.api-sports.io",
		models.SportNFL: "https://v1.american-football.api-sports.io",
		models.SportMLB: "https://v1.baseball.api-sports.io",
		models.SportNHL: "https://v1.hockey.api-sports.io",
	}
}

// ApiSportsProvider adapts API-Sports: payloads wrapped in a "response"
// envelope, short game status codes (NS, 1H, HT, FT, PST, CANC, SUSP).
// It carries games and live scores; odds and team stats are unsupported.
type ApiSportsProvider struct {
	BaseURLs map[models.Sport]string

	apiKey string
	client *throttledClient
	logger *logrus.Logger
}

func NewApiSportsProvider(apiKey string, cfg config.ProvidersConfig, logger *logrus.Logger) *ApiSportsProvider {
	return &ApiSportsProvider{
		BaseURLs: apiSportsHosts(),
		apiKey:   apiKey,
		client:   newThrottledClient(cfg.HTTPTimeout, cfg.MinDelay[ApiSportsName], cfg.MaxRetries, logger),
		logger:   logger,
	}
}

func (p *ApiSportsProvider) Name() string { return ApiSportsName }

func (p *ApiSportsProvider) Available() bool { return p.apiKey != "" }

func (p *ApiSportsProvider) SupportedSports() []models.Sport {
	sports := make([]models.Sport, 0, len(p.BaseURLs))
	for sport := range p.BaseURLs {
		sports = append(sports, sport)
	}
	return sports
}

func (p *ApiSportsProvider) RateLimitRemaining() *int { return p.client.rateLimitRemaining() }

func (p *ApiSportsProvider) headers() map[string]string {
	return map[string]string{"x-apisports-key": p.apiKey}
}

// statusFromCode maps API-Sports short status codes to the unified enum.
func statusFromCode(short string) models.GameStatus {
	switch short {
	case "NS", "TBD":
		return models.StatusScheduled
	case "FT", "AOT", "AET", "PEN":
		return models.StatusFinished
	case "PST":
		return models.StatusPostponed
	case "CANC":
		return models.StatusCancelled
	case "SUSP", "INT":
		return models.StatusSuspended
	default:
		// 1H, 2H, HT, Q1-Q4, OT, BT, LIVE and friends are all in-progress.
		return models.StatusLive
	}
}

func (p *ApiSportsProvider) fetchGames(ctx context.Context, sport models.Sport, query string) ([]external.ApiSports_Game, error) {
	if !p.Available() {
		return nil, ErrUnavailable
	}
	host, ok := p.BaseURLs[sport]
	if !ok {
		return nil, fmt.Errorf("%w: sport %s", ErrUnsupported, sport)
	}

	body, err := p.client.get(ctx, fmt.Sprintf("%s/games?%s", host, query), p.headers())
	if err != nil {
		return nil, err
	}

	var envelope external.ApiSports_GamesEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return envelope.Response, nil
}

func (p *ApiSportsProvider) LiveGames(ctx context.Context, sport models.Sport, limit int) ([]models.GameRecord, error) {
	raw, err := p.fetchGames(ctx, sport, "live=all")
	if err != nil {
		return nil, err
	}

	games := make([]models.GameRecord, 0, len(raw))
	for _, g := range raw {
		if limit > 0 && len(games) >= limit {
			break
		}
		games = append(games, p.toGameRecord(g, sport))
	}
	return games, nil
}

func (p *ApiSportsProvider) GameOdds(ctx context.Context, gameID string, sport models.Sport) ([]models.OddsQuote, error) {
	return nil, ErrUnsupported
}

func (p *ApiSportsProvider) GameScore(ctx context.Context, gameID string, sport models.Sport) (*models.ScoreData, error) {
	raw, err := p.fetchGames(ctx, sport, "id="+gameID)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: game %s not found", ErrMalformed, gameID)
	}

	record := p.toGameRecord(raw[0], sport)
	if record.Score == nil {
		return nil, fmt.Errorf("%w: game %s has no score yet", ErrMalformed, gameID)
	}
	return record.Score, nil
}

func (p *ApiSportsProvider) TeamStats(ctx context.Context, teamName string, sport models.Sport) (*models.TeamStats, error) {
	return nil, ErrUnsupported
}

// Probe issues one minimal live-games call against the first configured
// sport. There is no cheaper endpoint on this API.
func (p *ApiSportsProvider) Probe(ctx context.Context) error {
	if !p.Available() {
		return ErrUnavailable
	}
	for sport := range p.BaseURLs {
		_, err := p.LiveGames(ctx, sport, 1)
		return err
	}
	return ErrUnsupported
}

func (p *ApiSportsProvider) toGameRecord(g external.ApiSports_Game, sport models.Sport) models.GameRecord {
	gameDate, _ := time.Parse(time.RFC3339, g.Date)
	status := statusFromCode(g.Status.Short)

	record := models.GameRecord{
		GameID:      strconv.FormatInt(g.ID, 10),
		Sport:       sport,
		HomeTeam:    g.Teams.Home.Name,
		AwayTeam:    g.Teams.Away.Name,
		GameDate:    gameDate,
		Status:      status,
		Venue:       g.Venue.Name,
		DataSources: []string{ApiSportsName},
		LastUpdated: time.Now(),
	}

	if g.Scores.Home.Total != nil && g.Scores.Away.Total != nil {
		record.Score = &models.ScoreData{
			HomeScore: *g.Scores.Home.Total,
			AwayScore: *g.Scores.Away.Total,
			Period:    g.Status.Long,
			Clock:     g.Status.Timer,
			Completed: status == models.StatusFinished,
		}
	}
	return record
}
