package providerService

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"oddsAggregator/config"
	"oddsAggregator/models"
	"oddsAggregator/models/external"
)

const ESPNName = "espn"

// espnPaths maps each sport to its ESPN site API path segment.
func espnPaths() map[models.Sport]string {
	return map[models.Sport]string{
		models.SportNFL:   "football/nfl",
		models.SportNBA:   "basketball/nba",
		models.SportMLB:   "baseball/mlb",
		models.SportNHL:   "hockey/nhl",
		models.SportNCAAF: "football/college-football",
		models.SportNCAAB: "basketball/mens-college-basketball",
	}
}

// ESPNProvider adapts ESPN's keyless scoreboard API. It carries games, live
// scores and team records; it has no odds surface here.
type ESPNProvider struct {
	BaseURL string

	client *throttledClient
	logger *logrus.Logger
	paths  map[models.Sport]string
}

func NewESPNProvider(cfg config.ProvidersConfig, logger *logrus.Logger) *ESPNProvider {
	return &ESPNProvider{
		BaseURL: "https://site.api.espn.com/apis/site/v2/sports",
		client:  newThrottledClient(cfg.HTTPTimeout, cfg.MinDelay[ESPNName], cfg.MaxRetries, logger),
		logger:  logger,
		paths:   espnPaths(),
	}
}

func (p *ESPNProvider) Name() string { return ESPNName }

// Available is always true: ESPN's public endpoints need no key.
func (p *ESPNProvider) Available() bool { return true }

func (p *ESPNProvider) SupportedSports() []models.Sport {
	sports := make([]models.Sport, 0, len(p.paths))
	for sport := range p.paths {
		sports = append(sports, sport)
	}
	return sports
}

func (p *ESPNProvider) RateLimitRemaining() *int { return p.client.rateLimitRemaining() }

func (p *ESPNProvider) fetchScoreboard(ctx context.Context, sport models.Sport) (*external.ESPN_Scoreboard, error) {
	path, ok := p.paths[sport]
	if !ok {
		return nil, fmt.Errorf("%w: sport %s", ErrUnsupported, sport)
	}

	body, err := p.client.get(ctx, fmt.Sprintf("%s/%s/scoreboard", p.BaseURL, path), nil)
	if err != nil {
		return nil, err
	}

	var scoreboard external.ESPN_Scoreboard
	if err := json.Unmarshal(body, &scoreboard); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &scoreboard, nil
}

func (p *ESPNProvider) LiveGames(ctx context.Context, sport models.Sport, limit int) ([]models.GameRecord, error) {
	scoreboard, err := p.fetchScoreboard(ctx, sport)
	if err != nil {
		return nil, err
	}

	games := make([]models.GameRecord, 0, len(scoreboard.Events))
	for _, ev := range scoreboard.Events {
		if limit > 0 && len(games) >= limit {
			break
		}
		record, ok := p.toGameRecord(ev, sport)
		if ok {
			games = append(games, record)
		}
	}
	return games, nil
}

func (p *ESPNProvider) GameOdds(ctx context.Context, gameID string, sport models.Sport) ([]models.OddsQuote, error) {
	return nil, ErrUnsupported
}

func (p *ESPNProvider) GameScore(ctx context.Context, gameID string, sport models.Sport) (*models.ScoreData, error) {
	scoreboard, err := p.fetchScoreboard(ctx, sport)
	if err != nil {
		return nil, err
	}

	for _, ev := range scoreboard.Events {
		if ev.ID != gameID {
			continue
		}
		record, ok := p.toGameRecord(ev, sport)
		if !ok || record.Score == nil {
			return nil, fmt.Errorf("%w: game %s has no score", ErrMalformed, gameID)
		}
		return record.Score, nil
	}
	return nil, fmt.Errorf("%w: game %s not on scoreboard", ErrMalformed, gameID)
}

func (p *ESPNProvider) TeamStats(ctx context.Context, teamName string, sport models.Sport) (*models.TeamStats, error) {
	scoreboard, err := p.fetchScoreboard(ctx, sport)
	if err != nil {
		return nil, err
	}

	want := models.NormalizedTeamName(teamName)
	for _, ev := range scoreboard.Events {
		for _, comp := range ev.Competitions {
			for _, competitor := range comp.Competitors {
				if models.NormalizedTeamName(competitor.Team.DisplayName) != want {
					continue
				}
				stats := &models.TeamStats{TeamName: competitor.Team.DisplayName}
				for _, rec := range competitor.Records {
					if rec.Type == "total" || rec.Name == "overall" {
						stats.Wins, stats.Losses = parseRecordSummary(rec.Summary)
					}
				}
				for _, st := range competitor.Statistics {
					switch st.Name {
					case "avgPointsFor", "pointsPerGame":
						stats.PointsFor, _ = strconv.ParseFloat(st.DisplayValue, 64)
					case "avgPointsAgainst", "pointsAllowedPerGame":
						stats.PointsAgainst, _ = strconv.ParseFloat(st.DisplayValue, 64)
					case "streak":
						stats.Streak = st.DisplayValue
					}
				}
				return stats, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: team %q not on scoreboard", ErrMalformed, teamName)
}

func (p *ESPNProvider) Probe(ctx context.Context) error {
	// ESPN has no catalog endpoint; one minimal scoreboard call is the probe.
	_, err := p.LiveGames(ctx, models.SportNFL, 1)
	return err
}

// parseRecordSummary splits an ESPN "10-5" record into wins and losses.
func parseRecordSummary(summary string) (int, int) {
	parts := strings.SplitN(summary, "-", 2)
	if len(parts) != 2 {
		return 0, 0
	}
	wins, _ := strconv.Atoi(strings.TrimSpace(parts[0]))
	losses, _ := strconv.Atoi(strings.TrimSpace(parts[1]))
	return wins, losses
}

func espnStatus(st external.ESPN_Status) models.GameStatus {
	switch {
	case strings.Contains(st.Type.Name, "POSTPONED"):
		return models.StatusPostponed
	case strings.Contains(st.Type.Name, "CANCELED"), strings.Contains(st.Type.Name, "CANCELLED"):
		return models.StatusCancelled
	case strings.Contains(st.Type.Name, "SUSPENDED"):
		return models.StatusSuspended
	}
	switch st.Type.State {
	case "pre":
		return models.StatusScheduled
	case "in":
		return models.StatusLive
	case "post":
		return models.StatusFinished
	}
	return models.StatusScheduled
}

func (p *ESPNProvider) toGameRecord(ev external.ESPN_Event, sport models.Sport) (models.GameRecord, bool) {
	if len(ev.Competitions) == 0 {
		return models.GameRecord{}, false
	}
	comp := ev.Competitions[0]

	var home, away *external.ESPN_Competitor
	for i := range comp.Competitors {
		switch comp.Competitors[i].HomeAway {
		case "home":
			home = &comp.Competitors[i]
		case "away":
			away = &comp.Competitors[i]
		}
	}
	if home == nil || away == nil {
		return models.GameRecord{}, false
	}

	gameDate, _ := time.Parse(time.RFC3339, ev.Date)
	if gameDate.IsZero() {
		// ESPN sometimes drops seconds from event dates.
		gameDate, _ = time.Parse("2006-01-02T15:04Z", ev.Date)
	}
	status := espnStatus(ev.Status)

	record := models.GameRecord{
		GameID:      ev.ID,
		Sport:       sport,
		HomeTeam:    home.Team.DisplayName,
		AwayTeam:    away.Team.DisplayName,
		GameDate:    gameDate,
		Status:      status,
		Venue:       comp.Venue.FullName,
		DataSources: []string{ESPNName},
		LastUpdated: time.Now(),
	}

	if status == models.StatusLive || status == models.StatusFinished {
		homeScore, errH := strconv.Atoi(home.Score)
		awayScore, errA := strconv.Atoi(away.Score)
		if errH == nil && errA == nil {
			record.Score = &models.ScoreData{
				HomeScore: homeScore,
				AwayScore: awayScore,
				Period:    fmt.Sprintf("%d", ev.Status.Period),
				Clock:     ev.Status.DisplayClock,
				Completed: ev.Status.Type.Completed,
			}
		}
	}
	return record, true
}
