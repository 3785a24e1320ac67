package providerService

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"oddsAggregator/config"
	"oddsAggregator/models"
	"oddsAggregator/models/external"
	"oddsAggregator/services/common"
)

const OddsAPIName = "theoddsapi"

// SportsLister is implemented by providers that can enumerate sports and
// season activity. The facade uses it for the available-sports listing and
// the health monitor treats it as the cheapest probe call.
type SportsLister interface {
	ListSports(ctx context.Context) ([]models.SportInfo, error)
}

// OddsAPIProvider adapts The Odds API: flat event arrays with
// bookmakers[].markets[].outcomes[] nesting and American-odds prices.
// It carries odds and schedules; it has no scores or team stats.
type OddsAPIProvider struct {
	BaseURL string

	apiKey string
	client *throttledClient
	logger *logrus.Logger
}

func NewOddsAPIProvider(apiKey string, cfg config.ProvidersConfig, logger *logrus.Logger) *OddsAPIProvider {
	return &OddsAPIProvider{
		BaseURL: "https://api.the-odds-api.com",
		apiKey:  apiKey,
		client:  newThrottledClient(cfg.HTTPTimeout, cfg.MinDelay[OddsAPIName], cfg.MaxRetries, logger),
		logger:  logger,
	}
}

func (p *OddsAPIProvider) Name() string { return OddsAPIName }

func (p *OddsAPIProvider) Available() bool { return p.apiKey != "" }

func (p *OddsAPIProvider) SupportedSports() []models.Sport {
	return []models.Sport{
		models.SportNFL, models.SportNBA, models.SportMLB,
		models.SportNHL, models.SportNCAAF, models.SportNCAAB,
	}
}

func (p *OddsAPIProvider) RateLimitRemaining() *int { return p.client.rateLimitRemaining() }

func (p *OddsAPIProvider) LiveGames(ctx context.Context, sport models.Sport, limit int) ([]models.GameRecord, error) {
	if !p.Available() {
		return nil, ErrUnavailable
	}

	requestUrl := fmt.Sprintf("%s/v4/sports/%s/odds?apiKey=%s&regions=us&markets=h2h,spreads,totals&oddsFormat=american",
		p.BaseURL, url.PathEscape(string(sport)), url.QueryEscape(p.apiKey))

	body, err := p.client.get(ctx, requestUrl, nil)
	if err != nil {
		return nil, err
	}

	var events []external.OddsAPI_Event
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	games := make([]models.GameRecord, 0, len(events))
	for _, ev := range events {
		if limit > 0 && len(games) >= limit {
			break
		}
		games = append(games, p.toGameRecord(ev, sport))
	}
	return games, nil
}

func (p *OddsAPIProvider) GameOdds(ctx context.Context, gameID string, sport models.Sport) ([]models.OddsQuote, error) {
	if !p.Available() {
		return nil, ErrUnavailable
	}

	requestUrl := fmt.Sprintf("%s/v4/sports/%s/events/%s/odds?apiKey=%s&regions=us&markets=h2h,spreads,totals&oddsFormat=american",
		p.BaseURL, url.PathEscape(string(sport)), url.PathEscape(gameID), url.QueryEscape(p.apiKey))

	body, err := p.client.get(ctx, requestUrl, nil)
	if err != nil {
		return nil, err
	}

	var event external.OddsAPI_Event
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	return quotesFromBookmakers(event.Bookmakers), nil
}

func (p *OddsAPIProvider) GameScore(ctx context.Context, gameID string, sport models.Sport) (*models.ScoreData, error) {
	return nil, ErrUnsupported
}

func (p *OddsAPIProvider) TeamStats(ctx context.Context, teamName string, sport models.Sport) (*models.TeamStats, error) {
	return nil, ErrUnsupported
}

// ListSports fetches the sports catalog, the cheapest call this provider has.
func (p *OddsAPIProvider) ListSports(ctx context.Context) ([]models.SportInfo, error) {
	if !p.Available() {
		return nil, ErrUnavailable
	}

	requestUrl := fmt.Sprintf("%s/v4/sports?apiKey=%s", p.BaseURL, url.QueryEscape(p.apiKey))
	body, err := p.client.get(ctx, requestUrl, nil)
	if err != nil {
		return nil, err
	}

	var sports []external.OddsAPI_Sport
	if err := json.Unmarshal(body, &sports); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	infos := make([]models.SportInfo, 0, len(sports))
	for _, s := range sports {
		season := "off_season"
		if s.Active {
			season = "in_season"
		}
		infos = append(infos, models.SportInfo{
			Key:          s.Key,
			Name:         s.Title,
			Active:       s.Active,
			SeasonStatus: season,
		})
	}
	return infos, nil
}

func (p *OddsAPIProvider) Probe(ctx context.Context) error {
	if !p.Available() {
		return ErrUnavailable
	}
	_, err := p.ListSports(ctx)
	return err
}

func (p *OddsAPIProvider) toGameRecord(ev external.OddsAPI_Event, sport models.Sport) models.GameRecord {
	commence, _ := time.Parse(time.RFC3339, ev.CommenceTime)

	// The Odds API carries no explicit status; anything past commence time is
	// treated as in progress until a scores provider corrects it.
	status := models.StatusScheduled
	if !commence.IsZero() && commence.Before(time.Now()) {
		status = models.StatusLive
	}

	record := models.GameRecord{
		GameID:      ev.ID,
		Sport:       sport,
		HomeTeam:    ev.HomeTeam,
		AwayTeam:    ev.AwayTeam,
		GameDate:    commence,
		Status:      status,
		Odds:        quotesFromBookmakers(ev.Bookmakers),
		DataSources: []string{OddsAPIName},
		LastUpdated: time.Now(),
	}
	return record
}

var marketBetTypes = map[string]models.BetType{
	"h2h":     models.BetMoneyline,
	"spreads": models.BetSpread,
	"totals":  models.BetTotal,
}

func quotesFromBookmakers(bookmakers []external.OddsAPI_Bookmaker) []models.OddsQuote {
	var quotes []models.OddsQuote
	for _, bk := range bookmakers {
		for _, market := range bk.Markets {
			betType, ok := marketBetTypes[market.Key]
			if !ok {
				continue
			}
			updated, _ := time.Parse(time.RFC3339, market.LastUpdate)
			if updated.IsZero() {
				updated, _ = time.Parse(time.RFC3339, bk.LastUpdate)
			}
			for _, outcome := range market.Outcomes {
				ratio, err := common.PayoutRatio(outcome.Price)
				if err != nil {
					continue
				}
				quotes = append(quotes, models.OddsQuote{
					Sportsbook:  bk.Title,
					BetType:     betType,
					Outcome:     outcome.Name,
					Price:       outcome.Price,
					Line:        outcome.Point,
					PayoutRatio: ratio,
					LastUpdated: updated,
				})
			}
		}
	}
	return quotes
}
