package models

import (
	"strings"
	"time"
)

type Sport string

const (
	SportNFL   Sport = "americanfootball_nfl"
	SportNBA   Sport = "basketball_nba"
	SportMLB   Sport = "baseball_mlb"
	SportNHL   Sport = "icehockey_nhl"
	SportNCAAF Sport = "americanfootball_ncaaf"
	SportNCAAB Sport = "basketball_ncaab"
)

type GameStatus string

const (
	StatusScheduled GameStatus = "SCHEDULED"
	StatusLive      GameStatus = "LIVE"
	StatusFinished  GameStatus = "FINISHED"
	StatusPostponed GameStatus = "POSTPONED"
	StatusCancelled GameStatus = "CANCELLED"
	StatusSuspended GameStatus = "SUSPENDED"
)

// statusRank orders the normal forward progression of a game. Postponement and
// cancellation are corrections and may be applied from any prior state.
var statusRank = map[GameStatus]int{
	StatusScheduled: 0,
	StatusLive:      1,
	StatusFinished:  2,
}

// CanTransition reports whether a status update is allowed: forward-only through
// the scheduled->live->finished chain, with postpone/cancel/suspend corrections.
func CanTransition(from, to GameStatus) bool {
	if from == to {
		return true
	}
	switch to {
	case StatusPostponed, StatusCancelled, StatusSuspended:
		return from != StatusFinished
	}
	if to == StatusLive && from == StatusSuspended {
		return true
	}
	fromRank, okFrom := statusRank[from]
	toRank, okTo := statusRank[to]
	if !okFrom || !okTo {
		return false
	}
	return toRank > fromRank
}

// SportInfo is the listing shape for available sports.
type SportInfo struct {
	Key          string `json:"key"`
	Name         string `json:"name"`
	Active       bool   `json:"active"`
	SeasonStatus string `json:"season_status"`
}

type ScoreData struct {
	HomeScore int    `json:"home_score"`
	AwayScore int    `json:"away_score"`
	Period    string `json:"period,omitempty"`
	Clock     string `json:"clock,omitempty"`
	Completed bool   `json:"completed"`
}

type TeamStats struct {
	TeamName      string  `json:"team_name"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	PointsFor     float64 `json:"points_for"`
	PointsAgainst float64 `json:"points_against"`
	Streak        string  `json:"streak,omitempty"`
}

type GameRecord struct {
	GameID          string                `json:"game_id"`
	Sport           Sport                 `json:"sport"`
	HomeTeam        string                `json:"home_team"`
	AwayTeam        string                `json:"away_team"`
	GameDate        time.Time             `json:"game_date"`
	Status          GameStatus            `json:"status"`
	Venue           string                `json:"venue,omitempty"`
	Score           *ScoreData            `json:"score,omitempty"`
	HomeStats       *TeamStats            `json:"home_stats,omitempty"`
	AwayStats       *TeamStats            `json:"away_stats,omitempty"`
	Odds            []OddsQuote           `json:"odds"`
	BestOdds        map[BetType]OddsQuote `json:"best_odds,omitempty"`
	DataSources     []string              `json:"data_sources"`
	ConfidenceScore float64               `json:"confidence_score"`
	LastUpdated     time.Time             `json:"last_updated"`
}

// MatchKey builds the cross-provider identity for a matchup. Provider-native
// game IDs are private to each source, so identity is resolved by normalized
// team-name pairing only.
func MatchKey(homeTeam, awayTeam string) string {
	return normalizeTeamName(homeTeam) + "|" + normalizeTeamName(awayTeam)
}

func normalizeTeamName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), " ")
}

// NormalizedTeamName exposes the key normalization for callers that match a
// single side (e.g. team stats lookups).
func NormalizedTeamName(s string) string {
	return normalizeTeamName(s)
}

// HasSource reports whether a provider already contributed to this record.
func (g *GameRecord) HasSource(name string) bool {
	for _, src := range g.DataSources {
		if src == name {
			return true
		}
	}
	return false
}

// AddSource appends a provider name to DataSources if not already present.
func (g *GameRecord) AddSource(name string) {
	if !g.HasSource(name) {
		g.DataSources = append(g.DataSources, name)
	}
}
