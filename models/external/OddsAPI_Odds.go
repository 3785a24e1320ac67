package external

// The Odds API v4 wire shapes. Events come back as a flat array; odds nest as
// bookmakers[].markets[].outcomes[] with markets keyed h2h/spreads/totals and
// American-odds prices.

type OddsAPI_Event struct {
	ID           string              `json:"id"`
	SportKey     string              `json:"sport_key"`
	SportTitle   string              `json:"sport_title"`
	CommenceTime string              `json:"commence_time"`
	HomeTeam     string              `json:"home_team"`
	AwayTeam     string              `json:"away_team"`
	Bookmakers   []OddsAPI_Bookmaker `json:"bookmakers"`
}

type OddsAPI_Bookmaker struct {
	Key        string           `json:"key"`
	Title      string           `json:"title"`
	LastUpdate string           `json:"last_update"`
	Markets    []OddsAPI_Market `json:"markets"`
}

type OddsAPI_Market struct {
	Key        string            `json:"key"` // "h2h", "spreads", "totals"
	LastUpdate string            `json:"last_update"`
	Outcomes   []OddsAPI_Outcome `json:"outcomes"`
}

type OddsAPI_Outcome struct {
	Name  string   `json:"name"`
	Price int      `json:"price"`
	Point *float64 `json:"point,omitempty"`
}

type OddsAPI_Sport struct {
	Key          string `json:"key"`
	Group        string `json:"group"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Active       bool   `json:"active"`
	HasOutrights bool   `json:"has_outrights"`
}
