package external

// API-Sports wire shapes. Every payload arrives wrapped in a "response"
// envelope keyed by the sport-specific endpoint, with short status codes
// (NS, 1H, 2H, HT, FT, PST, CANC, SUSP).

type ApiSports_GamesEnvelope struct {
	Get        string            `json:"get"`
	Results    int               `json:"results"`
	Errors     any               `json:"errors"`
	Response   []ApiSports_Game  `json:"response"`
	Parameters map[string]string `json:"parameters"`
}

type ApiSports_Game struct {
	ID     int64  `json:"id"`
	Date   string `json:"date"`
	Status struct {
		Short string `json:"short"`
		Long  string `json:"long"`
		Timer string `json:"timer"`
	} `json:"status"`
	Teams struct {
		Home ApiSports_Team `json:"home"`
		Away ApiSports_Team `json:"away"`
	} `json:"teams"`
	Scores struct {
		Home ApiSports_Score `json:"home"`
		Away ApiSports_Score `json:"away"`
	} `json:"scores"`
	Venue struct {
		Name string `json:"name"`
		City string `json:"city"`
	} `json:"venue"`
}

type ApiSports_Team struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Logo string `json:"logo"`
}

type ApiSports_Score struct {
	Total *int `json:"total"`
}
