package external

// Trimmed ESPN scoreboard shapes; only the fields the scores/stats adapter
// decodes. ESPN serves these without an API key.

type ESPN_Scoreboard struct {
	Day struct {
		Date string `json:"date"`
	} `json:"day"`
	Events []ESPN_Event `json:"events"`
}

type ESPN_Event struct {
	ID           string      `json:"id"`
	Date         string      `json:"date"`
	Name         string      `json:"name"`
	ShortName    string      `json:"shortName"`
	Competitions []ESPN_Comp `json:"competitions"`
	Status       ESPN_Status `json:"status"`
}

type ESPN_Status struct {
	Clock        float64 `json:"clock"`
	DisplayClock string  `json:"displayClock"`
	Period       int     `json:"period"`
	Type         struct {
		Name        string `json:"name"`
		State       string `json:"state"` // "pre", "in", "post"
		Completed   bool   `json:"completed"`
		Description string `json:"description"`
	} `json:"type"`
}

type ESPN_Comp struct {
	ID          string            `json:"id"`
	Venue       ESPN_Venue        `json:"venue"`
	Competitors []ESPN_Competitor `json:"competitors"`
	Status      ESPN_Status       `json:"status"`
}

type ESPN_Venue struct {
	FullName string `json:"fullName"`
	Address  struct {
		City  string `json:"city"`
		State string `json:"state"`
	} `json:"address"`
}

type ESPN_Competitor struct {
	ID       string    `json:"id"`
	HomeAway string    `json:"homeAway"`
	Team     ESPN_Team `json:"team"`
	Score    string    `json:"score"`
	Records  []struct {
		Name    string `json:"name"`
		Type    string `json:"type"`
		Summary string `json:"summary"` // "10-5"
	} `json:"records"`
	Statistics []struct {
		Name         string `json:"name"`
		DisplayValue string `json:"displayValue"`
	} `json:"statistics"`
}

type ESPN_Team struct {
	ID           string `json:"id"`
	Location     string `json:"location"`
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
	DisplayName  string `json:"displayName"`
}
