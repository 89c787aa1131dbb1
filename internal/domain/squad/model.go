package squad

import "time"

// SquadPlayer is one squad member as reported by the feed.
type SquadPlayer struct {
	PlayerID  string `json:"playerId"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	PlayerImg string `json:"playerImg"`
}

// Team is one side's roster.
type Team struct {
	TeamName  string        `json:"teamName"`
	ShortName string        `json:"shortname"`
	Players   []SquadPlayer `json:"players"`
}

// Squad is the roster snapshot captured at discovery time, keyed by match.
type Squad struct {
	MatchID   string
	Teams     []Team
	FetchedAt time.Time
}
