package player

import "time"

// FormatStats holds one format's career numbers as reported by the feed.
type FormatStats struct {
	Format     string  `json:"format"`
	Runs       float64 `json:"runs"`
	Average    float64 `json:"average"`
	StrikeRate float64 `json:"strikeRate"`
	Hundreds   int     `json:"hundreds"`
	Fifties    int     `json:"fifties"`
	Wickets    float64 `json:"wickets"`
	Economy    float64 `json:"economy"`
}

// Stats is the raw career snapshot a tier was computed from. It is stored
// alongside the tier so recomputation is auditable.
type Stats struct {
	Batting []FormatStats `json:"batting"`
	Bowling []FormatStats `json:"bowling"`
}

// Player is a cached tier assignment keyed by feed player id.
type Player struct {
	PlayerID    string
	Name        string
	Stats       Stats
	Tier        int
	LastUpdated time.Time
}

// FreshWithin reports whether the cached tier is still usable.
func (p Player) FreshWithin(window time.Duration, now time.Time) bool {
	if p.LastUpdated.IsZero() {
		return false
	}
	return now.Sub(p.LastUpdated) < window
}
