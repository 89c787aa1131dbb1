package match

import "strings"

const (
	StatusUpcoming  = "upcoming"
	StatusLive      = "live"
	StatusCompleted = "completed"
)

// Match is one discovered fixture from the cricket feed. Tiers runs parallel
// to Team1Players followed by Team2Players. After insert only Status and
// DateTimeGMT mutate.
type Match struct {
	MatchID      string
	Name         string
	Team1Players []string
	Team2Players []string
	Tiers        []int
	StartTime    int64
	Status       string
	SeriesID     string
	DateTimeGMT  string
}

// AllPlayers returns both rosters in tier order.
func (m Match) AllPlayers() []string {
	out := make([]string, 0, len(m.Team1Players)+len(m.Team2Players))
	out = append(out, m.Team1Players...)
	out = append(out, m.Team2Players...)
	return out
}

func NormalizeStatus(value string) string {
	status := strings.ToLower(strings.TrimSpace(value))
	switch status {
	case StatusUpcoming, StatusLive, StatusCompleted:
		return status
	default:
		return StatusUpcoming
	}
}

// ValidName requires the feed's "Team A vs Team B" shape so team names can
// be recovered from the match name later.
func ValidName(name string) bool {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return false
	}
	return strings.Contains(trimmed, " vs ")
}

// TeamNames splits a match name into its two team names. The second value
// reports whether the split succeeded.
func TeamNames(name string) (string, string, bool) {
	parts := strings.SplitN(name, " vs ", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	team1 := strings.TrimSpace(parts[0])
	team2 := strings.TrimSpace(parts[1])
	if idx := strings.Index(team2, ","); idx >= 0 {
		team2 = strings.TrimSpace(team2[:idx])
	}
	if team1 == "" || team2 == "" {
		return "", "", false
	}
	return team1, team2, true
}
