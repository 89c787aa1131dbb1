package cricfeed

import (
	"strconv"
	"strings"
	"time"

	"github.com/sixerhq/chain-contests/internal/domain/player"
	"github.com/sixerhq/chain-contests/internal/usecase"
)

// statusEnvelope wraps every feed response. Anything other than "success"
// is surfaced as an error, never decoded further.
type statusEnvelope struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

type seriesInfoEnvelope struct {
	statusEnvelope
	Data struct {
		Info struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"info"`
		MatchList []matchItem `json:"matchList"`
	} `json:"data"`
}

type matchItem struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Status       string   `json:"status"`
	Date         string   `json:"date"`
	DateTimeGMT  string   `json:"dateTimeGMT"`
	Teams        []string `json:"teams"`
	SeriesID     string   `json:"series_id"`
	MatchStarted bool     `json:"matchStarted"`
	MatchEnded   bool     `json:"matchEnded"`
}

type squadEnvelope struct {
	statusEnvelope
	Data []squadTeamItem `json:"data"`
}

type squadTeamItem struct {
	TeamName  string `json:"teamName"`
	ShortName string `json:"shortname"`
	Players   []struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		Role      string `json:"role"`
		PlayerImg string `json:"playerImg"`
	} `json:"players"`
}

type fantasyEnvelope struct {
	statusEnvelope
	Data struct {
		Totals []fantasyPointsItem `json:"totals"`
	} `json:"data"`
}

type fantasyPointsItem struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	AltNames []string `json:"altnames"`
	Batting  int64    `json:"batting"`
	Bowling  int64    `json:"bowling"`
	Catching int64    `json:"catching"`
	Total    int64    `json:"total"`
}

type matchInfoEnvelope struct {
	statusEnvelope
	Data struct {
		ID           string `json:"id"`
		Status       string `json:"status"`
		MatchStarted bool   `json:"matchStarted"`
		MatchEnded   bool   `json:"matchEnded"`
	} `json:"data"`
}

type playerInfoEnvelope struct {
	statusEnvelope
	Data struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Stats []struct {
			Fn        string `json:"fn"`
			MatchType string `json:"matchtype"`
			Stat      string `json:"stat"`
			Value     string `json:"value"`
		} `json:"stats"`
	} `json:"data"`
}

func mapMatchItem(item matchItem, seriesID string) usecase.ExternalMatch {
	out := usecase.ExternalMatch{
		MatchID:      strings.TrimSpace(item.ID),
		Name:         strings.TrimSpace(item.Name),
		Status:       strings.TrimSpace(item.Status),
		DateTimeGMT:  strings.TrimSpace(item.DateTimeGMT),
		MatchStarted: item.MatchStarted,
		MatchEnded:   item.MatchEnded,
		Teams:        item.Teams,
		SeriesID:     strings.TrimSpace(item.SeriesID),
	}
	if out.SeriesID == "" {
		out.SeriesID = seriesID
	}
	out.StartTime = parseFeedTime(item.DateTimeGMT, item.Date)
	return out
}

// parseFeedTime reads the feed's GMT timestamp, falling back to the bare
// date when the full timestamp is absent.
func parseFeedTime(dateTimeGMT, date string) time.Time {
	for _, candidate := range []struct {
		layout string
		value  string
	}{
		{"2006-01-02T15:04:05", strings.TrimSpace(dateTimeGMT)},
		{time.RFC3339, strings.TrimSpace(dateTimeGMT)},
		{"2006-01-02", strings.TrimSpace(date)},
	} {
		if candidate.value == "" {
			continue
		}
		if parsed, err := time.ParseInLocation(candidate.layout, candidate.value, time.UTC); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

func mapSquadTeams(items []squadTeamItem) []usecase.ExternalSquadTeam {
	out := make([]usecase.ExternalSquadTeam, 0, len(items))
	for _, item := range items {
		team := usecase.ExternalSquadTeam{
			TeamName:  strings.TrimSpace(item.TeamName),
			ShortName: strings.TrimSpace(item.ShortName),
		}
		for _, p := range item.Players {
			name := strings.TrimSpace(p.Name)
			if name == "" {
				continue
			}
			team.Players = append(team.Players, usecase.ExternalSquadPlayer{
				PlayerID:  strings.TrimSpace(p.ID),
				Name:      name,
				Role:      strings.TrimSpace(p.Role),
				PlayerImg: strings.TrimSpace(p.PlayerImg),
			})
		}
		out = append(out, team)
	}
	return out
}

func mapFantasyPoints(items []fantasyPointsItem) []usecase.ExternalPlayerPoints {
	out := make([]usecase.ExternalPlayerPoints, 0, len(items))
	for _, item := range items {
		row := usecase.ExternalPlayerPoints{
			PlayerID:       strings.TrimSpace(item.ID),
			Name:           strings.TrimSpace(item.Name),
			BattingPoints:  item.Batting,
			BowlingPoints:  item.Bowling,
			CatchingPoints: item.Catching,
			TotalPoints:    item.Total,
		}
		if len(item.AltNames) > 0 {
			row.AltName = strings.TrimSpace(item.AltNames[0])
		}
		out = append(out, row)
	}
	return out
}

func mapPlayerStats(envelope playerInfoEnvelope) usecase.ExternalPlayerStats {
	battingByFormat := make(map[string]*player.FormatStats, 4)
	bowlingByFormat := make(map[string]*player.FormatStats, 4)

	formatRow := func(byFormat map[string]*player.FormatStats, format string) *player.FormatStats {
		row, ok := byFormat[format]
		if !ok {
			row = &player.FormatStats{Format: format}
			byFormat[format] = row
		}
		return row
	}

	for _, stat := range envelope.Data.Stats {
		format := strings.ToLower(strings.TrimSpace(stat.MatchType))
		if format == "" {
			continue
		}
		value := parseStatValue(stat.Value)
		key := strings.ToLower(strings.TrimSpace(stat.Stat))

		switch strings.ToLower(strings.TrimSpace(stat.Fn)) {
		case "batting":
			row := formatRow(battingByFormat, format)
			switch key {
			case "runs":
				row.Runs = value
			case "avg", "average":
				row.Average = value
			case "sr", "strike rate":
				row.StrikeRate = value
			case "100s", "100":
				row.Hundreds = int(value)
			case "50s", "50":
				row.Fifties = int(value)
			}
		case "bowling":
			row := formatRow(bowlingByFormat, format)
			switch key {
			case "wkts", "wickets":
				row.Wickets = value
			case "econ", "economy":
				row.Economy = value
			}
		}
	}

	stats := player.Stats{}
	for _, row := range battingByFormat {
		stats.Batting = append(stats.Batting, *row)
	}
	for _, row := range bowlingByFormat {
		stats.Bowling = append(stats.Bowling, *row)
	}

	return usecase.ExternalPlayerStats{
		PlayerID: strings.TrimSpace(envelope.Data.ID),
		Name:     strings.TrimSpace(envelope.Data.Name),
		Stats:    stats,
	}
}

// parseStatValue tolerates the feed's "-" and comma-grouped numbers.
func parseStatValue(raw string) float64 {
	value := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if value == "" || value == "-" {
		return 0
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return parsed
}
