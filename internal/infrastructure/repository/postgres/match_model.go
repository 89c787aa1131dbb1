package postgres

import (
	"time"

	"github.com/lib/pq"

	"github.com/sixerhq/chain-contests/internal/domain/match"
)

type matchTableModel struct {
	ID           int64          `db:"id"`
	MatchID      string         `db:"match_id"`
	Name         string         `db:"name"`
	Team1Players pq.StringArray `db:"team1_players"`
	Team2Players pq.StringArray `db:"team2_players"`
	Tiers        pq.Int64Array  `db:"tiers"`
	StartTime    int64          `db:"start_time"`
	Status       string         `db:"status"`
	SeriesID     string         `db:"series_id"`
	DateTimeGMT  string         `db:"date_time_gmt"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

var matchSelectColumns = []string{
	"id",
	"match_id",
	"name",
	"team1_players",
	"team2_players",
	"tiers",
	"start_time",
	"status",
	"series_id",
	"date_time_gmt",
	"created_at",
	"updated_at",
}

func (m matchTableModel) toDomain() match.Match {
	return match.Match{
		MatchID:      m.MatchID,
		Name:         m.Name,
		Team1Players: []string(m.Team1Players),
		Team2Players: []string(m.Team2Players),
		Tiers:        int64ArrayToInts(m.Tiers),
		StartTime:    m.StartTime,
		Status:       m.Status,
		SeriesID:     m.SeriesID,
		DateTimeGMT:  m.DateTimeGMT,
	}
}
