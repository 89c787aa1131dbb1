package postgres

import (
	"time"

	"github.com/lib/pq"

	"github.com/sixerhq/chain-contests/internal/domain/contest"
)

type contestTableModel struct {
	ID          int64          `db:"id"`
	ContestID   string         `db:"contest_id"`
	MatchID     string         `db:"match_id"`
	MatchName   string         `db:"match_name"`
	PlayerNames pq.StringArray `db:"player_names"`
	PlayerTiers pq.Int64Array  `db:"player_tiers"`
	StartTime   int64          `db:"start_time"`
	MatchEnded  bool           `db:"match_ended"`
	SeriesID    string         `db:"series_id"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

var contestSelectColumns = []string{
	"id",
	"contest_id",
	"match_id",
	"match_name",
	"player_names",
	"player_tiers",
	"start_time",
	"match_ended",
	"series_id",
	"created_at",
	"updated_at",
}

func (m contestTableModel) toDomain() contest.Contest {
	return contest.Contest{
		ContestID:   m.ContestID,
		MatchID:     m.MatchID,
		MatchName:   m.MatchName,
		PlayerNames: []string(m.PlayerNames),
		PlayerTiers: int64ArrayToInts(m.PlayerTiers),
		StartTime:   m.StartTime,
		MatchEnded:  m.MatchEnded,
		SeriesID:    m.SeriesID,
	}
}
