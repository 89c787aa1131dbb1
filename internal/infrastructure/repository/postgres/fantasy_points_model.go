package postgres

import (
	"time"

	"github.com/sixerhq/chain-contests/internal/domain/fantasypoints"
)

type fantasyPointsTableModel struct {
	ID             int64     `db:"id"`
	MatchID        string    `db:"match_id"`
	PlayerID       string    `db:"player_id"`
	PlayerName     string    `db:"player_name"`
	AltName        string    `db:"alt_name"`
	BattingPoints  int64     `db:"batting_points"`
	BowlingPoints  int64     `db:"bowling_points"`
	CatchingPoints int64     `db:"catching_points"`
	TotalPoints    int64     `db:"total_points"`
	FetchedAt      time.Time `db:"fetched_at"`
}

var fantasyPointsSelectColumns = []string{
	"id",
	"match_id",
	"player_id",
	"player_name",
	"alt_name",
	"batting_points",
	"bowling_points",
	"catching_points",
	"total_points",
	"fetched_at",
}

func (m fantasyPointsTableModel) toDomain() fantasypoints.PlayerPoints {
	return fantasypoints.PlayerPoints{
		MatchID:        m.MatchID,
		PlayerID:       m.PlayerID,
		PlayerName:     m.PlayerName,
		AltName:        m.AltName,
		BattingPoints:  m.BattingPoints,
		BowlingPoints:  m.BowlingPoints,
		CatchingPoints: m.CatchingPoints,
		TotalPoints:    m.TotalPoints,
		FetchedAt:      m.FetchedAt,
	}
}
