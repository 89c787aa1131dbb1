package postgres

import (
	"fmt"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/sixerhq/chain-contests/internal/domain/squad"
)

type squadTableModel struct {
	ID        int64     `db:"id"`
	MatchID   string    `db:"match_id"`
	Teams     []byte    `db:"teams"`
	FetchedAt time.Time `db:"fetched_at"`
}

var squadSelectColumns = []string{
	"id",
	"match_id",
	"teams",
	"fetched_at",
}

func (m squadTableModel) toDomain() (squad.Squad, error) {
	var teams []squad.Team
	if len(m.Teams) > 0 {
		if err := sonic.Unmarshal(m.Teams, &teams); err != nil {
			return squad.Squad{}, fmt.Errorf("decode squad teams match_id=%s: %w", m.MatchID, err)
		}
	}

	return squad.Squad{
		MatchID:   m.MatchID,
		Teams:     teams,
		FetchedAt: m.FetchedAt,
	}, nil
}
