package postgres

import (
	"fmt"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/sixerhq/chain-contests/internal/domain/player"
)

type playerTableModel struct {
	ID          int64     `db:"id"`
	PlayerID    string    `db:"player_id"`
	Name        string    `db:"name"`
	Stats       []byte    `db:"stats"`
	Tier        int       `db:"tier"`
	LastUpdated time.Time `db:"last_updated"`
}

var playerSelectColumns = []string{
	"id",
	"player_id",
	"name",
	"stats",
	"tier",
	"last_updated",
}

func (m playerTableModel) toDomain() (player.Player, error) {
	var stats player.Stats
	if len(m.Stats) > 0 {
		if err := sonic.Unmarshal(m.Stats, &stats); err != nil {
			return player.Player{}, fmt.Errorf("decode player stats player_id=%s: %w", m.PlayerID, err)
		}
	}

	return player.Player{
		PlayerID:    m.PlayerID,
		Name:        m.Name,
		Stats:       stats,
		Tier:        m.Tier,
		LastUpdated: m.LastUpdated,
	}, nil
}
