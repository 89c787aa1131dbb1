package postgres

import (
	"context"
	"fmt"

	sonic "github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"

	"github.com/sixerhq/chain-contests/internal/domain/player"
	qb "github.com/sixerhq/chain-contests/internal/platform/querybuilder"
)

type PlayerRepository struct {
	db *sqlx.DB
}

func NewPlayerRepository(db *sqlx.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

func (r *PlayerRepository) Upsert(ctx context.Context, p player.Player) error {
	stats, err := sonic.Marshal(p.Stats)
	if err != nil {
		return fmt.Errorf("encode player stats player_id=%s: %w", p.PlayerID, err)
	}

	query, args, err := qb.InsertInto("players").
		Columns("player_id", "name", "stats", "tier", "last_updated").
		Values(p.PlayerID, p.Name, stats, p.Tier, p.LastUpdated).
		Suffix("ON CONFLICT (player_id) DO UPDATE SET name = EXCLUDED.name, stats = EXCLUDED.stats, tier = EXCLUDED.tier, last_updated = EXCLUDED.last_updated").
		ToSQL()
	if err != nil {
		return fmt.Errorf("build upsert player query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert player: %w", err)
	}
	return nil
}

func (r *PlayerRepository) GetByPlayerID(ctx context.Context, playerID string) (player.Player, bool, error) {
	query, args, err := qb.Select(playerSelectColumns...).From("players").
		Where(qb.Eq("player_id", playerID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return player.Player{}, false, fmt.Errorf("build select player query: %w", err)
	}

	var row playerTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return player.Player{}, false, nil
		}
		return player.Player{}, false, fmt.Errorf("select player: %w", err)
	}

	out, err := row.toDomain()
	if err != nil {
		return player.Player{}, false, err
	}
	return out, true, nil
}
