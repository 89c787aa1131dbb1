package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sixerhq/chain-contests/internal/domain/fantasypoints"
	qb "github.com/sixerhq/chain-contests/internal/platform/querybuilder"
)

type FantasyPointsRepository struct {
	db *sqlx.DB
}

func NewFantasyPointsRepository(db *sqlx.DB) *FantasyPointsRepository {
	return &FantasyPointsRepository{db: db}
}

func (r *FantasyPointsRepository) UpsertBatch(ctx context.Context, points []fantasypoints.PlayerPoints) error {
	if len(points) == 0 {
		return nil
	}

	builder := qb.InsertInto("fantasy_points").
		Columns("match_id", "player_id", "player_name", "alt_name", "batting_points", "bowling_points", "catching_points", "total_points", "fetched_at")
	for _, p := range points {
		builder = builder.Values(
			p.MatchID,
			p.PlayerID,
			p.PlayerName,
			p.AltName,
			p.BattingPoints,
			p.BowlingPoints,
			p.CatchingPoints,
			p.TotalPoints,
			p.FetchedAt,
		)
	}

	query, args, err := builder.
		Suffix("ON CONFLICT (match_id, player_id) DO UPDATE SET player_name = EXCLUDED.player_name, alt_name = EXCLUDED.alt_name, batting_points = EXCLUDED.batting_points, bowling_points = EXCLUDED.bowling_points, catching_points = EXCLUDED.catching_points, total_points = EXCLUDED.total_points, fetched_at = EXCLUDED.fetched_at").
		ToSQL()
	if err != nil {
		return fmt.Errorf("build upsert fantasy points query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert fantasy points: %w", err)
	}
	return nil
}

func (r *FantasyPointsRepository) ListByMatch(ctx context.Context, matchID string) ([]fantasypoints.PlayerPoints, error) {
	query, args, err := qb.Select(fantasyPointsSelectColumns...).From("fantasy_points").
		Where(qb.Eq("match_id", matchID)).
		OrderBy("total_points DESC", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select fantasy points query: %w", err)
	}

	var rows []fantasyPointsTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select fantasy points: %w", err)
	}

	out := make([]fantasypoints.PlayerPoints, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
