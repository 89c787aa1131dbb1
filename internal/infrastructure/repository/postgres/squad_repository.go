package postgres

import (
	"context"
	"fmt"

	sonic "github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"

	"github.com/sixerhq/chain-contests/internal/domain/squad"
	qb "github.com/sixerhq/chain-contests/internal/platform/querybuilder"
)

type SquadRepository struct {
	db *sqlx.DB
}

func NewSquadRepository(db *sqlx.DB) *SquadRepository {
	return &SquadRepository{db: db}
}

func (r *SquadRepository) Upsert(ctx context.Context, s squad.Squad) error {
	teams, err := sonic.Marshal(s.Teams)
	if err != nil {
		return fmt.Errorf("encode squad teams match_id=%s: %w", s.MatchID, err)
	}

	query, args, err := qb.InsertInto("match_squads").
		Columns("match_id", "teams", "fetched_at").
		Values(s.MatchID, teams, s.FetchedAt).
		Suffix("ON CONFLICT (match_id) DO UPDATE SET teams = EXCLUDED.teams, fetched_at = EXCLUDED.fetched_at").
		ToSQL()
	if err != nil {
		return fmt.Errorf("build upsert squad query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert squad: %w", err)
	}
	return nil
}

func (r *SquadRepository) GetByMatchID(ctx context.Context, matchID string) (squad.Squad, bool, error) {
	query, args, err := qb.Select(squadSelectColumns...).From("match_squads").
		Where(qb.Eq("match_id", matchID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return squad.Squad{}, false, fmt.Errorf("build select squad query: %w", err)
	}

	var row squadTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return squad.Squad{}, false, nil
		}
		return squad.Squad{}, false, fmt.Errorf("select squad: %w", err)
	}

	out, err := row.toDomain()
	if err != nil {
		return squad.Squad{}, false, err
	}
	return out, true, nil
}
