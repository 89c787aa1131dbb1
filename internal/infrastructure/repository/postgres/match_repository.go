package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sixerhq/chain-contests/internal/domain/match"
	qb "github.com/sixerhq/chain-contests/internal/platform/querybuilder"
)

type MatchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

func (r *MatchRepository) Insert(ctx context.Context, m match.Match) error {
	query, args, err := qb.InsertInto("matches").
		Columns("match_id", "name", "team1_players", "team2_players", "tiers", "start_time", "status", "series_id", "date_time_gmt").
		Values(
			m.MatchID,
			m.Name,
			pq.StringArray(m.Team1Players),
			pq.StringArray(m.Team2Players),
			intsToInt64Array(m.Tiers),
			m.StartTime,
			match.NormalizeStatus(m.Status),
			m.SeriesID,
			m.DateTimeGMT,
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build insert match query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return mapInsertError("insert match", err)
	}
	return nil
}

func (r *MatchRepository) GetByMatchID(ctx context.Context, matchID string) (match.Match, bool, error) {
	query, args, err := qb.Select(matchSelectColumns...).From("matches").
		Where(qb.Eq("match_id", matchID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build select match query: %w", err)
	}

	var row matchTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Match{}, false, nil
		}
		return match.Match{}, false, fmt.Errorf("select match: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *MatchRepository) List(ctx context.Context, filter match.Filter) ([]match.Match, error) {
	builder := qb.Select(matchSelectColumns...).From("matches")
	conditions := make([]qb.Condition, 0, 2)
	if filter.SeriesID != "" {
		conditions = append(conditions, qb.Eq("series_id", filter.SeriesID))
	}
	if filter.Status != "" {
		conditions = append(conditions, qb.Eq("status", match.NormalizeStatus(filter.Status)))
	}

	query, args, err := builder.Where(conditions...).OrderBy("start_time", "id").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select matches query: %w", err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select matches: %w", err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *MatchRepository) UpdateStatus(ctx context.Context, matchID, status string) error {
	query, args, err := qb.Update("matches").
		Set("status", match.NormalizeStatus(status)).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("match_id", matchID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update match status query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update match status: %w", err)
	}
	return nil
}
