package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sixerhq/chain-contests/internal/domain/contest"
	qb "github.com/sixerhq/chain-contests/internal/platform/querybuilder"
)

type ContestRepository struct {
	db *sqlx.DB
}

func NewContestRepository(db *sqlx.DB) *ContestRepository {
	return &ContestRepository{db: db}
}

func (r *ContestRepository) Insert(ctx context.Context, c contest.Contest) error {
	query, args, err := qb.InsertInto("contests").
		Columns("contest_id", "match_id", "match_name", "player_names", "player_tiers", "start_time", "match_ended", "series_id").
		Values(
			c.ContestID,
			c.MatchID,
			c.MatchName,
			pq.StringArray(c.PlayerNames),
			intsToInt64Array(c.PlayerTiers),
			c.StartTime,
			c.MatchEnded,
			c.SeriesID,
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build insert contest query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return mapInsertError("insert contest", err)
	}
	return nil
}

func (r *ContestRepository) GetByMatchID(ctx context.Context, matchID string) (contest.Contest, bool, error) {
	return r.getOne(ctx, qb.Eq("match_id", matchID))
}

func (r *ContestRepository) GetByContestID(ctx context.Context, contestID string) (contest.Contest, bool, error) {
	return r.getOne(ctx, qb.Eq("contest_id", contestID))
}

func (r *ContestRepository) getOne(ctx context.Context, condition qb.Condition) (contest.Contest, bool, error) {
	query, args, err := qb.Select(contestSelectColumns...).From("contests").
		Where(condition).
		Limit(1).
		ToSQL()
	if err != nil {
		return contest.Contest{}, false, fmt.Errorf("build select contest query: %w", err)
	}

	var row contestTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return contest.Contest{}, false, nil
		}
		return contest.Contest{}, false, fmt.Errorf("select contest: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *ContestRepository) List(ctx context.Context, filter contest.Filter) ([]contest.Contest, error) {
	builder := qb.Select(contestSelectColumns...).From("contests")
	if filter.SeriesID != "" {
		builder = builder.Where(qb.Eq("series_id", filter.SeriesID))
	}

	query, args, err := builder.OrderBy("start_time", "id").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select contests query: %w", err)
	}

	var rows []contestTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select contests: %w", err)
	}

	out := make([]contest.Contest, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *ContestRepository) ListUnsettled(ctx context.Context) ([]contest.Contest, error) {
	query, args, err := qb.Select(contestSelectColumns...).From("contests").
		Where(qb.Eq("match_ended", false)).
		OrderBy("start_time", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select unsettled contests query: %w", err)
	}

	var rows []contestTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select unsettled contests: %w", err)
	}

	out := make([]contest.Contest, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *ContestRepository) MarkEnded(ctx context.Context, contestID string) error {
	query, args, err := qb.Update("contests").
		Set("match_ended", true).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("contest_id", contestID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build mark contest ended query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark contest ended: %w", err)
	}
	return nil
}
