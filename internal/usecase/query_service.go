package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/sixerhq/chain-contests/internal/domain/contest"
	"github.com/sixerhq/chain-contests/internal/domain/match"
	"github.com/sixerhq/chain-contests/internal/domain/squad"
	"github.com/sixerhq/chain-contests/internal/platform/cache"
)

// QueryService serves read-only projections of the store. It never touches
// the feed or the ledger.
type QueryService struct {
	matchRepo   match.Repository
	contestRepo contest.Repository
	squadRepo   squad.Repository
	cache       *cache.Store
}

func NewQueryService(
	matchRepo match.Repository,
	contestRepo contest.Repository,
	squadRepo squad.Repository,
	readCache *cache.Store,
) *QueryService {
	return &QueryService{
		matchRepo:   matchRepo,
		contestRepo: contestRepo,
		squadRepo:   squadRepo,
		cache:       readCache,
	}
}

func (s *QueryService) GetMatches(ctx context.Context, seriesID, status string) ([]match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.QueryService.GetMatches")
	defer span.End()

	key := "matches:" + seriesID + ":" + status
	out, err := s.cached(ctx, key, func(ctx context.Context) (any, error) {
		items, err := s.matchRepo.List(ctx, match.Filter{SeriesID: seriesID, Status: status})
		if err != nil {
			return nil, fmt.Errorf("list matches: %w", err)
		}
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return out.([]match.Match), nil
}

func (s *QueryService) GetContests(ctx context.Context, seriesID string) ([]contest.Contest, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.QueryService.GetContests")
	defer span.End()

	key := "contests:" + seriesID
	out, err := s.cached(ctx, key, func(ctx context.Context) (any, error) {
		items, err := s.contestRepo.List(ctx, contest.Filter{SeriesID: seriesID})
		if err != nil {
			return nil, fmt.Errorf("list contests: %w", err)
		}
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return out.([]contest.Contest), nil
}

func (s *QueryService) GetContestDetails(ctx context.Context, contestID string) (contest.Contest, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.QueryService.GetContestDetails")
	defer span.End()

	contestID = strings.TrimSpace(contestID)
	if contestID == "" {
		return contest.Contest{}, fmt.Errorf("%w: contest id is required", ErrInvalidInput)
	}

	c, exists, err := s.contestRepo.GetByContestID(ctx, contestID)
	if err != nil {
		return contest.Contest{}, fmt.Errorf("get contest: %w", err)
	}
	if !exists {
		return contest.Contest{}, fmt.Errorf("%w: contest=%s", ErrNotFound, contestID)
	}
	return c, nil
}

// GetMatchData projects squad and tier data for display. Without a contest
// id it serves the most recently starting contest. When no squad snapshot
// exists, a two-entry team list is synthesized from the match name.
func (s *QueryService) GetMatchData(ctx context.Context, contestID string) ([]squad.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.QueryService.GetMatchData")
	defer span.End()

	c, err := s.resolveContest(ctx, contestID)
	if err != nil {
		return nil, err
	}

	snapshot, exists, err := s.squadRepo.GetByMatchID(ctx, c.MatchID)
	if err != nil {
		return nil, fmt.Errorf("get squad snapshot: %w", err)
	}
	if exists && len(snapshot.Teams) > 0 {
		return snapshot.Teams, nil
	}

	return synthesizeTeams(c), nil
}

func (s *QueryService) resolveContest(ctx context.Context, contestID string) (contest.Contest, error) {
	if strings.TrimSpace(contestID) != "" {
		return s.GetContestDetails(ctx, contestID)
	}

	contests, err := s.contestRepo.List(ctx, contest.Filter{})
	if err != nil {
		return contest.Contest{}, fmt.Errorf("list contests: %w", err)
	}
	if len(contests) == 0 {
		return contest.Contest{}, fmt.Errorf("%w: no contests available", ErrNotFound)
	}
	return contests[len(contests)-1], nil
}

func synthesizeTeams(c contest.Contest) []squad.Team {
	name1, name2, ok := match.TeamNames(c.MatchName)
	if !ok {
		return []squad.Team{}
	}

	return []squad.Team{
		{TeamName: name1, Players: []squad.SquadPlayer{{Name: name1}}},
		{TeamName: name2, Players: []squad.SquadPlayer{{Name: name2}}},
	}
}

func (s *QueryService) cached(ctx context.Context, key string, loader func(context.Context) (any, error)) (any, error) {
	if s.cache == nil {
		return loader(ctx)
	}
	return s.cache.GetOrLoad(ctx, key, loader)
}
