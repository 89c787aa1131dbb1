package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sixerhq/chain-contests/internal/domain/contest"
	"github.com/sixerhq/chain-contests/internal/domain/storage"
)

type ContestRepository struct {
	mu        sync.RWMutex
	byContest map[string]contest.Contest
	byMatch   map[string]string
}

func NewContestRepository() *ContestRepository {
	return &ContestRepository{
		byContest: make(map[string]contest.Contest),
		byMatch:   make(map[string]string),
	}
}

func (r *ContestRepository) Insert(_ context.Context, c contest.Contest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byContest[c.ContestID]; ok {
		return fmt.Errorf("insert contest: %w", storage.ErrDuplicate)
	}
	if _, ok := r.byMatch[c.MatchID]; ok {
		return fmt.Errorf("insert contest: %w", storage.ErrDuplicate)
	}
	r.byContest[c.ContestID] = c
	r.byMatch[c.MatchID] = c.ContestID
	return nil
}

func (r *ContestRepository) GetByMatchID(_ context.Context, matchID string) (contest.Contest, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	contestID, ok := r.byMatch[matchID]
	if !ok {
		return contest.Contest{}, false, nil
	}
	c, ok := r.byContest[contestID]
	return c, ok, nil
}

func (r *ContestRepository) GetByContestID(_ context.Context, contestID string) (contest.Contest, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byContest[contestID]
	return c, ok, nil
}

func (r *ContestRepository) List(_ context.Context, filter contest.Filter) ([]contest.Contest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]contest.Contest, 0, len(r.byContest))
	for _, c := range r.byContest {
		if filter.SeriesID != "" && c.SeriesID != filter.SeriesID {
			continue
		}
		out = append(out, c)
	}
	sortContests(out)
	return out, nil
}

func (r *ContestRepository) ListUnsettled(_ context.Context) ([]contest.Contest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]contest.Contest, 0, len(r.byContest))
	for _, c := range r.byContest {
		if c.MatchEnded {
			continue
		}
		out = append(out, c)
	}
	sortContests(out)
	return out, nil
}

func (r *ContestRepository) MarkEnded(_ context.Context, contestID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byContest[contestID]
	if !ok {
		return nil
	}
	c.MatchEnded = true
	r.byContest[contestID] = c
	return nil
}

func sortContests(contests []contest.Contest) {
	sort.Slice(contests, func(i, j int) bool {
		if contests[i].StartTime != contests[j].StartTime {
			return contests[i].StartTime < contests[j].StartTime
		}
		return contests[i].ContestID < contests[j].ContestID
	})
}
