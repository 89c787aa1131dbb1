package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sixerhq/chain-contests/internal/domain/match"
	"github.com/sixerhq/chain-contests/internal/domain/storage"
)

type MatchRepository struct {
	mu      sync.RWMutex
	matches map[string]match.Match
}

func NewMatchRepository() *MatchRepository {
	return &MatchRepository{matches: make(map[string]match.Match)}
}

func (r *MatchRepository) Insert(_ context.Context, m match.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.matches[m.MatchID]; ok {
		return fmt.Errorf("insert match: %w", storage.ErrDuplicate)
	}
	m.Status = match.NormalizeStatus(m.Status)
	r.matches[m.MatchID] = m
	return nil
}

func (r *MatchRepository) GetByMatchID(_ context.Context, matchID string) (match.Match, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.matches[matchID]
	return m, ok, nil
}

func (r *MatchRepository) List(_ context.Context, filter match.Filter) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]match.Match, 0, len(r.matches))
	for _, m := range r.matches {
		if filter.SeriesID != "" && m.SeriesID != filter.SeriesID {
			continue
		}
		if filter.Status != "" && m.Status != match.NormalizeStatus(filter.Status) {
			continue
		}
		out = append(out, m)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime != out[j].StartTime {
			return out[i].StartTime < out[j].StartTime
		}
		return out[i].MatchID < out[j].MatchID
	})
	return out, nil
}

func (r *MatchRepository) UpdateStatus(_ context.Context, matchID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.matches[matchID]
	if !ok {
		return nil
	}
	m.Status = match.NormalizeStatus(status)
	r.matches[matchID] = m
	return nil
}
