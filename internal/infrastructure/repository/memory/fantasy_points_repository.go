package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/sixerhq/chain-contests/internal/domain/fantasypoints"
)

type FantasyPointsRepository struct {
	mu     sync.RWMutex
	points map[string]map[string]fantasypoints.PlayerPoints
}

func NewFantasyPointsRepository() *FantasyPointsRepository {
	return &FantasyPointsRepository{points: make(map[string]map[string]fantasypoints.PlayerPoints)}
}

func (r *FantasyPointsRepository) UpsertBatch(_ context.Context, points []fantasypoints.PlayerPoints) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range points {
		if _, ok := r.points[p.MatchID]; !ok {
			r.points[p.MatchID] = make(map[string]fantasypoints.PlayerPoints)
		}
		r.points[p.MatchID][p.PlayerID] = p
	}
	return nil
}

func (r *FantasyPointsRepository) ListByMatch(_ context.Context, matchID string) ([]fantasypoints.PlayerPoints, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows := r.points[matchID]
	out := make([]fantasypoints.PlayerPoints, 0, len(rows))
	for _, p := range rows {
		out = append(out, p)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalPoints != out[j].TotalPoints {
			return out[i].TotalPoints > out[j].TotalPoints
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	return out, nil
}
