package memory

import (
	"context"
	"sync"

	"github.com/sixerhq/chain-contests/internal/domain/squad"
)

type SquadRepository struct {
	mu     sync.RWMutex
	squads map[string]squad.Squad
}

func NewSquadRepository() *SquadRepository {
	return &SquadRepository{squads: make(map[string]squad.Squad)}
}

func (r *SquadRepository) Upsert(_ context.Context, s squad.Squad) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.squads[s.MatchID] = s
	return nil
}

func (r *SquadRepository) GetByMatchID(_ context.Context, matchID string) (squad.Squad, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.squads[matchID]
	return s, ok, nil
}
