package squad

import "context"

// Repository describes squad snapshot persistence needs from use cases.
type Repository interface {
	Upsert(ctx context.Context, s Squad) error
	GetByMatchID(ctx context.Context, matchID string) (Squad, bool, error)
}
