package fantasypoints

import "context"

// Repository describes fantasy point persistence needs from use cases.
type Repository interface {
	UpsertBatch(ctx context.Context, points []PlayerPoints) error
	ListByMatch(ctx context.Context, matchID string) ([]PlayerPoints, error)
}
