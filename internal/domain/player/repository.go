package player

import "context"

// Repository describes tier-cache persistence needs from use cases. Upsert
// replaces an existing row for the same player_id.
type Repository interface {
	Upsert(ctx context.Context, p Player) error
	GetByPlayerID(ctx context.Context, playerID string) (Player, bool, error)
}
