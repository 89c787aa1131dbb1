package match

import "context"

type Filter struct {
	SeriesID string
	Status   string
}

// Repository describes match persistence needs from use cases. Insert must
// return storage.ErrDuplicate when match_id already exists.
type Repository interface {
	Insert(ctx context.Context, m Match) error
	GetByMatchID(ctx context.Context, matchID string) (Match, bool, error)
	List(ctx context.Context, filter Filter) ([]Match, error)
	UpdateStatus(ctx context.Context, matchID, status string) error
}
