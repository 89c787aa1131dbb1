package contest

import "context"

type Filter struct {
	SeriesID string
}

// Repository describes contest persistence needs from use cases. Insert must
// return storage.ErrDuplicate when either contest_id or match_id already
// exists; one match maps to at most one contest.
type Repository interface {
	Insert(ctx context.Context, c Contest) error
	GetByMatchID(ctx context.Context, matchID string) (Contest, bool, error)
	GetByContestID(ctx context.Context, contestID string) (Contest, bool, error)
	List(ctx context.Context, filter Filter) ([]Contest, error)
	ListUnsettled(ctx context.Context) ([]Contest, error)
	MarkEnded(ctx context.Context, contestID string) error
}
