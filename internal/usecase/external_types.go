package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/sixerhq/chain-contests/internal/domain/player"
)

// ExternalMatch is one fixture row from the cricket feed's series listing.
type ExternalMatch struct {
	MatchID      string
	Name         string
	Status       string
	DateTimeGMT  string
	StartTime    time.Time
	MatchStarted bool
	MatchEnded   bool
	Teams        []string
	SeriesID     string
}

// ExternalSquadPlayer is one squad member from the feed.
type ExternalSquadPlayer struct {
	PlayerID  string
	Name      string
	Role      string
	PlayerImg string
}

// ExternalSquadTeam is one side's announced roster.
type ExternalSquadTeam struct {
	TeamName  string
	ShortName string
	Players   []ExternalSquadPlayer
}

// ExternalPlayerPoints is one player's fantasy breakdown for a match.
type ExternalPlayerPoints struct {
	PlayerID       string
	Name           string
	AltName        string
	BattingPoints  int64
	BowlingPoints  int64
	CatchingPoints int64
	TotalPoints    int64
}

// ExternalMatchInfo is the feed's detail view of a single match.
type ExternalMatchInfo struct {
	MatchID      string
	Status       string
	MatchStarted bool
	MatchEnded   bool
}

// ExternalPlayerStats is the raw career numbers for one player.
type ExternalPlayerStats struct {
	PlayerID string
	Name     string
	Stats    player.Stats
}

// MatchFeed is the cricket data feed as the use cases need it.
type MatchFeed interface {
	ListMatches(ctx context.Context, seriesID string) ([]ExternalMatch, error)
	GetSquad(ctx context.Context, matchID string) ([]ExternalSquadTeam, error)
	GetFantasyPoints(ctx context.Context, matchID string) ([]ExternalPlayerPoints, error)
	GetMatchInfo(ctx context.Context, matchID string) (ExternalMatchInfo, error)
	GetPlayerStats(ctx context.Context, playerID string) (ExternalPlayerStats, error)
}

// ChainCreatedObject is one object created by a finalized transaction.
type ChainCreatedObject struct {
	Type     string
	ObjectID string
}

// ChainTxResult is the outcome of a submitted ledger transaction.
type ChainTxResult struct {
	TxID           string
	CreatedObjects []ChainCreatedObject
}

// FindCreatedObject returns the id of the first created object whose type
// contains the given fragment.
func (r ChainTxResult) FindCreatedObject(typeFragment string) (string, bool) {
	for _, obj := range r.CreatedObjects {
		if strings.Contains(obj.Type, typeFragment) {
			return obj.ObjectID, true
		}
	}
	return "", false
}

// ChainContestState is the ledger's current view of a contest object.
type ChainContestState struct {
	ContestID   string
	MatchEnded  bool
	PoolBalance uint64
	NFTCounts   []uint64
	RedeemValue []uint64
}

// ChainLedger is the on-chain contest module as the use cases need it.
// Submissions return once accepted; WaitForFinality blocks until the
// transaction is final or the configured bound elapses.
type ChainLedger interface {
	CreateContest(ctx context.Context, matchName string, players []string, tiers []int, startTime int64) (ChainTxResult, error)
	EndMatch(ctx context.Context, contestID string) (ChainTxResult, error)
	Rebalance(ctx context.Context, contestID string, scores []uint64) (ChainTxResult, error)
	GetContest(ctx context.Context, contestID string) (ChainContestState, error)
	WaitForFinality(ctx context.Context, txID string) error
}
