package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/sixerhq/chain-contests/internal/platform/logging"
)

func testLogger() *logging.Logger {
	return logging.NewNop()
}

type stubFeed struct {
	mu sync.Mutex

	matchesBySeries map[string][]ExternalMatch
	listErr         map[string]error

	squads   map[string][]ExternalSquadTeam
	squadErr error

	points    map[string][]ExternalPlayerPoints
	pointsErr error

	info    map[string]ExternalMatchInfo
	infoErr error

	stats    map[string]ExternalPlayerStats
	statsErr error

	statsCalls int
	infoCalls  map[string]int
}

func newStubFeed() *stubFeed {
	return &stubFeed{
		matchesBySeries: make(map[string][]ExternalMatch),
		listErr:         make(map[string]error),
		squads:          make(map[string][]ExternalSquadTeam),
		points:          make(map[string][]ExternalPlayerPoints),
		info:            make(map[string]ExternalMatchInfo),
		stats:           make(map[string]ExternalPlayerStats),
		infoCalls:       make(map[string]int),
	}
}

func (f *stubFeed) ListMatches(_ context.Context, seriesID string) ([]ExternalMatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.listErr[seriesID]; err != nil {
		return nil, err
	}
	return f.matchesBySeries[seriesID], nil
}

func (f *stubFeed) GetSquad(_ context.Context, matchID string) ([]ExternalSquadTeam, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.squadErr != nil {
		return nil, f.squadErr
	}
	return f.squads[matchID], nil
}

func (f *stubFeed) GetFantasyPoints(_ context.Context, matchID string) ([]ExternalPlayerPoints, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pointsErr != nil {
		return nil, f.pointsErr
	}
	return f.points[matchID], nil
}

func (f *stubFeed) GetMatchInfo(_ context.Context, matchID string) (ExternalMatchInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.infoCalls[matchID]++
	if f.infoErr != nil {
		return ExternalMatchInfo{}, f.infoErr
	}
	return f.info[matchID], nil
}

func (f *stubFeed) GetPlayerStats(_ context.Context, playerID string) (ExternalPlayerStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statsCalls++
	if f.statsErr != nil {
		return ExternalPlayerStats{}, f.statsErr
	}
	stats, ok := f.stats[playerID]
	if !ok {
		return ExternalPlayerStats{}, fmt.Errorf("unknown player %s", playerID)
	}
	return stats, nil
}

// stubLedger counts every submitted transaction so tests can assert
// exactly-once behavior.
type stubLedger struct {
	mu sync.Mutex

	createCalls    int
	endMatchCalls  int
	rebalanceCalls int

	omitContestObject bool
	createErr         error
	endMatchErr       error

	// rebalanceFailures fails that many rebalance submissions before
	// letting one through.
	rebalanceFailures int

	// endMatchSticks controls whether a finalized endMatch flips the
	// on-chain flag. False models the verification-failure scenario.
	endMatchSticks bool

	contests    map[string]ChainContestState
	lastScores  []uint64
	scoreRounds [][]uint64
}

func newStubLedger() *stubLedger {
	return &stubLedger{
		endMatchSticks: true,
		contests:       make(map[string]ChainContestState),
	}
}

func (l *stubLedger) CreateContest(_ context.Context, matchName string, players []string, tiers []int, _ int64) (ChainTxResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.createCalls++
	if l.createErr != nil {
		return ChainTxResult{}, l.createErr
	}

	txID := fmt.Sprintf("tx-create-%d", l.createCalls)
	if l.omitContestObject {
		return ChainTxResult{TxID: txID}, nil
	}

	contestID := fmt.Sprintf("0xcontest-%d", l.createCalls)
	l.contests[contestID] = ChainContestState{ContestID: contestID}
	_ = matchName
	_ = players
	_ = tiers

	return ChainTxResult{
		TxID: txID,
		CreatedObjects: []ChainCreatedObject{
			{Type: "0xpkg::master::Contest", ObjectID: contestID},
		},
	}, nil
}

func (l *stubLedger) EndMatch(_ context.Context, contestID string) (ChainTxResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.endMatchCalls++
	if l.endMatchErr != nil {
		return ChainTxResult{}, l.endMatchErr
	}
	if l.endMatchSticks {
		state := l.contests[contestID]
		state.ContestID = contestID
		state.MatchEnded = true
		l.contests[contestID] = state
	}
	return ChainTxResult{TxID: fmt.Sprintf("tx-end-%d", l.endMatchCalls)}, nil
}

func (l *stubLedger) Rebalance(_ context.Context, contestID string, scores []uint64) (ChainTxResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.rebalanceCalls++
	l.lastScores = append([]uint64(nil), scores...)
	l.scoreRounds = append(l.scoreRounds, l.lastScores)
	if l.rebalanceFailures > 0 {
		l.rebalanceFailures--
		return ChainTxResult{}, fmt.Errorf("rebalance rejected")
	}
	_ = contestID
	return ChainTxResult{TxID: fmt.Sprintf("tx-rebalance-%d", l.rebalanceCalls)}, nil
}

func (l *stubLedger) GetContest(_ context.Context, contestID string) (ChainContestState, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	state, ok := l.contests[contestID]
	if !ok {
		return ChainContestState{}, fmt.Errorf("contest %s not found on ledger", contestID)
	}
	return state, nil
}

func (l *stubLedger) WaitForFinality(context.Context, string) error {
	return nil
}

func (l *stubLedger) setContestState(state ChainContestState) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.contests[state.ContestID] = state
}

func (l *stubLedger) counts() (creates, ends, rebalances int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.createCalls, l.endMatchCalls, l.rebalanceCalls
}
