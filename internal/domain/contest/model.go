package contest

// Contest mirrors a finalized on-chain contest object. PlayerTiers runs
// parallel to PlayerNames. MatchEnded flips false to true exactly once,
// after the payout rebalance has finalized.
type Contest struct {
	ContestID   string
	MatchID     string
	MatchName   string
	PlayerNames []string
	PlayerTiers []int
	StartTime   int64
	MatchEnded  bool
	SeriesID    string
}
