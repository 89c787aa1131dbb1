package fantasypoints

import "time"

// PlayerPoints is one player's fantasy breakdown for one match. Rows are
// unique per (match_id, player_id) with upsert semantics so settlement
// retries never duplicate.
type PlayerPoints struct {
	MatchID        string
	PlayerID       string
	PlayerName     string
	AltName        string
	BattingPoints  int64
	BowlingPoints  int64
	CatchingPoints int64
	TotalPoints    int64
	FetchedAt      time.Time
}
