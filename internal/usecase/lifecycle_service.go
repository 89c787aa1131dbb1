package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sixerhq/chain-contests/internal/domain/contest"
	"github.com/sixerhq/chain-contests/internal/domain/fantasypoints"
	"github.com/sixerhq/chain-contests/internal/domain/match"
	"github.com/sixerhq/chain-contests/internal/domain/storage"
	"github.com/sixerhq/chain-contests/internal/platform/logging"
)

// contestObjectTypeFragment identifies the contest object among a
// transaction's created objects.
const contestObjectTypeFragment = "::master::Contest"

type LifecycleService struct {
	feed        MatchFeed
	ledger      ChainLedger
	matchRepo   match.Repository
	contestRepo contest.Repository
	pointsRepo  fantasypoints.Repository
	logger      *logging.Logger
	now         func() time.Time

	mu        sync.Mutex
	submitted map[string]struct{}
}

func NewLifecycleService(
	feed MatchFeed,
	ledger ChainLedger,
	matchRepo match.Repository,
	contestRepo contest.Repository,
	pointsRepo fantasypoints.Repository,
	logger *logging.Logger,
) *LifecycleService {
	if logger == nil {
		logger = logging.Default()
	}
	return &LifecycleService{
		feed:        feed,
		ledger:      ledger,
		matchRepo:   matchRepo,
		contestRepo: contestRepo,
		pointsRepo:  pointsRepo,
		logger:      logger,
		now:         time.Now,
		submitted:   make(map[string]struct{}),
	}
}

// EnsureContest creates the on-chain contest for a match exactly once. The
// store check is the fast idempotency guard, the in-process submitted set
// blocks concurrent double submission, and the store's unique constraint is
// the backstop. Nothing is persisted unless the transaction finalized with
// a contest object in its effects.
func (s *LifecycleService) EnsureContest(ctx context.Context, m match.Match) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.LifecycleService.EnsureContest")
	defer span.End()

	if !match.ValidName(m.Name) {
		return fmt.Errorf("%w: match %s has no usable name", ErrInvalidInput, m.MatchID)
	}
	if len(m.Tiers) != len(m.Team1Players)+len(m.Team2Players) {
		return fmt.Errorf("%w: match %s tiers do not match roster size", ErrInvalidInput, m.MatchID)
	}

	if _, exists, err := s.contestRepo.GetByMatchID(ctx, m.MatchID); err != nil {
		return fmt.Errorf("contest store check match_id=%s: %w", m.MatchID, err)
	} else if exists {
		return nil
	}

	if !s.markSubmitted(m.MatchID) {
		return nil
	}
	succeeded := false
	defer func() {
		if !succeeded {
			s.clearSubmitted(m.MatchID)
		}
	}()

	txResult, err := s.ledger.CreateContest(ctx, m.Name, m.AllPlayers(), m.Tiers, m.StartTime)
	if err != nil {
		return fmt.Errorf("submit create contest match_id=%s: %w", m.MatchID, err)
	}
	if err := s.ledger.WaitForFinality(ctx, txResult.TxID); err != nil {
		return fmt.Errorf("create contest finality match_id=%s: %w", m.MatchID, err)
	}

	contestID, ok := txResult.FindCreatedObject(contestObjectTypeFragment)
	if !ok {
		return fmt.Errorf("create contest tx_id=%s match_id=%s finalized without a contest object", txResult.TxID, m.MatchID)
	}

	record := contest.Contest{
		ContestID:   contestID,
		MatchID:     m.MatchID,
		MatchName:   m.Name,
		PlayerNames: m.AllPlayers(),
		PlayerTiers: m.Tiers,
		StartTime:   m.StartTime,
		MatchEnded:  false,
		SeriesID:    m.SeriesID,
	}
	if err := s.contestRepo.Insert(ctx, record); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			// Another pass recorded its own contest first. Discard this
			// contest id rather than fighting over the row.
			s.logger.WarnContext(ctx, "contest already recorded, discarding local contest id",
				"match_id", m.MatchID, "discarded_contest_id", contestID)
			succeeded = true
			return nil
		}
		return fmt.Errorf("insert contest match_id=%s: %w", m.MatchID, err)
	}

	succeeded = true
	s.logger.InfoContext(ctx, "contest created",
		"match_id", m.MatchID, "contest_id", contestID, "tx_id", txResult.TxID)
	return nil
}

// CheckCompletions drives every unsettled contest toward settlement. One
// contest's failure never blocks another's.
func (s *LifecycleService) CheckCompletions(ctx context.Context) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.LifecycleService.CheckCompletions")
	defer span.End()

	contests, err := s.contestRepo.ListUnsettled(ctx)
	if err != nil {
		return fmt.Errorf("list unsettled contests: %w", err)
	}

	for _, c := range contests {
		if err := s.processCompletion(ctx, c); err != nil {
			s.logger.ErrorContext(ctx, "completion processing failed",
				"contest_id", c.ContestID, "match_id", c.MatchID, "error", err)
		}
	}
	return nil
}

func (s *LifecycleService) processCompletion(ctx context.Context, c contest.Contest) error {
	info, err := s.feed.GetMatchInfo(ctx, c.MatchID)
	if err != nil {
		return fmt.Errorf("fetch match info: %w", err)
	}
	if !matchHasEnded(info) {
		return nil
	}

	// Ledger truth first. If the contest is already ended on chain, a
	// redundant endMatch would only burn a transaction.
	state, err := s.ledger.GetContest(ctx, c.ContestID)
	if err != nil {
		return fmt.Errorf("read ledger contest state: %w", err)
	}

	if !state.MatchEnded {
		txResult, err := s.ledger.EndMatch(ctx, c.ContestID)
		if err != nil {
			return fmt.Errorf("submit end match: %w", err)
		}
		if err := s.ledger.WaitForFinality(ctx, txResult.TxID); err != nil {
			return fmt.Errorf("end match finality: %w", err)
		}

		verified, err := s.ledger.GetContest(ctx, c.ContestID)
		if err != nil {
			return fmt.Errorf("verify end match: %w", err)
		}
		if !verified.MatchEnded {
			s.logger.ErrorContext(ctx, "ledger reports match still live after finalized endMatch, refusing to rebalance",
				"contest_id", c.ContestID, "match_id", c.MatchID)
			return fmt.Errorf("%w: contest_id=%s endMatch finalized but matchEnded is still false", ErrVerificationFailed, c.ContestID)
		}
	}

	return s.settle(ctx, c)
}

func (s *LifecycleService) settle(ctx context.Context, c contest.Contest) error {
	points, err := s.feed.GetFantasyPoints(ctx, c.MatchID)
	if err != nil {
		// Zero-payout settlement beats indefinitely stuck funds.
		s.logger.WarnContext(ctx, "fantasy points unavailable, settling with zero scores",
			"contest_id", c.ContestID, "match_id", c.MatchID, "error", err)
		points = nil
	}

	scores := s.mapScores(ctx, c, points)

	if len(points) > 0 {
		rows := make([]fantasypoints.PlayerPoints, 0, len(points))
		for _, p := range points {
			rows = append(rows, fantasypoints.PlayerPoints{
				MatchID:        c.MatchID,
				PlayerID:       p.PlayerID,
				PlayerName:     p.Name,
				AltName:        p.AltName,
				BattingPoints:  p.BattingPoints,
				BowlingPoints:  p.BowlingPoints,
				CatchingPoints: p.CatchingPoints,
				TotalPoints:    p.TotalPoints,
				FetchedAt:      s.now(),
			})
		}
		if err := s.pointsRepo.UpsertBatch(ctx, rows); err != nil {
			s.logger.WarnContext(ctx, "fantasy points persist failed",
				"match_id", c.MatchID, "error", err)
		}
	}

	if err := s.rebalance(ctx, c.ContestID, scores); err != nil {
		return err
	}

	if err := s.contestRepo.MarkEnded(ctx, c.ContestID); err != nil {
		return fmt.Errorf("mark contest ended: %w", err)
	}
	if err := s.matchRepo.UpdateStatus(ctx, c.MatchID, match.StatusCompleted); err != nil {
		return fmt.Errorf("mark match completed: %w", err)
	}

	s.logger.InfoContext(ctx, "contest settled",
		"contest_id", c.ContestID, "match_id", c.MatchID, "players", len(scores))
	return nil
}

func (s *LifecycleService) rebalance(ctx context.Context, contestID string, scores []uint64) error {
	submitOnce := func() error {
		txResult, err := s.ledger.Rebalance(ctx, contestID, scores)
		if err != nil {
			return err
		}
		return s.ledger.WaitForFinality(ctx, txResult.TxID)
	}

	if err := submitOnce(); err != nil {
		s.logger.WarnContext(ctx, "rebalance failed, retrying once",
			"contest_id", contestID, "error", err)
		if err := submitOnce(); err != nil {
			return fmt.Errorf("rebalance contest_id=%s: %w", contestID, err)
		}
	}
	return nil
}

// mapScores resolves each contest player's score by direct name, then
// alternate name, then zero with a warning.
func (s *LifecycleService) mapScores(ctx context.Context, c contest.Contest, points []ExternalPlayerPoints) []uint64 {
	byName := make(map[string]int64, len(points))
	byAltName := make(map[string]int64, len(points))
	for _, p := range points {
		if name := normalizePlayerName(p.Name); name != "" {
			byName[name] = p.TotalPoints
		}
		if alt := normalizePlayerName(p.AltName); alt != "" {
			byAltName[alt] = p.TotalPoints
		}
	}

	scores := make([]uint64, len(c.PlayerNames))
	for i, name := range c.PlayerNames {
		key := normalizePlayerName(name)
		if total, ok := byName[key]; ok {
			scores[i] = clampScore(total)
			continue
		}
		if total, ok := byAltName[key]; ok {
			scores[i] = clampScore(total)
			continue
		}
		if len(points) > 0 {
			s.logger.WarnContext(ctx, "contest player has no fantasy score, using zero",
				"contest_id", c.ContestID, "player_name", name)
		}
	}
	return scores
}

// statusRefreshLookback bounds how far back RefreshStatuses polls the
// feed. Multi-day formats keep a match pollable for up to six days after
// its scheduled start.
const statusRefreshLookback = 6 * 24 * time.Hour

// RefreshStatuses re-derives the status of matches inside the active
// window from the feed. It only touches Match.status; settlement is
// driven elsewhere. A match already completed never regresses, and
// matches outside the window are never polled.
func (s *LifecycleService) RefreshStatuses(ctx context.Context) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.LifecycleService.RefreshStatuses")
	defer span.End()

	matches, err := s.matchRepo.List(ctx, match.Filter{})
	if err != nil {
		return fmt.Errorf("list matches: %w", err)
	}

	now := s.now()
	windowStart := now.Add(-statusRefreshLookback)
	windowEnd := todayStartUTC(now).Add(discoveryWindow)

	for _, m := range matches {
		if m.Status == match.StatusCompleted {
			continue
		}
		start := time.Unix(m.StartTime, 0)
		if start.Before(windowStart) || !start.Before(windowEnd) {
			continue
		}

		info, err := s.feed.GetMatchInfo(ctx, m.MatchID)
		if err != nil {
			s.logger.WarnContext(ctx, "status refresh fetch failed",
				"match_id", m.MatchID, "error", err)
			continue
		}

		status := deriveStatus(info)
		if status == m.Status {
			continue
		}
		if err := s.matchRepo.UpdateStatus(ctx, m.MatchID, status); err != nil {
			s.logger.WarnContext(ctx, "status update failed",
				"match_id", m.MatchID, "status", status, "error", err)
		}
	}
	return nil
}

func (s *LifecycleService) markSubmitted(matchID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.submitted[matchID]; ok {
		return false
	}
	s.submitted[matchID] = struct{}{}
	return true
}

func (s *LifecycleService) clearSubmitted(matchID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.submitted, matchID)
}

func matchHasEnded(info ExternalMatchInfo) bool {
	if info.MatchEnded {
		return true
	}
	status := strings.ToLower(info.Status)
	return strings.Contains(status, "won") || strings.Contains(status, "no result")
}

func deriveStatus(info ExternalMatchInfo) string {
	switch {
	case matchHasEnded(info):
		return match.StatusCompleted
	case info.MatchStarted:
		return match.StatusLive
	default:
		return match.StatusUpcoming
	}
}

func normalizePlayerName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

func clampScore(total int64) uint64 {
	if total < 0 {
		return 0
	}
	return uint64(total)
}
