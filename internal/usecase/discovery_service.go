package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/sixerhq/chain-contests/internal/domain/match"
	"github.com/sixerhq/chain-contests/internal/domain/squad"
	"github.com/sixerhq/chain-contests/internal/domain/storage"
	"github.com/sixerhq/chain-contests/internal/platform/logging"
)

const discoveryWindow = 48 * time.Hour

type DiscoveryResult struct {
	SeriesID   string   `json:"series_id"`
	NewMatches []string `json:"new_matches"`
	Skipped    int      `json:"skipped"`
	Errors     []string `json:"errors,omitempty"`
}

type DiscoveryConfig struct {
	SeriesIDs  []string
	MaxWorkers int
}

// contestCreator is the lifecycle controller's creation path as discovery
// needs it.
type contestCreator interface {
	EnsureContest(ctx context.Context, m match.Match) error
}

type DiscoveryService struct {
	feed       MatchFeed
	matchRepo  match.Repository
	squadRepo  squad.Repository
	tiering    *TieringService
	lifecycle  contestCreator
	cfg        DiscoveryConfig
	logger     *logging.Logger
	now        func() time.Time
}

func NewDiscoveryService(
	feed MatchFeed,
	matchRepo match.Repository,
	squadRepo squad.Repository,
	tiering *TieringService,
	lifecycle contestCreator,
	cfg DiscoveryConfig,
	logger *logging.Logger,
) *DiscoveryService {
	if logger == nil {
		logger = logging.Default()
	}
	return &DiscoveryService{
		feed:      feed,
		matchRepo: matchRepo,
		squadRepo: squadRepo,
		tiering:   tiering,
		lifecycle: lifecycle,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// DiscoverAll fans discovery out over every configured series. One series'
// failure never aborts the others; per-series results are returned in
// configuration order.
func (s *DiscoveryService) DiscoverAll(ctx context.Context) ([]DiscoveryResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DiscoveryService.DiscoverAll")
	defer span.End()

	seriesIDs := make([]string, 0, len(s.cfg.SeriesIDs))
	for _, id := range s.cfg.SeriesIDs {
		if strings.TrimSpace(id) != "" {
			seriesIDs = append(seriesIDs, strings.TrimSpace(id))
		}
	}
	if len(seriesIDs) == 0 {
		return nil, fmt.Errorf("%w: no series configured for discovery", ErrInvalidInput)
	}

	workerCount := s.cfg.MaxWorkers
	if workerCount <= 0 {
		workerCount = 2
	}
	if workerCount > len(seriesIDs) {
		workerCount = len(seriesIDs)
	}

	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return nil, fmt.Errorf("create discovery worker pool: %w", err)
	}
	defer pool.Release()

	results := make([]DiscoveryResult, len(seriesIDs))

	var workers sync.WaitGroup
	for i, seriesID := range seriesIDs {
		i, seriesID := i, seriesID
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()
			results[i] = s.Discover(ctx, seriesID)
		}); err != nil {
			workers.Done()
			return nil, fmt.Errorf("submit discovery task series_id=%s: %w", seriesID, err)
		}
	}
	workers.Wait()

	return results, nil
}

// Discover runs one series' discovery pass. Errors on individual matches
// are collected, not propagated.
func (s *DiscoveryService) Discover(ctx context.Context, seriesID string) DiscoveryResult {
	ctx, span := startUsecaseSpan(ctx, "usecase.DiscoveryService.Discover")
	defer span.End()

	result := DiscoveryResult{SeriesID: seriesID}

	external, err := s.feed.ListMatches(ctx, seriesID)
	if err != nil {
		s.logger.ErrorContext(ctx, "series match list fetch failed", "series_id", seriesID, "error", err)
		result.Errors = append(result.Errors, fmt.Sprintf("list matches: %v", err))
		return result
	}

	windowStart := todayStartUTC(s.now())
	windowEnd := windowStart.Add(discoveryWindow)

	for _, candidate := range external {
		ok, reason := s.eligible(candidate, windowStart, windowEnd)
		if !ok {
			if reason != "" {
				s.logger.DebugContext(ctx, "match skipped", "match_id", candidate.MatchID, "reason", reason)
			}
			result.Skipped++
			continue
		}

		if stored, exists, err := s.matchRepo.GetByMatchID(ctx, candidate.MatchID); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("match %s: store check: %v", candidate.MatchID, err))
			continue
		} else if exists {
			// Creation may have failed on an earlier pass. EnsureContest
			// no-ops when the contest record already exists.
			result.Skipped++
			if err := s.lifecycle.EnsureContest(ctx, stored); err != nil {
				s.logger.ErrorContext(ctx, "contest creation retry failed",
					"match_id", stored.MatchID, "error", err)
				result.Errors = append(result.Errors, fmt.Sprintf("match %s: ensure contest: %v", stored.MatchID, err))
			}
			continue
		}

		created, err := s.discoverOne(ctx, candidate)
		if err != nil {
			if errors.Is(err, storage.ErrDuplicate) {
				// Another pass won the insert race; already discovered.
				result.Skipped++
				continue
			}
			s.logger.ErrorContext(ctx, "match discovery failed",
				"series_id", seriesID, "match_id", candidate.MatchID, "error", err)
			result.Errors = append(result.Errors, fmt.Sprintf("match %s: %v", candidate.MatchID, err))
			continue
		}

		result.NewMatches = append(result.NewMatches, created.MatchID)

		if err := s.lifecycle.EnsureContest(ctx, created); err != nil {
			s.logger.ErrorContext(ctx, "contest creation handoff failed",
				"match_id", created.MatchID, "error", err)
			result.Errors = append(result.Errors, fmt.Sprintf("match %s: ensure contest: %v", created.MatchID, err))
		}
	}

	return result
}

func (s *DiscoveryService) eligible(candidate ExternalMatch, windowStart, windowEnd time.Time) (bool, string) {
	if candidate.MatchID == "" {
		return false, "missing match id"
	}
	if !match.ValidName(candidate.Name) {
		return false, "malformed match name"
	}
	if candidate.MatchStarted || candidate.MatchEnded {
		return false, ""
	}
	if candidate.StartTime.IsZero() {
		return false, "missing start time"
	}
	if candidate.StartTime.Before(windowStart) || !candidate.StartTime.Before(windowEnd) {
		return false, ""
	}
	return true, ""
}

func (s *DiscoveryService) discoverOne(ctx context.Context, candidate ExternalMatch) (match.Match, error) {
	team1, team2, squadSnapshot := s.resolveRosters(ctx, candidate)

	players := make([]string, 0, len(team1)+len(team2))
	tiers := make([]int, 0, len(team1)+len(team2))
	for _, p := range append(append([]rosterEntry(nil), team1...), team2...) {
		players = append(players, p.name)
		tiers = append(tiers, p.tier)
	}

	m := match.Match{
		MatchID:      candidate.MatchID,
		Name:         strings.TrimSpace(candidate.Name),
		Team1Players: rosterNames(team1),
		Team2Players: rosterNames(team2),
		Tiers:        tiers,
		StartTime:    candidate.StartTime.Unix(),
		Status:       match.StatusUpcoming,
		SeriesID:     candidate.SeriesID,
		DateTimeGMT:  candidate.DateTimeGMT,
	}

	if err := s.matchRepo.Insert(ctx, m); err != nil {
		return match.Match{}, err
	}

	if squadSnapshot != nil {
		snapshot := squad.Squad{
			MatchID:   m.MatchID,
			Teams:     squadSnapshot,
			FetchedAt: s.now(),
		}
		if err := s.squadRepo.Upsert(ctx, snapshot); err != nil {
			s.logger.WarnContext(ctx, "squad snapshot write failed", "match_id", m.MatchID, "error", err)
		}
	}

	s.logger.InfoContext(ctx, "discovered match",
		"match_id", m.MatchID, "name", m.Name, "players", len(players))
	return m, nil
}

type rosterEntry struct {
	name string
	tier int
}

// resolveRosters fetches squads and tiers each player through the cache.
// When squads are unavailable the roster degrades to one team-name entry
// per side at the bottom tier.
func (s *DiscoveryService) resolveRosters(ctx context.Context, candidate ExternalMatch) ([]rosterEntry, []rosterEntry, []squad.Team) {
	teams, err := s.feed.GetSquad(ctx, candidate.MatchID)
	if err != nil || len(teams) < 2 {
		if err != nil {
			s.logger.WarnContext(ctx, "squad fetch failed, using team-name fallback roster",
				"match_id", candidate.MatchID, "error", err)
		} else {
			s.logger.WarnContext(ctx, "squad incomplete, using team-name fallback roster",
				"match_id", candidate.MatchID, "teams", len(teams))
		}
		team1, team2 := s.fallbackRosters(candidate)
		return team1, team2, nil
	}

	team1 := s.rosterFromSquad(ctx, teams[0])
	team2 := s.rosterFromSquad(ctx, teams[1])
	if len(team1) == 0 || len(team2) == 0 {
		team1, team2 := s.fallbackRosters(candidate)
		return team1, team2, nil
	}

	snapshot := make([]squad.Team, 0, 2)
	for _, t := range teams[:2] {
		players := make([]squad.SquadPlayer, 0, len(t.Players))
		for _, p := range t.Players {
			players = append(players, squad.SquadPlayer{
				PlayerID:  p.PlayerID,
				Name:      p.Name,
				Role:      p.Role,
				PlayerImg: p.PlayerImg,
			})
		}
		snapshot = append(snapshot, squad.Team{
			TeamName:  t.TeamName,
			ShortName: t.ShortName,
			Players:   players,
		})
	}

	return team1, team2, snapshot
}

func (s *DiscoveryService) rosterFromSquad(ctx context.Context, team ExternalSquadTeam) []rosterEntry {
	out := make([]rosterEntry, 0, len(team.Players))
	for _, p := range team.Players {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			continue
		}
		out = append(out, rosterEntry{
			name: name,
			tier: s.tiering.TierFor(ctx, p.PlayerID, name),
		})
	}
	return out
}

func (s *DiscoveryService) fallbackRosters(candidate ExternalMatch) ([]rosterEntry, []rosterEntry) {
	name1, name2, ok := match.TeamNames(candidate.Name)
	if !ok && len(candidate.Teams) >= 2 {
		name1, name2 = candidate.Teams[0], candidate.Teams[1]
	}
	return []rosterEntry{{name: name1, tier: TierBottom}},
		[]rosterEntry{{name: name2, tier: TierBottom}}
}

func rosterNames(roster []rosterEntry) []string {
	out := make([]string, 0, len(roster))
	for _, p := range roster {
		out = append(out, p.name)
	}
	return out
}

func todayStartUTC(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
