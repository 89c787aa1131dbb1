package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/sixerhq/chain-contests/internal/domain/player"
	"github.com/sixerhq/chain-contests/internal/platform/logging"
)

const (
	TierTop    = 1
	TierMiddle = 2
	TierBottom = 3

	tierTopThreshold    = 2500.0
	tierMiddleThreshold = 1500.0

	defaultTierFreshnessWindow = 7 * 24 * time.Hour
)

// Format weights reflect how much recent-format volume says about current
// ability. T20 volume counts full, ODI and test progressively less.
var formatRunWeights = map[string]float64{
	"t20":  1.0,
	"odi":  0.7,
	"test": 0.5,
}

type TieringService struct {
	playerRepo player.Repository
	feed       MatchFeed
	freshness  time.Duration
	logger     *logging.Logger
	now        func() time.Time
}

func NewTieringService(playerRepo player.Repository, feed MatchFeed, freshness time.Duration, logger *logging.Logger) *TieringService {
	if logger == nil {
		logger = logging.Default()
	}
	if freshness <= 0 {
		freshness = defaultTierFreshnessWindow
	}
	return &TieringService{
		playerRepo: playerRepo,
		feed:       feed,
		freshness:  freshness,
		logger:     logger,
		now:        time.Now,
	}
}

// ComputeTier scores a raw stats snapshot. Deterministic and pure; missing
// stats score zero and land in the bottom tier.
func ComputeTier(stats player.Stats) (int, float64) {
	var score float64

	for _, row := range stats.Batting {
		weight, ok := formatRunWeights[normalizeFormat(row.Format)]
		if !ok {
			continue
		}
		score += row.Runs * weight
		if row.Average > 30 {
			score += 800
		}
		if row.StrikeRate > 120 {
			score += 700
		}
		score += float64(row.Hundreds) * 600
		score += float64(row.Fifties) * 150
	}

	for _, row := range stats.Bowling {
		if _, ok := formatRunWeights[normalizeFormat(row.Format)]; !ok {
			continue
		}
		score += row.Wickets * 30
		if row.Economy > 0 && row.Economy < 9 {
			score += 400
		}
	}

	switch {
	case score > tierTopThreshold:
		return TierTop, score
	case score >= tierMiddleThreshold:
		return TierMiddle, score
	default:
		return TierBottom, score
	}
}

// TierFor resolves a player's tier through the cache. A cached tier inside
// the freshness window is reused without touching the feed; anything else
// triggers a stats fetch and recompute. Fetch failures degrade to the
// bottom tier rather than failing the caller's pass.
func (s *TieringService) TierFor(ctx context.Context, playerID, name string) int {
	ctx, span := startUsecaseSpan(ctx, "usecase.TieringService.TierFor")
	defer span.End()

	if strings.TrimSpace(playerID) == "" {
		return TierBottom
	}

	cached, ok, err := s.playerRepo.GetByPlayerID(ctx, playerID)
	if err != nil {
		s.logger.WarnContext(ctx, "tier cache read failed, recomputing", "player_id", playerID, "error", err)
	}
	if ok && cached.FreshWithin(s.freshness, s.now()) {
		return cached.Tier
	}

	external, err := s.feed.GetPlayerStats(ctx, playerID)
	if err != nil {
		s.logger.WarnContext(ctx, "player stats fetch failed, defaulting to bottom tier",
			"player_id", playerID, "player_name", name, "error", err)
		return TierBottom
	}

	tier, score := ComputeTier(external.Stats)

	entry := player.Player{
		PlayerID:    playerID,
		Name:        firstNonEmpty(external.Name, name),
		Stats:       external.Stats,
		Tier:        tier,
		LastUpdated: s.now(),
	}
	if err := s.playerRepo.Upsert(ctx, entry); err != nil {
		s.logger.WarnContext(ctx, "tier cache write failed", "player_id", playerID, "error", err)
	}

	s.logger.DebugContext(ctx, "computed player tier",
		"player_id", playerID, "tier", tier, "score", score)
	return tier
}

func normalizeFormat(value string) string {
	format := strings.ToLower(strings.TrimSpace(value))
	switch format {
	case "t20i", "ipl":
		return "t20"
	case "odis":
		return "odi"
	case "tests", "first-class", "firstclass":
		return "test"
	default:
		return format
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
