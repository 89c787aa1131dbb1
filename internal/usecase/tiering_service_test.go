package usecase

import (
	"testing"
	"time"

	"github.com/sixerhq/chain-contests/internal/domain/player"
	"github.com/sixerhq/chain-contests/internal/infrastructure/repository/memory"
)

func TestComputeTier_TopTierBatter(t *testing.T) {
	stats := player.Stats{
		Batting: []player.FormatStats{
			{Format: "t20", Average: 40, StrikeRate: 130, Hundreds: 2},
		},
	}

	tier, score := ComputeTier(stats)
	if tier != TierTop {
		t.Fatalf("expected tier %d, got %d (score %v)", TierTop, tier, score)
	}
}

func TestComputeTier_NoStatsIsBottomTier(t *testing.T) {
	tier, score := ComputeTier(player.Stats{})
	if tier != TierBottom {
		t.Fatalf("expected tier %d, got %d", TierBottom, tier)
	}
	if score != 0 {
		t.Fatalf("expected zero score, got %v", score)
	}
}

func TestComputeTier_MiddleTier(t *testing.T) {
	stats := player.Stats{
		Batting: []player.FormatStats{
			{Format: "t20", Runs: 1600, Average: 25, StrikeRate: 110},
		},
	}

	tier, score := ComputeTier(stats)
	if tier != TierMiddle {
		t.Fatalf("expected tier %d, got %d (score %v)", TierMiddle, tier, score)
	}
}

func TestComputeTier_CrossFormatRunsAreWeighted(t *testing.T) {
	stats := player.Stats{
		Batting: []player.FormatStats{
			{Format: "t20", Runs: 1000},
			{Format: "odi", Runs: 1000},
			{Format: "test", Runs: 1000},
		},
	}

	_, score := ComputeTier(stats)
	if score != 1000+700+500 {
		t.Fatalf("expected weighted run score 2200, got %v", score)
	}
}

func TestComputeTier_BowlerScoring(t *testing.T) {
	stats := player.Stats{
		Bowling: []player.FormatStats{
			{Format: "t20", Wickets: 80, Economy: 7.2},
		},
	}

	tier, score := ComputeTier(stats)
	if score != 80*30+400 {
		t.Fatalf("expected score 2800, got %v", score)
	}
	if tier != TierTop {
		t.Fatalf("expected tier %d, got %d", TierTop, tier)
	}
}

func TestComputeTier_Deterministic(t *testing.T) {
	stats := player.Stats{
		Batting: []player.FormatStats{{Format: "t20", Runs: 900, Average: 33}},
		Bowling: []player.FormatStats{{Format: "odi", Wickets: 12}},
	}

	tier1, score1 := ComputeTier(stats)
	tier2, score2 := ComputeTier(stats)
	if tier1 != tier2 || score1 != score2 {
		t.Fatalf("expected deterministic result, got (%d, %v) then (%d, %v)", tier1, score1, tier2, score2)
	}
}

func TestTieringService_FreshCacheSkipsFeed(t *testing.T) {
	feed := newStubFeed()
	repo := memory.NewPlayerRepository()
	service := NewTieringService(repo, feed, 7*24*time.Hour, testLogger())

	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return now }

	cached := player.Player{
		PlayerID:    "p1",
		Name:        "Fresh Player",
		Tier:        TierTop,
		LastUpdated: now.Add(-24 * time.Hour),
	}
	if err := repo.Upsert(t.Context(), cached); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	tier := service.TierFor(t.Context(), "p1", "Fresh Player")
	if tier != TierTop {
		t.Fatalf("expected cached tier %d, got %d", TierTop, tier)
	}
	if feed.statsCalls != 0 {
		t.Fatalf("expected no feed calls for fresh cache, got %d", feed.statsCalls)
	}
}

func TestTieringService_StaleCacheRecomputes(t *testing.T) {
	feed := newStubFeed()
	feed.stats["p1"] = ExternalPlayerStats{
		PlayerID: "p1",
		Name:     "Stale Player",
		Stats: player.Stats{
			Batting: []player.FormatStats{{Format: "t20", Average: 40, StrikeRate: 130, Hundreds: 2}},
		},
	}

	repo := memory.NewPlayerRepository()
	service := NewTieringService(repo, feed, 7*24*time.Hour, testLogger())

	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return now }

	stale := player.Player{
		PlayerID:    "p1",
		Name:        "Stale Player",
		Tier:        TierBottom,
		LastUpdated: now.Add(-8 * 24 * time.Hour),
	}
	if err := repo.Upsert(t.Context(), stale); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	tier := service.TierFor(t.Context(), "p1", "Stale Player")
	if tier != TierTop {
		t.Fatalf("expected recomputed tier %d, got %d", TierTop, tier)
	}
	if feed.statsCalls != 1 {
		t.Fatalf("expected 1 feed call, got %d", feed.statsCalls)
	}

	refreshed, ok, err := repo.GetByPlayerID(t.Context(), "p1")
	if err != nil || !ok {
		t.Fatalf("expected refreshed cache entry, ok=%v err=%v", ok, err)
	}
	if !refreshed.LastUpdated.Equal(now) {
		t.Fatalf("expected last_updated %v, got %v", now, refreshed.LastUpdated)
	}
}

func TestTieringService_FeedFailureDefaultsToBottomTier(t *testing.T) {
	feed := newStubFeed()
	repo := memory.NewPlayerRepository()
	service := NewTieringService(repo, feed, 7*24*time.Hour, testLogger())

	tier := service.TierFor(t.Context(), "unknown", "Mystery Player")
	if tier != TierBottom {
		t.Fatalf("expected tier %d on fetch failure, got %d", TierBottom, tier)
	}
}
