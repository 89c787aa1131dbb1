package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sixerhq/chain-contests/internal/domain/match"
	"github.com/sixerhq/chain-contests/internal/infrastructure/repository/memory"
)

type recordingCreator struct {
	mu      sync.Mutex
	matches []match.Match
	err     error
}

func (c *recordingCreator) EnsureContest(_ context.Context, m match.Match) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.matches = append(c.matches, m)
	return c.err
}

type discoveryFixture struct {
	service   *DiscoveryService
	feed      *stubFeed
	matchRepo *memory.MatchRepository
	squadRepo *memory.SquadRepository
	creator   *recordingCreator
	now       time.Time
}

func newDiscoveryFixture(t *testing.T, seriesIDs ...string) *discoveryFixture {
	t.Helper()

	feed := newStubFeed()
	matchRepo := memory.NewMatchRepository()
	squadRepo := memory.NewSquadRepository()
	playerRepo := memory.NewPlayerRepository()
	creator := &recordingCreator{}

	tiering := NewTieringService(playerRepo, feed, 7*24*time.Hour, testLogger())
	service := NewDiscoveryService(feed, matchRepo, squadRepo, tiering, creator, DiscoveryConfig{
		SeriesIDs:  seriesIDs,
		MaxWorkers: 2,
	}, testLogger())

	now := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return now }
	tiering.now = func() time.Time { return now }

	return &discoveryFixture{
		service:   service,
		feed:      feed,
		matchRepo: matchRepo,
		squadRepo: squadRepo,
		creator:   creator,
		now:       now,
	}
}

func squadOfEleven(team string) ExternalSquadTeam {
	players := make([]ExternalSquadPlayer, 0, 11)
	for i := range 11 {
		players = append(players, ExternalSquadPlayer{
			PlayerID: team + "-p" + string(rune('a'+i)),
			Name:     team + " Player " + string(rune('A'+i)),
		})
	}
	return ExternalSquadTeam{TeamName: team, Players: players}
}

func TestDiscoveryService_Discover_CreatesMatchWithFullRosters(t *testing.T) {
	f := newDiscoveryFixture(t, "s1")

	start := f.now.Add(20 * time.Hour)
	f.feed.matchesBySeries["s1"] = []ExternalMatch{
		{
			MatchID:   "m1",
			Name:      "India vs Australia",
			StartTime: start,
			SeriesID:  "s1",
		},
	}
	f.feed.squads["m1"] = []ExternalSquadTeam{squadOfEleven("India"), squadOfEleven("Australia")}

	result := f.service.Discover(t.Context(), "s1")
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.NewMatches) != 1 || result.NewMatches[0] != "m1" {
		t.Fatalf("expected new match m1, got %v", result.NewMatches)
	}

	m, exists, err := f.matchRepo.GetByMatchID(t.Context(), "m1")
	if err != nil || !exists {
		t.Fatalf("expected persisted match, exists=%v err=%v", exists, err)
	}
	if len(m.Team1Players) != 11 || len(m.Team2Players) != 11 {
		t.Fatalf("expected 11+11 players, got %d+%d", len(m.Team1Players), len(m.Team2Players))
	}
	if len(m.Tiers) != 22 {
		t.Fatalf("expected 22 tiers, got %d", len(m.Tiers))
	}
	if m.Status != match.StatusUpcoming {
		t.Fatalf("expected upcoming status, got %q", m.Status)
	}

	if _, exists, _ := f.squadRepo.GetByMatchID(t.Context(), "m1"); !exists {
		t.Fatal("expected squad snapshot persisted")
	}

	if len(f.creator.matches) != 1 || f.creator.matches[0].MatchID != "m1" {
		t.Fatalf("expected contest handoff for m1, got %v", f.creator.matches)
	}
}

func TestDiscoveryService_Discover_FiltersWindowAndStartedMatches(t *testing.T) {
	f := newDiscoveryFixture(t, "s1")

	f.feed.matchesBySeries["s1"] = []ExternalMatch{
		{MatchID: "m-past", Name: "A vs B", StartTime: f.now.Add(-30 * time.Hour)},
		{MatchID: "m-far", Name: "C vs D", StartTime: f.now.Add(80 * time.Hour)},
		{MatchID: "m-started", Name: "E vs F", StartTime: f.now.Add(2 * time.Hour), MatchStarted: true},
		{MatchID: "", Name: "G vs H", StartTime: f.now.Add(3 * time.Hour)},
		{MatchID: "m-noname", Name: "standalone fixture", StartTime: f.now.Add(3 * time.Hour)},
	}

	result := f.service.Discover(t.Context(), "s1")
	if len(result.NewMatches) != 0 {
		t.Fatalf("expected no matches, got %v", result.NewMatches)
	}
	if result.Skipped != 5 {
		t.Fatalf("expected 5 skipped, got %d", result.Skipped)
	}
	if len(f.creator.matches) != 0 {
		t.Fatal("no contest handoff expected")
	}
}

func TestDiscoveryService_Discover_ExistingMatchNotReinserted(t *testing.T) {
	f := newDiscoveryFixture(t, "s1")

	existing := match.Match{
		MatchID:      "m1",
		Name:         "India vs Australia",
		Team1Players: []string{"India"},
		Team2Players: []string{"Australia"},
		Tiers:        []int{3, 3},
		StartTime:    f.now.Add(10 * time.Hour).Unix(),
		Status:       match.StatusUpcoming,
		SeriesID:     "s1",
	}
	if err := f.matchRepo.Insert(t.Context(), existing); err != nil {
		t.Fatalf("seed match: %v", err)
	}

	f.feed.matchesBySeries["s1"] = []ExternalMatch{
		{MatchID: "m1", Name: "India vs Australia", StartTime: f.now.Add(10 * time.Hour), SeriesID: "s1"},
	}

	result := f.service.Discover(t.Context(), "s1")
	if len(result.NewMatches) != 0 {
		t.Fatalf("expected no new matches, got %v", result.NewMatches)
	}
	if result.Skipped != 1 {
		t.Fatalf("expected 1 skipped, got %d", result.Skipped)
	}

	// The stored match is still handed to the creation path, which is a
	// no-op once a contest record exists.
	if len(f.creator.matches) != 1 || f.creator.matches[0].MatchID != "m1" {
		t.Fatalf("expected one creation handoff for the stored match, got %+v", f.creator.matches)
	}
	if len(f.creator.matches[0].Tiers) != 2 {
		t.Fatal("handoff must use the stored match, not the feed candidate")
	}
}

func TestDiscoveryService_Discover_SquadFailureFallsBackToTeamNames(t *testing.T) {
	f := newDiscoveryFixture(t, "s1")

	f.feed.matchesBySeries["s1"] = []ExternalMatch{
		{MatchID: "m1", Name: "India vs Australia, 1st T20I", StartTime: f.now.Add(10 * time.Hour), SeriesID: "s1"},
	}
	f.feed.squadErr = errors.New("squad endpoint down")

	result := f.service.Discover(t.Context(), "s1")
	if len(result.NewMatches) != 1 {
		t.Fatalf("expected degraded discovery to succeed, got %v (errors %v)", result.NewMatches, result.Errors)
	}

	m, _, err := f.matchRepo.GetByMatchID(t.Context(), "m1")
	if err != nil {
		t.Fatalf("get match: %v", err)
	}
	if len(m.Team1Players) != 1 || m.Team1Players[0] != "India" {
		t.Fatalf("unexpected team1 roster %v", m.Team1Players)
	}
	if len(m.Team2Players) != 1 || m.Team2Players[0] != "Australia" {
		t.Fatalf("unexpected team2 roster %v", m.Team2Players)
	}
	for _, tier := range m.Tiers {
		if tier != TierBottom {
			t.Fatalf("fallback roster must be bottom tier, got %v", m.Tiers)
		}
	}

	if _, exists, _ := f.squadRepo.GetByMatchID(t.Context(), "m1"); exists {
		t.Fatal("no squad snapshot expected on fallback")
	}

	if len(f.creator.matches) != 1 {
		t.Fatal("contest creation must proceed with the degraded roster")
	}
}

func TestDiscoveryService_DiscoverAll_SeriesFailureIsIsolated(t *testing.T) {
	f := newDiscoveryFixture(t, "s-bad", "s-good")

	f.feed.listErr["s-bad"] = errors.New("feed 500")
	f.feed.matchesBySeries["s-good"] = []ExternalMatch{
		{MatchID: "m1", Name: "India vs Australia", StartTime: f.now.Add(10 * time.Hour), SeriesID: "s-good"},
	}
	f.feed.squads["m1"] = []ExternalSquadTeam{squadOfEleven("India"), squadOfEleven("Australia")}

	results, err := f.service.DiscoverAll(t.Context())
	if err != nil {
		t.Fatalf("discover all: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 series results, got %d", len(results))
	}

	if len(results[0].Errors) == 0 {
		t.Fatal("expected errors recorded for failing series")
	}
	if len(results[1].NewMatches) != 1 {
		t.Fatalf("expected healthy series to discover, got %v", results[1])
	}
}

func TestDiscoveryService_DiscoverAll_NoSeriesConfigured(t *testing.T) {
	f := newDiscoveryFixture(t)

	if _, err := f.service.DiscoverAll(t.Context()); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
