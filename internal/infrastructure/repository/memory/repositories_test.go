package memory

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sixerhq/chain-contests/internal/domain/contest"
	"github.com/sixerhq/chain-contests/internal/domain/fantasypoints"
	"github.com/sixerhq/chain-contests/internal/domain/match"
	"github.com/sixerhq/chain-contests/internal/domain/storage"
)

func TestMatchRepository_InsertRejectsDuplicate(t *testing.T) {
	t.Parallel()

	repo := NewMatchRepository()
	m := match.Match{MatchID: "m1", Name: "India vs Australia", SeriesID: "s1"}

	require.NoError(t, repo.Insert(t.Context(), m))
	require.ErrorIs(t, repo.Insert(t.Context(), m), storage.ErrDuplicate)
}

func TestMatchRepository_ListFiltersAndSorts(t *testing.T) {
	t.Parallel()

	repo := NewMatchRepository()
	require.NoError(t, repo.Insert(t.Context(), match.Match{MatchID: "m2", SeriesID: "s1", StartTime: 200, Status: "upcoming"}))
	require.NoError(t, repo.Insert(t.Context(), match.Match{MatchID: "m1", SeriesID: "s1", StartTime: 100, Status: "live"}))
	require.NoError(t, repo.Insert(t.Context(), match.Match{MatchID: "m3", SeriesID: "s2", StartTime: 50, Status: "upcoming"}))

	got, err := repo.List(t.Context(), match.Filter{SeriesID: "s1"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "m1", got[0].MatchID)
	require.Equal(t, "m2", got[1].MatchID)

	got, err = repo.List(t.Context(), match.Filter{Status: "upcoming"})
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func TestContestRepository_DuplicateOnEitherKey(t *testing.T) {
	t.Parallel()

	repo := NewContestRepository()
	require.NoError(t, repo.Insert(t.Context(), contest.Contest{ContestID: "0xc1", MatchID: "m1"}))

	require.ErrorIs(t, repo.Insert(t.Context(), contest.Contest{ContestID: "0xc1", MatchID: "m2"}), storage.ErrDuplicate)
	require.ErrorIs(t, repo.Insert(t.Context(), contest.Contest{ContestID: "0xc2", MatchID: "m1"}), storage.ErrDuplicate)
}

func TestContestRepository_MarkEndedDropsFromUnsettled(t *testing.T) {
	t.Parallel()

	repo := NewContestRepository()
	require.NoError(t, repo.Insert(t.Context(), contest.Contest{ContestID: "0xc1", MatchID: "m1"}))
	require.NoError(t, repo.Insert(t.Context(), contest.Contest{ContestID: "0xc2", MatchID: "m2"}))

	require.NoError(t, repo.MarkEnded(t.Context(), "0xc1"))

	unsettled, err := repo.ListUnsettled(t.Context())
	require.NoError(t, err)
	require.Len(t, unsettled, 1)
	require.Equal(t, "0xc2", unsettled[0].ContestID)

	c, ok, err := repo.GetByContestID(t.Context(), "0xc1")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, c.MatchEnded)
}

func TestFantasyPointsRepository_UpsertBatchOverwrites(t *testing.T) {
	t.Parallel()

	repo := NewFantasyPointsRepository()
	require.NoError(t, repo.UpsertBatch(t.Context(), []fantasypoints.PlayerPoints{
		{MatchID: "m1", PlayerID: "p1", TotalPoints: 40},
		{MatchID: "m1", PlayerID: "p2", TotalPoints: 90},
	}))
	require.NoError(t, repo.UpsertBatch(t.Context(), []fantasypoints.PlayerPoints{
		{MatchID: "m1", PlayerID: "p1", TotalPoints: 55},
	}))

	got, err := repo.ListByMatch(t.Context(), "m1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "p2", got[0].PlayerID)
	require.Equal(t, int64(55), got[1].TotalPoints)
}
