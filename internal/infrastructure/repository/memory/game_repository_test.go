package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GHILLIExSTEW/sportfeed/internal/domain/game"
)

func storedGame(id string, start time.Time, status game.Status) game.Game {
	return game.Game{
		ExternalID: id,
		Sport:      "basketball",
		LeagueID:   12,
		Season:     2025,
		StartTime:  start,
		Status:     status,
		FetchedAt:  time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestUpsertIsIdempotentAndPreservesFetchedAt(t *testing.T) {
	repo := NewGameRepository()
	ctx := context.Background()
	start := time.Date(2025, 6, 2, 19, 0, 0, 0, time.UTC)

	first := storedGame("g1", start, game.StatusScheduled)
	inserted, err := repo.Upsert(ctx, first)
	require.NoError(t, err)
	assert.True(t, inserted)

	second := first
	second.Status = game.StatusLive
	second.Score = &game.Score{Home: 10, Away: 8}
	second.FetchedAt = time.Date(2025, 6, 2, 20, 0, 0, 0, time.UTC)
	inserted, err = repo.Upsert(ctx, second)
	require.NoError(t, err)
	assert.False(t, inserted)

	got, err := repo.ListByExternalIDs(ctx, []string{"g1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, game.StatusLive, got[0].Status)
	assert.Equal(t, first.FetchedAt, got[0].FetchedAt, "first sighting time must survive updates")
	require.NotNil(t, got[0].Score)
	assert.Equal(t, 10, got[0].Score.Home)
}

func TestUpsertRejectsGameWithoutIdentity(t *testing.T) {
	repo := NewGameRepository()

	_, err := repo.Upsert(context.Background(), game.Game{Sport: "basketball"})
	require.Error(t, err)
	assert.Zero(t, repo.Len())
}

func TestPruneRemovesTerminalAndPastExceptExempt(t *testing.T) {
	repo := NewGameRepository()
	ctx := context.Background()
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

	for _, item := range []game.Game{
		storedGame("past", now.Add(-2*time.Hour), game.StatusScheduled),
		storedGame("finished", now.Add(time.Hour), game.StatusFinished),
		storedGame("wagered", now.Add(-2*time.Hour), game.StatusFinished),
		storedGame("upcoming", now.Add(time.Hour), game.StatusScheduled),
	} {
		_, err := repo.Upsert(ctx, item)
		require.NoError(t, err)
	}

	removed, err := repo.PrunePastAndFinished(ctx, now, map[string]struct{}{"wagered": {}})
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	remaining, err := repo.ListByExternalIDs(ctx, []string{"past", "finished", "wagered", "upcoming"})
	require.NoError(t, err)
	require.Len(t, remaining, 2)
	assert.Equal(t, "upcoming", remaining[0].ExternalID)
	assert.Equal(t, "wagered", remaining[1].ExternalID)
}

func TestClearAllEmptiesTheStore(t *testing.T) {
	repo := NewGameRepository()
	ctx := context.Background()

	_, err := repo.Upsert(ctx, storedGame("g1", time.Now().Add(time.Hour), game.StatusScheduled))
	require.NoError(t, err)

	require.NoError(t, repo.ClearAll(ctx))
	assert.Zero(t, repo.Len())
}

func TestListUpcomingSentinelFirstThenChronological(t *testing.T) {
	repo := NewGameRepository()
	ctx := context.Background()
	base := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	later := storedGame("later", base.Add(5*time.Hour), game.StatusScheduled)
	sooner := storedGame("sooner", base.Add(time.Hour), game.StatusScheduled)
	finished := storedGame("done", base.Add(2*time.Hour), game.StatusFinished)
	otherLeague := storedGame("other", base.Add(time.Hour), game.StatusScheduled)
	otherLeague.LeagueID = 99

	for _, item := range []game.Game{later, sooner, finished, otherLeague} {
		_, err := repo.Upsert(ctx, item)
		require.NoError(t, err)
	}

	got, err := repo.ListUpcoming(ctx, 12, 2025, []game.Status{game.StatusFinished})
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, game.ManualEntryID, got[0].ExternalID)
	assert.Equal(t, "sooner", got[1].ExternalID)
	assert.Equal(t, "later", got[2].ExternalID)
}
