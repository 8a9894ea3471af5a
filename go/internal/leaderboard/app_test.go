package leaderboard

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/hordle/horde/go/internal/identity"
	"github.com/hordle/horde/go/internal/models"
)

type flakyDirectory struct {
	infos map[string]models.DisplayInfo
}

func (d *flakyDirectory) DisplayInfo(_ context.Context, participantID string) (models.DisplayInfo, error) {
	info, ok := d.infos[participantID]
	if !ok {
		return models.DisplayInfo{}, errors.New("lookup failed")
	}
	return info, nil
}

func newTestApp(dir identity.Directory) *App {
	return NewApp(NewMemoryRepository(), dir, clockwork.NewFakeClock())
}

func TestBestRankOnlyImproves(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(nil)
	id := uuid.New()

	require.NoError(t, app.RecordGuess(ctx, id, 1, "star", 40, "alice"))
	require.NoError(t, app.RecordGuess(ctx, id, 1, "star", 10, "bob"))
	require.NoError(t, app.RecordGuess(ctx, id, 1, "star", 99, "carol"))

	entries, err := app.TopByRank(ctx, id, 1, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, 10, entries[0].BestRank)
	// Attribution stays with the first guesser of the word.
	require.Equal(t, "alice", entries[0].Claimant)
}

func TestPerWaveAndOverallBoardsAreIndependent(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(nil)
	id := uuid.New()

	require.NoError(t, app.RecordGuess(ctx, id, 1, "star", 5, "alice"))
	require.NoError(t, app.RecordGuess(ctx, id, 2, "tree", 3, "bob"))

	wave1, err := app.TopByRank(ctx, id, 1, 10)
	require.NoError(t, err)
	require.Len(t, wave1, 1)
	require.Equal(t, "star", wave1[0].Word)

	wave2, err := app.TopByRank(ctx, id, 2, 10)
	require.NoError(t, err)
	require.Len(t, wave2, 1)
	require.Equal(t, "tree", wave2[0].Word)

	overall, err := app.TopByRank(ctx, id, OverallWave, 10)
	require.NoError(t, err)
	require.Len(t, overall, 2)
	require.Equal(t, "tree", overall[0].Word)
	require.Equal(t, "star", overall[1].Word)
}

func TestTopGuessersOrderedByCount(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(nil)
	id := uuid.New()

	for i := 0; i < 3; i++ {
		require.NoError(t, app.RecordGuess(ctx, id, 1, "w", 50, "alice"))
	}
	require.NoError(t, app.RecordGuess(ctx, id, 1, "x", 60, "bob"))

	guessers, err := app.TopGuessers(ctx, id, 10)
	require.NoError(t, err)
	require.Len(t, guessers, 2)
	require.Equal(t, "alice", guessers[0].ParticipantID)
	require.Equal(t, int64(3), guessers[0].GuessCount)
	require.Equal(t, "bob", guessers[1].ParticipantID)
}

func TestHydrationIsBestEffort(t *testing.T) {
	ctx := context.Background()
	dir := &flakyDirectory{infos: map[string]models.DisplayInfo{
		"alice": {Handle: "Alice", AvatarURL: "https://cdn/avatars/alice.png"},
	}}
	app := newTestApp(dir)
	id := uuid.New()

	require.NoError(t, app.RecordGuess(ctx, id, 1, "star", 5, "alice"))
	require.NoError(t, app.RecordGuess(ctx, id, 1, "tree", 7, "ghost"))

	entries, err := app.TopByRank(ctx, id, 1, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "Alice", entries[0].Handle)
	// The failed lookup leaves the entry without metadata, not an error.
	require.Empty(t, entries[1].Handle)
}

func TestRecordGuessRejectsNonPositiveWave(t *testing.T) {
	app := newTestApp(nil)
	err := app.RecordGuess(context.Background(), uuid.New(), 0, "star", 5, "alice")
	require.Error(t, err)
}
