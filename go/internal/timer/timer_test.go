package timer

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/hordle/horde/go/internal/challenge"
	"github.com/hordle/horde/go/internal/models"
)

func setupCountdown(t *testing.T, initial time.Duration, words ...string) (*Countdown, *challenge.MemoryRepository, uuid.UUID, *clockwork.FakeClock) {
	t.Helper()
	repo := challenge.NewMemoryRepository()
	ch, err := repo.CreateChallenge(context.Background(), challenge.CreateChallengeRequest{
		ID:          uuid.New(),
		Words:       words,
		InitialTime: initial,
	})
	require.NoError(t, err)

	// Align the fake clock with the stored last-tick timestamp.
	created, err := repo.GetChallenge(context.Background(), ch.ID)
	require.NoError(t, err)
	clock := clockwork.NewFakeClockAt(created.LastTick)

	return NewCountdown(repo, clock), repo, ch.ID, clock
}

func TestTickDecrementsByElapsed(t *testing.T) {
	ctx := context.Background()
	cd, _, id, clock := setupCountdown(t, 10*time.Minute, "sun")

	clock.Advance(3 * time.Minute)
	remaining, err := cd.Tick(ctx, id)
	require.NoError(t, err)
	require.Equal(t, 7*time.Minute, remaining)

	// A second tick with no elapsed time changes nothing.
	remaining, err = cd.Tick(ctx, id)
	require.NoError(t, err)
	require.Equal(t, 7*time.Minute, remaining)
}

func TestTickNeverNegative(t *testing.T) {
	ctx := context.Background()
	cd, _, id, clock := setupCountdown(t, time.Minute, "sun")

	clock.Advance(time.Hour)
	remaining, err := cd.Tick(ctx, id)
	require.NoError(t, err)
	require.Equal(t, time.Duration(0), remaining)
}

func TestTickTransitionsToLostIdempotently(t *testing.T) {
	ctx := context.Background()
	cd, repo, id, clock := setupCountdown(t, time.Minute, "sun")

	clock.Advance(2 * time.Minute)
	_, err := cd.Tick(ctx, id)
	require.NoError(t, err)

	got, err := repo.GetChallenge(ctx, id)
	require.NoError(t, err)
	require.Equal(t, models.ChallengeStatusLost, got.Status)

	// Detecting the loss again must not error and must stay LOST.
	clock.Advance(time.Minute)
	remaining, err := cd.Tick(ctx, id)
	require.NoError(t, err)
	require.Equal(t, time.Duration(0), remaining)

	got, err = repo.GetChallenge(ctx, id)
	require.NoError(t, err)
	require.Equal(t, models.ChallengeStatusLost, got.Status)
}

func TestTickFrozenOnceWon(t *testing.T) {
	ctx := context.Background()
	cd, repo, id, clock := setupCountdown(t, 10*time.Minute, "sun")

	_, err := repo.SetStatus(ctx, id, models.ChallengeStatusWon)
	require.NoError(t, err)

	clock.Advance(time.Hour)
	remaining, err := cd.Tick(ctx, id)
	require.NoError(t, err)
	require.Equal(t, 10*time.Minute, remaining)
}

func TestCreditAddsWithoutTick(t *testing.T) {
	ctx := context.Background()
	cd, _, id, clock := setupCountdown(t, 10*time.Minute, "sun")

	remaining, err := cd.Credit(ctx, id, 2*time.Minute)
	require.NoError(t, err)
	require.Equal(t, 12*time.Minute, remaining)

	// Credit must not move the last observation: the next tick still
	// accounts for all elapsed time since the previous tick.
	clock.Advance(4 * time.Minute)
	remaining, err = cd.Tick(ctx, id)
	require.NoError(t, err)
	require.Equal(t, 8*time.Minute, remaining)
}

func TestCreditRejectsNonPositiveDelta(t *testing.T) {
	ctx := context.Background()
	cd, _, id, _ := setupCountdown(t, time.Minute, "sun")

	_, err := cd.Credit(ctx, id, 0)
	require.Error(t, err)
	_, err = cd.Credit(ctx, id, -time.Second)
	require.Error(t, err)
}
