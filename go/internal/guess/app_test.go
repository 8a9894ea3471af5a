package guess

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hordle/horde/go/internal/arbiter"
	"github.com/hordle/horde/go/internal/challenge"
	"github.com/hordle/horde/go/internal/leaderboard"
	"github.com/hordle/horde/go/internal/models"
	"github.com/hordle/horde/go/internal/snapshot"
	"github.com/hordle/horde/go/internal/timer"
)

const (
	testInitialTime = 10 * time.Minute
	testWaveBonus   = 2 * time.Minute
)

type capturePublisher struct {
	calls int
}

func (p *capturePublisher) PublishState(context.Context, uuid.UUID) {
	p.calls++
}

type fixture struct {
	app         *App
	challenges  *challenge.MemoryRepository
	history     *MemoryHistoryRepository
	publisher   *capturePublisher
	clock       *clockwork.FakeClock
	challengeID uuid.UUID
}

func newFixture(t *testing.T, words []string) *fixture {
	t.Helper()
	ctx := context.Background()

	repo := challenge.NewMemoryRepository()
	created, err := repo.CreateChallenge(ctx, challenge.CreateChallengeRequest{
		ID:          uuid.New(),
		Words:       words,
		InitialTime: testInitialTime,
	})
	require.NoError(t, err)

	clock := clockwork.NewFakeClockAt(created.LastTick)
	countdown := timer.NewCountdown(repo, clock)
	arb := arbiter.NewArbiter(repo, countdown, nil, clock, testWaveBonus)
	board := leaderboard.NewApp(leaderboard.NewMemoryRepository(), nil, clock)
	builder := snapshot.NewBuilder(repo, countdown, board, clock)
	history := NewMemoryHistoryRepository()
	publisher := &capturePublisher{}

	return &fixture{
		app:         NewApp(repo, history, board, arb, builder, publisher, clock),
		challenges:  repo,
		history:     history,
		publisher:   publisher,
		clock:       clock,
		challengeID: created.ID,
	}
}

func submit(f *fixture, participant string, wave int, guesses ...GuessInput) (*models.Snapshot, error) {
	return f.app.SubmitGuesses(context.Background(), SubmitGuessesRequest{
		ChallengeID:   f.challengeID,
		ParticipantID: participant,
		Wave:          wave,
		Guesses:       guesses,
	})
}

func TestSubmitGuessesRecordsHistoryAndCounters(t *testing.T) {
	f := newFixture(t, []string{"sun", "moon"})
	ctx := context.Background()

	snap, err := submit(f, "alice", 1,
		GuessInput{Word: "star", Rank: 12, Similarity: 0.71},
		GuessInput{Word: "sky", Rank: 40, Similarity: 0.55},
	)
	require.NoError(t, err)
	assert.Equal(t, int64(2), snap.TotalGuesses)
	assert.Equal(t, int64(1), snap.TotalPlayers)
	assert.Equal(t, 1, f.publisher.calls)

	state, err := f.app.GetUserState(ctx, f.challengeID, "alice")
	require.NoError(t, err)
	require.Len(t, state.Guesses, 2)
	assert.Equal(t, "star", state.Guesses[0].Word)
	require.NotNil(t, state.StartedAt)
	assert.Nil(t, state.GaveUpAt)

	// A second batch from the same participant must not count a new
	// player.
	snap, err = submit(f, "alice", 1, GuessInput{Word: "cloud", Rank: 80, Similarity: 0.4})
	require.NoError(t, err)
	assert.Equal(t, int64(3), snap.TotalGuesses)
	assert.Equal(t, int64(1), snap.TotalPlayers)

	snap, err = submit(f, "bob", 1, GuessInput{Word: "light", Rank: 25, Similarity: 0.6})
	require.NoError(t, err)
	assert.Equal(t, int64(2), snap.TotalPlayers)
}

func TestSubmitGuessesRejectsRepeatAcrossBatches(t *testing.T) {
	f := newFixture(t, []string{"sun"})

	_, err := submit(f, "alice", 1, GuessInput{Word: "star", Rank: 12, Similarity: 0.71})
	require.NoError(t, err)

	_, err = submit(f, "alice", 1, GuessInput{Word: "star", Rank: 12, Similarity: 0.71})
	require.ErrorIs(t, err, ErrDuplicateGuess)

	ch, err := f.challenges.GetChallenge(context.Background(), f.challengeID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), ch.TotalGuesses)
}

func TestSubmitGuessesCollapsesBatchDuplicates(t *testing.T) {
	f := newFixture(t, []string{"sun"})

	snap, err := submit(f, "alice", 1,
		GuessInput{Word: "star", Rank: 12, Similarity: 0.71},
		GuessInput{Word: "star", Rank: 12, Similarity: 0.71},
	)
	require.NoError(t, err)
	assert.Equal(t, int64(1), snap.TotalGuesses)
}

func TestPerfectGuessClearsWave(t *testing.T) {
	f := newFixture(t, []string{"sun", "moon"})

	snap, err := submit(f, "alice", 1, GuessInput{Word: "sun", Rank: 0, Similarity: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, snap.CurrentWave)
	assert.Equal(t, models.ChallengeStatusRunning, snap.Status)
	require.Len(t, snap.WaveClears, 1)
	assert.Equal(t, "alice", snap.WaveClears[0].Claimant)
	// Initial time plus the wave-clear bonus.
	assert.Equal(t, (testInitialTime + testWaveBonus).Milliseconds(), snap.TimeRemainingMs)
}

func TestStalePerfectGuessIsOrdinary(t *testing.T) {
	f := newFixture(t, []string{"sun", "moon"})

	_, err := submit(f, "alice", 1, GuessInput{Word: "sun", Rank: 0, Similarity: 1})
	require.NoError(t, err)

	// Bob guessed against wave 1 before seeing Alice's clear. His guess
	// lands in history but claims nothing.
	snap, err := submit(f, "bob", 1, GuessInput{Word: "sun", Rank: 0, Similarity: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, snap.CurrentWave)
	require.Len(t, snap.WaveClears, 1)
	assert.Equal(t, "alice", snap.WaveClears[0].Claimant)
	assert.Equal(t, int64(2), snap.TotalGuesses)

	state, err := f.app.GetUserState(context.Background(), f.challengeID, "bob")
	require.NoError(t, err)
	require.Len(t, state.Guesses, 1)
	assert.True(t, state.Guesses[0].Exact())
}

func TestHintedPerfectGuessDoesNotClaim(t *testing.T) {
	f := newFixture(t, []string{"sun"})

	snap, err := submit(f, "alice", 1, GuessInput{Word: "sun", Rank: 0, Similarity: 1, IsHint: true})
	require.NoError(t, err)
	assert.Equal(t, 1, snap.CurrentWave)
	assert.Empty(t, snap.WaveClears)
	assert.Equal(t, models.ChallengeStatusRunning, snap.Status)
	assert.Equal(t, int64(1), snap.TotalGuesses)
}

func TestFinalWaveClearWinsChallenge(t *testing.T) {
	f := newFixture(t, []string{"sun", "moon"})

	_, err := submit(f, "alice", 1, GuessInput{Word: "sun", Rank: 0, Similarity: 1})
	require.NoError(t, err)

	snap, err := submit(f, "bob", 2, GuessInput{Word: "moon", Rank: 0, Similarity: 1})
	require.NoError(t, err)
	assert.Equal(t, models.ChallengeStatusWon, snap.Status)
	require.Len(t, snap.WaveClears, 2)
	assert.Equal(t, "bob", snap.WaveClears[1].Claimant)
}

func TestGiveUpSetsTimestampOnce(t *testing.T) {
	f := newFixture(t, []string{"sun"})
	ctx := context.Background()

	require.NoError(t, f.app.GiveUp(ctx, f.challengeID, "alice"))
	state, err := f.app.GetUserState(ctx, f.challengeID, "alice")
	require.NoError(t, err)
	require.NotNil(t, state.GaveUpAt)
	first := *state.GaveUpAt

	f.clock.Advance(time.Minute)
	require.NoError(t, f.app.GiveUp(ctx, f.challengeID, "alice"))
	state, err = f.app.GetUserState(ctx, f.challengeID, "alice")
	require.NoError(t, err)
	assert.Equal(t, first, *state.GaveUpAt)
}

func TestSubmitGuessesRejectedOnceChallengeOver(t *testing.T) {
	f := newFixture(t, []string{"sun"})
	ctx := context.Background()

	_, err := f.challenges.SetStatus(ctx, f.challengeID, models.ChallengeStatusLost)
	require.NoError(t, err)

	_, err = submit(f, "alice", 1, GuessInput{Word: "star", Rank: 12, Similarity: 0.71})
	require.ErrorIs(t, err, ErrChallengeOver)

	// A finished challenge is read-only history.
	ch, err := f.challenges.GetChallenge(ctx, f.challengeID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), ch.TotalGuesses)
	assert.Equal(t, int64(0), ch.TotalPlayers)
	assert.Equal(t, 0, f.publisher.calls)

	state, err := f.app.GetUserState(ctx, f.challengeID, "alice")
	require.NoError(t, err)
	assert.Empty(t, state.Guesses)
	assert.Nil(t, state.StartedAt)
}

func TestSubmitGuessesRejectedAfterWin(t *testing.T) {
	f := newFixture(t, []string{"sun"})

	_, err := submit(f, "alice", 1, GuessInput{Word: "sun", Rank: 0, Similarity: 1})
	require.NoError(t, err)

	_, err = submit(f, "bob", 1, GuessInput{Word: "star", Rank: 12, Similarity: 0.71})
	require.ErrorIs(t, err, ErrChallengeOver)

	ch, err := f.challenges.GetChallenge(context.Background(), f.challengeID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), ch.TotalGuesses)
	assert.Equal(t, int64(1), ch.TotalPlayers)
}

func TestGiveUpRejectedOnceChallengeOver(t *testing.T) {
	f := newFixture(t, []string{"sun"})
	ctx := context.Background()

	_, err := f.challenges.SetStatus(ctx, f.challengeID, models.ChallengeStatusLost)
	require.NoError(t, err)

	err = f.app.GiveUp(ctx, f.challengeID, "alice")
	require.ErrorIs(t, err, ErrChallengeOver)

	state, err := f.app.GetUserState(ctx, f.challengeID, "alice")
	require.NoError(t, err)
	assert.Nil(t, state.GaveUpAt)
}

func TestGiveUpBeforeFirstGuessStillCountsPlayer(t *testing.T) {
	f := newFixture(t, []string{"sun"})
	ctx := context.Background()

	require.NoError(t, f.app.GiveUp(ctx, f.challengeID, "alice"))

	snap, err := submit(f, "alice", 1, GuessInput{Word: "star", Rank: 12, Similarity: 0.71})
	require.NoError(t, err)
	assert.Equal(t, int64(1), snap.TotalPlayers)

	state, err := f.app.GetUserState(ctx, f.challengeID, "alice")
	require.NoError(t, err)
	require.NotNil(t, state.StartedAt)
	require.NotNil(t, state.GaveUpAt)
}

func TestSubmitGuessesValidation(t *testing.T) {
	f := newFixture(t, []string{"sun"})

	_, err := submit(f, "", 1, GuessInput{Word: "star", Similarity: 0.5})
	assert.ErrorIs(t, err, ErrInvalidGuess)

	_, err = submit(f, "alice", 0, GuessInput{Word: "star", Similarity: 0.5})
	assert.ErrorIs(t, err, ErrInvalidGuess)

	_, err = submit(f, "alice", 1)
	assert.ErrorIs(t, err, ErrInvalidGuess)

	_, err = submit(f, "alice", 1, GuessInput{Word: "  ", Similarity: 0.5})
	assert.ErrorIs(t, err, ErrInvalidGuess)

	_, err = submit(f, "alice", 1, GuessInput{Word: "star", Similarity: 1.5})
	assert.ErrorIs(t, err, ErrInvalidGuess)

	// No side effects on the challenge after rejected batches.
	ch, err := f.challenges.GetChallenge(context.Background(), f.challengeID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), ch.TotalGuesses)
	assert.Equal(t, int64(0), ch.TotalPlayers)
	assert.Equal(t, 0, f.publisher.calls)
}

func TestSubmitGuessesUnknownChallenge(t *testing.T) {
	f := newFixture(t, []string{"sun"})

	_, err := f.app.SubmitGuesses(context.Background(), SubmitGuessesRequest{
		ChallengeID:   uuid.New(),
		ParticipantID: "alice",
		Wave:          1,
		Guesses:       []GuessInput{{Word: "star", Similarity: 0.5}},
	})
	assert.ErrorIs(t, err, challenge.ErrNotFound)
}
