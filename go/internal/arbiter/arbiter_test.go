package arbiter

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/hordle/horde/go/internal/challenge"
	"github.com/hordle/horde/go/internal/models"
	"github.com/hordle/horde/go/internal/timer"
)

const waveBonus = 2 * time.Minute

func setupArbiter(t *testing.T, words ...string) (*Arbiter, *challenge.MemoryRepository, uuid.UUID) {
	t.Helper()
	repo := challenge.NewMemoryRepository()
	ch, err := repo.CreateChallenge(context.Background(), challenge.CreateChallengeRequest{
		ID:          uuid.New(),
		Words:       words,
		InitialTime: 10 * time.Minute,
	})
	require.NoError(t, err)

	clock := clockwork.NewFakeClock()
	cd := timer.NewCountdown(repo, clock)
	return NewArbiter(repo, cd, nil, clock, waveBonus), repo, ch.ID
}

func TestFirstClaimWinsAndAdvances(t *testing.T) {
	ctx := context.Background()
	arb, repo, id := setupArbiter(t, "sun", "moon")

	claimed, err := arb.AttemptClaim(ctx, id, 1, "alice", "sun")
	require.NoError(t, err)
	require.True(t, claimed)

	ch, err := repo.GetChallenge(ctx, id)
	require.NoError(t, err)
	require.Equal(t, 2, ch.CurrentWave)
	require.Equal(t, "alice", ch.Winners[0])
	require.Len(t, ch.WaveClears, 1)
	require.Equal(t, models.WaveClear{
		Wave:      1,
		Claimant:  "alice",
		Word:      "sun",
		ClearedAt: ch.WaveClears[0].ClearedAt,
	}, ch.WaveClears[0])
	require.Equal(t, 12*time.Minute, ch.TimeRemaining)
	require.Equal(t, models.ChallengeStatusRunning, ch.Status)
}

func TestLateClaimForClearedWaveIsOrdinary(t *testing.T) {
	ctx := context.Background()
	arb, repo, id := setupArbiter(t, "sun", "moon")

	claimed, err := arb.AttemptClaim(ctx, id, 1, "alice", "sun")
	require.NoError(t, err)
	require.True(t, claimed)

	// B also submits "sun" against wave 1 after A already cleared it.
	claimed, err = arb.AttemptClaim(ctx, id, 1, "bob", "sun")
	require.NoError(t, err)
	require.False(t, claimed)

	ch, err := repo.GetChallenge(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "alice", ch.Winners[0])
	require.Len(t, ch.WaveClears, 1)
	require.Equal(t, 2, ch.CurrentWave)
	require.Equal(t, 12*time.Minute, ch.TimeRemaining)
}

func TestConcurrentPerfectGuessesSingleWinner(t *testing.T) {
	ctx := context.Background()
	arb, repo, id := setupArbiter(t, "sun")

	const callers = 50
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners []string
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			claimant := fmt.Sprintf("user-%d", n)
			claimed, err := arb.AttemptClaim(ctx, id, 1, claimant, "sun")
			if err != nil {
				t.Errorf("claim attempt failed: %v", err)
				return
			}
			if claimed {
				mu.Lock()
				winners = append(winners, claimant)
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	require.Len(t, winners, 1, "exactly one concurrent claimant may win the wave")

	ch, err := repo.GetChallenge(ctx, id)
	require.NoError(t, err)
	require.Len(t, ch.WaveClears, 1)
	require.Equal(t, winners[0], ch.Winners[0])
	require.Equal(t, 2, ch.CurrentWave)
	// Only the single winner credited the bonus.
	require.Equal(t, 12*time.Minute, ch.TimeRemaining)
}

func TestFinalWaveClearWinsChallenge(t *testing.T) {
	ctx := context.Background()
	arb, repo, id := setupArbiter(t, "sun", "moon")

	claimed, err := arb.AttemptClaim(ctx, id, 1, "alice", "sun")
	require.NoError(t, err)
	require.True(t, claimed)

	claimed, err = arb.AttemptClaim(ctx, id, 2, "bob", "moon")
	require.NoError(t, err)
	require.True(t, claimed)

	ch, err := repo.GetChallenge(ctx, id)
	require.NoError(t, err)
	require.Equal(t, models.ChallengeStatusWon, ch.Status)
	require.Equal(t, 3, ch.CurrentWave)
	require.Equal(t, []string{"alice", "bob"}, ch.Winners)
}

func TestStaleWaveDoesNotClaim(t *testing.T) {
	ctx := context.Background()
	arb, repo, id := setupArbiter(t, "sun", "moon")

	claimed, err := arb.AttemptClaim(ctx, id, 1, "alice", "sun")
	require.NoError(t, err)
	require.True(t, claimed)

	// A guess issued while wave 1 was live arrives after the advance.
	claimed, err = arb.AttemptClaim(ctx, id, 1, "carol", "sun")
	require.NoError(t, err)
	require.False(t, claimed)

	// A guess against a wave that is not live yet never claims either.
	claimed, err = arb.AttemptClaim(ctx, id, 3, "carol", "star")
	require.NoError(t, err)
	require.False(t, claimed)

	ch, err := repo.GetChallenge(ctx, id)
	require.NoError(t, err)
	require.Equal(t, 2, ch.CurrentWave)
	require.Empty(t, ch.Winners[1])
}

func TestNoClaimOnTerminalChallenge(t *testing.T) {
	ctx := context.Background()
	arb, repo, id := setupArbiter(t, "sun")

	_, err := repo.SetStatus(ctx, id, models.ChallengeStatusLost)
	require.NoError(t, err)

	claimed, err := arb.AttemptClaim(ctx, id, 1, "alice", "sun")
	require.NoError(t, err)
	require.False(t, claimed)
}
