package lifecycle

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hordle/horde/go/internal/challenge"
	"github.com/hordle/horde/go/internal/models"
	"github.com/hordle/horde/go/internal/timer"
	"github.com/hordle/horde/go/internal/wordqueue"
)

type countingPublisher struct {
	mu    sync.Mutex
	calls []uuid.UUID
}

func (p *countingPublisher) PublishState(_ context.Context, id uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, id)
}

func (p *countingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

func newTestScheduler(clock clockwork.Clock, initialTime, poll time.Duration) (*Scheduler, *challenge.MemoryRepository, *wordqueue.App, *countingPublisher) {
	repo := challenge.NewMemoryRepository()
	words := wordqueue.NewApp(wordqueue.NewMemoryRepository())
	countdown := timer.NewCountdown(repo, clock)
	publisher := &countingPublisher{}
	s := NewScheduler(challenge.NewApp(repo), countdown, words, publisher, clock, initialTime, poll)
	return s, repo, words, publisher
}

type staticWordSource struct {
	sets []*wordqueue.WordSet
}

func (s *staticWordSource) Shift(_ context.Context) (*wordqueue.WordSet, error) {
	if len(s.sets) == 0 {
		return nil, nil
	}
	set := s.sets[0]
	s.sets = s.sets[1:]
	return set, nil
}

func TestEnsureRunningRejectsInvalidWordSet(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	repo := challenge.NewMemoryRepository()
	countdown := timer.NewCountdown(repo, clock)
	source := &staticWordSource{sets: []*wordqueue.WordSet{{Words: []string{"sun", "  "}}}}
	s := NewScheduler(challenge.NewApp(repo), countdown, source, nil, clock, 10*time.Minute, time.Second)

	// A word set with a blank word must not become a challenge.
	require.Error(t, s.EnsureRunning(ctx))

	ids, err := repo.ListChallengesByStatus(ctx, models.ChallengeStatusRunning)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestEnsureRunningCreatesChallengeFromQueue(t *testing.T) {
	ctx := context.Background()
	s, repo, words, publisher := newTestScheduler(clockwork.NewFakeClock(), 10*time.Minute, time.Second)

	require.NoError(t, words.Append(ctx, wordqueue.WordSet{Words: []string{"sun", "moon"}}))
	require.NoError(t, words.Append(ctx, wordqueue.WordSet{Words: []string{"rain"}}))

	require.NoError(t, s.EnsureRunning(ctx))

	ids, err := repo.ListChallengesByStatus(ctx, models.ChallengeStatusRunning)
	require.NoError(t, err)
	require.Len(t, ids, 1)

	ch, err := repo.GetChallenge(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, []string{"sun", "moon"}, ch.Words)
	assert.Equal(t, 10*time.Minute, ch.TimeRemaining)
	assert.Equal(t, 1, publisher.count())

	// A running challenge already exists, so nothing new is created and
	// the queue keeps its remaining set.
	require.NoError(t, s.EnsureRunning(ctx))
	ids, err = repo.ListChallengesByStatus(ctx, models.ChallengeStatusRunning)
	require.NoError(t, err)
	assert.Len(t, ids, 1)

	size, err := words.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, size)
}

func TestEnsureRunningWithEmptyQueue(t *testing.T) {
	ctx := context.Background()
	s, repo, _, publisher := newTestScheduler(clockwork.NewFakeClock(), 10*time.Minute, time.Second)

	require.NoError(t, s.EnsureRunning(ctx))

	ids, err := repo.ListChallengesByStatus(ctx, models.ChallengeStatusRunning)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.Equal(t, 0, publisher.count())
}

func TestTickChallengeRollsOverExpiredChallenge(t *testing.T) {
	ctx := context.Background()
	repo := challenge.NewMemoryRepository()
	words := wordqueue.NewApp(wordqueue.NewMemoryRepository())
	require.NoError(t, words.Append(ctx, wordqueue.WordSet{Words: []string{"rain"}}))

	created, err := repo.CreateChallenge(ctx, challenge.CreateChallengeRequest{
		ID:          uuid.New(),
		Words:       []string{"sun"},
		InitialTime: time.Minute,
	})
	require.NoError(t, err)

	clock := clockwork.NewFakeClockAt(created.LastTick)
	countdown := timer.NewCountdown(repo, clock)
	publisher := &countingPublisher{}
	s := NewScheduler(repo, countdown, words, publisher, clock, 10*time.Minute, time.Second)

	clock.Advance(2 * time.Minute)
	require.NoError(t, s.tickChallenge(ctx, created.ID))

	old, err := repo.GetChallenge(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ChallengeStatusLost, old.Status)

	ids, err := repo.ListChallengesByStatus(ctx, models.ChallengeStatusRunning)
	require.NoError(t, err)
	require.Len(t, ids, 1)

	successor, err := repo.GetChallenge(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, []string{"rain"}, successor.Words)
	assert.Greater(t, successor.Number, old.Number)

	// One publish for the ended challenge, one for the successor.
	assert.Equal(t, 2, publisher.count())
}

func TestTickChallengeLeavesRunningChallengeAlone(t *testing.T) {
	ctx := context.Background()
	repo := challenge.NewMemoryRepository()
	words := wordqueue.NewApp(wordqueue.NewMemoryRepository())

	created, err := repo.CreateChallenge(ctx, challenge.CreateChallengeRequest{
		ID:          uuid.New(),
		Words:       []string{"sun"},
		InitialTime: 10 * time.Minute,
	})
	require.NoError(t, err)

	clock := clockwork.NewFakeClockAt(created.LastTick)
	countdown := timer.NewCountdown(repo, clock)
	publisher := &countingPublisher{}
	s := NewScheduler(repo, countdown, words, publisher, clock, 10*time.Minute, time.Second)

	clock.Advance(time.Minute)
	require.NoError(t, s.tickChallenge(ctx, created.ID))

	ch, err := repo.GetChallenge(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ChallengeStatusRunning, ch.Status)
	assert.Equal(t, 9*time.Minute, ch.TimeRemaining)
	assert.Equal(t, 0, publisher.count())
}

func TestRunDetectsLossWithoutTraffic(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock := clockwork.NewRealClock()
	s, repo, words, _ := newTestScheduler(clock, 10*time.Millisecond, 5*time.Millisecond)

	require.NoError(t, words.Append(ctx, wordqueue.WordSet{Words: []string{"sun"}}))
	require.NoError(t, words.Append(ctx, wordqueue.WordSet{Words: []string{"moon"}}))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Run(ctx)
	}()

	// The first challenge expires after 10ms of inactivity; the
	// scheduler must mark it lost and start the next one on its own.
	assert.Eventually(t, func() bool {
		lost, err := repo.ListChallengesByStatus(ctx, models.ChallengeStatusLost)
		if err != nil || len(lost) == 0 {
			return false
		}
		running, err := repo.ListChallengesByStatus(ctx, models.ChallengeStatusRunning)
		return err == nil && len(lost)+len(running) == 2
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	<-done
}
