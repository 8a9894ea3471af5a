package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/hordle/horde/go/internal/challenge"
	"github.com/hordle/horde/go/internal/models"
	"github.com/hordle/horde/go/internal/wordqueue"
)

// ChallengeStore defines what the scheduler needs from challenge storage.
type ChallengeStore interface {
	CreateChallenge(ctx context.Context, req challenge.CreateChallengeRequest) (*models.Challenge, error)
	GetChallenge(ctx context.Context, id uuid.UUID) (*models.Challenge, error)
	ListChallengesByStatus(ctx context.Context, status models.ChallengeStatus) ([]uuid.UUID, error)
}

// Countdown advances a challenge's clock, detecting losses as a side
// effect.
type Countdown interface {
	Tick(ctx context.Context, id uuid.UUID) (time.Duration, error)
}

// WordSource supplies the next word set for a successor challenge.
type WordSource interface {
	Shift(ctx context.Context) (*wordqueue.WordSet, error)
}

// SnapshotPublisher broadcasts state changes the scheduler causes.
// May be nil.
type SnapshotPublisher interface {
	PublishState(ctx context.Context, challengeID uuid.UUID)
}

// Scheduler keeps challenges moving without player traffic. It ticks
// every running challenge on a poll interval so losses surface even when
// nobody is guessing, and creates a successor challenge when the current
// one ends.
type Scheduler struct {
	challenges  ChallengeStore
	countdown   Countdown
	words       WordSource
	publisher   SnapshotPublisher
	clock       clockwork.Clock
	initialTime time.Duration
	poll        time.Duration
	instanceID  string

	numWorkers int
	workCh     chan uuid.UUID
	wakeCh     chan struct{}

	// Track in-flight work to prevent duplicate processing
	inFlight   map[uuid.UUID]bool
	inFlightMu sync.Mutex

	// Serializes successor creation so concurrent terminal ticks cannot
	// spawn two challenges.
	rolloverMu sync.Mutex
}

// NewScheduler creates a challenge lifecycle scheduler with a worker pool.
func NewScheduler(
	challenges ChallengeStore,
	countdown Countdown,
	words WordSource,
	publisher SnapshotPublisher,
	clock clockwork.Clock,
	initialTime time.Duration,
	poll time.Duration,
) *Scheduler {
	numWorkers := 4
	return &Scheduler{
		challenges:  challenges,
		countdown:   countdown,
		words:       words,
		publisher:   publisher,
		clock:       clock,
		initialTime: initialTime,
		poll:        poll,
		instanceID:  uuid.New().String()[:8],

		numWorkers: numWorkers,
		workCh:     make(chan uuid.UUID, numWorkers*2),
		wakeCh:     make(chan struct{}, 1),
		inFlight:   make(map[uuid.UUID]bool),
	}
}

// Wake nudges the scheduler to run a pass immediately instead of waiting
// out the poll interval. Safe to call from any goroutine.
func (s *Scheduler) Wake() {
	select {
	case s.wakeCh <- struct{}{}:
	default:
	}
}

// Run loops until the context is cancelled, ticking running challenges
// and rolling over finished ones.
func (s *Scheduler) Run(ctx context.Context) error {
	log.Info().
		Str("instance", s.instanceID).
		Int("workers", s.numWorkers).
		Dur("poll", s.poll).
		Msg("lifecycle scheduler started")

	// Start worker pool
	var wg sync.WaitGroup
	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	for i := 0; i < s.numWorkers; i++ {
		wg.Add(1)
		go s.worker(workerCtx, &wg, i)
	}

	defer func() {
		log.Info().Str("instance", s.instanceID).Msg("shutting down workers")
		cancelWorkers()
		close(s.workCh)
		wg.Wait()
		log.Info().Str("instance", s.instanceID).Msg("all workers shut down")
	}()

	// Make sure a challenge exists before the first pass.
	if err := s.EnsureRunning(ctx); err != nil {
		log.Error().Err(err).Str("instance", s.instanceID).Msg("failed to ensure a running challenge at startup")
	}

	timer := s.clock.NewTimer(s.poll)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("instance", s.instanceID).Msg("scheduler shutdown requested")
			return nil
		case <-timer.Chan():
		case <-s.wakeCh:
			log.Debug().Str("instance", s.instanceID).Msg("woken up early")
		}

		if err := s.enqueueRunning(ctx); err != nil {
			log.Error().Err(err).Str("instance", s.instanceID).Msg("failed to enqueue running challenges")
		}

		timer.Reset(s.poll)
	}
}

// enqueueRunning lists running challenges and hands them to the worker
// pool, skipping any still in flight from the previous pass.
func (s *Scheduler) enqueueRunning(ctx context.Context) error {
	ids, err := s.challenges.ListChallengesByStatus(ctx, models.ChallengeStatusRunning)
	if err != nil {
		return fmt.Errorf("failed to list running challenges: %w", err)
	}

	if len(ids) == 0 {
		// Everything finished between passes, or nothing was ever
		// created. Roll over directly.
		if err := s.EnsureRunning(ctx); err != nil {
			return fmt.Errorf("failed to ensure a running challenge: %w", err)
		}
		return nil
	}

	for _, id := range ids {
		s.inFlightMu.Lock()
		if s.inFlight[id] {
			s.inFlightMu.Unlock()
			continue
		}
		s.inFlight[id] = true
		s.inFlightMu.Unlock()

		select {
		case <-ctx.Done():
			s.inFlightMu.Lock()
			delete(s.inFlight, id)
			s.inFlightMu.Unlock()
			return nil
		case s.workCh <- id:
		}
	}
	return nil
}

// worker ticks challenges from the work channel
func (s *Scheduler) worker(ctx context.Context, wg *sync.WaitGroup, workerID int) {
	defer wg.Done()

	for {
		select {
		case <-ctx.Done():
			log.Debug().
				Str("instance", s.instanceID).
				Int("worker_id", workerID).
				Msg("worker shutting down")
			return
		case id, ok := <-s.workCh:
			if !ok {
				return
			}

			if err := s.tickChallenge(ctx, id); err != nil {
				log.Error().
					Err(err).
					Str("challenge_id", id.String()).
					Str("instance", s.instanceID).
					Int("worker_id", workerID).
					Msg("worker tick failed")
			}

			s.inFlightMu.Lock()
			delete(s.inFlight, id)
			s.inFlightMu.Unlock()
		}
	}
}

// tickChallenge advances one challenge's clock and rolls over if the tick
// pushed it to a terminal state.
func (s *Scheduler) tickChallenge(ctx context.Context, id uuid.UUID) error {
	if _, err := s.countdown.Tick(ctx, id); err != nil {
		return fmt.Errorf("failed to tick challenge: %w", err)
	}

	ch, err := s.challenges.GetChallenge(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get challenge: %w", err)
	}
	if !ch.Status.Terminal() {
		return nil
	}

	log.Info().
		Str("challenge_id", id.String()).
		Str("status", string(ch.Status)).
		Str("instance", s.instanceID).
		Msg("challenge ended")

	if s.publisher != nil {
		s.publisher.PublishState(ctx, id)
	}

	return s.EnsureRunning(ctx)
}

// EnsureRunning creates a successor challenge when no running challenge
// exists. An empty word queue leaves the system without a challenge until
// sets are queued; that is logged, not fatal.
func (s *Scheduler) EnsureRunning(ctx context.Context) error {
	s.rolloverMu.Lock()
	defer s.rolloverMu.Unlock()

	ids, err := s.challenges.ListChallengesByStatus(ctx, models.ChallengeStatusRunning)
	if err != nil {
		return fmt.Errorf("failed to list running challenges: %w", err)
	}
	if len(ids) > 0 {
		return nil
	}

	set, err := s.words.Shift(ctx)
	if err != nil {
		return fmt.Errorf("failed to shift word queue: %w", err)
	}
	if set == nil {
		log.Warn().Str("instance", s.instanceID).Msg("word queue empty, no successor challenge created")
		return nil
	}

	created, err := s.challenges.CreateChallenge(ctx, challenge.CreateChallengeRequest{
		ID:          uuid.New(),
		Words:       set.Words,
		InitialTime: s.initialTime,
	})
	if err != nil {
		return fmt.Errorf("failed to create successor challenge: %w", err)
	}

	log.Info().
		Str("challenge_id", created.ID.String()).
		Int64("number", created.Number).
		Int("waves", created.WaveCount()).
		Str("instance", s.instanceID).
		Msg("created successor challenge")

	if s.publisher != nil {
		s.publisher.PublishState(ctx, created.ID)
	}
	return nil
}
