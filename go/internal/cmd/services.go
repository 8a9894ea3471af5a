package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/hordle/horde/go/clients/identity_client"
	"github.com/hordle/horde/go/clients/oracle_client"
	"github.com/hordle/horde/go/internal/arbiter"
	"github.com/hordle/horde/go/internal/broadcast"
	"github.com/hordle/horde/go/internal/challenge"
	"github.com/hordle/horde/go/internal/guess"
	"github.com/hordle/horde/go/internal/identity"
	"github.com/hordle/horde/go/internal/leaderboard"
	"github.com/hordle/horde/go/internal/lifecycle"
	"github.com/hordle/horde/go/internal/snapshot"
	"github.com/hordle/horde/go/internal/timer"
	"github.com/hordle/horde/go/internal/wordqueue"
)

// Services holds the wired application graph.
type Services struct {
	Challenges *challenge.PostgresRepository
	WordQueue  *wordqueue.App
	Guesses    *guess.App
	Snapshots  *snapshot.Builder
	Scheduler  *lifecycle.Scheduler

	OracleClient   *oracle_client.OracleClient
	IdentityClient *identity_client.IdentityClient
}

// statePublisher broadcasts a fresh snapshot and nudges the lifecycle
// scheduler, so a win rolls over without waiting for the next poll.
type statePublisher struct {
	broadcaster *broadcast.Broadcaster
	scheduler   *lifecycle.Scheduler
}

func (p *statePublisher) PublishState(ctx context.Context, challengeID uuid.UUID) {
	p.broadcaster.PublishState(ctx, challengeID)
	if p.scheduler != nil {
		p.scheduler.Wake()
	}
}

func setupServices(database *sql.DB, config *Config, publisher broadcast.Publisher) (*Services, error) {
	clock := clockwork.NewRealClock()
	ctx := context.Background()

	// Repository layer
	challengeRepo := challenge.NewPostgresRepository(database)
	if err := challengeRepo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure challenge schema: %w", err)
	}
	queueRepo := wordqueue.NewRepository(database)
	if err := queueRepo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure word queue schema: %w", err)
	}
	historyRepo := guess.NewPostgresHistoryRepository(database)
	if err := historyRepo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure guess schema: %w", err)
	}
	boardRepo := leaderboard.NewPostgresRepository(database)
	if err := boardRepo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure leaderboard schema: %w", err)
	}

	// External service clients
	oracleClient := oracle_client.NewOracleClient(
		getEnv("ORACLE_URL", "http://localhost:9100"),
		getEnv("ORACLE_API_KEY", ""),
	)
	identityClient := identity_client.NewIdentityClient(
		getEnv("IDENTITY_URL", "http://localhost:9200"),
		getEnv("IDENTITY_TOKEN", ""),
	)
	directory := identity.NewCachedDirectory(identityClient, clock, config.IdentityCacheTTL())

	// App layer
	challengeApp := challenge.NewApp(challengeRepo)
	queueApp := wordqueue.NewApp(queueRepo)
	boardApp := leaderboard.NewApp(boardRepo, directory, clock)
	countdown := timer.NewCountdown(challengeRepo, clock)
	builder := snapshot.NewBuilder(challengeRepo, countdown, boardApp, clock)
	broadcaster := broadcast.NewBroadcaster(builder, publisher)

	// Successor creation goes through the app layer so its validation
	// covers scheduler-created challenges too.
	scheduler := lifecycle.NewScheduler(
		challengeApp, countdown, queueApp, broadcaster, clock,
		config.InitialTime(), config.TickPoll(),
	)

	// Guess-path publishes also wake the scheduler so a won challenge
	// rolls over immediately.
	statePub := &statePublisher{broadcaster: broadcaster, scheduler: scheduler}
	arb := arbiter.NewArbiter(challengeRepo, countdown, statePub, clock, config.WaveClearBonus())
	guessApp := guess.NewApp(challengeRepo, historyRepo, boardApp, arb, builder, statePub, clock)

	return &Services{
		Challenges:     challengeRepo,
		WordQueue:      queueApp,
		Guesses:        guessApp,
		Snapshots:      builder,
		Scheduler:      scheduler,
		OracleClient:   oracleClient,
		IdentityClient: identityClient,
	}, nil
}
