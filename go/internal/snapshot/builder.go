package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/hordle/horde/go/internal/leaderboard"
	"github.com/hordle/horde/go/internal/models"
)

const (
	topWordsLimit    = 10
	topGuessersLimit = 5
)

// ChallengeRepository defines what the builder needs from challenge
// storage.
type ChallengeRepository interface {
	GetChallenge(ctx context.Context, id uuid.UUID) (*models.Challenge, error)
}

// Countdown advances and reads the challenge clock.
type Countdown interface {
	Tick(ctx context.Context, id uuid.UUID) (time.Duration, error)
}

// Leaderboard serves the rank-ordered boards for the snapshot.
type Leaderboard interface {
	TopByRank(ctx context.Context, challengeID uuid.UUID, wave int, limit int) ([]models.LeaderboardEntry, error)
	TopGuessers(ctx context.Context, challengeID uuid.UUID, limit int) ([]models.TopGuesser, error)
}

// Builder computes the broadcastable view of a challenge. Every build
// ticks the countdown so the snapshot always carries fresh remaining
// time, and picks up a loss the tick may have just detected.
type Builder struct {
	challenges ChallengeRepository
	countdown  Countdown
	board      Leaderboard
	clock      clockwork.Clock
}

func NewBuilder(challenges ChallengeRepository, countdown Countdown, board Leaderboard, clock clockwork.Clock) *Builder {
	return &Builder{
		challenges: challenges,
		countdown:  countdown,
		board:      board,
		clock:      clock,
	}
}

func (b *Builder) Build(ctx context.Context, challengeID uuid.UUID) (*models.Snapshot, error) {
	remaining, err := b.countdown.Tick(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to tick countdown: %w", err)
	}

	ch, err := b.challenges.GetChallenge(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}

	// After the final wave there is no live wave board; fall back to the
	// challenge-wide one.
	boardWave := ch.CurrentWave
	if boardWave > ch.WaveCount() {
		boardWave = leaderboard.OverallWave
	}

	topWords, err := b.board.TopByRank(ctx, challengeID, boardWave, topWordsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load top words: %w", err)
	}
	topGuessers, err := b.board.TopGuessers(ctx, challengeID, topGuessersLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load top guessers: %w", err)
	}

	return &models.Snapshot{
		ChallengeID:     ch.ID,
		ChallengeNumber: ch.Number,
		Status:          ch.Status,
		CurrentWave:     ch.CurrentWave,
		WaveCount:       ch.WaveCount(),
		TotalPlayers:    ch.TotalPlayers,
		TotalGuesses:    ch.TotalGuesses,
		TimeRemainingMs: remaining.Milliseconds(),
		WaveClears:      ch.WaveClears,
		TopWords:        topWords,
		TopGuessers:     topGuessers,
		TakenAt:         b.clock.Now(),
	}, nil
}
