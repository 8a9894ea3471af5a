package leaderboard

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/hordle/horde/go/internal/identity"
	"github.com/hordle/horde/go/internal/models"
)

// OverallWave is the wave scope holding the challenge-wide leaderboard,
// maintained alongside every per-wave board.
const OverallWave = 0

// Repository defines what the leaderboard app layer needs from storage.
// RecordRank must only ever improve (lower) the stored rank for a word;
// RecordAuthor and IncrementGuessCount must be safe under concurrent
// writers.
type Repository interface {
	RecordRank(ctx context.Context, challengeID uuid.UUID, wave int, word string, rank int, participantID string, seenAt time.Time) error
	RecordAuthor(ctx context.Context, challengeID uuid.UUID, word, participantID string, seenAt time.Time) error
	IncrementGuessCount(ctx context.Context, challengeID uuid.UUID, participantID string) error
	TopByRank(ctx context.Context, challengeID uuid.UUID, wave int, limit int) ([]models.LeaderboardEntry, error)
	TopGuessers(ctx context.Context, challengeID uuid.UUID, limit int) ([]models.TopGuesser, error)
}

// App maintains rank-ordered word leaderboards per challenge and per
// wave, plus the per-participant guess-count totals.
type App struct {
	repo      Repository
	directory identity.Directory
	clock     clockwork.Clock
}

// NewApp creates a new leaderboard App. directory may be nil; entries are
// then served without display metadata.
func NewApp(repo Repository, directory identity.Directory, clock clockwork.Clock) *App {
	return &App{repo: repo, directory: directory, clock: clock}
}

// RecordGuess folds one guess into the boards: the challenge-wide and
// per-wave best-rank maps improve-only, the guesser is recorded as an
// author of the word, and their guess count increments.
func (a *App) RecordGuess(ctx context.Context, challengeID uuid.UUID, wave int, word string, rank int, participantID string) error {
	if wave <= OverallWave {
		return fmt.Errorf("wave must be positive, got %d", wave)
	}
	now := a.clock.Now()

	if err := a.repo.RecordRank(ctx, challengeID, OverallWave, word, rank, participantID, now); err != nil {
		return fmt.Errorf("failed to record challenge rank: %w", err)
	}
	if err := a.repo.RecordRank(ctx, challengeID, wave, word, rank, participantID, now); err != nil {
		return fmt.Errorf("failed to record wave rank: %w", err)
	}
	if err := a.repo.RecordAuthor(ctx, challengeID, word, participantID, now); err != nil {
		return fmt.Errorf("failed to record word author: %w", err)
	}
	if err := a.repo.IncrementGuessCount(ctx, challengeID, participantID); err != nil {
		return fmt.Errorf("failed to increment guess count: %w", err)
	}
	return nil
}

// TopByRank returns the limit closest words for the given wave scope
// (OverallWave for the whole challenge), hydrated with display metadata
// where the directory answers. A failed lookup never fails the query.
func (a *App) TopByRank(ctx context.Context, challengeID uuid.UUID, wave int, limit int) ([]models.LeaderboardEntry, error) {
	entries, err := a.repo.TopByRank(ctx, challengeID, wave, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top ranks: %w", err)
	}
	for i := range entries {
		info, ok := a.lookupDisplay(ctx, entries[i].Claimant)
		if ok {
			entries[i].Handle = info.Handle
			entries[i].AvatarURL = info.AvatarURL
		}
	}
	return entries, nil
}

// TopGuessers returns the participants with the highest guess counts.
func (a *App) TopGuessers(ctx context.Context, challengeID uuid.UUID, limit int) ([]models.TopGuesser, error) {
	guessers, err := a.repo.TopGuessers(ctx, challengeID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top guessers: %w", err)
	}
	for i := range guessers {
		info, ok := a.lookupDisplay(ctx, guessers[i].ParticipantID)
		if ok {
			guessers[i].Handle = info.Handle
		}
	}
	return guessers, nil
}

func (a *App) lookupDisplay(ctx context.Context, participantID string) (models.DisplayInfo, bool) {
	if a.directory == nil || participantID == "" {
		return models.DisplayInfo{}, false
	}
	info, err := a.directory.DisplayInfo(ctx, participantID)
	if err != nil {
		log.Debug().
			Err(err).
			Str("participant_id", participantID).
			Msg("display info lookup failed")
		return models.DisplayInfo{}, false
	}
	return info, true
}
