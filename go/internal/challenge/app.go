package challenge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hordle/horde/go/internal/models"
)

// Repository defines what the challenge app layer needs from challenge
// storage. Every mutation is an independent single-record atomic
// operation; callers must never rely on multi-field atomicity across
// separate calls.
type Repository interface {
	CreateChallenge(ctx context.Context, req CreateChallengeRequest) (*models.Challenge, error)
	GetChallenge(ctx context.Context, id uuid.UUID) (*models.Challenge, error)
	ListChallengesByStatus(ctx context.Context, status models.ChallengeStatus) ([]uuid.UUID, error)
	IncrementPlayers(ctx context.Context, id uuid.UUID) error
	IncrementGuesses(ctx context.Context, id uuid.UUID) error
	AdvanceWave(ctx context.Context, id uuid.UUID, wave int) error
	CreditTime(ctx context.Context, id uuid.UUID, delta time.Duration) (time.Duration, error)
	TickTime(ctx context.Context, id uuid.UUID, now time.Time) (time.Duration, bool, error)
	ClaimWinner(ctx context.Context, id uuid.UUID, wave int, claimant string) (bool, error)
	AppendWaveClear(ctx context.Context, id uuid.UUID, entry models.WaveClear) error
	SetStatus(ctx context.Context, id uuid.UUID, status models.ChallengeStatus) (bool, error)
}

// App handles challenge business logic.
type App struct {
	repo Repository
}

// NewApp creates a new challenge App.
func NewApp(repo Repository) *App {
	return &App{repo: repo}
}

// CreateChallenge creates a new challenge with a fixed word list.
func (a *App) CreateChallenge(ctx context.Context, req CreateChallengeRequest) (*models.Challenge, error) {
	if err := a.validateCreateChallengeRequest(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}

	ch, err := a.repo.CreateChallenge(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create challenge: %w", err)
	}
	return ch, nil
}

// GetChallenge retrieves a challenge by ID.
func (a *App) GetChallenge(ctx context.Context, id uuid.UUID) (*models.Challenge, error) {
	ch, err := a.repo.GetChallenge(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}
	return ch, nil
}

// ListChallengesByStatus returns the IDs of challenges in the given
// status.
func (a *App) ListChallengesByStatus(ctx context.Context, status models.ChallengeStatus) ([]uuid.UUID, error) {
	ids, err := a.repo.ListChallengesByStatus(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s challenges: %w", status, err)
	}
	return ids, nil
}

func (a *App) validateCreateChallengeRequest(req CreateChallengeRequest) error {
	if len(req.Words) == 0 {
		return fmt.Errorf("challenge must have at least one wave word")
	}
	for i, w := range req.Words {
		if strings.TrimSpace(w) == "" {
			return fmt.Errorf("wave word %d is empty", i+1)
		}
	}
	if req.InitialTime <= 0 {
		return fmt.Errorf("initial time must be positive")
	}
	return nil
}
