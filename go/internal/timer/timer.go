package timer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/hordle/horde/go/internal/models"
)

// ChallengeRepository defines what the countdown needs from challenge
// storage.
type ChallengeRepository interface {
	TickTime(ctx context.Context, id uuid.UUID, now time.Time) (time.Duration, bool, error)
	CreditTime(ctx context.Context, id uuid.UUID, delta time.Duration) (time.Duration, error)
	SetStatus(ctx context.Context, id uuid.UUID, status models.ChallengeStatus) (bool, error)
}

// Countdown derives the remaining time of a challenge from wall-clock
// deltas between observations. There is no background clock per
// challenge; every Tick is a pure function of stored state plus the
// injected clock, safe to call from any concurrent request.
type Countdown struct {
	repo  ChallengeRepository
	clock clockwork.Clock
}

// NewCountdown creates a countdown over the given store. Pass
// clockwork.NewRealClock() in production.
func NewCountdown(repo ChallengeRepository, clock clockwork.Clock) *Countdown {
	return &Countdown{repo: repo, clock: clock}
}

// Tick applies elapsed wall-clock time and returns the remaining time.
// Once the challenge is terminal the stored value is returned unchanged.
// Reaching zero transitions the challenge to LOST; the transition is
// idempotent, only the first detection persists it.
func (c *Countdown) Tick(ctx context.Context, id uuid.UUID) (time.Duration, error) {
	remaining, ticked, err := c.repo.TickTime(ctx, id, c.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to tick challenge: %w", err)
	}
	if !ticked {
		// Terminal status: the value is frozen.
		return remaining, nil
	}

	if remaining <= 0 {
		changed, err := c.repo.SetStatus(ctx, id, models.ChallengeStatusLost)
		if err != nil {
			return 0, fmt.Errorf("failed to mark challenge lost: %w", err)
		}
		if changed {
			log.Info().
				Str("challenge_id", id.String()).
				Msg("challenge timed out")
		}
		return 0, nil
	}
	return remaining, nil
}

// Credit adds a positive delta to the remaining time without touching the
// last observation timestamp.
func (c *Countdown) Credit(ctx context.Context, id uuid.UUID, delta time.Duration) (time.Duration, error) {
	if delta <= 0 {
		return 0, fmt.Errorf("credit delta must be positive, got %s", delta)
	}
	remaining, err := c.repo.CreditTime(ctx, id, delta)
	if err != nil {
		return 0, fmt.Errorf("failed to credit time: %w", err)
	}
	return remaining, nil
}
