package arbiter

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/hordle/horde/go/internal/models"
)

// ChallengeRepository defines what the arbiter needs from challenge
// storage. ClaimWinner must be a single atomic conditional write: among
// concurrent callers for one wave slot, exactly one succeeds.
type ChallengeRepository interface {
	GetChallenge(ctx context.Context, id uuid.UUID) (*models.Challenge, error)
	ClaimWinner(ctx context.Context, id uuid.UUID, wave int, claimant string) (bool, error)
	AppendWaveClear(ctx context.Context, id uuid.UUID, entry models.WaveClear) error
	AdvanceWave(ctx context.Context, id uuid.UUID, wave int) error
	SetStatus(ctx context.Context, id uuid.UUID, status models.ChallengeStatus) (bool, error)
}

// TimeCreditor credits the wave-clear bonus onto the countdown.
type TimeCreditor interface {
	Credit(ctx context.Context, id uuid.UUID, delta time.Duration) (time.Duration, error)
}

// SnapshotPublisher broadcasts a fresh state snapshot. Publication is
// best-effort; implementations swallow and log failures.
type SnapshotPublisher interface {
	PublishState(ctx context.Context, challengeID uuid.UUID)
}

// Arbiter decides, among many simultaneous winning guesses, exactly one
// claimant per wave. It is optimistic: the surrounding reads race freely
// and only the winner-slot write is exclusive, so losers fall through to
// normal guess handling with no side effects.
type Arbiter struct {
	repo      ChallengeRepository
	timer     TimeCreditor
	publisher SnapshotPublisher
	clock     clockwork.Clock

	// bonus is credited onto the countdown on every cleared wave.
	bonus time.Duration
}

// NewArbiter creates a wave race arbiter. publisher may be nil when no
// broadcast surface is wired.
func NewArbiter(repo ChallengeRepository, timer TimeCreditor, publisher SnapshotPublisher, clock clockwork.Clock, bonus time.Duration) *Arbiter {
	return &Arbiter{
		repo:      repo,
		timer:     timer,
		publisher: publisher,
		clock:     clock,
		bonus:     bonus,
	}
}

// AttemptClaim runs the claim protocol for a perfect guess issued against
// the given wave. It returns true only for the caller credited with the
// wave; every other outcome (stale wave, slot already taken, race lost)
// returns false with no error so the guess is processed as an ordinary
// one.
//
// The wave parameter is the wave in effect when the guess was issued,
// passed explicitly so an intervening advance by another worker is
// detected rather than silently re-targeted.
func (a *Arbiter) AttemptClaim(ctx context.Context, challengeID uuid.UUID, wave int, claimant, word string) (bool, error) {
	ch, err := a.repo.GetChallenge(ctx, challengeID)
	if err != nil {
		return false, fmt.Errorf("failed to re-read challenge: %w", err)
	}

	if ch.Status != models.ChallengeStatusRunning {
		return false, nil
	}
	if ch.CurrentWave != wave {
		// Another worker already advanced past this wave.
		return false, nil
	}
	if wave < 1 || wave > len(ch.Winners) {
		return false, nil
	}
	if ch.Winners[wave-1] != "" {
		return false, nil
	}

	// Two callers may both reach this point; the conditional write below
	// is the only decision that matters.
	claimed, err := a.repo.ClaimWinner(ctx, challengeID, wave, claimant)
	if err != nil {
		return false, fmt.Errorf("failed to claim wave %d: %w", wave, err)
	}
	if !claimed {
		log.Debug().
			Str("challenge_id", challengeID.String()).
			Int("wave", wave).
			Str("claimant", claimant).
			Msg("wave claim lost to concurrent winner")
		return false, nil
	}

	if err := a.completeClaim(ctx, ch, wave, claimant, word); err != nil {
		return true, err
	}

	if a.publisher != nil {
		a.publisher.PublishState(ctx, challengeID)
	}
	return true, nil
}

// completeClaim runs the winner-only side effects. The claim itself is
// already durable; any failure here leaves a claimed slot with trailing
// bookkeeping missing, which the log record makes visible, and every step
// is idempotent-safe to retry.
func (a *Arbiter) completeClaim(ctx context.Context, ch *models.Challenge, wave int, claimant, word string) error {
	entry := models.WaveClear{
		Wave:      wave,
		Claimant:  claimant,
		Word:      word,
		ClearedAt: a.clock.Now(),
	}
	if err := a.repo.AppendWaveClear(ctx, ch.ID, entry); err != nil {
		return fmt.Errorf("failed to record wave clear: %w", err)
	}

	next := wave + 1
	if err := a.repo.AdvanceWave(ctx, ch.ID, next); err != nil {
		return fmt.Errorf("failed to advance wave: %w", err)
	}

	if _, err := a.timer.Credit(ctx, ch.ID, a.bonus); err != nil {
		return fmt.Errorf("failed to credit wave bonus: %w", err)
	}

	if next > ch.WaveCount() {
		changed, err := a.repo.SetStatus(ctx, ch.ID, models.ChallengeStatusWon)
		if err != nil {
			return fmt.Errorf("failed to mark challenge won: %w", err)
		}
		if changed {
			log.Info().
				Str("challenge_id", ch.ID.String()).
				Int64("challenge_number", ch.Number).
				Str("claimant", claimant).
				Msg("final wave cleared, challenge won")
		}
	} else {
		log.Info().
			Str("challenge_id", ch.ID.String()).
			Int("wave", wave).
			Str("claimant", claimant).
			Msg("wave cleared")
	}
	return nil
}
