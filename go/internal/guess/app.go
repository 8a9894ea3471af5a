package guess

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hordle/horde/go/internal/models"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// ChallengeRepository defines what the guess processor needs from
// challenge storage.
type ChallengeRepository interface {
	GetChallenge(ctx context.Context, id uuid.UUID) (*models.Challenge, error)
	IncrementPlayers(ctx context.Context, id uuid.UUID) error
	IncrementGuesses(ctx context.Context, id uuid.UUID) error
}

// Leaderboard records rank and attribution for every applied guess.
type Leaderboard interface {
	RecordGuess(ctx context.Context, challengeID uuid.UUID, wave int, word string, rank int, participantID string) error
}

// WaveArbiter decides perfect-guess claims.
type WaveArbiter interface {
	AttemptClaim(ctx context.Context, challengeID uuid.UUID, wave int, claimant, word string) (bool, error)
}

// SnapshotPublisher broadcasts the post-batch state, best effort.
type SnapshotPublisher interface {
	PublishState(ctx context.Context, challengeID uuid.UUID)
}

// SnapshotSource builds the snapshot returned to the submitter.
type SnapshotSource interface {
	Build(ctx context.Context, challengeID uuid.UUID) (*models.Snapshot, error)
}

// App processes guess batches. Counter updates and arbitration go through
// independent store operations, so a crash mid-batch leaves earlier
// guesses applied and later ones unapplied; the duplicate guard makes a
// retried batch skip the applied prefix instead of double-counting it.
type App struct {
	challenges ChallengeRepository
	history    HistoryRepository
	board      Leaderboard
	arbiter    WaveArbiter
	snapshots  SnapshotSource
	publisher  SnapshotPublisher
	clock      clockwork.Clock
}

func NewApp(
	challenges ChallengeRepository,
	history HistoryRepository,
	board Leaderboard,
	arbiter WaveArbiter,
	snapshots SnapshotSource,
	publisher SnapshotPublisher,
	clock clockwork.Clock,
) *App {
	return &App{
		challenges: challenges,
		history:    history,
		board:      board,
		arbiter:    arbiter,
		snapshots:  snapshots,
		publisher:  publisher,
		clock:      clock,
	}
}

// SubmitGuesses applies one participant's guess batch and returns the
// resulting challenge snapshot. Duplicates within the batch are collapsed
// silently; a guess already present in the participant's history aborts
// the batch with ErrDuplicateGuess, leaving earlier guesses applied.
func (a *App) SubmitGuesses(ctx context.Context, req SubmitGuessesRequest) (*models.Snapshot, error) {
	if err := a.validateSubmitGuessesRequest(req); err != nil {
		return nil, err
	}

	ch, err := a.challenges.GetChallenge(ctx, req.ChallengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get challenge %s: %w", req.ChallengeID, err)
	}
	if ch.Status.Terminal() {
		return nil, fmt.Errorf("%w: challenge %s is %s", ErrChallengeOver, ch.ID, ch.Status)
	}

	first, err := a.history.MarkStarted(ctx, req.ChallengeID, req.ParticipantID, a.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to mark participant started: %w", err)
	}
	if first {
		if err := a.challenges.IncrementPlayers(ctx, req.ChallengeID); err != nil {
			return nil, fmt.Errorf("failed to increment players: %w", err)
		}
	}

	batch := lo.UniqBy(req.Guesses, func(g GuessInput) string {
		return g.Word
	})

	for _, in := range batch {
		if err := a.applyGuess(ctx, ch, req, in); err != nil {
			return nil, err
		}
	}

	snap, err := a.snapshots.Build(ctx, req.ChallengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to build snapshot: %w", err)
	}

	a.publisher.PublishState(ctx, req.ChallengeID)
	return snap, nil
}

// applyGuess records a single guess. The history append runs first so its
// duplicate guard covers every later mutation.
func (a *App) applyGuess(ctx context.Context, ch *models.Challenge, req SubmitGuessesRequest, in GuessInput) error {
	g := models.Guess{
		Word:       in.Word,
		Rank:       in.Rank,
		Similarity: in.Similarity,
		Wave:       req.Wave,
		IsHint:     in.IsHint,
		GuessedAt:  a.clock.Now(),
	}

	if err := a.history.AppendGuess(ctx, req.ChallengeID, req.ParticipantID, g); err != nil {
		return err
	}

	if err := a.challenges.IncrementGuesses(ctx, req.ChallengeID); err != nil {
		return fmt.Errorf("failed to increment guesses: %w", err)
	}
	if err := a.board.RecordGuess(ctx, req.ChallengeID, req.Wave, g.Word, g.Rank, req.ParticipantID); err != nil {
		return fmt.Errorf("failed to record guess on leaderboard: %w", err)
	}

	if g.Exact() && !g.IsHint {
		claimed, err := a.arbiter.AttemptClaim(ctx, req.ChallengeID, req.Wave, req.ParticipantID, g.Word)
		if err != nil {
			return fmt.Errorf("failed to arbitrate claim: %w", err)
		}
		if claimed {
			log.Info().
				Str("challenge_id", req.ChallengeID.String()).
				Int("wave", req.Wave).
				Str("participant_id", req.ParticipantID).
				Msg("Participant cleared wave")
		}
	} else if g.Exact() && g.IsHint {
		log.Debug().
			Str("challenge_id", ch.ID.String()).
			Str("participant_id", req.ParticipantID).
			Msg("Hinted perfect guess recorded without claim")
	}

	return nil
}

// GiveUp marks the participant as having given up on the challenge. The
// timestamp is set at most once; repeated calls are no-ops.
func (a *App) GiveUp(ctx context.Context, challengeID uuid.UUID, participantID string) error {
	if participantID == "" {
		return fmt.Errorf("%w: participant id is required", ErrInvalidGuess)
	}
	ch, err := a.challenges.GetChallenge(ctx, challengeID)
	if err != nil {
		return fmt.Errorf("failed to get challenge %s: %w", challengeID, err)
	}
	if ch.Status.Terminal() {
		return fmt.Errorf("%w: challenge %s is %s", ErrChallengeOver, ch.ID, ch.Status)
	}
	set, err := a.history.MarkGaveUp(ctx, challengeID, participantID, a.clock.Now())
	if err != nil {
		return fmt.Errorf("failed to mark gave up: %w", err)
	}
	if set {
		log.Info().
			Str("challenge_id", challengeID.String()).
			Str("participant_id", participantID).
			Msg("Participant gave up")
	}
	return nil
}

// GetUserState returns a participant's guess history and state for a
// challenge.
func (a *App) GetUserState(ctx context.Context, challengeID uuid.UUID, participantID string) (*models.UserChallengeState, error) {
	if participantID == "" {
		return nil, fmt.Errorf("%w: participant id is required", ErrInvalidGuess)
	}
	state, err := a.history.GetUserState(ctx, challengeID, participantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user state: %w", err)
	}
	return state, nil
}

func (a *App) validateSubmitGuessesRequest(req SubmitGuessesRequest) error {
	if req.ParticipantID == "" {
		return fmt.Errorf("%w: participant id is required", ErrInvalidGuess)
	}
	if req.Wave < 1 {
		return fmt.Errorf("%w: wave must be >= 1, got %d", ErrInvalidGuess, req.Wave)
	}
	if len(req.Guesses) == 0 {
		return fmt.Errorf("%w: batch is empty", ErrInvalidGuess)
	}
	for i, g := range req.Guesses {
		if strings.TrimSpace(g.Word) == "" {
			return fmt.Errorf("%w: guess %d has an empty word", ErrInvalidGuess, i)
		}
		if g.Similarity < 0 || g.Similarity > 1 {
			return fmt.Errorf("%w: guess %q similarity %v out of range", ErrInvalidGuess, g.Word, g.Similarity)
		}
		if g.Rank < 0 {
			return fmt.Errorf("%w: guess %q has negative rank", ErrInvalidGuess, g.Word)
		}
	}
	return nil
}
