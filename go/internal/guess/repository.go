package guess

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hordle/horde/go/internal/models"
	"github.com/hordle/horde/go/internal/sqlutil"
	"github.com/lib/pq"
)

const pqUniqueViolation = "23505"

// HistoryRepository persists per-participant guess history and challenge
// state. AppendGuess must be atomic: the insert itself is the duplicate
// guard, so a retried batch cannot double-apply counters.
type HistoryRepository interface {
	// AppendGuess records a guess. Returns ErrDuplicateGuess when the
	// participant already guessed the same word in the same wave.
	AppendGuess(ctx context.Context, challengeID uuid.UUID, participantID string, g models.Guess) error
	// MarkStarted records when the participant first guessed. Returns
	// true only for the call that set the timestamp; a give-up recorded
	// earlier does not count as a start.
	MarkStarted(ctx context.Context, challengeID uuid.UUID, participantID string, at time.Time) (bool, error)
	// MarkGaveUp sets the give-up timestamp at most once. Returns true
	// only when this call set it.
	MarkGaveUp(ctx context.Context, challengeID uuid.UUID, participantID string, at time.Time) (bool, error)
	// GetUserState returns the participant's state and full guess
	// history for a challenge. A participant with no history gets a
	// zero-value state, not an error.
	GetUserState(ctx context.Context, challengeID uuid.UUID, participantID string) (*models.UserChallengeState, error)
}

// PostgresHistoryRepository is the Postgres-backed guess history store.
// The user_guesses primary key (challenge_id, participant_id, wave, word)
// doubles as the duplicate-guess guard.
type PostgresHistoryRepository struct {
	db *sql.DB
}

func NewPostgresHistoryRepository(db *sql.DB) *PostgresHistoryRepository {
	return &PostgresHistoryRepository{db: db}
}

// EnsureSchema creates the history tables if they are missing.
func (r *PostgresHistoryRepository) EnsureSchema(ctx context.Context) error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS user_guesses (
		challenge_id   UUID NOT NULL,
		participant_id TEXT NOT NULL,
		wave           INT NOT NULL,
		word           TEXT NOT NULL,
		rank           INT NOT NULL,
		similarity     DOUBLE PRECISION NOT NULL,
		is_hint        BOOLEAN NOT NULL DEFAULT FALSE,
		guessed_at     TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (challenge_id, participant_id, wave, word)
	);
	CREATE TABLE IF NOT EXISTS user_challenge_states (
		challenge_id   UUID NOT NULL,
		participant_id TEXT NOT NULL,
		started_at     TIMESTAMPTZ,
		gave_up_at     TIMESTAMPTZ,
		PRIMARY KEY (challenge_id, participant_id)
	)`
	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to ensure guess schema: %w", err)
	}
	return nil
}

func (r *PostgresHistoryRepository) AppendGuess(ctx context.Context, challengeID uuid.UUID, participantID string, g models.Guess) error {
	const query = `
		INSERT INTO user_guesses (challenge_id, participant_id, wave, word, rank, similarity, is_hint, guessed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query,
		challengeID, participantID, g.Wave, g.Word, g.Rank, g.Similarity, g.IsHint, g.GuessedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return fmt.Errorf("%w: %q in wave %d", ErrDuplicateGuess, g.Word, g.Wave)
		}
		return fmt.Errorf("failed to append guess: %w", err)
	}
	return nil
}

func (r *PostgresHistoryRepository) MarkStarted(ctx context.Context, challengeID uuid.UUID, participantID string, at time.Time) (bool, error) {
	const query = `
		INSERT INTO user_challenge_states (challenge_id, participant_id, started_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (challenge_id, participant_id) DO UPDATE
		SET started_at = EXCLUDED.started_at
		WHERE user_challenge_states.started_at IS NULL`

	res, err := r.db.ExecContext(ctx, query, challengeID, participantID, at)
	if err != nil {
		return false, fmt.Errorf("failed to mark started: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n == 1, nil
}

func (r *PostgresHistoryRepository) MarkGaveUp(ctx context.Context, challengeID uuid.UUID, participantID string, at time.Time) (bool, error) {
	const query = `
		INSERT INTO user_challenge_states (challenge_id, participant_id, gave_up_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (challenge_id, participant_id) DO UPDATE
		SET gave_up_at = EXCLUDED.gave_up_at
		WHERE user_challenge_states.gave_up_at IS NULL`

	res, err := r.db.ExecContext(ctx, query, challengeID, participantID, at)
	if err != nil {
		return false, fmt.Errorf("failed to mark gave up: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n == 1, nil
}

func (r *PostgresHistoryRepository) GetUserState(ctx context.Context, challengeID uuid.UUID, participantID string) (*models.UserChallengeState, error) {
	state := &models.UserChallengeState{
		ChallengeID:   challengeID,
		ParticipantID: participantID,
	}

	const stateQuery = `
		SELECT started_at, gave_up_at
		FROM user_challenge_states
		WHERE challenge_id = $1 AND participant_id = $2`

	var startedAt, gaveUpAt sql.NullTime
	err := r.db.QueryRowContext(ctx, stateQuery, challengeID, participantID).Scan(&startedAt, &gaveUpAt)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to get user state: %w", err)
	}
	state.StartedAt = sqlutil.FromSqlTime(startedAt)
	state.GaveUpAt = sqlutil.FromSqlTime(gaveUpAt)

	const guessQuery = `
		SELECT word, rank, similarity, wave, is_hint, guessed_at
		FROM user_guesses
		WHERE challenge_id = $1 AND participant_id = $2
		ORDER BY guessed_at`

	rows, err := r.db.QueryContext(ctx, guessQuery, challengeID, participantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list guesses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var g models.Guess
		if err := rows.Scan(&g.Word, &g.Rank, &g.Similarity, &g.Wave, &g.IsHint, &g.GuessedAt); err != nil {
			return nil, fmt.Errorf("failed to scan guess: %w", err)
		}
		state.Guesses = append(state.Guesses, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate guesses: %w", err)
	}
	return state, nil
}
