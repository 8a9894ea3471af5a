package leaderboard

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hordle/horde/go/internal/models"
)

// PostgresRepository is the Postgres-backed leaderboard store. Each write
// is one upsert, so concurrent guesses for the same word converge on the
// lowest rank without coordination.
type PostgresRepository struct {
	sqlDB *sql.DB
}

func NewPostgresRepository(sqlDB *sql.DB) *PostgresRepository {
	return &PostgresRepository{sqlDB: sqlDB}
}

const leaderboardSchema = `
CREATE TABLE IF NOT EXISTS leaderboard_ranks (
    challenge_id  UUID NOT NULL,
    wave          INT NOT NULL,
    word          TEXT NOT NULL,
    best_rank     INT NOT NULL,
    claimant      TEXT NOT NULL,
    first_seen_at TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (challenge_id, wave, word)
);

CREATE TABLE IF NOT EXISTS word_authors (
    challenge_id   UUID NOT NULL,
    word           TEXT NOT NULL,
    participant_id TEXT NOT NULL,
    first_seen_at  TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (challenge_id, word, participant_id)
);

CREATE TABLE IF NOT EXISTS guess_counts (
    challenge_id   UUID NOT NULL,
    participant_id TEXT NOT NULL,
    guess_count    BIGINT NOT NULL DEFAULT 0,
    PRIMARY KEY (challenge_id, participant_id)
)`

// EnsureSchema creates the backing tables if they do not exist.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.sqlDB.ExecContext(ctx, leaderboardSchema); err != nil {
		return fmt.Errorf("failed to ensure leaderboard schema: %w", err)
	}
	return nil
}

func (r *PostgresRepository) RecordRank(ctx context.Context, challengeID uuid.UUID, wave int, word string, rank int, participantID string, seenAt time.Time) error {
	_, err := r.sqlDB.ExecContext(ctx, `
        INSERT INTO leaderboard_ranks (challenge_id, wave, word, best_rank, claimant, first_seen_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (challenge_id, wave, word)
        DO UPDATE SET best_rank = LEAST(leaderboard_ranks.best_rank, EXCLUDED.best_rank)
    `, challengeID, wave, word, rank, participantID, seenAt)
	if err != nil {
		return fmt.Errorf("failed to record rank: %w", err)
	}
	return nil
}

func (r *PostgresRepository) RecordAuthor(ctx context.Context, challengeID uuid.UUID, word, participantID string, seenAt time.Time) error {
	_, err := r.sqlDB.ExecContext(ctx, `
        INSERT INTO word_authors (challenge_id, word, participant_id, first_seen_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (challenge_id, word, participant_id) DO NOTHING
    `, challengeID, word, participantID, seenAt)
	if err != nil {
		return fmt.Errorf("failed to record author: %w", err)
	}
	return nil
}

func (r *PostgresRepository) IncrementGuessCount(ctx context.Context, challengeID uuid.UUID, participantID string) error {
	_, err := r.sqlDB.ExecContext(ctx, `
        INSERT INTO guess_counts (challenge_id, participant_id, guess_count)
        VALUES ($1, $2, 1)
        ON CONFLICT (challenge_id, participant_id)
        DO UPDATE SET guess_count = guess_counts.guess_count + 1
    `, challengeID, participantID)
	if err != nil {
		return fmt.Errorf("failed to increment guess count: %w", err)
	}
	return nil
}

func (r *PostgresRepository) TopByRank(ctx context.Context, challengeID uuid.UUID, wave int, limit int) ([]models.LeaderboardEntry, error) {
	rows, err := r.sqlDB.QueryContext(ctx, `
        SELECT word, best_rank, claimant, first_seen_at
        FROM leaderboard_ranks
        WHERE challenge_id = $1 AND wave = $2
        ORDER BY best_rank, word
        LIMIT $3
    `, challengeID, wave, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top ranks: %w", err)
	}
	defer rows.Close()

	var entries []models.LeaderboardEntry
	for rows.Next() {
		var e models.LeaderboardEntry
		if err := rows.Scan(&e.Word, &e.BestRank, &e.Claimant, &e.FirstSeen); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate leaderboard entries: %w", err)
	}
	return entries, nil
}

func (r *PostgresRepository) TopGuessers(ctx context.Context, challengeID uuid.UUID, limit int) ([]models.TopGuesser, error) {
	rows, err := r.sqlDB.QueryContext(ctx, `
        SELECT participant_id, guess_count
        FROM guess_counts
        WHERE challenge_id = $1
        ORDER BY guess_count DESC, participant_id
        LIMIT $2
    `, challengeID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top guessers: %w", err)
	}
	defer rows.Close()

	var guessers []models.TopGuesser
	for rows.Next() {
		var g models.TopGuesser
		if err := rows.Scan(&g.ParticipantID, &g.GuessCount); err != nil {
			return nil, fmt.Errorf("failed to scan top guesser: %w", err)
		}
		guessers = append(guessers, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate top guessers: %w", err)
	}
	return guessers, nil
}
