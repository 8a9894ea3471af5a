package challenge

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/hordle/horde/go/internal/models"
)

// PostgresRepository is the Postgres-backed challenge store. Every
// mutating method is a single SQL statement so each field mutation is
// atomic on its own; the wave-claim algorithm builds on exactly that
// guarantee.
type PostgresRepository struct {
	sqlDB *sql.DB
}

func NewPostgresRepository(sqlDB *sql.DB) *PostgresRepository {
	return &PostgresRepository{sqlDB: sqlDB}
}

const challengeSchema = `
CREATE TABLE IF NOT EXISTS challenges (
    id                UUID PRIMARY KEY,
    number            BIGINT GENERATED ALWAYS AS IDENTITY UNIQUE,
    words             TEXT[] NOT NULL,
    winners           TEXT[] NOT NULL,
    total_players     BIGINT NOT NULL DEFAULT 0,
    total_guesses     BIGINT NOT NULL DEFAULT 0,
    current_wave      INT NOT NULL DEFAULT 1,
    time_remaining_ms BIGINT NOT NULL,
    last_tick         TIMESTAMPTZ NOT NULL DEFAULT now(),
    status            TEXT NOT NULL DEFAULT 'RUNNING',
    created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS wave_clears (
    challenge_id UUID NOT NULL REFERENCES challenges(id),
    wave         INT NOT NULL,
    claimant     TEXT NOT NULL,
    word         TEXT NOT NULL,
    cleared_at   TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (challenge_id, wave)
)`

// EnsureSchema creates the backing tables if they do not exist.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.sqlDB.ExecContext(ctx, challengeSchema); err != nil {
		return fmt.Errorf("failed to ensure challenge schema: %w", err)
	}
	return nil
}

func (r *PostgresRepository) CreateChallenge(ctx context.Context, req CreateChallengeRequest) (*models.Challenge, error) {
	row := r.sqlDB.QueryRowContext(ctx, `
        INSERT INTO challenges (id, words, winners, time_remaining_ms)
        VALUES ($1, $2, array_fill(''::text, ARRAY[$3]), $4)
        RETURNING number, last_tick, created_at, updated_at
    `, req.ID, pq.Array(req.Words), len(req.Words), req.InitialTime.Milliseconds())

	ch := &models.Challenge{
		ID:            req.ID,
		Words:         req.Words,
		Winners:       make([]string, len(req.Words)),
		CurrentWave:   1,
		TimeRemaining: req.InitialTime,
		Status:        models.ChallengeStatusRunning,
	}
	if err := row.Scan(&ch.Number, &ch.LastTick, &ch.CreatedAt, &ch.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to create challenge: %w", err)
	}
	return ch, nil
}

func (r *PostgresRepository) GetChallenge(ctx context.Context, id uuid.UUID) (*models.Challenge, error) {
	var (
		ch models.Challenge
		ms int64
	)
	err := r.sqlDB.QueryRowContext(ctx, `
        SELECT id, number, words, winners, total_players, total_guesses,
               current_wave, time_remaining_ms, last_tick, status,
               created_at, updated_at
        FROM challenges WHERE id = $1
    `, id).Scan(
		&ch.ID, &ch.Number, pq.Array(&ch.Words), pq.Array(&ch.Winners),
		&ch.TotalPlayers, &ch.TotalGuesses, &ch.CurrentWave, &ms,
		&ch.LastTick, &ch.Status, &ch.CreatedAt, &ch.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}
	ch.TimeRemaining = time.Duration(ms) * time.Millisecond

	clears, err := r.listWaveClears(ctx, id)
	if err != nil {
		return nil, err
	}
	ch.WaveClears = clears
	return &ch, nil
}

func (r *PostgresRepository) listWaveClears(ctx context.Context, id uuid.UUID) ([]models.WaveClear, error) {
	rows, err := r.sqlDB.QueryContext(ctx, `
        SELECT wave, claimant, word, cleared_at
        FROM wave_clears WHERE challenge_id = $1
        ORDER BY wave
    `, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list wave clears: %w", err)
	}
	defer rows.Close()

	var clears []models.WaveClear
	for rows.Next() {
		var wc models.WaveClear
		if err := rows.Scan(&wc.Wave, &wc.Claimant, &wc.Word, &wc.ClearedAt); err != nil {
			return nil, fmt.Errorf("failed to scan wave clear: %w", err)
		}
		clears = append(clears, wc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate wave clears: %w", err)
	}
	return clears, nil
}

func (r *PostgresRepository) ListChallengesByStatus(ctx context.Context, status models.ChallengeStatus) ([]uuid.UUID, error) {
	rows, err := r.sqlDB.QueryContext(ctx, `
        SELECT id FROM challenges WHERE status = $1 ORDER BY number
    `, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges by status: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan challenge id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate challenges: %w", err)
	}
	return ids, nil
}

func (r *PostgresRepository) IncrementPlayers(ctx context.Context, id uuid.UUID) error {
	_, err := r.sqlDB.ExecContext(ctx, `
        UPDATE challenges
        SET total_players = total_players + 1, updated_at = now()
        WHERE id = $1
    `, id)
	if err != nil {
		return fmt.Errorf("failed to increment players: %w", err)
	}
	return nil
}

func (r *PostgresRepository) IncrementGuesses(ctx context.Context, id uuid.UUID) error {
	_, err := r.sqlDB.ExecContext(ctx, `
        UPDATE challenges
        SET total_guesses = total_guesses + 1, updated_at = now()
        WHERE id = $1
    `, id)
	if err != nil {
		return fmt.Errorf("failed to increment guesses: %w", err)
	}
	return nil
}

// AdvanceWave moves current_wave forward to the given wave. The guard
// keeps the wave counter monotonic under concurrent callers.
func (r *PostgresRepository) AdvanceWave(ctx context.Context, id uuid.UUID, wave int) error {
	_, err := r.sqlDB.ExecContext(ctx, `
        UPDATE challenges
        SET current_wave = $2, updated_at = now()
        WHERE id = $1 AND current_wave < $2
    `, id, wave)
	if err != nil {
		return fmt.Errorf("failed to advance wave: %w", err)
	}
	return nil
}

func (r *PostgresRepository) CreditTime(ctx context.Context, id uuid.UUID, delta time.Duration) (time.Duration, error) {
	var ms int64
	err := r.sqlDB.QueryRowContext(ctx, `
        UPDATE challenges
        SET time_remaining_ms = GREATEST(time_remaining_ms + $2, 0), updated_at = now()
        WHERE id = $1
        RETURNING time_remaining_ms
    `, id, delta.Milliseconds()).Scan(&ms)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to credit time: %w", err)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// TickTime applies the wall-clock elapsed time since the last tick in one
// statement and returns the new remaining time. The boolean reports
// whether the tick applied; it is false when the challenge is no longer
// running, in which case the stored (frozen) value is returned.
func (r *PostgresRepository) TickTime(ctx context.Context, id uuid.UUID, now time.Time) (time.Duration, bool, error) {
	var ms int64
	err := r.sqlDB.QueryRowContext(ctx, `
        UPDATE challenges
        SET time_remaining_ms = GREATEST(
                time_remaining_ms - GREATEST(
                    (EXTRACT(EPOCH FROM ($2::timestamptz - last_tick)) * 1000)::bigint, 0), 0),
            last_tick = $2,
            updated_at = now()
        WHERE id = $1 AND status = $3
        RETURNING time_remaining_ms
    `, id, now, models.ChallengeStatusRunning).Scan(&ms)
	if err == nil {
		return time.Duration(ms) * time.Millisecond, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, false, fmt.Errorf("failed to tick time: %w", err)
	}

	// Terminal or missing: return the frozen value without touching it.
	err = r.sqlDB.QueryRowContext(ctx, `
        SELECT time_remaining_ms FROM challenges WHERE id = $1
    `, id).Scan(&ms)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, ErrNotFound
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read frozen time: %w", err)
	}
	return time.Duration(ms) * time.Millisecond, false, nil
}

// ClaimWinner writes the claimant into the wave's winner slot only if the
// slot is still empty. Postgres arrays are 1-indexed, so the wave number
// addresses its own slot. Exactly one concurrent caller observes a
// rows-affected count of 1.
func (r *PostgresRepository) ClaimWinner(ctx context.Context, id uuid.UUID, wave int, claimant string) (bool, error) {
	res, err := r.sqlDB.ExecContext(ctx, `
        UPDATE challenges
        SET winners[$2] = $3, updated_at = now()
        WHERE id = $1 AND winners[$2] = ''
    `, id, wave, claimant)
	if err != nil {
		return false, fmt.Errorf("failed to claim winner: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read claim result: %w", err)
	}
	return n == 1, nil
}

func (r *PostgresRepository) AppendWaveClear(ctx context.Context, id uuid.UUID, entry models.WaveClear) error {
	_, err := r.sqlDB.ExecContext(ctx, `
        INSERT INTO wave_clears (challenge_id, wave, claimant, word, cleared_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (challenge_id, wave) DO NOTHING
    `, id, entry.Wave, entry.Claimant, entry.Word, entry.ClearedAt)
	if err != nil {
		return fmt.Errorf("failed to append wave clear: %w", err)
	}
	return nil
}

// SetStatus transitions a running challenge to the given status. It
// returns true only for the caller whose transition applied; terminal
// statuses never change again, so repeated loss detection is a no-op.
func (r *PostgresRepository) SetStatus(ctx context.Context, id uuid.UUID, status models.ChallengeStatus) (bool, error) {
	res, err := r.sqlDB.ExecContext(ctx, `
        UPDATE challenges
        SET status = $2, updated_at = now()
        WHERE id = $1 AND status = $3
    `, id, status, models.ChallengeStatusRunning)
	if err != nil {
		return false, fmt.Errorf("failed to set status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read status result: %w", err)
	}
	return n == 1, nil
}
