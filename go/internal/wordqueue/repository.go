package wordqueue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/hordle/horde/go/internal/sqlutil"
)

// Repository is the Postgres-backed word queue. FIFO order is kept with a
// signed position column: append allocates max+1, prepend allocates min-1,
// so both directions stay single-statement.
type Repository struct {
	sqlDB *sql.DB
}

func NewRepository(sqlDB *sql.DB) *Repository {
	return &Repository{sqlDB: sqlDB}
}

const queueSchema = `
CREATE TABLE IF NOT EXISTS word_queue (
    position BIGINT PRIMARY KEY,
    words    TEXT[] NOT NULL,
    queued_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// EnsureSchema creates the backing table if it does not exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.sqlDB.ExecContext(ctx, queueSchema); err != nil {
		return fmt.Errorf("failed to ensure word_queue schema: %w", err)
	}
	return nil
}

func (r *Repository) Append(ctx context.Context, set WordSet) error {
	_, err := r.sqlDB.ExecContext(ctx, `
        INSERT INTO word_queue (position, words)
        SELECT COALESCE(MAX(position), 0) + 1, $1 FROM word_queue
    `, pq.Array(set.Words))
	if err != nil {
		return fmt.Errorf("failed to append word set: %w", err)
	}
	return nil
}

func (r *Repository) Prepend(ctx context.Context, set WordSet) error {
	_, err := r.sqlDB.ExecContext(ctx, `
        INSERT INTO word_queue (position, words)
        SELECT COALESCE(MIN(position), 0) - 1, $1 FROM word_queue
    `, pq.Array(set.Words))
	if err != nil {
		return fmt.Errorf("failed to prepend word set: %w", err)
	}
	return nil
}

func (r *Repository) Overwrite(ctx context.Context, sets []WordSet) error {
	err := sqlutil.Run(ctx, r.sqlDB, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM word_queue`); err != nil {
			return err
		}
		for i, set := range sets {
			if _, err := tx.ExecContext(ctx, `
                INSERT INTO word_queue (position, words) VALUES ($1, $2)
            `, int64(i+1), pq.Array(set.Words)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to overwrite word queue: %w", err)
	}
	return nil
}

// Shift deletes and returns the head set. The nested select plus DELETE
// keeps concurrent shifters from draining the same row.
func (r *Repository) Shift(ctx context.Context) (*WordSet, error) {
	var words []string
	err := r.sqlDB.QueryRowContext(ctx, `
        DELETE FROM word_queue
        WHERE position = (
            SELECT position FROM word_queue
            ORDER BY position
            LIMIT 1
            FOR UPDATE SKIP LOCKED
        )
        RETURNING words
    `).Scan(pq.Array(&words))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to shift word queue: %w", err)
	}
	return &WordSet{Words: words}, nil
}

func (r *Repository) PeekAll(ctx context.Context) ([]WordSet, error) {
	rows, err := r.sqlDB.QueryContext(ctx, `
        SELECT words FROM word_queue ORDER BY position
    `)
	if err != nil {
		return nil, fmt.Errorf("failed to list word queue: %w", err)
	}
	defer rows.Close()

	var sets []WordSet
	for rows.Next() {
		var words []string
		if err := rows.Scan(pq.Array(&words)); err != nil {
			return nil, fmt.Errorf("failed to scan word set: %w", err)
		}
		sets = append(sets, WordSet{Words: words})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate word queue: %w", err)
	}
	return sets, nil
}

func (r *Repository) Clear(ctx context.Context) error {
	if _, err := r.sqlDB.ExecContext(ctx, `DELETE FROM word_queue`); err != nil {
		return fmt.Errorf("failed to clear word queue: %w", err)
	}
	return nil
}

func (r *Repository) Size(ctx context.Context) (int, error) {
	var n int
	if err := r.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM word_queue`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count word queue: %w", err)
	}
	return n, nil
}
