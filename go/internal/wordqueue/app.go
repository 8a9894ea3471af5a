package wordqueue

import (
	"context"
	"fmt"
)

// QueueRepository defines what the word queue app layer needs from storage.
// Shift must be atomic with respect to concurrent shifters.
type QueueRepository interface {
	Append(ctx context.Context, set WordSet) error
	Prepend(ctx context.Context, set WordSet) error
	Overwrite(ctx context.Context, sets []WordSet) error
	Shift(ctx context.Context) (*WordSet, error)
	PeekAll(ctx context.Context) ([]WordSet, error)
	Clear(ctx context.Context) error
	Size(ctx context.Context) (int, error)
}

// App handles word queue business logic. Every mutating operation
// validates its input before touching storage.
type App struct {
	repo QueueRepository
}

// NewApp creates a new word queue App.
func NewApp(repo QueueRepository) *App {
	return &App{repo: repo}
}

// Append adds a word set to the tail of the queue.
func (a *App) Append(ctx context.Context, set WordSet) error {
	if err := set.Validate(); err != nil {
		return err
	}
	if err := a.repo.Append(ctx, set); err != nil {
		return fmt.Errorf("failed to append word set: %w", err)
	}
	return nil
}

// Prepend inserts a word set ahead of the current head.
func (a *App) Prepend(ctx context.Context, set WordSet) error {
	if err := set.Validate(); err != nil {
		return err
	}
	if err := a.repo.Prepend(ctx, set); err != nil {
		return fmt.Errorf("failed to prepend word set: %w", err)
	}
	return nil
}

// Overwrite replaces the whole queue with the given sets. The queue is
// left unchanged if any set fails validation.
func (a *App) Overwrite(ctx context.Context, sets []WordSet) error {
	if err := validateSets(sets); err != nil {
		return err
	}
	if err := a.repo.Overwrite(ctx, sets); err != nil {
		return fmt.Errorf("failed to overwrite word queue: %w", err)
	}
	return nil
}

// Shift removes and returns the head of the queue in pure FIFO order, or
// nil if the queue is empty.
func (a *App) Shift(ctx context.Context) (*WordSet, error) {
	set, err := a.repo.Shift(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to shift word queue: %w", err)
	}
	return set, nil
}

// PeekAll returns the queued sets in FIFO order without consuming them.
func (a *App) PeekAll(ctx context.Context) ([]WordSet, error) {
	sets, err := a.repo.PeekAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to peek word queue: %w", err)
	}
	return sets, nil
}

// Clear removes every queued set.
func (a *App) Clear(ctx context.Context) error {
	if err := a.repo.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear word queue: %w", err)
	}
	return nil
}

// Size returns the number of queued sets.
func (a *App) Size(ctx context.Context) (int, error) {
	n, err := a.repo.Size(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get word queue size: %w", err)
	}
	return n, nil
}
