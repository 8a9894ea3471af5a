package wordqueue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	return NewApp(NewMemoryRepository())
}

func TestAppendShiftFIFO(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t)

	require.NoError(t, app.Append(ctx, WordSet{Words: []string{"sun", "moon"}}))
	require.NoError(t, app.Append(ctx, WordSet{Words: []string{"star"}}))

	first, err := app.Shift(ctx)
	require.NoError(t, err)
	require.NotNil(t, first)
	require.Equal(t, []string{"sun", "moon"}, first.Words)

	second, err := app.Shift(ctx)
	require.NoError(t, err)
	require.NotNil(t, second)
	require.Equal(t, []string{"star"}, second.Words)

	empty, err := app.Shift(ctx)
	require.NoError(t, err)
	require.Nil(t, empty)
}

func TestPrependInsertsAheadOfHead(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t)

	require.NoError(t, app.Append(ctx, WordSet{Words: []string{"second"}}))
	require.NoError(t, app.Prepend(ctx, WordSet{Words: []string{"first"}}))

	head, err := app.Shift(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"first"}, head.Words)
}

func TestValidationFailureLeavesQueueUnchanged(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t)

	require.NoError(t, app.Append(ctx, WordSet{Words: []string{"keep"}}))

	err := app.Append(ctx, WordSet{Words: nil})
	require.ErrorIs(t, err, ErrInvalidWordSet)

	err = app.Append(ctx, WordSet{Words: []string{"ok", "  "}})
	require.ErrorIs(t, err, ErrInvalidWordSet)

	err = app.Overwrite(ctx, []WordSet{
		{Words: []string{"valid"}},
		{Words: []string{""}},
	})
	require.ErrorIs(t, err, ErrInvalidWordSet)

	sets, err := app.PeekAll(ctx)
	require.NoError(t, err)
	require.Len(t, sets, 1)
	require.Equal(t, []string{"keep"}, sets[0].Words)
}

func TestOverwriteReplacesQueue(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t)

	require.NoError(t, app.Append(ctx, WordSet{Words: []string{"old"}}))
	require.NoError(t, app.Overwrite(ctx, []WordSet{
		{Words: []string{"new-one"}},
		{Words: []string{"new-two"}},
	}))

	n, err := app.Size(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	head, err := app.Shift(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"new-one"}, head.Words)
}

func TestClearAndSize(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t)

	require.NoError(t, app.Append(ctx, WordSet{Words: []string{"a"}}))
	require.NoError(t, app.Append(ctx, WordSet{Words: []string{"b"}}))

	require.NoError(t, app.Clear(ctx))

	n, err := app.Size(ctx)
	require.NoError(t, err)
	require.Zero(t, n)
}
