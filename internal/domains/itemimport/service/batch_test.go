package service

import (
	"context"
	"errors"
	"testing"

	"inventory-backend/internal/domains/itemimport/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchController_CommitsEveryNSuccesses(t *testing.T) {
	store := newMemStore()
	b := NewBatchController(&fakeDB{store: store}, 3)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		_, err := b.Tx(ctx)
		require.NoError(t, err)
		require.NoError(t, b.RowDone(ctx, i%2 == 0)) // 4 success / 3 failed
	}
	require.NoError(t, b.Finish(ctx))

	assert.Equal(t, 2, store.commits)
	assert.Equal(t, 2, b.Committed())
}

func TestBatchController_FinishWithoutWindow(t *testing.T) {
	store := newMemStore()
	b := NewBatchController(&fakeDB{store: store}, 10)

	require.NoError(t, b.Finish(context.Background()))
	require.NoError(t, b.Abort(context.Background()))
	assert.Equal(t, 0, store.begins)
}

func TestBatchController_BeginFailure(t *testing.T) {
	store := newMemStore()
	store.beginErr = errors.New("too many connections")
	b := NewBatchController(&fakeDB{store: store}, 10)

	_, err := b.Tx(context.Background())
	assert.ErrorIs(t, err, model.ErrCommitFailed)
}

func TestBatchController_AbortUsesDetachedContext(t *testing.T) {
	store := newMemStore()
	b := NewBatchController(&fakeDB{store: store}, 10)
	ctx, cancel := context.WithCancel(context.Background())

	_, err := b.Tx(ctx)
	require.NoError(t, err)
	cancel()

	require.NoError(t, b.Abort(ctx))
	assert.Equal(t, 1, store.rollbacks)
	assert.Equal(t, 0, b.Committed())
}
