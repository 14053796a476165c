package txn

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinoosan/bukubesar/internal/errs"
	"github.com/tinoosan/bukubesar/internal/storage"
)

// fakeTx records how it was finished. Query methods are never called here.
type fakeTx struct {
	storage.Queries
	store     *fakeStore
	committed bool
	rolled    bool
}

func (t *fakeTx) Commit(context.Context) error {
	t.committed = true
	if len(t.store.commitErrs) > 0 {
		err := t.store.commitErrs[0]
		t.store.commitErrs = t.store.commitErrs[1:]
		return err
	}
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	t.rolled = true
	return nil
}

type fakeStore struct {
	beginErr   error
	commitErrs []error
	txs        []*fakeTx
}

func (s *fakeStore) BeginTx(context.Context) (storage.Tx, error) {
	if s.beginErr != nil {
		return nil, s.beginErr
	}
	tx := &fakeTx{store: s}
	s.txs = append(s.txs, tx)
	return tx, nil
}

func newTestCoordinator(store storage.Store, attempts int) (*Coordinator, *[]time.Duration) {
	c := New(store, Policy{MaxAttempts: attempts, BaseDelay: 10 * time.Millisecond, MaxDelay: 25 * time.Millisecond},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	var slept []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return c, &slept
}

func TestPolicy_DelayDoublesUpToCeiling(t *testing.T) {
	p := Policy{MaxAttempts: 5, BaseDelay: 50 * time.Millisecond, MaxDelay: time.Second}
	assert.Equal(t, 50*time.Millisecond, p.Delay(1))
	assert.Equal(t, 100*time.Millisecond, p.Delay(2))
	assert.Equal(t, 400*time.Millisecond, p.Delay(4))
	assert.Equal(t, time.Second, p.Delay(6))
	assert.Equal(t, time.Second, p.Delay(30))
}

func TestRun_CommitsOnSuccess(t *testing.T) {
	store := &fakeStore{}
	c, slept := newTestCoordinator(store, 3)
	calls := 0

	err := c.Run(context.Background(), "op", func(context.Context, storage.Tx) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	require.Len(t, store.txs, 1)
	assert.True(t, store.txs[0].committed)
	assert.False(t, store.txs[0].rolled)
	assert.Empty(t, *slept)
}

func TestRun_BusinessErrorRollsBackWithoutRetry(t *testing.T) {
	store := &fakeStore{}
	c, slept := newTestCoordinator(store, 3)
	calls := 0

	err := c.Run(context.Background(), "op", func(context.Context, storage.Tx) error {
		calls++
		return fmt.Errorf("%w: day is posted", errs.ErrAlreadyPosted)
	})
	require.ErrorIs(t, err, errs.ErrAlreadyPosted)
	assert.Equal(t, 1, calls)
	assert.True(t, store.txs[0].rolled)
	assert.False(t, store.txs[0].committed)
	assert.Empty(t, *slept)
}

func TestRun_RetriesTransientBodyError(t *testing.T) {
	store := &fakeStore{}
	c, slept := newTestCoordinator(store, 3)
	calls := 0

	err := c.Run(context.Background(), "op", func(context.Context, storage.Tx) error {
		calls++
		if calls < 3 {
			return fmt.Errorf("%w: deadlock", errs.ErrTransient)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	require.Len(t, store.txs, 3)
	assert.True(t, store.txs[0].rolled)
	assert.True(t, store.txs[1].rolled)
	assert.True(t, store.txs[2].committed)
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, *slept)
}

func TestRun_RetriesTransientCommitError(t *testing.T) {
	store := &fakeStore{commitErrs: []error{fmt.Errorf("%w: serialization failure", errs.ErrTransient)}}
	c, _ := newTestCoordinator(store, 3)
	calls := 0

	err := c.Run(context.Background(), "op", func(context.Context, storage.Tx) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRun_GivesUpAfterMaxAttempts(t *testing.T) {
	store := &fakeStore{}
	c, slept := newTestCoordinator(store, 3)
	calls := 0

	err := c.Run(context.Background(), "post_balance", func(context.Context, storage.Tx) error {
		calls++
		return fmt.Errorf("%w: lock timeout", errs.ErrTransient)
	})
	require.ErrorIs(t, err, errs.ErrTransient)
	assert.Contains(t, err.Error(), "post_balance")
	assert.Equal(t, 3, calls)
	assert.Len(t, *slept, 2)
	for _, tx := range store.txs {
		assert.True(t, tx.rolled)
	}
}

func TestRun_BeginErrorPropagates(t *testing.T) {
	boom := errors.New("pool closed")
	c, _ := newTestCoordinator(&fakeStore{beginErr: boom}, 3)

	err := c.Run(context.Background(), "op", func(context.Context, storage.Tx) error {
		t.Fatal("body must not run")
		return nil
	})
	require.ErrorIs(t, err, boom)
}

func TestRun_CancelledWhileWaiting(t *testing.T) {
	store := &fakeStore{}
	c := New(store, Policy{MaxAttempts: 3, BaseDelay: time.Hour, MaxDelay: time.Hour}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())

	err := c.Run(ctx, "op", func(context.Context, storage.Tx) error {
		cancel()
		return errs.ErrTransient
	})
	require.ErrorIs(t, err, context.Canceled)
	// the last store failure stays visible to callers mapping ErrTransient
	assert.ErrorIs(t, err, errs.ErrTransient)
	assert.Len(t, store.txs, 1)
}

func TestRun_PanicRollsBackAndRepanics(t *testing.T) {
	store := &fakeStore{}
	c, _ := newTestCoordinator(store, 3)

	assert.PanicsWithValue(t, "bug", func() {
		_ = c.Run(context.Background(), "op", func(context.Context, storage.Tx) error {
			panic("bug")
		})
	})
	require.Len(t, store.txs, 1)
	assert.True(t, store.txs[0].rolled)
}

func TestNew_ZeroAttemptsMeansOne(t *testing.T) {
	store := &fakeStore{}
	c, _ := newTestCoordinator(store, 0)
	calls := 0
	err := c.Run(context.Background(), "op", func(context.Context, storage.Tx) error {
		calls++
		return errs.ErrTransient
	})
	require.ErrorIs(t, err, errs.ErrTransient)
	assert.Equal(t, 1, calls)
}
