// Package txn runs units of work atomically against a storage.Store and retries
// them, as a whole, when the store reports a transient failure.
package txn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tinoosan/bukubesar/internal/errs"
	"github.com/tinoosan/bukubesar/internal/storage"
)

var (
	txRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bukubesar",
			Name:      "tx_retries_total",
			Help:      "Transactions retried after a transient store failure",
		},
		[]string{"op"},
	)
	txExhaustedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bukubesar",
			Name:      "tx_exhausted_total",
			Help:      "Transactions abandoned after the retry bound was reached",
		},
		[]string{"op"},
	)
)

// Policy bounds retries. Delay for attempt n (1-based) is BaseDelay*2^(n-1), capped at MaxDelay.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultPolicy is 3 attempts starting at 50ms, capped at 1s.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, BaseDelay: 50 * time.Millisecond, MaxDelay: time.Second}
}

// Delay returns the wait after the given failed attempt.
func (p Policy) Delay(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Func is the body of a transaction. It must not retain tx after returning.
type Func func(ctx context.Context, tx storage.Tx) error

// Coordinator wraps every unit of work in a single store transaction.
type Coordinator struct {
	store  storage.Store
	policy Policy
	log    *slog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// New constructs a Coordinator. A zero MaxAttempts means a single attempt.
func New(store storage.Store, policy Policy, logger *slog.Logger) *Coordinator {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{store: store, policy: policy, log: logger, sleep: sleepCtx}
}

// Run executes fn inside a transaction, committing on success and rolling back on any
// error or panic. Errors wrapping errs.ErrTransient cause the whole body to be re-run
// in a fresh transaction until the policy is exhausted; every other error is returned
// unchanged on the first occurrence.
func (c *Coordinator) Run(ctx context.Context, op string, fn Func) error {
	for attempt := 1; ; attempt++ {
		err := c.once(ctx, fn)
		if err == nil {
			return nil
		}
		if !errors.Is(err, errs.ErrTransient) {
			return err
		}
		if attempt >= c.policy.MaxAttempts {
			txExhaustedTotal.WithLabelValues(op).Inc()
			c.log.Error("transaction abandoned", "op", op, "attempts", attempt, "err", err)
			return fmt.Errorf("%s: gave up after %d attempts: %w", op, attempt, err)
		}
		delay := c.policy.Delay(attempt)
		txRetriesTotal.WithLabelValues(op).Inc()
		c.log.Warn("transaction retry", "op", op, "attempt", attempt, "delay", delay.String(), "err", err)
		if serr := c.sleep(ctx, delay); serr != nil {
			return fmt.Errorf("%s: %w after %w", op, serr, err)
		}
	}
}

func (c *Coordinator) once(ctx context.Context, fn Func) (err error) {
	tx, err := c.store.BeginTx(ctx)
	if err != nil {
		return err
	}
	done := false
	defer func() {
		if done {
			return
		}
		// context.Background so a cancelled request still releases locks
		_ = tx.Rollback(context.Background())
		if rec := recover(); rec != nil {
			panic(rec)
		}
	}()
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	done = true
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
