// Package postgres provides a pgx-backed implementation of storage.Store.
//
// Every transaction runs at SERIALIZABLE isolation so the posting engine's
// "nothing posted yet" checks stay valid until commit; conflicting transactions
// fail with a serialization error, which is reported as errs.ErrTransient and
// retried by the caller. The schema lives under db/migrations.
package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tinoosan/bukubesar/internal/dictionary"
	"github.com/tinoosan/bukubesar/internal/storage"
)

// Store holds a pgx connection pool. It is safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// Open establishes a pgx pool using the provided connection string.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ready pings the pool to verify connectivity.
func (s *Store) Ready(ctx context.Context) error { return s.pool.Ping(ctx) }

// BeginTx starts a serializable transaction.
func (s *Store) BeginTx(ctx context.Context) (storage.Tx, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return nil, classify(err)
	}
	return &Tx{tx: tx}, nil
}

// Tx wraps a pgx.Tx.
type Tx struct{ tx pgx.Tx }

func (t *Tx) Commit(ctx context.Context) error { return classify(t.tx.Commit(ctx)) }

// Rollback is a no-op after Commit.
func (t *Tx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if err == pgx.ErrTxClosed {
		return nil
	}
	return classify(err)
}

// SeedDev inserts a minimal chart of accounts (cash, capital, SHU accumulation,
// revenue, expense) for local testing. Accounts that already exist are left alone.
func (s *Store) SeedDev(ctx context.Context, netIncomeAccount string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return classify(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()
	now := time.Now().UTC()
	for _, g := range dictionary.DevChart(netIncomeAccount) {
		gid := uuid.New()
		err := tx.QueryRow(ctx, `
			insert into general_accounts (id, account_number, name, category, report_type, transaction_type, created_at, updated_at)
			values ($1,$2,$3,$4,$5,$6,$7,$7)
			on conflict (account_number) do update set account_number = excluded.account_number
			returning id
		`, gid, g.Number, g.Name, g.Category, string(g.ReportType), string(g.TransactionType), now).Scan(&gid)
		if err != nil {
			return classify(err)
		}
		for _, d := range g.Details {
			if _, err := tx.Exec(ctx, `
				insert into detail_accounts (id, account_number, name, category, report_type, transaction_type, general_account_id, created_at, updated_at)
				values ($1,$2,$3,$4,$5,$6,$7,$8,$8)
				on conflict (account_number) do nothing
			`, uuid.New(), d.Number, d.Name, g.Category, string(g.ReportType), string(g.TransactionType), gid, now); err != nil {
				return classify(err)
			}
		}
	}
	return classify(tx.Commit(ctx))
}
