// Package storage declares the transactional store contract shared by the memory and
// postgres backends. Every read and write the services perform goes through a Tx so
// that a multi-row mutation either commits as a whole or leaves no trace.
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"

	"github.com/tinoosan/bukubesar/internal/ledger"
)

// Store opens transactions.
type Store interface {
	// BeginTx starts a transaction. Implementations must provide at least
	// serializable semantics for the rows the transaction reads and writes.
	BeginTx(ctx context.Context) (Tx, error)
}

// ReadyChecker is optionally implemented by stores to indicate readiness.
type ReadyChecker interface {
	Ready(ctx context.Context) error
}

// Tx is a unit of work. Exactly one of Commit or Rollback must be called.
type Tx interface {
	Queries
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Queries is the full set of typed store operations available inside a transaction.
type Queries interface {
	AccountQueries
	LedgerQueries
	JournalQueries
	NetIncomeQueries
}

// AccountQueries covers the two-level chart of accounts.
type AccountQueries interface {
	// CreateGeneralAccount fails with errs.ErrConflict when the account number is taken.
	CreateGeneralAccount(ctx context.Context, a ledger.GeneralAccount) (ledger.GeneralAccount, error)
	// CreateDetailAccount fails with errs.ErrConflict when the account number is taken.
	CreateDetailAccount(ctx context.Context, a ledger.DetailAccount) (ledger.DetailAccount, error)
	// GeneralAccountByID returns errs.ErrNotFound for missing or soft-deleted rows.
	GeneralAccountByID(ctx context.Context, id uuid.UUID) (ledger.GeneralAccount, error)
	GeneralAccountByNumber(ctx context.Context, number string) (ledger.GeneralAccount, error)
	DetailAccountByID(ctx context.Context, id uuid.UUID) (ledger.DetailAccount, error)
	DetailAccountByNumber(ctx context.Context, number string) (ledger.DetailAccount, error)
	ListGeneralAccounts(ctx context.Context, f AccountFilter) ([]ledger.GeneralAccount, error)
	// ListDetailAccounts returns rows ordered by account number.
	ListDetailAccounts(ctx context.Context, f AccountFilter) ([]ledger.DetailAccount, error)
	// ApplyDetailDelta atomically adds the signed delta to a detail account's balance
	// fields and returns the updated row. Missing accounts yield errs.ErrNotFound and a
	// field that would drop below zero yields errs.ErrNegativeBalance.
	ApplyDetailDelta(ctx context.Context, d BalanceDelta) (ledger.DetailAccount, error)
	// SetGeneralBalance overwrites a general account's running balances.
	SetGeneralBalance(ctx context.Context, b GeneralBalance) (ledger.GeneralAccount, error)
	SoftDeleteGeneralAccount(ctx context.Context, id uuid.UUID, at time.Time) error
	SoftDeleteDetailAccount(ctx context.Context, id uuid.UUID, at time.Time) error
}

// LedgerQueries covers user-facing ledger rows.
type LedgerQueries interface {
	CreateLedger(ctx context.Context, l ledger.Ledger) (ledger.Ledger, error)
	// LedgerByID returns errs.ErrNotFound for missing or soft-deleted rows.
	LedgerByID(ctx context.Context, id uuid.UUID) (ledger.Ledger, error)
	// UpdateLedger replaces the mutable fields of an existing ledger row.
	UpdateLedger(ctx context.Context, l ledger.Ledger) (ledger.Ledger, error)
	// ListLedgers returns matching rows ordered by (LedgerDate, ReferenceNumber, ID).
	ListLedgers(ctx context.Context, q LedgerQuery) ([]ledger.Ledger, error)
	CountLedgers(ctx context.Context, q LedgerQuery) (int, error)
	// SetLedgerStatus transitions the given rows and returns the number updated.
	SetLedgerStatus(ctx context.Context, u StatusUpdate) (int, error)
}

// JournalQueries covers the internal double-entry mirror rows.
type JournalQueries interface {
	CreateJournals(ctx context.Context, js []ledger.JournalLedger) error
	// ListJournals returns matching rows ordered by (JournalDate, DetailAccountNumber, ID).
	ListJournals(ctx context.Context, q JournalQuery) ([]ledger.JournalLedger, error)
	CountJournals(ctx context.Context, q JournalQuery) (int, error)
	SetJournalStatus(ctx context.Context, u StatusUpdate) (int, error)
	// DeleteJournals hard-deletes matching rows and returns the number removed.
	DeleteJournals(ctx context.Context, q JournalQuery) (int, error)
}

// NetIncomeQueries covers the per-year SHU record.
type NetIncomeQueries interface {
	// NetIncomeByYear reports found=false when the year has no record yet.
	NetIncomeByYear(ctx context.Context, year int) (ledger.NetIncomeRecord, bool, error)
	// SaveNetIncome inserts or updates the record keyed by Year.
	SaveNetIncome(ctx context.Context, r ledger.NetIncomeRecord) (ledger.NetIncomeRecord, error)
}

// AccountFilter narrows account listings.
type AccountFilter struct {
	// ReportType, when set, keeps only accounts of that report type.
	ReportType ledger.ReportType
	// GeneralAccountID, when set, keeps only detail accounts under that parent.
	GeneralAccountID uuid.UUID
	IncludeDeleted   bool
}

// BalanceTarget selects which pair of balance fields a delta applies to.
type BalanceTarget int

const (
	// TargetRunning addresses AmountDebit/AmountCredit.
	TargetRunning BalanceTarget = iota
	// TargetAccumulation addresses AccumulationAmountDebit/AccumulationAmountCredit.
	TargetAccumulation
)

// BalanceDelta is a signed change to a detail account's debit/credit pair.
type BalanceDelta struct {
	AccountNumber string
	Debit         money.Amount
	Credit        money.Amount
	Target        BalanceTarget
	At            time.Time
}

// GeneralBalance is the overwrite applied by the neraca akhir roll-up.
type GeneralBalance struct {
	GeneralAccountID uuid.UUID
	Debit            money.Amount
	Credit           money.Amount
	At               time.Time
}

// LedgerQuery selects ledger rows whose LedgerDate is in [From, To).
// A zero From or To leaves that bound open; an empty Status matches both states.
// A non-zero DetailAccountID restricts rows to that account.
type LedgerQuery struct {
	From            time.Time
	To              time.Time
	Status          ledger.Status
	DetailAccountID uuid.UUID
	IncludeDeleted  bool
}

// JournalQuery selects journal rows whose JournalDate is in [From, To).
// A zero From or To leaves that bound open; an empty Status matches both states.
// A non-empty DetailAccountNumber restricts rows to that account.
type JournalQuery struct {
	From                time.Time
	To                  time.Time
	Status              ledger.Status
	DetailAccountNumber string
}

// StatusUpdate transitions rows by ID. PostedAt is cleared when nil.
type StatusUpdate struct {
	IDs       []uuid.UUID
	Status    ledger.Status
	PostedAt  *time.Time
	UpdatedBy string
	At        time.Time
}
