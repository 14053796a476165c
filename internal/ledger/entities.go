package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"

	"github.com/tinoosan/bukubesar/internal/amount"
	"github.com/tinoosan/bukubesar/internal/meta"
)

// TransactionType fixes which side of an entry a row represents, and for accounts
// which side increases the balance.
type TransactionType string

const (
	// Debit records a value on the debit side.
	Debit TransactionType = "DEBIT"
	// Credit records a value on the credit side.
	Credit TransactionType = "CREDIT"
)

// Valid reports whether t is DEBIT or CREDIT.
func (t TransactionType) Valid() bool { return t == Debit || t == Credit }

// ReportType selects the financial statement an account reports into.
type ReportType string

const (
	// ReportTypeBalanceSheet accounts carry over between periods (neraca).
	ReportTypeBalanceSheet ReportType = "NERACA"
	// ReportTypeProfitLoss accounts feed the net-income (SHU) calculation (laba rugi).
	ReportTypeProfitLoss ReportType = "LABA_RUGI"
)

// Valid reports whether r is a known report type.
func (r ReportType) Valid() bool { return r == ReportTypeBalanceSheet || r == ReportTypeProfitLoss }

// Status is the posting state of ledger and journal rows.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusPosted  Status = "POSTED"
)

// Balances holds the running and carried-forward totals shared by both account levels.
type Balances struct {
	AmountDebit              money.Amount
	AmountCredit             money.Amount
	AccumulationAmountDebit  money.Amount
	AccumulationAmountCredit money.Amount
}

// GeneralAccount is a roll-up account. Its running balances are only written by the
// neraca akhir roll-up.
type GeneralAccount struct {
	ID              uuid.UUID
	AccountNumber   string
	Name            string
	Category        string
	ReportType      ReportType
	TransactionType TransactionType
	Balances
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// DetailAccount is a leaf account under exactly one general account. Its balances
// change only through posting and unposting of journal rows that reference it.
type DetailAccount struct {
	ID               uuid.UUID
	AccountNumber    string
	Name             string
	Category         string
	ReportType       ReportType
	TransactionType  TransactionType
	GeneralAccountID uuid.UUID
	Balances
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// Ledger is a user-facing single-sided transaction line.
type Ledger struct {
	ID               uuid.UUID
	ReferenceNumber  string
	Amount           money.Amount
	Description      string
	LedgerType       string
	TransactionType  TransactionType
	LedgerDate       time.Time
	Status           Status
	DetailAccountID  uuid.UUID
	GeneralAccountID uuid.UUID
	PostedAt         *time.Time
	CreatedBy        string
	UpdatedBy        string
	// Metadata holds free-form attributes captured at entry time (e.g. source document).
	Metadata  meta.Metadata
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// JournalLedger is the double-entry mirror of a posted Ledger row. Exactly one of
// Debit and Credit is non-zero. Accounts are referenced by number.
type JournalLedger struct {
	ID                   uuid.UUID
	LedgerID             uuid.UUID
	Description          string
	Debit                money.Amount
	Credit               money.Amount
	Status               Status
	JournalDate          time.Time
	DetailAccountNumber  string
	GeneralAccountNumber string
	PostedAt             *time.Time
	CreatedBy            string
	UpdatedBy            string
	CreatedAt            time.Time
	// LedgerUpdatedBy and LedgerUpdatedAt hold the source ledger's audit pair from
	// before it was posted. Unposting writes them back.
	LedgerUpdatedBy string
	LedgerUpdatedAt time.Time
}

// NetIncomeRecord (sisa hasil usaha) stores the net income posted for a fiscal year.
// Once AccountingClose is set the record and its year are immutable.
type NetIncomeRecord struct {
	ID              uuid.UUID
	Year            int
	Amount          money.Amount
	AccountNumber   string
	AccountingClose bool
	CreatedBy       string
	UpdatedBy       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ZeroBalances returns all four balance fields set to zero in the ledger currency.
func ZeroBalances() Balances {
	z := amount.Zero()
	return Balances{AmountDebit: z, AmountCredit: z, AccumulationAmountDebit: z, AccumulationAmountCredit: z}
}
