// Package entries implements the ledger-row rules: rows are created PENDING against an
// existing detail account and may only be edited or soft-deleted until they are posted.
package entries

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"

	"github.com/tinoosan/bukubesar/internal/accountno"
	"github.com/tinoosan/bukubesar/internal/amount"
	"github.com/tinoosan/bukubesar/internal/errs"
	"github.com/tinoosan/bukubesar/internal/ledger"
	"github.com/tinoosan/bukubesar/internal/meta"
	"github.com/tinoosan/bukubesar/internal/service/txn"
	"github.com/tinoosan/bukubesar/internal/storage"
)

// Operation names passed to the Runner.
const (
	OpCreateLedger = "create_ledger"
	OpListLedgers  = "list_ledgers"
	OpGetLedger    = "get_ledger"
	OpUpdateLedger = "update_ledger"
	OpDeleteLedger = "delete_ledger"
)

// MaxReferenceLen bounds ReferenceNumber.
const MaxReferenceLen = 64

// Runner executes a unit of work atomically.
type Runner interface {
	Run(ctx context.Context, op string, fn txn.Func) error
}

// Input carries the user-editable fields of a ledger row.
type Input struct {
	ReferenceNumber     string
	Amount              money.Amount
	Description         string
	LedgerType          string
	TransactionType     ledger.TransactionType
	LedgerDate          time.Time
	DetailAccountNumber string
	Metadata            meta.Metadata
}

// Filter selects ledgers by calendar day range [From, To] and status.
type Filter struct {
	From   time.Time
	To     time.Time
	Status ledger.Status
}

type Service interface {
	ValidateInput(in Input) error
	Create(ctx context.Context, in Input, user string) (ledger.Ledger, error)
	List(ctx context.Context, f Filter) ([]ledger.Ledger, error)
	Get(ctx context.Context, id uuid.UUID) (ledger.Ledger, error)
	Update(ctx context.Context, id uuid.UUID, in Input, user string) (ledger.Ledger, error)
	Delete(ctx context.Context, id uuid.UUID, user string) error
}

type service struct {
	tx  Runner
	loc *time.Location
	now func() time.Time
}

// New constructs the entries service. loc sets day boundaries for List; nil means UTC.
func New(runner Runner, loc *time.Location, now func() time.Time) Service {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &service{tx: runner, loc: loc, now: now}
}

// ValidateInput checks the fields that do not need the store.
func (s *service) ValidateInput(in Input) error {
	ref := strings.TrimSpace(in.ReferenceNumber)
	if ref == "" {
		return fmt.Errorf("%w: reference_number required", errs.ErrInvalid)
	}
	if len(ref) > MaxReferenceLen {
		return fmt.Errorf("%w: reference_number longer than %d", errs.ErrInvalid, MaxReferenceLen)
	}
	if amount.Minor(in.Amount) <= 0 {
		return fmt.Errorf("%w: amount must be > 0", errs.ErrInvalidAmount)
	}
	if !in.TransactionType.Valid() {
		return fmt.Errorf("%w: transaction_type must be DEBIT or CREDIT", errs.ErrInvalid)
	}
	if in.LedgerDate.IsZero() {
		return fmt.Errorf("%w: ledger_date required", errs.ErrInvalidDate)
	}
	if !accountno.IsValid(accountno.Normalize(in.DetailAccountNumber)) {
		return fmt.Errorf("%w: detail_account_number invalid", errs.ErrInvalid)
	}
	if err := in.Metadata.Validate(); err != nil {
		return fmt.Errorf("%w: %w", errs.ErrInvalid, err)
	}
	return nil
}

// apply copies in onto l after resolving the detail account.
func apply(ctx context.Context, tx storage.Tx, l *ledger.Ledger, in Input) error {
	number := accountno.Normalize(in.DetailAccountNumber)
	d, err := tx.DetailAccountByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return fmt.Errorf("%w: detail account %s", errs.ErrAccountNotFound, number)
		}
		return err
	}
	l.ReferenceNumber = strings.TrimSpace(in.ReferenceNumber)
	l.Amount = amount.MustFromMinor(amount.Minor(in.Amount))
	l.Description = strings.TrimSpace(in.Description)
	l.LedgerType = strings.TrimSpace(in.LedgerType)
	l.TransactionType = in.TransactionType
	l.LedgerDate = in.LedgerDate
	l.DetailAccountID = d.ID
	l.GeneralAccountID = d.GeneralAccountID
	l.Metadata = meta.New(in.Metadata)
	return nil
}

func (s *service) Create(ctx context.Context, in Input, user string) (ledger.Ledger, error) {
	if err := s.ValidateInput(in); err != nil {
		return ledger.Ledger{}, err
	}
	var out ledger.Ledger
	err := s.tx.Run(ctx, OpCreateLedger, func(ctx context.Context, tx storage.Tx) error {
		now := s.now().UTC()
		l := ledger.Ledger{
			ID:        uuid.New(),
			Status:    ledger.StatusPending,
			CreatedBy: user,
			UpdatedBy: user,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := apply(ctx, tx, &l, in); err != nil {
			return err
		}
		created, err := tx.CreateLedger(ctx, l)
		if err != nil {
			return err
		}
		out = created
		return nil
	})
	return out, err
}

func (s *service) List(ctx context.Context, f Filter) ([]ledger.Ledger, error) {
	q := storage.LedgerQuery{Status: f.Status}
	if f.Status != "" && f.Status != ledger.StatusPending && f.Status != ledger.StatusPosted {
		return nil, fmt.Errorf("%w: status must be PENDING or POSTED", errs.ErrInvalid)
	}
	if !f.From.IsZero() {
		q.From = ledger.DayOf(f.From, s.loc).Start
	}
	if !f.To.IsZero() {
		q.To = ledger.DayOf(f.To, s.loc).End
	}
	if !q.From.IsZero() && !q.To.IsZero() && !q.From.Before(q.To) {
		return nil, fmt.Errorf("%w: from is after to", errs.ErrInvalidDate)
	}
	var out []ledger.Ledger
	err := s.tx.Run(ctx, OpListLedgers, func(ctx context.Context, tx storage.Tx) error {
		var err error
		out, err = tx.ListLedgers(ctx, q)
		return err
	})
	return out, err
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (ledger.Ledger, error) {
	var out ledger.Ledger
	err := s.tx.Run(ctx, OpGetLedger, func(ctx context.Context, tx storage.Tx) error {
		var err error
		out, err = tx.LedgerByID(ctx, id)
		return err
	})
	return out, err
}

// pending loads a ledger and refuses it once posted.
func pending(ctx context.Context, tx storage.Tx, id uuid.UUID) (ledger.Ledger, error) {
	l, err := tx.LedgerByID(ctx, id)
	if err != nil {
		return ledger.Ledger{}, err
	}
	if l.Status != ledger.StatusPending {
		return ledger.Ledger{}, fmt.Errorf("%w: ledger %s is %s", errs.ErrImmutable, id, l.Status)
	}
	return l, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, in Input, user string) (ledger.Ledger, error) {
	if err := s.ValidateInput(in); err != nil {
		return ledger.Ledger{}, err
	}
	var out ledger.Ledger
	err := s.tx.Run(ctx, OpUpdateLedger, func(ctx context.Context, tx storage.Tx) error {
		l, err := pending(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := apply(ctx, tx, &l, in); err != nil {
			return err
		}
		l.UpdatedBy = user
		l.UpdatedAt = s.now().UTC()
		out, err = tx.UpdateLedger(ctx, l)
		return err
	})
	return out, err
}

func (s *service) Delete(ctx context.Context, id uuid.UUID, user string) error {
	return s.tx.Run(ctx, OpDeleteLedger, func(ctx context.Context, tx storage.Tx) error {
		l, err := pending(ctx, tx, id)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		l.DeletedAt = &now
		l.UpdatedBy = user
		l.UpdatedAt = now
		_, err = tx.UpdateLedger(ctx, l)
		return err
	})
}
