// Package account implements the chart-of-accounts rules: validated, globally unique
// account numbers, category defaults, detail accounts nested under a general account,
// and soft-deletes that are refused while an account still carries value.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tinoosan/bukubesar/internal/accountno"
	"github.com/tinoosan/bukubesar/internal/dictionary"
	"github.com/tinoosan/bukubesar/internal/errs"
	"github.com/tinoosan/bukubesar/internal/ledger"
	"github.com/tinoosan/bukubesar/internal/service/txn"
	"github.com/tinoosan/bukubesar/internal/storage"
)

// Operation names passed to the Runner.
const (
	OpCreateAccount = "create_account"
	OpListAccounts  = "list_accounts"
	OpGetAccount    = "get_account"
	OpDeleteAccount = "delete_account"
)

// ErrNumberExists is returned when an account number is already used at either level.
var ErrNumberExists = fmt.Errorf("%w: account number exists", errs.ErrConflict)

// Runner executes a unit of work atomically.
type Runner interface {
	Run(ctx context.Context, op string, fn txn.Func) error
}

// GeneralInput describes a new general account. ReportType and TransactionType
// default from Category when left empty.
type GeneralInput struct {
	AccountNumber   string
	Name            string
	Category        string
	ReportType      ledger.ReportType
	TransactionType ledger.TransactionType
}

// DetailInput describes a new detail account. Unset classification fields are
// inherited from the parent general account.
type DetailInput struct {
	AccountNumber        string
	GeneralAccountNumber string
	Name                 string
	Category             string
	ReportType           ledger.ReportType
	TransactionType      ledger.TransactionType
}

type Service interface {
	CreateGeneral(ctx context.Context, in GeneralInput) (ledger.GeneralAccount, error)
	CreateDetail(ctx context.Context, in DetailInput) (ledger.DetailAccount, error)
	ListGeneral(ctx context.Context, f storage.AccountFilter) ([]ledger.GeneralAccount, error)
	ListDetail(ctx context.Context, f storage.AccountFilter) ([]ledger.DetailAccount, error)
	GetGeneral(ctx context.Context, number string) (ledger.GeneralAccount, error)
	GetDetail(ctx context.Context, number string) (ledger.DetailAccount, error)
	DeleteGeneral(ctx context.Context, number string) error
	DeleteDetail(ctx context.Context, number string) error
}

type service struct {
	tx  Runner
	now func() time.Time
}

// New constructs the account service. A nil now uses time.Now.
func New(runner Runner, now func() time.Time) Service {
	if now == nil {
		now = time.Now
	}
	return &service{tx: runner, now: now}
}

func normalizeNumber(s string) (string, error) {
	n := accountno.Normalize(s)
	if n == "" {
		return "", fmt.Errorf("%w: account number required", errs.ErrInvalid)
	}
	if !accountno.IsValid(n) {
		return "", fmt.Errorf("%w: account number %q must be dot-separated digits", errs.ErrInvalid, s)
	}
	return n, nil
}

// classify fills report and transaction type from the category and validates the result.
func classify(category string, rt ledger.ReportType, tt ledger.TransactionType) (string, ledger.ReportType, ledger.TransactionType, error) {
	category = strings.ToUpper(strings.TrimSpace(category))
	if category != "" {
		def, ok := dictionary.Lookup(category)
		if !ok {
			return "", "", "", fmt.Errorf("%w: unknown category %q", errs.ErrInvalid, category)
		}
		if rt == "" {
			rt = def.ReportType
		}
		if tt == "" {
			tt = def.TransactionType
		}
	}
	if !rt.Valid() {
		return "", "", "", fmt.Errorf("%w: report_type must be NERACA or LABA_RUGI", errs.ErrInvalid)
	}
	if !tt.Valid() {
		return "", "", "", fmt.Errorf("%w: transaction_type must be DEBIT or CREDIT", errs.ErrInvalid)
	}
	return category, rt, tt, nil
}

func (s *service) CreateGeneral(ctx context.Context, in GeneralInput) (ledger.GeneralAccount, error) {
	number, err := normalizeNumber(in.AccountNumber)
	if err != nil {
		return ledger.GeneralAccount{}, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return ledger.GeneralAccount{}, fmt.Errorf("%w: name required", errs.ErrInvalid)
	}
	category, rt, tt, err := classify(in.Category, in.ReportType, in.TransactionType)
	if err != nil {
		return ledger.GeneralAccount{}, err
	}
	now := s.now().UTC()
	a := ledger.GeneralAccount{
		ID:              uuid.New(),
		AccountNumber:   number,
		Name:            name,
		Category:        category,
		ReportType:      rt,
		TransactionType: tt,
		Balances:        ledger.ZeroBalances(),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	var out ledger.GeneralAccount
	err = s.tx.Run(ctx, OpCreateAccount, func(ctx context.Context, tx storage.Tx) error {
		created, err := tx.CreateGeneralAccount(ctx, a)
		if err != nil {
			return numberErr(err, number)
		}
		out = created
		return nil
	})
	return out, err
}

func (s *service) CreateDetail(ctx context.Context, in DetailInput) (ledger.DetailAccount, error) {
	number, err := normalizeNumber(in.AccountNumber)
	if err != nil {
		return ledger.DetailAccount{}, err
	}
	parentNumber, err := normalizeNumber(in.GeneralAccountNumber)
	if err != nil {
		return ledger.DetailAccount{}, err
	}
	if !strings.HasPrefix(number, parentNumber+".") {
		return ledger.DetailAccount{}, fmt.Errorf("%w: account %s is not nested under %s", errs.ErrInvalid, number, parentNumber)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return ledger.DetailAccount{}, fmt.Errorf("%w: name required", errs.ErrInvalid)
	}
	var out ledger.DetailAccount
	err = s.tx.Run(ctx, OpCreateAccount, func(ctx context.Context, tx storage.Tx) error {
		parent, err := tx.GeneralAccountByNumber(ctx, parentNumber)
		if err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				return fmt.Errorf("%w: general account %s", errs.ErrAccountNotFound, parentNumber)
			}
			return err
		}
		category, rt, tt := in.Category, in.ReportType, in.TransactionType
		if category == "" {
			category = parent.Category
		}
		if rt == "" {
			rt = parent.ReportType
		}
		if tt == "" {
			tt = parent.TransactionType
		}
		category, rt, tt, err = classify(category, rt, tt)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		created, err := tx.CreateDetailAccount(ctx, ledger.DetailAccount{
			ID:               uuid.New(),
			AccountNumber:    number,
			Name:             name,
			Category:         category,
			ReportType:       rt,
			TransactionType:  tt,
			GeneralAccountID: parent.ID,
			Balances:         ledger.ZeroBalances(),
			CreatedAt:        now,
			UpdatedAt:        now,
		})
		if err != nil {
			return numberErr(err, number)
		}
		out = created
		return nil
	})
	return out, err
}

func numberErr(err error, number string) error {
	if errors.Is(err, errs.ErrConflict) {
		return fmt.Errorf("%w: %s", ErrNumberExists, number)
	}
	return err
}

func (s *service) ListGeneral(ctx context.Context, f storage.AccountFilter) ([]ledger.GeneralAccount, error) {
	var out []ledger.GeneralAccount
	err := s.tx.Run(ctx, OpListAccounts, func(ctx context.Context, tx storage.Tx) error {
		var err error
		out, err = tx.ListGeneralAccounts(ctx, f)
		return err
	})
	return out, err
}

func (s *service) ListDetail(ctx context.Context, f storage.AccountFilter) ([]ledger.DetailAccount, error) {
	var out []ledger.DetailAccount
	err := s.tx.Run(ctx, OpListAccounts, func(ctx context.Context, tx storage.Tx) error {
		var err error
		out, err = tx.ListDetailAccounts(ctx, f)
		return err
	})
	return out, err
}

func (s *service) GetGeneral(ctx context.Context, number string) (ledger.GeneralAccount, error) {
	var out ledger.GeneralAccount
	err := s.tx.Run(ctx, OpGetAccount, func(ctx context.Context, tx storage.Tx) error {
		var err error
		out, err = tx.GeneralAccountByNumber(ctx, accountno.Normalize(number))
		return err
	})
	return out, err
}

func (s *service) GetDetail(ctx context.Context, number string) (ledger.DetailAccount, error) {
	var out ledger.DetailAccount
	err := s.tx.Run(ctx, OpGetAccount, func(ctx context.Context, tx storage.Tx) error {
		var err error
		out, err = tx.DetailAccountByNumber(ctx, accountno.Normalize(number))
		return err
	})
	return out, err
}

// DeleteGeneral soft-deletes a general account with no live detail accounts and zero balances.
func (s *service) DeleteGeneral(ctx context.Context, number string) error {
	return s.tx.Run(ctx, OpDeleteAccount, func(ctx context.Context, tx storage.Tx) error {
		a, err := tx.GeneralAccountByNumber(ctx, accountno.Normalize(number))
		if err != nil {
			return err
		}
		children, err := tx.ListDetailAccounts(ctx, storage.AccountFilter{GeneralAccountID: a.ID})
		if err != nil {
			return err
		}
		if len(children) > 0 {
			return fmt.Errorf("%w: general account %s still has %d detail accounts", errs.ErrConflict, a.AccountNumber, len(children))
		}
		if !isZero(a.Balances) {
			return fmt.Errorf("%w: general account %s has a balance", errs.ErrConflict, a.AccountNumber)
		}
		return tx.SoftDeleteGeneralAccount(ctx, a.ID, s.now().UTC())
	})
}

// DeleteDetail soft-deletes a detail account with zero balances that no live
// ledger or journal row references.
func (s *service) DeleteDetail(ctx context.Context, number string) error {
	return s.tx.Run(ctx, OpDeleteAccount, func(ctx context.Context, tx storage.Tx) error {
		a, err := tx.DetailAccountByNumber(ctx, accountno.Normalize(number))
		if err != nil {
			return err
		}
		if !isZero(a.Balances) {
			return fmt.Errorf("%w: detail account %s has a balance", errs.ErrConflict, a.AccountNumber)
		}
		ledgers, err := tx.CountLedgers(ctx, storage.LedgerQuery{DetailAccountID: a.ID})
		if err != nil {
			return err
		}
		if ledgers > 0 {
			return fmt.Errorf("%w: detail account %s has %d ledgers", errs.ErrConflict, a.AccountNumber, ledgers)
		}
		journals, err := tx.CountJournals(ctx, storage.JournalQuery{DetailAccountNumber: a.AccountNumber})
		if err != nil {
			return err
		}
		if journals > 0 {
			return fmt.Errorf("%w: detail account %s has %d journal rows", errs.ErrConflict, a.AccountNumber, journals)
		}
		return tx.SoftDeleteDetailAccount(ctx, a.ID, s.now().UTC())
	})
}

func isZero(b ledger.Balances) bool {
	return b.AmountDebit.IsZero() && b.AmountCredit.IsZero() &&
		b.AccumulationAmountDebit.IsZero() && b.AccumulationAmountCredit.IsZero()
}
