package posting

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"

	"github.com/tinoosan/bukubesar/internal/amount"
	"github.com/tinoosan/bukubesar/internal/errs"
	"github.com/tinoosan/bukubesar/internal/ledger"
	"github.com/tinoosan/bukubesar/internal/storage"
)

// DefaultNetIncomeAccount is the detail account that receives SHU when none is configured.
const DefaultNetIncomeAccount = "3.3.01"

func validYear(year int) error {
	if year < 1 || year > 9999 {
		return fmt.Errorf("%w: year %d", errs.ErrInvalid, year)
	}
	return nil
}

// CalculateNetIncome sums revenue and expense over profit-and-loss detail accounts. It
// writes nothing.
func (s *service) CalculateNetIncome(ctx context.Context, year int) (NetIncomeCalculation, error) {
	if err := validYear(year); err != nil {
		return NetIncomeCalculation{}, err
	}
	var res NetIncomeCalculation
	err := s.run(ctx, OpCalculateSHU, func(ctx context.Context, tx storage.Tx) error {
		details, err := tx.ListDetailAccounts(ctx, storage.AccountFilter{ReportType: ledger.ReportTypeProfitLoss})
		if err != nil {
			return err
		}
		revenue, expense, net, err := netIncomeOf(details)
		if err != nil {
			return err
		}
		rec, found, err := tx.NetIncomeByYear(ctx, year)
		if err != nil {
			return err
		}
		res = NetIncomeCalculation{Year: year, Revenue: revenue, Expense: expense, NetIncome: net, RecordExists: found}
		if found {
			res.Closed = rec.AccountingClose
			res.Record = &rec
		}
		return nil
	})
	if err != nil {
		return NetIncomeCalculation{}, err
	}
	return res, nil
}

// PostNetIncome records amt as the year's SHU and moves it into the designated
// account's accumulation balance. Posting again for an open year replaces the earlier
// contribution instead of adding to it: the record's Amount becomes amt, and only the
// difference from the previous post reaches the account.
func (s *service) PostNetIncome(ctx context.Context, year int, amt money.Amount, user string) (ledger.NetIncomeRecord, error) {
	if err := validYear(year); err != nil {
		return ledger.NetIncomeRecord{}, err
	}
	amt, err := amount.ParseSigned(amt)
	if err != nil {
		return ledger.NetIncomeRecord{}, err
	}
	var saved ledger.NetIncomeRecord
	err = s.run(ctx, OpPostSHU, func(ctx context.Context, tx storage.Tx) error {
		now := s.timestamp()
		prev, found, err := tx.NetIncomeByYear(ctx, year)
		if err != nil {
			return err
		}
		if found && prev.AccountingClose {
			return fmt.Errorf("%w: SHU %d is closed", errs.ErrPeriodClosed, year)
		}

		debit, credit := accumulationSplit(amt)
		if found {
			oldDebit, oldCredit := accumulationSplit(prev.Amount)
			if prev.AccountNumber != s.shu {
				if err := applyAccumulation(ctx, tx, prev.AccountNumber, amount.Neg(oldDebit), amount.Neg(oldCredit), now); err != nil {
					return err
				}
			} else {
				if debit, err = amount.Sub(debit, oldDebit); err != nil {
					return err
				}
				if credit, err = amount.Sub(credit, oldCredit); err != nil {
					return err
				}
			}
		}
		if err := applyAccumulation(ctx, tx, s.shu, debit, credit, now); err != nil {
			return err
		}

		saved, err = tx.SaveNetIncome(ctx, ledger.NetIncomeRecord{
			ID:            uuid.New(),
			Year:          year,
			Amount:        amt,
			AccountNumber: s.shu,
			CreatedBy:     user,
			UpdatedBy:     user,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
		return err
	})
	if err != nil {
		return ledger.NetIncomeRecord{}, err
	}
	s.log.Info("shu posted", "year", year, "amount", amount.String(saved.Amount), "account", saved.AccountNumber, "user", user)
	return saved, nil
}

// CloseNetIncome sets the year's accounting-close flag. There is no reopen operation.
func (s *service) CloseNetIncome(ctx context.Context, year int, user string) (ledger.NetIncomeRecord, error) {
	if err := validYear(year); err != nil {
		return ledger.NetIncomeRecord{}, err
	}
	var saved ledger.NetIncomeRecord
	err := s.run(ctx, OpCloseSHU, func(ctx context.Context, tx storage.Tx) error {
		rec, found, err := tx.NetIncomeByYear(ctx, year)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: no SHU record for %d", errs.ErrNotFound, year)
		}
		if rec.AccountingClose {
			return fmt.Errorf("%w: SHU %d is already closed", errs.ErrPeriodClosed, year)
		}
		rec.AccountingClose = true
		rec.UpdatedBy = user
		rec.UpdatedAt = s.timestamp()
		saved, err = tx.SaveNetIncome(ctx, rec)
		return err
	})
	if err != nil {
		return ledger.NetIncomeRecord{}, err
	}
	s.log.Info("shu closed", "year", year, "user", user)
	return saved, nil
}

func applyAccumulation(ctx context.Context, tx storage.Tx, number string, debit, credit money.Amount, at time.Time) error {
	if debit.IsZero() && credit.IsZero() {
		// still surface a missing designated account
		_, err := tx.DetailAccountByNumber(ctx, number)
		return accountErr(err, "net income account %s", number)
	}
	_, err := tx.ApplyDetailDelta(ctx, storage.BalanceDelta{
		AccountNumber: number,
		Debit:         debit,
		Credit:        credit,
		Target:        storage.TargetAccumulation,
		At:            at,
	})
	return accountErr(err, "net income account %s", number)
}
