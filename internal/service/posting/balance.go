package posting

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tinoosan/bukubesar/internal/errs"
	"github.com/tinoosan/bukubesar/internal/ledger"
	"github.com/tinoosan/bukubesar/internal/storage"
)

// PostBalance applies every PENDING journal row dated up to and including the cutoff
// day to its detail account's running balance, then marks the rows POSTED.
func (s *service) PostBalance(ctx context.Context, cutoff time.Time, user string) (BalanceResult, error) {
	day := ledger.DayOf(cutoff, s.loc)
	var res BalanceResult
	err := s.run(ctx, OpPostBalance, func(ctx context.Context, tx storage.Tx) error {
		now := s.timestamp()
		posted, err := tx.CountJournals(ctx, storage.JournalQuery{To: day.End, Status: ledger.StatusPosted})
		if err != nil {
			return err
		}
		if posted > 0 {
			return fmt.Errorf("%w: %d journal rows up to %s are already posted", errs.ErrAlreadyPosted, posted, day)
		}
		pending, err := tx.ListJournals(ctx, storage.JournalQuery{To: day.End, Status: ledger.StatusPending})
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			return fmt.Errorf("%w: no pending journal rows up to %s", errs.ErrNothingToPost, day)
		}
		deltas, err := aggregateJournals(pending)
		if err != nil {
			return err
		}
		accounts, err := applyDeltas(ctx, tx, deltas, now)
		if err != nil {
			return err
		}
		if err := setJournalStatus(ctx, tx, pending, storage.StatusUpdate{Status: ledger.StatusPosted, PostedAt: &now, UpdatedBy: user, At: now}); err != nil {
			return err
		}
		res = BalanceResult{Date: day.String(), Journals: len(pending), Accounts: accounts, At: now}
		return nil
	})
	if err != nil {
		return BalanceResult{}, err
	}
	s.log.Info("balance posted", "cutoff", res.Date, "journals", res.Journals, "accounts", len(res.Accounts), "user", user)
	return res, nil
}

// UnpostBalance reverses the balance effect of the POSTED journal rows of exactly one
// calendar day and returns them to PENDING. Older days are not touched.
func (s *service) UnpostBalance(ctx context.Context, date time.Time, user string) (BalanceResult, error) {
	day := ledger.DayOf(date, s.loc)
	var res BalanceResult
	err := s.run(ctx, OpUnpostBalance, func(ctx context.Context, tx storage.Tx) error {
		now := s.timestamp()
		posted, err := tx.ListJournals(ctx, storage.JournalQuery{From: day.Start, To: day.End, Status: ledger.StatusPosted})
		if err != nil {
			return err
		}
		if len(posted) == 0 {
			return fmt.Errorf("%w: no posted journal rows on %s", errs.ErrNothingToUnpost, day)
		}
		deltas, err := aggregateJournals(posted)
		if err != nil {
			return err
		}
		accounts, err := applyDeltas(ctx, tx, negate(deltas), now)
		if err != nil {
			return err
		}
		if err := setJournalStatus(ctx, tx, posted, storage.StatusUpdate{Status: ledger.StatusPending, UpdatedBy: user, At: now}); err != nil {
			return err
		}
		res = BalanceResult{Date: day.String(), Journals: len(posted), Accounts: accounts, At: now}
		return nil
	})
	if err != nil {
		return BalanceResult{}, err
	}
	s.log.Info("balance unposted", "date", res.Date, "journals", res.Journals, "accounts", len(res.Accounts), "user", user)
	return res, nil
}

// applyDeltas increments each detail account's running balance in order.
func applyDeltas(ctx context.Context, tx storage.Tx, deltas []AccountDelta, at time.Time) ([]AccountSummary, error) {
	out := make([]AccountSummary, 0, len(deltas))
	for _, d := range deltas {
		a, err := tx.ApplyDetailDelta(ctx, storage.BalanceDelta{
			AccountNumber: d.AccountNumber,
			Debit:         d.Debit,
			Credit:        d.Credit,
			Target:        storage.TargetRunning,
			At:            at,
		})
		if err != nil {
			return nil, accountErr(err, "detail account %s", d.AccountNumber)
		}
		out = append(out, AccountSummary{
			AccountNumber: a.AccountNumber,
			Name:          a.Name,
			Debit:         d.Debit,
			Credit:        d.Credit,
			AmountDebit:   a.AmountDebit,
			AmountCredit:  a.AmountCredit,
			Journals:      d.Journals,
		})
	}
	return out, nil
}

func setJournalStatus(ctx context.Context, tx storage.Tx, js []ledger.JournalLedger, u storage.StatusUpdate) error {
	u.IDs = make([]uuid.UUID, len(js))
	for i, j := range js {
		u.IDs[i] = j.ID
	}
	n, err := tx.SetJournalStatus(ctx, u)
	if err != nil {
		return err
	}
	if n != len(js) {
		return fmt.Errorf("set journal status %s: updated %d of %d rows", u.Status, n, len(js))
	}
	return nil
}
