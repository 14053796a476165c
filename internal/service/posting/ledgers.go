package posting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tinoosan/bukubesar/internal/errs"
	"github.com/tinoosan/bukubesar/internal/ledger"
	"github.com/tinoosan/bukubesar/internal/storage"
)

// PostLedgers moves every PENDING ledger row dated on the given calendar day to POSTED
// and creates one PENDING journal row per ledger.
func (s *service) PostLedgers(ctx context.Context, date time.Time, user string) (PostLedgersResult, error) {
	day := ledger.DayOf(date, s.loc)
	var res PostLedgersResult
	err := s.run(ctx, OpPostLedgers, func(ctx context.Context, tx storage.Tx) error {
		now := s.timestamp()
		posted, err := tx.CountLedgers(ctx, storage.LedgerQuery{From: day.Start, To: day.End, Status: ledger.StatusPosted})
		if err != nil {
			return err
		}
		if posted > 0 {
			return fmt.Errorf("%w: %d ledger rows on %s are already posted", errs.ErrAlreadyPosted, posted, day)
		}
		pending, err := tx.ListLedgers(ctx, storage.LedgerQuery{From: day.Start, To: day.End, Status: ledger.StatusPending})
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			return fmt.Errorf("%w: no pending ledger rows on %s", errs.ErrNothingToPost, day)
		}

		numbers := newAccountNumbers(tx)
		journals := make([]ledger.JournalLedger, 0, len(pending))
		ids := make([]uuid.UUID, 0, len(pending))
		for _, l := range pending {
			detail, general, err := numbers.of(ctx, l)
			if err != nil {
				return err
			}
			j, err := journalFor(l, detail, general, user, now)
			if err != nil {
				return err
			}
			journals = append(journals, j)
			ids = append(ids, l.ID)
		}

		n, err := tx.SetLedgerStatus(ctx, storage.StatusUpdate{IDs: ids, Status: ledger.StatusPosted, PostedAt: &now, UpdatedBy: user, At: now})
		if err != nil {
			return err
		}
		if n != len(ids) {
			return fmt.Errorf("post ledgers %s: updated %d of %d rows", day, n, len(ids))
		}
		if err := tx.CreateJournals(ctx, journals); err != nil {
			return err
		}
		res = PostLedgersResult{Date: day.String(), Posted: n, JournalsCreated: len(journals), PostedAt: now}
		return nil
	})
	if err != nil {
		return PostLedgersResult{}, err
	}
	s.log.Info("ledgers posted", "date", res.Date, "posted", res.Posted, "journals", res.JournalsCreated, "user", user)
	return res, nil
}

// UnpostLedgers reverts the POSTED ledger rows of one calendar day to PENDING and
// deletes the PENDING journal rows created for that day.
func (s *service) UnpostLedgers(ctx context.Context, date time.Time, user string) (UnpostLedgersResult, error) {
	day := ledger.DayOf(date, s.loc)
	var res UnpostLedgersResult
	err := s.run(ctx, OpUnpostLedgers, func(ctx context.Context, tx storage.Tx) error {
		now := s.timestamp()
		balanced, err := tx.CountJournals(ctx, storage.JournalQuery{From: day.Start, To: day.End, Status: ledger.StatusPosted})
		if err != nil {
			return err
		}
		if balanced > 0 {
			return fmt.Errorf("%w: %d journal rows on %s are posted to balances", errs.ErrBalanceAlreadyPosted, balanced, day)
		}
		posted, err := tx.ListLedgers(ctx, storage.LedgerQuery{From: day.Start, To: day.End, Status: ledger.StatusPosted})
		if err != nil {
			return err
		}
		if len(posted) == 0 {
			return fmt.Errorf("%w: no posted ledger rows on %s", errs.ErrNothingToUnpost, day)
		}
		journals, err := tx.ListJournals(ctx, storage.JournalQuery{From: day.Start, To: day.End, Status: ledger.StatusPending})
		if err != nil {
			return err
		}
		n := 0
		for _, u := range restoreAudit(posted, journals, user, now) {
			m, err := tx.SetLedgerStatus(ctx, u)
			if err != nil {
				return err
			}
			n += m
		}
		deleted, err := tx.DeleteJournals(ctx, storage.JournalQuery{From: day.Start, To: day.End, Status: ledger.StatusPending})
		if err != nil {
			return err
		}
		res = UnpostLedgersResult{Date: day.String(), Unposted: n, JournalsDeleted: deleted, At: now}
		return nil
	})
	if err != nil {
		return UnpostLedgersResult{}, err
	}
	s.log.Info("ledgers unposted", "date", res.Date, "unposted", res.Unposted, "journals_deleted", res.JournalsDeleted, "user", user)
	return res, nil
}

type auditPair struct {
	by string
	at time.Time
}

// restoreAudit builds one PENDING status update per distinct pre-post audit pair.
// Ledgers whose journal row is missing fall back to the unposting user.
func restoreAudit(posted []ledger.Ledger, journals []ledger.JournalLedger, user string, now time.Time) []storage.StatusUpdate {
	prev := make(map[uuid.UUID]auditPair, len(journals))
	for _, j := range journals {
		if j.LedgerID != uuid.Nil && j.LedgerUpdatedBy != "" {
			prev[j.LedgerID] = auditPair{by: j.LedgerUpdatedBy, at: j.LedgerUpdatedAt}
		}
	}
	groups := make(map[auditPair]int)
	out := make([]storage.StatusUpdate, 0, 1)
	for _, l := range posted {
		p, ok := prev[l.ID]
		if !ok {
			p = auditPair{by: user, at: now}
		}
		i, seen := groups[p]
		if !seen {
			i = len(out)
			groups[p] = i
			out = append(out, storage.StatusUpdate{Status: ledger.StatusPending, UpdatedBy: p.by, At: p.at})
		}
		out[i].IDs = append(out[i].IDs, l.ID)
	}
	return out
}

// accountNumbers resolves ledger account references to numbers, once per account
// within a transaction.
type accountNumbers struct {
	q       storage.AccountQueries
	detail  map[uuid.UUID]string
	general map[uuid.UUID]string
}

func newAccountNumbers(q storage.AccountQueries) *accountNumbers {
	return &accountNumbers{q: q, detail: make(map[uuid.UUID]string), general: make(map[uuid.UUID]string)}
}

func (a *accountNumbers) of(ctx context.Context, l ledger.Ledger) (detail, general string, err error) {
	detail, ok := a.detail[l.DetailAccountID]
	if !ok {
		d, err := a.q.DetailAccountByID(ctx, l.DetailAccountID)
		if err != nil {
			return "", "", accountErr(err, "detail account %s of ledger %s", l.DetailAccountID, l.ReferenceNumber)
		}
		detail = d.AccountNumber
		a.detail[l.DetailAccountID] = detail
	}
	general, ok = a.general[l.GeneralAccountID]
	if !ok {
		g, err := a.q.GeneralAccountByID(ctx, l.GeneralAccountID)
		if err != nil {
			return "", "", accountErr(err, "general account %s of ledger %s", l.GeneralAccountID, l.ReferenceNumber)
		}
		general = g.AccountNumber
		a.general[l.GeneralAccountID] = general
	}
	return detail, general, nil
}

// accountErr converts a store not-found into ErrAccountNotFound and passes other
// failures through unchanged.
func accountErr(err error, format string, args ...any) error {
	if errors.Is(err, errs.ErrNotFound) {
		return fmt.Errorf("%w: %s", errs.ErrAccountNotFound, fmt.Sprintf(format, args...))
	}
	return err
}
