package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"

	"github.com/tinoosan/bukubesar/internal/amount"
	"github.com/tinoosan/bukubesar/internal/errs"
	"github.com/tinoosan/bukubesar/internal/ledger"
	"github.com/tinoosan/bukubesar/internal/storage"
)

// --- Accounts ---

func (t *Tx) numberTaken(number string) bool {
	for _, a := range t.st.general {
		if a.AccountNumber == number {
			return true
		}
	}
	for _, a := range t.st.detail {
		if a.AccountNumber == number {
			return true
		}
	}
	return false
}

func (t *Tx) CreateGeneralAccount(_ context.Context, a ledger.GeneralAccount) (ledger.GeneralAccount, error) {
	if t.numberTaken(a.AccountNumber) {
		return ledger.GeneralAccount{}, fmt.Errorf("%w: account number %s exists", errs.ErrConflict, a.AccountNumber)
	}
	t.st.general[a.ID] = a
	return a, nil
}

func (t *Tx) CreateDetailAccount(_ context.Context, a ledger.DetailAccount) (ledger.DetailAccount, error) {
	if t.numberTaken(a.AccountNumber) {
		return ledger.DetailAccount{}, fmt.Errorf("%w: account number %s exists", errs.ErrConflict, a.AccountNumber)
	}
	t.st.detail[a.ID] = a
	return a, nil
}

func (t *Tx) GeneralAccountByID(_ context.Context, id uuid.UUID) (ledger.GeneralAccount, error) {
	a, ok := t.st.general[id]
	if !ok || a.DeletedAt != nil {
		return ledger.GeneralAccount{}, errs.ErrNotFound
	}
	return a, nil
}

func (t *Tx) GeneralAccountByNumber(_ context.Context, number string) (ledger.GeneralAccount, error) {
	for _, a := range t.st.general {
		if a.AccountNumber == number && a.DeletedAt == nil {
			return a, nil
		}
	}
	return ledger.GeneralAccount{}, errs.ErrNotFound
}

func (t *Tx) DetailAccountByID(_ context.Context, id uuid.UUID) (ledger.DetailAccount, error) {
	a, ok := t.st.detail[id]
	if !ok || a.DeletedAt != nil {
		return ledger.DetailAccount{}, errs.ErrNotFound
	}
	return a, nil
}

func (t *Tx) DetailAccountByNumber(_ context.Context, number string) (ledger.DetailAccount, error) {
	for _, a := range t.st.detail {
		if a.AccountNumber == number && a.DeletedAt == nil {
			return a, nil
		}
	}
	return ledger.DetailAccount{}, errs.ErrNotFound
}

func (t *Tx) ListGeneralAccounts(_ context.Context, f storage.AccountFilter) ([]ledger.GeneralAccount, error) {
	out := make([]ledger.GeneralAccount, 0)
	for _, a := range t.st.general {
		if a.DeletedAt != nil && !f.IncludeDeleted {
			continue
		}
		if f.ReportType != "" && a.ReportType != f.ReportType {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountNumber < out[j].AccountNumber })
	return out, nil
}

func (t *Tx) ListDetailAccounts(_ context.Context, f storage.AccountFilter) ([]ledger.DetailAccount, error) {
	out := make([]ledger.DetailAccount, 0)
	for _, a := range t.st.detail {
		if a.DeletedAt != nil && !f.IncludeDeleted {
			continue
		}
		if f.ReportType != "" && a.ReportType != f.ReportType {
			continue
		}
		if f.GeneralAccountID != uuid.Nil && a.GeneralAccountID != f.GeneralAccountID {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountNumber < out[j].AccountNumber })
	return out, nil
}

func (t *Tx) ApplyDetailDelta(ctx context.Context, d storage.BalanceDelta) (ledger.DetailAccount, error) {
	a, err := t.DetailAccountByNumber(ctx, d.AccountNumber)
	if err != nil {
		return ledger.DetailAccount{}, err
	}
	debit, credit := &a.AmountDebit, &a.AmountCredit
	if d.Target == storage.TargetAccumulation {
		debit, credit = &a.AccumulationAmountDebit, &a.AccumulationAmountCredit
	}
	if *debit, err = addNonNegative(*debit, d.Debit); err != nil {
		return ledger.DetailAccount{}, fmt.Errorf("account %s debit: %w", a.AccountNumber, err)
	}
	if *credit, err = addNonNegative(*credit, d.Credit); err != nil {
		return ledger.DetailAccount{}, fmt.Errorf("account %s credit: %w", a.AccountNumber, err)
	}
	a.UpdatedAt = d.At
	t.st.detail[a.ID] = a
	return a, nil
}

func addNonNegative(cur, delta money.Amount) (money.Amount, error) {
	if delta.IsZero() {
		return cur, nil
	}
	sum, err := amount.Add(cur, delta)
	if err != nil {
		return money.Amount{}, err
	}
	if sum.IsNeg() {
		return money.Amount{}, errs.ErrNegativeBalance
	}
	return sum, nil
}

func (t *Tx) SetGeneralBalance(ctx context.Context, b storage.GeneralBalance) (ledger.GeneralAccount, error) {
	a, err := t.GeneralAccountByID(ctx, b.GeneralAccountID)
	if err != nil {
		return ledger.GeneralAccount{}, err
	}
	a.AmountDebit = b.Debit
	a.AmountCredit = b.Credit
	a.UpdatedAt = b.At
	t.st.general[a.ID] = a
	return a, nil
}

func (t *Tx) SoftDeleteGeneralAccount(_ context.Context, id uuid.UUID, at time.Time) error {
	a, ok := t.st.general[id]
	if !ok || a.DeletedAt != nil {
		return errs.ErrNotFound
	}
	a.DeletedAt = &at
	a.UpdatedAt = at
	t.st.general[id] = a
	return nil
}

func (t *Tx) SoftDeleteDetailAccount(_ context.Context, id uuid.UUID, at time.Time) error {
	a, ok := t.st.detail[id]
	if !ok || a.DeletedAt != nil {
		return errs.ErrNotFound
	}
	a.DeletedAt = &at
	a.UpdatedAt = at
	t.st.detail[id] = a
	return nil
}

// --- Ledgers ---

func inRange(ts, from, to time.Time) bool {
	if !from.IsZero() && ts.Before(from) {
		return false
	}
	if !to.IsZero() && !ts.Before(to) {
		return false
	}
	return true
}

func (t *Tx) CreateLedger(_ context.Context, l ledger.Ledger) (ledger.Ledger, error) {
	if _, ok := t.st.ledgers[l.ID]; ok {
		return ledger.Ledger{}, errs.ErrConflict
	}
	l.Metadata = l.Metadata.Clone()
	t.st.ledgers[l.ID] = l
	return l, nil
}

func (t *Tx) LedgerByID(_ context.Context, id uuid.UUID) (ledger.Ledger, error) {
	l, ok := t.st.ledgers[id]
	if !ok || l.DeletedAt != nil {
		return ledger.Ledger{}, errs.ErrNotFound
	}
	l.Metadata = l.Metadata.Clone()
	return l, nil
}

func (t *Tx) UpdateLedger(_ context.Context, l ledger.Ledger) (ledger.Ledger, error) {
	if _, ok := t.st.ledgers[l.ID]; !ok {
		return ledger.Ledger{}, errs.ErrNotFound
	}
	l.Metadata = l.Metadata.Clone()
	t.st.ledgers[l.ID] = l
	return l, nil
}

func (t *Tx) matchLedgers(q storage.LedgerQuery) []ledger.Ledger {
	out := make([]ledger.Ledger, 0)
	for _, l := range t.st.ledgers {
		if l.DeletedAt != nil && !q.IncludeDeleted {
			continue
		}
		if q.Status != "" && l.Status != q.Status {
			continue
		}
		if q.DetailAccountID != uuid.Nil && l.DetailAccountID != q.DetailAccountID {
			continue
		}
		if !inRange(l.LedgerDate, q.From, q.To) {
			continue
		}
		l.Metadata = l.Metadata.Clone()
		out = append(out, l)
	}
	return out
}

func (t *Tx) ListLedgers(_ context.Context, q storage.LedgerQuery) ([]ledger.Ledger, error) {
	out := t.matchLedgers(q)
	sortLedgers(out)
	return out, nil
}

func (t *Tx) CountLedgers(_ context.Context, q storage.LedgerQuery) (int, error) {
	return len(t.matchLedgers(q)), nil
}

func (t *Tx) SetLedgerStatus(_ context.Context, u storage.StatusUpdate) (int, error) {
	n := 0
	for _, id := range u.IDs {
		l, ok := t.st.ledgers[id]
		if !ok || l.DeletedAt != nil {
			continue
		}
		l.Status = u.Status
		l.PostedAt = u.PostedAt
		l.UpdatedBy = u.UpdatedBy
		l.UpdatedAt = u.At
		t.st.ledgers[id] = l
		n++
	}
	return n, nil
}

// --- Journals ---

func (t *Tx) CreateJournals(_ context.Context, js []ledger.JournalLedger) error {
	for _, j := range js {
		if _, ok := t.st.journals[j.ID]; ok {
			return fmt.Errorf("%w: journal %s exists", errs.ErrConflict, j.ID)
		}
		t.st.journals[j.ID] = j
	}
	return nil
}

func (t *Tx) matchJournals(q storage.JournalQuery) []ledger.JournalLedger {
	out := make([]ledger.JournalLedger, 0)
	for _, j := range t.st.journals {
		if q.Status != "" && j.Status != q.Status {
			continue
		}
		if q.DetailAccountNumber != "" && j.DetailAccountNumber != q.DetailAccountNumber {
			continue
		}
		if !inRange(j.JournalDate, q.From, q.To) {
			continue
		}
		out = append(out, j)
	}
	return out
}

func (t *Tx) ListJournals(_ context.Context, q storage.JournalQuery) ([]ledger.JournalLedger, error) {
	out := t.matchJournals(q)
	sortJournals(out)
	return out, nil
}

func (t *Tx) CountJournals(_ context.Context, q storage.JournalQuery) (int, error) {
	return len(t.matchJournals(q)), nil
}

func (t *Tx) SetJournalStatus(_ context.Context, u storage.StatusUpdate) (int, error) {
	n := 0
	for _, id := range u.IDs {
		j, ok := t.st.journals[id]
		if !ok {
			continue
		}
		j.Status = u.Status
		j.PostedAt = u.PostedAt
		j.UpdatedBy = u.UpdatedBy
		t.st.journals[id] = j
		n++
	}
	return n, nil
}

func (t *Tx) DeleteJournals(_ context.Context, q storage.JournalQuery) (int, error) {
	matched := t.matchJournals(q)
	for _, j := range matched {
		delete(t.st.journals, j.ID)
	}
	return len(matched), nil
}

// --- Net income ---

func (t *Tx) NetIncomeByYear(_ context.Context, year int) (ledger.NetIncomeRecord, bool, error) {
	r, ok := t.st.netIncome[year]
	return r, ok, nil
}

func (t *Tx) SaveNetIncome(_ context.Context, r ledger.NetIncomeRecord) (ledger.NetIncomeRecord, error) {
	if prev, ok := t.st.netIncome[r.Year]; ok {
		r.ID = prev.ID
		r.CreatedAt = prev.CreatedAt
		r.CreatedBy = prev.CreatedBy
	}
	t.st.netIncome[r.Year] = r
	return r, nil
}
