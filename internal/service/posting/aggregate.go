package posting

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"

	"github.com/tinoosan/bukubesar/internal/amount"
	"github.com/tinoosan/bukubesar/internal/errs"
	"github.com/tinoosan/bukubesar/internal/ledger"
)

// AccountDelta is the summed debit/credit movement for one detail account.
type AccountDelta struct {
	AccountNumber string
	Debit         money.Amount
	Credit        money.Amount
	Journals      int
}

// aggregateJournals sums debit and credit per detail account number. The result is
// ordered by account number so that rows are always locked in the same order.
func aggregateJournals(js []ledger.JournalLedger) ([]AccountDelta, error) {
	idx := make(map[string]int, len(js))
	out := make([]AccountDelta, 0)
	for _, j := range js {
		i, ok := idx[j.DetailAccountNumber]
		if !ok {
			i = len(out)
			idx[j.DetailAccountNumber] = i
			out = append(out, AccountDelta{AccountNumber: j.DetailAccountNumber, Debit: amount.Zero(), Credit: amount.Zero()})
		}
		d := &out[i]
		var err error
		if d.Debit, err = amount.Add(d.Debit, j.Debit); err != nil {
			return nil, err
		}
		if d.Credit, err = amount.Add(d.Credit, j.Credit); err != nil {
			return nil, err
		}
		d.Journals++
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountNumber < out[j].AccountNumber })
	return out, nil
}

// negate flips the sign of every delta, turning an increment into the exact decrement.
func negate(ds []AccountDelta) []AccountDelta {
	out := make([]AccountDelta, len(ds))
	for i, d := range ds {
		out[i] = AccountDelta{AccountNumber: d.AccountNumber, Debit: amount.Neg(d.Debit), Credit: amount.Neg(d.Credit), Journals: d.Journals}
	}
	return out
}

// GeneralTotal is the sum of detail balances under one general account.
type GeneralTotal struct {
	GeneralAccountID uuid.UUID
	Debit            money.Amount
	Credit           money.Amount
	Details          int
}

// rollUpDetails sums running balances per parent general account, ordered by parent ID.
func rollUpDetails(ds []ledger.DetailAccount) ([]GeneralTotal, error) {
	idx := make(map[uuid.UUID]int)
	out := make([]GeneralTotal, 0)
	for _, d := range ds {
		i, ok := idx[d.GeneralAccountID]
		if !ok {
			i = len(out)
			idx[d.GeneralAccountID] = i
			out = append(out, GeneralTotal{GeneralAccountID: d.GeneralAccountID, Debit: amount.Zero(), Credit: amount.Zero()})
		}
		g := &out[i]
		var err error
		if g.Debit, err = amount.Add(g.Debit, d.AmountDebit); err != nil {
			return nil, err
		}
		if g.Credit, err = amount.Add(g.Credit, d.AmountCredit); err != nil {
			return nil, err
		}
		g.Details++
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GeneralAccountID.String() < out[j].GeneralAccountID.String() })
	return out, nil
}

// journalFor builds the PENDING journal mirror of a ledger row being posted.
func journalFor(l ledger.Ledger, detailNumber, generalNumber, user string, now time.Time) (ledger.JournalLedger, error) {
	j := ledger.JournalLedger{
		ID:                   uuid.New(),
		LedgerID:             l.ID,
		Description:          l.Description,
		Debit:                amount.Zero(),
		Credit:               amount.Zero(),
		Status:               ledger.StatusPending,
		JournalDate:          l.LedgerDate,
		DetailAccountNumber:  detailNumber,
		GeneralAccountNumber: generalNumber,
		CreatedBy:            user,
		UpdatedBy:            user,
		CreatedAt:            now,
		LedgerUpdatedBy:      l.UpdatedBy,
		LedgerUpdatedAt:      l.UpdatedAt,
	}
	switch l.TransactionType {
	case ledger.Debit:
		j.Debit = l.Amount
	case ledger.Credit:
		j.Credit = l.Amount
	default:
		return ledger.JournalLedger{}, fmt.Errorf("%w: ledger %s has transaction type %q", errs.ErrInvalid, l.ReferenceNumber, l.TransactionType)
	}
	return j, nil
}

// netIncomeOf computes revenue (credit balances of CREDIT accounts), expense (debit
// balances of DEBIT accounts) and their difference over profit-and-loss accounts.
func netIncomeOf(ds []ledger.DetailAccount) (revenue, expense, net money.Amount, err error) {
	revenue, expense = amount.Zero(), amount.Zero()
	for _, d := range ds {
		if d.ReportType != ledger.ReportTypeProfitLoss {
			continue
		}
		switch d.TransactionType {
		case ledger.Credit:
			revenue, err = amount.Add(revenue, d.AmountCredit)
		case ledger.Debit:
			expense, err = amount.Add(expense, d.AmountDebit)
		}
		if err != nil {
			return money.Amount{}, money.Amount{}, money.Amount{}, err
		}
	}
	net, err = amount.Sub(revenue, expense)
	return revenue, expense, net, err
}

// accumulationSplit maps a signed net income onto the accumulation pair: a surplus is
// credited, a deficit debited by its absolute value.
func accumulationSplit(net money.Amount) (debit, credit money.Amount) {
	if net.IsNeg() {
		return amount.Abs(net), amount.Zero()
	}
	return amount.Zero(), net
}
