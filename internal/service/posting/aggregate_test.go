package posting

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinoosan/bukubesar/internal/amount"
	"github.com/tinoosan/bukubesar/internal/errs"
	"github.com/tinoosan/bukubesar/internal/ledger"
)

func journal(number string, debit, credit int64) ledger.JournalLedger {
	return ledger.JournalLedger{ID: uuid.New(), DetailAccountNumber: number, Debit: amount.MustFromMinor(debit), Credit: amount.MustFromMinor(credit)}
}

func TestAggregateJournals_SumsPerAccountInOrder(t *testing.T) {
	deltas, err := aggregateJournals([]ledger.JournalLedger{
		journal("4.1.01", 0, 1000),
		journal("1.1.01", 1000, 0),
		journal("4.1.01", 0, 250),
		journal("1.1.01", 250, 0),
		journal("1.1.01", 0, 1),
	})
	require.NoError(t, err)
	require.Len(t, deltas, 2)
	assert.Equal(t, "1.1.01", deltas[0].AccountNumber)
	assert.Equal(t, "12.50", amount.String(deltas[0].Debit))
	assert.Equal(t, "0.01", amount.String(deltas[0].Credit))
	assert.Equal(t, 3, deltas[0].Journals)
	assert.Equal(t, "4.1.01", deltas[1].AccountNumber)
	assert.Equal(t, "12.50", amount.String(deltas[1].Credit))
	assert.Equal(t, "0.00", amount.String(deltas[1].Debit))

	neg := negate(deltas)
	assert.Equal(t, "-12.50", amount.String(neg[0].Debit))
	assert.Equal(t, "-0.01", amount.String(neg[0].Credit))
	assert.Equal(t, 3, neg[0].Journals)
}

func TestAggregateJournals_Empty(t *testing.T) {
	deltas, err := aggregateJournals(nil)
	require.NoError(t, err)
	assert.Empty(t, deltas)
}

func TestRollUpDetails_GroupsByParent(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	mk := func(parent uuid.UUID, debit, credit int64) ledger.DetailAccount {
		d := ledger.DetailAccount{GeneralAccountID: parent, Balances: ledger.ZeroBalances()}
		d.AmountDebit = amount.MustFromMinor(debit)
		d.AmountCredit = amount.MustFromMinor(credit)
		// accumulation never enters the roll-up
		d.AccumulationAmountCredit = amount.MustFromMinor(99999)
		return d
	}
	totals, err := rollUpDetails([]ledger.DetailAccount{mk(a, 100, 0), mk(b, 0, 300), mk(a, 50, 20)})
	require.NoError(t, err)
	require.Len(t, totals, 2)
	byID := map[uuid.UUID]GeneralTotal{}
	for _, g := range totals {
		byID[g.GeneralAccountID] = g
	}
	assert.Equal(t, "1.50", amount.String(byID[a].Debit))
	assert.Equal(t, "0.20", amount.String(byID[a].Credit))
	assert.Equal(t, 2, byID[a].Details)
	assert.Equal(t, "3.00", amount.String(byID[b].Credit))
	assert.True(t, totals[0].GeneralAccountID.String() < totals[1].GeneralAccountID.String())
}

func TestJournalFor_SidesFollowTransactionType(t *testing.T) {
	l := ledger.Ledger{ID: uuid.New(), Amount: amount.MustFromMinor(1234), TransactionType: ledger.Credit, LedgerDate: day1, Description: "fee"}
	j, err := journalFor(l, "4.1.01", "4", "supervisor", clock)
	require.NoError(t, err)
	assert.Equal(t, l.ID, j.LedgerID)
	assert.Equal(t, "12.34", amount.String(j.Credit))
	assert.True(t, j.Debit.IsZero())
	assert.Equal(t, ledger.StatusPending, j.Status)
	assert.Equal(t, day1, j.JournalDate)
	assert.Equal(t, "4", j.GeneralAccountNumber)

	l.TransactionType = "SIDEWAYS"
	_, err = journalFor(l, "4.1.01", "4", "supervisor", clock)
	require.ErrorIs(t, err, errs.ErrInvalid)
}

func TestNetIncomeOf_IgnoresBalanceSheetAccounts(t *testing.T) {
	mk := func(rt ledger.ReportType, tt ledger.TransactionType, debit, credit int64) ledger.DetailAccount {
		d := ledger.DetailAccount{ReportType: rt, TransactionType: tt, Balances: ledger.ZeroBalances()}
		d.AmountDebit = amount.MustFromMinor(debit)
		d.AmountCredit = amount.MustFromMinor(credit)
		return d
	}
	revenue, expense, net, err := netIncomeOf([]ledger.DetailAccount{
		mk(ledger.ReportTypeProfitLoss, ledger.Credit, 0, 100000),
		mk(ledger.ReportTypeProfitLoss, ledger.Debit, 40000, 0),
		mk(ledger.ReportTypeBalanceSheet, ledger.Debit, 70000, 0),
		// the off side of a P&L account does not count
		mk(ledger.ReportTypeProfitLoss, ledger.Credit, 500, 0),
	})
	require.NoError(t, err)
	assert.Equal(t, "1000.00", amount.String(revenue))
	assert.Equal(t, "400.00", amount.String(expense))
	assert.Equal(t, "600.00", amount.String(net))

	_, _, net, err = netIncomeOf([]ledger.DetailAccount{mk(ledger.ReportTypeProfitLoss, ledger.Debit, 100, 0)})
	require.NoError(t, err)
	assert.Equal(t, "-1.00", amount.String(net))
}

func TestAccumulationSplit(t *testing.T) {
	debit, credit := accumulationSplit(amount.MustFromMinor(60000))
	assert.Equal(t, "0.00", amount.String(debit))
	assert.Equal(t, "600.00", amount.String(credit))

	debit, credit = accumulationSplit(amount.MustFromMinor(-150))
	assert.Equal(t, "1.50", amount.String(debit))
	assert.Equal(t, "0.00", amount.String(credit))
}

func TestRestoreAudit_GroupsByPrePostPair(t *testing.T) {
	a, b, orphan := uuid.New(), uuid.New(), uuid.New()
	posted := []ledger.Ledger{{ID: a}, {ID: b}, {ID: orphan}}
	journals := []ledger.JournalLedger{
		{LedgerID: a, LedgerUpdatedBy: "clerk", LedgerUpdatedAt: day1},
		{LedgerID: b, LedgerUpdatedBy: "clerk", LedgerUpdatedAt: day1},
	}
	ups := restoreAudit(posted, journals, "supervisor", clock)
	require.Len(t, ups, 2)
	assert.Equal(t, []uuid.UUID{a, b}, ups[0].IDs)
	assert.Equal(t, "clerk", ups[0].UpdatedBy)
	assert.Equal(t, day1, ups[0].At)
	assert.Equal(t, []uuid.UUID{orphan}, ups[1].IDs)
	assert.Equal(t, "supervisor", ups[1].UpdatedBy)
	for _, u := range ups {
		assert.Equal(t, ledger.StatusPending, u.Status)
		assert.Nil(t, u.PostedAt)
	}
}
