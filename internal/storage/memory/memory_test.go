package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinoosan/bukubesar/internal/amount"
	"github.com/tinoosan/bukubesar/internal/errs"
	"github.com/tinoosan/bukubesar/internal/ledger"
	"github.com/tinoosan/bukubesar/internal/meta"
	"github.com/tinoosan/bukubesar/internal/storage"
)

var at = time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)

func seedAccounts(s *Store) (ledger.GeneralAccount, ledger.DetailAccount) {
	g := ledger.GeneralAccount{ID: uuid.New(), AccountNumber: "1", Name: "Aset", Balances: ledger.ZeroBalances()}
	d := ledger.DetailAccount{ID: uuid.New(), AccountNumber: "1.1.01", Name: "Kas", GeneralAccountID: g.ID, Balances: ledger.ZeroBalances()}
	s.SeedGeneralAccount(g)
	s.SeedDetailAccount(d)
	return g, d
}

func TestTx_RollbackDiscardsChanges(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, d := seedAccounts(s)

	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	_, err = tx.ApplyDetailDelta(ctx, storage.BalanceDelta{AccountNumber: d.AccountNumber, Debit: amount.MustFromMinor(500), At: at})
	require.NoError(t, err)
	require.NoError(t, tx.Rollback(ctx))

	assert.Equal(t, "0.00", amount.String(s.Snapshot().Detail[0].AmountDebit))
}

func TestTx_CommitPublishesChanges(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, d := seedAccounts(s)

	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	got, err := tx.ApplyDetailDelta(ctx, storage.BalanceDelta{AccountNumber: d.AccountNumber, Credit: amount.MustFromMinor(750), Target: storage.TargetAccumulation, At: at})
	require.NoError(t, err)
	assert.Equal(t, "7.50", amount.String(got.AccumulationAmountCredit))
	require.NoError(t, tx.Commit(ctx))
	// rollback after commit is a no-op
	require.NoError(t, tx.Rollback(ctx))

	snap := s.Snapshot().Detail[0]
	assert.Equal(t, "7.50", amount.String(snap.AccumulationAmountCredit))
	assert.Equal(t, "0.00", amount.String(snap.AmountCredit))
	assert.Equal(t, at, snap.UpdatedAt)
}

func TestTx_CommitTwiceFails(t *testing.T) {
	s := New()
	ctx := context.Background()
	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))
	require.Error(t, tx.Commit(ctx))
}

func TestBeginTx_WaitsForWriterSlot(t *testing.T) {
	s := New()
	ctx := context.Background()
	first, err := s.BeginTx(ctx)
	require.NoError(t, err)

	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = s.BeginTx(short)
	require.ErrorIs(t, err, errs.ErrTransient)

	require.NoError(t, first.Rollback(ctx))
	second, err := s.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, second.Rollback(ctx))
}

func TestFailNextCommits(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, d := seedAccounts(s)
	s.FailNextCommits(1)

	apply := func() error {
		tx, err := s.BeginTx(ctx)
		require.NoError(t, err)
		_, err = tx.ApplyDetailDelta(ctx, storage.BalanceDelta{AccountNumber: d.AccountNumber, Debit: amount.MustFromMinor(100), At: at})
		require.NoError(t, err)
		return tx.Commit(ctx)
	}
	require.ErrorIs(t, apply(), errs.ErrTransient)
	require.NoError(t, apply())
	assert.Equal(t, "1.00", amount.String(s.Snapshot().Detail[0].AmountDebit))
}

func TestApplyDetailDelta_RejectsNegativeBalance(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, d := seedAccounts(s)
	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	_, err = tx.ApplyDetailDelta(ctx, storage.BalanceDelta{AccountNumber: d.AccountNumber, Debit: amount.MustFromMinor(-1), At: at})
	require.ErrorIs(t, err, errs.ErrNegativeBalance)
	_, err = tx.ApplyDetailDelta(ctx, storage.BalanceDelta{AccountNumber: "9.9.99", Debit: amount.MustFromMinor(1), At: at})
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestAccounts_NumbersAreUniqueAcrossLevels(t *testing.T) {
	s := New()
	ctx := context.Background()
	g, _ := seedAccounts(s)
	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	_, err = tx.CreateDetailAccount(ctx, ledger.DetailAccount{ID: uuid.New(), AccountNumber: "1", GeneralAccountID: g.ID})
	require.ErrorIs(t, err, errs.ErrConflict)
	_, err = tx.CreateGeneralAccount(ctx, ledger.GeneralAccount{ID: uuid.New(), AccountNumber: "1.1.01"})
	require.ErrorIs(t, err, errs.ErrConflict)

	require.NoError(t, tx.SoftDeleteGeneralAccount(ctx, g.ID, at))
	_, err = tx.GeneralAccountByID(ctx, g.ID)
	require.ErrorIs(t, err, errs.ErrNotFound)
	all, err := tx.ListGeneralAccounts(ctx, storage.AccountFilter{IncludeDeleted: true})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.NotNil(t, all[0].DeletedAt)
}

func TestLedgers_QueryByDayAndStatus(t *testing.T) {
	s := New()
	ctx := context.Background()
	day := ledger.DayOf(at, time.UTC)
	mk := func(ref string, date time.Time, st ledger.Status) ledger.Ledger {
		l := ledger.Ledger{ID: uuid.New(), ReferenceNumber: ref, LedgerDate: date, Status: st, Amount: amount.MustFromMinor(100), Metadata: meta.New(map[string]string{"src": ref})}
		s.SeedLedger(l)
		return l
	}
	mk("B", day.Start.Add(time.Hour), ledger.StatusPending)
	mk("A", day.Start.Add(time.Hour), ledger.StatusPending)
	mk("C", day.Start, ledger.StatusPosted)
	mk("D", day.End, ledger.StatusPending)
	deleted := mk("E", day.Start, ledger.StatusPending)
	now := at
	deleted.DeletedAt = &now
	s.SeedLedger(deleted)

	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	pending, err := tx.ListLedgers(ctx, storage.LedgerQuery{From: day.Start, To: day.End, Status: ledger.StatusPending})
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "A", pending[0].ReferenceNumber)
	assert.Equal(t, "B", pending[1].ReferenceNumber)

	n, err := tx.CountLedgers(ctx, storage.LedgerQuery{From: day.Start, To: day.End})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// returned metadata is a copy
	pending[0].Metadata["src"] = "changed"
	again, err := tx.LedgerByID(ctx, pending[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "A", again.Metadata["src"])

	_, err = tx.LedgerByID(ctx, deleted.ID)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestJournals_StatusAndDelete(t *testing.T) {
	s := New()
	ctx := context.Background()
	day := ledger.DayOf(at, time.UTC)
	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	js := []ledger.JournalLedger{
		{ID: uuid.New(), DetailAccountNumber: "1.1.01", JournalDate: day.Start, Status: ledger.StatusPending},
		{ID: uuid.New(), DetailAccountNumber: "4.1.01", JournalDate: day.Start, Status: ledger.StatusPending},
		{ID: uuid.New(), DetailAccountNumber: "1.1.01", JournalDate: day.End, Status: ledger.StatusPending},
	}
	require.NoError(t, tx.CreateJournals(ctx, js))
	require.ErrorIs(t, tx.CreateJournals(ctx, js[:1]), errs.ErrConflict)

	n, err := tx.SetJournalStatus(ctx, storage.StatusUpdate{IDs: []uuid.UUID{js[0].ID}, Status: ledger.StatusPosted, PostedAt: &at, UpdatedBy: "u"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	deleted, err := tx.DeleteJournals(ctx, storage.JournalQuery{From: day.Start, To: day.End, Status: ledger.StatusPending})
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
	require.NoError(t, tx.Commit(ctx))

	snap := s.Snapshot()
	require.Len(t, snap.Journals, 2)
	assert.Equal(t, ledger.StatusPosted, snap.Journals[0].Status)
	assert.Equal(t, day.End, snap.Journals[1].JournalDate)
}

func TestNetIncome_SaveKeepsIdentity(t *testing.T) {
	s := New()
	ctx := context.Background()
	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	_, found, err := tx.NetIncomeByYear(ctx, 2024)
	require.NoError(t, err)
	assert.False(t, found)

	first, err := tx.SaveNetIncome(ctx, ledger.NetIncomeRecord{ID: uuid.New(), Year: 2024, Amount: amount.MustFromMinor(100), CreatedBy: "a", CreatedAt: at})
	require.NoError(t, err)
	second, err := tx.SaveNetIncome(ctx, ledger.NetIncomeRecord{ID: uuid.New(), Year: 2024, Amount: amount.MustFromMinor(200), CreatedBy: "b", UpdatedBy: "b", CreatedAt: at.Add(time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "a", second.CreatedBy)
	assert.Equal(t, at, second.CreatedAt)

	got, found, err := tx.NetIncomeByYear(ctx, 2024)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "2.00", amount.String(got.Amount))
}

func TestSeedDev_IsIdempotent(t *testing.T) {
	s := New()
	s.SeedDev("3.3.01")
	s.SeedDev("3.3.01")
	snap := s.Snapshot()
	assert.Len(t, snap.General, 5)
	assert.Len(t, snap.Detail, 7)

	ctx := context.Background()
	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback(ctx) }()
	shu, err := tx.DetailAccountByNumber(ctx, "3.3.01")
	require.NoError(t, err)
	parent, err := tx.GeneralAccountByID(ctx, shu.GeneralAccountID)
	require.NoError(t, err)
	assert.Equal(t, "3.3", parent.AccountNumber)
	assert.Equal(t, ledger.Credit, shu.TransactionType)
}
