package account

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinoosan/bukubesar/internal/amount"
	"github.com/tinoosan/bukubesar/internal/errs"
	"github.com/tinoosan/bukubesar/internal/ledger"
	"github.com/tinoosan/bukubesar/internal/service/posting"
	"github.com/tinoosan/bukubesar/internal/service/txn"
	"github.com/tinoosan/bukubesar/internal/storage"
	"github.com/tinoosan/bukubesar/internal/storage/memory"
)

var clock = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

func newSvc(t *testing.T) (Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	coord := txn.New(store, txn.Policy{MaxAttempts: 1}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return New(coord, func() time.Time { return clock }), store
}

func TestCreateGeneral_DefaultsFromCategory(t *testing.T) {
	svc, _ := newSvc(t)
	ctx := context.Background()

	g, err := svc.CreateGeneral(ctx, GeneralInput{AccountNumber: " 4-1 ", Name: "Pendapatan Jasa", Category: "pendapatan"})
	require.NoError(t, err)
	assert.Equal(t, "4.1", g.AccountNumber)
	assert.Equal(t, "PENDAPATAN", g.Category)
	assert.Equal(t, ledger.ReportTypeProfitLoss, g.ReportType)
	assert.Equal(t, ledger.Credit, g.TransactionType)
	assert.Equal(t, "0.00", amount.String(g.AmountDebit))
	assert.Equal(t, clock, g.CreatedAt)

	got, err := svc.GetGeneral(ctx, "4/1")
	require.NoError(t, err)
	assert.Equal(t, g.ID, got.ID)
}

func TestCreateGeneral_Validation(t *testing.T) {
	svc, _ := newSvc(t)
	ctx := context.Background()
	cases := []GeneralInput{
		{AccountNumber: "", Name: "x", Category: "ASET"},
		{AccountNumber: "1.a", Name: "x", Category: "ASET"},
		{AccountNumber: "1.1", Name: "  ", Category: "ASET"},
		{AccountNumber: "1.1", Name: "x", Category: "NOPE"},
		{AccountNumber: "1.1", Name: "x"},
		{AccountNumber: "1.1", Name: "x", ReportType: ledger.ReportTypeBalanceSheet, TransactionType: "SIDEWAYS"},
	}
	for i, in := range cases {
		_, err := svc.CreateGeneral(ctx, in)
		assert.ErrorIs(t, err, errs.ErrInvalid, "case %d", i)
	}
}

func TestCreateDetail_InheritsFromParent(t *testing.T) {
	svc, _ := newSvc(t)
	ctx := context.Background()
	g, err := svc.CreateGeneral(ctx, GeneralInput{AccountNumber: "5.1", Name: "Beban Operasional", Category: "BEBAN"})
	require.NoError(t, err)

	d, err := svc.CreateDetail(ctx, DetailInput{AccountNumber: "5.1.01", GeneralAccountNumber: "5.1", Name: "Beban Gaji"})
	require.NoError(t, err)
	assert.Equal(t, g.ID, d.GeneralAccountID)
	assert.Equal(t, ledger.ReportTypeProfitLoss, d.ReportType)
	assert.Equal(t, ledger.Debit, d.TransactionType)
	assert.Equal(t, "BEBAN", d.Category)

	_, err = svc.CreateDetail(ctx, DetailInput{AccountNumber: "5.1.01", GeneralAccountNumber: "5.1", Name: "dup"})
	assert.ErrorIs(t, err, ErrNumberExists)
	assert.ErrorIs(t, err, errs.ErrConflict)

	// general and detail numbers share one namespace
	_, err = svc.CreateGeneral(ctx, GeneralInput{AccountNumber: "5.1.01", Name: "clash", Category: "BEBAN"})
	assert.ErrorIs(t, err, errs.ErrConflict)

	_, err = svc.CreateDetail(ctx, DetailInput{AccountNumber: "6.1.01", GeneralAccountNumber: "5.1", Name: "stray"})
	assert.ErrorIs(t, err, errs.ErrInvalid)

	_, err = svc.CreateDetail(ctx, DetailInput{AccountNumber: "9.9.01", GeneralAccountNumber: "9.9", Name: "orphan"})
	assert.ErrorIs(t, err, errs.ErrAccountNotFound)

	list, err := svc.ListDetail(ctx, storage.AccountFilter{GeneralAccountID: g.ID})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "5.1.01", list[0].AccountNumber)
}

func TestDeleteDetail_RefusedWhileCarryingValue(t *testing.T) {
	svc, store := newSvc(t)
	ctx := context.Background()
	g, err := svc.CreateGeneral(ctx, GeneralInput{AccountNumber: "1.1", Name: "Kas", Category: "ASET"})
	require.NoError(t, err)
	d, err := svc.CreateDetail(ctx, DetailInput{AccountNumber: "1.1.01", GeneralAccountNumber: "1.1", Name: "Kas Kecil"})
	require.NoError(t, err)

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)
	_, err = tx.ApplyDetailDelta(ctx, storage.BalanceDelta{AccountNumber: "1.1.01", Debit: amount.MustFromMinor(500), At: clock})
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))

	assert.ErrorIs(t, svc.DeleteDetail(ctx, "1.1.01"), errs.ErrConflict)
	assert.ErrorIs(t, svc.DeleteGeneral(ctx, "1.1"), errs.ErrConflict)

	tx, err = store.BeginTx(ctx)
	require.NoError(t, err)
	_, err = tx.ApplyDetailDelta(ctx, storage.BalanceDelta{AccountNumber: "1.1.01", Debit: amount.MustFromMinor(-500), At: clock})
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))

	store.SeedLedger(ledger.Ledger{
		ID: uuid.New(), ReferenceNumber: "R-1", Amount: amount.MustFromMinor(100), TransactionType: ledger.Debit,
		LedgerDate: clock, Status: ledger.StatusPending, DetailAccountID: d.ID, GeneralAccountID: g.ID,
		CreatedBy: "clerk", UpdatedBy: "clerk", CreatedAt: clock, UpdatedAt: clock,
	})
	assert.ErrorIs(t, svc.DeleteDetail(ctx, "1.1.01"), errs.ErrConflict)
}

func TestDeleteDetail_RefusedWhileHistoryReferencesIt(t *testing.T) {
	store := memory.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	coord := txn.New(store, txn.Policy{MaxAttempts: 1}, logger)
	svc := New(coord, func() time.Time { return clock })
	post := posting.New(coord, posting.Options{Now: func() time.Time { return clock }, Logger: logger})
	ctx := context.Background()

	_, err := svc.CreateGeneral(ctx, GeneralInput{AccountNumber: "1.1", Name: "Kas", Category: "ASET"})
	require.NoError(t, err)
	cash, err := svc.CreateDetail(ctx, DetailInput{AccountNumber: "1.1.01", GeneralAccountNumber: "1.1", Name: "Kas Kecil"})
	require.NoError(t, err)
	_, err = svc.CreateGeneral(ctx, GeneralInput{AccountNumber: "4.1", Name: "Penjualan", Category: "PENDAPATAN"})
	require.NoError(t, err)
	sales, err := svc.CreateDetail(ctx, DetailInput{AccountNumber: "4.1.01", GeneralAccountNumber: "4.1", Name: "Penjualan Tunai"})
	require.NoError(t, err)

	for _, l := range []struct {
		d  ledger.DetailAccount
		tt ledger.TransactionType
	}{{cash, ledger.Debit}, {sales, ledger.Credit}} {
		store.SeedLedger(ledger.Ledger{
			ID: uuid.New(), ReferenceNumber: "INV-1", Amount: amount.MustFromMinor(100), TransactionType: l.tt,
			LedgerDate: clock, Status: ledger.StatusPending, DetailAccountID: l.d.ID, GeneralAccountID: l.d.GeneralAccountID,
			CreatedBy: "clerk", UpdatedBy: "clerk", CreatedAt: clock, UpdatedAt: clock,
		})
	}
	_, err = post.PostLedgers(ctx, clock, "supervisor")
	require.NoError(t, err)

	// balances are still zero here; the posted ledgers and pending journals hold the account
	assert.ErrorIs(t, svc.DeleteDetail(ctx, "1.1.01"), errs.ErrConflict)
	_, err = svc.GetDetail(ctx, "1.1.01")
	require.NoError(t, err)

	// a journal row alone is enough
	_, err = svc.CreateDetail(ctx, DetailInput{AccountNumber: "1.1.02", GeneralAccountNumber: "1.1", Name: "Kas Bank"})
	require.NoError(t, err)
	store.SeedJournal(ledger.JournalLedger{
		ID: uuid.New(), Debit: amount.MustFromMinor(100), Credit: amount.Zero(), Status: ledger.StatusPending,
		JournalDate: clock, DetailAccountNumber: "1.1.02", GeneralAccountNumber: "1.1",
		CreatedBy: "supervisor", UpdatedBy: "supervisor", CreatedAt: clock,
	})
	assert.ErrorIs(t, svc.DeleteDetail(ctx, "1.1.02"), errs.ErrConflict)
}

func TestDelete_SoftDeletesEmptyAccounts(t *testing.T) {
	svc, _ := newSvc(t)
	ctx := context.Background()
	_, err := svc.CreateGeneral(ctx, GeneralInput{AccountNumber: "2.1", Name: "Simpanan", Category: "KEWAJIBAN"})
	require.NoError(t, err)
	_, err = svc.CreateDetail(ctx, DetailInput{AccountNumber: "2.1.01", GeneralAccountNumber: "2.1", Name: "Sukarela"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteDetail(ctx, "2.1.01"))
	_, err = svc.GetDetail(ctx, "2.1.01")
	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteDetail(ctx, "2.1.01"), errs.ErrNotFound)

	require.NoError(t, svc.DeleteGeneral(ctx, "2.1"))
	live, err := svc.ListGeneral(ctx, storage.AccountFilter{})
	require.NoError(t, err)
	assert.Empty(t, live)
	all, err := svc.ListGeneral(ctx, storage.AccountFilter{IncludeDeleted: true})
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.NotNil(t, all[0].DeletedAt)

	// deleted numbers stay reserved
	_, err = svc.CreateGeneral(ctx, GeneralInput{AccountNumber: "2.1", Name: "again", Category: "KEWAJIBAN"})
	assert.ErrorIs(t, err, errs.ErrConflict)
}
