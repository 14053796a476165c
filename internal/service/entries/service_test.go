package entries

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinoosan/bukubesar/internal/amount"
	"github.com/tinoosan/bukubesar/internal/errs"
	"github.com/tinoosan/bukubesar/internal/ledger"
	"github.com/tinoosan/bukubesar/internal/meta"
	"github.com/tinoosan/bukubesar/internal/service/txn"
	"github.com/tinoosan/bukubesar/internal/storage/memory"
)

var (
	clock = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	day   = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
)

type fixture struct {
	store *memory.Store
	svc   Service
	cash  ledger.DetailAccount
	bank  ledger.DetailAccount
}

func setup(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: memory.New()}
	g := ledger.GeneralAccount{ID: uuid.New(), AccountNumber: "1.1", Name: "Kas", ReportType: ledger.ReportTypeBalanceSheet,
		TransactionType: ledger.Debit, Balances: ledger.ZeroBalances()}
	f.store.SeedGeneralAccount(g)
	f.cash = ledger.DetailAccount{ID: uuid.New(), AccountNumber: "1.1.01", Name: "Kas", ReportType: g.ReportType,
		TransactionType: g.TransactionType, GeneralAccountID: g.ID, Balances: ledger.ZeroBalances()}
	f.bank = ledger.DetailAccount{ID: uuid.New(), AccountNumber: "1.1.02", Name: "Bank", ReportType: g.ReportType,
		TransactionType: g.TransactionType, GeneralAccountID: g.ID, Balances: ledger.ZeroBalances()}
	f.store.SeedDetailAccount(f.cash)
	f.store.SeedDetailAccount(f.bank)
	coord := txn.New(f.store, txn.Policy{MaxAttempts: 1}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	f.svc = New(coord, nil, func() time.Time { return clock })
	return f
}

func validInput() Input {
	return Input{
		ReferenceNumber:     "INV-001",
		Amount:              amount.MustFromMinor(150000),
		Description:         "setoran",
		LedgerType:          "KAS",
		TransactionType:     ledger.Debit,
		LedgerDate:          day.Add(10 * time.Hour),
		DetailAccountNumber: "1-1-01",
		Metadata:            meta.Metadata{"source": "teller"},
	}
}

func TestCreate_StartsPending(t *testing.T) {
	f := setup(t)
	l, err := f.svc.Create(context.Background(), validInput(), "clerk")
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusPending, l.Status)
	assert.Equal(t, f.cash.ID, l.DetailAccountID)
	assert.Equal(t, f.cash.GeneralAccountID, l.GeneralAccountID)
	assert.Equal(t, "clerk", l.CreatedBy)
	assert.Equal(t, "1500.00", amount.String(l.Amount))
	assert.Nil(t, l.PostedAt)

	got, err := f.svc.Get(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Equal(t, "teller", got.Metadata["source"])
}

func TestValidateInput(t *testing.T) {
	f := setup(t)
	tooMany := meta.Metadata{}
	for i := 0; i <= meta.MaxPairs; i++ {
		tooMany[strings.Repeat("k", i+1)] = "v"
	}
	cases := []struct {
		name string
		mut  func(*Input)
		want error
	}{
		{"no reference", func(in *Input) { in.ReferenceNumber = " " }, errs.ErrInvalid},
		{"long reference", func(in *Input) { in.ReferenceNumber = strings.Repeat("x", MaxReferenceLen+1) }, errs.ErrInvalid},
		{"zero amount", func(in *Input) { in.Amount = amount.Zero() }, errs.ErrInvalidAmount},
		{"negative amount", func(in *Input) { in.Amount = amount.MustFromMinor(-1) }, errs.ErrInvalidAmount},
		{"bad side", func(in *Input) { in.TransactionType = "BOTH" }, errs.ErrInvalid},
		{"no date", func(in *Input) { in.LedgerDate = time.Time{} }, errs.ErrInvalidDate},
		{"bad account", func(in *Input) { in.DetailAccountNumber = "kas" }, errs.ErrInvalid},
		{"metadata", func(in *Input) { in.Metadata = tooMany }, meta.ErrTooManyPairs},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mut(&in)
			assert.ErrorIs(t, f.svc.ValidateInput(in), tc.want)
		})
	}
}

func TestCreate_UnknownAccount(t *testing.T) {
	f := setup(t)
	in := validInput()
	in.DetailAccountNumber = "9.9.99"
	_, err := f.svc.Create(context.Background(), in, "clerk")
	assert.ErrorIs(t, err, errs.ErrAccountNotFound)
	assert.Empty(t, f.store.Snapshot().Ledgers)
}

func TestUpdateAndDelete_OnlyWhilePending(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	l, err := f.svc.Create(ctx, validInput(), "clerk")
	require.NoError(t, err)

	in := validInput()
	in.DetailAccountNumber = "1.1.02"
	in.Amount = amount.MustFromMinor(99)
	upd, err := f.svc.Update(ctx, l.ID, in, "editor")
	require.NoError(t, err)
	assert.Equal(t, f.bank.ID, upd.DetailAccountID)
	assert.Equal(t, "0.99", amount.String(upd.Amount))
	assert.Equal(t, "clerk", upd.CreatedBy)
	assert.Equal(t, "editor", upd.UpdatedBy)

	posted := clock
	f.store.SeedLedger(ledger.Ledger{ID: uuid.New(), ReferenceNumber: "P-1", Amount: amount.MustFromMinor(1), TransactionType: ledger.Credit,
		LedgerDate: day, Status: ledger.StatusPosted, PostedAt: &posted, DetailAccountID: f.cash.ID, GeneralAccountID: f.cash.GeneralAccountID})
	list, err := f.svc.List(ctx, Filter{From: day, To: day, Status: ledger.StatusPosted})
	require.NoError(t, err)
	require.Len(t, list, 1)
	_, err = f.svc.Update(ctx, list[0].ID, validInput(), "editor")
	assert.ErrorIs(t, err, errs.ErrImmutable)
	assert.ErrorIs(t, f.svc.Delete(ctx, list[0].ID, "editor"), errs.ErrImmutable)

	require.NoError(t, f.svc.Delete(ctx, l.ID, "editor"))
	_, err = f.svc.Get(ctx, l.ID)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.ErrorIs(t, f.svc.Delete(ctx, uuid.New(), "editor"), errs.ErrNotFound)
}

func TestList_DayRangeAndStatus(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	for i, d := range []time.Time{day, day.AddDate(0, 0, 1), day.AddDate(0, 0, 2)} {
		in := validInput()
		in.ReferenceNumber = "R-" + string(rune('A'+i))
		in.LedgerDate = d.Add(23 * time.Hour)
		_, err := f.svc.Create(ctx, in, "clerk")
		require.NoError(t, err)
	}
	got, err := f.svc.List(ctx, Filter{From: day, To: day.AddDate(0, 0, 1)})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "R-A", got[0].ReferenceNumber)

	all, err := f.svc.List(ctx, Filter{Status: ledger.StatusPending})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = f.svc.List(ctx, Filter{Status: "DRAFT"})
	assert.ErrorIs(t, err, errs.ErrInvalid)
	_, err = f.svc.List(ctx, Filter{From: day.AddDate(0, 0, 2), To: day})
	assert.ErrorIs(t, err, errs.ErrInvalidDate)
}
