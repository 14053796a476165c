// Package memory provides an in-memory transactional store used for development and tests.
// A transaction holds the store's single writer slot and works on a private copy of the
// data; Commit publishes the copy and Rollback discards it. Transactions are therefore
// serializable by construction.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/tinoosan/bukubesar/internal/dictionary"
	"github.com/tinoosan/bukubesar/internal/errs"
	"github.com/tinoosan/bukubesar/internal/ledger"
	"github.com/tinoosan/bukubesar/internal/storage"
)

var errTxClosed = errors.New("memory: transaction already closed")

type state struct {
	general   map[uuid.UUID]ledger.GeneralAccount
	detail    map[uuid.UUID]ledger.DetailAccount
	ledgers   map[uuid.UUID]ledger.Ledger
	journals  map[uuid.UUID]ledger.JournalLedger
	netIncome map[int]ledger.NetIncomeRecord
}

func newState() *state {
	return &state{
		general:   make(map[uuid.UUID]ledger.GeneralAccount),
		detail:    make(map[uuid.UUID]ledger.DetailAccount),
		ledgers:   make(map[uuid.UUID]ledger.Ledger),
		journals:  make(map[uuid.UUID]ledger.JournalLedger),
		netIncome: make(map[int]ledger.NetIncomeRecord),
	}
}

func (st *state) clone() *state {
	c := newState()
	for k, v := range st.general {
		c.general[k] = v
	}
	for k, v := range st.detail {
		c.detail[k] = v
	}
	for k, v := range st.ledgers {
		v.Metadata = v.Metadata.Clone()
		c.ledgers[k] = v
	}
	for k, v := range st.journals {
		c.journals[k] = v
	}
	for k, v := range st.netIncome {
		c.netIncome[k] = v
	}
	return c
}

// Store is an in-memory implementation of storage.Store.
type Store struct {
	// sem is the single writer slot; a transaction holds it from BeginTx to Commit/Rollback.
	sem chan struct{}
	st  *state
	// failCommits makes the next n commits fail with errs.ErrTransient (tests only).
	failCommits int
}

// New constructs an empty in-memory store.
func New() *Store {
	return &Store{sem: make(chan struct{}, 1), st: newState()}
}

// Ready always succeeds.
func (s *Store) Ready(context.Context) error { return nil }

// BeginTx waits for the writer slot or ctx cancellation.
func (s *Store) BeginTx(ctx context.Context) (storage.Tx, error) {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", errs.ErrTransient, ctx.Err())
	}
	return &Tx{s: s, st: s.st.clone()}, nil
}

// FailNextCommits makes the next n commits fail with a transient error and discard
// their changes. It lets tests exercise the retry path.
func (s *Store) FailNextCommits(n int) {
	s.sem <- struct{}{}
	s.failCommits = n
	<-s.sem
}

// Reset drops all data.
func (s *Store) Reset() {
	s.sem <- struct{}{}
	s.st = newState()
	s.failCommits = 0
	<-s.sem
}

// Seed helpers for local dev/tests. They bypass validation.
func (s *Store) SeedGeneralAccount(a ledger.GeneralAccount) {
	s.sem <- struct{}{}
	s.st.general[a.ID] = a
	<-s.sem
}

func (s *Store) SeedDetailAccount(a ledger.DetailAccount) {
	s.sem <- struct{}{}
	s.st.detail[a.ID] = a
	<-s.sem
}

func (s *Store) SeedLedger(l ledger.Ledger) {
	s.sem <- struct{}{}
	s.st.ledgers[l.ID] = l
	<-s.sem
}

func (s *Store) SeedJournal(j ledger.JournalLedger) {
	s.sem <- struct{}{}
	s.st.journals[j.ID] = j
	<-s.sem
}

// SeedDev loads dictionary.DevChart. Numbers that already exist are left alone.
func (s *Store) SeedDev(netIncomeAccount string) {
	s.sem <- struct{}{}
	defer func() { <-s.sem }()
	t := &Tx{s: s, st: s.st}
	now := time.Now().UTC()
	for _, g := range dictionary.DevChart(netIncomeAccount) {
		ga := ledger.GeneralAccount{
			ID: uuid.New(), AccountNumber: g.Number, Name: g.Name, Category: g.Category,
			ReportType: g.ReportType, TransactionType: g.TransactionType,
			Balances: ledger.ZeroBalances(), CreatedAt: now, UpdatedAt: now,
		}
		if existing, err := t.GeneralAccountByNumber(context.Background(), g.Number); err == nil {
			ga = existing
		} else if !t.numberTaken(g.Number) {
			s.st.general[ga.ID] = ga
		} else {
			continue
		}
		for _, d := range g.Details {
			if t.numberTaken(d.Number) {
				continue
			}
			id := uuid.New()
			s.st.detail[id] = ledger.DetailAccount{
				ID: id, AccountNumber: d.Number, Name: d.Name, Category: g.Category,
				ReportType: g.ReportType, TransactionType: g.TransactionType, GeneralAccountID: ga.ID,
				Balances: ledger.ZeroBalances(), CreatedAt: now, UpdatedAt: now,
			}
		}
	}
}

// Snapshot is a point-in-time copy of every table, sorted for stable comparisons.
type Snapshot struct {
	General   []ledger.GeneralAccount
	Detail    []ledger.DetailAccount
	Ledgers   []ledger.Ledger
	Journals  []ledger.JournalLedger
	NetIncome []ledger.NetIncomeRecord
}

// Snapshot copies the committed state.
func (s *Store) Snapshot() Snapshot {
	s.sem <- struct{}{}
	st := s.st.clone()
	<-s.sem
	var out Snapshot
	for _, v := range st.general {
		out.General = append(out.General, v)
	}
	sort.Slice(out.General, func(i, j int) bool { return out.General[i].AccountNumber < out.General[j].AccountNumber })
	for _, v := range st.detail {
		out.Detail = append(out.Detail, v)
	}
	sort.Slice(out.Detail, func(i, j int) bool { return out.Detail[i].AccountNumber < out.Detail[j].AccountNumber })
	for _, v := range st.ledgers {
		out.Ledgers = append(out.Ledgers, v)
	}
	sortLedgers(out.Ledgers)
	for _, v := range st.journals {
		out.Journals = append(out.Journals, v)
	}
	sortJournals(out.Journals)
	for _, v := range st.netIncome {
		out.NetIncome = append(out.NetIncome, v)
	}
	sort.Slice(out.NetIncome, func(i, j int) bool { return out.NetIncome[i].Year < out.NetIncome[j].Year })
	return out
}

// Tx is a memory transaction. It is not safe for concurrent use.
type Tx struct {
	s      *Store
	st     *state
	closed bool
}

// Commit publishes the transaction's copy.
func (t *Tx) Commit(context.Context) error {
	if t.closed {
		return errTxClosed
	}
	t.closed = true
	defer func() { <-t.s.sem }()
	if t.s.failCommits > 0 {
		t.s.failCommits--
		return fmt.Errorf("%w: injected commit failure", errs.ErrTransient)
	}
	t.s.st = t.st
	return nil
}

// Rollback discards the transaction's copy. It is a no-op after Commit.
func (t *Tx) Rollback(context.Context) error {
	if t.closed {
		return nil
	}
	t.closed = true
	<-t.s.sem
	return nil
}

func sortLedgers(ls []ledger.Ledger) {
	sort.Slice(ls, func(i, j int) bool {
		a, b := ls[i], ls[j]
		if !a.LedgerDate.Equal(b.LedgerDate) {
			return a.LedgerDate.Before(b.LedgerDate)
		}
		if a.ReferenceNumber != b.ReferenceNumber {
			return a.ReferenceNumber < b.ReferenceNumber
		}
		return a.ID.String() < b.ID.String()
	})
}

func sortJournals(js []ledger.JournalLedger) {
	sort.Slice(js, func(i, j int) bool {
		a, b := js[i], js[j]
		if !a.JournalDate.Equal(b.JournalDate) {
			return a.JournalDate.Before(b.JournalDate)
		}
		if a.DetailAccountNumber != b.DetailAccountNumber {
			return a.DetailAccountNumber < b.DetailAccountNumber
		}
		return a.ID.String() < b.ID.String()
	})
}
