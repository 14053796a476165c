// Package posting implements the posting engine: the paired state transitions that move
// ledger and journal rows between PENDING and POSTED, push journal deltas into detail
// account balances, roll detail balances up into general accounts (neraca akhir) and
// persist the yearly net income (SHU).
//
// Every operation re-reads the state it needs inside a single transaction obtained from
// the Runner; nothing is cached between calls.
package posting

import (
	"context"
	"log/slog"
	"time"

	"github.com/govalues/money"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tinoosan/bukubesar/internal/errs"
	"github.com/tinoosan/bukubesar/internal/ledger"
	"github.com/tinoosan/bukubesar/internal/service/txn"
)

var (
	operationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bukubesar",
			Name:      "posting_operations_total",
			Help:      "Posting engine operations by outcome code",
		},
		[]string{"operation", "result"},
	)
	operationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bukubesar",
			Name:      "posting_operation_duration_seconds",
			Help:      "Duration of posting engine operations including retries",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

// Operation names, used as transaction and metric labels.
const (
	OpPostLedgers   = "post_ledgers"
	OpUnpostLedgers = "unpost_ledgers"
	OpPostBalance   = "post_balance"
	OpUnpostBalance = "unpost_balance"
	OpPostNeraca    = "post_neraca_akhir"
	OpCalculateSHU  = "calculate_shu"
	OpPostSHU       = "post_shu"
	OpCloseSHU      = "close_shu"
)

// Runner executes a unit of work atomically. *txn.Coordinator satisfies it.
type Runner interface {
	Run(ctx context.Context, op string, fn txn.Func) error
}

// Service is the posting engine.
type Service interface {
	PostLedgers(ctx context.Context, date time.Time, user string) (PostLedgersResult, error)
	UnpostLedgers(ctx context.Context, date time.Time, user string) (UnpostLedgersResult, error)
	PostBalance(ctx context.Context, cutoff time.Time, user string) (BalanceResult, error)
	UnpostBalance(ctx context.Context, date time.Time, user string) (BalanceResult, error)
	PostNeracaAkhir(ctx context.Context, date time.Time, user string) (NeracaResult, error)
	CalculateNetIncome(ctx context.Context, year int) (NetIncomeCalculation, error)
	// PostNetIncome sets the year's SHU to amt; a repost replaces the amount, it is not added.
	PostNetIncome(ctx context.Context, year int, amt money.Amount, user string) (ledger.NetIncomeRecord, error)
	CloseNetIncome(ctx context.Context, year int, user string) (ledger.NetIncomeRecord, error)
}

// Options configures the engine.
type Options struct {
	// Location defines calendar-day boundaries for business dates. Defaults to UTC.
	Location *time.Location
	// NetIncomeAccount is the detail account number that receives posted SHU.
	// Defaults to DefaultNetIncomeAccount.
	NetIncomeAccount string
	// Now overrides the clock; defaults to time.Now.
	Now    func() time.Time
	Logger *slog.Logger
}

type service struct {
	tx  Runner
	loc *time.Location
	shu string
	now func() time.Time
	log *slog.Logger
}

// New constructs the posting engine around an injected transaction runner.
func New(runner Runner, opts Options) Service {
	s := &service{tx: runner, loc: opts.Location, shu: opts.NetIncomeAccount, now: opts.Now, log: opts.Logger}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.shu == "" {
		s.shu = DefaultNetIncomeAccount
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	return s
}

// run executes fn in one transaction and records the outcome.
func (s *service) run(ctx context.Context, op string, fn txn.Func) error {
	start := time.Now()
	err := s.tx.Run(ctx, op, fn)
	result := "OK"
	if err != nil {
		result = errs.Code(err)
	}
	operationsTotal.WithLabelValues(op, result).Inc()
	operationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		s.log.Info("posting operation rejected", "op", op, "code", result, "err", err)
	}
	return err
}

func (s *service) timestamp() time.Time { return s.now().UTC() }

// PostLedgersResult reports the outcome of PostLedgers.
type PostLedgersResult struct {
	Date            string
	Posted          int
	JournalsCreated int
	PostedAt        time.Time
}

// UnpostLedgersResult reports the outcome of UnpostLedgers.
type UnpostLedgersResult struct {
	Date            string
	Unposted        int
	JournalsDeleted int
	At              time.Time
}

// AccountSummary describes one detail account touched by a balance operation.
type AccountSummary struct {
	AccountNumber string
	Name          string
	// Debit and Credit are the signed deltas applied by the operation.
	Debit  money.Amount
	Credit money.Amount
	// AmountDebit and AmountCredit are the balances after the operation.
	AmountDebit  money.Amount
	AmountCredit money.Amount
	Journals     int
}

// BalanceResult reports the outcome of PostBalance and UnpostBalance.
type BalanceResult struct {
	Date     string
	Journals int
	Accounts []AccountSummary
	At       time.Time
}

// GeneralSummary describes one general account overwritten by the roll-up.
type GeneralSummary struct {
	AccountNumber string
	Name          string
	AmountDebit   money.Amount
	AmountCredit  money.Amount
	Details       int
}

// NeracaResult reports the outcome of PostNeracaAkhir.
type NeracaResult struct {
	Date     string
	Accounts []GeneralSummary
	At       time.Time
}

// NetIncomeCalculation is the read-only SHU computation for a year.
type NetIncomeCalculation struct {
	Year      int
	Revenue   money.Amount
	Expense   money.Amount
	NetIncome money.Amount
	// RecordExists reports whether the year already has a posted SHU record.
	RecordExists bool
	Closed       bool
	Record       *ledger.NetIncomeRecord
}
