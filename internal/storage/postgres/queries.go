package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"
	"github.com/jackc/pgx/v5"

	"github.com/tinoosan/bukubesar/internal/amount"
	"github.com/tinoosan/bukubesar/internal/errs"
	"github.com/tinoosan/bukubesar/internal/ledger"
	"github.com/tinoosan/bukubesar/internal/meta"
	"github.com/tinoosan/bukubesar/internal/storage"
)

// where accumulates positional predicates.
type where struct {
	conds []string
	args  []any
}

// add appends a predicate; format must contain exactly one %d for the placeholder.
func (w *where) add(format string, arg any) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, fmt.Sprintf(format, len(w.args)))
}

func (w *where) raw(cond string) { w.conds = append(w.conds, cond) }

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " where " + strings.Join(w.conds, " and ")
}

func fromMinor(units int64) money.Amount { return amount.MustFromMinor(units) }

// --- Accounts ---

const generalCols = `id, account_number, name, category, report_type, transaction_type,
	amount_debit_minor, amount_credit_minor, accumulation_amount_debit_minor, accumulation_amount_credit_minor,
	created_at, updated_at, deleted_at`

const detailCols = `id, account_number, name, category, report_type, transaction_type, general_account_id,
	amount_debit_minor, amount_credit_minor, accumulation_amount_debit_minor, accumulation_amount_credit_minor,
	created_at, updated_at, deleted_at`

func scanGeneral(row pgx.Row) (ledger.GeneralAccount, error) {
	var a ledger.GeneralAccount
	var rt, tt string
	var d, c, ad, ac int64
	if err := row.Scan(&a.ID, &a.AccountNumber, &a.Name, &a.Category, &rt, &tt, &d, &c, &ad, &ac, &a.CreatedAt, &a.UpdatedAt, &a.DeletedAt); err != nil {
		return ledger.GeneralAccount{}, classify(err)
	}
	a.ReportType, a.TransactionType = ledger.ReportType(rt), ledger.TransactionType(tt)
	a.Balances = ledger.Balances{AmountDebit: fromMinor(d), AmountCredit: fromMinor(c), AccumulationAmountDebit: fromMinor(ad), AccumulationAmountCredit: fromMinor(ac)}
	return a, nil
}

func scanDetail(row pgx.Row) (ledger.DetailAccount, error) {
	var a ledger.DetailAccount
	var rt, tt string
	var d, c, ad, ac int64
	if err := row.Scan(&a.ID, &a.AccountNumber, &a.Name, &a.Category, &rt, &tt, &a.GeneralAccountID, &d, &c, &ad, &ac, &a.CreatedAt, &a.UpdatedAt, &a.DeletedAt); err != nil {
		return ledger.DetailAccount{}, classify(err)
	}
	a.ReportType, a.TransactionType = ledger.ReportType(rt), ledger.TransactionType(tt)
	a.Balances = ledger.Balances{AmountDebit: fromMinor(d), AmountCredit: fromMinor(c), AccumulationAmountDebit: fromMinor(ad), AccumulationAmountCredit: fromMinor(ac)}
	return a, nil
}

// numberTaken enforces account-number uniqueness across both account tables.
func (t *Tx) numberTaken(ctx context.Context, number string) (bool, error) {
	var taken bool
	err := t.tx.QueryRow(ctx, `
		select exists(select 1 from general_accounts where account_number = $1)
		    or exists(select 1 from detail_accounts where account_number = $1)
	`, number).Scan(&taken)
	return taken, classify(err)
}

func (t *Tx) CreateGeneralAccount(ctx context.Context, a ledger.GeneralAccount) (ledger.GeneralAccount, error) {
	taken, err := t.numberTaken(ctx, a.AccountNumber)
	if err != nil {
		return ledger.GeneralAccount{}, err
	}
	if taken {
		return ledger.GeneralAccount{}, fmt.Errorf("%w: account number %s exists", errs.ErrConflict, a.AccountNumber)
	}
	if _, err := t.tx.Exec(ctx, `
		insert into general_accounts (id, account_number, name, category, report_type, transaction_type,
			amount_debit_minor, amount_credit_minor, accumulation_amount_debit_minor, accumulation_amount_credit_minor,
			created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, a.ID, a.AccountNumber, a.Name, a.Category, string(a.ReportType), string(a.TransactionType),
		amount.Minor(a.AmountDebit), amount.Minor(a.AmountCredit), amount.Minor(a.AccumulationAmountDebit), amount.Minor(a.AccumulationAmountCredit),
		a.CreatedAt, a.UpdatedAt); err != nil {
		return ledger.GeneralAccount{}, classify(err)
	}
	return a, nil
}

func (t *Tx) CreateDetailAccount(ctx context.Context, a ledger.DetailAccount) (ledger.DetailAccount, error) {
	taken, err := t.numberTaken(ctx, a.AccountNumber)
	if err != nil {
		return ledger.DetailAccount{}, err
	}
	if taken {
		return ledger.DetailAccount{}, fmt.Errorf("%w: account number %s exists", errs.ErrConflict, a.AccountNumber)
	}
	if _, err := t.tx.Exec(ctx, `
		insert into detail_accounts (id, account_number, name, category, report_type, transaction_type, general_account_id,
			amount_debit_minor, amount_credit_minor, accumulation_amount_debit_minor, accumulation_amount_credit_minor,
			created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`, a.ID, a.AccountNumber, a.Name, a.Category, string(a.ReportType), string(a.TransactionType), a.GeneralAccountID,
		amount.Minor(a.AmountDebit), amount.Minor(a.AmountCredit), amount.Minor(a.AccumulationAmountDebit), amount.Minor(a.AccumulationAmountCredit),
		a.CreatedAt, a.UpdatedAt); err != nil {
		return ledger.DetailAccount{}, classify(err)
	}
	return a, nil
}

func (t *Tx) GeneralAccountByID(ctx context.Context, id uuid.UUID) (ledger.GeneralAccount, error) {
	return scanGeneral(t.tx.QueryRow(ctx, `select `+generalCols+` from general_accounts where id = $1 and deleted_at is null`, id))
}

func (t *Tx) GeneralAccountByNumber(ctx context.Context, number string) (ledger.GeneralAccount, error) {
	return scanGeneral(t.tx.QueryRow(ctx, `select `+generalCols+` from general_accounts where account_number = $1 and deleted_at is null`, number))
}

func (t *Tx) DetailAccountByID(ctx context.Context, id uuid.UUID) (ledger.DetailAccount, error) {
	return scanDetail(t.tx.QueryRow(ctx, `select `+detailCols+` from detail_accounts where id = $1 and deleted_at is null`, id))
}

func (t *Tx) DetailAccountByNumber(ctx context.Context, number string) (ledger.DetailAccount, error) {
	return scanDetail(t.tx.QueryRow(ctx, `select `+detailCols+` from detail_accounts where account_number = $1 and deleted_at is null`, number))
}

func accountWhere(f storage.AccountFilter, detail bool) *where {
	w := &where{}
	if !f.IncludeDeleted {
		w.raw("deleted_at is null")
	}
	if f.ReportType != "" {
		w.add("report_type = $%d", string(f.ReportType))
	}
	if detail && f.GeneralAccountID != uuid.Nil {
		w.add("general_account_id = $%d", f.GeneralAccountID)
	}
	return w
}

func (t *Tx) ListGeneralAccounts(ctx context.Context, f storage.AccountFilter) ([]ledger.GeneralAccount, error) {
	w := accountWhere(f, false)
	rows, err := t.tx.Query(ctx, `select `+generalCols+` from general_accounts`+w.String()+` order by account_number`, w.args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	out := make([]ledger.GeneralAccount, 0)
	for rows.Next() {
		a, err := scanGeneral(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, classify(rows.Err())
}

func (t *Tx) ListDetailAccounts(ctx context.Context, f storage.AccountFilter) ([]ledger.DetailAccount, error) {
	w := accountWhere(f, true)
	rows, err := t.tx.Query(ctx, `select `+detailCols+` from detail_accounts`+w.String()+` order by account_number`, w.args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	out := make([]ledger.DetailAccount, 0)
	for rows.Next() {
		a, err := scanDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, classify(rows.Err())
}

// ApplyDetailDelta is a single UPDATE so the row lock and the increment are atomic.
// The balance_nonneg check constraint rejects results below zero.
func (t *Tx) ApplyDetailDelta(ctx context.Context, d storage.BalanceDelta) (ledger.DetailAccount, error) {
	debitCol, creditCol := "amount_debit_minor", "amount_credit_minor"
	if d.Target == storage.TargetAccumulation {
		debitCol, creditCol = "accumulation_amount_debit_minor", "accumulation_amount_credit_minor"
	}
	a, err := scanDetail(t.tx.QueryRow(ctx, `
		update detail_accounts
		set `+debitCol+` = `+debitCol+` + $1, `+creditCol+` = `+creditCol+` + $2, updated_at = $3
		where account_number = $4 and deleted_at is null
		returning `+detailCols,
		amount.Minor(d.Debit), amount.Minor(d.Credit), d.At, d.AccountNumber))
	if err != nil {
		return ledger.DetailAccount{}, fmt.Errorf("account %s: %w", d.AccountNumber, err)
	}
	return a, nil
}

func (t *Tx) SetGeneralBalance(ctx context.Context, b storage.GeneralBalance) (ledger.GeneralAccount, error) {
	return scanGeneral(t.tx.QueryRow(ctx, `
		update general_accounts
		set amount_debit_minor = $1, amount_credit_minor = $2, updated_at = $3
		where id = $4 and deleted_at is null
		returning `+generalCols,
		amount.Minor(b.Debit), amount.Minor(b.Credit), b.At, b.GeneralAccountID))
}

func (t *Tx) SoftDeleteGeneralAccount(ctx context.Context, id uuid.UUID, at time.Time) error {
	ct, err := t.tx.Exec(ctx, `update general_accounts set deleted_at = $1, updated_at = $1 where id = $2 and deleted_at is null`, at, id)
	if err != nil {
		return classify(err)
	}
	if ct.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (t *Tx) SoftDeleteDetailAccount(ctx context.Context, id uuid.UUID, at time.Time) error {
	ct, err := t.tx.Exec(ctx, `update detail_accounts set deleted_at = $1, updated_at = $1 where id = $2 and deleted_at is null`, at, id)
	if err != nil {
		return classify(err)
	}
	if ct.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// --- Ledgers ---

const ledgerCols = `id, reference_number, amount_minor, description, ledger_type, transaction_type, ledger_date, status,
	detail_account_id, general_account_id, posted_at, created_by, updated_by, metadata, created_at, updated_at, deleted_at`

func scanLedger(row pgx.Row) (ledger.Ledger, error) {
	var l ledger.Ledger
	var minor int64
	var tt, st string
	var md []byte
	if err := row.Scan(&l.ID, &l.ReferenceNumber, &minor, &l.Description, &l.LedgerType, &tt, &l.LedgerDate, &st,
		&l.DetailAccountID, &l.GeneralAccountID, &l.PostedAt, &l.CreatedBy, &l.UpdatedBy, &md, &l.CreatedAt, &l.UpdatedAt, &l.DeletedAt); err != nil {
		return ledger.Ledger{}, classify(err)
	}
	l.Amount = fromMinor(minor)
	l.TransactionType, l.Status = ledger.TransactionType(tt), ledger.Status(st)
	if len(md) > 0 {
		var m meta.Metadata
		if err := m.UnmarshalJSON(md); err == nil {
			l.Metadata = m
		}
	}
	return l, nil
}

func (t *Tx) CreateLedger(ctx context.Context, l ledger.Ledger) (ledger.Ledger, error) {
	md, err := l.Metadata.MarshalStableJSON()
	if err != nil {
		return ledger.Ledger{}, err
	}
	if _, err := t.tx.Exec(ctx, `
		insert into ledgers (id, reference_number, amount_minor, description, ledger_type, transaction_type, ledger_date, status,
			detail_account_id, general_account_id, posted_at, created_by, updated_by, metadata, created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
	`, l.ID, l.ReferenceNumber, amount.Minor(l.Amount), l.Description, l.LedgerType, string(l.TransactionType), l.LedgerDate, string(l.Status),
		l.DetailAccountID, l.GeneralAccountID, l.PostedAt, l.CreatedBy, l.UpdatedBy, md, l.CreatedAt, l.UpdatedAt); err != nil {
		return ledger.Ledger{}, classify(err)
	}
	return l, nil
}

func (t *Tx) LedgerByID(ctx context.Context, id uuid.UUID) (ledger.Ledger, error) {
	return scanLedger(t.tx.QueryRow(ctx, `select `+ledgerCols+` from ledgers where id = $1 and deleted_at is null`, id))
}

// UpdateLedger locks and rewrites the row; soft deletion goes through DeletedAt.
func (t *Tx) UpdateLedger(ctx context.Context, l ledger.Ledger) (ledger.Ledger, error) {
	md, err := l.Metadata.MarshalStableJSON()
	if err != nil {
		return ledger.Ledger{}, err
	}
	ct, err := t.tx.Exec(ctx, `
		update ledgers
		set reference_number=$1, amount_minor=$2, description=$3, ledger_type=$4, transaction_type=$5, ledger_date=$6,
			detail_account_id=$7, general_account_id=$8, updated_by=$9, metadata=$10, updated_at=$11, deleted_at=$12
		where id=$13
	`, l.ReferenceNumber, amount.Minor(l.Amount), l.Description, l.LedgerType, string(l.TransactionType), l.LedgerDate,
		l.DetailAccountID, l.GeneralAccountID, l.UpdatedBy, md, l.UpdatedAt, l.DeletedAt, l.ID)
	if err != nil {
		return ledger.Ledger{}, classify(err)
	}
	if ct.RowsAffected() == 0 {
		return ledger.Ledger{}, errs.ErrNotFound
	}
	return l, nil
}

func ledgerWhere(q storage.LedgerQuery) *where {
	w := &where{}
	if !q.IncludeDeleted {
		w.raw("deleted_at is null")
	}
	if !q.From.IsZero() {
		w.add("ledger_date >= $%d", q.From)
	}
	if !q.To.IsZero() {
		w.add("ledger_date < $%d", q.To)
	}
	if q.Status != "" {
		w.add("status = $%d", string(q.Status))
	}
	if q.DetailAccountID != uuid.Nil {
		w.add("detail_account_id = $%d", q.DetailAccountID)
	}
	return w
}

func (t *Tx) ListLedgers(ctx context.Context, q storage.LedgerQuery) ([]ledger.Ledger, error) {
	w := ledgerWhere(q)
	rows, err := t.tx.Query(ctx, `select `+ledgerCols+` from ledgers`+w.String()+` order by ledger_date, reference_number, id`, w.args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	out := make([]ledger.Ledger, 0)
	for rows.Next() {
		l, err := scanLedger(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, classify(rows.Err())
}

func (t *Tx) CountLedgers(ctx context.Context, q storage.LedgerQuery) (int, error) {
	w := ledgerWhere(q)
	var n int
	err := t.tx.QueryRow(ctx, `select count(*) from ledgers`+w.String(), w.args...).Scan(&n)
	return n, classify(err)
}

func (t *Tx) SetLedgerStatus(ctx context.Context, u storage.StatusUpdate) (int, error) {
	if len(u.IDs) == 0 {
		return 0, nil
	}
	ct, err := t.tx.Exec(ctx, `
		update ledgers set status = $1, posted_at = $2, updated_by = $3, updated_at = $4
		where id = any($5) and deleted_at is null
	`, string(u.Status), u.PostedAt, u.UpdatedBy, u.At, u.IDs)
	if err != nil {
		return 0, classify(err)
	}
	return int(ct.RowsAffected()), nil
}

// --- Journals ---

const journalCols = `id, ledger_id, description, debit_minor, credit_minor, status, journal_date,
	detail_account_number, general_account_number, posted_at, created_by, updated_by, created_at,
	ledger_updated_by, ledger_updated_at`

func scanJournal(row pgx.Row) (ledger.JournalLedger, error) {
	var j ledger.JournalLedger
	var ledgerID *uuid.UUID
	var debit, credit int64
	var st string
	var ledgerUpdatedAt *time.Time
	if err := row.Scan(&j.ID, &ledgerID, &j.Description, &debit, &credit, &st, &j.JournalDate,
		&j.DetailAccountNumber, &j.GeneralAccountNumber, &j.PostedAt, &j.CreatedBy, &j.UpdatedBy, &j.CreatedAt,
		&j.LedgerUpdatedBy, &ledgerUpdatedAt); err != nil {
		return ledger.JournalLedger{}, classify(err)
	}
	if ledgerID != nil {
		j.LedgerID = *ledgerID
	}
	if ledgerUpdatedAt != nil {
		j.LedgerUpdatedAt = *ledgerUpdatedAt
	}
	j.Debit, j.Credit, j.Status = fromMinor(debit), fromMinor(credit), ledger.Status(st)
	return j, nil
}

// CreateJournals inserts all rows with a single COPY.
func (t *Tx) CreateJournals(ctx context.Context, js []ledger.JournalLedger) error {
	if len(js) == 0 {
		return nil
	}
	rows := make([][]any, len(js))
	for i, j := range js {
		var ledgerID *uuid.UUID
		if j.LedgerID != uuid.Nil {
			id := j.LedgerID
			ledgerID = &id
		}
		var ledgerUpdatedAt *time.Time
		if !j.LedgerUpdatedAt.IsZero() {
			at := j.LedgerUpdatedAt
			ledgerUpdatedAt = &at
		}
		rows[i] = []any{j.ID, ledgerID, j.Description, amount.Minor(j.Debit), amount.Minor(j.Credit), string(j.Status), j.JournalDate,
			j.DetailAccountNumber, j.GeneralAccountNumber, j.PostedAt, j.CreatedBy, j.UpdatedBy, j.CreatedAt,
			j.LedgerUpdatedBy, ledgerUpdatedAt}
	}
	_, err := t.tx.CopyFrom(ctx, pgx.Identifier{"journal_ledgers"},
		[]string{"id", "ledger_id", "description", "debit_minor", "credit_minor", "status", "journal_date",
			"detail_account_number", "general_account_number", "posted_at", "created_by", "updated_by", "created_at",
			"ledger_updated_by", "ledger_updated_at"},
		pgx.CopyFromRows(rows))
	return classify(err)
}

func journalWhere(q storage.JournalQuery) *where {
	w := &where{}
	if !q.From.IsZero() {
		w.add("journal_date >= $%d", q.From)
	}
	if !q.To.IsZero() {
		w.add("journal_date < $%d", q.To)
	}
	if q.Status != "" {
		w.add("status = $%d", string(q.Status))
	}
	if q.DetailAccountNumber != "" {
		w.add("detail_account_number = $%d", q.DetailAccountNumber)
	}
	return w
}

func (t *Tx) ListJournals(ctx context.Context, q storage.JournalQuery) ([]ledger.JournalLedger, error) {
	w := journalWhere(q)
	rows, err := t.tx.Query(ctx, `select `+journalCols+` from journal_ledgers`+w.String()+` order by journal_date, detail_account_number, id`, w.args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	out := make([]ledger.JournalLedger, 0)
	for rows.Next() {
		j, err := scanJournal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, classify(rows.Err())
}

func (t *Tx) CountJournals(ctx context.Context, q storage.JournalQuery) (int, error) {
	w := journalWhere(q)
	var n int
	err := t.tx.QueryRow(ctx, `select count(*) from journal_ledgers`+w.String(), w.args...).Scan(&n)
	return n, classify(err)
}

func (t *Tx) SetJournalStatus(ctx context.Context, u storage.StatusUpdate) (int, error) {
	if len(u.IDs) == 0 {
		return 0, nil
	}
	ct, err := t.tx.Exec(ctx, `
		update journal_ledgers set status = $1, posted_at = $2, updated_by = $3
		where id = any($4)
	`, string(u.Status), u.PostedAt, u.UpdatedBy, u.IDs)
	if err != nil {
		return 0, classify(err)
	}
	return int(ct.RowsAffected()), nil
}

func (t *Tx) DeleteJournals(ctx context.Context, q storage.JournalQuery) (int, error) {
	w := journalWhere(q)
	ct, err := t.tx.Exec(ctx, `delete from journal_ledgers`+w.String(), w.args...)
	if err != nil {
		return 0, classify(err)
	}
	return int(ct.RowsAffected()), nil
}

// --- Net income ---

const netIncomeCols = `id, year, amount_minor, account_number, accounting_close, created_by, updated_by, created_at, updated_at`

func scanNetIncome(row pgx.Row) (ledger.NetIncomeRecord, error) {
	var r ledger.NetIncomeRecord
	var minor int64
	if err := row.Scan(&r.ID, &r.Year, &minor, &r.AccountNumber, &r.AccountingClose, &r.CreatedBy, &r.UpdatedBy, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return ledger.NetIncomeRecord{}, classify(err)
	}
	r.Amount = fromMinor(minor)
	return r, nil
}

// NetIncomeByYear locks the year's row so concurrent posts for the same year serialize.
func (t *Tx) NetIncomeByYear(ctx context.Context, year int) (ledger.NetIncomeRecord, bool, error) {
	r, err := scanNetIncome(t.tx.QueryRow(ctx, `select `+netIncomeCols+` from sisa_hasil_usaha where year = $1 for update`, year))
	if errors.Is(err, errs.ErrNotFound) {
		return ledger.NetIncomeRecord{}, false, nil
	}
	if err != nil {
		return ledger.NetIncomeRecord{}, false, err
	}
	return r, true, nil
}

func (t *Tx) SaveNetIncome(ctx context.Context, r ledger.NetIncomeRecord) (ledger.NetIncomeRecord, error) {
	return scanNetIncome(t.tx.QueryRow(ctx, `
		insert into sisa_hasil_usaha (id, year, amount_minor, account_number, accounting_close, created_by, updated_by, created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		on conflict (year) do update set
			amount_minor = excluded.amount_minor,
			account_number = excluded.account_number,
			accounting_close = excluded.accounting_close,
			updated_by = excluded.updated_by,
			updated_at = excluded.updated_at
		returning `+netIncomeCols,
		r.ID, r.Year, amount.Minor(r.Amount), r.AccountNumber, r.AccountingClose, r.CreatedBy, r.UpdatedBy, r.CreatedAt, r.UpdatedAt))
}
