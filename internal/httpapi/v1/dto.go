package v1

import (
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"

	"github.com/tinoosan/bukubesar/internal/amount"
	"github.com/tinoosan/bukubesar/internal/ledger"
	"github.com/tinoosan/bukubesar/internal/service/posting"
)

// Money crosses the wire as a decimal string with two places ("1500.00").

type postLedgersResponse struct {
	Date            string    `json:"date"`
	Posted          int       `json:"posted"`
	JournalsCreated int       `json:"journals_created"`
	PostedAt        time.Time `json:"posted_at"`
}

type unpostLedgersResponse struct {
	Date            string    `json:"date"`
	Unposted        int       `json:"unposted"`
	JournalsDeleted int       `json:"journals_deleted"`
	At              time.Time `json:"at"`
}

type accountSummaryResponse struct {
	AccountNumber string `json:"account_number"`
	Name          string `json:"name"`
	Debit         string `json:"debit"`
	Credit        string `json:"credit"`
	AmountDebit   string `json:"amount_debit"`
	AmountCredit  string `json:"amount_credit"`
	Journals      int    `json:"journals"`
}

type balanceResponse struct {
	Date     string                   `json:"date"`
	Journals int                      `json:"journals"`
	Accounts []accountSummaryResponse `json:"accounts"`
	At       time.Time                `json:"at"`
}

type generalSummaryResponse struct {
	AccountNumber string `json:"account_number"`
	Name          string `json:"name"`
	AmountDebit   string `json:"amount_debit"`
	AmountCredit  string `json:"amount_credit"`
	Details       int    `json:"details"`
}

type neracaResponse struct {
	Date     string                   `json:"date"`
	Accounts []generalSummaryResponse `json:"accounts"`
	At       time.Time                `json:"at"`
}

type postSHURequest struct {
	Year   int    `json:"year"`
	Amount string `json:"amount"`
}

type closeSHURequest struct {
	Year int `json:"year"`
}

type shuRecordResponse struct {
	ID              uuid.UUID `json:"id"`
	Year            int       `json:"year"`
	Amount          string    `json:"amount"`
	AccountNumber   string    `json:"account_number"`
	AccountingClose bool      `json:"accounting_close"`
	CreatedBy       string    `json:"created_by"`
	UpdatedBy       string    `json:"updated_by"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type shuCalculationResponse struct {
	Year         int                `json:"year"`
	Revenue      string             `json:"revenue"`
	Expense      string             `json:"expense"`
	NetIncome    string             `json:"net_income"`
	RecordExists bool               `json:"record_exists"`
	Closed       bool               `json:"closed"`
	Record       *shuRecordResponse `json:"record,omitempty"`
}

type postGeneralAccountRequest struct {
	AccountNumber   string                 `json:"account_number"`
	Name            string                 `json:"name"`
	Category        string                 `json:"category"`
	ReportType      ledger.ReportType      `json:"report_type"`
	TransactionType ledger.TransactionType `json:"transaction_type"`
}

type postDetailAccountRequest struct {
	AccountNumber        string                 `json:"account_number"`
	GeneralAccountNumber string                 `json:"general_account_number"`
	Name                 string                 `json:"name"`
	Category             string                 `json:"category"`
	ReportType           ledger.ReportType      `json:"report_type"`
	TransactionType      ledger.TransactionType `json:"transaction_type"`
}

type balancesResponse struct {
	AmountDebit              string `json:"amount_debit"`
	AmountCredit             string `json:"amount_credit"`
	AccumulationAmountDebit  string `json:"accumulation_amount_debit"`
	AccumulationAmountCredit string `json:"accumulation_amount_credit"`
}

type generalAccountResponse struct {
	ID              uuid.UUID              `json:"id"`
	AccountNumber   string                 `json:"account_number"`
	Name            string                 `json:"name"`
	Category        string                 `json:"category"`
	ReportType      ledger.ReportType      `json:"report_type"`
	TransactionType ledger.TransactionType `json:"transaction_type"`
	balancesResponse
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

type detailAccountResponse struct {
	ID               uuid.UUID              `json:"id"`
	AccountNumber    string                 `json:"account_number"`
	Name             string                 `json:"name"`
	Category         string                 `json:"category"`
	ReportType       ledger.ReportType      `json:"report_type"`
	TransactionType  ledger.TransactionType `json:"transaction_type"`
	GeneralAccountID uuid.UUID              `json:"general_account_id"`
	balancesResponse
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// ledgerRequest is the body of POST and PUT /v1/ledgers. LedgerDate is YYYY-MM-DD
// or RFC 3339.
type ledgerRequest struct {
	ReferenceNumber     string                 `json:"reference_number"`
	Amount              string                 `json:"amount"`
	Description         string                 `json:"description"`
	LedgerType          string                 `json:"ledger_type"`
	TransactionType     ledger.TransactionType `json:"transaction_type"`
	LedgerDate          string                 `json:"ledger_date"`
	DetailAccountNumber string                 `json:"detail_account_number"`
	Metadata            map[string]string      `json:"metadata,omitempty"`
}

type ledgerResponse struct {
	ID               uuid.UUID              `json:"id"`
	ReferenceNumber  string                 `json:"reference_number"`
	Amount           string                 `json:"amount"`
	Description      string                 `json:"description"`
	LedgerType       string                 `json:"ledger_type"`
	TransactionType  ledger.TransactionType `json:"transaction_type"`
	LedgerDate       time.Time              `json:"ledger_date"`
	Status           ledger.Status          `json:"status"`
	DetailAccountID  uuid.UUID              `json:"detail_account_id"`
	GeneralAccountID uuid.UUID              `json:"general_account_id"`
	PostedAt         *time.Time             `json:"posted_at,omitempty"`
	CreatedBy        string                 `json:"created_by"`
	UpdatedBy        string                 `json:"updated_by"`
	Metadata         map[string]string      `json:"metadata,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

type listResponse[T any] struct {
	Items []T `json:"items"`
}

func str(a money.Amount) string { return amount.String(a) }

func toBalances(b ledger.Balances) balancesResponse {
	return balancesResponse{
		AmountDebit:              str(b.AmountDebit),
		AmountCredit:             str(b.AmountCredit),
		AccumulationAmountDebit:  str(b.AccumulationAmountDebit),
		AccumulationAmountCredit: str(b.AccumulationAmountCredit),
	}
}

func toGeneralResponse(a ledger.GeneralAccount) generalAccountResponse {
	return generalAccountResponse{
		ID:               a.ID,
		AccountNumber:    a.AccountNumber,
		Name:             a.Name,
		Category:         a.Category,
		ReportType:       a.ReportType,
		TransactionType:  a.TransactionType,
		balancesResponse: toBalances(a.Balances),
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
		DeletedAt:        a.DeletedAt,
	}
}

func toDetailResponse(a ledger.DetailAccount) detailAccountResponse {
	return detailAccountResponse{
		ID:               a.ID,
		AccountNumber:    a.AccountNumber,
		Name:             a.Name,
		Category:         a.Category,
		ReportType:       a.ReportType,
		TransactionType:  a.TransactionType,
		GeneralAccountID: a.GeneralAccountID,
		balancesResponse: toBalances(a.Balances),
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
		DeletedAt:        a.DeletedAt,
	}
}

func toLedgerResponse(l ledger.Ledger) ledgerResponse {
	return ledgerResponse{
		ID:               l.ID,
		ReferenceNumber:  l.ReferenceNumber,
		Amount:           str(l.Amount),
		Description:      l.Description,
		LedgerType:       l.LedgerType,
		TransactionType:  l.TransactionType,
		LedgerDate:       l.LedgerDate,
		Status:           l.Status,
		DetailAccountID:  l.DetailAccountID,
		GeneralAccountID: l.GeneralAccountID,
		PostedAt:         l.PostedAt,
		CreatedBy:        l.CreatedBy,
		UpdatedBy:        l.UpdatedBy,
		Metadata:         l.Metadata,
		CreatedAt:        l.CreatedAt,
		UpdatedAt:        l.UpdatedAt,
	}
}

func toSHURecord(r ledger.NetIncomeRecord) shuRecordResponse {
	return shuRecordResponse{
		ID:              r.ID,
		Year:            r.Year,
		Amount:          str(r.Amount),
		AccountNumber:   r.AccountNumber,
		AccountingClose: r.AccountingClose,
		CreatedBy:       r.CreatedBy,
		UpdatedBy:       r.UpdatedBy,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func toBalanceResponse(res posting.BalanceResult) balanceResponse {
	out := balanceResponse{Date: res.Date, Journals: res.Journals, At: res.At, Accounts: make([]accountSummaryResponse, 0, len(res.Accounts))}
	for _, a := range res.Accounts {
		out.Accounts = append(out.Accounts, accountSummaryResponse{
			AccountNumber: a.AccountNumber,
			Name:          a.Name,
			Debit:         str(a.Debit),
			Credit:        str(a.Credit),
			AmountDebit:   str(a.AmountDebit),
			AmountCredit:  str(a.AmountCredit),
			Journals:      a.Journals,
		})
	}
	return out
}

func toNeracaResponse(res posting.NeracaResult) neracaResponse {
	out := neracaResponse{Date: res.Date, At: res.At, Accounts: make([]generalSummaryResponse, 0, len(res.Accounts))}
	for _, a := range res.Accounts {
		out.Accounts = append(out.Accounts, generalSummaryResponse{
			AccountNumber: a.AccountNumber,
			Name:          a.Name,
			AmountDebit:   str(a.AmountDebit),
			AmountCredit:  str(a.AmountCredit),
			Details:       a.Details,
		})
	}
	return out
}

func toCalculationResponse(c posting.NetIncomeCalculation) shuCalculationResponse {
	out := shuCalculationResponse{
		Year:         c.Year,
		Revenue:      str(c.Revenue),
		Expense:      str(c.Expense),
		NetIncome:    str(c.NetIncome),
		RecordExists: c.RecordExists,
		Closed:       c.Closed,
	}
	if c.Record != nil {
		rec := toSHURecord(*c.Record)
		out.Record = &rec
	}
	return out
}
