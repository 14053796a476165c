package dictionary

import "github.com/tinoosan/bukubesar/internal/ledger"

// CategoryDef describes a chart-of-accounts category and the defaults it implies.
type CategoryDef struct {
	Code            string                 `json:"code"`
	Label           string                 `json:"label"`
	ReportType      ledger.ReportType      `json:"report_type"`
	TransactionType ledger.TransactionType `json:"transaction_type"`
}

var curated = []CategoryDef{
	{Code: "ASET", Label: "Aset", ReportType: ledger.ReportTypeBalanceSheet, TransactionType: ledger.Debit},
	{Code: "KEWAJIBAN", Label: "Kewajiban", ReportType: ledger.ReportTypeBalanceSheet, TransactionType: ledger.Credit},
	{Code: "EKUITAS", Label: "Ekuitas", ReportType: ledger.ReportTypeBalanceSheet, TransactionType: ledger.Credit},
	{Code: "PENDAPATAN", Label: "Pendapatan", ReportType: ledger.ReportTypeProfitLoss, TransactionType: ledger.Credit},
	{Code: "BEBAN", Label: "Beban", ReportType: ledger.ReportTypeProfitLoss, TransactionType: ledger.Debit},
}

// Lookup returns the category definition for code.
func Lookup(code string) (CategoryDef, bool) {
	for _, c := range curated {
		if c.Code == code {
			return c, true
		}
	}
	return CategoryDef{}, false
}

// Categories returns the curated categories, optionally filtered by report type.
func Categories(rt *ledger.ReportType) []CategoryDef {
	out := make([]CategoryDef, 0, len(curated))
	for _, c := range curated {
		if rt != nil && c.ReportType != *rt {
			continue
		}
		out = append(out, c)
	}
	return out
}
