package dictionary

import "github.com/tinoosan/bukubesar/internal/ledger"

// ChartGeneral is a general account in a starter chart of accounts.
type ChartGeneral struct {
	Number          string
	Name            string
	Category        string
	ReportType      ledger.ReportType
	TransactionType ledger.TransactionType
	Details         []ChartDetail
}

// ChartDetail is a detail account under a ChartGeneral.
type ChartDetail struct {
	Number string
	Name   string
}

// DevChart returns a small chart of accounts for local development. The equity
// group always contains netIncomeAccount so SHU can be posted out of the box.
func DevChart(netIncomeAccount string) []ChartGeneral {
	group := func(number, name, category string, details ...ChartDetail) ChartGeneral {
		c, _ := Lookup(category)
		return ChartGeneral{Number: number, Name: name, Category: category, ReportType: c.ReportType, TransactionType: c.TransactionType, Details: details}
	}
	return []ChartGeneral{
		group("1.1", "Kas dan Setara Kas", "ASET",
			ChartDetail{Number: "1.1.01", Name: "Kas"},
			ChartDetail{Number: "1.1.02", Name: "Bank"}),
		group("2.1", "Simpanan Anggota", "KEWAJIBAN",
			ChartDetail{Number: "2.1.01", Name: "Simpanan Sukarela"}),
		group("3.3", "Sisa Hasil Usaha", "EKUITAS",
			ChartDetail{Number: netIncomeAccount, Name: "SHU Tahun Berjalan"}),
		group("4.1", "Pendapatan Jasa", "PENDAPATAN",
			ChartDetail{Number: "4.1.01", Name: "Pendapatan Jasa Pinjaman"}),
		group("5.1", "Beban Operasional", "BEBAN",
			ChartDetail{Number: "5.1.01", Name: "Beban Gaji"},
			ChartDetail{Number: "5.1.02", Name: "Beban Listrik"}),
	}
}
