package posting

import (
	"context"
	"time"

	"github.com/tinoosan/bukubesar/internal/ledger"
	"github.com/tinoosan/bukubesar/internal/storage"
)

// PostNeracaAkhir overwrites every general account's running balance with the sum of
// its detail accounts. The date is informational only.
func (s *service) PostNeracaAkhir(ctx context.Context, date time.Time, user string) (NeracaResult, error) {
	day := ledger.DayOf(date, s.loc)
	var res NeracaResult
	err := s.run(ctx, OpPostNeraca, func(ctx context.Context, tx storage.Tx) error {
		now := s.timestamp()
		details, err := tx.ListDetailAccounts(ctx, storage.AccountFilter{})
		if err != nil {
			return err
		}
		totals, err := rollUpDetails(details)
		if err != nil {
			return err
		}
		accounts := make([]GeneralSummary, 0, len(totals))
		for _, t := range totals {
			g, err := tx.SetGeneralBalance(ctx, storage.GeneralBalance{
				GeneralAccountID: t.GeneralAccountID,
				Debit:            t.Debit,
				Credit:           t.Credit,
				At:               now,
			})
			if err != nil {
				return accountErr(err, "general account %s", t.GeneralAccountID)
			}
			accounts = append(accounts, GeneralSummary{
				AccountNumber: g.AccountNumber,
				Name:          g.Name,
				AmountDebit:   g.AmountDebit,
				AmountCredit:  g.AmountCredit,
				Details:       t.Details,
			})
		}
		res = NeracaResult{Date: day.String(), Accounts: accounts, At: now}
		return nil
	})
	if err != nil {
		return NeracaResult{}, err
	}
	s.log.Info("neraca akhir posted", "date", res.Date, "general_accounts", len(res.Accounts), "user", user)
	return res, nil
}
