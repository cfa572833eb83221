package invoices

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/invoicetrack-backend/pkg/enums"
)

// Summary aggregates the current invoices by lifecycle state and currency.
type Summary struct {
	Total   int                          `json:"total"`
	ByState map[enums.InvoiceState]int64 `json:"by_state"`
	Totals  []CurrencyTotal              `json:"totals"`
	Skipped int                          `json:"skipped"`
}

// CurrencyTotal sums the net amounts of one currency.
type CurrencyTotal struct {
	Currency  string          `json:"currency"`
	NetAmount decimal.Decimal `json:"net_amount"`
	Count     int             `json:"count"`
}

// Summarize counts invoices per state and totals net amounts per currency.
// Amounts that do not parse as decimals are counted in Skipped.
func Summarize(all []Invoice) *Summary {
	out := &Summary{
		Total:   len(all),
		ByState: make(map[enums.InvoiceState]int64, len(enums.InvoiceStates())),
	}
	for _, state := range enums.InvoiceStates() {
		out.ByState[state] = 0
	}

	totals := map[string]*CurrencyTotal{}
	for _, inv := range all {
		out.ByState[inv.State()]++

		amount, err := decimal.NewFromString(inv.NetAmount)
		if err != nil {
			out.Skipped++
			continue
		}
		total, ok := totals[inv.Currency]
		if !ok {
			total = &CurrencyTotal{Currency: inv.Currency, NetAmount: decimal.Zero}
			totals[inv.Currency] = total
		}
		total.NetAmount = total.NetAmount.Add(amount)
		total.Count++
	}

	out.Totals = make([]CurrencyTotal, 0, len(totals))
	for _, total := range totals {
		out.Totals = append(out.Totals, *total)
	}
	sort.Slice(out.Totals, func(i, j int) bool { return out.Totals[i].Currency < out.Totals[j].Currency })
	return out
}
