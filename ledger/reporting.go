/*
reporting.go - Cost-of-goods and profit projection

Revenue comes from the sale rows; cost of goods comes from the
allocations' captured unit costs, so a later batch edit never rewrites
the history of what a sale actually cost. Read-only, latest committed
state.
*/
package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ProfitReport summarizes a period of sales.
type ProfitReport struct {
	From        time.Time
	To          time.Time
	SaleCount   int
	Revenue     decimal.Decimal
	CostOfGoods decimal.Decimal
	GrossProfit decimal.Decimal
}

// Profit computes revenue minus cost of goods over sales with SoldAt in
// [from, to] inclusive.
func (e *Engine) Profit(ctx context.Context, from, to time.Time) (*ProfitReport, error) {
	if to.Before(from) {
		return nil, ErrInvalidInput
	}

	sales, err := e.store.ListSales(ctx, nil)
	if err != nil {
		return nil, err
	}

	report := &ProfitReport{
		From:        from,
		To:          to,
		Revenue:     decimal.Zero,
		CostOfGoods: decimal.Zero,
	}
	for _, sale := range sales {
		if sale.SoldAt.Before(from) || sale.SoldAt.After(to) {
			continue
		}
		report.SaleCount++
		report.Revenue = report.Revenue.Add(sale.Revenue())

		allocs, err := e.store.AllocationsBySale(ctx, sale.ID)
		if err != nil {
			return nil, err
		}
		for _, a := range allocs {
			report.CostOfGoods = report.CostOfGoods.Add(a.Cost())
		}
	}
	report.GrossProfit = report.Revenue.Sub(report.CostOfGoods)
	return report, nil
}
