package ledger_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/stock-ledger/ledger"
)

func TestProfit_UsesCapturedCosts(t *testing.T) {
	// GIVEN: A sale drawing 5 @ 3.00 and 2 @ 4.00, sold at 9.99
	// WHEN: Computing profit over the period
	// THEN: Revenue 69.93, COGS 23.00, gross profit 46.93

	e, _ := newTestEngine(t)
	ctx := context.Background()

	restock(t, e, 5, "3.00", day(1))
	restock(t, e, 10, "4.00", day(5))

	_, err := e.RecordSale(ctx, saleInput(7, "9.99", day(10)))
	require.NoError(t, err)

	report, err := e.Profit(ctx, day(1), day(31))
	require.NoError(t, err)

	assert.Equal(t, 1, report.SaleCount)
	assert.True(t, report.Revenue.Equal(decimal.RequireFromString("69.93")), "revenue %s", report.Revenue)
	assert.True(t, report.CostOfGoods.Equal(decimal.RequireFromString("23.00")), "cogs %s", report.CostOfGoods)
	assert.True(t, report.GrossProfit.Equal(decimal.RequireFromString("46.93")), "profit %s", report.GrossProfit)
}

func TestProfit_SurvivesLaterBatchCostEdit(t *testing.T) {
	// GIVEN: A sale whose allocation captured cost 2.00
	// WHEN: The batch's cost is later edited to 9.00
	// THEN: The report still uses the captured 2.00

	e, _ := newTestEngine(t)
	ctx := context.Background()

	b := restock(t, e, 10, "2.00", day(1))
	_, err := e.RecordSale(ctx, saleInput(4, "5.00", day(2)))
	require.NoError(t, err)

	_, err = e.EditBatch(ctx, b.ID, ledger.BatchInput{
		ProductID:  testProduct,
		UnitID:     testUnit,
		Quantity:   10,
		UnitCost:   decimal.RequireFromString("9.00"),
		AcquiredAt: day(1),
	})
	require.NoError(t, err)

	report, err := e.Profit(ctx, day(1), day(31))
	require.NoError(t, err)
	assert.True(t, report.CostOfGoods.Equal(decimal.RequireFromString("8.00")), "cogs %s", report.CostOfGoods)
}

func TestProfit_FiltersByPeriod(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	restock(t, e, 20, "1.00", day(1))
	_, err := e.RecordSale(ctx, saleInput(1, "2.00", day(5)))
	require.NoError(t, err)
	_, err = e.RecordSale(ctx, saleInput(1, "2.00", day(20)))
	require.NoError(t, err)

	report, err := e.Profit(ctx, day(1), day(10))
	require.NoError(t, err)
	assert.Equal(t, 1, report.SaleCount)
	assert.True(t, report.Revenue.Equal(decimal.RequireFromString("2.00")))
}

func TestProfit_InvertedPeriod_Rejected(t *testing.T) {
	e, _ := newTestEngine(t)
	_, err := e.Profit(context.Background(), day(10), day(1))
	assert.ErrorIs(t, err, ledger.ErrInvalidInput)
}
