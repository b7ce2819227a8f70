package ledger_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/stock-ledger/ledger"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func day(d int) time.Time {
	return time.Date(2025, time.March, d, 0, 0, 0, 0, time.UTC)
}

func batch(id int64, remaining int64, acquired time.Time, cost string) ledger.Batch {
	return ledger.Batch{
		ID:         ledger.BatchID(id),
		ProductID:  1,
		UnitID:     1,
		UnitCost:   decimal.RequireFromString(cost),
		Original:   remaining,
		Remaining:  remaining,
		AcquiredAt: acquired,
	}
}

// =============================================================================
// FIFO ORDER TESTS
// =============================================================================

func TestPlanFIFO_SplitsAcrossBatches_OldestFirst(t *testing.T) {
	// GIVEN: Batch A (5 left, Mar 1) and batch B (10 left, Mar 5)
	// WHEN: Planning a sale of 7
	// THEN: 5 come from A and 2 from B, in that order

	batches := []ledger.Batch{
		batch(2, 10, day(5), "4.00"),
		batch(1, 5, day(1), "3.00"),
	}

	plan, err := ledger.PlanFIFO(batches, 7, nil)
	require.NoError(t, err)

	require.Len(t, plan, 2)
	assert.Equal(t, ledger.BatchID(1), plan[0].BatchID)
	assert.Equal(t, int64(5), plan[0].Quantity)
	assert.Equal(t, ledger.BatchID(2), plan[1].BatchID)
	assert.Equal(t, int64(2), plan[1].Quantity)

	// Captured costs come from the source batch, not an average
	assert.True(t, plan[0].UnitCost.Equal(decimal.RequireFromString("3.00")))
	assert.True(t, plan[1].UnitCost.Equal(decimal.RequireFromString("4.00")))
}

func TestPlanFIFO_SameAcquisitionDate_TieBreaksByID(t *testing.T) {
	// GIVEN: Two batches acquired the same day
	// WHEN: Planning a draw that only needs one of them
	// THEN: The lower batch id supplies it

	batches := []ledger.Batch{
		batch(9, 5, day(1), "2.00"),
		batch(3, 5, day(1), "2.50"),
	}

	plan, err := ledger.PlanFIFO(batches, 5, nil)
	require.NoError(t, err)

	require.Len(t, plan, 1)
	assert.Equal(t, ledger.BatchID(3), plan[0].BatchID)
}

func TestPlanFIFO_ExactlyDrains_NoOverdraw(t *testing.T) {
	// GIVEN: One batch of 4
	// WHEN: Planning a sale of exactly 4
	// THEN: The plan drains the batch and sums to the request

	plan, err := ledger.PlanFIFO([]ledger.Batch{batch(1, 4, day(1), "1.00")}, 4, nil)
	require.NoError(t, err)

	require.Len(t, plan, 1)
	assert.Equal(t, int64(4), plan[0].Quantity)
}

// =============================================================================
// SHORTFALL TESTS
// =============================================================================

func TestPlanFIFO_InsufficientStock_ReportsShortfall(t *testing.T) {
	// GIVEN: Open batches totaling 6
	// WHEN: Planning a sale of 10
	// THEN: InsufficientStockError carries requested and available

	batches := []ledger.Batch{
		batch(1, 4, day(1), "1.00"),
		batch(2, 2, day(2), "1.00"),
	}

	_, err := ledger.PlanFIFO(batches, 10, nil)
	require.Error(t, err)

	var stockErr *ledger.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, int64(10), stockErr.Requested)
	assert.Equal(t, int64(6), stockErr.Available)
	assert.ErrorIs(t, err, ledger.ErrInsufficientStock)
}

func TestPlanFIFO_NoBatches_InsufficientStock(t *testing.T) {
	_, err := ledger.PlanFIFO(nil, 1, nil)
	assert.ErrorIs(t, err, ledger.ErrInsufficientStock)
}

// =============================================================================
// FILTER TESTS
// =============================================================================

func TestPlanFIFO_SkipsExhaustedAndExcludedBatches(t *testing.T) {
	// GIVEN: An exhausted batch, an excluded batch, and one open batch
	// WHEN: Planning a sale
	// THEN: Only the open, non-excluded batch supplies it

	empty := batch(1, 5, day(1), "1.00")
	empty.Remaining = 0

	batches := []ledger.Batch{
		empty,
		batch(2, 5, day(2), "1.00"),
		batch(3, 5, day(3), "1.00"),
	}

	plan, err := ledger.PlanFIFO(batches, 5, map[ledger.BatchID]bool{2: true})
	require.NoError(t, err)

	require.Len(t, plan, 1)
	assert.Equal(t, ledger.BatchID(3), plan[0].BatchID)
}

func TestPlanFIFO_DoesNotMutateInput(t *testing.T) {
	// GIVEN: A batch slice in non-FIFO order
	// WHEN: Planning
	// THEN: The caller's slice order is untouched

	batches := []ledger.Batch{
		batch(2, 10, day(5), "4.00"),
		batch(1, 5, day(1), "3.00"),
	}

	_, err := ledger.PlanFIFO(batches, 7, nil)
	require.NoError(t, err)

	assert.Equal(t, ledger.BatchID(2), batches[0].ID)
	assert.Equal(t, ledger.BatchID(1), batches[1].ID)
}
