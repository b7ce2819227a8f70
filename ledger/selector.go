/*
selector.go - Deterministic FIFO batch selection

PURPOSE:
  Given the open batches for a product/unit and a requested quantity,
  produce the ordered list of draws that satisfies the request oldest
  batch first. This is a pure function over a snapshot the caller took
  inside its own transaction; it performs no writes.

ALGORITHM:
  Sort ascending by acquisition date, tie-break ascending by batch id
  (insertion order), then walk the list accumulating remaining stock
  until the running total covers the request. The last batch in the
  prefix may be consumed partially. If the total available falls short
  the request fails with InsufficientStockError and nothing is written.

Drawing from only the single oldest batch would reject sales the open
lots can jointly cover; splitting the draw across batches is the
general FIFO case and is what this selector implements.
*/
package ledger

import (
	"sort"

	"github.com/shopspring/decimal"
)

// BatchDraw is one step of an allocation plan: take Quantity units out of
// the batch, at the batch's current unit cost.
type BatchDraw struct {
	BatchID  BatchID
	Quantity int64
	UnitCost decimal.Decimal
}

// PlanFIFO selects batches to satisfy quantity, oldest first. The exclude
// set skips batches a caller is in the middle of rewriting (edit-reversal
// leftovers). Draws sum exactly to quantity or the plan fails.
func PlanFIFO(batches []Batch, quantity int64, exclude map[BatchID]bool) ([]BatchDraw, error) {
	if quantity <= 0 {
		return nil, ErrInvalidInput
	}

	candidates := make([]Batch, 0, len(batches))
	for _, b := range batches {
		if b.Remaining <= 0 || exclude[b.ID] {
			continue
		}
		candidates = append(candidates, b)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if !candidates[i].AcquiredAt.Equal(candidates[j].AcquiredAt) {
			return candidates[i].AcquiredAt.Before(candidates[j].AcquiredAt)
		}
		return candidates[i].ID < candidates[j].ID
	})

	var plan []BatchDraw
	remaining := quantity
	for _, b := range candidates {
		take := b.Remaining
		if take > remaining {
			take = remaining
		}
		plan = append(plan, BatchDraw{BatchID: b.ID, Quantity: take, UnitCost: b.UnitCost})
		remaining -= take
		if remaining == 0 {
			return plan, nil
		}
	}

	return nil, &InsufficientStockError{
		ProductID: productOf(candidates, batches),
		UnitID:    unitOf(candidates, batches),
		Requested: quantity,
		Available: quantity - remaining,
	}
}

func productOf(candidates, batches []Batch) ProductID {
	if len(candidates) > 0 {
		return candidates[0].ProductID
	}
	if len(batches) > 0 {
		return batches[0].ProductID
	}
	return 0
}

func unitOf(candidates, batches []Batch) UnitID {
	if len(candidates) > 0 {
		return candidates[0].UnitID
	}
	if len(batches) > 0 {
		return batches[0].UnitID
	}
	return 0
}
