/*
guard.go - Reconciliation guard

PURPOSE:
  Last-line invariant check run at the boundary of every mutating
  operation, inside the same transaction, before commit. If the on-hand
  cache has drifted from the batch totals, or any quantity has gone
  negative, the whole transaction rolls back with ErrLedgerInconsistency.
  Drift is never auto-corrected; it signals a defect in the operation
  that produced it, so the engine logs it for diagnosis.
*/
package ledger

import "context"

// CheckProducts verifies the ledger invariants for each product touched by
// the current transaction:
//
//	on-hand cache == sum of Remaining over the product's live batches
//	0 <= Remaining <= Original for every batch
//
// Reads go through the caller's transactional store handle so the check
// sees exactly the state about to be committed.
func CheckProducts(ctx context.Context, s Store, productIDs ...ProductID) error {
	seen := make(map[ProductID]bool, len(productIDs))
	for _, pid := range productIDs {
		if seen[pid] {
			continue
		}
		seen[pid] = true

		batches, err := s.ListBatches(ctx, pid)
		if err != nil {
			return err
		}

		var sum int64
		for _, b := range batches {
			if b.Remaining < 0 {
				return &InconsistencyError{ProductID: pid, Detail: "negative batch remaining"}
			}
			if b.Remaining > b.Original {
				return &InconsistencyError{ProductID: pid, Detail: "batch remaining exceeds original"}
			}
			sum += b.Remaining
		}

		onHand, err := s.StockOnHand(ctx, pid)
		if err != nil {
			return err
		}
		if onHand < 0 {
			return &InconsistencyError{ProductID: pid, Detail: "negative on-hand quantity"}
		}
		if onHand != sum {
			return &InconsistencyError{ProductID: pid, OnHand: onHand, BatchSum: sum}
		}
	}
	return nil
}
