/*
engine.go - Sale and restock operations

PURPOSE:
  The Engine is the operation interface the UI layer calls into. It owns
  the multi-step atomicity of the ledger: every mutating operation runs
  inside one store transaction, plans against reads taken inside that
  transaction, and passes the reconciliation guard before commit.

OPERATIONS:
  Sales:     RecordSale, EditSale, ReverseSale
  Restocks:  AddBatch, EditBatch, DeleteBatch
  Reads:     CurrentStock, ListBatches, ListSales, ListStock, ProfitReport

EDIT SEMANTICS:
  Editing a sale is implemented strictly as reverse-then-record inside a
  single transaction, never as an in-place patch. Changing the quantity
  or unit can change which batches a sale draws from; the uniform
  reversal eliminates the stale-allocation bugs an in-place patch
  invites.

RETRY:
  A lock timeout from the store is retried exactly once before being
  surfaced; everything else propagates immediately.
*/
package ledger

import (
	"context"
	"errors"
	"log"
)

// Engine exposes the ledger's mutating operations and read projections.
type Engine struct {
	store TxStore
}

func NewEngine(store TxStore) *Engine {
	return &Engine{store: store}
}

// =============================================================================
// SALE OPERATIONS
// =============================================================================

// RecordSale creates a sale and its allocations, drawing stock FIFO from
// the open batches of the product/unit. Fails with ErrInsufficientStock
// (and no writes) if the open batches cannot cover the quantity.
func (e *Engine) RecordSale(ctx context.Context, in SaleInput) (*Sale, error) {
	if err := validateSale(in); err != nil {
		return nil, err
	}

	var sale *Sale
	err := e.withTx(ctx, func(s Store) error {
		var err error
		sale, err = recordSale(ctx, s, in)
		if err != nil {
			return err
		}
		return e.guard(ctx, s, in.ProductID)
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

// ReverseSale undoes a sale: every allocation's quantity goes back to its
// batch, the on-hand cache is restored, and the allocation and sale rows
// are deleted.
func (e *Engine) ReverseSale(ctx context.Context, id SaleID) error {
	return e.withTx(ctx, func(s Store) error {
		productID, err := reverseSale(ctx, s, id)
		if err != nil {
			return err
		}
		return e.guard(ctx, s, productID)
	})
}

// EditSale replaces a sale with new parameters. Implemented as
// ReverseSale followed by RecordSale inside one transaction; the
// returned sale carries a new id.
func (e *Engine) EditSale(ctx context.Context, id SaleID, in SaleInput) (*Sale, error) {
	if err := validateSale(in); err != nil {
		return nil, err
	}

	var sale *Sale
	err := e.withTx(ctx, func(s Store) error {
		oldProductID, err := reverseSale(ctx, s, id)
		if err != nil {
			return err
		}
		sale, err = recordSale(ctx, s, in)
		if err != nil {
			return err
		}
		return e.guard(ctx, s, oldProductID, in.ProductID)
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

// recordSale runs the insert half inside the caller's transaction.
func recordSale(ctx context.Context, s Store, in SaleInput) (*Sale, error) {
	if err := checkRefs(ctx, s, in.ProductID, in.UnitID); err != nil {
		return nil, err
	}

	// Plan against the transaction's own snapshot: no time-of-check drift.
	open, err := s.OpenBatches(ctx, in.ProductID, in.UnitID)
	if err != nil {
		return nil, err
	}
	plan, err := PlanFIFO(open, in.Quantity, nil)
	if err != nil {
		return nil, err
	}

	sale := &Sale{
		ProductID: in.ProductID,
		UnitID:    in.UnitID,
		Quantity:  in.Quantity,
		UnitPrice: in.UnitPrice,
		SoldAt:    in.SoldAt,
	}
	if err := s.InsertSale(ctx, sale); err != nil {
		return nil, err
	}

	for _, draw := range plan {
		batch, err := s.GetBatch(ctx, draw.BatchID)
		if err != nil {
			return nil, err
		}
		if batch == nil || batch.Remaining < draw.Quantity {
			// The plan came from this transaction's snapshot, so a shortfall
			// here means the snapshot was stale after all.
			return nil, &InconsistencyError{ProductID: in.ProductID, Detail: "planned batch no longer covers draw"}
		}
		batch.Remaining -= draw.Quantity
		if err := s.UpdateBatch(ctx, *batch); err != nil {
			return nil, err
		}
		alloc := &Allocation{
			SaleID:         sale.ID,
			BatchID:        draw.BatchID,
			QuantityUsed:   draw.Quantity,
			UnitCostAtTime: draw.UnitCost,
		}
		if err := s.InsertAllocation(ctx, alloc); err != nil {
			return nil, err
		}
	}

	if err := s.AdjustStock(ctx, in.ProductID, -in.Quantity); err != nil {
		return nil, err
	}
	return sale, nil
}

// reverseSale runs the undo half inside the caller's transaction and
// returns the product whose stock it restored.
func reverseSale(ctx context.Context, s Store, id SaleID) (ProductID, error) {
	sale, err := s.GetSale(ctx, id)
	if err != nil {
		return 0, err
	}
	if sale == nil {
		return 0, ErrUnknownSale
	}

	allocs, err := s.AllocationsBySale(ctx, id)
	if err != nil {
		return 0, err
	}

	var restored int64
	for _, a := range allocs {
		batch, err := s.GetBatch(ctx, a.BatchID)
		if err != nil {
			return 0, err
		}
		if batch == nil {
			// DeleteBatch refuses while allocations exist, so a missing batch
			// here means the refusal was bypassed. Surface it, don't patch
			// around it.
			return 0, &InconsistencyError{ProductID: sale.ProductID, Detail: "allocation references deleted batch"}
		}
		batch.Remaining += a.QuantityUsed
		if err := s.UpdateBatch(ctx, *batch); err != nil {
			return 0, err
		}
		restored += a.QuantityUsed
	}

	if err := s.AdjustStock(ctx, sale.ProductID, restored); err != nil {
		return 0, err
	}
	if err := s.DeleteAllocationsBySale(ctx, id); err != nil {
		return 0, err
	}
	if err := s.DeleteSale(ctx, id); err != nil {
		return 0, err
	}
	return sale.ProductID, nil
}

// =============================================================================
// RESTOCK OPERATIONS
// =============================================================================

// AddBatch creates a restock lot and grows the on-hand cache by its
// quantity.
func (e *Engine) AddBatch(ctx context.Context, in BatchInput) (*Batch, error) {
	if err := validateBatch(in); err != nil {
		return nil, err
	}

	var batch *Batch
	err := e.withTx(ctx, func(s Store) error {
		if err := checkRefs(ctx, s, in.ProductID, in.UnitID); err != nil {
			return err
		}
		batch = &Batch{
			ProductID:  in.ProductID,
			UnitID:     in.UnitID,
			UnitCost:   in.UnitCost,
			Original:   in.Quantity,
			Remaining:  in.Quantity,
			AcquiredAt: in.AcquiredAt,
		}
		if err := s.InsertBatch(ctx, batch); err != nil {
			return err
		}
		if err := s.AdjustStock(ctx, in.ProductID, in.Quantity); err != nil {
			return err
		}
		return e.guard(ctx, s, in.ProductID)
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

// EditBatch changes a batch's own fields. The quantity delta applies to
// both Original and Remaining; an edit that would need to claw back stock
// already sold fails with ErrBatchOverAllocated.
func (e *Engine) EditBatch(ctx context.Context, id BatchID, in BatchInput) (*Batch, error) {
	if err := validateBatch(in); err != nil {
		return nil, err
	}

	var batch *Batch
	err := e.withTx(ctx, func(s Store) error {
		if err := checkRefs(ctx, s, in.ProductID, in.UnitID); err != nil {
			return err
		}
		var err error
		batch, err = s.GetBatch(ctx, id)
		if err != nil {
			return err
		}
		if batch == nil {
			return ErrUnknownBatch
		}
		if batch.ProductID != in.ProductID {
			// Moving a batch between products would strand its allocations.
			return ErrInvalidInput
		}

		delta := in.Quantity - batch.Original
		if batch.Remaining+delta < 0 {
			return &OverAllocatedError{
				BatchID:   id,
				Original:  batch.Original,
				Remaining: batch.Remaining,
				Requested: in.Quantity,
			}
		}

		batch.Original = in.Quantity
		batch.Remaining += delta
		batch.UnitCost = in.UnitCost
		batch.AcquiredAt = in.AcquiredAt
		batch.UnitID = in.UnitID
		if err := s.UpdateBatch(ctx, *batch); err != nil {
			return err
		}
		if err := s.AdjustStock(ctx, in.ProductID, delta); err != nil {
			return err
		}
		return e.guard(ctx, s, in.ProductID)
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

// DeleteBatch removes a batch with no live allocations and shrinks the
// on-hand cache by whatever the batch still held. Fails with
// ErrBatchHasAllocations while sale history references the batch.
func (e *Engine) DeleteBatch(ctx context.Context, id BatchID) error {
	return e.withTx(ctx, func(s Store) error {
		batch, err := s.GetBatch(ctx, id)
		if err != nil {
			return err
		}
		if batch == nil {
			return ErrUnknownBatch
		}

		referenced, err := s.BatchHasAllocations(ctx, id)
		if err != nil {
			return err
		}
		if referenced {
			return ErrBatchHasAllocations
		}

		if err := s.AdjustStock(ctx, batch.ProductID, -batch.Remaining); err != nil {
			return err
		}
		if err := s.DeleteBatch(ctx, id); err != nil {
			return err
		}
		return e.guard(ctx, s, batch.ProductID)
	})
}

// =============================================================================
// READ PROJECTIONS - Latest committed state, no transaction
// =============================================================================

// CurrentStock returns the cached on-hand quantity for a product.
func (e *Engine) CurrentStock(ctx context.Context, productID ProductID) (int64, error) {
	return e.store.StockOnHand(ctx, productID)
}

// ListBatches returns all batches of a product, including zero-quantity
// historical lots.
func (e *Engine) ListBatches(ctx context.Context, productID ProductID) ([]Batch, error) {
	return e.store.ListBatches(ctx, productID)
}

// RestockHistory returns every batch across products, newest acquisition
// first.
func (e *Engine) RestockHistory(ctx context.Context) ([]Batch, error) {
	return e.store.AllBatches(ctx)
}

// ListSales returns sale history, optionally filtered to one product.
func (e *Engine) ListSales(ctx context.Context, productID *ProductID) ([]Sale, error) {
	return e.store.ListSales(ctx, productID)
}

// GetSale returns one sale, or ErrUnknownSale.
func (e *Engine) GetSale(ctx context.Context, id SaleID) (*Sale, error) {
	sale, err := e.store.GetSale(ctx, id)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, ErrUnknownSale
	}
	return sale, nil
}

// SaleAllocations returns the batch draws behind a sale.
func (e *Engine) SaleAllocations(ctx context.Context, id SaleID) ([]Allocation, error) {
	return e.store.AllocationsBySale(ctx, id)
}

// ListStock returns on-hand levels for every product with a stock row.
func (e *Engine) ListStock(ctx context.Context) ([]StockLevel, error) {
	return e.store.ListStock(ctx)
}

// =============================================================================
// INTERNALS
// =============================================================================

// withTx runs fn in a transaction, retrying once on a lock timeout.
func (e *Engine) withTx(ctx context.Context, fn func(Store) error) error {
	err := e.store.WithTx(ctx, fn)
	if errors.Is(err, ErrLockTimeout) {
		err = e.store.WithTx(ctx, fn)
	}
	return err
}

// guard runs the reconciliation check, logging any violation before the
// rollback because inconsistency means a defect, not bad input.
func (e *Engine) guard(ctx context.Context, s Store, productIDs ...ProductID) error {
	err := CheckProducts(ctx, s, productIDs...)
	if err != nil && errors.Is(err, ErrLedgerInconsistency) {
		log.Printf("ledger: reconciliation failed, rolling back: %v", err)
	}
	return err
}

func checkRefs(ctx context.Context, s Store, productID ProductID, unitID UnitID) error {
	ok, err := s.ProductExists(ctx, productID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnknownProduct
	}
	ok, err = s.UnitExists(ctx, unitID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnknownUnit
	}
	return nil
}

func validateSale(in SaleInput) error {
	if in.Quantity <= 0 {
		return ErrInvalidInput
	}
	if in.UnitPrice.IsNegative() || in.UnitPrice.IsZero() {
		return ErrInvalidInput
	}
	if in.SoldAt.IsZero() {
		return ErrInvalidInput
	}
	return nil
}

func validateBatch(in BatchInput) error {
	if in.Quantity <= 0 {
		return ErrInvalidInput
	}
	// Zero-cost lots (samples, promotions) are legitimate restocks.
	if in.UnitCost.IsNegative() {
		return ErrInvalidInput
	}
	if in.AcquiredAt.IsZero() {
		return ErrInvalidInput
	}
	return nil
}
