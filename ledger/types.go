/*
Package ledger provides the batch-based inventory accounting core.

PURPOSE:
  This package contains the types and algorithms for a small-business
  stock/sales ledger. Every restock creates a cost batch (quantity, unit
  cost, acquisition date); every sale draws stock from batches oldest-first
  and records which batch supplied each unit at what cost.

KEY CONCEPTS IN THIS FILE (types.go):
  - Batch: a restock lot with its own unit cost and remaining quantity
  - Sale: a sale event (quantity, unit price, date)
  - Allocation: the join of a Sale to the Batch(es) that supplied it
  - StockLevel: the cached on-hand total per product

DESIGN PRINCIPLES:
  1. Batches are the source of truth; the per-product on-hand total is a
     materialized cache kept consistent at every transaction boundary.
  2. Precision: decimal.Decimal for all money, never float64.
  3. Edits are reverse-then-reapply, never in-place patches, because a
     changed quantity or unit can change which batches are implicated.
  4. Allocation.UnitCostAtTime is captured at sale time and immutable,
     so cost-of-goods reporting survives later batch edits.

SEE ALSO:
  - selector.go: FIFO batch selection
  - engine.go: sale and restock operations
  - guard.go: invariant checking before commit
  - store.go: persistence interface
*/
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ProductID int64
type UnitID int64
type BatchID int64
type SaleID int64
type AllocationID int64

// =============================================================================
// BATCH - A restock lot
// =============================================================================

// Batch is a discrete restock lot. Remaining shrinks as sales allocate
// against it and grows back when sales are reversed; Original only changes
// via an explicit batch edit.
//
// INVARIANT: 0 <= Remaining <= Original.
type Batch struct {
	ID         BatchID
	ProductID  ProductID
	UnitID     UnitID
	UnitCost   decimal.Decimal
	Original   int64
	Remaining  int64
	AcquiredAt time.Time
}

// =============================================================================
// SALE - A sale event
// =============================================================================

type Sale struct {
	ID        SaleID
	ProductID ProductID
	UnitID    UnitID
	Quantity  int64
	UnitPrice decimal.Decimal
	SoldAt    time.Time
}

// Revenue returns UnitPrice * Quantity.
func (s Sale) Revenue() decimal.Decimal {
	return s.UnitPrice.Mul(decimal.NewFromInt(s.Quantity))
}

// =============================================================================
// ALLOCATION - Join of a Sale to the Batch it drew from
// =============================================================================

// Allocation records that QuantityUsed units of a sale came out of a
// specific batch. UnitCostAtTime is the batch's unit cost at allocation
// time and is never updated afterwards.
//
// At most one allocation exists per (sale, batch) pair.
type Allocation struct {
	ID             AllocationID
	SaleID         SaleID
	BatchID        BatchID
	QuantityUsed   int64
	UnitCostAtTime decimal.Decimal
}

// Cost returns UnitCostAtTime * QuantityUsed.
func (a Allocation) Cost() decimal.Decimal {
	return a.UnitCostAtTime.Mul(decimal.NewFromInt(a.QuantityUsed))
}

// =============================================================================
// STOCK LEVEL - Materialized on-hand cache
// =============================================================================

// StockLevel is the cached per-product on-hand quantity.
//
// INVARIANT: OnHand == sum of Remaining over all live batches of the
// product. The batch set is authoritative; this exists for fast display.
type StockLevel struct {
	ProductID ProductID
	OnHand    int64
}

// =============================================================================
// OPERATION INPUTS
// =============================================================================

// SaleInput is the caller-supplied portion of a sale.
type SaleInput struct {
	ProductID ProductID
	UnitID    UnitID
	Quantity  int64
	UnitPrice decimal.Decimal
	SoldAt    time.Time
}

// BatchInput is the caller-supplied portion of a restock.
type BatchInput struct {
	ProductID  ProductID
	UnitID     UnitID
	Quantity   int64
	UnitCost   decimal.Decimal
	AcquiredAt time.Time
}

// MustParseDecimal parses a decimal literal, panicking on malformed
// input. For constants and test fixtures only; storage scanning parses
// strictly and returns the error instead.
func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}
