/*
errors.go - Centralized error types for the stock ledger

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers match with errors.Is/errors.As; the HTTP layer maps these to
  status codes and the structured variants carry the numbers a user
  needs to act on a failure.

ERROR CATEGORIES:
  1. Stock errors - Insufficient or over-allocated stock
  2. Reference errors - Unknown products, units, sales, batches
  3. Ledger errors - Invariant violations and lock timeouts

PROPAGATION POLICY:
  Every error raised inside a mutating operation rolls back the whole
  transaction; no partial batch or aggregate update ever becomes
  visible. ErrLedgerInconsistency signals a programming defect and is
  logged at the engine boundary; all others are expected, recoverable
  conditions. ErrLockTimeout is safe to retry.

SEE ALSO:
  - engine.go: Raises these errors
  - guard.go: Raises ErrLedgerInconsistency
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInsufficientStock is returned when a sale requests more stock than
	// the open batches for the product/unit can supply.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrBatchOverAllocated is returned when a batch edit would shrink the
	// batch below what has already been sold out of it.
	ErrBatchOverAllocated = errors.New("batch over-allocated")

	// ErrBatchHasAllocations is returned when deleting a batch that sales
	// still reference. Deletion must not orphan sale history.
	ErrBatchHasAllocations = errors.New("batch has allocations")

	// ErrUnknownProduct is returned when a referenced product doesn't exist.
	ErrUnknownProduct = errors.New("unknown product")

	// ErrUnknownUnit is returned when a referenced unit doesn't exist.
	ErrUnknownUnit = errors.New("unknown unit")

	// ErrUnknownSale is returned when a referenced sale doesn't exist.
	ErrUnknownSale = errors.New("unknown sale")

	// ErrUnknownBatch is returned when a referenced batch doesn't exist.
	ErrUnknownBatch = errors.New("unknown batch")

	// ErrLedgerInconsistency is returned when the reconciliation guard
	// finds the on-hand cache out of step with the batch totals, or a
	// negative quantity. This is never expected in correct operation and
	// is never silently auto-corrected.
	ErrLedgerInconsistency = errors.New("ledger inconsistency")

	// ErrLockTimeout is returned when a transaction could not acquire the
	// write lock within the store's lock-wait ceiling. Retryable.
	ErrLockTimeout = errors.New("lock timeout")

	// ErrInvalidInput is returned for non-positive quantities, negative
	// prices, or malformed dates.
	ErrInvalidInput = errors.New("invalid input")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientStockError reports how far short the open batches fell.
type InsufficientStockError struct {
	ProductID ProductID
	UnitID    UnitID
	Requested int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// OverAllocatedError reports a batch edit that would claw back sold stock.
type OverAllocatedError struct {
	BatchID   BatchID
	Original  int64
	Remaining int64
	Requested int64
}

func (e *OverAllocatedError) Error() string {
	sold := e.Original - e.Remaining
	return fmt.Sprintf("batch %d over-allocated: %d already sold, cannot shrink to %d",
		e.BatchID, sold, e.Requested)
}

func (e *OverAllocatedError) Unwrap() error {
	return ErrBatchOverAllocated
}

// InconsistencyError reports the product whose cache and batch totals
// disagree. Surfaced as ErrLedgerInconsistency.
type InconsistencyError struct {
	ProductID ProductID
	OnHand    int64
	BatchSum  int64
	Detail    string
}

func (e *InconsistencyError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("ledger inconsistency for product %d: %s", e.ProductID, e.Detail)
	}
	return fmt.Sprintf("ledger inconsistency for product %d: on-hand %d != batch total %d",
		e.ProductID, e.OnHand, e.BatchSum)
}

func (e *InconsistencyError) Unwrap() error {
	return ErrLedgerInconsistency
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrLockTimeout)
}

// IsClientError returns true if the error is due to invalid or
// unsatisfiable client input rather than a system failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrBatchOverAllocated) ||
		errors.Is(err, ErrBatchHasAllocations) ||
		errors.Is(err, ErrInvalidInput)
}

// IsNotFound returns true if the error indicates a missing reference.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUnknownProduct) ||
		errors.Is(err, ErrUnknownUnit) ||
		errors.Is(err, ErrUnknownSale) ||
		errors.Is(err, ErrUnknownBatch)
}
