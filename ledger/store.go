/*
store.go - Persistence interface for the ledger

PURPOSE:
  Defines the interface between the ledger core and the database.
  Different implementations can use SQLite or in-memory storage.

KEY INTERFACES:
  Store:   Keyed CRUD for batches, sales, allocations, and the on-hand cache
  TxStore: Transactional wrapper (atomic multi-table writes)

TRANSACTION CONTRACT:
  Every mutating operation in engine.go runs inside WithTx. The function
  receives a transactional Store handle; all reads used for planning (the
  FIFO batch walk) happen through that same handle so the plan cannot go
  stale against concurrent writers. Commit on nil, rollback on any error,
  including guard violations. The Store itself never auto-commits
  sub-steps.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite (immediate-lock writes)
  - ledger/store/memory.go: In-memory for testing

SEE ALSO:
  - engine.go: Uses WithTx for every mutation
  - guard.go: Reads back through the same handle before commit
*/
package ledger

import "context"

// Store handles persistence of ledger entities. All methods operate on the
// latest committed state unless the Store is a transactional handle
// obtained via TxStore.WithTx.
type Store interface {
	// Batches
	GetBatch(ctx context.Context, id BatchID) (*Batch, error)
	ListBatches(ctx context.Context, productID ProductID) ([]Batch, error)
	// AllBatches returns every batch across products, newest acquisition
	// first (restock history order).
	AllBatches(ctx context.Context) ([]Batch, error)
	// OpenBatches returns batches with Remaining > 0 for the product/unit,
	// ordered by AcquiredAt ascending then ID ascending.
	OpenBatches(ctx context.Context, productID ProductID, unitID UnitID) ([]Batch, error)
	InsertBatch(ctx context.Context, b *Batch) error
	UpdateBatch(ctx context.Context, b Batch) error
	DeleteBatch(ctx context.Context, id BatchID) error

	// Sales
	GetSale(ctx context.Context, id SaleID) (*Sale, error)
	// ListSales returns sales newest-first; productID nil means all products.
	ListSales(ctx context.Context, productID *ProductID) ([]Sale, error)
	InsertSale(ctx context.Context, s *Sale) error
	DeleteSale(ctx context.Context, id SaleID) error

	// Allocations
	AllocationsBySale(ctx context.Context, id SaleID) ([]Allocation, error)
	BatchHasAllocations(ctx context.Context, id BatchID) (bool, error)
	InsertAllocation(ctx context.Context, a *Allocation) error
	DeleteAllocationsBySale(ctx context.Context, id SaleID) error

	// On-hand cache
	StockOnHand(ctx context.Context, productID ProductID) (int64, error)
	AdjustStock(ctx context.Context, productID ProductID, delta int64) error
	ListStock(ctx context.Context) ([]StockLevel, error)

	// Catalog references (read-only; the catalog collaborator owns writes)
	ProductExists(ctx context.Context, id ProductID) (bool, error)
	UnitExists(ctx context.Context, id UnitID) (bool, error)
}

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}
