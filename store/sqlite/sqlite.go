/*
Package sqlite provides a SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements ledger.TxStore and catalog.Store using SQLite. In
  production, the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

INTERFACES IMPLEMENTED:
  ledger.TxStore: Batches, sales, allocations, on-hand cache
  catalog.Store:  Products, brands, descriptions, categories, units

KEY TABLES:
  inventory_batches:    Restock lots (original + remaining quantities)
  inventory:            Materialized per-product on-hand cache
  sales:                Sale events
  sale_allocations:     Sale-to-batch joins with cost captured at sale time
  products, brands, descriptions, categories, units_of_measurement

INDEXES:
  Critical indexes for performance:
  - idx_batches_fifo: Oldest-first batch walk (hot path)
  - idx_sales_product_date: History views, newest first
  - idx_allocations_sale / idx_allocations_batch: Reversal and delete checks

CONCURRENCY:
  The database is opened with _txlock=immediate so every WithTx takes
  the write lock at BEGIN: two concurrent sales serialize before either
  plans its batch draws. A busy timeout bounds the lock wait, and
  SQLITE_BUSY maps to ledger.ErrLockTimeout so callers can retry. The
  pool is pinned to a single connection, which also keeps ":memory:"
  databases coherent across calls.

CONSTRAINT MAPPING:
  CHECK constraints on batch quantities are the database-level backstop
  for the reconciliation guard; a CHECK violation surfaces as
  ledger.ErrLedgerInconsistency.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/ledger.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  engine := ledger.NewEngine(store)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - ledger/store.go: Interface definitions
  - ledger/engine.go: Allocation and restock engine using TxStore
  - ledger/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/stock-ledger/ledger"
)

// Store implements ledger.TxStore and catalog.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database (testing).
func New(dbPath string) (*Store, error) {
	dsn := dbPath + "?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Catalog
	CREATE TABLE IF NOT EXISTS brands (
		brand_id INTEGER PRIMARY KEY AUTOINCREMENT,
		brand_name TEXT UNIQUE NOT NULL
	);

	CREATE TABLE IF NOT EXISTS descriptions (
		description_id INTEGER PRIMARY KEY AUTOINCREMENT,
		description_text TEXT UNIQUE NOT NULL
	);

	CREATE TABLE IF NOT EXISTS categories (
		category_id INTEGER PRIMARY KEY AUTOINCREMENT,
		category_name TEXT UNIQUE NOT NULL
	);

	CREATE TABLE IF NOT EXISTS units_of_measurement (
		unit_id INTEGER PRIMARY KEY AUTOINCREMENT,
		unit_name TEXT UNIQUE NOT NULL
	);

	CREATE TABLE IF NOT EXISTS products (
		product_id INTEGER PRIMARY KEY AUTOINCREMENT,
		product_name TEXT NOT NULL,
		brand_id INTEGER NOT NULL REFERENCES brands(brand_id),
		description_id INTEGER NOT NULL REFERENCES descriptions(description_id),
		category_id INTEGER NOT NULL REFERENCES categories(category_id)
	);

	-- Restock lots. The CHECKs back up the reconciliation guard.
	CREATE TABLE IF NOT EXISTS inventory_batches (
		batch_id INTEGER PRIMARY KEY AUTOINCREMENT,
		product_id INTEGER NOT NULL REFERENCES products(product_id),
		unit_id INTEGER NOT NULL REFERENCES units_of_measurement(unit_id),
		unit_cost TEXT NOT NULL,
		quantity_original INTEGER NOT NULL,
		quantity_remaining INTEGER NOT NULL,
		acquired_at TEXT NOT NULL,
		CHECK (quantity_remaining >= 0),
		CHECK (quantity_remaining <= quantity_original)
	);

	CREATE INDEX IF NOT EXISTS idx_batches_fifo
		ON inventory_batches(product_id, unit_id, acquired_at, batch_id);

	-- Materialized on-hand cache; batches stay authoritative
	CREATE TABLE IF NOT EXISTS inventory (
		product_id INTEGER PRIMARY KEY REFERENCES products(product_id),
		quantity_on_hand INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS sales (
		sale_id INTEGER PRIMARY KEY AUTOINCREMENT,
		product_id INTEGER NOT NULL REFERENCES products(product_id),
		unit_id INTEGER NOT NULL REFERENCES units_of_measurement(unit_id),
		quantity_sold INTEGER NOT NULL,
		unit_price TEXT NOT NULL,
		sold_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sales_product_date
		ON sales(product_id, sold_at DESC);

	CREATE TABLE IF NOT EXISTS sale_allocations (
		allocation_id INTEGER PRIMARY KEY AUTOINCREMENT,
		sale_id INTEGER NOT NULL REFERENCES sales(sale_id),
		batch_id INTEGER NOT NULL REFERENCES inventory_batches(batch_id),
		quantity_used INTEGER NOT NULL,
		unit_cost_at_time TEXT NOT NULL,
		UNIQUE(sale_id, batch_id)
	);

	CREATE INDEX IF NOT EXISTS idx_allocations_sale
		ON sale_allocations(sale_id);
	CREATE INDEX IF NOT EXISTS idx_allocations_batch
		ON sale_allocations(batch_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TRANSACTIONS (ledger.TxStore interface)
// =============================================================================

// WithTx executes fn within an immediate-lock transaction. A nil return
// commits; any error rolls back.
func (s *Store) WithTx(ctx context.Context, fn func(ledger.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapErr(err)
	}
	defer tx.Rollback()

	if err := fn(&txStore{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return mapErr(err)
	}
	return nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// txStore implements ledger.Store over a single querier.
type txStore struct {
	q querier
}

type scanner interface {
	Scan(dest ...any) error
}

// =============================================================================
// BATCHES
// =============================================================================

const batchColumns = `batch_id, product_id, unit_id, unit_cost, quantity_original, quantity_remaining, acquired_at`

func (t *txStore) GetBatch(ctx context.Context, id ledger.BatchID) (*ledger.Batch, error) {
	row := t.q.QueryRowContext(ctx,
		`SELECT `+batchColumns+` FROM inventory_batches WHERE batch_id = ?`, id)
	b, err := scanBatch(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, mapErr(err)
	}
	return b, nil
}

func (t *txStore) ListBatches(ctx context.Context, productID ledger.ProductID) ([]ledger.Batch, error) {
	return t.queryBatches(ctx,
		`SELECT `+batchColumns+` FROM inventory_batches WHERE product_id = ? ORDER BY batch_id`,
		productID)
}

func (t *txStore) AllBatches(ctx context.Context) ([]ledger.Batch, error) {
	return t.queryBatches(ctx,
		`SELECT `+batchColumns+` FROM inventory_batches ORDER BY acquired_at DESC, batch_id DESC`)
}

func (t *txStore) OpenBatches(ctx context.Context, productID ledger.ProductID, unitID ledger.UnitID) ([]ledger.Batch, error) {
	return t.queryBatches(ctx,
		`SELECT `+batchColumns+` FROM inventory_batches
		 WHERE product_id = ? AND unit_id = ? AND quantity_remaining > 0
		 ORDER BY acquired_at ASC, batch_id ASC`,
		productID, unitID)
}

func (t *txStore) queryBatches(ctx context.Context, query string, args ...any) ([]ledger.Batch, error) {
	rows, err := t.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var batches []ledger.Batch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		batches = append(batches, *b)
	}
	return batches, rows.Err()
}

func scanBatch(row scanner) (*ledger.Batch, error) {
	var (
		b          ledger.Batch
		unitCost   string
		acquiredAt string
	)
	err := row.Scan(&b.ID, &b.ProductID, &b.UnitID, &unitCost, &b.Original, &b.Remaining, &acquiredAt)
	if err != nil {
		return nil, err
	}
	b.UnitCost, err = decimal.NewFromString(unitCost)
	if err != nil {
		return nil, fmt.Errorf("bad unit_cost for batch %d: %w", b.ID, err)
	}
	b.AcquiredAt, err = time.Parse(time.RFC3339, acquiredAt)
	if err != nil {
		return nil, fmt.Errorf("bad acquired_at for batch %d: %w", b.ID, err)
	}
	return &b, nil
}

func (t *txStore) InsertBatch(ctx context.Context, b *ledger.Batch) error {
	res, err := t.q.ExecContext(ctx,
		`INSERT INTO inventory_batches
		 (product_id, unit_id, unit_cost, quantity_original, quantity_remaining, acquired_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		b.ProductID, b.UnitID, b.UnitCost.String(), b.Original, b.Remaining,
		b.AcquiredAt.UTC().Format(time.RFC3339))
	if err != nil {
		return mapErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = ledger.BatchID(id)
	return nil
}

func (t *txStore) UpdateBatch(ctx context.Context, b ledger.Batch) error {
	res, err := t.q.ExecContext(ctx,
		`UPDATE inventory_batches
		 SET product_id = ?, unit_id = ?, unit_cost = ?, quantity_original = ?,
		     quantity_remaining = ?, acquired_at = ?
		 WHERE batch_id = ?`,
		b.ProductID, b.UnitID, b.UnitCost.String(), b.Original, b.Remaining,
		b.AcquiredAt.UTC().Format(time.RFC3339), b.ID)
	if err != nil {
		return mapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ledger.ErrUnknownBatch
	}
	return nil
}

func (t *txStore) DeleteBatch(ctx context.Context, id ledger.BatchID) error {
	_, err := t.q.ExecContext(ctx, `DELETE FROM inventory_batches WHERE batch_id = ?`, id)
	return mapErr(err)
}

// =============================================================================
// SALES
// =============================================================================

const saleColumns = `sale_id, product_id, unit_id, quantity_sold, unit_price, sold_at`

func (t *txStore) GetSale(ctx context.Context, id ledger.SaleID) (*ledger.Sale, error) {
	row := t.q.QueryRowContext(ctx,
		`SELECT `+saleColumns+` FROM sales WHERE sale_id = ?`, id)
	sale, err := scanSale(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, mapErr(err)
	}
	return sale, nil
}

func (t *txStore) ListSales(ctx context.Context, productID *ledger.ProductID) ([]ledger.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales`
	var args []any
	if productID != nil {
		query += ` WHERE product_id = ?`
		args = append(args, *productID)
	}
	query += ` ORDER BY sold_at DESC, sale_id DESC`

	rows, err := t.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var sales []ledger.Sale
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		sales = append(sales, *sale)
	}
	return sales, rows.Err()
}

func scanSale(row scanner) (*ledger.Sale, error) {
	var (
		s         ledger.Sale
		unitPrice string
		soldAt    string
	)
	err := row.Scan(&s.ID, &s.ProductID, &s.UnitID, &s.Quantity, &unitPrice, &soldAt)
	if err != nil {
		return nil, err
	}
	s.UnitPrice, err = decimal.NewFromString(unitPrice)
	if err != nil {
		return nil, fmt.Errorf("bad unit_price for sale %d: %w", s.ID, err)
	}
	s.SoldAt, err = time.Parse(time.RFC3339, soldAt)
	if err != nil {
		return nil, fmt.Errorf("bad sold_at for sale %d: %w", s.ID, err)
	}
	return &s, nil
}

func (t *txStore) InsertSale(ctx context.Context, sale *ledger.Sale) error {
	res, err := t.q.ExecContext(ctx,
		`INSERT INTO sales (product_id, unit_id, quantity_sold, unit_price, sold_at)
		 VALUES (?, ?, ?, ?, ?)`,
		sale.ProductID, sale.UnitID, sale.Quantity, sale.UnitPrice.String(),
		sale.SoldAt.UTC().Format(time.RFC3339))
	if err != nil {
		return mapErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	sale.ID = ledger.SaleID(id)
	return nil
}

func (t *txStore) DeleteSale(ctx context.Context, id ledger.SaleID) error {
	_, err := t.q.ExecContext(ctx, `DELETE FROM sales WHERE sale_id = ?`, id)
	return mapErr(err)
}

// =============================================================================
// ALLOCATIONS
// =============================================================================

func (t *txStore) AllocationsBySale(ctx context.Context, id ledger.SaleID) ([]ledger.Allocation, error) {
	rows, err := t.q.QueryContext(ctx,
		`SELECT allocation_id, sale_id, batch_id, quantity_used, unit_cost_at_time
		 FROM sale_allocations WHERE sale_id = ? ORDER BY allocation_id`, id)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var allocs []ledger.Allocation
	for rows.Next() {
		var (
			a    ledger.Allocation
			cost string
		)
		if err := rows.Scan(&a.ID, &a.SaleID, &a.BatchID, &a.QuantityUsed, &cost); err != nil {
			return nil, err
		}
		a.UnitCostAtTime, err = decimal.NewFromString(cost)
		if err != nil {
			return nil, fmt.Errorf("bad unit_cost_at_time for allocation %d: %w", a.ID, err)
		}
		allocs = append(allocs, a)
	}
	return allocs, rows.Err()
}

func (t *txStore) BatchHasAllocations(ctx context.Context, id ledger.BatchID) (bool, error) {
	var count int
	err := t.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sale_allocations WHERE batch_id = ?`, id).Scan(&count)
	if err != nil {
		return false, mapErr(err)
	}
	return count > 0, nil
}

func (t *txStore) InsertAllocation(ctx context.Context, a *ledger.Allocation) error {
	res, err := t.q.ExecContext(ctx,
		`INSERT INTO sale_allocations (sale_id, batch_id, quantity_used, unit_cost_at_time)
		 VALUES (?, ?, ?, ?)`,
		a.SaleID, a.BatchID, a.QuantityUsed, a.UnitCostAtTime.String())
	if err != nil {
		return mapErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = ledger.AllocationID(id)
	return nil
}

func (t *txStore) DeleteAllocationsBySale(ctx context.Context, id ledger.SaleID) error {
	_, err := t.q.ExecContext(ctx, `DELETE FROM sale_allocations WHERE sale_id = ?`, id)
	return mapErr(err)
}

// =============================================================================
// ON-HAND CACHE
// =============================================================================

func (t *txStore) StockOnHand(ctx context.Context, productID ledger.ProductID) (int64, error) {
	var qty int64
	err := t.q.QueryRowContext(ctx,
		`SELECT quantity_on_hand FROM inventory WHERE product_id = ?`, productID).Scan(&qty)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, mapErr(err)
	}
	return qty, nil
}

func (t *txStore) AdjustStock(ctx context.Context, productID ledger.ProductID, delta int64) error {
	_, err := t.q.ExecContext(ctx,
		`INSERT INTO inventory (product_id, quantity_on_hand) VALUES (?, ?)
		 ON CONFLICT(product_id) DO UPDATE SET
			quantity_on_hand = quantity_on_hand + excluded.quantity_on_hand`,
		productID, delta)
	return mapErr(err)
}

func (t *txStore) ListStock(ctx context.Context) ([]ledger.StockLevel, error) {
	rows, err := t.q.QueryContext(ctx,
		`SELECT product_id, quantity_on_hand FROM inventory ORDER BY product_id`)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var levels []ledger.StockLevel
	for rows.Next() {
		var l ledger.StockLevel
		if err := rows.Scan(&l.ProductID, &l.OnHand); err != nil {
			return nil, err
		}
		levels = append(levels, l)
	}
	return levels, rows.Err()
}

// =============================================================================
// CATALOG REFERENCE CHECKS
// =============================================================================

func (t *txStore) ProductExists(ctx context.Context, id ledger.ProductID) (bool, error) {
	var count int
	err := t.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM products WHERE product_id = ?`, id).Scan(&count)
	if err != nil {
		return false, mapErr(err)
	}
	return count > 0, nil
}

func (t *txStore) UnitExists(ctx context.Context, id ledger.UnitID) (bool, error) {
	var count int
	err := t.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM units_of_measurement WHERE unit_id = ?`, id).Scan(&count)
	if err != nil {
		return false, mapErr(err)
	}
	return count > 0, nil
}

// =============================================================================
// DIRECT ACCESS - ledger.Store on the live database (reads, test seeding)
// =============================================================================

func (s *Store) reader() *txStore {
	return &txStore{q: s.db}
}

func (s *Store) GetBatch(ctx context.Context, id ledger.BatchID) (*ledger.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reader().GetBatch(ctx, id)
}

func (s *Store) ListBatches(ctx context.Context, productID ledger.ProductID) ([]ledger.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reader().ListBatches(ctx, productID)
}

func (s *Store) AllBatches(ctx context.Context) ([]ledger.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reader().AllBatches(ctx)
}

func (s *Store) OpenBatches(ctx context.Context, productID ledger.ProductID, unitID ledger.UnitID) ([]ledger.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reader().OpenBatches(ctx, productID, unitID)
}

func (s *Store) InsertBatch(ctx context.Context, b *ledger.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reader().InsertBatch(ctx, b)
}

func (s *Store) UpdateBatch(ctx context.Context, b ledger.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reader().UpdateBatch(ctx, b)
}

func (s *Store) DeleteBatch(ctx context.Context, id ledger.BatchID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reader().DeleteBatch(ctx, id)
}

func (s *Store) GetSale(ctx context.Context, id ledger.SaleID) (*ledger.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reader().GetSale(ctx, id)
}

func (s *Store) ListSales(ctx context.Context, productID *ledger.ProductID) ([]ledger.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reader().ListSales(ctx, productID)
}

func (s *Store) InsertSale(ctx context.Context, sale *ledger.Sale) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reader().InsertSale(ctx, sale)
}

func (s *Store) DeleteSale(ctx context.Context, id ledger.SaleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reader().DeleteSale(ctx, id)
}

func (s *Store) AllocationsBySale(ctx context.Context, id ledger.SaleID) ([]ledger.Allocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reader().AllocationsBySale(ctx, id)
}

func (s *Store) BatchHasAllocations(ctx context.Context, id ledger.BatchID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reader().BatchHasAllocations(ctx, id)
}

func (s *Store) InsertAllocation(ctx context.Context, a *ledger.Allocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reader().InsertAllocation(ctx, a)
}

func (s *Store) DeleteAllocationsBySale(ctx context.Context, id ledger.SaleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reader().DeleteAllocationsBySale(ctx, id)
}

func (s *Store) StockOnHand(ctx context.Context, productID ledger.ProductID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reader().StockOnHand(ctx, productID)
}

func (s *Store) AdjustStock(ctx context.Context, productID ledger.ProductID, delta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reader().AdjustStock(ctx, productID, delta)
}

func (s *Store) ListStock(ctx context.Context) ([]ledger.StockLevel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reader().ListStock(ctx)
}

func (s *Store) ProductExists(ctx context.Context, id ledger.ProductID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reader().ProductExists(ctx, id)
}

func (s *Store) UnitExists(ctx context.Context, id ledger.UnitID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reader().UnitExists(ctx, id)
}

var _ ledger.TxStore = (*Store)(nil)

// =============================================================================
// ERROR MAPPING
// =============================================================================

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY"):
		return fmt.Errorf("%w: %v", ledger.ErrLockTimeout, err)
	case strings.Contains(msg, "CHECK constraint failed"):
		return fmt.Errorf("%w: %v", ledger.ErrLedgerInconsistency, err)
	default:
		return err
	}
}
