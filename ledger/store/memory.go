// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/stock-ledger/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements ledger.TxStore against plain maps. WithTx runs the
// function against a copy of the state and swaps it in on success, so a
// failed operation leaves nothing behind, same as a database rollback.
// The mutex is held across the whole transaction, which also gives the
// one-writer-at-a-time behavior the SQLite store gets from its
// immediate-lock transactions.
type Memory struct {
	mu    sync.Mutex
	state *state

	products map[ledger.ProductID]bool
	units    map[ledger.UnitID]bool

	nextBatch int64
	nextSale  int64
	nextAlloc int64
}

type state struct {
	batches map[ledger.BatchID]ledger.Batch
	sales   map[ledger.SaleID]ledger.Sale
	allocs  map[ledger.AllocationID]ledger.Allocation
	stock   map[ledger.ProductID]int64
}

func NewMemory() *Memory {
	return &Memory{
		state: &state{
			batches: make(map[ledger.BatchID]ledger.Batch),
			sales:   make(map[ledger.SaleID]ledger.Sale),
			allocs:  make(map[ledger.AllocationID]ledger.Allocation),
			stock:   make(map[ledger.ProductID]int64),
		},
		products: make(map[ledger.ProductID]bool),
		units:    make(map[ledger.UnitID]bool),
	}
}

// AddProduct registers a product id so ProductExists passes. Stands in
// for the catalog collaborator in tests.
func (m *Memory) AddProduct(id ledger.ProductID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[id] = true
}

// AddUnit registers a unit id so UnitExists passes.
func (m *Memory) AddUnit(id ledger.UnitID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.units[id] = true
}

func (s *state) clone() *state {
	c := &state{
		batches: make(map[ledger.BatchID]ledger.Batch, len(s.batches)),
		sales:   make(map[ledger.SaleID]ledger.Sale, len(s.sales)),
		allocs:  make(map[ledger.AllocationID]ledger.Allocation, len(s.allocs)),
		stock:   make(map[ledger.ProductID]int64, len(s.stock)),
	}
	for k, v := range s.batches {
		c.batches[k] = v
	}
	for k, v := range s.sales {
		c.sales[k] = v
	}
	for k, v := range s.allocs {
		c.allocs[k] = v
	}
	for k, v := range s.stock {
		c.stock[k] = v
	}
	return c
}

// WithTx executes fn against a copy of the state; the copy replaces the
// live state only if fn returns nil.
func (m *Memory) WithTx(ctx context.Context, fn func(ledger.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	draft := m.state.clone()
	if err := fn(&view{mem: m, state: draft}); err != nil {
		return err
	}
	m.state = draft
	return nil
}

// view is a Store over a specific state. The transaction lock is already
// held by the caller (WithTx or a locking Memory method).
type view struct {
	mem   *Memory
	state *state
}

// =============================================================================
// BATCHES
// =============================================================================

func (v *view) GetBatch(_ context.Context, id ledger.BatchID) (*ledger.Batch, error) {
	b, ok := v.state.batches[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (v *view) ListBatches(_ context.Context, productID ledger.ProductID) ([]ledger.Batch, error) {
	var out []ledger.Batch
	for _, b := range v.state.batches {
		if b.ProductID == productID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (v *view) AllBatches(_ context.Context) ([]ledger.Batch, error) {
	out := make([]ledger.Batch, 0, len(v.state.batches))
	for _, b := range v.state.batches {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AcquiredAt.Equal(out[j].AcquiredAt) {
			return out[i].AcquiredAt.After(out[j].AcquiredAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (v *view) OpenBatches(_ context.Context, productID ledger.ProductID, unitID ledger.UnitID) ([]ledger.Batch, error) {
	var out []ledger.Batch
	for _, b := range v.state.batches {
		if b.ProductID == productID && b.UnitID == unitID && b.Remaining > 0 {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AcquiredAt.Equal(out[j].AcquiredAt) {
			return out[i].AcquiredAt.Before(out[j].AcquiredAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (v *view) InsertBatch(_ context.Context, b *ledger.Batch) error {
	v.mem.nextBatch++
	b.ID = ledger.BatchID(v.mem.nextBatch)
	v.state.batches[b.ID] = *b
	return nil
}

func (v *view) UpdateBatch(_ context.Context, b ledger.Batch) error {
	if _, ok := v.state.batches[b.ID]; !ok {
		return ledger.ErrUnknownBatch
	}
	v.state.batches[b.ID] = b
	return nil
}

func (v *view) DeleteBatch(_ context.Context, id ledger.BatchID) error {
	delete(v.state.batches, id)
	return nil
}

// =============================================================================
// SALES
// =============================================================================

func (v *view) GetSale(_ context.Context, id ledger.SaleID) (*ledger.Sale, error) {
	s, ok := v.state.sales[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (v *view) ListSales(_ context.Context, productID *ledger.ProductID) ([]ledger.Sale, error) {
	var out []ledger.Sale
	for _, s := range v.state.sales {
		if productID == nil || s.ProductID == *productID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SoldAt.Equal(out[j].SoldAt) {
			return out[i].SoldAt.After(out[j].SoldAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (v *view) InsertSale(_ context.Context, s *ledger.Sale) error {
	v.mem.nextSale++
	s.ID = ledger.SaleID(v.mem.nextSale)
	v.state.sales[s.ID] = *s
	return nil
}

func (v *view) DeleteSale(_ context.Context, id ledger.SaleID) error {
	delete(v.state.sales, id)
	return nil
}

// =============================================================================
// ALLOCATIONS
// =============================================================================

func (v *view) AllocationsBySale(_ context.Context, id ledger.SaleID) ([]ledger.Allocation, error) {
	var out []ledger.Allocation
	for _, a := range v.state.allocs {
		if a.SaleID == id {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (v *view) BatchHasAllocations(_ context.Context, id ledger.BatchID) (bool, error) {
	for _, a := range v.state.allocs {
		if a.BatchID == id {
			return true, nil
		}
	}
	return false, nil
}

func (v *view) InsertAllocation(_ context.Context, a *ledger.Allocation) error {
	for _, existing := range v.state.allocs {
		if existing.SaleID == a.SaleID && existing.BatchID == a.BatchID {
			return ledger.ErrInvalidInput
		}
	}
	v.mem.nextAlloc++
	a.ID = ledger.AllocationID(v.mem.nextAlloc)
	v.state.allocs[a.ID] = *a
	return nil
}

func (v *view) DeleteAllocationsBySale(_ context.Context, id ledger.SaleID) error {
	for k, a := range v.state.allocs {
		if a.SaleID == id {
			delete(v.state.allocs, k)
		}
	}
	return nil
}

// =============================================================================
// ON-HAND CACHE
// =============================================================================

func (v *view) StockOnHand(_ context.Context, productID ledger.ProductID) (int64, error) {
	return v.state.stock[productID], nil
}

func (v *view) AdjustStock(_ context.Context, productID ledger.ProductID, delta int64) error {
	v.state.stock[productID] += delta
	return nil
}

func (v *view) ListStock(_ context.Context) ([]ledger.StockLevel, error) {
	out := make([]ledger.StockLevel, 0, len(v.state.stock))
	for pid, qty := range v.state.stock {
		out = append(out, ledger.StockLevel{ProductID: pid, OnHand: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

// =============================================================================
// CATALOG REFERENCES
// =============================================================================

func (v *view) ProductExists(_ context.Context, id ledger.ProductID) (bool, error) {
	return v.mem.products[id], nil
}

func (v *view) UnitExists(_ context.Context, id ledger.UnitID) (bool, error) {
	return v.mem.units[id], nil
}

// =============================================================================
// DIRECT (NON-TRANSACTIONAL) ACCESS
// =============================================================================

func (m *Memory) locked() (*view, func()) {
	m.mu.Lock()
	return &view{mem: m, state: m.state}, m.mu.Unlock
}

func (m *Memory) GetBatch(ctx context.Context, id ledger.BatchID) (*ledger.Batch, error) {
	v, done := m.locked()
	defer done()
	return v.GetBatch(ctx, id)
}

func (m *Memory) ListBatches(ctx context.Context, productID ledger.ProductID) ([]ledger.Batch, error) {
	v, done := m.locked()
	defer done()
	return v.ListBatches(ctx, productID)
}

func (m *Memory) AllBatches(ctx context.Context) ([]ledger.Batch, error) {
	v, done := m.locked()
	defer done()
	return v.AllBatches(ctx)
}

func (m *Memory) OpenBatches(ctx context.Context, productID ledger.ProductID, unitID ledger.UnitID) ([]ledger.Batch, error) {
	v, done := m.locked()
	defer done()
	return v.OpenBatches(ctx, productID, unitID)
}

func (m *Memory) InsertBatch(ctx context.Context, b *ledger.Batch) error {
	v, done := m.locked()
	defer done()
	return v.InsertBatch(ctx, b)
}

func (m *Memory) UpdateBatch(ctx context.Context, b ledger.Batch) error {
	v, done := m.locked()
	defer done()
	return v.UpdateBatch(ctx, b)
}

func (m *Memory) DeleteBatch(ctx context.Context, id ledger.BatchID) error {
	v, done := m.locked()
	defer done()
	return v.DeleteBatch(ctx, id)
}

func (m *Memory) GetSale(ctx context.Context, id ledger.SaleID) (*ledger.Sale, error) {
	v, done := m.locked()
	defer done()
	return v.GetSale(ctx, id)
}

func (m *Memory) ListSales(ctx context.Context, productID *ledger.ProductID) ([]ledger.Sale, error) {
	v, done := m.locked()
	defer done()
	return v.ListSales(ctx, productID)
}

func (m *Memory) InsertSale(ctx context.Context, s *ledger.Sale) error {
	v, done := m.locked()
	defer done()
	return v.InsertSale(ctx, s)
}

func (m *Memory) DeleteSale(ctx context.Context, id ledger.SaleID) error {
	v, done := m.locked()
	defer done()
	return v.DeleteSale(ctx, id)
}

func (m *Memory) AllocationsBySale(ctx context.Context, id ledger.SaleID) ([]ledger.Allocation, error) {
	v, done := m.locked()
	defer done()
	return v.AllocationsBySale(ctx, id)
}

func (m *Memory) BatchHasAllocations(ctx context.Context, id ledger.BatchID) (bool, error) {
	v, done := m.locked()
	defer done()
	return v.BatchHasAllocations(ctx, id)
}

func (m *Memory) InsertAllocation(ctx context.Context, a *ledger.Allocation) error {
	v, done := m.locked()
	defer done()
	return v.InsertAllocation(ctx, a)
}

func (m *Memory) DeleteAllocationsBySale(ctx context.Context, id ledger.SaleID) error {
	v, done := m.locked()
	defer done()
	return v.DeleteAllocationsBySale(ctx, id)
}

func (m *Memory) StockOnHand(ctx context.Context, productID ledger.ProductID) (int64, error) {
	v, done := m.locked()
	defer done()
	return v.StockOnHand(ctx, productID)
}

func (m *Memory) AdjustStock(ctx context.Context, productID ledger.ProductID, delta int64) error {
	v, done := m.locked()
	defer done()
	return v.AdjustStock(ctx, productID, delta)
}

func (m *Memory) ListStock(ctx context.Context) ([]ledger.StockLevel, error) {
	v, done := m.locked()
	defer done()
	return v.ListStock(ctx)
}

func (m *Memory) ProductExists(ctx context.Context, id ledger.ProductID) (bool, error) {
	v, done := m.locked()
	defer done()
	return v.ProductExists(ctx, id)
}

func (m *Memory) UnitExists(ctx context.Context, id ledger.UnitID) (bool, error) {
	v, done := m.locked()
	defer done()
	return v.UnitExists(ctx, id)
}

var _ ledger.TxStore = (*Memory)(nil)
