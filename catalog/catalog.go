/*
Package catalog manages the product/brand/description/unit catalog.

PURPOSE:
  The ledger core references products and units by id; this package owns
  what those ids mean. It resolves display names, creates products with
  get-or-create semantics for their brand/description/category parts, and
  keeps a read-through cache of the product list so pickers don't hit the
  database on every keystroke.

CACHE:
  The product cache is owned here, behind a mutex, and invalidated on
  every catalog write. Nothing outside this package can reach it, and the
  ledger core never sees it - it is a display convenience, not state.

GET-OR-CREATE:
  Brands, descriptions, categories, and units are deduplicated by name.
  Creating a product with a brand that already exists reuses the existing
  brand row rather than erroring.

SEE ALSO:
  - store/sqlite/catalog.go: SQLite-backed Store implementation
*/
package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/warp/stock-ledger/ledger"
)

// =============================================================================
// TYPES
// =============================================================================

type BrandID int64
type DescriptionID int64
type CategoryID int64

// Product is a sellable item. Brand, description, and category are
// normalized into their own tables and referenced by id.
type Product struct {
	ID            ledger.ProductID
	Name          string
	BrandID       BrandID
	DescriptionID DescriptionID
	CategoryID    CategoryID
}

// Entry is a product as shown in a picker: id plus resolved display name.
type Entry struct {
	ID      ledger.ProductID
	Display string
}

type Unit struct {
	ID   ledger.UnitID
	Name string
}

// DisplayName formats a product the way every list view shows it.
func DisplayName(name, brand, description string) string {
	return fmt.Sprintf("%s - %s - %s", name, brand, description)
}

// =============================================================================
// STORE
// =============================================================================

// Store persists catalog entities. The get-or-create methods return the
// existing row's id when the name already exists.
type Store interface {
	GetProduct(ctx context.Context, id ledger.ProductID) (*Product, error)
	ListProductEntries(ctx context.Context) ([]Entry, error)
	InsertProduct(ctx context.Context, p *Product) error
	UpdateProduct(ctx context.Context, p Product) error
	DeleteProduct(ctx context.Context, id ledger.ProductID) error

	GetOrCreateBrand(ctx context.Context, name string) (BrandID, error)
	GetOrCreateDescription(ctx context.Context, text string) (DescriptionID, error)
	GetOrCreateCategory(ctx context.Context, name string) (CategoryID, error)
	GetOrCreateUnit(ctx context.Context, name string) (ledger.UnitID, error)
	ListUnits(ctx context.Context) ([]Unit, error)
}

// =============================================================================
// CATALOG
// =============================================================================

// Catalog wraps a Store with a read-through product cache.
type Catalog struct {
	store Store

	mu      sync.RWMutex
	entries []Entry // nil means not loaded
}

func New(store Store) *Catalog {
	return &Catalog{store: store}
}

// Products returns the cached product entries, loading from the store on
// first use or after an invalidating write.
func (c *Catalog) Products(ctx context.Context) ([]Entry, error) {
	c.mu.RLock()
	cached := c.entries
	c.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	entries, err := c.store.ListProductEntries(ctx)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []Entry{}
	}

	c.mu.Lock()
	c.entries = entries
	c.mu.Unlock()
	return entries, nil
}

// Resolve returns the display name for one product.
func (c *Catalog) Resolve(ctx context.Context, id ledger.ProductID) (string, error) {
	entries, err := c.Products(ctx)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if e.ID == id {
			return e.Display, nil
		}
	}
	return "", ledger.ErrUnknownProduct
}

// CreateProduct creates a product, reusing existing brand/description/
// category rows by name.
func (c *Catalog) CreateProduct(ctx context.Context, name, brand, description, category string) (*Product, error) {
	if name == "" {
		return nil, ledger.ErrInvalidInput
	}

	brandID, err := c.store.GetOrCreateBrand(ctx, brand)
	if err != nil {
		return nil, err
	}
	descID, err := c.store.GetOrCreateDescription(ctx, description)
	if err != nil {
		return nil, err
	}
	catID, err := c.store.GetOrCreateCategory(ctx, category)
	if err != nil {
		return nil, err
	}

	p := &Product{Name: name, BrandID: brandID, DescriptionID: descID, CategoryID: catID}
	if err := c.store.InsertProduct(ctx, p); err != nil {
		return nil, err
	}
	c.invalidate()
	return p, nil
}

// UpdateProduct rewrites a product's fields and drops the cache.
func (c *Catalog) UpdateProduct(ctx context.Context, p Product) error {
	if p.Name == "" {
		return ledger.ErrInvalidInput
	}
	if err := c.store.UpdateProduct(ctx, p); err != nil {
		return err
	}
	c.invalidate()
	return nil
}

// DeleteProduct removes a product and drops the cache. The store's
// foreign keys stop the delete while batches or sales reference it.
func (c *Catalog) DeleteProduct(ctx context.Context, id ledger.ProductID) error {
	if err := c.store.DeleteProduct(ctx, id); err != nil {
		return err
	}
	c.invalidate()
	return nil
}

// Unit returns the id for a unit name, creating the row if needed. The
// restock form lets users type new units freely.
func (c *Catalog) Unit(ctx context.Context, name string) (ledger.UnitID, error) {
	if name == "" {
		return 0, ledger.ErrInvalidInput
	}
	return c.store.GetOrCreateUnit(ctx, name)
}

// Units lists all known units of measurement.
func (c *Catalog) Units(ctx context.Context) ([]Unit, error) {
	return c.store.ListUnits(ctx)
}

func (c *Catalog) invalidate() {
	c.mu.Lock()
	c.entries = nil
	c.mu.Unlock()
}
