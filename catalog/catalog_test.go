package catalog_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/stock-ledger/catalog"
	"github.com/warp/stock-ledger/ledger"
	"github.com/warp/stock-ledger/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestCatalog(t *testing.T) (*catalog.Catalog, *sqlite.Store) {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return catalog.New(store), store
}

// =============================================================================
// PRODUCT CREATION
// =============================================================================

func TestCatalog_CreateProduct_ReusesPartsByName(t *testing.T) {
	// GIVEN: Two products sharing a brand and category
	// WHEN: Creating both
	// THEN: The shared parts resolve to the same rows

	cat, _ := newTestCatalog(t)
	ctx := context.Background()

	p1, err := cat.CreateProduct(ctx, "Cola", "Acme", "500ml bottle", "Beverages")
	require.NoError(t, err)
	p2, err := cat.CreateProduct(ctx, "Lemonade", "Acme", "1L bottle", "Beverages")
	require.NoError(t, err)

	assert.NotEqual(t, p1.ID, p2.ID)
	assert.Equal(t, p1.BrandID, p2.BrandID, "brand should be get-or-create by name")
	assert.Equal(t, p1.CategoryID, p2.CategoryID)
	assert.NotEqual(t, p1.DescriptionID, p2.DescriptionID)
}

func TestCatalog_CreateProduct_EmptyName_Rejected(t *testing.T) {
	cat, _ := newTestCatalog(t)
	_, err := cat.CreateProduct(context.Background(), "", "Acme", "x", "y")
	assert.ErrorIs(t, err, ledger.ErrInvalidInput)
}

// =============================================================================
// DISPLAY NAMES AND CACHE
// =============================================================================

func TestCatalog_Resolve_FormatsDisplayName(t *testing.T) {
	cat, _ := newTestCatalog(t)
	ctx := context.Background()

	p, err := cat.CreateProduct(ctx, "Cola", "Acme", "500ml bottle", "Beverages")
	require.NoError(t, err)

	display, err := cat.Resolve(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cola - Acme - 500ml bottle", display)

	_, err = cat.Resolve(ctx, 999)
	assert.ErrorIs(t, err, ledger.ErrUnknownProduct)
}

func TestCatalog_ProductCache_InvalidatedOnWrite(t *testing.T) {
	// GIVEN: A loaded product cache
	// WHEN: A product is created after the load
	// THEN: The next read sees it

	cat, _ := newTestCatalog(t)
	ctx := context.Background()

	_, err := cat.CreateProduct(ctx, "Cola", "Acme", "500ml bottle", "Beverages")
	require.NoError(t, err)

	entries, err := cat.Products(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	_, err = cat.CreateProduct(ctx, "Lemonade", "Acme", "1L bottle", "Beverages")
	require.NoError(t, err)

	entries, err = cat.Products(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "write must drop the cached list")
}

// =============================================================================
// DELETION GUARDS
// =============================================================================

func TestCatalog_DeleteProduct_BlockedWhileLedgerReferencesIt(t *testing.T) {
	// GIVEN: A product with a restock batch
	// WHEN: Deleting the product
	// THEN: The foreign keys block it; after deleting the batch it works

	cat, store := newTestCatalog(t)
	engine := ledger.NewEngine(store)
	ctx := context.Background()

	p, err := cat.CreateProduct(ctx, "Cola", "Acme", "500ml bottle", "Beverages")
	require.NoError(t, err)
	unitID, err := cat.Unit(ctx, "piece")
	require.NoError(t, err)

	_, err = engine.AddBatch(ctx, ledger.BatchInput{
		ProductID:  p.ID,
		UnitID:     unitID,
		Quantity:   5,
		UnitCost:   ledger.MustParseDecimal("1.00"),
		AcquiredAt: time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	err = cat.DeleteProduct(ctx, p.ID)
	assert.Error(t, err, "delete must be blocked while the ledger references the product")

	entries, err := cat.Products(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "product still present after blocked delete")
}

// =============================================================================
// UNITS
// =============================================================================

func TestCatalog_Unit_GetOrCreateByName(t *testing.T) {
	cat, _ := newTestCatalog(t)
	ctx := context.Background()

	id1, err := cat.Unit(ctx, "piece")
	require.NoError(t, err)
	id2, err := cat.Unit(ctx, "piece")
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	id3, err := cat.Unit(ctx, "crate")
	require.NoError(t, err)
	assert.NotEqual(t, id1, id3)

	units, err := cat.Units(ctx)
	require.NoError(t, err)
	assert.Len(t, units, 2)

	_, err = cat.Unit(ctx, "")
	assert.ErrorIs(t, err, ledger.ErrInvalidInput)
}
