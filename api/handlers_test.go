package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/stock-ledger/api"
	"github.com/warp/stock-ledger/catalog"
	"github.com/warp/stock-ledger/ledger"
	"github.com/warp/stock-ledger/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	handler := api.NewHandler(ledger.NewEngine(store), catalog.New(store))
	srv := httptest.NewServer(api.NewRouter(handler))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, srv *httptest.Server, path string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(srv.URL+path, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// seedCatalog creates a product and unit over the API and returns their ids.
func seedCatalog(t *testing.T, srv *httptest.Server) (int64, int64) {
	t.Helper()

	resp := postJSON(t, srv, "/api/products", api.CreateProductRequest{
		Name: "Cola", Brand: "Acme", Description: "500ml bottle", Category: "Beverages",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	product := decode[api.ProductDTO](t, resp)

	resp = postJSON(t, srv, "/api/units", api.CreateUnitRequest{Name: "piece"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	unit := decode[api.UnitDTO](t, resp)

	return product.ID, unit.ID
}

func addBatch(t *testing.T, srv *httptest.Server, productID, unitID, qty int64, cost, date string) api.BatchDTO {
	t.Helper()
	resp := postJSON(t, srv, "/api/batches", api.AddBatchRequest{
		ProductID: productID, UnitID: unitID, Quantity: qty, UnitCost: cost, AcquiredAt: date,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[api.BatchDTO](t, resp)
}

// =============================================================================
// SALE ENDPOINTS
// =============================================================================

func TestAPI_RecordSale_SplitsAcrossBatches(t *testing.T) {
	// GIVEN: Two batches (5 @ 3.00 then 10 @ 4.00)
	// WHEN: POSTing a sale of 7
	// THEN: 201, and the sale detail shows both draws

	srv := newTestServer(t)
	productID, unitID := seedCatalog(t, srv)
	addBatch(t, srv, productID, unitID, 5, "3.00", "2025-03-01")
	addBatch(t, srv, productID, unitID, 10, "4.00", "2025-03-05")

	resp := postJSON(t, srv, "/api/sales", api.RecordSaleRequest{
		ProductID: productID, UnitID: unitID, Quantity: 7, UnitPrice: "9.99", SoldAt: "2025-03-10",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	sale := decode[api.SaleDTO](t, resp)
	assert.Equal(t, "69.93", sale.Revenue)
	assert.Equal(t, "Cola - Acme - 500ml bottle", sale.Product)

	detail, err := http.Get(fmt.Sprintf("%s/api/sales/%d", srv.URL, sale.ID))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, detail.StatusCode)
	got := decode[api.SaleDTO](t, detail)
	require.Len(t, got.Draws, 2)
	assert.Equal(t, int64(5), got.Draws[0].QuantityUsed)
	assert.Equal(t, "3.00", got.Draws[0].UnitCost)
	assert.Equal(t, int64(2), got.Draws[1].QuantityUsed)
}

func TestAPI_RecordSale_InsufficientStock_409(t *testing.T) {
	srv := newTestServer(t)
	productID, unitID := seedCatalog(t, srv)
	addBatch(t, srv, productID, unitID, 3, "1.00", "2025-03-01")

	resp := postJSON(t, srv, "/api/sales", api.RecordSaleRequest{
		ProductID: productID, UnitID: unitID, Quantity: 5, UnitPrice: "2.00", SoldAt: "2025-03-02",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAPI_RecordSale_BadPrice_400(t *testing.T) {
	srv := newTestServer(t)
	productID, unitID := seedCatalog(t, srv)

	resp := postJSON(t, srv, "/api/sales", api.RecordSaleRequest{
		ProductID: productID, UnitID: unitID, Quantity: 1, UnitPrice: "not-a-number", SoldAt: "2025-03-02",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_ReverseSale_RestoresStock(t *testing.T) {
	srv := newTestServer(t)
	productID, unitID := seedCatalog(t, srv)
	addBatch(t, srv, productID, unitID, 10, "2.00", "2025-03-01")

	resp := postJSON(t, srv, "/api/sales", api.RecordSaleRequest{
		ProductID: productID, UnitID: unitID, Quantity: 4, UnitPrice: "5.00", SoldAt: "2025-03-02",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	sale := decode[api.SaleDTO](t, resp)

	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/api/sales/%d", srv.URL, sale.ID), nil)
	require.NoError(t, err)
	del, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	del.Body.Close()
	assert.Equal(t, http.StatusNoContent, del.StatusCode)

	stockResp, err := http.Get(srv.URL + "/api/stock")
	require.NoError(t, err)
	levels := decode[[]api.StockDTO](t, stockResp)
	require.Len(t, levels, 1)
	assert.Equal(t, int64(10), levels[0].OnHand)
}

func TestAPI_ReverseSale_Unknown_404(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/sales/42", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// =============================================================================
// BATCH AND STOCK ENDPOINTS
// =============================================================================

func TestAPI_DeleteBatch_Referenced_409(t *testing.T) {
	srv := newTestServer(t)
	productID, unitID := seedCatalog(t, srv)
	b := addBatch(t, srv, productID, unitID, 10, "2.00", "2025-03-01")

	resp := postJSON(t, srv, "/api/sales", api.RecordSaleRequest{
		ProductID: productID, UnitID: unitID, Quantity: 1, UnitPrice: "5.00", SoldAt: "2025-03-02",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/api/batches/%d", srv.URL, b.ID), nil)
	require.NoError(t, err)
	del, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	del.Body.Close()
	assert.Equal(t, http.StatusConflict, del.StatusCode)
}

func TestAPI_Stock_FlagsLowInventory(t *testing.T) {
	srv := newTestServer(t)
	productID, unitID := seedCatalog(t, srv)
	addBatch(t, srv, productID, unitID, 7, "2.00", "2025-03-01")

	resp, err := http.Get(srv.URL + "/api/stock")
	require.NoError(t, err)
	levels := decode[[]api.StockDTO](t, resp)
	require.Len(t, levels, 1)
	assert.True(t, levels[0].LowStock, "7 on hand is under the threshold of %d", api.LowStockThreshold)
	assert.Equal(t, "Cola - Acme - 500ml bottle", levels[0].Product)
}

// =============================================================================
// REPORT ENDPOINTS
// =============================================================================

func TestAPI_ProfitReport(t *testing.T) {
	srv := newTestServer(t)
	productID, unitID := seedCatalog(t, srv)
	addBatch(t, srv, productID, unitID, 10, "2.00", "2025-03-01")

	resp := postJSON(t, srv, "/api/sales", api.RecordSaleRequest{
		ProductID: productID, UnitID: unitID, Quantity: 4, UnitPrice: "5.00", SoldAt: "2025-03-02",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	report, err := http.Get(srv.URL + "/api/reports/profit?from=2025-03-01&to=2025-03-31")
	require.NoError(t, err)
	got := decode[api.ProfitReportDTO](t, report)
	assert.Equal(t, 1, got.SaleCount)
	assert.Equal(t, "20.00", got.Revenue)
	assert.Equal(t, "8.00", got.CostOfGoods)
	assert.Equal(t, "12.00", got.GrossProfit)
}

func TestAPI_Batches_NoFilter_ReturnsHistoryWithNames(t *testing.T) {
	// GIVEN: Two restock lots acquired on different days
	// WHEN: GETting /api/batches without a product filter
	// THEN: All lots come back newest acquisition first, with resolved
	//       product display names

	srv := newTestServer(t)
	productID, unitID := seedCatalog(t, srv)
	addBatch(t, srv, productID, unitID, 5, "3.00", "2025-03-01")
	addBatch(t, srv, productID, unitID, 10, "4.00", "2025-03-05")

	resp, err := http.Get(srv.URL + "/api/batches")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	batches := decode[[]api.BatchDTO](t, resp)

	require.Len(t, batches, 2)
	assert.Equal(t, "2025-03-05", batches[0].AcquiredAt)
	assert.Equal(t, "2025-03-01", batches[1].AcquiredAt)
	for _, b := range batches {
		assert.Equal(t, "Cola - Acme - 500ml bottle", b.Product)
	}
}
