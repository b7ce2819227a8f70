/*
handlers.go - HTTP API handlers for the stock ledger

PURPOSE:
  Exposes the ledger engine and catalog via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Sales:
    GET    /api/sales               Sale history (optionally ?product_id=)
    POST   /api/sales               Record a sale
    GET    /api/sales/{id}          Sale with its batch draws
    PUT    /api/sales/{id}          Edit (reverse + re-record, new id)
    DELETE /api/sales/{id}          Reverse a sale

  Batches:
    GET    /api/batches             Restock history (or ?product_id=)
    POST   /api/batches             Add a restock lot
    PUT    /api/batches/{id}        Edit a lot
    DELETE /api/batches/{id}        Delete an unreferenced lot

  Stock:
    GET    /api/stock               Current inventory view
    GET    /api/stock/{id}          On-hand quantity for one product

  Catalog:
    GET    /api/products            Product picker entries
    POST   /api/products            Create product (get-or-create parts)
    DELETE /api/products/{id}       Delete product without ledger history
    GET    /api/units               Units of measurement
    POST   /api/units               Register a unit

  Reports:
    GET    /api/reports/profit?from=&to=  Revenue vs cost of goods

ERROR HANDLING:
  Domain errors map to HTTP status via the ledger error helpers:
  - 400: Invalid input
  - 404: Unknown product/unit/sale/batch
  - 409: Insufficient stock, over-allocation, batch still referenced
  - 503: Lock timeout (retryable)
  - 500: Ledger inconsistency, everything else

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/warp/stock-ledger/catalog"
	"github.com/warp/stock-ledger/ledger"
)

// LowStockThreshold marks inventory rows the dashboard highlights.
const LowStockThreshold = 10

const dateLayout = "2006-01-02"

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine  *ledger.Engine
	Catalog *catalog.Catalog
}

// NewHandler creates a new handler over the engine and catalog.
func NewHandler(engine *ledger.Engine, cat *catalog.Catalog) *Handler {
	return &Handler{Engine: engine, Catalog: cat}
}

// =============================================================================
// SALE HANDLERS
// =============================================================================

// ListSales returns sale history, newest first.
func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	var productID *ledger.ProductID
	if raw := r.URL.Query().Get("product_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid product_id", err)
			return
		}
		pid := ledger.ProductID(id)
		productID = &pid
	}

	sales, err := h.Engine.ListSales(r.Context(), productID)
	if err != nil {
		writeDomainError(w, "Failed to list sales", err)
		return
	}

	dtos := make([]SaleDTO, len(sales))
	for i, s := range sales {
		dtos[i] = h.toSaleDTO(r, s, nil)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetSale returns one sale with its batch draws.
func (h *Handler) GetSale(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	sale, err := h.Engine.GetSale(r.Context(), ledger.SaleID(id))
	if err != nil {
		writeDomainError(w, "Failed to get sale", err)
		return
	}
	allocs, err := h.Engine.SaleAllocations(r.Context(), sale.ID)
	if err != nil {
		writeDomainError(w, "Failed to get sale allocations", err)
		return
	}

	writeJSON(w, http.StatusOK, h.toSaleDTO(r, *sale, allocs))
}

// RecordSale records a sale, drawing stock oldest-batch-first.
func (h *Handler) RecordSale(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeSaleInput(w, r)
	if !ok {
		return
	}

	sale, err := h.Engine.RecordSale(r.Context(), in)
	if err != nil {
		writeDomainError(w, "Failed to record sale", err)
		return
	}
	writeJSON(w, http.StatusCreated, h.toSaleDTO(r, *sale, nil))
}

// EditSale replaces a sale's parameters. The replacement gets a new id.
func (h *Handler) EditSale(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	in, ok := decodeSaleInput(w, r)
	if !ok {
		return
	}

	sale, err := h.Engine.EditSale(r.Context(), ledger.SaleID(id), in)
	if err != nil {
		writeDomainError(w, "Failed to edit sale", err)
		return
	}
	writeJSON(w, http.StatusOK, h.toSaleDTO(r, *sale, nil))
}

// ReverseSale undoes a sale and returns its stock to the source batches.
func (h *Handler) ReverseSale(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.Engine.ReverseSale(r.Context(), ledger.SaleID(id)); err != nil {
		writeDomainError(w, "Failed to reverse sale", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeSaleInput(w http.ResponseWriter, r *http.Request) (ledger.SaleInput, bool) {
	var req RecordSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return ledger.SaleInput{}, false
	}

	price, err := decimal.NewFromString(req.UnitPrice)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid unit_price", err)
		return ledger.SaleInput{}, false
	}
	soldAt, err := time.Parse(dateLayout, req.SoldAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid sold_at format (use YYYY-MM-DD)", err)
		return ledger.SaleInput{}, false
	}

	return ledger.SaleInput{
		ProductID: ledger.ProductID(req.ProductID),
		UnitID:    ledger.UnitID(req.UnitID),
		Quantity:  req.Quantity,
		UnitPrice: price,
		SoldAt:    soldAt,
	}, true
}

func (h *Handler) toSaleDTO(r *http.Request, s ledger.Sale, allocs []ledger.Allocation) SaleDTO {
	dto := SaleDTO{
		ID:        int64(s.ID),
		ProductID: int64(s.ProductID),
		UnitID:    int64(s.UnitID),
		Quantity:  s.Quantity,
		UnitPrice: s.UnitPrice.String(),
		Revenue:   s.Revenue().String(),
		SoldAt:    s.SoldAt.Format(dateLayout),
	}
	// Display name is best-effort; a missing catalog row never breaks
	// the history view.
	if name, err := h.Catalog.Resolve(r.Context(), s.ProductID); err == nil {
		dto.Product = name
	}
	for _, a := range allocs {
		dto.Draws = append(dto.Draws, AllocationDTO{
			BatchID:      int64(a.BatchID),
			QuantityUsed: a.QuantityUsed,
			UnitCost:     a.UnitCostAtTime.String(),
		})
	}
	return dto
}

// =============================================================================
// BATCH HANDLERS
// =============================================================================

// ListBatches returns restock lots: one product's (oldest id first) when
// product_id is given, otherwise the full restock history across
// products, newest acquisition first, with resolved display names.
func (h *Handler) ListBatches(w http.ResponseWriter, r *http.Request) {
	var (
		batches []ledger.Batch
		err     error
	)
	if raw := r.URL.Query().Get("product_id"); raw != "" {
		id, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil {
			writeError(w, http.StatusBadRequest, "Invalid product_id", perr)
			return
		}
		batches, err = h.Engine.ListBatches(r.Context(), ledger.ProductID(id))
	} else {
		batches, err = h.Engine.RestockHistory(r.Context())
	}
	if err != nil {
		writeDomainError(w, "Failed to list batches", err)
		return
	}

	dtos := make([]BatchDTO, len(batches))
	for i, b := range batches {
		dtos[i] = toBatchDTO(b)
		if name, err := h.Catalog.Resolve(r.Context(), b.ProductID); err == nil {
			dtos[i].Product = name
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// AddBatch records a restock lot.
func (h *Handler) AddBatch(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeBatchInput(w, r)
	if !ok {
		return
	}

	batch, err := h.Engine.AddBatch(r.Context(), in)
	if err != nil {
		writeDomainError(w, "Failed to add batch", err)
		return
	}
	writeJSON(w, http.StatusCreated, toBatchDTO(*batch))
}

// EditBatch changes a lot's quantity, cost, unit, or date.
func (h *Handler) EditBatch(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	in, ok := decodeBatchInput(w, r)
	if !ok {
		return
	}

	batch, err := h.Engine.EditBatch(r.Context(), ledger.BatchID(id), in)
	if err != nil {
		writeDomainError(w, "Failed to edit batch", err)
		return
	}
	writeJSON(w, http.StatusOK, toBatchDTO(*batch))
}

// DeleteBatch removes a lot that no sale references.
func (h *Handler) DeleteBatch(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.Engine.DeleteBatch(r.Context(), ledger.BatchID(id)); err != nil {
		writeDomainError(w, "Failed to delete batch", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeBatchInput(w http.ResponseWriter, r *http.Request) (ledger.BatchInput, bool) {
	var req AddBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return ledger.BatchInput{}, false
	}

	cost, err := decimal.NewFromString(req.UnitCost)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid unit_cost", err)
		return ledger.BatchInput{}, false
	}
	acquiredAt, err := time.Parse(dateLayout, req.AcquiredAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid acquired_at format (use YYYY-MM-DD)", err)
		return ledger.BatchInput{}, false
	}

	return ledger.BatchInput{
		ProductID:  ledger.ProductID(req.ProductID),
		UnitID:     ledger.UnitID(req.UnitID),
		Quantity:   req.Quantity,
		UnitCost:   cost,
		AcquiredAt: acquiredAt,
	}, true
}

func toBatchDTO(b ledger.Batch) BatchDTO {
	return BatchDTO{
		ID:         int64(b.ID),
		ProductID:  int64(b.ProductID),
		UnitID:     int64(b.UnitID),
		UnitCost:   b.UnitCost.String(),
		Original:   b.Original,
		Remaining:  b.Remaining,
		AcquiredAt: b.AcquiredAt.Format(dateLayout),
	}
}

// =============================================================================
// STOCK HANDLERS
// =============================================================================

// GetStock returns the current-inventory view with low-stock flags.
func (h *Handler) GetStock(w http.ResponseWriter, r *http.Request) {
	levels, err := h.Engine.ListStock(r.Context())
	if err != nil {
		writeDomainError(w, "Failed to list stock", err)
		return
	}

	dtos := make([]StockDTO, len(levels))
	for i, l := range levels {
		dtos[i] = StockDTO{
			ProductID: int64(l.ProductID),
			OnHand:    l.OnHand,
			LowStock:  l.OnHand < LowStockThreshold,
		}
		if name, err := h.Catalog.Resolve(r.Context(), l.ProductID); err == nil {
			dtos[i].Product = name
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetProductStock returns the on-hand quantity for one product.
func (h *Handler) GetProductStock(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	productID := ledger.ProductID(id)

	onHand, err := h.Engine.CurrentStock(r.Context(), productID)
	if err != nil {
		writeDomainError(w, "Failed to get stock", err)
		return
	}

	dto := StockDTO{ProductID: id, OnHand: onHand, LowStock: onHand < LowStockThreshold}
	if name, err := h.Catalog.Resolve(r.Context(), productID); err == nil {
		dto.Product = name
	}
	writeJSON(w, http.StatusOK, dto)
}

// =============================================================================
// CATALOG HANDLERS
// =============================================================================

// ListProducts returns picker entries with resolved display names.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Catalog.Products(r.Context())
	if err != nil {
		writeDomainError(w, "Failed to list products", err)
		return
	}

	dtos := make([]ProductDTO, len(entries))
	for i, e := range entries {
		dtos[i] = ProductDTO{ID: int64(e.ID), Display: e.Display}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateProduct creates a product, reusing existing brand/description/
// category rows by name.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	p, err := h.Catalog.CreateProduct(r.Context(), req.Name, req.Brand, req.Description, req.Category)
	if err != nil {
		writeDomainError(w, "Failed to create product", err)
		return
	}
	display := catalog.DisplayName(req.Name, req.Brand, req.Description)
	writeJSON(w, http.StatusCreated, ProductDTO{ID: int64(p.ID), Display: display})
}

// DeleteProduct removes a product with no ledger history.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.Catalog.DeleteProduct(r.Context(), ledger.ProductID(id)); err != nil {
		writeDomainError(w, "Failed to delete product", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListUnits returns all units of measurement.
func (h *Handler) ListUnits(w http.ResponseWriter, r *http.Request) {
	units, err := h.Catalog.Units(r.Context())
	if err != nil {
		writeDomainError(w, "Failed to list units", err)
		return
	}

	dtos := make([]UnitDTO, len(units))
	for i, u := range units {
		dtos[i] = UnitDTO{ID: int64(u.ID), Name: u.Name}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateUnit registers a unit of measurement (get-or-create by name).
func (h *Handler) CreateUnit(w http.ResponseWriter, r *http.Request) {
	var req CreateUnitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	id, err := h.Catalog.Unit(r.Context(), req.Name)
	if err != nil {
		writeDomainError(w, "Failed to create unit", err)
		return
	}
	writeJSON(w, http.StatusCreated, UnitDTO{ID: int64(id), Name: req.Name})
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// ProfitReport returns revenue vs captured cost of goods over [from, to].
func (h *Handler) ProfitReport(w http.ResponseWriter, r *http.Request) {
	from, err := time.Parse(dateLayout, r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid from date (use YYYY-MM-DD)", err)
		return
	}
	to, err := time.Parse(dateLayout, r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid to date (use YYYY-MM-DD)", err)
		return
	}
	// Inclusive end date: run to the last instant of the day.
	to = to.Add(24*time.Hour - time.Nanosecond)

	report, err := h.Engine.Profit(r.Context(), from, to)
	if err != nil {
		writeDomainError(w, "Failed to compute profit report", err)
		return
	}

	writeJSON(w, http.StatusOK, ProfitReportDTO{
		From:        report.From.Format(dateLayout),
		To:          report.To.Format(dateLayout),
		SaleCount:   report.SaleCount,
		Revenue:     report.Revenue.String(),
		CostOfGoods: report.CostOfGoods.String(),
		GrossProfit: report.GrossProfit.String(),
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id", err)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps ledger errors to HTTP status codes.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case ledger.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, ledger.ErrInsufficientStock),
		errors.Is(err, ledger.ErrBatchOverAllocated),
		errors.Is(err, ledger.ErrBatchHasAllocations):
		writeError(w, http.StatusConflict, message, err)
	case ledger.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	case ledger.IsRetryable(err):
		writeError(w, http.StatusServiceUnavailable, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
