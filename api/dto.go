/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY:
  Prices and costs travel as decimal strings ("12.50"), matching how
  they are stored. Quantities are integers.

DATES:
  Sale and acquisition dates use YYYY-MM-DD; server-assigned timestamps
  use RFC3339.

VALIDATION:
  Validation is done in handlers and the domain layer, not in DTOs.
  DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

// =============================================================================
// SALES
// =============================================================================

// SaleDTO represents a sale in API responses.
type SaleDTO struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"product_id"`
	Product   string          `json:"product,omitempty"`
	UnitID    int64           `json:"unit_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice string          `json:"unit_price"`
	Revenue   string          `json:"revenue"`
	SoldAt    string          `json:"sold_at"`
	Draws     []AllocationDTO `json:"draws,omitempty"`
}

// AllocationDTO shows which batch supplied part of a sale, at what cost.
type AllocationDTO struct {
	BatchID      int64  `json:"batch_id"`
	QuantityUsed int64  `json:"quantity_used"`
	UnitCost     string `json:"unit_cost"`
}

// RecordSaleRequest is the request to record or edit a sale.
type RecordSaleRequest struct {
	ProductID int64  `json:"product_id"`
	UnitID    int64  `json:"unit_id"`
	Quantity  int64  `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	SoldAt    string `json:"sold_at"`
}

// =============================================================================
// BATCHES
// =============================================================================

// BatchDTO represents a restock lot in API responses.
type BatchDTO struct {
	ID         int64  `json:"id"`
	ProductID  int64  `json:"product_id"`
	Product    string `json:"product,omitempty"`
	UnitID     int64  `json:"unit_id"`
	UnitCost   string `json:"unit_cost"`
	Original   int64  `json:"quantity_original"`
	Remaining  int64  `json:"quantity_remaining"`
	AcquiredAt string `json:"acquired_at"`
}

// AddBatchRequest is the request to add or edit a restock lot.
type AddBatchRequest struct {
	ProductID  int64  `json:"product_id"`
	UnitID     int64  `json:"unit_id"`
	Quantity   int64  `json:"quantity"`
	UnitCost   string `json:"unit_cost"`
	AcquiredAt string `json:"acquired_at"`
}

// =============================================================================
// STOCK
// =============================================================================

// StockDTO is one row of the current-inventory view.
type StockDTO struct {
	ProductID int64  `json:"product_id"`
	Product   string `json:"product,omitempty"`
	OnHand    int64  `json:"on_hand"`
	LowStock  bool   `json:"low_stock"`
}

// =============================================================================
// CATALOG
// =============================================================================

// ProductDTO represents a product in API responses.
type ProductDTO struct {
	ID      int64  `json:"id"`
	Display string `json:"display"`
}

// CreateProductRequest is the request to create a product.
type CreateProductRequest struct {
	Name        string `json:"name"`
	Brand       string `json:"brand"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// UnitDTO represents a unit of measurement.
type UnitDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CreateUnitRequest is the request to register a unit of measurement.
type CreateUnitRequest struct {
	Name string `json:"name"`
}

// =============================================================================
// REPORTS
// =============================================================================

// ProfitReportDTO summarizes revenue vs cost of goods over a period.
type ProfitReportDTO struct {
	From        string `json:"from"`
	To          string `json:"to"`
	SaleCount   int    `json:"sale_count"`
	Revenue     string `json:"revenue"`
	CostOfGoods string `json:"cost_of_goods"`
	GrossProfit string `json:"gross_profit"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
