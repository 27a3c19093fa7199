package domain

// ============================================================
// Inventory
// ============================================================

// StockStatus is derived from stock levels on every write.
type StockStatus string

const (
	StockInStock    StockStatus = "in_stock"
	StockLow        StockStatus = "low_stock"
	StockOutOfStock StockStatus = "out_of_stock"
)

// StockLevel is the stock of one size of a product.
type StockLevel struct {
	Size         string  `json:"size"`
	CurrentStock int     `json:"currentStock"`
	MinStock     int     `json:"minStock"`
	MaxStock     int     `json:"maxStock"`
	ReorderPoint int     `json:"reorderPoint"`
	Cost         float64 `json:"cost"`
}

// InventoryItem tracks the stock of one product.
type InventoryItem struct {
	Meta
	ProductID     string       `json:"productId"`
	ProductName   string       `json:"productName"`
	StockLevels   []StockLevel `json:"stockLevels"`
	TotalStock    int          `json:"totalStock"`
	TotalValue    float64      `json:"totalValue"`
	Status        StockStatus  `json:"status"`
	LastRestocked Timestamp    `json:"lastRestocked"`
}

// StockTotals returns Σ currentStock and Σ currentStock × cost.
func StockTotals(levels []StockLevel) (int, float64) {
	var stock int
	var value float64
	for _, l := range levels {
		stock += l.CurrentStock
		value += float64(l.CurrentStock) * l.Cost
	}
	return stock, value
}

// DeriveStockStatus computes the inventory status from its levels.
// out_of_stock iff total stock is zero; low_stock when any level is at or
// below its reorder point.
func DeriveStockStatus(levels []StockLevel) StockStatus {
	total, _ := StockTotals(levels)
	if total <= 0 {
		return StockOutOfStock
	}
	for _, l := range levels {
		if l.CurrentStock <= l.ReorderPoint {
			return StockLow
		}
	}
	return StockInStock
}

// Recompute refreshes the derived fields. Idempotent.
func (i *InventoryItem) Recompute() {
	i.TotalStock, i.TotalValue = StockTotals(i.StockLevels)
	i.Status = DeriveStockStatus(i.StockLevels)
}

// Level returns the level for size, or nil.
func (i *InventoryItem) Level(size string) *StockLevel {
	for idx := range i.StockLevels {
		if i.StockLevels[idx].Size == size {
			return &i.StockLevels[idx]
		}
	}
	return nil
}

// CreateInventoryRequest is the body for POST /v1/inventory.
type CreateInventoryRequest struct {
	ProductID   string       `json:"productId"`
	ProductName string       `json:"productName"`
	StockLevels []StockLevel `json:"stockLevels"`
}

// UpdateLevelsRequest is the body for PUT /v1/inventory/{id}/levels.
type UpdateLevelsRequest struct {
	StockLevels []StockLevel `json:"stockLevels"`
}

// SetStockLevelRequest is the body for PUT /v1/inventory/{id}/levels/{size}.
type SetStockLevelRequest struct {
	CurrentStock *int `json:"currentStock"`
}

// AdjustStockRequest is the body for POST /v1/inventory/{id}/adjust.
type AdjustStockRequest struct {
	Size     string       `json:"size"`
	Type     MovementType `json:"type"`
	Quantity int          `json:"quantity"`
	Reason   string       `json:"reason,omitempty"`
}

// AdjustStockResult reports the outcome of an adjustment.
type AdjustStockResult struct {
	Item     *InventoryItem `json:"item"`
	Movement *StockMovement `json:"movement"`
	Alert    *StockAlert    `json:"alert,omitempty"`
}
