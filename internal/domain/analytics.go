package domain

// ============================================================
// Sales analytics
// ============================================================

// SalesSummary aggregates orders over a period.
type SalesSummary struct {
	From              string              `json:"from"`
	To                string              `json:"to"`
	Revenue           float64             `json:"revenue"`
	OrderCount        int                 `json:"orderCount"`
	AverageOrderValue float64             `json:"averageOrderValue"`
	StatusBreakdown   map[OrderStatus]int `json:"statusBreakdown"`
	Daily             []DailySales        `json:"daily"`
	TopProducts       []ProductSales      `json:"topProducts"`
}

// DailySales is one point of the revenue series.
type DailySales struct {
	Date    string  `json:"date"` // YYYY-MM-DD
	Revenue float64 `json:"revenue"`
	Orders  int     `json:"orders"`
}

// ProductSales ranks products by revenue.
type ProductSales struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	Revenue     float64 `json:"revenue"`
}

// ============================================================
// Stock forecast
// ============================================================

// StockForecast projects stock depletion from recorded outflow.
type StockForecast struct {
	InventoryID string         `json:"inventoryId"`
	ProductID   string         `json:"productId"`
	WindowDays  int            `json:"windowDays"`
	Sizes       []SizeForecast `json:"sizes"`
}

// SizeForecast is the forecast of one stock level.
// DaysUntilStockout is -1 when there is no recorded outflow.
type SizeForecast struct {
	Size              string  `json:"size"`
	CurrentStock      int     `json:"currentStock"`
	AverageDailyUsage float64 `json:"averageDailyUsage"`
	DaysUntilStockout float64 `json:"daysUntilStockout"`
	SuggestedReorder  int     `json:"suggestedReorder"`
}

// ============================================================
// Dashboard
// ============================================================

// Dashboard is the landing page summary of the admin console.
type Dashboard struct {
	TotalUsers    int             `json:"totalUsers"`
	ActiveUsers   int             `json:"activeUsers"`
	TotalProducts int             `json:"totalProducts"`
	RecentOrders  []Order         `json:"recentOrders"`
	LowStock      []InventoryItem `json:"lowStock"`
	UnreadAlerts  int             `json:"unreadAlerts"`
	PendingOrders int             `json:"pendingOrders"`
	TodayRevenue  float64         `json:"todayRevenue"`
	GeneratedAt   Timestamp       `json:"generatedAt"`
}

// DatastoreStats is the snapshot of data layer metrics.
type DatastoreStats struct {
	Operations          []OperationStats `json:"operations"`
	CacheHitRate        float64          `json:"cacheHitRate"`
	ActiveSubscriptions int              `json:"activeSubscriptions"`
}

// OperationStats summarizes one (collection, op) pair.
type OperationStats struct {
	Collection string  `json:"collection"`
	Operation  string  `json:"operation"`
	Count      uint64  `json:"count"`
	Errors     float64 `json:"errors"`
	AvgMs      float64 `json:"avgMs"`
}
