package domain

// AlertType classifies a stock alert.
type AlertType string

const (
	AlertLowStock   AlertType = "low_stock"
	AlertOutOfStock AlertType = "out_of_stock"
	AlertOverstock  AlertType = "overstock"
)

// AlertSeverity ranks alerts for the dashboard.
type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "info"
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

// StockAlert is raised when a level crosses a threshold.
type StockAlert struct {
	Meta
	ProductID    string        `json:"productId"`
	ProductName  string        `json:"productName"`
	InventoryID  string        `json:"inventoryId"`
	Size         string        `json:"size"`
	Type         AlertType     `json:"type"`
	Message      string        `json:"message"`
	CurrentStock int           `json:"currentStock"`
	Threshold    int           `json:"threshold"`
	Read         bool          `json:"read"`
	Severity     AlertSeverity `json:"severity"`
}

// MovementType is the kind of stock change.
type MovementType string

const (
	MovementIn         MovementType = "in"
	MovementOut        MovementType = "out"
	MovementAdjustment MovementType = "adjustment"
	MovementTransfer   MovementType = "transfer"
)

func (m MovementType) Valid() bool {
	switch m {
	case MovementIn, MovementOut, MovementAdjustment, MovementTransfer:
		return true
	}
	return false
}

// SignedQuantity applies the sign convention of the movement type:
// in is positive, out and transfer are negative on the source, adjustment
// keeps the sign it was given.
func (m MovementType) SignedQuantity(qty int) int {
	abs := qty
	if abs < 0 {
		abs = -abs
	}
	switch m {
	case MovementIn:
		return abs
	case MovementOut, MovementTransfer:
		return -abs
	default:
		return qty
	}
}

// StockMovement is an audit record of one stock change.
type StockMovement struct {
	Meta
	ProductID     string       `json:"productId"`
	InventoryID   string       `json:"inventoryId"`
	Size          string       `json:"size"`
	Type          MovementType `json:"type"`
	Quantity      int          `json:"quantity"`
	PreviousStock int          `json:"previousStock"`
	NewStock      int          `json:"newStock"`
	Reason        string       `json:"reason,omitempty"`
	UserID        string       `json:"userId,omitempty"`
	UserEmail     string       `json:"userEmail,omitempty"`
}

// Actor identifies the admin performing a write, for audit fields.
type Actor struct {
	UserID    string
	UserEmail string
}
