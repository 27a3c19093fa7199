package domain

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderPaid       OrderStatus = "paid"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderPreparing  OrderStatus = "preparing"
	OrderReady      OrderStatus = "ready"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
	OrderFailed     OrderStatus = "failed"
)

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderProcessing, OrderPaid, OrderConfirmed, OrderPreparing,
		OrderReady, OrderShipped, OrderDelivered, OrderCompleted, OrderCancelled, OrderFailed:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderCompleted, OrderDelivered, OrderCancelled, OrderFailed:
		return true
	}
	return false
}

// Revenue reports whether the order counts towards sales figures.
func (s OrderStatus) Revenue() bool {
	return s != OrderCancelled && s != OrderFailed && s != ""
}

// OrderItem is one line of an order.
type OrderItem struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Size        string  `json:"size,omitempty"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
}

// Subtotal is quantity × unit price.
func (i OrderItem) Subtotal() float64 {
	return float64(i.Quantity) * i.Price
}

// Order is a customer purchase.
type Order struct {
	Meta
	CustomerID    string      `json:"customerId"`
	CustomerName  string      `json:"customerName,omitempty"`
	Items         []OrderItem `json:"items"`
	Total         float64     `json:"total"`
	Status        OrderStatus `json:"status"`
	PaymentMethod string      `json:"paymentMethod,omitempty"`
	Notes         string      `json:"notes,omitempty"`
}

// OrderTotal sums item subtotals.
func OrderTotal(items []OrderItem) float64 {
	var total float64
	for _, it := range items {
		total += it.Subtotal()
	}
	return total
}

// CreateOrderRequest is the body for POST /v1/orders.
type CreateOrderRequest struct {
	CustomerID    string      `json:"customerId"`
	CustomerName  string      `json:"customerName,omitempty"`
	Items         []OrderItem `json:"items"`
	PaymentMethod string      `json:"paymentMethod,omitempty"`
	Notes         string      `json:"notes,omitempty"`
}

// UpdateOrderStatusRequest is the body for PUT /v1/orders/{id}/status.
type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status"`
}
