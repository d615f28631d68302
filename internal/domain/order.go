package domain

// Order statuses reported by the backend's order history.
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// Payment modes accepted at checkout.
const (
	PaymentModeCOD    = "cod"
	PaymentModeOnline = "online"
)

// Order is one past order as returned by the backend's order history.
type Order struct {
	ID          FlexInt64   `json:"id"`
	Date        string      `json:"order_date,omitempty"`
	Status      string      `json:"status,omitempty"`
	PaymentMode string      `json:"payment_mode,omitempty"`
	Total       Paise       `json:"total,omitempty"`
	Items       []OrderItem `json:"items,omitempty"`
}

// OrderItem is one product line within a past order.
type OrderItem struct {
	ProductID FlexInt64 `json:"product_id"`
	Name      string    `json:"name,omitempty"`
	Price     Paise     `json:"price"`
	Quantity  FlexInt64 `json:"quantity"`
}

// ShippingAddress is the delivery information collected at checkout.
type ShippingAddress struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Address1 string `json:"address1"`
	Address2 string `json:"address2,omitempty"`
	City     string `json:"city"`
	Pincode  string `json:"pincode"`
}
