package order

import "time"

const (
	StatusOpen       = "OPEN"
	StatusInProgress = "IN_PROGRESS"
	StatusServed     = "SERVED"
	StatusClosed     = "CLOSED"
	StatusCancelled  = "CANCELLED"
)

func ValidStatus(status string) bool {
	switch status {
	case StatusOpen, StatusInProgress, StatusServed, StatusClosed, StatusCancelled:
		return true
	default:
		return false
	}
}

const (
	ItemStatusPending   = "PENDING"
	ItemStatusPreparing = "PREPARING"
	ItemStatusReady     = "READY"
	ItemStatusDelivered = "DELIVERED"
	ItemStatusCancelled = "CANCELLED"
)

func ValidItemStatus(status string) bool {
	switch status {
	case ItemStatusPending, ItemStatusPreparing, ItemStatusReady, ItemStatusDelivered, ItemStatusCancelled:
		return true
	default:
		return false
	}
}

type Order struct {
	ID        string    `json:"id"`
	TableID   string    `json:"table_id"`
	WaiterID  string    `json:"waiter_id"`
	Status    string    `json:"status"`
	Items     []Item    `json:"items"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Item struct {
	ID        string  `json:"id"`
	OrderID   string  `json:"order_id"`
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Notes     string  `json:"notes"`
	Status    string  `json:"status"`
}

type ItemInput struct {
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Notes     string  `json:"notes"`
}

type CreateInput struct {
	TableID string      `json:"table_id"`
	Items   []ItemInput `json:"items"`
}

// ItemUpdate rewrites an existing line of an order. An empty Status keeps
// the item's current one.
type ItemUpdate struct {
	ID        string  `json:"id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Notes     string  `json:"notes"`
	Status    string  `json:"status"`
}
