package table

import "time"

const (
	StatusAvailable   = "AVAILABLE"
	StatusOccupied    = "OCCUPIED"
	StatusBillPending = "BILL_PENDING"
	StatusReserved    = "RESERVED"
)

func ValidStatus(status string) bool {
	switch status {
	case StatusAvailable, StatusOccupied, StatusBillPending, StatusReserved:
		return true
	default:
		return false
	}
}

type Table struct {
	ID          string    `json:"id"`
	Number      int       `json:"number"`
	Description string    `json:"description"`
	Capacity    int       `json:"capacity"`
	Status      string    `json:"status"`
	CategoryID  *string   `json:"category_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type TableInput struct {
	Number      int     `json:"number"`
	Description string  `json:"description"`
	Capacity    int     `json:"capacity"`
	Status      string  `json:"status"`
	CategoryID  *string `json:"category_id"`
}

type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
}
