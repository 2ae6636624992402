package product

import "time"

const (
	StatusActive     = "ACTIVE"
	StatusInactive   = "INACTIVE"
	StatusOutOfStock = "OUT_OF_STOCK"
)

func ValidStatus(status string) bool {
	switch status {
	case StatusActive, StatusInactive, StatusOutOfStock:
		return true
	default:
		return false
	}
}

type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	CategoryID  string    `json:"category_id"`
	Stock       *int      `json:"stock"`
	ImageURL    string    `json:"image_url"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ProductInput struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	CategoryID  string  `json:"category_id"`
	Stock       *int    `json:"stock"`
	ImageURL    string  `json:"image_url"`
	Status      string  `json:"status"`
}

// Filter narrows product listings.
type Filter struct {
	CategoryID string
	Status     string
	Search     string
}
