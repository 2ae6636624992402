package user

import "time"

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	RoleID       string    `json:"role_id"`
	Role         *Role     `json:"role,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type UserInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	RoleID   string `json:"role_id"`
}

type Role struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
}

type RoleInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

// Permissions a role may carry. Unknown values are rejected on role create.
const (
	PermManageUsers        = "MANAGE_USERS"
	PermManageRoles        = "MANAGE_ROLES"
	PermManageTables       = "MANAGE_TABLES"
	PermManageCategories   = "MANAGE_CATEGORIES"
	PermManageProducts     = "MANAGE_PRODUCTS"
	PermManageOrders       = "MANAGE_ORDERS"
	PermManageReservations = "MANAGE_RESERVATIONS"
	PermViewReports        = "VIEW_REPORTS"
	PermProcessPayments    = "PROCESS_PAYMENTS"
	PermKitchenAccess      = "KITCHEN_ACCESS"
)

var knownPermissions = map[string]bool{
	PermManageUsers:        true,
	PermManageRoles:        true,
	PermManageTables:       true,
	PermManageCategories:   true,
	PermManageProducts:     true,
	PermManageOrders:       true,
	PermManageReservations: true,
	PermViewReports:        true,
	PermProcessPayments:    true,
	PermKitchenAccess:      true,
}

func ValidPermission(permission string) bool {
	return knownPermissions[permission]
}

// AllPermissions returns every assignable permission in a stable order.
func AllPermissions() []string {
	return []string{
		PermManageUsers,
		PermManageRoles,
		PermManageTables,
		PermManageCategories,
		PermManageProducts,
		PermManageOrders,
		PermManageReservations,
		PermViewReports,
		PermProcessPayments,
		PermKitchenAccess,
	}
}
