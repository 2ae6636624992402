package order

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/luigy23/BackComandapp/internal/apperr"
	"github.com/luigy23/BackComandapp/internal/auth"
	"github.com/luigy23/BackComandapp/internal/web"
)

// Store is the persistence surface the handlers need. Create and Delete run
// transactionally together with the table status change.
type Store interface {
	Create(ctx context.Context, waiterID string, input CreateInput) (Order, error)
	List(ctx context.Context) ([]Order, error)
	Get(ctx context.Context, id string) (*Order, error)
	ListByTable(ctx context.Context, tableID string) ([]Order, error)
	ListByStatus(ctx context.Context, status string) ([]Order, error)
	ListByWaiter(ctx context.Context, waiterID string) ([]Order, error)
	// CurrentForTable returns nil without error when the table has no
	// open order.
	CurrentForTable(ctx context.Context, tableID string) (*Order, error)
	UpdateStatus(ctx context.Context, id, status string) (Order, error)
	// UpdateItem returns nil without error when the item does not belong
	// to the order.
	UpdateItem(ctx context.Context, orderID string, item ItemUpdate) (*Item, error)
	UpdateItemStatus(ctx context.Context, orderID, itemID, status string) (*Item, error)
	Delete(ctx context.Context, id string) error
	// GetTableStatus returns "" without error when the table does not exist.
	GetTableStatus(ctx context.Context, tableID string) (string, error)
	// GetProductStatus returns "" without error when the product does not exist.
	GetProductStatus(ctx context.Context, productID string) (string, error)
}

// Notifier receives orders that still have pending items, e.g. a kitchen
// display. The default implementation only logs.
type Notifier interface {
	OrderPlaced(order Order)
	OrderUpdated(order Order)
}

type Handler struct {
	store    Store
	notifier Notifier
}

func NewHandler(store Store, notifier Notifier) *Handler {
	return &Handler{store: store, notifier: notifier}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFrom(r.Context())
	if !ok {
		web.WriteError(w, http.StatusUnauthorized, "missing authorization token")
		return
	}

	var input CreateInput
	if err := web.DecodeJSON(w, r, &input); err != nil {
		web.WriteAppError(w, err)
		return
	}
	if err := validateCreateInput(input); err != nil {
		web.WriteAppError(w, err)
		return
	}

	// The table must exist and be free before seating an order on it.
	tableStatus, err := h.store.GetTableStatus(r.Context(), input.TableID)
	if err != nil {
		web.WriteAppError(w, err)
		return
	}
	if tableStatus == "" {
		web.WriteAppError(w, apperr.New(apperr.KindNotFound, "table not found"))
		return
	}
	if tableStatus != "AVAILABLE" {
		web.WriteAppError(w, apperr.New(apperr.KindConflict, "the table is not available"))
		return
	}

	for _, item := range input.Items {
		productStatus, err := h.store.GetProductStatus(r.Context(), item.ProductID)
		if err != nil {
			web.WriteAppError(w, err)
			return
		}
		if productStatus == "" {
			web.WriteAppError(w, apperr.Newf(apperr.KindNotFound, "product %s not found", item.ProductID))
			return
		}
		if productStatus != "ACTIVE" {
			web.WriteAppError(w, apperr.Newf(apperr.KindConflict, "product %s is not active", item.ProductID))
			return
		}
	}

	created, err := h.store.Create(r.Context(), claims.UserID, input)
	if err != nil {
		web.WriteAppError(w, err)
		return
	}

	if h.notifier != nil {
		h.notifier.OrderPlaced(created)
	}

	web.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.store.List(r.Context())
	if err != nil {
		web.WriteAppError(w, err)
		return
	}

	web.WriteJSON(w, http.StatusOK, orders)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	found, err := h.store.Get(r.Context(), id)
	if err != nil {
		web.WriteAppError(w, err)
		return
	}
	if found == nil {
		web.WriteAppError(w, apperr.New(apperr.KindNotFound, "order not found"))
		return
	}

	web.WriteJSON(w, http.StatusOK, found)
}

func (h *Handler) ListByTable(w http.ResponseWriter, r *http.Request) {
	tableID, ok := parseID(w, r, "tableId")
	if !ok {
		return
	}

	orders, err := h.store.ListByTable(r.Context(), tableID)
	if err != nil {
		web.WriteAppError(w, err)
		return
	}

	web.WriteJSON(w, http.StatusOK, orders)
}

func (h *Handler) ListByWaiter(w http.ResponseWriter, r *http.Request) {
	waiterID, ok := parseID(w, r, "waiterId")
	if !ok {
		return
	}

	orders, err := h.store.ListByWaiter(r.Context(), waiterID)
	if err != nil {
		web.WriteAppError(w, err)
		return
	}

	web.WriteJSON(w, http.StatusOK, orders)
}

// CurrentForTable serves the open order seated on a table, the one the
// table guards care about.
func (h *Handler) CurrentForTable(w http.ResponseWriter, r *http.Request) {
	tableID, ok := parseID(w, r, "tableId")
	if !ok {
		return
	}

	current, err := h.store.CurrentForTable(r.Context(), tableID)
	if err != nil {
		web.WriteAppError(w, err)
		return
	}
	if current == nil {
		web.WriteAppError(w, apperr.New(apperr.KindNotFound, "the table has no open order"))
		return
	}

	web.WriteJSON(w, http.StatusOK, current)
}

func (h *Handler) ListByStatus(w http.ResponseWriter, r *http.Request) {
	status := r.PathValue("status")
	if !ValidStatus(status) {
		web.WriteAppError(w, apperr.New(apperr.KindValidation, "unknown order status"))
		return
	}

	orders, err := h.store.ListByStatus(r.Context(), status)
	if err != nil {
		web.WriteAppError(w, err)
		return
	}

	web.WriteJSON(w, http.StatusOK, orders)
}

type updateRequest struct {
	Status string       `json:"status"`
	Items  []ItemUpdate `json:"items"`
}

// Update changes the order status and, optionally, rewrites individual
// items in the same operation. The kitchen is notified again while any
// item is still pending.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	var body updateRequest
	if err := web.DecodeJSON(w, r, &body); err != nil {
		web.WriteAppError(w, err)
		return
	}
	if !ValidStatus(body.Status) {
		web.WriteAppError(w, apperr.New(apperr.KindValidation, "unknown order status"))
		return
	}
	for _, item := range body.Items {
		if _, err := uuid.Parse(item.ID); err != nil {
			web.WriteAppError(w, apperr.New(apperr.KindValidation, "invalid item id"))
			return
		}
		if item.Quantity <= 0 {
			web.WriteAppError(w, apperr.New(apperr.KindValidation, "item quantity must be a positive integer"))
			return
		}
		if item.UnitPrice <= 0 {
			web.WriteAppError(w, apperr.New(apperr.KindValidation, "item unit price must be a positive value"))
			return
		}
		if item.Status != "" && !ValidItemStatus(item.Status) {
			web.WriteAppError(w, apperr.New(apperr.KindValidation, "unknown item status"))
			return
		}
	}

	existing, err := h.store.Get(r.Context(), id)
	if err != nil {
		web.WriteAppError(w, err)
		return
	}
	if existing == nil {
		web.WriteAppError(w, apperr.New(apperr.KindNotFound, "order not found"))
		return
	}

	for _, item := range body.Items {
		updated, err := h.store.UpdateItem(r.Context(), id, item)
		if err != nil {
			web.WriteAppError(w, err)
			return
		}
		if updated == nil {
			web.WriteAppError(w, apperr.New(apperr.KindNotFound, "order item not found"))
			return
		}
	}

	updated, err := h.store.UpdateStatus(r.Context(), id, body.Status)
	if err != nil {
		web.WriteAppError(w, err)
		return
	}

	if h.notifier != nil && hasPendingItems(updated.Items) {
		h.notifier.OrderUpdated(updated)
	}

	web.WriteJSON(w, http.StatusOK, updated)
}

func hasPendingItems(items []Item) bool {
	for _, item := range items {
		if item.Status == ItemStatusPending {
			return true
		}
	}
	return false
}

type updateItemRequest struct {
	Status string `json:"status"`
}

func (h *Handler) UpdateItemStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseID(w, r, "orderId")
	if !ok {
		return
	}
	itemID, ok := parseID(w, r, "itemId")
	if !ok {
		return
	}

	var body updateItemRequest
	if err := web.DecodeJSON(w, r, &body); err != nil {
		web.WriteAppError(w, err)
		return
	}
	if !ValidItemStatus(body.Status) {
		web.WriteAppError(w, apperr.New(apperr.KindValidation, "unknown item status"))
		return
	}

	item, err := h.store.UpdateItemStatus(r.Context(), orderID, itemID, body.Status)
	if err != nil {
		web.WriteAppError(w, err)
		return
	}
	if item == nil {
		web.WriteAppError(w, apperr.New(apperr.KindNotFound, "order item not found"))
		return
	}

	web.WriteJSON(w, http.StatusOK, item)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	existing, err := h.store.Get(r.Context(), id)
	if err != nil {
		web.WriteAppError(w, err)
		return
	}
	if existing == nil {
		web.WriteAppError(w, apperr.New(apperr.KindNotFound, "order not found"))
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		web.WriteAppError(w, err)
		return
	}

	web.WriteJSON(w, http.StatusOK, map[string]string{"message": "order deleted"})
}

func parseID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id := r.PathValue(name)
	if _, err := uuid.Parse(id); err != nil {
		web.WriteAppError(w, apperr.Newf(apperr.KindValidation, "invalid %s", name))
		return "", false
	}
	return id, true
}

func validateCreateInput(input CreateInput) error {
	if _, err := uuid.Parse(input.TableID); err != nil {
		return apperr.New(apperr.KindValidation, "invalid table id")
	}
	if len(input.Items) == 0 {
		return apperr.New(apperr.KindValidation, "order must contain at least one item")
	}
	for _, item := range input.Items {
		if _, err := uuid.Parse(item.ProductID); err != nil {
			return apperr.New(apperr.KindValidation, "invalid product id")
		}
		if item.Quantity <= 0 {
			return apperr.New(apperr.KindValidation, "item quantity must be a positive integer")
		}
		if item.UnitPrice <= 0 {
			return apperr.New(apperr.KindValidation, "item unit price must be a positive value")
		}
		if len(strings.TrimSpace(item.Notes)) > 500 {
			return apperr.New(apperr.KindValidation, "item notes are too long")
		}
	}
	return nil
}
