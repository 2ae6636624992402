package product

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/luigy23/BackComandapp/internal/apperr"
	"github.com/luigy23/BackComandapp/internal/web"
)

// Store is the persistence surface the handlers need. Lookups return nil
// without error when no record exists.
type Store interface {
	List(ctx context.Context, filter Filter) ([]Product, error)
	Get(ctx context.Context, id string) (*Product, error)
	// GetByNameInCategory enforces name-within-category uniqueness;
	// excludeID skips the record being updated.
	GetByNameInCategory(ctx context.Context, name, categoryID, excludeID string) (*Product, error)
	Create(ctx context.Context, input ProductInput) (Product, error)
	Update(ctx context.Context, id string, input ProductInput) (Product, error)
	Delete(ctx context.Context, id string) error
	SetStatus(ctx context.Context, id, status string) (Product, error)
	// HasOrderItems reports whether any historical order item references
	// the product.
	HasOrderItems(ctx context.Context, productID string) (bool, error)
}

type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := Filter{
		CategoryID: strings.TrimSpace(r.URL.Query().Get("category_id")),
		Status:     strings.TrimSpace(r.URL.Query().Get("status")),
		Search:     strings.TrimSpace(r.URL.Query().Get("search")),
	}
	if filter.Status != "" && !ValidStatus(filter.Status) {
		web.WriteAppError(w, apperr.New(apperr.KindValidation, "status must be ACTIVE, INACTIVE or OUT_OF_STOCK"))
		return
	}

	products, err := h.store.List(r.Context(), filter)
	if err != nil {
		web.WriteAppError(w, err)
		return
	}

	web.WriteJSON(w, http.StatusOK, products)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	found, err := h.store.Get(r.Context(), id)
	if err != nil {
		web.WriteAppError(w, err)
		return
	}
	if found == nil {
		web.WriteAppError(w, apperr.New(apperr.KindNotFound, "product not found"))
		return
	}

	web.WriteJSON(w, http.StatusOK, found)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	input, ok := parseInput(w, r)
	if !ok {
		return
	}

	existing, err := h.store.GetByNameInCategory(r.Context(), input.Name, input.CategoryID, "")
	if err != nil {
		web.WriteAppError(w, err)
		return
	}
	if existing != nil {
		web.WriteAppError(w, apperr.New(apperr.KindDuplicate, "a product with that name already exists in this category"))
		return
	}

	// The initial status follows the stock when none is given.
	if input.Status == "" {
		input.Status = StatusActive
		if input.Stock != nil && *input.Stock <= 0 {
			input.Status = StatusOutOfStock
		}
	}

	created, err := h.store.Create(r.Context(), input)
	if err != nil {
		web.WriteAppError(w, err)
		return
	}

	web.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	input, ok := parseInput(w, r)
	if !ok {
		return
	}

	existing, err := h.store.Get(r.Context(), id)
	if err != nil {
		web.WriteAppError(w, err)
		return
	}
	if existing == nil {
		web.WriteAppError(w, apperr.New(apperr.KindNotFound, "product not found"))
		return
	}

	if input.Name != existing.Name || input.CategoryID != existing.CategoryID {
		other, err := h.store.GetByNameInCategory(r.Context(), input.Name, input.CategoryID, id)
		if err != nil {
			web.WriteAppError(w, err)
			return
		}
		if other != nil {
			web.WriteAppError(w, apperr.New(apperr.KindDuplicate, "a product with that name already exists in this category"))
			return
		}
	}

	// Deactivating a product that appears on past orders is vetoed; those
	// orders must keep resolving to a sellable history.
	if input.Status == StatusInactive && existing.Status == StatusActive {
		hasOrders, err := h.store.HasOrderItems(r.Context(), id)
		if err != nil {
			web.WriteAppError(w, err)
			return
		}
		if hasOrders {
			web.WriteAppError(w, apperr.New(apperr.KindConflict, "cannot deactivate a product with historical orders"))
			return
		}
	}

	if input.Status == "" {
		input.Status = existing.Status
		if input.Stock != nil {
			if *input.Stock <= 0 {
				input.Status = StatusOutOfStock
			} else if existing.Status == StatusOutOfStock {
				input.Status = StatusActive
			}
		}
	}

	updated, err := h.store.Update(r.Context(), id, input)
	if err != nil {
		web.WriteAppError(w, err)
		return
	}

	web.WriteJSON(w, http.StatusOK, updated)
}

// Delete removes a product, or degrades to marking it inactive when
// historical order items reference it.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	existing, err := h.store.Get(r.Context(), id)
	if err != nil {
		web.WriteAppError(w, err)
		return
	}
	if existing == nil {
		web.WriteAppError(w, apperr.New(apperr.KindNotFound, "product not found"))
		return
	}

	hasOrders, err := h.store.HasOrderItems(r.Context(), id)
	if err != nil {
		web.WriteAppError(w, err)
		return
	}
	if hasOrders {
		updated, err := h.store.SetStatus(r.Context(), id, StatusInactive)
		if err != nil {
			web.WriteAppError(w, err)
			return
		}

		web.WriteJSON(w, http.StatusOK, map[string]any{
			"message": "product marked as inactive due to historical orders",
			"product": updated,
		})
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		web.WriteAppError(w, err)
		return
	}

	web.WriteJSON(w, http.StatusOK, map[string]string{"message": "product deleted"})
}

func parseID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		web.WriteAppError(w, apperr.New(apperr.KindValidation, "invalid product id"))
		return "", false
	}
	return id, true
}

func parseInput(w http.ResponseWriter, r *http.Request) (ProductInput, bool) {
	var input ProductInput
	if err := web.DecodeJSON(w, r, &input); err != nil {
		web.WriteAppError(w, err)
		return ProductInput{}, false
	}

	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)
	input.ImageURL = strings.TrimSpace(input.ImageURL)

	if input.Name == "" {
		web.WriteAppError(w, apperr.New(apperr.KindValidation, "name is required"))
		return ProductInput{}, false
	}
	if len(input.Name) > 150 {
		web.WriteAppError(w, apperr.New(apperr.KindValidation, "name is too long"))
		return ProductInput{}, false
	}
	if input.Price <= 0 {
		web.WriteAppError(w, apperr.New(apperr.KindValidation, "price must be a positive value"))
		return ProductInput{}, false
	}
	if _, err := uuid.Parse(input.CategoryID); err != nil {
		web.WriteAppError(w, apperr.New(apperr.KindValidation, "invalid category id"))
		return ProductInput{}, false
	}
	if input.Status != "" && !ValidStatus(input.Status) {
		web.WriteAppError(w, apperr.New(apperr.KindValidation, "status must be ACTIVE, INACTIVE or OUT_OF_STOCK"))
		return ProductInput{}, false
	}
	if len(input.ImageURL) > 500 {
		web.WriteAppError(w, apperr.New(apperr.KindValidation, "image_url is too long"))
		return ProductInput{}, false
	}

	return input, true
}
