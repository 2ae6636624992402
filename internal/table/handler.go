package table

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
	List(ctx context.Context, categoryID string) ([]Table, error)
	Get(ctx context.Context, id string) (*Table, error)
	GetByNumber(ctx context.Context, number int) (*Table, error)
	Create(ctx context.Context, input TableInput) (Table, error)
	Update(ctx context.Context, id string, input TableInput) (Table, error)
	Delete(ctx context.Context, id string) error
	// HasOpenOrder reports whether an order in OPEN status references the table.
	HasOpenOrder(ctx context.Context, tableID string) (bool, error)
}

type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	tables, err := h.store.List(r.Context(), strings.TrimSpace(r.URL.Query().Get("category_id")))
	if err != nil {
		web.WriteAppError(w, err)
		return
	}

	web.WriteJSON(w, http.StatusOK, tables)
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
		web.WriteAppError(w, apperr.New(apperr.KindNotFound, "table not found"))
		return
	}

	web.WriteJSON(w, http.StatusOK, found)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	input, ok := parseInput(w, r)
	if !ok {
		return
	}
	if input.Status == "" {
		input.Status = StatusAvailable
	}

	existing, err := h.store.GetByNumber(r.Context(), input.Number)
	if err != nil {
		web.WriteAppError(w, err)
		return
	}
	if existing != nil {
		web.WriteAppError(w, apperr.New(apperr.KindDuplicate, "a table with that number already exists"))
		return
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
		web.WriteAppError(w, apperr.New(apperr.KindNotFound, "table not found"))
		return
	}

	if input.Status == "" {
		input.Status = existing.Status
	}

	// The uniqueness check excludes the table's own number.
	if input.Number != existing.Number {
		other, err := h.store.GetByNumber(r.Context(), input.Number)
		if err != nil {
			web.WriteAppError(w, err)
			return
		}
		if other != nil && other.ID != id {
			web.WriteAppError(w, apperr.New(apperr.KindDuplicate, "a table with that number already exists"))
			return
		}
	}

	if input.Status != existing.Status {
		hasOpen, err := h.store.HasOpenOrder(r.Context(), id)
		if err != nil {
			web.WriteAppError(w, err)
			return
		}
		if hasOpen {
			web.WriteAppError(w, apperr.New(apperr.KindConflict, "cannot change the status of a table with open orders"))
			return
		}
	}

	updated, err := h.store.Update(r.Context(), id, input)
	if err != nil {
		web.WriteAppError(w, err)
		return
	}

	web.WriteJSON(w, http.StatusOK, updated)
}

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
		web.WriteAppError(w, apperr.New(apperr.KindNotFound, "table not found"))
		return
	}

	if existing.Status == StatusOccupied || existing.Status == StatusBillPending {
		web.WriteAppError(w, apperr.New(apperr.KindConflict, "cannot delete a table that is occupied or waiting for the bill"))
		return
	}

	hasOpen, err := h.store.HasOpenOrder(r.Context(), id)
	if err != nil {
		web.WriteAppError(w, err)
		return
	}
	if hasOpen {
		web.WriteAppError(w, apperr.New(apperr.KindConflict, "cannot delete a table with open orders"))
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		web.WriteAppError(w, err)
		return
	}

	web.WriteJSON(w, http.StatusOK, map[string]string{"message": "table deleted"})
}

func parseID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		web.WriteAppError(w, apperr.New(apperr.KindValidation, "invalid table id"))
		return "", false
	}
	return id, true
}

func parseInput(w http.ResponseWriter, r *http.Request) (TableInput, bool) {
	var input TableInput
	if err := web.DecodeJSON(w, r, &input); err != nil {
		web.WriteAppError(w, err)
		return TableInput{}, false
	}

	input.Description = strings.TrimSpace(input.Description)

	if input.Number <= 0 {
		web.WriteAppError(w, apperr.New(apperr.KindValidation, "number must be a positive integer"))
		return TableInput{}, false
	}
	if input.Capacity <= 0 {
		web.WriteAppError(w, apperr.New(apperr.KindValidation, "capacity must be a positive integer"))
		return TableInput{}, false
	}
	if input.Status != "" && !ValidStatus(input.Status) {
		web.WriteAppError(w, apperr.New(apperr.KindValidation, "status must be AVAILABLE, OCCUPIED, BILL_PENDING or RESERVED"))
		return TableInput{}, false
	}
	if input.CategoryID != nil {
		if _, err := uuid.Parse(*input.CategoryID); err != nil {
			web.WriteAppError(w, apperr.New(apperr.KindValidation, "invalid category id"))
			return TableInput{}, false
		}
	}

	return input, true
}
