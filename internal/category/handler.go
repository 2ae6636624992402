package category

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
	List(ctx context.Context, includeInactive bool) ([]Category, error)
	Get(ctx context.Context, id string) (*Category, error)
	GetByName(ctx context.Context, name string) (*Category, error)
	Create(ctx context.Context, input CategoryInput) (Category, error)
	Update(ctx context.Context, id string, input CategoryInput) (Category, error)
	Delete(ctx context.Context, id string) error
	SetStatus(ctx context.Context, id, status string) (Category, error)
	CountProducts(ctx context.Context, categoryID string) (int, error)
}

type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	includeInactive := r.URL.Query().Get("include_inactive") != ""

	categories, err := h.store.List(r.Context(), includeInactive)
	if err != nil {
		web.WriteAppError(w, err)
		return
	}

	web.WriteJSON(w, http.StatusOK, categories)
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
		web.WriteAppError(w, apperr.New(apperr.KindNotFound, "category not found"))
		return
	}

	web.WriteJSON(w, http.StatusOK, found)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	input, ok := parseInput(w, r)
	if !ok {
		return
	}
	input.Status = StatusActive

	existing, err := h.store.GetByName(r.Context(), input.Name)
	if err != nil {
		web.WriteAppError(w, err)
		return
	}
	if existing != nil {
		web.WriteAppError(w, apperr.New(apperr.KindDuplicate, "a category with that name already exists"))
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
		web.WriteAppError(w, apperr.New(apperr.KindNotFound, "category not found"))
		return
	}

	if input.Status == "" {
		input.Status = existing.Status
	}

	// The uniqueness check excludes the category's own name.
	if input.Name != existing.Name {
		other, err := h.store.GetByName(r.Context(), input.Name)
		if err != nil {
			web.WriteAppError(w, err)
			return
		}
		if other != nil && other.ID != id {
			web.WriteAppError(w, apperr.New(apperr.KindDuplicate, "a category with that name already exists"))
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

// Delete removes a category, or marks it inactive instead when products
// still reference it.
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
		web.WriteAppError(w, apperr.New(apperr.KindNotFound, "category not found"))
		return
	}

	count, err := h.store.CountProducts(r.Context(), id)
	if err != nil {
		web.WriteAppError(w, err)
		return
	}
	if count > 0 {
		updated, err := h.store.SetStatus(r.Context(), id, StatusInactive)
		if err != nil {
			web.WriteAppError(w, err)
			return
		}

		web.WriteJSON(w, http.StatusOK, map[string]any{
			"message":  "category marked as inactive because it has associated products",
			"category": updated,
		})
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		web.WriteAppError(w, err)
		return
	}

	web.WriteJSON(w, http.StatusOK, map[string]string{"message": "category deleted"})
}

func parseID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		web.WriteAppError(w, apperr.New(apperr.KindValidation, "invalid category id"))
		return "", false
	}
	return id, true
}

func parseInput(w http.ResponseWriter, r *http.Request) (CategoryInput, bool) {
	var input CategoryInput
	if err := web.DecodeJSON(w, r, &input); err != nil {
		web.WriteAppError(w, err)
		return CategoryInput{}, false
	}

	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)

	if input.Name == "" {
		web.WriteAppError(w, apperr.New(apperr.KindValidation, "name is required"))
		return CategoryInput{}, false
	}
	if len(input.Name) > 100 {
		web.WriteAppError(w, apperr.New(apperr.KindValidation, "name is too long"))
		return CategoryInput{}, false
	}
	if input.Status != "" && input.Status != StatusActive && input.Status != StatusInactive {
		web.WriteAppError(w, apperr.New(apperr.KindValidation, "status must be ACTIVE or INACTIVE"))
		return CategoryInput{}, false
	}

	return input, true
}
