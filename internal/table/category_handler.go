package table

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/luigy23/BackComandapp/internal/apperr"
	"github.com/luigy23/BackComandapp/internal/web"
)

// CategoryStore covers the table-category lookups and mutations.
type CategoryStore interface {
	ListCategories(ctx context.Context) ([]Category, error)
	GetCategory(ctx context.Context, id string) (*Category, error)
	GetCategoryByName(ctx context.Context, name string) (*Category, error)
	CreateCategory(ctx context.Context, input CategoryInput) (Category, error)
	UpdateCategory(ctx context.Context, id string, input CategoryInput) (Category, error)
	DeleteCategory(ctx context.Context, id string) error
	CountTables(ctx context.Context, categoryID string) (int, error)
}

type CategoryHandler struct {
	store CategoryStore
}

func NewCategoryHandler(store CategoryStore) *CategoryHandler {
	return &CategoryHandler{store: store}
}

func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store.ListCategories(r.Context())
	if err != nil {
		web.WriteAppError(w, err)
		return
	}

	web.WriteJSON(w, http.StatusOK, categories)
}

func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseCategoryID(w, r)
	if !ok {
		return
	}

	found, err := h.store.GetCategory(r.Context(), id)
	if err != nil {
		web.WriteAppError(w, err)
		return
	}
	if found == nil {
		web.WriteAppError(w, apperr.New(apperr.KindNotFound, "table category not found"))
		return
	}

	web.WriteJSON(w, http.StatusOK, found)
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	input, ok := parseCategoryInput(w, r)
	if !ok {
		return
	}
	if input.Status == "" {
		input.Status = "ACTIVE"
	}

	existing, err := h.store.GetCategoryByName(r.Context(), input.Name)
	if err != nil {
		web.WriteAppError(w, err)
		return
	}
	if existing != nil {
		web.WriteAppError(w, apperr.New(apperr.KindDuplicate, "a table category with that name already exists"))
		return
	}

	created, err := h.store.CreateCategory(r.Context(), input)
	if err != nil {
		web.WriteAppError(w, err)
		return
	}

	web.WriteJSON(w, http.StatusCreated, created)
}

func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseCategoryID(w, r)
	if !ok {
		return
	}
	input, ok := parseCategoryInput(w, r)
	if !ok {
		return
	}

	existing, err := h.store.GetCategory(r.Context(), id)
	if err != nil {
		web.WriteAppError(w, err)
		return
	}
	if existing == nil {
		web.WriteAppError(w, apperr.New(apperr.KindNotFound, "table category not found"))
		return
	}

	if input.Status == "" {
		input.Status = existing.Status
	}

	if input.Name != existing.Name {
		other, err := h.store.GetCategoryByName(r.Context(), input.Name)
		if err != nil {
			web.WriteAppError(w, err)
			return
		}
		if other != nil && other.ID != id {
			web.WriteAppError(w, apperr.New(apperr.KindDuplicate, "a table category with that name already exists"))
			return
		}
	}

	updated, err := h.store.UpdateCategory(r.Context(), id, input)
	if err != nil {
		web.WriteAppError(w, err)
		return
	}

	web.WriteJSON(w, http.StatusOK, updated)
}

func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseCategoryID(w, r)
	if !ok {
		return
	}

	existing, err := h.store.GetCategory(r.Context(), id)
	if err != nil {
		web.WriteAppError(w, err)
		return
	}
	if existing == nil {
		web.WriteAppError(w, apperr.New(apperr.KindNotFound, "table category not found"))
		return
	}

	count, err := h.store.CountTables(r.Context(), id)
	if err != nil {
		web.WriteAppError(w, err)
		return
	}
	if count > 0 {
		web.WriteAppError(w, apperr.New(apperr.KindConflict, "cannot delete a table category with assigned tables"))
		return
	}

	if err := h.store.DeleteCategory(r.Context(), id); err != nil {
		web.WriteAppError(w, err)
		return
	}

	web.WriteJSON(w, http.StatusOK, map[string]string{"message": "table category deleted"})
}

func parseCategoryID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		web.WriteAppError(w, apperr.New(apperr.KindValidation, "invalid table category id"))
		return "", false
	}
	return id, true
}

func parseCategoryInput(w http.ResponseWriter, r *http.Request) (CategoryInput, bool) {
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
	if input.Status != "" && input.Status != "ACTIVE" && input.Status != "INACTIVE" {
		web.WriteAppError(w, apperr.New(apperr.KindValidation, "status must be ACTIVE or INACTIVE"))
		return CategoryInput{}, false
	}

	return input, true
}
