package user

import (
	"context"
	"net/http"
	"strings"

	"github.com/luigy23/BackComandapp/internal/apperr"
	"github.com/luigy23/BackComandapp/internal/web"
)

// RoleStore is the persistence surface the role handlers need.
type RoleStore interface {
	ListRoles(ctx context.Context) ([]Role, error)
	GetRole(ctx context.Context, id string) (*Role, error)
	// GetRoleByName ignores the role with excludeID so a role can keep its
	// own name on update. Pass "" to match any role.
	GetRoleByName(ctx context.Context, name, excludeID string) (*Role, error)
	CreateRole(ctx context.Context, input RoleInput) (Role, error)
	UpdateRole(ctx context.Context, id string, input RoleInput) (Role, error)
	DeleteRole(ctx context.Context, id string) error
	CountUsersWithRole(ctx context.Context, roleID string) (int, error)
}

type RoleHandler struct {
	store RoleStore
}

func NewRoleHandler(store RoleStore) *RoleHandler {
	return &RoleHandler{store: store}
}

func (h *RoleHandler) List(w http.ResponseWriter, r *http.Request) {
	roles, err := h.store.ListRoles(r.Context())
	if err != nil {
		web.WriteAppError(w, err)
		return
	}

	web.WriteJSON(w, http.StatusOK, roles)
}

func (h *RoleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "role")
	if !ok {
		return
	}

	found, err := h.store.GetRole(r.Context(), id)
	if err != nil {
		web.WriteAppError(w, err)
		return
	}
	if found == nil {
		web.WriteAppError(w, apperr.New(apperr.KindNotFound, "role not found"))
		return
	}

	web.WriteJSON(w, http.StatusOK, found)
}

func (h *RoleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input RoleInput
	if err := web.DecodeJSON(w, r, &input); err != nil {
		web.WriteAppError(w, err)
		return
	}

	input, err := h.checkRoleInput(r, input, "")
	if err != nil {
		web.WriteAppError(w, err)
		return
	}

	created, err := h.store.CreateRole(r.Context(), input)
	if err != nil {
		web.WriteAppError(w, err)
		return
	}

	web.WriteJSON(w, http.StatusCreated, created)
}

func (h *RoleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "role")
	if !ok {
		return
	}

	var input RoleInput
	if err := web.DecodeJSON(w, r, &input); err != nil {
		web.WriteAppError(w, err)
		return
	}

	input, err := h.checkRoleInput(r, input, id)
	if err != nil {
		web.WriteAppError(w, err)
		return
	}

	existing, err := h.store.GetRole(r.Context(), id)
	if err != nil {
		web.WriteAppError(w, err)
		return
	}
	if existing == nil {
		web.WriteAppError(w, apperr.New(apperr.KindNotFound, "role not found"))
		return
	}

	updated, err := h.store.UpdateRole(r.Context(), id, input)
	if err != nil {
		web.WriteAppError(w, err)
		return
	}

	web.WriteJSON(w, http.StatusOK, updated)
}

// Delete removes a role that no user references.
func (h *RoleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "role")
	if !ok {
		return
	}

	existing, err := h.store.GetRole(r.Context(), id)
	if err != nil {
		web.WriteAppError(w, err)
		return
	}
	if existing == nil {
		web.WriteAppError(w, apperr.New(apperr.KindNotFound, "role not found"))
		return
	}

	assigned, err := h.store.CountUsersWithRole(r.Context(), id)
	if err != nil {
		web.WriteAppError(w, err)
		return
	}
	if assigned > 0 {
		web.WriteAppError(w, apperr.New(apperr.KindConflict, "cannot delete a role with assigned users"))
		return
	}

	if err := h.store.DeleteRole(r.Context(), id); err != nil {
		web.WriteAppError(w, err)
		return
	}

	web.WriteJSON(w, http.StatusOK, map[string]string{"message": "role deleted"})
}

// Permissions lists every permission a role may carry.
func (h *RoleHandler) Permissions(w http.ResponseWriter, r *http.Request) {
	web.WriteJSON(w, http.StatusOK, map[string][]string{"permissions": AllPermissions()})
}

func (h *RoleHandler) checkRoleInput(r *http.Request, input RoleInput, excludeID string) (RoleInput, error) {
	input.Name = strings.ToUpper(strings.TrimSpace(input.Name))
	input.Description = strings.TrimSpace(input.Description)

	if input.Name == "" {
		return RoleInput{}, apperr.New(apperr.KindValidation, "name is required")
	}
	if len(input.Permissions) == 0 {
		return RoleInput{}, apperr.New(apperr.KindValidation, "a role needs at least one permission")
	}
	for _, permission := range input.Permissions {
		if !ValidPermission(permission) {
			return RoleInput{}, apperr.Newf(apperr.KindValidation, "unknown permission %q", permission)
		}
	}

	existing, err := h.store.GetRoleByName(r.Context(), input.Name, excludeID)
	if err != nil {
		return RoleInput{}, err
	}
	if existing != nil {
		return RoleInput{}, apperr.New(apperr.KindDuplicate, "a role with that name already exists")
	}

	return input, nil
}
