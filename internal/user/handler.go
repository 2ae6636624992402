package user

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/luigy23/BackComandapp/internal/apperr"
	"github.com/luigy23/BackComandapp/internal/auth"
	"github.com/luigy23/BackComandapp/internal/web"
)

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Store is the persistence surface the user handlers need. Lookups return nil
// without error when no record exists.
type Store interface {
	List(ctx context.Context) ([]User, error)
	Get(ctx context.Context, id string) (*User, error)
	// GetByEmail enforces email uniqueness; excludeID skips the record
	// being updated.
	GetByEmail(ctx context.Context, email, excludeID string) (*User, error)
	Create(ctx context.Context, input UserInput, passwordHash string) (User, error)
	Update(ctx context.Context, id string, input UserInput, passwordHash string) (User, error)
	Deactivate(ctx context.Context, id string) (User, error)
}

type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.List(r.Context())
	if err != nil {
		web.WriteAppError(w, err)
		return
	}

	web.WriteJSON(w, http.StatusOK, users)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "user")
	if !ok {
		return
	}

	found, err := h.store.Get(r.Context(), id)
	if err != nil {
		web.WriteAppError(w, err)
		return
	}
	if found == nil {
		web.WriteAppError(w, apperr.New(apperr.KindNotFound, "user not found"))
		return
	}

	web.WriteJSON(w, http.StatusOK, found)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	input, ok := parseUserInput(w, r, true)
	if !ok {
		return
	}

	existing, err := h.store.GetByEmail(r.Context(), input.Email, "")
	if err != nil {
		web.WriteAppError(w, err)
		return
	}
	if existing != nil {
		web.WriteAppError(w, apperr.New(apperr.KindDuplicate, "a user with that email already exists"))
		return
	}

	if check := auth.ValidatePassword(input.Password); !check.Valid {
		web.WriteAppError(w, &apperr.Error{
			Kind:    apperr.KindValidation,
			Message: "password does not meet the security requirements",
			Details: check.Errors,
		})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		web.WriteAppError(w, apperr.Wrap(err, apperr.KindInternal, "hash password"))
		return
	}

	created, err := h.store.Create(r.Context(), input, string(hash))
	if err != nil {
		web.WriteAppError(w, err)
		return
	}

	web.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "user")
	if !ok {
		return
	}
	input, ok := parseUserInput(w, r, false)
	if !ok {
		return
	}

	existing, err := h.store.Get(r.Context(), id)
	if err != nil {
		web.WriteAppError(w, err)
		return
	}
	if existing == nil {
		web.WriteAppError(w, apperr.New(apperr.KindNotFound, "user not found"))
		return
	}

	if input.Email != existing.Email {
		other, err := h.store.GetByEmail(r.Context(), input.Email, id)
		if err != nil {
			web.WriteAppError(w, err)
			return
		}
		if other != nil {
			web.WriteAppError(w, apperr.New(apperr.KindDuplicate, "a user with that email already exists"))
			return
		}
	}

	// An empty password keeps the current hash.
	hash := existing.PasswordHash
	if input.Password != "" {
		if check := auth.ValidatePassword(input.Password); !check.Valid {
			web.WriteAppError(w, &apperr.Error{
				Kind:    apperr.KindValidation,
				Message: "password does not meet the security requirements",
				Details: check.Errors,
			})
			return
		}

		newHash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			web.WriteAppError(w, apperr.Wrap(err, apperr.KindInternal, "hash password"))
			return
		}
		hash = string(newHash)
	}

	updated, err := h.store.Update(r.Context(), id, input, hash)
	if err != nil {
		web.WriteAppError(w, err)
		return
	}

	web.WriteJSON(w, http.StatusOK, updated)
}

// Delete deactivates the user instead of removing the record, so past orders
// keep a valid waiter reference.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "user")
	if !ok {
		return
	}

	existing, err := h.store.Get(r.Context(), id)
	if err != nil {
		web.WriteAppError(w, err)
		return
	}
	if existing == nil {
		web.WriteAppError(w, apperr.New(apperr.KindNotFound, "user not found"))
		return
	}

	deactivated, err := h.store.Deactivate(r.Context(), id)
	if err != nil {
		web.WriteAppError(w, err)
		return
	}

	web.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "user deactivated",
		"user":    deactivated,
	})
}

func parseID(w http.ResponseWriter, r *http.Request, what string) (string, bool) {
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		web.WriteAppError(w, apperr.Newf(apperr.KindValidation, "invalid %s id", what))
		return "", false
	}
	return id, true
}

func parseUserInput(w http.ResponseWriter, r *http.Request, passwordRequired bool) (UserInput, bool) {
	var input UserInput
	if err := web.DecodeJSON(w, r, &input); err != nil {
		web.WriteAppError(w, err)
		return UserInput{}, false
	}

	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)

	if input.Name == "" {
		web.WriteAppError(w, apperr.New(apperr.KindValidation, "name is required"))
		return UserInput{}, false
	}
	if !emailRe.MatchString(input.Email) {
		web.WriteAppError(w, apperr.New(apperr.KindValidation, "a valid email is required"))
		return UserInput{}, false
	}
	if passwordRequired && input.Password == "" {
		web.WriteAppError(w, apperr.New(apperr.KindValidation, "password is required"))
		return UserInput{}, false
	}
	if _, err := uuid.Parse(input.RoleID); err != nil {
		web.WriteAppError(w, apperr.New(apperr.KindValidation, "invalid role id"))
		return UserInput{}, false
	}

	return input, true
}
