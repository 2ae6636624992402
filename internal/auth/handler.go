package auth

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/luigy23/BackComandapp/internal/apperr"
	"github.com/luigy23/BackComandapp/internal/web"
)

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	RoleID   string `json:"role_id"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var body registerRequest
	if err := web.DecodeJSON(w, r, &body); err != nil {
		web.WriteAppError(w, err)
		return
	}

	body.Name = strings.TrimSpace(body.Name)
	body.Email = strings.TrimSpace(body.Email)
	if body.Name == "" || body.Email == "" || body.Password == "" || body.RoleID == "" {
		web.WriteAppError(w, apperr.New(apperr.KindValidation, "name, email, password and role_id are required"))
		return
	}
	if !emailRe.MatchString(body.Email) {
		web.WriteAppError(w, apperr.New(apperr.KindValidation, "email format is invalid"))
		return
	}

	token, err := h.service.Register(r.Context(), RegisterInput{
		Name:     body.Name,
		Email:    body.Email,
		Password: body.Password,
		RoleID:   body.RoleID,
	})
	if err != nil {
		web.WriteAppError(w, err)
		return
	}

	web.WriteJSON(w, http.StatusCreated, map[string]string{"token": token})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if err := web.DecodeJSON(w, r, &body); err != nil {
		web.WriteAppError(w, err)
		return
	}

	body.Email = strings.TrimSpace(body.Email)
	if body.Email == "" || body.Password == "" {
		web.WriteAppError(w, apperr.New(apperr.KindValidation, "email and password are required"))
		return
	}

	token, err := h.service.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		web.WriteAppError(w, err)
		return
	}

	web.WriteJSON(w, http.StatusOK, map[string]string{"token": token})
}
