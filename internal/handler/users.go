package handler

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/laundry-system/internal/model"
	"github.com/mmeshcher/laundry-system/internal/service"
)

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      *model.User `json:"user"`
}

// Login проверяет учётные данные сотрудника и выдаёт токен доступа.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	u, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		h.writeError(w, r, err)
		return
	}

	token, expires, err := h.authMiddleware.IssueToken(model.Principal{ID: u.ID, Username: u.Username, Role: u.Role})
	if err != nil {
		h.logger.Error("issue token error", zap.Error(err), zap.String("username", u.Username))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: expires, User: u})
}

type createUserRequest struct {
	Username string  `json:"username" validate:"required,min=3,max=50"`
	Password string  `json:"password" validate:"required,min=6"`
	Role     string  `json:"role" validate:"required,oneof=employee manager admin"`
	Phone    *string `json:"phoneNumber" validate:"omitempty,vnphone"`
}

type updateUserRequest struct {
	Username *string `json:"username" validate:"omitempty,min=3,max=50"`
	Password *string `json:"password" validate:"omitempty,min=6"`
	Role     *string `json:"role" validate:"omitempty,oneof=employee manager admin"`
	Status   *string `json:"status" validate:"omitempty,oneof=active suspended"`
	Phone    *string `json:"phoneNumber" validate:"omitempty,vnphone"`
}

// CreateUser создаёт сотрудника.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	u, err := h.service.CreateUser(r.Context(), principal(r), service.CreateUserInput{
		Username: req.Username,
		Password: req.Password,
		Role:     model.Role(req.Role),
		Phone:    req.Phone,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, u)
}

// GetUser возвращает сотрудника.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "user id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	u, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, u)
}

// ListUsers возвращает страницу сотрудников.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, p, err := h.service.ListUsers(r.Context(), pageFromQuery(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, newList(users, &p))
}

// UpdateUser изменяет сотрудника.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "user id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req updateUserRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	in := service.UpdateUserInput{Username: req.Username, Password: req.Password, Phone: req.Phone}
	if req.Role != nil {
		role := model.Role(*req.Role)
		in.Role = &role
	}
	if req.Status != nil {
		status := model.UserStatus(*req.Status)
		in.Status = &status
	}

	u, err := h.service.UpdateUser(r.Context(), principal(r), id, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, u)
}

// DeleteUser помечает сотрудника удалённым.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "user id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.service.DeleteUser(r.Context(), principal(r), id); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
