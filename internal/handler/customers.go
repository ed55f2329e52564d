package handler

import (
	"net/http"
	"strings"

	"github.com/mmeshcher/laundry-system/internal/model"
	"github.com/mmeshcher/laundry-system/internal/service"
)

type createCustomerRequest struct {
	FirstName string  `json:"firstName" validate:"required,min=2,max=32"`
	LastName  string  `json:"lastName" validate:"required,min=2,max=32"`
	Phone     *string `json:"phoneNumber" validate:"omitempty,vnphone"`
	Address   string  `json:"address" validate:"required,min=5,max=128"`
	Points    int64   `json:"points" validate:"gte=0"`
}

type updateCustomerRequest struct {
	FirstName *string `json:"firstName" validate:"omitempty,min=2,max=32"`
	LastName  *string `json:"lastName" validate:"omitempty,min=2,max=32"`
	Phone     *string `json:"phoneNumber" validate:"omitempty,vnphone"`
	Address   *string `json:"address" validate:"omitempty,min=5,max=128"`
	Points    *int64  `json:"points" validate:"omitempty,gte=0"`
}

// CreateCustomer создаёт клиента.
func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req createCustomerRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	c, err := h.service.CreateCustomer(r.Context(), service.CustomerInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Address:   req.Address,
		Points:    req.Points,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, c)
}

// GetCustomer возвращает клиента.
func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "customer id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	c, err := h.service.GetCustomer(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, c)
}

// ListCustomers возвращает страницу клиентов.
func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, p, err := h.service.ListCustomers(r.Context(), pageFromQuery(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, newList(customers, &p))
}

// SearchCustomers ищет клиентов по телефону и имени.
func (h *Handler) SearchCustomers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := model.CustomerFilter{
		Phone:     strings.TrimSpace(q.Get("phoneNumber")),
		FirstName: strings.TrimSpace(q.Get("firstName")),
		LastName:  strings.TrimSpace(q.Get("lastName")),
	}

	customers, p, err := h.service.SearchCustomers(r.Context(), f, pageFromQuery(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, newList(customers, &p))
}

// UpdateCustomer изменяет клиента.
func (h *Handler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "customer id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req updateCustomerRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	c, err := h.service.UpdateCustomer(r.Context(), id, service.UpdateCustomerInput(req))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, c)
}

// DeleteCustomer помечает клиента удалённым.
func (h *Handler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "customer id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.service.DeleteCustomer(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
