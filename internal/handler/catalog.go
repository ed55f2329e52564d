package handler

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/laundry-system/internal/model"
	"github.com/mmeshcher/laundry-system/internal/service"
)

type serviceRequest struct {
	Name         string          `json:"name" validate:"required,max=30"`
	Unit         string          `json:"unit" validate:"required,max=20"`
	PricePerUnit decimal.Decimal `json:"pricePerUnit"`
}

type updateServiceRequest struct {
	Name         *string          `json:"name" validate:"omitempty,min=1,max=30"`
	Unit         *string          `json:"unit" validate:"omitempty,min=1,max=20"`
	PricePerUnit *decimal.Decimal `json:"pricePerUnit"`
}

// CreateService добавляет услугу в каталог.
func (h *Handler) CreateService(w http.ResponseWriter, r *http.Request) {
	var req serviceRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	svc, err := h.service.CreateService(r.Context(), service.ServiceInput{
		Name:         &req.Name,
		Unit:         &req.Unit,
		PricePerUnit: &req.PricePerUnit,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, svc)
}

// GetService возвращает услугу.
func (h *Handler) GetService(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "service id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	svc, err := h.service.GetService(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, svc)
}

// ListServices возвращает услуги каталога; параметр name отбирает услуги по названию.
func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.service.ListServices(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, newList(services, nil))
}

// UpdateService изменяет услугу.
func (h *Handler) UpdateService(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "service id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req updateServiceRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	svc, err := h.service.UpdateService(r.Context(), id, service.ServiceInput(req))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, svc)
}

// DeleteService помечает услугу удалённой.
func (h *Handler) DeleteService(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "service id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.service.DeleteService(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type discountRequest struct {
	Name           string          `json:"name" validate:"required,max=30"`
	RequiredPoints int64           `json:"requiredPoints" validate:"gte=0"`
	DiscountType   string          `json:"discountType" validate:"required,oneof=percent fixed"`
	Amount         decimal.Decimal `json:"amount"`
}

type updateDiscountRequest struct {
	Name           *string          `json:"name" validate:"omitempty,min=1,max=30"`
	RequiredPoints *int64           `json:"requiredPoints" validate:"omitempty,gte=0"`
	DiscountType   *string          `json:"discountType" validate:"omitempty,oneof=percent fixed"`
	Amount         *decimal.Decimal `json:"amount"`
}

// CreateDiscount создаёт скидку.
func (h *Handler) CreateDiscount(w http.ResponseWriter, r *http.Request) {
	var req discountRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	kind := model.DiscountType(req.DiscountType)
	d, err := h.service.CreateDiscount(r.Context(), service.DiscountInput{
		Name:           &req.Name,
		RequiredPoints: &req.RequiredPoints,
		Type:           &kind,
		Amount:         &req.Amount,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, d)
}

// GetDiscount возвращает скидку.
func (h *Handler) GetDiscount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "discount id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	d, err := h.service.GetDiscount(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, d)
}

// ListDiscounts возвращает действующие скидки.
func (h *Handler) ListDiscounts(w http.ResponseWriter, r *http.Request) {
	discounts, err := h.service.ListDiscounts(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, newList(discounts, nil))
}

// UpdateDiscount изменяет скидку.
func (h *Handler) UpdateDiscount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "discount id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req updateDiscountRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	in := service.DiscountInput{Name: req.Name, RequiredPoints: req.RequiredPoints, Amount: req.Amount}
	if req.DiscountType != nil {
		kind := model.DiscountType(*req.DiscountType)
		in.Type = &kind
	}

	d, err := h.service.UpdateDiscount(r.Context(), id, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, d)
}

// DeleteDiscount помечает скидку удалённой.
func (h *Handler) DeleteDiscount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "discount id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.service.DeleteDiscount(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
