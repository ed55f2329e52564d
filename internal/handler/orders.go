package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mmeshcher/laundry-system/internal/model"
	"github.com/mmeshcher/laundry-system/internal/service"
	"github.com/mmeshcher/laundry-system/internal/validation"
)

type lineRequest struct {
	ServiceID string `json:"serviceId" validate:"required,uuid"`
	Quantity  int64  `json:"quantity" validate:"min=1,max=1000000"`
}

type createOrderRequest struct {
	CustomerID string        `json:"customerId" validate:"required,uuid"`
	HandlerID  *string       `json:"handlerId" validate:"omitempty,uuid"`
	DiscountID *string       `json:"discountId" validate:"omitempty,uuid"`
	Lines      []lineRequest `json:"lines" validate:"dive"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed completed cancelled"`
}

type quantityRequest struct {
	Quantity int64 `json:"quantity" validate:"min=1,max=1000000"`
}

// optionalID различает отсутствующее поле, null и идентификатор.
type optionalID struct {
	set   bool
	value *uuid.UUID
}

func (o *optionalID) UnmarshalJSON(data []byte) error {
	o.set = true
	if bytes.Equal(data, []byte("null")) {
		o.value = nil
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return err
	}
	o.value = &id
	return nil
}

type updateOrderRequest struct {
	HandlerID  optionalID `json:"handlerId"`
	DiscountID optionalID `json:"discountId"`
	Status     *string    `json:"status" validate:"omitempty,oneof=pending confirmed completed cancelled"`
}

type lineResponse struct {
	ServiceID uuid.UUID             `json:"serviceId"`
	Service   serviceSnapshotResult `json:"service"`
	Quantity  int64                 `json:"quantity"`
	LineTotal model.Money           `json:"lineTotal"`
}

type serviceSnapshotResult struct {
	Name         string      `json:"name"`
	Unit         string      `json:"unit"`
	PricePerUnit model.Money `json:"pricePerUnit"`
}

type orderResponse struct {
	ID          uuid.UUID               `json:"id"`
	CustomerID  uuid.UUID               `json:"customerId"`
	Customer    model.CustomerSnapshot  `json:"customer"`
	HandlerID   *uuid.UUID              `json:"handlerId"`
	Handler     *model.HandlerSnapshot  `json:"handler"`
	DiscountID  *uuid.UUID              `json:"discountId"`
	Discount    *model.DiscountSnapshot `json:"discount"`
	Lines       []lineResponse          `json:"lines"`
	Status      model.OrderStatus       `json:"status"`
	OrderDate   time.Time               `json:"orderDate"`
	CompletedOn *time.Time              `json:"completedOn"`
}

type orderDetailsResponse struct {
	Order         orderResponse `json:"order"`
	GrossTotal    model.Money   `json:"grossTotal"`
	DiscountTotal model.Money   `json:"discountTotal"`
	NetTotal      model.Money   `json:"netTotal"`
}

func newOrderDetailsResponse(d *service.OrderDetails) orderDetailsResponse {
	o := d.Order
	lines := make([]lineResponse, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, lineResponse{
			ServiceID: l.ServiceID,
			Service: serviceSnapshotResult{
				Name:         l.Service.Name,
				Unit:         l.Service.Unit,
				PricePerUnit: model.NewMoney(l.Service.PricePerUnit),
			},
			Quantity:  l.Quantity,
			LineTotal: model.NewMoney(l.LineTotal),
		})
	}

	return orderDetailsResponse{
		Order: orderResponse{
			ID:          o.ID,
			CustomerID:  o.CustomerID,
			Customer:    o.Customer,
			HandlerID:   o.HandlerID,
			Handler:     o.Handler,
			DiscountID:  o.DiscountID,
			Discount:    o.Discount,
			Lines:       lines,
			Status:      o.Status,
			OrderDate:   o.OrderDate,
			CompletedOn: o.CompletedOn,
		},
		GrossTotal:    model.NewMoney(d.Totals.Gross),
		DiscountTotal: model.NewMoney(d.Totals.Discount),
		NetTotal:      model.NewMoney(d.Totals.Net),
	}
}

func newOrderList(details []service.OrderDetails) []orderDetailsResponse {
	res := make([]orderDetailsResponse, 0, len(details))
	for i := range details {
		res = append(res, newOrderDetailsResponse(&details[i]))
	}
	return res
}

func (h *Handler) writeOrder(w http.ResponseWriter, r *http.Request, status int, d *service.OrderDetails, err error) {
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, status, newOrderDetailsResponse(d))
}

// CreateOrder создаёт заказ.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	in, err := req.input()
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	d, err := h.service.CreateOrder(r.Context(), principal(r), in)
	h.writeOrder(w, r, http.StatusCreated, d, err)
}

func (req createOrderRequest) input() (service.CreateOrderInput, error) {
	customerID, err := validation.ParseID("customerId", req.CustomerID)
	if err != nil {
		return service.CreateOrderInput{}, err
	}
	handlerID, err := validation.ParseOptionalID("handlerId", req.HandlerID)
	if err != nil {
		return service.CreateOrderInput{}, err
	}
	discountID, err := validation.ParseOptionalID("discountId", req.DiscountID)
	if err != nil {
		return service.CreateOrderInput{}, err
	}

	lines := make([]service.LineInput, 0, len(req.Lines))
	for _, l := range req.Lines {
		serviceID, err := validation.ParseID("serviceId", l.ServiceID)
		if err != nil {
			return service.CreateOrderInput{}, err
		}
		lines = append(lines, service.LineInput{ServiceID: serviceID, Quantity: l.Quantity})
	}

	return service.CreateOrderInput{
		CustomerID: customerID,
		HandlerID:  handlerID,
		DiscountID: discountID,
		Lines:      lines,
	}, nil
}

// GetOrder возвращает заказ с итоговыми суммами.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "order id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	d, err := h.service.GetOrder(r.Context(), id)
	h.writeOrder(w, r, http.StatusOK, d, err)
}

// ListOrders возвращает страницу заказов.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	details, p, err := h.service.ListOrders(r.Context(), principal(r), pageFromQuery(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, newList(newOrderList(details), &p))
}

// ListCurrentOrders возвращает незакрытые заказы исполнителя.
func (h *Handler) ListCurrentOrders(w http.ResponseWriter, r *http.Request) {
	handlerID, err := pathID(r, "handlerID", "handler id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	details, err := h.service.ListCurrentOrders(r.Context(), principal(r), handlerID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, newList(newOrderList(details), nil))
}

// SearchOrders возвращает заказы, созданные в интервале дат.
func (h *Handler) SearchOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	details, err := h.service.ListOrdersByDateRange(r.Context(), principal(r), q.Get("start"), q.Get("end"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, newList(newOrderList(details), nil))
}

// UpdateOrderStatus меняет статус заказа.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "order id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req statusRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	d, err := h.service.UpdateOrderStatus(r.Context(), principal(r), id, model.OrderStatus(req.Status))
	h.writeOrder(w, r, http.StatusOK, d, err)
}

// UpdateOrder переназначает исполнителя, скидку и статус заказа.
func (h *Handler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "order id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req updateOrderRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	in := service.UpdateOrderInput{
		Handler:  service.OptionalID{Set: req.HandlerID.set, Value: req.HandlerID.value},
		Discount: service.OptionalID{Set: req.DiscountID.set, Value: req.DiscountID.value},
	}
	if req.Status != nil {
		status := model.OrderStatus(*req.Status)
		in.Status = &status
	}

	d, err := h.service.UpdateOrder(r.Context(), principal(r), id, in)
	h.writeOrder(w, r, http.StatusOK, d, err)
}

// AddOrderLine добавляет услугу в заказ.
func (h *Handler) AddOrderLine(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "order id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req lineRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	serviceID, err := validation.ParseID("serviceId", req.ServiceID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	d, err := h.service.AddOrderLine(r.Context(), principal(r), id, service.LineInput{ServiceID: serviceID, Quantity: req.Quantity})
	h.writeOrder(w, r, http.StatusCreated, d, err)
}

// UpdateOrderLine меняет количество услуги в заказе.
func (h *Handler) UpdateOrderLine(w http.ResponseWriter, r *http.Request) {
	id, serviceID, err := orderLinePath(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req quantityRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	d, err := h.service.UpdateOrderLine(r.Context(), principal(r), id, serviceID, req.Quantity)
	h.writeOrder(w, r, http.StatusOK, d, err)
}

// RemoveOrderLine удаляет услугу из заказа.
func (h *Handler) RemoveOrderLine(w http.ResponseWriter, r *http.Request) {
	id, serviceID, err := orderLinePath(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	d, err := h.service.RemoveOrderLine(r.Context(), principal(r), id, serviceID)
	h.writeOrder(w, r, http.StatusOK, d, err)
}

func orderLinePath(r *http.Request) (uuid.UUID, uuid.UUID, error) {
	id, err := pathID(r, "id", "order id")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	serviceID, err := pathID(r, "serviceID", "service id")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return id, serviceID, nil
}

// DeleteOrder помечает заказ удалённым.
func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "order id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.service.DeleteOrder(r.Context(), principal(r), id); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
