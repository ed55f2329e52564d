package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/mmeshcher/laundry-system/internal/apperr"
	"github.com/mmeshcher/laundry-system/internal/model"
	"github.com/mmeshcher/laundry-system/internal/pricing"
)

// LineInput описывает строку заказа в запросе.
type LineInput struct {
	ServiceID uuid.UUID
	Quantity  int64
}

// CreateOrderInput описывает запрос на создание заказа.
type CreateOrderInput struct {
	CustomerID uuid.UUID
	HandlerID  *uuid.UUID
	DiscountID *uuid.UUID
	Lines      []LineInput
}

// OptionalID описывает поле идентификатора, которое может отсутствовать, быть null или значением.
type OptionalID struct {
	Set   bool
	Value *uuid.UUID
}

// UpdateOrderInput описывает изменение исполнителя, скидки и статуса заказа.
type UpdateOrderInput struct {
	Handler  OptionalID
	Discount OptionalID
	Status   *model.OrderStatus
}

// OrderDetails содержит заказ и рассчитанные по нему суммы.
type OrderDetails struct {
	Order  *model.Order
	Totals pricing.Totals
}

func details(o *model.Order) (*OrderDetails, error) {
	totals, err := pricing.Compute(o.Lines, o.Discount)
	if err != nil {
		return nil, apperr.Server(err)
	}
	return &OrderDetails{Order: o, Totals: totals}, nil
}

// CreateOrder создаёт заказ, списывает баллы за скидку и сохраняет снимки связанных сущностей.
func (s *Service) CreateOrder(ctx context.Context, caller model.Principal, in CreateOrderInput) (*OrderDetails, error) {
	if len(in.Lines) == 0 {
		return nil, apperr.Validation("order must contain at least one line")
	}

	customer, err := s.resolveCustomer(ctx, in.CustomerID)
	if err != nil {
		return nil, err
	}

	handler, err := s.resolveHandler(ctx, in.HandlerID, caller)
	if err != nil {
		return nil, err
	}

	now := s.now()
	order := &model.Order{
		ID:         uuid.New(),
		CustomerID: customer.ID,
		Customer:   customerSnapshot(customer),
		HandlerID:  &handler.ID,
		Handler:    handlerSnapshot(handler),
		Status:     model.OrderStatusPending,
		OrderDate:  now,
	}

	var pointsCost int64
	if in.DiscountID != nil {
		discount, err := s.resolveDiscount(ctx, *in.DiscountID)
		if err != nil {
			return nil, err
		}
		// Окончательная проверка выполняется под блокировкой клиента в репозитории.
		if customer.Points < discount.RequiredPoints {
			return nil, apperr.BusinessRule("insufficient points")
		}
		order.DiscountID = &discount.ID
		order.Discount = discountSnapshot(discount)
		pointsCost = discount.RequiredPoints
	}

	for _, l := range in.Lines {
		svc, err := s.resolveService(ctx, l.ServiceID)
		if err != nil {
			return nil, err
		}
		if err := addLine(order, l.ServiceID, serviceSnapshot(svc), l.Quantity); err != nil {
			return nil, err
		}
	}

	if err := checkTotals(order); err != nil {
		return nil, err
	}

	if err := s.repo.CreateOrder(ctx, order, pointsCost); err != nil {
		return nil, repoError(err, "customer")
	}

	s.metrics.OrderCreated(pointsCost)
	return details(order)
}

// addLine добавляет услугу в заказ; повторная услуга увеличивает количество существующей строки
// по сохранённой в ней цене.
func addLine(o *model.Order, serviceID uuid.UUID, snap model.ServiceSnapshot, quantity int64) error {
	if quantity < 1 {
		return apperr.Validation("quantity must be at least 1")
	}
	if quantity > pricing.MaxQuantity {
		return pricingError(pricing.ErrQuantityTooLarge)
	}

	if i := o.LineIndex(serviceID); i >= 0 {
		return setLineQuantity(&o.Lines[i], o.Lines[i].Quantity+quantity)
	}

	total, err := pricing.LineTotal(quantity, snap.PricePerUnit)
	if err != nil {
		return pricingError(err)
	}
	o.Lines = append(o.Lines, model.OrderLine{ServiceID: serviceID, Service: snap, Quantity: quantity, LineTotal: total})
	return nil
}

func setLineQuantity(l *model.OrderLine, quantity int64) error {
	total, err := pricing.LineTotal(quantity, l.Service.PricePerUnit)
	if err != nil {
		return pricingError(err)
	}
	l.Quantity = quantity
	l.LineTotal = total
	return nil
}

// checkTotals проверяет, что скидка заказа не превышает его сумму.
func checkTotals(o *model.Order) error {
	if _, err := pricing.Compute(o.Lines, o.Discount); err != nil {
		return pricingError(err)
	}
	return nil
}

// UpdateOrderStatus меняет статус заказа. Закрытый заказ может менять только администратор.
func (s *Service) UpdateOrderStatus(ctx context.Context, caller model.Principal, id uuid.UUID, status model.OrderStatus) (*OrderDetails, error) {
	if !status.Valid() {
		return nil, apperr.Validation("invalid order status %q", status)
	}

	var changed bool
	o, err := s.repo.MutateOrder(ctx, id, func(o *model.Order) error {
		changed = o.Status != status
		return s.applyStatus(o, caller, status)
	})
	if err != nil {
		return nil, repoError(err, "order")
	}

	if changed {
		s.metrics.StatusChanged(status)
	}
	return details(o)
}

func (s *Service) applyStatus(o *model.Order, caller model.Principal, status model.OrderStatus) error {
	if o.Status.Closed() && !caller.IsAdmin() {
		return apperr.Authorization("order already closed")
	}
	o.SetStatus(status, s.now())
	return nil
}

// UpdateOrder переназначает исполнителя и скидку заказа и при необходимости меняет статус.
// Баллы клиента при смене скидки не списываются и не возвращаются.
func (s *Service) UpdateOrder(ctx context.Context, caller model.Principal, id uuid.UUID, in UpdateOrderInput) (*OrderDetails, error) {
	if err := requirePrivileged(caller); err != nil {
		return nil, err
	}
	if !in.Handler.Set && !in.Discount.Set && in.Status == nil {
		return nil, apperr.Validation("no fields to update")
	}
	if in.Status != nil && !in.Status.Valid() {
		return nil, apperr.Validation("invalid order status %q", *in.Status)
	}

	var handler *model.User
	if in.Handler.Set && in.Handler.Value != nil {
		u, err := s.resolveHandler(ctx, in.Handler.Value, caller)
		if err != nil {
			return nil, err
		}
		handler = u
	}

	var discount *model.Discount
	if in.Discount.Set && in.Discount.Value != nil {
		d, err := s.resolveDiscount(ctx, *in.Discount.Value)
		if err != nil {
			return nil, err
		}
		discount = d
	}

	var statusChanged bool
	o, err := s.repo.MutateOrder(ctx, id, func(o *model.Order) error {
		statusChanged = false
		if in.Handler.Set {
			o.HandlerID, o.Handler = nil, nil
			if handler != nil {
				o.HandlerID, o.Handler = &handler.ID, handlerSnapshot(handler)
			}
		}

		if in.Discount.Set {
			o.DiscountID, o.Discount = nil, nil
			if discount != nil {
				o.DiscountID, o.Discount = &discount.ID, discountSnapshot(discount)
			}
			if err := checkTotals(o); err != nil {
				return err
			}
		}

		if in.Status != nil {
			statusChanged = o.Status != *in.Status
			return s.applyStatus(o, caller, *in.Status)
		}
		return nil
	})
	if err != nil {
		return nil, repoError(err, "order")
	}

	if statusChanged {
		s.metrics.StatusChanged(*in.Status)
	}
	return details(o)
}

// mutateLines выполняет изменение строк заказа от имени исполнителя заказа или администратора.
func (s *Service) mutateLines(ctx context.Context, caller model.Principal, id uuid.UUID, fn func(o *model.Order) error) (*OrderDetails, error) {
	o, err := s.repo.MutateOrder(ctx, id, func(o *model.Order) error {
		if !caller.IsAdmin() {
			if o.HandlerID == nil || *o.HandlerID != caller.ID {
				return apperr.Authorization("only the order handler or an admin can change order lines")
			}
			if o.Status.Closed() {
				return apperr.BusinessRule("order is closed")
			}
		}

		if err := fn(o); err != nil {
			return err
		}
		return checkTotals(o)
	})
	if err != nil {
		return nil, repoError(err, "order")
	}
	return details(o)
}

// AddOrderLine добавляет услугу в заказ или увеличивает количество уже добавленной.
func (s *Service) AddOrderLine(ctx context.Context, caller model.Principal, id uuid.UUID, line LineInput) (*OrderDetails, error) {
	if line.Quantity < 1 {
		return nil, apperr.Validation("quantity must be at least 1")
	}

	svc, err := s.resolveService(ctx, line.ServiceID)
	if err != nil {
		return nil, err
	}
	snap := serviceSnapshot(svc)

	return s.mutateLines(ctx, caller, id, func(o *model.Order) error {
		return addLine(o, line.ServiceID, snap, line.Quantity)
	})
}

// UpdateOrderLine меняет количество услуги в заказе; стоимость считается по сохранённой цене.
func (s *Service) UpdateOrderLine(ctx context.Context, caller model.Principal, id, serviceID uuid.UUID, quantity int64) (*OrderDetails, error) {
	if quantity < 1 {
		return nil, apperr.Validation("quantity must be at least 1")
	}

	return s.mutateLines(ctx, caller, id, func(o *model.Order) error {
		i := o.LineIndex(serviceID)
		if i < 0 {
			return apperr.NotFound("service not found in order")
		}
		return setLineQuantity(&o.Lines[i], quantity)
	})
}

// RemoveOrderLine удаляет услугу из заказа.
func (s *Service) RemoveOrderLine(ctx context.Context, caller model.Principal, id, serviceID uuid.UUID) (*OrderDetails, error) {
	return s.mutateLines(ctx, caller, id, func(o *model.Order) error {
		i := o.LineIndex(serviceID)
		if i < 0 {
			return apperr.NotFound("service not found in order")
		}
		o.Lines = append(o.Lines[:i], o.Lines[i+1:]...)
		return nil
	})
}

// DeleteOrder помечает заказ удалённым. Списанные баллы не возвращаются.
func (s *Service) DeleteOrder(ctx context.Context, caller model.Principal, id uuid.UUID) error {
	if err := requirePrivileged(caller); err != nil {
		return err
	}
	return repoError(s.repo.DeleteOrder(ctx, id), "order")
}

// GetOrder возвращает заказ с рассчитанными суммами.
func (s *Service) GetOrder(ctx context.Context, id uuid.UUID) (*OrderDetails, error) {
	o, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return nil, repoError(err, "order")
	}
	return details(o)
}

// ListOrders возвращает страницу заказов.
func (s *Service) ListOrders(ctx context.Context, caller model.Principal, page model.Page) ([]OrderDetails, model.Pagination, error) {
	if err := requirePrivileged(caller); err != nil {
		return nil, model.Pagination{}, err
	}

	orders, total, err := s.repo.ListOrders(ctx, page)
	if err != nil {
		return nil, model.Pagination{}, repoError(err, "order")
	}

	res, err := detailsList(orders)
	if err != nil {
		return nil, model.Pagination{}, err
	}
	return res, model.NewPagination(page, total), nil
}

// ListCurrentOrders возвращает незакрытые заказы исполнителя.
// Смотреть чужие заказы может только администратор.
func (s *Service) ListCurrentOrders(ctx context.Context, caller model.Principal, handlerID uuid.UUID) ([]OrderDetails, error) {
	if handlerID != caller.ID && !caller.IsAdmin() {
		return nil, apperr.Authorization("not allowed to view orders of another handler")
	}

	if _, err := s.repo.GetUser(ctx, handlerID); err != nil {
		return nil, repoError(err, "handler")
	}

	orders, err := s.repo.ListOpenOrdersByHandler(ctx, handlerID)
	if err != nil {
		return nil, repoError(err, "order")
	}
	return detailsList(orders)
}

// ListOrdersByDateRange возвращает заказы, созданные в указанном диапазоне дат.
func (s *Service) ListOrdersByDateRange(ctx context.Context, caller model.Principal, start, end string) ([]OrderDetails, error) {
	if err := requirePrivileged(caller); err != nil {
		return nil, err
	}

	r, err := ParseDateRange(start, end, s.now())
	if err != nil {
		return nil, err
	}

	orders, err := s.repo.ListOrdersByDateRange(ctx, r.From, r.To)
	if err != nil {
		return nil, repoError(err, "order")
	}
	return detailsList(orders)
}

func detailsList(orders []model.Order) ([]OrderDetails, error) {
	res := make([]OrderDetails, 0, len(orders))
	for i := range orders {
		d, err := details(&orders[i])
		if err != nil {
			return nil, err
		}
		res = append(res, *d)
	}
	return res, nil
}
