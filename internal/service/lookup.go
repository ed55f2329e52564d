package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/mmeshcher/laundry-system/internal/apperr"
	"github.com/mmeshcher/laundry-system/internal/model"
)

func (s *Service) resolveCustomer(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	c, err := s.repo.GetCustomer(ctx, id)
	if err != nil {
		return nil, repoError(err, "customer")
	}
	return c, nil
}

func (s *Service) resolveService(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	svc, err := s.repo.GetService(ctx, id)
	if err != nil {
		return nil, repoError(err, "service")
	}
	return svc, nil
}

func (s *Service) resolveDiscount(ctx context.Context, id uuid.UUID) (*model.Discount, error) {
	d, err := s.repo.GetDiscount(ctx, id)
	if err != nil {
		return nil, repoError(err, "discount")
	}
	return d, nil
}

// resolveHandler находит исполнителя заказа. Без явного id исполнителем становится вызывающий;
// назначить другого сотрудника могут только администратор и менеджер.
func (s *Service) resolveHandler(ctx context.Context, id *uuid.UUID, caller model.Principal) (*model.User, error) {
	target := caller.ID
	if id != nil {
		target = *id
	}

	if target != caller.ID && !caller.Role.Privileged() {
		return nil, apperr.Authorization("not allowed to assign another handler")
	}

	u, err := s.repo.GetUser(ctx, target)
	if err != nil {
		return nil, repoError(err, "handler")
	}
	if u.Status != model.UserStatusActive {
		return nil, apperr.BusinessRule("handler is not active")
	}
	return u, nil
}

func requirePrivileged(caller model.Principal) error {
	if !caller.Role.Privileged() {
		return apperr.Authorization("admin or manager role required")
	}
	return nil
}

func requireAdmin(caller model.Principal) error {
	if !caller.IsAdmin() {
		return apperr.Authorization("admin role required")
	}
	return nil
}

func customerSnapshot(c *model.Customer) model.CustomerSnapshot {
	return model.CustomerSnapshot{FirstName: c.FirstName, LastName: c.LastName, Phone: c.Phone, Address: c.Address}
}

func handlerSnapshot(u *model.User) *model.HandlerSnapshot {
	return &model.HandlerSnapshot{Username: u.Username, Role: u.Role}
}

func discountSnapshot(d *model.Discount) *model.DiscountSnapshot {
	return &model.DiscountSnapshot{Name: d.Name, Type: d.Type, Amount: d.Amount, RequiredPoints: d.RequiredPoints}
}

func serviceSnapshot(svc *model.Service) model.ServiceSnapshot {
	return model.ServiceSnapshot{Name: svc.Name, Unit: svc.Unit, PricePerUnit: svc.PricePerUnit}
}
