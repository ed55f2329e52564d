package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/mmeshcher/laundry-system/internal/apperr"
	"github.com/mmeshcher/laundry-system/internal/model"
)

// CustomerInput описывает поля клиента при создании.
type CustomerInput struct {
	FirstName string
	LastName  string
	Phone     *string
	Address   string
	Points    int64
}

// UpdateCustomerInput описывает изменяемые поля клиента; nil означает «не менять».
type UpdateCustomerInput struct {
	FirstName *string
	LastName  *string
	Phone     *string
	Address   *string
	Points    *int64
}

// CreateCustomer создаёт клиента.
func (s *Service) CreateCustomer(ctx context.Context, in CustomerInput) (*model.Customer, error) {
	if in.Points < 0 {
		return nil, apperr.Validation("points must be greater than or equal to 0")
	}

	c := &model.Customer{
		ID:        uuid.New(),
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Phone:     in.Phone,
		Address:   in.Address,
		Points:    in.Points,
	}
	if err := s.repo.CreateCustomer(ctx, c); err != nil {
		return nil, repoError(err, "customer")
	}
	return c, nil
}

// GetCustomer возвращает клиента по идентификатору.
func (s *Service) GetCustomer(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	return s.resolveCustomer(ctx, id)
}

// ListCustomers возвращает страницу клиентов.
func (s *Service) ListCustomers(ctx context.Context, page model.Page) ([]model.Customer, model.Pagination, error) {
	customers, total, err := s.repo.ListCustomers(ctx, page)
	if err != nil {
		return nil, model.Pagination{}, repoError(err, "customer")
	}
	return customers, model.NewPagination(page, total), nil
}

// SearchCustomers ищет клиентов по телефону и имени.
func (s *Service) SearchCustomers(ctx context.Context, f model.CustomerFilter, page model.Page) ([]model.Customer, model.Pagination, error) {
	if f.Empty() {
		return nil, model.Pagination{}, apperr.Validation("at least one of phoneNumber, firstName or lastName is required")
	}

	customers, total, err := s.repo.SearchCustomers(ctx, f, page)
	if err != nil {
		return nil, model.Pagination{}, repoError(err, "customer")
	}
	return customers, model.NewPagination(page, total), nil
}

// UpdateCustomer изменяет данные клиента. Баланс баллов задаётся только явно.
func (s *Service) UpdateCustomer(ctx context.Context, id uuid.UUID, in UpdateCustomerInput) (*model.Customer, error) {
	c, err := s.resolveCustomer(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.FirstName != nil {
		c.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		c.LastName = *in.LastName
	}
	if in.Phone != nil {
		c.Phone = in.Phone
	}
	if in.Address != nil {
		c.Address = *in.Address
	}
	if in.Points != nil {
		if *in.Points < 0 {
			return nil, apperr.Validation("points must be greater than or equal to 0")
		}
		c.Points = *in.Points
	}

	if err := s.repo.UpdateCustomer(ctx, c, in.Points != nil); err != nil {
		return nil, repoError(err, "customer")
	}
	return c, nil
}

// DeleteCustomer помечает клиента удалённым.
func (s *Service) DeleteCustomer(ctx context.Context, id uuid.UUID) error {
	return repoError(s.repo.DeleteCustomer(ctx, id), "customer")
}
