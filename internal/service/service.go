// Package service реализует бизнес-логику сервиса прачечной.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/mmeshcher/laundry-system/internal/apperr"
	"github.com/mmeshcher/laundry-system/internal/metrics"
	"github.com/mmeshcher/laundry-system/internal/model"
	"github.com/mmeshcher/laundry-system/internal/pricing"
	"github.com/mmeshcher/laundry-system/internal/repository"
)

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Ping(ctx context.Context) error
	Close() error

	CreateUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	ListUsers(ctx context.Context, page model.Page) ([]model.User, int64, error)
	UpdateUser(ctx context.Context, u *model.User) error
	DeleteUser(ctx context.Context, id uuid.UUID) error

	CreateCustomer(ctx context.Context, c *model.Customer) error
	GetCustomer(ctx context.Context, id uuid.UUID) (*model.Customer, error)
	ListCustomers(ctx context.Context, page model.Page) ([]model.Customer, int64, error)
	SearchCustomers(ctx context.Context, f model.CustomerFilter, page model.Page) ([]model.Customer, int64, error)
	UpdateCustomer(ctx context.Context, c *model.Customer, setPoints bool) error
	DeleteCustomer(ctx context.Context, id uuid.UUID) error

	CreateService(ctx context.Context, s *model.Service) error
	GetService(ctx context.Context, id uuid.UUID) (*model.Service, error)
	ListServices(ctx context.Context, name string) ([]model.Service, error)
	UpdateService(ctx context.Context, s *model.Service) error
	DeleteService(ctx context.Context, id uuid.UUID) error

	CreateDiscount(ctx context.Context, d *model.Discount) error
	GetDiscount(ctx context.Context, id uuid.UUID) (*model.Discount, error)
	ListDiscounts(ctx context.Context) ([]model.Discount, error)
	UpdateDiscount(ctx context.Context, d *model.Discount) error
	DeleteDiscount(ctx context.Context, id uuid.UUID) error

	CreateExpense(ctx context.Context, e *model.Expense) error
	GetExpense(ctx context.Context, id uuid.UUID) (*model.Expense, error)
	ListExpenses(ctx context.Context, page model.Page) ([]model.Expense, int64, error)
	ListExpensesByDateRange(ctx context.Context, from, to time.Time) ([]model.Expense, error)
	UpdateExpense(ctx context.Context, e *model.Expense) error
	DeleteExpense(ctx context.Context, id uuid.UUID) error

	CreateOrder(ctx context.Context, o *model.Order, pointsCost int64) error
	MutateOrder(ctx context.Context, id uuid.UUID, fn func(o *model.Order) error) (*model.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error)
	ListOrders(ctx context.Context, page model.Page) ([]model.Order, int64, error)
	ListOpenOrdersByHandler(ctx context.Context, handlerID uuid.UUID) ([]model.Order, error)
	ListOrdersByDateRange(ctx context.Context, from, to time.Time) ([]model.Order, error)
	ListCompletedOrders(ctx context.Context, from, to time.Time) ([]model.Order, error)
	DeleteOrder(ctx context.Context, id uuid.UUID) error

	DailyExpenses(ctx context.Context, from, to time.Time) ([]model.DailyAmount, error)
	DailyOrderCounts(ctx context.Context, from, to time.Time) ([]model.DailyCount, error)
	ServiceUsage(ctx context.Context) ([]model.ServiceUsage, error)
}

// Cache описывает кэш результатов аналитики.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any) error
}

// Service содержит бизнес-логику сервиса прачечной.
type Service struct {
	repo    Repository
	cache   Cache
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewService создаёт новый сервис. cache и m могут быть nil.
func NewService(repo Repository, cache Cache, m *metrics.Metrics) *Service {
	return &Service{
		repo:    repo,
		cache:   cache,
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// Ping проверяет доступность хранилища.
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// repoError переводит ошибку репозитория в класс ошибки API.
func repoError(err error, entity string) error {
	var ae *apperr.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &ae):
		return err
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound("%s not found or deleted", entity)
	case errors.Is(err, repository.ErrUsernameTaken):
		return apperr.Conflict("username already exists")
	case errors.Is(err, repository.ErrInsufficientPoints):
		return apperr.BusinessRule("insufficient points")
	default:
		return apperr.Server(err)
	}
}

// pricingError переводит ошибку расчёта стоимости в класс ошибки API.
func pricingError(err error) error {
	switch {
	case errors.Is(err, pricing.ErrDiscountExceedsTotal):
		return apperr.BusinessRule("discount exceeds order total")
	case errors.Is(err, pricing.ErrInvalidQuantity):
		return apperr.Validation("quantity must be at least 1")
	case errors.Is(err, pricing.ErrQuantityTooLarge):
		return apperr.Validation("quantity must not exceed %d", pricing.MaxQuantity)
	case errors.Is(err, pricing.ErrAmountTooLarge):
		return apperr.Validation("line total is too large")
	default:
		return apperr.Server(err)
	}
}

// NormalizePage приводит параметры постраничной выборки к допустимым значениям.
func NormalizePage(number, limit int) model.Page {
	if number < 1 {
		number = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return model.Page{Number: number, Limit: limit}
}
