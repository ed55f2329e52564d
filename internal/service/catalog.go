package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/laundry-system/internal/apperr"
	"github.com/mmeshcher/laundry-system/internal/model"
	"github.com/mmeshcher/laundry-system/internal/pricing"
)

// ServiceInput описывает поля услуги; nil означает «не менять».
type ServiceInput struct {
	Name         *string
	Unit         *string
	PricePerUnit *decimal.Decimal
}

// DiscountInput описывает поля скидки; nil означает «не менять».
type DiscountInput struct {
	Name           *string
	RequiredPoints *int64
	Type           *model.DiscountType
	Amount         *decimal.Decimal
}

func applyServiceInput(svc *model.Service, in ServiceInput) error {
	if in.Name != nil {
		svc.Name = *in.Name
	}
	if in.Unit != nil {
		svc.Unit = *in.Unit
	}
	if in.PricePerUnit != nil {
		svc.PricePerUnit = *in.PricePerUnit
	}

	if strings.TrimSpace(svc.Name) == "" || strings.TrimSpace(svc.Unit) == "" {
		return apperr.Validation("name and unit are required")
	}
	if !svc.PricePerUnit.IsPositive() {
		return apperr.Validation("pricePerUnit must be positive")
	}
	if err := pricing.CheckAmount(svc.PricePerUnit); err != nil {
		return apperr.Validation("pricePerUnit is too large")
	}
	return nil
}

// CreateService добавляет услугу в каталог.
func (s *Service) CreateService(ctx context.Context, in ServiceInput) (*model.Service, error) {
	svc := &model.Service{ID: uuid.New()}
	if err := applyServiceInput(svc, in); err != nil {
		return nil, err
	}

	if err := s.repo.CreateService(ctx, svc); err != nil {
		return nil, repoError(err, "service")
	}
	return svc, nil
}

// GetService возвращает услугу по идентификатору.
func (s *Service) GetService(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	return s.resolveService(ctx, id)
}

// ListServices возвращает услуги каталога, отобранные по вхождению в название.
func (s *Service) ListServices(ctx context.Context, name string) ([]model.Service, error) {
	services, err := s.repo.ListServices(ctx, strings.TrimSpace(name))
	if err != nil {
		return nil, repoError(err, "service")
	}
	return services, nil
}

// UpdateService изменяет услугу. Снимки услуги в существующих заказах остаются прежними.
func (s *Service) UpdateService(ctx context.Context, id uuid.UUID, in ServiceInput) (*model.Service, error) {
	svc, err := s.resolveService(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyServiceInput(svc, in); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateService(ctx, svc); err != nil {
		return nil, repoError(err, "service")
	}
	return svc, nil
}

// DeleteService помечает услугу удалённой.
func (s *Service) DeleteService(ctx context.Context, id uuid.UUID) error {
	return repoError(s.repo.DeleteService(ctx, id), "service")
}

func applyDiscountInput(d *model.Discount, in DiscountInput) error {
	if in.Name != nil {
		d.Name = *in.Name
	}
	if in.RequiredPoints != nil {
		d.RequiredPoints = *in.RequiredPoints
	}
	if in.Type != nil {
		d.Type = *in.Type
	}
	if in.Amount != nil {
		d.Amount = *in.Amount
	}

	if strings.TrimSpace(d.Name) == "" {
		return apperr.Validation("name is required")
	}
	if d.RequiredPoints < 0 {
		return apperr.Validation("requiredPoints must be greater than or equal to 0")
	}
	if _, err := pricing.NewDiscount(d.Type, d.Amount); err != nil {
		return apperr.Validation("%s", err.Error())
	}
	if err := pricing.CheckAmount(d.Amount); err != nil {
		return apperr.Validation("amount is too large")
	}
	return nil
}

// CreateDiscount создаёт скидку.
func (s *Service) CreateDiscount(ctx context.Context, in DiscountInput) (*model.Discount, error) {
	d := &model.Discount{ID: uuid.New()}
	if err := applyDiscountInput(d, in); err != nil {
		return nil, err
	}

	if err := s.repo.CreateDiscount(ctx, d); err != nil {
		return nil, repoError(err, "discount")
	}
	return d, nil
}

// GetDiscount возвращает скидку по идентификатору.
func (s *Service) GetDiscount(ctx context.Context, id uuid.UUID) (*model.Discount, error) {
	return s.resolveDiscount(ctx, id)
}

// ListDiscounts возвращает действующие скидки.
func (s *Service) ListDiscounts(ctx context.Context) ([]model.Discount, error) {
	discounts, err := s.repo.ListDiscounts(ctx)
	if err != nil {
		return nil, repoError(err, "discount")
	}
	return discounts, nil
}

// UpdateDiscount изменяет скидку. Снимки скидки в существующих заказах остаются прежними.
func (s *Service) UpdateDiscount(ctx context.Context, id uuid.UUID, in DiscountInput) (*model.Discount, error) {
	d, err := s.resolveDiscount(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyDiscountInput(d, in); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateDiscount(ctx, d); err != nil {
		return nil, repoError(err, "discount")
	}
	return d, nil
}

// DeleteDiscount помечает скидку удалённой.
func (s *Service) DeleteDiscount(ctx context.Context, id uuid.UUID) error {
	return repoError(s.repo.DeleteDiscount(ctx, id), "discount")
}
