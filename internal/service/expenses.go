package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/laundry-system/internal/apperr"
	"github.com/mmeshcher/laundry-system/internal/model"
	"github.com/mmeshcher/laundry-system/internal/pricing"
)

// ExpenseInput описывает поля расхода; nil означает «не менять».
type ExpenseInput struct {
	Amount      *decimal.Decimal
	Date        *time.Time
	Description *string
}

func applyExpenseInput(e *model.Expense, in ExpenseInput) error {
	if in.Amount != nil {
		e.Amount = *in.Amount
	}
	if in.Date != nil {
		e.Date = in.Date.UTC()
	}
	if in.Description != nil {
		e.Description = *in.Description
	}

	if !e.Amount.IsPositive() {
		return apperr.Validation("amount must be positive")
	}
	if err := pricing.CheckAmount(e.Amount); err != nil {
		return apperr.Validation("amount is too large")
	}
	return nil
}

// CreateExpense сохраняет расход; без даты используется текущий момент.
func (s *Service) CreateExpense(ctx context.Context, in ExpenseInput) (*model.Expense, error) {
	e := &model.Expense{ID: uuid.New(), Date: s.now()}
	if err := applyExpenseInput(e, in); err != nil {
		return nil, err
	}

	if err := s.repo.CreateExpense(ctx, e); err != nil {
		return nil, repoError(err, "expense")
	}
	return e, nil
}

// GetExpense возвращает расход по идентификатору.
func (s *Service) GetExpense(ctx context.Context, id uuid.UUID) (*model.Expense, error) {
	e, err := s.repo.GetExpense(ctx, id)
	if err != nil {
		return nil, repoError(err, "expense")
	}
	return e, nil
}

// ListExpenses возвращает страницу расходов.
func (s *Service) ListExpenses(ctx context.Context, page model.Page) ([]model.Expense, model.Pagination, error) {
	expenses, total, err := s.repo.ListExpenses(ctx, page)
	if err != nil {
		return nil, model.Pagination{}, repoError(err, "expense")
	}
	return expenses, model.NewPagination(page, total), nil
}

// ListExpensesByDateRange возвращает расходы за интервал дат.
func (s *Service) ListExpensesByDateRange(ctx context.Context, start, end string) ([]model.Expense, error) {
	r, err := ParseDateRange(start, end, s.now())
	if err != nil {
		return nil, err
	}

	expenses, err := s.repo.ListExpensesByDateRange(ctx, r.From, r.To)
	if err != nil {
		return nil, repoError(err, "expense")
	}
	return expenses, nil
}

// UpdateExpense изменяет расход.
func (s *Service) UpdateExpense(ctx context.Context, id uuid.UUID, in ExpenseInput) (*model.Expense, error) {
	e, err := s.GetExpense(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyExpenseInput(e, in); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateExpense(ctx, e); err != nil {
		return nil, repoError(err, "expense")
	}
	return e, nil
}

// DeleteExpense помечает расход удалённым.
func (s *Service) DeleteExpense(ctx context.Context, id uuid.UUID) error {
	return repoError(s.repo.DeleteExpense(ctx, id), "expense")
}
