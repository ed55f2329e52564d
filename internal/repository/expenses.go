package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/laundry-system/internal/model"
)

const expenseColumns = `id, amount, expense_date, description, created_at, updated_at`

func scanExpense(row pgx.Row) (*model.Expense, error) {
	var e model.Expense
	if err := row.Scan(&e.ID, &e.Amount, &e.Date, &e.Description, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

func collectExpenses(rows pgx.Rows) ([]model.Expense, error) {
	defer rows.Close()

	var expenses []model.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, *e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return expenses, nil
}

// CreateExpense сохраняет новый расход.
func (r *PostgresRepository) CreateExpense(ctx context.Context, e *model.Expense) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO expenses (id, amount, expense_date, description) VALUES ($1, $2, $3, $4)
		 RETURNING created_at, updated_at`,
		e.ID, e.Amount, e.Date, e.Description,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create expense: %w", err)
	}
	return nil
}

// GetExpense возвращает расход по идентификатору.
func (r *PostgresRepository) GetExpense(ctx context.Context, id uuid.UUID) (*model.Expense, error) {
	e, err := scanExpense(r.pool.QueryRow(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = $1 AND NOT is_deleted`, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

// ListExpenses возвращает страницу расходов и их общее количество.
func (r *PostgresRepository) ListExpenses(ctx context.Context, page model.Page) ([]model.Expense, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM expenses WHERE NOT is_deleted`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count expenses: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE NOT is_deleted
		 ORDER BY expense_date DESC LIMIT $1 OFFSET $2`,
		page.Limit, page.Offset(),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("select expenses: %w", err)
	}

	expenses, err := collectExpenses(rows)
	if err != nil {
		return nil, 0, err
	}
	return expenses, total, nil
}

// ListExpensesByDateRange возвращает расходы в интервале [from, to).
func (r *PostgresRepository) ListExpensesByDateRange(ctx context.Context, from, to time.Time) ([]model.Expense, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+expenseColumns+` FROM expenses
		 WHERE NOT is_deleted AND expense_date >= $1 AND expense_date < $2
		 ORDER BY expense_date`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("select expenses by date: %w", err)
	}
	return collectExpenses(rows)
}

// UpdateExpense сохраняет изменённые поля расхода.
func (r *PostgresRepository) UpdateExpense(ctx context.Context, e *model.Expense) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE expenses SET amount = $2, expense_date = $3, description = $4, updated_at = NOW()
		 WHERE id = $1 AND NOT is_deleted
		 RETURNING updated_at`,
		e.ID, e.Amount, e.Date, e.Description,
	).Scan(&e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update expense: %w", err)
	}
	return nil
}

// DeleteExpense помечает расход удалённым.
func (r *PostgresRepository) DeleteExpense(ctx context.Context, id uuid.UUID) error {
	return r.softDelete(ctx, "expenses", id)
}
