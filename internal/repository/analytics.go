package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/mmeshcher/laundry-system/internal/model"
)

// DailyExpenses возвращает суммы расходов по дням (UTC) в интервале [from, to).
func (r *PostgresRepository) DailyExpenses(ctx context.Context, from, to time.Time) ([]model.DailyAmount, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT to_char(expense_date AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day, SUM(amount)
		 FROM expenses
		 WHERE NOT is_deleted AND expense_date >= $1 AND expense_date < $2
		 GROUP BY day ORDER BY day`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("select daily expenses: %w", err)
	}
	defer rows.Close()

	var res []model.DailyAmount
	for rows.Next() {
		var d model.DailyAmount
		if err := rows.Scan(&d.Day, &d.Amount); err != nil {
			return nil, fmt.Errorf("scan daily expense: %w", err)
		}
		res = append(res, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return res, nil
}

// DailyOrderCounts возвращает количество созданных заказов по дням (UTC) в интервале [from, to).
func (r *PostgresRepository) DailyOrderCounts(ctx context.Context, from, to time.Time) ([]model.DailyCount, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT to_char(order_date AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day, COUNT(*)
		 FROM orders
		 WHERE NOT is_deleted AND order_date >= $1 AND order_date < $2
		 GROUP BY day ORDER BY day`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("select daily orders: %w", err)
	}
	defer rows.Close()

	var res []model.DailyCount
	for rows.Next() {
		var d model.DailyCount
		if err := rows.Scan(&d.Day, &d.Count); err != nil {
			return nil, fmt.Errorf("scan daily orders: %w", err)
		}
		res = append(res, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return res, nil
}

// ServiceUsage возвращает суммарную выручку и количество по названиям услуг из строк заказов.
func (r *PostgresRepository) ServiceUsage(ctx context.Context) ([]model.ServiceUsage, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT l.service_name, SUM(l.line_total), SUM(l.quantity)
		 FROM order_lines l
		 JOIN orders o ON o.id = l.order_id
		 WHERE NOT o.is_deleted
		 GROUP BY l.service_name`,
	)
	if err != nil {
		return nil, fmt.Errorf("select service usage: %w", err)
	}
	defer rows.Close()

	var res []model.ServiceUsage
	for rows.Next() {
		var u model.ServiceUsage
		if err := rows.Scan(&u.ServiceName, &u.Revenue, &u.Quantity); err != nil {
			return nil, fmt.Errorf("scan service usage: %w", err)
		}
		res = append(res, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return res, nil
}
