package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/laundry-system/internal/model"
)

const customerColumns = `id, first_name, last_name, phone_number, address, points, created_at, updated_at`

func scanCustomer(row pgx.Row) (*model.Customer, error) {
	var c model.Customer
	err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Phone, &c.Address, &c.Points, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateCustomer сохраняет нового клиента.
func (r *PostgresRepository) CreateCustomer(ctx context.Context, c *model.Customer) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO customers (id, first_name, last_name, phone_number, address, points)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at, updated_at`,
		c.ID, c.FirstName, c.LastName, c.Phone, c.Address, c.Points,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create customer: %w", err)
	}
	return nil
}

// GetCustomer возвращает клиента по идентификатору.
func (r *PostgresRepository) GetCustomer(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	c, err := scanCustomer(r.pool.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id = $1 AND NOT is_deleted`, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

// ListCustomers возвращает страницу клиентов и их общее количество.
func (r *PostgresRepository) ListCustomers(ctx context.Context, page model.Page) ([]model.Customer, int64, error) {
	return r.queryCustomers(ctx, "NOT is_deleted", nil, page)
}

// SearchCustomers ищет клиентов по вхождению телефона и имени без учёта регистра.
func (r *PostgresRepository) SearchCustomers(ctx context.Context, f model.CustomerFilter, page model.Page) ([]model.Customer, int64, error) {
	conds := []string{"NOT is_deleted"}
	var args []any

	add := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, escapeLike(value))
		conds = append(conds, column+` ILIKE '%' || $`+strconv.Itoa(len(args))+` || '%'`)
	}
	add("phone_number", f.Phone)
	add("first_name", f.FirstName)
	add("last_name", f.LastName)

	return r.queryCustomers(ctx, strings.Join(conds, " AND "), args, page)
}

func (r *PostgresRepository) queryCustomers(ctx context.Context, where string, args []any, page model.Page) ([]model.Customer, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM customers WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}

	n := len(args)
	rows, err := r.pool.Query(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE `+where+
			` ORDER BY created_at DESC LIMIT $`+strconv.Itoa(n+1)+` OFFSET $`+strconv.Itoa(n+2),
		append(args, page.Limit, page.Offset())...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("select customers: %w", err)
	}
	defer rows.Close()

	customers := make([]model.Customer, 0, page.Limit)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows error: %w", err)
	}

	return customers, total, nil
}

// UpdateCustomer сохраняет изменённые поля клиента.
// Баланс баллов перезаписывается только при setPoints, иначе сохраняется текущее значение из БД,
// чтобы не затереть параллельное списание при создании заказа.
func (r *PostgresRepository) UpdateCustomer(ctx context.Context, c *model.Customer, setPoints bool) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE customers SET first_name = $2, last_name = $3, phone_number = $4, address = $5,
		        points = CASE WHEN $7 THEN $6 ELSE points END, updated_at = NOW()
		 WHERE id = $1 AND NOT is_deleted
		 RETURNING points, updated_at`,
		c.ID, c.FirstName, c.LastName, c.Phone, c.Address, c.Points, setPoints,
	).Scan(&c.Points, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update customer: %w", err)
	}
	return nil
}

// DeleteCustomer помечает клиента удалённым.
func (r *PostgresRepository) DeleteCustomer(ctx context.Context, id uuid.UUID) error {
	return r.softDelete(ctx, "customers", id)
}
