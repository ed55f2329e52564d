package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/laundry-system/internal/model"
)

const orderColumns = `id, customer_id, customer_first_name, customer_last_name, customer_phone_number, customer_address,
	handler_id, handler_username, handler_role,
	discount_id, discount_name, discount_type, discount_amount, discount_required_points,
	status, order_date, completed_on, is_deleted`

func scanOrder(row pgx.Row) (*model.Order, error) {
	var (
		o               model.Order
		handlerUsername *string
		handlerRole     *string
		discountName    *string
		discountType    *string
		discountAmount  *decimal.Decimal
		requiredPoints  *int64
	)

	err := row.Scan(
		&o.ID, &o.CustomerID, &o.Customer.FirstName, &o.Customer.LastName, &o.Customer.Phone, &o.Customer.Address,
		&o.HandlerID, &handlerUsername, &handlerRole,
		&o.DiscountID, &discountName, &discountType, &discountAmount, &requiredPoints,
		&o.Status, &o.OrderDate, &o.CompletedOn, &o.IsDeleted,
	)
	if err != nil {
		return nil, err
	}

	if o.HandlerID != nil && handlerUsername != nil && handlerRole != nil {
		o.Handler = &model.HandlerSnapshot{Username: *handlerUsername, Role: model.Role(*handlerRole)}
	}

	if o.DiscountID != nil && discountName != nil && discountType != nil && discountAmount != nil && requiredPoints != nil {
		o.Discount = &model.DiscountSnapshot{
			Name:           *discountName,
			Type:           model.DiscountType(*discountType),
			Amount:         *discountAmount,
			RequiredPoints: *requiredPoints,
		}
	}

	o.Lines = []model.OrderLine{}
	return &o, nil
}

// snapshotArgs раскладывает снимки исполнителя и скидки по колонкам.
func snapshotArgs(o *model.Order) (handlerUsername, handlerRole, discountName, discountType *string, discountAmount *decimal.Decimal, requiredPoints *int64) {
	if o.HandlerID != nil && o.Handler != nil {
		role := string(o.Handler.Role)
		handlerUsername, handlerRole = &o.Handler.Username, &role
	}
	if o.DiscountID != nil && o.Discount != nil {
		kind := string(o.Discount.Type)
		discountName, discountType = &o.Discount.Name, &kind
		discountAmount, requiredPoints = &o.Discount.Amount, &o.Discount.RequiredPoints
	}
	return
}

// CreateOrder атомарно списывает pointsCost баллов клиента и сохраняет заказ со строками.
// Строка клиента блокируется до конца транзакции, поэтому параллельные заказы одного клиента
// проверяют баланс последовательно.
func (r *PostgresRepository) CreateOrder(ctx context.Context, o *model.Order, pointsCost int64) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		var points int64
		err := tx.QueryRow(ctx,
			`SELECT points FROM customers WHERE id = $1 AND NOT is_deleted FOR UPDATE`, o.CustomerID,
		).Scan(&points)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("lock customer for update: %w", err)
		}

		if pointsCost > 0 {
			if points < pointsCost {
				return ErrInsufficientPoints
			}
			_, err = tx.Exec(ctx,
				`UPDATE customers SET points = points - $2, updated_at = NOW() WHERE id = $1`,
				o.CustomerID, pointsCost,
			)
			if err != nil {
				return fmt.Errorf("debit points: %w", err)
			}
		}

		hUser, hRole, dName, dType, dAmount, dPoints := snapshotArgs(o)
		_, err = tx.Exec(ctx,
			`INSERT INTO orders (id, customer_id, customer_first_name, customer_last_name, customer_phone_number, customer_address,
			                     handler_id, handler_username, handler_role,
			                     discount_id, discount_name, discount_type, discount_amount, discount_required_points,
			                     status, order_date, completed_on)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
			o.ID, o.CustomerID, o.Customer.FirstName, o.Customer.LastName, o.Customer.Phone, o.Customer.Address,
			o.HandlerID, hUser, hRole,
			o.DiscountID, dName, dType, dAmount, dPoints,
			string(o.Status), o.OrderDate, o.CompletedOn,
		)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		return insertLines(ctx, tx, o)
	})
}

func insertLines(ctx context.Context, q querier, o *model.Order) error {
	if len(o.Lines) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i, l := range o.Lines {
		batch.Queue(
			`INSERT INTO order_lines (order_id, service_id, position, service_name, service_unit, price_per_unit, quantity, line_total)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			o.ID, l.ServiceID, i, l.Service.Name, l.Service.Unit, l.Service.PricePerUnit, l.Quantity, l.LineTotal,
		)
	}

	if err := q.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert order lines: %w", err)
	}
	return nil
}

// MutateOrder блокирует заказ, передаёт его в fn и сохраняет результат в той же транзакции.
// Ошибка fn откатывает транзакцию и возвращается без изменений.
func (r *PostgresRepository) MutateOrder(ctx context.Context, id uuid.UUID, fn func(o *model.Order) error) (*model.Order, error) {
	var result *model.Order

	err := r.inTx(ctx, func(tx pgx.Tx) error {
		o, err := scanOrder(tx.QueryRow(ctx,
			`SELECT `+orderColumns+` FROM orders WHERE id = $1 AND NOT is_deleted FOR UPDATE`, id,
		))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("lock order for update: %w", err)
		}

		if err := attachLines(ctx, tx, []*model.Order{o}); err != nil {
			return err
		}

		if err := fn(o); err != nil {
			return err
		}

		hUser, hRole, dName, dType, dAmount, dPoints := snapshotArgs(o)
		_, err = tx.Exec(ctx,
			`UPDATE orders SET handler_id = $2, handler_username = $3, handler_role = $4,
			                   discount_id = $5, discount_name = $6, discount_type = $7, discount_amount = $8, discount_required_points = $9,
			                   status = $10, completed_on = $11, updated_at = NOW()
			 WHERE id = $1`,
			o.ID, o.HandlerID, hUser, hRole,
			o.DiscountID, dName, dType, dAmount, dPoints,
			string(o.Status), o.CompletedOn,
		)
		if err != nil {
			return fmt.Errorf("update order: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM order_lines WHERE order_id = $1`, o.ID); err != nil {
			return fmt.Errorf("delete order lines: %w", err)
		}
		if err := insertLines(ctx, tx, o); err != nil {
			return err
		}

		result = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetOrder возвращает заказ со строками.
func (r *PostgresRepository) GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1 AND NOT is_deleted`, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	if err := attachLines(ctx, r.pool, []*model.Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

// ListOrders возвращает страницу заказов и их общее количество.
func (r *PostgresRepository) ListOrders(ctx context.Context, page model.Page) ([]model.Order, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE NOT is_deleted`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	orders, err := r.queryOrders(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE NOT is_deleted
		 ORDER BY order_date DESC LIMIT $1 OFFSET $2`,
		page.Limit, page.Offset(),
	)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ListOpenOrdersByHandler возвращает незакрытые заказы исполнителя.
func (r *PostgresRepository) ListOpenOrdersByHandler(ctx context.Context, handlerID uuid.UUID) ([]model.Order, error) {
	return r.queryOrders(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE handler_id = $1 AND NOT is_deleted AND status NOT IN ($2, $3)
		 ORDER BY order_date DESC`,
		handlerID, string(model.OrderStatusCompleted), string(model.OrderStatusCancelled),
	)
}

// ListOrdersByDateRange возвращает заказы, созданные в интервале [from, to).
func (r *PostgresRepository) ListOrdersByDateRange(ctx context.Context, from, to time.Time) ([]model.Order, error) {
	return r.queryOrders(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE NOT is_deleted AND order_date >= $1 AND order_date < $2
		 ORDER BY order_date DESC`,
		from, to,
	)
}

// ListCompletedOrders возвращает заказы, завершённые в интервале [from, to).
func (r *PostgresRepository) ListCompletedOrders(ctx context.Context, from, to time.Time) ([]model.Order, error) {
	return r.queryOrders(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE NOT is_deleted AND status = $1 AND completed_on >= $2 AND completed_on < $3
		 ORDER BY completed_on`,
		string(model.OrderStatusCompleted), from, to,
	)
}

// DeleteOrder помечает заказ удалённым. Списанные баллы не возвращаются.
func (r *PostgresRepository) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET is_deleted = TRUE, updated_at = NOW() WHERE id = $1 AND NOT is_deleted`, id,
	)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) queryOrders(ctx context.Context, sql string, args ...any) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var ptrs []*model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		ptrs = append(ptrs, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	rows.Close()

	if err := attachLines(ctx, r.pool, ptrs); err != nil {
		return nil, err
	}

	orders := make([]model.Order, 0, len(ptrs))
	for _, o := range ptrs {
		orders = append(orders, *o)
	}
	return orders, nil
}

// attachLines загружает строки всех заказов одним запросом.
func attachLines(ctx context.Context, q querier, orders []*model.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]string, 0, len(orders))
	byID := make(map[uuid.UUID]*model.Order, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID.String())
		byID[o.ID] = o
	}

	rows, err := q.Query(ctx,
		`SELECT order_id, service_id, service_name, service_unit, price_per_unit, quantity, line_total
		 FROM order_lines WHERE order_id = ANY($1::uuid[])
		 ORDER BY order_id, position`,
		ids,
	)
	if err != nil {
		return fmt.Errorf("select order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID uuid.UUID
			l       model.OrderLine
		)
		err := rows.Scan(&orderID, &l.ServiceID, &l.Service.Name, &l.Service.Unit, &l.Service.PricePerUnit, &l.Quantity, &l.LineTotal)
		if err != nil {
			return fmt.Errorf("scan order line: %w", err)
		}
		if o, ok := byID[orderID]; ok {
			o.Lines = append(o.Lines, l)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows error: %w", err)
	}
	return nil
}
