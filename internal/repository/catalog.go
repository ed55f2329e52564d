package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/laundry-system/internal/model"
)

const (
	serviceColumns  = `id, name, unit, price_per_unit, created_at, updated_at`
	discountColumns = `id, name, required_points, discount_type, amount, created_at, updated_at`
)

func scanService(row pgx.Row) (*model.Service, error) {
	var s model.Service
	if err := row.Scan(&s.ID, &s.Name, &s.Unit, &s.PricePerUnit, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func scanDiscount(row pgx.Row) (*model.Discount, error) {
	var d model.Discount
	if err := row.Scan(&d.ID, &d.Name, &d.RequiredPoints, &d.Type, &d.Amount, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

// CreateService добавляет услугу в каталог.
func (r *PostgresRepository) CreateService(ctx context.Context, s *model.Service) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO services (id, name, unit, price_per_unit) VALUES ($1, $2, $3, $4)
		 RETURNING created_at, updated_at`,
		s.ID, s.Name, s.Unit, s.PricePerUnit,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}
	return nil
}

// GetService возвращает услугу по идентификатору.
func (r *PostgresRepository) GetService(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	s, err := scanService(r.pool.QueryRow(ctx,
		`SELECT `+serviceColumns+` FROM services WHERE id = $1 AND NOT is_deleted`, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get service: %w", err)
	}
	return s, nil
}

// ListServices возвращает услуги каталога; непустой name отбирает услуги по вхождению в название.
func (r *PostgresRepository) ListServices(ctx context.Context, name string) ([]model.Service, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+serviceColumns+` FROM services
		 WHERE NOT is_deleted AND ($1 = '' OR name ILIKE '%' || $1 || '%')
		 ORDER BY name`,
		escapeLike(name),
	)
	if err != nil {
		return nil, fmt.Errorf("select services: %w", err)
	}
	defer rows.Close()

	var services []model.Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		services = append(services, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return services, nil
}

// UpdateService сохраняет изменённые поля услуги. Снимки в существующих заказах не меняются.
func (r *PostgresRepository) UpdateService(ctx context.Context, s *model.Service) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE services SET name = $2, unit = $3, price_per_unit = $4, updated_at = NOW()
		 WHERE id = $1 AND NOT is_deleted
		 RETURNING updated_at`,
		s.ID, s.Name, s.Unit, s.PricePerUnit,
	).Scan(&s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update service: %w", err)
	}
	return nil
}

// DeleteService помечает услугу удалённой.
func (r *PostgresRepository) DeleteService(ctx context.Context, id uuid.UUID) error {
	return r.softDelete(ctx, "services", id)
}

// CreateDiscount сохраняет новую скидку.
func (r *PostgresRepository) CreateDiscount(ctx context.Context, d *model.Discount) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO discounts (id, name, required_points, discount_type, amount) VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at, updated_at`,
		d.ID, d.Name, d.RequiredPoints, string(d.Type), d.Amount,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create discount: %w", err)
	}
	return nil
}

// GetDiscount возвращает скидку по идентификатору.
func (r *PostgresRepository) GetDiscount(ctx context.Context, id uuid.UUID) (*model.Discount, error) {
	d, err := scanDiscount(r.pool.QueryRow(ctx,
		`SELECT `+discountColumns+` FROM discounts WHERE id = $1 AND NOT is_deleted`, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get discount: %w", err)
	}
	return d, nil
}

// ListDiscounts возвращает все действующие скидки.
func (r *PostgresRepository) ListDiscounts(ctx context.Context) ([]model.Discount, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+discountColumns+` FROM discounts WHERE NOT is_deleted ORDER BY required_points, name`,
	)
	if err != nil {
		return nil, fmt.Errorf("select discounts: %w", err)
	}
	defer rows.Close()

	var discounts []model.Discount
	for rows.Next() {
		d, err := scanDiscount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan discount: %w", err)
		}
		discounts = append(discounts, *d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return discounts, nil
}

// UpdateDiscount сохраняет изменённые поля скидки.
func (r *PostgresRepository) UpdateDiscount(ctx context.Context, d *model.Discount) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE discounts SET name = $2, required_points = $3, discount_type = $4, amount = $5, updated_at = NOW()
		 WHERE id = $1 AND NOT is_deleted
		 RETURNING updated_at`,
		d.ID, d.Name, d.RequiredPoints, string(d.Type), d.Amount,
	).Scan(&d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update discount: %w", err)
	}
	return nil
}

// DeleteDiscount помечает скидку удалённой.
func (r *PostgresRepository) DeleteDiscount(ctx context.Context, id uuid.UUID) error {
	return r.softDelete(ctx, "discounts", id)
}
