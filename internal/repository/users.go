package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/laundry-system/internal/model"
)

const userColumns = `id, username, password_hash, role, status, phone_number, created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.Status, &u.Phone, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser сохраняет нового сотрудника.
func (r *PostgresRepository) CreateUser(ctx context.Context, u *model.User) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (id, username, password_hash, role, status, phone_number)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at, updated_at`,
		u.ID, u.Username, u.PasswordHash, string(u.Role), string(u.Status), u.Phone,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrUsernameTaken, u.Username)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetUser возвращает сотрудника по идентификатору.
func (r *PostgresRepository) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 AND NOT is_deleted`, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// GetUserByUsername возвращает сотрудника по имени пользователя.
func (r *PostgresRepository) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1 AND NOT is_deleted`, username,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return u, nil
}

// ListUsers возвращает страницу сотрудников и их общее количество.
func (r *PostgresRepository) ListUsers(ctx context.Context, page model.Page) ([]model.User, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE NOT is_deleted`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE NOT is_deleted
		 ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		page.Limit, page.Offset(),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("select users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0, page.Limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows error: %w", err)
	}

	return users, total, nil
}

// UpdateUser сохраняет изменённые поля сотрудника.
func (r *PostgresRepository) UpdateUser(ctx context.Context, u *model.User) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE users SET username = $2, password_hash = $3, role = $4, status = $5, phone_number = $6, updated_at = NOW()
		 WHERE id = $1 AND NOT is_deleted
		 RETURNING updated_at`,
		u.ID, u.Username, u.PasswordHash, string(u.Role), string(u.Status), u.Phone,
	).Scan(&u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrUsernameTaken, u.Username)
		}
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// DeleteUser помечает сотрудника удалённым.
func (r *PostgresRepository) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return r.softDelete(ctx, "users", id)
}

// softDelete помечает строку таблицы удалённой; table передаётся только из констант пакета.
func (r *PostgresRepository) softDelete(ctx context.Context, table string, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE `+table+` SET is_deleted = TRUE, updated_at = NOW() WHERE id = $1 AND NOT is_deleted`, id,
	)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
