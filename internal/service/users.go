package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/laundry-system/internal/apperr"
	"github.com/mmeshcher/laundry-system/internal/model"
	"github.com/mmeshcher/laundry-system/internal/repository"
)

// ErrInvalidCredentials возвращается при неверном имени пользователя или пароле.
var ErrInvalidCredentials = errors.New("invalid credentials")

// CreateUserInput описывает нового сотрудника.
type CreateUserInput struct {
	Username string
	Password string
	Role     model.Role
	Phone    *string
}

// UpdateUserInput описывает изменяемые поля сотрудника; nil означает «не менять».
type UpdateUserInput struct {
	Username *string
	Password *string
	Role     *model.Role
	Status   *model.UserStatus
	Phone    *string
}

func hashPassword(password string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

// Login проверяет имя пользователя и пароль активного сотрудника.
func (s *Service) Login(ctx context.Context, username, password string) (*model.User, error) {
	u, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, apperr.Server(err)
	}

	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if u.Status != model.UserStatusActive {
		return nil, ErrInvalidCredentials
	}

	return u, nil
}

// EnsureAdmin создаёт администратора с указанными учётными данными, если такого пользователя ещё нет.
// Возвращает true, если администратор был создан.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	if username == "" || password == "" {
		return false, nil
	}

	_, err := s.repo.GetUserByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return false, err
	}

	hash, err := hashPassword(password)
	if err != nil {
		return false, err
	}

	u := &model.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		Status:       model.UserStatusActive,
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// CreateUser создаёт сотрудника. Назначить роль администратора может только администратор.
func (s *Service) CreateUser(ctx context.Context, caller model.Principal, in CreateUserInput) (*model.User, error) {
	if !in.Role.Valid() {
		return nil, apperr.Validation("invalid role %q", in.Role)
	}
	if in.Role == model.RoleAdmin && !caller.IsAdmin() {
		return nil, apperr.Authorization("only an admin can create admin users")
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, apperr.Server(err)
	}

	u := &model.User{
		ID:           uuid.New(),
		Username:     in.Username,
		PasswordHash: hash,
		Role:         in.Role,
		Status:       model.UserStatusActive,
		Phone:        in.Phone,
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, repoError(err, "user")
	}
	return u, nil
}

// GetUser возвращает сотрудника по идентификатору.
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return nil, repoError(err, "user")
	}
	return u, nil
}

// ListUsers возвращает страницу сотрудников.
func (s *Service) ListUsers(ctx context.Context, page model.Page) ([]model.User, model.Pagination, error) {
	users, total, err := s.repo.ListUsers(ctx, page)
	if err != nil {
		return nil, model.Pagination{}, repoError(err, "user")
	}
	return users, model.NewPagination(page, total), nil
}

// UpdateUser изменяет сотрудника. Администратор меняет любого сотрудника,
// остальные только себя и без смены роли и статуса.
func (s *Service) UpdateUser(ctx context.Context, caller model.Principal, id uuid.UUID, in UpdateUserInput) (*model.User, error) {
	if !caller.IsAdmin() {
		if caller.ID != id {
			return nil, apperr.Authorization("not allowed to update another user")
		}
		if in.Role != nil || in.Status != nil {
			return nil, apperr.Authorization("only an admin can change role or status")
		}
	}

	u, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return nil, repoError(err, "user")
	}

	if in.Username != nil {
		u.Username = *in.Username
	}
	if in.Password != nil {
		hash, err := hashPassword(*in.Password)
		if err != nil {
			return nil, apperr.Server(err)
		}
		u.PasswordHash = hash
	}
	if in.Role != nil {
		if !in.Role.Valid() {
			return nil, apperr.Validation("invalid role %q", *in.Role)
		}
		u.Role = *in.Role
	}
	if in.Status != nil {
		if *in.Status != model.UserStatusActive && *in.Status != model.UserStatusSuspended {
			return nil, apperr.Validation("invalid status %q", *in.Status)
		}
		u.Status = *in.Status
	}
	if in.Phone != nil {
		u.Phone = in.Phone
	}

	if err := s.repo.UpdateUser(ctx, u); err != nil {
		return nil, repoError(err, "user")
	}
	return u, nil
}

// DeleteUser помечает сотрудника удалённым. Администратор не может удалить сам себя.
func (s *Service) DeleteUser(ctx context.Context, caller model.Principal, id uuid.UUID) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	if caller.ID == id {
		return apperr.BusinessRule("cannot delete yourself")
	}
	return repoError(s.repo.DeleteUser(ctx, id), "user")
}
