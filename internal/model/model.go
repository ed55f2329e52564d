// Package model содержит доменные сущности сервиса прачечной.
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Role описывает роль сотрудника.
type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"
)

// Valid сообщает, является ли роль допустимой.
func (r Role) Valid() bool {
	switch r {
	case RoleEmployee, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// Privileged сообщает, может ли роль назначать исполнителей и менять заказы целиком.
func (r Role) Privileged() bool {
	return r == RoleAdmin || r == RoleManager
}

// UserStatus описывает статус учётной записи сотрудника.
type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)

// Principal описывает аутентифицированного вызывающего.
type Principal struct {
	ID       uuid.UUID
	Username string
	Role     Role
}

// IsAdmin сообщает, является ли вызывающий администратором.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// User представляет сотрудника прачечной.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Username     string     `json:"username"`
	Role         Role       `json:"role"`
	Status       UserStatus `json:"status"`
	Phone        *string    `json:"phoneNumber,omitempty"`
	PasswordHash []byte     `json:"-"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Customer представляет клиента с балансом баллов лояльности.
type Customer struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Phone     *string   `json:"phoneNumber,omitempty"`
	Address   string    `json:"address"`
	Points    int64     `json:"points"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Service описывает услугу из каталога.
type Service struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	Unit         string          `json:"unit"`
	PricePerUnit decimal.Decimal `json:"pricePerUnit"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// DiscountType описывает способ расчёта скидки.
type DiscountType string

const (
	DiscountPercent DiscountType = "percent"
	DiscountFixed   DiscountType = "fixed"
)

// Valid сообщает, является ли тип скидки допустимым.
func (t DiscountType) Valid() bool {
	return t == DiscountPercent || t == DiscountFixed
}

// Discount описывает скидку, которую клиент получает за баллы.
type Discount struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	RequiredPoints int64           `json:"requiredPoints"`
	Type           DiscountType    `json:"discountType"`
	Amount         decimal.Decimal `json:"amount"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// Expense описывает расход прачечной.
type Expense struct {
	ID          uuid.UUID       `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"expenseDate"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// OrderStatus описывает статус заказа.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Valid сообщает, является ли статус допустимым.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// Closed сообщает, закрыт ли заказ.
func (s OrderStatus) Closed() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// CustomerSnapshot хранит данные клиента на момент создания заказа.
type CustomerSnapshot struct {
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Phone     *string `json:"phoneNumber,omitempty"`
	Address   string  `json:"address"`
}

// HandlerSnapshot хранит данные исполнителя на момент назначения.
type HandlerSnapshot struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// DiscountSnapshot хранит параметры скидки на момент применения.
type DiscountSnapshot struct {
	Name           string          `json:"name"`
	Type           DiscountType    `json:"discountType"`
	Amount         decimal.Decimal `json:"amount"`
	RequiredPoints int64           `json:"requiredPoints"`
}

// ServiceSnapshot хранит данные услуги на момент добавления строки.
type ServiceSnapshot struct {
	Name         string          `json:"name"`
	Unit         string          `json:"unit"`
	PricePerUnit decimal.Decimal `json:"pricePerUnit"`
}

// OrderLine описывает строку заказа.
type OrderLine struct {
	ServiceID uuid.UUID       `json:"serviceId"`
	Service   ServiceSnapshot `json:"service"`
	Quantity  int64           `json:"quantity"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// Order описывает заказ со встроенными снимками связанных сущностей.
type Order struct {
	ID          uuid.UUID         `json:"id"`
	CustomerID  uuid.UUID         `json:"customerId"`
	Customer    CustomerSnapshot  `json:"customer"`
	HandlerID   *uuid.UUID        `json:"handlerId"`
	Handler     *HandlerSnapshot  `json:"handler"`
	DiscountID  *uuid.UUID        `json:"discountId"`
	Discount    *DiscountSnapshot `json:"discount"`
	Lines       []OrderLine       `json:"lines"`
	Status      OrderStatus       `json:"status"`
	OrderDate   time.Time         `json:"orderDate"`
	CompletedOn *time.Time        `json:"completedOn"`
	IsDeleted   bool              `json:"-"`
}

// LineIndex возвращает индекс строки с указанной услугой или -1.
func (o *Order) LineIndex(serviceID uuid.UUID) int {
	for i, l := range o.Lines {
		if l.ServiceID == serviceID {
			return i
		}
	}
	return -1
}

// SetStatus переводит заказ в новый статус и поддерживает дату завершения.
func (o *Order) SetStatus(status OrderStatus, now time.Time) {
	if status == OrderStatusCompleted {
		if o.Status != OrderStatusCompleted || o.CompletedOn == nil {
			completed := now
			if completed.Before(o.OrderDate) {
				completed = o.OrderDate
			}
			o.CompletedOn = &completed
		}
	} else {
		o.CompletedOn = nil
	}
	o.Status = status
}

// Page описывает параметры постраничной выборки.
type Page struct {
	Number int
	Limit  int
}

// Offset возвращает смещение для выборки.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

// Pagination описывает метаданные постраничного ответа.
type Pagination struct {
	Total      int64 `json:"totalRecords"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int64 `json:"totalPages"`
}

// NewPagination рассчитывает метаданные постраничного ответа.
func NewPagination(p Page, total int64) Pagination {
	pages := int64(0)
	if p.Limit > 0 {
		pages = (total + int64(p.Limit) - 1) / int64(p.Limit)
	}
	return Pagination{Total: total, Page: p.Number, Limit: p.Limit, TotalPages: pages}
}

// DailyAmount описывает сумму за день.
type DailyAmount struct {
	Day    string
	Amount decimal.Decimal
}

// DailyCount описывает количество за день.
type DailyCount struct {
	Day   string `json:"date"`
	Count int64  `json:"count"`
}

// ServiceUsage описывает агрегат по услуге для аналитики популярности.
type ServiceUsage struct {
	ServiceName string          `json:"serviceName"`
	Revenue     decimal.Decimal `json:"totalRevenue"`
	Quantity    int64           `json:"totalQuantity"`
}

// CustomerFilter описывает условия поиска клиентов; пустые поля не участвуют в отборе.
type CustomerFilter struct {
	Phone     string
	FirstName string
	LastName  string
}

// Empty сообщает, что ни одно условие не задано.
func (f CustomerFilter) Empty() bool {
	return f.Phone == "" && f.FirstName == "" && f.LastName == ""
}

// Money описывает денежную сумму, которая сериализуется строкой с двумя знаками после запятой.
type Money struct {
	decimal.Decimal
}

// NewMoney округляет сумму до копеек.
func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d.Round(2)}
}

// MarshalJSON сериализует сумму строкой вида "45.00".
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.StringFixed(2) + `"`), nil
}
