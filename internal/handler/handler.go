// Package handler содержит HTTP-обработчики API сервиса прачечной.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/laundry-system/internal/apperr"
	"github.com/mmeshcher/laundry-system/internal/middleware"
	"github.com/mmeshcher/laundry-system/internal/model"
	"github.com/mmeshcher/laundry-system/internal/service"
	"github.com/mmeshcher/laundry-system/internal/validation"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	Ping(ctx context.Context) error

	Login(ctx context.Context, username, password string) (*model.User, error)
	CreateUser(ctx context.Context, caller model.Principal, in service.CreateUserInput) (*model.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	ListUsers(ctx context.Context, page model.Page) ([]model.User, model.Pagination, error)
	UpdateUser(ctx context.Context, caller model.Principal, id uuid.UUID, in service.UpdateUserInput) (*model.User, error)
	DeleteUser(ctx context.Context, caller model.Principal, id uuid.UUID) error

	CreateCustomer(ctx context.Context, in service.CustomerInput) (*model.Customer, error)
	GetCustomer(ctx context.Context, id uuid.UUID) (*model.Customer, error)
	ListCustomers(ctx context.Context, page model.Page) ([]model.Customer, model.Pagination, error)
	SearchCustomers(ctx context.Context, f model.CustomerFilter, page model.Page) ([]model.Customer, model.Pagination, error)
	UpdateCustomer(ctx context.Context, id uuid.UUID, in service.UpdateCustomerInput) (*model.Customer, error)
	DeleteCustomer(ctx context.Context, id uuid.UUID) error

	CreateService(ctx context.Context, in service.ServiceInput) (*model.Service, error)
	GetService(ctx context.Context, id uuid.UUID) (*model.Service, error)
	ListServices(ctx context.Context, name string) ([]model.Service, error)
	UpdateService(ctx context.Context, id uuid.UUID, in service.ServiceInput) (*model.Service, error)
	DeleteService(ctx context.Context, id uuid.UUID) error

	CreateDiscount(ctx context.Context, in service.DiscountInput) (*model.Discount, error)
	GetDiscount(ctx context.Context, id uuid.UUID) (*model.Discount, error)
	ListDiscounts(ctx context.Context) ([]model.Discount, error)
	UpdateDiscount(ctx context.Context, id uuid.UUID, in service.DiscountInput) (*model.Discount, error)
	DeleteDiscount(ctx context.Context, id uuid.UUID) error

	CreateExpense(ctx context.Context, in service.ExpenseInput) (*model.Expense, error)
	GetExpense(ctx context.Context, id uuid.UUID) (*model.Expense, error)
	ListExpenses(ctx context.Context, page model.Page) ([]model.Expense, model.Pagination, error)
	ListExpensesByDateRange(ctx context.Context, start, end string) ([]model.Expense, error)
	UpdateExpense(ctx context.Context, id uuid.UUID, in service.ExpenseInput) (*model.Expense, error)
	DeleteExpense(ctx context.Context, id uuid.UUID) error

	CreateOrder(ctx context.Context, caller model.Principal, in service.CreateOrderInput) (*service.OrderDetails, error)
	UpdateOrderStatus(ctx context.Context, caller model.Principal, id uuid.UUID, status model.OrderStatus) (*service.OrderDetails, error)
	UpdateOrder(ctx context.Context, caller model.Principal, id uuid.UUID, in service.UpdateOrderInput) (*service.OrderDetails, error)
	AddOrderLine(ctx context.Context, caller model.Principal, id uuid.UUID, line service.LineInput) (*service.OrderDetails, error)
	UpdateOrderLine(ctx context.Context, caller model.Principal, id, serviceID uuid.UUID, quantity int64) (*service.OrderDetails, error)
	RemoveOrderLine(ctx context.Context, caller model.Principal, id, serviceID uuid.UUID) (*service.OrderDetails, error)
	DeleteOrder(ctx context.Context, caller model.Principal, id uuid.UUID) error
	GetOrder(ctx context.Context, id uuid.UUID) (*service.OrderDetails, error)
	ListOrders(ctx context.Context, caller model.Principal, page model.Page) ([]service.OrderDetails, model.Pagination, error)
	ListCurrentOrders(ctx context.Context, caller model.Principal, handlerID uuid.UUID) ([]service.OrderDetails, error)
	ListOrdersByDateRange(ctx context.Context, caller model.Principal, start, end string) ([]service.OrderDetails, error)

	FinancialSummary(ctx context.Context, start, end string) (*service.FinancialSummary, error)
	TrafficSummary(ctx context.Context, start, end string) (*service.TrafficSummary, error)
	ServicePopularity(ctx context.Context, metric service.PopularityMetric) ([]model.ServiceUsage, error)
}

// Handler реализует HTTP-обработчики API сервиса прачечной.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
	metrics        http.Handler
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
// metricsHandler отдаёт метрики Prometheus; nil отключает маршрут /metrics.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware, metricsHandler http.Handler) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
		metrics:        metricsHandler,
	}
}

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

type listResponse[T any] struct {
	Data       []T               `json:"data"`
	Pagination *model.Pagination `json:"pagination,omitempty"`
}

func newList[T any](items []T, p *model.Pagination) listResponse[T] {
	if items == nil {
		items = []T{}
	}
	return listResponse[T]{Data: items, Pagination: p}
}

func statusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation, apperr.KindBusinessRule:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindAuthorization:
		return http.StatusForbidden
	case apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response error", zap.Error(err))
	}
}

// writeError отвечает клиенту классом и сообщением ошибки. Внутренние ошибки пишутся в журнал
// и не раскрываются клиенту.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindServer {
		h.logger.Error("request failed",
			zap.Error(err),
			zap.String("method", r.Method),
			zap.String("uri", r.RequestURI),
		)
	}

	h.writeJSON(w, statusOf(kind), errorResponse{Error: errorBody{
		Kind:    kind.String(),
		Message: apperr.MessageOf(err),
	}})
}

// decode читает тело запроса в JSON и проверяет его по тегам validate.
func decode(r *http.Request, dst any) error {
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("request body is required")
		}
		return apperr.Validation("invalid request body")
	}
	return validation.Struct(dst)
}

func principal(r *http.Request) model.Principal {
	p, _ := middleware.PrincipalFromContext(r.Context())
	return p
}

func pathID(r *http.Request, param, name string) (uuid.UUID, error) {
	return validation.ParseID(name, chi.URLParam(r, param))
}

func pageFromQuery(r *http.Request) model.Page {
	q := r.URL.Query()
	number, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return service.NormalizePage(number, limit)
}

// Healthz проверяет доступность базы данных.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Ping(r.Context()); err != nil {
		h.logger.Error("health check error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}
