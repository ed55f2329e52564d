package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mmeshcher/laundry-system/internal/apperr"
	"github.com/mmeshcher/laundry-system/internal/middleware"
	"github.com/mmeshcher/laundry-system/internal/model"
	"github.com/mmeshcher/laundry-system/internal/pricing"
	"github.com/mmeshcher/laundry-system/internal/service"
)

// stubService реализует только методы, нужные тестам; вызов остальных приводит к панике.
type stubService struct {
	Service

	pingErr error

	loginUser *model.User
	loginErr  error

	createOrderIn  service.CreateOrderInput
	createOrderErr error

	updateOrderIn  service.UpdateOrderInput
	updateOrderErr error

	getOrderErr error

	listOrdersCalled bool
	deletedOrder     uuid.UUID
}

func (s *stubService) Ping(ctx context.Context) error { return s.pingErr }

func (s *stubService) Login(ctx context.Context, username, password string) (*model.User, error) {
	return s.loginUser, s.loginErr
}

func (s *stubService) CreateOrder(ctx context.Context, caller model.Principal, in service.CreateOrderInput) (*service.OrderDetails, error) {
	s.createOrderIn = in
	if s.createOrderErr != nil {
		return nil, s.createOrderErr
	}
	return sampleDetails(caller.ID), nil
}

func (s *stubService) UpdateOrder(ctx context.Context, caller model.Principal, id uuid.UUID, in service.UpdateOrderInput) (*service.OrderDetails, error) {
	s.updateOrderIn = in
	if s.updateOrderErr != nil {
		return nil, s.updateOrderErr
	}
	return sampleDetails(caller.ID), nil
}

func (s *stubService) GetOrder(ctx context.Context, id uuid.UUID) (*service.OrderDetails, error) {
	if s.getOrderErr != nil {
		return nil, s.getOrderErr
	}
	return sampleDetails(uuid.New()), nil
}

func (s *stubService) ListOrders(ctx context.Context, caller model.Principal, page model.Page) ([]service.OrderDetails, model.Pagination, error) {
	s.listOrdersCalled = true
	return []service.OrderDetails{*sampleDetails(caller.ID)}, model.NewPagination(page, 1), nil
}

func (s *stubService) DeleteOrder(ctx context.Context, caller model.Principal, id uuid.UUID) error {
	s.deletedOrder = id
	return nil
}

func sampleDetails(handlerID uuid.UUID) *service.OrderDetails {
	o := &model.Order{
		ID:         uuid.New(),
		CustomerID: uuid.New(),
		Customer:   model.CustomerSnapshot{FirstName: "Lan", LastName: "Nguyen", Address: "12 Hang Bac"},
		HandlerID:  &handlerID,
		Handler:    &model.HandlerSnapshot{Username: "clerk", Role: model.RoleEmployee},
		Discount: &model.DiscountSnapshot{
			Name: "Ten off", Type: model.DiscountFixed, Amount: decimal.NewFromInt(10), RequiredPoints: 50,
		},
		Lines: []model.OrderLine{
			{ServiceID: uuid.New(), Service: model.ServiceSnapshot{Name: "Washing", Unit: "kg", PricePerUnit: decimal.NewFromInt(30)}, Quantity: 1, LineTotal: decimal.NewFromInt(30)},
			{ServiceID: uuid.New(), Service: model.ServiceSnapshot{Name: "Ironing", Unit: "item", PricePerUnit: decimal.NewFromInt(25)}, Quantity: 1, LineTotal: decimal.NewFromInt(25)},
		},
		Status:    model.OrderStatusPending,
		OrderDate: time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC),
	}
	totals, _ := pricing.Compute(o.Lines, o.Discount)
	return &service.OrderDetails{Order: o, Totals: totals}
}

type testServer struct {
	svc    *stubService
	auth   *middleware.AuthMiddleware
	router http.Handler
}

func newTestServer(t *testing.T, svc *stubService) *testServer {
	t.Helper()

	auth := middleware.NewAuthMiddleware("test-secret", time.Hour)
	h := NewHandler(svc, zap.NewNop(), auth, nil)

	return &testServer{svc: svc, auth: auth, router: h.SetupRouter(nil)}
}

func (s *testServer) do(t *testing.T, role model.Role, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	if role != "" {
		token, _, err := s.auth.IssueToken(model.Principal{ID: uuid.New(), Username: "clerk", Role: role})
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var res errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res.Error
}

func TestLogin(t *testing.T) {
	user := &model.User{ID: uuid.New(), Username: "root", Role: model.RoleAdmin, Status: model.UserStatusActive}
	srv := newTestServer(t, &stubService{loginUser: user})

	rec := srv.do(t, "", http.MethodPost, "/auth/login", `{"username":"root","password":"toor"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var res struct {
		Token string     `json:"token"`
		User  model.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, user.ID, res.User.ID)
	assert.NotContains(t, rec.Body.String(), "passwordHash")

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	req.Header.Set("Authorization", "Bearer "+res.Token)
	protected := httptest.NewRecorder()
	srv.router.ServeHTTP(protected, req)
	assert.Equal(t, http.StatusOK, protected.Code)
}

func TestLogin_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
	}{
		{name: "invalid credentials", body: `{"username":"root","password":"bad"}`, err: service.ErrInvalidCredentials, wantStatus: http.StatusUnauthorized},
		{name: "missing password", body: `{"username":"root"}`, wantStatus: http.StatusBadRequest},
		{name: "malformed body", body: `{"username":`, wantStatus: http.StatusBadRequest},
		{name: "store failure", body: `{"username":"root","password":"x"}`, err: errors.New("db down"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &stubService{loginErr: tt.err})
			rec := srv.do(t, "", http.MethodPost, "/auth/login", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestCreateOrder(t *testing.T) {
	svc := &stubService{}
	srv := newTestServer(t, svc)
	customer, washing, discount := uuid.New(), uuid.New(), uuid.New()

	body := `{"customerId":"` + customer.String() + `","discountId":"` + discount.String() +
		`","lines":[{"serviceId":"` + washing.String() + `","quantity":2}]}`
	rec := srv.do(t, model.RoleEmployee, http.MethodPost, "/api/orders", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	assert.Equal(t, customer, svc.createOrderIn.CustomerID)
	assert.Nil(t, svc.createOrderIn.HandlerID)
	require.NotNil(t, svc.createOrderIn.DiscountID)
	assert.Equal(t, discount, *svc.createOrderIn.DiscountID)
	assert.Equal(t, []service.LineInput{{ServiceID: washing, Quantity: 2}}, svc.createOrderIn.Lines)

	var res map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "55.00", res["grossTotal"])
	assert.Equal(t, "10.00", res["discountTotal"])
	assert.Equal(t, "45.00", res["netTotal"])

	order := res["order"].(map[string]any)
	assert.Equal(t, "pending", order["status"])
	assert.Nil(t, order["completedOn"])
	lines := order["lines"].([]any)
	require.Len(t, lines, 2)
	assert.Equal(t, "30.00", lines[0].(map[string]any)["lineTotal"])
}

func TestCreateOrder_RequestValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing customer", body: `{"lines":[{"serviceId":"` + uuid.NewString() + `","quantity":1}]}`},
		{name: "bad customer id", body: `{"customerId":"42","lines":[]}`},
		{name: "zero quantity", body: `{"customerId":"` + uuid.NewString() + `","lines":[{"serviceId":"` + uuid.NewString() + `","quantity":0}]}`},
		{name: "quantity above max", body: `{"customerId":"` + uuid.NewString() + `","lines":[{"serviceId":"` + uuid.NewString() + `","quantity":3000000000}]}`},
		{name: "bad service id", body: `{"customerId":"` + uuid.NewString() + `","lines":[{"serviceId":"x","quantity":1}]}`},
		{name: "not json", body: `lines=1`},
		{name: "empty body", body: ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{}
			srv := newTestServer(t, svc)

			rec := srv.do(t, model.RoleEmployee, http.MethodPost, "/api/orders", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "validation_error", decodeError(t, rec).Kind)
			assert.Equal(t, uuid.Nil, svc.createOrderIn.CustomerID, "service must not be called")
		})
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantKind    string
		wantMessage string
	}{
		{name: "validation", err: apperr.Validation("order must contain at least one line"), wantStatus: http.StatusBadRequest, wantKind: "validation_error", wantMessage: "order must contain at least one line"},
		{name: "not found", err: apperr.NotFound("customer not found or deleted"), wantStatus: http.StatusNotFound, wantKind: "not_found", wantMessage: "customer not found or deleted"},
		{name: "authorization", err: apperr.Authorization("not allowed to assign another handler"), wantStatus: http.StatusForbidden, wantKind: "authorization_error", wantMessage: "not allowed to assign another handler"},
		{name: "business rule", err: apperr.BusinessRule("insufficient points"), wantStatus: http.StatusBadRequest, wantKind: "business_rule_error", wantMessage: "insufficient points"},
		{name: "conflict", err: apperr.Conflict("username already exists"), wantStatus: http.StatusConflict, wantKind: "conflict", wantMessage: "username already exists"},
		{name: "server", err: apperr.Server(errors.New("pq: relation orders does not exist")), wantStatus: http.StatusInternalServerError, wantKind: "server_error", wantMessage: "internal server error"},
		{name: "unclassified", err: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantKind: "server_error", wantMessage: "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := `{"customerId":"` + uuid.NewString() + `","lines":[{"serviceId":"` + uuid.NewString() + `","quantity":1}]}`
			srv := newTestServer(t, &stubService{createOrderErr: tt.err})

			rec := srv.do(t, model.RoleEmployee, http.MethodPost, "/api/orders", body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			got := decodeError(t, rec)
			assert.Equal(t, tt.wantKind, got.Kind)
			assert.Equal(t, tt.wantMessage, got.Message)
			assert.NotContains(t, rec.Body.String(), "relation")
		})
	}
}

func TestUpdateOrder_OptionalFields(t *testing.T) {
	discount := uuid.New()
	tests := []struct {
		name         string
		body         string
		wantHandler  service.OptionalID
		wantDiscount service.OptionalID
		wantStatus   *model.OrderStatus
	}{
		{
			name: "absent fields",
			body: `{"status":"confirmed"}`,
			wantStatus: func() *model.OrderStatus {
				s := model.OrderStatusConfirmed
				return &s
			}(),
		},
		{
			name:        "clear handler",
			body:        `{"handlerId":null}`,
			wantHandler: service.OptionalID{Set: true},
		},
		{
			name:         "set discount",
			body:         `{"discountId":"` + discount.String() + `"}`,
			wantDiscount: service.OptionalID{Set: true, Value: &discount},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{}
			srv := newTestServer(t, svc)

			rec := srv.do(t, model.RoleManager, http.MethodPut, "/api/orders/"+uuid.NewString(), tt.body)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			assert.Equal(t, tt.wantHandler, svc.updateOrderIn.Handler)
			assert.Equal(t, tt.wantDiscount, svc.updateOrderIn.Discount)
			assert.Equal(t, tt.wantStatus, svc.updateOrderIn.Status)
		})
	}
}

func TestUpdateOrder_InvalidOptionalID(t *testing.T) {
	srv := newTestServer(t, &stubService{})

	rec := srv.do(t, model.RoleManager, http.MethodPut, "/api/orders/"+uuid.NewString(), `{"handlerId":"nope"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_Authentication(t *testing.T) {
	tests := []struct {
		name       string
		role       model.Role
		method     string
		path       string
		wantStatus int
	}{
		{name: "no token", method: http.MethodGet, path: "/api/orders/" + uuid.NewString(), wantStatus: http.StatusUnauthorized},
		{name: "employee lists orders", role: model.RoleEmployee, method: http.MethodGet, path: "/api/orders", wantStatus: http.StatusForbidden},
		{name: "manager lists orders", role: model.RoleManager, method: http.MethodGet, path: "/api/orders?page=1&limit=5", wantStatus: http.StatusOK},
		{name: "employee reads analytics", role: model.RoleEmployee, method: http.MethodGet, path: "/api/analytics/traffic?start=2024-01-01", wantStatus: http.StatusForbidden},
		{name: "employee reads order", role: model.RoleEmployee, method: http.MethodGet, path: "/api/orders/" + uuid.NewString(), wantStatus: http.StatusOK},
		{name: "malformed order id", role: model.RoleEmployee, method: http.MethodGet, path: "/api/orders/42", wantStatus: http.StatusBadRequest},
		{name: "manager deletes order", role: model.RoleManager, method: http.MethodDelete, path: "/api/orders/" + uuid.NewString(), wantStatus: http.StatusNoContent},
		{name: "unknown route", role: model.RoleEmployee, method: http.MethodGet, path: "/api/laundromats", wantStatus: http.StatusNotFound},
		{name: "health", method: http.MethodGet, path: "/healthz", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &stubService{})
			rec := srv.do(t, tt.role, tt.method, tt.path, "")
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestGetOrder_NotFound(t *testing.T) {
	srv := newTestServer(t, &stubService{getOrderErr: apperr.NotFound("order not found or deleted")})

	rec := srv.do(t, model.RoleEmployee, http.MethodGet, "/api/orders/"+uuid.NewString(), "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "order not found or deleted", decodeError(t, rec).Message)
}

func TestListOrders_Pagination(t *testing.T) {
	svc := &stubService{}
	srv := newTestServer(t, svc)

	rec := srv.do(t, model.RoleAdmin, http.MethodGet, "/api/orders?page=2&limit=500", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, svc.listOrdersCalled)

	var res struct {
		Data       []json.RawMessage `json:"data"`
		Pagination model.Pagination  `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Len(t, res.Data, 1)
	assert.Equal(t, 2, res.Pagination.Page)
	assert.Equal(t, 100, res.Pagination.Limit)
}

func TestHealthz_Unavailable(t *testing.T) {
	srv := newTestServer(t, &stubService{pingErr: errors.New("db down")})

	rec := srv.do(t, "", http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsRoute(t *testing.T) {
	auth := middleware.NewAuthMiddleware("test-secret", time.Hour)
	called := false
	metricsHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		_, _ = w.Write([]byte("# laundry"))
	})
	router := NewHandler(&stubService{}, zap.NewNop(), auth, metricsHandler).SetupRouter(nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
}
