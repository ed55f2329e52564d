package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/mmeshcher/laundry-system/internal/apperr"
	"github.com/mmeshcher/laundry-system/internal/metrics"
	custommiddleware "github.com/mmeshcher/laundry-system/internal/middleware"
	"github.com/mmeshcher/laundry-system/internal/model"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса прачечной.
func (h *Handler) SetupRouter(m *metrics.Metrics) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(custommiddleware.Metrics(m))
	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	privileged := custommiddleware.RequireRoles(model.RoleAdmin, model.RoleManager)
	adminOnly := custommiddleware.RequireRoles(model.RoleAdmin)

	r.Get("/healthz", h.Healthz)
	if h.metrics != nil {
		r.Handle("/metrics", h.metrics)
	}

	r.Post("/auth/login", h.Login)

	r.Route("/api", func(r chi.Router) {
		r.Use(h.authMiddleware.Middleware)

		r.Route("/users", func(r chi.Router) {
			r.With(privileged).Get("/", h.ListUsers)
			r.With(privileged).Post("/", h.CreateUser)
			r.Get("/{id}", h.GetUser)
			r.Put("/{id}", h.UpdateUser)
			r.With(adminOnly).Delete("/{id}", h.DeleteUser)
		})

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", h.ListCustomers)
			r.Get("/search", h.SearchCustomers)
			r.Get("/{id}", h.GetCustomer)
			r.Post("/", h.CreateCustomer)
			r.With(privileged).Put("/{id}", h.UpdateCustomer)
			r.With(privileged).Delete("/{id}", h.DeleteCustomer)
		})

		r.Route("/services", func(r chi.Router) {
			r.Get("/", h.ListServices)
			r.Get("/search", h.ListServices)
			r.Get("/{id}", h.GetService)
			r.With(privileged).Post("/", h.CreateService)
			r.With(privileged).Put("/{id}", h.UpdateService)
			r.With(privileged).Delete("/{id}", h.DeleteService)
		})

		r.Route("/discounts", func(r chi.Router) {
			r.Get("/", h.ListDiscounts)
			r.Get("/{id}", h.GetDiscount)
			r.With(privileged).Post("/", h.CreateDiscount)
			r.With(privileged).Put("/{id}", h.UpdateDiscount)
			r.With(adminOnly).Delete("/{id}", h.DeleteDiscount)
		})

		r.Route("/expenses", func(r chi.Router) {
			r.Use(privileged)

			r.Get("/", h.ListExpenses)
			r.Get("/by-date-range", h.ListExpensesByDateRange)
			r.Get("/{id}", h.GetExpense)
			r.Post("/", h.CreateExpense)
			r.With(adminOnly).Put("/{id}", h.UpdateExpense)
			r.With(adminOnly).Delete("/{id}", h.DeleteExpense)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", h.CreateOrder)
			r.With(privileged).Get("/", h.ListOrders)
			r.With(privileged).Get("/search", h.SearchOrders)
			r.Get("/current/{handlerID}", h.ListCurrentOrders)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetOrder)
				r.Patch("/status", h.UpdateOrderStatus)
				r.Put("/", h.UpdateOrder)
				r.Delete("/", h.DeleteOrder)

				r.Post("/lines", h.AddOrderLine)
				r.Put("/lines/{serviceID}", h.UpdateOrderLine)
				r.Delete("/lines/{serviceID}", h.RemoveOrderLine)
			})
		})

		r.Route("/analytics", func(r chi.Router) {
			r.Use(privileged)

			r.Get("/financial", h.FinancialSummary)
			r.Get("/traffic", h.TrafficSummary)
			r.Get("/service-popularity", h.ServicePopularity)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.writeError(w, r, apperr.NotFound("route not found"))
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
