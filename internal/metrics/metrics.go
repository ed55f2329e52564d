// Package metrics содержит метрики Prometheus сервиса прачечной.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mmeshcher/laundry-system/internal/model"
)

// Metrics хранит коллекторы HTTP-запросов и жизненного цикла заказов.
// Методы допускают nil-получатель, тогда метрики не собираются.
type Metrics struct {
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	ordersCreated     prometheus.Counter
	pointsRedeemed    prometheus.Counter
	statusTransitions *prometheus.CounterVec
}

// New создаёт коллекторы и регистрирует их в registerer.
func New(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		ordersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "laundry_orders_created_total",
			Help: "Total number of created orders.",
		}),
		pointsRedeemed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "laundry_loyalty_points_redeemed_total",
			Help: "Total loyalty points debited for discounts.",
		}),
		statusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "laundry_order_status_transitions_total",
			Help: "Order status transitions by target status.",
		}, []string{"status"}),
	}

	registerer.MustRegister(m.httpRequests, m.httpDuration, m.ordersCreated, m.pointsRedeemed, m.statusTransitions)
	return m
}

// ObserveRequest учитывает обработанный HTTP-запрос.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// OrderCreated учитывает созданный заказ и списанные за скидку баллы.
func (m *Metrics) OrderCreated(points int64) {
	if m == nil {
		return
	}
	m.ordersCreated.Inc()
	if points > 0 {
		m.pointsRedeemed.Add(float64(points))
	}
}

// StatusChanged учитывает переход заказа в новый статус.
func (m *Metrics) StatusChanged(status model.OrderStatus) {
	if m == nil {
		return
	}
	m.statusTransitions.WithLabelValues(string(status)).Inc()
}
