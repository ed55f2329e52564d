package handler

import (
	"net/http"

	"github.com/mmeshcher/laundry-system/internal/model"
	"github.com/mmeshcher/laundry-system/internal/service"
)

type usageResponse struct {
	ServiceName   string      `json:"serviceName"`
	TotalRevenue  model.Money `json:"totalRevenue"`
	TotalQuantity int64       `json:"totalQuantity"`
}

type popularityResponse struct {
	Type service.PopularityMetric `json:"type"`
	Data []usageResponse          `json:"data"`
}

// FinancialSummary возвращает выручку, расходы и прибыль по дням.
func (h *Handler) FinancialSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := h.service.FinancialSummary(r.Context(), q.Get("start"), q.Get("end"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, res)
}

// TrafficSummary возвращает количество заказов по дням.
func (h *Handler) TrafficSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := h.service.TrafficSummary(r.Context(), q.Get("start"), q.Get("end"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, res)
}

// ServicePopularity возвращает услуги по убыванию выручки или количества.
func (h *Handler) ServicePopularity(w http.ResponseWriter, r *http.Request) {
	metric := service.PopularityMetric(r.URL.Query().Get("type"))
	usage, err := h.service.ServicePopularity(r.Context(), metric)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	res := popularityResponse{Type: metric, Data: make([]usageResponse, 0, len(usage))}
	for _, u := range usage {
		res.Data = append(res.Data, usageResponse{
			ServiceName:   u.ServiceName,
			TotalRevenue:  model.NewMoney(u.Revenue),
			TotalQuantity: u.Quantity,
		})
	}
	h.writeJSON(w, http.StatusOK, res)
}
