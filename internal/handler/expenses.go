package handler

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/laundry-system/internal/apperr"
	"github.com/mmeshcher/laundry-system/internal/service"
)

type expenseRequest struct {
	Amount      *decimal.Decimal `json:"amount"`
	ExpenseDate *string          `json:"expenseDate"`
	Description *string          `json:"description" validate:"omitempty,max=50"`
}

// parseExpenseDate принимает дату в формате YYYY-MM-DD или RFC 3339.
func parseExpenseDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(service.DateLayout, *raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, *raw)
	if err != nil {
		return nil, apperr.Validation("invalid expenseDate, expected YYYY-MM-DD")
	}
	return &t, nil
}

func (req expenseRequest) input() (service.ExpenseInput, error) {
	date, err := parseExpenseDate(req.ExpenseDate)
	if err != nil {
		return service.ExpenseInput{}, err
	}
	return service.ExpenseInput{Amount: req.Amount, Date: date, Description: req.Description}, nil
}

// CreateExpense сохраняет расход.
func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.Amount == nil {
		h.writeError(w, r, apperr.Validation("amount is required"))
		return
	}

	in, err := req.input()
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	e, err := h.service.CreateExpense(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, e)
}

// GetExpense возвращает расход.
func (h *Handler) GetExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "expense id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	e, err := h.service.GetExpense(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, e)
}

// ListExpenses возвращает страницу расходов.
func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, p, err := h.service.ListExpenses(r.Context(), pageFromQuery(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, newList(expenses, &p))
}

// ListExpensesByDateRange возвращает расходы за интервал дат.
func (h *Handler) ListExpensesByDateRange(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	expenses, err := h.service.ListExpensesByDateRange(r.Context(), q.Get("start"), q.Get("end"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, newList(expenses, nil))
}

// UpdateExpense изменяет расход.
func (h *Handler) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "expense id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req expenseRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	in, err := req.input()
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	e, err := h.service.UpdateExpense(r.Context(), id, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, e)
}

// DeleteExpense помечает расход удалённым.
func (h *Handler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "expense id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.service.DeleteExpense(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
