package service

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/laundry-system/internal/apperr"
	"github.com/mmeshcher/laundry-system/internal/model"
	"github.com/mmeshcher/laundry-system/internal/pricing"
)

var hundred = decimal.NewFromInt(100)

// FinancialDay содержит финансовые показатели за день.
type FinancialDay struct {
	Date         string      `json:"date"`
	Revenue      model.Money `json:"revenue"`
	Expenses     model.Money `json:"expenses"`
	Profit       model.Money `json:"profit"`
	ProfitMargin model.Money `json:"profitMargin"`
}

// FinancialTotals содержит финансовые показатели за весь интервал.
type FinancialTotals struct {
	TotalRevenue      model.Money `json:"totalRevenue"`
	TotalExpenses     model.Money `json:"totalExpenses"`
	TotalProfit       model.Money `json:"totalProfit"`
	TotalProfitMargin model.Money `json:"totalProfitMargin"`
}

// FinancialSummary содержит выручку, расходы и прибыль по дням и итоги.
type FinancialSummary struct {
	DailySummary  []FinancialDay  `json:"dailySummary"`
	OverallTotals FinancialTotals `json:"overallTotals"`
}

// TrafficSummary содержит количество заказов по дням и итог.
type TrafficSummary struct {
	DailyVolume        []model.DailyCount `json:"dailyVolume"`
	OverallTotalVolume int64              `json:"overallTotalVolume"`
}

// PopularityMetric определяет показатель популярности услуг.
type PopularityMetric string

const (
	PopularityRevenue  PopularityMetric = "revenue"
	PopularityQuantity PopularityMetric = "quantity"
)

// cached возвращает значение из кэша или вычисляет и сохраняет его. Ошибки кэша не прерывают запрос.
func cached[T any](ctx context.Context, c Cache, key string, load func() (T, error)) (T, error) {
	if c != nil {
		var v T
		if ok, err := c.Get(ctx, key, &v); err == nil && ok {
			return v, nil
		}
	}

	v, err := load()
	if err != nil {
		return v, err
	}

	if c != nil {
		_ = c.Set(ctx, key, v)
	}
	return v, nil
}

// FinancialSummary рассчитывает выручку по завершённым заказам, расходы и прибыль по дням.
func (s *Service) FinancialSummary(ctx context.Context, start, end string) (*FinancialSummary, error) {
	r, err := ParseDateRange(start, end, s.now())
	if err != nil {
		return nil, err
	}

	return cached(ctx, s.cache, "financial:"+r.Key(), func() (*FinancialSummary, error) {
		return s.buildFinancialSummary(ctx, r)
	})
}

func (s *Service) buildFinancialSummary(ctx context.Context, r DateRange) (*FinancialSummary, error) {
	orders, err := s.repo.ListCompletedOrders(ctx, r.From, r.To)
	if err != nil {
		return nil, apperr.Server(err)
	}
	expenses, err := s.repo.DailyExpenses(ctx, r.From, r.To)
	if err != nil {
		return nil, apperr.Server(err)
	}

	type dayTotals struct {
		revenue  decimal.Decimal
		expenses decimal.Decimal
	}
	days := make(map[string]*dayTotals)
	day := func(date string) *dayTotals {
		d, ok := days[date]
		if !ok {
			d = &dayTotals{}
			days[date] = d
		}
		return d
	}

	var revenue, spent decimal.Decimal
	for _, o := range orders {
		if o.CompletedOn == nil {
			continue
		}
		t, err := pricing.Compute(o.Lines, o.Discount)
		if err != nil {
			return nil, apperr.Server(err)
		}
		net := decimal.Max(t.Net, decimal.Zero)

		d := day(o.CompletedOn.UTC().Format(DateLayout))
		d.revenue = d.revenue.Add(net)
		revenue = revenue.Add(net)
	}

	for _, e := range expenses {
		d := day(e.Day)
		d.expenses = d.expenses.Add(e.Amount)
		spent = spent.Add(e.Amount)
	}

	res := &FinancialSummary{DailySummary: make([]FinancialDay, 0, len(days))}
	for date, d := range days {
		profit := d.revenue.Sub(d.expenses)
		res.DailySummary = append(res.DailySummary, FinancialDay{
			Date:         date,
			Revenue:      model.NewMoney(d.revenue),
			Expenses:     model.NewMoney(d.expenses),
			Profit:       model.NewMoney(profit),
			ProfitMargin: margin(profit, d.revenue),
		})
	}
	sort.Slice(res.DailySummary, func(i, j int) bool {
		return res.DailySummary[i].Date < res.DailySummary[j].Date
	})

	profit := revenue.Sub(spent)
	res.OverallTotals = FinancialTotals{
		TotalRevenue:      model.NewMoney(revenue),
		TotalExpenses:     model.NewMoney(spent),
		TotalProfit:       model.NewMoney(profit),
		TotalProfitMargin: margin(profit, revenue),
	}
	return res, nil
}

// margin возвращает прибыль в процентах от выручки или ноль при нулевой выручке.
func margin(profit, revenue decimal.Decimal) model.Money {
	if !revenue.IsPositive() {
		return model.NewMoney(decimal.Zero)
	}
	return model.NewMoney(profit.Mul(hundred).Div(revenue))
}

// TrafficSummary возвращает количество созданных заказов по дням.
func (s *Service) TrafficSummary(ctx context.Context, start, end string) (*TrafficSummary, error) {
	r, err := ParseDateRange(start, end, s.now())
	if err != nil {
		return nil, err
	}

	return cached(ctx, s.cache, "traffic:"+r.Key(), func() (*TrafficSummary, error) {
		counts, err := s.repo.DailyOrderCounts(ctx, r.From, r.To)
		if err != nil {
			return nil, apperr.Server(err)
		}

		res := &TrafficSummary{DailyVolume: make([]model.DailyCount, 0, len(counts))}
		for _, c := range counts {
			res.DailyVolume = append(res.DailyVolume, c)
			res.OverallTotalVolume += c.Count
		}
		return res, nil
	})
}

// ServicePopularity возвращает услуги, упорядоченные по убыванию выручки или количества.
func (s *Service) ServicePopularity(ctx context.Context, metric PopularityMetric) ([]model.ServiceUsage, error) {
	if metric != PopularityRevenue && metric != PopularityQuantity {
		return nil, apperr.Validation("type must be one of: revenue quantity")
	}

	return cached(ctx, s.cache, "popularity:"+string(metric), func() ([]model.ServiceUsage, error) {
		usage, err := s.repo.ServiceUsage(ctx)
		if err != nil {
			return nil, apperr.Server(err)
		}

		sort.SliceStable(usage, func(i, j int) bool {
			if metric == PopularityRevenue {
				return usage[i].Revenue.GreaterThan(usage[j].Revenue)
			}
			return usage[i].Quantity > usage[j].Quantity
		})
		return usage, nil
	})
}
