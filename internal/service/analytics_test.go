package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/laundry-system/internal/apperr"
	"github.com/mmeshcher/laundry-system/internal/model"
)

// memCache хранит значения в сериализованном виде, как это делает Redis.
type memCache struct {
	data   map[string][]byte
	getErr error
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}}
}

func (c *memCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	if c.getErr != nil {
		return false, c.getErr
	}
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (c *memCache) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = raw
	return nil
}

func (f *fixture) completeOrderAt(t *testing.T, id uuid.UUID, at time.Time) {
	t.Helper()
	f.now = at
	_, err := f.svc.UpdateOrderStatus(context.Background(), f.employee, id, model.OrderStatusCompleted)
	require.NoError(t, err)
}

func TestFinancialSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.now = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	discounted := f.createOrder(t, f.employee, &f.fixed10).Order.ID
	plain := f.createOrder(t, f.employee, nil).Order.ID
	f.createOrder(t, f.employee, nil)

	f.completeOrderAt(t, discounted, time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC))
	f.completeOrderAt(t, plain, time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC))

	amount := decimal.NewFromInt(20)
	day1 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	_, err := f.svc.CreateExpense(ctx, ExpenseInput{Amount: &amount, Date: &day1})
	require.NoError(t, err)
	big := decimal.NewFromInt(100)
	day3 := time.Date(2024, 3, 3, 12, 0, 0, 0, time.UTC)
	_, err = f.svc.CreateExpense(ctx, ExpenseInput{Amount: &big, Date: &day3})
	require.NoError(t, err)

	f.now = baseTime
	res, err := f.svc.FinancialSummary(ctx, "2024-03-01", "2024-03-05")
	require.NoError(t, err)

	require.Len(t, res.DailySummary, 3)
	first := res.DailySummary[0]
	assert.Equal(t, "2024-03-01", first.Date)
	assert.Equal(t, "45.00", first.Revenue.StringFixed(2))
	assert.Equal(t, "20.00", first.Expenses.StringFixed(2))
	assert.Equal(t, "25.00", first.Profit.StringFixed(2))
	assert.Equal(t, "55.56", first.ProfitMargin.StringFixed(2))

	second := res.DailySummary[1]
	assert.Equal(t, "2024-03-02", second.Date)
	assert.Equal(t, "100.00", second.ProfitMargin.StringFixed(2))

	third := res.DailySummary[2]
	assert.Equal(t, "2024-03-03", third.Date)
	assert.True(t, third.Revenue.IsZero())
	assert.Equal(t, "-100.00", third.Profit.StringFixed(2))
	assert.True(t, third.ProfitMargin.IsZero())

	totals := res.OverallTotals
	assert.Equal(t, "100.00", totals.TotalRevenue.StringFixed(2))
	assert.Equal(t, "120.00", totals.TotalExpenses.StringFixed(2))
	assert.Equal(t, "-20.00", totals.TotalProfit.StringFixed(2))
	assert.Equal(t, "-20.00", totals.TotalProfitMargin.StringFixed(2))

	raw, err := json.Marshal(first)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2024-03-01","revenue":"45.00","expenses":"20.00","profit":"25.00","profitMargin":"55.56"}`, string(raw))
}

func TestFinancialSummary_EmptyRange(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.FinancialSummary(context.Background(), "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	assert.Empty(t, res.DailySummary)
	assert.True(t, res.OverallTotals.TotalProfitMargin.IsZero())

	_, err = f.svc.FinancialSummary(context.Background(), "", "")
	assertKind(t, err, apperr.KindValidation)
}

func TestTrafficSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.now = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	f.createOrder(t, f.employee, nil)
	f.createOrder(t, f.employee, nil)
	f.now = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	f.createOrder(t, f.employee, nil)

	f.now = baseTime
	res, err := f.svc.TrafficSummary(ctx, "2024-03-01", "")
	require.NoError(t, err)

	assert.Equal(t, []model.DailyCount{{Day: "2024-03-01", Count: 2}, {Day: "2024-03-04", Count: 1}}, res.DailyVolume)
	assert.Equal(t, int64(3), res.OverallTotalVolume)
}

func TestServicePopularity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.repo.usage = []model.ServiceUsage{
		{ServiceName: "Washing", Revenue: decimal.NewFromInt(300), Quantity: 10},
		{ServiceName: "Ironing", Revenue: decimal.NewFromInt(500), Quantity: 4},
		{ServiceName: "Drying", Revenue: decimal.NewFromInt(100), Quantity: 20},
	}

	names := func(usage []model.ServiceUsage) []string {
		res := make([]string, 0, len(usage))
		for _, u := range usage {
			res = append(res, u.ServiceName)
		}
		return res
	}

	byRevenue, err := f.svc.ServicePopularity(ctx, PopularityRevenue)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ironing", "Washing", "Drying"}, names(byRevenue))

	byQuantity, err := f.svc.ServicePopularity(ctx, PopularityQuantity)
	require.NoError(t, err)
	assert.Equal(t, []string{"Drying", "Washing", "Ironing"}, names(byQuantity))

	_, err = f.svc.ServicePopularity(ctx, PopularityMetric("profit"))
	assertKind(t, err, apperr.KindValidation)
	assert.Equal(t, "type must be one of: revenue quantity", apperr.MessageOf(err))
}

func TestAnalytics_UsesCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cache := newMemCache()
	f.svc.cache = cache
	f.repo.usage = []model.ServiceUsage{{ServiceName: "Washing", Revenue: decimal.NewFromInt(300), Quantity: 10}}

	first, err := f.svc.ServicePopularity(ctx, PopularityRevenue)
	require.NoError(t, err)
	second, err := f.svc.ServicePopularity(ctx, PopularityRevenue)
	require.NoError(t, err)

	assert.Equal(t, 1, f.repo.usageCalls)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ServiceName, second[0].ServiceName)
	assert.True(t, first[0].Revenue.Equal(second[0].Revenue))

	f.now = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	id := f.createOrder(t, f.employee, nil).Order.ID
	f.completeOrderAt(t, id, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))
	f.now = baseTime

	summary, err := f.svc.FinancialSummary(ctx, "2024-03-01", "2024-03-01")
	require.NoError(t, err)
	cachedSummary, err := f.svc.FinancialSummary(ctx, "2024-03-01", "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, summary.OverallTotals.TotalRevenue.String(), cachedSummary.OverallTotals.TotalRevenue.String())
	assert.Contains(t, cache.data, "financial:2024-03-01:2024-03-02")
}

func TestAnalytics_CacheErrorsIgnored(t *testing.T) {
	f := newFixture(t)
	cache := newMemCache()
	cache.getErr = errors.New("connection refused")
	f.svc.cache = cache

	_, err := f.svc.ServicePopularity(context.Background(), PopularityQuantity)
	require.NoError(t, err)
	_, err = f.svc.ServicePopularity(context.Background(), PopularityQuantity)
	require.NoError(t, err)
	assert.Equal(t, 2, f.repo.usageCalls)
}
