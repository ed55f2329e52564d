package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/laundry-system/internal/model"
	"github.com/mmeshcher/laundry-system/internal/repository"
)

// fakeRepo хранит данные в памяти и воспроизводит атомарность транзакций репозитория:
// изменения заказа применяются только при успешном завершении функции.
type fakeRepo struct {
	mu sync.Mutex

	users     map[uuid.UUID]*model.User
	customers map[uuid.UUID]*model.Customer
	services  map[uuid.UUID]*model.Service
	discounts map[uuid.UUID]*model.Discount
	expenses  map[uuid.UUID]*model.Expense
	orders    map[uuid.UUID]*model.Order

	createOrderErr error
	usage          []model.ServiceUsage
	usageCalls     int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:     map[uuid.UUID]*model.User{},
		customers: map[uuid.UUID]*model.Customer{},
		services:  map[uuid.UUID]*model.Service{},
		discounts: map[uuid.UUID]*model.Discount{},
		expenses:  map[uuid.UUID]*model.Expense{},
		orders:    map[uuid.UUID]*model.Order{},
	}
}

func cloneOrder(o *model.Order) *model.Order {
	c := *o
	c.Lines = append([]model.OrderLine{}, o.Lines...)
	return &c
}

func page[T any](items []T, p model.Page) []T {
	start := p.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func (f *fakeRepo) Ping(ctx context.Context) error { return nil }
func (f *fakeRepo) Close() error                   { return nil }

func (f *fakeRepo) CreateUser(ctx context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Username == u.Username {
			return repository.ErrUsernameTaken
		}
	}
	c := *u
	f.users[u.ID] = &c
	return nil
}

func (f *fakeRepo) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (f *fakeRepo) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			c := *u
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeRepo) ListUsers(ctx context.Context, p model.Page) ([]model.User, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res []model.User
	for _, u := range f.users {
		res = append(res, *u)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Username < res[j].Username })
	return page(res, p), int64(len(res)), nil
}

func (f *fakeRepo) UpdateUser(ctx context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[u.ID]; !ok {
		return repository.ErrNotFound
	}
	c := *u
	f.users[u.ID] = &c
	return nil
}

func (f *fakeRepo) DeleteUser(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

func (f *fakeRepo) CreateCustomer(ctx context.Context, c *model.Customer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *c
	f.customers[c.ID] = &cp
	return nil
}

func (f *fakeRepo) GetCustomer(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.customers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeRepo) ListCustomers(ctx context.Context, p model.Page) ([]model.Customer, int64, error) {
	return f.SearchCustomers(ctx, model.CustomerFilter{}, p)
}

func (f *fakeRepo) SearchCustomers(ctx context.Context, flt model.CustomerFilter, p model.Page) ([]model.Customer, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	contains := func(v, sub string) bool {
		return sub == "" || strings.Contains(strings.ToLower(v), strings.ToLower(sub))
	}
	var res []model.Customer
	for _, c := range f.customers {
		phone := ""
		if c.Phone != nil {
			phone = *c.Phone
		}
		if contains(phone, flt.Phone) && contains(c.FirstName, flt.FirstName) && contains(c.LastName, flt.LastName) {
			res = append(res, *c)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].FirstName < res[j].FirstName })
	return page(res, p), int64(len(res)), nil
}

func (f *fakeRepo) UpdateCustomer(ctx context.Context, c *model.Customer, setPoints bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.customers[c.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if !setPoints {
		c.Points = existing.Points
	}
	cp := *c
	f.customers[c.ID] = &cp
	return nil
}

func (f *fakeRepo) DeleteCustomer(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.customers[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.customers, id)
	return nil
}

func (f *fakeRepo) CreateService(ctx context.Context, s *model.Service) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	f.services[s.ID] = &cp
	return nil
}

func (f *fakeRepo) GetService(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.services[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeRepo) ListServices(ctx context.Context, name string) ([]model.Service, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res []model.Service
	for _, s := range f.services {
		if strings.Contains(strings.ToLower(s.Name), strings.ToLower(name)) {
			res = append(res, *s)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res, nil
}

func (f *fakeRepo) UpdateService(ctx context.Context, s *model.Service) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.services[s.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *s
	f.services[s.ID] = &cp
	return nil
}

func (f *fakeRepo) DeleteService(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.services[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.services, id)
	return nil
}

func (f *fakeRepo) CreateDiscount(ctx context.Context, d *model.Discount) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *d
	f.discounts[d.ID] = &cp
	return nil
}

func (f *fakeRepo) GetDiscount(ctx context.Context, id uuid.UUID) (*model.Discount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.discounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (f *fakeRepo) ListDiscounts(ctx context.Context) ([]model.Discount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res []model.Discount
	for _, d := range f.discounts {
		res = append(res, *d)
	}
	return res, nil
}

func (f *fakeRepo) UpdateDiscount(ctx context.Context, d *model.Discount) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.discounts[d.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *d
	f.discounts[d.ID] = &cp
	return nil
}

func (f *fakeRepo) DeleteDiscount(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.discounts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.discounts, id)
	return nil
}

func (f *fakeRepo) CreateExpense(ctx context.Context, e *model.Expense) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *e
	f.expenses[e.ID] = &cp
	return nil
}

func (f *fakeRepo) GetExpense(ctx context.Context, id uuid.UUID) (*model.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.expenses[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeRepo) ListExpenses(ctx context.Context, p model.Page) ([]model.Expense, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res []model.Expense
	for _, e := range f.expenses {
		res = append(res, *e)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Date.After(res[j].Date) })
	return page(res, p), int64(len(res)), nil
}

func (f *fakeRepo) ListExpensesByDateRange(ctx context.Context, from, to time.Time) ([]model.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res []model.Expense
	for _, e := range f.expenses {
		if !e.Date.Before(from) && e.Date.Before(to) {
			res = append(res, *e)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Date.Before(res[j].Date) })
	return res, nil
}

func (f *fakeRepo) UpdateExpense(ctx context.Context, e *model.Expense) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.expenses[e.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *e
	f.expenses[e.ID] = &cp
	return nil
}

func (f *fakeRepo) DeleteExpense(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.expenses[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.expenses, id)
	return nil
}

func (f *fakeRepo) CreateOrder(ctx context.Context, o *model.Order, pointsCost int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createOrderErr != nil {
		return f.createOrderErr
	}
	c, ok := f.customers[o.CustomerID]
	if !ok {
		return repository.ErrNotFound
	}
	if c.Points < pointsCost {
		return repository.ErrInsufficientPoints
	}
	c.Points -= pointsCost
	f.orders[o.ID] = cloneOrder(o)
	return nil
}

func (f *fakeRepo) MutateOrder(ctx context.Context, id uuid.UUID, fn func(o *model.Order) error) (*model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.orders[id]
	if !ok || stored.IsDeleted {
		return nil, repository.ErrNotFound
	}
	o := cloneOrder(stored)
	if err := fn(o); err != nil {
		return nil, err
	}
	f.orders[id] = cloneOrder(o)
	return o, nil
}

func (f *fakeRepo) GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok || o.IsDeleted {
		return nil, repository.ErrNotFound
	}
	return cloneOrder(o), nil
}

func (f *fakeRepo) filterOrders(keep func(o *model.Order) bool) []model.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res []model.Order
	for _, o := range f.orders {
		if !o.IsDeleted && keep(o) {
			res = append(res, *cloneOrder(o))
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].OrderDate.After(res[j].OrderDate) })
	return res
}

func (f *fakeRepo) ListOrders(ctx context.Context, p model.Page) ([]model.Order, int64, error) {
	res := f.filterOrders(func(*model.Order) bool { return true })
	return page(res, p), int64(len(res)), nil
}

func (f *fakeRepo) ListOpenOrdersByHandler(ctx context.Context, handlerID uuid.UUID) ([]model.Order, error) {
	return f.filterOrders(func(o *model.Order) bool {
		return o.HandlerID != nil && *o.HandlerID == handlerID && !o.Status.Closed()
	}), nil
}

func (f *fakeRepo) ListOrdersByDateRange(ctx context.Context, from, to time.Time) ([]model.Order, error) {
	return f.filterOrders(func(o *model.Order) bool {
		return !o.OrderDate.Before(from) && o.OrderDate.Before(to)
	}), nil
}

func (f *fakeRepo) ListCompletedOrders(ctx context.Context, from, to time.Time) ([]model.Order, error) {
	return f.filterOrders(func(o *model.Order) bool {
		return o.Status == model.OrderStatusCompleted && o.CompletedOn != nil &&
			!o.CompletedOn.Before(from) && o.CompletedOn.Before(to)
	}), nil
}

func (f *fakeRepo) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok || o.IsDeleted {
		return repository.ErrNotFound
	}
	o.IsDeleted = true
	return nil
}

func (f *fakeRepo) DailyExpenses(ctx context.Context, from, to time.Time) ([]model.DailyAmount, error) {
	expenses, _ := f.ListExpensesByDateRange(ctx, from, to)
	byDay := map[string]decimal.Decimal{}
	for _, e := range expenses {
		day := e.Date.UTC().Format(DateLayout)
		byDay[day] = byDay[day].Add(e.Amount)
	}
	var res []model.DailyAmount
	for day, amount := range byDay {
		res = append(res, model.DailyAmount{Day: day, Amount: amount})
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Day < res[j].Day })
	return res, nil
}

func (f *fakeRepo) DailyOrderCounts(ctx context.Context, from, to time.Time) ([]model.DailyCount, error) {
	orders, _ := f.ListOrdersByDateRange(ctx, from, to)
	byDay := map[string]int64{}
	for _, o := range orders {
		byDay[o.OrderDate.UTC().Format(DateLayout)]++
	}
	var res []model.DailyCount
	for day, n := range byDay {
		res = append(res, model.DailyCount{Day: day, Count: n})
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Day < res[j].Day })
	return res, nil
}

func (f *fakeRepo) ServiceUsage(ctx context.Context) ([]model.ServiceUsage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.usageCalls++
	return append([]model.ServiceUsage{}, f.usage...), nil
}
