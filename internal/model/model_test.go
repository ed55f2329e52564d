package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderSetStatus(t *testing.T) {
	orderDate := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	later := orderDate.Add(48 * time.Hour)

	o := &Order{Status: OrderStatusPending, OrderDate: orderDate}

	o.SetStatus(OrderStatusCompleted, later)
	require.NotNil(t, o.CompletedOn)
	assert.Equal(t, later, *o.CompletedOn)

	o.SetStatus(OrderStatusCompleted, later.Add(time.Hour))
	assert.Equal(t, later, *o.CompletedOn, "repeated completion keeps the first date")

	o.SetStatus(OrderStatusConfirmed, later)
	assert.Nil(t, o.CompletedOn)
	assert.Equal(t, OrderStatusConfirmed, o.Status)

	o.SetStatus(OrderStatusCompleted, orderDate.Add(-time.Hour))
	require.NotNil(t, o.CompletedOn)
	assert.Equal(t, orderDate, *o.CompletedOn, "completion is never earlier than the order date")
}

func TestOrderStatus(t *testing.T) {
	assert.True(t, OrderStatusCompleted.Closed())
	assert.True(t, OrderStatusCancelled.Closed())
	assert.False(t, OrderStatusConfirmed.Closed())
	assert.False(t, OrderStatus("lost").Valid())
}

func TestNewPagination(t *testing.T) {
	assert.Equal(t, Pagination{Total: 21, Page: 2, Limit: 10, TotalPages: 3}, NewPagination(Page{Number: 2, Limit: 10}, 21))
	assert.Equal(t, int64(0), NewPagination(Page{Number: 1, Limit: 10}, 0).TotalPages)
	assert.Equal(t, 10, Page{Number: 2, Limit: 10}.Offset())
}

func TestMoneyMarshalJSON(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "45", want: `"45.00"`},
		{in: "46.745", want: `"46.75"`},
		{in: "0.1", want: `"0.10"`},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			data, err := json.Marshal(NewMoney(decimal.RequireFromString(tt.in)))
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))
		})
	}
}
