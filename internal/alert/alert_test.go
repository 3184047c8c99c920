package alert

import (
	"context"
	"errors"
	"testing"

	"restaurant_order/internal/model"
	"restaurant_order/internal/order"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func sampleOrder() model.Order {
	return model.Order{
		ID:            3,
		OrderNumber:   "ORD-20260301-ABCDEF12",
		CustomerName:  "Budi",
		CustomerPhone: "08123",
		TotalAmount:   decimal.NewFromInt(65000),
		Items: []model.OrderItem{
			{MenuItemName: "Latte", Quantity: 2, Price: decimal.NewFromInt(25000)},
			{MenuItemName: "Croissant", Quantity: 1, Price: decimal.NewFromInt(15000), Notes: "warm"},
		},
	}
}

func TestFormatMessage(t *testing.T) {
	msg := FormatMessage(FromOrder(sampleOrder()))

	assert.Contains(t, msg, "Order #: ORD-20260301-ABCDEF12\n")
	assert.Contains(t, msg, "Table: Takeaway\n")
	assert.Contains(t, msg, "Total: Rp 65,000\n")
	assert.Contains(t, msg, "Notes: No notes\n")
	assert.Contains(t, msg, "1. Latte x2 - Rp 50,000\n")
	assert.Contains(t, msg, "2. Croissant x1 - Rp 15,000\n   (warm)\n")
}

func TestFormatMessage_Table(t *testing.T) {
	o := sampleOrder()
	table := "7"
	o.TableNumber = &table
	assert.Contains(t, FormatMessage(FromOrder(o)), "Table: 7\n")
}

func TestRupiah(t *testing.T) {
	cases := map[string]string{
		"0":        "0",
		"999":      "999",
		"1000":     "1,000",
		"65000":    "65,000",
		"1234567":  "1,234,567",
		"12345.5":  "12,345.50",
		"-2500000": "-2,500,000",
	}
	for in, want := range cases {
		assert.Equal(t, want, Rupiah(decimal.RequireFromString(in)), in)
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, FromOrder(sampleOrder()).Validate())

	bad := FromOrder(sampleOrder())
	bad.Items = nil
	assert.Error(t, bad.Validate())

	bad = FromOrder(sampleOrder())
	bad.OrderNumber = ""
	assert.Error(t, bad.Validate())
}

func TestLogSink(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	sink := NewLogSink(zap.New(core))

	require.NoError(t, sink.Send(context.Background(), sampleOrder()))
	entries := logs.FilterMessage("new order alert").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "ORD-20260301-ABCDEF12", entries[0].ContextMap()["order_number"])
}

type sinkFunc func(ctx context.Context, o model.Order) error

func (f sinkFunc) Send(ctx context.Context, o model.Order) error { return f(ctx, o) }

func TestHandler_OnlyCreatedEvents(t *testing.T) {
	var sent []string
	h := NewHandler(sinkFunc(func(_ context.Context, o model.Order) error {
		sent = append(sent, o.OrderNumber)
		return nil
	}), zap.NewNop())

	o := sampleOrder()
	h.HandleEvent(context.Background(), order.Event{Kind: order.EventOrderCreated, Order: o})
	h.HandleEvent(context.Background(), order.Event{Kind: order.EventOrderStatusChanged, Order: o})
	h.HandleEvent(context.Background(), order.Event{Kind: order.EventOrderDeleted, Order: o})

	assert.Equal(t, []string{o.OrderNumber}, sent)
}

func TestHandler_FailureIsLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	h := NewHandler(sinkFunc(func(ctx context.Context, _ model.Order) error {
		_, ok := ctx.Deadline()
		assert.True(t, ok)
		return errors.New("redis down")
	}), zap.New(core))

	h.HandleEvent(context.Background(), order.Event{Kind: order.EventOrderCreated, Order: sampleOrder()})
	assert.Equal(t, 1, logs.FilterMessage("send order alert failed").Len())
}
