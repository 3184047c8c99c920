package audit

import (
	"context"
	"os"
	"testing"
	"time"

	"restaurant_order/internal/model"
	"restaurant_order/internal/order"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestEntryFromEvent(t *testing.T) {
	at := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	o := model.Order{
		ID:            4,
		OrderNumber:   "ORD-20260301-AAAABBBB",
		CustomerPhone: "08123",
		Status:        model.StatusReady,
		TotalAmount:   decimal.NewFromInt(40000),
		Items:         make([]model.OrderItem, 2),
	}

	e := EntryFromEvent(order.Event{
		Kind: order.EventOrderStatusChanged, Order: o,
		From: model.StatusPreparing, To: model.StatusReady, At: at,
	})
	assert.Equal(t, "order_status_changed", e.Action)
	assert.Equal(t, uint(4), e.OrderID)
	assert.Equal(t, "preparing", e.Data["from"])
	assert.Equal(t, "ready", e.Data["to"])
	assert.Equal(t, "40000", e.Data["total_amount"])
	assert.Equal(t, 2, e.Data["item_count"])
	assert.NotContains(t, e.Data, "customer_phone")
	assert.Equal(t, at, e.CreatedAt)

	created := EntryFromEvent(order.Event{Kind: order.EventOrderCreated, Order: o})
	assert.Equal(t, "08123", created.Data["customer_phone"])
	assert.False(t, created.CreatedAt.IsZero())
}

func TestRecorder_Mongo(t *testing.T) {
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	store, err := Open(ctx, uri, "restaurant_test", "order_audit_"+uuid.NewString()[:8])
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.collection.Drop(ctx)
		_ = store.Close(ctx)
	})

	rec := NewRecorder(store, zap.NewNop())
	o := model.Order{ID: 1, OrderNumber: "ORD-TEST-" + uuid.NewString(), Status: model.StatusPending}
	rec.HandleEvent(ctx, order.Event{Kind: order.EventOrderCreated, Order: o, At: time.Now().UTC()})
	rec.HandleEvent(ctx, order.Event{Kind: order.EventOrderDeleted, Order: o, At: time.Now().UTC().Add(time.Second)})
	rec.Wait()

	history, err := store.History(ctx, o.OrderNumber, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "order_deleted", history[0].Action)
}
