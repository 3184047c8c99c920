package order

import (
	"context"
	"testing"

	"restaurant_order/internal/model"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestDispatcher_OrderAndPanicIsolation(t *testing.T) {
	var got []string
	record := func(name string) EventHandler {
		return EventHandlerFunc(func(_ context.Context, ev Event) {
			got = append(got, name+":"+string(ev.Kind))
		})
	}
	boom := EventHandlerFunc(func(context.Context, Event) { panic("boom") })

	d := NewDispatcher(zap.NewNop(), record("a"), boom)
	d.Register(record("b"))

	d.Dispatch(context.Background(),
		Event{Kind: EventOrderCreated, Order: model.Order{ID: 1}},
		Event{Kind: EventOrderDeleted, Order: model.Order{ID: 1}},
	)

	assert.Equal(t, []string{
		"a:order_created", "b:order_created",
		"a:order_deleted", "b:order_deleted",
	}, got)
}

func TestDispatcher_IgnoresCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var seen error
	d := NewDispatcher(zap.NewNop(), EventHandlerFunc(func(ctx context.Context, _ Event) {
		seen = ctx.Err()
	}))
	d.Dispatch(ctx, Event{Kind: EventOrderCreated})
	assert.NoError(t, seen)
}
