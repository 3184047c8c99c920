package queue

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"restaurant_order/internal/alert"
	"restaurant_order/internal/model"

	"github.com/google/uuid"
	rd "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sampleAlert() alert.OrderAlert {
	return alert.FromOrder(model.Order{
		ID:            1,
		OrderNumber:   "ORD-20260301-0000ABCD",
		CustomerName:  "Budi",
		CustomerPhone: "08123",
		TotalAmount:   decimal.NewFromInt(25000),
		Items: []model.OrderItem{
			{MenuItemName: "Latte", Quantity: 1, Price: decimal.NewFromInt(25000)},
		},
	})
}

func TestParseStreamAlert(t *testing.T) {
	a := sampleAlert()
	payload, err := json.Marshal(a)
	require.NoError(t, err)

	got, err := parseStreamAlert(map[string]interface{}{
		alert.StreamFieldOrderNumber: a.OrderNumber,
		alert.StreamFieldPayload:     string(payload),
	})
	require.NoError(t, err)
	assert.Equal(t, a.OrderNumber, got.OrderNumber)
	assert.True(t, a.TotalAmount.Equal(got.TotalAmount))
	require.Len(t, got.Items, 1)

	_, err = parseStreamAlert(map[string]interface{}{alert.StreamFieldOrderNumber: a.OrderNumber})
	assert.Error(t, err)

	_, err = parseStreamAlert(map[string]interface{}{
		alert.StreamFieldOrderNumber: "ORD-other",
		alert.StreamFieldPayload:     string(payload),
	})
	assert.Error(t, err)

	_, err = parseStreamAlert(map[string]interface{}{
		alert.StreamFieldOrderNumber: a.OrderNumber,
		alert.StreamFieldPayload:     "{not json",
	})
	assert.Error(t, err)
}

func TestConsumerHandle_WithoutDedup(t *testing.T) {
	var got []string
	c := &Consumer{
		log: zap.NewNop(),
		deliver: func(_ context.Context, a alert.OrderAlert) error {
			got = append(got, a.OrderNumber)
			return nil
		},
	}
	b, err := json.Marshal(sampleAlert())
	require.NoError(t, err)

	require.NoError(t, c.handle(context.Background(), b))
	require.NoError(t, c.handle(context.Background(), []byte("garbage")))
	assert.Equal(t, []string{"ORD-20260301-0000ABCD"}, got)
}

func TestConsumerHandle_DeliverError(t *testing.T) {
	c := &Consumer{
		log:     zap.NewNop(),
		deliver: func(context.Context, alert.OrderAlert) error { return errors.New("gateway down") },
	}
	b, err := json.Marshal(sampleAlert())
	require.NoError(t, err)
	assert.Error(t, c.handle(context.Background(), b))
}

func testRedis(t *testing.T) *rd.Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	rdb := rd.NewClient(&rd.Options{Addr: addr})
	require.NoError(t, rdb.Ping(context.Background()).Err())
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestConsumerHandle_Dedup(t *testing.T) {
	rdb := testRedis(t)
	n := 0
	c := &Consumer{
		rdb: rdb,
		log: zap.NewNop(),
		deliver: func(context.Context, alert.OrderAlert) error {
			n++
			return nil
		},
	}
	a := sampleAlert()
	a.OrderNumber = "ORD-TEST-" + uuid.NewString()
	b, err := json.Marshal(a)
	require.NoError(t, err)

	require.NoError(t, c.handle(context.Background(), b))
	require.NoError(t, c.handle(context.Background(), b))
	assert.Equal(t, 1, n)
}

type recordingPublisher struct {
	mu  sync.Mutex
	got []alert.OrderAlert
}

func (p *recordingPublisher) Publish(_ context.Context, a alert.OrderAlert) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, a)
	return nil
}

func (p *recordingPublisher) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.got)
}

func TestRelay_StreamToPublisher(t *testing.T) {
	rdb := testRedis(t)
	stream := "restaurant:test:alerts:" + uuid.NewString()
	t.Cleanup(func() { _ = rdb.Del(context.Background(), stream).Err() })

	o := model.Order{
		ID:           9,
		OrderNumber:  "ORD-TEST-" + uuid.NewString(),
		CustomerName: "Budi",
		TotalAmount:  decimal.NewFromInt(15000),
		Items:        []model.OrderItem{{MenuItemName: "Croissant", Quantity: 1, Price: decimal.NewFromInt(15000)}},
	}
	require.NoError(t, alert.NewStreamSink(rdb, stream).Send(context.Background(), o))

	pub := &recordingPublisher{}
	relay := NewRelay(rdb, pub, zap.NewNop(), stream, "test-group", "test-consumer")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()

	assert.Eventually(t, func() bool { return pub.len() == 1 }, 5*time.Second, 50*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, o.OrderNumber, pub.got[0].OrderNumber)

	left, err := rdb.XLen(context.Background(), stream).Result()
	require.NoError(t, err)
	assert.Zero(t, left)
}
