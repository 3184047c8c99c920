package alert

import (
	"context"
	"encoding/json"
	"time"

	"restaurant_order/internal/model"
	"restaurant_order/internal/order"

	rd "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Sink 新订单提醒的出口。
type Sink interface {
	Send(ctx context.Context, o model.Order) error
}

// LogSink 直接把提醒文本写进日志，单机部署时用它。
type LogSink struct {
	log *zap.Logger
}

func NewLogSink(log *zap.Logger) *LogSink {
	return &LogSink{log: log.Named("alert")}
}

func (s *LogSink) Send(_ context.Context, o model.Order) error {
	a := FromOrder(o)
	s.log.Info("new order alert",
		zap.String("order_number", a.OrderNumber),
		zap.String("message", FormatMessage(a)))
	return nil
}

// Stream 字段名。Relay 读取时按同样的字段解析。
const (
	StreamFieldOrderNumber = "order_number"
	StreamFieldPayload     = "payload"
)

// StreamSink 把提醒写入 Redis Stream（outbox），由 queue.Relay 异步转发到 Kafka。
type StreamSink struct {
	rdb    *rd.Client
	stream string
	maxLen int64
}

func NewStreamSink(rdb *rd.Client, stream string) *StreamSink {
	return &StreamSink{rdb: rdb, stream: stream, maxLen: 100000}
}

func (s *StreamSink) Send(ctx context.Context, o model.Order) error {
	payload, err := json.Marshal(FromOrder(o))
	if err != nil {
		return err
	}
	return s.rdb.XAdd(ctx, &rd.XAddArgs{
		Stream: s.stream,
		MaxLen: s.maxLen,
		Approx: true,
		Values: map[string]any{
			StreamFieldOrderNumber: o.OrderNumber,
			StreamFieldPayload:     string(payload),
		},
	}).Err()
}

// Handler 把 Sink 接到订单事件上，只处理新建事件。
type Handler struct {
	sink    Sink
	log     *zap.Logger
	timeout time.Duration
}

func NewHandler(sink Sink, log *zap.Logger) *Handler {
	return &Handler{sink: sink, log: log.Named("alert"), timeout: 3 * time.Second}
}

func (h *Handler) HandleEvent(ctx context.Context, ev order.Event) {
	if ev.Kind != order.EventOrderCreated {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	if err := h.sink.Send(ctx, ev.Order); err != nil {
		h.log.Warn("send order alert failed",
			zap.String("order_number", ev.Order.OrderNumber),
			zap.Error(err))
	}
}
