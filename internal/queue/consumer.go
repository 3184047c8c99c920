package queue

import (
	"context"
	"errors"
	"time"

	"restaurant_order/internal/alert"
	predis "restaurant_order/pkg/redis"

	rd "github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const retryBackoff = time.Second

// Deliver 真正把提醒送到店员手里（聊天机器人、短信网关等）。
type Deliver func(ctx context.Context, a alert.OrderAlert) error

// Consumer 从 Kafka 读取新订单提醒并投递。
// 先投递再提交 offset；rdb 不为空时按订单号去重，Kafka 重投不会重复提醒。
type Consumer struct {
	r       *kafka.Reader
	rdb     *rd.Client
	deliver Deliver
	log     *zap.Logger
}

func NewConsumer(brokers []string, topic, groupID string, rdb *rd.Client, deliver Deliver, log *zap.Logger) *Consumer {
	return &Consumer{
		r: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 1,
			MaxBytes: 1e6,
		}),
		rdb:     rdb,
		deliver: deliver,
		log:     log.Named("consumer"),
	}
}

func (c *Consumer) Close() error { return c.r.Close() }

// Run 阻塞直到 ctx 取消或连接出错。
func (c *Consumer) Run(ctx context.Context) error {
	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		// 投递失败原地重试，成功前不提交 offset。
		for {
			err := c.handle(ctx, m.Value)
			if err == nil {
				break
			}
			c.log.Warn("deliver alert failed",
				zap.String("key", string(m.Key)),
				zap.Int64("offset", m.Offset),
				zap.Error(err))
			sleep(ctx, retryBackoff)
			if ctx.Err() != nil {
				return nil
			}
		}
		if err := c.r.CommitMessages(ctx, m); err != nil {
			c.log.Warn("commit offset failed", zap.Int64("offset", m.Offset), zap.Error(err))
		}
	}
}

func (c *Consumer) handle(ctx context.Context, value []byte) error {
	a, err := decodeAlert(value)
	if err != nil {
		// 脏消息直接跳过
		c.log.Warn("drop malformed alert", zap.Error(err))
		return nil
	}

	if c.rdb != nil {
		first, err := predis.MarkAlertOnce(ctx, c.rdb, a.OrderNumber)
		if err != nil {
			return err
		}
		if !first {
			c.log.Debug("duplicate alert skipped", zap.String("order_number", a.OrderNumber))
			return nil
		}
	}

	if err := c.deliver(ctx, a); err != nil {
		if c.rdb != nil {
			if uerr := predis.UnmarkAlert(ctx, c.rdb, a.OrderNumber); uerr != nil {
				c.log.Warn("unmark alert failed", zap.String("order_number", a.OrderNumber), zap.Error(uerr))
			}
		}
		return err
	}
	return nil
}

// LogDeliver 把渲染好的提醒写进日志。
func LogDeliver(log *zap.Logger) Deliver {
	return func(_ context.Context, a alert.OrderAlert) error {
		log.Info("order alert",
			zap.String("order_number", a.OrderNumber),
			zap.String("message", alert.FormatMessage(a)))
		return nil
	}
}
