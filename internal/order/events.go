package order

import (
	"context"
	"time"

	"restaurant_order/internal/model"

	"go.uber.org/zap"
)

// EventKind 提交成功后产生的领域事件类型。
type EventKind string

const (
	EventOrderCreated       EventKind = "order_created"
	EventOrderStatusChanged EventKind = "order_status_changed"
	EventOrderDeleted       EventKind = "order_deleted"
)

// Event 描述一次已提交的订单变更。Order 是提交后的订单（删除时为删除前）。
type Event struct {
	Kind  EventKind
	Order model.Order
	From  model.OrderStatus // 仅状态变更
	To    model.OrderStatus // 仅状态变更
	At    time.Time
}

// EventHandler 处理提交后的事件。处理失败只能自行记录，不能影响已提交的订单。
type EventHandler interface {
	HandleEvent(ctx context.Context, ev Event)
}

// EventHandlerFunc 让普通函数满足 EventHandler。
type EventHandlerFunc func(ctx context.Context, ev Event)

func (f EventHandlerFunc) HandleEvent(ctx context.Context, ev Event) { f(ctx, ev) }

// Dispatcher 按注册顺序把事件同步交给每个 handler。
type Dispatcher struct {
	handlers []EventHandler
	log      *zap.Logger
}

func NewDispatcher(log *zap.Logger, handlers ...EventHandler) *Dispatcher {
	return &Dispatcher{handlers: handlers, log: log.Named("dispatcher")}
}

// Register 只应在启动阶段调用。
func (d *Dispatcher) Register(h EventHandler) {
	d.handlers = append(d.handlers, h)
}

// Dispatch 投递事件。请求结束不应打断投递，所以去掉了 ctx 的取消信号。
func (d *Dispatcher) Dispatch(ctx context.Context, events ...Event) {
	ctx = context.WithoutCancel(ctx)
	for _, ev := range events {
		for _, h := range d.handlers {
			d.handle(ctx, h, ev)
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, h EventHandler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("event handler panicked",
				zap.String("kind", string(ev.Kind)),
				zap.Uint("order_id", ev.Order.ID),
				zap.Any("panic", r))
		}
	}()
	h.HandleEvent(ctx, ev)
}
