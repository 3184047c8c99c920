package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"restaurant_order/internal/order"
	"restaurant_order/internal/realtime"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// EventDashboardUpdate 推送事件的 type 字段。
const EventDashboardUpdate = "dashboard_update"

// Notifier 在订单变更后重新计算指标并广播。
//
// 订单事件只做标记，由 Run 所在的 goroutine 重新计算并广播；计算期间到达的多次变更
// 合并成下一次广播。下单等请求因此不等待看板聚合。
// 计算与广播在同一把锁内完成：任一订阅收到的快照顺序与提交顺序一致，
// 新订阅的首个快照也不会晚于之后的广播。
type Notifier struct {
	db       *gorm.DB
	registry *realtime.Registry
	log      *zap.Logger
	timeout  time.Duration
	now      func() time.Time

	mu    sync.Mutex
	dirty chan struct{} // 容量 1：有待广播的变更
}

type Option func(*Notifier)

func WithTimeout(d time.Duration) Option {
	return func(n *Notifier) { n.timeout = d }
}

func WithClock(now func() time.Time) Option {
	return func(n *Notifier) { n.now = now }
}

func NewNotifier(db *gorm.DB, registry *realtime.Registry, log *zap.Logger, opts ...Option) *Notifier {
	n := &Notifier{
		db:       db,
		registry: registry,
		log:      log.Named("dashboard"),
		timeout:  5 * time.Second,
		now:      time.Now,
		dirty:    make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Snapshot 供轮询接口使用。
func (n *Notifier) Snapshot(ctx context.Context) (Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()
	return Compute(ctx, n.db, n.now())
}

// Broadcast 计算一次快照并推给所有订阅，返回收到的订阅数。
// 计算失败只记日志，本次不推送。
func (n *Notifier) Broadcast(ctx context.Context) int {
	n.mu.Lock()
	defer n.mu.Unlock()

	snap, err := n.Snapshot(ctx)
	if err != nil {
		n.log.Error("compute snapshot failed, broadcast skipped", zap.Error(err))
		return 0
	}
	delivered := n.registry.Broadcast(n.event(snap))
	n.log.Debug("dashboard broadcast",
		zap.Int("delivered", delivered),
		zap.Int64("total_orders", snap.TotalOrders))
	return delivered
}

// HandleEvent 订单创建、改状态、删除后登记一次刷新，立即返回。
// 已有待处理的刷新时直接合并。
func (n *Notifier) HandleEvent(_ context.Context, ev order.Event) {
	n.log.Debug("order changed",
		zap.String("kind", string(ev.Kind)),
		zap.Uint("order_id", ev.Order.ID))
	select {
	case n.dirty <- struct{}{}:
	default:
	}
}

// Run 处理登记的刷新，阻塞直到 ctx 取消。进程内只应运行一个。
// 标记在提交之后写入，取出标记之后才开始计算，所以每次提交都会被某次广播覆盖。
func (n *Notifier) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-n.dirty:
			n.Broadcast(ctx)
		}
	}
}

// Subscribe 新建订阅，队列里第一条就是当前的全量快照。
func (n *Notifier) Subscribe(ctx context.Context) (*realtime.Subscription, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	snap, err := n.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("initial snapshot: %w", err)
	}
	return n.registry.Subscribe(n.event(snap))
}

func (n *Notifier) event(snap Snapshot) realtime.Event {
	return realtime.Event{
		Type:      EventDashboardUpdate,
		Data:      snap,
		Timestamp: n.now().UTC(),
	}
}
