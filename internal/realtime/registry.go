// Package realtime 维护在线的推送订阅（SSE / WebSocket）。
//
// 每个订阅有一个有界队列，由持有连接的那个 goroutine 独占消费。
// 广播只往队列里放，不等待慢连接；队列满时丢弃最旧的一条再放入新的。
// 推送内容都是全量快照，丢掉旧的不影响最终状态。
package realtime

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

var ErrClosed = errors.New("registry closed")

// Event 推送给客户端的一条消息。
type Event struct {
	Type      string    `json:"type"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Registry 进程内的订阅集合。启动时创建一次，关闭时断开全部订阅。
type Registry struct {
	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	nextID uint64
	closed bool

	buffer int
	log    *zap.Logger
}

func NewRegistry(buffer int, log *zap.Logger) *Registry {
	if buffer <= 0 {
		buffer = 1
	}
	return &Registry{
		subs:   make(map[uint64]*Subscription),
		buffer: buffer,
		log:    log.Named("realtime"),
	}
}

// Subscribe 新建订阅并加入集合。initial 会先于之后的任何广播放进队列。
func (r *Registry) Subscribe(initial ...Event) (*Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}

	r.nextID++
	sub := &Subscription{
		id:          r.nextID,
		registry:    r,
		ConnectedAt: time.Now(),
		queue:       make(chan Event, r.buffer),
		done:        make(chan struct{}),
	}
	for _, ev := range initial {
		sub.enqueue(ev)
	}
	r.subs[sub.id] = sub
	r.log.Info("subscriber connected", zap.Uint64("id", sub.id), zap.Int("subscribers", len(r.subs)))
	return sub, nil
}

// Broadcast 把事件放进每个订阅的队列，返回投递到的订阅数。
func (r *Registry) Broadcast(ev Event) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, sub := range r.subs {
		if sub.enqueue(ev) {
			n++
		}
	}
	return n
}

// Len 当前在线订阅数。
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

// Close 断开全部订阅，之后的 Subscribe 返回 ErrClosed。
func (r *Registry) Close() {
	r.mu.Lock()
	subs := r.subs
	r.subs = make(map[uint64]*Subscription)
	r.closed = true
	r.mu.Unlock()

	for _, sub := range subs {
		sub.markDone()
	}
	r.log.Info("registry closed", zap.Int("disconnected", len(subs)))
}

func (r *Registry) remove(sub *Subscription) {
	r.mu.Lock()
	_, ok := r.subs[sub.id]
	delete(r.subs, sub.id)
	left := len(r.subs)
	r.mu.Unlock()

	if ok {
		r.log.Info("subscriber disconnected",
			zap.Uint64("id", sub.id),
			zap.Uint64("dropped", sub.Dropped()),
			zap.Int("subscribers", left))
	}
}

// Subscription 一个客户端的推送通道。
type Subscription struct {
	id          uint64
	registry    *Registry
	ConnectedAt time.Time

	mu      sync.Mutex // 串行化生产者，保证丢旧 + 入队是原子的
	queue   chan Event
	done    chan struct{}
	once    sync.Once
	dropped atomic.Uint64
}

func (s *Subscription) ID() uint64 { return s.id }

// Events 待发送的事件。只能由一个 goroutine 消费。
func (s *Subscription) Events() <-chan Event { return s.queue }

// Done 在订阅关闭（客户端断开或 registry 关闭）后被关闭。
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Dropped 因队列已满被丢弃的事件数。
func (s *Subscription) Dropped() uint64 { return s.dropped.Load() }

// Close 从集合中移除并结束订阅，可重复调用。
func (s *Subscription) Close() {
	s.registry.remove(s)
	s.markDone()
}

func (s *Subscription) markDone() {
	s.once.Do(func() { close(s.done) })
}

func (s *Subscription) enqueue(ev Event) bool {
	select {
	case <-s.done:
		return false
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case s.queue <- ev:
		return true
	default:
	}
	// 队列已满：丢最旧的一条
	select {
	case <-s.queue:
		s.dropped.Add(1)
	default:
	}
	select {
	case s.queue <- ev:
		return true
	default:
		s.dropped.Add(1)
		return false
	}
}
