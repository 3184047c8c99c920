package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"restaurant_order/internal/catalog"
	"restaurant_order/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service 订单核心：建单、改状态、删除。
// 方法只负责事务内的正确性，返回提交后产生的事件，由调用方交给 Dispatcher。
type Service struct {
	db      *gorm.DB
	policy  TransitionPolicy
	timeout time.Duration
	now     func() time.Time
}

type Option func(*Service)

func WithPolicy(p TransitionPolicy) Option {
	return func(s *Service) { s.policy = p }
}

// WithQueryTimeout 限制单次操作在数据库上的总耗时，超时按 ErrStore 返回。
func WithQueryTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(db *gorm.DB, opts ...Option) *Service {
	s := &Service{
		db:      db,
		policy:  PolicyPermissive,
		timeout: 5 * time.Second,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Policy() TransitionPolicy { return s.policy }

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// Create 校验购物车、按当前菜单计价，并在一个事务里写入订单与全部明细。
// 任一步失败整体回滚，不会留下半个订单。
func (s *Service) Create(ctx context.Context, req CreateRequest) (model.Order, []Event, error) {
	if err := req.Validate(); err != nil {
		return model.Order{}, nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	now := s.now().UTC()
	order := model.Order{
		OrderNumber:   newOrderNumber(now),
		CustomerName:  strings.TrimSpace(req.CustomerName),
		CustomerPhone: strings.TrimSpace(req.CustomerPhone),
		TableNumber:   req.TableNumber.ptr(),
		Notes:         req.Notes,
		Status:        model.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. 逐行查菜单、校验可点并累计总价
		priced := make([]decimal.Decimal, len(req.Items))
		total := decimal.Zero
		for i, line := range req.Items {
			item, err := orderable(tx, line.MenuItemID)
			if err != nil {
				return err
			}
			priced[i] = item.Price
			total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		}
		if total.IsNegative() {
			return validationf("order total must not be negative, got %s", total)
		}
		order.TotalAmount = total

		// 2. 写订单头
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		// 3. 写明细：重新读一次菜单，复制当时的价格与名称
		items := make([]model.OrderItem, 0, len(req.Items))
		for i, line := range req.Items {
			item, err := orderable(tx, line.MenuItemID)
			if err != nil {
				return err
			}
			if !item.Price.Equal(priced[i]) {
				return fmt.Errorf("price of menu item %d changed during submission", item.ID)
			}
			oi := model.OrderItem{
				OrderID:      order.ID,
				MenuItemID:   item.ID,
				MenuItemName: item.Name,
				Quantity:     line.Quantity,
				Price:        item.Price,
				Notes:        line.Notes,
			}
			if err := tx.Create(&oi).Error; err != nil {
				return err
			}
			items = append(items, oi)
		}
		order.Items = items
		return nil
	})
	if err != nil {
		return model.Order{}, nil, storeErr("create order", err)
	}

	ev := Event{Kind: EventOrderCreated, Order: order, To: order.Status, At: now}
	return order, []Event{ev}, nil
}

// orderable 查菜品并确认可点。
func orderable(tx *gorm.DB, id uint) (model.MenuItem, error) {
	item, err := catalog.Lookup(tx, id)
	if err != nil {
		if errors.Is(err, catalog.ErrItemNotFound) {
			return model.MenuItem{}, notFoundf("Menu item with ID %d not found", id)
		}
		return model.MenuItem{}, err
	}
	if !item.IsAvailable {
		return model.MenuItem{}, unavailablef("Menu item %q is not available", item.Name)
	}
	return item, nil
}

// UpdateStatus 设置订单状态并刷新 updated_at。
// 同一订单的并发修改以最后一次提交为准，没有版本号校验。
func (s *Service) UpdateStatus(ctx context.Context, id uint, status string) (model.Order, []Event, error) {
	to := model.OrderStatus(status)
	if !to.Valid() {
		return model.Order{}, nil, validationf("Invalid status. Must be one of: %s", model.StatusList())
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	now := s.now().UTC()
	var (
		order model.Order
		from  model.OrderStatus
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).Preload("Items").First(&order, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundf("Order not found")
			}
			return err
		}
		from = order.Status
		if !s.policy.Allows(from, to) {
			return &Error{
				Kind: ErrInvalidTransition,
				Msg:  fmt.Sprintf("Cannot change order status from %s to %s", from, to),
			}
		}
		res := tx.Model(&model.Order{}).Where("id = ?", order.ID).Updates(map[string]any{
			"status":     to,
			"updated_at": now,
		})
		if res.Error != nil {
			return res.Error
		}
		order.Status = to
		order.UpdatedAt = now
		return nil
	})
	if err != nil {
		return model.Order{}, nil, storeErr("update order status", err)
	}

	ev := Event{Kind: EventOrderStatusChanged, Order: order, From: from, To: to, At: now}
	return order, []Event{ev}, nil
}

// Delete 删除订单及其明细。
func (s *Service) Delete(ctx context.Context, id uint) (model.Order, []Event, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var order model.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).Preload("Items").First(&order, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundf("Order not found")
			}
			return err
		}
		if err := tx.Where("order_id = ?", order.ID).Delete(&model.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Order{}, order.ID).Error
	})
	if err != nil {
		return model.Order{}, nil, storeErr("delete order", err)
	}

	ev := Event{Kind: EventOrderDeleted, Order: order, From: order.Status, At: s.now().UTC()}
	return order, []Event{ev}, nil
}

// forUpdate 在支持行锁的方言上加 FOR UPDATE；sqlite 的写事务本身已是串行的。
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// newOrderNumber 生成 ORD-YYYYMMDD-XXXXXXXX。
func newOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s-%s", now.Local().Format("20060102"), suffix)
}
