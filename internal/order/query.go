package order

import (
	"context"
	"errors"
	"time"

	"restaurant_order/internal/model"

	"gorm.io/gorm"
)

// Get 按 ID 读取订单及明细。
func (s *Service) Get(ctx context.Context, id uint) (model.Order, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var order model.Order
	err := s.db.WithContext(ctx).Preload("Items").First(&order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Order{}, notFoundf("Order not found")
		}
		return model.Order{}, storeErr("get order", err)
	}
	return order, nil
}

// List 全部订单，新单在前。
func (s *Service) List(ctx context.Context) ([]model.Order, error) {
	return s.find(ctx, "list orders", nil)
}

// ListByStatus 某一状态下的订单，新单在前。
func (s *Service) ListByStatus(ctx context.Context, status string) ([]model.Order, error) {
	st := model.OrderStatus(status)
	if !st.Valid() {
		return nil, validationf("Invalid status. Must be one of: %s", model.StatusList())
	}
	return s.find(ctx, "list orders by status", func(q *gorm.DB) *gorm.DB {
		return q.Where("status = ?", st)
	})
}

// StatusGroup 今日进行中订单按状态分组。
type StatusGroup struct {
	Status model.OrderStatus `json:"status"`
	Count  int               `json:"count"`
	Orders []model.Order     `json:"orders"`
}

// ActiveToday 今天（服务器本地日期）创建且仍在流程中的订单，按流程顺序分组，组内新单在前。
func (s *Service) ActiveToday(ctx context.Context) ([]StatusGroup, error) {
	start := startOfDay(s.now())
	orders, err := s.find(ctx, "list active orders", func(q *gorm.DB) *gorm.DB {
		return q.Where("status IN ? AND created_at >= ?", model.ActiveStatuses, start.UTC())
	})
	if err != nil {
		return nil, err
	}

	groups := make([]StatusGroup, 0, len(model.ActiveStatuses))
	for _, st := range model.ActiveStatuses {
		g := StatusGroup{Status: st, Orders: []model.Order{}}
		for _, o := range orders {
			if o.Status == st {
				g.Orders = append(g.Orders, o)
			}
		}
		g.Count = len(g.Orders)
		if g.Count > 0 {
			groups = append(groups, g)
		}
	}
	return groups, nil
}

func (s *Service) find(ctx context.Context, op string, scope func(*gorm.DB) *gorm.DB) ([]model.Order, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	q := s.db.WithContext(ctx).Preload("Items")
	if scope != nil {
		q = scope(q)
	}
	var list []model.Order
	if err := q.Order("created_at DESC").Order("id DESC").Find(&list).Error; err != nil {
		return nil, storeErr(op, err)
	}
	return list, nil
}

func startOfDay(t time.Time) time.Time {
	t = t.Local()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}
