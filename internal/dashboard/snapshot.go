// Package dashboard 计算后厨看板指标，并在订单变更后推送给所有在线订阅。
package dashboard

import (
	"context"
	"database/sql"
	"encoding/json"
	"math"
	"time"

	"restaurant_order/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Snapshot 某一时刻的全量指标。除 ordersByStatus 外都不含已取消订单。
type Snapshot struct {
	TotalOrders     int64           `json:"totalOrders"`
	TodayOrders     int64           `json:"todayOrders"`
	TotalRevenue    decimal.Decimal `json:"totalRevenue"`
	TodayRevenue    decimal.Decimal `json:"todayRevenue"`
	ActiveOrders    int64           `json:"activeOrders"`
	CompletedOrders int64           `json:"completedOrders"`
	CancelledOrders int64           `json:"cancelledOrders"`
	CompletionRate  float64         `json:"completionRate"` // 百分比，一位小数
	AvgOrderValue   decimal.Decimal `json:"avgOrderValue"`
	PopularItems    []PopularItem   `json:"popularItems"`
	OrdersByStatus  []StatusCount   `json:"ordersByStatus"`
}

// MarshalJSON 三个金额汇总按数字输出（不带引号），前端直接拿来做运算。
func (s Snapshot) MarshalJSON() ([]byte, error) {
	type plain Snapshot
	return json.Marshal(struct {
		plain
		TotalRevenue  json.Number `json:"totalRevenue"`
		TodayRevenue  json.Number `json:"todayRevenue"`
		AvgOrderValue json.Number `json:"avgOrderValue"`
	}{
		plain:         plain(s),
		TotalRevenue:  json.Number(s.TotalRevenue.String()),
		TodayRevenue:  json.Number(s.TodayRevenue.String()),
		AvgOrderValue: json.Number(s.AvgOrderValue.String()),
	})
}

// PopularItem 按销量排名的菜品。
type PopularItem struct {
	ID            uint            `json:"id"`
	Name          string          `json:"name"`
	OrderCount    int64           `json:"order_count"`
	TotalQuantity int64           `json:"total_quantity"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
}

// StatusCount 某一状态下的订单数与金额。
type StatusCount struct {
	Status      model.OrderStatus `json:"status"`
	Count       int64             `json:"count"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
}

const popularLimit = 5

// Compute 在一个只读事务里完成全部聚合，各项指标之间互相一致。
// now 决定"今天"的范围：服务器本地日期的 [00:00, 次日 00:00)。
func Compute(ctx context.Context, db *gorm.DB, now time.Time) (Snapshot, error) {
	var snap Snapshot
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		byStatus, err := countByStatus(tx)
		if err != nil {
			return err
		}
		snap.OrdersByStatus = byStatus

		snap.TotalRevenue = decimal.Zero
		for _, sc := range byStatus {
			switch {
			case sc.Status == model.StatusCancelled:
				snap.CancelledOrders = sc.Count
				continue
			case sc.Status == model.StatusCompleted:
				snap.CompletedOrders = sc.Count
			case sc.Status.Active():
				snap.ActiveOrders += sc.Count
			}
			snap.TotalOrders += sc.Count
			snap.TotalRevenue = snap.TotalRevenue.Add(sc.TotalAmount)
		}

		if err := today(tx, now, &snap); err != nil {
			return err
		}

		items, err := popularItems(tx)
		if err != nil {
			return err
		}
		snap.PopularItems = items
		return nil
	}, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return Snapshot{}, err
	}

	snap.AvgOrderValue = decimal.Zero
	if snap.TotalOrders > 0 {
		snap.CompletionRate = math.Round(float64(snap.CompletedOrders)/float64(snap.TotalOrders)*1000) / 10
		snap.AvgOrderValue = snap.TotalRevenue.Div(decimal.NewFromInt(snap.TotalOrders)).Round(2)
	}
	return snap, nil
}

// countByStatus 六个状态全部返回，没有订单的计 0，按流程顺序排列。
func countByStatus(tx *gorm.DB) ([]StatusCount, error) {
	var rows []StatusCount
	err := tx.Model(&model.Order{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(total_amount), 0) AS total_amount").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	found := make(map[model.OrderStatus]StatusCount, len(rows))
	for _, r := range rows {
		found[r.Status] = r
	}
	out := make([]StatusCount, 0, len(model.AllStatuses))
	for _, st := range model.AllStatuses {
		sc, ok := found[st]
		if !ok {
			sc = StatusCount{Status: st, TotalAmount: decimal.Zero}
		}
		sc.TotalAmount = sc.TotalAmount.Round(2)
		out = append(out, sc)
	}
	return out, nil
}

func today(tx *gorm.DB, now time.Time, snap *Snapshot) error {
	start := startOfDay(now)
	end := start.AddDate(0, 0, 1)

	var row struct {
		Count   int64
		Revenue decimal.Decimal
	}
	err := tx.Model(&model.Order{}).
		Select("COUNT(*) AS count, COALESCE(SUM(total_amount), 0) AS revenue").
		Where("status <> ? AND created_at >= ? AND created_at < ?", model.StatusCancelled, start.UTC(), end.UTC()).
		Scan(&row).Error
	if err != nil {
		return err
	}
	snap.TodayOrders = row.Count
	snap.TodayRevenue = row.Revenue.Round(2)
	return nil
}

// popularItems 按总销量取前五；名称优先用当前菜单，菜品已删除时用下单时的快照。
func popularItems(tx *gorm.DB) ([]PopularItem, error) {
	var rows []PopularItem
	err := tx.Table("order_items AS oi").
		Select(`oi.menu_item_id AS id,
			COALESCE(MAX(mi.name), MAX(oi.menu_item_name)) AS name,
			COUNT(DISTINCT oi.order_id) AS order_count,
			SUM(oi.quantity) AS total_quantity,
			SUM(oi.quantity * oi.price) AS total_revenue`).
		Joins("JOIN orders o ON o.id = oi.order_id").
		Joins("LEFT JOIN menu_items mi ON mi.id = oi.menu_item_id").
		Where("o.status <> ?", model.StatusCancelled).
		Group("oi.menu_item_id").
		Order("total_quantity DESC").
		Order("oi.menu_item_id ASC").
		Limit(popularLimit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].TotalRevenue = rows[i].TotalRevenue.Round(2)
	}
	if rows == nil {
		rows = []PopularItem{}
	}
	return rows, nil
}

func startOfDay(t time.Time) time.Time {
	t = t.Local()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}
