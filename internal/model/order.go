package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order 顾客订单。TotalAmount 在创建时一次性算出，之后菜品调价也不会重算。
type Order struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	OrderNumber   string          `gorm:"size:64;uniqueIndex;not null" json:"order_number"`
	CustomerName  string          `gorm:"size:128;not null" json:"customer_name"`
	CustomerPhone string          `gorm:"size:32;not null;index" json:"customer_phone"`
	TableNumber   *string         `gorm:"size:16" json:"table_number"` // nil 表示外带
	Notes         string          `gorm:"type:text" json:"notes"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	Status        OrderStatus     `gorm:"size:16;not null;default:pending;index" json:"status"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
}

func (Order) TableName() string { return "orders" }

// OrderItem 订单明细，只属于一个订单。
// Price / MenuItemName 是下单时刻的菜品快照，写入后不再修改。
type OrderItem struct {
	ID           uint            `gorm:"primarykey" json:"id"`
	OrderID      uint            `gorm:"not null;index" json:"order_id"`
	MenuItemID   uint            `gorm:"not null;index" json:"menu_item_id"`
	MenuItemName string          `gorm:"size:128;not null" json:"menu_item_name"`
	Quantity     int             `gorm:"not null" json:"quantity"`
	Price        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Notes        string          `gorm:"type:text" json:"notes"`
}

func (OrderItem) TableName() string { return "order_items" }

// LineTotal = 单价 × 数量
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
