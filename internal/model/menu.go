package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category 菜单分类
type Category struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Name        string `gorm:"size:64;uniqueIndex;not null" json:"name"`
	Description string `gorm:"size:255" json:"description"`
}

func (Category) TableName() string { return "categories" }

// MenuItem 菜品：名称、价格、是否可点。下单时以它为准计价。
type MenuItem struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CategoryID      *uint           `gorm:"index" json:"category_id"`
	Name            string          `gorm:"size:128;not null" json:"name"`
	Description     string          `gorm:"type:text" json:"description"`
	Price           decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	IsAvailable     bool            `gorm:"not null" json:"is_available"`
	PreparationTime int             `gorm:"not null;default:0" json:"preparation_time"` // 分钟

	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

func (MenuItem) TableName() string { return "menu_items" }
