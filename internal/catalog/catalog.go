// Package catalog 是菜单数据的薄封装：下单时按 ID 查价，外加几个菜单维护接口用到的读写。
package catalog

import (
	"context"
	"errors"
	"sort"
	"strings"

	"restaurant_order/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrItemNotFound     = errors.New("menu item not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrInvalidItem      = errors.New("invalid menu item")
)

// Lookup 在给定事务内读取菜品。支持行锁的方言加共享锁，
// 保证校验到写入明细之间菜品不会被并发修改。
func Lookup(tx *gorm.DB, id uint) (model.MenuItem, error) {
	q := tx
	if tx.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "SHARE"})
	}
	var item model.MenuItem
	if err := q.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.MenuItem{}, ErrItemNotFound
		}
		return model.MenuItem{}, err
	}
	return item, nil
}

// ListAvailable 返回全部可点菜品，按分类名、菜名排序。
func ListAvailable(ctx context.Context, db *gorm.DB) ([]model.MenuItem, error) {
	var list []model.MenuItem
	err := db.WithContext(ctx).Preload("Category").Where("is_available = ?", true).Find(&list).Error
	if err != nil {
		return nil, err
	}
	sortItems(list)
	return list, nil
}

// ListByCategory 返回某分类下的可点菜品。
func ListByCategory(ctx context.Context, db *gorm.DB, categoryID uint) ([]model.MenuItem, error) {
	var list []model.MenuItem
	err := db.WithContext(ctx).Preload("Category").
		Where("category_id = ? AND is_available = ?", categoryID, true).
		Order("name").
		Find(&list).Error
	return list, err
}

func Categories(ctx context.Context, db *gorm.DB) ([]model.Category, error) {
	var list []model.Category
	err := db.WithContext(ctx).Order("name").Find(&list).Error
	return list, err
}

// CreateInput 新建菜品参数。
type CreateInput struct {
	CategoryID      *uint           `json:"category_id"`
	Name            string          `json:"name" binding:"required"`
	Description     string          `json:"description"`
	Price           decimal.Decimal `json:"price"`
	IsAvailable     *bool           `json:"is_available"`
	PreparationTime int             `json:"preparation_time" binding:"omitempty,min=0"`
}

func Create(ctx context.Context, db *gorm.DB, in CreateInput) (model.MenuItem, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || in.Price.IsNegative() || in.PreparationTime < 0 {
		return model.MenuItem{}, ErrInvalidItem
	}
	item := model.MenuItem{
		CategoryID:      in.CategoryID,
		Name:            name,
		Description:     in.Description,
		Price:           in.Price,
		IsAvailable:     in.IsAvailable == nil || *in.IsAvailable,
		PreparationTime: in.PreparationTime,
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if item.CategoryID != nil {
			var cat model.Category
			if err := tx.First(&cat, *item.CategoryID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrCategoryNotFound
				}
				return err
			}
		}
		return tx.Create(&item).Error
	})
	if err != nil {
		return model.MenuItem{}, err
	}
	return item, nil
}

// UpdateInput 只更新非 nil 字段。调价不影响已下订单（明细里是快照价）。
type UpdateInput struct {
	Name        *string          `json:"name"`
	Price       *decimal.Decimal `json:"price"`
	IsAvailable *bool            `json:"is_available"`
}

func Update(ctx context.Context, db *gorm.DB, id uint, in UpdateInput) (model.MenuItem, error) {
	updates := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return model.MenuItem{}, ErrInvalidItem
		}
		updates["name"] = name
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			return model.MenuItem{}, ErrInvalidItem
		}
		updates["price"] = *in.Price
	}
	if in.IsAvailable != nil {
		updates["is_available"] = *in.IsAvailable
	}

	var item model.MenuItem
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&item, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrItemNotFound
			}
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&item).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&item, id).Error
	})
	if err != nil {
		return model.MenuItem{}, err
	}
	return item, nil
}

func sortItems(list []model.MenuItem) {
	categoryName := func(it model.MenuItem) string {
		if it.Category == nil {
			return ""
		}
		return it.Category.Name
	}
	sort.SliceStable(list, func(i, j int) bool {
		ci, cj := categoryName(list[i]), categoryName(list[j])
		if ci != cj {
			return ci < cj
		}
		return list[i].Name < list[j].Name
	})
}
