package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"restaurant_order/internal/model"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// sqlite 默认连接参数：写事务在 BEGIN 时就拿写锁，并发下单互相排队而不是中途冲突。
const sqlitePragmas = "_busy_timeout=5000&_txlock=immediate&_foreign_keys=on"

// Open 按驱动名打开数据库连接。
func Open(driver, dsn string, maxOpenConns int) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		if !strings.Contains(dsn, "?") {
			dsn += "?" + sqlitePragmas
		}
		dialector = sqlite.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	if maxOpenConns > 0 {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("db handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(maxOpenConns)
	}
	return db, nil
}

// Migrate 自动建表。
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&model.Category{}, &model.MenuItem{}, &model.Order{}, &model.OrderItem{})
}

// Close 释放底层连接池。
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping 用于健康检查。
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// SeedDemo 在菜单为空时写入演示用的分类与菜品，返回写入的菜品数。
func SeedDemo(db *gorm.DB, log *zap.Logger) (int, error) {
	var n int64
	if err := db.Model(&model.MenuItem{}).Count(&n).Error; err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}

	type seedItem struct {
		name, desc string
		price      int64
		prep       int
	}
	menu := []struct {
		category model.Category
		items    []seedItem
	}{
		{model.Category{Name: "Coffee", Description: "Espresso based drinks"}, []seedItem{
			{"Latte", "Espresso with steamed milk", 25000, 5},
			{"Cappuccino", "Espresso with milk foam", 27000, 5},
			{"Americano", "Espresso with hot water", 20000, 3},
		}},
		{model.Category{Name: "Pastry", Description: "Freshly baked"}, []seedItem{
			{"Croissant", "Butter croissant", 15000, 2},
			{"Pain au Chocolat", "Chocolate croissant", 18000, 2},
		}},
		{model.Category{Name: "Main Course", Description: "Rice and noodles"}, []seedItem{
			{"Nasi Goreng", "Fried rice with egg", 35000, 15},
			{"Mie Goreng", "Fried noodles", 32000, 15},
		}},
	}

	count := 0
	err := db.Transaction(func(tx *gorm.DB) error {
		for _, group := range menu {
			cat := group.category
			if err := tx.Create(&cat).Error; err != nil {
				return err
			}
			for _, it := range group.items {
				item := model.MenuItem{
					CategoryID:      &cat.ID,
					Name:            it.name,
					Description:     it.desc,
					Price:           decimal.NewFromInt(it.price),
					IsAvailable:     true,
					PreparationTime: it.prep,
				}
				if err := tx.Create(&item).Error; err != nil {
					return err
				}
				count++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	log.Info("seeded demo menu", zap.Int("items", count))
	return count, nil
}
