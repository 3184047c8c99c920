// Package storetest 为测试提供独立的内存 SQLite 库。
package storetest

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"restaurant_order/internal/model"
	"restaurant_order/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var seq atomic.Int64

// New 打开一个只属于当前测试的内存库并完成建表。
// 单连接：事务内外的读写全部串行，测试结果可复现。
func New(t testing.TB) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_", "#", "_", "?", "_", "&", "_", "=", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_foreign_keys=on", name, seq.Add(1))

	db, err := store.Open("sqlite", dsn, 1)
	require.NoError(t, err)
	require.NoError(t, store.Migrate(db))
	t.Cleanup(func() { _ = store.Close(db) })
	return db
}

// MenuItem 写入一个菜品并返回。
func MenuItem(t testing.TB, db *gorm.DB, name string, price int64, available bool) model.MenuItem {
	t.Helper()
	item := model.MenuItem{
		Name:        name,
		Price:       decimal.NewFromInt(price),
		IsAvailable: available,
	}
	require.NoError(t, db.Create(&item).Error)
	return item
}
