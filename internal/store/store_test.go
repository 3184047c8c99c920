package store_test

import (
	"context"
	"testing"

	"restaurant_order/internal/model"
	"restaurant_order/internal/store"
	"restaurant_order/internal/store/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSeedDemo_OnlyOnce(t *testing.T) {
	db := storetest.New(t)

	n, err := store.SeedDemo(db, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	n, err = store.SeedDemo(db, zap.NewNop())
	require.NoError(t, err)
	assert.Zero(t, n)

	var latte model.MenuItem
	require.NoError(t, db.Where("name = ?", "Latte").First(&latte).Error)
	assert.Equal(t, "25000", latte.Price.String())
	assert.True(t, latte.IsAvailable)
	require.NotNil(t, latte.CategoryID)
}

func TestPing(t *testing.T) {
	db := storetest.New(t)
	assert.NoError(t, store.Ping(context.Background(), db))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := store.Open("oracle", "x", 0)
	assert.Error(t, err)
}
