package router

import (
	"errors"
	"net/http"

	"restaurant_order/internal/catalog"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// listMenu 全部可点菜品。
func listMenu(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := catalog.ListAvailable(c.Request.Context(), db)
		if err != nil {
			fail(c, http.StatusInternalServerError, "Internal server error", err)
			return
		}
		okList(c, list)
	}
}

func listCategories(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := catalog.Categories(c.Request.Context(), db)
		if err != nil {
			fail(c, http.StatusInternalServerError, "Internal server error", err)
			return
		}
		okList(c, list)
	}
}

func listMenuByCategory(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "categoryId")
		if !ok {
			return
		}
		list, err := catalog.ListByCategory(c.Request.Context(), db, id)
		if err != nil {
			fail(c, http.StatusInternalServerError, "Internal server error", err)
			return
		}
		okList(c, list)
	}
}

func createMenuItem(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in catalog.CreateInput
		if err := c.ShouldBindJSON(&in); err != nil {
			fail(c, http.StatusBadRequest, "Invalid request body", err)
			return
		}
		item, err := catalog.Create(c.Request.Context(), db, in)
		if err != nil {
			failCatalog(c, err)
			return
		}
		ok(c, http.StatusCreated, "Menu item created successfully", item)
	}
}

// updateMenuItem 调价或上下架。已下订单不受影响。
func updateMenuItem(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, valid := parseID(c, "id")
		if !valid {
			return
		}
		var in catalog.UpdateInput
		if err := c.ShouldBindJSON(&in); err != nil {
			fail(c, http.StatusBadRequest, "Invalid request body", err)
			return
		}
		item, err := catalog.Update(c.Request.Context(), db, id, in)
		if err != nil {
			failCatalog(c, err)
			return
		}
		ok(c, http.StatusOK, "Menu item updated successfully", item)
	}
}

func failCatalog(c *gin.Context, err error) {
	switch {
	case errors.Is(err, catalog.ErrInvalidItem):
		fail(c, http.StatusBadRequest, "Invalid menu item: name is required, price and preparation_time must not be negative", nil)
	case errors.Is(err, catalog.ErrItemNotFound):
		fail(c, http.StatusNotFound, "Menu item not found", nil)
	case errors.Is(err, catalog.ErrCategoryNotFound):
		fail(c, http.StatusNotFound, "Category not found", nil)
	default:
		fail(c, http.StatusInternalServerError, "Internal server error", err)
	}
}
