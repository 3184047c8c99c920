package router

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"restaurant_order/internal/config"
	"restaurant_order/internal/dashboard"
	"restaurant_order/internal/middleware"
	"restaurant_order/internal/order"
	"restaurant_order/internal/store"

	"github.com/gin-gonic/gin"
	rd "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps HTTP 层用到的全部组件，由 main 组装。
type Deps struct {
	DB         *gorm.DB
	Orders     *order.Service
	Dispatcher *order.Dispatcher
	Notifier   *dashboard.Notifier
	Redis      *rd.Client // nil 时不限流
	Config     config.AppConfig
	Log        *zap.Logger
}

// Setup 注册中间件与全部 HTTP 路由。
func Setup(r *gin.Engine, d Deps) {
	log := d.Log.Named("http")
	r.Use(middleware.Recovery(log), middleware.AccessLog(log), middleware.CORS(d.Config.CORSOrigins))

	api := r.Group("/api")
	api.GET("/health", health(d.DB))

	orders := api.Group("/orders")
	orders.GET("", listOrders(d.Orders))
	orders.POST("", middleware.OrderRateLimit(d.Redis, d.Config.OrderRateLimit, d.Config.OrderRateWindow, log),
		createOrder(d.Orders, d.Dispatcher))
	orders.GET("/stream", streamSSE(d.Notifier))
	orders.GET("/ws", streamWebSocket(d.Notifier, d.Config.CORSOrigins, log))
	orders.GET("/status/:status", listOrdersByStatus(d.Orders))
	orders.GET("/:id", getOrder(d.Orders))
	orders.PUT("/:id/status", updateOrderStatus(d.Orders, d.Dispatcher))
	orders.DELETE("/:id", deleteOrder(d.Orders, d.Dispatcher))

	dash := api.Group("/dashboard")
	dash.GET("/stats", dashboardStats(d.Notifier))
	dash.GET("/active", activeOrders(d.Orders))

	menu := api.Group("/menu")
	menu.GET("", listMenu(d.DB))
	menu.GET("/categories", listCategories(d.DB))
	menu.GET("/category/:categoryId", listMenuByCategory(d.DB))
	menu.POST("", createMenuItem(d.DB))
	menu.PATCH("/:id", updateMenuItem(d.DB))

	r.NoRoute(func(c *gin.Context) {
		fail(c, http.StatusNotFound, "Route not found", nil)
	})
}

// health 存活检查，数据库不可用时返回 503。
func health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := store.Ping(c.Request.Context(), db); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "ERROR",
				"message":   "Database unavailable",
				"timestamp": time.Now().UTC(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    "OK",
			"message":   "Restaurant order service is running",
			"timestamp": time.Now().UTC(),
		})
	}
}

// ok 统一成功响应：{"success": true, "message": ..., "data": ...}
func ok(c *gin.Context, status int, message string, data any) {
	body := gin.H{"success": true, "data": data}
	if message != "" {
		body["message"] = message
	}
	c.JSON(status, body)
}

// okList 列表响应额外带 count。
func okList[T any](c *gin.Context, list []T) {
	if list == nil {
		list = []T{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(list), "data": list})
}

// fail 统一失败响应：{"success": false, "message": ..., "error": ...}
func fail(c *gin.Context, status int, message string, err error) {
	body := gin.H{"success": false, "message": message}
	if err != nil && err.Error() != message {
		body["error"] = err.Error()
	}
	if err != nil {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, body)
}

// failOrder 按错误分类映射 HTTP 状态码。数据库错误不把细节暴露给前端。
func failOrder(c *gin.Context, err error, storeMessage string) {
	switch {
	case errors.Is(err, order.ErrValidation):
		fail(c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, order.ErrNotFound):
		fail(c, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, order.ErrUnavailable):
		fail(c, http.StatusConflict, err.Error(), nil)
	default:
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, storeMessage, nil)
	}
}

// parseID 解析路径里的正整数 ID。
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		fail(c, http.StatusBadRequest, "Invalid "+name, nil)
		return 0, false
	}
	return uint(id), true
}
