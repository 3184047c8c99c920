package router

import (
	"net/http"

	"restaurant_order/internal/order"

	"github.com/gin-gonic/gin"
)

// listOrders 全部订单（含明细），新单在前。
func listOrders(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := svc.List(c.Request.Context())
		if err != nil {
			failOrder(c, err, "Internal server error")
			return
		}
		okList(c, list)
	}
}

func listOrdersByStatus(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := svc.ListByStatus(c.Request.Context(), c.Param("status"))
		if err != nil {
			failOrder(c, err, "Internal server error")
			return
		}
		okList(c, list)
	}
}

func getOrder(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}
		o, err := svc.Get(c.Request.Context(), id)
		if err != nil {
			failOrder(c, err, "Internal server error")
			return
		}
		okData(c, o)
	}
}

// createOrder 下单入口。
// 关键流程：
// 1. 解析并校验购物车
// 2. 事务内按当前菜单计价，写订单与明细
// 3. 提交后派发事件（看板推送、新单提醒）
func createOrder(svc *order.Service, dispatcher *order.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req order.CreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, "Invalid request body", err)
			return
		}

		o, events, err := svc.Create(c.Request.Context(), req)
		if err != nil {
			failOrder(c, err, "Error creating order")
			return
		}
		dispatcher.Dispatch(c.Request.Context(), events...)

		ok(c, http.StatusCreated, "Order created successfully", o)
	}
}

func updateOrderStatus(svc *order.Service, dispatcher *order.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, valid := parseID(c, "id")
		if !valid {
			return
		}
		var req struct {
			Status string `json:"status"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, "Invalid request body", err)
			return
		}

		o, events, err := svc.UpdateStatus(c.Request.Context(), id, req.Status)
		if err != nil {
			failOrder(c, err, "Internal server error")
			return
		}
		dispatcher.Dispatch(c.Request.Context(), events...)

		ok(c, http.StatusOK, "Order status updated successfully", o)
	}
}

func deleteOrder(svc *order.Service, dispatcher *order.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, valid := parseID(c, "id")
		if !valid {
			return
		}
		o, events, err := svc.Delete(c.Request.Context(), id)
		if err != nil {
			failOrder(c, err, "Internal server error")
			return
		}
		dispatcher.Dispatch(c.Request.Context(), events...)

		ok(c, http.StatusOK, "Order deleted successfully", o)
	}
}

// activeOrders 今日进行中订单，按状态分组。
func activeOrders(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		groups, err := svc.ActiveToday(c.Request.Context())
		if err != nil {
			failOrder(c, err, "Internal server error")
			return
		}
		ok(c, http.StatusOK, "Active orders retrieved successfully", groups)
	}
}

func okData(c *gin.Context, data any) {
	ok(c, http.StatusOK, "", data)
}
