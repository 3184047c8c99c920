package router

import (
	"net/http"
	"net/url"

	"restaurant_order/internal/dashboard"
	"restaurant_order/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// dashboardStats 轮询用，与推送的快照是同一份计算。
func dashboardStats(n *dashboard.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, err := n.Snapshot(c.Request.Context())
		if err != nil {
			_ = c.Error(err)
			fail(c, http.StatusInternalServerError, "Internal server error", nil)
			return
		}
		ok(c, http.StatusOK, "Dashboard statistics retrieved successfully", snap)
	}
}

// streamSSE 看板实时推送。连上立即收到一份全量快照，之后每次订单变更推一次。
func streamSSE(n *dashboard.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		sub, err := n.Subscribe(c.Request.Context())
		if err != nil {
			_ = c.Error(err)
			fail(c, http.StatusServiceUnavailable, "Realtime updates unavailable", nil)
			return
		}
		realtime.StreamSSE(c, sub)
	}
}

// streamWebSocket 与 SSE 相同的推送，走 WebSocket。只下行，客户端消息忽略。
func streamWebSocket(n *dashboard.Notifier, origins []string, log *zap.Logger) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     originChecker(origins),
	}
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade 已经写过错误响应
			log.Debug("ws upgrade failed", zap.Error(err))
			return
		}
		sub, err := n.Subscribe(c.Request.Context())
		if err != nil {
			log.Warn("ws subscribe failed", zap.Error(err))
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "realtime updates unavailable"))
			_ = conn.Close()
			return
		}
		realtime.StreamWebSocket(conn, sub, log)
	}
}

// originChecker 与 CORS 使用同一份白名单。
func originChecker(origins []string) func(r *http.Request) bool {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		allowed[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return allowed[u.Scheme+"://"+u.Host]
	}
}
