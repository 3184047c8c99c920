package realtime

import (
	"net/http"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
)

// keepAliveInterval 空闲时发注释行，防止代理断开长连接。
const keepAliveInterval = 25 * time.Second

// StreamSSE 持续把订阅中的事件写成 "data: <json>\n\n"，直到客户端断开或订阅关闭。
// 返回时订阅已被关闭。
func StreamSSE(c *gin.Context, sub *Subscription) {
	defer sub.Close()

	w := c.Writer
	h := w.Header()
	h.Set("Content-Type", sse.ContentType)
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.Done():
			// 先把已在队列里的事件发完
			drainSSE(c, sub)
			return
		case ev := <-sub.Events():
			if err := sse.Encode(w, sse.Event{Data: ev}); err != nil {
				return
			}
			w.Flush()
		case <-ticker.C:
			if _, err := w.WriteString(": ping\n\n"); err != nil {
				return
			}
			w.Flush()
		}
	}
}

func drainSSE(c *gin.Context, sub *Subscription) {
	for {
		select {
		case ev := <-sub.Events():
			if err := sse.Encode(c.Writer, sse.Event{Data: ev}); err != nil {
				return
			}
			c.Writer.Flush()
		default:
			return
		}
	}
}
