package v1

import (
	"net/http"

	"ucenter/internal/audit"
	"ucenter/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// AdminHandler 管理后台处理器
type AdminHandler struct {
	wsServer *audit.WebSocketServer
	upgrader websocket.Upgrader
}

// NewAdminHandler 创建管理后台处理器实例
func NewAdminHandler(wsServer *audit.WebSocketServer) *AdminHandler {
	return &AdminHandler{
		wsServer: wsServer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// 管理后台与用户中心同根域，跨子域放行
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// LoginEvents 升级为WebSocket并订阅登录事件流
func (h *AdminHandler) LoginEvents(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Error("[WS] Failed to upgrade connection: %v", err)
		return
	}

	h.wsServer.AddClient(conn)
	logger.Info("[WS] Login event subscriber connected, total=%d", h.wsServer.ClientCount())
}
