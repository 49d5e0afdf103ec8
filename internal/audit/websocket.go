package audit

import (
	"encoding/json"
	stdlog "log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketConfig WebSocket配置
type WebSocketConfig struct {
	PingInterval   time.Duration // 心跳间隔
	WriteWait      time.Duration // 写超时
	MaxMessageSize int64         // 最大消息大小
}

// WebSocketMessage 推送给客户端的消息
type WebSocketMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// WebSocketServer 向管理后台实时推送登录事件
type WebSocketServer struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]struct{}
	hub     *Hub
	config  *WebSocketConfig
}

// NewWebSocketServer 创建WebSocket服务器
func NewWebSocketServer(hub *Hub, config *WebSocketConfig) *WebSocketServer {
	if config == nil {
		config = &WebSocketConfig{
			PingInterval:   30 * time.Second,
			WriteWait:      10 * time.Second,
			MaxMessageSize: 1024,
		}
	}
	return &WebSocketServer{
		clients: make(map[*websocket.Conn]struct{}),
		hub:     hub,
		config:  config,
	}
}

// Start 消费事件通道并广播，应在独立协程中运行
func (s *WebSocketServer) Start() {
	for event := range s.hub.Events() {
		s.broadcast(event)
	}
}

// AddClient 添加新的WebSocket客户端
func (s *WebSocketServer) AddClient(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conn.SetReadLimit(s.config.MaxMessageSize)
	s.clients[conn] = struct{}{}

	// 启动客户端读取协程，用于检测连接断开
	go s.readPump(conn)
}

// RemoveClient 移除WebSocket客户端
func (s *WebSocketServer) RemoveClient(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clients[conn]; ok {
		delete(s.clients, conn)
		conn.Close()
	}
}

// broadcast 向所有客户端广播登录事件
func (s *WebSocketServer) broadcast(event *LoginEvent) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	message := WebSocketMessage{
		Type:    "login_event",
		Payload: event,
	}

	data, err := json.Marshal(message)
	if err != nil {
		stdlog.Printf("[ERROR] Failed to marshal websocket message: %v", err)
		return
	}

	for conn := range s.clients {
		conn.SetWriteDeadline(time.Now().Add(s.config.WriteWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			stdlog.Printf("[WARN] [WS] Failed to write to websocket: %v", err)
			go s.RemoveClient(conn)
		}
	}
}

// readPump 处理来自客户端的消息（仅用于检测连接状态）
func (s *WebSocketServer) readPump(conn *websocket.Conn) {
	defer func() {
		s.RemoveClient(conn)
	}()

	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				stdlog.Printf("[WARN] [WS] WebSocket error: %v", err)
			}
			break
		}
	}
}

// ClientCount 当前连接的客户端数量
func (s *WebSocketServer) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}
