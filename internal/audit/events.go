package audit

import "time"

// 登录方式
const (
	MethodPassword = "password" // 邮箱密码
	MethodWechat   = "wechat"   // 微信扫码
	MethodRegister = "register" // 注册即登录
)

// LoginEvent 登录事件，推送给管理后台的实时流
type LoginEvent struct {
	UserID string    `json:"user_id"`
	Email  string    `json:"email"`
	Method string    `json:"method"`
	IP     string    `json:"ip"`
	Region string    `json:"region"`
	Time   time.Time `json:"time"`
}

// Hub 登录事件集线器。Publish永不阻塞，缓冲满时丢弃最旧事件。
type Hub struct {
	events chan *LoginEvent
}

// NewHub 创建事件集线器
func NewHub() *Hub {
	return &Hub{
		events: make(chan *LoginEvent, 100),
	}
}

// Publish 发布登录事件
func (h *Hub) Publish(event *LoginEvent) {
	for {
		select {
		case h.events <- event:
			return
		default:
			// 缓冲已满，丢弃最旧的一条
			select {
			case <-h.events:
			default:
			}
		}
	}
}

// Events 事件通道，由WebSocket服务器消费
func (h *Hub) Events() <-chan *LoginEvent {
	return h.events
}
