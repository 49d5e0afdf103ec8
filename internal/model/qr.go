package model

// QRTicket 扫码登录票据
type QRTicket struct {
	Ticket    string `json:"ticket"`
	QRCodeURL string `json:"qr_code_url"`
}

// 票据在存储中的状态
const (
	TicketStatusWaiting = "waiting" // 已签发，等待扫码
	TicketStatusScanned = "scanned" // 已被扫码
)

// TicketRecord 票据存储记录
type TicketRecord struct {
	Status string `json:"status"`
	OpenID string `json:"openid,omitempty"` // 扫码后填入
}

// WechatBindRequest 微信绑定请求。is_bind为false时表示
// 以该微信身份直接创建新账号登录，不与已有账号合并。
type WechatBindRequest struct {
	IsBind          bool   `json:"is_bind"`
	WechatTempToken string `json:"wechat_temp_token" binding:"required"`
	UserID          string `json:"xuserid,omitempty"`
	Token           string `json:"xtoken,omitempty"`
}

// ScanRequest 扫码回调（开发/测试替身，生产由微信服务器回调）
type ScanRequest struct {
	Ticket string `json:"ticket" binding:"required"`
	OpenID string `json:"openid" binding:"required"`
}

// QRStatusKind 扫码状态查询结果类别
type QRStatusKind int

const (
	QRStatusWaiting  QRStatusKind = iota // 尚未扫码
	QRStatusNewUser                      // 已扫码，新身份，携带临时令牌
	QRStatusBound                        // 已扫码，已绑定身份，携带完整凭证
	QRStatusExpired                      // 票据已过期
)

// QRStatusResult 扫码状态查询结果。NewUser与Bound互斥，
// 前者只带TempToken，后者只带Credentials。
type QRStatusResult struct {
	Kind        QRStatusKind
	TempToken   string
	Credentials *Credentials
}
