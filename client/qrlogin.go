package client

import (
	"context"
	"sync"
	"time"

	"ucenter/internal/model"
	"ucenter/pkg/logger"
)

// QRState 扫码登录状态机
type QRState int

const (
	QRLoading QRState = iota // 正在获取二维码
	QRActive                 // 二维码有效，轮询中
	QRScanned                // 已扫码，正在建立会话
	QRExpired                // 已过期，等待刷新
	QRBound                  // 会话已建立
)

// QRCoordinator 扫码登录协调器。管理二维码获取、状态轮询、
// 两分钟过期与临时令牌建号的完整生命周期。
// 任一时刻最多只有一组轮询与过期定时器在走。
type QRCoordinator struct {
	client       *Client
	store        SessionStore
	hostname     string
	cookieDays   int
	pollInterval time.Duration
	ticketTTL    time.Duration
	onSession    func() // 会话建立后的回调，通常是登录后跳转

	// OnState 状态变更回调，供界面刷新
	OnState func(QRState)

	mu         sync.Mutex
	ctx        context.Context
	gen        int // 代号。刷新/关闭后旧代的回调全部作废。
	state      QRState
	ticket     string
	qrURL      string
	pollTask   *Handle
	expiryTask *Handle
	binding    bool // 绑定请求在途，轮询tick跳过
}

// NewQRCoordinator 创建扫码登录协调器
func NewQRCoordinator(client *Client, store SessionStore, hostname string, cookieDays int, pollInterval, ticketTTL time.Duration, onSession func()) *QRCoordinator {
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	if ticketTTL <= 0 {
		ticketTTL = 2 * time.Minute
	}
	return &QRCoordinator{
		client:       client,
		store:        store,
		hostname:     hostname,
		cookieDays:   cookieDays,
		pollInterval: pollInterval,
		ticketTTL:    ticketTTL,
		onSession:    onSession,
		state:        QRLoading,
	}
}

// State 当前状态
func (q *QRCoordinator) State() QRState {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}

// QRCodeURL 当前二维码内容，QRActive前为空
func (q *QRCoordinator) QRCodeURL() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.qrURL
}

// Start 获取二维码并开始轮询
func (q *QRCoordinator) Start(ctx context.Context) error {
	q.mu.Lock()
	q.ctx = ctx
	q.stopTasksLocked()
	q.gen++
	gen := q.gen
	q.binding = false
	q.setStateLocked(QRLoading)
	q.mu.Unlock()

	return q.acquire(ctx, gen)
}

// Refresh 作废当前二维码并获取新的。进行中的轮询、
// 过期定时器与迟到的响应全部失效。
func (q *QRCoordinator) Refresh(ctx context.Context) error {
	return q.Start(ctx)
}

// Close 停止一切定时器，迟到的响应不再生效
func (q *QRCoordinator) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.stopTasksLocked()
	q.gen++
}

func (q *QRCoordinator) acquire(ctx context.Context, gen int) error {
	ticket, err := q.client.WechatLoginQR(ctx)
	if err != nil {
		logger.Error("[QR] Failed to fetch login qr: %v", err)
		q.mu.Lock()
		if gen == q.gen {
			q.setStateLocked(QRExpired)
		}
		q.mu.Unlock()
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if gen != q.gen {
		return nil
	}
	q.ticket = ticket.Ticket
	q.qrURL = ticket.QRCodeURL
	q.setStateLocked(QRActive)
	q.pollTask = Every(q.pollInterval, func() { q.tick(gen) })
	q.expiryTask = After(q.ticketTTL, func() { q.expire(gen) })
	return nil
}

// tick 单次轮询。网络类错误只记录并继续，
// 过期与扫码结果推进状态机。
func (q *QRCoordinator) tick(gen int) {
	q.mu.Lock()
	if gen != q.gen || q.binding || q.state != QRActive {
		q.mu.Unlock()
		return
	}
	ctx := q.ctx
	ticket := q.ticket
	q.mu.Unlock()

	result, err := q.client.QRLoginStatus(ctx, ticket)
	if err != nil {
		logger.Warn("[QR] Poll failed, will retry: %v", err)
		return
	}

	q.mu.Lock()
	if gen != q.gen || q.binding {
		q.mu.Unlock()
		return
	}

	switch result.Kind {
	case model.QRStatusWaiting:
		q.mu.Unlock()

	case model.QRStatusExpired:
		q.stopTasksLocked()
		q.setStateLocked(QRExpired)
		q.mu.Unlock()

	case model.QRStatusBound:
		q.stopTasksLocked()
		q.setStateLocked(QRScanned)
		q.mu.Unlock()
		q.complete(gen, result.Credentials)

	case model.QRStatusNewUser:
		q.binding = true
		q.stopTasksLocked()
		q.setStateLocked(QRScanned)
		q.mu.Unlock()
		q.bind(ctx, gen, result.TempToken)

	default:
		q.mu.Unlock()
	}
}

// bind 用临时令牌建号登录
func (q *QRCoordinator) bind(ctx context.Context, gen int, tempToken string) {
	creds, err := q.client.WechatBind(ctx, &model.WechatBindRequest{
		IsBind:          false,
		WechatTempToken: tempToken,
	})

	q.mu.Lock()
	if gen != q.gen {
		q.mu.Unlock()
		return
	}
	q.binding = false
	if err != nil {
		logger.Error("[QR] Bind failed: %v", err)
		// 临时令牌单次有效，失败只能重新扫码
		q.setStateLocked(QRExpired)
		q.mu.Unlock()
		return
	}
	q.mu.Unlock()

	q.complete(gen, creds)
}

// complete 会话建立：写入凭证并通知上层
func (q *QRCoordinator) complete(gen int, creds *model.Credentials) {
	WriteCredentials(q.store, creds, q.hostname, q.cookieDays)

	q.mu.Lock()
	if gen != q.gen {
		q.mu.Unlock()
		return
	}
	q.setStateLocked(QRBound)
	onSession := q.onSession
	q.mu.Unlock()

	if onSession != nil {
		onSession()
	}
}

// expire 两分钟过期定时器触发
func (q *QRCoordinator) expire(gen int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if gen != q.gen || q.state != QRActive {
		return
	}
	q.stopTasksLocked()
	q.setStateLocked(QRExpired)
}

func (q *QRCoordinator) stopTasksLocked() {
	if q.pollTask != nil {
		q.pollTask.Cancel()
		q.pollTask = nil
	}
	if q.expiryTask != nil {
		q.expiryTask.Cancel()
		q.expiryTask = nil
	}
}

func (q *QRCoordinator) setStateLocked(s QRState) {
	q.state = s
	if q.OnState != nil {
		q.OnState(s)
	}
}
