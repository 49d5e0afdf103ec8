package client

import (
	"sync"
	"time"

	"ucenter/pkg/logger"
)

// Navigator 页面导航抽象。Replace不在历史中留下当前页，
// 倒计时跳转用它，避免用户后退又回到已失效的页面。
type Navigator interface {
	Assign(url string)
	Replace(url string)
}

// Failure 会话失效信号
type Failure struct {
	Message string
	Code    int
}

// FailureBus 全局会话失效事件总线。同一轮失效期间只广播一次：
// 一个页面并发发出的多个请求可能同时收到20009，
// 订阅方不应被触发多次。
type FailureBus struct {
	mu      sync.Mutex
	handler func(Failure)
	raised  bool
}

// NewFailureBus 创建事件总线
func NewFailureBus() *FailureBus {
	return &FailureBus{}
}

// Subscribe 注册顶层处理器。后注册的覆盖先注册的，
// 页面级只允许一个全局登出流程。
func (b *FailureBus) Subscribe(handler func(Failure)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handler = handler
}

// Raise 广播会话失效。本轮已广播过则忽略。
func (b *FailureBus) Raise(f Failure) {
	b.mu.Lock()
	if b.raised || b.handler == nil {
		b.mu.Unlock()
		return
	}
	b.raised = true
	handler := b.handler
	b.mu.Unlock()

	handler(f)
}

// Reset 结束本轮失效，允许下一轮广播。跳转完成后调用。
func (b *FailureBus) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.raised = false
}

// Raised 本轮是否已广播
func (b *FailureBus) Raised() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.raised
}

// CountdownHandler 会话失效的默认处理器：提示倒计时，
// 归零后以Replace跳转首页。倒计时进行中重复触发被忽略。
type CountdownHandler struct {
	nav      Navigator
	homeURL  string
	seconds  int
	interval time.Duration

	// OnTick 每秒回调一次剩余秒数与提示文案，供界面展示
	OnTick func(remaining int, msg string)

	// Bus 非nil时倒计时结束后调用Reset，允许下一轮失效再次广播
	Bus *FailureBus

	mu      sync.Mutex
	running bool
	task    *Handle
}

// NewCountdownHandler 创建倒计时处理器。seconds为倒计时秒数。
func NewCountdownHandler(nav Navigator, homeURL string, seconds int) *CountdownHandler {
	return &CountdownHandler{
		nav:      nav,
		homeURL:  homeURL,
		seconds:  seconds,
		interval: time.Second,
	}
}

// Handle 处理会话失效信号
func (h *CountdownHandler) Handle(f Failure) {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	remaining := h.seconds
	h.mu.Unlock()

	logger.Warn("Session expired: %s", f.Message)
	h.tick(remaining, f.Message)

	h.mu.Lock()
	h.task = Every(h.interval, func() {
		h.mu.Lock()
		remaining--
		r := remaining
		task := h.task
		if r <= 0 {
			h.running = false
			h.mu.Unlock()
			if task != nil {
				task.Cancel()
			}
			h.nav.Replace(h.homeURL)
			if h.Bus != nil {
				h.Bus.Reset()
			}
			return
		}
		h.mu.Unlock()
		h.tick(r, f.Message)
	})
	h.mu.Unlock()
}

// Stop 取消进行中的倒计时
func (h *CountdownHandler) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.task != nil {
		h.task.Cancel()
		h.task = nil
	}
	h.running = false
}

func (h *CountdownHandler) tick(remaining int, msg string) {
	if h.OnTick != nil {
		h.OnTick(remaining, msg)
	}
}
