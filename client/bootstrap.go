package client

import (
	"context"
	"net/url"
	"sync"
	"time"

	"ucenter/internal/model"
	"ucenter/pkg/logger"
)

// BootstrapState 会话引导状态
type BootstrapState int

const (
	StateIdle            BootstrapState = iota // 未开始
	StateChecking                              // 校验中
	StateAuthenticated                         // 凭证有效
	StateUnauthenticated                       // 无凭证或凭证无效
)

// Bootstrapper 登录页的会话引导器。页面打开时判断本地凭证：
// 三元组不完整直接停留登录页，不发网络请求；完整则向服务端
// 校验一次，有效时稍候跳转，无效时清掉残留凭证。
type Bootstrapper struct {
	client   *Client
	store    SessionStore
	hostname string
	redirect *Redirector
	query    url.Values

	// RedirectDelay 校验通过到跳转之间的停顿，给界面留出展示
	// "正在进入"提示的时间
	RedirectDelay time.Duration

	mu      sync.Mutex
	state   BootstrapState
	started bool
	task    *Handle
}

// NewBootstrapper 创建会话引导器。query为当前页查询参数，
// 用于fromurl跳回。
func NewBootstrapper(client *Client, store SessionStore, hostname string, redirect *Redirector, query url.Values) *Bootstrapper {
	return &Bootstrapper{
		client:        client,
		store:         store,
		hostname:      hostname,
		redirect:      redirect,
		query:         query,
		RedirectDelay: time.Second,
		state:         StateIdle,
	}
}

// State 当前状态
func (b *Bootstrapper) State() BootstrapState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Run 执行一次引导。重复调用直接返回当前状态，不重复校验。
func (b *Bootstrapper) Run(ctx context.Context) BootstrapState {
	b.mu.Lock()
	if b.started {
		state := b.state
		b.mu.Unlock()
		return state
	}
	b.started = true

	creds := ReadCredentials(b.store)
	if !creds.Complete() {
		// 三元组不完整，不发网络请求
		b.state = StateUnauthenticated
		b.mu.Unlock()
		return StateUnauthenticated
	}
	b.state = StateChecking
	b.mu.Unlock()

	result, err := b.client.CheckXToken(ctx)
	if err != nil {
		logger.Info("Local credentials rejected, clearing: %v", err)
		DeleteCredentials(b.store, b.hostname)
		b.setState(StateUnauthenticated)
		return StateUnauthenticated
	}

	logger.Info("Session restored for user %s", result.UserID)
	b.store.Set(model.CookieLastCheck, time.Now().Format(time.RFC3339), CookieOptions{
		Domain: RootDomain(b.hostname),
		Path:   "/",
	})
	b.setState(StateAuthenticated)

	b.mu.Lock()
	b.task = After(b.RedirectDelay, func() {
		b.redirect.AfterLogin(b.query)
	})
	b.mu.Unlock()
	return StateAuthenticated
}

// Close 取消尚未触发的延迟跳转
func (b *Bootstrapper) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.task != nil {
		b.task.Cancel()
		b.task = nil
	}
}

func (b *Bootstrapper) setState(s BootstrapState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = s
}
