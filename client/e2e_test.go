package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	v1 "ucenter/api/v1"
	"ucenter/internal/audit"
	"ucenter/internal/model"
	"ucenter/internal/repository"
	"ucenter/internal/service"
	"ucenter/pkg/middleware"
	"ucenter/pkg/router"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// e2eEnv 完整服务端加客户端的端到端测试环境，
// 全部仓储用内存实现，无外部依赖。
type e2eEnv struct {
	srv      *httptest.Server
	codeRepo repository.EmailCodeRepository
	userRepo repository.UserRepository
	authSvc  service.AuthService
}

func newE2EEnv(t *testing.T) *e2eEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	userRepo := repository.NewMemoryUserRepository()
	codeRepo := repository.NewMemoryEmailCodeRepository()
	ticketRepo := repository.NewMemoryTicketRepository()
	tokenStateRepo := repository.NewMemoryTokenStateRepository()

	tokenSvc := service.NewTokenService(tokenStateRepo, "e2e-secret", time.Hour)
	authSvc := service.NewAuthService(userRepo, codeRepo, tokenSvc, nil, nil, "ucenter", "example.com")
	emailSvc := service.NewEmailService(codeRepo, time.Minute, true)
	wechatSvc := service.NewWechatService(ticketRepo, userRepo, tokenSvc, nil, nil,
		"https://qr.example.com/confirm", time.Minute, time.Minute)
	billingSvc := service.NewBillingService(nil)

	wsServer := audit.NewWebSocketServer(audit.NewHub(), nil)

	engine := gin.New()
	router.NewRouter(
		engine,
		middleware.NewAuthMiddleware(tokenSvc),
		v1.NewAuthHandler(authSvc, emailSvc),
		v1.NewWechatHandler(wechatSvc),
		v1.NewBillingHandler(billingSvc),
		v1.NewAdminHandler(wsServer),
	).RegisterRoutes()

	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)
	return &e2eEnv{srv: srv, codeRepo: codeRepo, userRepo: userRepo, authSvc: authSvc}
}

func encodePassword(plain string) string {
	return base64.StdEncoding.EncodeToString([]byte(plain))
}

// 注册、写凭证、带凭证访问、二次打开引导恢复会话
func TestE2ERegisterThenBootstrap(t *testing.T) {
	env := newE2EEnv(t)
	store := NewMemoryStore()
	c := NewClient(env.srv.URL, store, nil, time.Second)
	ctx := context.Background()

	// 预置验证码，模拟用户收到邮件
	require.NoError(t, env.codeRepo.SaveCode(ctx, "alice@example.com", model.EmailTypeRegister, "123456", time.Minute))

	creds, err := c.Register(ctx, &model.RegisterRequest{
		Email:    "alice@example.com",
		Code:     "123456",
		Password: encodePassword("s3cret"),
	})
	require.NoError(t, err)
	require.True(t, creds.Complete())

	WriteCredentials(store, creds, "app.example.com", 14)

	info, err := c.GetUserInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", info.Email)

	// 再次打开登录页：引导器校验通过并触发跳转
	nav := &fakeNav{}
	b := NewBootstrapper(c, store, "app.example.com", NewRedirector(nav, env.srv.URL+"/"), url.Values{})
	b.RedirectDelay = 5 * time.Millisecond
	defer b.Close()

	assert.Equal(t, StateAuthenticated, b.Run(ctx))
	require.Eventually(t, func() bool {
		return len(nav.Replaces()) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestE2ELoginWrongPassword(t *testing.T) {
	env := newE2EEnv(t)
	ctx := context.Background()

	require.NoError(t, env.userRepo.Create(ctx, &model.User{
		Email:    "bob@example.com",
		Password: "rightpass",
		Status:   model.UserStatusEnabled,
	}))

	c := NewClient(env.srv.URL, NewMemoryStore(), nil, time.Second)
	_, err := c.Login(ctx, &model.LoginRequest{
		Email:    "bob@example.com",
		Password: encodePassword("wrongpass"),
	})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, FailureBusiness, apiErr.Kind)
}

// 凭证被吊销后受保护接口返回会话过期，倒计时归零跳回首页
func TestE2ERevokedSessionTriggersCountdown(t *testing.T) {
	env := newE2EEnv(t)
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, env.userRepo.Create(ctx, &model.User{
		Email:    "carol@example.com",
		Password: "passw0rd",
		Status:   model.UserStatusEnabled,
	}))

	bus := NewFailureBus()
	nav := &fakeNav{}
	countdown := NewCountdownHandler(nav, "https://example.com/", 1)
	countdown.interval = 5 * time.Millisecond
	countdown.Bus = bus
	bus.Subscribe(countdown.Handle)

	c := NewClient(env.srv.URL, store, bus, time.Second)
	creds, err := c.Login(ctx, &model.LoginRequest{
		Email:    "carol@example.com",
		Password: encodePassword("passw0rd"),
	})
	require.NoError(t, err)
	WriteCredentials(store, creds, "app.example.com", 14)

	_, err = c.GetUserInfo(ctx)
	require.NoError(t, err)

	// 服务端吊销会话
	require.NoError(t, env.authSvc.Logout(ctx, creds.UserID, creds.Token))

	_, err = c.GetUserInfo(ctx)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, FailureSession, apiErr.Kind)

	// 倒计时归零后以Replace回首页
	require.Eventually(t, func() bool {
		return len(nav.Replaces()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "https://example.com/", nav.Replaces()[0])
}

// 扫码登录端到端：签发、扫码、建号、写凭证、带凭证访问
func TestE2EQRLoginNewUser(t *testing.T) {
	env := newE2EEnv(t)
	store := NewMemoryStore()
	ctx := context.Background()

	c := NewClient(env.srv.URL, store, nil, time.Second)
	sessionDone := make(chan struct{})
	q := NewQRCoordinator(c, store, "app.example.com", 14, 10*time.Millisecond, time.Minute,
		func() { close(sessionDone) })
	defer q.Close()

	require.NoError(t, q.Start(ctx))
	require.Equal(t, QRActive, q.State())

	// 从二维码内容取出票据，模拟微信侧扫码回调
	qrURL, err := url.Parse(q.QRCodeURL())
	require.NoError(t, err)
	ticket := qrURL.Query().Get("ticket")
	require.NotEmpty(t, ticket)

	scanBody, _ := json.Marshal(model.ScanRequest{Ticket: ticket, OpenID: "openid-123"})
	resp, err := http.Post(env.srv.URL+"/u/wechat_scan", "application/json", bytes.NewReader(scanBody))
	require.NoError(t, err)
	resp.Body.Close()

	select {
	case <-sessionDone:
	case <-time.After(2 * time.Second):
		t.Fatal("session was not established")
	}
	assert.Equal(t, QRBound, q.State())
	require.True(t, ReadCredentials(store).Complete())

	// 新账号凭证立即可用
	info, err := c.GetUserInfo(ctx)
	require.NoError(t, err)
	assert.True(t, info.WechatBound)

	// 同一openid再次扫码直接携带完整凭证
	store2 := NewMemoryStore()
	c2 := NewClient(env.srv.URL, store2, nil, time.Second)
	q2 := NewQRCoordinator(c2, store2, "app.example.com", 14, 10*time.Millisecond, time.Minute, nil)
	defer q2.Close()
	require.NoError(t, q2.Start(ctx))

	qrURL2, err := url.Parse(q2.QRCodeURL())
	require.NoError(t, err)
	scanBody2, _ := json.Marshal(model.ScanRequest{Ticket: qrURL2.Query().Get("ticket"), OpenID: "openid-123"})
	resp2, err := http.Post(env.srv.URL+"/u/wechat_scan", "application/json", bytes.NewReader(scanBody2))
	require.NoError(t, err)
	resp2.Body.Close()

	require.Eventually(t, func() bool {
		return q2.State() == QRBound
	}, 2*time.Second, 10*time.Millisecond)
	assert.True(t, ReadCredentials(store2).Complete())
}

// 未带凭证访问受保护接口按传输层401处理
func TestE2EMissingCredentialsRejected(t *testing.T) {
	env := newE2EEnv(t)
	bus := NewFailureBus()
	var failures []Failure
	bus.Subscribe(func(f Failure) { failures = append(failures, f) })

	c := NewClient(env.srv.URL, NewMemoryStore(), bus, time.Second)
	_, err := c.GetUserInfo(context.Background())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, FailureAuth, apiErr.Kind)
	assert.Len(t, failures, 1)
}
