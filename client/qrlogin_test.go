package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ucenter/internal/model"
	"ucenter/pkg/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// qrScript 可编程的扫码登录服务端替身。
// statusFn按第n次查询决定响应，记录每次查询的ticket。
type qrScript struct {
	mu       sync.Mutex
	issued   int
	queries  []string
	statusFn func(n int, ticket string, w http.ResponseWriter)
	bindFn   func(w http.ResponseWriter)
}

func (s *qrScript) server() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/u/wechat_login_qr":
			s.mu.Lock()
			s.issued++
			n := s.issued
			s.mu.Unlock()
			respond(w, api.CodeOK, "ok", model.QRTicket{
				Ticket:    ticketName(n),
				QRCodeURL: "https://qr.example.com/confirm?ticket=" + ticketName(n),
			})
		case "/u/qr_login_status":
			ticket := r.URL.Query().Get("ticket")
			s.mu.Lock()
			s.queries = append(s.queries, ticket)
			n := len(s.queries)
			fn := s.statusFn
			s.mu.Unlock()
			fn(n, ticket, w)
		case "/u/wechat_bind":
			s.bindFn(w)
		default:
			http.NotFound(w, r)
		}
	}))
}

func ticketName(n int) string {
	return "tk-" + string(rune('0'+n))
}

func (s *qrScript) queryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queries)
}

func (s *qrScript) queriedTickets() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...)
}

func newTestCoordinator(srv *httptest.Server, store SessionStore, onSession func()) *QRCoordinator {
	c := NewClient(srv.URL, store, nil, time.Second)
	return NewQRCoordinator(c, store, "app.example.com", 14, 10*time.Millisecond, time.Minute, onSession)
}

// 新身份全流程：等待、扫码、临时令牌建号、写凭证、停止轮询
func TestQRCoordinatorNewUserFlow(t *testing.T) {
	script := &qrScript{
		statusFn: func(n int, ticket string, w http.ResponseWriter) {
			if n < 3 {
				respond(w, api.CodeOK, "ok", map[string]string{})
				return
			}
			respond(w, api.CodeOK, "ok", map[string]string{"wechat_temp_token": "tmp-1"})
		},
		bindFn: func(w http.ResponseWriter) {
			respond(w, api.CodeOK, "ok", model.Credentials{UserID: "u1", Token: "t1", UUIDToken: "uu1"})
		},
	}
	srv := script.server()
	defer srv.Close()

	store := NewMemoryStore()
	var sessions int32
	q := newTestCoordinator(srv, store, func() { atomic.AddInt32(&sessions, 1) })
	defer q.Close()

	require.NoError(t, q.Start(context.Background()))
	assert.Equal(t, QRActive, q.State())
	assert.Contains(t, q.QRCodeURL(), "ticket=tk-1")

	require.Eventually(t, func() bool {
		return q.State() == QRBound
	}, time.Second, 5*time.Millisecond)

	assert.True(t, ReadCredentials(store).Complete())
	assert.Equal(t, int32(1), atomic.LoadInt32(&sessions))

	// 会话建立后轮询停止
	settled := script.queryCount()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, settled, script.queryCount())
}

// 已绑定身份直接携带完整三元组，跳过绑定步骤
func TestQRCoordinatorBoundUserFlow(t *testing.T) {
	script := &qrScript{
		statusFn: func(n int, ticket string, w http.ResponseWriter) {
			respond(w, api.CodeOK, "ok", model.Credentials{UserID: "u9", Token: "t9", UUIDToken: "uu9"})
		},
		bindFn: func(w http.ResponseWriter) {
			t.Error("bind should not be called for a bound identity")
		},
	}
	srv := script.server()
	defer srv.Close()

	store := NewMemoryStore()
	q := newTestCoordinator(srv, store, nil)
	defer q.Close()

	require.NoError(t, q.Start(context.Background()))
	require.Eventually(t, func() bool {
		return q.State() == QRBound
	}, time.Second, 5*time.Millisecond)

	creds := ReadCredentials(store)
	assert.Equal(t, "u9", creds.UserID)
}

// 服务端判定票据过期后不再轮询
func TestQRCoordinatorServerExpiryStopsPolling(t *testing.T) {
	script := &qrScript{
		statusFn: func(n int, ticket string, w http.ResponseWriter) {
			respond(w, api.CodeTicketExpired, "二维码已过期", nil)
		},
	}
	srv := script.server()
	defer srv.Close()

	q := newTestCoordinator(srv, NewMemoryStore(), nil)
	defer q.Close()

	require.NoError(t, q.Start(context.Background()))
	require.Eventually(t, func() bool {
		return q.State() == QRExpired
	}, time.Second, 5*time.Millisecond)

	settled := script.queryCount()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, settled, script.queryCount())
}

// 本地两分钟定时器到期同样停止轮询
func TestQRCoordinatorLocalExpiry(t *testing.T) {
	script := &qrScript{
		statusFn: func(n int, ticket string, w http.ResponseWriter) {
			respond(w, api.CodeOK, "ok", map[string]string{})
		},
	}
	srv := script.server()
	defer srv.Close()

	c := NewClient(srv.URL, NewMemoryStore(), nil, time.Second)
	q := NewQRCoordinator(c, NewMemoryStore(), "app.example.com", 14, 10*time.Millisecond, 50*time.Millisecond, nil)
	defer q.Close()

	require.NoError(t, q.Start(context.Background()))
	require.Eventually(t, func() bool {
		return q.State() == QRExpired
	}, time.Second, 5*time.Millisecond)

	settled := script.queryCount()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, settled, script.queryCount())
}

// 瞬时网络错误只记录，轮询继续
func TestQRCoordinatorTransientErrorKeepsPolling(t *testing.T) {
	script := &qrScript{
		statusFn: func(n int, ticket string, w http.ResponseWriter) {
			if n <= 2 {
				// 响应体不是合法信封，按网络类错误处理
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			respond(w, api.CodeOK, "ok", model.Credentials{UserID: "u1", Token: "t1", UUIDToken: "uu1"})
		},
	}
	srv := script.server()
	defer srv.Close()

	store := NewMemoryStore()
	q := newTestCoordinator(srv, store, nil)
	defer q.Close()

	require.NoError(t, q.Start(context.Background()))
	require.Eventually(t, func() bool {
		return q.State() == QRBound
	}, time.Second, 5*time.Millisecond)
}

// 刷新后旧票据作废，只有新票据在被轮询
func TestQRCoordinatorRefreshInvalidatesOldTicket(t *testing.T) {
	script := &qrScript{
		statusFn: func(n int, ticket string, w http.ResponseWriter) {
			respond(w, api.CodeOK, "ok", map[string]string{})
		},
	}
	srv := script.server()
	defer srv.Close()

	q := newTestCoordinator(srv, NewMemoryStore(), nil)
	defer q.Close()

	ctx := context.Background()
	require.NoError(t, q.Start(ctx))
	require.NoError(t, q.Refresh(ctx))
	require.NoError(t, q.Refresh(ctx))
	assert.Contains(t, q.QRCodeURL(), "ticket=tk-3")

	// 清空刷新前的记录，观察一段时间内轮询的票据
	script.mu.Lock()
	script.queries = nil
	script.mu.Unlock()

	time.Sleep(80 * time.Millisecond)
	queried := script.queriedTickets()
	require.NotEmpty(t, queried)
	for _, tk := range queried {
		assert.Equal(t, "tk-3", tk)
	}
}

func TestQRCoordinatorCloseStopsPolling(t *testing.T) {
	script := &qrScript{
		statusFn: func(n int, ticket string, w http.ResponseWriter) {
			respond(w, api.CodeOK, "ok", map[string]string{})
		},
	}
	srv := script.server()
	defer srv.Close()

	q := newTestCoordinator(srv, NewMemoryStore(), nil)
	require.NoError(t, q.Start(context.Background()))

	q.Close()
	settled := script.queryCount()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, settled, script.queryCount())
}

// 绑定失败只能重新扫码，临时令牌单次有效
func TestQRCoordinatorBindFailure(t *testing.T) {
	script := &qrScript{
		statusFn: func(n int, ticket string, w http.ResponseWriter) {
			respond(w, api.CodeOK, "ok", map[string]string{"wechat_temp_token": "tmp-used"})
		},
		bindFn: func(w http.ResponseWriter) {
			respond(w, api.CodeBusinessError, "临时令牌无效或已使用，请重新扫码", nil)
		},
	}
	srv := script.server()
	defer srv.Close()

	store := NewMemoryStore()
	q := newTestCoordinator(srv, store, nil)
	defer q.Close()

	require.NoError(t, q.Start(context.Background()))
	require.Eventually(t, func() bool {
		return q.State() == QRExpired
	}, time.Second, 5*time.Millisecond)
	assert.False(t, ReadCredentials(store).Complete())
}
