package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"ucenter/internal/model"
	"ucenter/pkg/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBootstrapServer(t *testing.T, valid bool, hits *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		if valid {
			respond(w, api.CodeOK, "ok", model.TokenCheckResult{UserID: "u1", Email: "a@b.c"})
			return
		}
		respond(w, api.CodeBusinessError, "凭证已失效", nil)
	}))
}

// 三元组不完整时不发任何网络请求
func TestBootstrapIncompleteTripleSkipsNetwork(t *testing.T) {
	var hits int32
	srv := newBootstrapServer(t, true, &hits)
	defer srv.Close()

	store := NewMemoryStore()
	store.Set(model.CookieUserID, "u1", CookieOptions{Domain: "example.com", Path: "/"})
	// 缺xtoken与xy_uuid_token

	nav := &fakeNav{}
	c := NewClient(srv.URL, store, nil, time.Second)
	b := NewBootstrapper(c, store, "app.example.com", NewRedirector(nav, "https://example.com/"), url.Values{})

	state := b.Run(context.Background())
	assert.Equal(t, StateUnauthenticated, state)
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
}

func TestBootstrapValidSessionRedirects(t *testing.T) {
	var hits int32
	srv := newBootstrapServer(t, true, &hits)
	defer srv.Close()

	store := seededStore()
	nav := &fakeNav{}
	c := NewClient(srv.URL, store, nil, time.Second)

	query := url.Values{}
	query.Set("fromurl", "/console")
	b := NewBootstrapper(c, store, "app.example.com", NewRedirector(nav, "https://example.com/"), query)
	b.RedirectDelay = 10 * time.Millisecond

	state := b.Run(context.Background())
	assert.Equal(t, StateAuthenticated, state)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	// 跳转延迟触发，且走fromurl
	require.Eventually(t, func() bool {
		return len(nav.Assigns()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "/console", nav.Assigns()[0])
}

// 校验失败清掉本地残留凭证，停留登录页
func TestBootstrapInvalidSessionClearsCredentials(t *testing.T) {
	var hits int32
	srv := newBootstrapServer(t, false, &hits)
	defer srv.Close()

	store := seededStore()
	nav := &fakeNav{}
	c := NewClient(srv.URL, store, nil, time.Second)
	b := NewBootstrapper(c, store, "app.example.com", NewRedirector(nav, "https://example.com/"), url.Values{})

	state := b.Run(context.Background())
	assert.Equal(t, StateUnauthenticated, state)
	assert.False(t, ReadCredentials(store).Complete())

	time.Sleep(30 * time.Millisecond)
	assert.Empty(t, nav.Assigns())
	assert.Empty(t, nav.Replaces())
}

// 重复Run不重复校验
func TestBootstrapRunOnce(t *testing.T) {
	var hits int32
	srv := newBootstrapServer(t, true, &hits)
	defer srv.Close()

	store := seededStore()
	nav := &fakeNav{}
	c := NewClient(srv.URL, store, nil, time.Second)
	b := NewBootstrapper(c, store, "app.example.com", NewRedirector(nav, "https://example.com/"), url.Values{})
	b.RedirectDelay = time.Hour // 本测试不关心跳转
	defer b.Close()

	b.Run(context.Background())
	b.Run(context.Background())
	b.Run(context.Background())

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestBootstrapCloseCancelsRedirect(t *testing.T) {
	var hits int32
	srv := newBootstrapServer(t, true, &hits)
	defer srv.Close()

	store := seededStore()
	nav := &fakeNav{}
	c := NewClient(srv.URL, store, nil, time.Second)
	b := NewBootstrapper(c, store, "app.example.com", NewRedirector(nav, "https://example.com/"), url.Values{})
	b.RedirectDelay = 30 * time.Millisecond

	b.Run(context.Background())
	b.Close()

	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, nav.Assigns())
	assert.Empty(t, nav.Replaces())
}
