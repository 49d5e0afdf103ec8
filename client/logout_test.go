package client

import (
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"ucenter/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrchestrator(t *testing.T, inFrame bool, parent *fakeParent) (*LogoutOrchestrator, SessionStore, *fakeStorage, *fakeNav) {
	t.Helper()
	store := NewMemoryStore()
	WriteCredentials(store, &model.Credentials{UserID: "u1", Token: "t1", UUIDToken: "uu1"}, "app.example.com", 14)
	store.Set(model.CookieCASToken, "cas-1", CookieOptions{Domain: "example.com", Path: "/"})

	storage := &fakeStorage{}
	nav := &fakeNav{}
	current, err := url.Parse("https://app.example.com/settings")
	require.NoError(t, err)

	o := NewLogoutOrchestrator(store, storage, parent, nav, current, inFrame, "https://sso.example.com/cas/logout")
	o.ParentWait = time.Millisecond
	o.NavFallback = 20 * time.Millisecond
	o.SettleDelay = time.Millisecond
	return o, store, storage, nav
}

func TestLogoutEmbeddedFullFlow(t *testing.T) {
	parent := &fakeParent{}
	o, store, storage, nav := newTestOrchestrator(t, true, parent)

	o.Logout(LogoutOptions{Mode: RedirectAuto})

	// 委托宿主清根域Cookie
	deletes := parent.ByAction(ActionDeleteCookies)
	require.NotEmpty(t, deletes)
	assert.Equal(t, "example.com", deletes[0].Domain)
	assert.Equal(t, model.CredentialCookieNames, deletes[0].Cookies)

	// 登出通知带时间戳与来源
	logouts := parent.ByAction(ActionLogout)
	require.Len(t, logouts, 1)
	assert.NotZero(t, logouts[0].Timestamp)
	assert.Equal(t, "ucenter", logouts[0].Source)

	// 本地存储与Cookie全部清空
	local, session := storage.Cleared()
	assert.Equal(t, 1, local)
	assert.Equal(t, 1, session)
	assert.Empty(t, store.Names())

	// 跳转委托给宿主，地址指向认证中心并携带CAS令牌与回跳地址
	navs := parent.ByAction(ActionNavigate)
	require.Len(t, navs, 1)
	logoutURL, err := url.Parse(navs[0].URL)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(navs[0].URL, "https://sso.example.com/cas/logout?"))
	assert.Equal(t, "cas-1", logoutURL.Query().Get("access_token"))
	assert.Equal(t, "https://example.com/", logoutURL.Query().Get("redirect_uri"))

	// 宿主没有动作时本地兜底跳转
	require.Eventually(t, func() bool {
		return len(nav.Assigns()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, navs[0].URL, nav.Assigns()[0])
}

func TestLogoutStandaloneNavigatesDirectly(t *testing.T) {
	parent := &fakeParent{}
	o, store, _, nav := newTestOrchestrator(t, false, parent)

	o.Logout(LogoutOptions{Mode: RedirectCurrent})

	// 未嵌入时不向宿主发任何消息
	assert.Empty(t, parent.Messages())
	assert.Empty(t, store.Names())

	require.Len(t, nav.Assigns(), 1)
	logoutURL, err := url.Parse(nav.Assigns()[0])
	require.NoError(t, err)
	assert.Equal(t, "cas-1", logoutURL.Query().Get("access_token"))
}

// 登出清空全部可见Cookie，而不只是凭证名单里的那些
func TestLogoutClearsNonCredentialCookies(t *testing.T) {
	parent := &fakeParent{}
	o, store, _, _ := newTestOrchestrator(t, false, parent)
	store.Set("theme", "dark", CookieOptions{Domain: "example.com", Path: "/"})
	store.Set("locale", "zh-CN", CookieOptions{Domain: "app.example.com", Path: "/"})

	o.Logout(LogoutOptions{Mode: RedirectAuto})

	assert.Empty(t, store.Names())
}

// 单步失败不中断流程：宿主通道报错时其余步骤照常执行
func TestLogoutToleratesStepFailure(t *testing.T) {
	parent := &fakeParent{err: errors.New("channel closed")}
	o, store, storage, nav := newTestOrchestrator(t, true, parent)

	o.Logout(LogoutOptions{Mode: RedirectAuto})

	local, _ := storage.Cleared()
	assert.Equal(t, 1, local)
	assert.Empty(t, store.Names())

	require.Eventually(t, func() bool {
		return len(nav.Assigns()) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestLogoutRedirectTargets(t *testing.T) {
	parent := &fakeParent{}
	o, _, _, _ := newTestOrchestrator(t, true, parent)

	assert.Equal(t, "https://app.example.com/settings",
		o.redirectTarget(LogoutOptions{Mode: RedirectCurrent}))
	assert.Equal(t, "https://other.example.com/bye",
		o.redirectTarget(LogoutOptions{Mode: RedirectCustom, CustomURL: "https://other.example.com/bye"}))
	// 子域上auto策略回根域首页
	assert.Equal(t, "https://example.com/",
		o.redirectTarget(LogoutOptions{Mode: RedirectAuto}))
}

// CAS令牌缺失时登出地址不带access_token，但流程不受影响
func TestLogoutWithoutCASToken(t *testing.T) {
	parent := &fakeParent{}
	store := NewMemoryStore()
	WriteCredentials(store, &model.Credentials{UserID: "u1", Token: "t1", UUIDToken: "uu1"}, "app.example.com", 14)

	storage := &fakeStorage{}
	nav := &fakeNav{}
	current, err := url.Parse("https://app.example.com/settings")
	require.NoError(t, err)

	o := NewLogoutOrchestrator(store, storage, parent, nav, current, false, "https://sso.example.com/cas/logout")
	o.SettleDelay = time.Millisecond

	o.Logout(LogoutOptions{Mode: RedirectAuto})

	require.Len(t, nav.Assigns(), 1)
	logoutURL, perr := url.Parse(nav.Assigns()[0])
	require.NoError(t, perr)
	assert.Empty(t, logoutURL.Query().Get("access_token"))
	assert.NotEmpty(t, logoutURL.Query().Get("redirect_uri"))
}
