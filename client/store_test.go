package client

import (
	"testing"

	"ucenter/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootDomain(t *testing.T) {
	cases := []struct {
		hostname string
		want     string
	}{
		{"app.example.com", "example.com"},
		{"a.b.example.com", "example.com"},
		{"example.com", "example.com"},
		{"localhost", "localhost"},
		{"127.0.0.1", "127.0.0.1"},
		{"", ""},
		{"intranet", "intranet"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, RootDomain(c.hostname), "hostname=%s", c.hostname)
	}
}

func TestCredentialsRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	creds := &model.Credentials{UserID: "u1", Token: "t1", UUIDToken: "uu1"}

	WriteCredentials(store, creds, "app.example.com", 14)

	got := ReadCredentials(store)
	require.True(t, got.Complete())
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "t1", got.Token)
	assert.Equal(t, "uu1", got.UUIDToken)

	// 校验时间戳随凭证一同写入
	_, ok := store.Get(model.CookieLastCheck)
	assert.True(t, ok)
}

func TestCredentialsIncomplete(t *testing.T) {
	store := NewMemoryStore()
	store.Set(model.CookieUserID, "u1", CookieOptions{Domain: "example.com", Path: "/"})
	store.Set(model.CookieToken, "t1", CookieOptions{Domain: "example.com", Path: "/"})

	got := ReadCredentials(store)
	assert.False(t, got.Complete())
}

// 清理必须覆盖写在不同作用域下的同名Cookie，且重复执行无副作用
func TestClearAllCoversScopeVariants(t *testing.T) {
	store := NewMemoryStore()
	hostname := "app.example.com"

	// 同一个名字散落在多个作用域
	store.Set(model.CookieToken, "a", CookieOptions{Domain: "example.com", Path: "/"})
	store.Set(model.CookieToken, "b", CookieOptions{Domain: ".example.com", Path: "/"})
	store.Set(model.CookieToken, "c", CookieOptions{Domain: hostname, Path: ""})
	store.Set(model.CookieToken, "d", CookieOptions{Domain: "", Path: "/"})

	ClearAll(store, hostname, model.CookieToken)
	_, ok := store.Get(model.CookieToken)
	assert.False(t, ok)

	// 幂等：对已空的存储再清一遍不报错
	ClearAll(store, hostname, model.CookieToken)
	_, ok = store.Get(model.CookieToken)
	assert.False(t, ok)
}

func TestDeleteCredentials(t *testing.T) {
	store := NewMemoryStore()
	WriteCredentials(store, &model.Credentials{UserID: "u", Token: "t", UUIDToken: "uu"}, "app.example.com", 14)

	DeleteCredentials(store, "app.example.com")

	assert.False(t, ReadCredentials(store).Complete())
	_, ok := store.Get(model.CookieLastCheck)
	assert.False(t, ok)
}

func TestMemoryStoreScopedDelete(t *testing.T) {
	store := NewMemoryStore()
	store.Set("k", "v", CookieOptions{Domain: "example.com", Path: "/"})

	// 作用域不匹配的删除静默无效
	store.Delete("k", "other.com", "/")
	_, ok := store.Get("k")
	assert.True(t, ok)

	store.Delete("k", "example.com", "/")
	_, ok = store.Get("k")
	assert.False(t, ok)
}
