package client

import (
	"net"
	"strings"
	"sync"
	"time"

	"ucenter/internal/model"
)

// CookieOptions 写入Cookie时的作用域与有效期
type CookieOptions struct {
	Domain string
	Path   string
	Days   int
	Secure bool
}

// SessionStore 凭证存储抽象。浏览器宿主由Cookie实现，
// 非浏览器宿主（CLI、测试）用MemoryStore。
type SessionStore interface {
	// Get 按名字读取，不关心写入时的作用域
	Get(name string) (string, bool)
	// Set 写入指定作用域
	Set(name, value string, opts CookieOptions)
	// Delete 删除指定作用域下的一条。作用域不匹配时静默无效，
	// 这正是跨域清理必须穷举作用域变体的原因。
	Delete(name, domain, path string)
	// Names 当前存在的全部Cookie名（去重）
	Names() []string
}

// RootDomain 取主机名的根域（最后两段），使凭证在全部子域间共享。
// localhost与IP地址原样返回。
func RootDomain(hostname string) string {
	if hostname == "" || hostname == "localhost" {
		return hostname
	}
	if net.ParseIP(hostname) != nil {
		return hostname
	}
	parts := strings.Split(hostname, ".")
	if len(parts) < 2 {
		return hostname
	}
	return strings.Join(parts[len(parts)-2:], ".")
}

// ReadCredentials 从存储读取凭证三元组。缺任何一项都可能返回不完整，
// 由调用方用Complete()判断。
func ReadCredentials(store SessionStore) model.Credentials {
	var creds model.Credentials
	creds.UserID, _ = store.Get(model.CookieUserID)
	creds.Token, _ = store.Get(model.CookieToken)
	creds.UUIDToken, _ = store.Get(model.CookieUUIDToken)
	return creds
}

// WriteCredentials 将凭证三元组写到根域下，同时刷新校验时间戳
func WriteCredentials(store SessionStore, creds *model.Credentials, hostname string, days int) {
	opts := CookieOptions{
		Domain: RootDomain(hostname),
		Path:   "/",
		Days:   days,
	}
	store.Set(model.CookieUserID, creds.UserID, opts)
	store.Set(model.CookieToken, creds.Token, opts)
	store.Set(model.CookieUUIDToken, creds.UUIDToken, opts)
	store.Set(model.CookieLastCheck, time.Now().Format(time.RFC3339), opts)
}

// DeleteCredentials 清除凭证三元组（含校验时间戳）
func DeleteCredentials(store SessionStore, hostname string) {
	ClearAll(store, hostname,
		model.CookieUserID,
		model.CookieToken,
		model.CookieUUIDToken,
		model.CookieLastCheck,
	)
}

// ClearAll 删除指定Cookie在所有可能作用域下的变体。
// Cookie可能写在当前域、带点前缀的当前域、根域或未指定域，
// 路径可能是"/"或空。逐一穷举，重复调用无副作用。
func ClearAll(store SessionStore, hostname string, names ...string) {
	root := RootDomain(hostname)
	domains := []string{"", hostname, "." + hostname, root, "." + root}
	paths := []string{"/", ""}
	for _, name := range names {
		for _, d := range domains {
			for _, p := range paths {
				store.Delete(name, d, p)
			}
		}
	}
}

type cookieKey struct {
	name   string
	domain string
	path   string
}

// MemoryStore 进程内的SessionStore实现。按(名字,域,路径)存键，
// 模拟浏览器中同名Cookie可在多个作用域并存的行为。
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[cookieKey]string
}

// NewMemoryStore 创建内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[cookieKey]string)}
}

// Get 返回任一作用域下该名字的值
func (s *MemoryStore) Get(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for k, v := range s.entries {
		if k.name == name {
			return v, true
		}
	}
	return "", false
}

// Set 在指定作用域写入
func (s *MemoryStore) Set(name, value string, opts CookieOptions) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[cookieKey{name: name, domain: opts.Domain, path: opts.Path}] = value
}

// Delete 只删除作用域完全匹配的那条
func (s *MemoryStore) Delete(name, domain, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, cookieKey{name: name, domain: domain, path: path})
}

// Names 当前全部Cookie名
func (s *MemoryStore) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	var names []string
	for k := range s.entries {
		if _, ok := seen[k.name]; ok {
			continue
		}
		seen[k.name] = struct{}{}
		names = append(names, k.name)
	}
	return names
}
