package repository

import (
	"context"
	"sync"
	"time"

	"ucenter/internal/model"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// 内存实现，供测试与无外部依赖的开发模式使用。
// 接口语义与Redis/Postgres实现一致，包括TTL过期。

type expiringEntry struct {
	value     string
	expiresAt time.Time
}

func (e expiringEntry) expired() bool {
	return !e.expiresAt.IsZero() && time.Now().After(e.expiresAt)
}

// memoryTicketRepository TicketRepository的内存实现
type memoryTicketRepository struct {
	mu         sync.Mutex
	tickets    map[string]ticketEntry
	tempTokens map[string]expiringEntry
}

type ticketEntry struct {
	record    model.TicketRecord
	expiresAt time.Time
}

// NewMemoryTicketRepository 创建内存票据仓储
func NewMemoryTicketRepository() TicketRepository {
	return &memoryTicketRepository{
		tickets:    make(map[string]ticketEntry),
		tempTokens: make(map[string]expiringEntry),
	}
}

func (r *memoryTicketRepository) SaveTicket(ctx context.Context, ticket string, record *model.TicketRecord, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tickets[ticket] = ticketEntry{record: *record, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (r *memoryTicketRepository) GetTicket(ctx context.Context, ticket string) (*model.TicketRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.tickets[ticket]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(r.tickets, ticket)
		return nil, ErrNotFound
	}
	record := entry.record
	return &record, nil
}

func (r *memoryTicketRepository) DeleteTicket(ctx context.Context, ticket string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tickets, ticket)
	return nil
}

func (r *memoryTicketRepository) SaveTempToken(ctx context.Context, token, openID string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tempTokens[token] = expiringEntry{value: openID, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (r *memoryTicketRepository) TakeTempToken(ctx context.Context, token string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.tempTokens[token]
	delete(r.tempTokens, token)
	if !ok || entry.expired() {
		return "", ErrNotFound
	}
	return entry.value, nil
}

// memoryEmailCodeRepository EmailCodeRepository的内存实现
type memoryEmailCodeRepository struct {
	mu    sync.Mutex
	codes map[string]expiringEntry
}

// NewMemoryEmailCodeRepository 创建内存验证码仓储
func NewMemoryEmailCodeRepository() EmailCodeRepository {
	return &memoryEmailCodeRepository{codes: make(map[string]expiringEntry)}
}

func (r *memoryEmailCodeRepository) SaveCode(ctx context.Context, email, typ, code string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codes[emailCodeKey(email, typ)] = expiringEntry{value: code, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (r *memoryEmailCodeRepository) ConsumeCode(ctx context.Context, email, typ, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := emailCodeKey(email, typ)
	entry, ok := r.codes[key]
	if !ok || entry.expired() || entry.value != code {
		return ErrNotFound
	}
	delete(r.codes, key)
	return nil
}

// memoryTokenStateRepository TokenStateRepository的内存实现
type memoryTokenStateRepository struct {
	mu         sync.Mutex
	uuidTokens map[string]expiringEntry
	revoked    map[string]expiringEntry
}

// NewMemoryTokenStateRepository 创建内存Token状态仓储
func NewMemoryTokenStateRepository() TokenStateRepository {
	return &memoryTokenStateRepository{
		uuidTokens: make(map[string]expiringEntry),
		revoked:    make(map[string]expiringEntry),
	}
}

func (r *memoryTokenStateRepository) SaveUUIDToken(ctx context.Context, userID, uuidToken string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.uuidTokens[userID] = expiringEntry{value: uuidToken, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (r *memoryTokenStateRepository) GetUUIDToken(ctx context.Context, userID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.uuidTokens[userID]
	if !ok || entry.expired() {
		return "", ErrNotFound
	}
	return entry.value, nil
}

func (r *memoryTokenStateRepository) RevokeToken(ctx context.Context, token string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked[token] = expiringEntry{value: "revoked", expiresAt: time.Now().Add(ttl)}
	return nil
}

func (r *memoryTokenStateRepository) IsTokenRevoked(ctx context.Context, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.revoked[token]
	return ok && !entry.expired(), nil
}

// memoryUserRepository UserRepository的内存实现。
// GORM钩子不会触发，因此在这里完成UUID生成与密码加密。
type memoryUserRepository struct {
	mu    sync.Mutex
	users map[string]*model.User
}

// NewMemoryUserRepository 创建内存用户仓储
func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{users: make(map[string]*model.User)}
}

func (r *memoryUserRepository) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		user.Password = string(hashed)
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *memoryUserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (r *memoryUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memoryUserRepository) GetByWechatOpenID(ctx context.Context, openID string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.WechatOpenID != "" && u.WechatOpenID == openID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memoryUserRepository) UpdatePassword(ctx context.Context, userID, password string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return ErrNotFound
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashed)
	u.UpdatedAt = time.Now()
	return nil
}

func (r *memoryUserRepository) BindWechat(ctx context.Context, userID, openID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.WechatOpenID = openID
	return nil
}

func (r *memoryUserRepository) UpdateLastLogin(ctx context.Context, userID string, at time.Time, ip, region string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.LastLoginAt = &at
	u.LastLoginIP = ip
	u.LastLoginRegion = region
	return nil
}

func (r *memoryUserRepository) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.users)), nil
}
