package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ucenter/internal/model"
	"ucenter/pkg/redis"

	goredis "github.com/redis/go-redis/v9"
)

// ErrNotFound 键不存在或已过期
var ErrNotFound = errors.New("not found")

// TicketRepository 扫码票据与临时令牌仓储接口。
// 票据与临时令牌均带TTL，过期即视为不存在。
type TicketRepository interface {
	// SaveTicket 保存票据记录
	SaveTicket(ctx context.Context, ticket string, record *model.TicketRecord, ttl time.Duration) error
	// GetTicket 获取票据记录；不存在返回ErrNotFound
	GetTicket(ctx context.Context, ticket string) (*model.TicketRecord, error)
	// DeleteTicket 删除票据
	DeleteTicket(ctx context.Context, ticket string) error
	// SaveTempToken 保存微信临时令牌与openid的映射
	SaveTempToken(ctx context.Context, token, openID string, ttl time.Duration) error
	// TakeTempToken 取出并删除临时令牌（单次使用）；不存在返回ErrNotFound
	TakeTempToken(ctx context.Context, token string) (string, error)
}

// ticketRepository 基于Redis的实现
type ticketRepository struct {
	redis *redis.Client
}

// NewTicketRepository 创建票据仓储实例
func NewTicketRepository(redisClient *redis.Client) TicketRepository {
	return &ticketRepository{redis: redisClient}
}

func ticketKey(ticket string) string {
	return fmt.Sprintf("qr_ticket:%s", ticket)
}

func tempTokenKey(token string) string {
	return fmt.Sprintf("wechat_temp_token:%s", token)
}

// SaveTicket 保存票据记录
func (r *ticketRepository) SaveTicket(ctx context.Context, ticket string, record *model.TicketRecord, ttl time.Duration) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal ticket record: %w", err)
	}
	return r.redis.Set(ctx, ticketKey(ticket), string(data), ttl)
}

// GetTicket 获取票据记录
func (r *ticketRepository) GetTicket(ctx context.Context, ticket string) (*model.TicketRecord, error) {
	data, err := r.redis.Get(ctx, ticketKey(ticket))
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var record model.TicketRecord
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ticket record: %w", err)
	}
	return &record, nil
}

// DeleteTicket 删除票据
func (r *ticketRepository) DeleteTicket(ctx context.Context, ticket string) error {
	return r.redis.Del(ctx, ticketKey(ticket))
}

// SaveTempToken 保存临时令牌
func (r *ticketRepository) SaveTempToken(ctx context.Context, token, openID string, ttl time.Duration) error {
	return r.redis.Set(ctx, tempTokenKey(token), openID, ttl)
}

// TakeTempToken 取出并删除临时令牌
func (r *ticketRepository) TakeTempToken(ctx context.Context, token string) (string, error) {
	key := tempTokenKey(token)
	openID, err := r.redis.Get(ctx, key)
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", ErrNotFound
		}
		return "", err
	}
	if err := r.redis.Del(ctx, key); err != nil {
		return "", err
	}
	return openID, nil
}
