package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ucenter/pkg/redis"

	goredis "github.com/redis/go-redis/v9"
)

// TokenStateRepository Token状态仓储接口。
// xy_uuid_token按用户存储，登出时吊销xtoken。
type TokenStateRepository interface {
	// SaveUUIDToken 保存用户当前的xy_uuid_token
	SaveUUIDToken(ctx context.Context, userID, uuidToken string, ttl time.Duration) error
	// GetUUIDToken 获取用户当前的xy_uuid_token；不存在返回ErrNotFound
	GetUUIDToken(ctx context.Context, userID string) (string, error)
	// RevokeToken 吊销xtoken
	RevokeToken(ctx context.Context, token string, ttl time.Duration) error
	// IsTokenRevoked xtoken是否已被吊销
	IsTokenRevoked(ctx context.Context, token string) (bool, error)
}

// tokenStateRepository 基于Redis的实现
type tokenStateRepository struct {
	redis *redis.Client
}

// NewTokenStateRepository 创建Token状态仓储实例
func NewTokenStateRepository(redisClient *redis.Client) TokenStateRepository {
	return &tokenStateRepository{redis: redisClient}
}

func uuidTokenKey(userID string) string {
	return fmt.Sprintf("uuid_token:%s", userID)
}

func revokedKey(token string) string {
	return fmt.Sprintf("revoked_token:%s", token)
}

// SaveUUIDToken 保存用户当前的xy_uuid_token
func (r *tokenStateRepository) SaveUUIDToken(ctx context.Context, userID, uuidToken string, ttl time.Duration) error {
	return r.redis.Set(ctx, uuidTokenKey(userID), uuidToken, ttl)
}

// GetUUIDToken 获取用户当前的xy_uuid_token
func (r *tokenStateRepository) GetUUIDToken(ctx context.Context, userID string) (string, error) {
	token, err := r.redis.Get(ctx, uuidTokenKey(userID))
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", ErrNotFound
		}
		return "", err
	}
	return token, nil
}

// RevokeToken 吊销xtoken
func (r *tokenStateRepository) RevokeToken(ctx context.Context, token string, ttl time.Duration) error {
	return r.redis.Set(ctx, revokedKey(token), "revoked", ttl)
}

// IsTokenRevoked xtoken是否已被吊销
func (r *tokenStateRepository) IsTokenRevoked(ctx context.Context, token string) (bool, error) {
	return r.redis.Exists(ctx, revokedKey(token))
}
