package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ucenter/pkg/redis"

	goredis "github.com/redis/go-redis/v9"
)

// EmailCodeRepository 邮箱验证码仓储接口
type EmailCodeRepository interface {
	// SaveCode 保存验证码
	SaveCode(ctx context.Context, email, typ, code string, ttl time.Duration) error
	// ConsumeCode 校验并消费验证码；不匹配或不存在返回ErrNotFound
	ConsumeCode(ctx context.Context, email, typ, code string) error
}

// emailCodeRepository 基于Redis的实现
type emailCodeRepository struct {
	redis *redis.Client
}

// NewEmailCodeRepository 创建验证码仓储实例
func NewEmailCodeRepository(redisClient *redis.Client) EmailCodeRepository {
	return &emailCodeRepository{redis: redisClient}
}

func emailCodeKey(email, typ string) string {
	return fmt.Sprintf("email_code:%s:%s", typ, email)
}

// SaveCode 保存验证码
func (r *emailCodeRepository) SaveCode(ctx context.Context, email, typ, code string, ttl time.Duration) error {
	return r.redis.Set(ctx, emailCodeKey(email, typ), code, ttl)
}

// ConsumeCode 校验并消费验证码
func (r *emailCodeRepository) ConsumeCode(ctx context.Context, email, typ, code string) error {
	key := emailCodeKey(email, typ)
	stored, err := r.redis.Get(ctx, key)
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return ErrNotFound
		}
		return err
	}
	if stored != code {
		return ErrNotFound
	}
	return r.redis.Del(ctx, key)
}
