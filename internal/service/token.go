package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ucenter/internal/model"
	"ucenter/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenService 凭证三元组服务接口
type TokenService interface {
	// IssueCredentials 为用户签发完整凭证三元组
	IssueCredentials(ctx context.Context, user *model.User) (*model.Credentials, error)

	// ValidateXToken 校验xuserid/xtoken是否构成有效会话
	ValidateXToken(ctx context.Context, userID, token string) error

	// ValidateUUIDToken 校验xy_uuid_token是否为该用户当前会话的令牌
	ValidateUUIDToken(ctx context.Context, userID, uuidToken string) error

	// RevokeCredentials 吊销用户当前凭证（登出）
	RevokeCredentials(ctx context.Context, userID, token string) error
}

// tokenService 凭证服务实现。xtoken为HS256 JWT，
// xy_uuid_token为每次登录生成并存储的UUID。
type tokenService struct {
	tokenState repository.TokenStateRepository
	jwtSecret  []byte
	expiry     time.Duration
}

// NewTokenService 创建凭证服务实例
func NewTokenService(tokenState repository.TokenStateRepository, jwtSecret string, expiry time.Duration) TokenService {
	return &tokenService{
		tokenState: tokenState,
		jwtSecret:  []byte(jwtSecret),
		expiry:     expiry,
	}
}

// IssueCredentials 为用户签发完整凭证三元组
func (s *tokenService) IssueCredentials(ctx context.Context, user *model.User) (*model.Credentials, error) {
	expiresAt := time.Now().Add(s.expiry)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"type":    "xtoken",
		"exp":     expiresAt.Unix(),
	})
	xtoken, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign xtoken: %w", err)
	}

	// 每次登录刷新xy_uuid_token，旧值随之失效
	uuidToken := uuid.New().String()
	if err := s.tokenState.SaveUUIDToken(ctx, user.ID, uuidToken, s.expiry); err != nil {
		return nil, fmt.Errorf("failed to store uuid token: %w", err)
	}

	return &model.Credentials{
		UserID:    user.ID,
		Token:     xtoken,
		UUIDToken: uuidToken,
	}, nil
}

// ValidateXToken 校验xuserid/xtoken是否构成有效会话
func (s *tokenService) ValidateXToken(ctx context.Context, userID, tokenString string) error {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return ErrInvalidToken
	}

	// xtoken必须属于声称的用户
	if sub, _ := claims["user_id"].(string); sub == "" || sub != userID {
		return ErrInvalidToken
	}
	if typ, _ := claims["type"].(string); typ != "xtoken" {
		return ErrInvalidToken
	}

	// 检查是否已被吊销
	revoked, err := s.tokenState.IsTokenRevoked(ctx, tokenString)
	if err != nil {
		return fmt.Errorf("failed to check token revocation: %w", err)
	}
	if revoked {
		return ErrTokenRevoked
	}

	return nil
}

// ValidateUUIDToken 校验xy_uuid_token是否为该用户当前会话的令牌。
// 重新登录会刷新该令牌，旧令牌随之失效。
func (s *tokenService) ValidateUUIDToken(ctx context.Context, userID, uuidToken string) error {
	current, err := s.tokenState.GetUUIDToken(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTokenExpired
		}
		return fmt.Errorf("failed to load uuid token: %w", err)
	}
	if current != uuidToken {
		return ErrTokenRevoked
	}
	return nil
}

// RevokeCredentials 吊销用户当前凭证
func (s *tokenService) RevokeCredentials(ctx context.Context, userID, token string) error {
	if err := s.tokenState.RevokeToken(ctx, token, s.expiry); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}
