package middleware

import (
	"errors"
	"net/http"

	"ucenter/internal/model"
	"ucenter/internal/service"
	"ucenter/pkg/api"
	"ucenter/pkg/logger"

	"github.com/gin-gonic/gin"
)

const (
	// ContextKeyUserID 上下文中用户ID的键
	ContextKeyUserID = "user_id"
	// ContextKeyToken 上下文中令牌的键
	ContextKeyToken = "token"
)

// AuthMiddleware 认证中间件
type AuthMiddleware struct {
	tokenService service.TokenService
}

// NewAuthMiddleware 创建认证中间件实例
func NewAuthMiddleware(tokenService service.TokenService) *AuthMiddleware {
	return &AuthMiddleware{tokenService: tokenService}
}

// HandleAuth 处理认证。凭证缺失按传输层401处理；
// 凭证过期/吊销返回HTTP 200 + 业务码20009，客户端据此触发全局登出。
func (m *AuthMiddleware) HandleAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(model.HeaderUserID)
		token := c.GetHeader(model.HeaderToken)

		if userID == "" || token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing credentials"})
			c.Abort()
			return
		}

		err := m.tokenService.ValidateXToken(c.Request.Context(), userID, token)
		if err == nil {
			// 重新登录会轮换xy_uuid_token，旧会话携带的令牌在此失效
			if uuidToken := c.GetHeader(model.HeaderUUIDToken); uuidToken != "" {
				err = m.tokenService.ValidateUUIDToken(c.Request.Context(), userID, uuidToken)
			}
		}
		if err != nil {
			switch {
			case errors.Is(err, service.ErrTokenExpired):
				api.SessionExpired(c, "登录已过期，请重新登录")
			case errors.Is(err, service.ErrTokenRevoked):
				api.SessionExpired(c, "登录状态已失效，请重新登录")
			case errors.Is(err, service.ErrInvalidToken):
				api.SessionExpired(c, "登录凭证无效，请重新登录")
			default:
				logger.Error("Token validation failed: %v", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to validate token"})
			}
			c.Abort()
			return
		}

		// 将用户信息存入上下文
		c.Set(ContextKeyUserID, userID)
		c.Set(ContextKeyToken, token)
		c.Next()
	}
}
