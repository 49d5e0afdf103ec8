package v1

import (
	"errors"
	"net/http"

	"ucenter/internal/model"
	"ucenter/internal/service"
	"ucenter/pkg/api"
	"ucenter/pkg/logger"
	"ucenter/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	authService  service.AuthService
	emailService service.EmailService
}

// NewAuthHandler 创建认证处理器实例
func NewAuthHandler(authService service.AuthService, emailService service.EmailService) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		emailService: emailService,
	}
}

// CheckXToken 校验凭证。有效返回20000，无效返回业务失败码，
// 由客户端自行清理本地凭证（不走全局会话过期信号）。
func (h *AuthHandler) CheckXToken(c *gin.Context) {
	userID := c.GetHeader(model.HeaderUserID)
	token := c.GetHeader(model.HeaderToken)
	if userID == "" || token == "" {
		api.Fail(c, api.CodeBusinessError, "缺少凭证")
		return
	}

	result, err := h.authService.CheckXToken(c.Request.Context(), userID, token)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTokenExpired),
			errors.Is(err, service.ErrTokenRevoked),
			errors.Is(err, service.ErrInvalidToken),
			errors.Is(err, service.ErrUserDisabled):
			api.Fail(c, api.CodeBusinessError, "凭证已失效")
		default:
			logger.Error("Failed to check xtoken: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check token"})
		}
		return
	}

	api.Success(c, result)
}

// Login 邮箱密码登录
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.Fail(c, api.CodeBusinessError, "请求参数错误")
		return
	}

	creds, err := h.authService.Login(c.Request.Context(), &req, c.ClientIP())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			api.Fail(c, api.CodeBusinessError, "邮箱或密码错误")
		case errors.Is(err, service.ErrUserDisabled):
			api.Fail(c, api.CodeBusinessError, "账号已被禁用")
		default:
			logger.Error("Login failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		}
		return
	}

	api.Success(c, creds)
}

// Register 注册并登录
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.Fail(c, api.CodeBusinessError, "请求参数错误")
		return
	}

	creds, err := h.authService.Register(c.Request.Context(), &req, c.ClientIP())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCodeInvalid):
			api.Fail(c, api.CodeBusinessError, "验证码错误或已过期")
		case errors.Is(err, service.ErrEmailTaken):
			api.Fail(c, api.CodeBusinessError, "该邮箱已注册")
		case errors.Is(err, service.ErrInvalidCredentials):
			api.Fail(c, api.CodeBusinessError, "请求参数错误")
		default:
			logger.Error("Register failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "register failed"})
		}
		return
	}

	api.Success(c, creds)
}

// BackPassword 找回密码
func (h *AuthHandler) BackPassword(c *gin.Context) {
	var req model.BackPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.Fail(c, api.CodeBusinessError, "请求参数错误")
		return
	}

	creds, err := h.authService.BackPassword(c.Request.Context(), &req, c.ClientIP())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCodeInvalid):
			api.Fail(c, api.CodeBusinessError, "验证码错误或已过期")
		case errors.Is(err, service.ErrUserNotFound):
			api.Fail(c, api.CodeBusinessError, "该邮箱未注册")
		case errors.Is(err, service.ErrInvalidCredentials):
			api.Fail(c, api.CodeBusinessError, "请求参数错误")
		default:
			logger.Error("Back password failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "back password failed"})
		}
		return
	}

	api.Success(c, creds)
}

// SendEmail 发送邮箱验证码
func (h *AuthHandler) SendEmail(c *gin.Context) {
	var req model.SendEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.Fail(c, api.CodeBusinessError, "请求参数错误")
		return
	}

	if err := h.emailService.SendCode(c.Request.Context(), req.Email, req.Type); err != nil {
		logger.Error("Failed to send email code: %v", err)
		api.Fail(c, api.CodeBusinessError, "验证码发送失败")
		return
	}

	api.Success(c, nil)
}

// GetUserInfo 获取用户信息（需认证）
func (h *AuthHandler) GetUserInfo(c *gin.Context) {
	userID := c.GetString(middleware.ContextKeyUserID)

	info, err := h.authService.GetUserInfo(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			api.Fail(c, api.CodeBusinessError, "用户不存在")
			return
		}
		logger.Error("Failed to get user info: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get user info"})
		return
	}

	api.Success(c, info)
}

// GetPublicInfo 获取公开站点信息
func (h *AuthHandler) GetPublicInfo(c *gin.Context) {
	info, err := h.authService.GetPublicInfo(c.Request.Context())
	if err != nil {
		logger.Error("Failed to get public info: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get public info"})
		return
	}
	api.Success(c, info)
}
