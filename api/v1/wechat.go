package v1

import (
	"errors"
	"net/http"

	"ucenter/internal/model"
	"ucenter/internal/service"
	"ucenter/pkg/api"
	"ucenter/pkg/logger"

	"github.com/gin-gonic/gin"
)

// WechatHandler 微信扫码登录处理器
type WechatHandler struct {
	wechatService service.WechatService
}

// NewWechatHandler 创建微信扫码登录处理器实例
func NewWechatHandler(wechatService service.WechatService) *WechatHandler {
	return &WechatHandler{wechatService: wechatService}
}

// LoginQR 签发扫码登录票据
func (h *WechatHandler) LoginQR(c *gin.Context) {
	ticket, err := h.wechatService.IssueLoginQR(c.Request.Context())
	if err != nil {
		logger.Error("Failed to issue login qr: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue qr"})
		return
	}
	api.Success(c, ticket)
}

// QRLoginStatus 查询扫码状态。返回形态互斥：
// 未扫码为空data；新身份只含wechat_temp_token；
// 已绑定身份只含完整凭证三元组；过期返回20001。
func (h *WechatHandler) QRLoginStatus(c *gin.Context) {
	ticket := c.Query("ticket")
	if ticket == "" {
		api.Fail(c, api.CodeBusinessError, "缺少ticket参数")
		return
	}

	result, err := h.wechatService.QueryStatus(c.Request.Context(), ticket, c.ClientIP())
	if err != nil {
		logger.Error("Failed to query qr status: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query status"})
		return
	}

	switch result.Kind {
	case model.QRStatusWaiting:
		api.Success(c, gin.H{})
	case model.QRStatusNewUser:
		api.Success(c, gin.H{"wechat_temp_token": result.TempToken})
	case model.QRStatusBound:
		api.Success(c, result.Credentials)
	case model.QRStatusExpired:
		api.Fail(c, api.CodeTicketExpired, "二维码已过期，请刷新重试")
	}
}

// Bind 用临时令牌完成绑定或建号登录
func (h *WechatHandler) Bind(c *gin.Context) {
	var req model.WechatBindRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.Fail(c, api.CodeBusinessError, "请求参数错误")
		return
	}

	creds, err := h.wechatService.Bind(c.Request.Context(), &req, c.ClientIP())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTempTokenInvalid):
			api.Fail(c, api.CodeBusinessError, "临时令牌无效或已使用，请重新扫码")
		case errors.Is(err, service.ErrInvalidToken),
			errors.Is(err, service.ErrTokenExpired),
			errors.Is(err, service.ErrTokenRevoked):
			api.Fail(c, api.CodeBusinessError, "登录凭证无效")
		case errors.Is(err, service.ErrUserNotFound):
			api.Fail(c, api.CodeBusinessError, "用户不存在")
		default:
			logger.Error("Wechat bind failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "bind failed"})
		}
		return
	}

	api.Success(c, creds)
}

// Scan 扫码回调（开发/测试替身，生产由微信服务器回调）
func (h *WechatHandler) Scan(c *gin.Context) {
	var req model.ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.Fail(c, api.CodeBusinessError, "请求参数错误")
		return
	}

	if err := h.wechatService.MarkScanned(c.Request.Context(), req.Ticket, req.OpenID); err != nil {
		if errors.Is(err, service.ErrTicketExpired) {
			api.Fail(c, api.CodeTicketExpired, "二维码已过期")
			return
		}
		logger.Error("Failed to mark scanned: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "scan failed"})
		return
	}

	api.Success(c, nil)
}
