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

// BillingHandler 套餐/订单/兑换码处理器
type BillingHandler struct {
	billingService service.BillingService
}

// NewBillingHandler 创建处理器实例
func NewBillingHandler(billingService service.BillingService) *BillingHandler {
	return &BillingHandler{billingService: billingService}
}

// ListPackages 获取套餐列表
func (h *BillingHandler) ListPackages(c *gin.Context) {
	pkgs, err := h.billingService.ListPackages(c.Request.Context())
	if err != nil {
		logger.Error("Failed to list packages: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list packages"})
		return
	}
	api.Success(c, pkgs)
}

// CreateOrder 创建支付订单
func (h *BillingHandler) CreateOrder(c *gin.Context) {
	userID := c.GetString(middleware.ContextKeyUserID)

	var req model.PayOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.Fail(c, api.CodeBusinessError, "请求参数错误")
		return
	}

	order, err := h.billingService.CreateOrder(c.Request.Context(), userID, &req)
	if err != nil {
		if errors.Is(err, service.ErrPackageNotFound) {
			api.Fail(c, api.CodeBusinessError, "套餐不存在或已下架")
			return
		}
		logger.Error("Failed to create order: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create order"})
		return
	}

	api.Success(c, order)
}

// GetOrder 获取订单
func (h *BillingHandler) GetOrder(c *gin.Context) {
	userID := c.GetString(middleware.ContextKeyUserID)
	orderID := c.Query("order_id")

	order, err := h.billingService.GetOrder(c.Request.Context(), userID, orderID)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			api.Fail(c, api.CodeBusinessError, "订单不存在")
			return
		}
		logger.Error("Failed to get order: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get order"})
		return
	}

	api.Success(c, order)
}

// GetPayStatus 查询支付状态
func (h *BillingHandler) GetPayStatus(c *gin.Context) {
	userID := c.GetString(middleware.ContextKeyUserID)
	orderID := c.Query("order_id")

	status, err := h.billingService.GetPayStatus(c.Request.Context(), userID, orderID)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			api.Fail(c, api.CodeBusinessError, "订单不存在")
			return
		}
		logger.Error("Failed to get pay status: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get pay status"})
		return
	}

	api.Success(c, status)
}

// ExchangeCDK 兑换CDK。"已使用"是业务失败，会话不受影响。
func (h *BillingHandler) ExchangeCDK(c *gin.Context) {
	userID := c.GetString(middleware.ContextKeyUserID)

	var req model.ExchangeCDKRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.Fail(c, api.CodeBusinessError, "请求参数错误")
		return
	}

	pkg, err := h.billingService.ExchangeCDK(c.Request.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCDKInvalid):
			api.Fail(c, api.CodeBusinessError, "兑换码不存在")
		case errors.Is(err, service.ErrCDKUsed):
			api.Fail(c, api.CodeBusinessError, "兑换码已被使用")
		default:
			logger.Error("Failed to exchange cdk: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to exchange cdk"})
		}
		return
	}

	api.Success(c, pkg)
}
