package router

import (
	"net/http"

	v1 "ucenter/api/v1"
	"ucenter/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// Router 路由管理器
type Router struct {
	engine         *gin.Engine
	authMiddleware *middleware.AuthMiddleware
	authHandler    *v1.AuthHandler
	wechatHandler  *v1.WechatHandler
	billingHandler *v1.BillingHandler
	adminHandler   *v1.AdminHandler
}

// NewRouter 创建路由管理器实例
func NewRouter(
	engine *gin.Engine,
	authMiddleware *middleware.AuthMiddleware,
	authHandler *v1.AuthHandler,
	wechatHandler *v1.WechatHandler,
	billingHandler *v1.BillingHandler,
	adminHandler *v1.AdminHandler,
) *Router {
	return &Router{
		engine:         engine,
		authMiddleware: authMiddleware,
		authHandler:    authHandler,
		wechatHandler:  wechatHandler,
		billingHandler: billingHandler,
		adminHandler:   adminHandler,
	}
}

// RegisterRoutes 注册所有路由
func (r *Router) RegisterRoutes() {
	// 健康检查
	r.engine.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	u := r.engine.Group("/u")
	{
		// 无需认证的接口
		u.GET("/check_xtoken", r.authHandler.CheckXToken)
		u.POST("/login", r.authHandler.Login)
		u.POST("/register", r.authHandler.Register)
		u.POST("/back_password", r.authHandler.BackPassword)
		u.POST("/send_email", r.authHandler.SendEmail)
		u.GET("/get_public_info", r.authHandler.GetPublicInfo)

		// 微信扫码登录
		u.GET("/wechat_login_qr", r.wechatHandler.LoginQR)
		u.GET("/qr_login_status", r.wechatHandler.QRLoginStatus)
		u.POST("/wechat_bind", r.wechatHandler.Bind)
		u.POST("/wechat_scan", r.wechatHandler.Scan)

		// 套餐列表公开，便于未登录用户浏览定价页
		u.GET("/package", r.billingHandler.ListPackages)

		// 需认证的接口
		auth := u.Group("", r.authMiddleware.HandleAuth())
		{
			auth.GET("/get_user_info", r.authHandler.GetUserInfo)
			auth.POST("/pay_order", r.billingHandler.CreateOrder)
			auth.GET("/pay_order", r.billingHandler.GetOrder)
			auth.GET("/get_pay_status", r.billingHandler.GetPayStatus)
			auth.POST("/exchange_cdk", r.billingHandler.ExchangeCDK)

			// 管理后台登录事件流
			auth.GET("/admin/login_events", r.adminHandler.LoginEvents)
		}
	}
}
