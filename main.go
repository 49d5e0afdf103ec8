package main

import (
	"fmt"
	"time"

	v1 "ucenter/api/v1"
	"ucenter/internal/audit"
	"ucenter/internal/repository"
	"ucenter/internal/service"
	"ucenter/pkg/config"
	"ucenter/pkg/database"
	"ucenter/pkg/logger"
	"ucenter/pkg/middleware"
	"ucenter/pkg/redis"
	"ucenter/pkg/router"

	"github.com/gin-gonic/gin"
)

// checkFatalErr 用于统一处理错误检查并中断流程。
func checkFatalErr(err error, message string) {
	if err != nil {
		logger.Fatal("%s: %v", message, err)
	}
}

func main() {
	// 加载配置文件（Configuration）
	cfg, err := config.LoadConfig("config/config.yaml")
	checkFatalErr(err, "Failed to load config")

	// 根据配置设置 Gin 的运行模式（Gin Mode）
	gin.SetMode(cfg.Server.Mode)

	// 初始化数据库连接（PostgreSQL）
	db, err := database.NewPostgresDB(&cfg.Database)
	checkFatalErr(err, "Failed to connect to database")

	sqlDB, err := db.DB()
	checkFatalErr(err, "Failed to get underlying *sql.DB")
	defer sqlDB.Close()

	// 初始化 Redis 客户端（Redis）
	redisClient, err := redis.NewClient(&redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	checkFatalErr(err, "Failed to connect to Redis")

	// 初始化仓储层（Repositories）
	userRepo := repository.NewUserRepository(db)
	billingRepo := repository.NewBillingRepository(db)
	ticketRepo := repository.NewTicketRepository(redisClient)
	codeRepo := repository.NewEmailCodeRepository(redisClient)
	tokenStateRepo := repository.NewTokenStateRepository(redisClient)

	// 初始化登录事件集线器与 WebSocket 服务器
	eventHub := audit.NewHub()
	wsServer := audit.NewWebSocketServer(eventHub, nil)
	go wsServer.Start()

	// 初始化服务层（Services）
	tokenSvc := service.NewTokenService(tokenStateRepo, cfg.JWT.Secret, time.Duration(cfg.JWT.TokenExpire)*time.Second)
	locationSvc := service.NewIPLocationService(cfg.IPDB.Path)
	authSvc := service.NewAuthService(userRepo, codeRepo, tokenSvc, locationSvc, eventHub, "ucenter", cfg.Session.RootDomain)
	emailSvc := service.NewEmailService(codeRepo, time.Duration(cfg.Email.CodeTTL)*time.Second, cfg.Email.DevMode)
	wechatSvc := service.NewWechatService(
		ticketRepo, userRepo, tokenSvc, locationSvc, eventHub,
		"https://open.weixin.qq.com/connect/confirm",
		cfg.QR.TicketExpiry(),
		time.Duration(cfg.QR.TempTokenTTL)*time.Second,
	)
	billingSvc := service.NewBillingService(billingRepo)

	// 初始化 HTTP 处理器与路由（Handlers / Router）
	authMiddleware := middleware.NewAuthMiddleware(tokenSvc)
	r := gin.Default()
	router.NewRouter(
		r,
		authMiddleware,
		v1.NewAuthHandler(authSvc, emailSvc),
		v1.NewWechatHandler(wechatSvc),
		v1.NewBillingHandler(billingSvc),
		v1.NewAdminHandler(wsServer),
	).RegisterRoutes()

	// 启动服务器（Server）
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("Starting server on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatal("Failed to start server: %v", err)
	}
}
