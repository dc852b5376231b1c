package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"storefront_bff/internal/pkg/config"
	"storefront_bff/internal/pkg/middleware"
	"storefront_bff/internal/pkg/registry"
	"storefront_bff/internal/pkg/session"
	"storefront_bff/internal/pkg/upstream"
	"storefront_bff/internal/pkg/worker"
	"storefront_bff/pkg/cache"
	"storefront_bff/pkg/database"
	"storefront_bff/pkg/logger"
	"storefront_bff/pkg/metrics"
	"storefront_bff/pkg/utils"

	// 模块注册（init 函数自动注册到 registry）
	_ "storefront_bff/internal/domain/checkout"
	_ "storefront_bff/internal/domain/discount"
	_ "storefront_bff/internal/domain/voucher"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

func main() {
	// 加载配置
	config.LoadConfig()
	logger.Init(config.GlobalConfig.App.Debug)
	defer logger.Sync()

	// 初始化指标采集
	metrics.InitMetrics()
	collector := metrics.GetGlobalCollector()

	// 初始化 Redis（会话状态 + 目录缓存）
	rdb := database.InitRedis()
	sessions := session.NewStore(rdb)
	cacheService := cache.NewRedisCache(rdb)

	// 上游折扣/支付服务客户端
	upstreamClient := upstream.NewClient(config.GlobalConfig.Upstream, collector)

	// 审计流水异步写入池
	auditPool := worker.NewAuditPool(sessions, 2, 256)
	auditPool.Start()

	// Gin 引擎
	gin.SetMode(config.GlobalConfig.Server.Mode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.RateLimitMiddleware())
	r.Use(middleware.MetricsMiddleware(collector))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// 运维端点
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 本地调试用的会话令牌签发，生产环境由网关签发
	if config.GlobalConfig.App.Debug {
		r.POST("/auth/dev-token", func(c *gin.Context) {
			userID := c.DefaultQuery("user_id", "dev-user")
			token, expireAt, err := utils.GenerateToken(userID, uuid.New().String())
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"token": token, "expire_at": expireAt})
		})
	}

	// 按优先级初始化所有业务模块
	moduleCtx := &registry.ModuleContext{
		Redis:    rdb,
		Router:   r,
		Upstream: upstreamClient,
		Sessions: sessions,
		Cache:    cacheService,
		Audit:    auditPool,
		Metrics:  collector,
	}
	if err := registry.InitModules(moduleCtx); err != nil {
		logger.Log.Fatal("module init failed", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         ":" + config.GlobalConfig.Server.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// 优雅退出
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Log.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("shutdown error", zap.Error(err))
	}
	if err := rdb.Close(); err != nil {
		logger.Log.Error("redis close error", zap.Error(err))
	}
}
