package router

import (
	"fmt"
	"strings"

	"github.com/yenflowers/api/internal/cache"
	"github.com/yenflowers/api/internal/config"
	"github.com/yenflowers/api/internal/constants"
	adminhandlers "github.com/yenflowers/api/internal/http/handlers/admin"
	publichandlers "github.com/yenflowers/api/internal/http/handlers/public"
	"github.com/yenflowers/api/internal/logger"
	"github.com/yenflowers/api/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = constants.RedisPrefixDefault
	}
	redisClient := cache.Client()
	checkoutRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:checkout", redisPrefix),
		WindowSeconds: cfg.Security.CheckoutRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.CheckoutRateLimit.MaxAttempts,
		Message:       "too many checkout attempts, retry in %d seconds",
	}
	paymentRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:payment", redisPrefix),
		WindowSeconds: cfg.Security.PaymentRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.PaymentRateLimit.MaxAttempts,
		Message:       "too many payment attempts, retry in %d seconds",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		apiV1.GET("/config", publicHandler.GetConfig)

		// 订单接口（访客下单，无需登录）
		orders := apiV1.Group("/orders")
		{
			orders.POST("/checkout", RateLimitMiddleware(redisClient, checkoutRule, KeyByIP), publicHandler.Checkout)
			orders.GET("/:order_number", publicHandler.GetOrderByNumber)
		}

		// 支付接口
		payments := apiV1.Group("/payments")
		{
			payments.POST("/:id/stripe/session", RateLimitMiddleware(redisClient, paymentRule, KeyByIP), publicHandler.CreateStripePayment)
			payments.POST("/:id/paypal/capture", RateLimitMiddleware(redisClient, paymentRule, KeyByIP), publicHandler.CapturePaypalPayment)
		}
		apiV1.POST("/payments/webhook/stripe", publicHandler.StripeWebhook)

		// 管理接口（鉴权由上游网关负责）
		admin := apiV1.Group("/admin")
		{
			admin.GET("/orders", adminHandler.ListOrders)
			admin.GET("/orders/:id", adminHandler.GetOrder)
			admin.PATCH("/orders/:id/status", adminHandler.UpdateOrderStatus)
			admin.GET("/discount-codes", adminHandler.ListDiscountCodes)
			admin.POST("/discount-codes", adminHandler.CreateDiscountCode)
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
