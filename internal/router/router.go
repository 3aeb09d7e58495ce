package router

import (
	"warsha/config"
	"warsha/internal/handler"
	"warsha/internal/middleware"
	"warsha/internal/repository"
	"warsha/internal/service"
	"warsha/pkg/appsscript"
	"warsha/pkg/gateway"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB, log *zap.SugaredLogger) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	// the checkout page is served from arbitrary origins
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Content-Type", "Authorization"},
	}))
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(cfg.RateLimit.Limit, cfg.RateLimit.Window)))

	// Repositories
	paymentRepo := repository.NewPaymentRecordRepository(db)
	regRepo := repository.NewRegistrationRepository(db)

	// External collaborators
	auto := appsscript.NewClient(cfg.AppsScript.URL, cfg.AppsScript.Token, log)
	gw := gateway.NewGeideaClient(cfg.Gateway.Mode, cfg.Gateway.MerchantID, cfg.Gateway.APIKey, cfg.Gateway.APISecret, log)

	// Services
	paySvc := service.NewPaymentService(paymentRepo, gw, auto, cfg.Server.BaseURL+"/api/payment/webhook", log)

	// Handlers
	regHandler := handler.NewRegistrationHandler(auto, regRepo, log)
	payHandler := handler.NewPaymentHandler(paySvc, log)
	webhookHandler := handler.NewPaymentWebhookHandler(paySvc, log)
	statusHandler := handler.NewPaymentStatusHandler(paySvc, log)
	fulfillHandler := handler.NewFulfillmentHandler(paySvc, log)
	healthHandler := handler.NewHealthHandler(auto)

	api := r.Group("/api")
	{
		api.POST("/register", regHandler.Register)

		pay := api.Group("/payment")
		pay.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(cfg.RateLimit.PaymentLimit, cfg.RateLimit.Window)))
		{
			pay.POST("/session", payHandler.CreateSession)
			pay.POST("/webhook", webhookHandler.Handle)
			pay.GET("/status", statusHandler.Status)
			pay.POST("/fulfill", fulfillHandler.Fulfill)
		}
	}
	r.GET("/health", healthHandler.Health)

	return r
}
