package router

import (
	"time"

	"athlos/config"
	"athlos/internal/domain"
	"athlos/internal/handler"
	"athlos/internal/middleware"
	"athlos/internal/repository"
	"athlos/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	payoutRepo := repository.NewPayoutRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	configRepo := repository.NewCommissionConfigRepository(db)
	alertRepo := repository.NewAlertRepository(db)

	// Services
	authSvc := service.NewAuthService(cfg, userRepo)
	auditSvc := service.NewAuditService(auditRepo)
	commissionSvc := service.NewCommissionService()
	tokenSvc := service.NewTokenService(
		db, tokenRepo, configRepo, commissionSvc, auditSvc,
		cfg.Ledger.ServerSecret, cfg.Ledger.DefaultTokenTTL, cfg.Ledger.MaxTokenTTL,
	)
	payoutSvc := service.NewPayoutService(
		db, tokenRepo, payoutRepo, alertRepo, tokenSvc, auditSvc,
		cfg.Ledger.ServerSecret,
	)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	tokenHandler := handler.NewTokenHandler(tokenSvc)
	payoutHandler := handler.NewPayoutHandler(payoutSvc)
	adminHandler := handler.NewAdminHandler(configRepo, alertRepo, auditRepo, auditSvc, tokenSvc)

	authMw := middleware.AuthRequired(&cfg.JWT)

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}

		tokens := api.Group("/tokens")
		tokens.Use(authMw)
		{
			tokens.POST("", middleware.RequireRole(domain.RoleAthlete), tokenHandler.Create)
			tokens.GET("/:id", tokenHandler.Preview)
			tokens.GET("/:id/validate", tokenHandler.Validate)
			tokens.POST("/:id/use", middleware.RequireRole(domain.RoleCoach), tokenHandler.Use)
		}

		payouts := api.Group("/payouts")
		payouts.Use(authMw, middleware.RequireRole(domain.RoleCoach))
		{
			payouts.POST("", payoutHandler.Create)
			payouts.GET("", payoutHandler.ListMine)
			payouts.GET("/by-token/:token_id", payoutHandler.GetByToken)
		}

		admin := api.Group("/admin")
		admin.Use(authMw, middleware.AdminRequired())
		{
			admin.POST("/commission-configs", adminHandler.CreateCommissionConfig)
			admin.POST("/commission-configs/:id/activate", adminHandler.ActivateCommissionConfig)
			admin.GET("/commission-configs", adminHandler.ListCommissionConfigs)
			admin.POST("/tokens/:id/revoke", adminHandler.RevokeToken)
			admin.GET("/audit", adminHandler.ListAuditLog)
			admin.GET("/audit/verify", adminHandler.VerifyAuditChain)
			admin.GET("/alerts", adminHandler.ListAlerts)
			admin.POST("/alerts/:id/resolve", adminHandler.ResolveAlert)
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
