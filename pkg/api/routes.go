package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"octa-backend/pkg/account"
	"octa-backend/pkg/auth"
	"octa-backend/pkg/cache"
	"octa-backend/pkg/config"
	"octa-backend/pkg/database"
	"octa-backend/pkg/imagestore"
	"octa-backend/pkg/mailer"
	"octa-backend/pkg/middleware"
	"octa-backend/pkg/wallet"
	"octa-backend/pkg/websocket"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, cfg *config.Config, redisCache *cache.RedisCache,
	hub *websocket.Hub, images *imagestore.Store, mail *mailer.Mailer) {
	db := database.GetDB()

	// Initialize authentication services
	jwtService := auth.NewJWTService(cfg.JWT.SecretKey, cfg.JWT.ExpiresIn)
	totpService := auth.NewTOTPService("Octa")

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService, db)
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(redisCache, db)
	sessionMiddleware := middleware.NewSessionMiddleware(db)

	// Initialize domain services
	walletService := wallet.NewService(db)
	accountService := account.NewService(db)

	// Initialize handlers
	authHandlers := NewAuthHandlers(db, cfg, jwtService, totpService,
		authMiddleware, sessionMiddleware, accountService, mail, hub)
	paymentHandlers := NewPaymentHandlers(db, cfg, walletService, images, mail, hub)
	withdrawalHandlers := NewWithdrawalHandlers(db, cfg, walletService, images, mail, hub)
	stockHandlers := NewStockHandlers(db, cfg, images)
	kycHandlers := NewKYCHandlers(db, cfg, images, hub)

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "octa-backend",
			"version": "1.0.0",
		})
	})

	// Setup Swagger documentation
	setupSwagger(router)

	// Apply global rate limiting to all routes
	router.Use(rateLimitMiddleware.IPRateLimit(middleware.DefaultRateLimit))

	// API version group
	v1 := router.Group("/api/v1")
	{
		// Public authentication endpoints (no auth required)
		authPublic := v1.Group("/auth")
		{
			authPublic.POST("/register", authHandlers.Register)
			authPublic.POST("/login", rateLimitMiddleware.LoginRateLimit(), authHandlers.Login)
		}

		// Protected authentication endpoints (auth required)
		authProtected := v1.Group("/auth")
		authProtected.Use(authMiddleware.JWTAuth())
		{
			authProtected.POST("/logout", authHandlers.Logout)
			authProtected.GET("/profile", authHandlers.GetProfile)
		}

		// Public endpoints
		v1.GET("/payment-methods", paymentHandlers.GetPaymentMethods)
		v1.POST("/enquiries", kycHandlers.SubmitEnquiry)

		// Deposit endpoints (approved users only)
		payments := v1.Group("/payments")
		payments.Use(authMiddleware.JWTAuth())
		payments.Use(middleware.RequireApproved())
		{
			payments.POST("", rateLimitMiddleware.UploadRateLimit(), paymentHandlers.SubmitPayment)
			payments.GET("", paymentHandlers.GetMyPayments)
		}

		// Withdrawal endpoints (approved users only)
		withdrawals := v1.Group("/withdrawals")
		withdrawals.Use(authMiddleware.JWTAuth())
		withdrawals.Use(middleware.RequireApproved())
		{
			withdrawals.POST("", rateLimitMiddleware.UploadRateLimit(), withdrawalHandlers.RequestWithdrawal)
			withdrawals.GET("", withdrawalHandlers.GetMyWithdrawals)
		}

		// Balance endpoint (approved users only)
		v1.GET("/balance", authMiddleware.JWTAuth(), middleware.RequireApproved(), withdrawalHandlers.GetBalance)

		// Stock ledger endpoints (approved users only)
		stocks := v1.Group("/stocks")
		stocks.Use(authMiddleware.JWTAuth())
		stocks.Use(middleware.RequireApproved())
		{
			stocks.GET("", stockHandlers.GetMyStocks)
			stocks.GET("/percentages", stockHandlers.GetMyPercentages)
		}

		// KYC endpoints (approved users only)
		kyc := v1.Group("/kyc")
		kyc.Use(authMiddleware.JWTAuth())
		kyc.Use(middleware.RequireApproved())
		{
			kyc.POST("", rateLimitMiddleware.UploadRateLimit(), kycHandlers.SubmitKYC)
			kyc.GET("", kycHandlers.GetMyKYC)
		}
	}

	// Admin endpoints (back-office accounts only)
	admin := router.Group("/admin")
	admin.Use(authMiddleware.JWTAuth())
	admin.Use(middleware.RequireAgentOrAdmin())
	{
		// Dashboard counters
		admin.GET("/pending-counts", authHandlers.GetPendingCounts)

		// Account approval
		admin.GET("/users/pending", authHandlers.GetPendingUsers)
		admin.GET("/users/approved", authHandlers.GetApprovedUsers)
		admin.POST("/users/:userId/approve", authHandlers.ApproveUser)
		admin.POST("/users/:userId/reject", authHandlers.RejectUser)
		admin.DELETE("/users/:userId", middleware.RequireAdmin(), authHandlers.DeleteUser)

		// Deposit verification
		admin.GET("/payments/pending", paymentHandlers.GetPendingPayments)
		admin.GET("/payments/history", paymentHandlers.GetPaymentHistory)
		admin.POST("/payments/:paymentId/verify", paymentHandlers.VerifyPayment)
		admin.POST("/payments/:paymentId/reject", paymentHandlers.RejectPayment)

		// Withdrawal processing
		admin.GET("/withdrawals/pending", withdrawalHandlers.GetPendingWithdrawals)
		admin.GET("/withdrawals/history", withdrawalHandlers.GetWithdrawalHistory)
		admin.POST("/withdrawals/:withdrawalId/process", withdrawalHandlers.ProcessWithdrawal)
		admin.POST("/withdrawals/:withdrawalId/reject", withdrawalHandlers.RejectWithdrawal)

		// Per-user stock ledgers and charge percentages
		admin.GET("/users/:userId/stocks", stockHandlers.GetUserStocks)
		admin.POST("/users/:userId/stocks", stockHandlers.CreateStock)
		admin.PUT("/stocks/:stockId", stockHandlers.UpdateStock)
		admin.POST("/stocks/:stockId/image", stockHandlers.UploadStockImage)
		admin.DELETE("/stocks/:stockId", stockHandlers.DeleteStock)
		admin.GET("/users/:userId/percentages", stockHandlers.GetPercentages)
		admin.PUT("/users/:userId/percentages", stockHandlers.SetPercentages)

		// KYC review
		admin.GET("/kyc", kycHandlers.ListKYC)
		admin.GET("/users/:userId/kyc", kycHandlers.GetUserKYC)

		// Enquiries
		admin.GET("/enquiries", kycHandlers.ListEnquiries)

		// Payment method management
		admin.GET("/payment-methods", paymentHandlers.GetAllPaymentMethods)
		admin.POST("/payment-methods", paymentHandlers.CreatePaymentMethod)
		admin.PUT("/payment-methods/:methodId", paymentHandlers.UpdatePaymentMethod)
		admin.POST("/payment-methods/:methodId/qr", paymentHandlers.UploadPaymentQR)
		admin.DELETE("/payment-methods/:methodId", paymentHandlers.DeletePaymentMethod)

		// Account security
		admin.POST("/change-password", authHandlers.ChangePassword)
		admin.POST("/2fa/enable", authHandlers.Enable2FA)
		admin.POST("/2fa/verify", authHandlers.Verify2FA)
		admin.POST("/2fa/disable", authHandlers.Disable2FA)

		// Live event stream for the back-office dashboard
		admin.GET("/ws", hub.HandleWebSocket)

		// Infrastructure health
		admin.GET("/health/database", checkDatabaseHealth)
		admin.GET("/health/redis", checkRedisHealth)
	}
}

// checkDatabaseHealth reports database connectivity
func checkDatabaseHealth(c *gin.Context) {
	if err := database.HealthCheck(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// checkRedisHealth reports Redis connectivity
func checkRedisHealth(c *gin.Context) {
	if err := cache.HealthCheck(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
