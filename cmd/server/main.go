package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"octa-backend/pkg/api"
	"octa-backend/pkg/cache"
	"octa-backend/pkg/config"
	"octa-backend/pkg/database"
	"octa-backend/pkg/imagestore"
	"octa-backend/pkg/mailer"
	"octa-backend/pkg/websocket"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup logging
	setupLogging(cfg)

	logrus.Info("Starting Octa backend...")

	// Initialize database
	if err := database.Initialize(cfg); err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	// Run database migrations
	if err := database.AutoMigrate(); err != nil {
		logrus.Fatalf("Failed to run database migrations: %v", err)
	}

	// Seed initial data
	if err := database.SeedData(cfg); err != nil {
		logrus.Fatalf("Failed to seed database: %v", err)
	}

	// Initialize Redis cache. The API degrades to database-backed rate
	// limiting and uncached reads without it.
	if err := cache.Initialize(cfg); err != nil {
		logrus.Warnf("Redis unavailable, continuing without cache: %v", err)
	}
	defer cache.Close()
	redisCache := cache.NewRedisCache()

	// Initialize image storage
	images, err := imagestore.New(cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize image storage: %v", err)
	}

	// Initialize mail delivery
	mail := mailer.New(cfg)

	// Start the back-office event hub
	hubCtx, hubCancel := context.WithCancel(context.Background())
	defer hubCancel()
	hub := websocket.NewHub()
	go hub.Run(hubCtx)

	// Setup HTTP server
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	// In production, specify allowed origins instead of allowing all
	if cfg.IsDevelopment() {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = []string{
			"https://octa.example",
			"https://www.octa.example",
		}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{
		"Origin",
		"Content-Length",
		"Content-Type",
		"Authorization",
	}
	corsConfig.ExposeHeaders = []string{
		"X-RateLimit-Limit",
		"X-RateLimit-Remaining",
		"X-RateLimit-Reset",
	}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Initialize API routes
	api.SetupRoutes(router, cfg, redisCache, hub, images, mail)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in a goroutine
	go func() {
		logrus.Infof("Octa backend listening on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down Octa backend...")

	hubCancel()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Octa backend stopped")
}

func setupLogging(cfg *config.Config) {
	logrus.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
	})

	if cfg.IsDevelopment() {
		logrus.SetLevel(logrus.DebugLevel)
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}
}
