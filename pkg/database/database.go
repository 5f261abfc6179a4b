package database

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"octa-backend/pkg/config"
	"octa-backend/pkg/models"
)

var DB *gorm.DB

// Initialize database connection
func Initialize(cfg *config.Config) error {
	dsn := cfg.GetDatabaseURL()

	logLevel := logger.Warn
	if cfg.IsDevelopment() {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	// Connection pool configuration
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpen)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdle)
	sqlDB.SetConnMaxLifetime(cfg.Database.MaxLife)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	DB = db
	logrus.Info("Database connected successfully")
	return nil
}

// AutoMigrate runs database migrations
func AutoMigrate() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	err := DB.AutoMigrate(
		&models.User{},
		&models.Admin{},
		&models.PaymentScreenshot{},
		&models.WithdrawalRequest{},
		&models.PaymentMethod{},
		&models.Stock{},
		&models.PercentageSetting{},
		&models.KYC{},
		&models.Enquiry{},
		// Auth models
		&models.UserSession{},
		&models.TwoFactorAuth{},
		&models.LoginAttempt{},
		&models.RateLimit{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	logrus.Info("Database migration completed successfully")
	return nil
}

// SeedData creates the default admin account if none exists
func SeedData(cfg *config.Config) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	var count int64
	if err := DB.Model(&models.Admin{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count admins: %w", err)
	}
	if count > 0 {
		return nil
	}
	if cfg.IsProduction() {
		logrus.Warn("No admin accounts exist and seeding is disabled in production")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash seed password: %w", err)
	}

	admin := models.Admin{
		Name:         "Administrator",
		Email:        "admin@octa.example",
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		IsActive:     true,
	}
	if err := DB.Create(&admin).Error; err != nil {
		return fmt.Errorf("failed to create default admin: %w", err)
	}

	logrus.WithField("email", admin.Email).Warn("Created default admin account, change the password immediately")
	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}

// Close closes the database connection
func Close() error {
	if DB != nil {
		sqlDB, err := DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}

// Health check for database
func HealthCheck() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	return nil
}
