package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	SMTP       SMTPConfig
	Cloudinary CloudinaryConfig
	Ledger     LedgerConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	Environment  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxOpen  int
	MaxIdle  int
	MaxLife  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	Database int
	PoolSize int
}

type JWTConfig struct {
	SecretKey string
	ExpiresIn time.Duration
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

type CloudinaryConfig struct {
	CloudName     string
	APIKey        string
	APISecret     string
	UploadTimeout time.Duration
}

type LedgerConfig struct {
	DefaultBrokeragePct string
	MaxUploadSize       int64
	MinWithdrawal       string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getDurationEnv("SERVER_IDLE_TIMEOUT", 60*time.Second),
			Environment:  getEnv("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "octa_db"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxOpen:  getIntEnv("DB_MAX_OPEN", 25),
			MaxIdle:  getIntEnv("DB_MAX_IDLE", 5),
			MaxLife:  getDurationEnv("DB_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			Database: getIntEnv("REDIS_DATABASE", 0),
			PoolSize: getIntEnv("REDIS_POOL_SIZE", 10),
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET_KEY", "octa-backend-secret-key"),
			ExpiresIn: getDurationEnv("JWT_EXPIRES_IN", 7*24*time.Hour),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", "smtp.gmail.com"),
			Port:     getIntEnv("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "no-reply@octa.example"),
			Timeout:  getDurationEnv("SMTP_TIMEOUT", 10*time.Second),
		},
		Cloudinary: CloudinaryConfig{
			CloudName:     getEnv("CLOUDINARY_CLOUD_NAME", ""),
			APIKey:        getEnv("CLOUDINARY_API_KEY", ""),
			APISecret:     getEnv("CLOUDINARY_API_SECRET", ""),
			UploadTimeout: getDurationEnv("CLOUDINARY_UPLOAD_TIMEOUT", 30*time.Second),
		},
		Ledger: LedgerConfig{
			DefaultBrokeragePct: getEnv("DEFAULT_BROKERAGE_PCT", "5"),
			MaxUploadSize:       int64(getIntEnv("MAX_UPLOAD_SIZE", 5*1024*1024)),
			MinWithdrawal:       getEnv("MIN_WITHDRAWAL", "1"),
		},
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func (c *Config) GetDatabaseURL() string {
	return "postgres://" + c.Database.User + ":" + c.Database.Password + "@" + c.Database.Host + ":" + c.Database.Port + "/" + c.Database.DBName + "?sslmode=" + c.Database.SSLMode
}

func (c *Config) GetRedisURL() string {
	return c.Redis.Host + ":" + c.Redis.Port
}

func (c *Config) GetServerAddress() string {
	return c.Server.Host + ":" + c.Server.Port
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
