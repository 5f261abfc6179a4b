package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"octa-backend/pkg/cache"
	"octa-backend/pkg/models"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Requests   int                         // Number of requests
	Window     time.Duration               // Time window
	KeyFunc    func(c *gin.Context) string // Function to generate rate limit key
	Message    string                      // Error message to return
	StatusCode int                         // HTTP status code to return
}

// Default rate limiting configurations
var (
	DefaultRateLimit = RateLimitConfig{
		Requests:   100,
		Window:     time.Minute,
		KeyFunc:    func(c *gin.Context) string { return c.ClientIP() },
		Message:    "Too many requests, please try again later",
		StatusCode: http.StatusTooManyRequests,
	}

	// LoginRateLimit throttles credential guessing per IP
	LoginRateLimit = RateLimitConfig{
		Requests:   10,
		Window:     time.Minute,
		KeyFunc:    func(c *gin.Context) string { return "login:" + c.ClientIP() },
		Message:    "Too many login attempts, please try again later",
		StatusCode: http.StatusTooManyRequests,
	}

	// UploadRateLimit throttles screenshot and document uploads per user
	UploadRateLimit = RateLimitConfig{
		Requests: 20,
		Window:   time.Minute,
		KeyFunc: func(c *gin.Context) string {
			if userID, exists := c.Get("user_id"); exists {
				return fmt.Sprintf("upload:%v", userID)
			}
			return c.ClientIP()
		},
		Message:    "Upload rate limit exceeded",
		StatusCode: http.StatusTooManyRequests,
	}
)

// RateLimitMiddleware handles rate limiting
type RateLimitMiddleware struct {
	cache *cache.RedisCache
	db    *gorm.DB
}

// NewRateLimitMiddleware creates a new rate limiting middleware
func NewRateLimitMiddleware(cache *cache.RedisCache, db *gorm.DB) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		cache: cache,
		db:    db,
	}
}

// IPRateLimit creates a rate limiting middleware for IP addresses
func (rl *RateLimitMiddleware) IPRateLimit(config RateLimitConfig) gin.HandlerFunc {
	return rl.RateLimit(config)
}

// LoginRateLimit creates a rate limiting middleware for login endpoints
func (rl *RateLimitMiddleware) LoginRateLimit() gin.HandlerFunc {
	return rl.RateLimit(LoginRateLimit)
}

// UploadRateLimit creates a rate limiting middleware for upload endpoints
func (rl *RateLimitMiddleware) UploadRateLimit() gin.HandlerFunc {
	return rl.RateLimit(UploadRateLimit)
}

// RateLimit creates a rate limiting middleware with the given configuration
func (rl *RateLimitMiddleware) RateLimit(config RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := config.KeyFunc(c)
		rateLimitKey := fmt.Sprintf("rate_limit:%s", key)

		// Try Redis first for better performance
		if rl.cache != nil {
			allowed, err := rl.checkRateLimitRedis(rateLimitKey, config)
			if err == nil {
				if !allowed {
					c.JSON(config.StatusCode, gin.H{"error": config.Message})
					c.Abort()
					return
				}
				c.Next()
				return
			}
			// If Redis fails, fall back to database
		}

		// Fallback to database rate limiting
		allowed, err := rl.checkRateLimitDB(key, config)
		if err != nil {
			// If rate limiting fails, allow the request rather than making
			// the whole service unavailable
			c.Next()
			return
		}

		if !allowed {
			c.JSON(config.StatusCode, gin.H{"error": config.Message})
			c.Abort()
			return
		}

		c.Next()
	}
}

// checkRateLimitRedis checks rate limiting using a Redis sliding window
func (rl *RateLimitMiddleware) checkRateLimitRedis(key string, config RateLimitConfig) (bool, error) {
	now := time.Now().Unix()
	expiredTime := now - int64(config.Window.Seconds())

	// Remove expired entries
	_, err := rl.cache.Client().ZRemRangeByScore(rl.cache.Context(), key, "0", strconv.FormatInt(expiredTime, 10)).Result()
	if err != nil {
		return false, err
	}

	// Count current requests
	count, err := rl.cache.Client().ZCard(rl.cache.Context(), key).Result()
	if err != nil {
		return false, err
	}

	if count >= int64(config.Requests) {
		return false, nil
	}

	// Add current request
	err = rl.cache.Client().ZAdd(rl.cache.Context(), key, &redis.Z{
		Score:  float64(now),
		Member: fmt.Sprintf("%d-%d", now, time.Now().UnixNano()),
	}).Err()
	if err != nil {
		return false, err
	}

	// Set expiration
	err = rl.cache.Client().Expire(rl.cache.Context(), key, config.Window).Err()
	if err != nil {
		return false, err
	}

	return true, nil
}

// checkRateLimitDB checks rate limiting using the database
func (rl *RateLimitMiddleware) checkRateLimitDB(key string, config RateLimitConfig) (bool, error) {
	now := time.Now()
	windowStart := now.Add(-config.Window)

	// Clean up old entries
	rl.db.Where("key = ? AND window_start < ?", key, windowStart).Delete(&models.RateLimit{})

	// Get current rate limit record
	var rateLimit models.RateLimit
	result := rl.db.Where("key = ? AND window_start >= ?", key, windowStart).First(&rateLimit)

	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			rateLimit = models.RateLimit{
				Key:         key,
				Count:       1,
				WindowStart: now,
			}
			if err := rl.db.Create(&rateLimit).Error; err != nil {
				return false, err
			}
			return true, nil
		}
		return false, result.Error
	}

	if rateLimit.Count >= config.Requests {
		return false, nil
	}

	rateLimit.Count++
	if err := rl.db.Save(&rateLimit).Error; err != nil {
		return false, err
	}

	return true, nil
}
