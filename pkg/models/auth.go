package models

import (
	"time"
)

// UserSession represents active sessions for users and back-office accounts
type UserSession struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	UserType  string    `gorm:"not null;default:'user';size:10" json:"user_type"` // user or admin
	Token     string    `gorm:"unique;not null" json:"-"`                         // JWT token hash
	IPAddress string    `gorm:"not null" json:"ip_address"`
	UserAgent string    `json:"user_agent"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TwoFactorAuth represents 2FA settings for back-office accounts
type TwoFactorAuth struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	AdminID     uint       `gorm:"unique;not null" json:"admin_id"`
	Secret      string     `gorm:"not null" json:"-"`  // TOTP secret
	BackupCodes string     `gorm:"type:text" json:"-"` // JSON array of backup codes
	IsEnabled   bool       `gorm:"default:false" json:"is_enabled"`
	LastUsedAt  *time.Time `json:"last_used_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Relationships
	Admin Admin `gorm:"foreignKey:AdminID" json:"-"`
}

// LoginAttempt represents login attempts for security monitoring
type LoginAttempt struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"not null;index" json:"email"`
	IPAddress string    `gorm:"not null;index" json:"ip_address"`
	UserAgent string    `json:"user_agent"`
	Success   bool      `gorm:"not null;index" json:"success"`
	Reason    string    `json:"reason,omitempty"` // Failure reason
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// RateLimit represents rate limiting data (database fallback when Redis is down)
type RateLimit struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Key         string    `gorm:"unique;not null;index" json:"key"` // IP or UserID
	Count       int       `gorm:"not null" json:"count"`
	WindowStart time.Time `gorm:"not null;index" json:"window_start"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName methods
func (UserSession) TableName() string   { return "user_sessions" }
func (TwoFactorAuth) TableName() string { return "two_factor_auth" }
func (LoginAttempt) TableName() string  { return "login_attempts" }
func (RateLimit) TableName() string     { return "rate_limits" }
