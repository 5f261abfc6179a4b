package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"gorm.io/gorm"

	"octa-backend/pkg/models"
)

// SessionMiddleware handles session bookkeeping. JWT auth is stateless;
// sessions exist so logout and admin-forced invalidation are possible.
type SessionMiddleware struct {
	db *gorm.DB
}

// NewSessionMiddleware creates a new session middleware
func NewSessionMiddleware(db *gorm.DB) *SessionMiddleware {
	return &SessionMiddleware{
		db: db,
	}
}

// CreateSession records a new session for a user or back-office account
func (sm *SessionMiddleware) CreateSession(userID uint, userType, token, ipAddress, userAgent string, ttl time.Duration) (*models.UserSession, error) {
	session := &models.UserSession{
		UserID:    userID,
		UserType:  userType,
		Token:     hashToken(token),
		IPAddress: ipAddress,
		UserAgent: userAgent,
		IsActive:  true,
		ExpiresAt: time.Now().Add(ttl),
	}

	if err := sm.db.Create(session).Error; err != nil {
		return nil, err
	}

	return session, nil
}

// InvalidateSession invalidates a session by its raw token
func (sm *SessionMiddleware) InvalidateSession(token string) error {
	return sm.db.Model(&models.UserSession{}).
		Where("token = ?", hashToken(token)).
		Update("is_active", false).Error
}

// InvalidateAllUserSessions invalidates all sessions for an account
func (sm *SessionMiddleware) InvalidateAllUserSessions(userID uint, userType string) error {
	return sm.db.Model(&models.UserSession{}).
		Where("user_id = ? AND user_type = ? AND is_active = ?", userID, userType, true).
		Update("is_active", false).Error
}

// CleanupExpiredSessions removes expired sessions
func (sm *SessionMiddleware) CleanupExpiredSessions() error {
	return sm.db.Where("expires_at < ?", time.Now()).Delete(&models.UserSession{}).Error
}

// GetActiveSessions gets active sessions for an account
func (sm *SessionMiddleware) GetActiveSessions(userID uint, userType string) ([]models.UserSession, error) {
	var sessions []models.UserSession
	err := sm.db.Where("user_id = ? AND user_type = ? AND is_active = ? AND expires_at > ?",
		userID, userType, true, time.Now()).
		Order("created_at DESC").
		Find(&sessions).Error

	return sessions, err
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
