package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"octa-backend/pkg/auth"
	"octa-backend/pkg/models"
)

// AuthMiddleware handles authentication
type AuthMiddleware struct {
	jwtService *auth.JWTService
	db         *gorm.DB
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(jwtService *auth.JWTService, db *gorm.DB) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		db:         db,
	}
}

// JWTAuth middleware for JWT authentication. Resolves the token subject
// against the users or admins table depending on the user_type claim.
func (am *AuthMiddleware) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		// Check if it's a Bearer token
		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := am.jwtService.ValidateToken(tokenParts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		if claims.UserType == "admin" {
			var admin models.Admin
			if err := am.db.First(&admin, claims.UserID).Error; err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Account not found"})
				c.Abort()
				return
			}
			if !admin.IsActive {
				c.JSON(http.StatusForbidden, gin.H{"error": "Account is disabled"})
				c.Abort()
				return
			}
			c.Set("admin", &admin)
			c.Set("user_id", claims.UserID)
			c.Set("user_type", "admin")
			c.Set("user_role", admin.Role)
			c.Next()
			return
		}

		var user models.User
		if err := am.db.First(&user, claims.UserID).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
			c.Abort()
			return
		}

		c.Set("user", &user)
		c.Set("user_id", claims.UserID)
		c.Set("user_type", "user")
		c.Set("user_role", models.RoleUser)
		c.Next()
	}
}

// RequireRole middleware that requires specific roles
func RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, exists := c.Get("user_role")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}

		role, ok := userRole.(models.UserRole)
		if !ok {
			c.JSON(http.StatusForbidden, gin.H{"error": "Invalid user role"})
			c.Abort()
			return
		}

		for _, requiredRole := range roles {
			if role == requiredRole {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
		c.Abort()
	}
}

// RequireAdmin middleware that requires admin role
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(models.RoleAdmin)
}

// RequireAgentOrAdmin middleware that requires a back-office role
func RequireAgentOrAdmin() gin.HandlerFunc {
	return RequireRole(models.RoleAgent, models.RoleAdmin)
}

// RequireApproved middleware that requires an approved user account.
// Pending and rejected users can authenticate nowhere, but the check here
// guards any handler reachable before login is blocked.
func RequireApproved() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, exists := GetUserFromContext(c)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}

		if !user.IsApproved() {
			c.JSON(http.StatusForbidden, gin.H{"error": "Account is not approved"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// LogLogin logs login attempts
func (am *AuthMiddleware) LogLogin(email, ipAddress, userAgent string, success bool, reason string) {
	loginAttempt := models.LoginAttempt{
		Email:     email,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		Success:   success,
		Reason:    reason,
	}
	am.db.Create(&loginAttempt)
}

// GetUserFromContext gets the authenticated user from gin context
func GetUserFromContext(c *gin.Context) (*models.User, bool) {
	user, exists := c.Get("user")
	if !exists {
		return nil, false
	}

	userModel, ok := user.(*models.User)
	return userModel, ok
}

// GetAdminFromContext gets the authenticated back-office account from gin context
func GetAdminFromContext(c *gin.Context) (*models.Admin, bool) {
	admin, exists := c.Get("admin")
	if !exists {
		return nil, false
	}

	adminModel, ok := admin.(*models.Admin)
	return adminModel, ok
}

// GetUserIDFromContext gets user ID from gin context
func GetUserIDFromContext(c *gin.Context) (uint, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		return 0, false
	}

	id, ok := userID.(uint)
	return id, ok
}
